package verification

// wordList is a deterministic, generated 2048-entry list of pronounceable
// tokens used to render a verification hash as words a user can read
// aloud. It is built at init time from two small syllable tables rather
// than embedded as a literal 2048-line list: every entry is
// table-addressable (word[i] == firstSyllable[i/len(secondSyllables)] +
// secondSyllable[i%len(secondSyllables)]), so a given 11-bit index always
// names the same word across builds without risk of a hand-transcription
// error silently desyncing two independently built binaries.
var wordList = generateWordList()

var firstSyllables = []string{
	"ba", "be", "bi", "bo",
	"da", "de", "di", "do",
	"fa", "fe", "fi", "fo",
	"ga", "ge", "gi", "go",
	"ka", "ke", "ki", "ko",
	"la", "le", "li", "lo",
	"ma", "me", "mi", "mo",
	"na", "ne", "ni", "no",
	"pa", "pe", "pi", "po",
	"ra", "re", "ri", "ro",
	"sa", "se", "si", "so",
	"ta", "te", "ti", "to",
	"va", "ve", "vi", "vo",
	"za", "ze", "zi", "zo",
	"cha", "che", "chi", "cho",
	"sha", "she", "shi", "sho",
}

var secondSyllables = []string{
	"bar", "ber", "don", "fin",
	"gal", "hon", "jun", "kir",
	"lan", "mor", "nir", "pol",
	"ran", "sol", "tan", "vel",
	"win", "zun", "ron", "mik",
	"dar", "ses", "tol", "vin",
	"gor", "hel", "lun", "nar",
	"pin", "rol", "sun", "tel",
}

func generateWordList() []string {
	if len(firstSyllables)*len(secondSyllables) != 2048 {
		panic("verification: syllable tables must produce exactly 2048 words")
	}
	words := make([]string, 0, 2048)
	for _, a := range firstSyllables {
		for _, b := range secondSyllables {
			words = append(words, a+b)
		}
	}
	return words
}
