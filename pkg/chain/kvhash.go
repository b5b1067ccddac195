package chain

import (
	"github.com/tde2e/callcore/pkg/crypto"
	"github.com/tde2e/callcore/pkg/tl"
)

// computeKVHash folds changes into the running key-value hash chain,
// starting from prev (the all-zero hash for a genesis block). This lets a peer holding only the
// latest block verify the exact set of changes a new block applied
// without replaying the whole chain from genesis.
func computeKVHash(prev crypto.Hash256, changes []Change) (crypto.Hash256, error) {
	hash := prev
	for _, c := range changes {
		w := tl.NewWriter()
		if err := encodeChange(w, c); err != nil {
			return crypto.Hash256{}, err
		}
		combined := append(append([]byte(nil), hash[:]...), w.Bytes()...)
		hash = crypto.SHA256(combined)
	}
	return hash, nil
}
