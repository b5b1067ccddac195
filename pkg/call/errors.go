package call

import "errors"

var (
	// ErrParseError is returned when a block byte string cannot be decoded.
	ErrParseError = errors.New("call: malformed block")
	// ErrMissingGroupState is returned when bootstrapping from a block
	// whose state proof does not declare a group state, so there is no
	// current membership snapshot to extend or adopt.
	ErrMissingGroupState = errors.New("call: block carries no group state")
	// ErrNotAMember is returned when the local private key does not
	// correspond to any participant in the group state being adopted.
	ErrNotAMember = errors.New("call: local key is not a group member")
)
