// Package cidx holds helpers for the content addresses embedded in records.
package cidx

import (
	"fmt"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/common"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Compute returns the CIDv1 (raw codec, sha2-256 multihash) of data, the
// address a content-addressed store would assign to the same bytes.
func Compute(data []byte) (string, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", err
	}
	return cid.NewCidV1(cid.Raw, sum).String(), nil
}

// Validate checks that s parses as a CID (v0 or v1, any multibase).
func Validate(s string) error {
	if _, err := cid.Decode(s); err != nil {
		return fmt.Errorf("%w: content address %q is not a CID: %v", common.ErrInvalidRecord, s, err)
	}
	return nil
}
