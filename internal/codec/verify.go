package codec

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/common"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/cryptox"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/envelope"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/record"
)

// Mismatch messages reported by ValidateScan.
const (
	MsgItemIDMismatch  = "item id mismatch"
	MsgChainIDMismatch = "chain id mismatch"
)

// ValidationResult is the soft outcome of ValidateScan. Record is set
// whenever the envelope itself was genuine and unexpired.
type ValidationResult struct {
	Valid  bool           `json:"valid"`
	Record *record.Record `json:"record,omitempty"`
	Errors []string       `json:"errors"`
}

type scanOptions struct {
	itemID  *string
	chainID *int64
}

// ScanOption adds an expectation to ValidateScan.
type ScanOption func(*scanOptions)

func ExpectItemID(id string) ScanOption {
	return func(o *scanOptions) { o.itemID = &id }
}

// ExpectChainID requires the record to target chainID. For multi-chain
// records the id must be one of the chain map keys.
func ExpectChainID(id int64) ScanOption {
	return func(o *scanOptions) { o.chainID = &id }
}

// Verify opens an envelope and returns its record. It fails, in this order,
// with common.ErrMalformedEnvelope, ErrIntegrityFailure, ErrDecryptionFailed,
// ErrCorruptRecord or ErrExpired. The MAC is checked before any decryption.
func (c *Codec) Verify(ctx context.Context, env string) (*record.Record, error) {
	e, err := envelope.Decode(env)
	if err != nil {
		return nil, err
	}

	iv, ct, mac, err := e.Bytes()
	if err != nil {
		return nil, err
	}

	if !cryptox.Verify(c.hmacKey, []byte(e.SignedPart()), mac) {
		c.warn(ctx, "envelope integrity check failed", "envelope_len", len(env))
		return nil, common.ErrIntegrityFailure
	}

	plaintext, err := cryptox.Decrypt(c.aesKey, iv, ct)
	if err != nil {
		// A valid MAC with undecryptable content means the signer holds our
		// HMAC key but not a matching AES key.
		c.warn(ctx, "authenticated envelope failed to decrypt")
		return nil, err
	}
	defer common.WipeByteArray(plaintext)

	r, err := record.Unmarshal(plaintext)
	if err != nil {
		return nil, err
	}

	if err := record.CheckExpiry(r, c.now()); err != nil {
		return nil, err
	}

	return &r, nil
}

// ValidateScan verifies env and compares it with the expected identifiers.
// Hard failures are returned as errors exactly as from Verify. Identifier
// mismatches are reported in the result and never returned as errors.
func (c *Codec) ValidateScan(ctx context.Context, env string, opts ...ScanOption) (*ValidationResult, error) {
	var o scanOptions
	for _, opt := range opts {
		opt(&o)
	}

	r, err := c.Verify(ctx, env)
	if err != nil {
		return nil, err
	}

	res := &ValidationResult{Record: r, Errors: []string{}}

	if o.itemID != nil && *o.itemID != string(r.ItemID) {
		res.Errors = append(res.Errors, MsgItemIDMismatch)
	}
	if o.chainID != nil && !r.HasChain(*o.chainID) {
		res.Errors = append(res.Errors, MsgChainIDMismatch)
	}
	res.Valid = len(res.Errors) == 0

	if !res.Valid {
		c.logger.Info(ctx, "scan identity mismatch", "item_id", string(r.ItemID), "errors", len(res.Errors))
	}
	return res, nil
}

// ParseChainID parses a decimal chain id as received from a form or URL.
func ParseChainID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: chain id %q must be a positive integer", common.ErrInvalidRecord, s)
	}
	return id, nil
}
