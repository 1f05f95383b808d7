// Package envelope implements the wire form of a protected payload:
// three lowercase hex fields joined by ':' in the order IV, ciphertext, MAC.
package envelope

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/common"
)

// Delimiter separates the envelope fields.
const Delimiter = ":"

// Envelope is the decoded form of the wire string. It is a plain value;
// nothing in it is shared or mutated after construction.
type Envelope struct {
	IV         string
	Ciphertext string
	MAC        string
}

// New hex-encodes raw IV, ciphertext and tag into an Envelope.
func New(iv, ciphertext, mac []byte) Envelope {
	return Envelope{
		IV:         hex.EncodeToString(iv),
		Ciphertext: hex.EncodeToString(ciphertext),
		MAC:        hex.EncodeToString(mac),
	}
}

// SignedPart returns "<iv>:<ciphertext>", the portion covered by the MAC.
func (e Envelope) SignedPart() string {
	return e.IV + Delimiter + e.Ciphertext
}

// String returns the wire form.
func (e Envelope) String() string {
	return Encode(e.IV, e.Ciphertext, e.MAC)
}

// Encode joins the three hex strings in fixed order.
func Encode(ivHex, ciphertextHex, macHex string) string {
	return ivHex + Delimiter + ciphertextHex + Delimiter + macHex
}

// Decode parses a wire string. The MAC is taken from after the last
// delimiter and the remainder is split into IV and ciphertext; since hex never
// contains the delimiter this is exact. Anything other than exactly three
// non-empty, even-length hex fields is rejected with common.ErrMalformedEnvelope.
func Decode(s string) (Envelope, error) {
	s = strings.TrimSpace(s)

	if n := strings.Count(s, Delimiter); n != 2 {
		return Envelope{}, fmt.Errorf("%w: expected 3 fields, got %d", common.ErrMalformedEnvelope, n+1)
	}

	last := strings.LastIndex(s, Delimiter)
	signed, mac := s[:last], s[last+1:]
	iv, ct, _ := strings.Cut(signed, Delimiter)

	e := Envelope{IV: iv, Ciphertext: ct, MAC: mac}
	for _, f := range []struct {
		name, val string
	}{{"iv", e.IV}, {"ciphertext", e.Ciphertext}, {"mac", e.MAC}} {
		if err := checkHex(f.val); err != nil {
			return Envelope{}, fmt.Errorf("%w: %s field %v", common.ErrMalformedEnvelope, f.name, err)
		}
	}

	return e, nil
}

// Bytes decodes the three hex fields. Decode has already validated them, so
// an error here means the Envelope was built by hand.
func (e Envelope) Bytes() (iv, ciphertext, mac []byte, err error) {
	if iv, err = hex.DecodeString(e.IV); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: iv: %v", common.ErrMalformedEnvelope, err)
	}
	if ciphertext, err = hex.DecodeString(e.Ciphertext); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: ciphertext: %v", common.ErrMalformedEnvelope, err)
	}
	if mac, err = hex.DecodeString(e.MAC); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: mac: %v", common.ErrMalformedEnvelope, err)
	}
	return iv, ciphertext, mac, nil
}

func checkHex(s string) error {
	if s == "" {
		return fmt.Errorf("is empty")
	}
	if len(s)%2 != 0 {
		return fmt.Errorf("has odd length %d", len(s))
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return fmt.Errorf("has non-hex character at offset %d", i)
		}
	}
	return nil
}
