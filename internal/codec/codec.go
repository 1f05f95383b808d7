// Package codec mints and verifies the encrypted, authenticated and
// time-bounded envelopes carried by product QR codes.
//
// A Codec owns its AES and HMAC keys and nothing else; all state of a call is
// local to that call, so one Codec can be shared by any number of goroutines.
package codec

import (
	"context"
	"fmt"
	"time"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/common"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/cryptox"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/logging"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/qrimage"
)

// Codec is safe for concurrent use. Its keys are read-only after New.
type Codec struct {
	aesKey    []byte
	hmacKey   []byte
	now       func() time.Time
	logger    logging.Logger
	renderer  *qrimage.Renderer
	strictCID bool
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock replaces time.Now, the clock used for stamping and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Codec) { c.logger = l }
}

func WithRenderer(r *qrimage.Renderer) Option {
	return func(c *Codec) { c.renderer = r }
}

// WithStrictContentAddress makes minting reject content addresses that do
// not parse as CIDs.
func WithStrictContentAddress(strict bool) Option {
	return func(c *Codec) { c.strictCID = strict }
}

// New builds a Codec from a 32-byte AES key and a 32-byte HMAC key. The keys
// are copied. Wrong lengths fail with common.ErrInvalidKeyMaterial.
func New(aesKey, hmacKey []byte, opts ...Option) (*Codec, error) {
	if len(aesKey) != cryptox.KeySize {
		return nil, fmt.Errorf("%w: aes key must be %d bytes, got %d", common.ErrInvalidKeyMaterial, cryptox.KeySize, len(aesKey))
	}
	if len(hmacKey) != cryptox.KeySize {
		return nil, fmt.Errorf("%w: hmac key must be %d bytes, got %d", common.ErrInvalidKeyMaterial, cryptox.KeySize, len(hmacKey))
	}

	c := &Codec{
		aesKey:   common.CloneBytes(aesKey),
		hmacKey:  common.CloneBytes(hmacKey),
		now:      time.Now,
		logger:   logging.Nop{},
		renderer: &qrimage.Renderer{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("module", "codec")

	return c, nil
}

// NewFromHex decodes both keys from hex, as they usually arrive from the
// environment. The temporary buffers are wiped.
func NewFromHex(aesKeyHex, hmacKeyHex string, opts ...Option) (*Codec, error) {
	aesKey, err := cryptox.ParseHexKey(aesKeyHex)
	if err != nil {
		return nil, fmt.Errorf("aes key: %w", err)
	}
	defer common.WipeByteArray(aesKey)

	hmacKey, err := cryptox.ParseHexKey(hmacKeyHex)
	if err != nil {
		return nil, fmt.Errorf("hmac key: %w", err)
	}
	defer common.WipeByteArray(hmacKey)

	return New(aesKey, hmacKey, opts...)
}

// NewFromMasterSecret derives both keys from one secret with HKDF.
func NewFromMasterSecret(master []byte, opts ...Option) (*Codec, error) {
	aesKey, hmacKey, err := cryptox.DeriveKeys(master)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(aesKey)
	defer common.WipeByteArray(hmacKey)

	return New(aesKey, hmacKey, opts...)
}

// String keeps key material out of %v and %s output.
func (c *Codec) String() string { return "codec.Codec{keys:[REDACTED]}" }

// GoString keeps key material out of %#v output.
func (c *Codec) GoString() string { return c.String() }

// Now returns the codec clock's current time.
func (c *Codec) Now() time.Time { return c.now() }

func (c *Codec) warn(ctx context.Context, msg string, args ...any) {
	c.logger.Warn(ctx, msg, args...)
}
