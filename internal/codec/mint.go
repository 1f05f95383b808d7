package codec

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/cidx"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/common"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/cryptox"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/envelope"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/qrimage"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/record"
)

// MintResult describes a freshly minted envelope. ChainID is set for
// single-target records only; ChainCount is always set.
type MintResult struct {
	ID             string      `json:"id"`
	Kind           record.Kind `json:"kind"`
	Envelope       string      `json:"envelope"`
	ItemID         string      `json:"item_id"`
	ChainID        int64       `json:"chain_id,omitempty"`
	ChainCount     int         `json:"chain_count"`
	GeneratedAt    time.Time   `json:"generated_at"`
	ExpiresAt      time.Time   `json:"expires_at"`
	EnvelopeLength int         `json:"envelope_length"`
	ImageBase64    string      `json:"image_base64,omitempty"`
	ImageSizePx    int         `json:"image_size_px,omitempty"`
}

type mintOptions struct {
	ttl       time.Duration
	metadata  map[string]any
	imageSize int
}

// MintOption adjusts a single mint call.
type MintOption func(*mintOptions)

// WithTTL sets the validity window. The default is record.DefaultTTL; zero
// mints an envelope that is already expired.
func WithTTL(ttl time.Duration) MintOption {
	return func(o *mintOptions) { o.ttl = ttl }
}

func WithMetadata(m map[string]any) MintOption {
	return func(o *mintOptions) { o.metadata = m }
}

// WithImageSize sets the PNG edge length for the image variants.
func WithImageSize(px int) MintOption {
	return func(o *mintOptions) { o.imageSize = px }
}

func collect(opts []MintOption) mintOptions {
	o := mintOptions{ttl: record.DefaultTTL, imageSize: qrimage.DefaultSizePx}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Mint protects a single-target record.
func (c *Codec) Mint(ctx context.Context, itemID, contentAddress string, chainID int64, opts ...MintOption) (*MintResult, error) {
	o := collect(opts)

	if err := c.checkContentAddress(contentAddress); err != nil {
		return nil, err
	}
	r, err := record.NewSingle(itemID, contentAddress, chainID, o.metadata)
	if err != nil {
		return nil, err
	}
	return c.mint(ctx, r, o.ttl)
}

// MintMultiChain protects one record binding itemID to every chain in chains.
// It goes through the same encrypt, sign and encode pipeline as Mint.
func (c *Codec) MintMultiChain(ctx context.Context, itemID string, chains record.ChainMap, opts ...MintOption) (*MintResult, error) {
	o := collect(opts)

	for _, e := range chains.Entries() {
		if err := c.checkContentAddress(e.ContentAddress); err != nil {
			return nil, err
		}
	}
	r, err := record.NewMultiChain(itemID, chains, o.metadata)
	if err != nil {
		return nil, err
	}
	return c.mint(ctx, r, o.ttl)
}

// MintWithImage is Mint plus a base64 PNG of the envelope.
func (c *Codec) MintWithImage(ctx context.Context, itemID, contentAddress string, chainID int64, opts ...MintOption) (*MintResult, error) {
	res, err := c.Mint(ctx, itemID, contentAddress, chainID, opts...)
	if err != nil {
		return nil, err
	}
	return c.attachImage(res, collect(opts).imageSize)
}

// MintMultiChainWithImage is MintMultiChain plus a base64 PNG of the envelope.
func (c *Codec) MintMultiChainWithImage(ctx context.Context, itemID string, chains record.ChainMap, opts ...MintOption) (*MintResult, error) {
	res, err := c.MintMultiChain(ctx, itemID, chains, opts...)
	if err != nil {
		return nil, err
	}
	return c.attachImage(res, collect(opts).imageSize)
}

// RenderImage renders any envelope string as a base64 PNG.
func (c *Codec) RenderImage(env string, sizePx int) (string, error) {
	return c.renderer.RenderBase64(env, sizePx)
}

// RenderPNG renders a previously minted envelope as raw PNG bytes. Only the
// envelope structure is checked; the MAC is not verified.
func (c *Codec) RenderPNG(env string, sizePx int) ([]byte, error) {
	e, err := envelope.Decode(env)
	if err != nil {
		return nil, err
	}
	return c.renderer.Render(e.String(), sizePx)
}

func (c *Codec) attachImage(res *MintResult, sizePx int) (*MintResult, error) {
	img, err := c.RenderImage(res.Envelope, sizePx)
	if err != nil {
		return nil, err
	}
	res.ImageBase64 = img
	res.ImageSizePx = sizePx
	return res, nil
}

func (c *Codec) checkContentAddress(addr string) error {
	if !c.strictCID || addr == "" {
		return nil
	}
	return cidx.Validate(addr)
}

func (c *Codec) mint(ctx context.Context, r record.Record, ttl time.Duration) (*MintResult, error) {
	if err := record.Stamp(&r, c.now(), ttl); err != nil {
		return nil, err
	}

	env, err := c.seal(r)
	if err != nil {
		return nil, err
	}

	res := &MintResult{
		ID:             uuid.NewString(),
		Kind:           r.Kind,
		Envelope:       env,
		ItemID:         string(r.ItemID),
		ChainCount:     r.ChainCount(),
		GeneratedAt:    r.GeneratedAt,
		ExpiresAt:      r.ExpiresAt,
		EnvelopeLength: len(env),
	}
	if r.Kind == record.KindSingle {
		res.ChainID = r.ChainID
	}

	c.logger.Debug(ctx, "envelope minted", "mint_id", res.ID, "kind", r.Kind, "chain_count", res.ChainCount, "envelope_len", res.EnvelopeLength)
	return res, nil
}

// seal serializes, encrypts, signs and encodes r.
func (c *Codec) seal(r record.Record) (string, error) {
	plaintext, err := record.Marshal(r)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(plaintext)

	iv, ct, err := cryptox.Encrypt(c.aesKey, plaintext)
	if err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}

	e := envelope.New(iv, ct, nil)
	e.MAC = hex.EncodeToString(cryptox.Sign(c.hmacKey, cryptox.SigningInput(e.IV, e.Ciphertext)))

	return e.String(), nil
}
