package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/codec"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/common"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/logging"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/qrimage"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/record"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/server/imagestore"
)

// Publisher stores rendered images. *imagestore.Store implements it.
type Publisher interface {
	Put(ctx context.Context, mintID string, png []byte) (*imagestore.Stored, error)
}

// Observer receives per-call outcomes. *metrics.Metrics implements it.
type Observer interface {
	ObserveMint(kind string, envelopeLen int, err error)
	ObserveVerify(err error)
	ObserveScan(valid bool, err error)
	ObserveImagePublish(err error)
}

// MintRequest is the transport-neutral mint input. A non-empty Chains selects
// the multi-chain variant; ContentAddress and ChainID must then be unset.
type MintRequest struct {
	ItemID         string
	ContentAddress string
	ChainID        int64
	Chains         record.ChainMap
	TTL            *time.Duration
	Metadata       map[string]any
	WithImage      bool
	ImageSizePx    int
	Publish        bool
}

// MintResponse is a codec.MintResult plus the stored image location, if the
// image was published.
type MintResponse struct {
	codec.MintResult
	Image *imagestore.Stored `json:"image_object,omitempty"`
}

// ScanRequest carries the envelope and the optional expected identifiers.
type ScanRequest struct {
	Envelope        string
	ExpectedItemID  *string
	ExpectedChainID *int64
}

type QRService struct {
	codec       *codec.Codec
	publisher   Publisher
	observer    Observer
	logger      logging.Logger
	defaultTTL  time.Duration
	defaultSize int
}

// NewQRService wires the codec with optional publishing. publisher may be
// nil, in which case publish requests fail.
func NewQRService(c *codec.Codec, p Publisher, o Observer, l logging.Logger, defaultTTL time.Duration, defaultSize int) *QRService {
	if o == nil {
		o = nopObserver{}
	}
	return &QRService{
		codec:       c,
		publisher:   p,
		observer:    o,
		logger:      l.With("module", "qr_service"),
		defaultTTL:  defaultTTL,
		defaultSize: defaultSize,
	}
}

func (s *QRService) Mint(ctx context.Context, req MintRequest) (*MintResponse, error) {
	res, err := s.mint(ctx, req)

	kind, n := "", 0
	if res != nil {
		kind, n = string(res.Kind), res.EnvelopeLength
	}
	s.observer.ObserveMint(kind, n, err)

	if err != nil {
		return nil, err
	}

	out := &MintResponse{MintResult: *res}
	if req.Publish {
		stored, err := s.publish(ctx, res)
		s.observer.ObserveImagePublish(err)
		if err != nil {
			return nil, err
		}
		out.Image = stored
		if !req.WithImage {
			out.ImageBase64 = ""
		}
	}

	return out, nil
}

func (s *QRService) mint(ctx context.Context, req MintRequest) (*codec.MintResult, error) {
	ttl := s.defaultTTL
	if req.TTL != nil {
		ttl = *req.TTL
	}
	size := req.ImageSizePx
	if size == 0 {
		size = s.defaultSize
	}
	if size < 0 || size > qrimage.MaxSizePx {
		return nil, fmt.Errorf("%w: image size %dpx outside 1..%d", common.ErrInvalidRecord, size, qrimage.MaxSizePx)
	}
	if req.Publish && s.publisher == nil {
		return nil, fmt.Errorf("%w: image publishing is not enabled", common.ErrInvalidRecord)
	}
	withImage := req.WithImage || req.Publish

	opts := []codec.MintOption{codec.WithTTL(ttl), codec.WithMetadata(req.Metadata), codec.WithImageSize(size)}

	if req.Chains.Len() > 0 {
		if req.ContentAddress != "" || req.ChainID != 0 {
			return nil, fmt.Errorf("%w: chain map excludes content_address and chain_id", common.ErrInvalidRecord)
		}
		if withImage {
			return s.codec.MintMultiChainWithImage(ctx, req.ItemID, req.Chains, opts...)
		}
		return s.codec.MintMultiChain(ctx, req.ItemID, req.Chains, opts...)
	}

	if withImage {
		return s.codec.MintWithImage(ctx, req.ItemID, req.ContentAddress, req.ChainID, opts...)
	}
	return s.codec.Mint(ctx, req.ItemID, req.ContentAddress, req.ChainID, opts...)
}

func (s *QRService) publish(ctx context.Context, res *codec.MintResult) (*imagestore.Stored, error) {
	png, err := base64.StdEncoding.DecodeString(res.ImageBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrRenderFailed, err)
	}

	stored, err := s.publisher.Put(ctx, res.ID, png)
	if err != nil {
		s.logger.Error(ctx, "image publish failed", "mint_id", res.ID, "error", err)
		return nil, err
	}
	s.logger.Info(ctx, "image published", "mint_id", res.ID, "key", stored.Key)
	return stored, nil
}

func (s *QRService) Verify(ctx context.Context, envelope string) (*record.Record, error) {
	r, err := s.codec.Verify(ctx, envelope)
	s.observer.ObserveVerify(err)
	return r, err
}

func (s *QRService) ValidateScan(ctx context.Context, req ScanRequest) (*codec.ValidationResult, error) {
	var opts []codec.ScanOption
	if req.ExpectedItemID != nil {
		opts = append(opts, codec.ExpectItemID(*req.ExpectedItemID))
	}
	if req.ExpectedChainID != nil {
		opts = append(opts, codec.ExpectChainID(*req.ExpectedChainID))
	}

	res, err := s.codec.ValidateScan(ctx, req.Envelope, opts...)
	if err != nil {
		s.observer.ObserveScan(false, err)
		return nil, err
	}
	s.observer.ObserveScan(res.Valid, nil)
	return res, nil
}

// RenderPNG renders an existing envelope; size 0 selects the default.
func (s *QRService) RenderPNG(envelope string, sizePx int) ([]byte, error) {
	if sizePx == 0 {
		sizePx = s.defaultSize
	}
	return s.codec.RenderPNG(envelope, sizePx)
}

type nopObserver struct{}

func (nopObserver) ObserveMint(string, int, error) {}
func (nopObserver) ObserveVerify(error)            {}
func (nopObserver) ObserveScan(bool, error)        {}
func (nopObserver) ObserveImagePublish(error)      {}
