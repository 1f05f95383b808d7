// Package api defines the JSON request and response bodies shared by the
// HTTP and gRPC transports and by the client.
package api

import (
	"fmt"
	"time"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/codec"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/common"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/qrimage"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/record"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/server/services"
)

// ChainEntry is one element of the ordered "chains" list.
type ChainEntry struct {
	ChainID        int64  `json:"chain_id"`
	ContentAddress string `json:"content_address"`
}

// MintRequest is the body of every mint call. Multi-chain targets are given
// either as a "chain_map" object or, when key order must survive transports
// that reorder object keys, as a "chains" list. TTLMinutes defaults to the
// server setting when absent.
type MintRequest struct {
	ItemID         record.ItemID    `json:"item_id"`
	ContentAddress string           `json:"content_address,omitempty"`
	ChainID        int64            `json:"chain_id,omitempty"`
	ChainMap       *record.ChainMap `json:"chain_map,omitempty"`
	Chains         []ChainEntry     `json:"chains,omitempty"`
	TTLMinutes     *float64         `json:"ttl_minutes,omitempty"`
	Metadata       map[string]any   `json:"metadata,omitempty"`
	WithImage      bool             `json:"with_image,omitempty"`
	ImageSizePx    int              `json:"image_size_px,omitempty"`
	Publish        bool             `json:"publish,omitempty"`
}

// ToService converts the body into a service request.
func (r MintRequest) ToService() (services.MintRequest, error) {
	out := services.MintRequest{
		ItemID:         string(r.ItemID),
		ContentAddress: r.ContentAddress,
		ChainID:        r.ChainID,
		Metadata:       r.Metadata,
		WithImage:      r.WithImage,
		ImageSizePx:    r.ImageSizePx,
		Publish:        r.Publish,
	}

	if r.ChainMap != nil && len(r.Chains) > 0 {
		return out, fmt.Errorf("%w: give either chain_map or chains", common.ErrInvalidRecord)
	}
	if r.ChainMap != nil {
		out.Chains = r.ChainMap.Clone()
	}
	for _, e := range r.Chains {
		if err := out.Chains.Set(e.ChainID, e.ContentAddress); err != nil {
			return out, err
		}
	}

	if r.ImageSizePx < 0 || r.ImageSizePx > qrimage.MaxSizePx {
		return out, fmt.Errorf("%w: image_size_px must be within 1..%d", common.ErrInvalidRecord, qrimage.MaxSizePx)
	}

	if r.TTLMinutes != nil {
		if *r.TTLMinutes < 0 {
			return out, fmt.Errorf("%w: ttl_minutes must not be negative", common.ErrInvalidRecord)
		}
		ttl := time.Duration(*r.TTLMinutes * float64(time.Minute))
		out.TTL = &ttl
	}

	return out, nil
}

// MintResponse is services.MintResponse on the wire.
type MintResponse = services.MintResponse

// VerifyRequest carries an envelope to open.
type VerifyRequest struct {
	Envelope string `json:"envelope"`
}

// VerifyResponse wraps the recovered record.
type VerifyResponse struct {
	Record *record.Record `json:"record"`
}

// ValidateRequest carries a scanned envelope and the identifiers the scanner
// expects to find in it.
type ValidateRequest struct {
	Envelope        string         `json:"envelope"`
	ExpectedItemID  *record.ItemID `json:"expected_item_id,omitempty"`
	ExpectedChainID *int64         `json:"expected_chain_id,omitempty"`
}

func (r ValidateRequest) ToService() services.ScanRequest {
	out := services.ScanRequest{Envelope: r.Envelope, ExpectedChainID: r.ExpectedChainID}
	if r.ExpectedItemID != nil {
		id := string(*r.ExpectedItemID)
		out.ExpectedItemID = &id
	}
	return out
}

// ValidateResponse is codec.ValidationResult on the wire.
type ValidateResponse = codec.ValidationResult

// MaxStructChainID is the largest chain id a google.protobuf.Struct body
// carries exactly; Struct numbers are float64.
const MaxStructChainID = 1<<53 - 1

// StructSafe fails with ErrInvalidRecord when a chain id in r would be
// rounded by a Struct body.
func (r MintRequest) StructSafe() error {
	ids := []int64{r.ChainID}
	if r.ChainMap != nil {
		for _, e := range r.ChainMap.Entries() {
			ids = append(ids, e.ChainID)
		}
	}
	for _, e := range r.Chains {
		ids = append(ids, e.ChainID)
	}
	return structSafe(ids...)
}

// StructSafe is MintRequest.StructSafe for the expected chain id.
func (r ValidateRequest) StructSafe() error {
	if r.ExpectedChainID == nil {
		return nil
	}
	return structSafe(*r.ExpectedChainID)
}

func structSafe(ids ...int64) error {
	for _, id := range ids {
		if id > MaxStructChainID || id < -MaxStructChainID {
			return fmt.Errorf("%w: chain id %d exceeds %d and cannot be sent exactly", common.ErrInvalidRecord, id, int64(MaxStructChainID))
		}
	}
	return nil
}

// ErrorResponse is returned with every non-2xx HTTP status.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
