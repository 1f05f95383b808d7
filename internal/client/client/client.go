package client

import (
	"context"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/api"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/record"
)

// Client mints and verifies envelopes. Mint selects the multi-chain variant
// when the request carries a chain map.
type Client interface {
	Mint(ctx context.Context, req api.MintRequest) (*api.MintResponse, error)
	Verify(ctx context.Context, envelope string) (*record.Record, error)
	ValidateScan(ctx context.Context, req api.ValidateRequest) (*api.ValidateResponse, error)
	Close() error
}
