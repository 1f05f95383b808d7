package client

import (
	"context"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/api"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/codec"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/logging"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/record"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/server/services"
)

// LocalClient runs the codec in process. Publishing is not available.
type LocalClient struct {
	svc *services.QRService
}

func NewLocalClient(c *codec.Codec, l logging.Logger, defaultSizePx int) *LocalClient {
	return &LocalClient{svc: services.NewQRService(c, nil, nil, l, record.DefaultTTL, defaultSizePx)}
}

func (c *LocalClient) Mint(ctx context.Context, req api.MintRequest) (*api.MintResponse, error) {
	sreq, err := req.ToService()
	if err != nil {
		return nil, err
	}
	return c.svc.Mint(ctx, sreq)
}

func (c *LocalClient) Verify(ctx context.Context, envelope string) (*record.Record, error) {
	return c.svc.Verify(ctx, envelope)
}

func (c *LocalClient) ValidateScan(ctx context.Context, req api.ValidateRequest) (*api.ValidateResponse, error) {
	return c.svc.ValidateScan(ctx, req.ToService())
}

func (c *LocalClient) Close() error { return nil }
