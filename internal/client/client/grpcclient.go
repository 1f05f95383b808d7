package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/api"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/common"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/record"
	gs "github.com/hautranuit/SCM-Multichain-sub001/internal/server/grpc"
)

const defaultCallTimeout = 15 * time.Second

// GRPCClient talks to a running server. It is safe for concurrent use.
type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
}

// NewGRPCClient prepares a connection to endpointURL. The connection is
// established lazily on the first call.
func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(requestIDInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	return &GRPCClient{endpointURL: endpointURL, conn: conn}, nil
}

// requestIDInterceptor adds a fresh request id unless the caller set one.
func requestIDInterceptor(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	md, _ := metadata.FromOutgoingContext(ctx)
	if len(md.Get(gs.RequestIDHeader)) == 0 {
		ctx = metadata.AppendToOutgoingContext(ctx, gs.RequestIDHeader, uuid.NewString())
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

func (s *GRPCClient) Mint(ctx context.Context, req api.MintRequest) (*api.MintResponse, error) {
	if err := req.StructSafe(); err != nil {
		return nil, err
	}

	method := gs.MethodMint
	switch {
	case req.ChainMap != nil || len(req.Chains) > 0:
		method = gs.MethodMintMultiChain
	case req.WithImage:
		method = gs.MethodMintWithImage
	}

	// Struct objects do not keep key order; send the chain map as a list.
	if req.ChainMap != nil {
		for _, e := range req.ChainMap.Entries() {
			req.Chains = append(req.Chains, api.ChainEntry{ChainID: e.ChainID, ContentAddress: e.ContentAddress})
		}
		req.ChainMap = nil
	}

	var out api.MintResponse
	if err := s.call(ctx, method, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *GRPCClient) Verify(ctx context.Context, envelope string) (*record.Record, error) {
	var out api.VerifyResponse
	if err := s.call(ctx, gs.MethodVerify, api.VerifyRequest{Envelope: envelope}, &out); err != nil {
		return nil, err
	}
	return out.Record, nil
}

func (s *GRPCClient) ValidateScan(ctx context.Context, req api.ValidateRequest) (*api.ValidateResponse, error) {
	if err := req.StructSafe(); err != nil {
		return nil, err
	}

	var out api.ValidateResponse
	if err := s.call(ctx, gs.MethodValidateScan, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) call(ctx context.Context, method string, in, out any) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultCallTimeout)
		defer cancel()
	}

	req, err := toStruct(in)
	if err != nil {
		return err
	}

	var trailer metadata.MD
	resp := &structpb.Struct{}
	if err := s.conn.Invoke(ctx, method, req, resp, grpc.Trailer(&trailer)); err != nil {
		return mapError(err, trailer)
	}

	b, err := protojson.Marshal(resp)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// mapError restores the sentinel error named by the error-kind trailer.
func mapError(err error, trailer metadata.MD) error {
	st, _ := status.FromError(err)

	if kinds := trailer.Get(gs.ErrorKindTrailer); len(kinds) > 0 {
		if sentinel := common.FromKind(kinds[0]); sentinel != nil {
			return fmt.Errorf("%w: %s", sentinel, st.Message())
		}
	}

	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, err
	}
	return out, nil
}
