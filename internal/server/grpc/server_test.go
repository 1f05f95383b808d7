package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/codec"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/common"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/logging"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/record"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/server/services"
)

var t0 = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newQRService(t *testing.T) *services.QRService {
	t.Helper()
	key := make([]byte, 32)
	c, err := codec.New(key, key, codec.WithClock(func() time.Time { return t0 }))
	require.NoError(t, err)
	return services.NewQRService(c, nil, nil, logging.Nop{}, time.Hour, 300)
}

// dial starts the server on an in-memory listener and returns a client conn.
func dial(t *testing.T, qr QRService) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)

	ctx, cancel := context.WithCancel(context.Background())
	s := NewGRPCServer("bufnet", logging.Nop{}, qr)
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		<-done
	})
	return conn
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func invoke(t *testing.T, conn *grpc.ClientConn, method string, in map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	t.Helper()
	out := &structpb.Struct{}
	err := conn.Invoke(context.Background(), method, mustStruct(t, in), out, opts...)
	return out, err
}

func TestGRPC_MintVerifyValidate(t *testing.T) {
	conn := dial(t, newQRService(t))

	out, err := invoke(t, conn, MethodMint, map[string]any{
		"item_id": "ITEM-1", "content_address": "bafy123", "chain_id": 80002, "ttl_minutes": 60,
	})
	require.NoError(t, err)

	m := out.AsMap()
	env, _ := m["envelope"].(string)
	require.NotEmpty(t, env)
	assert.Equal(t, "ITEM-1", m["item_id"])
	assert.Equal(t, float64(80002), m["chain_id"])
	assert.Equal(t, "single", m["kind"])
	assert.Equal(t, float64(len(env)), m["envelope_length"])

	out, err = invoke(t, conn, MethodVerify, map[string]any{"envelope": env})
	require.NoError(t, err)
	rec := out.AsMap()["record"].(map[string]any)
	assert.Equal(t, "ITEM-1", rec["item_id"])
	assert.Equal(t, float64(80002), rec["chain_id"])

	out, err = invoke(t, conn, MethodValidateScan, map[string]any{"envelope": env, "expected_item_id": "X"})
	require.NoError(t, err)
	vr := out.AsMap()
	assert.Equal(t, false, vr["valid"])
	assert.Equal(t, []any{codec.MsgItemIDMismatch}, vr["errors"])
	assert.NotNil(t, vr["record"])
}

func TestGRPC_MintMultiChain(t *testing.T) {
	conn := dial(t, newQRService(t))

	out, err := invoke(t, conn, MethodMintMultiChain, map[string]any{
		"item_id": "P1",
		"chains": []any{
			map[string]any{"chain_id": 1, "content_address": "cidA"},
			map[string]any{"chain_id": 2, "content_address": "cidB"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, float64(2), out.AsMap()["chain_count"])

	_, err = invoke(t, conn, MethodMintMultiChain, map[string]any{"item_id": "P1"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = invoke(t, conn, MethodMint, map[string]any{"item_id": "P1", "chain_map": map[string]any{"1": "cidA"}})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPC_MintWithImage(t *testing.T) {
	conn := dial(t, newQRService(t))

	out, err := invoke(t, conn, MethodMintWithImage, map[string]any{
		"item_id": "ITEM-1", "content_address": "bafy123", "chain_id": 1, "image_size_px": 128,
	})
	require.NoError(t, err)
	m := out.AsMap()
	assert.NotEmpty(t, m["image_base64"])
	assert.Equal(t, float64(128), m["image_size_px"])

	var trailer metadata.MD
	_, err = invoke(t, conn, MethodMintWithImage, map[string]any{
		"item_id": "ITEM-1", "content_address": "bafy123", "chain_id": 1, "image_size_px": 5000,
	}, grpc.Trailer(&trailer))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "image_size_px")
	assert.Equal(t, []string{"invalid_record"}, trailer.Get(ErrorKindTrailer))
}

func TestGRPC_ErrorCodes(t *testing.T) {
	conn := dial(t, newQRService(t))

	out, err := invoke(t, conn, MethodMint, map[string]any{"item_id": "ITEM-1", "content_address": "bafy123", "chain_id": 1})
	require.NoError(t, err)
	env := out.AsMap()["envelope"].(string)
	tampered := "0" + env[1:]
	if tampered == env {
		tampered = "1" + env[1:]
	}

	expired, err := invoke(t, conn, MethodMint, map[string]any{"item_id": "ITEM-1", "content_address": "bafy123", "chain_id": 1, "ttl_minutes": 0})
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		in     map[string]any
		want   codes.Code
	}{
		{"malformed", MethodVerify, map[string]any{"envelope": "nope"}, codes.InvalidArgument},
		{"tampered", MethodVerify, map[string]any{"envelope": tampered}, codes.Unauthenticated},
		{"expired", MethodValidateScan, map[string]any{"envelope": expired.AsMap()["envelope"]}, codes.FailedPrecondition},
		{"invalid record", MethodMint, map[string]any{"item_id": "", "content_address": "x", "chain_id": 1}, codes.InvalidArgument},
		{"bad item id type", MethodMint, map[string]any{"item_id": true}, codes.InvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := invoke(t, conn, tt.method, tt.in)
			assert.Equal(t, tt.want, status.Code(err), "%v", err)
		})
	}
}

type failingService struct{ err error }

func (f failingService) Mint(context.Context, services.MintRequest) (*services.MintResponse, error) {
	return nil, f.err
}

func (f failingService) Verify(context.Context, string) (*record.Record, error) {
	panic("boom")
}

func (f failingService) ValidateScan(context.Context, services.ScanRequest) (*codec.ValidationResult, error) {
	return nil, f.err
}

func TestGRPC_InternalErrorsAreHidden(t *testing.T) {
	conn := dial(t, failingService{err: errors.New("db password is hunter2")})

	_, err := invoke(t, conn, MethodMint, map[string]any{"item_id": "A", "content_address": "x", "chain_id": 1})
	require.Error(t, err)
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.NotContains(t, err.Error(), "hunter2")

	_, err = invoke(t, conn, MethodVerify, map[string]any{"envelope": "a:b:c"})
	assert.Equal(t, codes.Internal, status.Code(err), "panics are recovered")
}

func TestGRPC_RequestIDHeader(t *testing.T) {
	conn := dial(t, newQRService(t))
	in := map[string]any{"item_id": "A", "content_address": "x", "chain_id": 1}

	var header metadata.MD
	ctx := metadata.AppendToOutgoingContext(context.Background(), RequestIDHeader, "req-1")
	err := conn.Invoke(ctx, MethodMint, mustStruct(t, in), &structpb.Struct{}, grpc.Header(&header))
	require.NoError(t, err)
	assert.Equal(t, []string{"req-1"}, header.Get(RequestIDHeader))

	header = nil
	_, err = invoke(t, conn, MethodMint, in, grpc.Header(&header))
	require.NoError(t, err)
	require.Len(t, header.Get(RequestIDHeader), 1)
	assert.NotEqual(t, "req-1", header.Get(RequestIDHeader)[0])
}

func TestGRPC_Health(t *testing.T) {
	conn := dial(t, newQRService(t))

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{nil, codes.OK},
		{common.ErrMalformedEnvelope, codes.InvalidArgument},
		{common.ErrInvalidRecord, codes.InvalidArgument},
		{common.ErrIntegrityFailure, codes.Unauthenticated},
		{common.ErrDecryptionFailed, codes.DataLoss},
		{common.ErrCorruptRecord, codes.DataLoss},
		{common.ErrExpired, codes.FailedPrecondition},
		{common.ErrRenderFailed, codes.InvalidArgument},
		{errors.New("other"), codes.Internal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Code(tt.err), "%v", tt.err)
	}
}

func TestGRPC_ErrorKindTrailer(t *testing.T) {
	conn := dial(t, newQRService(t))

	var trailer metadata.MD
	_, err := invoke(t, conn, MethodVerify, map[string]any{"envelope": "aa:bb"}, grpc.Trailer(&trailer))
	require.Error(t, err)
	assert.Equal(t, []string{"malformed_envelope"}, trailer.Get(ErrorKindTrailer))
}

func TestGRPC_RejectsInexactChainIDs(t *testing.T) {
	conn := dial(t, newQRService(t))

	// 2^53 + 1 arrives as 2^53 once it is a float64.
	_, err := invoke(t, conn, MethodMint, map[string]any{
		"item_id": "A", "content_address": "x", "chain_id": float64(1<<53 + 1),
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = invoke(t, conn, MethodValidateScan, map[string]any{
		"envelope": "aa:bb:cc", "expected_chain_id": float64(1 << 60),
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
