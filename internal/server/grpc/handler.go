package grpc

import (
	"context"
	"encoding/json"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/api"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/common"
)

func (s *GRPCServer) Mint(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.mint(ctx, in, func(r *api.MintRequest) error {
		if r.ChainMap != nil || len(r.Chains) > 0 {
			return status.Error(codes.InvalidArgument, "use MintMultiChain for chain maps")
		}
		return nil
	})
}

func (s *GRPCServer) MintMultiChain(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.mint(ctx, in, func(r *api.MintRequest) error {
		if r.ChainMap == nil && len(r.Chains) == 0 {
			return status.Error(codes.InvalidArgument, "chain_map or chains is required")
		}
		return nil
	})
}

func (s *GRPCServer) MintWithImage(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.mint(ctx, in, func(r *api.MintRequest) error {
		r.WithImage = true
		return nil
	})
}

func (s *GRPCServer) mint(ctx context.Context, in *structpb.Struct, check func(*api.MintRequest) error) (*structpb.Struct, error) {
	var req api.MintRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	if err := check(&req); err != nil {
		return nil, err
	}
	if err := req.StructSafe(); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	sreq, err := req.ToService()
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	res, err := s.qr.Mint(ctx, sreq)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return toStruct(res)
}

func (s *GRPCServer) Verify(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req api.VerifyRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}

	r, err := s.qr.Verify(ctx, req.Envelope)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return toStruct(api.VerifyResponse{Record: r})
}

func (s *GRPCServer) ValidateScan(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req api.ValidateRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	if err := req.StructSafe(); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	res, err := s.qr.ValidateScan(ctx, req.ToService())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return toStruct(res)
}

// Code maps a codec error to a gRPC status code.
func Code(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, common.ErrMalformedEnvelope), errors.Is(err, common.ErrInvalidRecord),
		errors.Is(err, common.ErrRenderFailed):
		return codes.InvalidArgument
	case errors.Is(err, common.ErrIntegrityFailure):
		return codes.Unauthenticated
	case errors.Is(err, common.ErrDecryptionFailed), errors.Is(err, common.ErrCorruptRecord):
		return codes.DataLoss
	case errors.Is(err, common.ErrExpired):
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}

// ErrorKindTrailer carries common.Classify of a failed call so clients can
// tell apart kinds that share a status code.
const ErrorKindTrailer = "x-error-kind"

// toStatus converts err for the wire. Internal errors are logged and
// replaced with a generic message.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	_ = grpc.SetTrailer(ctx, metadata.Pairs(ErrorKindTrailer, common.Classify(err)))

	code := Code(err)
	if code == codes.Internal {
		s.logger.Error(ctx, "request failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}

func fromStruct(in *structpb.Struct, dst any) error {
	b, err := protojson.Marshal(in)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	return nil
}

func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode response")
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, status.Error(codes.Internal, "encode response")
	}
	return out, nil
}
