package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "qrcodec.v1.QRCodecService"

// Full method names, as seen by interceptors and used by clients.
const (
	MethodMint           = "/" + ServiceName + "/Mint"
	MethodMintMultiChain = "/" + ServiceName + "/MintMultiChain"
	MethodMintWithImage  = "/" + ServiceName + "/MintWithImage"
	MethodVerify         = "/" + ServiceName + "/Verify"
	MethodValidateScan   = "/" + ServiceName + "/ValidateScan"
)

// QRCodecServer is the server side of the service. Every message is a
// google.protobuf.Struct holding the JSON bodies defined in package api.
type QRCodecServer interface {
	Mint(context.Context, *structpb.Struct) (*structpb.Struct, error)
	MintMultiChain(context.Context, *structpb.Struct) (*structpb.Struct, error)
	MintWithImage(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Verify(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ValidateScan(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterQRCodecServer registers srv on s.
func RegisterQRCodecServer(s grpc.ServiceRegistrar, srv QRCodecServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unaryHandler(method string, call func(QRCodecServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(QRCodecServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(QRCodecServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes QRCodecService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*QRCodecServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Mint", Handler: unaryHandler(MethodMint, QRCodecServer.Mint)},
		{MethodName: "MintMultiChain", Handler: unaryHandler(MethodMintMultiChain, QRCodecServer.MintMultiChain)},
		{MethodName: "MintWithImage", Handler: unaryHandler(MethodMintWithImage, QRCodecServer.MintWithImage)},
		{MethodName: "Verify", Handler: unaryHandler(MethodVerify, QRCodecServer.Verify)},
		{MethodName: "ValidateScan", Handler: unaryHandler(MethodValidateScan, QRCodecServer.ValidateScan)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "qrcodec/v1/qrcodec.proto",
}
