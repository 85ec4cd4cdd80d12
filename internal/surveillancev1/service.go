package surveillancev1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/dynamicpb"

	"trade-ingestor-go/internal/models"
)

const (
	TradeStream_ServiceName                  = protoPackage + ".TradeStream"
	TradeStream_PublishTrades_FullMethodName = "/" + TradeStream_ServiceName + "/PublishTrades"
	TradeStream_Subscribe_FullMethodName     = "/" + TradeStream_ServiceName + "/Subscribe"
)

// TradeStreamClient is the client API for the TradeStream service.
type TradeStreamClient interface {
	PublishTrades(ctx context.Context, in models.Batch, opts ...grpc.CallOption) (models.Ack, error)
	Subscribe(ctx context.Context, opts ...grpc.CallOption) (TradeStream_SubscribeClient, error)
}

type tradeStreamClient struct {
	cc grpc.ClientConnInterface
}

func NewTradeStreamClient(cc grpc.ClientConnInterface) TradeStreamClient {
	return &tradeStreamClient{cc: cc}
}

func (c *tradeStreamClient) PublishTrades(ctx context.Context, in models.Batch, opts ...grpc.CallOption) (models.Ack, error) {
	out := dynamicpb.NewMessage(AckDescriptor)
	if err := c.cc.Invoke(ctx, TradeStream_PublishTrades_FullMethodName, NewTradeBatch(in), out, opts...); err != nil {
		return models.Ack{}, err
	}
	return AckFromMessage(out)
}

func (c *tradeStreamClient) Subscribe(ctx context.Context, opts ...grpc.CallOption) (TradeStream_SubscribeClient, error) {
	stream, err := c.cc.NewStream(ctx, &TradeStream_ServiceDesc.Streams[0], TradeStream_Subscribe_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &tradeStreamSubscribeClient{ClientStream: stream}
	if err := x.ClientStream.SendMsg(NewEmpty()); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type TradeStream_SubscribeClient interface {
	Recv() (models.Trade, error)
	grpc.ClientStream
}

type tradeStreamSubscribeClient struct {
	grpc.ClientStream
}

func (x *tradeStreamSubscribeClient) Recv() (models.Trade, error) {
	m := dynamicpb.NewMessage(CanonicalTradeDescriptor)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return models.Trade{}, err
	}
	return TradeFromMessage(m)
}

// TradeStreamServer is the server API for the TradeStream service.
type TradeStreamServer interface {
	PublishTrades(context.Context, models.Batch) (models.Ack, error)
	Subscribe(TradeStream_SubscribeServer) error
}

// UnimplementedTradeStreamServer can be embedded to keep servers compiling
// when methods are added.
type UnimplementedTradeStreamServer struct{}

func (UnimplementedTradeStreamServer) PublishTrades(context.Context, models.Batch) (models.Ack, error) {
	return models.Ack{}, status.Errorf(codes.Unimplemented, "method PublishTrades not implemented")
}

func (UnimplementedTradeStreamServer) Subscribe(TradeStream_SubscribeServer) error {
	return status.Errorf(codes.Unimplemented, "method Subscribe not implemented")
}

func RegisterTradeStreamServer(s grpc.ServiceRegistrar, srv TradeStreamServer) {
	s.RegisterService(&TradeStream_ServiceDesc, srv)
}

type TradeStream_SubscribeServer interface {
	Send(models.Trade) error
	grpc.ServerStream
}

type tradeStreamSubscribeServer struct {
	grpc.ServerStream
}

func (x *tradeStreamSubscribeServer) Send(trade models.Trade) error {
	return x.ServerStream.SendMsg(NewCanonicalTrade(trade))
}

func _TradeStream_PublishTrades_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := dynamicpb.NewMessage(TradeBatchDescriptor)
	if err := dec(in); err != nil {
		return nil, err
	}

	handler := func(ctx context.Context, req any) (any, error) {
		batch, err := BatchFromMessage(req.(proto.Message))
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "decode batch: %v", err)
		}
		ack, err := srv.(TradeStreamServer).PublishTrades(ctx, batch)
		if err != nil {
			return nil, err
		}
		return NewAck(ack), nil
	}

	if interceptor == nil {
		return handler(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: TradeStream_PublishTrades_FullMethodName,
	}
	return interceptor(ctx, in, info, handler)
}

func _TradeStream_Subscribe_Handler(srv any, stream grpc.ServerStream) error {
	if err := stream.RecvMsg(NewEmpty()); err != nil {
		return err
	}
	return srv.(TradeStreamServer).Subscribe(&tradeStreamSubscribeServer{ServerStream: stream})
}

var TradeStream_ServiceDesc = grpc.ServiceDesc{
	ServiceName: TradeStream_ServiceName,
	HandlerType: (*TradeStreamServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "PublishTrades",
			Handler:    _TradeStream_PublishTrades_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       _TradeStream_Subscribe_Handler,
			ServerStreams: true,
		},
	},
	Metadata: protoPath,
}
