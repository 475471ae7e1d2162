package terminal

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "restaurant.orders.OrderTerminal"

const (
	LoginMethod         = "/" + ServiceName + "/Login"
	SubmitOrderMethod   = "/" + ServiceName + "/SubmitOrder"
	PayOrderMethod      = "/" + ServiceName + "/PayOrder"
	KitchenFinishMethod = "/" + ServiceName + "/KitchenFinish"
	WatchMethod         = "/" + ServiceName + "/Watch"
)

// OrderTerminalServer is the server API for the OrderTerminal service.
type OrderTerminalServer interface {
	Login(context.Context, *LoginRequest) (*LoginReply, error)
	SubmitOrder(context.Context, *SubmitOrderRequest) (*OrderReply, error)
	PayOrder(context.Context, *PayOrderRequest) (*OrderReply, error)
	KitchenFinish(context.Context, *KitchenFinishRequest) (*OrderReply, error)
	Watch(*WatchRequest, OrderTerminal_WatchServer) error
}

type OrderTerminal_WatchServer = grpc.ServerStreamingServer[Event]

func RegisterOrderTerminalServer(s grpc.ServiceRegistrar, srv OrderTerminalServer) {
	s.RegisterService(&OrderTerminal_ServiceDesc, srv)
}

func _OrderTerminal_Login_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(LoginRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderTerminalServer).Login(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LoginMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(OrderTerminalServer).Login(ctx, req.(*LoginRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _OrderTerminal_SubmitOrder_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SubmitOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderTerminalServer).SubmitOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SubmitOrderMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(OrderTerminalServer).SubmitOrder(ctx, req.(*SubmitOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _OrderTerminal_PayOrder_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PayOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderTerminalServer).PayOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PayOrderMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(OrderTerminalServer).PayOrder(ctx, req.(*PayOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _OrderTerminal_KitchenFinish_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(KitchenFinishRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderTerminalServer).KitchenFinish(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: KitchenFinishMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(OrderTerminalServer).KitchenFinish(ctx, req.(*KitchenFinishRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _OrderTerminal_Watch_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(WatchRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(OrderTerminalServer).Watch(m, &grpc.GenericServerStream[WatchRequest, Event]{ServerStream: stream})
}

var OrderTerminal_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OrderTerminalServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Login", Handler: _OrderTerminal_Login_Handler},
		{MethodName: "SubmitOrder", Handler: _OrderTerminal_SubmitOrder_Handler},
		{MethodName: "PayOrder", Handler: _OrderTerminal_PayOrder_Handler},
		{MethodName: "KitchenFinish", Handler: _OrderTerminal_KitchenFinish_Handler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       _OrderTerminal_Watch_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "restaurant/orders/terminal",
}

// OrderTerminalClient is the client API for the OrderTerminal service.
type OrderTerminalClient interface {
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginReply, error)
	SubmitOrder(ctx context.Context, in *SubmitOrderRequest, opts ...grpc.CallOption) (*OrderReply, error)
	PayOrder(ctx context.Context, in *PayOrderRequest, opts ...grpc.CallOption) (*OrderReply, error)
	KitchenFinish(ctx context.Context, in *KitchenFinishRequest, opts ...grpc.CallOption) (*OrderReply, error)
	Watch(ctx context.Context, in *WatchRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[Event], error)
}

type orderTerminalClient struct {
	cc grpc.ClientConnInterface
}

func NewOrderTerminalClient(cc grpc.ClientConnInterface) OrderTerminalClient {
	return &orderTerminalClient{cc}
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func (c *orderTerminalClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginReply, error) {
	out := new(LoginReply)
	if err := c.cc.Invoke(ctx, LoginMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *orderTerminalClient) SubmitOrder(ctx context.Context, in *SubmitOrderRequest, opts ...grpc.CallOption) (*OrderReply, error) {
	out := new(OrderReply)
	if err := c.cc.Invoke(ctx, SubmitOrderMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *orderTerminalClient) PayOrder(ctx context.Context, in *PayOrderRequest, opts ...grpc.CallOption) (*OrderReply, error) {
	out := new(OrderReply)
	if err := c.cc.Invoke(ctx, PayOrderMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *orderTerminalClient) KitchenFinish(ctx context.Context, in *KitchenFinishRequest, opts ...grpc.CallOption) (*OrderReply, error) {
	out := new(OrderReply)
	if err := c.cc.Invoke(ctx, KitchenFinishMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *orderTerminalClient) Watch(ctx context.Context, in *WatchRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[Event], error) {
	stream, err := c.cc.NewStream(ctx, &OrderTerminal_ServiceDesc.Streams[0], WatchMethod, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[WatchRequest, Event]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
