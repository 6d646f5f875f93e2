package swipe

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "intromatch.v1.SwipeService"

const (
	fullMethodGetEntity         = "/" + ServiceName + "/GetEntity"
	fullMethodNextCandidates    = "/" + ServiceName + "/NextCandidates"
	fullMethodPutDecision       = "/" + ServiceName + "/PutDecision"
	fullMethodListMatches       = "/" + ServiceName + "/ListMatches"
	fullMethodListIncomingLikes = "/" + ServiceName + "/ListIncomingLikes"
	fullMethodCountMatches      = "/" + ServiceName + "/CountMatches"
)

// SwipeServiceServer is the server API for the swipe service.
type SwipeServiceServer interface {
	GetEntity(context.Context, *GetEntityRequest) (*EntityView, error)
	NextCandidates(context.Context, *NextCandidatesRequest) (*NextCandidatesResponse, error)
	PutDecision(context.Context, *PutDecisionRequest) (*PutDecisionResponse, error)
	ListMatches(context.Context, *ListMatchesRequest) (*ListMatchesResponse, error)
	ListIncomingLikes(context.Context, *ListIncomingLikesRequest) (*ListIncomingLikesResponse, error)
	CountMatches(context.Context, *CountMatchesRequest) (*CountMatchesResponse, error)
}

// RegisterSwipeServiceServer attaches srv to s.
func RegisterSwipeServiceServer(s grpc.ServiceRegistrar, srv SwipeServiceServer) {
	s.RegisterService(&SwipeService_ServiceDesc, srv)
}

// unary builds a method handler for one request/response pair.
func unary[Req, Resp any](
	fullMethod string,
	call func(SwipeServiceServer, context.Context, *Req) (*Resp, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SwipeServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SwipeServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// SwipeService_ServiceDesc is the grpc.ServiceDesc for the swipe service.
// Messages are plain Go structs carried by the JSON codec.
var SwipeService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SwipeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetEntity", Handler: unary(fullMethodGetEntity, SwipeServiceServer.GetEntity)},
		{MethodName: "NextCandidates", Handler: unary(fullMethodNextCandidates, SwipeServiceServer.NextCandidates)},
		{MethodName: "PutDecision", Handler: unary(fullMethodPutDecision, SwipeServiceServer.PutDecision)},
		{MethodName: "ListMatches", Handler: unary(fullMethodListMatches, SwipeServiceServer.ListMatches)},
		{MethodName: "ListIncomingLikes", Handler: unary(fullMethodListIncomingLikes, SwipeServiceServer.ListIncomingLikes)},
		{MethodName: "CountMatches", Handler: unary(fullMethodCountMatches, SwipeServiceServer.CountMatches)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "intromatch/v1/swipe.proto",
}

// SwipeServiceClient is the client API for the swipe service.
type SwipeServiceClient struct {
	cc   grpc.ClientConnInterface
	opts []grpc.CallOption
}

// NewSwipeServiceClient creates a client that encodes messages with the JSON codec.
func NewSwipeServiceClient(cc grpc.ClientConnInterface) *SwipeServiceClient {
	return &SwipeServiceClient{cc: cc, opts: []grpc.CallOption{grpc.CallContentSubtype(CodecName)}}
}

func invoke[Resp any](ctx context.Context, c *SwipeServiceClient, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := c.cc.Invoke(ctx, method, in, out, append(c.opts, opts...)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SwipeServiceClient) GetEntity(ctx context.Context, in *GetEntityRequest, opts ...grpc.CallOption) (*EntityView, error) {
	return invoke[EntityView](ctx, c, fullMethodGetEntity, in, opts)
}

func (c *SwipeServiceClient) NextCandidates(ctx context.Context, in *NextCandidatesRequest, opts ...grpc.CallOption) (*NextCandidatesResponse, error) {
	return invoke[NextCandidatesResponse](ctx, c, fullMethodNextCandidates, in, opts)
}

func (c *SwipeServiceClient) PutDecision(ctx context.Context, in *PutDecisionRequest, opts ...grpc.CallOption) (*PutDecisionResponse, error) {
	return invoke[PutDecisionResponse](ctx, c, fullMethodPutDecision, in, opts)
}

func (c *SwipeServiceClient) ListMatches(ctx context.Context, in *ListMatchesRequest, opts ...grpc.CallOption) (*ListMatchesResponse, error) {
	return invoke[ListMatchesResponse](ctx, c, fullMethodListMatches, in, opts)
}

func (c *SwipeServiceClient) ListIncomingLikes(ctx context.Context, in *ListIncomingLikesRequest, opts ...grpc.CallOption) (*ListIncomingLikesResponse, error) {
	return invoke[ListIncomingLikesResponse](ctx, c, fullMethodListIncomingLikes, in, opts)
}

func (c *SwipeServiceClient) CountMatches(ctx context.Context, in *CountMatchesRequest, opts ...grpc.CallOption) (*CountMatchesResponse, error) {
	return invoke[CountMatchesResponse](ctx, c, fullMethodCountMatches, in, opts)
}
