package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/LeonardoBeccarini/agri_advisor/internal/scoring"
)

// The Advisor service carries JSON-shaped messages as google.protobuf.Struct:
// Predict takes a FarmObservation object and returns the same document as
// POST /api/v1/predict.
const advisorServiceName = "agriadvisor.v1.Advisor"

const (
	methodListCrops = "/" + advisorServiceName + "/ListCrops"
	methodGetTips   = "/" + advisorServiceName + "/GetTips"
	methodPredict   = "/" + advisorServiceName + "/Predict"
)

type AdvisorServer interface {
	ListCrops(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetTips(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Predict(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var AdvisorServiceDesc = grpc.ServiceDesc{
	ServiceName: advisorServiceName,
	HandlerType: (*AdvisorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListCrops", Handler: listCropsHandler},
		{MethodName: "GetTips", Handler: getTipsHandler},
		{MethodName: "Predict", Handler: predictHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "agriadvisor/v1/advisor.proto",
}

func RegisterAdvisorServer(s grpc.ServiceRegistrar, srv AdvisorServer) {
	s.RegisterService(&AdvisorServiceDesc, srv)
}

func listCropsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdvisorServer).ListCrops(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodListCrops}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdvisorServer).ListCrops(ctx, req.(*emptypb.Empty))
	})
}

func getTipsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdvisorServer).GetTips(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetTips}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdvisorServer).GetTips(ctx, req.(*emptypb.Empty))
	})
}

func predictHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdvisorServer).Predict(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodPredict}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdvisorServer).Predict(ctx, req.(*structpb.Struct))
	})
}

// GrpcHandler serves the Advisor service on top of the same Service as HTTP.
type GrpcHandler struct {
	api *API
}

func NewGrpcHandler(api *API) *GrpcHandler { return &GrpcHandler{api: api} }

func (h *GrpcHandler) ListCrops(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(map[string][]string{"crops": h.api.svc.Crops()})
}

func (h *GrpcHandler) GetTips(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(map[string][]string{"tips": scoring.Tips})
}

func (h *GrpcHandler) Predict(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	raw, err := req.MarshalJSON()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	obs, err := decodeObservation(bytes.NewReader(raw))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	res, err := h.api.svc.Predict(SourceGRPC, fieldIDFromMetadata(ctx), obs)
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(h.api.toResponse(res))
}

func fieldIDFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if v := md.Get("x-field-id"); len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

func grpcError(err error) error {
	switch {
	case errors.Is(err, scoring.ErrUnknownCategory), errors.Is(err, scoring.ErrInvalidObservation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, scoring.ErrInference):
		return status.Error(codes.Internal, "prediction failed")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// toStruct goes through JSON so json tags and time formatting match the HTTP API.
func toStruct(v interface{}) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out := &structpb.Struct{}
	if err := out.UnmarshalJSON(b); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// AdvisorClient calls a remote Advisor service.
type AdvisorClient struct {
	cc grpc.ClientConnInterface
}

func NewAdvisorClient(cc grpc.ClientConnInterface) *AdvisorClient { return &AdvisorClient{cc: cc} }

func (c *AdvisorClient) ListCrops(ctx context.Context, opts ...grpc.CallOption) ([]string, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodListCrops, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	var crops []string
	for _, v := range out.GetFields()["crops"].GetListValue().GetValues() {
		crops = append(crops, v.GetStringValue())
	}
	return crops, nil
}

func (c *AdvisorClient) GetTips(ctx context.Context, opts ...grpc.CallOption) ([]string, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodGetTips, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	var tips []string
	for _, v := range out.GetFields()["tips"].GetListValue().GetValues() {
		tips = append(tips, v.GetStringValue())
	}
	return tips, nil
}

// Predict sends obs (any value that marshals to a FarmObservation object) and
// decodes the response into out.
func (c *AdvisorClient) Predict(ctx context.Context, obs interface{}, out interface{}, opts ...grpc.CallOption) error {
	b, err := json.Marshal(obs)
	if err != nil {
		return err
	}
	in := &structpb.Struct{}
	if err := in.UnmarshalJSON(b); err != nil {
		return err
	}
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodPredict, in, resp, opts...); err != nil {
		return err
	}
	rb, err := resp.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(rb, out)
}
