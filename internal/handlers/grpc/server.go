package grpc

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName              = "weathervoice.v1.WeatherTool"
	GetCurrentWeatherMethod  = "/" + ServiceName + "/GetCurrentWeather"
	getCurrentWeatherHandler = "GetCurrentWeather"
)

type weatherDescriber interface {
	CurrentWeather(ctx context.Context, location string) string
}

// WeatherToolServer exposes the weather tool to gRPC callers. The request is
// the location, the response is the sentence the assistant would speak.
type WeatherToolServer interface {
	GetCurrentWeather(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
}

type WeatherGRPCServer struct {
	service weatherDescriber
}

func NewWeatherGRPCServer(service weatherDescriber) *WeatherGRPCServer {
	return &WeatherGRPCServer{service: service}
}

func (s *WeatherGRPCServer) GetCurrentWeather(
	ctx context.Context,
	req *wrapperspb.StringValue,
) (*wrapperspb.StringValue, error) {
	location := strings.TrimSpace(req.GetValue())
	if location == "" {
		return nil, status.Error(codes.InvalidArgument, "location is required")
	}
	return wrapperspb.String(s.service.CurrentWeather(ctx, location)), nil
}

// RegisterWeatherToolServer attaches srv to the gRPC server under ServiceName.
func RegisterWeatherToolServer(s grpc.ServiceRegistrar, srv WeatherToolServer) {
	s.RegisterService(&weatherToolServiceDesc, srv)
}

func getCurrentWeatherUnary(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WeatherToolServer).GetCurrentWeather(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: GetCurrentWeatherMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(WeatherToolServer).GetCurrentWeather(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

var weatherToolServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WeatherToolServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: getCurrentWeatherHandler,
			Handler:    getCurrentWeatherUnary,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "weathervoice/v1/weather_tool.proto",
}

// WeatherToolClient calls GetCurrentWeather on a remote server.
type WeatherToolClient struct {
	cc grpc.ClientConnInterface
}

func NewWeatherToolClient(cc grpc.ClientConnInterface) *WeatherToolClient {
	return &WeatherToolClient{cc: cc}
}

func (c *WeatherToolClient) GetCurrentWeather(
	ctx context.Context,
	location string,
	opts ...grpc.CallOption,
) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, GetCurrentWeatherMethod, wrapperspb.String(location), out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}
