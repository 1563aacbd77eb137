package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// ServiceName gRPC 服務全名
	ServiceName = "bankagent.v1.AgentService"
	// ChatMethod Chat 的完整方法路徑
	ChatMethod = "/" + ServiceName + "/Chat"
)

// AgentServiceServer 服務端介面
// 請求與回應都是 google.protobuf.Struct，欄位與 HTTP /chat 相同
type AgentServiceServer interface {
	Chat(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc 手寫的服務描述，不依賴 protoc 產生的程式碼
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AgentServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Chat",
			Handler:    chatHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bankagent/v1/agent.proto",
}

func chatHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AgentServiceServer).Chat(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ChatMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AgentServiceServer).Chat(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// AgentServiceClient 客戶端
type AgentServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAgentServiceClient 建立客戶端
func NewAgentServiceClient(cc grpc.ClientConnInterface) *AgentServiceClient {
	return &AgentServiceClient{cc: cc}
}

// Chat 呼叫遠端 Chat，token 放在 "authorization" metadata
func (c *AgentServiceClient) Chat(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ChatMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
