package grpc

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/adapter/in/presenter"
	"github.com/JoeShih716/go-bank-agent/internal/app/agent/domain"
	"github.com/JoeShih716/go-bank-agent/internal/app/agent/usecase"
)

// AuthorizationKey 放 token 的 metadata key
const AuthorizationKey = "authorization"

type GrpcServer struct {
	agent  *usecase.Agent
	logger *zap.Logger
}

func NewGrpcServer(agent *usecase.Agent, logger *zap.Logger) *GrpcServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GrpcServer{
		agent:  agent,
		logger: logger,
	}
}

// Chat 與 HTTP /chat 相同的流程
// 驗證失敗 Unauthenticated；缺少 prompt InvalidArgument；基礎設施錯誤 Internal
func (s *GrpcServer) Chat(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	// 1. 驗證
	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(AuthorizationKey); len(v) > 0 {
			header = v[0]
		}
	}
	actorID, err := s.agent.Authenticate(ctx, header)
	if err != nil {
		if errors.Is(err, domain.ErrLoadRecords) {
			return nil, status.Error(codes.Internal, err.Error())
		}
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}

	// 2. 取出 prompt
	prompt := req.GetFields()["prompt"].GetStringValue()

	// 3. 執行
	reply, err := s.agent.Chat(ctx, actorID, prompt)
	if errors.Is(err, domain.ErrEmptyPrompt) {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	out, err := structpb.NewStruct(presenter.Reply(reply))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// NewServer 建立 grpc.Server 並註冊 Agent、health 與 reflection
func NewServer(srv *GrpcServer, logger *zap.Logger) *grpc.Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(UnaryLogger(logger), UnaryRecovery(logger)))
	s.RegisterService(&ServiceDesc, srv)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)

	reflection.Register(s) // 方便 grpcurl 測試
	return s
}

// UnaryLogger 記錄每個呼叫的方法與狀態碼
func UnaryLogger(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		var requestID string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get("x-request-id"); len(v) > 0 {
				requestID = v[0]
			}
		}
		logger.Info("grpc call",
			zap.String("method", info.FullMethod),
			zap.String("request_id", requestID),
			zap.String("code", status.Code(err).String()),
			zap.Duration("elapsed", time.Since(start)),
		)
		return resp, err
	}
}

// UnaryRecovery 攔截 handler 的 panic 並轉成 codes.Internal，連線與 process 不受影響
func UnaryRecovery(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("grpc handler panic",
					zap.String("method", info.FullMethod),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
				)
				resp, err = nil, status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}

var _ AgentServiceServer = (*GrpcServer)(nil)
