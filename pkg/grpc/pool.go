package grpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
)

// Pool 依目標地址快取 gRPC 連線，同一地址只維護一條
// 可在多個 goroutine 間共用
type Pool struct {
	conns        sync.Map // map[string]*grpc.ClientConn
	mu           sync.Mutex
	interceptors []grpc.UnaryClientInterceptor
	keepalive    keepalive.ClientParameters
}

// PoolOption 定義了 Pool 的配置選項函數
type PoolOption func(*Pool)

// WithInterceptor 加入一個 UnaryClientInterceptor，依加入順序串接
func WithInterceptor(interceptor grpc.UnaryClientInterceptor) PoolOption {
	return func(p *Pool) {
		p.interceptors = append(p.interceptors, interceptor)
	}
}

// WithAuthorization 每次呼叫自動帶上 authorization metadata (例如 "Bearer <token>")
func WithAuthorization(header string) PoolOption {
	return WithInterceptor(func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", header)
		return invoker(ctx, method, req, reply, cc, opts...)
	})
}

// WithKeepalive 覆寫預設的 keepalive 參數
func WithKeepalive(params keepalive.ClientParameters) PoolOption {
	return func(p *Pool) {
		p.keepalive = params
	}
}

// NewPool 建立連線池
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		keepalive: keepalive.ClientParameters{
			Time:                10 * time.Second,
			Timeout:             time.Second,
			PermitWithoutStream: true,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetConnection 取得 target 的連線，不存在或已關閉時建立新的
//
// 參數:
//
//	target: 目標地址 (e.g., "localhost:50052"、"passthrough:///bufnet")
//	opts: 額外的 DialOption，接在預設值之後
//
// 回傳值:
//
//	*grpc.ClientConn: 連線 (lazy，第一次呼叫才真正建立)
//	error: 建立失敗
func (p *Pool) GetConnection(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	if conn, ok := p.load(target); ok {
		return conn, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// double check
	if conn, ok := p.load(target); ok {
		return conn, nil
	}

	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(p.keepalive),
	}
	if len(p.interceptors) > 0 {
		dialOpts = append(dialOpts, grpc.WithChainUnaryInterceptor(p.interceptors...))
	}
	dialOpts = append(dialOpts, opts...)

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create grpc client for target %s: %w", target, err)
	}
	p.conns.Store(target, conn)
	return conn, nil
}

// load 取出仍可用的連線，已 Shutdown 的會被移除
func (p *Pool) load(target string) (*grpc.ClientConn, bool) {
	v, ok := p.conns.Load(target)
	if !ok {
		return nil, false
	}
	conn := v.(*grpc.ClientConn)
	if conn.GetState() == connectivity.Shutdown {
		p.conns.Delete(target)
		return nil, false
	}
	return conn, true
}

// Close 關閉所有連線，回傳第一個錯誤
func (p *Pool) Close() error {
	var firstErr error
	p.conns.Range(func(key, value any) bool {
		if err := value.(*grpc.ClientConn).Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.conns.Delete(key)
		return true
	})
	return firstErr
}
