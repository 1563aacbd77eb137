package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	grpc_adapter "github.com/JoeShih716/go-bank-agent/internal/app/agent/adapter/in/grpc"
	http_adapter "github.com/JoeShih716/go-bank-agent/internal/app/agent/adapter/in/http"
	"github.com/JoeShih716/go-bank-agent/internal/app/agent/usecase"
	"github.com/JoeShih716/go-bank-agent/internal/config"
	"github.com/JoeShih716/go-bank-agent/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	// 1. 載入設定
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. 初始化 Logger
	zlog, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zlog); err != nil {
		zlog.Fatal("agent exited with error", zap.Error(err))
	}
	zlog.Info("Server exited")
}

func run(ctx context.Context, cfg config.Config, zlog *zap.Logger) error {
	var closers closeStack
	defer closers.closeAll(zlog)

	// 3. 外部依賴 (Driven Adapters)
	store, err := buildStore(ctx, cfg, zlog, &closers)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	locker, err := buildLocker(ctx, cfg, zlog, &closers)
	if err != nil {
		return fmt.Errorf("locker: %w", err)
	}
	publisher, err := buildPublisher(ctx, cfg, zlog, &closers)
	if err != nil {
		return fmt.Errorf("events: %w", err)
	}
	auditLog, err := buildAudit(cfg, &closers)
	if err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	limit, err := cfg.Policy.Limit()
	if err != nil {
		return err
	}

	// 4. 初始化 UseCase
	executor := usecase.NewExecutor(store, locker, zlog.Named("executor"),
		usecase.WithPublisher(publisher),
		usecase.WithAuditLog(auditLog),
	)
	agent := usecase.NewAgent(
		store,
		buildModel(cfg, zlog),
		usecase.NewExtractor(zlog.Named("extractor")),
		usecase.NewValidator(limit),
		executor,
		usecase.AgentConfig{
			AutoExecute:   cfg.Policy.AutoExecute,
			ModelTimeout:  cfg.LLM.Timeout,
			RiskThreshold: cfg.Policy.RiskThreshold,
			RedTeamMode:   cfg.Policy.RedTeamMode,
		},
		zlog.Named("agent"),
	)
	zlog.Info("agent ready",
		zap.String("store", cfg.Store.Driver),
		zap.String("lock", cfg.Lock.Driver),
		zap.Bool("auto_execute", cfg.Policy.AutoExecute),
		zap.Bool("red_team_mode", cfg.Policy.RedTeamMode),
		zap.String("transfer_limit", limit.String()),
	)

	// 5. 啟動 Driving Adapters
	errCh := make(chan error, 2)

	httpServer := http_adapter.NewServer(agent, http_adapter.Options{
		AllowOrigins: cfg.HTTP.AllowOrigins,
		ChatLimit:    cfg.HTTP.ChatLimit,
		ProbeLimit:   cfg.HTTP.ProbeLimit,
	}, zlog.Named("http"))
	go func() {
		if err := httpServer.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()

	var grpcServer interface{ GracefulStop() }
	if cfg.GRPC.Port > 0 {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPC.Port))
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		s := grpc_adapter.NewServer(grpc_adapter.NewGrpcServer(agent, zlog.Named("grpc")), zlog.Named("grpc"))
		grpcServer = s
		go func() {
			zlog.Info("grpc server listening", zap.Int("port", cfg.GRPC.Port))
			if err := s.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc: %w", err)
			}
		}()
	}

	// 6. Graceful Shutdown
	var serveErr error
	select {
	case <-ctx.Done():
		zlog.Info("Shutting down server...")
	case serveErr = <-errCh:
		zlog.Error("server failed", zap.Error(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		serveErr = errors.Join(serveErr, err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	zlog.Info("requests handled", zap.Int64("count", agent.Handled()))
	return serveErr
}
