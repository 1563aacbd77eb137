package main

import (
	"context"
	"fmt"

	goredislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/adapter/out/audit"
	"github.com/JoeShih716/go-bank-agent/internal/app/agent/adapter/out/events"
	"github.com/JoeShih716/go-bank-agent/internal/app/agent/adapter/out/graph"
	"github.com/JoeShih716/go-bank-agent/internal/app/agent/adapter/out/jsonfile"
	"github.com/JoeShih716/go-bank-agent/internal/app/agent/adapter/out/kafka"
	"github.com/JoeShih716/go-bank-agent/internal/app/agent/adapter/out/llm"
	"github.com/JoeShih716/go-bank-agent/internal/app/agent/adapter/out/memory"
	mysql_adapter "github.com/JoeShih716/go-bank-agent/internal/app/agent/adapter/out/mysql"
	"github.com/JoeShih716/go-bank-agent/internal/app/agent/adapter/out/postgres"
	"github.com/JoeShih716/go-bank-agent/internal/app/agent/adapter/out/redislock"
	"github.com/JoeShih716/go-bank-agent/internal/app/agent/usecase"
	"github.com/JoeShih716/go-bank-agent/internal/config"
	graphdb "github.com/JoeShih716/go-bank-agent/pkg/graph"
	"github.com/JoeShih716/go-bank-agent/pkg/mysql"
	"github.com/JoeShih716/go-bank-agent/pkg/wal"
)

// closeStack 依建立的相反順序關閉資源
type closeStack []func() error

func (c *closeStack) push(fn func() error) {
	*c = append(*c, fn)
}

func (c closeStack) closeAll(zlog *zap.Logger) {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			zlog.Warn("close failed", zap.Error(err))
		}
	}
}

func buildStore(ctx context.Context, cfg config.Config, zlog *zap.Logger, closers *closeStack) (usecase.LedgerStore, error) {
	var store usecase.LedgerStore
	switch cfg.Store.Driver {
	case "mysql":
		client, err := mysql.NewClient(cfg.Store.MySQL, zlog.Named("mysql"))
		if err != nil {
			return nil, err
		}
		closers.push(client.Close)
		s, err := mysql_adapter.NewLedgerStore(client)
		if err != nil {
			return nil, err
		}
		store = s
	case "postgres":
		db, err := postgres.Open(ctx, cfg.Store.PostgresDSN)
		if err != nil {
			return nil, err
		}
		closers.push(db.Close)
		s := postgres.NewLedgerStore(db)
		if err := s.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		store = s
	default:
		return jsonfile.NewStore(cfg.Store.Path), nil
	}

	if cfg.Store.SeedFromJSON && cfg.Store.Path != "" {
		if err := seedIfEmpty(ctx, store, jsonfile.NewStore(cfg.Store.Path), zlog); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// seedIfEmpty 目標沒有任何客戶時，把來源資料整份寫入
func seedIfEmpty(ctx context.Context, dst, src usecase.LedgerStore, zlog *zap.Logger) error {
	current, err := dst.Load(ctx)
	if err != nil {
		return fmt.Errorf("seed: load target: %w", err)
	}
	if len(current.Customers) > 0 {
		return nil
	}
	records, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("seed: load source: %w", err)
	}
	if err := dst.Save(ctx, records); err != nil {
		return fmt.Errorf("seed: save: %w", err)
	}
	zlog.Info("seeded store from json", zap.Int("customers", len(records.Customers)))
	return nil
}

func buildLocker(ctx context.Context, cfg config.Config, zlog *zap.Logger, closers *closeStack) (usecase.Locker, error) {
	switch cfg.Lock.Driver {
	case "sequencer":
		// 伺服器停止後才結束，讓處理中的轉帳做完
		seqCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		s := memory.NewSequencer(cfg.Lock.Buffer)
		s.Start(seqCtx)
		closers.push(func() error { cancel(); return nil })
		return s, nil
	case "redis":
		client := goredislib.NewClient(&goredislib.Options{Addr: cfg.Lock.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		closers.push(client.Close)
		opts := redislock.DefaultOptions()
		if cfg.Lock.Expiry > 0 {
			opts.Expiry = cfg.Lock.Expiry
		}
		if cfg.Lock.Tries > 0 {
			opts.Tries = cfg.Lock.Tries
		}
		return redislock.NewLocker(client, opts, zlog.Named("lock")), nil
	default:
		return memory.NewMutexLocker(), nil
	}
}

func buildPublisher(ctx context.Context, cfg config.Config, zlog *zap.Logger, closers *closeStack) (usecase.EventPublisher, error) {
	var targets []events.Named

	if len(cfg.Events.KafkaBrokers) > 0 {
		p := kafka.NewPublisher(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic)
		closers.push(p.Close)
		targets = append(targets, events.Named{Name: "kafka", Publisher: p})
	}

	if cfg.Events.GraphURI != "" {
		client, err := graphdb.NewNeo4jClient(ctx, graphdb.Options{
			URI:      cfg.Events.GraphURI,
			Database: cfg.Events.GraphDatabase,
			Username: cfg.Events.GraphUsername,
			Password: cfg.Events.GraphPassword,
		})
		if err != nil {
			return nil, err
		}
		closers.push(func() error { return client.Close(context.Background()) })
		targets = append(targets, events.Named{Name: "graph", Publisher: graph.NewProjector(client)})
	}

	if len(targets) == 0 {
		return events.Noop{}, nil
	}
	return events.NewMulti(zlog.Named("events"), targets...), nil
}

func buildAudit(cfg config.Config, closers *closeStack) (usecase.AuditLog, error) {
	if cfg.Audit.Path == "" {
		return nil, nil
	}
	w, err := wal.NewWAL(cfg.Audit.Path)
	if err != nil {
		return nil, err
	}
	closers.push(w.Close)
	return audit.NewJournal(w), nil
}

func buildModel(cfg config.Config, zlog *zap.Logger) usecase.ModelClient {
	return llm.NewClient(llm.Config{
		URL:                cfg.LLM.URL,
		Protocol:           llm.Protocol(cfg.LLM.Protocol),
		Model:              cfg.LLM.Model,
		Timeout:            cfg.LLM.Timeout,
		BreakerFailures:    cfg.LLM.BreakerFailures,
		BreakerOpenTimeout: cfg.LLM.BreakerOpenTimeout,
	}, zlog.Named("llm"))
}
