package redislock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/usecase"
)

var (
	// ErrEmptyLockKey 鎖名稱不可為空
	ErrEmptyLockKey = errors.New("lock key cannot be empty")
	// ErrLockNotHeld 釋放時鎖已過期或被他人持有
	ErrLockNotHeld = errors.New("lock was not held or already expired")
)

// Options redsync Mutex 參數
type Options struct {
	Expiry      time.Duration
	Tries       int
	RetryDelay  time.Duration
	DriftFactor float64
}

// DefaultOptions 臨界區只有 load -> mutate -> save，10 秒足夠
func DefaultOptions() Options {
	return Options{
		Expiry:      10 * time.Second,
		Tries:       32,
		RetryDelay:  100 * time.Millisecond,
		DriftFactor: 0.01,
	}
}

// Locker 跨行程的分散式鎖 (多個 agent 實例共用同一份資料時使用)
type Locker struct {
	redsync *redsync.Redsync
	opts    Options
	logger  *zap.Logger
}

// NewLocker 以 go-redis client 建立 Locker
//
// 參數:
//
//	client: go-redis 客戶端
//	opts: Mutex 參數，零值欄位使用 DefaultOptions
//	logger: 紀錄
func NewLocker(client goredislib.UniversalClient, opts Options, logger *zap.Logger) *Locker {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultOptions()
	if opts.Expiry <= 0 {
		opts.Expiry = def.Expiry
	}
	if opts.Tries <= 0 {
		opts.Tries = def.Tries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = def.RetryDelay
	}
	if opts.DriftFactor <= 0 || opts.DriftFactor >= 1 {
		opts.DriftFactor = def.DriftFactor
	}
	return &Locker{
		redsync: redsync.New(goredis.NewPool(client)),
		opts:    opts,
		logger:  logger,
	}
}

// WithLock 取得分散式鎖後執行 fn，結束後釋放
//
// 回傳:
//
//	error: 取鎖失敗、fn 的錯誤；fn 成功但釋放失敗時回傳 ErrLockNotHeld
func (l *Locker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) (err error) {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyLockKey
	}

	mutex := l.redsync.NewMutex(
		key,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
		redsync.WithDriftFactor(l.opts.DriftFactor),
	)

	if err := mutex.LockContext(ctx); err != nil {
		l.logger.Error("failed to acquire lock", zap.String("lock_key", key), zap.Error(err))
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	l.logger.Debug("lock acquired", zap.String("lock_key", key))

	defer func() {
		// 釋放不受呼叫端 ctx 取消影響
		ok, unlockErr := mutex.UnlockContext(context.WithoutCancel(ctx))
		if unlockErr != nil || !ok {
			l.logger.Error("failed to release lock", zap.String("lock_key", key), zap.Bool("unlock_ok", ok), zap.Error(unlockErr))
			if err == nil {
				err = ErrLockNotHeld
			}
		}
	}()

	// 臨界區執行期間每 Expiry/2 續期一次；續期失敗時取消 fn 的 ctx
	fnCtx, cancel := context.WithCancelCause(ctx)
	stop := l.keepAlive(fnCtx, cancel, mutex, key)
	defer stop()

	return fn(fnCtx)
}

// keepAlive 啟動續期 goroutine，回傳的 stop 會等它結束
func (l *Locker) keepAlive(ctx context.Context, cancel context.CancelCauseFunc, mutex *redsync.Mutex, key string) (stop func()) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(l.opts.Expiry / 2)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				ok, err := mutex.ExtendContext(context.WithoutCancel(ctx))
				if err != nil || !ok {
					l.logger.Warn("failed to extend lock", zap.String("lock_key", key), zap.Bool("extend_ok", ok), zap.Error(err))
					cancel(ErrLockNotHeld)
					return
				}
				l.logger.Debug("lock extended", zap.String("lock_key", key))
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
		cancel(nil)
	}
}

var _ usecase.Locker = (*Locker)(nil)
