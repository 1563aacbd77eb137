package memory

import (
	"context"
	"sync"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/usecase"
)

// MutexLocker 單一行程內的 Locker，每個 key 一把 Mutex
//
// 結構:
//
//	locks: key 對應的 Mutex
//	mu: 保護 locks
type MutexLocker struct {
	locks map[string]*sync.Mutex
	mu    sync.Mutex
}

// NewMutexLocker 建立 MutexLocker
func NewMutexLocker() *MutexLocker {
	return &MutexLocker{
		locks: make(map[string]*sync.Mutex),
	}
}

func (l *MutexLocker) lockFor(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	return m
}

// WithLock 持有 key 的鎖執行 fn
//
// 參數:
//
//	ctx: 上下文 (進入前已取消則直接回傳)
//	key: 鎖的名稱
//	fn: 臨界區
//
// 回傳:
//
//	error: ctx 錯誤或 fn 的錯誤
func (l *MutexLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := l.lockFor(key)
	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}

var _ usecase.Locker = (*MutexLocker)(nil)
