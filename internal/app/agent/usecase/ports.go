package usecase

import (
	"context"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/domain"
)

// LedgerStore 整份客戶資料的持久化介面
// Load 回傳完整資料，Save 以整份覆寫，核心不會做部分寫入
type LedgerStore interface {
	Load(ctx context.Context) (*domain.RecordSet, error)
	Save(ctx context.Context, records *domain.RecordSet) error
}

// Locker 序列化會修改資料的執行流程 (load -> mutate -> save)
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// EventPublisher 轉帳完成事件的發佈介面 (best effort)
type EventPublisher interface {
	Publish(ctx context.Context, event domain.TransferCompleted) error
}

// AuditLog 稽核日誌
type AuditLog interface {
	Append(entry domain.AuditEntry) error
}

// ModelClient 語言模型呼叫
type ModelClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
