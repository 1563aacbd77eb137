package events

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/domain"
	"github.com/JoeShih716/go-bank-agent/internal/app/agent/usecase"
)

// Named 帶名稱的 publisher，名稱只用於紀錄
type Named struct {
	Name      string
	Publisher usecase.EventPublisher
}

// Multi 依序發佈到所有 publisher，一個失敗不影響其他
type Multi struct {
	targets []Named
	logger  *zap.Logger
}

// NewMulti 建立 Multi
func NewMulti(logger *zap.Logger, targets ...Named) *Multi {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Multi{targets: targets, logger: logger}
}

// Publish 回傳所有失敗合併後的錯誤
func (m *Multi) Publish(ctx context.Context, event domain.TransferCompleted) error {
	var errs []error
	for _, t := range m.targets {
		if err := t.Publisher.Publish(ctx, event); err != nil {
			m.logger.Warn("publish failed", zap.String("target", t.Name), zap.String("tx_id", event.TxID), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len 目標數量
func (m *Multi) Len() int {
	return len(m.targets)
}

// Noop 不做任何事
type Noop struct{}

func (Noop) Publish(context.Context, domain.TransferCompleted) error {
	return nil
}

var (
	_ usecase.EventPublisher = (*Multi)(nil)
	_ usecase.EventPublisher = Noop{}
)
