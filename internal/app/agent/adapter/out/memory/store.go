package memory

import (
	"context"
	"sync"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/domain"
	"github.com/JoeShih716/go-bank-agent/internal/app/agent/usecase"
)

// Store 記憶體版 LedgerStore
//
// 結構:
//
//	records: 目前的資料快照
//	mu: 保護 records
//	saves: Save 被呼叫的次數 (測試觀察用)
type Store struct {
	records *domain.RecordSet
	mu      sync.RWMutex
	saves   int
}

// NewStore 建立 Store，傳入的資料會先深拷貝
func NewStore(records *domain.RecordSet) *Store {
	if records == nil {
		records = &domain.RecordSet{}
	}
	return &Store{records: records.Clone()}
}

// Load 回傳資料的深拷貝，呼叫端修改不會影響 Store
func (s *Store) Load(ctx context.Context) (*domain.RecordSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records.Clone(), nil
}

// Save 整份覆寫
func (s *Store) Save(ctx context.Context, records *domain.RecordSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records.Clone()
	s.saves++
	return nil
}

// Saves 回傳 Save 成功次數
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

var _ usecase.LedgerStore = (*Store)(nil)
