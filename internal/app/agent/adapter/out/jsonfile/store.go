package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/domain"
	"github.com/JoeShih716/go-bank-agent/internal/app/agent/usecase"
	"github.com/JoeShih716/go-bank-agent/pkg/wal"
)

// Store 以單一 JSON 檔保存整份客戶資料
//
// 結構:
//
//	path: 資料檔路徑
//	mu: 同一行程內 Load/Save 互斥，跨行程的序列化交給 usecase.Locker
type Store struct {
	path string
	mu   sync.RWMutex
}

// NewStore 建立 Store，不會檢查檔案是否存在
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load 讀取整份資料
//
// 參數:
//
//	ctx: 上下文
//
// 回傳:
//
//	*domain.RecordSet: 客戶資料
//	error: 檔案不存在、格式錯誤或金額無法解析
func (s *Store) Load(ctx context.Context) (*domain.RecordSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var doc fileDocument
	dec := json.NewDecoder(f)
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	rs, err := toDomain(doc)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return rs, nil
}

// Save 整份覆寫
// 先寫入同目錄的暫存檔再 rename，寫到一半失敗時原檔不受影響
func (s *Store) Save(ctx context.Context, records *domain.RecordSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fromDomain(records)); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, wal.FileModeReadOnly); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path)
}

var _ usecase.LedgerStore = (*Store)(nil)
