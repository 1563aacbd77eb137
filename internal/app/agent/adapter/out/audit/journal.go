package audit

import (
	"encoding/json"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/domain"
	"github.com/JoeShih716/go-bank-agent/internal/app/agent/usecase"
	"github.com/JoeShih716/go-bank-agent/pkg/wal"
)

// Journal 把每次動作執行的稽核紀錄寫入 WAL
type Journal struct {
	wal *wal.WAL
}

// NewJournal 建立 Journal
func NewJournal(w *wal.WAL) *Journal {
	return &Journal{wal: w}
}

// Append 寫入一筆紀錄 (同步刷入硬碟)
func (j *Journal) Append(entry domain.AuditEntry) error {
	return j.wal.Write(entry)
}

// Entries 依寫入順序讀回所有紀錄
//
// 回傳:
//
//	[]domain.AuditEntry: 所有紀錄
//	error: 讀取或解析錯誤
func (j *Journal) Entries() ([]domain.AuditEntry, error) {
	entries := make([]domain.AuditEntry, 0)
	err := j.wal.ReadAll(func(jsonRaw []byte) error {
		var e domain.AuditEntry
		if err := json.Unmarshal(jsonRaw, &e); err != nil {
			return err
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

var _ usecase.AuditLog = (*Journal)(nil)
