package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferCompleted 轉帳成功並寫回後發出的事件
type TransferCompleted struct {
	TxID       string          `json:"tx_id"`
	From       string          `json:"from"`
	To         string          `json:"to"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Date       string          `json:"date"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// AuditEntry 每次執行動作寫入稽核日誌的一筆紀錄
type AuditEntry struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id"`
	Action    Action    `json:"action"`
	Params    Params    `json:"params,omitempty"`
	Outcome   string    `json:"outcome"`
	Error     string    `json:"error,omitempty"`
	TxID      string    `json:"tx_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)
