package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// StatusSimulated 所有執行結果的預設狀態 (沒有真實金流)
	StatusSimulated = "simulated"
	// StatusFrozen freeze_account 的狀態標記
	StatusFrozen = "frozen"
)

// Result 動作執行結果
// Status 與 Timestamp 一定存在；其餘欄位為動作專屬，與 Error 互斥
type Result struct {
	Status    string
	Timestamp int64
	Error     string

	CustomerID   string
	Balance      *decimal.Decimal
	Currency     string
	Transactions []Transaction

	Name      string
	AccountID string
	Email     string
	MaskedSSN string

	Account string

	TxID    string
	From    string
	To      string
	Amount  *decimal.Decimal
	Message string
}

// NewResult 建立帶時間戳的空結果
func NewResult(now time.Time) Result {
	return Result{Status: StatusSimulated, Timestamp: now.Unix()}
}

// Fail 回傳只含錯誤訊息的結果 (清除所有動作欄位)
func (r Result) Fail(msg string) Result {
	return Result{Status: r.Status, Timestamp: r.Timestamp, Error: msg}
}

// Failed 是否為失敗結果
func (r Result) Failed() bool {
	return r.Error != ""
}
