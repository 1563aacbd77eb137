package usecase

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/domain"
)

// DefaultTransferLimit 單筆轉帳上限
var DefaultTransferLimit = decimal.NewFromInt(1000)

// Validator 執行前的政策檢查，純函式，不做 I/O
type Validator struct {
	transferLimit decimal.Decimal
}

// NewValidator 建立 Validator，limit 非正數時使用 DefaultTransferLimit
func NewValidator(limit decimal.Decimal) *Validator {
	if !limit.IsPositive() {
		limit = DefaultTransferLimit
	}
	return &Validator{transferLimit: limit}
}

// Validate 判斷意圖是否允許執行
//
// 參數:
//
//	actorID: 已驗證的客戶 ID
//	intent: 解析出的意圖
//
// 回傳:
//
//	domain.Decision: Admit=false 時 Reason 為具體原因
func (v *Validator) Validate(actorID string, intent domain.Intent) domain.Decision {
	switch intent.Action {
	case domain.ActionTransfer:
		return v.validateTransfer(actorID, intent.Params)
	case domain.ActionFreezeAccount:
		// 目前沒有規則，保留擴充點
		return domain.Admit()
	default:
		return domain.Admit()
	}
}

func (v *Validator) validateTransfer(actorID string, params domain.Params) domain.Decision {
	to := params.String("to")
	amount := domain.CoerceAmount(params["amount"])

	if to == actorID {
		return domain.Reject(domain.MsgSelfTransfer)
	}
	if amount.GreaterThan(v.transferLimit) {
		return domain.Reject(fmt.Sprintf(domain.MsgTransferLimitPattern, v.transferLimit.String()))
	}
	if !amount.IsPositive() {
		return domain.Reject(domain.MsgInvalidAmount)
	}
	return domain.Admit()
}

// TransferLimit 目前設定的單筆上限
func (v *Validator) TransferLimit() decimal.Decimal {
	return v.transferLimit
}
