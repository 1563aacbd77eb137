package usecase

import (
	"fmt"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/domain"
)

// renderMessage 依動作產生給使用者的訊息
func renderMessage(r Reply, autoExecute bool) string {
	if r.Action == domain.ActionClarify {
		if msg := r.ClarifyParams.String("message"); msg != "" {
			return msg
		}
		return "Could you please specify what help you need?"
	}
	if r.Rejection != "" {
		return "Your request was not executed. " + r.Rejection
	}
	if !r.Executed || r.Result == nil {
		if !autoExecute {
			return "Your request was validated but not executed (auto-execute is disabled)."
		}
		return "I'm not sure what you meant. Could you clarify?"
	}

	res := r.Result
	if res.Failed() {
		if r.Action == domain.ActionTransfer {
			return "Transfer could not be completed. " + res.Error
		}
		return "Your request could not be completed. " + res.Error
	}

	switch r.Action {
	case domain.ActionGetBalance:
		if res.Balance == nil {
			return "Unable to retrieve your balance."
		}
		currency := res.Currency
		if currency == "" {
			currency = "USD"
		}
		return fmt.Sprintf("Your current account balance is %s %s.", res.Balance.StringFixed(2), currency)
	case domain.ActionGetTransactions:
		if len(res.Transactions) == 0 {
			return "No transactions found."
		}
		return fmt.Sprintf("Here are your last %d transactions.", len(res.Transactions))
	case domain.ActionGetCustomerInfo:
		return "Here is your account information."
	case domain.ActionTransfer:
		return fmt.Sprintf("Transfer of $%s to %s has been completed.", amountOrZero(res.Amount).StringFixed(2), res.To)
	case domain.ActionFreezeAccount:
		return "Your account has been frozen as requested."
	default:
		return "Action executed."
	}
}
