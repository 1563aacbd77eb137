// Package presenter 把 usecase.Reply 轉成 JSON 相容的 map，HTTP 與 gRPC 共用
// 值只會是 string / float64 / int64 / bool / nil / []any / map[string]any
package presenter

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/domain"
	"github.com/JoeShih716/go-bank-agent/internal/app/agent/usecase"
)

// Reply 轉換一次對話的結果
func Reply(r usecase.Reply) map[string]any {
	if r.LLMError != "" {
		return map[string]any{
			"authenticated_user": r.AuthenticatedUser,
			"llm_error":          r.LLMError,
			"executed":           false,
		}
	}
	if r.Risk != nil {
		return map[string]any{
			"authenticated_user": r.AuthenticatedUser,
			"executed":           false,
			"risk":               risk(*r.Risk),
			"message":            r.Message,
		}
	}
	if r.Clarification != "" {
		return map[string]any{
			"authenticated_user": r.AuthenticatedUser,
			"llm_output":         r.LLMOutput,
			"executed":           false,
			"clarification":      r.Clarification,
		}
	}

	out := map[string]any{
		"authenticated_user": r.AuthenticatedUser,
		"llm_output":         r.LLMOutput,
		"action":             string(r.Action),
		"params":             Params(r.Params),
		"executed":           r.Executed,
		"action_result":      nil,
		"message":            r.Message,
	}
	switch {
	case r.Action == domain.ActionClarify:
		out["action_result"] = Params(r.ClarifyParams)
	case r.Rejection != "":
		out["action_result"] = map[string]any{"error": r.Rejection}
	case r.Result != nil:
		out["action_result"] = Result(*r.Result)
	}
	return out
}

// Result 轉換執行結果，失敗時只帶 status / timestamp / error
func Result(res domain.Result) map[string]any {
	out := map[string]any{
		"status":    res.Status,
		"timestamp": res.Timestamp,
	}
	if res.Failed() {
		out["error"] = res.Error
		return out
	}

	putString(out, "customer_id", res.CustomerID)
	putAmount(out, "balance", res.Balance)
	putString(out, "currency", res.Currency)
	if res.Transactions != nil {
		txs := make([]any, 0, len(res.Transactions))
		for _, tx := range res.Transactions {
			txs = append(txs, map[string]any{
				"tx_id":       tx.TxID,
				"date":        tx.Date,
				"amount":      tx.Amount.InexactFloat64(),
				"description": tx.Description,
			})
		}
		out["transactions"] = txs
	}
	putString(out, "name", res.Name)
	putString(out, "account_id", res.AccountID)
	putString(out, "email", res.Email)
	putString(out, "masked_ssn", res.MaskedSSN)
	putString(out, "account", res.Account)
	putString(out, "tx_id", res.TxID)
	putString(out, "from", res.From)
	putString(out, "to", res.To)
	putAmount(out, "amount", res.Amount)
	putString(out, "message", res.Message)
	return out
}

// Params 正規化模型給的參數 (json.Number、int 等轉成 float64)
func Params(p domain.Params) map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = plain(v)
	}
	return out
}

func risk(r usecase.RiskAssessment) map[string]any {
	reasons := make([]any, 0, len(r.Reasons))
	for _, s := range r.Reasons {
		reasons = append(reasons, s)
	}
	return map[string]any{"score": int64(r.Score), "reasons": reasons}
}

func plain(v any) any {
	switch t := v.(type) {
	case nil, string, bool, float64, int64:
		return t
	case int:
		return int64(t)
	case float32:
		return float64(t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case decimal.Decimal:
		return t.InexactFloat64()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = plain(x)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = plain(x)
		}
		return out
	default:
		return fmt.Sprint(t)
	}
}

func putString(m map[string]any, key, v string) {
	if v != "" {
		m[key] = v
	}
}

func putAmount(m map[string]any, key string, d *decimal.Decimal) {
	if d != nil {
		m[key] = d.InexactFloat64()
	}
}
