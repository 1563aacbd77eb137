package domain

import (
	"fmt"
	"strings"
)

// Action 允許的意圖種類
type Action string

const (
	ActionClarify         Action = "clarify"
	ActionGetBalance      Action = "get_balance"
	ActionGetTransactions Action = "get_transactions"
	ActionGetCustomerInfo Action = "get_customer_info"
	ActionTransfer        Action = "transfer"
	ActionFreezeAccount   Action = "freeze_account"
)

// UnknownDestination 關鍵字解析轉帳時找不到收款人時的預設值
// 執行時一定會得到 "Destination UNKNOWN not found"
const UnknownDestination = "UNKNOWN"

// DefaultTransactionCount get_transactions 預設筆數
const DefaultTransactionCount = 3

// allowedActions 可以被執行的封閉集合 (clarify 另外處理，不在此集合)
var allowedActions = map[Action]struct{}{
	ActionGetBalance:      {},
	ActionGetTransactions: {},
	ActionGetCustomerInfo: {},
	ActionTransfer:        {},
	ActionFreezeAccount:   {},
}

// IsAllowed 是否為允許執行的動作
func (a Action) IsAllowed() bool {
	_, ok := allowedActions[a]
	return ok
}

// NormalizeAction 去除空白並轉小寫
func NormalizeAction(raw any) Action {
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case nil:
		s = ""
	default:
		s = fmt.Sprint(v)
	}
	return Action(strings.ToLower(strings.TrimSpace(s)))
}

// Params 意圖參數，值的型別不可信任
type Params map[string]any

// String 取得字串參數，非字串值會以 fmt 轉換，不存在時回傳空字串
func (p Params) String(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// Intent 從模型輸出解析出的結構化意圖
type Intent struct {
	Action Action
	Params Params
}

// NewIntent 建立意圖，nil params 以空 map 取代
func NewIntent(action Action, params Params) Intent {
	if params == nil {
		params = Params{}
	}
	return Intent{Action: action, Params: params}
}

// Decision Validator 的判定結果
type Decision struct {
	Admit  bool
	Reason string
}

// Admit 允許
func Admit() Decision {
	return Decision{Admit: true}
}

// Reject 拒絕並附上原因
func Reject(reason string) Decision {
	return Decision{Admit: false, Reason: reason}
}
