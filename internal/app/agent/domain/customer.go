package domain

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// MaskedSSNPrefix 遮罩後 SSN 的固定前綴，只保留最後一段
const MaskedSSNPrefix = "SIM-SSN-XXX-XX-"

// Contact 聯絡資訊
type Contact struct {
	Email string
	Phone string
}

// Account 帳戶
type Account struct {
	AccountID string
	Balance   decimal.Decimal
	Currency  string
}

// Transaction 單邊交易紀錄 (一筆轉帳會在雙方各留一筆，TxID 相同)
type Transaction struct {
	TxID        string
	Date        string // YYYY-MM-DD
	Amount      decimal.Decimal
	Description string
}

// Customer 客戶
// 載入後身分欄位不可變，Executor 只會修改 Account.Balance 與 Transactions
type Customer struct {
	CustomerID   string
	Name         string
	Contact      Contact
	SSN          string // 模擬資料，輸出時必須遮罩
	AuthToken    string
	Account      Account
	Transactions []Transaction
}

// RecordSet 整份客戶資料，Ledger Store 一次載入、一次寫回
type RecordSet struct {
	Customers []*Customer
}

// FindCustomer 依 customer_id 查找客戶
//
// 參數:
//
//	id: 客戶 ID (完全比對)
//
// 回傳:
//
//	*Customer: 找到的客戶 (指向 RecordSet 內部，修改會反映在 RecordSet)
//	bool: 是否找到
func (r *RecordSet) FindCustomer(id string) (*Customer, bool) {
	if r == nil {
		return nil, false
	}
	for _, c := range r.Customers {
		if c.CustomerID == id {
			return c, true
		}
	}
	return nil, false
}

// FindByToken 依 auth_token 完全比對查找客戶，空 token 永遠找不到
func (r *RecordSet) FindByToken(token string) (*Customer, bool) {
	if r == nil || token == "" {
		return nil, false
	}
	for _, c := range r.Customers {
		if c.AuthToken == token {
			return c, true
		}
	}
	return nil, false
}

// MaskedSSN 回傳遮罩後的 SSN
func (c *Customer) MaskedSSN() string {
	return MaskSSN(c.SSN)
}

// MaskSSN 將 "-" 分隔的識別碼除最後一段外全部以固定前綴取代
func MaskSSN(ssn string) string {
	parts := strings.Split(ssn, "-")
	return MaskedSSNPrefix + parts[len(parts)-1]
}

// RecentTransactions 依日期由新到舊排序後取前 n 筆
// 同日期維持原插入順序；不會改動 c.Transactions
func (c *Customer) RecentTransactions(n int) []Transaction {
	if n <= 0 || len(c.Transactions) == 0 {
		return []Transaction{}
	}
	sorted := make([]Transaction, len(c.Transactions))
	copy(sorted, c.Transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date > sorted[j].Date
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// Clone 深拷貝整份資料，供比對或唯讀快照使用
func (r *RecordSet) Clone() *RecordSet {
	if r == nil {
		return nil
	}
	out := &RecordSet{Customers: make([]*Customer, 0, len(r.Customers))}
	for _, c := range r.Customers {
		cp := *c
		cp.Transactions = append([]Transaction(nil), c.Transactions...)
		out.Customers = append(out.Customers, &cp)
	}
	return out
}
