package mysql

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/domain"
)

// sqlCustomer 對應資料庫的 customers 表 (客戶與帳戶一對一，攤平成一列)
type sqlCustomer struct {
	CustomerID string          `gorm:"primaryKey;size:32"`
	Position   int             `gorm:"index"` // 保留原始順序
	Name       string          `gorm:"size:128"`
	Email      string          `gorm:"size:128"`
	Phone      string          `gorm:"size:32"`
	SSN        string          `gorm:"column:ssn;size:32"`
	AuthToken  string          `gorm:"size:255;index"`
	AccountID  string          `gorm:"size:32"`
	Balance    decimal.Decimal `gorm:"type:decimal(20,4)"`
	Currency   string          `gorm:"size:8"`
	UpdatedAt  int64           `gorm:"autoUpdateTime:milli"` // 自動更新時間
}

func (*sqlCustomer) TableName() string {
	return "customers"
}

// sqlCustomerTransaction 對應資料庫的 customer_transactions 表，每一列是一個客戶的單邊紀錄
type sqlCustomerTransaction struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	CustomerID  string          `gorm:"size:32;index:idx_customer_seq,priority:1"`
	Seq         int             `gorm:"index:idx_customer_seq,priority:2"`
	TxID        string          `gorm:"size:32;index"`
	Date        string          `gorm:"size:10"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4)"`
	Description string          `gorm:"size:255"`
	CreatedAt   int64           `gorm:"autoCreateTime:milli"` // 自動寫入時間
}

func (*sqlCustomerTransaction) TableName() string {
	return "customer_transactions"
}

// toRows 將整份資料轉為兩張表的列
func toRows(rs *domain.RecordSet) ([]sqlCustomer, []sqlCustomerTransaction) {
	customers := make([]sqlCustomer, 0, len(rs.Customers))
	txs := make([]sqlCustomerTransaction, 0)
	for i, c := range rs.Customers {
		customers = append(customers, sqlCustomer{
			CustomerID: c.CustomerID,
			Position:   i,
			Name:       c.Name,
			Email:      c.Contact.Email,
			Phone:      c.Contact.Phone,
			SSN:        c.SSN,
			AuthToken:  c.AuthToken,
			AccountID:  c.Account.AccountID,
			Balance:    c.Account.Balance,
			Currency:   c.Account.Currency,
		})
		for seq, tx := range c.Transactions {
			txs = append(txs, sqlCustomerTransaction{
				CustomerID:  c.CustomerID,
				Seq:         seq,
				TxID:        tx.TxID,
				Date:        tx.Date,
				Amount:      tx.Amount,
				Description: tx.Description,
			})
		}
	}
	return customers, txs
}

// fromRows 組回 RecordSet，客戶依 Position、交易依 Seq 排序
func fromRows(customers []sqlCustomer, txs []sqlCustomerTransaction) *domain.RecordSet {
	sort.SliceStable(customers, func(i, j int) bool { return customers[i].Position < customers[j].Position })
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Seq < txs[j].Seq })

	rs := &domain.RecordSet{Customers: make([]*domain.Customer, 0, len(customers))}
	byID := make(map[string]*domain.Customer, len(customers))
	for _, row := range customers {
		c := &domain.Customer{
			CustomerID: row.CustomerID,
			Name:       row.Name,
			Contact:    domain.Contact{Email: row.Email, Phone: row.Phone},
			SSN:        row.SSN,
			AuthToken:  row.AuthToken,
			Account: domain.Account{
				AccountID: row.AccountID,
				Balance:   row.Balance,
				Currency:  row.Currency,
			},
			Transactions: []domain.Transaction{},
		}
		rs.Customers = append(rs.Customers, c)
		byID[c.CustomerID] = c
	}
	for _, row := range txs {
		c, ok := byID[row.CustomerID]
		if !ok {
			continue
		}
		c.Transactions = append(c.Transactions, domain.Transaction{
			TxID:        row.TxID,
			Date:        row.Date,
			Amount:      row.Amount,
			Description: row.Description,
		})
	}
	return rs
}
