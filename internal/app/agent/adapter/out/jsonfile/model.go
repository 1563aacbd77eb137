package jsonfile

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/domain"
)

// 檔案格式 {"customers": [...]}
// 金額以 JSON number 保存，讀寫都經過 json.Number 以免 float 誤差

type fileDocument struct {
	Customers []customerJSON `json:"customers"`
}

type contactJSON struct {
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type accountJSON struct {
	AccountID string      `json:"account_id"`
	Balance   json.Number `json:"balance"`
	Currency  string      `json:"currency"`
}

type transactionJSON struct {
	TxID        string      `json:"tx_id"`
	Date        string      `json:"date"`
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
}

type customerJSON struct {
	CustomerID string      `json:"customer_id"`
	Name       string      `json:"name"`
	Contact    contactJSON `json:"contact"`
	SSN        string      `json:"ssn_simulated"`
	AuthToken  string      `json:"auth_token_b64"`
	// 較新的欄位名稱，只在讀取時接受
	AltSSN       string            `json:"ssn,omitempty"`
	AltAuthToken string            `json:"auth_token,omitempty"`
	Account      accountJSON       `json:"account"`
	Transactions []transactionJSON `json:"transactions"`
}

func number(n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(n.String())
}

func toDomain(doc fileDocument) (*domain.RecordSet, error) {
	rs := &domain.RecordSet{Customers: make([]*domain.Customer, 0, len(doc.Customers))}
	for _, c := range doc.Customers {
		balance, err := number(c.Account.Balance)
		if err != nil {
			return nil, err
		}
		cust := &domain.Customer{
			CustomerID: c.CustomerID,
			Name:       c.Name,
			Contact:    domain.Contact{Email: c.Contact.Email, Phone: c.Contact.Phone},
			SSN:        firstNonEmpty(c.SSN, c.AltSSN),
			AuthToken:  firstNonEmpty(c.AuthToken, c.AltAuthToken),
			Account: domain.Account{
				AccountID: c.Account.AccountID,
				Balance:   balance,
				Currency:  c.Account.Currency,
			},
			Transactions: make([]domain.Transaction, 0, len(c.Transactions)),
		}
		for _, tx := range c.Transactions {
			amount, err := number(tx.Amount)
			if err != nil {
				return nil, err
			}
			cust.Transactions = append(cust.Transactions, domain.Transaction{
				TxID:        tx.TxID,
				Date:        tx.Date,
				Amount:      amount,
				Description: tx.Description,
			})
		}
		rs.Customers = append(rs.Customers, cust)
	}
	return rs, nil
}

func fromDomain(rs *domain.RecordSet) fileDocument {
	doc := fileDocument{Customers: make([]customerJSON, 0, len(rs.Customers))}
	for _, c := range rs.Customers {
		cj := customerJSON{
			CustomerID: c.CustomerID,
			Name:       c.Name,
			Contact:    contactJSON{Email: c.Contact.Email, Phone: c.Contact.Phone},
			SSN:        c.SSN,
			AuthToken:  c.AuthToken,
			Account: accountJSON{
				AccountID: c.Account.AccountID,
				Balance:   json.Number(c.Account.Balance.String()),
				Currency:  c.Account.Currency,
			},
			Transactions: make([]transactionJSON, 0, len(c.Transactions)),
		}
		for _, tx := range c.Transactions {
			cj.Transactions = append(cj.Transactions, transactionJSON{
				TxID:        tx.TxID,
				Date:        tx.Date,
				Amount:      json.Number(tx.Amount.String()),
				Description: tx.Description,
			})
		}
		doc.Customers = append(doc.Customers, cj)
	}
	return doc
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
