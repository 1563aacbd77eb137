package mysql

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/domain"
)

func TestRows_PreserveOrderAndLegs(t *testing.T) {
	rs := &domain.RecordSet{Customers: []*domain.Customer{
		{
			CustomerID: "CUST002",
			Name:       "Bob",
			Contact:    domain.Contact{Email: "bob@example.com"},
			SSN:        "987-65-4321",
			AuthToken:  "token-bob",
			Account:    domain.Account{AccountID: "ACC2", Balance: decimal.RequireFromString("150.25"), Currency: "USD"},
			Transactions: []domain.Transaction{
				{TxID: "TX-9", Date: "2024-03-01", Amount: decimal.NewFromInt(100), Description: "Transfer from CUST001"},
				{TxID: "TX-1", Date: "2024-01-01", Amount: decimal.NewFromInt(-5), Description: "Coffee"},
			},
		},
		{
			CustomerID: "CUST001",
			Name:       "Alice",
			Account:    domain.Account{AccountID: "ACC1", Balance: decimal.NewFromInt(400), Currency: "USD"},
		},
	}}

	customers, txs := toRows(rs)
	require.Len(t, customers, 2)
	require.Len(t, txs, 2)
	assert.Equal(t, 0, customers[0].Position)
	assert.Equal(t, "CUST002", txs[1].CustomerID)
	assert.Equal(t, 1, txs[1].Seq)

	// 模擬資料庫回傳順序被打亂
	customers[0], customers[1] = customers[1], customers[0]
	txs[0], txs[1] = txs[1], txs[0]

	got := fromRows(customers, txs)
	require.Len(t, got.Customers, 2)
	assert.Equal(t, "CUST002", got.Customers[0].CustomerID)
	assert.Equal(t, "token-bob", got.Customers[0].AuthToken)
	assert.True(t, got.Customers[0].Account.Balance.Equal(decimal.RequireFromString("150.25")))
	require.Len(t, got.Customers[0].Transactions, 2)
	assert.Equal(t, "TX-9", got.Customers[0].Transactions[0].TxID)
	assert.NotNil(t, got.Customers[1].Transactions)
	assert.Empty(t, got.Customers[1].Transactions)
}

func TestFromRows_DropsOrphanTransactions(t *testing.T) {
	got := fromRows(
		[]sqlCustomer{{CustomerID: "CUST001"}},
		[]sqlCustomerTransaction{{CustomerID: "CUST404", TxID: "TX-1"}},
	)
	require.Len(t, got.Customers, 1)
	assert.Empty(t, got.Customers[0].Transactions)
}
