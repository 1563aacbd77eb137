package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/domain"
	"github.com/JoeShih716/go-bank-agent/internal/app/agent/usecase"
)

const schema = `
CREATE TABLE IF NOT EXISTS customers (
	customer_id TEXT PRIMARY KEY,
	position    INTEGER NOT NULL,
	name        TEXT NOT NULL DEFAULT '',
	email       TEXT NOT NULL DEFAULT '',
	phone       TEXT NOT NULL DEFAULT '',
	ssn         TEXT NOT NULL DEFAULT '',
	auth_token  TEXT NOT NULL DEFAULT '',
	account_id  TEXT NOT NULL DEFAULT '',
	balance     NUMERIC(20,4) NOT NULL,
	currency    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_customers_auth_token ON customers (auth_token);
CREATE TABLE IF NOT EXISTS customer_transactions (
	customer_id TEXT NOT NULL REFERENCES customers (customer_id) ON DELETE CASCADE,
	seq         INTEGER NOT NULL,
	tx_id       TEXT NOT NULL,
	date        TEXT NOT NULL,
	amount      NUMERIC(20,4) NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (customer_id, seq)
);`

const (
	selectCustomers = `SELECT customer_id, name, email, phone, ssn, auth_token, account_id, balance, currency
	FROM customers ORDER BY position`
	selectTransactions = `SELECT customer_id, tx_id, date, amount, description
	FROM customer_transactions ORDER BY customer_id, seq`
	deleteTransactions = `DELETE FROM customer_transactions`
	deleteCustomers    = `DELETE FROM customers`
)

var (
	customerColumns    = []string{"customer_id", "position", "name", "email", "phone", "ssn", "auth_token", "account_id", "balance", "currency"}
	transactionColumns = []string{"customer_id", "seq", "tx_id", "date", "amount", "description"}
)

// Open 開啟 Postgres 連線並確認可用
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return db, nil
}

// LedgerStore 以 Postgres 保存整份客戶資料
type LedgerStore struct {
	db *sql.DB
}

// NewLedgerStore 建立 LedgerStore
func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// EnsureSchema 建立資料表 (已存在則略過)
func (p *LedgerStore) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, schema)
	return err
}

// Load 讀取所有客戶與交易
func (p *LedgerStore) Load(ctx context.Context) (*domain.RecordSet, error) {
	rows, err := p.db.QueryContext(ctx, selectCustomers)
	if err != nil {
		return nil, describe(err)
	}
	defer rows.Close()

	rs := &domain.RecordSet{}
	byID := make(map[string]*domain.Customer)
	for rows.Next() {
		c := &domain.Customer{Transactions: []domain.Transaction{}}
		if err := rows.Scan(
			&c.CustomerID,
			&c.Name,
			&c.Contact.Email,
			&c.Contact.Phone,
			&c.SSN,
			&c.AuthToken,
			&c.Account.AccountID,
			&c.Account.Balance,
			&c.Account.Currency,
		); err != nil {
			return nil, err
		}
		rs.Customers = append(rs.Customers, c)
		byID[c.CustomerID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	txRows, err := p.db.QueryContext(ctx, selectTransactions)
	if err != nil {
		return nil, describe(err)
	}
	defer txRows.Close()

	for txRows.Next() {
		var (
			customerID string
			tx         domain.Transaction
		)
		if err := txRows.Scan(&customerID, &tx.TxID, &tx.Date, &tx.Amount, &tx.Description); err != nil {
			return nil, err
		}
		if c, ok := byID[customerID]; ok {
			c.Transactions = append(c.Transactions, tx)
		}
	}
	return rs, txRows.Err()
}

// Save 在同一個 BEGIN ... COMMIT 內清空後以 COPY 整份寫入
func (p *LedgerStore) Save(ctx context.Context, records *domain.RecordSet) (err error) {
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	if _, err = dbTx.ExecContext(ctx, deleteTransactions); err != nil {
		return describe(err)
	}
	if _, err = dbTx.ExecContext(ctx, deleteCustomers); err != nil {
		return describe(err)
	}

	customers := make([][]any, 0, len(records.Customers))
	txs := make([][]any, 0)
	for i, c := range records.Customers {
		customers = append(customers, []any{
			c.CustomerID, i, c.Name, c.Contact.Email, c.Contact.Phone, c.SSN, c.AuthToken,
			c.Account.AccountID, c.Account.Balance.String(), c.Account.Currency,
		})
		for seq, tx := range c.Transactions {
			txs = append(txs, []any{c.CustomerID, seq, tx.TxID, tx.Date, tx.Amount.String(), tx.Description})
		}
	}

	if err = copyRows(ctx, dbTx, "customers", customerColumns, customers); err != nil {
		return err
	}
	if err = copyRows(ctx, dbTx, "customer_transactions", transactionColumns, txs); err != nil {
		return err
	}
	return dbTx.Commit()
}

// copyRows 以 COPY FROM STDIN 批次寫入
func copyRows(ctx context.Context, dbTx *sql.Tx, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := dbTx.PrepareContext(ctx, pq.CopyIn(table, columns...))
	if err != nil {
		return describe(err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return describe(err)
		}
	}
	// 不帶參數的 Exec 送出緩衝的資料
	if _, err := stmt.ExecContext(ctx); err != nil {
		return describe(err)
	}
	return nil
}

// describe 為 Postgres 錯誤補上 SQLSTATE，方便判讀
func describe(err error) error {
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "42P01" {
			return fmt.Errorf("postgres: schema missing, run EnsureSchema: %w", err)
		}
		return fmt.Errorf("postgres %s (%s): %w", pqErr.Code.Name(), pqErr.Code, err)
	}
	return err
}

var _ usecase.LedgerStore = (*LedgerStore)(nil)
