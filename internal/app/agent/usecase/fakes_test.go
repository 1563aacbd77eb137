package usecase

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/domain"
)

type fakeStore struct {
	mu      sync.Mutex
	records *domain.RecordSet
	saves   int
	loadErr error
	saveErr error
}

func newFakeStore(rs *domain.RecordSet) *fakeStore {
	return &fakeStore{records: rs.Clone()}
}

func (s *fakeStore) Load(ctx context.Context) (*domain.RecordSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.records.Clone(), nil
}

func (s *fakeStore) Save(ctx context.Context, rs *domain.RecordSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.records = rs.Clone()
	s.saves++
	return nil
}

func (s *fakeStore) snapshot() *domain.RecordSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records.Clone()
}

func (s *fakeStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

type fakeLocker struct {
	mu    sync.Mutex
	calls int
	keys  []string
}

func (l *fakeLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	l.keys = append(l.keys, key)
	return fn(ctx)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.TransferCompleted
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, e domain.TransferCompleted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (a *fakeAudit) Append(e domain.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return nil
}

type fakeModel struct {
	output  string
	err     error
	prompts []string
}

func (m *fakeModel) Generate(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.output, m.err
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// sampleRecords 三位客戶：CUST001 500、CUST002 50、CUST003 0
func sampleRecords() *domain.RecordSet {
	return &domain.RecordSet{Customers: []*domain.Customer{
		{
			CustomerID: "CUST001",
			Name:       "Alice Example",
			Contact:    domain.Contact{Email: "alice@example.com", Phone: "555-0101"},
			SSN:        "123-45-6789",
			AuthToken:  "token-alice",
			Account:    domain.Account{AccountID: "ACC1001", Balance: dec("500.00"), Currency: "USD"},
			Transactions: []domain.Transaction{
				{TxID: "TX-1", Date: "2024-01-01", Amount: dec("-20"), Description: "Coffee"},
				{TxID: "TX-2", Date: "2024-03-01", Amount: dec("100"), Description: "Salary"},
				{TxID: "TX-3", Date: "2024-02-01", Amount: dec("-5"), Description: "Snack"},
				{TxID: "TX-4", Date: "2024-03-01", Amount: dec("-7"), Description: "Lunch"},
			},
		},
		{
			CustomerID: "CUST002",
			Name:       "Bob Example",
			SSN:        "987-65-4321",
			AuthToken:  "token-bob",
			Account:    domain.Account{AccountID: "ACC1002", Balance: dec("50"), Currency: "USD"},
		},
		{
			CustomerID: "CUST003",
			Name:       "Carol Example",
			AuthToken:  "token-carol",
			Account:    domain.Account{AccountID: "ACC1003", Balance: dec("0"), Currency: "USD"},
		},
	}}
}
