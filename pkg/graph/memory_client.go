package graph

import (
	"context"
	"sync"
)

// ExecutedQuery 一次執行的 cypher 與參數
type ExecutedQuery struct {
	Query  string
	Params map[string]any
}

// MemoryClient 不連資料庫的 Client，記錄所有寫入供測試檢查
type MemoryClient struct {
	mu           sync.Mutex
	writeCalls   []ExecutedQuery
	err          error
	connectivity error
}

// NewMemoryClient 建立 MemoryClient
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{}
}

// WithError 之後的寫入都回傳 err
func (m *MemoryClient) WithError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithConnectivityError VerifyConnectivity 回傳 err
func (m *MemoryClient) WithConnectivityError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectivity = err
	return m
}

func (m *MemoryClient) ExecuteWrite(_ context.Context, cypher string, params map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	cp := make(map[string]any, len(params))
	for k, v := range params {
		cp[k] = v
	}
	m.writeCalls = append(m.writeCalls, ExecutedQuery{Query: cypher, Params: cp})
	return nil
}

func (m *MemoryClient) VerifyConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectivity
}

func (m *MemoryClient) Close(context.Context) error {
	return nil
}

// WriteCalls 已執行的寫入
func (m *MemoryClient) WriteCalls() []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutedQuery(nil), m.writeCalls...)
}

var _ Client = (*MemoryClient)(nil)
