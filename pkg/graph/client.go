package graph

import (
	"context"
	"errors"
)

// Client 寫入圖資料庫的最小介面
type Client interface {
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) error
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Options 圖資料庫連線設定
type Options struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// ErrMissingURI 沒有設定 URI
var ErrMissingURI = errors.New("graph URI is required")
