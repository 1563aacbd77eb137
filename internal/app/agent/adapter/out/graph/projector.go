package graph

import (
	"context"
	"time"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/domain"
	"github.com/JoeShih716/go-bank-agent/internal/app/agent/usecase"
	graphdb "github.com/JoeShih716/go-bank-agent/pkg/graph"
)

// transferCypher 兩端客戶為節點、轉帳為邊；以 tx_id MERGE，重送同一事件不會重複建邊
const transferCypher = `
MERGE (a:Customer {id: $from})
MERGE (b:Customer {id: $to})
MERGE (a)-[t:TRANSFERRED {tx_id: $tx_id}]->(b)
SET t.amount = $amount,
    t.currency = $currency,
    t.date = $date,
    t.occurred_at = $occurred_at`

// Projector 將轉帳事件投影到圖資料庫，供資金流向分析
type Projector struct {
	client graphdb.Client
}

// NewProjector 建立 Projector
func NewProjector(client graphdb.Client) *Projector {
	return &Projector{client: client}
}

// Publish 寫入一條 TRANSFERRED 邊
func (p *Projector) Publish(ctx context.Context, event domain.TransferCompleted) error {
	return p.client.ExecuteWrite(ctx, transferCypher, map[string]any{
		"from":        event.From,
		"to":          event.To,
		"tx_id":       event.TxID,
		"amount":      event.Amount.String(),
		"currency":    event.Currency,
		"date":        event.Date,
		"occurred_at": event.OccurredAt.UTC().Format(time.RFC3339),
	})
}

var _ usecase.EventPublisher = (*Projector)(nil)
