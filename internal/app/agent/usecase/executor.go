package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/domain"
)

// RecordSetLockKey 整份資料共用一把鎖
const RecordSetLockKey = "lock:ledger:records"

// Executor 執行已通過驗證的意圖
//
// 結構:
//
//	store: 整份資料的載入/寫回
//	locker: 序列化會修改資料的流程
//	publisher: 轉帳完成事件 (可為 nil)
//	audit: 稽核日誌 (可為 nil)
type Executor struct {
	store     LedgerStore
	locker    Locker
	publisher EventPublisher
	audit     AuditLog
	logger    *zap.Logger
	now       func() time.Time
}

// ExecutorOption 定義了 Executor 的配置選項函數
type ExecutorOption func(*Executor)

// WithPublisher 設定轉帳事件發佈
func WithPublisher(p EventPublisher) ExecutorOption {
	return func(e *Executor) {
		e.publisher = p
	}
}

// WithAuditLog 設定稽核日誌
func WithAuditLog(a AuditLog) ExecutorOption {
	return func(e *Executor) {
		e.audit = a
	}
}

// WithClock 替換時間來源 (測試用)
func WithClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) {
		e.now = now
	}
}

// NewExecutor 建立 Executor
func NewExecutor(store LedgerStore, locker Locker, logger *zap.Logger, opts ...ExecutorOption) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Executor{
		store:  store,
		locker: locker,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute 執行意圖
//
// 參數:
//
//	ctx: 上下文
//	actorID: 已驗證的客戶 ID
//	intent: 已通過 Validator 的意圖
//
// 回傳:
//
//	domain.Result: 執行結果，業務失敗以 Result.Error 表示
//	error: 只有基礎設施失敗 (載入、寫回、取得鎖) 才回傳
func (e *Executor) Execute(ctx context.Context, actorID string, intent domain.Intent) (domain.Result, error) {
	e.logger.Info("performing action",
		zap.String("action", string(intent.Action)),
		zap.String("actor", actorID),
	)

	now := e.now()
	var (
		res   domain.Result
		event *domain.TransferCompleted
		err   error
	)

	if intent.Action == domain.ActionTransfer {
		err = e.locker.WithLock(ctx, RecordSetLockKey, func(ctx context.Context) error {
			var inner error
			res, event, inner = e.execute(ctx, actorID, intent, now)
			return inner
		})
	} else {
		res, event, err = e.execute(ctx, actorID, intent, now)
	}
	if err != nil {
		e.logger.Error("action aborted",
			zap.String("action", string(intent.Action)),
			zap.String("actor", actorID),
			zap.Error(err),
		)
		return domain.Result{}, err
	}

	e.record(actorID, intent, res, now)

	if event != nil && e.publisher != nil {
		if err := e.publisher.Publish(ctx, *event); err != nil {
			e.logger.Warn("publish transfer event failed", zap.String("tx_id", event.TxID), zap.Error(err))
		}
	}
	return res, nil
}

// execute 載入資料並依動作分派，轉帳時已持有鎖
func (e *Executor) execute(ctx context.Context, actorID string, intent domain.Intent, now time.Time) (domain.Result, *domain.TransferCompleted, error) {
	records, err := e.store.Load(ctx)
	if err != nil {
		return domain.Result{}, nil, fmt.Errorf("%w: %w", domain.ErrLoadRecords, err)
	}

	result := domain.NewResult(now)
	src, ok := records.FindCustomer(actorID)
	if !ok {
		return result.Fail(domain.MsgCustomerNotFound), nil, nil
	}

	switch intent.Action {
	case domain.ActionGetBalance:
		balance := src.Account.Balance
		result.CustomerID = actorID
		result.Balance = &balance
		result.Currency = src.Account.Currency
	case domain.ActionGetTransactions:
		n := domain.CoerceCount(intent.Params["n"], domain.DefaultTransactionCount)
		result.CustomerID = actorID
		result.Transactions = src.RecentTransactions(n)
	case domain.ActionGetCustomerInfo:
		balance := src.Account.Balance
		result.CustomerID = actorID
		result.Name = src.Name
		result.AccountID = src.Account.AccountID
		result.Balance = &balance
		result.Currency = src.Account.Currency
		result.Email = src.Contact.Email
		result.MaskedSSN = src.MaskedSSN()
	case domain.ActionFreezeAccount:
		// 不會寫入任何凍結旗標
		result.Account = actorID
		result.Status = domain.StatusFrozen
	case domain.ActionTransfer:
		return e.transfer(ctx, records, src, intent.Params, result, now)
	default:
		return result.Fail(fmt.Sprintf("Unknown action '%s'", intent.Action)), nil, nil
	}
	return result, nil, nil
}

// transfer 雙邊記帳並整份寫回
// 任何檢查失敗都不會修改 records，也不會呼叫 Save
func (e *Executor) transfer(
	ctx context.Context,
	records *domain.RecordSet,
	src *domain.Customer,
	params domain.Params,
	result domain.Result,
	now time.Time,
) (domain.Result, *domain.TransferCompleted, error) {
	dstID := params.String("to")
	amount := domain.CoerceAmount(params["amount"])

	dst, ok := records.FindCustomer(dstID)
	if !ok {
		e.logger.Info("transfer destination not found", zap.String("to", dstID))
		return result.Fail(fmt.Sprintf("Destination %s not found", dstID)), nil, nil
	}
	if dst == src {
		return result.Fail(domain.MsgSelfTransfer), nil, nil
	}
	if !amount.IsPositive() {
		return result.Fail(domain.MsgInvalidAmount), nil, nil
	}
	if src.Account.Balance.LessThan(amount) {
		return result.Fail(domain.MsgInsufficientFunds), nil, nil
	}

	txID := fmt.Sprintf("TX-%d", now.Unix())
	date := now.Format(time.DateOnly)

	src.Account.Balance = src.Account.Balance.Sub(amount)
	dst.Account.Balance = dst.Account.Balance.Add(amount)
	src.Transactions = append(src.Transactions, domain.Transaction{
		TxID:        txID,
		Date:        date,
		Amount:      amount.Neg(),
		Description: "Transfer to " + dst.CustomerID,
	})
	dst.Transactions = append(dst.Transactions, domain.Transaction{
		TxID:        txID,
		Date:        date,
		Amount:      amount,
		Description: "Transfer from " + src.CustomerID,
	})

	if err := e.store.Save(ctx, records); err != nil {
		return domain.Result{}, nil, fmt.Errorf("%w: %w", domain.ErrSaveRecords, err)
	}

	result.TxID = txID
	result.From = src.CustomerID
	result.To = dst.CustomerID
	result.Amount = &amount
	result.Message = fmt.Sprintf("Transfer of $%s from %s to %s completed (simulated).",
		amount.StringFixed(2), src.CustomerID, dst.CustomerID)

	event := &domain.TransferCompleted{
		TxID:       txID,
		From:       src.CustomerID,
		To:         dst.CustomerID,
		Amount:     amount,
		Currency:   src.Account.Currency,
		Date:       date,
		OccurredAt: now,
	}
	return result, event, nil
}

// record 寫入稽核日誌並輸出執行後紀錄
func (e *Executor) record(actorID string, intent domain.Intent, res domain.Result, now time.Time) {
	outcome := domain.OutcomeSucceeded
	if res.Failed() {
		outcome = domain.OutcomeFailed
	}
	e.logger.Info("action performed",
		zap.String("action", string(intent.Action)),
		zap.String("actor", actorID),
		zap.String("outcome", outcome),
		zap.String("error", res.Error),
		zap.String("tx_id", res.TxID),
	)

	if e.audit == nil {
		return
	}
	entry := domain.AuditEntry{
		ID:        uuid.NewString(),
		ActorID:   actorID,
		Action:    intent.Action,
		Params:    intent.Params,
		Outcome:   outcome,
		Error:     res.Error,
		TxID:      res.TxID,
		CreatedAt: now,
	}
	if err := e.audit.Append(entry); err != nil {
		e.logger.Warn("audit append failed", zap.Error(fmt.Errorf("%w: %w", domain.ErrAuditWriteFailed, err)))
	}
}

// amountOrZero 方便呈現層取值
func amountOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
