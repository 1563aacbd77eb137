package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/domain"
)

const (
	// DefaultModelTimeout 模型呼叫上限
	DefaultModelTimeout = 60 * time.Second

	msgNotUnderstood = "I didn't understand your request. " +
		"Would you like balance, transactions, info, transfer, or freeze account?"
	msgRiskBlocked = "Your request was blocked by the safety screen. Please rephrase it as a banking request."
)

// AgentConfig 編排流程的政策旗標
type AgentConfig struct {
	AutoExecute   bool
	ModelTimeout  time.Duration
	RiskThreshold int
	RedTeamMode   bool
}

// Reply 一次對話的完整結果
type Reply struct {
	AuthenticatedUser string
	LLMOutput         string
	LLMError          string
	Action            domain.Action
	Params            domain.Params
	Executed          bool
	Result            *domain.Result
	ClarifyParams     domain.Params
	Rejection         string
	Clarification     string
	Risk              *RiskAssessment
	Message           string
}

// Agent 串接 Extractor -> Validator -> Executor
type Agent struct {
	store     LedgerStore
	model     ModelClient
	extractor *Extractor
	validator *Validator
	executor  *Executor
	cfg       AgentConfig
	logger    *zap.Logger
	handled   atomic.Int64
}

// NewAgent 建立 Agent
func NewAgent(
	store LedgerStore,
	model ModelClient,
	extractor *Extractor,
	validator *Validator,
	executor *Executor,
	cfg AgentConfig,
	logger *zap.Logger,
) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ModelTimeout <= 0 {
		cfg.ModelTimeout = DefaultModelTimeout
	}
	return &Agent{
		store:     store,
		model:     model,
		extractor: extractor,
		validator: validator,
		executor:  executor,
		cfg:       cfg,
		logger:    logger,
	}
}

// ParseAuthorization 解析 "Basic <token>" 或 "Bearer <token>"
func ParseAuthorization(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", domain.ErrMissingAuthorization
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", domain.ErrInvalidAuthorization
	}
	switch strings.ToLower(parts[0]) {
	case "basic", "bearer":
		return parts[1], nil
	default:
		return "", domain.ErrInvalidAuthorization
	}
}

// Authenticate 以 Authorization header 找出客戶 ID
//
// 參數:
//
//	ctx: 上下文
//	header: Authorization header 原文
//
// 回傳:
//
//	string: 客戶 ID
//	error: ErrMissingAuthorization / ErrInvalidAuthorization / ErrUnknownToken 或載入錯誤
func (a *Agent) Authenticate(ctx context.Context, header string) (string, error) {
	token, err := ParseAuthorization(header)
	if err != nil {
		return "", err
	}
	records, err := a.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrLoadRecords, err)
	}
	c, ok := records.FindByToken(token)
	if !ok {
		return "", domain.ErrUnknownToken
	}
	a.logger.Info("authenticated", zap.String("actor", c.CustomerID))
	return c.CustomerID, nil
}

// Chat 處理一次自然語言請求
//
// 參數:
//
//	ctx: 上下文
//	actorID: 已驗證的客戶 ID
//	userPrompt: 使用者輸入
//
// 回傳:
//
//	Reply: 結果 (模型失敗、需澄清、驗證拒絕都以 Reply 表示)
//	error: ErrEmptyPrompt 或執行時的基礎設施錯誤
func (a *Agent) Chat(ctx context.Context, actorID, userPrompt string) (Reply, error) {
	a.handled.Add(1)
	reply := Reply{AuthenticatedUser: actorID}

	if strings.TrimSpace(userPrompt) == "" {
		return reply, domain.ErrEmptyPrompt
	}

	risk := AssessPrompt(userPrompt)
	if risk.Score > 0 {
		a.logger.Warn("risky prompt", zap.String("actor", actorID), zap.Int("score", risk.Score), zap.Strings("reasons", risk.Reasons))
	}
	if a.cfg.RiskThreshold > 0 && !a.cfg.RedTeamMode && risk.Score >= a.cfg.RiskThreshold {
		reply.Risk = &risk
		reply.Message = msgRiskBlocked
		return reply, nil
	}

	out, err := a.generate(ctx, BuildPrompt(userPrompt))
	if err != nil {
		a.logger.Error("llm call failed", zap.String("actor", actorID), zap.Error(err))
		reply.LLMError = "[llm-error] " + err.Error()
		return reply, nil
	}
	reply.LLMOutput = out
	a.logger.Debug("llm output", zap.String("actor", actorID), zap.String("output", out))

	intent, ok := a.extractor.Extract(out)
	if !ok {
		reply.Clarification = msgNotUnderstood
		reply.Message = msgNotUnderstood
		return reply, nil
	}
	reply.Action = intent.Action
	reply.Params = intent.Params

	if reason := intentMismatch(userPrompt, string(intent.Action)); reason != "" {
		a.logger.Warn("intent mismatch", zap.String("actor", actorID), zap.String("action", string(intent.Action)), zap.String("reason", reason))
	}

	if intent.Action == domain.ActionClarify {
		reply.ClarifyParams = intent.Params
		reply.Message = renderMessage(reply, a.cfg.AutoExecute)
		return reply, nil
	}

	decision := a.validator.Validate(actorID, intent)
	a.logger.Info("action validation",
		zap.String("actor", actorID),
		zap.String("action", string(intent.Action)),
		zap.Bool("admit", decision.Admit),
		zap.String("reason", decision.Reason),
	)
	switch {
	case !decision.Admit:
		reply.Rejection = "Invalid action - " + decision.Reason
	case a.cfg.AutoExecute:
		res, err := a.executor.Execute(ctx, actorID, intent)
		if err != nil {
			return reply, err
		}
		reply.Result = &res
		reply.Executed = true
	}

	reply.Message = renderMessage(reply, a.cfg.AutoExecute)
	return reply, nil
}

// Handled 已處理的對話數
func (a *Agent) Handled() int64 {
	return a.handled.Load()
}

func (a *Agent) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.ModelTimeout)
	defer cancel()
	return a.model.Generate(ctx, prompt)
}
