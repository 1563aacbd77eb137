package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/usecase"
)

// Protocol 模型服務的 HTTP 介面
type Protocol string

const (
	// ProtocolProxy POST {"prompt"} -> {"output"}
	ProtocolProxy Protocol = "proxy"
	// ProtocolOllama POST /api/generate {"model","prompt","stream":false} -> {"response"}
	ProtocolOllama Protocol = "ollama"
)

// maxResponseBytes 回應大小上限
const maxResponseBytes = 1 << 20

// ErrUnavailable 斷路器開啟，暫停呼叫模型
var ErrUnavailable = errors.New("llm unavailable (circuit breaker open)")

// Config 模型客戶端設定
type Config struct {
	URL      string
	Protocol Protocol
	Model    string
	Timeout  time.Duration

	// 連續失敗幾次後開啟斷路器，開啟多久後嘗試恢復
	BreakerFailures    uint32
	BreakerOpenTimeout time.Duration
}

// Client 透過 HTTP 呼叫語言模型，外層包一個斷路器
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewClient 建立 Client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Protocol == "" {
		cfg.Protocol = ProtocolProxy
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerOpenTimeout <= 0 {
		cfg.BreakerOpenTimeout = 30 * time.Second
	}

	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		// 呼叫端自己取消的請求不算模型故障
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return c
}

// Generate 送出 prompt 並回傳模型輸出原文
//
// 參數:
//
//	ctx: 上下文 (逾時由呼叫端設定)
//	prompt: 完整 prompt (含 system prompt)
//
// 回傳:
//
//	string: 模型輸出
//	error: 連線失敗、非 2xx、回應格式錯誤或斷路器開啟 (ErrUnavailable)
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.call(ctx, prompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// State 斷路器目前狀態
func (c *Client) State() string {
	return c.breaker.State().String()
}

type proxyRequest struct {
	Prompt string `json:"prompt"`
}

type proxyResponse struct {
	Output string `json:"output"`
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response   string `json:"response"`
	Completion string `json:"completion"`
}

func (c *Client) call(ctx context.Context, prompt string) (string, error) {
	var payload any
	switch c.cfg.Protocol {
	case ProtocolOllama:
		payload = ollamaRequest{Model: c.cfg.Model, Prompt: prompt, Stream: false}
	default:
		payload = proxyRequest{Prompt: prompt}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", err
	}
	c.logger.Debug("llm responded",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("bytes", len(raw)),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("llm returned status %d", resp.StatusCode)
	}

	switch c.cfg.Protocol {
	case ProtocolOllama:
		var r ollamaResponse
		if err := json.Unmarshal(raw, &r); err != nil {
			return "", fmt.Errorf("decode ollama response: %w", err)
		}
		if r.Completion != "" {
			return r.Completion, nil
		}
		return r.Response, nil
	default:
		var r proxyResponse
		if err := json.Unmarshal(raw, &r); err != nil {
			return "", fmt.Errorf("decode proxy response: %w", err)
		}
		return r.Output, nil
	}
}

var _ usecase.ModelClient = (*Client)(nil)
