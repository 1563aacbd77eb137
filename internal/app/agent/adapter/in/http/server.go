package http

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/adapter/in/presenter"
	"github.com/JoeShih716/go-bank-agent/internal/app/agent/domain"
	"github.com/JoeShih716/go-bank-agent/internal/app/agent/usecase"
)

// Options HTTP 介面設定
type Options struct {
	AllowOrigins string
	// 每個 Window 內允許的請求數，0 表示不限制
	ChatLimit  int
	ProbeLimit int
	Window     time.Duration
}

// DefaultOptions /chat 每分鐘 30 次、/health /metrics 每分鐘 6 次
func DefaultOptions() Options {
	return Options{
		AllowOrigins: "*",
		ChatLimit:    30,
		ProbeLimit:   6,
		Window:       time.Minute,
	}
}

type chatRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

// Server fiber 版的 Agent 入口
type Server struct {
	app      *fiber.App
	agent    *usecase.Agent
	validate *validator.Validate
	logger   *zap.Logger
}

// NewServer 建立 Server 並註冊路由
func NewServer(agent *usecase.Agent, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Window <= 0 {
		opts.Window = time.Minute
	}
	if opts.AllowOrigins == "" {
		opts.AllowOrigins = "*"
	}

	s := &Server{
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
			ErrorHandler:          errorHandler(logger),
		}),
		agent:    agent,
		validate: validator.New(),
		logger:   logger,
	}

	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			logger.Error("handler panic",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Any("panic", e),
				zap.Stack("stack"),
			)
		},
	}))
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: opts.AllowOrigins,
		AllowMethods: "GET, POST, OPTIONS",
		AllowHeaders: "Accept, Content-Type, Authorization",
	}))

	s.app.Get("/health", rateLimit(opts.ProbeLimit, opts.Window), s.health)
	s.app.Get("/metrics", rateLimit(opts.ProbeLimit, opts.Window), s.metrics)
	s.app.Post("/chat", rateLimit(opts.ChatLimit, opts.Window), s.chat)
	return s
}

// App 底層 fiber.App (測試用)
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen 阻塞直到伺服器關閉
func (s *Server) Listen(addr string) error {
	s.logger.Info("http server listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown 停止接受新連線並等待處理中的請求
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) metrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"requests_handled": s.agent.Handled()})
}

func (s *Server) chat(c *fiber.Ctx) error {
	ctx := c.UserContext()

	actorID, err := s.agent.Authenticate(ctx, c.Get(fiber.HeaderAuthorization))
	if err != nil {
		if errors.Is(err, domain.ErrLoadRecords) {
			return err
		}
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}

	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid JSON body")
	}
	if err := s.validate.Struct(req); err != nil {
		return fail(c, fiber.StatusBadRequest, domain.ErrEmptyPrompt.Error())
	}

	reply, err := s.agent.Chat(ctx, actorID, req.Prompt)
	if errors.Is(err, domain.ErrEmptyPrompt) {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	if err != nil {
		return err
	}
	return c.JSON(presenter.Reply(reply))
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// rateLimit 以 Authorization header 為 key，沒有時用來源 IP
func rateLimit(max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if auth := c.Get(fiber.HeaderAuthorization); auth != "" {
				return auth
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fail(c, fiber.StatusTooManyRequests, "rate limit exceeded")
		},
	})
}

func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return fail(c, fe.Code, fe.Message)
		}
		logger.Error("handler error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return fail(c, fiber.StatusInternalServerError, "internal error")
	}
}
