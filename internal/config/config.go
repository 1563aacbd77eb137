package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/JoeShih716/go-bank-agent/pkg/mysql"
)

// Config 應用程式設定
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	GRPC    GRPCConfig    `yaml:"grpc"`
	LLM     LLMConfig     `yaml:"llm"`
	Store   StoreConfig   `yaml:"store"`
	Lock    LockConfig    `yaml:"lock"`
	Events  EventsConfig  `yaml:"events"`
	Audit   AuditConfig   `yaml:"audit"`
	Policy  PolicyConfig  `yaml:"policy"`
	Logging LoggingConfig `yaml:"logging"`
}

type HTTPConfig struct {
	Port            int           `yaml:"port" validate:"min=1,max=65535"`
	AllowOrigins    string        `yaml:"allow_origins"`
	ChatLimit       int           `yaml:"chat_limit" validate:"min=0"`
	ProbeLimit      int           `yaml:"probe_limit" validate:"min=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// GRPCConfig Port 為 0 時不啟動 gRPC
type GRPCConfig struct {
	Port int `yaml:"port" validate:"min=0,max=65535"`
}

type LLMConfig struct {
	URL                string        `yaml:"url" validate:"required,url"`
	Protocol           string        `yaml:"protocol" validate:"oneof=proxy ollama"`
	Model              string        `yaml:"model" validate:"required_if=Protocol ollama"`
	Timeout            time.Duration `yaml:"timeout" validate:"gt=0"`
	BreakerFailures    uint32        `yaml:"breaker_failures"`
	BreakerOpenTimeout time.Duration `yaml:"breaker_open_timeout"`
}

type StoreConfig struct {
	Driver      string       `yaml:"driver" validate:"oneof=json mysql postgres"`
	Path        string       `yaml:"path" validate:"required_if=Driver json"`
	MySQL       mysql.Config `yaml:"mysql"`
	PostgresDSN string       `yaml:"postgres_dsn" validate:"required_if=Driver postgres"`
	// SQL 資料表為空時，從 Path 的 JSON 檔匯入一次
	SeedFromJSON bool `yaml:"seed_from_json"`
}

type LockConfig struct {
	Driver    string        `yaml:"driver" validate:"oneof=memory sequencer redis"`
	Buffer    int           `yaml:"buffer"`
	RedisAddr string        `yaml:"redis_addr" validate:"required_if=Driver redis"`
	Expiry    time.Duration `yaml:"expiry"`
	Tries     int           `yaml:"tries"`
}

// EventsConfig 都是選用，沒設定就不發佈
type EventsConfig struct {
	KafkaBrokers  []string `yaml:"kafka_brokers"`
	KafkaTopic    string   `yaml:"kafka_topic"`
	GraphURI      string   `yaml:"graph_uri"`
	GraphDatabase string   `yaml:"graph_database"`
	GraphUsername string   `yaml:"graph_username"`
	GraphPassword string   `yaml:"graph_password"`
}

// AuditConfig Path 為空時不寫稽核日誌
type AuditConfig struct {
	Path string `yaml:"path"`
}

type PolicyConfig struct {
	AutoExecute   bool   `yaml:"auto_execute"`
	TransferLimit string `yaml:"transfer_limit"`
	RiskThreshold int    `yaml:"risk_threshold" validate:"min=0"`
	RedTeamMode   bool   `yaml:"red_team_mode"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// Default 預設值，YAML 與環境變數只覆寫有設定的欄位
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Port:            5003,
			AllowOrigins:    "*",
			ChatLimit:       30,
			ProbeLimit:      6,
			ShutdownTimeout: 10 * time.Second,
		},
		GRPC: GRPCConfig{Port: 50052},
		LLM: LLMConfig{
			Protocol:           "proxy",
			Timeout:            60 * time.Second,
			BreakerFailures:    5,
			BreakerOpenTimeout: 30 * time.Second,
		},
		Store: StoreConfig{Driver: "json"},
		Lock: LockConfig{
			Driver: "memory",
			Buffer: 1024,
			Expiry: 10 * time.Second,
			Tries:  32,
		},
		Events:  EventsConfig{KafkaTopic: "transfer_completed"},
		Policy:  PolicyConfig{AutoExecute: true, TransferLimit: "1000"},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load 讀取設定
// 順序: 預設值 -> YAML 檔 (path 不存在時略過) -> .env / 環境變數 -> 驗證
//
// 參數:
//
//	path: YAML 設定檔路徑，可為空
//
// 回傳:
//
//	Config: 設定
//	error: 讀檔、解析或驗證失敗
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	// .env 是選用的
	_ = godotenv.Load()
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate 檢查欄位
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Policy.Limit(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Limit 單筆轉帳上限
func (p PolicyConfig) Limit() (decimal.Decimal, error) {
	if strings.TrimSpace(p.TransferLimit) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(p.TransferLimit))
	if err != nil {
		return decimal.Zero, fmt.Errorf("transfer_limit %q: %w", p.TransferLimit, err)
	}
	return d, nil
}

func applyEnv(cfg *Config) error {
	setString("LLM_URL", &cfg.LLM.URL)
	setString("LLM_PROTOCOL", &cfg.LLM.Protocol)
	setString("LLM_MODEL", &cfg.LLM.Model)
	setString("DATA_PATH", &cfg.Store.Path)
	setString("STORE_DRIVER", &cfg.Store.Driver)
	setString("POSTGRES_DSN", &cfg.Store.PostgresDSN)
	setString("LOCK_DRIVER", &cfg.Lock.Driver)
	setString("REDIS_ADDR", &cfg.Lock.RedisAddr)
	setString("GRAPH_URI", &cfg.Events.GraphURI)
	setString("AUDIT_PATH", &cfg.Audit.Path)
	setString("TRANSFER_LIMIT", &cfg.Policy.TransferLimit)
	setString("LOG_LEVEL", &cfg.Logging.Level)
	setString("LOG_FORMAT", &cfg.Logging.Format)
	setBool("AUTO_EXECUTE", &cfg.Policy.AutoExecute)
	setBool("RED_TEAM_MODE", &cfg.Policy.RedTeamMode)

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Events.KafkaBrokers = splitCSV(v)
	}
	for key, dst := range map[string]*int{
		"RISK_THRESHOLD": &cfg.Policy.RiskThreshold,
		"HTTP_PORT":      &cfg.HTTP.Port,
		"GRPC_PORT":      &cfg.GRPC.Port,
	} {
		if err := setInt(key, dst); err != nil {
			return err
		}
	}
	return nil
}

func setString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// setBool 只有 "true" (不分大小寫) 視為 true
func setBool(key string, dst *bool) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = strings.EqualFold(strings.TrimSpace(v), "true")
	}
}

func setInt(key string, dst *int) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
