package mysql

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Client 封裝 GORM DB 實例
type Client struct {
	db *gorm.DB
}

// NewClient 建立並回傳一個新的 MySQL 客戶端實例 (GORM)
//
// 參數:
//
//	cfg: Config - MySQL 連線配置 (未設定的欄位會補預設值)
//	log: 重試過程的紀錄
//
// 回傳值:
//
//	*Client: 封裝後的 MySQL 客戶端
//	error: 重試用盡仍無法連線則回傳錯誤
func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cfg = cfg.WithDefaults()

	gormConfig := &gorm.Config{
		// Save 會自己開 Transaction，其餘都是單一查詢
		SkipDefaultTransaction: true,
		Logger:                 newLogger(cfg.LogLevel),
	}

	var (
		db  *gorm.DB
		err error
	)
	for i := 0; i < cfg.MaxRetries; i++ {
		db, err = open(cfg, gormConfig)
		if err == nil {
			break
		}
		if i < cfg.MaxRetries-1 {
			log.Warn("mysql connect failed, retrying",
				zap.Int("attempt", i+1),
				zap.Int("max", cfg.MaxRetries),
				zap.Duration("interval", cfg.RetryInterval),
				zap.Error(err),
			)
			time.Sleep(cfg.RetryInterval)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mysql after %d attempts: %w", cfg.MaxRetries, err)
	}

	// 取得底層 sql.DB 物件以設定連線池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.db: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	log.Info("mysql connected", zap.String("host", cfg.Host), zap.String("db", cfg.DBName))
	return &Client{db: db}, nil
}

// open 開啟連線並 Ping 確認可用
func open(cfg Config, gormConfig *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, err
	}
	rawDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := rawDB.Ping(); err != nil {
		rawDB.Close()
		return nil, err
	}
	return db, nil
}

// DB 回傳底層的 *gorm.DB 實例
func (c *Client) DB() *gorm.DB {
	return c.db
}

// Close 關閉資料庫連線
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// newLogger 根據配置建立 GORM Logger
func newLogger(level string) logger.Interface {
	var logLevel logger.LogLevel
	switch level {
	case "info":
		logLevel = logger.Info
	case "warn":
		logLevel = logger.Warn
	case "error":
		logLevel = logger.Error
	case "silent":
		logLevel = logger.Silent
	default:
		logLevel = logger.Error // 預設只記錄錯誤
	}

	return logger.Default.LogMode(logLevel)
}
