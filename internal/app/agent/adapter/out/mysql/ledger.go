package mysql

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/domain"
	"github.com/JoeShih716/go-bank-agent/internal/app/agent/usecase"
	"github.com/JoeShih716/go-bank-agent/pkg/mysql"
)

// createBatchSize 單次 INSERT 的列數上限
const createBatchSize = 200

// LedgerStore 以 MySQL 保存整份客戶資料
type LedgerStore struct {
	client *mysql.Client
}

// NewLedgerStore 建立 LedgerStore 並自動建立資料表
//
// 參數:
//
//	client: MySQL 客戶端
//
// 回傳:
//
//	*LedgerStore: 實例
//	error: AutoMigrate 失敗
func NewLedgerStore(client *mysql.Client) (*LedgerStore, error) {
	if err := client.DB().AutoMigrate(&sqlCustomer{}, &sqlCustomerTransaction{}); err != nil {
		return nil, fmt.Errorf("mysql automigrate: %w", err)
	}
	return &LedgerStore{client: client}, nil
}

// Load 讀取所有客戶與交易
func (s *LedgerStore) Load(ctx context.Context) (*domain.RecordSet, error) {
	db := s.client.DB().WithContext(ctx)

	var customers []sqlCustomer
	if err := db.Order("position").Find(&customers).Error; err != nil {
		return nil, err
	}
	var txs []sqlCustomerTransaction
	if err := db.Order("customer_id, seq").Find(&txs).Error; err != nil {
		return nil, err
	}
	return fromRows(customers, txs), nil
}

// Save 在同一個 Transaction 內清空後整份寫入，任何一步失敗都會 rollback
func (s *LedgerStore) Save(ctx context.Context, records *domain.RecordSet) error {
	customers, txs := toRows(records)
	return s.client.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		global := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := global.Delete(&sqlCustomerTransaction{}).Error; err != nil {
			return err
		}
		if err := global.Delete(&sqlCustomer{}).Error; err != nil {
			return err
		}
		// GORM 不接受空 slice
		if len(customers) > 0 {
			if err := tx.CreateInBatches(customers, createBatchSize).Error; err != nil {
				return err
			}
		}
		if len(txs) > 0 {
			if err := tx.CreateInBatches(txs, createBatchSize).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

var _ usecase.LedgerStore = (*LedgerStore)(nil)
