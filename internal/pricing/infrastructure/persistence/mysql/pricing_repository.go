// Package mysql 基于 GORM 的定价结果仓储，同时支持 MySQL 与 PostgreSQL 方言
package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"gorm.io/gorm"
)

// PricingRepository GORM 定价结果仓储
type PricingRepository struct {
	db *gorm.DB
}

var _ domain.PricingRepository = (*PricingRepository)(nil)

// NewPricingRepository 创建并返回一个新的 PricingRepository 实例。
func NewPricingRepository(db *gorm.DB) *PricingRepository {
	return &PricingRepository{db: db}
}

// AutoMigrate 创建或更新 pricing_results 表
func (r *PricingRepository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&PricingResultModel{})
}

// Save 插入一条定价结果并回填 ID 与创建时间
func (r *PricingRepository) Save(ctx context.Context, res *domain.PricingResult) error {
	model := toPricingResultModel(res)
	if model == nil {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	res.ID = model.ID
	res.CreatedAt = model.CreatedAt
	return nil
}

// GetLatest 按计算时间取最新一条，不存在时返回 (nil, nil)
func (r *PricingRepository) GetLatest(ctx context.Context, symbol string) (*domain.PricingResult, error) {
	var m PricingResultModel
	if err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("calculated_at desc").
		Order("id desc").
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toPricingResult(&m), nil
}

// GetHistory 最新在前
func (r *PricingRepository) GetHistory(ctx context.Context, symbol string, limit int) ([]*domain.PricingResult, error) {
	var models []PricingResultModel
	if err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("calculated_at desc").
		Order("id desc").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]*domain.PricingResult, len(models))
	for i := range models {
		res[i] = toPricingResult(&models[i])
	}
	return res, nil
}
