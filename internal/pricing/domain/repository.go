package domain

import "context"

// PricingRepository 定价结果仓储
type PricingRepository interface {
	Save(ctx context.Context, result *PricingResult) error
	// GetLatest 不存在时返回 (nil, nil)
	GetLatest(ctx context.Context, symbol string) (*PricingResult, error)
	GetHistory(ctx context.Context, symbol string, limit int) ([]*PricingResult, error)
}

// EventPublisher 领域事件发布者
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, key string, event any) error
}
