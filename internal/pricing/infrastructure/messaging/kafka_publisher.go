// Package messaging 将定价领域事件发布到 Kafka
package messaging

import (
	"context"
	"fmt"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

// MessageSender 由 mq.KafkaProducer 实现
type MessageSender interface {
	SendMessage(ctx context.Context, topic string, key string, value any) error
}

var topicNames = map[string]string{
	domain.OptionPricedEventType:          "option_priced",
	domain.GreeksCalculatedEventType:      "greeks_calculated",
	domain.PricingErrorEventType:          "pricing_error",
	domain.BatchPricingCompletedEventType: "batch_pricing_completed",
}

// KafkaEventPublisher 每种事件一个 topic：<prefix>.<event>
type KafkaEventPublisher struct {
	sender MessageSender
	prefix string
}

var _ domain.EventPublisher = (*KafkaEventPublisher)(nil)

// NewKafkaEventPublisher 创建事件发布者
func NewKafkaEventPublisher(sender MessageSender, topicPrefix string) *KafkaEventPublisher {
	return &KafkaEventPublisher{sender: sender, prefix: topicPrefix}
}

// Publish 未登记的事件类型直接报错，避免写入意外的 topic
func (p *KafkaEventPublisher) Publish(ctx context.Context, eventType string, key string, event any) error {
	topic, err := p.Topic(eventType)
	if err != nil {
		return err
	}
	if err := p.sender.SendMessage(ctx, topic, key, event); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}

// Topic 返回事件对应的 topic 名称
func (p *KafkaEventPublisher) Topic(eventType string) (string, error) {
	name, ok := topicNames[eventType]
	if !ok {
		return "", fmt.Errorf("unknown event type %q", eventType)
	}
	if p.prefix == "" {
		return name, nil
	}
	return p.prefix + "." + name, nil
}
