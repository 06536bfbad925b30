/*
 * @module service/audit/kafka_publisher
 * @description Kafka审计发布器，将评估审计记录发布到Kafka主题供下游治理平台消费
 * @architecture 适配器模式 - 封装kafka-go客户端，实现审计汇接口
 * @documentReference dev_docs/assessment_design.md
 * @stateFlow 记录到达 -> JSON序列化 -> 按标准名分区键写入 -> 超时放弃
 * @rules 发布失败只影响该条消息，不阻塞评估流程；写入带超时保护
 * @dependencies github.com/segmentio/kafka-go, encoding/json
 * @refs service/audit/audit_service.go
 */

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"dataguard-service/service/models"
)

// 默认发布超时
const defaultPublishTimeout = 5 * time.Second

// KafkaPublisher Kafka审计发布器
type KafkaPublisher struct {
	writer  *kafka.Writer
	timeout time.Duration
}

// NewKafkaPublisher 创建Kafka审计发布器
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	return &KafkaPublisher{
		writer:  writer,
		timeout: defaultPublishTimeout,
	}
}

// Write 发布一条审计记录，实现Sink接口
func (p *KafkaPublisher) Write(record *models.AssessmentRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("审计记录序列化失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(record.StandardName),
		Value: data,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("审计消息发布失败: %w", err)
	}
	return nil
}

// Close 关闭Kafka写入器
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
