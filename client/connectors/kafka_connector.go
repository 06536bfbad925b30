/*
 * @module connectors/kafka_connector
 * @description Kafka连接器，从指定主题消费一批JSON消息构造数据集
 * @architecture 适配器模式 - 封装kafka-go Reader
 * @stateFlow 创建Reader -> 消费至上限或超时 -> 解析JSON记录 -> 构造数据集
 * @rules 非JSON对象消息跳过并告警；消费超时不是错误，返回已收到的记录
 * @dependencies github.com/segmentio/kafka-go
 * @refs service/audit/kafka_publisher.go
 */
package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dataguard-service/service/models"

	"github.com/segmentio/kafka-go"
	"github.com/spf13/cast"
)

const (
	defaultKafkaMaxMessages = 1000
	defaultKafkaWaitSeconds = 10
)

// KafkaConnector Kafka批量消费连接器
// 来源配置: {"type": "kafka", "brokers": [...], "topic": "...", "group_id": "...",
//            "max_messages": 1000, "wait_seconds": 10}
type KafkaConnector struct{}

// NewKafkaConnector 创建Kafka连接器
func NewKafkaConnector() *KafkaConnector {
	return &KafkaConnector{}
}

// Type 返回来源类型
func (c *KafkaConnector) Type() string {
	return "kafka"
}

// FetchDataset 消费一批消息并构造数据集
func (c *KafkaConnector) FetchDataset(ctx context.Context, config models.JSONB) (*models.Dataset, error) {
	brokers := cast.ToStringSlice(config["brokers"])
	topic := cast.ToString(config["topic"])
	if len(brokers) == 0 || topic == "" {
		return nil, fmt.Errorf("Kafka来源配置缺少brokers或topic字段")
	}

	groupID := cast.ToString(config["group_id"])
	if groupID == "" {
		groupID = "dataguard-assessment"
	}
	maxMessages := cast.ToInt(config["max_messages"])
	if maxMessages <= 0 {
		maxMessages = defaultKafkaMaxMessages
	}
	waitSeconds := cast.ToInt(config["wait_seconds"])
	if waitSeconds <= 0 {
		waitSeconds = defaultKafkaWaitSeconds
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	readCtx, cancel := context.WithTimeout(ctx, time.Duration(waitSeconds)*time.Second)
	defer cancel()

	records := make([]map[string]interface{}, 0, maxMessages)
	for len(records) < maxMessages {
		msg, err := reader.ReadMessage(readCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				break
			}
			return nil, fmt.Errorf("Kafka消费失败: %w", err)
		}

		var record map[string]interface{}
		if jsonErr := json.Unmarshal(msg.Value, &record); jsonErr != nil {
			slog.Warn("Kafka消息不是JSON对象，已跳过",
				"topic", topic,
				"offset", msg.Offset,
				"error", jsonErr)
			continue
		}
		records = append(records, record)
	}

	slog.Info("Kafka数据集拉取完成", "topic", topic, "records", len(records))
	return datasetFromMaps(records), nil
}
