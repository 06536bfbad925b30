/*
 * @module connectors/mqtt_connector
 * @description MQTT连接器，订阅主题收集一批JSON消息构造数据集
 * @architecture 适配器模式 - 封装paho.mqtt客户端
 * @stateFlow 连接broker -> 订阅主题 -> 收集至上限或超时 -> 断开 -> 构造数据集
 * @rules 非JSON对象消息跳过并告警；收集超时不是错误，返回已收到的记录
 * @dependencies github.com/eclipse/paho.mqtt.golang
 * @refs client/connectors/connector.go
 */
package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"dataguard-service/service/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/cast"
)

const (
	defaultMQTTMaxMessages = 1000
	defaultMQTTWaitSeconds = 10
)

// MQTTConnector MQTT批量订阅连接器
// 来源配置: {"type": "mqtt", "broker": "tcp://...", "topic": "...", "qos": 1,
//            "username": "...", "password": "...", "max_messages": 1000, "wait_seconds": 10}
type MQTTConnector struct{}

// NewMQTTConnector 创建MQTT连接器
func NewMQTTConnector() *MQTTConnector {
	return &MQTTConnector{}
}

// Type 返回来源类型
func (c *MQTTConnector) Type() string {
	return "mqtt"
}

// FetchDataset 订阅主题收集一批消息并构造数据集
func (c *MQTTConnector) FetchDataset(ctx context.Context, config models.JSONB) (*models.Dataset, error) {
	broker := cast.ToString(config["broker"])
	topic := cast.ToString(config["topic"])
	if broker == "" || topic == "" {
		return nil, fmt.Errorf("MQTT来源配置缺少broker或topic字段")
	}

	maxMessages := cast.ToInt(config["max_messages"])
	if maxMessages <= 0 {
		maxMessages = defaultMQTTMaxMessages
	}
	waitSeconds := cast.ToInt(config["wait_seconds"])
	if waitSeconds <= 0 {
		waitSeconds = defaultMQTTWaitSeconds
	}
	qos := byte(cast.ToInt(config["qos"]))

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(fmt.Sprintf("dataguard-%d-%d", os.Getpid(), time.Now().UnixNano()))
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(5 * time.Second)
	if username := cast.ToString(config["username"]); username != "" {
		opts.SetUsername(username)
		opts.SetPassword(cast.ToString(config["password"]))
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT连接失败: %w", token.Error())
	}
	defer client.Disconnect(250)

	var mu sync.Mutex
	records := make([]map[string]interface{}, 0, maxMessages)
	done := make(chan struct{})
	var closeOnce sync.Once

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		var record map[string]interface{}
		if err := json.Unmarshal(msg.Payload(), &record); err != nil {
			slog.Warn("MQTT消息不是JSON对象，已跳过", "topic", msg.Topic(), "error", err)
			return
		}

		mu.Lock()
		defer mu.Unlock()
		if len(records) >= maxMessages {
			return
		}
		records = append(records, record)
		if len(records) >= maxMessages {
			closeOnce.Do(func() { close(done) })
		}
	}

	if token := client.Subscribe(topic, qos, handler); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT订阅失败: %w", token.Error())
	}

	select {
	case <-done:
	case <-time.After(time.Duration(waitSeconds) * time.Second):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if token := client.Unsubscribe(topic); token.Wait() && token.Error() != nil {
		slog.Warn("MQTT取消订阅失败", "topic", topic, "error", token.Error())
	}

	mu.Lock()
	defer mu.Unlock()
	slog.Info("MQTT数据集收集完成", "topic", topic, "records", len(records))
	return datasetFromMaps(records), nil
}
