/*
 * @module connectors
 * @description 数据集来源连接器注册与调度，按任务来源配置加载待评估数据集
 * @architecture 适配器模式 - 统一不同来源（CSV文件、Kafka、MQTT）的数据集加载接口
 * @stateFlow 解析来源配置 -> 选择连接器 -> 拉取记录 -> 构造数据集
 * @rules 来源配置必须包含type字段；记录键的并集按字典序构成数据集列
 * @dependencies service/models
 * @refs service/scheduler/task_runner.go
 */
package connectors

import (
	"context"
	"fmt"
	"sort"

	"dataguard-service/service/models"

	"github.com/spf13/cast"
)

// SourceConnector 数据集来源连接器接口
type SourceConnector interface {
	// Type 返回连接器处理的来源类型
	Type() string
	// FetchDataset 按来源配置拉取一批记录并构造数据集
	FetchDataset(ctx context.Context, config models.JSONB) (*models.Dataset, error)
}

// Registry 连接器注册表
type Registry struct {
	connectors map[string]SourceConnector
}

// NewRegistry 创建注册表并注册默认连接器
func NewRegistry() *Registry {
	r := &Registry{connectors: make(map[string]SourceConnector)}
	r.Register(NewCSVConnector())
	r.Register(NewKafkaConnector())
	r.Register(NewMQTTConnector())
	return r
}

// Register 注册连接器，同类型后注册者覆盖先注册者
func (r *Registry) Register(c SourceConnector) {
	r.connectors[c.Type()] = c
}

// LoadDataset 按来源配置加载数据集
func (r *Registry) LoadDataset(ctx context.Context, config models.JSONB) (*models.Dataset, error) {
	if config == nil {
		return nil, fmt.Errorf("来源配置不能为空")
	}
	sourceType := cast.ToString(config["type"])
	if sourceType == "" {
		return nil, fmt.Errorf("来源配置缺少type字段")
	}

	connector, ok := r.connectors[sourceType]
	if !ok {
		return nil, fmt.Errorf("不支持的来源类型: %s", sourceType)
	}
	return connector.FetchDataset(ctx, config)
}

// datasetFromMaps 从记录映射构造数据集，列为全部记录键的并集，按字典序排列
func datasetFromMaps(records []map[string]interface{}) *models.Dataset {
	fieldSet := make(map[string]struct{})
	for _, record := range records {
		for key := range record {
			fieldSet[key] = struct{}{}
		}
	}

	fields := make([]string, 0, len(fieldSet))
	for key := range fieldSet {
		fields = append(fields, key)
	}
	sort.Strings(fields)

	return models.DatasetFromRecords(fields, records)
}
