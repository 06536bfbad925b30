/*
 * @module service/standards/loader
 * @description 标准定义文档加载器，解析YAML/JSON格式的标准定义为标准值对象
 * @architecture 分层架构 - 存储服务层
 * @documentReference dev_docs/assessment_design.md
 * @stateFlow 文档解析 -> 结构校验 -> 权重校验 -> 标准值对象
 * @rules 定义文档顶层为meta与requirements两段；核心不做文件IO与路径解析，
 *        本加载器只消费已读入的字节
 * @dependencies gopkg.in/yaml.v3, encoding/json
 * @refs service/models/standard_models.go
 */

package standards

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"dataguard-service/service/models"
)

// standardDocument 标准定义文档的顶层结构
type standardDocument struct {
	Meta         models.StandardMeta `json:"meta" yaml:"meta"`
	Requirements struct {
		OverallMinimum        float64                                `json:"overall_minimum" yaml:"overall_minimum"`
		FieldRequirements     map[string]models.FieldRequirement     `json:"field_requirements" yaml:"field_requirements"`
		DimensionRequirements map[models.Dimension]float64           `json:"dimension_requirements" yaml:"dimension_requirements"`
		ConsistencyScript     string                                 `json:"consistency_script,omitempty" yaml:"consistency_script,omitempty"`
	} `json:"requirements" yaml:"requirements"`
}

// LoadFromYAML 从YAML文档解析标准
func LoadFromYAML(data []byte) (*models.Standard, error) {
	var doc standardDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("标准定义YAML解析失败: %w", err)
	}
	return doc.toStandard()
}

// LoadFromJSON 从JSON文档解析标准
func LoadFromJSON(data []byte) (*models.Standard, error) {
	var doc standardDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("标准定义JSON解析失败: %w", err)
	}
	return doc.toStandard()
}

// toStandard 将文档转换为标准值对象并校验不变式
func (doc *standardDocument) toStandard() (*models.Standard, error) {
	if doc.Meta.Name == "" {
		return nil, fmt.Errorf("标准定义缺少meta.name")
	}
	if doc.Meta.Version == "" {
		return nil, fmt.Errorf("标准定义缺少meta.version")
	}

	standard := &models.Standard{
		Meta:              doc.Meta,
		OverallMinimum:    doc.Requirements.OverallMinimum,
		FieldRequirements: doc.Requirements.FieldRequirements,
		DimensionWeights:  doc.Requirements.DimensionRequirements,
		ConsistencyScript: doc.Requirements.ConsistencyScript,
	}
	if standard.FieldRequirements == nil {
		standard.FieldRequirements = make(map[string]models.FieldRequirement)
	}
	if standard.DimensionWeights == nil {
		standard.DimensionWeights = models.DefaultDimensionWeights()
	}

	if err := standard.ValidateWeights(); err != nil {
		return nil, fmt.Errorf("标准 %s 定义不合法: %w", standard.Key(), err)
	}
	return standard, nil
}
