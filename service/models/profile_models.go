/*
 * @module service/models/profile_models
 * @description 数据剖析模型定义，包括字段类型枚举、字段画像和数据集画像
 * @architecture 数据模型层
 * @documentReference dev_docs/model.md
 * @stateFlow 数据剖析执行 -> 画像生成 -> 标准生成/质量报告
 * @rules 画像一经生成不再修改，重新剖析产生新画像；min<=max、null_count<=row_count
 * @dependencies time
 * @refs service/assessment/profiler.go, service/assessment/generator.go
 */

package models

import "time"

// FieldType 字段推断类型
type FieldType string

const (
	FieldTypeInteger FieldType = "integer"
	FieldTypeFloat   FieldType = "float"
	FieldTypeString  FieldType = "string"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeDate    FieldType = "date"
	FieldTypeUnknown FieldType = "unknown"
)

// IsNumeric 判断类型是否为数值类型
func (t FieldType) IsNumeric() bool {
	return t == FieldTypeInteger || t == FieldTypeFloat
}

// PatternType 字符串字段的格式模式
type PatternType string

const (
	PatternEmail      PatternType = "email"
	PatternIdentifier PatternType = "identifier"
	PatternFreeText   PatternType = "free_text"
)

// TypeInference 类型推断结果
type TypeInference struct {
	Type FieldType `json:"type"`
	// Mixed 表示采样值类型混杂，已回退为string
	Mixed bool `json:"mixed,omitempty"`
	// Pattern 仅对string类型填充
	Pattern           PatternType `json:"pattern,omitempty"`
	PatternConfidence float64     `json:"pattern_confidence,omitempty"`
	// Confidence 类型判定置信度，非规整值会降低该值
	Confidence float64 `json:"confidence"`
	// NonConforming 采样中转换失败的值数量
	NonConforming int `json:"non_conforming"`
}

// FieldProfile 单字段统计画像
type FieldProfile struct {
	Name              string      `json:"name"`
	Type              FieldType   `json:"type"`
	Mixed             bool        `json:"mixed,omitempty"`
	Nullable          bool        `json:"nullable"`
	NullCount         int         `json:"null_count"`
	UniqueCount       int         `json:"unique_count"`
	Min               *float64    `json:"min,omitempty"`
	Max               *float64    `json:"max,omitempty"`
	Mean              *float64    `json:"mean,omitempty"`
	MinLength         *int        `json:"min_length,omitempty"`
	MaxLength         *int        `json:"max_length,omitempty"`
	Pattern           PatternType `json:"pattern,omitempty"`
	PatternConfidence float64     `json:"pattern_confidence,omitempty"`
	// QualityIndicator 字段级质量指标 (0-100)
	QualityIndicator float64 `json:"quality_indicator"`
}

// DatasetProfile 数据集统计画像
type DatasetProfile struct {
	RowCount    int            `json:"row_count"`
	ColumnCount int            `json:"column_count"`
	Fields      []FieldProfile `json:"fields"`
	// QualityScore 数据集级质量评分 (0-100)，为字段级指标的算术平均
	QualityScore float64   `json:"quality_score"`
	ProfiledAt   time.Time `json:"profiled_at"`
}

// Field 按字段名查找字段画像，未找到返回nil
func (p *DatasetProfile) Field(name string) *FieldProfile {
	for i := range p.Fields {
		if p.Fields[i].Name == name {
			return &p.Fields[i]
		}
	}
	return nil
}
