/*
 * @module service/models/standard_models
 * @description 数据质量标准模型定义，包括维度枚举、字段要求、维度权重和标准持久化记录
 * @architecture 数据模型层
 * @documentReference dev_docs/model.md
 * @stateFlow 标准生成/加载 -> 权重校验 -> 评估引擎消费 -> 持久化
 * @rules 标准为不可变值对象，重新生成产生新标准；五个维度权重之和必须等于总上限100
 * @dependencies gorm.io/gorm, github.com/google/uuid, github.com/lib/pq
 * @refs service/assessment/generator.go, service/standards/repository.go
 */

package models

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Dimension 质量维度
type Dimension string

const (
	DimensionValidity     Dimension = "validity"
	DimensionCompleteness Dimension = "completeness"
	DimensionConsistency  Dimension = "consistency"
	DimensionFreshness    Dimension = "freshness"
	DimensionPlausibility Dimension = "plausibility"
)

// AllDimensions 按固定顺序返回全部质量维度
func AllDimensions() []Dimension {
	return []Dimension{
		DimensionValidity,
		DimensionCompleteness,
		DimensionConsistency,
		DimensionFreshness,
		DimensionPlausibility,
	}
}

const (
	// DimensionCeiling 单个维度的满分上限
	DimensionCeiling = 20.0
	// TotalCeiling 五个维度权重之和的固定上限
	TotalCeiling = 100.0
	// WeightTolerance 权重求和的浮点容差
	WeightTolerance = 1e-6
)

// FieldRequirement 单字段质量要求
type FieldRequirement struct {
	Type     FieldType `json:"type" yaml:"type"`
	Nullable bool      `json:"nullable" yaml:"nullable"`
	// Pattern 字段值必须匹配的正则表达式（有效性维度）
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	// MinValue/MaxValue 硬性数值范围（有效性维度）
	MinValue *float64 `json:"min_value,omitempty" yaml:"min_value,omitempty"`
	MaxValue *float64 `json:"max_value,omitempty" yaml:"max_value,omitempty"`
	// PlausibleMin/PlausibleMax 软性合理范围（合理性维度），越界视为异常值而非格式错误
	PlausibleMin *float64 `json:"plausible_min,omitempty" yaml:"plausible_min,omitempty"`
	PlausibleMax *float64 `json:"plausible_max,omitempty" yaml:"plausible_max,omitempty"`
	// Unique 字段值必须唯一（一致性维度）
	Unique bool `json:"unique,omitempty" yaml:"unique,omitempty"`
	// References 字段值必须存在于所引用字段的取值集合中（一致性维度）
	References string `json:"references,omitempty" yaml:"references,omitempty"`
	// MaxAgeHours 时间字段允许的最大陈旧时长，小时（新鲜度维度）
	MaxAgeHours *float64 `json:"max_age_hours,omitempty" yaml:"max_age_hours,omitempty"`
}

// StandardMeta 标准身份信息
type StandardMeta struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
}

// Standard 数据质量标准，加载后作为不可变值对象使用
type Standard struct {
	Meta StandardMeta `json:"meta" yaml:"meta"`
	// OverallMinimum 总分通过阈值 (0-100)
	OverallMinimum    float64                     `json:"overall_minimum" yaml:"overall_minimum"`
	FieldRequirements map[string]FieldRequirement `json:"field_requirements" yaml:"field_requirements"`
	// DimensionWeights 五个维度的分值上限，之和必须等于TotalCeiling
	DimensionWeights map[Dimension]float64 `json:"dimension_requirements" yaml:"dimension_requirements"`
	// ConsistencyScript 可选的自定义一致性规则脚本，入口为 Run(params) 函数
	ConsistencyScript string `json:"consistency_script,omitempty" yaml:"consistency_script,omitempty"`
}

// Key 返回标准的唯一标识（名称+版本）
func (s *Standard) Key() string {
	return s.Meta.Name + "@" + s.Meta.Version
}

// Weight 返回某维度的权重，未声明时返回0
func (s *Standard) Weight(dim Dimension) float64 {
	return s.DimensionWeights[dim]
}

// ValidateWeights 校验维度权重不变式：五个维度齐全、非负、之和等于总上限
func (s *Standard) ValidateWeights() error {
	sum := 0.0
	for _, dim := range AllDimensions() {
		weight, ok := s.DimensionWeights[dim]
		if !ok {
			return fmt.Errorf("缺少维度 %s 的权重", dim)
		}
		if weight < 0 {
			return fmt.Errorf("维度 %s 的权重不能为负: %f", dim, weight)
		}
		sum += weight
	}
	if math.Abs(sum-TotalCeiling) > WeightTolerance {
		return fmt.Errorf("维度权重之和 %f 不等于上限 %f", sum, TotalCeiling)
	}
	return nil
}

// DefaultDimensionWeights 返回默认维度权重：五个维度各占20分
func DefaultDimensionWeights() map[Dimension]float64 {
	weights := make(map[Dimension]float64, 5)
	for _, dim := range AllDimensions() {
		weights[dim] = DimensionCeiling
	}
	return weights
}

// StandardRecord 标准持久化记录模型
type StandardRecord struct {
	ID          string         `gorm:"type:uuid;primary_key" json:"id"`
	Name        string         `gorm:"not null;index:idx_standard_name_version,unique" json:"name"`
	Version     string         `gorm:"not null;index:idx_standard_name_version,unique" json:"version"`
	Description string         `gorm:"type:text" json:"description"`
	Definition  JSONB          `gorm:"type:jsonb;not null" json:"definition"`
	Tags        pq.StringArray `gorm:"type:text[]" json:"tags"`
	// AutoGenerated 标记该标准由守护器自动生成
	AutoGenerated bool      `gorm:"not null;default:false" json:"auto_generated"`
	IsEnabled     bool      `gorm:"not null;default:true" json:"is_enabled"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName 指定表名
func (StandardRecord) TableName() string {
	return "quality_standards"
}

// BeforeCreate 创建前钩子
func (s *StandardRecord) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// ToStandard 将持久化记录还原为标准值对象
func (s *StandardRecord) ToStandard() (*Standard, error) {
	data, err := json.Marshal(s.Definition)
	if err != nil {
		return nil, fmt.Errorf("标准定义序列化失败: %w", err)
	}
	var standard Standard
	if err := json.Unmarshal(data, &standard); err != nil {
		return nil, fmt.Errorf("标准定义反序列化失败: %w", err)
	}
	return &standard, nil
}

// NewStandardRecord 从标准值对象构造持久化记录
func NewStandardRecord(standard *Standard, autoGenerated bool) (*StandardRecord, error) {
	data, err := json.Marshal(standard)
	if err != nil {
		return nil, fmt.Errorf("标准序列化失败: %w", err)
	}
	var definition JSONB
	if err := json.Unmarshal(data, &definition); err != nil {
		return nil, fmt.Errorf("标准定义转换失败: %w", err)
	}
	return &StandardRecord{
		Name:          standard.Meta.Name,
		Version:       standard.Meta.Version,
		Definition:    definition,
		AutoGenerated: autoGenerated,
		IsEnabled:     true,
	}, nil
}
