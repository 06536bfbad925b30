/*
 * @module service/assessment/generator
 * @description 标准生成器，将数据集画像转换为带安全余量的质量标准
 * @architecture 分层架构 - 评估服务层
 * @documentReference dev_docs/assessment_design.md
 * @stateFlow 画像读取 -> 逐字段要求推导 -> 阈值计算 -> 权重校验 -> 标准产出
 * @rules 数值范围按观测区间外扩固定比例余量；模式要求仅在置信度达标时写入；
 *        维度权重为固定常量以保证跨标准可比，权重不变式校验失败则拒绝生成
 * @dependencies service/models
 * @refs service/assessment/profiler.go, service/standards/repository.go
 */

package assessment

import (
	"math"

	"dataguard-service/service/models"
)

// 标准生成策略常量，取默认值，可通过GeneratorOptions覆盖
const (
	// DefaultRangeMargin 数值范围安全余量，观测区间宽度的比例
	DefaultRangeMargin = 0.10
	// DefaultMinimumFraction 总分阈值取画像聚合评分的比例
	DefaultMinimumFraction = 0.75
	// DefaultMinimumFloor 总分阈值下限
	DefaultMinimumFloor = 60.0
	// DefaultPatternConfidenceThreshold 模式要求写入的置信度门槛
	DefaultPatternConfidenceThreshold = 0.8
	// DefaultStandardVersion 自动生成标准的初始版本号
	DefaultStandardVersion = "1.0.0"
)

// GeneratorOptions 标准生成策略配置
type GeneratorOptions struct {
	RangeMargin                float64
	MinimumFraction            float64
	MinimumFloor               float64
	PatternConfidenceThreshold float64
}

// DefaultGeneratorOptions 返回默认生成策略
func DefaultGeneratorOptions() GeneratorOptions {
	return GeneratorOptions{
		RangeMargin:                DefaultRangeMargin,
		MinimumFraction:            DefaultMinimumFraction,
		MinimumFloor:               DefaultMinimumFloor,
		PatternConfidenceThreshold: DefaultPatternConfidenceThreshold,
	}
}

// StandardGenerator 标准生成器
type StandardGenerator struct {
	opts GeneratorOptions
}

// NewStandardGenerator 创建使用默认策略的标准生成器
func NewStandardGenerator() *StandardGenerator {
	return &StandardGenerator{opts: DefaultGeneratorOptions()}
}

// NewStandardGeneratorWithOptions 创建自定义策略的标准生成器
func NewStandardGeneratorWithOptions(opts GeneratorOptions) *StandardGenerator {
	return &StandardGenerator{opts: opts}
}

// Generate 根据数据集画像生成质量标准
// 生成的标准保证其来源数据按默认余量能够通过评估
func (g *StandardGenerator) Generate(profile *models.DatasetProfile, name string) (*models.Standard, error) {
	if name == "" {
		return nil, &StandardGenerationError{Reason: "标准名称不能为空"}
	}
	if profile == nil {
		return nil, &StandardGenerationError{Reason: "数据集画像不能为空"}
	}

	standard := &models.Standard{
		Meta: models.StandardMeta{
			Name:    name,
			Version: DefaultStandardVersion,
		},
		OverallMinimum:    g.overallMinimum(profile),
		FieldRequirements: make(map[string]models.FieldRequirement, len(profile.Fields)),
		DimensionWeights:  models.DefaultDimensionWeights(),
	}

	for i := range profile.Fields {
		field := &profile.Fields[i]
		standard.FieldRequirements[field.Name] = g.fieldRequirement(field)
	}

	if err := standard.ValidateWeights(); err != nil {
		return nil, &StandardGenerationError{Reason: err.Error()}
	}
	return standard, nil
}

// fieldRequirement 从字段画像推导单字段要求
func (g *StandardGenerator) fieldRequirement(field *models.FieldProfile) models.FieldRequirement {
	req := models.FieldRequirement{
		Type: field.Type,
		// 仅在画像中完全无空值时才要求非空
		Nullable: field.NullCount > 0,
	}

	if field.Type.IsNumeric() && field.Min != nil && field.Max != nil {
		margin := (*field.Max - *field.Min) * g.opts.RangeMargin
		if margin == 0 {
			// 常量列：按绝对值比例给余量，避免零宽区间
			margin = math.Abs(*field.Min) * g.opts.RangeMargin
			if margin == 0 {
				margin = 1.0
			}
		}
		req.PlausibleMin = ptrFloat(*field.Min - margin)
		req.PlausibleMax = ptrFloat(*field.Max + margin)
	}

	if field.Type == models.FieldTypeString && field.PatternConfidence >= g.opts.PatternConfidenceThreshold {
		switch field.Pattern {
		case models.PatternEmail:
			req.Pattern = EmailPattern
		case models.PatternIdentifier:
			req.Pattern = IdentifierPattern
		}
	}
	return req
}

// overallMinimum 计算总分阈值：聚合评分的固定比例，且不低于下限
func (g *StandardGenerator) overallMinimum(profile *models.DatasetProfile) float64 {
	minimum := profile.QualityScore * g.opts.MinimumFraction
	if minimum < g.opts.MinimumFloor {
		minimum = g.opts.MinimumFloor
	}
	if minimum > models.TotalCeiling {
		minimum = models.TotalCeiling
	}
	return minimum
}
