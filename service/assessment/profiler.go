/*
 * @module service/assessment/profiler
 * @description 数据剖析器，逐列调用类型推断并计算统计信息，产出数据集画像
 * @architecture 分层架构 - 评估服务层
 * @documentReference dev_docs/assessment_design.md
 * @stateFlow 逐列类型推断 -> 分类型统计 -> 字段质量指标 -> 数据集聚合评分
 * @rules 单字段统计异常只降级该字段的质量指标，不中断整体剖析；
 *        全空列产出unknown类型画像且指标为0；零行数据集聚合评分为0
 * @dependencies github.com/spf13/cast, log/slog
 * @refs service/assessment/type_inferencer.go, service/models/profile_models.go
 */

package assessment

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cast"

	"dataguard-service/service/models"
)

// DataProfiler 数据剖析器
type DataProfiler struct {
	inferencer *TypeInferencer
}

// NewDataProfiler 创建数据剖析器实例
func NewDataProfiler() *DataProfiler {
	return &DataProfiler{inferencer: NewTypeInferencer()}
}

// Profile 对数据集执行统计剖析
// 对同一数据集重复调用产出逐值相同的画像
func (p *DataProfiler) Profile(dataset *models.Dataset) *models.DatasetProfile {
	profile := &models.DatasetProfile{
		RowCount:    dataset.RowCount(),
		ColumnCount: dataset.ColumnCount(),
		Fields:      make([]models.FieldProfile, 0, dataset.ColumnCount()),
		ProfiledAt:  time.Now(),
	}

	totalIndicator := 0.0
	for i := range dataset.Columns {
		field := p.profileColumn(&dataset.Columns[i], profile.RowCount)
		profile.Fields = append(profile.Fields, field)
		totalIndicator += field.QualityIndicator
	}

	// 零行数据集的聚合评分固定为0
	if profile.RowCount > 0 && len(profile.Fields) > 0 {
		profile.QualityScore = totalIndicator / float64(len(profile.Fields))
	}
	return profile
}

// profileColumn 剖析单列，统计异常只降级该列的质量指标
func (p *DataProfiler) profileColumn(column *models.Column, rowCount int) (field models.FieldProfile) {
	field = models.FieldProfile{
		Name: column.Name,
		Type: models.FieldTypeUnknown,
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("字段统计计算异常，已降级质量指标", "field", column.Name, "panic", r)
			field.QualityIndicator = 0
		}
	}()

	field.NullCount = column.NullCount()
	field.Nullable = field.NullCount > 0

	nonNull := column.NonNullValues()
	if len(nonNull) == 0 {
		// 全空列：类型unknown，质量指标0
		field.NullCount = rowCount
		field.QualityIndicator = 0
		return field
	}

	inference := p.inferencer.Infer(nonNull)
	field.Type = inference.Type
	field.Mixed = inference.Mixed
	field.Pattern = inference.Pattern
	field.PatternConfidence = inference.PatternConfidence
	field.UniqueCount = uniqueCount(nonNull)

	switch {
	case field.Type.IsNumeric():
		computeNumericStats(&field, nonNull)
	case field.Type == models.FieldTypeString:
		computeLengthStats(&field, nonNull)
	}

	field.QualityIndicator = qualityIndicator(&field, inference, rowCount)
	return field
}

// computeNumericStats 计算数值列的min/max/mean，跳过无法转换的值
func computeNumericStats(field *models.FieldProfile, values []interface{}) {
	var sum float64
	count := 0
	for _, v := range values {
		f, err := cast.ToFloat64E(v)
		if err != nil {
			continue
		}
		if field.Min == nil || f < *field.Min {
			field.Min = ptrFloat(f)
		}
		if field.Max == nil || f > *field.Max {
			field.Max = ptrFloat(f)
		}
		sum += f
		count++
	}
	if count > 0 {
		field.Mean = ptrFloat(sum / float64(count))
	}
}

// computeLengthStats 计算字符串列的长度边界
func computeLengthStats(field *models.FieldProfile, values []interface{}) {
	for _, v := range values {
		s, err := cast.ToStringE(v)
		if err != nil {
			s = fmt.Sprintf("%v", v)
		}
		length := len([]rune(s))
		if field.MinLength == nil || length < *field.MinLength {
			field.MinLength = ptrInt(length)
		}
		if field.MaxLength == nil || length > *field.MaxLength {
			field.MaxLength = ptrInt(length)
		}
	}
}

// qualityIndicator 计算字段级质量指标 (0-100)
// 完整度占六成，类型置信度占四成，类型混杂额外扣减
func qualityIndicator(field *models.FieldProfile, inference models.TypeInference, rowCount int) float64 {
	if rowCount == 0 {
		return 0
	}
	completeness := 1.0 - float64(field.NullCount)/float64(rowCount)
	indicator := (completeness*0.6 + inference.Confidence*0.4) * 100
	if field.Mixed {
		indicator *= 0.8
	}
	if indicator < 0 {
		indicator = 0
	}
	if indicator > 100 {
		indicator = 100
	}
	return indicator
}

func uniqueCount(values []interface{}) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[fmt.Sprintf("%v", v)] = struct{}{}
	}
	return len(seen)
}

func ptrFloat(f float64) *float64 { return &f }

func ptrInt(i int) *int { return &i }
