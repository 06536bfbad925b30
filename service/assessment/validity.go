/*
 * @module service/assessment/validity
 * @description 有效性维度评估器，检查字段值的类型符合性、模式匹配与硬性数值范围
 * @architecture 分层架构 - 评估服务层
 * @documentReference dev_docs/assessment_design.md
 * @stateFlow 逐字段收集要求 -> 逐行检查 -> 符合比例缩放到维度权重
 * @rules 空值不计入有效性检查（由完整性维度负责）；零行数据集获得满分；
 *        不合法的正则模式按MalformedRequirementError上抛由引擎降级
 * @dependencies github.com/spf13/cast, regexp
 * @refs service/assessment/assessor.go, service/assessment/engine.go
 */

package assessment

import (
	"fmt"
	"regexp"

	"github.com/spf13/cast"

	"dataguard-service/service/models"
)

// ValidityAssessor 有效性维度评估器
type ValidityAssessor struct{}

// NewValidityAssessor 创建有效性评估器
func NewValidityAssessor() *ValidityAssessor {
	return &ValidityAssessor{}
}

// Dimension 返回所属维度
func (a *ValidityAssessor) Dimension() models.Dimension {
	return models.DimensionValidity
}

// Assess 统计类型、模式与硬性范围的符合比例
func (a *ValidityAssessor) Assess(dataset *models.Dataset, standard *models.Standard) (float64, []models.FailedCheck, error) {
	weight := standard.Weight(models.DimensionValidity)
	if dataset.RowCount() == 0 {
		return weight, nil, nil
	}

	checked := 0
	conforming := 0
	var failed []models.FailedCheck

	for _, name := range sortedFieldNames(standard.FieldRequirements) {
		req := standard.FieldRequirements[name]
		column := dataset.Column(name)
		if column == nil {
			failed = append(failed, models.FailedCheck{
				Field:     name,
				Dimension: models.DimensionValidity,
				Reason:    "数据集中缺少该字段",
			})
			continue
		}

		var pattern *regexp.Regexp
		if req.Pattern != "" {
			compiled, err := regexp.Compile(req.Pattern)
			if err != nil {
				return 0, nil, &MalformedRequirementError{
					Dimension: models.DimensionValidity,
					Field:     name,
					Reason:    fmt.Sprintf("模式正则不合法: %v", err),
				}
			}
			pattern = compiled
		}

		fieldViolations := 0
		for _, v := range column.Values {
			if models.IsNull(v) {
				continue
			}
			checked++
			if a.conforms(v, &req, pattern) {
				conforming++
			} else {
				fieldViolations++
			}
		}
		if fieldViolations > 0 {
			failed = append(failed, models.FailedCheck{
				Field:     name,
				Dimension: models.DimensionValidity,
				Reason:    fmt.Sprintf("%d 个值不符合类型/模式/范围要求", fieldViolations),
			})
		}
	}

	return ratioScore(conforming, checked, weight), failed, nil
}

// conforms 检查单个值是否满足类型、模式与硬性范围要求
func (a *ValidityAssessor) conforms(v interface{}, req *models.FieldRequirement, pattern *regexp.Regexp) bool {
	if !ValueSatisfiesType(v, req.Type) {
		return false
	}
	if pattern != nil {
		s, err := cast.ToStringE(v)
		if err != nil || !pattern.MatchString(s) {
			return false
		}
	}
	if req.MinValue != nil || req.MaxValue != nil {
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return false
		}
		if req.MinValue != nil && f < *req.MinValue {
			return false
		}
		if req.MaxValue != nil && f > *req.MaxValue {
			return false
		}
	}
	return true
}
