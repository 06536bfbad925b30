/*
 * @module service/assessment/plausibility
 * @description 合理性维度评估器，对数值字段检查软性合理范围，越界值视为异常值
 * @architecture 分层架构 - 评估服务层
 * @documentReference dev_docs/assessment_design.md
 * @stateFlow 收集带合理范围的字段 -> 逐行范围检查 -> 范围内比例缩放到维度权重
 * @rules 合理范围是软约束，与有效性维度的硬范围相互独立：类型合法但越界的值
 *        扣合理性分而不扣有效性分；无法转换为数值的值跳过（由有效性维度负责）
 * @dependencies github.com/spf13/cast
 * @refs service/assessment/assessor.go
 */

package assessment

import (
	"fmt"

	"github.com/spf13/cast"

	"dataguard-service/service/models"
)

// PlausibilityAssessor 合理性维度评估器
type PlausibilityAssessor struct{}

// NewPlausibilityAssessor 创建合理性评估器
func NewPlausibilityAssessor() *PlausibilityAssessor {
	return &PlausibilityAssessor{}
}

// Dimension 返回所属维度
func (a *PlausibilityAssessor) Dimension() models.Dimension {
	return models.DimensionPlausibility
}

// Assess 统计数值字段落在合理范围内的比例
func (a *PlausibilityAssessor) Assess(dataset *models.Dataset, standard *models.Standard) (float64, []models.FailedCheck, error) {
	weight := standard.Weight(models.DimensionPlausibility)
	if dataset.RowCount() == 0 {
		return weight, nil, nil
	}

	checked := 0
	inRange := 0
	var failed []models.FailedCheck

	for _, name := range sortedFieldNames(standard.FieldRequirements) {
		req := standard.FieldRequirements[name]
		if req.PlausibleMin == nil && req.PlausibleMax == nil {
			continue
		}
		if req.PlausibleMin != nil && req.PlausibleMax != nil && *req.PlausibleMin > *req.PlausibleMax {
			return 0, nil, &MalformedRequirementError{
				Dimension: models.DimensionPlausibility,
				Field:     name,
				Reason:    fmt.Sprintf("合理范围下界 %f 大于上界 %f", *req.PlausibleMin, *req.PlausibleMax),
			}
		}
		column := dataset.Column(name)
		if column == nil {
			failed = append(failed, models.FailedCheck{
				Field:     name,
				Dimension: models.DimensionPlausibility,
				Reason:    "数据集中缺少该字段",
			})
			continue
		}

		outliers := 0
		for _, v := range column.Values {
			if models.IsNull(v) {
				continue
			}
			f, err := cast.ToFloat64E(v)
			if err != nil {
				// 非数值由有效性维度负责
				continue
			}
			checked++
			if (req.PlausibleMin == nil || f >= *req.PlausibleMin) &&
				(req.PlausibleMax == nil || f <= *req.PlausibleMax) {
				inRange++
			} else {
				outliers++
			}
		}
		if outliers > 0 {
			failed = append(failed, models.FailedCheck{
				Field:     name,
				Dimension: models.DimensionPlausibility,
				Reason:    fmt.Sprintf("%d 个值超出合理范围", outliers),
			})
		}
	}

	return ratioScore(inRange, checked, weight), failed, nil
}
