/*
 * @module service/assessment/completeness
 * @description 完整性维度评估器，统计必填字段的缺失值比例
 * @architecture 分层架构 - 评估服务层
 * @documentReference dev_docs/assessment_design.md
 * @stateFlow 收集必填字段 -> 统计缺失值 -> 非缺失比例缩放到维度权重
 * @rules 零行数据集完整性得分为0（没有数据即没有满足必填要求的依据），
 *        这是与其他维度相反的边界约定，下游报表依赖该约定
 * @dependencies service/models
 * @refs service/assessment/assessor.go, service/assessment/engine.go
 */

package assessment

import (
	"fmt"

	"dataguard-service/service/models"
)

// CompletenessAssessor 完整性维度评估器
type CompletenessAssessor struct{}

// NewCompletenessAssessor 创建完整性评估器
func NewCompletenessAssessor() *CompletenessAssessor {
	return &CompletenessAssessor{}
}

// Dimension 返回所属维度
func (a *CompletenessAssessor) Dimension() models.Dimension {
	return models.DimensionCompleteness
}

// Assess 统计必填字段的非缺失比例
func (a *CompletenessAssessor) Assess(dataset *models.Dataset, standard *models.Standard) (float64, []models.FailedCheck, error) {
	weight := standard.Weight(models.DimensionCompleteness)
	if dataset.RowCount() == 0 {
		// 零行数据集：无数据可满足必填要求，完整性为0
		return 0, []models.FailedCheck{{
			Dimension: models.DimensionCompleteness,
			Reason:    "数据集为空，无法满足必填字段要求",
		}}, nil
	}

	total := 0
	present := 0
	var failed []models.FailedCheck

	for _, name := range sortedFieldNames(standard.FieldRequirements) {
		req := standard.FieldRequirements[name]
		if req.Nullable {
			continue
		}
		column := dataset.Column(name)
		if column == nil {
			failed = append(failed, models.FailedCheck{
				Field:     name,
				Dimension: models.DimensionCompleteness,
				Reason:    "数据集中缺少必填字段",
			})
			total += dataset.RowCount()
			continue
		}

		nulls := column.NullCount()
		total += len(column.Values)
		present += len(column.Values) - nulls
		if nulls > 0 {
			failed = append(failed, models.FailedCheck{
				Field:     name,
				Dimension: models.DimensionCompleteness,
				Reason:    fmt.Sprintf("必填字段存在 %d 个缺失值", nulls),
			})
		}
	}

	return ratioScore(present, total, weight), failed, nil
}
