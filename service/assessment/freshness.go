/*
 * @module service/assessment/freshness
 * @description 新鲜度维度评估器，对声明了最大陈旧时长的时间字段检查数据时效
 * @architecture 分层架构 - 评估服务层
 * @documentReference dev_docs/assessment_design.md
 * @stateFlow 收集带MaxAgeHours的字段 -> 逐行计算数据年龄 -> 未过期比例缩放到维度权重
 * @rules 没有任何新鲜度字段的数据集获得满分（新鲜度约束被空满足，这是明确的边界策略）；
 *        无法解析为时间的值计入过期；缺失的时间列整列计入过期
 * @dependencies service/models, time
 * @refs service/assessment/assessor.go
 */

package assessment

import (
	"fmt"
	"time"

	"dataguard-service/service/models"
)

// FreshnessAssessor 新鲜度维度评估器
type FreshnessAssessor struct {
	// now 可注入的时钟，便于测试
	now func() time.Time
}

// NewFreshnessAssessor 创建使用系统时钟的新鲜度评估器
func NewFreshnessAssessor() *FreshnessAssessor {
	return &FreshnessAssessor{now: time.Now}
}

// NewFreshnessAssessorWithClock 创建使用指定时钟的新鲜度评估器
func NewFreshnessAssessorWithClock(now func() time.Time) *FreshnessAssessor {
	return &FreshnessAssessor{now: now}
}

// Dimension 返回所属维度
func (a *FreshnessAssessor) Dimension() models.Dimension {
	return models.DimensionFreshness
}

// Assess 统计时间字段在陈旧度界限内的比例
func (a *FreshnessAssessor) Assess(dataset *models.Dataset, standard *models.Standard) (float64, []models.FailedCheck, error) {
	weight := standard.Weight(models.DimensionFreshness)
	if dataset.RowCount() == 0 {
		return weight, nil, nil
	}

	reference := a.now()
	checked := 0
	fresh := 0
	var failed []models.FailedCheck

	for _, name := range sortedFieldNames(standard.FieldRequirements) {
		req := standard.FieldRequirements[name]
		if req.MaxAgeHours == nil {
			continue
		}
		if *req.MaxAgeHours <= 0 {
			return 0, nil, &MalformedRequirementError{
				Dimension: models.DimensionFreshness,
				Field:     name,
				Reason:    fmt.Sprintf("最大陈旧时长必须为正数: %f", *req.MaxAgeHours),
			}
		}
		column := dataset.Column(name)
		if column == nil {
			// 缺失的时间列整列计入过期，与完整性对缺失必填列的处理一致
			checked += dataset.RowCount()
			failed = append(failed, models.FailedCheck{
				Field:     name,
				Dimension: models.DimensionFreshness,
				Reason:    "数据集中缺少该时间字段",
			})
			continue
		}

		stale := 0
		for _, v := range column.Values {
			if models.IsNull(v) {
				continue
			}
			checked++
			t, ok := ParseDate(v)
			if !ok {
				stale++
				continue
			}
			age := reference.Sub(t).Hours()
			if age <= *req.MaxAgeHours {
				fresh++
			} else {
				stale++
			}
		}
		if stale > 0 {
			failed = append(failed, models.FailedCheck{
				Field:     name,
				Dimension: models.DimensionFreshness,
				Reason:    fmt.Sprintf("%d 个值超出最大陈旧时长 %.1f 小时", stale, *req.MaxAgeHours),
			})
		}
	}

	// 没有新鲜度字段或没有可检查的值时，新鲜度被空满足
	return ratioScore(fresh, checked, weight), failed, nil
}
