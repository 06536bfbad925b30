/*
 * @module service/assessment/assessor
 * @description 维度评估器接口定义与公共辅助函数，五个维度评估器显式注入评估引擎
 * @architecture 分层架构 - 评估服务层，策略模式
 * @documentReference dev_docs/assessment_design.md
 * @stateFlow 评估引擎逐个调用维度评估器 -> 维度得分与失败检查项汇总
 * @rules 评估器之间无共享可变状态，维度得分落在[0,该维度权重]区间内
 * @dependencies service/models, sort
 * @refs service/assessment/engine.go
 */

package assessment

import (
	"sort"

	"dataguard-service/service/models"
)

// DimensionAssessor 单维度评估器接口
// 返回的得分已按该维度在标准中的权重缩放
type DimensionAssessor interface {
	// Dimension 返回评估器负责的质量维度
	Dimension() models.Dimension
	// Assess 对数据集按标准执行单维度评估
	Assess(dataset *models.Dataset, standard *models.Standard) (float64, []models.FailedCheck, error)
}

// DefaultAssessors 按固定顺序返回五个内置维度评估器
func DefaultAssessors() []DimensionAssessor {
	return []DimensionAssessor{
		NewValidityAssessor(),
		NewCompletenessAssessor(),
		NewConsistencyAssessor(),
		NewFreshnessAssessor(),
		NewPlausibilityAssessor(),
	}
}

// sortedFieldNames 按字典序返回字段要求的键，保证评估结果可复现
func sortedFieldNames(requirements map[string]models.FieldRequirement) []string {
	names := make([]string, 0, len(requirements))
	for name := range requirements {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ratioScore 将符合比例缩放到维度权重
func ratioScore(conforming, total int, weight float64) float64 {
	if total == 0 {
		return weight
	}
	return float64(conforming) / float64(total) * weight
}
