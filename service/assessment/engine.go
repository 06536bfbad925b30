/*
 * @module service/assessment/engine
 * @description 质量评估引擎，编排五个维度评估器，聚合维度得分并生成字段级分析报告
 * @architecture 分层架构 - 评估服务层
 * @documentReference dev_docs/assessment_design.md
 * @stateFlow 权重校验 -> 逐维度独立评估 -> 得分聚合 -> 字段分析 -> 结果产出
 * @rules 维度评估相互独立，顺序不影响结果；单个评估器的错误或panic转化为该维度
 *        零分加失败检查项，不中断其余维度；总分等于各维度得分之和
 * @dependencies service/models, log/slog
 * @refs service/assessment/assessor.go, service/assessment/cache.go
 */

package assessment

import (
	"fmt"
	"log/slog"
	"time"

	"dataguard-service/service/models"
)

// AssessmentEngine 质量评估引擎
type AssessmentEngine struct {
	assessors []DimensionAssessor
	profiler  *DataProfiler
}

// NewAssessmentEngine 创建使用内置五维度评估器的引擎
func NewAssessmentEngine() *AssessmentEngine {
	return NewAssessmentEngineWithAssessors(DefaultAssessors())
}

// NewAssessmentEngineWithAssessors 创建使用指定评估器列表的引擎
func NewAssessmentEngineWithAssessors(assessors []DimensionAssessor) *AssessmentEngine {
	return &AssessmentEngine{
		assessors: assessors,
		profiler:  NewDataProfiler(),
	}
}

// Assess 对数据集按标准执行五维度质量评估
// 对不变的输入重复调用返回逐位相同的得分
func (e *AssessmentEngine) Assess(dataset *models.Dataset, standard *models.Standard) (*models.AssessmentResult, error) {
	if err := dataset.Validate(); err != nil {
		return nil, fmt.Errorf("数据集校验失败: %w", err)
	}
	if err := standard.ValidateWeights(); err != nil {
		return nil, fmt.Errorf("标准权重校验失败: %w", err)
	}

	startTime := time.Now()
	result := &models.AssessmentResult{
		FailedChecks:    make([]models.FailedCheck, 0),
		FieldAnalysis:   make(map[string]models.FieldAnalysis),
		StandardName:    standard.Meta.Name,
		StandardVersion: standard.Meta.Version,
		RowCount:        dataset.RowCount(),
		AssessedAt:      startTime,
	}

	for _, assessor := range e.assessors {
		dim := assessor.Dimension()
		score, failed := e.runAssessor(assessor, dataset, standard)
		result.DimensionScores.Set(dim, score)
		result.FailedChecks = append(result.FailedChecks, failed...)
	}

	result.OverallScore = result.DimensionScores.Sum()
	result.Passed = result.OverallScore >= standard.OverallMinimum
	result.FieldAnalysis = e.buildFieldAnalysis(dataset, standard)
	result.Duration = time.Since(startTime)
	return result, nil
}

// runAssessor 执行单个维度评估，错误与panic降级为该维度零分
func (e *AssessmentEngine) runAssessor(assessor DimensionAssessor, dataset *models.Dataset, standard *models.Standard) (score float64, failed []models.FailedCheck) {
	dim := assessor.Dimension()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("维度评估器异常，该维度降级为零分", "dimension", dim, "panic", r)
			score = 0
			failed = []models.FailedCheck{{
				Dimension: dim,
				Reason:    fmt.Sprintf("维度评估器异常: %v", r),
			}}
		}
	}()

	score, failed, err := assessor.Assess(dataset, standard)
	if err != nil {
		slog.Warn("维度评估失败，该维度降级为零分", "dimension", dim, "error", err)
		return 0, []models.FailedCheck{{
			Dimension: dim,
			Reason:    err.Error(),
		}}
	}
	return score, failed
}

// buildFieldAnalysis 生成字段级观测值与要求值的对照
func (e *AssessmentEngine) buildFieldAnalysis(dataset *models.Dataset, standard *models.Standard) map[string]models.FieldAnalysis {
	profile := e.profiler.Profile(dataset)
	analysis := make(map[string]models.FieldAnalysis, len(standard.FieldRequirements))

	for _, name := range sortedFieldNames(standard.FieldRequirements) {
		req := standard.FieldRequirements[name]
		required := models.JSONB{
			"type":     string(req.Type),
			"nullable": req.Nullable,
		}
		if req.Pattern != "" {
			required["pattern"] = req.Pattern
		}
		if req.PlausibleMin != nil {
			required["plausible_min"] = *req.PlausibleMin
		}
		if req.PlausibleMax != nil {
			required["plausible_max"] = *req.PlausibleMax
		}
		if req.Unique {
			required["unique"] = true
		}
		if req.References != "" {
			required["references"] = req.References
		}
		if req.MaxAgeHours != nil {
			required["max_age_hours"] = *req.MaxAgeHours
		}

		observed := models.JSONB{}
		if field := profile.Field(name); field != nil {
			observed["type"] = string(field.Type)
			observed["null_count"] = field.NullCount
			observed["unique_count"] = field.UniqueCount
			if field.Min != nil {
				observed["min"] = *field.Min
			}
			if field.Max != nil {
				observed["max"] = *field.Max
			}
			if field.Pattern != "" {
				observed["pattern"] = string(field.Pattern)
			}
		} else {
			observed["missing"] = true
		}

		analysis[name] = models.FieldAnalysis{Observed: observed, Required: required}
	}
	return analysis
}
