/*
 * @module service/models/assessment_models
 * @description 质量评估结果模型定义，包括维度得分、失败检查项、字段分析和评估审计记录
 * @architecture 数据模型层
 * @documentReference dev_docs/model.md
 * @stateFlow 评估执行 -> 结果生成 -> 审计持久化/消息发布
 * @rules 评估结果为命名字段结构以保持序列化兼容；维度得分之和在浮点容差内等于总分
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/assessment/engine.go, service/audit/audit_service.go
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DimensionScores 五个维度的得分，各自落在 [0, 对应权重] 区间内
type DimensionScores struct {
	Validity     float64 `json:"validity"`
	Completeness float64 `json:"completeness"`
	Consistency  float64 `json:"consistency"`
	Freshness    float64 `json:"freshness"`
	Plausibility float64 `json:"plausibility"`
}

// Get 按维度取得分
func (d DimensionScores) Get(dim Dimension) float64 {
	switch dim {
	case DimensionValidity:
		return d.Validity
	case DimensionCompleteness:
		return d.Completeness
	case DimensionConsistency:
		return d.Consistency
	case DimensionFreshness:
		return d.Freshness
	case DimensionPlausibility:
		return d.Plausibility
	}
	return 0
}

// Set 按维度写入得分
func (d *DimensionScores) Set(dim Dimension, score float64) {
	switch dim {
	case DimensionValidity:
		d.Validity = score
	case DimensionCompleteness:
		d.Completeness = score
	case DimensionConsistency:
		d.Consistency = score
	case DimensionFreshness:
		d.Freshness = score
	case DimensionPlausibility:
		d.Plausibility = score
	}
}

// Sum 返回五个维度得分之和
func (d DimensionScores) Sum() float64 {
	return d.Validity + d.Completeness + d.Consistency + d.Freshness + d.Plausibility
}

// FailedCheck 单项失败检查记录
type FailedCheck struct {
	Field     string    `json:"field,omitempty"`
	Dimension Dimension `json:"dimension"`
	Reason    string    `json:"reason"`
}

// FieldAnalysis 单字段的观测值与要求值对照
type FieldAnalysis struct {
	Observed JSONB `json:"observed"`
	Required JSONB `json:"required"`
}

// AssessmentResult 质量评估结果，每次评估新建，返回后不可变
type AssessmentResult struct {
	OverallScore    float64                  `json:"overall_score"`
	Passed          bool                     `json:"passed"`
	DimensionScores DimensionScores          `json:"dimension_scores"`
	FailedChecks    []FailedCheck            `json:"failed_checks"`
	FieldAnalysis   map[string]FieldAnalysis `json:"field_analysis"`
	StandardName    string                   `json:"standard_name"`
	StandardVersion string                   `json:"standard_version"`
	RowCount        int                      `json:"row_count"`
	AssessedAt      time.Time                `json:"assessed_at"`
	Duration        time.Duration            `json:"duration"`
}

// GuardDecision 质量守护器单次调用的终态
type GuardDecision string

const (
	GuardAllowed GuardDecision = "allowed"
	GuardWarned  GuardDecision = "warned"
	GuardBlocked GuardDecision = "blocked"
)

// FailurePolicy 评估未通过时的处理策略
type FailurePolicy string

const (
	// PolicyRaise 阻断执行并返回质量门失败
	PolicyRaise FailurePolicy = "raise"
	// PolicyWarn 记录警告日志后继续执行
	PolicyWarn FailurePolicy = "warn"
	// PolicyContinue 无条件继续执行，仅记录结果
	PolicyContinue FailurePolicy = "continue"
)

// AssessmentRecord 评估审计记录模型
type AssessmentRecord struct {
	ID              string     `gorm:"type:uuid;primary_key" json:"id"`
	StandardName    string     `gorm:"not null;index" json:"standard_name"`
	StandardVersion string     `gorm:"not null" json:"standard_version"`
	Fingerprint     string     `gorm:"type:varchar(64);index" json:"fingerprint"`
	OverallScore    float64    `json:"overall_score"`
	Passed          bool       `json:"passed"`
	Decision        string     `gorm:"type:varchar(20)" json:"decision"` // allowed, warned, blocked
	RowCount        int        `json:"row_count"`
	DimensionScores JSONB      `gorm:"type:jsonb" json:"dimension_scores"`
	FailedChecks    JSONBArray `gorm:"type:jsonb" json:"failed_checks"`
	FieldAnalysis   JSONB      `gorm:"type:jsonb" json:"field_analysis"`
	Duration        int64      `json:"duration"` // 评估耗时，毫秒
	AssessedAt      time.Time  `json:"assessed_at"`
	CreatedAt       time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (AssessmentRecord) TableName() string {
	return "assessment_records"
}

// BeforeCreate 创建前钩子
func (a *AssessmentRecord) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}
