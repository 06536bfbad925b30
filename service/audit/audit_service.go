/*
 * @module service/audit/audit_service
 * @description 评估审计服务，将每次评估结果持久化为审计记录，并可选发布到Kafka与文件汇
 * @architecture 分层架构 - 审计服务层
 * @documentReference dev_docs/assessment_design.md
 * @stateFlow 评估完成 -> 记录构造 -> 数据库写入 -> 可选消息发布/文件追加
 * @rules 审计写入失败只记日志不影响守护器决策；任何评估都必须留痕
 * @dependencies gorm.io/gorm, log/slog
 * @refs service/assessment/guard.go, service/models/assessment_models.go
 */

package audit

import (
	"encoding/json"
	"log/slog"

	"gorm.io/gorm"

	"dataguard-service/service/models"
)

// Sink 审计结果的额外输出汇
type Sink interface {
	Write(record *models.AssessmentRecord) error
}

// AuditService 评估审计服务，实现assessment.ResultRecorder
type AuditService struct {
	db    *gorm.DB
	sinks []Sink
}

// NewAuditService 创建审计服务实例
func NewAuditService(db *gorm.DB, sinks ...Sink) *AuditService {
	return &AuditService{db: db, sinks: sinks}
}

// Record 持久化一次评估结果
func (s *AuditService) Record(result *models.AssessmentResult, decision models.GuardDecision, fingerprint string) {
	record := buildRecord(result, decision, fingerprint)

	if s.db != nil {
		if err := s.db.Create(record).Error; err != nil {
			slog.Error("评估审计记录写入失败", "standard", result.StandardName, "error", err)
		}
	}

	for _, sink := range s.sinks {
		if err := sink.Write(record); err != nil {
			slog.Error("评估审计汇写入失败", "error", err)
		}
	}
}

// List 分页查询审计记录，standardName为空时不过滤
func (s *AuditService) List(standardName string, page, size int) ([]models.AssessmentRecord, int64, error) {
	query := s.db.Model(&models.AssessmentRecord{})
	if standardName != "" {
		query = query.Where("standard_name = ?", standardName)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []models.AssessmentRecord
	err := query.Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&records).Error
	return records, total, err
}

// buildRecord 将评估结果转换为审计记录
func buildRecord(result *models.AssessmentResult, decision models.GuardDecision, fingerprint string) *models.AssessmentRecord {
	record := &models.AssessmentRecord{
		StandardName:    result.StandardName,
		StandardVersion: result.StandardVersion,
		Fingerprint:     fingerprint,
		OverallScore:    result.OverallScore,
		Passed:          result.Passed,
		Decision:        string(decision),
		RowCount:        result.RowCount,
		Duration:        result.Duration.Milliseconds(),
		AssessedAt:      result.AssessedAt,
	}

	record.DimensionScores = models.JSONB{
		"validity":     result.DimensionScores.Validity,
		"completeness": result.DimensionScores.Completeness,
		"consistency":  result.DimensionScores.Consistency,
		"freshness":    result.DimensionScores.Freshness,
		"plausibility": result.DimensionScores.Plausibility,
	}

	checks := make(models.JSONBArray, 0, len(result.FailedChecks))
	for _, check := range result.FailedChecks {
		checks = append(checks, models.JSONB{
			"field":     check.Field,
			"dimension": string(check.Dimension),
			"reason":    check.Reason,
		})
	}
	record.FailedChecks = checks

	if data, err := json.Marshal(result.FieldAnalysis); err == nil {
		var analysis models.JSONB
		if err := json.Unmarshal(data, &analysis); err == nil {
			record.FieldAnalysis = analysis
		}
	}
	return record
}
