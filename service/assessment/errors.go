/*
 * @module service/assessment/errors
 * @description 质量评估错误类型定义，覆盖标准生成、标准解析、维度要求和质量门阻断等错误场景
 * @architecture 分层架构 - 评估服务层
 * @documentReference dev_docs/assessment_design.md
 * @stateFlow 局部错误降级为得分惩罚 / 标准解析错误与质量门阻断上抛给调用方
 * @rules 任何降级计算都必须在返回结果中留下痕迹，不允许静默丢弃
 * @dependencies fmt, errors
 * @refs service/assessment/engine.go, service/assessment/guard.go
 */

package assessment

import (
	"errors"
	"fmt"

	"dataguard-service/service/models"
)

// StandardGenerationError 标准生成失败，例如维度权重不变式被破坏
type StandardGenerationError struct {
	Reason string
}

func (e *StandardGenerationError) Error() string {
	return fmt.Sprintf("标准生成失败: %s", e.Reason)
}

// StandardNotFoundError 标准解析失败，守护器在禁止自动生成时上抛该错误
type StandardNotFoundError struct {
	Name    string
	Version string
}

func (e *StandardNotFoundError) Error() string {
	return fmt.Sprintf("标准 %s@%s 不存在", e.Name, e.Version)
}

// MalformedRequirementError 维度要求不合法，仅影响单个维度的得分
type MalformedRequirementError struct {
	Dimension models.Dimension
	Field     string
	Reason    string
}

func (e *MalformedRequirementError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("维度 %s 字段 %s 的要求不合法: %s", e.Dimension, e.Field, e.Reason)
	}
	return fmt.Sprintf("维度 %s 的要求不合法: %s", e.Dimension, e.Reason)
}

// QualityGateError 质量门阻断，携带完整评估结果供诊断使用
// 对应守护器的BLOCKED终态，不会自动重试
type QualityGateError struct {
	Result   *models.AssessmentResult
	MinScore float64
}

func (e *QualityGateError) Error() string {
	return fmt.Sprintf("数据质量未达标，操作已阻断: 总分 %.2f 低于阈值 %.2f", e.Result.OverallScore, e.MinScore)
}

// IsQualityGateError 判断错误是否为质量门阻断
func IsQualityGateError(err error) (*QualityGateError, bool) {
	var gateErr *QualityGateError
	if errors.As(err, &gateErr) {
		return gateErr, true
	}
	return nil, false
}
