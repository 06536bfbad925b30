/*
 * @module service/assessment/guard
 * @description 质量守护器，包装业务操作，先评估数据质量再按策略决定执行、告警或阻断
 * @architecture 分层架构 - 评估服务层，显式高阶包装
 * @documentReference dev_docs/assessment_design.md
 * @stateFlow UNASSESSED -> 标准解析(可自动生成) -> ASSESSING -> ALLOWED/WARNED/BLOCKED
 * @rules 三个终态均不自动重试，阻断是明确上报的失败而非瞬态错误；
 *        每次调用的评估结果无论终态如何都交给记录器留痕
 * @dependencies service/models, log/slog
 * @refs service/assessment/engine.go, service/assessment/cache.go, service/standards/repository.go
 */

package assessment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dataguard-service/service/models"
)

// StandardResolver 标准解析接口，由外部标准仓库实现
type StandardResolver interface {
	// Resolve 按名称与版本解析标准，版本为空时取最新版本
	// 未找到时返回StandardNotFoundError
	Resolve(name, version string) (*models.Standard, error)
	// Save 持久化标准，自动生成的标准经此写回供后续调用复用
	Save(standard *models.Standard, autoGenerated bool) error
}

// ResultRecorder 评估结果记录接口，由审计服务实现
type ResultRecorder interface {
	Record(result *models.AssessmentResult, decision models.GuardDecision, fingerprint string)
}

// GuardedOperation 被守护的业务操作
type GuardedOperation func(ctx context.Context, dataset *models.Dataset) (interface{}, error)

// GuardConfig 守护器配置
type GuardConfig struct {
	// StandardName 显式标准引用，留空时按数据集自动生成的默认名使用
	StandardName    string `json:"standard"`
	StandardVersion string `json:"standard_version,omitempty"`
	// MinScore 调用方覆盖的通过阈值，nil时使用标准中的overall_minimum
	MinScore *float64 `json:"min_score,omitempty"`
	// OnFailure 未通过时的策略: raise, warn, continue
	OnFailure models.FailurePolicy `json:"on_failure"`
	// AutoGenerate 标准不存在时是否按画像自动生成并持久化
	AutoGenerate bool `json:"auto_generate"`
}

// GuardOutcome 守护器单次调用的终态与产出
type GuardOutcome struct {
	Decision models.GuardDecision     `json:"decision"`
	Result   *models.AssessmentResult `json:"result"`
	// Value 被守护操作的返回值，仅在操作实际执行时填充
	Value interface{} `json:"value,omitempty"`
}

// ProtectionGuard 质量守护器
// 构造时接收被守护操作与配置，Invoke返回显式的终态结果
type ProtectionGuard struct {
	operation GuardedOperation
	config    GuardConfig
	engine    *AssessmentEngine
	cache     *FingerprintCache
	resolver  StandardResolver
	profiler  *DataProfiler
	generator *StandardGenerator
	recorder  ResultRecorder
}

// NewProtectionGuard 创建质量守护器
// cache为nil时每次调用直接评估；recorder为nil时不留审计痕迹
func NewProtectionGuard(operation GuardedOperation, config GuardConfig, engine *AssessmentEngine, cache *FingerprintCache, resolver StandardResolver, recorder ResultRecorder) (*ProtectionGuard, error) {
	if operation == nil {
		return nil, errors.New("被守护操作不能为空")
	}
	if engine == nil {
		return nil, errors.New("评估引擎不能为空")
	}
	if resolver == nil {
		return nil, errors.New("标准解析器不能为空")
	}
	switch config.OnFailure {
	case models.PolicyRaise, models.PolicyWarn, models.PolicyContinue:
	case "":
		config.OnFailure = models.PolicyRaise
	default:
		return nil, fmt.Errorf("不支持的失败策略: %s", config.OnFailure)
	}

	return &ProtectionGuard{
		operation: operation,
		config:    config,
		engine:    engine,
		cache:     cache,
		resolver:  resolver,
		profiler:  NewDataProfiler(),
		generator: NewStandardGenerator(),
		recorder:  recorder,
	}, nil
}

// Invoke 执行一次被守护调用
// BLOCKED终态返回QualityGateError并且不执行被守护操作
func (g *ProtectionGuard) Invoke(ctx context.Context, dataset *models.Dataset) (*GuardOutcome, error) {
	standard, err := g.resolveStandard(dataset)
	if err != nil {
		return nil, err
	}

	result, err := g.assess(ctx, dataset, standard)
	if err != nil {
		return nil, fmt.Errorf("质量评估失败: %w", err)
	}

	minScore := standard.OverallMinimum
	if g.config.MinScore != nil {
		minScore = *g.config.MinScore
	}
	passed := result.OverallScore >= minScore

	fingerprint := Fingerprint(dataset, standard)
	if passed {
		return g.allow(ctx, dataset, result, fingerprint)
	}

	switch g.config.OnFailure {
	case models.PolicyRaise:
		g.record(result, models.GuardBlocked, fingerprint)
		slog.Error("数据质量未达标，操作已阻断",
			"standard", standard.Key(),
			"overall_score", result.OverallScore,
			"min_score", minScore)
		return &GuardOutcome{Decision: models.GuardBlocked, Result: result},
			&QualityGateError{Result: result, MinScore: minScore}
	case models.PolicyWarn:
		slog.Warn("数据质量未达标，按warn策略继续执行",
			"standard", standard.Key(),
			"overall_score", result.OverallScore,
			"min_score", minScore)
		return g.proceed(ctx, dataset, result, models.GuardWarned, fingerprint)
	default: // continue
		return g.proceed(ctx, dataset, result, models.GuardWarned, fingerprint)
	}
}

// resolveStandard 解析标准，允许时自动生成并持久化
func (g *ProtectionGuard) resolveStandard(dataset *models.Dataset) (*models.Standard, error) {
	name := g.config.StandardName
	if name == "" {
		name = "auto-generated"
	}

	standard, err := g.resolver.Resolve(name, g.config.StandardVersion)
	if err == nil {
		return standard, nil
	}

	var notFound *StandardNotFoundError
	if !errors.As(err, &notFound) {
		return nil, fmt.Errorf("标准解析失败: %w", err)
	}
	if !g.config.AutoGenerate {
		return nil, err
	}

	profile := g.profiler.Profile(dataset)
	generated, genErr := g.generator.Generate(profile, name)
	if genErr != nil {
		return nil, genErr
	}
	if saveErr := g.resolver.Save(generated, true); saveErr != nil {
		return nil, fmt.Errorf("自动生成标准持久化失败: %w", saveErr)
	}
	slog.Info("标准不存在，已按数据集画像自动生成", "standard", generated.Key())
	return generated, nil
}

// assess 经缓存（或直接）执行评估
func (g *ProtectionGuard) assess(ctx context.Context, dataset *models.Dataset, standard *models.Standard) (*models.AssessmentResult, error) {
	if g.cache == nil {
		return g.engine.Assess(dataset, standard)
	}
	return g.cache.GetOrCompute(ctx, dataset, standard, func() (*models.AssessmentResult, error) {
		return g.engine.Assess(dataset, standard)
	})
}

func (g *ProtectionGuard) allow(ctx context.Context, dataset *models.Dataset, result *models.AssessmentResult, fingerprint string) (*GuardOutcome, error) {
	return g.proceed(ctx, dataset, result, models.GuardAllowed, fingerprint)
}

// proceed 执行被守护操作并返回终态
func (g *ProtectionGuard) proceed(ctx context.Context, dataset *models.Dataset, result *models.AssessmentResult, decision models.GuardDecision, fingerprint string) (*GuardOutcome, error) {
	g.record(result, decision, fingerprint)
	value, err := g.operation(ctx, dataset)
	if err != nil {
		return &GuardOutcome{Decision: decision, Result: result}, fmt.Errorf("被守护操作执行失败: %w", err)
	}
	return &GuardOutcome{Decision: decision, Result: result, Value: value}, nil
}

func (g *ProtectionGuard) record(result *models.AssessmentResult, decision models.GuardDecision, fingerprint string) {
	if g.recorder == nil {
		return
	}
	g.recorder.Record(result, decision, fingerprint)
}
