/*
 * @module service/scheduler/task_runner
 * @description 评估任务执行器，加载数据集、解析标准、执行评估并回写任务状态
 * @architecture 分层架构 - 调度执行层
 * @documentReference dev_docs/assessment_design.md
 * @stateFlow 加载数据集 -> 字段裁剪 -> 守护评估 -> 审计留痕 -> 回写任务状态
 * @rules 任务级min_score覆盖标准阈值；target_fields为空时评估全部字段
 * @dependencies gorm.io/gorm, client/connectors, service/assessment
 * @refs service/scheduler/assessment_scheduler.go
 */

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dataguard-service/client/connectors"
	"dataguard-service/service/assessment"
	"dataguard-service/service/metrics"
	"dataguard-service/service/models"

	"gorm.io/gorm"
)

// TaskRunner 评估任务执行器
type TaskRunner struct {
	db       *gorm.DB
	registry *connectors.Registry
	engine   *assessment.AssessmentEngine
	cache    *assessment.FingerprintCache
	resolver assessment.StandardResolver
	recorder assessment.ResultRecorder
}

// NewTaskRunner 创建评估任务执行器
func NewTaskRunner(db *gorm.DB, registry *connectors.Registry, engine *assessment.AssessmentEngine,
	cache *assessment.FingerprintCache, resolver assessment.StandardResolver, recorder assessment.ResultRecorder) *TaskRunner {
	return &TaskRunner{
		db:       db,
		registry: registry,
		engine:   engine,
		cache:    cache,
		resolver: resolver,
		recorder: recorder,
	}
}

// Run 执行一次评估任务
func (r *TaskRunner) Run(ctx context.Context, task *models.AssessmentTask) (*models.AssessmentResult, error) {
	start := time.Now()
	slog.Info("开始执行评估任务", "task_id", task.ID, "name", task.Name, "standard", task.StandardName)

	dataset, err := r.registry.LoadDataset(ctx, task.SourceConfig)
	if err != nil {
		r.finishTask(task, 0, "error")
		return nil, fmt.Errorf("加载数据集失败: %w", err)
	}
	dataset = selectFields(dataset, task.TargetFields)

	config := assessment.GuardConfig{
		StandardName:    task.StandardName,
		StandardVersion: task.StandardVersion,
		OnFailure:       models.PolicyContinue,
		AutoGenerate:    true,
	}
	if task.MinScore > 0 {
		minScore := task.MinScore
		config.MinScore = &minScore
	}

	// 定时任务的"被守护操作"只回写任务状态，评估与留痕由守护器统一处理
	guard, err := assessment.NewProtectionGuard(
		func(_ context.Context, _ *models.Dataset) (interface{}, error) { return nil, nil },
		config, r.engine, r.cache, r.resolver, r.recorder)
	if err != nil {
		r.finishTask(task, 0, "error")
		return nil, err
	}

	outcome, err := guard.Invoke(ctx, dataset)
	if err != nil {
		r.finishTask(task, 0, "error")
		return nil, fmt.Errorf("评估任务执行失败: %w", err)
	}

	status := "passed"
	if outcome.Decision != models.GuardAllowed {
		status = "failed"
	}
	r.finishTask(task, outcome.Result.OverallScore, status)
	metrics.ObserveAssessment(outcome.Result, outcome.Decision)

	slog.Info("评估任务执行完成",
		"task_id", task.ID,
		"overall_score", outcome.Result.OverallScore,
		"status", status,
		"duration", time.Since(start))
	return outcome.Result, nil
}

// finishTask 回写任务的最近执行状态
func (r *TaskRunner) finishTask(task *models.AssessmentTask, score float64, status string) {
	now := time.Now()
	updates := map[string]interface{}{
		"last_run_at": now,
		"last_score":  score,
		"last_status": status,
		"updated_at":  now,
	}
	if err := r.db.Model(&models.AssessmentTask{}).Where("id = ?", task.ID).Updates(updates).Error; err != nil {
		slog.Error("回写任务状态失败", "task_id", task.ID, "error", err)
	}
}

// selectFields 裁剪数据集到目标字段，fields为空时返回原数据集
// 目标字段中不存在的列保留缺位，由完备性维度报缺失
func selectFields(dataset *models.Dataset, fields []string) *models.Dataset {
	if len(fields) == 0 {
		return dataset
	}

	columns := make([]models.Column, 0, len(fields))
	for _, name := range fields {
		if col := dataset.Column(name); col != nil {
			columns = append(columns, *col)
		}
	}
	return &models.Dataset{Columns: columns}
}
