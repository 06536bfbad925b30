/*
 * @module service/scheduler/assessment_scheduler
 * @description 质量评估任务调度器，负责任务的定时调度和执行
 * @architecture 分层架构 - 调度层
 * @documentReference dev_docs/assessment_design.md
 * @stateFlow 启动调度器 -> 加载任务 -> 定时检查 -> 分布式锁保护下触发执行
 * @rules 支持cron、interval、once、manual四种调度类型，支持分布式锁
 * @dependencies github.com/robfig/cron/v3, service/distributed_lock
 * @refs service/scheduler/task_runner.go
 */

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dataguard-service/service/distributed_lock"
	"dataguard-service/service/models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// AssessmentScheduler 质量评估任务调度器
type AssessmentScheduler struct {
	db              *gorm.DB
	runner          *TaskRunner
	cron            *cron.Cron
	intervalTicker  *time.Ticker
	ctx             context.Context
	cancel          context.CancelFunc
	started         bool
	distributedLock distributed_lock.DistributedLock
}

// NewAssessmentScheduler 创建质量评估任务调度器
func NewAssessmentScheduler(db *gorm.DB, runner *TaskRunner) *AssessmentScheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &AssessmentScheduler{
		db:     db,
		runner: runner,
		cron:   cron.New(cron.WithSeconds()),
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetDistributedLock 设置分布式锁
func (s *AssessmentScheduler) SetDistributedLock(lock distributed_lock.DistributedLock) {
	s.distributedLock = lock
	if lock != nil {
		slog.Info("评估任务调度器已启用分布式锁")
	}
}

// Start 启动调度器
func (s *AssessmentScheduler) Start() error {
	if s.started {
		return fmt.Errorf("调度器已经启动")
	}

	slog.Info("启动质量评估任务调度器")

	s.cron.Start()

	// 间隔任务检查器，每分钟检查一次
	s.intervalTicker = time.NewTicker(1 * time.Minute)
	go s.runIntervalChecker()

	if err := s.loadScheduledTasks(); err != nil {
		slog.Error("加载评估调度任务失败", "error", err)
		return err
	}

	s.started = true
	slog.Info("质量评估任务调度器启动完成")
	return nil
}

// Stop 停止调度器
func (s *AssessmentScheduler) Stop() {
	if !s.started {
		return
	}

	slog.Info("停止质量评估任务调度器")

	s.cancel()
	s.cron.Stop()
	if s.intervalTicker != nil {
		s.intervalTicker.Stop()
	}

	s.started = false
	slog.Info("质量评估任务调度器已停止")
}

// loadScheduledTasks 加载调度任务
func (s *AssessmentScheduler) loadScheduledTasks() error {
	var tasks []models.AssessmentTask
	err := s.db.Where("is_enabled = ? AND schedule_type IN (?, ?, ?)", true, "cron", "interval", "once").
		Find(&tasks).Error
	if err != nil {
		return fmt.Errorf("获取调度任务失败: %w", err)
	}

	slog.Info("找到评估调度任务", "count", len(tasks))

	successCount := 0
	failedCount := 0
	for _, task := range tasks {
		if err := s.addTaskToScheduler(&task); err != nil {
			slog.Error("添加任务到调度器失败", "task_id", task.ID, "error", err)
			failedCount++
		} else {
			successCount++
		}
	}

	slog.Info("评估调度任务加载完成", "total", len(tasks), "success", successCount, "failed", failedCount)
	return nil
}

// addTaskToScheduler 添加任务到调度器
func (s *AssessmentScheduler) addTaskToScheduler(task *models.AssessmentTask) error {
	switch task.ScheduleType {
	case "cron":
		if task.CronExpr == "" {
			return fmt.Errorf("cron任务缺少表达式")
		}

		taskID := task.ID
		_, err := s.cron.AddFunc(task.CronExpr, func() {
			s.executeScheduledTask(taskID)
		})
		if err != nil {
			slog.Error("添加cron任务失败",
				"task_id", task.ID,
				"cron_expr", task.CronExpr,
				"error", err,
				"help", "cron表达式需要6个字段（秒 分 时 日 月 周），例如：0 */5 * * * *（每5分钟）")
			return fmt.Errorf("添加cron任务失败: %w", err)
		}

		slog.Info("添加cron任务成功", "task_id", task.ID, "cron_expr", task.CronExpr)

	case "interval":
		if task.IntervalSeconds <= 0 {
			return fmt.Errorf("间隔任务的间隔时间必须大于0")
		}
		slog.Info("添加间隔任务成功", "task_id", task.ID, "interval_seconds", task.IntervalSeconds)

	case "once":
		if task.ScheduledAt == nil || !task.ScheduledAt.After(time.Now()) {
			slog.Warn("单次任务缺少计划时间或时间已过期", "task_id", task.ID)
			return nil
		}

		taskID := task.ID
		waitDuration := time.Until(*task.ScheduledAt)
		go func() {
			timer := time.NewTimer(waitDuration)
			defer timer.Stop()

			select {
			case <-timer.C:
				s.executeScheduledTask(taskID)
			case <-s.ctx.Done():
				slog.Warn("单次任务被取消（调度器关闭）", "task_id", taskID)
			}
		}()

		slog.Info("添加单次任务成功", "task_id", task.ID, "wait_duration", waitDuration)

	case "manual":
		// 手动任务仅经API触发，不进调度器

	default:
		return fmt.Errorf("不支持的调度类型: %s", task.ScheduleType)
	}

	return nil
}

// runIntervalChecker 运行间隔任务检查器
func (s *AssessmentScheduler) runIntervalChecker() {
	for {
		select {
		case <-s.intervalTicker.C:
			s.checkIntervalTasks()
		case <-s.ctx.Done():
			return
		}
	}
}

// checkIntervalTasks 检查到期的间隔任务
func (s *AssessmentScheduler) checkIntervalTasks() {
	var tasks []models.AssessmentTask
	now := time.Now()

	err := s.db.Where("is_enabled = ? AND schedule_type = ? AND (next_run_at IS NULL OR next_run_at <= ?)",
		true, "interval", now).
		Find(&tasks).Error
	if err != nil {
		slog.Error("获取间隔任务失败", "error", err)
		return
	}

	for _, task := range tasks {
		slog.Info("间隔任务达到执行时间，准备执行",
			"task_id", task.ID,
			"name", task.Name,
			"next_run_at", task.NextRunAt)
		go s.executeScheduledTask(task.ID)
	}
}

// executeScheduledTask 执行调度任务（带分布式锁）
func (s *AssessmentScheduler) executeScheduledTask(taskID string) {
	if s.distributedLock != nil {
		lockKey := fmt.Sprintf("assessment_task:%s", taskID)
		lockTTL := 30 * time.Minute

		locked, err := s.distributedLock.TryLock(s.ctx, lockKey, lockTTL)
		if err != nil {
			slog.Error("获取分布式锁失败", "task_id", taskID, "error", err)
			return
		}
		if !locked {
			slog.Warn("任务正在其他实例执行，跳过", "task_id", taskID)
			return
		}
		defer func() {
			if unlockErr := s.distributedLock.Unlock(s.ctx, lockKey); unlockErr != nil {
				slog.Error("释放分布式锁失败", "task_id", taskID, "error", unlockErr)
			}
		}()
	}

	var task models.AssessmentTask
	if err := s.db.First(&task, "id = ?", taskID).Error; err != nil {
		slog.Error("获取评估任务失败", "task_id", taskID, "error", err)
		return
	}

	if !task.IsEnabled {
		slog.Warn("任务已禁用，跳过执行", "task_id", taskID)
		return
	}

	if _, err := s.runner.Run(s.ctx, &task); err != nil {
		slog.Error("评估任务执行失败", "task_id", taskID, "error", err)
	}

	if err := s.updateNextRunAt(&task); err != nil {
		slog.Error("更新下次执行时间失败", "task_id", taskID, "error", err)
	}
}

// TriggerTask 手动触发一次任务执行
func (s *AssessmentScheduler) TriggerTask(ctx context.Context, taskID string) (*models.AssessmentResult, error) {
	var task models.AssessmentTask
	if err := s.db.First(&task, "id = ?", taskID).Error; err != nil {
		return nil, fmt.Errorf("获取评估任务失败: %w", err)
	}
	return s.runner.Run(ctx, &task)
}

// updateNextRunAt 更新间隔任务的下次执行时间
func (s *AssessmentScheduler) updateNextRunAt(task *models.AssessmentTask) error {
	if task.ScheduleType != "interval" {
		return nil
	}

	next := time.Now().Add(time.Duration(task.IntervalSeconds) * time.Second)
	return s.db.Model(&models.AssessmentTask{}).Where("id = ?", task.ID).
		Update("next_run_at", next).Error
}

// ReloadScheduledTasks 重新加载调度任务
// cron库不支持按ID移除任务，任务增删后整体重建
func (s *AssessmentScheduler) ReloadScheduledTasks() error {
	s.cron.Stop()
	s.cron = cron.New(cron.WithSeconds())
	s.cron.Start()

	return s.loadScheduledTasks()
}
