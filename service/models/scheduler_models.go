/*
 * @module service/models/scheduler_models
 * @description 质量评估调度任务模型定义
 * @architecture 数据模型层
 * @documentReference dev_docs/model.md
 * @stateFlow 任务创建 -> 调度注册 -> 定时执行 -> 结果审计
 * @rules 支持cron、interval、once、manual四种调度类型
 * @dependencies gorm.io/gorm, github.com/google/uuid, github.com/lib/pq
 * @refs service/scheduler/assessment_scheduler.go
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// AssessmentTask 定时质量评估任务模型
type AssessmentTask struct {
	ID              string `gorm:"type:uuid;primary_key" json:"id"`
	Name            string `gorm:"not null" json:"name"`
	StandardName    string `gorm:"not null" json:"standard_name"`
	StandardVersion string `gorm:"not null" json:"standard_version"`
	// ScheduleType 调度类型: cron, interval, once, manual
	ScheduleType string `gorm:"type:varchar(20);not null" json:"schedule_type"`
	CronExpr     string `gorm:"type:varchar(100)" json:"cron_expr,omitempty"`
	// IntervalSeconds interval类型的执行间隔，秒
	IntervalSeconds int `json:"interval_seconds,omitempty"`
	// ScheduledAt once类型的计划执行时间
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	// SourceConfig 数据集来源配置（连接器类型与参数）
	SourceConfig JSONB `gorm:"type:jsonb" json:"source_config"`
	// TargetFields 为空时评估全部字段
	TargetFields pq.StringArray `gorm:"type:text[]" json:"target_fields"`
	// MinScore 任务级通过阈值覆盖，为0时使用标准中的阈值
	MinScore  float64    `json:"min_score,omitempty"`
	IsEnabled bool       `gorm:"not null;default:true" json:"is_enabled"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	NextRunAt *time.Time `json:"next_run_at,omitempty"`
	LastScore float64    `json:"last_score"`
	// LastStatus 最近一次执行状态: passed, failed, error
	LastStatus string    `gorm:"type:varchar(20)" json:"last_status"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName 指定表名
func (AssessmentTask) TableName() string {
	return "assessment_tasks"
}

// BeforeCreate 创建前钩子
func (t *AssessmentTask) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}
