/*
 * @module service/standards/repository
 * @description 质量标准仓库，提供标准的持久化、版本查询与守护器解析接口实现
 * @architecture 分层架构 - 存储服务层
 * @documentReference dev_docs/assessment_design.md
 * @stateFlow 标准写入 -> 按名称版本查询 -> 值对象还原 -> 权重校验
 * @rules 同名同版本的标准唯一；版本为空时解析最新启用版本；
 *        加载出的标准必须通过权重校验才交给评估引擎
 * @dependencies gorm.io/gorm, service/assessment
 * @refs service/assessment/guard.go, service/models/standard_models.go
 */

package standards

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"dataguard-service/service/assessment"
	"dataguard-service/service/models"
)

// Repository 质量标准仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建标准仓库实例
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Resolve 按名称与版本解析标准，实现assessment.StandardResolver
func (r *Repository) Resolve(name, version string) (*models.Standard, error) {
	var record models.StandardRecord
	query := r.db.Where("name = ? AND is_enabled = ?", name, true)
	if version != "" {
		query = query.Where("version = ?", version)
	}

	if err := query.Order("created_at DESC").First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &assessment.StandardNotFoundError{Name: name, Version: version}
		}
		return nil, fmt.Errorf("标准查询失败: %w", err)
	}

	standard, err := record.ToStandard()
	if err != nil {
		return nil, err
	}
	if err := standard.ValidateWeights(); err != nil {
		return nil, fmt.Errorf("标准 %s 权重不合法: %w", standard.Key(), err)
	}
	return standard, nil
}

// Save 持久化标准，实现assessment.StandardResolver
// 同名同版本已存在时更新其定义
func (r *Repository) Save(standard *models.Standard, autoGenerated bool) error {
	if err := standard.ValidateWeights(); err != nil {
		return fmt.Errorf("标准权重校验失败: %w", err)
	}

	record, err := models.NewStandardRecord(standard, autoGenerated)
	if err != nil {
		return err
	}

	var existing models.StandardRecord
	err = r.db.Where("name = ? AND version = ?", record.Name, record.Version).First(&existing).Error
	switch {
	case err == nil:
		existing.Definition = record.Definition
		existing.AutoGenerated = record.AutoGenerated
		return r.db.Save(&existing).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return r.db.Create(record).Error
	default:
		return fmt.Errorf("标准查询失败: %w", err)
	}
}

// List 分页列出标准记录
func (r *Repository) List(page, size int) ([]models.StandardRecord, int64, error) {
	var records []models.StandardRecord
	var total int64

	if err := r.db.Model(&models.StandardRecord{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&records).Error
	return records, total, err
}

// Get 按ID查询标准记录
func (r *Repository) Get(id string) (*models.StandardRecord, error) {
	var record models.StandardRecord
	if err := r.db.First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// Delete 按ID删除标准记录
func (r *Repository) Delete(id string) error {
	return r.db.Delete(&models.StandardRecord{}, "id = ?", id).Error
}
