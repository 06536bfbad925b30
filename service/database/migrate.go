/*
 * @module service/database/migrate
 * @description 数据库迁移模块，负责创建和更新数据库表结构
 * @architecture 数据访问层 - 迁移管理
 * @documentReference dev_docs/model.md
 * @stateFlow 应用启动时执行数据库迁移
 * @rules 确保数据库结构与模型定义保持一致
 * @dependencies dataguard-service/service/models, gorm.io/gorm
 * @refs service/init.go
 */

package database

import (
	"log"

	"dataguard-service/service/models"

	"gorm.io/gorm"
)

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate(db *gorm.DB) error {
	log.Println("开始数据库迁移...")

	// 质量标准与评估留痕相关表
	err := db.AutoMigrate(
		&models.StandardRecord{},
		&models.AssessmentRecord{},
	)
	if err != nil {
		return err
	}

	// 调度任务相关表
	err = db.AutoMigrate(
		&models.AssessmentTask{},
	)
	if err != nil {
		return err
	}

	log.Println("数据库迁移完成")
	return nil
}

// InitializeData 初始化基础数据
func InitializeData(db *gorm.DB) error {
	log.Println("开始初始化基础数据...")

	// 五个质量维度固定，不做数据库存储
	dimensions := make([]string, 0, len(models.AllDimensions()))
	for _, dim := range models.AllDimensions() {
		dimensions = append(dimensions, string(dim))
	}
	log.Printf("支持的质量维度: %v", dimensions)

	scheduleTypes := []string{
		"cron",     // cron表达式调度
		"interval", // 固定间隔调度
		"once",     // 单次调度
		"manual",   // 手动触发
	}
	log.Printf("支持的调度类型: %v", scheduleTypes)

	log.Println("基础数据初始化完成")
	return nil
}
