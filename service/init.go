/*
 * @module service/init
 * @description 服务初始化模块，负责数据库连接、审计落地、调度器等初始化工作
 * @architecture 分层架构 - 服务层
 * @documentReference dev_docs/assessment_design.md
 * @stateFlow 应用启动时执行初始化流程
 * @rules 确保所有依赖服务正常启动后才提供API服务
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres
 * @refs dev_docs/model.md
 */

package service

import (
	"fmt"
	"log"
	"os"
	"strings"

	"dataguard-service/client/connectors"
	"dataguard-service/service/assessment"
	"dataguard-service/service/audit"
	"dataguard-service/service/database"
	"dataguard-service/service/distributed_lock"
	"dataguard-service/service/scheduler"
	"dataguard-service/service/standards"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	DB                      *gorm.DB
	GlobalStandardRepo      *standards.Repository
	GlobalAuditService      *audit.AuditService
	GlobalAssessmentEngine  *assessment.AssessmentEngine
	GlobalFingerprintCache  *assessment.FingerprintCache
	GlobalConnectorRegistry *connectors.Registry
	GlobalTaskRunner        *scheduler.TaskRunner
	GlobalScheduler         *scheduler.AssessmentScheduler
)

func init() {
	initDatabase()
	runMigrations()
	initServices()
}

// initDatabase 初始化数据库连接
func initDatabase() {
	var dsn string

	// 优先使用DATABASE_URL环境变量
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		dsn = databaseURL
	} else {
		// 使用分离的环境变量构建连接字符串
		host := getEnvWithDefault("DB_HOST", "localhost")
		port := getEnvWithDefault("DB_PORT", "5432")
		user := getEnvWithDefault("DB_USER", "postgres")
		password := getEnvWithDefault("DB_PASSWORD", "things2024")
		dbname := getEnvWithDefault("DB_NAME", "postgres")
		sslmode := getEnvWithDefault("DB_SSLMODE", "disable")
		schema := getEnvWithDefault("DB_SCHEMA", "public")

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s TimeZone=Asia/Shanghai",
			host, port, user, password, dbname, sslmode, schema)
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	log.Println("数据库连接成功")
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// runMigrations 运行数据库迁移
func runMigrations() {
	log.Println("开始运行数据库迁移...")

	if err := database.AutoMigrate(DB); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	log.Println("数据库表结构迁移完成")

	if err := database.InitializeData(DB); err != nil {
		log.Fatalf("基础数据初始化失败: %v", err)
	}
	log.Println("基础数据初始化完成")
}

// initServices 初始化服务
func initServices() {
	GlobalStandardRepo = standards.NewRepository(DB)
	GlobalAuditService = audit.NewAuditService(DB, buildAuditSinks()...)
	GlobalAssessmentEngine = assessment.NewAssessmentEngine()
	GlobalFingerprintCache = assessment.NewDefaultFingerprintCache()
	GlobalConnectorRegistry = connectors.NewRegistry()

	GlobalTaskRunner = scheduler.NewTaskRunner(DB, GlobalConnectorRegistry,
		GlobalAssessmentEngine, GlobalFingerprintCache, GlobalStandardRepo, GlobalAuditService)
	GlobalScheduler = scheduler.NewAssessmentScheduler(DB, GlobalTaskRunner)

	// 多实例部署时经Redis分布式锁防止重复调度
	if os.Getenv("REDIS_HOST") != "" {
		lock, err := distributed_lock.NewRedisLock()
		if err != nil {
			log.Printf("Redis分布式锁初始化失败，调度器将在无锁模式下运行: %v", err)
		} else {
			GlobalScheduler.SetDistributedLock(lock)
		}
	}

	if err := GlobalScheduler.Start(); err != nil {
		log.Fatalf("评估任务调度器启动失败: %v", err)
	}

	log.Println("服务初始化完成")
}

// buildAuditSinks 按环境变量装配审计落地通道
func buildAuditSinks() []audit.Sink {
	var sinks []audit.Sink

	if path := os.Getenv("AUDIT_CSV_PATH"); path != "" {
		sink, err := audit.NewCSVSink(path)
		if err != nil {
			log.Printf("CSV审计通道初始化失败: %v", err)
		} else {
			sinks = append(sinks, sink)
		}
	}

	if path := os.Getenv("AUDIT_JSON_PATH"); path != "" {
		sink, err := audit.NewJSONSink(path)
		if err != nil {
			log.Printf("JSON审计通道初始化失败: %v", err)
		} else {
			sinks = append(sinks, sink)
		}
	}

	if brokers := os.Getenv("AUDIT_KAFKA_BROKERS"); brokers != "" {
		topic := getEnvWithDefault("AUDIT_KAFKA_TOPIC", "dataguard-assessments")
		sinks = append(sinks, audit.NewKafkaPublisher(strings.Split(brokers, ","), topic))
	}

	return sinks
}
