/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @documentReference dev_docs/test_plan.md
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具，确保测试环境的一致性
 * @dependencies gorm, sqlite, testify, time
 * @refs service/models
 */

package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dataguard-service/service/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB 测试数据库配置
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB 创建测试数据库
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	// 自动迁移所有模型
	err = db.AutoMigrate(
		&models.StandardRecord{},
		&models.AssessmentRecord{},
		&models.AssessmentTask{},
	)
	if err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// CleanDB 清理数据库
func (tdb *TestDB) CleanDB() {
	tables := []string{
		"quality_standards",
		"assessment_records",
		"assessment_tasks",
	}

	for _, table := range tables {
		tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
	}
}

// Close 关闭数据库连接
func (tdb *TestDB) Close() {
	if db, err := tdb.DB.DB(); err == nil {
		db.Close()
	}
}

// TestDataFactory 测试数据工厂
type TestDataFactory struct {
	DB *gorm.DB
}

// NewTestDataFactory 创建测试数据工厂
func NewTestDataFactory(db *gorm.DB) *TestDataFactory {
	return &TestDataFactory{DB: db}
}

// StandardOption 标准选项函数类型
type StandardOption func(*models.Standard)

// CreateStandard 创建测试质量标准
func (f *TestDataFactory) CreateStandard(opts ...StandardOption) *models.Standard {
	standard := &models.Standard{
		Meta: models.StandardMeta{
			Name:    "test_standard_" + generateSuffix(),
			Version: "1.0",
		},
		OverallMinimum:   60,
		DimensionWeights: models.DefaultDimensionWeights(),
		FieldRequirements: map[string]models.FieldRequirement{
			"id": {Type: models.FieldTypeInteger, Nullable: false},
		},
	}

	// 应用选项
	for _, opt := range opts {
		opt(standard)
	}

	record, err := models.NewStandardRecord(standard, false)
	if err != nil {
		panic(fmt.Sprintf("failed to build test standard record: %v", err))
	}
	if err := f.DB.Create(record).Error; err != nil {
		panic(fmt.Sprintf("failed to create test standard: %v", err))
	}

	return standard
}

// AssessmentTaskOption 评估任务选项函数类型
type AssessmentTaskOption func(*models.AssessmentTask)

// CreateAssessmentTask 创建测试评估任务
func (f *TestDataFactory) CreateAssessmentTask(opts ...AssessmentTaskOption) *models.AssessmentTask {
	now := time.Now()
	task := &models.AssessmentTask{
		ID:              generateID("at"),
		Name:            "测试评估任务",
		StandardName:    "test_standard_" + generateSuffix(),
		StandardVersion: "1.0",
		ScheduleType:    "manual",
		SourceConfig:    models.JSONB{"type": "csv_file", "path": "/tmp/test.csv"},
		IsEnabled:       true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// 应用选项
	for _, opt := range opts {
		opt(task)
	}

	if err := f.DB.Create(task).Error; err != nil {
		panic(fmt.Sprintf("failed to create test assessment task: %v", err))
	}

	return task
}

// MakeDataset 从行记录构造测试数据集，列取记录键的声明顺序
func MakeDataset(fields []string, records []map[string]interface{}) *models.Dataset {
	return models.DatasetFromRecords(fields, records)
}

// 辅助函数
func generateID(prefix string) string {
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixNano(), generateSuffix())
}

func generateSuffix() string {
	return fmt.Sprintf("%d", time.Now().UnixNano()%100000)
}

// HTTPTestHelper HTTP测试辅助工具
type HTTPTestHelper struct{}

// NewHTTPTestHelper 创建HTTP测试辅助工具
func NewHTTPTestHelper() *HTTPTestHelper {
	return &HTTPTestHelper{}
}

// CreateJSONRequest 创建JSON请求
func (h *HTTPTestHelper) CreateJSONRequest(method, url string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// AssertJSONResponse 断言JSON响应
func (h *HTTPTestHelper) AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedBody interface{}) {
	assert.Equal(t, expectedStatus, w.Code)

	if expectedBody != nil {
		var actualBody interface{}
		err := json.Unmarshal(w.Body.Bytes(), &actualBody)
		assert.NoError(t, err)

		expectedJSON, _ := json.Marshal(expectedBody)
		actualJSON, _ := json.Marshal(actualBody)

		assert.JSONEq(t, string(expectedJSON), string(actualJSON))
	}
}
