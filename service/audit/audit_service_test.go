/*
 * @module service/audit/audit_service_test
 * @description 评估审计服务测试，验证记录持久化、查询过滤与文件汇输出
 * @architecture 测试层
 * @documentReference dev_docs/test_plan.md
 * @stateFlow 构造评估结果 -> 审计落库 -> 查询/文件内容验证
 * @rules 审计汇写入失败不得影响主记录落库
 * @refs audit_service.go, file_sinks.go
 */

package audit

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dataguard-service/service/models"
	"dataguard-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult(standardName string, passed bool) *models.AssessmentResult {
	result := &models.AssessmentResult{
		StandardName:    standardName,
		StandardVersion: "1.0.0",
		OverallScore:    87.5,
		Passed:          passed,
		RowCount:        42,
		Duration:        15 * time.Millisecond,
		AssessedAt:      time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC),
		FailedChecks: []models.FailedCheck{
			{Field: "email", Dimension: models.DimensionValidity, Reason: "2 个值不符合类型/模式/范围要求"},
		},
	}
	result.DimensionScores.Set(models.DimensionValidity, 17.5)
	result.DimensionScores.Set(models.DimensionCompleteness, 20)
	result.DimensionScores.Set(models.DimensionConsistency, 20)
	result.DimensionScores.Set(models.DimensionFreshness, 20)
	result.DimensionScores.Set(models.DimensionPlausibility, 10)
	return result
}

func TestRecordPersistsAssessment(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()

	service := NewAuditService(tdb.DB)
	service.Record(sampleResult("orders", true), models.GuardAllowed, "fp-123")

	var record models.AssessmentRecord
	require.NoError(t, tdb.DB.First(&record).Error)

	assert.Equal(t, "orders", record.StandardName)
	assert.Equal(t, "1.0.0", record.StandardVersion)
	assert.Equal(t, "fp-123", record.Fingerprint)
	assert.Equal(t, 87.5, record.OverallScore)
	assert.True(t, record.Passed)
	assert.Equal(t, "allowed", record.Decision)
	assert.Equal(t, 42, record.RowCount)
	assert.Equal(t, int64(15), record.Duration)

	assert.Equal(t, 17.5, record.DimensionScores["validity"])
	require.Len(t, record.FailedChecks, 1)
	assert.Equal(t, "email", record.FailedChecks[0]["field"])
	assert.Equal(t, "validity", record.FailedChecks[0]["dimension"])
}

func TestListFiltersByStandardName(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()

	service := NewAuditService(tdb.DB)
	service.Record(sampleResult("orders", true), models.GuardAllowed, "fp-1")
	service.Record(sampleResult("orders", false), models.GuardBlocked, "fp-2")
	service.Record(sampleResult("users", true), models.GuardAllowed, "fp-3")

	records, total, err := service.List("orders", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, records, 2)

	// 不过滤时返回全部
	_, total, err = service.List("", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	// 分页
	records, total, err = service.List("", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, records, 2)
}

// failingSink 始终失败的审计汇
type failingSink struct{}

func (failingSink) Write(*models.AssessmentRecord) error {
	return errors.New("汇不可用")
}

func TestSinkFailureDoesNotBlockPersistence(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()

	service := NewAuditService(tdb.DB, failingSink{})
	service.Record(sampleResult("orders", true), models.GuardAllowed, "fp-1")

	var count int64
	require.NoError(t, tdb.DB.Model(&models.AssessmentRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCSVSinkAppendsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.csv")
	sink, err := NewCSVSink(path)
	require.NoError(t, err)

	service := NewAuditService(nil, sink)
	service.Record(sampleResult("orders", true), models.GuardAllowed, "fp-1")
	service.Record(sampleResult("orders", false), models.GuardBlocked, "fp-2")
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3, "表头加两条记录")
	assert.Contains(t, lines[0], "standard_name")
	assert.Contains(t, lines[1], "allowed")
	assert.Contains(t, lines[2], "blocked")

	// 重新打开继续追加，不重复写表头
	sink, err = NewCSVSink(path)
	require.NoError(t, err)
	require.NoError(t, sink.Write(&models.AssessmentRecord{
		StandardName: "orders", Decision: "allowed", AssessedAt: time.Now(),
	}))
	require.NoError(t, sink.Close())

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 4)
}

func TestJSONSinkWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	sink, err := NewJSONSink(path)
	require.NoError(t, err)

	service := NewAuditService(nil, sink)
	service.Record(sampleResult("orders", true), models.GuardAllowed, "fp-1")
	service.Record(sampleResult("users", false), models.GuardWarned, "fp-2")
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "orders", first["standard_name"])
	assert.Equal(t, "allowed", first["decision"])
}
