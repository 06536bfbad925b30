/*
 * @module service/standards/repository_test
 * @description 标准仓库测试，基于sqlite内存数据库验证持久化与解析语义
 * @architecture 测试层
 * @documentReference dev_docs/test_plan.md
 * @stateFlow 内存数据库 -> 标准写入 -> 版本解析/列表/删除验证
 * @rules 覆盖同版本幂等更新、最新版本解析与未找到错误类型
 * @refs repository.go
 */

package standards

import (
	"testing"
	"time"

	"dataguard-service/service/assessment"
	"dataguard-service/service/models"
	"dataguard-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)
	return NewRepository(tdb.DB)
}

func testStandard(name, version string, minimum float64) *models.Standard {
	return &models.Standard{
		Meta:           models.StandardMeta{Name: name, Version: version},
		OverallMinimum: minimum,
		FieldRequirements: map[string]models.FieldRequirement{
			"id": {Type: models.FieldTypeInteger},
		},
		DimensionWeights: models.DefaultDimensionWeights(),
	}
}

func TestRepositorySaveAndResolve(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.Save(testStandard("orders", "1.0.0", 70), false))

	standard, err := repo.Resolve("orders", "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "orders", standard.Meta.Name)
	assert.Equal(t, "1.0.0", standard.Meta.Version)
	assert.Equal(t, 70.0, standard.OverallMinimum)
	require.Contains(t, standard.FieldRequirements, "id")
	assert.Equal(t, models.FieldTypeInteger, standard.FieldRequirements["id"].Type)
}

func TestRepositoryResolveLatestVersion(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.Save(testStandard("orders", "1.0.0", 60), false))
	// 保证created_at可区分
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, repo.Save(testStandard("orders", "2.0.0", 80), false))

	// 版本为空时解析最新版本
	standard, err := repo.Resolve("orders", "")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", standard.Meta.Version)
	assert.Equal(t, 80.0, standard.OverallMinimum)

	// 显式版本仍可解析旧版本
	standard, err = repo.Resolve("orders", "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, 60.0, standard.OverallMinimum)
}

func TestRepositorySaveUpsertsSameVersion(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.Save(testStandard("orders", "1.0.0", 60), false))
	require.NoError(t, repo.Save(testStandard("orders", "1.0.0", 75), true))

	records, total, err := repo.List(1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, records, 1)
	assert.True(t, records[0].AutoGenerated)

	standard, err := repo.Resolve("orders", "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, 75.0, standard.OverallMinimum)
}

func TestRepositoryResolveNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Resolve("absent", "")
	require.Error(t, err)

	var notFound *assessment.StandardNotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Equal(t, "absent", notFound.Name)
}

func TestRepositorySaveRejectsBadWeights(t *testing.T) {
	repo := newTestRepository(t)

	standard := testStandard("broken", "1.0.0", 60)
	standard.DimensionWeights[models.DimensionValidity] = 99
	assert.Error(t, repo.Save(standard, false))
}

func TestRepositoryGetAndDelete(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.Save(testStandard("orders", "1.0.0", 60), false))

	records, _, err := repo.List(1, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	record, err := repo.Get(records[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "orders", record.Name)

	require.NoError(t, repo.Delete(record.ID))
	_, err = repo.Resolve("orders", "1.0.0")
	assert.Error(t, err)
}
