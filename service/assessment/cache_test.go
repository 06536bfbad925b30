/*
 * @module service/assessment/cache_test
 * @description 指纹缓存测试，覆盖指纹稳定性、single-flight合并、LRU与TTL淘汰
 * @architecture 测试层
 * @documentReference dev_docs/test_plan.md
 * @stateFlow 构造数据集 -> 指纹计算/缓存读写 -> 验证命中与淘汰行为
 * @rules 并发合并用原子计数器验证计算只发生一次；TTL用注入时钟验证
 * @refs cache.go
 */

package assessment

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dataguard-service/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cacheDataset(t *testing.T, values ...interface{}) *models.Dataset {
	t.Helper()
	return makeDataset(t, []models.Column{{Name: "id", Values: values}})
}

func TestFingerprintStability(t *testing.T) {
	standard := makeStandard(60, map[string]models.FieldRequirement{
		"id": {Type: models.FieldTypeInteger},
	})

	ds := cacheDataset(t, 1, 2, 3)
	same := cacheDataset(t, 1, 2, 3)

	// 相同输入指纹逐位相同
	assert.Equal(t, Fingerprint(ds, standard), Fingerprint(same, standard))

	// 任一单元格变化指纹不同
	changed := cacheDataset(t, 1, 2, 4)
	assert.NotEqual(t, Fingerprint(ds, standard), Fingerprint(changed, standard))

	// 标准版本变化指纹不同
	v2 := makeStandard(60, standard.FieldRequirements)
	v2.Meta.Version = "2.0.0"
	assert.NotEqual(t, Fingerprint(ds, standard), Fingerprint(ds, v2))

	// 列名变化指纹不同
	renamed := makeDataset(t, []models.Column{{Name: "uid", Values: []interface{}{1, 2, 3}}})
	assert.NotEqual(t, Fingerprint(ds, standard), Fingerprint(renamed, standard))
}

func TestCacheHitSkipsCompute(t *testing.T) {
	cache := NewDefaultFingerprintCache()
	standard := makeStandard(60, map[string]models.FieldRequirement{
		"id": {Type: models.FieldTypeInteger},
	})
	ds := cacheDataset(t, 1, 2, 3)

	computes := 0
	compute := func() (*models.AssessmentResult, error) {
		computes++
		return &models.AssessmentResult{OverallScore: 88}, nil
	}

	first, err := cache.GetOrCompute(context.Background(), ds, standard, compute)
	require.NoError(t, err)
	second, err := cache.GetOrCompute(context.Background(), ds, standard, compute)
	require.NoError(t, err)

	assert.Equal(t, 1, computes)
	assert.Same(t, first, second)
	assert.Equal(t, 1, cache.Len())
}

func TestCacheSingleFlight(t *testing.T) {
	cache := NewDefaultFingerprintCache()
	standard := makeStandard(60, map[string]models.FieldRequirement{
		"id": {Type: models.FieldTypeInteger},
	})
	ds := cacheDataset(t, 1, 2, 3)

	var computes int32
	gate := make(chan struct{})
	compute := func() (*models.AssessmentResult, error) {
		atomic.AddInt32(&computes, 1)
		<-gate
		return &models.AssessmentResult{OverallScore: 77}, nil
	}

	const concurrency = 16
	var wg sync.WaitGroup
	results := make([]*models.AssessmentResult, concurrency)
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(i int) {
			defer wg.Done()
			result, err := cache.GetOrCompute(context.Background(), ds, standard, compute)
			assert.NoError(t, err)
			results[i] = result
		}(i)
	}

	// 等待并发调用全部挂在同一次计算上后放行
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&computes), "并发同指纹调用只应计算一次")
	for _, result := range results {
		assert.Same(t, results[0], result)
	}
}

func TestCacheComputeErrorNotCached(t *testing.T) {
	cache := NewDefaultFingerprintCache()
	standard := makeStandard(60, map[string]models.FieldRequirement{
		"id": {Type: models.FieldTypeInteger},
	})
	ds := cacheDataset(t, 1, 2, 3)

	calls := 0
	_, err := cache.GetOrCompute(context.Background(), ds, standard, func() (*models.AssessmentResult, error) {
		calls++
		return nil, assert.AnError
	})
	assert.Error(t, err)
	assert.Equal(t, 0, cache.Len())

	// 失败不缓存，下次调用重新计算
	result, err := cache.GetOrCompute(context.Background(), ds, standard, func() (*models.AssessmentResult, error) {
		calls++
		return &models.AssessmentResult{OverallScore: 66}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 66.0, result.OverallScore)
	assert.Equal(t, 2, calls)
}

func TestCacheLRUEviction(t *testing.T) {
	cache := NewFingerprintCache(2, time.Hour)
	standard := makeStandard(60, map[string]models.FieldRequirement{
		"id": {Type: models.FieldTypeInteger},
	})

	datasets := []*models.Dataset{
		cacheDataset(t, 1),
		cacheDataset(t, 2),
		cacheDataset(t, 3),
	}

	computes := make([]int, len(datasets))
	get := func(i int) {
		_, err := cache.GetOrCompute(context.Background(), datasets[i], standard, func() (*models.AssessmentResult, error) {
			computes[i]++
			return &models.AssessmentResult{}, nil
		})
		require.NoError(t, err)
	}

	get(0)
	get(1)
	// 访问0使其移到队首，淘汰对象变为1
	get(0)
	get(2)
	assert.Equal(t, 2, cache.Len())

	// 0仍在缓存中
	get(0)
	assert.Equal(t, 1, computes[0])
	// 1已被淘汰，重新计算
	get(1)
	assert.Equal(t, 2, computes[1])
}

func TestCacheTTLExpiry(t *testing.T) {
	cache := NewFingerprintCache(8, 10*time.Minute)
	current := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }

	standard := makeStandard(60, map[string]models.FieldRequirement{
		"id": {Type: models.FieldTypeInteger},
	})
	ds := cacheDataset(t, 1, 2, 3)

	computes := 0
	get := func() {
		_, err := cache.GetOrCompute(context.Background(), ds, standard, func() (*models.AssessmentResult, error) {
			computes++
			return &models.AssessmentResult{}, nil
		})
		require.NoError(t, err)
	}

	get()
	// TTL内命中
	current = current.Add(9 * time.Minute)
	get()
	assert.Equal(t, 1, computes)

	// 超过TTL后过期重算
	current = current.Add(2 * time.Minute)
	get()
	assert.Equal(t, 2, computes)
	assert.Equal(t, 1, cache.Len())
}

func TestCacheInvalidateAndClear(t *testing.T) {
	cache := NewDefaultFingerprintCache()
	standard := makeStandard(60, map[string]models.FieldRequirement{
		"id": {Type: models.FieldTypeInteger},
	})
	ds := cacheDataset(t, 1)
	other := cacheDataset(t, 2)

	computes := 0
	compute := func() (*models.AssessmentResult, error) {
		computes++
		return &models.AssessmentResult{}, nil
	}

	_, err := cache.GetOrCompute(context.Background(), ds, standard, compute)
	require.NoError(t, err)
	_, err = cache.GetOrCompute(context.Background(), other, standard, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())

	cache.Invalidate(Fingerprint(ds, standard))
	assert.Equal(t, 1, cache.Len())

	_, err = cache.GetOrCompute(context.Background(), ds, standard, compute)
	require.NoError(t, err)
	assert.Equal(t, 3, computes)

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
}
