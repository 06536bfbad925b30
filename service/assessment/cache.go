/*
 * @module service/assessment/cache
 * @description 指纹缓存，按数据集指纹记忆评估结果，保证同一指纹至多一次并发计算
 * @architecture 分层架构 - 评估服务层，缓存服务
 * @documentReference dev_docs/assessment_design.md
 * @stateFlow 指纹计算 -> 缓存命中返回 / 未命中single-flight计算 -> LRU+TTL淘汰
 * @rules 指纹取行数、有序列名、单元格采样校验和与标准标识的稳定组合；
 *        并发同指纹调用阻塞等待首个计算的结果而不重复计算；不同指纹完全并行；
 *        调用方可通过context放弃等待，进行中的计算不会被中断
 * @dependencies golang.org/x/sync/singleflight, container/list, crypto/sha256
 * @refs service/assessment/engine.go, service/assessment/guard.go
 */

package assessment

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"dataguard-service/service/metrics"
	"dataguard-service/service/models"
)

const (
	// DefaultCacheCapacity 缓存条目数上限
	DefaultCacheCapacity = 128
	// DefaultCacheTTL 缓存条目存活时长
	DefaultCacheTTL = 10 * time.Minute
	// ChecksumSampleSize 指纹校验和的单列采样上限
	ChecksumSampleSize = 64
)

// ComputeFunc 缓存未命中时的评估计算函数
type ComputeFunc func() (*models.AssessmentResult, error)

// cacheEntry 缓存条目，由FingerprintCache独占持有
type cacheEntry struct {
	fingerprint string
	result      *models.AssessmentResult
	storedAt    time.Time
}

// FingerprintCache 评估结果指纹缓存
// 淘汰策略为LRU加TTL，single-flight保证同指纹的计算串行化
type FingerprintCache struct {
	mu       sync.Mutex
	entries  map[string]*list.Element
	lru      *list.List
	capacity int
	ttl      time.Duration
	group    singleflight.Group
	// now 可注入的时钟，便于测试TTL淘汰
	now func() time.Time
}

// NewFingerprintCache 创建指定容量与TTL的指纹缓存
func NewFingerprintCache(capacity int, ttl time.Duration) *FingerprintCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &FingerprintCache{
		entries:  make(map[string]*list.Element),
		lru:      list.New(),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// NewDefaultFingerprintCache 创建使用默认容量与TTL的指纹缓存
func NewDefaultFingerprintCache() *FingerprintCache {
	return NewFingerprintCache(DefaultCacheCapacity, DefaultCacheTTL)
}

// Fingerprint 计算数据集与标准组合的稳定指纹
// 由行数、有序列名、有界单元格采样校验和与标准名称版本构成
func Fingerprint(dataset *models.Dataset, standard *models.Standard) string {
	h := sha256.New()
	fmt.Fprintf(h, "rows:%d|", dataset.RowCount())
	for _, name := range dataset.ColumnNames() {
		fmt.Fprintf(h, "col:%s|", name)
	}
	for i := range dataset.Columns {
		column := &dataset.Columns[i]
		for _, idx := range sampleIndexes(len(column.Values), ChecksumSampleSize) {
			fmt.Fprintf(h, "%v|", column.Values[idx])
		}
	}
	fmt.Fprintf(h, "std:%s", standard.Key())
	return hex.EncodeToString(h.Sum(nil))
}

// sampleIndexes 返回等距采样下标，保证对同一数据稳定
func sampleIndexes(length, limit int) []int {
	if length <= limit {
		indexes := make([]int, length)
		for i := range indexes {
			indexes[i] = i
		}
		return indexes
	}
	step := float64(length) / float64(limit)
	indexes := make([]int, limit)
	for i := 0; i < limit; i++ {
		indexes[i] = int(float64(i) * step)
	}
	return indexes
}

// GetOrCompute 按指纹返回缓存结果，未命中时经single-flight执行计算
// 并发同指纹调用共享首个计算的结果；context取消时调用方放弃等待，
// 但进行中的计算继续完成并写入缓存
func (c *FingerprintCache) GetOrCompute(ctx context.Context, dataset *models.Dataset, standard *models.Standard, compute ComputeFunc) (*models.AssessmentResult, error) {
	fingerprint := Fingerprint(dataset, standard)

	if result, ok := c.lookup(fingerprint); ok {
		metrics.CacheHits.Inc()
		return result, nil
	}

	ch := c.group.DoChan(fingerprint, func() (interface{}, error) {
		// double-check：等锁期间可能已有结果写入
		if result, ok := c.lookup(fingerprint); ok {
			return result, nil
		}
		result, err := compute()
		if err != nil {
			return nil, err
		}
		c.store(fingerprint, result)
		return result, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.AssessmentResult), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len 返回当前缓存条目数
func (c *FingerprintCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Invalidate 删除指定指纹的缓存条目
func (c *FingerprintCache) Invalidate(fingerprint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[fingerprint]; ok {
		c.removeElement(elem)
	}
}

// Clear 清空全部缓存条目
func (c *FingerprintCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.lru.Init()
}

// lookup 查找未过期的缓存条目并刷新其LRU位置
func (c *FingerprintCache) lookup(fingerprint string) (*models.AssessmentResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[fingerprint]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*cacheEntry)
	if c.ttl > 0 && c.now().Sub(entry.storedAt) > c.ttl {
		c.removeElement(elem)
		return nil, false
	}
	c.lru.MoveToFront(elem)
	return entry.result, true
}

// store 写入缓存并按容量淘汰最久未使用的条目
func (c *FingerprintCache) store(fingerprint string, result *models.AssessmentResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[fingerprint]; ok {
		elem.Value.(*cacheEntry).result = result
		elem.Value.(*cacheEntry).storedAt = c.now()
		c.lru.MoveToFront(elem)
		return
	}

	elem := c.lru.PushFront(&cacheEntry{
		fingerprint: fingerprint,
		result:      result,
		storedAt:    c.now(),
	})
	c.entries[fingerprint] = elem

	for c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		c.removeElement(oldest)
	}
}

// removeElement 删除缓存条目，调用方必须持有锁
func (c *FingerprintCache) removeElement(elem *list.Element) {
	entry := elem.Value.(*cacheEntry)
	c.lru.Remove(elem)
	delete(c.entries, entry.fingerprint)
}
