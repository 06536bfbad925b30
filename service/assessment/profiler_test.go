/*
 * @module service/assessment/profiler_test
 * @description 数据剖析器测试，不依赖数据库
 * @architecture 测试层
 * @documentReference dev_docs/test_plan.md
 * @stateFlow 测试数据集输入 -> 剖析 -> 画像字段验证
 * @rules 覆盖数值统计、长度统计、空值处理与聚合评分边界
 * @refs profiler.go
 */

package assessment

import (
	"testing"

	"dataguard-service/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeDataset(t *testing.T, columns []models.Column) *models.Dataset {
	t.Helper()
	ds, err := models.NewDataset(columns)
	require.NoError(t, err)
	return ds
}

func TestProfileNumericColumn(t *testing.T) {
	p := NewDataProfiler()

	ds := makeDataset(t, []models.Column{
		{Name: "age", Values: []interface{}{20, 30, 40}},
	})

	profile := p.Profile(ds)
	require.Len(t, profile.Fields, 1)

	field := profile.Fields[0]
	assert.Equal(t, models.FieldTypeInteger, field.Type)
	require.NotNil(t, field.Min)
	require.NotNil(t, field.Max)
	require.NotNil(t, field.Mean)
	assert.Equal(t, 20.0, *field.Min)
	assert.Equal(t, 40.0, *field.Max)
	assert.Equal(t, 30.0, *field.Mean)
	assert.Equal(t, 3, field.UniqueCount)
	assert.False(t, field.Nullable)
}

func TestProfileStringColumnLengths(t *testing.T) {
	p := NewDataProfiler()

	ds := makeDataset(t, []models.Column{
		{Name: "remark", Values: []interface{}{"ab", "中文字符", "hello!"}},
	})

	profile := p.Profile(ds)
	field := profile.Fields[0]
	assert.Equal(t, models.FieldTypeString, field.Type)
	require.NotNil(t, field.MinLength)
	require.NotNil(t, field.MaxLength)
	// 长度按rune计数，"中文字符"是4
	assert.Equal(t, 2, *field.MinLength)
	assert.Equal(t, 6, *field.MaxLength)
	assert.Nil(t, field.Min)
}

func TestProfileNullHandling(t *testing.T) {
	p := NewDataProfiler()

	ds := makeDataset(t, []models.Column{
		{Name: "score", Values: []interface{}{1, nil, 3, "", 5}},
	})

	profile := p.Profile(ds)
	field := profile.Fields[0]
	// nil与空字符串均计为缺失
	assert.Equal(t, 2, field.NullCount)
	assert.True(t, field.Nullable)
	// 统计只基于非空值
	assert.Equal(t, 1.0, *field.Min)
	assert.Equal(t, 5.0, *field.Max)
}

func TestProfileAllNullColumn(t *testing.T) {
	p := NewDataProfiler()

	ds := makeDataset(t, []models.Column{
		{Name: "empty", Values: []interface{}{nil, "", nil}},
	})

	profile := p.Profile(ds)
	field := profile.Fields[0]
	assert.Equal(t, models.FieldTypeUnknown, field.Type)
	assert.Equal(t, 3, field.NullCount)
	assert.Equal(t, 0.0, field.QualityIndicator)
}

func TestProfileEmptyDataset(t *testing.T) {
	p := NewDataProfiler()

	// 有表头无数据行
	ds := makeDataset(t, []models.Column{
		{Name: "a", Values: []interface{}{}},
		{Name: "b", Values: []interface{}{}},
	})

	profile := p.Profile(ds)
	assert.Equal(t, 0, profile.RowCount)
	assert.Equal(t, 2, profile.ColumnCount)
	assert.Len(t, profile.Fields, 2)
	// 零行数据集聚合评分固定为0
	assert.Equal(t, 0.0, profile.QualityScore)
}

func TestProfileQualityIndicator(t *testing.T) {
	p := NewDataProfiler()

	// 全满且类型一致的列应拿到满分指标
	ds := makeDataset(t, []models.Column{
		{Name: "id", Values: []interface{}{1, 2, 3, 4}},
	})
	profile := p.Profile(ds)
	assert.Equal(t, 100.0, profile.Fields[0].QualityIndicator)
	assert.Equal(t, 100.0, profile.QualityScore)

	// 一半缺失时完整度贡献减半：0.5*0.6 + 1.0*0.4 = 0.7
	ds = makeDataset(t, []models.Column{
		{Name: "id", Values: []interface{}{1, 2, nil, nil}},
	})
	profile = p.Profile(ds)
	assert.InDelta(t, 70.0, profile.Fields[0].QualityIndicator, 1e-9)
}

func TestProfileDeterministic(t *testing.T) {
	p := NewDataProfiler()

	ds := makeDataset(t, []models.Column{
		{Name: "a", Values: []interface{}{1, 2, 3}},
		{Name: "b", Values: []interface{}{"x", "y", "z"}},
	})

	first := p.Profile(ds)
	second := p.Profile(ds)

	// 除时间戳外逐值相同
	second.ProfiledAt = first.ProfiledAt
	assert.Equal(t, first, second)
}
