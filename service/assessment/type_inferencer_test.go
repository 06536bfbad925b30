/*
 * @module service/assessment/type_inferencer_test
 * @description 字段类型推断器测试，不依赖数据库
 * @architecture 测试层
 * @documentReference dev_docs/test_plan.md
 * @stateFlow 测试数据输入 -> 类型推断 -> 结果验证
 * @rules 覆盖优先级裁决、无损转换约束、混杂回退与模式检测
 * @refs type_inferencer.go
 */

package assessment

import (
	"testing"
	"time"

	"dataguard-service/service/models"

	"github.com/stretchr/testify/assert"
)

func TestInferPriority(t *testing.T) {
	ti := NewTypeInferencer()

	tests := []struct {
		name     string
		values   []interface{}
		expected models.FieldType
	}{
		{
			name:     "布尔字符串列推断为boolean",
			values:   []interface{}{"true", "false", "TRUE"},
			expected: models.FieldTypeBoolean,
		},
		{
			name:     "整数字符串列推断为integer",
			values:   []interface{}{"1", "42", "-7"},
			expected: models.FieldTypeInteger,
		},
		{
			name:     "原生整数列推断为integer",
			values:   []interface{}{1, 2, 3},
			expected: models.FieldTypeInteger,
		},
		{
			name:     "带小数点的字符串是float而不是integer",
			values:   []interface{}{"1.0", "2.5"},
			expected: models.FieldTypeFloat,
		},
		{
			name:     "整数与小数混合推断为float",
			values:   []interface{}{"1", "2.5", "3"},
			expected: models.FieldTypeFloat,
		},
		{
			name:     "日期字符串列推断为date",
			values:   []interface{}{"2024-01-01", "2024-06-15"},
			expected: models.FieldTypeDate,
		},
		{
			name:     "原生time.Time列推断为date",
			values:   []interface{}{time.Now(), time.Now().Add(time.Hour)},
			expected: models.FieldTypeDate,
		},
		{
			name:     "普通文本列推断为string",
			values:   []interface{}{"hello", "world"},
			expected: models.FieldTypeString,
		},
		{
			name:     "空采样推断为unknown",
			values:   []interface{}{},
			expected: models.FieldTypeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ti.Infer(tt.values)
			assert.Equal(t, tt.expected, result.Type)
		})
	}
}

func TestInferFloatStringIsNotInteger(t *testing.T) {
	ti := NewTypeInferencer()

	// "1.0"能无损转float但不能无损转integer
	result := ti.Infer([]interface{}{"1.0"})
	assert.Equal(t, models.FieldTypeFloat, result.Type)

	// 原生浮点数1.0的数学值是整数，可接受为integer
	result = ti.Infer([]interface{}{1.0, 2.0})
	assert.Equal(t, models.FieldTypeInteger, result.Type)
}

func TestInferMixedColumn(t *testing.T) {
	ti := NewTypeInferencer()

	// 数字与日期混杂：回退string并标记mixed
	result := ti.Infer([]interface{}{"42", "2024-01-01", "hello"})
	assert.Equal(t, models.FieldTypeString, result.Type)
	assert.True(t, result.Mixed)

	// 纯文本列不算混杂
	result = ti.Infer([]interface{}{"hello", "world"})
	assert.Equal(t, models.FieldTypeString, result.Type)
	assert.False(t, result.Mixed)
}

func TestInferNonConformingLowersConfidence(t *testing.T) {
	ti := NewTypeInferencer()

	// 数字形态但溢出float64的值计入non_conforming
	overflow := "1e999"
	result := ti.Infer([]interface{}{"1.5", "2.5", overflow, "3.5"})
	assert.Equal(t, 1, result.NonConforming)
	assert.InDelta(t, 0.75, result.Confidence, 1e-9)
	// 类型裁决不受non_conforming影响，列仍是float
	assert.Equal(t, models.FieldTypeFloat, result.Type)
	assert.False(t, result.Mixed)
}

func TestInferOverflowKeepsNumericType(t *testing.T) {
	ti := NewTypeInferencer()

	// 整数列混入一个溢出值：类型保持integer，置信度按比例下降
	result := ti.Infer([]interface{}{"1", "2", "3", "1e999"})
	assert.Equal(t, models.FieldTypeInteger, result.Type)
	assert.Equal(t, 1, result.NonConforming)
	assert.InDelta(t, 0.75, result.Confidence, 1e-9)
	assert.False(t, result.Mixed)

	// 采样全部异常时无可裁决的类型，回退string
	result = ti.Infer([]interface{}{"1e999", "-1e999"})
	assert.Equal(t, models.FieldTypeString, result.Type)
	assert.Equal(t, 2, result.NonConforming)
	assert.InDelta(t, 0.0, result.Confidence, 1e-9)
}

func TestDetectEmailPattern(t *testing.T) {
	ti := NewTypeInferencer()

	result := ti.Infer([]interface{}{
		"a@example.com",
		"b@test.org",
		"c@mail.cn",
		"not-an-email",
	})
	assert.Equal(t, models.FieldTypeString, result.Type)
	assert.Equal(t, models.PatternEmail, result.Pattern)
	assert.InDelta(t, 0.75, result.PatternConfidence, 1e-9)
}

func TestDetectIdentifierPattern(t *testing.T) {
	ti := NewTypeInferencer()

	result := ti.Infer([]interface{}{"user_001", "user-002", "ABC123"})
	assert.Equal(t, models.PatternIdentifier, result.Pattern)
	assert.Equal(t, 1.0, result.PatternConfidence)
}

func TestDetectFreeTextFallback(t *testing.T) {
	ti := NewTypeInferencer()

	// 任何模式都不匹配时回退free_text且置信度为1
	result := ti.Infer([]interface{}{"你好 世界", "some text!"})
	assert.Equal(t, models.PatternFreeText, result.Pattern)
	assert.Equal(t, 1.0, result.PatternConfidence)
}

func TestValueSatisfiesType(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		ftype    models.FieldType
		expected bool
	}{
		{"整数满足integer", 42, models.FieldTypeInteger, true},
		{"整数满足float", 42, models.FieldTypeFloat, true},
		{"小数不满足integer", 2.5, models.FieldTypeInteger, false},
		{"字符串整数满足integer", "42", models.FieldTypeInteger, true},
		{"文本不满足integer", "abc", models.FieldTypeInteger, false},
		{"日期字符串满足date", "2024-01-01", models.FieldTypeDate, true},
		{"任意值满足string", 42, models.FieldTypeString, true},
		{"布尔字符串满足boolean", "true", models.FieldTypeBoolean, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValueSatisfiesType(tt.value, tt.ftype))
		})
	}
}

func TestInferSamplingBound(t *testing.T) {
	ti := NewTypeInferencer()

	// 超过采样上限的列只检查前sampleSize个值
	values := make([]interface{}, DefaultSampleSize+100)
	for i := range values {
		values[i] = "42"
	}
	// 越界部分即使类型不同也不影响结果
	values[DefaultSampleSize+50] = "not-a-number"

	result := ti.Infer(values)
	assert.Equal(t, models.FieldTypeInteger, result.Type)
}
