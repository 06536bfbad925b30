/*
 * @module service/assessment/type_inferencer
 * @description 字段类型推断器，按固定优先级推断列的语义类型，并对字符串列检测格式模式
 * @architecture 分层架构 - 评估服务层
 * @documentReference dev_docs/assessment_design.md
 * @stateFlow 采样 -> 逐类型转换尝试 -> 优先级裁决 -> 模式检测（仅string列）
 * @rules 转换必须无信息损失才接受（"1.0"是float不是integer）；类型混杂回退string并记录mixed；
 *        转换异常计入non_conforming影响置信度，不影响类型裁决
 * @dependencies github.com/spf13/cast, regexp, strconv, time
 * @refs service/assessment/profiler.go, service/models/profile_models.go
 */

package assessment

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"dataguard-service/service/models"
)

// DefaultSampleSize 大列推断时的采样上限
const DefaultSampleSize = 1000

// 模式正则，声明顺序即匹配并列时的裁决顺序
const (
	EmailPattern      = `^[\w.+-]+@[\w-]+(\.[\w-]+)+$`
	IdentifierPattern = `^[A-Za-z0-9][A-Za-z0-9_-]*$`
)

// 字符串日期解析格式，按常见程度排列
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

type patternMatcher struct {
	name models.PatternType
	re   *regexp.Regexp
}

// TypeInferencer 字段类型推断器
type TypeInferencer struct {
	sampleSize int
	patterns   []patternMatcher
}

// NewTypeInferencer 创建类型推断器，使用默认采样上限和内置模式匹配器
func NewTypeInferencer() *TypeInferencer {
	return &TypeInferencer{
		sampleSize: DefaultSampleSize,
		patterns: []patternMatcher{
			{name: models.PatternEmail, re: regexp.MustCompile(EmailPattern)},
			{name: models.PatternIdentifier, re: regexp.MustCompile(IdentifierPattern)},
		},
	}
}

// typeSet 单个值满足的候选类型集合
type typeSet struct {
	boolean bool
	integer bool
	float   bool
	date    bool
	// nonConforming 转换过程中出现溢出等异常
	nonConforming bool
}

// Infer 对一列非空值执行类型推断
func (ti *TypeInferencer) Infer(values []interface{}) models.TypeInference {
	sample := ti.sample(values)
	if len(sample) == 0 {
		return models.TypeInference{Type: models.FieldTypeUnknown, Confidence: 0}
	}

	sets := make([]typeSet, len(sample))
	nonConforming := 0
	for i, v := range sample {
		sets[i] = classifyValue(v)
		if sets[i].nonConforming {
			nonConforming++
		}
	}

	confidence := 1.0 - float64(nonConforming)/float64(len(sample))
	if confidence < 0 {
		confidence = 0
	}

	// 优先级裁决：所有采样值都满足的最靠前类型胜出
	result := models.TypeInference{
		Confidence:    confidence,
		NonConforming: nonConforming,
	}
	switch {
	case allSatisfy(sets, func(s typeSet) bool { return s.boolean }):
		result.Type = models.FieldTypeBoolean
	case allSatisfy(sets, func(s typeSet) bool { return s.integer }):
		result.Type = models.FieldTypeInteger
	case allSatisfy(sets, func(s typeSet) bool { return s.float }):
		result.Type = models.FieldTypeFloat
	case allSatisfy(sets, func(s typeSet) bool { return s.date }):
		result.Type = models.FieldTypeDate
	default:
		result.Type = models.FieldTypeString
		result.Mixed = isMixed(sets)
		pattern, patternConfidence := ti.detectPattern(sample)
		result.Pattern = pattern
		result.PatternConfidence = patternConfidence
	}
	return result
}

// ValueSatisfiesType 判断单个值是否符合指定类型，供有效性维度复用
func ValueSatisfiesType(v interface{}, t models.FieldType) bool {
	set := classifyValue(v)
	switch t {
	case models.FieldTypeBoolean:
		return set.boolean
	case models.FieldTypeInteger:
		return set.integer
	case models.FieldTypeFloat:
		return set.float
	case models.FieldTypeDate:
		return set.date
	case models.FieldTypeString:
		return true
	case models.FieldTypeUnknown:
		return true
	}
	return false
}

func (ti *TypeInferencer) sample(values []interface{}) []interface{} {
	if len(values) <= ti.sampleSize {
		return values
	}
	return values[:ti.sampleSize]
}

// allSatisfy 优先级裁决只统计转换正常的采样值，
// 溢出等异常值只压低置信度，不参与类型裁决
func allSatisfy(sets []typeSet, pred func(typeSet) bool) bool {
	conforming := 0
	for _, s := range sets {
		if s.nonConforming {
			continue
		}
		conforming++
		if !pred(s) {
			return false
		}
	}
	return conforming > 0
}

// isMixed 判断采样中是否混有非字符串的独占类型（如部分数字部分日期）
func isMixed(sets []typeSet) bool {
	typed := 0
	plain := 0
	for _, s := range sets {
		if s.boolean || s.integer || s.float || s.date {
			typed++
		} else {
			plain++
		}
	}
	return typed > 0 && plain > 0 || mixedTyped(sets)
}

// mixedTyped 判断是否存在互不兼容的强类型值（如整数与日期并存）
func mixedTyped(sets []typeSet) bool {
	hasNumeric := false
	hasDate := false
	hasBool := false
	for _, s := range sets {
		if s.date && !s.float {
			hasDate = true
		}
		if s.float && !s.date {
			hasNumeric = true
		}
		if s.boolean && !s.integer {
			hasBool = true
		}
	}
	kinds := 0
	for _, present := range []bool{hasNumeric, hasDate, hasBool} {
		if present {
			kinds++
		}
	}
	return kinds > 1
}

// classifyValue 计算单个值满足的类型集合
func classifyValue(v interface{}) typeSet {
	switch value := v.(type) {
	case bool:
		return typeSet{boolean: true}
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32:
		return typeSet{integer: true, float: true}
	case uint64:
		if value > math.MaxInt64 {
			return typeSet{float: true, nonConforming: true}
		}
		return typeSet{integer: true, float: true}
	case float32:
		return classifyFloat(float64(value))
	case float64:
		return classifyFloat(value)
	case time.Time:
		return typeSet{date: true}
	case string:
		return classifyString(value)
	}
	// 其余类型均按字符串处理
	return typeSet{}
}

func classifyFloat(f float64) typeSet {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return typeSet{float: true, nonConforming: true}
	}
	if f == math.Trunc(f) && f >= math.MinInt64 && f <= math.MaxInt64 {
		return typeSet{integer: true, float: true}
	}
	return typeSet{float: true}
}

func classifyString(s string) typeSet {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return typeSet{}
	}

	switch strings.ToLower(trimmed) {
	case "true", "false":
		return typeSet{boolean: true}
	}

	if _, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return typeSet{integer: true, float: true}
	}
	if looksNumeric(trimmed) {
		if _, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return typeSet{float: true}
		}
		// 数字形态但解析失败（如溢出），计入non_conforming
		return typeSet{nonConforming: true}
	}
	if _, ok := ParseDate(trimmed); ok {
		return typeSet{date: true}
	}
	return typeSet{}
}

var numericShape = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

func looksNumeric(s string) bool {
	return numericShape.MatchString(s)
}

// ParseDate 尝试将值解析为时间，支持time.Time与常见字符串格式
func ParseDate(v interface{}) (time.Time, bool) {
	switch value := v.(type) {
	case time.Time:
		return value, true
	case string:
		trimmed := strings.TrimSpace(value)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, trimmed); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// detectPattern 对字符串列执行模式检测，返回最高置信度的模式
// 置信度为匹配采样值的比例，并列时按匹配器声明顺序裁决
func (ti *TypeInferencer) detectPattern(sample []interface{}) (models.PatternType, float64) {
	best := models.PatternFreeText
	bestConfidence := 0.0
	for _, matcher := range ti.patterns {
		matched := 0
		for _, v := range sample {
			s, err := cast.ToStringE(v)
			if err != nil {
				continue
			}
			if matcher.re.MatchString(s) {
				matched++
			}
		}
		confidence := float64(matched) / float64(len(sample))
		if confidence > bestConfidence {
			best = matcher.name
			bestConfidence = confidence
		}
	}
	if bestConfidence == 0 {
		return models.PatternFreeText, 1.0
	}
	return best, bestConfidence
}
