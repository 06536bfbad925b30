/*
 * @module service/rules/script_executor_test
 * @description 规则脚本执行器测试
 * @architecture 测试层
 * @documentReference dev_docs/test_plan.md
 * @stateFlow 脚本编译 -> Run调用 -> 返回值与缓存验证
 * @rules 覆盖正常执行、入口缺失、签名错误与编译缓存
 * @refs script_executor.go
 */

package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const violationScript = `
func Run(params map[string]interface{}) (interface{}, error) {
	rows := params["rows"].([]map[string]interface{})
	violations := []interface{}{}
	for i, row := range rows {
		start, ok1 := row["start"].(int)
		end, ok2 := row["end"].(int)
		if ok1 && ok2 && end < start {
			violations = append(violations, i)
		}
	}
	return violations, nil
}
`

func TestExecuteReturnsViolationIndexes(t *testing.T) {
	executor := NewScriptExecutor()

	rows := []map[string]interface{}{
		{"start": 1, "end": 5},
		{"start": 10, "end": 3},
		{"start": 2, "end": 2},
	}
	result, err := executor.Execute(violationScript, map[string]interface{}{"rows": rows})
	require.NoError(t, err)

	violations, ok := result.([]interface{})
	require.True(t, ok)
	require.Len(t, violations, 1)
	assert.Equal(t, 1, violations[0])
}

func TestExecuteReturnsCount(t *testing.T) {
	executor := NewScriptExecutor()

	script := `
func Run(params map[string]interface{}) (interface{}, error) {
	return 3, nil
}
`
	result, err := executor.Execute(script, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result)
}

func TestExecuteRejectsMissingRun(t *testing.T) {
	executor := NewScriptExecutor()

	_, err := executor.Execute("x := 1", nil)
	assert.Error(t, err)
}

func TestExecuteRejectsWrongSignature(t *testing.T) {
	executor := NewScriptExecutor()

	_, err := executor.Execute("func Run() int { return 1 }", nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	executor := NewScriptExecutor()

	assert.NoError(t, executor.Validate(violationScript))
	assert.Error(t, executor.Validate("func Run( {"))
}

func TestCompileCacheReuse(t *testing.T) {
	executor := NewScriptExecutor()

	// 相同脚本重复执行复用编译结果
	for i := 0; i < 3; i++ {
		_, err := executor.Execute(violationScript, map[string]interface{}{
			"rows": []map[string]interface{}{},
		})
		require.NoError(t, err)
	}
	assert.Len(t, executor.cache, 1)

	executor.ClearCache()
	assert.Empty(t, executor.cache)
}
