/*
 * @module service/rules/script_executor
 * @description 自定义规则脚本执行器，基于yaegi解释执行用户提供的Go脚本，带编译缓存
 * @architecture 工具层 - 解释器封装
 * @documentReference dev_docs/assessment_design.md
 * @stateFlow 脚本哈希 -> 缓存查找 -> 编译 -> Run函数调用
 * @rules 脚本为REPL风格（不含package声明），必须提供
 *        Run(params map[string]interface{}) (interface{}, error) 入口函数；
 *        编译结果按脚本内容哈希缓存，相同脚本只编译一次
 * @dependencies github.com/traefik/yaegi
 * @refs service/assessment/consistency.go
 */

package rules

import (
	"crypto/sha1"
	"fmt"
	"reflect"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// compiledScript 编译后的脚本入口
type compiledScript struct {
	fn func(map[string]interface{}) (interface{}, error)
}

// ScriptExecutor 规则脚本执行器，并发安全
type ScriptExecutor struct {
	mu    sync.RWMutex
	cache map[string]*compiledScript
}

// NewScriptExecutor 创建脚本执行器
func NewScriptExecutor() *ScriptExecutor {
	return &ScriptExecutor{
		cache: make(map[string]*compiledScript),
	}
}

// Execute 执行脚本并返回Run函数的结果
func (e *ScriptExecutor) Execute(script string, params map[string]interface{}) (interface{}, error) {
	hash := fmt.Sprintf("%x", sha1.Sum([]byte(script)))

	e.mu.RLock()
	compiled, ok := e.cache[hash]
	e.mu.RUnlock()

	if !ok {
		var err error
		compiled, err = e.compile(script)
		if err != nil {
			return nil, fmt.Errorf("脚本编译失败: %w", err)
		}

		e.mu.Lock()
		e.cache[hash] = compiled
		e.mu.Unlock()
	}

	return compiled.fn(params)
}

// Validate 校验脚本能否编译并包含Run入口
func (e *ScriptExecutor) Validate(script string) error {
	_, err := e.compile(script)
	return err
}

// compile 编译脚本并提取Run入口函数
func (e *ScriptExecutor) compile(script string) (*compiledScript, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("加载标准库失败: %w", err)
	}

	if _, err := i.Eval(script); err != nil {
		return nil, fmt.Errorf("脚本求值失败: %w", err)
	}

	v, err := i.Eval("Run")
	if err != nil {
		return nil, fmt.Errorf("脚本缺少Run入口函数: %w", err)
	}

	fn, ok := v.Interface().(func(map[string]interface{}) (interface{}, error))
	if !ok {
		return nil, fmt.Errorf("Run函数签名不正确: %s", reflect.TypeOf(v.Interface()))
	}

	return &compiledScript{fn: fn}, nil
}

// ClearCache 清空编译缓存
func (e *ScriptExecutor) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]*compiledScript)
}
