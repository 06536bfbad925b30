/*
 * @module service/assessment/guard_test
 * @description 质量守护器测试，覆盖三种终态、失败策略与标准自动生成路径
 * @architecture 测试层
 * @documentReference dev_docs/test_plan.md
 * @stateFlow 桩解析器/记录器 -> 守护调用 -> 验证终态、操作执行与审计留痕
 * @rules 阻断路径必须验证被守护操作未被执行；每个终态都验证记录器留痕
 * @refs guard.go, errors.go
 */

package assessment

import (
	"context"
	"testing"

	"dataguard-service/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubResolver 内存标准解析器桩
type stubResolver struct {
	standards map[string]*models.Standard
	saved     []*models.Standard
	savedAuto []bool
}

func newStubResolver(standards ...*models.Standard) *stubResolver {
	r := &stubResolver{standards: make(map[string]*models.Standard)}
	for _, s := range standards {
		r.standards[s.Meta.Name] = s
	}
	return r
}

func (r *stubResolver) Resolve(name, version string) (*models.Standard, error) {
	if s, ok := r.standards[name]; ok {
		return s, nil
	}
	return nil, &StandardNotFoundError{Name: name, Version: version}
}

func (r *stubResolver) Save(standard *models.Standard, autoGenerated bool) error {
	r.standards[standard.Meta.Name] = standard
	r.saved = append(r.saved, standard)
	r.savedAuto = append(r.savedAuto, autoGenerated)
	return nil
}

// stubRecorder 记录器桩，捕获留痕调用
type stubRecorder struct {
	decisions    []models.GuardDecision
	fingerprints []string
}

func (r *stubRecorder) Record(result *models.AssessmentResult, decision models.GuardDecision, fingerprint string) {
	r.decisions = append(r.decisions, decision)
	r.fingerprints = append(r.fingerprints, fingerprint)
}

func guardDataset(t *testing.T) *models.Dataset {
	t.Helper()
	return makeDataset(t, []models.Column{
		{Name: "id", Values: []interface{}{1, 2, 3, 4}},
	})
}

// countingOperation 返回记录执行次数的被守护操作
func countingOperation(calls *int) GuardedOperation {
	return func(_ context.Context, _ *models.Dataset) (interface{}, error) {
		*calls++
		return "done", nil
	}
}

func TestGuardAllowExecutesOperation(t *testing.T) {
	resolver := newStubResolver(makeStandard(60, map[string]models.FieldRequirement{
		"id": {Type: models.FieldTypeInteger},
	}))
	recorder := &stubRecorder{}

	calls := 0
	guard, err := NewProtectionGuard(countingOperation(&calls), GuardConfig{
		StandardName: "test_standard",
		OnFailure:    models.PolicyRaise,
	}, NewAssessmentEngine(), nil, resolver, recorder)
	require.NoError(t, err)

	outcome, err := guard.Invoke(context.Background(), guardDataset(t))
	require.NoError(t, err)

	assert.Equal(t, models.GuardAllowed, outcome.Decision)
	assert.Equal(t, "done", outcome.Value)
	assert.Equal(t, 1, calls)
	require.NotNil(t, outcome.Result)
	assert.True(t, outcome.Result.Passed)

	require.Len(t, recorder.decisions, 1)
	assert.Equal(t, models.GuardAllowed, recorder.decisions[0])
	assert.NotEmpty(t, recorder.fingerprints[0])
}

func TestGuardRaiseBlocksOperation(t *testing.T) {
	// 阈值设为不可能达到的值，强制阻断
	resolver := newStubResolver(makeStandard(100.1, map[string]models.FieldRequirement{
		"id": {Type: models.FieldTypeInteger},
	}))
	recorder := &stubRecorder{}

	calls := 0
	guard, err := NewProtectionGuard(countingOperation(&calls), GuardConfig{
		StandardName: "test_standard",
		OnFailure:    models.PolicyRaise,
	}, NewAssessmentEngine(), nil, resolver, recorder)
	require.NoError(t, err)

	outcome, err := guard.Invoke(context.Background(), guardDataset(t))
	require.Error(t, err)

	gateErr, blocked := IsQualityGateError(err)
	require.True(t, blocked)
	assert.NotNil(t, gateErr.Result)
	assert.Equal(t, 100.1, gateErr.MinScore)

	require.NotNil(t, outcome)
	assert.Equal(t, models.GuardBlocked, outcome.Decision)
	assert.Nil(t, outcome.Value)
	assert.Equal(t, 0, calls, "阻断时不得执行被守护操作")

	require.Len(t, recorder.decisions, 1)
	assert.Equal(t, models.GuardBlocked, recorder.decisions[0])
}

func TestGuardWarnProceedsOnFailure(t *testing.T) {
	resolver := newStubResolver(makeStandard(100.1, map[string]models.FieldRequirement{
		"id": {Type: models.FieldTypeInteger},
	}))
	recorder := &stubRecorder{}

	calls := 0
	guard, err := NewProtectionGuard(countingOperation(&calls), GuardConfig{
		StandardName: "test_standard",
		OnFailure:    models.PolicyWarn,
	}, NewAssessmentEngine(), nil, resolver, recorder)
	require.NoError(t, err)

	outcome, err := guard.Invoke(context.Background(), guardDataset(t))
	require.NoError(t, err)

	assert.Equal(t, models.GuardWarned, outcome.Decision)
	assert.Equal(t, 1, calls)
	require.Len(t, recorder.decisions, 1)
	assert.Equal(t, models.GuardWarned, recorder.decisions[0])
}

func TestGuardContinueProceedsOnFailure(t *testing.T) {
	resolver := newStubResolver(makeStandard(100.1, map[string]models.FieldRequirement{
		"id": {Type: models.FieldTypeInteger},
	}))

	calls := 0
	guard, err := NewProtectionGuard(countingOperation(&calls), GuardConfig{
		StandardName: "test_standard",
		OnFailure:    models.PolicyContinue,
	}, NewAssessmentEngine(), nil, resolver, nil)
	require.NoError(t, err)

	outcome, err := guard.Invoke(context.Background(), guardDataset(t))
	require.NoError(t, err)
	assert.Equal(t, models.GuardWarned, outcome.Decision)
	assert.Equal(t, 1, calls)
}

func TestGuardMinScoreOverride(t *testing.T) {
	resolver := newStubResolver(makeStandard(60, map[string]models.FieldRequirement{
		"id": {Type: models.FieldTypeInteger},
	}))

	// 数据通过标准阈值60，但调用方覆盖为100.1
	override := 100.1
	calls := 0
	guard, err := NewProtectionGuard(countingOperation(&calls), GuardConfig{
		StandardName: "test_standard",
		MinScore:     &override,
		OnFailure:    models.PolicyRaise,
	}, NewAssessmentEngine(), nil, resolver, nil)
	require.NoError(t, err)

	outcome, err := guard.Invoke(context.Background(), guardDataset(t))
	require.Error(t, err)
	assert.Equal(t, models.GuardBlocked, outcome.Decision)
	assert.Equal(t, 0, calls)
}

func TestGuardAutoGeneratesMissingStandard(t *testing.T) {
	resolver := newStubResolver()
	recorder := &stubRecorder{}

	calls := 0
	guard, err := NewProtectionGuard(countingOperation(&calls), GuardConfig{
		StandardName: "orders_quality",
		OnFailure:    models.PolicyRaise,
		AutoGenerate: true,
	}, NewAssessmentEngine(), nil, resolver, recorder)
	require.NoError(t, err)

	outcome, err := guard.Invoke(context.Background(), guardDataset(t))
	require.NoError(t, err)

	// 自动生成的标准保证来源数据通过
	assert.Equal(t, models.GuardAllowed, outcome.Decision)
	assert.Equal(t, 1, calls)

	require.Len(t, resolver.saved, 1)
	assert.Equal(t, "orders_quality", resolver.saved[0].Meta.Name)
	assert.Equal(t, DefaultStandardVersion, resolver.saved[0].Meta.Version)
	assert.True(t, resolver.savedAuto[0], "自动生成的标准必须带auto_generated标记")

	// 第二次调用直接命中已持久化的标准，不再生成
	_, err = guard.Invoke(context.Background(), guardDataset(t))
	require.NoError(t, err)
	assert.Len(t, resolver.saved, 1)
}

func TestGuardMissingStandardWithoutAutoGenerate(t *testing.T) {
	resolver := newStubResolver()

	calls := 0
	guard, err := NewProtectionGuard(countingOperation(&calls), GuardConfig{
		StandardName: "absent",
		OnFailure:    models.PolicyRaise,
	}, NewAssessmentEngine(), nil, resolver, nil)
	require.NoError(t, err)

	_, err = guard.Invoke(context.Background(), guardDataset(t))
	require.Error(t, err)

	var notFound *StandardNotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Equal(t, 0, calls)
}

func TestGuardRejectsInvalidConfig(t *testing.T) {
	resolver := newStubResolver()
	engine := NewAssessmentEngine()
	noop := func(_ context.Context, _ *models.Dataset) (interface{}, error) { return nil, nil }

	_, err := NewProtectionGuard(nil, GuardConfig{}, engine, nil, resolver, nil)
	assert.Error(t, err)

	_, err = NewProtectionGuard(noop, GuardConfig{}, nil, nil, resolver, nil)
	assert.Error(t, err)

	_, err = NewProtectionGuard(noop, GuardConfig{}, engine, nil, nil, nil)
	assert.Error(t, err)

	_, err = NewProtectionGuard(noop, GuardConfig{OnFailure: "explode"}, engine, nil, resolver, nil)
	assert.Error(t, err)

	// 空策略默认为raise
	guard, err := NewProtectionGuard(noop, GuardConfig{StandardName: "x", AutoGenerate: true}, engine, nil, resolver, nil)
	require.NoError(t, err)
	assert.NotNil(t, guard)
}

func TestGuardUsesCacheAcrossInvocations(t *testing.T) {
	standard := makeStandard(60, map[string]models.FieldRequirement{
		"id": {Type: models.FieldTypeInteger},
	})
	resolver := newStubResolver(standard)
	cache := NewDefaultFingerprintCache()

	calls := 0
	guard, err := NewProtectionGuard(countingOperation(&calls), GuardConfig{
		StandardName: "test_standard",
		OnFailure:    models.PolicyRaise,
	}, NewAssessmentEngine(), cache, resolver, nil)
	require.NoError(t, err)

	ds := guardDataset(t)
	first, err := guard.Invoke(context.Background(), ds)
	require.NoError(t, err)
	second, err := guard.Invoke(context.Background(), ds)
	require.NoError(t, err)

	// 相同指纹命中缓存，两次调用共享同一评估结果
	assert.Same(t, first.Result, second.Result)
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, 2, calls, "缓存命中只复用评估结果，操作仍然执行")
}
