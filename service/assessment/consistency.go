/*
 * @module service/assessment/consistency
 * @description 一致性维度评估器，检查唯一性约束、字段间引用关系与自定义脚本规则
 * @architecture 分层架构 - 评估服务层
 * @documentReference dev_docs/assessment_design.md
 * @stateFlow 唯一性检查 -> 引用关系检查 -> 脚本规则检查 -> 无违规行比例缩放到维度权重
 * @rules 得分按无任何一致性违规的行占比计算；脚本错误按MalformedRequirementError上抛由引擎降级；
 *        零行数据集获得满分
 * @dependencies service/rules, fmt
 * @refs service/assessment/assessor.go, service/rules/script_executor.go
 */

package assessment

import (
	"fmt"

	"github.com/spf13/cast"

	"dataguard-service/service/models"
	"dataguard-service/service/rules"
)

// ConsistencyAssessor 一致性维度评估器
type ConsistencyAssessor struct {
	executor *rules.ScriptExecutor
}

// NewConsistencyAssessor 创建一致性评估器，内置脚本执行器
func NewConsistencyAssessor() *ConsistencyAssessor {
	return &ConsistencyAssessor{executor: rules.NewScriptExecutor()}
}

// Dimension 返回所属维度
func (a *ConsistencyAssessor) Dimension() models.Dimension {
	return models.DimensionConsistency
}

// Assess 统计无一致性违规的行比例
func (a *ConsistencyAssessor) Assess(dataset *models.Dataset, standard *models.Standard) (float64, []models.FailedCheck, error) {
	weight := standard.Weight(models.DimensionConsistency)
	rowCount := dataset.RowCount()
	if rowCount == 0 {
		return weight, nil, nil
	}

	violating := make([]bool, rowCount)
	var failed []models.FailedCheck

	for _, name := range sortedFieldNames(standard.FieldRequirements) {
		req := standard.FieldRequirements[name]

		if req.Unique {
			if count := a.markDuplicates(dataset, name, violating); count > 0 {
				failed = append(failed, models.FailedCheck{
					Field:     name,
					Dimension: models.DimensionConsistency,
					Reason:    fmt.Sprintf("唯一字段存在 %d 个重复值", count),
				})
			}
		}

		if req.References != "" {
			count, err := a.markBrokenReferences(dataset, name, req.References, violating)
			if err != nil {
				return 0, nil, err
			}
			if count > 0 {
				failed = append(failed, models.FailedCheck{
					Field:     name,
					Dimension: models.DimensionConsistency,
					Reason:    fmt.Sprintf("%d 个值未命中引用字段 %s", count, req.References),
				})
			}
		}
	}

	unlocatedViolations := 0
	if standard.ConsistencyScript != "" {
		flagged, unlocated, err := a.runScript(dataset, standard.ConsistencyScript, violating)
		if err != nil {
			return 0, nil, &MalformedRequirementError{
				Dimension: models.DimensionConsistency,
				Reason:    fmt.Sprintf("自定义一致性脚本执行失败: %v", err),
			}
		}
		unlocatedViolations = unlocated
		if flagged+unlocated > 0 {
			failed = append(failed, models.FailedCheck{
				Dimension: models.DimensionConsistency,
				Reason:    fmt.Sprintf("自定义一致性规则标记 %d 行违规", flagged+unlocated),
			})
		}
	}

	clean := 0
	for _, bad := range violating {
		if !bad {
			clean++
		}
	}
	// 脚本仅返回违规行数而未定位具体行时，按与已标记行最大重叠处理，
	// 只扣除超出已标记行数的部分，避免同一行被重复扣分
	if extra := unlocatedViolations - (rowCount - clean); extra > 0 {
		clean -= extra
	}
	if clean < 0 {
		clean = 0
	}
	return ratioScore(clean, rowCount, weight), failed, nil
}

// markDuplicates 标记唯一字段的重复行（首次出现不计违规），返回重复值数量
func (a *ConsistencyAssessor) markDuplicates(dataset *models.Dataset, name string, violating []bool) int {
	column := dataset.Column(name)
	if column == nil {
		return 0
	}
	seen := make(map[string]bool, len(column.Values))
	duplicates := 0
	for i, v := range column.Values {
		if models.IsNull(v) {
			continue
		}
		key := fmt.Sprintf("%v", v)
		if seen[key] {
			violating[i] = true
			duplicates++
		}
		seen[key] = true
	}
	return duplicates
}

// markBrokenReferences 标记引用字段中不存在的值所在行，返回违规值数量
func (a *ConsistencyAssessor) markBrokenReferences(dataset *models.Dataset, name, referenced string, violating []bool) (int, error) {
	column := dataset.Column(name)
	if column == nil {
		return 0, nil
	}
	target := dataset.Column(referenced)
	if target == nil {
		return 0, &MalformedRequirementError{
			Dimension: models.DimensionConsistency,
			Field:     name,
			Reason:    fmt.Sprintf("引用的字段 %s 不存在", referenced),
		}
	}

	allowed := make(map[string]struct{}, len(target.Values))
	for _, v := range target.Values {
		if !models.IsNull(v) {
			allowed[fmt.Sprintf("%v", v)] = struct{}{}
		}
	}

	broken := 0
	for i, v := range column.Values {
		if models.IsNull(v) {
			continue
		}
		if _, ok := allowed[fmt.Sprintf("%v", v)]; !ok {
			violating[i] = true
			broken++
		}
	}
	return broken, nil
}

// runScript 执行自定义一致性脚本
// 脚本入参为 {"rows": []map[string]interface{}}，返回值为违规行下标列表或违规行数
// 返回(定位并标记的行数, 未定位的违规行数, 错误)
func (a *ConsistencyAssessor) runScript(dataset *models.Dataset, script string, violating []bool) (int, int, error) {
	rows := make([]map[string]interface{}, dataset.RowCount())
	for i := range rows {
		row := make(map[string]interface{}, dataset.ColumnCount())
		for _, col := range dataset.Columns {
			row[col.Name] = col.Values[i]
		}
		rows[i] = row
	}

	result, err := a.executor.Execute(script, map[string]interface{}{"rows": rows})
	if err != nil {
		return 0, 0, err
	}

	mark := func(i int) int {
		if i < 0 || i >= len(violating) || violating[i] {
			return 0
		}
		violating[i] = true
		return 1
	}

	switch value := result.(type) {
	case []interface{}:
		flagged := 0
		for _, idx := range value {
			i, err := cast.ToIntE(idx)
			if err != nil {
				continue
			}
			flagged += mark(i)
		}
		return flagged, 0, nil
	case []int:
		flagged := 0
		for _, i := range value {
			flagged += mark(i)
		}
		return flagged, 0, nil
	default:
		count, err := cast.ToIntE(result)
		if err != nil {
			return 0, 0, fmt.Errorf("脚本返回值无法解释为违规行数: %v", result)
		}
		return 0, count, nil
	}
}
