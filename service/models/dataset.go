/*
 * @module service/models/dataset
 * @description 数据集模型定义，列式存储的有序表格数据，是质量评估的输入对象
 * @architecture 数据模型层
 * @documentReference dev_docs/model.md
 * @stateFlow 调用方构造 -> 交给评估引擎 -> 评估期间只读
 * @rules 所有列长度必须等于行数；数据集交给核心后不可变，所有权归调用方
 * @dependencies fmt
 * @refs service/assessment/profiler.go, service/assessment/engine.go
 */

package models

import "fmt"

// Column 数据集中的一列，值按行序排列，nil 表示缺失值
type Column struct {
	Name   string        `json:"name"`
	Values []interface{} `json:"values"`
}

// Dataset 列式表格数据集
type Dataset struct {
	Columns []Column `json:"columns"`
}

// NewDataset 从列构造数据集并校验列长度一致
func NewDataset(columns []Column) (*Dataset, error) {
	ds := &Dataset{Columns: columns}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// DatasetFromRecords 从行记录构造数据集，列顺序由fields给定
// 记录中缺失的键视为null值
func DatasetFromRecords(fields []string, records []map[string]interface{}) *Dataset {
	columns := make([]Column, len(fields))
	for i, name := range fields {
		values := make([]interface{}, len(records))
		for r, record := range records {
			values[r] = record[name]
		}
		columns[i] = Column{Name: name, Values: values}
	}
	return &Dataset{Columns: columns}
}

// Validate 校验数据集不变式：所有列长度相等
func (d *Dataset) Validate() error {
	if len(d.Columns) == 0 {
		return nil
	}
	rows := len(d.Columns[0].Values)
	for _, col := range d.Columns {
		if len(col.Values) != rows {
			return fmt.Errorf("列 %s 长度 %d 与行数 %d 不一致", col.Name, len(col.Values), rows)
		}
	}
	return nil
}

// RowCount 返回行数
func (d *Dataset) RowCount() int {
	if len(d.Columns) == 0 {
		return 0
	}
	return len(d.Columns[0].Values)
}

// ColumnCount 返回列数
func (d *Dataset) ColumnCount() int {
	return len(d.Columns)
}

// ColumnNames 按声明顺序返回列名
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		names[i] = col.Name
	}
	return names
}

// Column 按列名查找列，未找到返回nil
func (d *Dataset) Column(name string) *Column {
	for i := range d.Columns {
		if d.Columns[i].Name == name {
			return &d.Columns[i]
		}
	}
	return nil
}

// NullCount 统计某列的缺失值数量
func (c *Column) NullCount() int {
	count := 0
	for _, v := range c.Values {
		if IsNull(v) {
			count++
		}
	}
	return count
}

// NonNullValues 返回某列的全部非空值
func (c *Column) NonNullValues() []interface{} {
	values := make([]interface{}, 0, len(c.Values))
	for _, v := range c.Values {
		if !IsNull(v) {
			values = append(values, v)
		}
	}
	return values
}

// IsNull 判断单元格值是否为缺失值，nil与空字符串均视为缺失
func IsNull(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok && s == "" {
		return true
	}
	return false
}
