/*
 * @module connectors/csv_connector
 * @description CSV文件连接器，读取本地CSV文件构造数据集，支持GBK编码转换
 * @architecture 适配器模式
 * @stateFlow 读取文件 -> 编码转换 -> 解析CSV -> 首行为列名 -> 构造数据集
 * @rules 空单元格视为缺失值；列数不一致的行按CSV标准报错
 * @dependencies encoding/csv, service/utils
 * @refs service/utils/data_converter.go
 */
package connectors

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"dataguard-service/service/models"
	"dataguard-service/service/utils"

	"github.com/spf13/cast"
)

// CSVConnector CSV文件连接器
// 来源配置: {"type": "csv_file", "path": "...", "encoding": "utf-8|gbk", "delimiter": ","}
type CSVConnector struct {
	converter *utils.DataConverter
}

// NewCSVConnector 创建CSV文件连接器
func NewCSVConnector() *CSVConnector {
	return &CSVConnector{converter: utils.NewDataConverter()}
}

// Type 返回来源类型
func (c *CSVConnector) Type() string {
	return "csv_file"
}

// FetchDataset 读取CSV文件并构造数据集
func (c *CSVConnector) FetchDataset(_ context.Context, config models.JSONB) (*models.Dataset, error) {
	path := cast.ToString(config["path"])
	if path == "" {
		return nil, fmt.Errorf("CSV来源配置缺少path字段")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取CSV文件失败: %w", err)
	}

	if encoding := cast.ToString(config["encoding"]); encoding != "" {
		data, err = c.converter.ConvertEncoding(data, encoding, "utf-8")
		if err != nil {
			return nil, fmt.Errorf("CSV编码转换失败: %w", err)
		}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	if delimiter := cast.ToString(config["delimiter"]); delimiter != "" {
		reader.Comma = rune(delimiter[0])
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("解析CSV失败: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("CSV文件为空: %s", path)
	}

	fields := rows[0]
	records := make([]map[string]interface{}, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(map[string]interface{}, len(fields))
		for i, name := range fields {
			if i < len(row) && row[i] != "" {
				record[name] = row[i]
			}
		}
		records = append(records, record)
	}

	return models.DatasetFromRecords(fields, records), nil
}
