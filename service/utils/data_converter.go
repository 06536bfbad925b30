/**
 * @module data_converter
 * @description 数据转换工具模块，负责单元格类型转换、字符编码转换与时间格式化
 * @architecture 工具函数模式，提供无状态转换方法集合
 * @stateFlow 无状态转换：输入 -> 转换逻辑 -> 输出
 * @rules
 *   - 编码转换需要支持GBK/GB2312与UTF-8互转
 *   - 类型转换失败返回显式错误而非零值
 * @dependencies
 *   - golang.org/x/text: 编码转换
 *   - github.com/spf13/cast: 类型转换
 * @refs
 *   - client/connectors/csv_connector.go
 */

package utils

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// DataConverter 数据转换器
type DataConverter struct{}

// NewDataConverter 创建新的数据转换器实例
func NewDataConverter() *DataConverter {
	return &DataConverter{}
}

// ToString 转换为字符串
func (dc *DataConverter) ToString(value interface{}) string {
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		if s, err := cast.ToStringE(value); err == nil {
			return s
		}
		// 复合类型尝试JSON序列化
		if data, err := json.Marshal(value); err == nil {
			return string(data)
		}
		return fmt.Sprintf("%v", value)
	}
}

// ToFloat 转换为浮点数
func (dc *DataConverter) ToFloat(value interface{}) (float64, error) {
	if value == nil {
		return 0, fmt.Errorf("nil值无法转换为浮点数")
	}
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, fmt.Errorf("无法将类型 %T 转换为浮点数: %w", value, err)
	}
	return f, nil
}

// ConvertEncoding 编码转换
func (dc *DataConverter) ConvertEncoding(data []byte, fromEncoding, toEncoding string) ([]byte, error) {
	switch strings.ToLower(fromEncoding) {
	case "gbk", "gb2312":
		if strings.ToLower(toEncoding) == "utf-8" {
			decoder := simplifiedchinese.GBK.NewDecoder()
			result, _, err := transform.Bytes(decoder, data)
			return result, err
		}
	case "utf-8":
		if lower := strings.ToLower(toEncoding); lower == "gbk" || lower == "gb2312" {
			encoder := simplifiedchinese.GBK.NewEncoder()
			result, _, err := transform.Bytes(encoder, data)
			return result, err
		}
	}

	// 不需要转换或不支持的编码，返回原数据
	return data, nil
}

// FormatTimestamp 统一时间格式化
func (dc *DataConverter) FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
