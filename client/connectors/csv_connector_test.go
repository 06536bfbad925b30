/*
 * @module connectors/csv_connector_test
 * @description CSV文件连接器与注册表测试
 * @architecture 测试层
 * @stateFlow 临时CSV文件 -> 连接器加载 -> 数据集结构验证
 * @rules 覆盖空单元格缺失语义、自定义分隔符、GBK编码与注册表调度
 * @refs csv_connector.go, connector.go
 */
package connectors

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"dataguard-service/service/models"
	"dataguard-service/service/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVConnectorLoadsDataset(t *testing.T) {
	path := writeTempCSV(t, "id,name,amount\n1,alice,10.5\n2,bob,20\n3,,30\n")

	connector := NewCSVConnector()
	ds, err := connector.FetchDataset(context.Background(), models.JSONB{
		"type": "csv_file",
		"path": path,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "amount"}, ds.ColumnNames())
	assert.Equal(t, 3, ds.RowCount())

	name := ds.Column("name")
	require.NotNil(t, name)
	assert.Equal(t, "alice", name.Values[0])
	// 空单元格为缺失值
	assert.Nil(t, name.Values[2])
	assert.Equal(t, 1, name.NullCount())
}

func TestCSVConnectorCustomDelimiter(t *testing.T) {
	path := writeTempCSV(t, "id;name\n1;alice\n")

	connector := NewCSVConnector()
	ds, err := connector.FetchDataset(context.Background(), models.JSONB{
		"path":      path,
		"delimiter": ";",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, ds.ColumnNames())
	assert.Equal(t, "alice", ds.Column("name").Values[0])
}

func TestCSVConnectorGBKEncoding(t *testing.T) {
	converter := utils.NewDataConverter()
	content, err := converter.ConvertEncoding([]byte("编号,名称\n1,测试\n"), "utf-8", "gbk")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "gbk.csv")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	connector := NewCSVConnector()
	ds, err := connector.FetchDataset(context.Background(), models.JSONB{
		"path":     path,
		"encoding": "gbk",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"编号", "名称"}, ds.ColumnNames())
	assert.Equal(t, "测试", ds.Column("名称").Values[0])
}

func TestCSVConnectorErrors(t *testing.T) {
	connector := NewCSVConnector()

	_, err := connector.FetchDataset(context.Background(), models.JSONB{})
	assert.Error(t, err, "缺少path")

	_, err = connector.FetchDataset(context.Background(), models.JSONB{
		"path": filepath.Join(t.TempDir(), "absent.csv"),
	})
	assert.Error(t, err, "文件不存在")

	empty := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = connector.FetchDataset(context.Background(), models.JSONB{"path": empty})
	assert.Error(t, err, "空文件")
}

func TestRegistryDispatch(t *testing.T) {
	registry := NewRegistry()
	path := writeTempCSV(t, "id\n1\n")

	ds, err := registry.LoadDataset(context.Background(), models.JSONB{
		"type": "csv_file",
		"path": path,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, ds.RowCount())

	_, err = registry.LoadDataset(context.Background(), nil)
	assert.Error(t, err)

	_, err = registry.LoadDataset(context.Background(), models.JSONB{"path": path})
	assert.Error(t, err, "缺少type")

	_, err = registry.LoadDataset(context.Background(), models.JSONB{"type": "carrier_pigeon"})
	assert.Error(t, err)
}

func TestDatasetFromMapsUnionColumns(t *testing.T) {
	ds := datasetFromMaps([]map[string]interface{}{
		{"b": 2, "a": 1},
		{"c": 3},
	})

	// 列为记录键的并集，按字典序排列
	assert.Equal(t, []string{"a", "b", "c"}, ds.ColumnNames())
	assert.Equal(t, 2, ds.RowCount())
	assert.Equal(t, 1, ds.Column("a").Values[0])
	assert.Nil(t, ds.Column("a").Values[1])
	assert.Equal(t, 3, ds.Column("c").Values[1])
}
