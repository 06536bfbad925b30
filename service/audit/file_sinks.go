/*
 * @module service/audit/file_sinks
 * @description 审计文件汇实现，将评估审计记录追加写入CSV或JSON Lines文件
 * @architecture 分层架构 - 审计服务层
 * @documentReference dev_docs/assessment_design.md
 * @stateFlow 记录到达 -> 序列化 -> 追加写入 -> 刷盘
 * @rules 文件汇为追加写，单条记录写入失败不影响后续记录
 * @dependencies encoding/csv, encoding/json, os, sync
 * @refs service/audit/audit_service.go
 */

package audit

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"

	"dataguard-service/service/models"
)

// CSVSink 将审计记录追加写入CSV文件
type CSVSink struct {
	mu            sync.Mutex
	file          *os.File
	writer        *csv.Writer
	headerWritten bool
}

// NewCSVSink 打开（或创建）CSV审计文件
func NewCSVSink(path string) (*CSVSink, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("打开CSV审计文件失败: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	return &CSVSink{
		file:          file,
		writer:        csv.NewWriter(file),
		headerWritten: info.Size() > 0,
	}, nil
}

// Write 追加一条审计记录
func (s *CSVSink) Write(record *models.AssessmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.headerWritten {
		header := []string{
			"assessed_at", "standard_name", "standard_version", "fingerprint",
			"overall_score", "passed", "decision", "row_count", "duration_ms",
		}
		if err := s.writer.Write(header); err != nil {
			return err
		}
		s.headerWritten = true
	}

	row := []string{
		record.AssessedAt.Format("2006-01-02 15:04:05"),
		record.StandardName,
		record.StandardVersion,
		record.Fingerprint,
		strconv.FormatFloat(record.OverallScore, 'f', 2, 64),
		strconv.FormatBool(record.Passed),
		record.Decision,
		strconv.Itoa(record.RowCount),
		strconv.FormatInt(record.Duration, 10),
	}
	if err := s.writer.Write(row); err != nil {
		return err
	}
	s.writer.Flush()
	return s.writer.Error()
}

// Close 关闭CSV文件
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer.Flush()
	return s.file.Close()
}

// JSONSink 将审计记录以JSON Lines格式追加写入文件
type JSONSink struct {
	mu   sync.Mutex
	file *os.File
}

// NewJSONSink 打开（或创建）JSON Lines审计文件
func NewJSONSink(path string) (*JSONSink, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("打开JSON审计文件失败: %w", err)
	}
	return &JSONSink{file: file}, nil
}

// Write 追加一条审计记录
func (s *JSONSink) Write(record *models.AssessmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = s.file.Write(data)
	return err
}

// Close 关闭JSON文件
func (s *JSONSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
