/*
 * @module service/metrics/metrics
 * @description 评估服务Prometheus指标定义，覆盖评估次数、决策分布、维度得分与耗时
 * @architecture 工具层 - 指标采集
 * @documentReference dev_docs/assessment_design.md
 * @stateFlow 评估完成 -> 指标更新 -> /metrics端点暴露
 * @rules 指标在包初始化时注册到默认注册表，由main.go通过promhttp暴露
 * @dependencies github.com/prometheus/client_golang/prometheus
 * @refs main.go, api/controllers/assessment_controller.go
 */

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"dataguard-service/service/models"
)

var (
	// AssessmentsTotal 评估总次数，按标准与决策分组
	AssessmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dataguard",
		Name:      "assessments_total",
		Help:      "质量评估总次数",
	}, []string{"standard", "decision"})

	// AssessmentDuration 评估耗时分布
	AssessmentDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dataguard",
		Name:      "assessment_duration_seconds",
		Help:      "质量评估耗时分布",
		Buckets:   prometheus.DefBuckets,
	}, []string{"standard"})

	// OverallScore 最近一次评估的总分
	OverallScore = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "dataguard",
		Name:      "overall_score",
		Help:      "最近一次质量评估的总分",
	}, []string{"standard"})

	// DimensionScore 最近一次评估的各维度得分
	DimensionScore = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "dataguard",
		Name:      "dimension_score",
		Help:      "最近一次质量评估的维度得分",
	}, []string{"standard", "dimension"})

	// CacheHits 指纹缓存命中次数
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dataguard",
		Name:      "cache_hits_total",
		Help:      "指纹缓存命中次数",
	})
)

// ObserveAssessment 按评估结果更新全部相关指标
func ObserveAssessment(result *models.AssessmentResult, decision models.GuardDecision) {
	AssessmentsTotal.WithLabelValues(result.StandardName, string(decision)).Inc()
	AssessmentDuration.WithLabelValues(result.StandardName).Observe(float64(result.Duration) / float64(time.Second))
	OverallScore.WithLabelValues(result.StandardName).Set(result.OverallScore)
	for _, dim := range models.AllDimensions() {
		DimensionScore.WithLabelValues(result.StandardName, string(dim)).Set(result.DimensionScores.Get(dim))
	}
}
