/*
 * @module api/controllers/assessment_controller
 * @description 质量评估控制器，提供数据画像、标准生成、守护评估与审计查询接口
 * @architecture 分层架构 - 控制器层
 * @documentReference dev_docs/assessment_design.md
 * @stateFlow HTTP请求处理流程
 * @rules 统一的错误处理和响应格式；阻断是业务终态而非服务器错误，以200返回
 * @dependencies dataguard-service/service, github.com/go-chi/render
 * @refs dev_docs/model.md
 */

package controllers

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"dataguard-service/client/connectors"
	"dataguard-service/service/assessment"
	"dataguard-service/service/audit"
	"dataguard-service/service/metrics"
	"dataguard-service/service/models"

	"github.com/go-chi/render"
)

// AssessmentController 质量评估控制器
type AssessmentController struct {
	engine    *assessment.AssessmentEngine
	cache     *assessment.FingerprintCache
	resolver  assessment.StandardResolver
	auditor   *audit.AuditService
	registry  *connectors.Registry
	profiler  *assessment.DataProfiler
	generator *assessment.StandardGenerator
}

// NewAssessmentController 创建质量评估控制器实例
func NewAssessmentController(engine *assessment.AssessmentEngine, cache *assessment.FingerprintCache,
	resolver assessment.StandardResolver, auditor *audit.AuditService, registry *connectors.Registry) *AssessmentController {
	return &AssessmentController{
		engine:    engine,
		cache:     cache,
		resolver:  resolver,
		auditor:   auditor,
		registry:  registry,
		profiler:  assessment.NewDataProfiler(),
		generator: assessment.NewStandardGenerator(),
	}
}

// DatasetPayload 请求中的数据集表示，内联记录/列式数据与来源配置三选一
type DatasetPayload struct {
	Fields  []string                 `json:"fields,omitempty"`
	Records []map[string]interface{} `json:"records,omitempty"`
	Columns []models.Column          `json:"columns,omitempty"`
	// Source 非空时经连接器注册表加载数据集（csv_file/kafka/mqtt来源配置）
	Source models.JSONB `json:"source,omitempty"`
}

// loadDataset 解析请求中的数据集，优先走来源配置
func (c *AssessmentController) loadDataset(ctx context.Context, payload *DatasetPayload) (*models.Dataset, error) {
	if len(payload.Source) > 0 {
		return c.registry.LoadDataset(ctx, payload.Source)
	}
	return payload.ToDataset()
}

// ToDataset 转换为数据集模型
func (p *DatasetPayload) ToDataset() (*models.Dataset, error) {
	if len(p.Columns) > 0 {
		return models.NewDataset(p.Columns)
	}

	fields := p.Fields
	if len(fields) == 0 {
		fieldSet := make(map[string]struct{})
		for _, record := range p.Records {
			for key := range record {
				fieldSet[key] = struct{}{}
			}
		}
		for key := range fieldSet {
			fields = append(fields, key)
		}
		sort.Strings(fields)
	}
	return models.DatasetFromRecords(fields, p.Records), nil
}

// ProfileRequest 数据画像请求
type ProfileRequest struct {
	Dataset DatasetPayload `json:"dataset"`
}

// Profile 对数据集做统计画像
// @Summary 数据集画像
// @Description 推断各字段类型并计算统计画像与质量指标
// @Tags 质量评估
// @Accept json
// @Produce json
// @Param request body ProfileRequest true "数据集"
// @Success 200 {object} APIResponse{data=models.DatasetProfile}
// @Failure 400 {object} APIResponse
// @Router /assessment/profile [post]
func (c *AssessmentController) Profile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", nil))
		return
	}

	dataset, err := c.loadDataset(r.Context(), &req.Dataset)
	if err != nil {
		render.JSON(w, r, BadRequestResponse(err.Error(), nil))
		return
	}

	profile := c.profiler.Profile(dataset)
	render.JSON(w, r, SuccessResponse("数据画像完成", profile))
}

// GenerateStandardRequest 标准生成请求
type GenerateStandardRequest struct {
	Dataset DatasetPayload `json:"dataset"`
	Name    string         `json:"name"`
	// Save 为true时持久化生成的标准
	Save bool `json:"save"`
}

// GenerateStandard 按数据集画像自动生成质量标准
// @Summary 自动生成质量标准
// @Description 对数据集画像后生成与之匹配的质量标准，可选持久化
// @Tags 质量评估
// @Accept json
// @Produce json
// @Param request body GenerateStandardRequest true "数据集与标准名称"
// @Success 200 {object} APIResponse{data=models.Standard}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /assessment/generate-standard [post]
func (c *AssessmentController) GenerateStandard(w http.ResponseWriter, r *http.Request) {
	var req GenerateStandardRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", nil))
		return
	}

	dataset, err := c.loadDataset(r.Context(), &req.Dataset)
	if err != nil {
		render.JSON(w, r, BadRequestResponse(err.Error(), nil))
		return
	}

	profile := c.profiler.Profile(dataset)
	standard, err := c.generator.Generate(profile, req.Name)
	if err != nil {
		render.JSON(w, r, BadRequestResponse(err.Error(), nil))
		return
	}

	if req.Save {
		if err := c.resolver.Save(standard, true); err != nil {
			render.JSON(w, r, InternalErrorResponse("标准持久化失败"))
			return
		}
	}

	render.JSON(w, r, SuccessResponse("标准生成成功", standard))
}

// RunAssessmentRequest 守护评估请求
type RunAssessmentRequest struct {
	Dataset DatasetPayload `json:"dataset"`
	// Standard 标准引用与失败策略配置
	Standard assessment.GuardConfig `json:"standard"`
	// UseCache 为false时绕过指纹缓存直接评估
	UseCache *bool `json:"use_cache,omitempty"`
}

// RunAssessmentResponse 守护评估响应
type RunAssessmentResponse struct {
	Decision models.GuardDecision     `json:"decision"`
	Result   *models.AssessmentResult `json:"result"`
}

// Run 执行一次守护评估
// @Summary 执行守护评估
// @Description 按标准评估数据集，按失败策略返回allowed/warned/blocked终态
// @Tags 质量评估
// @Accept json
// @Produce json
// @Param request body RunAssessmentRequest true "数据集与评估配置"
// @Success 200 {object} APIResponse{data=RunAssessmentResponse}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /assessment/run [post]
func (c *AssessmentController) Run(w http.ResponseWriter, r *http.Request) {
	var req RunAssessmentRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", nil))
		return
	}

	dataset, err := c.loadDataset(r.Context(), &req.Dataset)
	if err != nil {
		render.JSON(w, r, BadRequestResponse(err.Error(), nil))
		return
	}

	cache := c.cache
	if req.UseCache != nil && !*req.UseCache {
		cache = nil
	}

	// HTTP评估的"被守护操作"为空操作，调用方按终态自行决定后续动作
	guard, err := assessment.NewProtectionGuard(
		func(_ context.Context, _ *models.Dataset) (interface{}, error) { return nil, nil },
		req.Standard, c.engine, cache, c.resolver, c.auditor)
	if err != nil {
		render.JSON(w, r, BadRequestResponse(err.Error(), nil))
		return
	}

	outcome, err := guard.Invoke(r.Context(), dataset)
	if err != nil {
		// 质量闸门阻断是明确的业务终态，携带完整评估结果返回
		if _, blocked := assessment.IsQualityGateError(err); blocked {
			metrics.ObserveAssessment(outcome.Result, outcome.Decision)
			render.JSON(w, r, SuccessResponse("数据质量未达标，操作已阻断", RunAssessmentResponse{
				Decision: outcome.Decision,
				Result:   outcome.Result,
			}))
			return
		}

		var notFound *assessment.StandardNotFoundError
		if errors.As(err, &notFound) {
			render.JSON(w, r, NotFoundResponse(err.Error()))
			return
		}
		render.JSON(w, r, InternalErrorResponse(err.Error()))
		return
	}

	metrics.ObserveAssessment(outcome.Result, outcome.Decision)
	render.JSON(w, r, SuccessResponse("评估完成", RunAssessmentResponse{
		Decision: outcome.Decision,
		Result:   outcome.Result,
	}))
}

// GetRecords 查询评估审计记录
// @Summary 查询评估审计记录
// @Description 分页查询历史评估留痕，支持按标准名称筛选
// @Tags 质量评估
// @Produce json
// @Param standard_name query string false "标准名称"
// @Param page query int false "页码" default(1)
// @Param size query int false "每页数量" default(10)
// @Success 200 {object} PaginatedResponse{data=[]models.AssessmentRecord}
// @Failure 500 {object} APIResponse
// @Router /assessment/records [get]
func (c *AssessmentController) GetRecords(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	if size <= 0 {
		size = 10
	}
	standardName := r.URL.Query().Get("standard_name")

	records, total, err := c.auditor.List(standardName, page, size)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("查询评估记录失败"))
		return
	}

	render.JSON(w, r, PaginatedResponse{
		Status: http.StatusOK,
		Msg:    "查询评估记录成功",
		Data:   records,
		Total:  total,
		Page:   page,
		Size:   size,
	})
}

// GetCacheStats 查询指纹缓存状态
// @Summary 查询指纹缓存状态
// @Tags 质量评估
// @Produce json
// @Success 200 {object} APIResponse
// @Router /assessment/cache [get]
func (c *AssessmentController) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SuccessResponse("查询缓存状态成功", map[string]interface{}{
		"entries": c.cache.Len(),
	}))
}

// InvalidateCache 清空指纹缓存
// @Summary 清空指纹缓存
// @Tags 质量评估
// @Produce json
// @Success 200 {object} APIResponse
// @Router /assessment/cache [delete]
func (c *AssessmentController) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	c.cache.Clear()
	render.JSON(w, r, SuccessResponse("缓存已清空", nil))
}
