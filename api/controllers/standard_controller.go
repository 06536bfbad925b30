/*
 * @module api/controllers/standard_controller
 * @description 质量标准控制器，提供标准的创建、加载、查询与删除接口
 * @architecture 分层架构 - 控制器层
 * @documentReference dev_docs/assessment_design.md
 * @stateFlow HTTP请求处理流程
 * @rules 标准以name+version唯一；YAML与JSON两种载入格式
 * @dependencies dataguard-service/service/standards, github.com/go-chi/render
 * @refs dev_docs/model.md
 */

package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"dataguard-service/service/assessment"
	"dataguard-service/service/standards"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// StandardController 质量标准控制器
type StandardController struct {
	repo *standards.Repository
}

// NewStandardController 创建质量标准控制器实例
func NewStandardController(repo *standards.Repository) *StandardController {
	return &StandardController{repo: repo}
}

// CreateStandard 创建质量标准
// @Summary 创建质量标准
// @Description 以JSON或YAML文档创建质量标准，按Content-Type区分格式
// @Tags 质量标准
// @Accept json
// @Produce json
// @Success 200 {object} APIResponse{data=models.Standard} "创建成功"
// @Failure 400 {object} APIResponse "标准文档格式错误"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /standards [post]
func (c *StandardController) CreateStandard(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		render.JSON(w, r, BadRequestResponse("读取请求体失败", nil))
		return
	}

	load := standards.LoadFromJSON
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		load = standards.LoadFromYAML
	}

	standard, err := load(body)
	if err != nil {
		render.JSON(w, r, BadRequestResponse(err.Error(), nil))
		return
	}

	if err := c.repo.Save(standard, false); err != nil {
		render.JSON(w, r, InternalErrorResponse("标准持久化失败"))
		return
	}

	render.JSON(w, r, SuccessResponse("创建标准成功", standard))
}

// GetStandards 获取质量标准列表
// @Summary 获取质量标准列表
// @Description 分页获取质量标准列表
// @Tags 质量标准
// @Produce json
// @Param page query int false "页码" default(1)
// @Param size query int false "每页数量" default(10)
// @Success 200 {object} PaginatedResponse{data=[]models.StandardRecord}
// @Failure 500 {object} APIResponse
// @Router /standards [get]
func (c *StandardController) GetStandards(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	if size <= 0 {
		size = 10
	}

	records, total, err := c.repo.List(page, size)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("获取标准列表失败"))
		return
	}

	render.JSON(w, r, PaginatedResponse{
		Status: http.StatusOK,
		Msg:    "获取标准列表成功",
		Data:   records,
		Total:  total,
		Page:   page,
		Size:   size,
	})
}

// GetStandard 获取质量标准详情
// @Summary 获取质量标准详情
// @Tags 质量标准
// @Produce json
// @Param id path string true "标准ID"
// @Success 200 {object} APIResponse{data=models.StandardRecord}
// @Failure 404 {object} APIResponse
// @Router /standards/{id} [get]
func (c *StandardController) GetStandard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		render.JSON(w, r, BadRequestResponse("ID参数不能为空", nil))
		return
	}

	record, err := c.repo.Get(id)
	if err != nil {
		render.JSON(w, r, NotFoundResponse("标准不存在"))
		return
	}

	render.JSON(w, r, SuccessResponse("查询成功", record))
}

// ResolveStandard 按名称解析质量标准
// @Summary 按名称解析质量标准
// @Description 按名称与可选版本解析启用的标准，版本缺省时取最新
// @Tags 质量标准
// @Produce json
// @Param name query string true "标准名称"
// @Param version query string false "标准版本"
// @Success 200 {object} APIResponse{data=models.Standard}
// @Failure 404 {object} APIResponse
// @Router /standards/resolve [get]
func (c *StandardController) ResolveStandard(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		render.JSON(w, r, BadRequestResponse("name参数不能为空", nil))
		return
	}

	standard, err := c.repo.Resolve(name, r.URL.Query().Get("version"))
	if err != nil {
		var notFound *assessment.StandardNotFoundError
		if errors.As(err, &notFound) {
			render.JSON(w, r, NotFoundResponse(err.Error()))
			return
		}
		render.JSON(w, r, InternalErrorResponse("标准解析失败"))
		return
	}

	render.JSON(w, r, SuccessResponse("解析成功", standard))
}

// DeleteStandard 删除质量标准
// @Summary 删除质量标准
// @Tags 质量标准
// @Produce json
// @Param id path string true "标准ID"
// @Success 200 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /standards/{id} [delete]
func (c *StandardController) DeleteStandard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		render.JSON(w, r, BadRequestResponse("ID参数不能为空", nil))
		return
	}

	if err := c.repo.Delete(id); err != nil {
		render.JSON(w, r, InternalErrorResponse("删除标准失败"))
		return
	}

	render.JSON(w, r, SuccessResponse("删除成功", nil))
}
