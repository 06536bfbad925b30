/*
 * @module api/controllers/task_controller
 * @description 评估任务控制器，提供定时评估任务的CRUD与手动触发接口
 * @architecture 分层架构 - 控制器层
 * @documentReference dev_docs/assessment_design.md
 * @stateFlow HTTP请求处理流程
 * @rules 任务增删改后整体重载调度器
 * @dependencies gorm.io/gorm, dataguard-service/service/scheduler
 * @refs service/scheduler/assessment_scheduler.go
 */

package controllers

import (
	"net/http"
	"strconv"

	"dataguard-service/service/models"
	"dataguard-service/service/scheduler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"gorm.io/gorm"
)

// TaskController 评估任务控制器
type TaskController struct {
	db        *gorm.DB
	scheduler *scheduler.AssessmentScheduler
}

// NewTaskController 创建评估任务控制器实例
func NewTaskController(db *gorm.DB, sched *scheduler.AssessmentScheduler) *TaskController {
	return &TaskController{db: db, scheduler: sched}
}

// CreateTask 创建评估任务
// @Summary 创建评估任务
// @Description 创建定时评估任务并注册到调度器
// @Tags 评估任务
// @Accept json
// @Produce json
// @Param task body models.AssessmentTask true "评估任务信息"
// @Success 200 {object} APIResponse{data=models.AssessmentTask} "创建成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /tasks [post]
func (c *TaskController) CreateTask(w http.ResponseWriter, r *http.Request) {
	var task models.AssessmentTask
	if err := render.DecodeJSON(r.Body, &task); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", nil))
		return
	}

	if task.Name == "" || task.StandardName == "" {
		render.JSON(w, r, BadRequestResponse("任务名称与标准名称不能为空", nil))
		return
	}

	if err := c.db.Create(&task).Error; err != nil {
		render.JSON(w, r, InternalErrorResponse("创建评估任务失败"))
		return
	}

	if err := c.scheduler.ReloadScheduledTasks(); err != nil {
		render.JSON(w, r, InternalErrorResponse("任务已创建但调度器重载失败"))
		return
	}

	render.JSON(w, r, SuccessResponse("创建评估任务成功", task))
}

// GetTasks 获取评估任务列表
// @Summary 获取评估任务列表
// @Tags 评估任务
// @Produce json
// @Param page query int false "页码" default(1)
// @Param size query int false "每页数量" default(10)
// @Success 200 {object} PaginatedResponse{data=[]models.AssessmentTask}
// @Failure 500 {object} APIResponse
// @Router /tasks [get]
func (c *TaskController) GetTasks(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	if size <= 0 {
		size = 10
	}

	var tasks []models.AssessmentTask
	var total int64
	if err := c.db.Model(&models.AssessmentTask{}).Count(&total).Error; err != nil {
		render.JSON(w, r, InternalErrorResponse("获取评估任务列表失败"))
		return
	}
	if err := c.db.Order("created_at DESC").Offset((page - 1) * size).Limit(size).Find(&tasks).Error; err != nil {
		render.JSON(w, r, InternalErrorResponse("获取评估任务列表失败"))
		return
	}

	render.JSON(w, r, PaginatedResponse{
		Status: http.StatusOK,
		Msg:    "获取评估任务列表成功",
		Data:   tasks,
		Total:  total,
		Page:   page,
		Size:   size,
	})
}

// GetTask 获取评估任务详情
// @Summary 获取评估任务详情
// @Tags 评估任务
// @Produce json
// @Param id path string true "任务ID"
// @Success 200 {object} APIResponse{data=models.AssessmentTask}
// @Failure 404 {object} APIResponse
// @Router /tasks/{id} [get]
func (c *TaskController) GetTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var task models.AssessmentTask
	if err := c.db.First(&task, "id = ?", id).Error; err != nil {
		render.JSON(w, r, NotFoundResponse("评估任务不存在"))
		return
	}

	render.JSON(w, r, SuccessResponse("查询成功", task))
}

// UpdateTask 更新评估任务
// @Summary 更新评估任务
// @Tags 评估任务
// @Accept json
// @Produce json
// @Param id path string true "任务ID"
// @Param task body models.AssessmentTask true "评估任务信息"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /tasks/{id} [put]
func (c *TaskController) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var task models.AssessmentTask
	if err := c.db.First(&task, "id = ?", id).Error; err != nil {
		render.JSON(w, r, NotFoundResponse("评估任务不存在"))
		return
	}

	var updates models.AssessmentTask
	if err := render.DecodeJSON(r.Body, &updates); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", nil))
		return
	}
	updates.ID = task.ID

	if err := c.db.Model(&task).Updates(&updates).Error; err != nil {
		render.JSON(w, r, InternalErrorResponse("更新评估任务失败"))
		return
	}

	if err := c.scheduler.ReloadScheduledTasks(); err != nil {
		render.JSON(w, r, InternalErrorResponse("任务已更新但调度器重载失败"))
		return
	}

	render.JSON(w, r, SuccessResponse("更新成功", nil))
}

// DeleteTask 删除评估任务
// @Summary 删除评估任务
// @Tags 评估任务
// @Produce json
// @Param id path string true "任务ID"
// @Success 200 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /tasks/{id} [delete]
func (c *TaskController) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := c.db.Delete(&models.AssessmentTask{}, "id = ?", id).Error; err != nil {
		render.JSON(w, r, InternalErrorResponse("删除评估任务失败"))
		return
	}

	if err := c.scheduler.ReloadScheduledTasks(); err != nil {
		render.JSON(w, r, InternalErrorResponse("任务已删除但调度器重载失败"))
		return
	}

	render.JSON(w, r, SuccessResponse("删除成功", nil))
}

// TriggerTask 手动触发评估任务
// @Summary 手动触发评估任务
// @Description 立即执行一次评估任务并返回评估结果
// @Tags 评估任务
// @Produce json
// @Param id path string true "任务ID"
// @Success 200 {object} APIResponse{data=models.AssessmentResult}
// @Failure 500 {object} APIResponse
// @Router /tasks/{id}/trigger [post]
func (c *TaskController) TriggerTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := c.scheduler.TriggerTask(r.Context(), id)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse(err.Error()))
		return
	}

	render.JSON(w, r, SuccessResponse("任务执行完成", result))
}
