/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs dev_docs/model.md
 */

package api

import (
	"dataguard-service/api/controllers"
	apimiddleware "dataguard-service/api/middleware"
	"dataguard-service/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// InitRoute 初始化所有API路由
func InitRoute(r *chi.Mux) {
	// 基础中间件
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-API-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// API Key鉴权（未配置API_KEY_HASH时关闭）
	r.Use(apimiddleware.NewAPIKeyAuthMiddleware().Handler)

	// 健康检查
	healthController := controllers.NewHealthController()
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	// 质量评估
	r.Route("/assessment", func(r chi.Router) {
		assessmentController := controllers.NewAssessmentController(
			service.GlobalAssessmentEngine,
			service.GlobalFingerprintCache,
			service.GlobalStandardRepo,
			service.GlobalAuditService,
			service.GlobalConnectorRegistry,
		)

		// 数据集画像
		r.Post("/profile", assessmentController.Profile)

		// 自动生成质量标准
		r.Post("/generate-standard", assessmentController.GenerateStandard)

		// 守护评估
		r.Post("/run", assessmentController.Run)

		// 评估审计记录
		r.Get("/records", assessmentController.GetRecords)

		// 指纹缓存管理
		r.Get("/cache", assessmentController.GetCacheStats)
		r.Delete("/cache", assessmentController.InvalidateCache)
	})

	// 质量标准管理
	r.Route("/standards", func(r chi.Router) {
		standardController := controllers.NewStandardController(service.GlobalStandardRepo)

		r.Post("/", standardController.CreateStandard)
		r.Get("/", standardController.GetStandards)
		r.Get("/resolve", standardController.ResolveStandard)
		r.Get("/{id}", standardController.GetStandard)
		r.Delete("/{id}", standardController.DeleteStandard)
	})

	// 评估任务管理
	r.Route("/tasks", func(r chi.Router) {
		taskController := controllers.NewTaskController(service.DB, service.GlobalScheduler)

		r.Post("/", taskController.CreateTask)
		r.Get("/", taskController.GetTasks)
		r.Get("/{id}", taskController.GetTask)
		r.Put("/{id}", taskController.UpdateTask)
		r.Delete("/{id}", taskController.DeleteTask)
		r.Post("/{id}/trigger", taskController.TriggerTask)
	})
}
