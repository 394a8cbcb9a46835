package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"course-eval/backend/config"
	"course-eval/backend/internal/api/handler"
	"course-eval/backend/internal/api/middleware"
	"course-eval/backend/internal/model"
	"course-eval/backend/pkg/jwt"
	"course-eval/backend/pkg/metrics"
)

// Deps 路由依赖；Blacklist 与 Limiter 为 nil 时对应功能降级
type Deps struct {
	JWT       *jwt.Manager
	Blacklist middleware.TokenBlacklist
	Limiter   middleware.RateLimiter
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, deps Deps, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger, "/health", "/metrics"))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
	}

	// ── 健康检查与指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	limit := middleware.RateLimit(deps.Limiter, cfg.RateLimit.Limit, cfg.RateLimit.Window)
	adminOnly := middleware.RoleAuth(model.RoleAdmin)
	moderators := middleware.RoleAuth(model.RoleAdmin, model.RoleModerator)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", limit, h.Auth.Login)
			auth.POST("/register", limit, h.Auth.Register)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(deps.JWT, deps.Blacklist))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 课程（只读）、评价列表、课程课表
			courses := authorized.Group("/courses/:id")
			{
				courses.GET("", h.Course.GetCourse)
				courses.GET("/summary", h.Course.GetSummary)
				courses.GET("/reviews", h.Review.ListCourseReviews)

				courses.GET("/schedules", h.Schedule.ListCourseSchedules)
				courses.GET("/schedules/conflict", h.Schedule.CheckCourseConflict)
				courses.POST("/schedules/conflicts", h.Schedule.CheckCourseConflicts)
				courses.GET("/schedules/export", h.Export.ExportCourseSchedule)
				courses.POST("/schedules", adminOnly, h.Schedule.AddCourseSchedule)
			}

			courseSchedules := authorized.Group("/course-schedules", adminOnly)
			{
				courseSchedules.PUT("/:id", h.Schedule.UpdateCourseSchedule)
				courseSchedules.DELETE("/:id", h.Schedule.DeleteCourseSchedule)
			}

			// 评价与点赞
			reviews := authorized.Group("/reviews")
			{
				reviews.POST("", limit, h.Review.CreateReview)
				reviews.GET("/:id", h.Review.GetReview)
				reviews.PUT("/:id", limit, h.Review.UpdateReview) // 作者或管理员（Service 层鉴权）
				reviews.DELETE("/:id", h.Review.DeleteReview)
				reviews.PUT("/:id/status", moderators, h.Review.ModerateReview)
				reviews.PUT("/:id/pin", moderators, h.Review.PinReview)

				reviews.GET("/:id/votes", h.Review.GetVotes)
				reviews.PUT("/:id/vote", limit, h.Review.Vote)
				reviews.DELETE("/:id/vote", limit, h.Review.CancelVote)
			}

			// 个人课表
			mine := authorized.Group("/me/schedules")
			{
				mine.GET("", h.Schedule.ListMySchedules)
				mine.GET("/conflict", h.Schedule.CheckMyConflict)
				mine.POST("/conflicts", h.Schedule.CheckMyConflicts)
				mine.POST("", h.Schedule.AddMySchedule)
				mine.PUT("/:id", h.Schedule.UpdateMySchedule)
				mine.DELETE("/:id", h.Schedule.DeleteMySchedule)
				mine.POST("/import", limit, h.Schedule.ImportMyICS)
				mine.GET("/export", h.Export.ExportMySchedule)
			}

			// 管理员运维
			admin := authorized.Group("/admin", adminOnly)
			{
				admin.POST("/courses/:id/summary", h.Admin.RegenerateSummary)
				admin.POST("/summaries/sweep", h.Admin.RunSweep)
			}
		}
	}

	return r
}
