package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Kobaiko/carbculator/controllers"
	"github.com/Kobaiko/carbculator/metrics"
	"github.com/Kobaiko/carbculator/middlewares"
)

type Handlers struct {
	Health    *controllers.HealthController
	Auth      *controllers.AuthController
	Profile   *controllers.ProfileController
	Goals     *controllers.GoalController
	Analysis  *controllers.AnalysisController
	Entries   *controllers.FoodEntryController
	Water     *controllers.WaterController
	Weight    *controllers.WeightController
	Dashboard *controllers.DashboardController
	Alerts    *controllers.AlertController
	Devices   *controllers.DeviceController
	Realtime  *controllers.RealtimeController
	Dev       *controllers.DevController // nil in production
}

type Options struct {
	JWTSecret      string
	Origins        []string
	AuthLimiter    *middlewares.RateLimiter
	AnalyzeLimiter *middlewares.RateLimiter
	Log            *logrus.Logger
}

func SetupRouter(h Handlers, o Options) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middlewares.RequestLogger(o.Log),
		middlewares.Metrics(),
		middlewares.SecurityHeaders(),
		middlewares.CORS(o.Origins),
	)

	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Public auth routes
	auth := r.Group("/auth")
	if o.AuthLimiter != nil {
		auth.Use(o.AuthLimiter.Middleware(middlewares.ByIP))
	}
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/forgot-password", h.Auth.ForgotPassword)
		auth.POST("/reset-password", h.Auth.ResetPassword)
	}

	api := r.Group("/api")
	api.Use(middlewares.AuthMiddleware(o.JWTSecret))
	{
		api.GET("/me", h.Profile.Get)
		api.GET("/profile", h.Profile.Get)
		api.PUT("/profile", h.Profile.Update)
		api.POST("/profile/onboarding", h.Profile.Onboard)

		api.GET("/goals", h.Goals.Get)
		api.PUT("/goals", h.Goals.Update)
		api.POST("/goals/calculate", h.Goals.Calculate)

		analyze := []gin.HandlerFunc{h.Analysis.Analyze}
		if o.AnalyzeLimiter != nil {
			analyze = append([]gin.HandlerFunc{o.AnalyzeLimiter.Middleware(middlewares.ByUser)}, analyze...)
		}
		api.POST("/analysis", analyze...)

		api.GET("/food-entries", h.Entries.List)
		api.POST("/food-entries", h.Entries.Create)
		api.GET("/food-entries/:id", h.Entries.Get)
		api.PUT("/food-entries/:id", h.Entries.Update)
		api.DELETE("/food-entries/:id", h.Entries.Delete)

		api.GET("/water", h.Water.List)
		api.POST("/water", h.Water.Add)
		api.GET("/water/summary", h.Water.Summary)
		api.DELETE("/water/:id", h.Water.Delete)

		api.GET("/weight", h.Weight.List)
		api.POST("/weight", h.Weight.Add)
		api.GET("/weight/summary", h.Weight.Summary)
		api.DELETE("/weight/:id", h.Weight.Delete)

		dash := api.Group("/dashboard")
		dash.GET("/today", h.Dashboard.Today)
		dash.GET("/progress", h.Dashboard.Progress)
		dash.GET("/history", h.Dashboard.History)
		dash.GET("/calendar", h.Dashboard.Calendar)
		dash.GET("/trends", h.Dashboard.Trends)

		api.GET("/alerts", h.Alerts.List)
		api.POST("/alerts/:id/read", h.Alerts.MarkRead)

		api.POST("/devices", h.Devices.Register)
		api.POST("/notifications/toggle", h.Devices.ToggleNotifications)

		api.GET("/ws", h.Realtime.Stream)

		if h.Dev != nil {
			api.POST("/dev/push", h.Dev.PushTest)
		}
	}

	return r
}
