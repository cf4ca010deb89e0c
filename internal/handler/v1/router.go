package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/isoward/isoward/internal/config"
	"github.com/isoward/isoward/internal/handler/middleware"
	"github.com/isoward/isoward/internal/realtime"
	"github.com/isoward/isoward/pkg/metrics"
)

// Handlers groups the route handlers wired by the server entrypoint.
type Handlers struct {
	Ward       *WardHandler
	Bed        *BedHandler
	Patient    *PatientHandler
	Activity   *ActivityHandler
	Simulation *SimulationHandler
	Realtime   *realtime.Handler
}

func SetupRouter(cfg *config.Config, h *Handlers, collector *metrics.Collector, logger *zap.Logger) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Metrics(collector))
	r.Use(middleware.RateLimit(cfg.RateLimit))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": cfg.App.Version})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	h.Realtime.RegisterRoutes(r)

	api := r.Group("/api")
	{
		wards := api.Group("/wards")
		{
			wards.POST("", h.Ward.CreateWard)
			wards.GET("", h.Ward.ListWards)
			wards.GET("/:id/beds", h.Ward.ListWardBeds)
			wards.POST("/:id/auto-admit", h.Ward.AutoAdmit)
			wards.GET("/:id/recommendation", h.Ward.RecommendBed)
		}

		beds := api.Group("/beds")
		{
			beds.GET("", h.Bed.ListBeds)
			beds.POST("/:id/admit", h.Bed.Admit)
			beds.PATCH("/:id/maintenance", h.Bed.SetMaintenance)
		}

		patients := api.Group("/patients")
		{
			patients.GET("", h.Patient.ListPatients)
			patients.POST("/:id/discharge", h.Patient.Discharge)
			patients.PATCH("/:id/condition", h.Patient.UpdateCondition)
			patients.POST("/:id/transfer", h.Patient.Transfer)
		}

		api.GET("/bookings", h.Activity.ListBookings)
		api.GET("/activities", h.Activity.ListActivities)
		api.GET("/stats", h.Ward.GetStats)
		api.POST("/simulation/step", h.Simulation.RunStep)
	}

	return r
}
