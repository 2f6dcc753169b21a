package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Non-secret runtime configuration for the frontend.
		api.GET("/config", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"email_address": h.config.EmailAddress,
				"whoami":        h.config.Whoami,
				"ai_provider":   h.config.AIProvider,
				"lookback_days": h.config.LookbackDays,
			})
		})

		emails := api.Group("/emails")
		{
			emails.GET("", h.emailHandler.GetEmails)
			emails.POST("/refresh", h.emailHandler.Refresh)
			emails.POST("/search", h.emailHandler.Search)
			emails.POST("/extract", h.emailHandler.Extract)
			emails.POST("/send", h.emailHandler.SendEmail)
		}

		api.GET("/summary/daily", h.emailHandler.DailySummary)

		templates := api.Group("/templates")
		{
			templates.GET("", h.templateHandler.List)
			templates.POST("", h.templateHandler.Create)
			templates.PUT("/:id", h.templateHandler.Update)
			templates.DELETE("/:id", h.templateHandler.Delete)
			templates.POST("/:name/render", h.templateHandler.Render)
		}
	}
}
