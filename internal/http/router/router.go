package router

import (
	"github.com/gin-gonic/gin"

	"commentary.app/comments/internal/http/handler"
	"commentary.app/comments/internal/http/middleware"
	"commentary.app/comments/internal/service"
)

type RouterConfig struct {
	LoginURL string
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	commentHandler := handler.NewCommentHandler(services.Comments(), cfg.LoginURL)
	muteHandler := handler.NewMuteHandler(services.Notify())
	feedbackHandler := handler.NewFeedbackHandler(services.Feedback())

	// Email-link landing routes live outside the API prefix; they are what
	// confirmation and mute URLs point at.
	links := router.Group("/comments")
	{
		links.GET("/confirm/:key", commentHandler.Confirm)
		links.GET("/mute/:key", muteHandler.Mute)
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Identity())
	{
		CommentRouter(v1.Group("/comments"), commentHandler, feedbackHandler)
	}
}
