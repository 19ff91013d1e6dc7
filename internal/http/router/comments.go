package router

import (
	"github.com/gin-gonic/gin"

	"commentary.app/comments/internal/http/handler"
	"commentary.app/comments/internal/model"
)

// CommentRouter sets up comment posting, listing and feedback routes.
func CommentRouter(rg *gin.RouterGroup, ch *handler.CommentHandler, fh *handler.FeedbackHandler) {
	rg.POST("", ch.Post)
	rg.GET("", ch.List)
	rg.GET("/tree", ch.Tree)
	rg.GET("/count", ch.Count)

	rg.GET("/:id/reply", ch.Reply)

	rg.GET("/:id/like", fh.Opinion)
	rg.POST("/:id/like", fh.SetOpinion(model.FlagKindLike))
	rg.DELETE("/:id/like", fh.WithdrawOpinion(model.FlagKindLike))

	rg.GET("/:id/dislike", fh.Opinion)
	rg.POST("/:id/dislike", fh.SetOpinion(model.FlagKindDislike))
	rg.DELETE("/:id/dislike", fh.WithdrawOpinion(model.FlagKindDislike))

	rg.GET("/:id/flag", fh.FlagIntent)
	rg.POST("/:id/flag", fh.Flag)

	rg.GET("/:id/remove", fh.RemoveIntent)
	rg.POST("/:id/remove", fh.Remove)
}
