package dto

import (
	"time"

	"commentary.app/comments/internal/model"
)

type CommentResponse struct {
	ID          int64     `json:"id"`
	TargetID    int64     `json:"target_id"`
	ThreadID    int64     `json:"thread_id"`
	ParentID    *int64    `json:"parent_id,omitempty"`
	Level       int       `json:"level"`
	Order       int       `json:"order"`
	UserName    string    `json:"user_name"`
	UserURL     string    `json:"user_url,omitempty"`
	Body        string    `json:"body"`
	IsRemoved   bool      `json:"is_removed"`
	SubmittedAt time.Time `json:"submitted_at"`
}

func ToCommentResponse(c *model.Comment) CommentResponse {
	return CommentResponse{
		ID:          c.ID,
		TargetID:    c.TargetID,
		ThreadID:    c.ThreadID,
		ParentID:    c.ParentID,
		Level:       c.Level,
		Order:       c.Order,
		UserName:    c.UserName,
		UserURL:     c.UserURL,
		Body:        c.Body,
		IsRemoved:   c.IsRemoved,
		SubmittedAt: c.SubmittedAt,
	}
}

func ToCommentResponses(comments []model.Comment) []CommentResponse {
	out := make([]CommentResponse, len(comments))
	for i := range comments {
		out[i] = ToCommentResponse(&comments[i])
	}
	return out
}

type CommentTreeNode struct {
	CommentResponse
	Children []CommentTreeNode `json:"children,omitempty"`
}

func ToCommentTree(nodes []*model.CommentNode) []CommentTreeNode {
	out := make([]CommentTreeNode, len(nodes))
	for i, node := range nodes {
		out[i] = CommentTreeNode{
			CommentResponse: ToCommentResponse(&node.Comment),
			Children:        ToCommentTree(node.Children),
		}
	}
	return out
}

type OpinionResponse struct {
	Comment  CommentResponse `json:"comment"`
	Likes    int64           `json:"likes"`
	Dislikes int64           `json:"dislikes"`
	Current  string          `json:"current,omitempty"`
}
