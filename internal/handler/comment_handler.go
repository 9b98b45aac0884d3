package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"yatube/internal/form"
	"yatube/internal/middleware"
	"yatube/internal/service"
)

type CommentHandler struct {
	svc   *service.CommentService
	posts *service.PostService
}

func NewCommentHandler(svc *service.CommentService, posts *service.PostService) *CommentHandler {
	return &CommentHandler{svc: svc, posts: posts}
}

// AddComment 评论接口：成功后重定向回帖子页，表单非法时带评论区原样返回
func (h *CommentHandler) AddComment(c *gin.Context) {
	username := c.Param("username")
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	post, err := h.posts.GetByAuthorAndID(username, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"msg": "post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
		return
	}

	f := form.CommentForm{Text: c.PostForm("text")}
	if errs := f.Validate(); !errs.Valid() {
		comments, err := h.svc.ListByPost(post.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "comments failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"errors": errs, "comments": comments})
		return
	}

	userID, _ := middleware.CurrentUserID(c)
	if _, err := h.svc.AddComment(userID, post.ID, f.Text); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
		return
	}
	c.Redirect(http.StatusFound, postPath(username, postID))
}
