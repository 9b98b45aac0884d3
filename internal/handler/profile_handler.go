package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"yatube/internal/middleware"
	"yatube/internal/pkg"
	"yatube/internal/service"
)

type ProfileHandler struct {
	users   *service.UserService
	posts   *service.PostService
	follows *service.FollowService
	perPage int
}

func NewProfileHandler(users *service.UserService, posts *service.PostService,
	follows *service.FollowService, perPage int) *ProfileHandler {
	return &ProfileHandler{
		users:   users,
		posts:   posts,
		follows: follows,
		perPage: perPage,
	}
}

// Profile 个人页：作者的帖子分页 + 观察者视角的关注状态
func (h *ProfileHandler) Profile(c *gin.Context) {
	username := c.Param("username")
	author, err := h.users.GetByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"msg": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
		return
	}

	pageNum := pkg.ParsePageNumber(c.Query("page"))
	list, page, err := h.posts.ListByAuthor(author.ID, pageNum, h.perPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "list failed"})
		return
	}

	// 匿名观察者 following 恒为 false
	var following bool
	if viewerID, ok := middleware.CurrentUserID(c); ok {
		following, _ = h.follows.IsFollowing(c.Request.Context(), viewerID, author.ID)
	}

	c.JSON(http.StatusOK, gin.H{
		"author":    author,
		"page":      page,
		"posts":     list,
		"following": following,
	})
}
