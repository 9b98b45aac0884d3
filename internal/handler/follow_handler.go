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

type FollowHandler struct {
	follows *service.FollowService
	users   *service.UserService
	posts   *service.PostService
	perPage int
}

func NewFollowHandler(follows *service.FollowService, users *service.UserService,
	posts *service.PostService, perPage int) *FollowHandler {
	return &FollowHandler{
		follows: follows,
		users:   users,
		posts:   posts,
		perPage: perPage,
	}
}

// FollowIndex 关注流：当前用户关注的作者们的帖子，分页
func (h *FollowHandler) FollowIndex(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	pageNum := pkg.ParsePageNumber(c.Query("page"))
	list, page, err := h.posts.ListFeed(userID, pageNum, h.perPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": page, "posts": list})
}

// ProfileFollow 关注目标作者（幂等）；目标不存在 404，关注自己为空操作
func (h *FollowHandler) ProfileFollow(c *gin.Context) {
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

	userID, _ := middleware.CurrentUserID(c)
	if userID != author.ID {
		if _, err := h.follows.Follow(c.Request.Context(), userID, author.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
			return
		}
	}
	c.Redirect(http.StatusFound, "/"+username)
}

// ProfileUnfollow 取消关注；目标用户或关注边不存在时 404
func (h *FollowHandler) ProfileUnfollow(c *gin.Context) {
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

	userID, _ := middleware.CurrentUserID(c)
	if userID != author.ID {
		if err := h.follows.Unfollow(c.Request.Context(), userID, author.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"msg": "follow not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
			return
		}
	}
	c.Redirect(http.StatusFound, "/"+username)
}
