package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"yatube/internal/cache"
	"yatube/internal/form"
	"yatube/internal/middleware"
	"yatube/internal/pkg"
	"yatube/internal/service"
)

type PostHandler struct {
	svc      *service.PostService
	groups   *service.GroupService
	comments *service.CommentService
	pages    cache.PageCache

	mediaDir string
	perPage  int
}

func NewPostHandler(svc *service.PostService, groups *service.GroupService,
	comments *service.CommentService, pages cache.PageCache,
	mediaDir string, perPage int) *PostHandler {
	return &PostHandler{
		svc:      svc,
		groups:   groups,
		comments: comments,
		pages:    pages,
		mediaDir: mediaDir,
		perPage:  perPage,
	}
}

// Index 首页：全站帖子按发布时间倒序分页，整页走缓存
func (h *PostHandler) Index(c *gin.Context) {
	pageNum := pkg.ParsePageNumber(c.Query("page"))
	key := cache.Key("index", "page="+strconv.Itoa(pageNum))

	if body, hit, err := h.pages.Get(c.Request.Context(), key); err == nil && hit {
		c.Data(http.StatusOK, "application/json; charset=utf-8", body)
		return
	}

	list, page, err := h.svc.ListAll(pageNum, h.perPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "list failed"})
		return
	}

	body, err := json.Marshal(gin.H{"page": page, "posts": list})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "render failed"})
		return
	}
	if err := h.pages.Set(c.Request.Context(), key, body); err != nil {
		log.WithError(err).Warn("page cache set failed")
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// ClearPageCache 显式清空整页缓存
func (h *PostHandler) ClearPageCache(c *gin.Context) {
	if err := h.pages.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "clear failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

// GroupPosts 分组页：slug 不存在返回 404
func (h *PostHandler) GroupPosts(c *gin.Context) {
	slug := c.Param("slug")
	group, err := h.groups.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"msg": "group not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
		return
	}

	pageNum := pkg.ParsePageNumber(c.Query("page"))
	list, page, err := h.svc.ListByGroup(group.ID, pageNum, h.perPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": group, "page": page, "posts": list})
}

// NewPost GET 返回空表单，POST 创建；表单非法时带字段错误原样返回
func (h *PostHandler) NewPost(c *gin.Context) {
	if c.Request.Method == http.MethodGet {
		c.JSON(http.StatusOK, gin.H{"form": gin.H{"text": "", "group": nil, "image": nil}})
		return
	}

	userID, _ := middleware.CurrentUserID(c)

	f, errs := h.bindPostForm(c)
	if errs == nil {
		return
	}
	if !errs.Valid() {
		c.JSON(http.StatusOK, gin.H{"form": gin.H{"text": f.Text}, "errors": errs})
		return
	}

	image, ok := h.saveImage(c, f)
	if !ok {
		return
	}

	if _, err := h.svc.CreatePost(userID, f.Text, f.GroupID, image); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// PostView 帖子详情，GET+POST。登录用户带 text 的 POST 会追加评论；
// 匿名 POST 不产生任何写入
func (h *PostHandler) PostView(c *gin.Context) {
	username := c.Param("username")
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	post, err := h.svc.GetByAuthorAndID(username, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"msg": "post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
		return
	}

	var formErrs form.Errors
	if c.Request.Method == http.MethodPost {
		cf := form.CommentForm{Text: c.PostForm("text")}
		if viewerID, authed := middleware.CurrentUserID(c); authed {
			formErrs = cf.Validate()
			if formErrs.Valid() {
				if _, err := h.comments.AddComment(viewerID, post.ID, cf.Text); err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
					return
				}
			}
		}
	}

	comments, err := h.comments.ListByPost(post.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "comments failed"})
		return
	}

	resp := gin.H{"post": post, "author": username, "comments": comments}
	if len(formErrs) > 0 {
		resp["errors"] = formErrs
	}
	c.JSON(http.StatusOK, resp)
}

// PostEdit 仅作者可编辑。非作者不报错，重定向回帖子页
func (h *PostHandler) PostEdit(c *gin.Context) {
	username := c.Param("username")
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	if current := c.GetString(middleware.ContextUsernameKey); current != username {
		c.Redirect(http.StatusFound, postPath(username, postID))
		return
	}

	post, err := h.svc.GetByAuthorAndID(username, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"msg": "post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
		return
	}

	if c.Request.Method == http.MethodGet {
		c.JSON(http.StatusOK, gin.H{"form": gin.H{
			"text":  post.Text,
			"group": post.GroupID,
			"image": post.Image,
		}})
		return
	}

	f, errs := h.bindPostForm(c)
	if errs == nil {
		return
	}
	if !errs.Valid() {
		c.JSON(http.StatusOK, gin.H{"form": gin.H{"text": f.Text}, "errors": errs})
		return
	}

	image, ok := h.saveImage(c, f)
	if !ok {
		return
	}

	userID, _ := middleware.CurrentUserID(c)
	if err := h.svc.EditPost(userID, post.ID, f.Text, f.GroupID, image); err != nil {
		if errors.Is(err, service.ErrNotAuthor) {
			c.Redirect(http.StatusFound, postPath(username, postID))
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
		return
	}
	c.Redirect(http.StatusFound, postPath(username, postID))
}

// bindPostForm 解析多段表单并跑校验。返回 nil 表示已经写好了响应
func (h *PostHandler) bindPostForm(c *gin.Context) (*form.PostForm, form.Errors) {
	f := &form.PostForm{Text: c.PostForm("text")}

	var groupInvalid bool
	if raw := c.PostForm("group"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			groupInvalid = true
		} else {
			f.GroupID = &id
		}
	}
	if fh, err := c.FormFile("image"); err == nil {
		f.Image = fh
	}

	errs, err := f.Validate(h.groups.Repo())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "validation failed"})
		return nil, nil
	}
	if groupInvalid {
		errs["group"] = "group does not exist"
	}
	return f, errs
}

// saveImage 落盘配图，失败时写好响应并返回 ok=false
func (h *PostHandler) saveImage(c *gin.Context, f *form.PostForm) (string, bool) {
	if f.Image == nil {
		return "", true
	}
	path, err := pkg.SaveImage(h.mediaDir, f.Image)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "image save failed"})
		return "", false
	}
	return path, true
}

func parsePostID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("post_id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"msg": "post not found"})
		return 0, false
	}
	return id, true
}

func postPath(username string, postID uint64) string {
	return fmt.Sprintf("/%s/%d", username, postID)
}
