package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yatube/internal/form"
	"yatube/internal/pkg"
	"yatube/internal/service"
)

type GroupHandler struct {
	svc     *service.GroupService
	perPage int
}

func NewGroupHandler(svc *service.GroupService, perPage int) *GroupHandler {
	return &GroupHandler{svc: svc, perPage: perPage}
}

// Create 建组：标题查重在表单层，slug 唯一性由存储兜底
func (h *GroupHandler) Create(c *gin.Context) {
	var f form.GroupForm
	if err := c.ShouldBind(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	errs, err := f.Validate(h.svc.Repo())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "validation failed"})
		return
	}
	if !errs.Valid() {
		c.JSON(http.StatusOK, gin.H{"form": f, "errors": errs})
		return
	}

	group, err := h.svc.Create(f.Title, f.Slug, f.Description)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}
	c.Redirect(http.StatusFound, "/group/"+group.Slug)
}

// List 分组列表，分页口径与帖子列表一致
func (h *GroupHandler) List(c *gin.Context) {
	pageNum := pkg.ParsePageNumber(c.Query("page"))
	list, page, err := h.svc.List(pageNum, h.perPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": list, "page": page})
}
