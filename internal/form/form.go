package form

import (
	"mime/multipart"
	"strings"

	"yatube/internal/pkg"
)

// Errors 字段名到错误信息的映射，空表示校验通过
type Errors map[string]string

func (e Errors) Valid() bool { return len(e) == 0 }

// GroupLookup 校验只读依赖：存在性与查重
type GroupLookup interface {
	ExistsByID(id uint64) (bool, error)
	ExistsByTitle(title string) (bool, error)
}

// PostForm 发帖/编辑表单：text 必填，group 可选但必须存在，image 可选
type PostForm struct {
	Text    string                `form:"text" json:"text"`
	GroupID *uint64               `form:"group" json:"group"`
	Image   *multipart.FileHeader `form:"image" json:"-"`
}

func (f *PostForm) Validate(groups GroupLookup) (Errors, error) {
	errs := Errors{}
	if strings.TrimSpace(f.Text) == "" {
		errs["text"] = "text is required"
	}
	if f.GroupID != nil {
		ok, err := groups.ExistsByID(*f.GroupID)
		if err != nil {
			return nil, err
		}
		if !ok {
			errs["group"] = "group does not exist"
		}
	}
	if f.Image != nil && !pkg.ValidImageName(f.Image.Filename) {
		errs["image"] = "unsupported image type"
	}
	return errs, nil
}

// CommentForm 评论表单：text 必填
type CommentForm struct {
	Text string `form:"text" json:"text"`
}

func (f *CommentForm) Validate() Errors {
	errs := Errors{}
	if strings.TrimSpace(f.Text) == "" {
		errs["text"] = "text is required"
	}
	return errs
}

// GroupForm 建组表单；标题查重是 slug 唯一索引之外的业务规则
type GroupForm struct {
	Title       string `form:"title" json:"title"`
	Slug        string `form:"slug" json:"slug"`
	Description string `form:"description" json:"description"`
}

func (f *GroupForm) Validate(groups GroupLookup) (Errors, error) {
	errs := Errors{}
	if strings.TrimSpace(f.Title) == "" {
		errs["title"] = "title is required"
	} else if len(f.Title) > 200 {
		errs["title"] = "title too long"
	}
	if strings.TrimSpace(f.Slug) == "" {
		errs["slug"] = "slug is required"
	} else if len(f.Slug) > 10 {
		errs["slug"] = "slug too long"
	}
	if len(f.Description) > 200 {
		errs["description"] = "description too long"
	}
	if _, ok := errs["title"]; !ok {
		exists, err := groups.ExistsByTitle(f.Title)
		if err != nil {
			return nil, err
		}
		if exists {
			errs["title"] = f.Title + " already exists"
		}
	}
	return errs, nil
}
