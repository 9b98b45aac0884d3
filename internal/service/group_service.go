package service

import (
	"yatube/internal/model"
	"yatube/internal/pkg"
	"yatube/internal/repository/mysql"

	"gorm.io/gorm"
)

type GroupService struct {
	repo *mysql.GroupRepository
}

func NewGroupService(db *gorm.DB) *GroupService {
	return &GroupService{
		repo: &mysql.GroupRepository{DB: db},
	}
}

// Repo 表单校验需要只读访问
func (s *GroupService) Repo() *mysql.GroupRepository {
	return s.repo
}

func (s *GroupService) Create(title, slug, description string) (*model.Group, error) {
	group := &model.Group{
		Title:       title,
		Slug:        slug,
		Description: description,
	}
	if err := s.repo.Create(group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *GroupService) GetBySlug(slug string) (*model.Group, error) {
	return s.repo.FindBySlug(slug)
}

// List 按创建逆序分页，页码越界时收敛到合法页
func (s *GroupService) List(pageNum, perPage int) ([]model.Group, pkg.Page, error) {
	total, err := s.repo.Count()
	if err != nil {
		return nil, pkg.Page{}, err
	}
	page := pkg.NewPage(pageNum, perPage, total)
	list, err := s.repo.List(page.Offset(), page.Size)
	if err != nil {
		return nil, pkg.Page{}, err
	}
	return list, page, nil
}
