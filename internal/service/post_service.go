package service

import (
	"errors"
	"strings"

	"yatube/internal/model"
	"yatube/internal/pkg"
	"yatube/internal/repository/mysql"

	"gorm.io/gorm"
)

var ErrNotAuthor = errors.New("not the author")

type PostService struct {
	repo *mysql.PostRepository
}

func NewPostService(db *gorm.DB) *PostService {
	return &PostService{
		repo: &mysql.PostRepository{DB: db},
	}
}

// CreatePost 以当前用户为作者插入帖子，pub_date 由插入时刻决定
func (s *PostService) CreatePost(userID uint64, text string, groupID *uint64, image string) (*model.Post, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("text required")
	}
	post := &model.Post{
		Text:     text,
		AuthorID: userID,
		GroupID:  groupID,
		Image:    image,
	}
	if err := s.repo.Create(post); err != nil {
		return nil, err
	}
	return post, nil
}

// EditPost 仅作者可原地修改 text/group/image；主键与 pub_date 不变
func (s *PostService) EditPost(userID, postID uint64, text string, groupID *uint64, image string) error {
	post, err := s.repo.FindByID(postID)
	if err != nil {
		return err
	}
	if post.AuthorID != userID {
		return ErrNotAuthor
	}
	return s.repo.UpdateContent(postID, text, groupID, image)
}

// GetByAuthorAndID 路径 /:username/:post_id 的查询语义：
// 作者与 id 必须同时匹配，否则按不存在处理
func (s *PostService) GetByAuthorAndID(username string, postID uint64) (*model.Post, error) {
	return s.repo.FindByAuthorAndID(username, postID)
}

// ListAll 首页列表
func (s *PostService) ListAll(pageNum, size int) ([]model.Post, pkg.Page, error) {
	total, err := s.repo.CountAll()
	if err != nil {
		return nil, pkg.Page{}, err
	}
	page := pkg.NewPage(pageNum, size, total)
	list, err := s.repo.ListAll(page.Offset(), page.Size)
	return list, page, err
}

// ListByGroup 分组页列表
func (s *PostService) ListByGroup(groupID uint64, pageNum, size int) ([]model.Post, pkg.Page, error) {
	total, err := s.repo.CountByGroup(groupID)
	if err != nil {
		return nil, pkg.Page{}, err
	}
	page := pkg.NewPage(pageNum, size, total)
	list, err := s.repo.ListByGroup(groupID, page.Offset(), page.Size)
	return list, page, err
}

// ListByAuthor 个人页列表
func (s *PostService) ListByAuthor(authorID uint64, pageNum, size int) ([]model.Post, pkg.Page, error) {
	total, err := s.repo.CountByAuthor(authorID)
	if err != nil {
		return nil, pkg.Page{}, err
	}
	page := pkg.NewPage(pageNum, size, total)
	list, err := s.repo.ListByAuthor(authorID, page.Offset(), page.Size)
	return list, page, err
}

// ListFeed 关注流列表
func (s *PostService) ListFeed(userID uint64, pageNum, size int) ([]model.Post, pkg.Page, error) {
	total, err := s.repo.CountFeed(userID)
	if err != nil {
		return nil, pkg.Page{}, err
	}
	page := pkg.NewPage(pageNum, size, total)
	list, err := s.repo.ListFeed(userID, page.Offset(), page.Size)
	return list, page, err
}
