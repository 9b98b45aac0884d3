package service

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"yatube/internal/model"
	"yatube/internal/pkg"
	"yatube/internal/repository/mysql"
)

// TokenStore 登录态存储，生产实现是 redis
type TokenStore interface {
	AddUserToken(userID uint64, token string) error
	DeleteUserToken(userID uint64) error
}

type UserService struct {
	repo   *mysql.UserRepository
	tokens TokenStore
}

func NewUserService(db *gorm.DB, tokens TokenStore) *UserService {
	return &UserService{
		repo:   &mysql.UserRepository{DB: db},
		tokens: tokens,
	}
}

func (s *UserService) Register(username, password, email string) (*model.User, error) {
	if username == "" || password == "" || email == "" {
		return nil, errors.New("username, password and email required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: username,
		Password: string(hash),
		Email:    email,
	}
	if err := s.repo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login 密码校验通过后签发 token 对，access 写入会话存储做单点登录
func (s *UserService) Login(login, password string) (*pkg.Pair, error) {
	user, err := s.repo.FindByLogin(login)
	if err != nil {
		return nil, errors.New("invalid username or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, errors.New("invalid username or password")
	}

	pair, err := pkg.GeneratePair(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.AddUserToken(user.ID, pair.AccessToken); err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *UserService) Logout(userID uint64) error {
	return s.tokens.DeleteUserToken(userID)
}

// Refresh 换发 token 对并同步会话存储
func (s *UserService) Refresh(refreshToken string) (*pkg.Pair, error) {
	pair, err := pkg.Refresh(refreshToken)
	if err != nil {
		return nil, err
	}
	claims, err := pkg.ParseAccess(pair.AccessToken)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.AddUserToken(claims.UserID, pair.AccessToken); err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *UserService) GetByUsername(username string) (*model.User, error) {
	return s.repo.FindByUsername(username)
}
