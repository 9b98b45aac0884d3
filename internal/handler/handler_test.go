package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/model"
	"yatube/internal/repository/mysql"
	"yatube/internal/router"
)

var dbSeq atomic.Int64

// memoryTokens 测试用会话存储
type memoryTokens struct {
	mu sync.Mutex
	m  map[uint64]string
}

func newMemoryTokens() *memoryTokens {
	return &memoryTokens{m: make(map[uint64]string)}
}

func (s *memoryTokens) AddUserToken(userID uint64, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[userID] = token
	return nil
}

func (s *memoryTokens) GetUserToken(userID uint64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.m[userID]
	if !ok {
		return "", errors.New("token not found")
	}
	return token, nil
}

func (s *memoryTokens) ExtendUserToken(userID uint64) error { return nil }

func (s *memoryTokens) DeleteUserToken(userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
	return nil
}

type env struct {
	db *gorm.DB
	r  *gin.Engine
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handler%d?mode=memory&cache=shared&_foreign_keys=on", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := mysql.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{
		MediaDir:            t.TempDir(),
		PostsPerPage:        10,
		ProfilePostsPerPage: 5,
		PageCacheTTL:        time.Minute,
	}
	pages := cache.NewMemoryPageCache(cfg.PageCacheTTL)
	r := router.InitRouter(db, pages, newMemoryTokens(), cfg)
	return &env{db: db, r: r}
}

// register 注册并登录，返回 Bearer token
func (e *env) register(t *testing.T, username string) string {
	t.Helper()
	body, _ := json.Marshal(gin.H{
		"username": username,
		"password": "password123",
		"email":    username + "@example.com",
	})
	w := e.do(httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewReader(body)), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("signup %s: %d %s", username, w.Code, w.Body.String())
	}

	body, _ = json.Marshal(gin.H{"username": username, "password": "password123"})
	w = e.do(httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body)), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", username, w.Code, w.Body.String())
	}

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return resp.AccessToken
}

func (e *env) do(req *http.Request, contentType string) *httptest.ResponseRecorder {
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

// get 便捷 GET，token 为空表示匿名
func (e *env) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

// postForm 发送多段表单，fileContent 非空时附带名为 image 的文件
func (e *env) postForm(path, token string, fields map[string]string, fileName string, fileContent []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if fileName != "" {
		fw, _ := mw.CreateFormFile("image", fileName)
		_, _ = fw.Write(fileContent)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func (e *env) postCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	assert.NoError(t, e.db.Model(&model.Post{}).Count(&n).Error)
	return n
}

func (e *env) commentCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	assert.NoError(t, e.db.Model(&model.Comment{}).Count(&n).Error)
	return n
}

func (e *env) followCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	assert.NoError(t, e.db.Model(&model.Follow{}).Count(&n).Error)
	return n
}

var smallGIF = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\x00\x00\x00\xff\xff\xff!\xf9\x04\x00\x00\x00\x00\x00,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;")

func TestNewPostCreatesRecordWithImage(t *testing.T) {
	e := newEnv(t)
	token := e.register(t, "leo")

	group := model.Group{Title: "Группа", Slug: "grp"}
	assert.NoError(t, e.db.Create(&group).Error)

	w := e.postForm("/new", token, map[string]string{
		"text":  "тестовая публикация",
		"group": fmt.Sprintf("%d", group.ID),
	}, "small.gif", smallGIF)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Equal(t, int64(1), e.postCount(t))

	var post model.Post
	assert.NoError(t, e.db.First(&post).Error)
	assert.Equal(t, "тестовая публикация", post.Text)
	assert.Equal(t, "posts/small.gif", post.Image)
	if assert.NotNil(t, post.GroupID) {
		assert.Equal(t, group.ID, *post.GroupID)
	}

	var author model.User
	assert.NoError(t, e.db.First(&author, post.AuthorID).Error)
	assert.Equal(t, "leo", author.Username)

	// 首页列表包含这条记录
	w = e.get("/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "тестовая публикация")
	assert.Contains(t, w.Body.String(), "posts/small.gif")
}

func TestNewPostInvalidFormKeepsCount(t *testing.T) {
	e := newEnv(t)
	token := e.register(t, "leo")

	// 空文本
	w := e.postForm("/new", token, map[string]string{"text": "   "}, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"errors"`)
	assert.Equal(t, int64(0), e.postCount(t))

	// 不存在的分组
	w = e.postForm("/new", token, map[string]string{"text": "ok", "group": "999"}, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"group"`)
	assert.Equal(t, int64(0), e.postCount(t))

	// 匿名直接 401
	w = e.postForm("/new", "", map[string]string{"text": "ok"}, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, int64(0), e.postCount(t))
}

func TestPostViewAndInlineComment(t *testing.T) {
	e := newEnv(t)
	token := e.register(t, "leo")
	_ = e.postForm("/new", token, map[string]string{"text": "пост"}, "", nil)

	var post model.Post
	assert.NoError(t, e.db.First(&post).Error)
	path := fmt.Sprintf("/leo/%d", post.ID)

	// 读路径
	w := e.get(path, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "пост")

	w = e.get("/leo/9999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 作者名与 id 必须同时匹配
	_ = e.register(t, "other")
	w = e.get(fmt.Sprintf("/other/%d", post.ID), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 匿名 POST 不产生评论
	w = e.postForm(path, "", map[string]string{"text": "аноним"}, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(0), e.commentCount(t))

	// 登录用户 POST 产生一条评论
	reader := e.register(t, "reader")
	w = e.postForm(path, reader, map[string]string{"text": "класс"}, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), e.commentCount(t))
	assert.Contains(t, w.Body.String(), "класс")
}

func TestAddCommentEndpoint(t *testing.T) {
	e := newEnv(t)
	author := e.register(t, "leo")
	_ = e.postForm("/new", author, map[string]string{"text": "пост"}, "", nil)

	var post model.Post
	assert.NoError(t, e.db.First(&post).Error)
	path := fmt.Sprintf("/leo/%d/comment", post.ID)

	// 匿名被拦截
	w := e.postForm(path, "", map[string]string{"text": "аноним"}, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, int64(0), e.commentCount(t))

	// 登录后成功并重定向回帖子页
	reader := e.register(t, "reader")
	w = e.postForm(path, reader, map[string]string{"text": "отлично"}, "", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/leo/%d", post.ID), w.Header().Get("Location"))
	assert.Equal(t, int64(1), e.commentCount(t))

	var comment model.Comment
	assert.NoError(t, e.db.First(&comment).Error)
	var submitter model.User
	assert.NoError(t, e.db.First(&submitter, comment.AuthorID).Error)
	assert.Equal(t, "reader", submitter.Username)

	// 空文本不落库
	w = e.postForm(path, reader, map[string]string{"text": ""}, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"errors"`)
	assert.Equal(t, int64(1), e.commentCount(t))

	// 不存在的帖子
	w = e.postForm("/leo/9999/comment", reader, map[string]string{"text": "куда?"}, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostEditOnlyByAuthor(t *testing.T) {
	e := newEnv(t)
	owner := e.register(t, "leo")
	intruder := e.register(t, "intruder")

	_ = e.postForm("/new", owner, map[string]string{"text": "до правки"}, "", nil)
	var post model.Post
	assert.NoError(t, e.db.First(&post).Error)
	editPath := fmt.Sprintf("/leo/%d/edit", post.ID)

	// 作者编辑：原地更新，主键与发布时间不变
	w := e.postForm(editPath, owner, map[string]string{"text": "после правки"}, "", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/leo/%d", post.ID), w.Header().Get("Location"))

	var got model.Post
	assert.NoError(t, e.db.First(&got, post.ID).Error)
	assert.Equal(t, "после правки", got.Text)
	assert.Equal(t, post.ID, got.ID)
	assert.WithinDuration(t, post.PubDate, got.PubDate, time.Second)
	assert.Equal(t, int64(1), e.postCount(t))

	// 非作者：静默重定向，无修改
	w = e.postForm(editPath, intruder, map[string]string{"text": "взлом"}, "", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	e.db.First(&got, post.ID)
	assert.Equal(t, "после правки", got.Text)

	// 匿名：401，无修改
	w = e.postForm(editPath, "", map[string]string{"text": "взлом"}, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	e.db.First(&got, post.ID)
	assert.Equal(t, "после правки", got.Text)
}

func TestProfileShowsFollowingFlag(t *testing.T) {
	e := newEnv(t)
	_ = e.register(t, "leo")
	viewer := e.register(t, "viewer")

	w := e.get("/ghost", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.get("/leo", viewer)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"following":false`)

	w = e.get("/leo/follow", viewer)
	assert.Equal(t, http.StatusFound, w.Code)

	w = e.get("/leo", viewer)
	assert.Contains(t, w.Body.String(), `"following":true`)

	// 匿名观察者恒为 false
	w = e.get("/leo", "")
	assert.Contains(t, w.Body.String(), `"following":false`)
}

func TestFollowUnfollowLifecycle(t *testing.T) {
	e := newEnv(t)
	_ = e.register(t, "leo")
	follower := e.register(t, "follower")

	before := e.followCount(t)

	// 幂等关注
	w := e.get("/leo/follow", follower)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/leo", w.Header().Get("Location"))
	w = e.get("/leo/follow", follower)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, before+1, e.followCount(t))

	// 取关后回到原点
	w = e.get("/leo/unfollow", follower)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, before, e.followCount(t))

	// 没有边可删 -> 404
	w = e.get("/leo/unfollow", follower)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 目标用户不存在
	w = e.get("/ghost/follow", follower)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 匿名
	w = e.get("/leo/follow", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSelfFollowIsNoop(t *testing.T) {
	e := newEnv(t)
	leo := e.register(t, "leo")

	w := e.get("/leo/follow", leo)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, int64(0), e.followCount(t))

	w = e.get("/leo/unfollow", leo)
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestFollowIndexFeed(t *testing.T) {
	e := newEnv(t)
	author := e.register(t, "author")
	stranger := e.register(t, "stranger")
	reader := e.register(t, "reader")

	_ = e.postForm("/new", author, map[string]string{"text": "от кумира"}, "", nil)
	_ = e.postForm("/new", stranger, map[string]string{"text": "от чужого"}, "", nil)

	w := e.get("/author/follow", reader)
	assert.Equal(t, http.StatusFound, w.Code)

	w = e.get("/follow", reader)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "от кумира")
	assert.NotContains(t, w.Body.String(), "от чужого")

	w = e.get("/follow", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGroupPostsFiltering(t *testing.T) {
	e := newEnv(t)
	token := e.register(t, "leo")

	group := model.Group{Title: "Группа", Slug: "grp"}
	assert.NoError(t, e.db.Create(&group).Error)

	_ = e.postForm("/new", token, map[string]string{
		"text": "в группе", "group": fmt.Sprintf("%d", group.ID),
	}, "", nil)
	_ = e.postForm("/new", token, map[string]string{"text": "без группы"}, "", nil)

	w := e.get("/group/grp", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "в группе")
	assert.NotContains(t, w.Body.String(), "без группы")

	w = e.get("/group/none", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGroupCreateRejectsDuplicateTitle(t *testing.T) {
	e := newEnv(t)
	token := e.register(t, "leo")

	w := e.postForm("/group/new", token, map[string]string{
		"title": "Котики", "slug": "cats", "description": "про котиков",
	}, "", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/group/cats", w.Header().Get("Location"))

	// 标题查重（slug 不同也不行）
	w = e.postForm("/group/new", token, map[string]string{
		"title": "Котики", "slug": "cats2",
	}, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title"`)

	var n int64
	e.db.Model(&model.Group{}).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestIndexPageCacheStaleUntilCleared(t *testing.T) {
	e := newEnv(t)
	token := e.register(t, "leo")

	w := e.get("/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	before := w.Body.String()

	_ = e.postForm("/new", token, map[string]string{"text": "свежий пост"}, "", nil)
	assert.Equal(t, int64(1), e.postCount(t))

	// 缓存未清空：内容不变
	w = e.get("/", "")
	assert.Equal(t, before, w.Body.String())
	assert.NotContains(t, w.Body.String(), "свежий пост")

	// 显式清空后出现新帖
	req := httptest.NewRequest(http.MethodPost, "/internal/cache/clear", nil)
	w = e.do(req, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.get("/", "")
	assert.NotEqual(t, before, w.Body.String())
	assert.Contains(t, w.Body.String(), "свежий пост")
}

func TestPaginationClampAndSize(t *testing.T) {
	e := newEnv(t)
	token := e.register(t, "leo")
	for i := 0; i < 12; i++ {
		_ = e.postForm("/new", token, map[string]string{"text": fmt.Sprintf("пост %d", i)}, "", nil)
	}

	// 12 条、每页 10 -> 2 页；越界页码落到第 2 页
	w := e.get("/?page=99", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Page struct {
			Number int `json:"number"`
			Pages  int `json:"pages"`
		} `json:"page"`
		Posts []model.Post `json:"posts"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Page.Number)
	assert.Equal(t, 2, resp.Page.Pages)
	assert.Len(t, resp.Posts, 2)
}

func TestGroupListPaginatedLikePosts(t *testing.T) {
	e := newEnv(t)
	for i := 0; i < 12; i++ {
		g := model.Group{Title: fmt.Sprintf("Группа %d", i), Slug: fmt.Sprintf("g%d", i)}
		assert.NoError(t, e.db.Create(&g).Error)
	}

	// 12 组、每页 10 -> 2 页；越界页码收敛到最后一页
	w := e.get("/groups?page=99", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Page struct {
			Number int `json:"number"`
			Pages  int `json:"pages"`
		} `json:"page"`
		Groups []model.Group `json:"groups"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Page.Number)
	assert.Equal(t, 2, resp.Page.Pages)
	assert.Len(t, resp.Groups, 2)
}
