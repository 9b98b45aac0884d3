package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/handler"
	"yatube/internal/middleware"
	"yatube/internal/pkg"
	"yatube/internal/service"
)

// TokenStore 会话存储的完整能力：登录写入、校验读取、续期、登出删除
type TokenStore interface {
	middleware.TokenStore
	service.TokenStore
}

// InitRouter 组装服务与路由表
func InitRouter(db *gorm.DB, pages cache.PageCache, tokens TokenStore, cfg *config.Config) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.Metrics())

	notifier := service.NewCommentNotifier(db, pkg.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})

	userSvc := service.NewUserService(db, tokens)
	postSvc := service.NewPostService(db)
	groupSvc := service.NewGroupService(db)
	commentSvc := service.NewCommentService(db, notifier)
	followSvc := service.NewFollowService(db)

	user := handler.NewUserHandler(userSvc)
	post := handler.NewPostHandler(postSvc, groupSvc, commentSvc, pages,
		cfg.MediaDir, cfg.PostsPerPage)
	group := handler.NewGroupHandler(groupSvc, cfg.PostsPerPage)
	comment := handler.NewCommentHandler(commentSvc, postSvc)
	follow := handler.NewFollowHandler(followSvc, userSvc, postSvc, cfg.PostsPerPage)
	profile := handler.NewProfileHandler(userSvc, postSvc, followSvc, cfg.ProfilePostsPerPage)

	authed := middleware.Auth(tokens)
	viewer := middleware.OptionalAuth(tokens)

	// 运维接口
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/internal/cache/clear", post.ClearPageCache)

	// 上传的帖子配图
	r.Static("/media", cfg.MediaDir)

	// 用户相关接口
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/signup", user.Signup)
		authGroup.POST("/login", user.Login)
		authGroup.POST("/refresh", user.Refresh)
		authGroup.POST("/logout", authed, user.Logout)
	}

	// 帖子与分组
	r.GET("/", post.Index)
	r.GET("/groups", group.List)
	r.GET("/group/:slug", post.GroupPosts)
	r.POST("/group/new", authed, group.Create)
	r.GET("/new", authed, post.NewPost)
	r.POST("/new", authed, post.NewPost)

	// 关注流
	r.GET("/follow", authed, follow.FollowIndex)

	// 个人页与帖子详情（静态段优先于同级通配段）
	r.GET("/:username", viewer, profile.Profile)
	r.GET("/:username/follow", authed, follow.ProfileFollow)
	r.GET("/:username/unfollow", authed, follow.ProfileUnfollow)
	r.GET("/:username/:post_id", viewer, post.PostView)
	r.POST("/:username/:post_id", viewer, post.PostView)
	r.GET("/:username/:post_id/edit", authed, post.PostEdit)
	r.POST("/:username/:post_id/edit", authed, post.PostEdit)
	r.POST("/:username/:post_id/comment", authed, comment.AddComment)

	return r
}
