package main

import (
	"context"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"yatube/internal/config"
	"yatube/internal/pkg"
	"yatube/internal/repository/mysql"
	"yatube/internal/repository/redis"
	"yatube/internal/router"
	"yatube/internal/service"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfg := config.Load()
	pkg.SetSecrets(cfg.JWTAccessSecret, cfg.JWTRefreshSecret)

	if err := mysql.InitDB(cfg.MySQLDSN); err != nil {
		log.WithError(err).Fatal("mysql init failed")
	}
	if err := mysql.AutoMigrate(mysql.DB); err != nil {
		log.WithError(err).Fatal("auto migrate failed")
	}

	if err := redis.Init(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err != nil {
		log.WithError(err).Fatal("redis init failed")
	}
	defer redis.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 关注事件：outbox -> kafka；kafka 不可用时降级为日志投递
	sender := service.LogSender
	producer, err := pkg.NewKafkaProducer(pkg.KafkaConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTopic,
	})
	if err != nil {
		log.WithError(err).Warn("kafka producer init failed, falling back to log sender")
	} else {
		defer producer.Close()
		sender = service.KafkaSender(producer)
	}
	go service.NewOutboxRelayer(mysql.DB, sender).Run(ctx)

	// 冗余计数定期对账
	go service.NewFollowCountReconciler(mysql.DB).Run(ctx)

	pages := redis.NewPageCacheRepository(cfg.PageCacheTTL)
	tokens := &redis.TokenRepository{}

	r := router.InitRouter(mysql.DB, pages, tokens, cfg)
	log.WithField("addr", cfg.HTTPAddr).Info("http server starting")
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.WithError(err).Fatal("http server exited")
	}
}
