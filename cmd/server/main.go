package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/kanban-board/internal/config"
	"github.com/iliyamo/kanban-board/internal/database"
	"github.com/iliyamo/kanban-board/internal/events"
	"github.com/iliyamo/kanban-board/internal/handler"
	"github.com/iliyamo/kanban-board/internal/lock"
	"github.com/iliyamo/kanban-board/internal/middleware"
	"github.com/iliyamo/kanban-board/internal/repository"
	"github.com/iliyamo/kanban-board/internal/router"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	log.SetLevel(router.ParseLevel(cfg.LogLevel))

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
		log.Infof("redis connected at %s", cfg.Redis.Addr)
	} else if cfg.Redis.Enabled() {
		log.Warnf("redis at %s unreachable; caching and rate limiting disabled", cfg.Redis.Addr)
	}

	pub := events.NewPublisher(cfg.Events)
	defer pub.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	cache := middleware.NewResponseCache(cfg.Cache, rdb)

	e := router.New(cfg, router.Deps{
		DB:     db,
		Tokens: tokens,
		Auth:   handler.NewAuthHandler(cfg, users, tokens),
		Kanban: handler.NewKanbanHandler(
			repository.NewBoardRepo(db),
			repository.NewColumnRepo(db),
			repository.NewTicketRepo(db, lock.New(rdb, "lock:")),
			pub, cfg.DBTimeout),
		Users:     handler.NewUserHandler(cfg, users, cache),
		RateLimit: middleware.NewTokenBucket(cfg.RateLimit, rdb),
		Cache:     cache,
	})

	addr := ":" + cfg.Port
	go func() {
		log.Infof("listening on %s (env=%s, db=%s)", addr, cfg.Env, cfg.DBDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}
