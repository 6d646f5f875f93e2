package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/intro-match/internal/cache"
	"github.com/oggyb/intro-match/internal/engine"
)

// AppContext holds shared dependencies (DB, Redis, Logger, Engine)
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Engine     *engine.Engine
}

// New creates a new AppContext. rdb may be nil when Redis is not configured;
// services then read straight from the database.
func New(db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger, eng *engine.Engine) *AppContext {
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Engine:     eng,
	}
}
