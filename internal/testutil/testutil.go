// Package testutil wires in-memory SQLite and miniredis for package tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/intro-match/internal/cache"
	"github.com/oggyb/intro-match/internal/config"
	"github.com/oggyb/intro-match/internal/db"
	"github.com/oggyb/intro-match/internal/models"
	"github.com/oggyb/intro-match/internal/repository"
)

// NewDB opens an isolated in-memory SQLite database with the full schema.
//
// A single connection is used so concurrent transactions serialize instead of
// failing with SQLITE_LOCKED.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(database))
	return database
}

// NewRedis starts a miniredis and returns a cache bound to it.
func NewRedis(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.Password = ""
	cfg.Redis.DB = 0

	rc := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = rc.Client.Close() })
	return rc, mr
}

// Fixture holds the entities used by the product scenarios.
type Fixture struct {
	C1, C2 *models.Entity // companies
	A1, A2 *models.Entity // agents
}

// SeedScenario creates C1/A1 from the product examples plus a second company
// and a second agent.
//
// C1: country DE, industries {IT}, reputation 5, interface language "de".
// A1: countries {DE, FR}, specializations {IT}, 5 years, languages {en}, reputation 5.
func SeedScenario(t *testing.T, store *repository.Store) Fixture {
	t.Helper()
	ctx := context.Background()

	c1, err := store.Profiles.CreateCompany(ctx, "c1", "de", models.CompanyProfile{
		Country: "DE", Industries: []string{"IT"}, Reputation: 5,
	})
	require.NoError(t, err)
	c2, err := store.Profiles.CreateCompany(ctx, "c2", "fr", models.CompanyProfile{
		Country: "FR", Industries: []string{"Retail"}, Reputation: 3,
	})
	require.NoError(t, err)
	a1, err := store.Profiles.CreateAgent(ctx, "a1", "en", models.AgentProfile{
		Countries: []string{"DE", "FR"}, Specializations: []string{"IT"}, ExperienceYears: 5,
		Languages: []string{"en"}, Reputation: 5,
	})
	require.NoError(t, err)
	a2, err := store.Profiles.CreateAgent(ctx, "a2", "pl", models.AgentProfile{
		Countries: []string{"PL"}, Specializations: []string{"Energy"}, ExperienceYears: 22,
		Languages: []string{"pl", "de"}, Reputation: 2,
	})
	require.NoError(t, err)

	return Fixture{C1: c1, C2: c2, A1: a1, A2: a2}
}
