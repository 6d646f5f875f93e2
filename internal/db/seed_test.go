package db_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/intro-match/internal/db"
	"github.com/oggyb/intro-match/internal/repository"
	"github.com/oggyb/intro-match/internal/testutil"
)

func TestSeedProfiles(t *testing.T) {
	database := testutil.NewDB(t)
	r := rand.New(rand.NewSource(7))

	companies, agents, err := db.SeedProfiles(database, r, 3, 5)
	require.NoError(t, err)
	assert.Len(t, companies, 3)
	assert.Len(t, agents, 5)

	store := repository.NewStore(database)
	entities, err := store.Profiles.GetEntities(context.Background(), append(companies, agents...))
	require.NoError(t, err)
	require.Len(t, entities, 8)
	for _, e := range entities {
		assert.True(t, e.Complete(), "entity %d has no profile", e.ID)
	}

	// a second run starts from an empty database
	companies, agents, err = db.SeedProfiles(database, r, 1, 1)
	require.NoError(t, err)
	var count int64
	require.NoError(t, database.Model(&db.Entity{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
	assert.Len(t, companies, 1)
	assert.Len(t, agents, 1)
}

func TestReset(t *testing.T) {
	database := testutil.NewDB(t)
	store := repository.NewStore(database)
	testutil.SeedScenario(t, store)

	require.NoError(t, db.Reset(database))

	for _, model := range db.All() {
		var count int64
		require.NoError(t, database.Model(model).Count(&count).Error)
		assert.Zero(t, count)
	}
}
