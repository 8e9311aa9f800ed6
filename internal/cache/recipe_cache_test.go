package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/honeynil/RecipeService/internal/infrastructure/redis"
	"github.com/honeynil/RecipeService/internal/infrastructure/redis/mocks"
	"github.com/honeynil/RecipeService/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipeCache_LocalOnly(t *testing.T) {
	ctx := context.Background()
	c := NewRecipeCache(nil, time.Minute)

	_, listStamp, ok := c.Recipes(ctx)
	assert.False(t, ok)
	_, oneStamp, ok := c.Recipe(ctx, "b")
	assert.False(t, ok)

	recipes := []models.Recipe{{ID: "b", Title: "Newer"}, {ID: "a", Title: "Older"}}
	c.SetRecipes(ctx, listStamp, recipes)
	c.SetRecipe(ctx, oneStamp, &recipes[0])

	got, _, ok := c.Recipes(ctx)
	require.True(t, ok)
	assert.Equal(t, []string{"Newer", "Older"}, []string{got[0].Title, got[1].Title})

	one, _, ok := c.Recipe(ctx, "b")
	require.True(t, ok)
	assert.Equal(t, "Newer", one.Title)

	c.Invalidate(ctx, WriteTags("b"))
	_, _, ok = c.Recipes(ctx)
	assert.False(t, ok)
	_, _, ok = c.Recipe(ctx, "b")
	assert.False(t, ok)
}

func TestRecipeCache_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewRecipeCache(nil, time.Minute)

	_, stamp, _ := c.Recipe(ctx, "a")
	recipe := &models.Recipe{ID: "a", Title: "Soup", LikedBy: []string{}}
	c.SetRecipe(ctx, stamp, recipe)
	recipe.Title = "changed"

	got, _, ok := c.Recipe(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "Soup", got.Title)
}

func TestRecipeCache_StaleFill(t *testing.T) {
	ctx := context.Background()

	t.Run("invalidated after lookup", func(t *testing.T) {
		c := NewRecipeCache(nil, time.Minute)

		_, stamp, ok := c.Recipe(ctx, "a")
		require.False(t, ok)
		c.Invalidate(ctx, WriteTags("a"))
		c.SetRecipe(ctx, stamp, &models.Recipe{ID: "a", Likes: 0})

		_, fresh, ok := c.Recipe(ctx, "a")
		assert.False(t, ok)

		c.SetRecipe(ctx, fresh, &models.Recipe{ID: "a", Likes: 1})
		got, _, ok := c.Recipe(ctx, "a")
		require.True(t, ok)
		assert.Equal(t, int32(1), got.Likes)
	})

	t.Run("event from another instance", func(t *testing.T) {
		c := NewRecipeCache(nil, time.Minute)

		_, stamp, _ := c.Recipes(ctx)
		c.InvalidateLocal([]string{TagRecipes})
		c.SetRecipes(ctx, stamp, []models.Recipe{{ID: "old"}})

		_, _, ok := c.Recipes(ctx)
		assert.False(t, ok)
	})

	t.Run("unrelated tag keeps fill", func(t *testing.T) {
		c := NewRecipeCache(nil, time.Minute)

		_, stamp, _ := c.Recipe(ctx, "a")
		c.Invalidate(ctx, []string{TagRecipe("b")})
		c.SetRecipe(ctx, stamp, &models.Recipe{ID: "a"})

		_, _, ok := c.Recipe(ctx, "a")
		assert.True(t, ok)
	})

	t.Run("stamp for another recipe", func(t *testing.T) {
		c := NewRecipeCache(nil, time.Minute)

		_, stamp, _ := c.Recipe(ctx, "a")
		c.SetRecipe(ctx, stamp, &models.Recipe{ID: "b"})

		_, _, ok := c.Recipe(ctx, "b")
		assert.False(t, ok)
	})
}

func TestRecipeCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewRecipeCache(nil, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, stamp, _ := c.Recipe(ctx, "a")
	c.SetRecipe(ctx, stamp, &models.Recipe{ID: "a"})
	_, _, ok := c.Recipe(ctx, "a")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, _, ok = c.Recipe(ctx, "a")
	assert.False(t, ok)
}

func TestRecipeCache_WithLocalTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	c := NewRecipeCache(nil, time.Minute).WithLocalTTL(5 * time.Second)
	c.now = func() time.Time { return now }

	_, stamp, _ := c.Recipe(ctx, "a")
	c.SetRecipe(ctx, stamp, &models.Recipe{ID: "a"})

	now = now.Add(4 * time.Second)
	_, _, ok := c.Recipe(ctx, "a")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, _, ok = c.Recipe(ctx, "a")
	assert.False(t, ok)

	assert.Equal(t, time.Minute, NewRecipeCache(nil, time.Minute).WithLocalTTL(time.Hour).localTTL)
	assert.Equal(t, time.Minute, NewRecipeCache(nil, time.Minute).WithLocalTTL(0).localTTL)
}

func TestRecipeCache_RemoteLevel(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mocks.NewMockRedisClient(ctrl)
	c := NewRecipeCache(remote, time.Minute)

	t.Run("RemoteHitFillsLocal", func(t *testing.T) {
		remote.EXPECT().Get(ctx, "cache-version:recipe-a").Return("", redis.ErrKeyNotFound).Times(1)
		remote.EXPECT().Get(ctx, "cache:recipe-a").Return(`{"id":"a","title":"Soup"}`, nil).Times(1)

		got, _, ok := c.Recipe(ctx, "a")
		require.True(t, ok)
		assert.Equal(t, "Soup", got.Title)

		// served from process memory, no second Get
		got, _, ok = c.Recipe(ctx, "a")
		require.True(t, ok)
		assert.Equal(t, "Soup", got.Title)
	})

	t.Run("RemoteMiss", func(t *testing.T) {
		remote.EXPECT().Get(ctx, "cache-version:recipes").Return("3", nil)
		remote.EXPECT().Get(ctx, "cache:recipes").Return("", redis.ErrKeyNotFound)
		_, _, ok := c.Recipes(ctx)
		assert.False(t, ok)
	})

	t.Run("RemoteFailureIsMiss", func(t *testing.T) {
		remote.EXPECT().Get(ctx, "cache-version:recipe-z").Return("", errors.New("connection refused"))
		_, stamp, ok := c.Recipe(ctx, "z")
		assert.False(t, ok)

		// unknown version: kept locally, never written to Redis
		c.SetRecipe(ctx, stamp, &models.Recipe{ID: "z"})
		_, _, ok = c.Recipe(ctx, "z")
		assert.True(t, ok)
	})

	t.Run("SetWritesThroughAtObservedVersion", func(t *testing.T) {
		remote.EXPECT().Get(ctx, "cache-version:recipe-b").Return("2", nil)
		remote.EXPECT().Get(ctx, "cache:recipe-b").Return("", redis.ErrKeyNotFound)
		_, stamp, _ := c.Recipe(ctx, "b")

		remote.EXPECT().SetIfVersion(ctx, "cache:recipe-b", "cache-version:recipe-b", "2", gomock.Any(), time.Minute).Return(true, nil)
		c.SetRecipe(ctx, stamp, &models.Recipe{ID: "b"})

		_, _, ok := c.Recipe(ctx, "b")
		assert.True(t, ok)
	})

	t.Run("RemoteVersionMovedDropsFill", func(t *testing.T) {
		remote.EXPECT().Get(ctx, "cache-version:recipe-c").Return("5", nil)
		remote.EXPECT().Get(ctx, "cache:recipe-c").Return("", redis.ErrKeyNotFound)
		_, stamp, _ := c.Recipe(ctx, "c")

		remote.EXPECT().SetIfVersion(ctx, "cache:recipe-c", "cache-version:recipe-c", "5", gomock.Any(), time.Minute).Return(false, nil)
		c.SetRecipe(ctx, stamp, &models.Recipe{ID: "c"})

		remote.EXPECT().Get(ctx, "cache-version:recipe-c").Return("6", nil)
		remote.EXPECT().Get(ctx, "cache:recipe-c").Return("", redis.ErrKeyNotFound)
		_, _, ok := c.Recipe(ctx, "c")
		assert.False(t, ok)
	})

	t.Run("InvalidateDeletesBothLevels", func(t *testing.T) {
		remote.EXPECT().DelAndBump(ctx, "cache:recipes", "cache-version:recipes", versionTTL).Return(nil)
		remote.EXPECT().DelAndBump(ctx, "cache:recipe-b", "cache-version:recipe-b", versionTTL).Return(errors.New("timeout"))
		c.Invalidate(ctx, WriteTags("b"))

		remote.EXPECT().Get(ctx, "cache-version:recipe-b").Return("3", nil)
		remote.EXPECT().Get(ctx, "cache:recipe-b").Return("", redis.ErrKeyNotFound)
		_, _, ok := c.Recipe(ctx, "b")
		assert.False(t, ok)
	})

	t.Run("InvalidateLocalLeavesRemote", func(t *testing.T) {
		c.InvalidateLocal([]string{TagRecipe("a")})

		remote.EXPECT().Get(ctx, "cache-version:recipe-a").Return("1", nil)
		remote.EXPECT().Get(ctx, "cache:recipe-a").Return(`{"id":"a","title":"Soup"}`, nil)
		_, _, ok := c.Recipe(ctx, "a")
		assert.True(t, ok)
	})
}
