// Package cache holds rendered recipe reads under the tags "recipes" and
// "recipe-<id>".
//
// Writers invalidate after commit. Every tag carries a generation that
// invalidation bumps, both in process and in Redis, and a fill is kept only
// if the generation it observed before reading the store is still current.
// A read that raced a write therefore cannot put the old state back.
//
// Other instances drop their in-process entries when the recipe event
// arrives. Until it does, or if it is lost, they can serve the pre-write
// state for at most the local TTL, which should be kept short whenever
// events are not delivered.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/honeynil/RecipeService/internal/infrastructure/observability"
	"github.com/honeynil/RecipeService/internal/infrastructure/redis"
	"github.com/honeynil/RecipeService/internal/models"
)

const (
	TagRecipes    = "recipes"
	keyPrefix     = "cache:"
	versionPrefix = "cache-version:"

	// Outlives any entry, so an expired version cannot come back to a value
	// a slow reader still holds.
	versionTTL = 24 * time.Hour
)

// TagRecipe names the cache entry holding a single recipe.
func TagRecipe(id string) string {
	return "recipe-" + id
}

// WriteTags are the tags a write to recipe id makes stale.
func WriteTags(id string) []string {
	return []string{TagRecipes, TagRecipe(id)}
}

// Stamp is what a lookup saw of a tag's generation. Pass it back to the
// matching Set call.
type Stamp struct {
	tag    string
	local  uint64
	remote string
	// remote version could not be read; the fill skips Redis
	remoteUnknown bool
}

type Cache interface {
	Recipes(ctx context.Context) ([]models.Recipe, Stamp, bool)
	SetRecipes(ctx context.Context, stamp Stamp, recipes []models.Recipe)
	Recipe(ctx context.Context, id string) (*models.Recipe, Stamp, bool)
	SetRecipe(ctx context.Context, stamp Stamp, recipe *models.Recipe)
	Invalidate(ctx context.Context, tags []string)
	InvalidateLocal(tags []string)
}

type entry struct {
	payload []byte
	expires time.Time
}

// RecipeCache keeps encoded recipes in process memory and, when a Redis
// client is configured, in Redis. Redis failures degrade to a miss.
type RecipeCache struct {
	mu       sync.RWMutex
	local    map[string]entry
	gens     map[string]uint64
	remote   redis.RedisClient
	ttl      time.Duration
	localTTL time.Duration
	now      func() time.Time
}

// NewRecipeCache returns a cache. remote may be nil, in which case only the
// in-process level is used.
func NewRecipeCache(remote redis.RedisClient, ttl time.Duration) *RecipeCache {
	return &RecipeCache{
		local:    make(map[string]entry),
		gens:     make(map[string]uint64),
		remote:   remote,
		ttl:      ttl,
		localTTL: ttl,
		now:      time.Now,
	}
}

// WithLocalTTL caps how long in-process entries live. Values outside
// (0, ttl) are ignored.
func (c *RecipeCache) WithLocalTTL(d time.Duration) *RecipeCache {
	if d > 0 && d < c.ttl {
		c.localTTL = d
	}
	return c
}

func (c *RecipeCache) Recipes(ctx context.Context) ([]models.Recipe, Stamp, bool) {
	var recipes []models.Recipe
	stamp, ok := c.get(ctx, TagRecipes, &recipes)
	if !ok {
		return nil, stamp, false
	}
	return recipes, stamp, true
}

func (c *RecipeCache) SetRecipes(ctx context.Context, stamp Stamp, recipes []models.Recipe) {
	if stamp.tag != TagRecipes {
		return
	}
	c.set(ctx, stamp, recipes)
}

func (c *RecipeCache) Recipe(ctx context.Context, id string) (*models.Recipe, Stamp, bool) {
	var recipe models.Recipe
	stamp, ok := c.get(ctx, TagRecipe(id), &recipe)
	if !ok {
		return nil, stamp, false
	}
	return &recipe, stamp, true
}

func (c *RecipeCache) SetRecipe(ctx context.Context, stamp Stamp, recipe *models.Recipe) {
	if recipe == nil || stamp.tag != TagRecipe(recipe.ID) {
		return
	}
	c.set(ctx, stamp, recipe)
}

// Invalidate drops tags from both levels and retires every stamp taken
// before the call.
func (c *RecipeCache) Invalidate(ctx context.Context, tags []string) {
	c.InvalidateLocal(tags)
	if c.remote == nil {
		return
	}
	for _, tag := range tags {
		if err := c.remote.DelAndBump(ctx, keyPrefix+tag, versionPrefix+tag, versionTTL); err != nil {
			slog.Warn("failed to invalidate cache entry", "tag", tag, "error", err)
		}
	}
}

// InvalidateLocal drops tags from the in-process level only.
func (c *RecipeCache) InvalidateLocal(tags []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tag := range tags {
		delete(c.local, tag)
		c.gens[tag]++
	}
}

func (c *RecipeCache) get(ctx context.Context, tag string, dst any) (Stamp, bool) {
	stamp := Stamp{tag: tag}

	c.mu.RLock()
	stamp.local = c.gens[tag]
	e, ok := c.local[tag]
	c.mu.RUnlock()
	if ok && c.now().Before(e.expires) {
		if err := json.Unmarshal(e.payload, dst); err == nil {
			observability.CacheLookups.WithLabelValues("l1", "hit").Inc()
			return stamp, true
		}
	}
	observability.CacheLookups.WithLabelValues("l1", "miss").Inc()

	if c.remote == nil {
		return stamp, false
	}

	// The version is read before the value so a fill can never pair an old
	// value with a newer version.
	version, err := c.remote.Get(ctx, versionPrefix+tag)
	switch {
	case err == nil:
		stamp.remote = version
	case errors.Is(err, redis.ErrKeyNotFound):
		stamp.remote = "0"
	default:
		slog.Warn("cache version read failed", "tag", tag, "error", err)
		stamp.remoteUnknown = true
		observability.CacheLookups.WithLabelValues("l2", "miss").Inc()
		return stamp, false
	}

	raw, err := c.remote.Get(ctx, keyPrefix+tag)
	if err != nil {
		if !errors.Is(err, redis.ErrKeyNotFound) {
			slog.Warn("cache read failed", "tag", tag, "error", err)
		}
		observability.CacheLookups.WithLabelValues("l2", "miss").Inc()
		return stamp, false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		slog.Warn("discarding undecodable cache entry", "tag", tag, "error", err)
		observability.CacheLookups.WithLabelValues("l2", "miss").Inc()
		return stamp, false
	}
	observability.CacheLookups.WithLabelValues("l2", "hit").Inc()
	c.storeLocal(stamp, []byte(raw))
	return stamp, true
}

func (c *RecipeCache) set(ctx context.Context, stamp Stamp, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		slog.Warn("failed to encode cache entry", "tag", stamp.tag, "error", err)
		return
	}
	if !c.storeLocal(stamp, payload) {
		slog.Debug("dropping stale cache fill", "tag", stamp.tag, "generation", stamp.local)
		return
	}
	if c.remote == nil || stamp.remoteUnknown {
		return
	}
	stored, err := c.remote.SetIfVersion(ctx, keyPrefix+stamp.tag, versionPrefix+stamp.tag, stamp.remote, string(payload), c.ttl)
	if err != nil {
		slog.Warn("cache write failed", "tag", stamp.tag, "error", err)
		return
	}
	if !stored {
		// Invalidated elsewhere since the lookup; our local copy is just as old.
		c.mu.Lock()
		delete(c.local, stamp.tag)
		c.mu.Unlock()
		slog.Debug("dropping stale cache fill", "tag", stamp.tag, "version", stamp.remote)
	}
}

// storeLocal keeps payload unless the tag was invalidated after stamp was
// taken.
func (c *RecipeCache) storeLocal(stamp Stamp, payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[stamp.tag] != stamp.local {
		return false
	}
	c.local[stamp.tag] = entry{payload: payload, expires: c.now().Add(c.localTTL)}
	return true
}
