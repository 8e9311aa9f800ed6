package service

import (
	"context"
	"fmt"
	"time"

	stderrors "errors"

	"github.com/honeynil/RecipeService/internal/cache"
	"github.com/honeynil/RecipeService/internal/infrastructure/auth"
	"github.com/honeynil/RecipeService/internal/infrastructure/kafka"
	"github.com/honeynil/RecipeService/internal/infrastructure/observability"
	"github.com/honeynil/RecipeService/internal/models"
	"github.com/honeynil/RecipeService/internal/repository"
	pkgerrors "github.com/honeynil/RecipeService/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

//go:generate mockgen -source=recipe_service.go -destination=mocks/recipe_service_mock.go -package=mocks

type RecipeService interface {
	List(ctx context.Context) ([]models.Recipe, error)
	Get(ctx context.Context, id string) (*models.Recipe, error)
	Create(ctx context.Context, actor *models.Identity, form RecipeForm) (*models.Recipe, error)
	Update(ctx context.Context, actor *models.Identity, id string, form RecipeForm) error
	Delete(ctx context.Context, actor *models.Identity, id string) error
	ToggleLike(ctx context.Context, actor *models.Identity, id string) (models.LikeResult, error)
}

type recipeService struct {
	recipeRepo repository.RecipeRepository
	cache      cache.Cache
	events     kafka.EventPublisher
}

func NewRecipeService(recipeRepo repository.RecipeRepository, recipeCache cache.Cache, events kafka.EventPublisher) *recipeService {
	return &recipeService{
		recipeRepo: recipeRepo,
		cache:      recipeCache,
		events:     events,
	}
}

func (s *recipeService) List(ctx context.Context) ([]models.Recipe, error) {
	tracer := otel.Tracer("recipe-service")
	ctx, span := tracer.Start(ctx, "ListRecipes")
	defer span.End()

	cached, stamp, ok := s.cache.Recipes(ctx)
	if ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return cached, nil
	}

	recipes, err := s.recipeRepo.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		observability.WithContext(ctx).Error("failed to list recipes", "error", err)
		return nil, fmt.Errorf("%w: failed to list recipes", pkgerrors.ErrInternal)
	}
	s.cache.SetRecipes(ctx, stamp, recipes)
	return recipes, nil
}

func (s *recipeService) Get(ctx context.Context, id string) (*models.Recipe, error) {
	tracer := otel.Tracer("recipe-service")
	ctx, span := tracer.Start(ctx, "GetRecipe")
	defer span.End()
	span.SetAttributes(attribute.String("recipe_id", id))

	cached, stamp, ok := s.cache.Recipe(ctx, id)
	if ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return cached, nil
	}

	recipe, err := s.load(ctx, span, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetRecipe(ctx, stamp, recipe)
	return recipe, nil
}

func (s *recipeService) Create(ctx context.Context, actor *models.Identity, form RecipeForm) (*models.Recipe, error) {
	tracer := otel.Tracer("recipe-service")
	ctx, span := tracer.Start(ctx, "CreateRecipe")
	defer span.End()

	if err := auth.RequireActor(actor); err != nil {
		span.SetStatus(codes.Error, "unauthenticated")
		return nil, err
	}
	span.SetAttributes(attribute.String("user_id", actor.ID))

	fields, err := form.Parse()
	if err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	recipe := &models.Recipe{
		Title:        fields.Title,
		Ingredients:  fields.Ingredients,
		Instructions: fields.Instructions,
		PrepTime:     fields.PrepTime,
		CookTime:     fields.CookTime,
		AuthorID:     actor.ID,
	}
	if err := s.recipeRepo.Create(ctx, recipe); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		observability.WithContext(ctx).Error("failed to create recipe", "user_id", actor.ID, "error", err)
		return nil, fmt.Errorf("%w: failed to create recipe", pkgerrors.ErrInternal)
	}

	s.afterWrite(ctx, models.RecipeCreated, recipe.ID, actor.ID)
	observability.WithContext(ctx).Info("recipe created", "recipe_id", recipe.ID, "user_id", actor.ID)
	return recipe, nil
}

func (s *recipeService) Update(ctx context.Context, actor *models.Identity, id string, form RecipeForm) error {
	tracer := otel.Tracer("recipe-service")
	ctx, span := tracer.Start(ctx, "UpdateRecipe")
	defer span.End()
	span.SetAttributes(attribute.String("recipe_id", id))

	if err := auth.RequireActor(actor); err != nil {
		span.SetStatus(codes.Error, "unauthenticated")
		return err
	}

	fields, err := form.Parse()
	if err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return err
	}

	recipe, err := s.load(ctx, span, id)
	if err != nil {
		return err
	}
	if err := auth.Authorize(recipe, actor); err != nil {
		span.SetStatus(codes.Error, "forbidden")
		observability.WithContext(ctx).Warn("update rejected", "recipe_id", id, "user_id", actor.ID, "author_id", recipe.AuthorID)
		return err
	}

	if err := s.recipeRepo.Update(ctx, id, fields); err != nil {
		if stderrors.Is(err, pkgerrors.ErrRecipeNotFound) {
			span.SetStatus(codes.Error, "recipe not found")
			return err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		observability.WithContext(ctx).Error("failed to update recipe", "recipe_id", id, "error", err)
		return fmt.Errorf("%w: failed to update recipe", pkgerrors.ErrInternal)
	}

	s.afterWrite(ctx, models.RecipeUpdated, id, actor.ID)
	observability.WithContext(ctx).Info("recipe updated", "recipe_id", id, "user_id", actor.ID)
	return nil
}

func (s *recipeService) Delete(ctx context.Context, actor *models.Identity, id string) error {
	tracer := otel.Tracer("recipe-service")
	ctx, span := tracer.Start(ctx, "DeleteRecipe")
	defer span.End()
	span.SetAttributes(attribute.String("recipe_id", id))

	if err := auth.RequireActor(actor); err != nil {
		span.SetStatus(codes.Error, "unauthenticated")
		return err
	}

	recipe, err := s.load(ctx, span, id)
	if err != nil {
		return err
	}
	if err := auth.Authorize(recipe, actor); err != nil {
		span.SetStatus(codes.Error, "forbidden")
		observability.WithContext(ctx).Warn("delete rejected", "recipe_id", id, "user_id", actor.ID, "author_id", recipe.AuthorID)
		return err
	}

	if err := s.recipeRepo.Delete(ctx, id); err != nil {
		if stderrors.Is(err, pkgerrors.ErrRecipeNotFound) {
			span.SetStatus(codes.Error, "recipe not found")
			return err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		observability.WithContext(ctx).Error("failed to delete recipe", "recipe_id", id, "error", err)
		return fmt.Errorf("%w: failed to delete recipe", pkgerrors.ErrInternal)
	}

	s.afterWrite(ctx, models.RecipeDeleted, id, actor.ID)
	observability.WithContext(ctx).Info("recipe deleted", "recipe_id", id, "user_id", actor.ID)
	return nil
}

// ToggleLike flips the actor's like on the recipe. The returned result is the
// stored state after the toggle, which callers must adopt.
func (s *recipeService) ToggleLike(ctx context.Context, actor *models.Identity, id string) (models.LikeResult, error) {
	tracer := otel.Tracer("recipe-service")
	ctx, span := tracer.Start(ctx, "ToggleLike")
	defer span.End()
	span.SetAttributes(attribute.String("recipe_id", id))

	if err := auth.RequireActor(actor); err != nil {
		span.SetStatus(codes.Error, "unauthenticated")
		observability.LikeToggles.WithLabelValues("unauthenticated").Inc()
		return models.LikeResult{}, err
	}
	span.SetAttributes(attribute.String("user_id", actor.ID))

	result, err := s.recipeRepo.ToggleLike(ctx, id, actor.ID)
	if err != nil {
		if stderrors.Is(err, pkgerrors.ErrRecipeNotFound) {
			span.SetStatus(codes.Error, "recipe not found")
			observability.LikeToggles.WithLabelValues("not_found").Inc()
			return models.LikeResult{}, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "toggle failed")
		observability.LikeToggles.WithLabelValues("error").Inc()
		observability.WithContext(ctx).Error("failed to toggle like", "recipe_id", id, "user_id", actor.ID, "error", err)
		return models.LikeResult{}, fmt.Errorf("%w: failed to toggle like", pkgerrors.ErrInternal)
	}

	if result.IsLiked {
		observability.LikeToggles.WithLabelValues("liked").Inc()
	} else {
		observability.LikeToggles.WithLabelValues("unliked").Inc()
	}
	span.SetAttributes(attribute.Bool("is_liked", result.IsLiked), attribute.Int("likes", int(result.Likes)))

	s.afterWrite(ctx, models.RecipeLiked, id, actor.ID)
	return result, nil
}

func (s *recipeService) load(ctx context.Context, span trace.Span, id string) (*models.Recipe, error) {
	recipe, err := s.recipeRepo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, pkgerrors.ErrRecipeNotFound) {
			span.SetStatus(codes.Error, "recipe not found")
			return nil, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "recipe lookup failed")
		observability.WithContext(ctx).Error("failed to get recipe", "recipe_id", id, "error", err)
		return nil, fmt.Errorf("%w: failed to get recipe", pkgerrors.ErrInternal)
	}
	return recipe, nil
}

// afterWrite drops the cached list and detail for id on this instance and in
// Redis, then tells the other instances to drop theirs. Neither step can
// fail the write.
func (s *recipeService) afterWrite(ctx context.Context, typ models.RecipeEventType, id, actorID string) {
	tags := cache.WriteTags(id)
	s.cache.Invalidate(ctx, tags)

	event := models.RecipeEvent{
		Type:       typ,
		RecipeID:   id,
		ActorID:    actorID,
		Tags:       tags,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.Publish(context.WithoutCancel(ctx), event); err != nil {
		observability.WithContext(ctx).Error("failed to publish recipe event", "recipe_id", id, "type", typ, "error", err)
	}
}
