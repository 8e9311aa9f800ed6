package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/honeynil/RecipeService/internal/infrastructure/auth"
	"github.com/honeynil/RecipeService/internal/models"
)

// HTTPToggler toggles likes through the service's HTTP API using a session
// token as the AUTH_TOKEN cookie.
type HTTPToggler struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPToggler(baseURL, token string, client *http.Client) *HTTPToggler {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPToggler{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
	}
}

// ToggleError is a toggle the server refused.
type ToggleError struct {
	Status  int
	Message string
}

func (e *ToggleError) Error() string {
	return fmt.Sprintf("toggle rejected (%d): %s", e.Status, e.Message)
}

func (t *HTTPToggler) ToggleLike(ctx context.Context, recipeID string) (models.LikeResult, error) {
	endpoint := t.baseURL + "/recipes/" + url.PathEscape(recipeID) + "/like"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return models.LikeResult{}, err
	}
	if t.token != "" {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: t.token})
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return models.LikeResult{}, err
	}
	defer resp.Body.Close()

	var body struct {
		Success bool   `json:"success"`
		Likes   int32  `json:"likes"`
		IsLiked bool   `json:"isLiked"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.LikeResult{}, fmt.Errorf("failed to decode toggle response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !body.Success {
		return models.LikeResult{}, &ToggleError{Status: resp.StatusCode, Message: body.Error}
	}
	return models.LikeResult{Likes: body.Likes, IsLiked: body.IsLiked}, nil
}
