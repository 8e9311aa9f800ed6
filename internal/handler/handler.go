package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/honeynil/RecipeService/internal/infrastructure/auth"
	"github.com/honeynil/RecipeService/internal/models"
	service "github.com/honeynil/RecipeService/internal/services"
	pkgerrors "github.com/honeynil/RecipeService/pkg/errors"
)

// CookieConfig controls the session cookie written on login and registration.
type CookieConfig struct {
	TTL    time.Duration
	Secure bool
}

type Handler struct {
	auth    service.AuthService
	recipes service.RecipeService
	cookie  CookieConfig
}

func NewHandler(authSvc service.AuthService, recipeSvc service.RecipeService, cookie CookieConfig) *Handler {
	return &Handler{auth: authSvc, recipes: recipeSvc, cookie: cookie}
}

type errorResponse struct {
	Error string `json:"error"`
}

type sessionResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	User    *models.Identity `json:"user,omitempty"`
}

type createResponse struct {
	models.ActionResult
	ID string `json:"id,omitempty"`
}

type likeResponse struct {
	Success bool `json:"success"`
	models.LikeResult
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func (h *Handler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
	r.HandleFunc("/me", h.Me).Methods(http.MethodGet)
	r.HandleFunc("/recipes", h.ListRecipes).Methods(http.MethodGet)
	r.HandleFunc("/recipes/{id}", h.GetRecipe).Methods(http.MethodGet)
}

// RegisterMutationRoutes registers the routes that act on behalf of the
// request's identity. Anonymous requests reach the handlers and are rejected
// by the services.
func (h *Handler) RegisterMutationRoutes(r *mux.Router) {
	r.HandleFunc("/recipes", h.CreateRecipe).Methods(http.MethodPost)
	r.HandleFunc("/recipes/{id}", h.UpdateRecipe).Methods(http.MethodPut)
	r.HandleFunc("/recipes/{id}", h.DeleteRecipe).Methods(http.MethodDelete)
	r.HandleFunc("/recipes/{id}/like", h.ToggleLike).Methods(http.MethodPost)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeRequest(r, &req, map[string]*string{"name": &req.Name, "email": &req.Email, "password": &req.Password}); err != nil {
		h.writeError(w, http.StatusBadRequest, service.MsgValidationFailed)
		return
	}

	session, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.writeError(w, authStatus(err), service.AuthErrorMessage(err, true))
		return
	}

	auth.SetSessionCookie(w, session.Token, h.cookie.TTL, h.cookie.Secure)
	writeJSON(w, http.StatusCreated, sessionResponse{Success: true, Message: "Registration successful!", User: &session.Identity})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeRequest(r, &req, map[string]*string{"email": &req.Email, "password": &req.Password}); err != nil {
		h.writeError(w, http.StatusBadRequest, service.MsgValidationFailed)
		return
	}

	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, authStatus(err), service.AuthErrorMessage(err, false))
		return
	}

	auth.SetSessionCookie(w, session.Token, h.cookie.TTL, h.cookie.Secure)
	writeJSON(w, http.StatusOK, sessionResponse{Success: true, Message: "Login successful!", User: &session.Identity})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.cookie.Secure)
	writeJSON(w, http.StatusOK, sessionResponse{Success: true, Message: "Logged out successfully"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]*models.Identity{"user": auth.IdentityFromContext(r.Context())})
}

func (h *Handler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.recipes.List(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, service.MsgUnexpected)
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.recipes.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, pkgerrors.ErrRecipeNotFound) {
			h.writeError(w, http.StatusNotFound, service.MsgRecipeNotFound)
			return
		}
		h.writeError(w, http.StatusInternalServerError, service.MsgUnexpected)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

func (h *Handler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	form, ok := h.decodeRecipeForm(w, r)
	if !ok {
		return
	}

	actor := auth.IdentityFromContext(r.Context())
	recipe, err := h.recipes.Create(r.Context(), actor, form)
	resp := createResponse{ActionResult: service.Result(service.ActionCreate, err)}
	if err != nil {
		writeJSON(w, actionStatus(err), resp)
		return
	}
	resp.ID = recipe.ID
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	form, ok := h.decodeRecipeForm(w, r)
	if !ok {
		return
	}

	actor := auth.IdentityFromContext(r.Context())
	err := h.recipes.Update(r.Context(), actor, mux.Vars(r)["id"], form)
	writeJSON(w, actionStatus(err), service.Result(service.ActionUpdate, err))
}

func (h *Handler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	actor := auth.IdentityFromContext(r.Context())
	err := h.recipes.Delete(r.Context(), actor, mux.Vars(r)["id"])
	writeJSON(w, actionStatus(err), service.Result(service.ActionDelete, err))
}

func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	actor := auth.IdentityFromContext(r.Context())
	result, err := h.recipes.ToggleLike(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrUnauthenticated):
			h.writeError(w, http.StatusUnauthorized, service.MsgAuthRequired)
		case errors.Is(err, pkgerrors.ErrRecipeNotFound):
			h.writeError(w, http.StatusNotFound, service.MsgRecipeNotFound)
		default:
			h.writeError(w, http.StatusInternalServerError, service.MsgUnexpected)
		}
		return
	}
	writeJSON(w, http.StatusOK, likeResponse{Success: true, LikeResult: result})
}

func (h *Handler) decodeRecipeForm(w http.ResponseWriter, r *http.Request) (service.RecipeForm, bool) {
	var form service.RecipeForm
	err := decodeRequest(r, &form, map[string]*string{
		"title":        &form.Title,
		"ingredients":  &form.Ingredients,
		"instructions": &form.Instructions,
		"prepTime":     &form.PrepTime,
		"cookTime":     &form.CookTime,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ActionResult{Message: service.MsgValidationFailed})
		return form, false
	}
	return form, true
}

// decodeRequest reads a JSON body into dst, or, for form submissions, copies
// the named form values into fields.
func decodeRequest(r *http.Request, dst any, fields map[string]*string) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return err
		}
		for name, field := range fields {
			*field = r.FormValue(name)
		}
		return nil
	default:
		return json.NewDecoder(r.Body).Decode(dst)
	}
}

func actionStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, pkgerrors.ErrValidationFailed):
		return http.StatusBadRequest
	case errors.Is(err, pkgerrors.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, pkgerrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, pkgerrors.ErrRecipeNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func authStatus(err error) int {
	switch {
	case errors.Is(err, pkgerrors.ErrValidationFailed):
		return http.StatusBadRequest
	case errors.Is(err, pkgerrors.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, pkgerrors.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
