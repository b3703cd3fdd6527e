package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/Veraticus/saucier/internal/common"
	"github.com/Veraticus/saucier/internal/model"
	"github.com/Veraticus/saucier/internal/scaling"
	"github.com/Veraticus/saucier/internal/service"
	"github.com/Veraticus/saucier/internal/units"
)

const maxBodyBytes = 64 << 10

type recipeSummary struct {
	Title       string   `json:"title"`
	Ingredients []string `json:"ingredients"`
	Duration    string   `json:"duration,omitempty"`
	People      int      `json:"people,omitempty"`
}

type ingredientState struct {
	Name     string   `json:"name"`
	Unit     string   `json:"unit"`
	Category string   `json:"category"`
	Units    []string `json:"units,omitempty"`
	Index    int      `json:"index"`
	Quantity float64  `json:"quantity"`
	IsFactor bool     `json:"is_factor,omitempty"`
}

type sessionState struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	State       string            `json:"state"`
	Ingredients []ingredientState `json:"ingredients"`
	Factor      float64           `json:"factor"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type createSessionRequest struct {
	Title string `json:"title"`
}

type quantityRequest struct {
	Quantity json.RawMessage `json:"quantity"`
}

type unitRequest struct {
	Unit string `json:"unit"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		common.LogError(err, "Failed to marshal JSON response", nil)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		common.LogError(err, "Failed to write JSON response", nil)
	}
}

func respondError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		common.LogError(err, "API error", common.Fields{"status": status})
	}
	respondJSON(w, status, errorResponse{Error: err.Error()})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound),
		errors.Is(err, common.ErrNotFound),
		errors.Is(err, scaling.ErrIngredientIndex):
		return http.StatusNotFound
	case errors.Is(err, scaling.ErrInvalidQuantity),
		errors.Is(err, units.ErrCrossCategoryConversion),
		errors.Is(err, units.ErrUnitNotInCategory),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrSessionLimit):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: reading body: %w", errBadRequest, err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

func summarize(recipes []model.Recipe) []recipeSummary {
	out := make([]recipeSummary, 0, len(recipes))
	for i := range recipes {
		out = append(out, recipeSummary{
			Title:       recipes[i].Title,
			Ingredients: recipes[i].IngredientNames(),
			Duration:    model.FormatDuration(recipes[i].Duration),
			People:      recipes[i].People,
		})
	}
	return out
}

func snapshot(id string, recipe *model.Recipe, session *scaling.Session) sessionState {
	state := sessionState{
		ID:          id,
		Title:       recipe.Title,
		State:       session.State().String(),
		Factor:      session.Factor(),
		Ingredients: make([]ingredientState, 0, session.Len()),
	}
	for _, ing := range session.Ingredients() {
		state.Ingredients = append(state.Ingredients, ingredientState{
			Index:    ing.Index(),
			Name:     ing.Name(),
			Quantity: ing.DisplayQuantity(),
			Unit:     ing.Unit(),
			Category: string(ing.Category()),
			Units:    ing.UnitChoices(),
			IsFactor: ing.IsFactor(),
		})
	}
	return state
}

// withSession runs fn on the session named in the URL and answers with its
// resulting state.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*scaling.Session) error) {
	id := chi.URLParam(r, "id")
	var state sessionState
	err := s.sessions.With(id, func(recipe *model.Recipe, session *scaling.Session) error {
		if err := fn(session); err != nil {
			return err
		}
		state = snapshot(id, recipe, session)
		return nil
	})
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func ingredientIndex(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	i, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: ingredient index %q", errBadRequest, raw)
	}
	return i, nil
}

func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	filter := service.RecipeFilter{Search: r.URL.Query().Get("search")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondError(w, http.StatusBadRequest, fmt.Errorf("%w: limit %q", errBadRequest, raw))
			return
		}
		filter.Limit = limit
	}

	recipes, err := s.catalog.SearchRecipes(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, summarize(recipes))
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.Title == "" {
		respondError(w, http.StatusBadRequest, fmt.Errorf("%w: title is required", errBadRequest))
		return
	}

	recipe, err := s.catalog.GetRecipeByTitle(r.Context(), req.Title)
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}

	id, err := s.sessions.Create(recipe)
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}

	var state sessionState
	err = s.sessions.With(id, func(recipe *model.Recipe, session *scaling.Session) error {
		state = snapshot(id, recipe, session)
		return nil
	})
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusCreated, state)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(*scaling.Session) error { return nil })
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(session *scaling.Session) error {
		session.Reset()
		return nil
	})
}

func (s *Server) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	index, err := ingredientIndex(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	var req quantityRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	// Quantities may be sent as numbers or as typed text such as "12,5".
	text := string(req.Quantity)
	var quoted string
	if err := json.Unmarshal(req.Quantity, &quoted); err == nil {
		text = quoted
	}

	s.withSession(w, r, func(session *scaling.Session) error {
		return session.SetQuantityText(index, text)
	})
}

func (s *Server) handleSetUnit(w http.ResponseWriter, r *http.Request) {
	index, err := ingredientIndex(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	var req unitRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	s.withSession(w, r, func(session *scaling.Session) error {
		return session.SetUnit(index, req.Unit)
	})
}
