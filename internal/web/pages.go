package web

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Veraticus/saucier/internal/common"
	"github.com/Veraticus/saucier/internal/model"
	"github.com/Veraticus/saucier/internal/scaling"
	"github.com/Veraticus/saucier/internal/service"
)

var templateFuncs = template.FuncMap{
	"quantity": func(q float64) string { return strconv.FormatFloat(q, 'f', -1, 64) },
	"duration": model.FormatDuration,
	"ingredientNames": func(r model.Recipe) []string {
		return r.IngredientNames()
	},
}

type catalogPage struct {
	Search  string
	Recipes []model.Recipe
}

type recipePage struct {
	Recipe  *model.Recipe
	Session sessionState
	Error   string
}

type notFoundPage struct {
	Path string
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		common.LogError(err, "Failed to render page", common.Fields{"template": name})
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		common.LogError(err, "Failed to write page", common.Fields{"template": name})
	}
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusNotFound, "notfound.html", notFoundPage{Path: r.URL.Path})
}

func (s *Server) handleCatalogPage(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	recipes, err := s.catalog.SearchRecipes(r.Context(), service.RecipeFilter{Search: search})
	if err != nil {
		common.LogError(err, "Failed to load catalog", nil)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	s.render(w, http.StatusOK, "catalog.html", catalogPage{Search: search, Recipes: recipes})
}

// handleRecipePage shows a recipe with its scaling session. A session id in
// the query resumes that session; otherwise a fresh one is opened.
func (s *Server) handleRecipePage(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	title := query.Get("title")
	if title == "" {
		s.handleNotFound(w, r)
		return
	}

	if id := query.Get("session"); id != "" {
		page, err := s.sessionPage(id)
		if err == nil && page.Recipe.Title == title {
			page.Error = query.Get("error")
			s.render(w, http.StatusOK, "recipe.html", page)
			return
		}
	}

	recipe, err := s.catalog.GetRecipeByTitle(r.Context(), title)
	if errors.Is(err, common.ErrNotFound) {
		s.handleNotFound(w, r)
		return
	}
	if err != nil {
		common.LogError(err, "Failed to load recipe", common.Fields{"title": title})
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	id, err := s.sessions.Create(recipe)
	if errors.Is(err, ErrSessionLimit) {
		s.log.Warn("Session store full", "title", title)
		http.Error(w, "too many open recipes, try again later", http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		common.LogError(err, "Failed to open scaling session", common.Fields{"title": title})
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	page, err := s.sessionPage(id)
	if err != nil {
		common.LogError(err, "Failed to open scaling session", common.Fields{"title": title})
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	s.render(w, http.StatusOK, "recipe.html", page)
}

func (s *Server) sessionPage(id string) (recipePage, error) {
	var page recipePage
	err := s.sessions.With(id, func(recipe *model.Recipe, session *scaling.Session) error {
		page = recipePage{Recipe: recipe, Session: snapshot(id, recipe, session)}
		return nil
	})
	return page, err
}

func (s *Server) handleQuantityForm(w http.ResponseWriter, r *http.Request) {
	s.handleForm(w, r, func(session *scaling.Session, index int) error {
		return session.SetQuantityText(index, r.PostForm.Get("quantity"))
	})
}

func (s *Server) handleUnitForm(w http.ResponseWriter, r *http.Request) {
	s.handleForm(w, r, func(session *scaling.Session, index int) error {
		return session.SetUnit(index, r.PostForm.Get("unit"))
	})
}

func (s *Server) handleResetForm(w http.ResponseWriter, r *http.Request) {
	s.handleForm(w, r, func(session *scaling.Session, _ int) error {
		session.Reset()
		return nil
	})
}

// handleForm applies a form edit to the posted session and redirects back to
// the recipe page. Edit errors are shown on the page.
func (s *Server) handleForm(w http.ResponseWriter, r *http.Request, edit func(*scaling.Session, int) error) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	title := r.PostForm.Get("title")
	id := r.PostForm.Get("session")

	index := 0
	if raw := r.PostForm.Get("index"); raw != "" {
		i, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		index = i
	}

	target := url.Values{"title": {title}}
	err := s.sessions.With(id, func(_ *model.Recipe, session *scaling.Session) error {
		return edit(session, index)
	})
	switch {
	case errors.Is(err, ErrSessionNotFound):
		// Expired: start over with a fresh session.
	case err != nil:
		target.Set("session", id)
		target.Set("error", err.Error())
	default:
		target.Set("session", id)
	}

	http.Redirect(w, r, "/recipe?"+target.Encode(), http.StatusSeeOther)
}
