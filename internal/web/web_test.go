package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/saucier/internal/model"
	"github.com/Veraticus/saucier/internal/scaling"
	"github.com/Veraticus/saucier/internal/testutil"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()

	db := testutil.SetupTestDB(t, testutil.Catalog()...)
	if opts.SessionTTL == 0 {
		opts.SessionTTL = time.Hour
	}
	srv, err := New(db.Storage, opts)
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) sessionState {
	t.Helper()

	var state sessionState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state), rec.Body.String())
	return state
}

func createSession(t *testing.T, h http.Handler, title string) sessionState {
	t.Helper()

	rec := do(t, h, http.MethodPost, "/api/sessions", `{"title":"`+title+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeState(t, rec)
}

func TestNewRequiresCatalog(t *testing.T) {
	_, err := New(nil, Options{})
	assert.Error(t, err)
}

func TestCatalogPage(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()

	rec := do(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Crêpes")
	assert.Contains(t, rec.Body.String(), "Quiche lorraine")
	assert.Contains(t, rec.Body.String(), "farine, lait")

	rec = do(t, h, http.MethodGet, "/?search=boeuf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Bœuf bourguignon")
	assert.NotContains(t, rec.Body.String(), "Quiche lorraine")

	rec = do(t, h, http.MethodGet, "/?search=introuvable", "")
	assert.Contains(t, rec.Body.String(), "Aucune recette")
}

func TestRecipePageNotFound(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()

	for _, target := range []string{"/recipe", "/recipe?title=Tarte", "/nowhere"} {
		t.Run(target, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, target, "")
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Contains(t, rec.Body.String(), "404 Not Found")
		})
	}
}

func TestRecipePageOpensSession(t *testing.T) {
	srv := newTestServer(t, Options{ShowFactor: true, FactorLabel: "Facteur"})
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/recipe?title="+url.QueryEscape("Crêpes"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Facteur")
	assert.Contains(t, body, "farine")
	assert.Contains(t, body, "Mélanger la farine")
	assert.Equal(t, 1, srv.Sessions().Len())
}

func TestRecipeFormsScaleAndRedirect(t *testing.T) {
	srv := newTestServer(t, Options{})
	h := srv.Handler()
	state := createSession(t, h, "Crêpes")

	post := func(path string, form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := post("/recipe/quantity", url.Values{
		"title": {"Crêpes"}, "session": {state.ID}, "index": {"0"}, "quantity": {"500"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "session="+state.ID)

	err := srv.Sessions().With(state.ID, func(_ *model.Recipe, s *scaling.Session) error {
		assert.InDelta(t, 2.0, s.Factor(), 1e-9)
		return nil
	})
	require.NoError(t, err)

	// The resumed page shows the scaled quantities.
	page := do(t, h, http.MethodGet, rec.Header().Get("Location"), "")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "×2")

	rec = post("/recipe/quantity", url.Values{
		"title": {"Crêpes"}, "session": {state.ID}, "index": {"0"}, "quantity": {"beaucoup"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "error=")

	rec = post("/recipe/reset", url.Values{"title": {"Crêpes"}, "session": {state.ID}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	err = srv.Sessions().With(state.ID, func(_ *model.Recipe, s *scaling.Session) error {
		assert.InDelta(t, 1.0, s.Factor(), 1e-9)
		return nil
	})
	require.NoError(t, err)
}

func TestRecipeFormExpiredSessionStartsOver(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()

	req := httptest.NewRequest(http.MethodPost, "/recipe/unit", strings.NewReader(url.Values{
		"title": {"Crêpes"}, "session": {"gone"}, "index": {"1"}, "unit": {"mL"},
	}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/recipe?title=Cr%C3%AApes", rec.Header().Get("Location"))
}

func TestAPIListRecipes(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()

	rec := do(t, h, http.MethodGet, "/api/recipes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var recipes []recipeSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recipes))
	require.Len(t, recipes, 3)
	assert.Equal(t, "Bœuf bourguignon", recipes[0].Title)
	assert.Equal(t, "Crêpes", recipes[1].Title)
	assert.Equal(t, "40 min", recipes[1].Duration)
	assert.Equal(t, []string{"farine", "lait", "œufs", "beurre", "sucre vanillé"}, recipes[1].Ingredients)

	rec = do(t, h, http.MethodGet, "/api/recipes?search=lardons", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recipes))
	require.Len(t, recipes, 1)
	assert.Equal(t, "Quiche lorraine", recipes[0].Title)

	rec = do(t, h, http.MethodGet, "/api/recipes?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPISessionLifecycle(t *testing.T) {
	srv := newTestServer(t, Options{})
	h := srv.Handler()

	state := createSession(t, h, "Crêpes")
	assert.NotEmpty(t, state.ID)
	assert.Equal(t, "Crêpes", state.Title)
	assert.Equal(t, "idle", state.State)
	assert.InDelta(t, 1.0, state.Factor, 1e-9)
	require.Len(t, state.Ingredients, 5)
	assert.Equal(t, []string{"mg", "g", "handful", "kg"}, state.Ingredients[0].Units)
	assert.Empty(t, state.Ingredients[2].Units)

	base := "/api/sessions/" + state.ID

	rec := do(t, h, http.MethodPut, base+"/ingredients/0/quantity", `{"quantity":500}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	state = decodeState(t, rec)
	assert.Equal(t, "scaled", state.State)
	assert.InDelta(t, 2.0, state.Factor, 1e-9)
	assert.InDelta(t, 500, state.Ingredients[0].Quantity, 1e-9)
	assert.Equal(t, "g", state.Ingredients[0].Unit)
	assert.InDelta(t, 1, state.Ingredients[1].Quantity, 1e-9)
	assert.Equal(t, "L", state.Ingredients[1].Unit)
	assert.InDelta(t, 8, state.Ingredients[2].Quantity, 1e-9)
	assert.InDelta(t, 100, state.Ingredients[3].Quantity, 1e-9)
	assert.Equal(t, "g", state.Ingredients[3].Unit)
	assert.InDelta(t, 2, state.Ingredients[4].Quantity, 1e-9)
	assert.Equal(t, "sachet", state.Ingredients[4].Unit)

	// Typed text with a decimal comma.
	rec = do(t, h, http.MethodPut, base+"/ingredients/2/quantity", `{"quantity":"12,5"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	state = decodeState(t, rec)
	assert.InDelta(t, 3.125, state.Factor, 1e-9)

	rec = do(t, h, http.MethodPut, base+"/ingredients/1/unit", `{"unit":"mL"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	state = decodeState(t, rec)
	assert.Equal(t, "mL", state.Ingredients[1].Unit)
	assert.InDelta(t, 3.125, state.Factor, 1e-9)

	rec = do(t, h, http.MethodPost, base+"/reset", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	state = decodeState(t, rec)
	assert.Equal(t, "idle", state.State)
	assert.InDelta(t, 1.0, state.Factor, 1e-9)
	assert.InDelta(t, 250, state.Ingredients[0].Quantity, 1e-9)
	assert.InDelta(t, 5, state.Ingredients[1].Quantity, 1e-9)
	assert.Equal(t, "dL", state.Ingredients[1].Unit)
	assert.InDelta(t, 4, state.Ingredients[2].Quantity, 1e-9)

	rec = do(t, h, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, state, decodeState(t, rec))

	rec = do(t, h, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, srv.Sessions().Len())

	rec = do(t, h, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIFactorIngredient(t *testing.T) {
	h := newTestServer(t, Options{ShowFactor: true, FactorLabel: "Facteur"}).Handler()

	state := createSession(t, h, "Quiche lorraine")
	require.Len(t, state.Ingredients, 6)
	assert.True(t, state.Ingredients[0].IsFactor)
	assert.Equal(t, "Facteur", state.Ingredients[0].Name)

	rec := do(t, h, http.MethodPut, "/api/sessions/"+state.ID+"/ingredients/0/quantity", `{"quantity":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	state = decodeState(t, rec)
	assert.InDelta(t, 2.0, state.Factor, 1e-9)
	assert.InDelta(t, 2, state.Ingredients[1].Quantity, 1e-9)
	assert.InDelta(t, 400, state.Ingredients[2].Quantity, 1e-9)
}

func TestAPIErrors(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()
	state := createSession(t, h, "Crêpes")
	base := "/api/sessions/" + state.ID

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{name: "unknown recipe", method: http.MethodPost, target: "/api/sessions", body: `{"title":"Tarte"}`, want: http.StatusNotFound},
		{name: "missing title", method: http.MethodPost, target: "/api/sessions", body: `{}`, want: http.StatusBadRequest},
		{name: "malformed body", method: http.MethodPost, target: "/api/sessions", body: `{`, want: http.StatusBadRequest},
		{name: "unknown session", method: http.MethodGet, target: "/api/sessions/nope", want: http.StatusNotFound},
		{name: "negative quantity", method: http.MethodPut, target: base + "/ingredients/0/quantity", body: `{"quantity":-1}`, want: http.StatusBadRequest},
		{name: "text quantity", method: http.MethodPut, target: base + "/ingredients/0/quantity", body: `{"quantity":"beaucoup"}`, want: http.StatusBadRequest},
		{name: "missing quantity", method: http.MethodPut, target: base + "/ingredients/0/quantity", body: `{}`, want: http.StatusBadRequest},
		{name: "index out of range", method: http.MethodPut, target: base + "/ingredients/99/quantity", body: `{"quantity":1}`, want: http.StatusNotFound},
		{name: "index not a number", method: http.MethodPut, target: base + "/ingredients/first/quantity", body: `{"quantity":1}`, want: http.StatusBadRequest},
		{name: "cross category unit", method: http.MethodPut, target: base + "/ingredients/1/unit", body: `{"unit":"g"}`, want: http.StatusBadRequest},
		{name: "delete unknown session", method: http.MethodDelete, target: "/api/sessions/nope", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}

	// Failed edits leave the session untouched.
	rec := do(t, h, http.MethodGet, base, "")
	assert.Equal(t, state, decodeState(t, rec))
}

func TestAPICORSPreflight(t *testing.T) {
	h := newTestServer(t, Options{CORSOrigins: []string{"http://localhost:3000"}}).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/recipes", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/recipes", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAPIRateLimit(t *testing.T) {
	h := newTestServer(t, Options{RateLimit: 2}).Handler()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/recipes", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/recipes", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodGet, "/api/recipes", "").Code)

	// Recipe pages open sessions and share the API budget; the catalog does not.
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodGet, "/recipe?title=Cr%C3%AApes", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/", "").Code)
}

func TestRecipePageRateLimit(t *testing.T) {
	srv := newTestServer(t, Options{RateLimit: 3})
	h := srv.Handler()

	for range 3 {
		require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/recipe?title=Cr%C3%AApes", "").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodGet, "/recipe?title=Cr%C3%AApes", "").Code)
	assert.Equal(t, 3, srv.Sessions().Len())
}

func TestSessionLimit(t *testing.T) {
	srv := newTestServer(t, Options{MaxSessions: 2})
	h := srv.Handler()

	createSession(t, h, "Crêpes")
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/recipe?title=Cr%C3%AApes", "").Code)

	rec := do(t, h, http.MethodGet, "/recipe?title=Cr%C3%AApes", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/sessions", `{"title":"Crêpes"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "too many open sessions")
	assert.Equal(t, 2, srv.Sessions().Len())
}

func TestSessionStoreExpiry(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewSessionStore(10*time.Minute, 0)
	store.now = func() time.Time { return now }

	recipe := testutil.Crepes()
	kept, err := store.Create(&recipe)
	require.NoError(t, err)
	idle, err := store.Create(&recipe)
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())

	now = now.Add(8 * time.Minute)
	require.NoError(t, store.With(kept, func(*model.Recipe, *scaling.Session) error { return nil }))

	now = now.Add(5 * time.Minute)
	err = store.With(idle, func(*model.Recipe, *scaling.Session) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.Len())
	require.NoError(t, store.With(kept, func(*model.Recipe, *scaling.Session) error { return nil }))

	assert.ErrorIs(t, store.Delete(idle), ErrSessionNotFound)
	require.NoError(t, store.Delete(kept))
	assert.Zero(t, store.Len())
}

func TestSessionStoreLimitSweepsExpired(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewSessionStore(10*time.Minute, 1)
	store.now = func() time.Time { return now }

	recipe := testutil.Crepes()
	first, err := store.Create(&recipe)
	require.NoError(t, err)

	_, err = store.Create(&recipe)
	assert.ErrorIs(t, err, ErrSessionLimit)

	now = now.Add(11 * time.Minute)
	second, err := store.Create(&recipe)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, 1, store.Len())
	assert.ErrorIs(t, store.With(first, func(*model.Recipe, *scaling.Session) error { return nil }), ErrSessionNotFound)
}
