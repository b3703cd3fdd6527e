package catalog

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/saucier/internal/common"
	"github.com/Veraticus/saucier/internal/model"
	"github.com/Veraticus/saucier/internal/service"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in       string
		wantUnit string
		want     float64
		wantErr  bool
	}{
		{in: "200g", want: 200, wantUnit: "g"},
		{in: "2 L", want: 2, wantUnit: "L"},
		{in: "0.5 l", want: 0.5, wantUnit: "L"},
		{in: "1,5 cuillère à soupe", want: 1.5, wantUnit: "tablespoon"},
		{in: "3 poignées", want: 3, wantUnit: "handful"},
		{in: "2 poignée", want: 2, wantUnit: "handful"},
		{in: "4", want: 4, wantUnit: ""},
		{in: " 12 ", want: 12, wantUnit: ""},
		{in: "1 pincée", want: 1, wantUnit: "pincée"},
		{in: "", wantErr: true},
		{in: "un peu", wantErr: true},
		{in: "1.2.3 g", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			q, unit, err := ParseQuantity(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrInvalidFormat)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, q, 1e-12)
			assert.Equal(t, tt.wantUnit, unit)
		})
	}
}

func TestLoadJSON(t *testing.T) {
	input := `[
		{
			"title": "Gâteau de semoule",
			"ingredients": [
				{"name": "lait", "quantity": 1, "unit": "L"},
				{"name": "semoule", "quantity": "125g"},
				{"name": "œufs", "quantity": "3"},
				{"name": "sucre", "quantity": 4, "unit": "cuillère à soupe"}
			],
			"steps": ["Chauffer le lait.", "Verser la semoule en pluie."],
			"duration": 120,
			"amount": 1,
			"people": 4
		},
		{"title": null, "ingredients": null, "steps": null},
		{"title": "Salade", "ingredients": [{"name": "laitue", "quantity": null}]}
	]`

	recipes, err := LoadJSON(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, recipes, 2)

	gateau := recipes[0]
	assert.Equal(t, "Gâteau de semoule", gateau.Title)
	assert.Equal(t, 120, gateau.Duration)
	assert.Equal(t, 1, gateau.Amount)
	assert.Equal(t, 4, gateau.People)
	assert.Equal(t, []model.Ingredient{
		{Name: "lait", Quantity: 1, Unit: "L"},
		{Name: "semoule", Quantity: 125, Unit: "g"},
		{Name: "œufs", Quantity: 3},
		{Name: "sucre", Quantity: 4, Unit: "tablespoon"},
	}, gateau.Ingredients)
	assert.Len(t, gateau.Steps, 2)

	assert.Equal(t, []model.Ingredient{{Name: "laitue"}}, recipes[1].Ingredients)
}

func TestLoadJSONInvalid(t *testing.T) {
	for _, input := range []string{
		`{"title": "not an array"}`,
		`[{"title": "x", "ingredients": [{"name": "a", "quantity": "beaucoup"}]}]`,
		`[{"title": "x", "ingredients": [{"name": "a", "quantity": true}]}]`,
	} {
		_, err := LoadJSON(strings.NewReader(input))
		assert.ErrorIs(t, err, common.ErrInvalidFormat, input)
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	recipes := []model.Recipe{{
		Title:       "Crêpes",
		Duration:    40,
		People:      4,
		Ingredients: []model.Ingredient{{Name: "farine", Quantity: 250, Unit: "g"}, {Name: "œufs", Quantity: 4}},
		Steps:       []string{"Mélanger."},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, recipes))
	assert.Contains(t, buf.String(), `"quantity": 250`)

	got, err := LoadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, recipes, got)
}

func TestParseSheet(t *testing.T) {
	sheet := strings.Join([]string{
		"Horodateur\tTitre\tIngrédients\tÉtapes",
		"2024-01-03 10:00:00\tCrêpes\t\"farine 250g\nlait 0,5 L\nœufs 4\nsel\"\t\"Mélanger.\nCuire.\"",
		"2024-01-04 11:00:00\tIncomplet\tfarine 100g",
		"2024-01-05 12:00:00\t\tfarine 100g\tRien.",
		"2024-01-06 13:00:00\tVinaigrette\t\"huile 3 cuillère à soupe\nmoutarde un peu\"\tFouetter.",
	}, "\n")

	recipes, err := ParseSheet(strings.NewReader(sheet))
	require.NoError(t, err)
	require.Len(t, recipes, 3)

	// The header row has four columns too.
	assert.Equal(t, "Titre", recipes[0].Title)

	crepes := recipes[1]
	assert.Equal(t, "Crêpes", crepes.Title)
	assert.Equal(t, []model.Ingredient{
		{Name: "farine", Quantity: 250, Unit: "g"},
		{Name: "lait", Quantity: 0.5, Unit: "L"},
		{Name: "œufs", Quantity: 4},
	}, crepes.Ingredients)
	assert.Equal(t, []string{"Mélanger.", "Cuire."}, crepes.Steps)

	vinaigrette := recipes[2]
	assert.Equal(t, []model.Ingredient{
		{Name: "huile", Quantity: 3, Unit: "tablespoon"},
		{Name: "moutarde", Quantity: 0, Unit: "un peu"},
	}, vinaigrette.Ingredients)
}

func TestDedupe(t *testing.T) {
	in := []model.Recipe{
		{Title: "A", People: 1},
		{Title: "B"},
		{Title: "A", People: 2},
	}
	out := Dedupe(in)
	require.Len(t, out, 2)
	assert.Equal(t, "A", out[0].Title)
	assert.Equal(t, 2, out[0].People)
	assert.Equal(t, "B", out[1].Title)
}

func testRetry() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
	}
}

func TestFetch(t *testing.T) {
	t.Run("retries server errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte("ts\tCrêpes\tfarine 250g\tMélanger."))
		}))
		defer srv.Close()

		body, err := NewFetcher(srv.Client(), testRetry()).Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, int32(3), calls.Load())

		recipes, err := ParseSheet(bytes.NewReader(body))
		require.NoError(t, err)
		require.Len(t, recipes, 1)
		assert.Equal(t, "Crêpes", recipes[0].Title)
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := NewFetcher(srv.Client(), testRetry()).Fetch(context.Background(), srv.URL)
		assert.ErrorIs(t, err, common.ErrFetchFailed)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := NewFetcher(srv.Client(), testRetry()).Fetch(context.Background(), srv.URL)
		assert.ErrorIs(t, err, common.ErrFetchFailed)
		assert.ErrorIs(t, err, common.ErrMaxRetries)
	})

	t.Run("waits for retry-after", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = w.Write([]byte("ts\tCrêpes\tfarine 250g\tMélanger."))
		}))
		defer srv.Close()

		opts := testRetry()
		opts.MaxDelay = time.Minute
		start := time.Now()
		_, err := NewFetcher(srv.Client(), opts).Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())
		elapsed := time.Since(start)
		assert.GreaterOrEqual(t, elapsed, time.Second)
		assert.Less(t, elapsed, 30*time.Second)
	})

	t.Run("rejects oversized export", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			_, _ = w.Write(bytes.Repeat([]byte("a"), maxSheetSize+1))
		}))
		defer srv.Close()

		_, err := NewFetcher(srv.Client(), testRetry()).Fetch(context.Background(), srv.URL)
		assert.ErrorIs(t, err, common.ErrFetchFailed)
		assert.ErrorIs(t, err, common.ErrInvalidFormat)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("accepts export at the size cap", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write(bytes.Repeat([]byte("a"), maxSheetSize))
		}))
		defer srv.Close()

		body, err := NewFetcher(srv.Client(), testRetry()).Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Len(t, body, maxSheetSize)
	})
}
