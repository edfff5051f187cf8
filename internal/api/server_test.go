package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seedcatalog/seedcatalog-server/internal/gbif"
	"github.com/seedcatalog/seedcatalog-server/internal/metrics"
	"github.com/seedcatalog/seedcatalog-server/internal/search"
	"github.com/seedcatalog/seedcatalog-server/internal/service"
	"github.com/seedcatalog/seedcatalog-server/internal/store/sqlite"
)

const tomatoKey = 2930137

// testEnvelope mirrors Envelope with a typed payload.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func decode[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return env
}

// fakeGBIF serves the shared GBIF fixtures and counts requests.
type fakeGBIF struct {
	*httptest.Server
	calls  atomic.Int32
	status atomic.Int32 // non-zero forces this status on every request
}

func newFakeGBIF(t *testing.T) *fakeGBIF {
	t.Helper()

	read := func(name string) []byte {
		data, err := os.ReadFile(filepath.Join("..", "gbif", "testdata", name))
		require.NoError(t, err)
		return data
	}
	routes := map[string][]byte{
		"/species/match":                   read("match_tomato.json"),
		"/species/2930137":                 read("species_tomato.json"),
		"/species/2930137/vernacularNames": read("vernacular_tomato.json"),
	}

	f := &fakeGBIF{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		if code := f.status.Load(); code != 0 {
			w.WriteHeader(int(code))
			return
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(f.Close)
	return f
}

type testServer struct {
	*Server
	api  humatest.TestAPI
	gbif *fakeGBIF
}

func setupTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "catalog.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	index, err := search.NewPlantIndex(search.Options{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	fake := newFakeGBIF(t)
	client := gbif.New(gbif.Config{BaseURL: fake.URL, RPS: 1000, Burst: 100}, logger)
	t.Cleanup(client.Close)

	searchService := service.NewSearchService(index, db, logger)
	catalog := service.NewCatalogService(db, searchService, db, logger)
	autofill := service.NewAutofillService(client, db, db, time.Minute, logger)
	autofill.SetPlantNamer(catalog)

	s := NewServer(db, &Services{
		Catalog:  catalog,
		Autofill: autofill,
		Search:   searchService,
	}, opts, logger)

	return &testServer{Server: s, api: humatest.Wrap(t, s.API()), gbif: fake}
}

func (ts *testServer) createPlant(t *testing.T, body map[string]any) string {
	t.Helper()
	resp := ts.api.Post("/api/v1/plants", body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	env := decode[struct {
		ID string `json:"id"`
	}](t, resp.Body.Bytes())
	return env.Data.ID
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decode[HealthResponse](t, resp.Body.Bytes())
	assert.True(t, env.Success)
	assert.Equal(t, 1, env.Version)
	assert.Equal(t, "healthy", env.Data.Status)
	assert.Equal(t, "healthy", env.Data.Components["database"].Status)
	assert.Equal(t, "healthy", env.Data.Components["search"].Status)
}

func TestMatchSpecies(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/api/v1/species/match?name=Solanum%20lycopersicum")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[MatchSpeciesResponse](t, resp.Body.Bytes())
	require.Len(t, env.Data.Candidates, 1)
	c := env.Data.Candidates[0]
	assert.Equal(t, int64(tomatoKey), c.UsageKey)
	assert.Equal(t, "Solanum lycopersicum L.", c.ScientificName)
	assert.InDelta(t, 0.98, c.Confidence, 1e-9)
	assert.Equal(t, "Solanaceae", c.Taxonomy.Family)

	// Second lookup is served from the cache.
	resp = ts.api.Get("/api/v1/species/match?name=%20Solanum%20lycopersicum%20")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, int32(1), ts.gbif.calls.Load())
}

func TestMatchSpecies_BlankNameMakesNoRequest(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/api/v1/species/match?name=%20%20")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decode[MatchSpeciesResponse](t, resp.Body.Bytes())
	assert.NotNil(t, env.Data.Candidates)
	assert.Empty(t, env.Data.Candidates)
	assert.Zero(t, ts.gbif.calls.Load())
}

func TestMatchSpecies_UnavailableIsEmpty(t *testing.T) {
	ts := setupTestServer(t, Options{})
	ts.gbif.status.Store(http.StatusBadGateway)

	resp := ts.api.Get("/api/v1/species/match?name=Solanum%20lycopersicum")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decode[MatchSpeciesResponse](t, resp.Body.Bytes())
	assert.True(t, env.Success)
	assert.Empty(t, env.Data.Candidates)
}

func TestResolveSpecies_UsesOfferedCandidate(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/api/v1/species/match?name=Solanum%20lycopersicum")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/species/2930137/resolve")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[map[string]any](t, resp.Body.Bytes())
	assert.Equal(t, "Solanum lycopersicum L.", env.Data["accepted_scientific_name"])
	assert.InDelta(t, 0.98, env.Data["confidence"], 1e-9)
	assert.Equal(t, "https://api.gbif.org/v1/species/2930137", env.Data["source_url"])
	assert.Equal(t, []any{"Tomato", "tomato", "Tomate"}, env.Data["vernacular_names"])
	assert.Len(t, env.Data["attributions"], 4)
}

func TestResolveSpecies_WithCandidateBody(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Post("/api/v1/species/2930137/resolve", map[string]any{
		"scientific_name": "Solanum lycopersicum",
		"confidence":      0.5,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[map[string]any](t, resp.Body.Bytes())
	assert.InDelta(t, 0.5, env.Data["confidence"], 1e-9)
	assert.Equal(t, "Solanum lycopersicum L.", env.Data["accepted_scientific_name"])
}

func TestResolveSpecies_Unavailable(t *testing.T) {
	ts := setupTestServer(t, Options{})
	ts.gbif.status.Store(http.StatusServiceUnavailable)

	resp := ts.api.Post("/api/v1/species/2930137/resolve")
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)

	env := decode[any](t, resp.Body.Bytes())
	assert.False(t, env.Success)
	assert.Equal(t, "UNAVAILABLE", env.Code)
	assert.NotEmpty(t, env.Error)
}

func TestResolveSpecies_InvalidKey(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Post("/api/v1/species/0/resolve")
	require.Equal(t, http.StatusBadRequest, resp.Code)

	env := decode[any](t, resp.Body.Bytes())
	assert.Equal(t, "VALIDATION", env.Code)
	assert.Zero(t, ts.gbif.calls.Load())
}

func TestPlants_CRUD(t *testing.T) {
	ts := setupTestServer(t, Options{})

	id := ts.createPlant(t, map[string]any{
		"botanical_name":    "Ocimum basilicum",
		"common_name":       "Sweet Basil",
		"plant_type":        "Herb",
		"light_requirement": "Full Sun",
	})
	ts.createPlant(t, map[string]any{"common_name": "Cherry Tomato", "plant_type": "Vegetable"})

	resp := ts.api.Get("/api/v1/plants?q=bas")
	require.Equal(t, http.StatusOK, resp.Code)
	list := decode[PlantsResponse](t, resp.Body.Bytes())
	require.Len(t, list.Data.Plants, 1)
	assert.Equal(t, id, list.Data.Plants[0].ID)

	resp = ts.api.Get("/api/v1/plants?plant_type=Vegetable")
	require.Equal(t, http.StatusOK, resp.Code)
	list = decode[PlantsResponse](t, resp.Body.Bytes())
	require.Len(t, list.Data.Plants, 1)
	assert.Equal(t, "Cherry Tomato", list.Data.Plants[0].CommonName)

	resp = ts.api.Get("/api/v1/plants/filter-options")
	require.Equal(t, http.StatusOK, resp.Code)
	opts := decode[map[string][]string](t, resp.Body.Bytes())
	assert.Len(t, opts.Data["plant_types"], 2)

	resp = ts.api.Put("/api/v1/plants/"+id, map[string]any{
		"botanical_name": "Ocimum basilicum",
		"common_name":    "Genovese Basil",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/plants?q=genovese")
	list = decode[PlantsResponse](t, resp.Body.Bytes())
	require.Len(t, list.Data.Plants, 1)

	resp = ts.api.Get("/api/v1/plants/" + id)
	require.Equal(t, http.StatusOK, resp.Code)
	detail := decode[map[string]any](t, resp.Body.Bytes())
	assert.Equal(t, []any{}, detail.Data["lots"])
	assert.Equal(t, []any{}, detail.Data["attributions"])

	resp = ts.api.Delete("/api/v1/plants/" + id)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/plants/" + id)
	require.Equal(t, http.StatusNotFound, resp.Code)
	env := decode[any](t, resp.Body.Bytes())
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_FOUND", env.Code)
}

func TestPlants_CreateRequiresAName(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Post("/api/v1/plants", map[string]any{"variety": "Roma"})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	env := decode[any](t, resp.Body.Bytes())
	assert.Equal(t, "VALIDATION", env.Code)
}

func TestApplyAutofill(t *testing.T) {
	ts := setupTestServer(t, Options{})
	id := ts.createPlant(t, map[string]any{"common_name": "mystery seeds"})

	resp := ts.api.Post("/api/v1/plants/"+id+"/autofill", map[string]any{"usage_key": tomatoKey})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[map[string]map[string]any](t, resp.Body.Bytes())
	assert.Equal(t, "Solanum lycopersicum L.", env.Data["plant"]["botanical_name"])
	assert.Equal(t, "Tomato", env.Data["plant"]["common_name"])

	resp = ts.api.Get("/api/v1/plants/" + id + "/attributions")
	require.Equal(t, http.StatusOK, resp.Code)
	attrs := decode[AttributionsResponse](t, resp.Body.Bytes())
	require.Len(t, attrs.Data.Attributions, 4)
	for _, a := range attrs.Data.Attributions {
		assert.Equal(t, id, a.PlantID)
		assert.Equal(t, "https://api.gbif.org/v1/species/2930137", a.SourceURL)
	}

	// Searchable by the new names.
	resp = ts.api.Get("/api/v1/plants?q=solanum")
	list := decode[PlantsResponse](t, resp.Body.Bytes())
	require.Len(t, list.Data.Plants, 1)
}

func TestApplyAutofill_UnknownPlant(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Post("/api/v1/plants/plant-missing/autofill", map[string]any{"usage_key": tomatoKey})
	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.Zero(t, ts.gbif.calls.Load())
}

func TestSaveAttributions_ReplacesSet(t *testing.T) {
	ts := setupTestServer(t, Options{})
	id := ts.createPlant(t, map[string]any{"common_name": "Basil"})

	put := func(fields ...string) {
		attrs := map[string]any{}
		for _, f := range fields {
			attrs[f] = map[string]any{
				"source_name":           "GBIF Species API",
				"source_url":            "https://api.gbif.org/v1/species/1",
				"retrieved_at_epoch_ms": 1_700_000_000_000,
				"confidence":            0.9,
			}
		}
		resp := ts.api.Put("/api/v1/plants/"+id+"/attributions", map[string]any{"attributions": attrs})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	}

	put("botanicalName", "commonName", "notes")
	put("description")

	resp := ts.api.Get("/api/v1/plants/" + id + "/attributions")
	attrs := decode[AttributionsResponse](t, resp.Body.Bytes())
	require.Len(t, attrs.Data.Attributions, 1)
	assert.Equal(t, "description", attrs.Data.Attributions[0].FieldName)
}

func TestPacketLotsPhotosAndNotes(t *testing.T) {
	ts := setupTestServer(t, Options{})
	plantID := ts.createPlant(t, map[string]any{"common_name": "Basil"})

	resp := ts.api.Post("/api/v1/plants/"+plantID+"/lots", map[string]any{"lot_code": "B-2024", "quantity": 50})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	lot := decode[map[string]any](t, resp.Body.Bytes())
	lotID, _ := lot.Data["id"].(string)
	require.NotEmpty(t, lotID)

	resp = ts.api.Post("/api/v1/lots/"+lotID+"/photos", map[string]any{
		"uri":  "https://example.com/packet.jpg",
		"type": "front",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = ts.api.Post("/api/v1/lots/"+lotID+"/photos", map[string]any{"uri": "x", "type": "sideways"})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Put("/api/v1/lots/"+lotID, map[string]any{"lot_code": "B-2024", "quantity": 40})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/plants/" + plantID + "/lots")
	require.Equal(t, http.StatusOK, resp.Code)
	lots := decode[PacketLotsResponse](t, resp.Body.Bytes())
	require.Len(t, lots.Data.Lots, 1)
	assert.Equal(t, 40, lots.Data.Lots[0].Quantity)
	require.Len(t, lots.Data.Lots[0].Photos, 1)

	resp = ts.api.Post("/api/v1/notes", map[string]any{"packet_lot_id": lotID, "content": "germinated in 5 days"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/lots/" + lotID + "/notes")
	notes := decode[NotesResponse](t, resp.Body.Bytes())
	require.Len(t, notes.Data.Notes, 1)
	assert.Equal(t, "germinated in 5 days", notes.Data.Notes[0].Content)

	resp = ts.api.Post("/api/v1/plants/plant-missing/lots", map[string]any{"quantity": 1})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Delete("/api/v1/lots/" + lotID)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/plants/" + plantID + "/lots")
	lots = decode[PacketLotsResponse](t, resp.Body.Bytes())
	assert.Empty(t, lots.Data.Lots)
}

func TestLookupRateLimit(t *testing.T) {
	ts := setupTestServer(t, Options{LookupLimiter: NewRateLimiter(1, time.Minute, 1)})
	t.Cleanup(ts.opts.LookupLimiter.Stop)

	resp := ts.api.Get("/api/v1/species/match?name=Solanum%20lycopersicum")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/species/match?name=Solanum%20lycopersicum")
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
	env := decode[any](t, resp.Body.Bytes())
	assert.False(t, env.Success)
	assert.Equal(t, "RATE_LIMITED", env.Code)

	// Catalog routes are not limited.
	for range 3 {
		resp = ts.api.Get("/api/v1/plants")
		assert.Equal(t, http.StatusOK, resp.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	registry := metrics.NewRegistry()
	m, err := metrics.NewAutofillMetrics(registry)
	require.NoError(t, err)

	ts := setupTestServer(t, Options{MetricsHandler: metrics.Handler(registry)})
	ts.services.Autofill.SetObserver(m)

	resp := ts.api.Get("/api/v1/species/match?name=Solanum%20lycopersicum")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/metrics")
	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.True(t, strings.Contains(body, `autofill_cache_lookups_total{family="name_match",result="miss"} 1`), body)
}
