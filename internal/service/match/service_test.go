package match_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/arkx-app/odoo-matchmaker/internal/app"
	"github.com/arkx-app/odoo-matchmaker/internal/cache"
	"github.com/arkx-app/odoo-matchmaker/internal/config"
	"github.com/arkx-app/odoo-matchmaker/internal/db"
	"github.com/arkx-app/odoo-matchmaker/internal/matching"
	"github.com/arkx-app/odoo-matchmaker/internal/service/match"
)

//
// Test helpers
//

type fixture struct {
	router chi.Router
	db     *gorm.DB
}

// setupService spins up an in-memory SQLite DB, applies migrations, starts
// a miniredis and mounts the match service routes on a fresh router.
//
// Each test gets its own isolated DB + Redis.
func setupService(t *testing.T) *fixture {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, dbase.AutoMigrate(&db.User{}, &db.Partner{}, &db.Brief{}, &db.Match{}))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	redisCache := cache.NewRedisCache(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // discard logs in tests

	appCtx := app.New(dbase, redisCache, logger)

	router := chi.NewRouter()
	match.NewRegistrar(appCtx).Register(router)

	return &fixture{router: router, db: dbase}
}

func (f *fixture) seedClient(t *testing.T, industry string) *db.User {
	t.Helper()
	u := db.User{
		Username:     fmt.Sprintf("client%d", time.Now().UnixNano()),
		Email:        fmt.Sprintf("c%d@test.com", time.Now().UnixNano()),
		PasswordHash: "x",
		Role:         db.RoleClient,
		Industry:     industry,
	}
	require.NoError(t, f.db.Create(&u).Error)
	return &u
}

func (f *fixture) seedPartner(t *testing.T, services []string, rating float64) *db.Partner {
	t.Helper()
	owner := db.User{
		Username:     fmt.Sprintf("partner%d-%d", time.Now().UnixNano(), rand8()),
		Email:        fmt.Sprintf("p%d-%d@test.com", time.Now().UnixNano(), rand8()),
		PasswordHash: "x",
		Role:         db.RolePartner,
	}
	require.NoError(t, f.db.Create(&owner).Error)

	p := db.Partner{
		UserID:   owner.ID,
		Company:  "Partner Co",
		Industry: "Retail",
		Services: services,
		RateMin:  100,
		RateMax:  150,
		Capacity: db.CapacityAvailable,
		Rating:   rating,
	}
	require.NoError(t, f.db.Create(&p).Error)
	return &p
}

var rand8Counter int

func rand8() int {
	rand8Counter++
	return rand8Counter
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

type swipeResponse struct {
	Matched bool            `json:"matched"`
	Match   match.MatchView `json:"match"`
}

//
// Tests
//

// TestSubmitBrief_GeneratesCappedSuggestions posts a brief against a pool
// larger than the cap and expects at most ten suggested matches, ranked.
func TestSubmitBrief_GeneratesCappedSuggestions(t *testing.T) {
	f := setupService(t)
	client := f.seedClient(t, "Retail")
	for i := 0; i < 14; i++ {
		f.seedPartner(t, []string{"CRM Implementation", "Accounting"}, float64(1+i%5))
	}

	rec := f.do(t, http.MethodPost, "/briefs", map[string]any{
		"client_id":  client.ID,
		"title":      "Odoo rollout",
		"modules":    []string{"CRM", "Accounting"},
		"budget_min": 100,
		"budget_max": 150,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Brief   match.BriefView   `json:"brief"`
		Matches []match.MatchView `json:"matches"`
	}
	decodeBody(t, rec, &resp)

	assert.Equal(t, db.BriefMatching, resp.Brief.Status)
	require.Len(t, resp.Matches, matching.MaxSuggestions)
	for i, m := range resp.Matches {
		assert.Equal(t, db.MatchSuggested, m.Status)
		assert.Equal(t, db.DecisionAccepted, m.ClientDecision)
		if i > 0 {
			assert.GreaterOrEqual(t, resp.Matches[i-1].Score, m.Score)
		}
	}
}

func TestSubmitBrief_Validation(t *testing.T) {
	f := setupService(t)

	rec := f.do(t, http.MethodPost, "/briefs", map[string]any{"title": "no client"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/briefs", map[string]any{
		"client_id": 1, "title": "t", "priority": "urgent",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestSwipeFlow_MutualMatch drives the full happy path: the client swipes
// right first, so the partner's accept is the call that reports matched,
// and a repeated accept reports matched=false.
func TestSwipeFlow_MutualMatch(t *testing.T) {
	f := setupService(t)
	client := f.seedClient(t, "Retail")
	partner := f.seedPartner(t, []string{"CRM"}, 5)

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/clients/%d/swipes", client.ID), map[string]any{
		"partner_id": partner.ID,
		"liked":      true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var swipe swipeResponse
	decodeBody(t, rec, &swipe)
	assert.False(t, swipe.Matched)
	assert.Equal(t, db.MatchSuggested, swipe.Match.Status)

	respond := func() swipeResponse {
		rec := f.do(t, http.MethodPost, fmt.Sprintf("/matches/%d/respond", swipe.Match.ID), map[string]any{
			"partner_id": partner.ID,
			"accepted":   true,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var r swipeResponse
		decodeBody(t, rec, &r)
		return r
	}

	first := respond()
	assert.True(t, first.Matched)
	assert.Equal(t, db.MatchAccepted, first.Match.Status)

	// already confirmed, not newly confirmed
	second := respond()
	assert.False(t, second.Matched)
	assert.Equal(t, db.MatchAccepted, second.Match.Status)
}

func TestPartnerSwipe_WrongCallerForbidden(t *testing.T) {
	f := setupService(t)
	client := f.seedClient(t, "Retail")
	partner := f.seedPartner(t, []string{"CRM"}, 4)
	other := f.seedPartner(t, []string{"HR"}, 3)

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/clients/%d/swipes", client.ID), map[string]any{
		"partner_id": partner.ID, "liked": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var swipe swipeResponse
	decodeBody(t, rec, &swipe)

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/matches/%d/respond", swipe.Match.ID), map[string]any{
		"partner_id": other.ID, "accepted": true,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/matches/99999/respond", map[string]any{
		"partner_id": partner.ID, "accepted": true,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestDiscover_ExcludesSwipedPartners: once any match row exists for a
// pair, the partner leaves the client's discovery queue.
func TestDiscover_ExcludesSwipedPartners(t *testing.T) {
	f := setupService(t)
	client := f.seedClient(t, "Retail")
	liked := f.seedPartner(t, []string{"CRM"}, 4)
	f.seedPartner(t, []string{"Accounting"}, 4)

	rec := f.do(t, http.MethodGet, fmt.Sprintf("/clients/%d/discover", client.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Partners []match.PartnerView `json:"partners"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Partners, 2)

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/clients/%d/swipes", client.ID), map[string]any{
		"partner_id": liked.ID, "liked": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/clients/%d/discover", client.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Partners, 1)
	assert.NotEqual(t, liked.ID, resp.Partners[0].ID)
}

// TestPendingRequests_EnrichedAndCounted checks the partner queue carries
// the requesting client and brief, and that the count endpoint serves from
// cache after the first read.
func TestPendingRequests_EnrichedAndCounted(t *testing.T) {
	f := setupService(t)
	client := f.seedClient(t, "Retail")
	partner := f.seedPartner(t, []string{"CRM Implementation"}, 5)

	rec := f.do(t, http.MethodPost, "/briefs", map[string]any{
		"client_id":  client.ID,
		"title":      "Odoo rollout",
		"modules":    []string{"CRM"},
		"budget_min": 100,
		"budget_max": 150,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/partners/%d/requests", partner.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Requests []match.MatchView `json:"requests"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Requests, 1)
	require.NotNil(t, resp.Requests[0].Client)
	assert.Equal(t, client.ID, resp.Requests[0].Client.ID)
	require.NotNil(t, resp.Requests[0].Brief)
	assert.Equal(t, "Odoo rollout", resp.Requests[0].Brief.Title)

	countOf := func() int64 {
		rec := f.do(t, http.MethodGet, fmt.Sprintf("/partners/%d/requests/count", partner.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var c struct {
			Count int64 `json:"count"`
		}
		decodeBody(t, rec, &c)
		return c.Count
	}

	// first call hits the DB, second the cache
	assert.EqualValues(t, 1, countOf())
	assert.EqualValues(t, 1, countOf())

	// answered requests leave the queue
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/matches/%d/respond", resp.Requests[0].ID), map[string]any{
		"partner_id": partner.ID, "accepted": false,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/partners/%d/requests", partner.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Empty(t, resp.Requests)
}

// TestUpdateMatch_Pipeline patches pipeline fields through the generic
// update path and rejects outsiders.
func TestUpdateMatch_Pipeline(t *testing.T) {
	f := setupService(t)
	client := f.seedClient(t, "Retail")
	partner := f.seedPartner(t, []string{"CRM"}, 5)

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/clients/%d/swipes", client.ID), map[string]any{
		"partner_id": partner.ID, "liked": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var swipe swipeResponse
	decodeBody(t, rec, &swipe)

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/matches/%d/respond", swipe.Match.ID), map[string]any{
		"partner_id": partner.ID, "accepted": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPatch, fmt.Sprintf("/matches/%d", swipe.Match.ID), map[string]any{
		"caller_id":             partner.ID,
		"expected_revenue":      42000,
		"expected_closing_date": "2026-11-30T00:00:00Z",
		"partner_notes":         "scoping call done",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated match.MatchView
	decodeBody(t, rec, &updated)
	assert.EqualValues(t, 42000, updated.ExpectedRevenue)
	assert.Equal(t, "scoping call done", updated.PartnerNotes)
	assert.Equal(t, db.MatchAccepted, updated.Status)

	// stranger: forbidden
	rec = f.do(t, http.MethodPatch, fmt.Sprintf("/matches/%d", swipe.Match.ID), map[string]any{
		"caller_id":     uint64(9999),
		"partner_notes": "nope",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// project created: accepted -> converted
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/matches/%d/convert", swipe.Match.ID), map[string]any{
		"caller_id": client.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &updated)
	assert.Equal(t, db.MatchConverted, updated.Status)
}

// TestPendingCount_TracksQueueAcrossSwipes: the cached count must follow
// the stored queue through dislikes, flips, and repeated answers, and never
// report a negative value.
func TestPendingCount_TracksQueueAcrossSwipes(t *testing.T) {
	f := setupService(t)
	client := f.seedClient(t, "Retail")
	partner := f.seedPartner(t, []string{"CRM"}, 4)

	countOf := func() int64 {
		rec := f.do(t, http.MethodGet, fmt.Sprintf("/partners/%d/requests/count", partner.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var c struct {
			Count int64 `json:"count"`
		}
		decodeBody(t, rec, &c)
		return c.Count
	}

	// a first-contact dislike creates the row but never queued a request
	rec := f.do(t, http.MethodPost, fmt.Sprintf("/clients/%d/swipes", client.ID), map[string]any{
		"partner_id": partner.ID, "liked": false,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 0, countOf())

	// flipping to a like puts the request in the queue
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/clients/%d/swipes", client.ID), map[string]any{
		"partner_id": partner.ID, "liked": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var swipe swipeResponse
	decodeBody(t, rec, &swipe)
	assert.EqualValues(t, 1, countOf())

	// the partner's answer drains it; answering again must not go below zero
	for i := 0; i < 2; i++ {
		rec = f.do(t, http.MethodPost, fmt.Sprintf("/matches/%d/respond", swipe.Match.ID), map[string]any{
			"partner_id": partner.ID, "accepted": false,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 0, countOf())
	}
}
