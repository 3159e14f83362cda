package match

import (
	"context"
	"net/http"
	"time"

	"github.com/arkx-app/odoo-matchmaker/internal/app"
	"github.com/arkx-app/odoo-matchmaker/internal/db"
	apperr "github.com/arkx-app/odoo-matchmaker/internal/errors"
	"github.com/arkx-app/odoo-matchmaker/internal/matching"
	"github.com/arkx-app/odoo-matchmaker/internal/repository"
)

// Service implements the matching HTTP API: brief submission with candidate
// generation, the two swipe coordinators, match updates and the read paths.
// Business logic sits on top of the repository and cache layers.
type Service struct {
	appCtx      *app.AppContext
	matchRepo   *repository.MatchRepository
	partnerRepo *repository.PartnerRepository
	briefRepo   *repository.BriefRepository
	userRepo    *repository.UserRepository
}

// NewService creates the match service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		matchRepo:   repository.NewMatchRepository(appCtx.DB),
		partnerRepo: repository.NewPartnerRepository(appCtx.DB),
		briefRepo:   repository.NewBriefRepository(appCtx.DB),
		userRepo:    repository.NewUserRepository(appCtx.DB),
	}
}

type submitBriefRequest struct {
	ClientID      uint64   `json:"client_id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Modules       []string `json:"modules"`
	BudgetMin     uint     `json:"budget_min"`
	BudgetMax     uint     `json:"budget_max"`
	TimelineWeeks int      `json:"timeline_weeks"`
	Priority      string   `json:"priority"`
}

// SubmitBrief creates a brief, scores it against every partner and
// materializes the top candidates as suggested matches.
func (s *Service) SubmitBrief(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req submitBriefRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := validateBrief(&req); err != nil {
		respondError(w, err)
		return
	}

	client, err := s.userRepo.GetByID(ctx, req.ClientID)
	if err != nil {
		s.appCtx.Logger.Error("SubmitBrief: client lookup failed", "client_id", req.ClientID, "err", err)
		respondError(w, err)
		return
	}

	brief := &db.Brief{
		ClientID:      req.ClientID,
		Title:         req.Title,
		Description:   req.Description,
		Modules:       req.Modules,
		BudgetMin:     req.BudgetMin,
		BudgetMax:     req.BudgetMax,
		TimelineWeeks: req.TimelineWeeks,
		Priority:      defaultString(req.Priority, "medium"),
		Status:        db.BriefMatching,
	}
	if err := s.briefRepo.Create(ctx, brief); err != nil {
		s.appCtx.Logger.Error("SubmitBrief: create failed", "err", err)
		respondError(w, err)
		return
	}

	partners, err := s.partnerRepo.List(ctx)
	if err != nil {
		s.appCtx.Logger.Error("SubmitBrief: partner list failed", "err", err)
		respondError(w, err)
		return
	}

	matches := matching.GenerateMatches(brief, client.Industry, partners)
	if err := s.matchRepo.CreateBatch(ctx, matches); err != nil {
		s.appCtx.Logger.Error("SubmitBrief: match persist failed", "brief_id", brief.ID, "err", err)
		respondError(w, err)
		return
	}

	// new requests land in each suggested partner's queue
	for i := range matches {
		s.invalidatePendingCount(ctx, matches[i].PartnerID)
	}

	s.appCtx.Logger.Info("brief matched",
		"brief_id", brief.ID, "client_id", brief.ClientID, "candidates", len(matches))

	views := make([]MatchView, 0, len(matches))
	for i := range matches {
		views = append(views, matchView(&matches[i]))
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"brief":   briefView(brief),
		"matches": views,
	})
}

type clientSwipeRequest struct {
	PartnerID uint64 `json:"partner_id"`
	Liked     bool   `json:"liked"`
}

// ClientSwipe records the client's like/dislike of a partner, creating the
// match row if the pair had none yet. matched=true only when this call
// completed a mutual match (the partner had already accepted).
func (s *Service) ClientSwipe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientID, err := urlID(r, "clientID")
	if err != nil {
		respondError(w, err)
		return
	}
	var req clientSwipeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.PartnerID == 0 {
		respondError(w, apperr.Invalid("partner_id", "is required"))
		return
	}

	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		respondError(w, err)
		return
	}
	partner, err := s.partnerRepo.GetByID(ctx, req.PartnerID)
	if err != nil {
		respondError(w, err)
		return
	}

	m, matched, err := s.matchRepo.RecordClientDecision(
		ctx, clientID, req.PartnerID, req.Liked, s.swipeSeed(ctx, client, partner))
	if err != nil {
		s.appCtx.Logger.Error("ClientSwipe failed",
			"client_id", clientID, "partner_id", req.PartnerID, "err", err)
		respondError(w, err)
		return
	}

	// the partner's queue may have gained or lost this request
	s.invalidatePendingCount(ctx, m.PartnerID)

	s.appCtx.Logger.Debug("client swipe recorded",
		"match_id", m.ID, "liked", req.Liked, "matched", matched)

	respondJSON(w, http.StatusOK, map[string]any{
		"matched": matched,
		"match":   matchView(m),
	})
}

type partnerSwipeRequest struct {
	PartnerID uint64 `json:"partner_id"`
	Accepted  bool   `json:"accepted"`
}

// PartnerSwipe records the partner's accept/decline on a pending match.
// matched=true only when this call newly confirmed the mutual match; a
// repeated accept leaves the state untouched and reports false.
func (s *Service) PartnerSwipe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	matchID, err := urlID(r, "matchID")
	if err != nil {
		respondError(w, err)
		return
	}
	var req partnerSwipeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.PartnerID == 0 {
		respondError(w, apperr.Invalid("partner_id", "is required"))
		return
	}

	m, matched, err := s.matchRepo.RecordPartnerDecision(ctx, matchID, req.PartnerID, req.Accepted)
	if err != nil {
		s.appCtx.Logger.Error("PartnerSwipe failed",
			"match_id", matchID, "partner_id", req.PartnerID, "err", err)
		respondError(w, err)
		return
	}

	// the request left the partner's pending queue
	s.invalidatePendingCount(ctx, m.PartnerID)

	s.appCtx.Logger.Debug("partner swipe recorded",
		"match_id", m.ID, "accepted", req.Accepted, "matched", matched)

	respondJSON(w, http.StatusOK, map[string]any{
		"matched":   matched,
		"match":     matchView(m),
		"client_id": m.ClientID,
	})
}

type updateMatchRequest struct {
	CallerID            uint64  `json:"caller_id"`
	ExpectedRevenue     *uint64 `json:"expected_revenue"`
	ExpectedClosingDate *string `json:"expected_closing_date"`
	PartnerNotes        *string `json:"partner_notes"`
	ClientLiked         *bool   `json:"client_liked"`
	PartnerAccepted     *bool   `json:"partner_accepted"`
}

// UpdateMatch is the generic patch path, used for pipeline fields after a
// match confirms. Party-only; decision fields in the patch still run
// through status resolution.
func (s *Service) UpdateMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	matchID, err := urlID(r, "matchID")
	if err != nil {
		respondError(w, err)
		return
	}
	var req updateMatchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.CallerID == 0 {
		respondError(w, apperr.Invalid("caller_id", "is required"))
		return
	}

	patch := repository.MatchPatch{
		ExpectedRevenue: req.ExpectedRevenue,
		PartnerNotes:    req.PartnerNotes,
		ClientLiked:     req.ClientLiked,
		PartnerAccepted: req.PartnerAccepted,
	}
	if req.ExpectedClosingDate != nil {
		ts, err := time.Parse(time.RFC3339, *req.ExpectedClosingDate)
		if err != nil {
			respondError(w, apperr.Invalid("expected_closing_date", "must be RFC3339"))
			return
		}
		patch.ExpectedClosingDate = &ts
	}

	m, err := s.matchRepo.Update(ctx, matchID, req.CallerID, patch)
	if err != nil {
		s.appCtx.Logger.Error("UpdateMatch failed", "match_id", matchID, "err", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, matchView(m))
}

type convertMatchRequest struct {
	CallerID uint64 `json:"caller_id"`
}

// ConvertMatch takes the accepted match into converted when a project is
// created for it.
func (s *Service) ConvertMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	matchID, err := urlID(r, "matchID")
	if err != nil {
		respondError(w, err)
		return
	}
	var req convertMatchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.CallerID == 0 {
		respondError(w, apperr.Invalid("caller_id", "is required"))
		return
	}

	m, err := s.matchRepo.Convert(ctx, matchID, req.CallerID)
	if err != nil {
		s.appCtx.Logger.Error("ConvertMatch failed", "match_id", matchID, "err", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, matchView(m))
}

// ListClientMatches returns the client's matches enriched with partner
// profiles.
func (s *Service) ListClientMatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientID, err := urlID(r, "clientID")
	if err != nil {
		respondError(w, err)
		return
	}

	matches, err := s.matchRepo.ListByClient(ctx, clientID)
	if err != nil {
		s.appCtx.Logger.Error("ListClientMatches failed", "client_id", clientID, "err", err)
		respondError(w, err)
		return
	}

	views, err := s.enrich(ctx, matches, true, false)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"matches": views})
}

// ListPartnerMatches returns the partner's matches enriched with client and
// brief records.
func (s *Service) ListPartnerMatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	partnerID, err := urlID(r, "partnerID")
	if err != nil {
		respondError(w, err)
		return
	}

	matches, err := s.matchRepo.ListByPartner(ctx, partnerID)
	if err != nil {
		s.appCtx.Logger.Error("ListPartnerMatches failed", "partner_id", partnerID, "err", err)
		respondError(w, err)
		return
	}

	views, err := s.enrich(ctx, matches, false, true)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"matches": views})
}

// Discover returns partners the client has no match row for yet, i.e. the
// unswiped candidate queue for the client side.
func (s *Service) Discover(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientID, err := urlID(r, "clientID")
	if err != nil {
		respondError(w, err)
		return
	}

	partners, err := s.partnerRepo.Unswiped(ctx, clientID)
	if err != nil {
		s.appCtx.Logger.Error("Discover failed", "client_id", clientID, "err", err)
		respondError(w, err)
		return
	}

	views := make([]*PartnerView, 0, len(partners))
	for i := range partners {
		views = append(views, partnerView(&partners[i]))
	}
	respondJSON(w, http.StatusOK, map[string]any{"partners": views})
}

// PendingRequests returns matches awaiting the partner's answer, enriched
// with the requesting client and their brief.
func (s *Service) PendingRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	partnerID, err := urlID(r, "partnerID")
	if err != nil {
		respondError(w, err)
		return
	}

	matches, err := s.matchRepo.PendingForPartner(ctx, partnerID)
	if err != nil {
		s.appCtx.Logger.Error("PendingRequests failed", "partner_id", partnerID, "err", err)
		respondError(w, err)
		return
	}

	views, err := s.enrich(ctx, matches, false, true)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"requests": views})
}

// CountPendingRequests returns the partner's unanswered request count.
// Cache-first strategy:
//  1. Attempts to read from Redis (requests:pending:partnerID).
//  2. On cache miss, falls back to the DB.
//  3. On DB fetch, updates Redis with a 1h TTL.
func (s *Service) CountPendingRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	partnerID, err := urlID(r, "partnerID")
	if err != nil {
		respondError(w, err)
		return
	}

	if n, hit, err := s.appCtx.RedisCache.GetPendingCount(ctx, partnerID); err == nil && hit {
		respondJSON(w, http.StatusOK, map[string]any{"count": n})
		return
	}

	count, err := s.matchRepo.CountPendingForPartner(ctx, partnerID)
	if err != nil {
		s.appCtx.Logger.Error("CountPendingRequests failed", "partner_id", partnerID, "err", err)
		respondError(w, err)
		return
	}

	_ = s.appCtx.RedisCache.SetPendingCount(ctx, partnerID, count)

	respondJSON(w, http.StatusOK, map[string]any{"count": count})
}

// --- helpers ---

// swipeSeed builds the scoring context for a swipe-created match. The
// client's latest brief provides the scoring inputs; without one the score
// falls back to profile-only dimensions.
func (s *Service) swipeSeed(ctx context.Context, client *db.User, partner *db.Partner) *repository.MatchSeed {
	brief, err := s.briefRepo.LatestByClient(ctx, client.ID)
	seed := &repository.MatchSeed{}
	if err != nil {
		brief = &db.Brief{ClientID: client.ID}
	} else {
		seed.BriefID = &brief.ID
	}
	res := matching.Score(brief, client.Industry, partner)
	seed.Score = res.Score
	seed.Breakdown = res.Breakdown
	seed.Reasons = res.Reasons
	return seed
}

// enrich performs the read-side joins for match lists.
func (s *Service) enrich(ctx context.Context, matches []db.Match, withPartner, withClientBrief bool) ([]MatchView, error) {
	views := make([]MatchView, 0, len(matches))
	if len(matches) == 0 {
		return views, nil
	}

	var partnerIDs, clientIDs, briefIDs []uint64
	for i := range matches {
		if withPartner {
			partnerIDs = append(partnerIDs, matches[i].PartnerID)
		}
		if withClientBrief {
			clientIDs = append(clientIDs, matches[i].ClientID)
			if matches[i].BriefID != nil {
				briefIDs = append(briefIDs, *matches[i].BriefID)
			}
		}
	}

	partners, err := s.partnerRepo.GetByIDs(ctx, partnerIDs)
	if err != nil {
		return nil, err
	}
	clients, err := s.userRepo.GetByIDs(ctx, clientIDs)
	if err != nil {
		return nil, err
	}
	briefs, err := s.briefRepo.GetByIDs(ctx, briefIDs)
	if err != nil {
		return nil, err
	}

	for i := range matches {
		v := matchView(&matches[i])
		if p, ok := partners[matches[i].PartnerID]; ok {
			v.Partner = partnerView(&p)
		}
		if c, ok := clients[matches[i].ClientID]; ok {
			v.Client = clientView(&c)
		}
		if matches[i].BriefID != nil {
			if b, ok := briefs[*matches[i].BriefID]; ok {
				v.Brief = briefView(&b)
			}
		}
		views = append(views, v)
	}
	return views, nil
}

// invalidatePendingCount drops the partner's cached pending-request count
// after a write that may change queue membership. The next count read
// repopulates the key from the DB, so the cache can never drift from the
// stored rows or go negative on writes that did not actually transition.
func (s *Service) invalidatePendingCount(ctx context.Context, partnerID uint64) {
	_ = s.appCtx.RedisCache.Del(ctx, s.appCtx.RedisCache.KeyForPendingCount(partnerID))
}

func validateBrief(req *submitBriefRequest) error {
	if req.ClientID == 0 {
		return apperr.Invalid("client_id", "is required")
	}
	if req.Title == "" {
		return apperr.Invalid("title", "is required")
	}
	if req.BudgetMax > 0 && req.BudgetMin > req.BudgetMax {
		return apperr.Invalid("budget_min", "must not exceed budget_max")
	}
	if req.TimelineWeeks < 0 {
		return apperr.Invalid("timeline_weeks", "must not be negative")
	}
	switch req.Priority {
	case "", "low", "medium", "high":
	default:
		return apperr.Invalid("priority", "must be one of low, medium, high")
	}
	return nil
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
