package repository

import (
	"context"
	"errors"
	"time"

	"github.com/arkx-app/odoo-matchmaker/internal/db"
	apperr "github.com/arkx-app/odoo-matchmaker/internal/errors"
	"github.com/arkx-app/odoo-matchmaker/internal/matching"

	"gorm.io/gorm"
)

// maxUpdateRetries bounds the optimistic-lock retry loop. Conflicts are
// transient (the other side of the match racing on the same row), so they
// are retried here instead of surfacing to the caller.
const maxUpdateRetries = 3

// MatchRepository provides data access for Match rows and owns the state
// transitions. Status is recomputed from the decision tuple on every write
// path; nothing outside this type writes the status column.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// MatchSeed carries the scoring context used when a client swipe has to
// create the Match row (no prior suggestion existed for the pair).
type MatchSeed struct {
	BriefID   *uint64
	Score     int
	Breakdown map[string]int
	Reasons   []string
}

// MatchPatch is a partial update for the generic match-update path.
// Pipeline fields apply directly; decision fields re-run status resolution.
type MatchPatch struct {
	ExpectedRevenue     *uint64
	ExpectedClosingDate *time.Time
	PartnerNotes        *string
	ClientLiked         *bool
	PartnerAccepted     *bool
}

// RecordClientDecision records a client's like/dislike of a partner.
//
// Find-or-create keyed on (client_id, partner_id): re-swiping never creates
// a second row, it overwrites the existing decision. Returns the match and
// whether this call newly confirmed a mutual match (the partner had already
// accepted and the status flipped to accepted right now).
func (r *MatchRepository) RecordClientDecision(
	ctx context.Context,
	clientID, partnerID uint64,
	liked bool,
	seed *MatchSeed,
) (*db.Match, bool, error) {
	decision := matching.DecisionForLike(liked)

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		var m db.Match
		err := r.db.WithContext(ctx).
			Where("client_id = ? AND partner_id = ?", clientID, partnerID).
			First(&m).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			m = db.Match{
				ClientID:        clientID,
				PartnerID:       partnerID,
				ClientDecision:  decision,
				PartnerDecision: db.DecisionPending,
			}
			if seed != nil {
				m.BriefID = seed.BriefID
				m.Score = seed.Score
				m.Breakdown = seed.Breakdown
				m.Reasons = seed.Reasons
			}
			m.Status = matching.ResolveStatus(m.ClientDecision, m.PartnerDecision)

			if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					// lost a creation race on the pair index; reload and update
					continue
				}
				return nil, false, err
			}
			return &m, false, nil
		}
		if err != nil {
			return nil, false, err
		}

		newStatus := m.Status
		if m.Status != db.MatchConverted {
			newStatus = matching.ResolveStatus(decision, m.PartnerDecision)
		}
		newlyConfirmed := m.Status != db.MatchAccepted && newStatus == db.MatchAccepted

		ok, err := r.casUpdate(ctx, &m, map[string]interface{}{
			"client_decision": decision,
			"status":          newStatus,
		})
		if err != nil {
			return nil, false, err
		}
		if !ok {
			continue
		}

		m.ClientDecision = decision
		m.Status = newStatus
		return &m, newlyConfirmed, nil
	}

	return nil, false, apperr.ErrConflict
}

// RecordPartnerDecision records a partner's accept/decline on a match.
//
// The caller must be the partner referenced by the match; the check runs
// before any mutation. Returns whether this call newly confirmed a mutual
// match, so only the side that completes the pair reports matched=true and
// an idempotent re-accept reports false.
func (r *MatchRepository) RecordPartnerDecision(
	ctx context.Context,
	matchID, partnerID uint64,
	accepted bool,
) (*db.Match, bool, error) {
	decision := matching.DecisionForAccept(accepted)

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		var m db.Match
		err := r.db.WithContext(ctx).First(&m, matchID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, apperr.NotFound("match")
		}
		if err != nil {
			return nil, false, err
		}

		if m.PartnerID != partnerID {
			return nil, false, apperr.Forbidden("caller is not the partner on this match")
		}

		newStatus := m.Status
		if m.Status != db.MatchConverted {
			newStatus = matching.ResolveStatus(m.ClientDecision, decision)
		}
		newlyConfirmed := m.Status != db.MatchAccepted && newStatus == db.MatchAccepted

		now := time.Now().UTC()
		ok, err := r.casUpdate(ctx, &m, map[string]interface{}{
			"partner_decision": decision,
			"status":           newStatus,
			"responded_at":     now,
		})
		if err != nil {
			return nil, false, err
		}
		if !ok {
			continue
		}

		m.PartnerDecision = decision
		m.Status = newStatus
		m.RespondedAt = &now
		return &m, newlyConfirmed, nil
	}

	return nil, false, apperr.ErrConflict
}

// Update applies a partial update to a match. Only a party to the match
// (its client or its partner) may update it. Decision fields present in the
// patch re-run status resolution; pipeline fields apply as-is.
func (r *MatchRepository) Update(
	ctx context.Context,
	matchID, actorID uint64,
	patch MatchPatch,
) (*db.Match, error) {
	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		var m db.Match
		err := r.db.WithContext(ctx).First(&m, matchID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("match")
		}
		if err != nil {
			return nil, err
		}

		if !m.IsParty(actorID) {
			return nil, apperr.Forbidden("caller is not a party to this match")
		}

		fields := map[string]interface{}{}
		if patch.ExpectedRevenue != nil {
			fields["expected_revenue"] = *patch.ExpectedRevenue
			m.ExpectedRevenue = *patch.ExpectedRevenue
		}
		if patch.ExpectedClosingDate != nil {
			fields["expected_closing_date"] = *patch.ExpectedClosingDate
			m.ExpectedClosingDate = patch.ExpectedClosingDate
		}
		if patch.PartnerNotes != nil {
			fields["partner_notes"] = *patch.PartnerNotes
			m.PartnerNotes = *patch.PartnerNotes
		}

		clientDecision := m.ClientDecision
		partnerDecision := m.PartnerDecision
		touchedDecisions := false
		if patch.ClientLiked != nil {
			clientDecision = matching.DecisionForLike(*patch.ClientLiked)
			fields["client_decision"] = clientDecision
			touchedDecisions = true
		}
		if patch.PartnerAccepted != nil {
			partnerDecision = matching.DecisionForAccept(*patch.PartnerAccepted)
			now := time.Now().UTC()
			fields["partner_decision"] = partnerDecision
			fields["responded_at"] = now
			m.RespondedAt = &now
			touchedDecisions = true
		}
		if touchedDecisions && m.Status != db.MatchConverted {
			newStatus := matching.ResolveStatus(clientDecision, partnerDecision)
			fields["status"] = newStatus
			m.Status = newStatus
		}
		m.ClientDecision = clientDecision
		m.PartnerDecision = partnerDecision

		if len(fields) == 0 {
			return &m, nil
		}

		ok, err := r.casUpdate(ctx, &m, fields)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		return &m, nil
	}

	return nil, apperr.ErrConflict
}

// Convert takes the accepted -> converted transition when a project is
// created for the match. Any other starting state is rejected.
func (r *MatchRepository) Convert(ctx context.Context, matchID, actorID uint64) (*db.Match, error) {
	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		var m db.Match
		err := r.db.WithContext(ctx).First(&m, matchID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("match")
		}
		if err != nil {
			return nil, err
		}

		if !m.IsParty(actorID) {
			return nil, apperr.Forbidden("caller is not a party to this match")
		}
		if m.Status == db.MatchConverted {
			return &m, nil
		}
		if !matching.CanConvert(m.Status) {
			return nil, apperr.Invalid("status", "only accepted matches can be converted")
		}

		ok, err := r.casUpdate(ctx, &m, map[string]interface{}{
			"status": db.MatchConverted,
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		m.Status = db.MatchConverted
		return &m, nil
	}

	return nil, apperr.ErrConflict
}

// CreateBatch persists generator output in one insert.
func (r *MatchRepository) CreateBatch(ctx context.Context, matches []db.Match) error {
	if len(matches) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&matches).Error
}

// GetByID loads a single match.
func (r *MatchRepository) GetByID(ctx context.Context, matchID uint64) (*db.Match, error) {
	var m db.Match
	err := r.db.WithContext(ctx).First(&m, matchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("match")
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByClient returns the client's matches, best score first.
func (r *MatchRepository) ListByClient(ctx context.Context, clientID uint64) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("score DESC, id ASC").
		Find(&matches).Error
	return matches, err
}

// ListByPartner returns the partner's matches, best score first.
func (r *MatchRepository) ListByPartner(ctx context.Context, partnerID uint64) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("partner_id = ?", partnerID).
		Order("score DESC, id ASC").
		Find(&matches).Error
	return matches, err
}

// PendingForPartner returns matches awaiting the partner's answer: the
// client has expressed interest and the partner has not responded. Already
// answered candidates are never re-surfaced.
func (r *MatchRepository) PendingForPartner(ctx context.Context, partnerID uint64) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("partner_id = ? AND client_decision = ? AND partner_decision = ?",
			partnerID, db.DecisionAccepted, db.DecisionPending).
		Order("score DESC, id ASC").
		Find(&matches).Error
	return matches, err
}

// CountPendingForPartner counts the partner's unanswered client requests.
// Used in conjunction with the Redis cache (DB is fallback).
func (r *MatchRepository) CountPendingForPartner(ctx context.Context, partnerID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("partner_id = ? AND client_decision = ? AND partner_decision = ?",
			partnerID, db.DecisionAccepted, db.DecisionPending).
		Count(&count).Error
	return count, err
}

// casUpdate performs the optimistic compare-and-swap write: it only lands
// if the row version is still the one we read. Returns false on a lost race.
func (r *MatchRepository) casUpdate(ctx context.Context, m *db.Match, fields map[string]interface{}) (bool, error) {
	fields["version"] = m.Version + 1
	res := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("id = ? AND version = ?", m.ID, m.Version).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	m.Version++
	return true, nil
}
