package match

import (
	"time"

	"github.com/arkx-app/odoo-matchmaker/internal/db"
)

// JSON views returned by the API. Enrichment (partner/client/brief joins)
// happens here in the service layer, not in the repositories.

type MatchView struct {
	ID              uint64         `json:"id"`
	ClientID        uint64         `json:"client_id"`
	PartnerID       uint64         `json:"partner_id"`
	BriefID         *uint64        `json:"brief_id,omitempty"`
	Score           int            `json:"score"`
	Breakdown       map[string]int `json:"breakdown"`
	Reasons         []string       `json:"reasons"`
	ClientDecision  db.Decision    `json:"client_decision"`
	PartnerDecision db.Decision    `json:"partner_decision"`
	Status          db.MatchStatus `json:"status"`

	ExpectedRevenue     uint64     `json:"expected_revenue,omitempty"`
	ExpectedClosingDate *time.Time `json:"expected_closing_date,omitempty"`
	PartnerNotes        string     `json:"partner_notes,omitempty"`

	RespondedAt *time.Time `json:"responded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`

	Partner *PartnerView `json:"partner,omitempty"`
	Client  *ClientView  `json:"client,omitempty"`
	Brief   *BriefView   `json:"brief,omitempty"`
}

type PartnerView struct {
	ID             uint64   `json:"id"`
	UserID         uint64   `json:"user_id"`
	Company        string   `json:"company"`
	Industry       string   `json:"industry"`
	Services       []string `json:"services"`
	RateMin        uint     `json:"rate_min"`
	RateMax        uint     `json:"rate_max"`
	Capacity       string   `json:"capacity"`
	Rating         float64  `json:"rating"`
	ReviewCount    int      `json:"review_count"`
	Verified       bool     `json:"verified"`
	Certifications []string `json:"certifications"`
}

type ClientView struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Industry string `json:"industry"`
}

type BriefView struct {
	ID            uint64    `json:"id"`
	ClientID      uint64    `json:"client_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Modules       []string  `json:"modules"`
	BudgetMin     uint      `json:"budget_min"`
	BudgetMax     uint      `json:"budget_max"`
	TimelineWeeks int       `json:"timeline_weeks"`
	Priority      string    `json:"priority"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

func matchView(m *db.Match) MatchView {
	return MatchView{
		ID:                  m.ID,
		ClientID:            m.ClientID,
		PartnerID:           m.PartnerID,
		BriefID:             m.BriefID,
		Score:               m.Score,
		Breakdown:           m.Breakdown,
		Reasons:             m.Reasons,
		ClientDecision:      m.ClientDecision,
		PartnerDecision:     m.PartnerDecision,
		Status:              m.Status,
		ExpectedRevenue:     m.ExpectedRevenue,
		ExpectedClosingDate: m.ExpectedClosingDate,
		PartnerNotes:        m.PartnerNotes,
		RespondedAt:         m.RespondedAt,
		CreatedAt:           m.CreatedAt,
	}
}

func partnerView(p *db.Partner) *PartnerView {
	return &PartnerView{
		ID:             p.ID,
		UserID:         p.UserID,
		Company:        p.Company,
		Industry:       p.Industry,
		Services:       p.Services,
		RateMin:        p.RateMin,
		RateMax:        p.RateMax,
		Capacity:       p.Capacity,
		Rating:         p.Rating,
		ReviewCount:    p.ReviewCount,
		Verified:       p.Verified,
		Certifications: p.Certifications,
	}
}

func clientView(u *db.User) *ClientView {
	return &ClientView{ID: u.ID, Username: u.Username, Industry: u.Industry}
}

func briefView(b *db.Brief) *BriefView {
	return &BriefView{
		ID:            b.ID,
		ClientID:      b.ClientID,
		Title:         b.Title,
		Description:   b.Description,
		Modules:       b.Modules,
		BudgetMin:     b.BudgetMin,
		BudgetMax:     b.BudgetMax,
		TimelineWeeks: b.TimelineWeeks,
		Priority:      b.Priority,
		Status:        b.Status,
		CreatedAt:     b.CreatedAt,
	}
}
