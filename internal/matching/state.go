package matching

import (
	"github.com/arkx-app/odoo-matchmaker/internal/db"
)

// ResolveStatus derives a match status from the two decision signals.
//
// Truth table:
//   - either side declined            -> rejected (rejection dominates)
//   - both sides accepted             -> accepted (mutual match)
//   - anything still pending          -> suggested
//
// Converted is not derivable from decisions; it is entered only through the
// explicit accepted->converted transition when a project is created.
func ResolveStatus(client, partner db.Decision) db.MatchStatus {
	switch {
	case client == db.DecisionDeclined || partner == db.DecisionDeclined:
		return db.MatchRejected
	case client == db.DecisionAccepted && partner == db.DecisionAccepted:
		return db.MatchAccepted
	default:
		return db.MatchSuggested
	}
}

// CanConvert reports whether a match may take the project-created
// transition. Only mutually confirmed matches convert.
func CanConvert(status db.MatchStatus) bool {
	return status == db.MatchAccepted
}

func decisionFor(positive bool) db.Decision {
	if positive {
		return db.DecisionAccepted
	}
	return db.DecisionDeclined
}

// DecisionForLike maps a client's like/dislike onto a Decision.
func DecisionForLike(liked bool) db.Decision { return decisionFor(liked) }

// DecisionForAccept maps a partner's accept/decline onto a Decision.
func DecisionForAccept(accepted bool) db.Decision { return decisionFor(accepted) }
