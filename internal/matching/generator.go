package matching

import (
	"sort"
	"sync"

	"github.com/arkx-app/odoo-matchmaker/internal/db"
)

// MaxSuggestions caps how many candidate matches a single brief generates.
const MaxSuggestions = 10

// GenerateMatches scores every partner against the brief, ranks candidates
// by score descending and materializes the top MaxSuggestions as suggested
// Match records. The brief submission itself is the client's expression of
// interest, so the client decision starts accepted.
//
// Scoring is pure, so partners are scored concurrently; each goroutine
// writes its own indexed slot, which also keeps ties in original partner
// order under the stable sort. An empty partner list yields an empty slice.
func GenerateMatches(brief *db.Brief, clientIndustry string, partners []db.Partner) []db.Match {
	if len(partners) == 0 {
		return []db.Match{}
	}

	type candidate struct {
		partner *db.Partner
		result  ScoreResult
	}

	candidates := make([]candidate, len(partners))

	var wg sync.WaitGroup
	for i := range partners {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			candidates[i] = candidate{
				partner: &partners[i],
				result:  Score(brief, clientIndustry, &partners[i]),
			}
		}(i)
	}
	wg.Wait()

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].result.Score > candidates[b].result.Score
	})

	if len(candidates) > MaxSuggestions {
		candidates = candidates[:MaxSuggestions]
	}

	briefID := brief.ID
	matches := make([]db.Match, 0, len(candidates))
	for _, c := range candidates {
		matches = append(matches, db.Match{
			ClientID:        brief.ClientID,
			PartnerID:       c.partner.ID,
			BriefID:         &briefID,
			Score:           c.result.Score,
			Breakdown:       c.result.Breakdown,
			Reasons:         c.result.Reasons,
			ClientDecision:  db.DecisionAccepted,
			PartnerDecision: db.DecisionPending,
			Status:          db.MatchSuggested,
		})
	}
	return matches
}
