// Package suggest ranks candidate transactions for a statement line.
//
// Suggestions are a read-only convenience for manual reconciliation. The
// import-time auto-match pass deliberately stays amount-only; the date and
// description scoring here never links anything on its own.
package suggest

import (
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/obraflow/ledger-backend/internal/infrastructure/storage"
)

// dateHorizonDays is where date proximity stops contributing to the score.
const dateHorizonDays = 30

// Candidate is one ranked suggestion.
type Candidate struct {
	Transaction           storage.Transaction `json:"transaction"`
	Score                 float64             `json:"score"`
	DaysApart             int                 `json:"days_apart"`
	DescriptionSimilarity float64             `json:"description_similarity"`
}

// Rank scores unmatched transactions against the line and returns the best
// candidates, highest score first. Only transactions whose amount equals the
// line's magnitude and whose direction matches the line's sign qualify.
func Rank(line storage.StatementLine, transactions []storage.Transaction, limit int) []Candidate {
	wantAmount := line.Amount.Abs()
	wantDirection := storage.DirectionIn
	if line.Amount.IsNegative() {
		wantDirection = storage.DirectionOut
	}

	var candidates []Candidate
	for _, tx := range transactions {
		if tx.Matched || tx.Deleted() {
			continue
		}
		if tx.Direction != wantDirection {
			continue
		}
		if !tx.Amount.Equal(wantAmount) {
			continue
		}

		days := daysApart(line.Date, tx.Date)
		similarity := descriptionSimilarity(line.Description, tx.Description)
		proximity := 1.0 - float64(days)/dateHorizonDays
		if proximity < 0 {
			proximity = 0
		}

		candidates = append(candidates, Candidate{
			Transaction:           tx,
			Score:                 0.6*similarity + 0.4*proximity,
			DaysApart:             days,
			DescriptionSimilarity: similarity,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].DaysApart < candidates[j].DaysApart
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

func daysApart(a, b time.Time) int {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return int(diff.Hours() / 24)
}

// descriptionSimilarity is 1 minus the normalized Levenshtein distance over
// the upper-cased descriptions.
func descriptionSimilarity(a, b string) float64 {
	a = strings.ToUpper(strings.TrimSpace(a))
	b = strings.ToUpper(strings.TrimSpace(b))
	if a == "" && b == "" {
		return 0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	dist := levenshtein.ComputeDistance(a, b)
	similarity := 1 - float64(dist)/float64(maxLen)
	if similarity < 0 {
		return 0
	}
	return similarity
}
