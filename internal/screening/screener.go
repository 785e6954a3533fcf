package screening

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
)

// Candidate is the normalized snapshot of the person being registered.
type Candidate struct {
	FullName      string
	BirthDate     time.Time
	AddressTokens []string
}

// KnownBeneficiary is an existing record the candidate is compared against.
type KnownBeneficiary struct {
	BeneficiaryID      string
	BeneficiaryNo      string
	FullName           string
	BirthDate          time.Time
	Address            string
	Archived           bool
	HasActiveBlacklist bool
}

// Match is one possible duplicate, surfaced for human review. Matching is
// advisory: nothing is auto-merged or auto-rejected.
type Match struct {
	BeneficiaryID string  `json:"beneficiary_id"`
	BeneficiaryNo string  `json:"beneficiary_no"`
	Confidence    float64 `json:"confidence"`
	Details       string  `json:"details"`
}

// Confidence is a weighted blend of three signals.
const (
	nameWeight    = 0.6
	birthWeight   = 0.25
	addressWeight = 0.15
)

// Screener compares candidates against the existing beneficiary pool.
type Screener struct {
	floor  float64 // minimum confidence to surface a match
	logger *zap.Logger
}

func NewScreener(similarityFloor float64, logger *zap.Logger) *Screener {
	if similarityFloor <= 0 {
		similarityFloor = 0.75
	}
	return &Screener{floor: similarityFloor, logger: logger}
}

// Screen returns every known beneficiary whose combined similarity clears the
// floor, ordered by confidence, plus whether any surfaced match carries an
// active blacklist entry. The blacklist bit is the only hard signal here; the
// eligibility evaluator consumes it as a gate.
func (s *Screener) Screen(cand Candidate, known []KnownBeneficiary) ([]Match, bool) {
	candName := normalizeName(cand.FullName)
	candTokens := normalizeTokens(cand.AddressTokens)

	matches := []Match{}
	hasActiveBlacklist := false
	for _, k := range known {
		if k.Archived {
			continue
		}
		nameSim := nameSimilarity(candName, normalizeName(k.FullName))
		birthSim := 0.0
		if sameDay(cand.BirthDate, k.BirthDate) {
			birthSim = 1.0
		}
		addrSim := tokenOverlap(candTokens, normalizeTokens(strings.Fields(k.Address)))

		confidence := nameWeight*nameSim + birthWeight*birthSim + addressWeight*addrSim
		if confidence < s.floor {
			continue
		}
		matches = append(matches, Match{
			BeneficiaryID: k.BeneficiaryID,
			BeneficiaryNo: k.BeneficiaryNo,
			Confidence:    confidence,
			Details: fmt.Sprintf("name=%.2f birth_date=%.0f address=%.2f",
				nameSim, birthSim, addrSim),
		})
		if k.HasActiveBlacklist {
			hasActiveBlacklist = true
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		return matches[i].BeneficiaryID < matches[j].BeneficiaryID
	})

	if len(matches) > 0 && s.logger != nil {
		s.logger.Info("duplicate screening surfaced matches",
			zap.Int("count", len(matches)),
			zap.Bool("active_blacklist", hasActiveBlacklist),
		)
	}
	return matches, hasActiveBlacklist
}

// normalizeName lowercases, strips punctuation, and collapses whitespace.
func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '\'':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func normalizeTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if n := normalizeName(t); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// nameSimilarity is 1 - normalized Levenshtein distance.
func nameSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	return 1 - float64(levenshtein(a, b))/float64(maxLen)
}

// levenshtein computes edit distance with the classic two-row DP.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// tokenOverlap is the Jaccard index of two token sets.
func tokenOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	union := len(set)
	inter := 0
	for _, t := range b {
		if set[t] {
			inter++
			delete(set, t) // count each shared token once
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
