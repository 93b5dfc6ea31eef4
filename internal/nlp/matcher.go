// Package nlp implements the local natural-language parking search.
// Pattern matching plus fuzzy string scoring, no external API needed.
package nlp

import (
	"regexp"
	"sort"
	"strings"

	"parkease/internal/domain"
)

const (
	exactTokenScore = 15
	fuzzyTokenScore = 10
	fuzzyThreshold  = 0.60
)

var vehiclePatterns = map[string]*regexp.Regexp{
	"car":   regexp.MustCompile(`\b(car|sedan|suv|vehicle|auto|automobile)\b`),
	"bike":  regexp.MustCompile(`\b(bike|motorcycle|motorbike|scooter|two[\s-]?wheeler)\b`),
	"truck": regexp.MustCompile(`\b(truck|lorry|heavy)\b`),
}

// vehicleAliases maps an extracted hint to the spot types it covers.
var vehicleAliases = map[string][]domain.SpotType{
	"car":   {domain.TypeCar, domain.TypeLarge},
	"bike":  {domain.TypeBike, domain.TypeMotorcycle},
	"truck": {domain.TypeTruck, domain.TypeLarge},
}

var stopwords = map[string]struct{}{
	"need": {}, "want": {}, "find": {}, "looking": {}, "please": {},
	"parking": {}, "park": {}, "spot": {}, "spots": {}, "lot": {},
	"near": {}, "close": {}, "around": {}, "beside": {}, "next": {},
	"the": {}, "and": {}, "for": {}, "with": {}, "some": {},
}

var nonWord = regexp.MustCompile(`[^a-z0-9]+`)

// Matcher scores parking lots against a free-text query.
type Matcher struct {
	minScore int
}

func NewMatcher(minScore int) *Matcher {
	if minScore < 1 {
		minScore = 1
	}
	return &Matcher{minScore: minScore}
}

// ExtractVehicleType returns the vehicle hint found in the query,
// or "" when no vehicle keyword is present.
func (m *Matcher) ExtractVehicleType(query string) string {
	lower := strings.ToLower(query)
	for _, hint := range []string{"bike", "truck", "car"} { // car last: "vehicle" is the weakest signal
		if vehiclePatterns[hint].MatchString(lower) {
			return hint
		}
	}
	return ""
}

// Tokenize lowercases the query, strips punctuation and vehicle keywords,
// and drops stopwords and tokens shorter than 3 characters.
func (m *Matcher) Tokenize(query string) []string {
	lower := strings.ToLower(query)
	for _, pattern := range vehiclePatterns {
		lower = pattern.ReplaceAllString(lower, " ")
	}
	var tokens []string
	for _, tok := range strings.Fields(nonWord.ReplaceAllString(lower, " ")) {
		if len(tok) < 3 {
			continue
		}
		if _, skip := stopwords[tok]; skip {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// Match ranks candidates against the query. Empty query yields no matches.
// A query carrying only a vehicle keyword returns every lot with available
// spots of that type, scored by the available-spot count of that type.
func (m *Matcher) Match(query string, candidates []domain.SearchCandidate) []domain.SearchMatch {
	if strings.TrimSpace(query) == "" {
		return nil
	}

	vehicle := m.ExtractVehicleType(query)
	tokens := m.Tokenize(query)

	pool := candidates
	if vehicle != "" {
		pool = filterByVehicle(candidates, vehicle)
	}

	var matches []domain.SearchMatch
	if len(tokens) == 0 {
		if vehicle == "" {
			return nil
		}
		// Vehicle-only query: rank by available capacity of that type.
		for _, c := range pool {
			score := availableFor(c, vehicle)
			if score < m.minScore {
				continue
			}
			matches = append(matches, domain.SearchMatch{
				Lot:             c.Lot,
				Score:           score,
				VehicleType:     vehicle,
				AvailableByType: c.AvailableByType,
			})
		}
	} else {
		for _, c := range pool {
			score := m.scoreLocation(tokens, c.Lot.Location)
			if score < m.minScore {
				continue
			}
			matches = append(matches, domain.SearchMatch{
				Lot:             c.Lot,
				Score:           score,
				VehicleType:     vehicle,
				AvailableByType: c.AvailableByType,
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Lot.ID < matches[j].Lot.ID
	})
	return matches
}

// scoreLocation sums per-token contributions: +15 for an exact token match
// in the lot location, otherwise +10 when the best fuzzy ratio clears 0.60.
func (m *Matcher) scoreLocation(queryTokens []string, location string) int {
	locationTokens := strings.Fields(nonWord.ReplaceAllString(strings.ToLower(location), " "))
	score := 0
	for _, qtok := range queryTokens {
		exact := false
		for _, ltok := range locationTokens {
			if qtok == ltok {
				exact = true
				break
			}
		}
		if exact {
			score += exactTokenScore
			continue
		}
		best := 0.0
		for _, ltok := range locationTokens {
			if r := Similarity(qtok, ltok); r > best {
				best = r
			}
		}
		if best >= fuzzyThreshold {
			score += fuzzyTokenScore
		}
	}
	return score
}

func filterByVehicle(candidates []domain.SearchCandidate, vehicle string) []domain.SearchCandidate {
	var out []domain.SearchCandidate
	for _, c := range candidates {
		if availableFor(c, vehicle) > 0 {
			out = append(out, c)
		}
	}
	return out
}

func availableFor(c domain.SearchCandidate, vehicle string) int {
	total := 0
	for _, t := range vehicleAliases[vehicle] {
		total += c.AvailableByType[string(t)]
	}
	return total
}

// Similarity is a normalized edit-distance ratio in [0, 1]:
// 1 - levenshtein(a, b) / max(len(a), len(b)). Identical strings score 1.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return 0.0
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	return 1.0 - float64(prev[lb])/float64(maxLen)
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
