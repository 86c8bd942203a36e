package delimiter

import (
	"sort"
	"strings"
)

// DefaultMinMatches is the number of distinct pattern hits DetectFamily
// needs before it trusts a guess.
const DefaultMinMatches = 3

// FamilyScore is the evidence gathered for one family.
type FamilyScore struct {
	Family  Family
	Matches int
	Score   float64
}

type patternKey struct {
	kind   Kind
	starts string
}

func keyOf(p Pattern) patternKey {
	starts := append([]string(nil), p.Starts...)
	sort.Strings(starts)
	return patternKey{kind: p.Kind, starts: strings.Join(starts, "\x00")}
}

func excludedFromDetection(k Kind) bool {
	return k.IsGeneric()
}

// specificityWeight scores how reliable a literal of the given length is.
func specificityWeight(n int) float64 {
	switch n {
	case 1:
		return 0.05
	case 2:
		return 0.5
	case 3:
		return 0.7
	case 4:
		return 0.8
	default:
		return 0.6
	}
}

// patternFamilyCounts counts how many families use each pattern.
func patternFamilyCounts() map[patternKey]int {
	counts := make(map[patternKey]int)
	for _, f := range AllFamilies() {
		if f == FamilyUnknown {
			continue
		}
		for _, p := range familyPatterns[f] {
			if excludedFromDetection(p.Kind) {
				continue
			}
			counts[keyOf(p)]++
		}
	}
	return counts
}

// ScoreFamilies scores every known family against content. A pattern counts
// once if any of its start literals occurs in content, weighted by how rare
// the pattern is across families and how specific the literal is.
func ScoreFamilies(content string) []FamilyScore {
	counts := patternFamilyCounts()
	var scores []FamilyScore
	for _, f := range AllFamilies() {
		if f == FamilyUnknown {
			continue
		}
		fs := FamilyScore{Family: f}
		for _, p := range familyPatterns[f] {
			if excludedFromDetection(p.Kind) {
				continue
			}
			for _, start := range p.Starts {
				if start == "" || !strings.Contains(content, start) {
					continue
				}
				fs.Matches++
				n := counts[keyOf(p)]
				if n == 0 {
					n = 1
				}
				fs.Score += (1.0 / float64(n)) * specificityWeight(len(start))
				break
			}
		}
		scores = append(scores, fs)
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	return scores
}

// DetectFamily guesses the language family of content. It returns
// FamilyUnknown when the best family matched fewer than minMatches patterns.
func DetectFamily(content string, minMatches int) Family {
	if minMatches <= 0 {
		minMatches = DefaultMinMatches
	}
	scores := ScoreFamilies(content)
	if len(scores) == 0 || scores[0].Score == 0 {
		return FamilyUnknown
	}
	if scores[0].Matches < minMatches {
		return FamilyUnknown
	}
	return scores[0].Family
}
