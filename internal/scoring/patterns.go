// Package scoring provides the quality scoring ensemble: six independently
// failing quality dimensions combined into a gate decision.
package scoring

import "strings"

// Hybrid weighting between deterministic pattern scores and model judgment
// for the slop and vendor-speak dimensions. Heuristic, tunable.
var (
	SlopPatternWeight   = 0.4
	SlopModelWeight     = 0.6
	VendorPatternWeight = 0.4
	VendorModelWeight   = 0.6
)

// Vendor-speak sub-category weights for the deterministic side. Heuristic,
// tunable.
var vendorSubWeights = map[string]float64{
	"buzzwords":    0.40,
	"superlatives": 0.35,
	"urgency":      0.25,
}

// fillerPhrases are hedging/filler markers counted by the deterministic
// slop score.
var fillerPhrases = []string{
	"in today's world",
	"in today's fast-paced",
	"at the end of the day",
	"it goes without saying",
	"needless to say",
	"it's no secret",
	"when it comes to",
	"in order to",
	"a wide range of",
	"a variety of",
	"very",
	"really",
	"actually",
	"basically",
	"essentially",
	"simply put",
	"that being said",
	"more than ever",
	"now more than ever",
	"the fact of the matter",
}

// vendorPhrases are marketing-jargon markers per sub-category.
var vendorPhrases = map[string][]string{
	"buzzwords": {
		"seamless",
		"seamlessly",
		"synergy",
		"leverage",
		"robust",
		"scalable",
		"holistic",
		"turnkey",
		"end-to-end",
		"mission-critical",
		"enterprise-grade",
		"next-generation",
		"cutting-edge",
		"state-of-the-art",
		"game-changer",
		"game-changing",
		"revolutionary",
		"innovative solution",
		"unlock",
		"unleash",
		"empower",
		"supercharge",
	},
	"superlatives": {
		"best-in-class",
		"world-class",
		"industry-leading",
		"market-leading",
		"unparalleled",
		"unmatched",
		"ultimate",
		"most powerful",
		"most advanced",
		"number one",
		"#1",
	},
	"urgency": {
		"don't miss out",
		"act now",
		"limited time",
		"sign up today",
		"get started today",
		"what are you waiting for",
		"look no further",
		"take it to the next level",
	},
}

// patternSlopScore computes the deterministic slop score, 0-10, from filler
// phrase density per 100 words.
func patternSlopScore(content string) float64 {
	words := wordCount(content)
	if words == 0 {
		return 0
	}
	hits := countPhraseHits(content, fillerPhrases)
	return densityScore(hits, words)
}

// patternVendorScore computes the deterministic vendor-speak score, 0-10,
// as a weighted sum of per-sub-category densities.
func patternVendorScore(content string) float64 {
	words := wordCount(content)
	if words == 0 {
		return 0
	}

	var score float64
	for category, phrases := range vendorPhrases {
		hits := countPhraseHits(content, phrases)
		score += vendorSubWeights[category] * densityScore(hits, words)
	}
	if score > 10 {
		score = 10
	}
	return score
}

// densityScore maps hits per 100 words onto the 0-10 scale. Roughly one hit
// per 40 words saturates the scale.
func densityScore(hits, words int) float64 {
	rate := float64(hits) * 100.0 / float64(words)
	score := rate * 4.0
	if score > 10 {
		score = 10
	}
	return score
}

func countPhraseHits(content string, phrases []string) int {
	lower := strings.ToLower(content)
	hits := 0
	for _, phrase := range phrases {
		hits += strings.Count(lower, phrase)
	}
	return hits
}

func wordCount(content string) int {
	return len(strings.Fields(content))
}
