// Package creative scores ad copy with transparent lexicon heuristics:
// no model calls, every point traceable to a visible text feature.
package creative

import (
	"strings"
	"unicode"

	"github.com/shopradar/ads-monitor/internal/domain"
)

// AnalyzerVersion is stored with every analysis so heuristic changes
// can be re-run selectively.
const AnalyzerVersion = "v1"

// Point values for the per-ad quality checklist.
const (
	lengthBonusMax = 15.0
	discountPoints = 20.0
	emojiPoints    = 15.0
	ctaPhrasePts   = 25.0
	ctaTypePts     = 10.0
	urgencyPoints  = 15.0
)

// Text length band in which ad copy earns the full length bonus.
const (
	lengthSweetSpotLow  = 100
	lengthSweetSpotHigh = 300
	lengthTailEnd       = 600
	lengthTailFloor     = 5.0
)

var discountTerms = []string{"%", " off", "sale", "discount", "save ", "deal", "promo", "clearance"}

var ctaPhrases = []string{
	"shop now", "buy now", "order now", "order today", "get yours",
	"learn more", "sign up", "subscribe", "add to cart", "discover",
	"claim yours", "try it", "get started",
}

var urgencyTerms = []string{
	"now", "today", "limited", "last chance", "hurry", "ends soon",
	"don't miss", "while stocks last", "only",
}

var positiveTerms = []string{
	"love", "best", "amazing", "perfect", "great", "beautiful",
	"premium", "favorite", "happy", "free", "win", "easy", "comfortable",
}

var negativeTerms = []string{
	"tired of", "sick of", "worst", "pain", "problem", "struggle",
	"never again", "stop", "annoying", "hate",
}

var socialProofTerms = []string{"review", "bestseller", "best-seller", "loved by", "customers", "rated", "trusted"}

var noveltyTerms = []string{"new ", "just dropped", "introducing", "launch", "fresh"}

// Features are the extracted binary signals, reused by the page-level
// score aggregation.
type Features struct {
	TextLength   int
	HasText      bool
	HasDiscount  bool
	HasEmoji     bool
	EmojiCount   int
	HasCTAPhrase bool
	HasCTAType   bool
	HasUrgency   bool
}

// Extract pulls the scoring features from an ad.
func Extract(ad *domain.Ad) Features {
	text := ad.Text()
	lower := strings.ToLower(text)
	emoji := countEmoji(text)
	return Features{
		TextLength:   len([]rune(text)),
		HasText:      strings.TrimSpace(text) != "",
		HasDiscount:  containsAny(lower, discountTerms),
		HasEmoji:     emoji > 0,
		EmojiCount:   emoji,
		HasCTAPhrase: containsAny(lower, ctaPhrases),
		HasCTAType:   ad.CTAType != nil && *ad.CTAType != "",
		HasUrgency:   containsAny(lower, urgencyTerms),
	}
}

// Analyze scores one ad's copy and tags its style, angle and tone.
func Analyze(ad *domain.Ad) *domain.CreativeAnalysis {
	text := ad.Text()
	lower := strings.ToLower(text)
	f := Extract(ad)

	score := lengthBonus(f.TextLength)
	if f.HasDiscount {
		score += discountPoints
	}
	if f.HasEmoji {
		score += emojiPoints
	}
	if f.HasCTAPhrase {
		score += ctaPhrasePts
	}
	if f.HasCTAType {
		score += ctaTypePts
	}
	if f.HasUrgency {
		score += urgencyPoints
	}
	if score > 100 {
		score = 100
	}

	return &domain.CreativeAnalysis{
		AdID:            ad.ID,
		CreativeScore:   score,
		StyleTags:       styleTags(text, f),
		AngleTags:       angleTags(lower, f),
		ToneTags:        toneTags(text, f),
		Sentiment:       sentiment(lower),
		AnalyzerVersion: AnalyzerVersion,
	}
}

// lengthBonus rewards copy long enough to carry a message but not a
// wall of text: linear ramp to the sweet spot, flat through it, decay
// to a floor beyond it.
func lengthBonus(n int) float64 {
	switch {
	case n <= 0:
		return 0
	case n < lengthSweetSpotLow:
		return lengthBonusMax * float64(n) / float64(lengthSweetSpotLow)
	case n <= lengthSweetSpotHigh:
		return lengthBonusMax
	case n >= lengthTailEnd:
		return lengthTailFloor
	default:
		frac := float64(n-lengthSweetSpotHigh) / float64(lengthTailEnd-lengthSweetSpotHigh)
		return lengthBonusMax - frac*(lengthBonusMax-lengthTailFloor)
	}
}

func sentiment(lower string) domain.Sentiment {
	pos := countAny(lower, positiveTerms)
	neg := countAny(lower, negativeTerms)
	switch {
	case pos > neg:
		return domain.SentimentPositive
	case neg > pos:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

func styleTags(text string, f Features) []string {
	var tags []string
	if f.EmojiCount >= 3 {
		tags = append(tags, "emoji_rich")
	}
	if f.TextLength > 0 && f.TextLength < 60 {
		tags = append(tags, "minimal")
	}
	if f.TextLength > lengthSweetSpotHigh {
		tags = append(tags, "long_form")
	}
	if strings.Count(text, "#") >= 3 {
		tags = append(tags, "hashtag_heavy")
	}
	if capsRatio(text) > 0.3 {
		tags = append(tags, "caps_heavy")
	}
	return tags
}

func angleTags(lower string, f Features) []string {
	var tags []string
	if f.HasDiscount {
		tags = append(tags, "discount")
	}
	if f.HasUrgency {
		tags = append(tags, "urgency")
	}
	if containsAny(lower, socialProofTerms) {
		tags = append(tags, "social_proof")
	}
	if containsAny(lower, noveltyTerms) {
		tags = append(tags, "novelty")
	}
	if strings.Contains(lower, "free shipping") || strings.Contains(lower, "free delivery") {
		tags = append(tags, "free_shipping")
	}
	return tags
}

func toneTags(text string, f Features) []string {
	var tags []string
	exclaims := strings.Count(text, "!")
	if f.HasEmoji && exclaims > 0 {
		tags = append(tags, "playful")
	}
	if f.HasUrgency && exclaims > 0 {
		tags = append(tags, "urgent")
	}
	if f.TextLength > 200 && exclaims == 0 {
		tags = append(tags, "informative")
	}
	if f.HasDiscount && f.HasCTAPhrase {
		tags = append(tags, "salesy")
	}
	return tags
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func countAny(s string, terms []string) int {
	n := 0
	for _, t := range terms {
		n += strings.Count(s, t)
	}
	return n
}

func countEmoji(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x1F000 || (r >= 0x2600 && r <= 0x27BF) {
			n++
		}
	}
	return n
}

func capsRatio(s string) float64 {
	letters, upper := 0, 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters < 10 {
		return 0
	}
	return float64(upper) / float64(letters)
}
