package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Matcher is the deterministic fallback decision path. It never fails:
// the worst case is a generic no-action reply. Its confidence bands all
// sit below the trusted threshold because keyword rules understand far
// less than the model does.
type Matcher struct {
	cfg Config
}

// NewMatcher creates a pattern matcher
func NewMatcher(cfg Config) *Matcher {
	return &Matcher{cfg: cfg}
}

var (
	quantityItemPattern = regexp.MustCompile(`(\d+)\s+(?:x\s+)?([a-zA-Z][a-zA-Z '\-]*)`)
	wordPattern         = regexp.MustCompile(`[a-z]+`)
)

// Keyword families, checked in priority order
var (
	confirmKeywords = []string{
		"yes", "yep", "yeah", "confirm", "sure", "correct", "that's right",
		"sounds good", "go ahead", "place the order", "place my order",
	}
	declineKeywords = []string{
		"no", "nope", "nevermind", "never mind", "forget it", "cancel that",
	}
	cancelKeywords = []string{
		"cancel my order", "cancel the order", "cancel order", "cancel it",
	}
	recommendKeywords = []string{
		"recommend", "suggestion", "suggest", "what's good", "whats good",
		"popular", "specialty", "special", "what should i",
	}
	statusKeywords = []string{
		"my order", "order status", "where is", "how long", "is it ready",
		"check my", "what did i order",
	}
)

// Match evaluates the rules in priority order, first match wins
func (m *Matcher) Match(message string, actx *ActionContext) *DecisionResult {
	lower := strings.ToLower(strings.TrimSpace(message))

	// 1. Confirmation / decline of an action proposed last turn
	if actx.PendingAction != nil {
		if containsAny(lower, confirmKeywords) {
			return m.result(&CandidateAction{
				Type:  ActionConfirmOrder,
				Items: actx.PendingAction.Items,
				Reply: "Great, I'll put that through for you.",
			}, m.cfg.ConfirmConfidence, "confirmation keyword matched against pending action", "confirm")
		}
		if containsAny(lower, declineKeywords) {
			return m.result(&CandidateAction{
				Type:  ActionNone,
				Reply: "No problem, I won't do that. Anything else I can help with?",
			}, m.cfg.ConfirmConfidence, "decline keyword matched against pending action", "decline")
		}
	}

	// 2. Explicit order cancellation
	if containsAny(lower, cancelKeywords) {
		return m.result(&CandidateAction{
			Type:  ActionCancelOrder,
			Reply: "Let me cancel that order for you.",
		}, m.cfg.ItemConfidence, "cancellation keywords matched", "cancel_order")
	}

	// 3. Quantity + item patterns against the menu
	if items := m.matchItems(lower, actx); len(items) > 0 {
		names := make([]string, 0, len(items))
		for _, it := range items {
			names = append(names, fmt.Sprintf("%dx %s", it.Quantity, it.Name))
		}
		return m.result(&CandidateAction{
			Type:  ActionAddItem,
			Items: items,
			Reply: fmt.Sprintf("I'll add %s to your order. Shall I put that through?", strings.Join(names, ", ")),
		}, m.cfg.ItemConfidence, fmt.Sprintf("matched menu items: %s", strings.Join(names, ", ")), "order_item")
	}

	// 4. Recommendation requests
	if containsAny(lower, recommendKeywords) {
		return m.result(&CandidateAction{
			Type:  ActionRecommend,
			Reply: m.recommendReply(actx),
		}, m.cfg.KeywordConfidence, "recommendation keywords matched", "recommendation")
	}

	// 5. Order status checks
	if containsAny(lower, statusKeywords) {
		return m.result(&CandidateAction{
			Type:  ActionCheckOrders,
			Reply: "Let me check on your order for you.",
		}, m.cfg.KeywordConfidence, "order status keywords matched", "check_orders")
	}

	// 6. Generic chat fallthrough
	return m.result(&CandidateAction{
		Type:  ActionNone,
		Reply: "I'm happy to help you order. Would you like to hear about the menu?",
	}, m.cfg.VagueConfidence, "no pattern matched, conversational reply", "chat")
}

// result wraps an action in a fallback-flagged DecisionResult
func (m *Matcher) result(action *CandidateAction, confidence float64, reasoning, intent string) *DecisionResult {
	return &DecisionResult{
		Action:       action,
		Confidence:   confidence,
		Reasoning:    reasoning,
		UsedFallback: true,
		Intent:       intent,
		Path:         PathFallback,
	}
}

// matchItems scans the message for quantity+name patterns and bare fuzzy
// item names, resolving against available menu items only. Quantity
// defaults to 1; prices always come from the menu snapshot.
func (m *Matcher) matchItems(lower string, actx *ActionContext) []ActionItem {
	var items []ActionItem
	seen := make(map[string]bool)

	for _, match := range quantityItemPattern.FindAllStringSubmatch(lower, -1) {
		qty, err := strconv.Atoi(match[1])
		if err != nil || qty <= 0 {
			qty = 1
		}
		if menu := m.fuzzyFind(match[2], actx); menu != nil && !seen[menu.ID] {
			seen[menu.ID] = true
			items = append(items, ActionItem{
				MenuItemID: menu.ID,
				Name:       menu.Name,
				Quantity:   qty,
				UnitPrice:  menu.Price,
				LineTotal:  float64(qty) * menu.Price,
			})
		}
	}

	// Bare item mentions without a leading quantity
	for i := range actx.Menu {
		menu := &actx.Menu[i]
		if !menu.Available || seen[menu.ID] {
			continue
		}
		if fuzzyContains(lower, strings.ToLower(menu.Name)) {
			seen[menu.ID] = true
			items = append(items, ActionItem{
				MenuItemID: menu.ID,
				Name:       menu.Name,
				Quantity:   1,
				UnitPrice:  menu.Price,
				LineTotal:  menu.Price,
			})
		}
	}

	return items
}

// fuzzyFind resolves a captured phrase against available menu item names
func (m *Matcher) fuzzyFind(phrase string, actx *ActionContext) *MenuInfo {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return nil
	}
	var best *MenuInfo
	bestScore := 0
	for i := range actx.Menu {
		menu := &actx.Menu[i]
		if !menu.Available {
			continue
		}
		score := nameMatchScore(phrase, strings.ToLower(menu.Name))
		if score > bestScore {
			bestScore = score
			best = menu
		}
	}
	return best
}

// nameMatchScore counts how many words of the menu item name appear
// (exactly or within edit distance) in the phrase. Zero means no match.
func nameMatchScore(phrase, name string) int {
	phraseWords := wordPattern.FindAllString(phrase, -1)
	nameWords := wordPattern.FindAllString(name, -1)
	if len(nameWords) == 0 {
		return 0
	}
	score := 0
	for _, nw := range nameWords {
		for _, pw := range phraseWords {
			if wordsClose(pw, nw) {
				score++
				break
			}
		}
	}
	return score
}

// fuzzyContains reports whether every word of name appears in text,
// tolerating small typos
func fuzzyContains(text, name string) bool {
	if strings.Contains(text, name) {
		return true
	}
	nameWords := wordPattern.FindAllString(name, -1)
	if len(nameWords) == 0 {
		return false
	}
	textWords := wordPattern.FindAllString(text, -1)
	for _, nw := range nameWords {
		found := false
		for _, tw := range textWords {
			if wordsClose(tw, nw) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// wordsClose compares two words, allowing a plural suffix and an edit
// distance proportional to length
func wordsClose(a, b string) bool {
	if a == b {
		return true
	}
	if a == b+"s" || b == a+"s" {
		return true
	}
	if len(a) < 4 || len(b) < 4 {
		return false
	}
	limit := 1
	if len(b) >= 7 {
		limit = 2
	}
	return editDistance(a, b) <= limit
}

// editDistance computes the Levenshtein distance between two words
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
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
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// containsAny reports whether text contains any of the keywords.
// Single-word keywords match whole words only, so "no" does not fire
// inside "noodles".
func containsAny(text string, keywords []string) bool {
	var words []string
	for _, kw := range keywords {
		if strings.ContainsRune(kw, ' ') {
			if strings.Contains(text, kw) {
				return true
			}
			continue
		}
		if words == nil {
			words = wordPattern.FindAllString(text, -1)
		}
		for _, w := range words {
			if w == kw {
				return true
			}
		}
	}
	return false
}

// recommendReply builds a conversational recommendation from the
// highest-popularity available items
func (m *Matcher) recommendReply(actx *ActionContext) string {
	var best *MenuInfo
	for i := range actx.Menu {
		menu := &actx.Menu[i]
		if !menu.Available {
			continue
		}
		if best == nil || menu.Popularity > best.Popularity {
			best = menu
		}
	}
	if best == nil {
		return "Let me check with the kitchen on today's specials."
	}
	return fmt.Sprintf("The %s is a favorite here, at $%.2f. Would you like to try it?", best.Name, best.Price)
}
