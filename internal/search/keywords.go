package search

import "strings"

// keywords is matched as plain substrings of the lowercased message, so
// short entries like "add" or "now" also hit inside longer words.
var keywords = []string{
	"upcoming", "web", "search", "find", "breaking", "multiplied", "add", "sub", "subtract", "sum",
	"adding", "multiply", "divide", "divided", "/", "latest", "current", "today", "live", "update",
	"emergency", "alert", "trending", "headline", "recent", "news", "developing", "real-time",
	"urgent", "immediate", "now", "global", "world", "election", "weather", "stock", "finance",
	"sports", "results", "polls", "technology", "market", "viral", "scoop", "yesterday",
	"price of", "who is", "what is the capital of", "define",
}

func ShouldSearch(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return false
	}
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
