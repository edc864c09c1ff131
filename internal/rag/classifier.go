// Package rag implements retrieval-augmented generation support: a
// keyword relevance classifier, a retriever that turns vector matches
// into prompt context with citations, a status reporter, and a batch
// document indexer.
package rag

import "strings"

// domainKeywords is the fixed vocabulary used to decide whether a user
// message is worth a retrieval round-trip. Substring matching keeps
// inflected forms ("exercises", "training") in scope.
var domainKeywords = []string{
	"exercise", "workout", "fitness", "training", "muscle",
	"cardio", "strength", "nutrition", "diet", "meal",
	"calories", "protein", "weight", "fat", "gym",
	"running", "swimming", "yoga", "pilates", "supplements",
	"recovery", "rest", "sleep", "health", "wellness",
}

// IsDomainRelated reports whether the text mentions any health or
// fitness topic. Pure function; matching is case-insensitive.
func IsDomainRelated(text string) bool {
	lowered := strings.ToLower(text)
	for _, kw := range domainKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}
