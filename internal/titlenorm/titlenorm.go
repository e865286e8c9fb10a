// Package titlenorm derives normalized comparison keys from media titles.
package titlenorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	reNonAlnum   = regexp.MustCompile(`[^a-z0-9\s]+`)
	reMultiSpace = regexp.MustCompile(`\s+`)
	reQuotes     = regexp.MustCompile("[\"'`´‘’“”]+")

	// "Matrix, The" style sort-order titles.
	reTrailingArticle = regexp.MustCompile(`^(.+),\s+(the|a|an)$`)
	reLeadingArticle  = regexp.MustCompile(`^(?:the|a|an)\s+`)
)

// stripDiacritics removes combining marks after NFD decomposition.
func stripDiacritics(s string) string {
	decomp := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomp))
	for _, r := range decomp {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Forms returns the canonical comparison keys for title, base form first,
// then the base with any leading article removed. The result is deduplicated
// and empty for titles with no alphanumeric content. Pure and deterministic;
// running Forms on one of its own outputs yields that output's form set again.
func Forms(title string) []string {
	base := Base(title)
	if base == "" {
		return nil
	}

	forms := []string{base}
	if trimmed := reLeadingArticle.ReplaceAllString(base, ""); trimmed != "" && trimmed != base {
		forms = append(forms, trimmed)
	}
	return forms
}

// Base returns the primary canonical form of title, or "" when nothing
// alphanumeric survives normalization.
func Base(title string) string {
	s := strings.TrimSpace(title)
	if s == "" {
		return ""
	}

	// Fold width/compatibility variants before anything else.
	s = norm.NFKC.String(s)
	s = stripDiacritics(s)
	s = strings.ToLower(s)

	// Rotate sort-order articles to the front: "matrix, the" -> "the matrix".
	if m := reTrailingArticle.FindStringSubmatch(s); m != nil {
		s = m[2] + " " + m[1]
	}

	// Drop quote-like runes entirely so "don't" keys as "dont".
	s = reQuotes.ReplaceAllString(s, "")

	s = reNonAlnum.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
