// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slug generates URL slugs for series, chapters and lookup entities.
//
// # Flavours
//
//   - [From]: Unicode-aware; folds accents before slugging ("Pokémon" → "pokemon").
//   - [Auto]: ASCII-only; what the admin forms produce for genres and formats.
//   - [Chapter]: the derived chapter slug, "{series}-chapter-{number}".
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// nonAlphanumeric matches any sequence of non-alphanumeric, non-hyphen characters.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9-]+`)
	// multiHyphen collapses multiple consecutive hyphens into one.
	multiHyphen = regexp.MustCompile(`-{2,}`)
	// asciiRun matches any run of characters outside [a-z0-9].
	asciiRun = regexp.MustCompile(`[^a-z0-9]+`)
	// whitespaceRun matches any run of whitespace.
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// From converts an arbitrary Unicode string into a URL-safe ASCII slug.
//
// # Transformation Pipeline
//
// 1. Normalizes to NFD (decomposes accented chars: é → e + combining acute).
// 2. Removes combining marks (accents).
// 3. Converts to lowercase.
// 4. Replaces non-alphanumeric characters with hyphens.
// 5. Collapses multiple hyphens and trims leading/trailing hyphens.
func From(s string) string {
	// 1. Normalize and remove accents
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn))
	result, _, _ := transform.String(t, s)

	// 2. Lowercase
	result = strings.ToLower(result)

	// 3. Replace whitespace and special chars with hyphens
	result = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '-'
	}, result)

	// 4. Clean up hyphenation
	result = nonAlphanumeric.ReplaceAllString(result, "-")
	result = multiHyphen.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	return result
}

// Auto lowercases s, replaces every run of non [a-z0-9] characters with a
// single hyphen and trims hyphens from both ends.
//
//	slug.Auto("  Web Comic!! ") // "web-comic"
func Auto(s string) string {
	result := asciiRun.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(result, "-")
}

// Chapter derives the slug of a chapter from its series slug and free-text number.
//
// The result is lowercased and every whitespace run becomes a single hyphen.
// It must be recomputed whenever either input changes.
//
//	slug.Chapter("solo-leveling", "Extra 2") // "solo-leveling-chapter-extra-2"
func Chapter(seriesSlug, chapterNumber string) string {
	raw := strings.ToLower(seriesSlug + "-chapter-" + chapterNumber)
	return whitespaceRun.ReplaceAllString(raw, "-")
}

// HasWhitespace reports whether s contains any whitespace character.
func HasWhitespace(s string) bool {
	return strings.IndexFunc(s, unicode.IsSpace) >= 0
}

// isMn reports whether r is a Unicode non-spacing mark (e.g., accents).
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
