// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package chapterindex turns a free-text chapter label into a numeric sort key.
//
// Chapter numbers are labels, not numbers: "12", "1.5" and "Extra" are all
// valid. Listings sort by the derived index in descending order, so labels
// that are not numeric get a sentinel that places them after every numbered
// chapter.
package chapterindex

import (
	"math"
	"strconv"
	"strings"
)

// Sentinel is the index assigned to labels that do not parse as a number.
const Sentinel = 999.0

// Derive returns the numeric value of the trimmed label when it parses as a
// finite decimal, otherwise [Sentinel].
//
//	chapterindex.Derive("1.5")   // 1.5
//	chapterindex.Derive("Extra") // 999
func Derive(chapterNumber string) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(chapterNumber), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return Sentinel
	}
	return value
}
