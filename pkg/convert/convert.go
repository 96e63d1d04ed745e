// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package convert reads optional query parameters where a malformed value
simply means "not given" (?limit=abc, ?auto_slug=maybe).

Request bodies are validated field by field instead and never go through here.
*/
package convert

import (
	"strconv"
	"strings"
)

// ToIntD parses raw as a base-10 int, or returns fallback.
func ToIntD(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

// ToBool accepts the spellings of [strconv.ParseBool]; anything else is false.
func ToBool(raw string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && value
}
