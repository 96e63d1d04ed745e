// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage

import (
	"crypto/rand"
	"fmt"
	"time"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// PageObjectName names a chapter page: {chapterID}-{page}-{unixMillis}-{rand6}.{ext}
func PageObjectName(chapterID string, page int, extension string, now time.Time) string {
	return fmt.Sprintf("%s-%d-%d-%s.%s", chapterID, page, now.UnixMilli(), randomSuffix(6), extension)
}

// CoverObjectName names a series cover: {seriesID}-{unixMillis}-{rand6}.webp
func CoverObjectName(seriesID string, now time.Time) string {
	return fmt.Sprintf("%s-%d-%s.webp", seriesID, now.UnixMilli(), randomSuffix(6))
}

func randomSuffix(length int) string {
	buffer := make([]byte, length)
	_, _ = rand.Read(buffer)
	for index, value := range buffer {
		buffer[index] = alphabet[int(value)%len(alphabet)]
	}
	return string(buffer)
}
