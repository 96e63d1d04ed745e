// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage

import (
	"net/url"
	"strings"
)

/*
ExtractPath recovers the object path from a previously issued public URL.

Rows written by this service store their path directly; this is the fallback
for URLs entered by hand or imported from elsewhere.

Lookup order:
 1. Virtual-hosted URL whose host starts with "{bucket}.": the whole URL path.
 2. A path segment equal to the bucket: everything after it.
 3. Malformed input: split on "/{bucket}/" and strip any query or fragment.

Returns ("", false) when no path can be found. Callers skip cleanup in that case.
*/
func ExtractPath(rawURL, bucket string) (string, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" || bucket == "" {
		return "", false
	}

	if parsed, err := url.Parse(rawURL); err == nil && parsed.Host != "" {
		segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")

		// 1. Bucket in the host name
		if strings.HasPrefix(parsed.Hostname(), bucket+".") {
			return nonEmpty(strings.Join(segments, "/"))
		}

		// 2. Bucket as a path segment
		for index, segment := range segments {
			if segment == bucket {
				return nonEmpty(strings.Join(segments[index+1:], "/"))
			}
		}
	}

	// 3. String-split heuristic
	marker := "/" + bucket + "/"
	position := strings.Index(rawURL, marker)
	if position < 0 {
		return "", false
	}

	path := rawURL[position+len(marker):]
	if cut := strings.IndexAny(path, "?#"); cut >= 0 {
		path = path[:cut]
	}
	return nonEmpty(path)
}

func nonEmpty(path string) (string, bool) {
	path = strings.Trim(path, "/")
	if path == "" {
		return "", false
	}
	return path, true
}

// ResolvePath prefers the stored path and falls back to parsing the URL.
func ResolvePath(storedPath, publicURL *string, bucket string) (string, bool) {
	if storedPath != nil && strings.TrimSpace(*storedPath) != "" {
		return strings.TrimSpace(*storedPath), true
	}
	if publicURL == nil {
		return "", false
	}
	return ExtractPath(*publicURL, bucket)
}
