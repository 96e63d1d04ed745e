// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package pagination turns ?page=&limit= into OFFSET/LIMIT and back into the
"meta" block of list responses.

Every catalog listing (series, chapters, genres, formats, authors) pages the
same way: 1-based pages, 20 rows by default, never more than 100.
*/
package pagination

import (
	"math"
	"net/http"

	"github.com/taibuivan/komik/pkg/convert"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100

	// MaxPage keeps (page-1)*limit within an int.
	MaxPage = math.MaxInt / MaxLimit
)

// Params is a normalised page request. Build it with [New] or [FromRequest].
type Params struct {
	Page  int
	Limit int
}

// New clamps raw values: page < 1 and limit < 1 take the defaults, page and
// limit above [MaxPage] and [MaxLimit] are lowered to them.
func New(page, limit int) Params {
	params := Params{Page: min(max(page, DefaultPage), MaxPage), Limit: min(limit, MaxLimit)}
	if limit < 1 {
		params.Limit = DefaultLimit
	}
	return params
}

// FromRequest reads "page" and "limit"; malformed values count as absent.
func FromRequest(request *http.Request) Params {
	values := request.URL.Query()
	return New(
		convert.ToIntD(values.Get("page"), DefaultPage),
		convert.ToIntD(values.Get("limit"), DefaultLimit),
	)
}

// Offset is the number of rows to skip.
func (p Params) Offset() int {
	return (min(max(p.Page, 1), MaxPage) - 1) * p.Limit
}

// Meta describes one page of a listing in the response envelope.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewMeta computes TotalPages by rounding up; a zero limit yields zero pages.
func NewMeta(page, limit, total int) Meta {
	meta := Meta{Page: page, Limit: limit, Total: total}
	if limit > 0 {
		meta.TotalPages = (total + limit - 1) / limit
	}
	return meta
}

// Meta builds the response metadata for these params.
func (p Params) Meta(total int) Meta {
	return NewMeta(p.Page, p.Limit, total)
}

// Result is one page of rows together with the unpaginated total.
// Listings cache it as a unit, so both fields are exported.
type Result[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}
