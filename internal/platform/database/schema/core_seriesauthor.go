// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// CoreSeriesAuthorTable represents the 'core.series_author' table
type CoreSeriesAuthorTable struct {
	Table    string
	SeriesID string
	AuthorID string
	Role     string
}

// CoreSeriesAuthor is the schema definition for core.series_author
var CoreSeriesAuthor = CoreSeriesAuthorTable{
	Table:    "core.series_author",
	SeriesID: "series_id",
	AuthorID: "author_id",
	Role:     "role",
}
