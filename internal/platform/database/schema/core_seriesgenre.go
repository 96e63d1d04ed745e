// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// CoreSeriesGenreTable represents the 'core.series_genre' table
type CoreSeriesGenreTable struct {
	Table    string
	SeriesID string
	GenreID  string
}

// CoreSeriesGenre is the schema definition for core.series_genre
var CoreSeriesGenre = CoreSeriesGenreTable{
	Table:    "core.series_genre",
	SeriesID: "series_id",
	GenreID:  "genre_id",
}
