// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// CoreSeriesTable represents the 'core.series' table
type CoreSeriesTable struct {
	Table            string
	ID               string
	Title            string
	AlternativeTitle string
	Slug             string
	Description      string
	FormatID         string
	Status           string
	CoverImageURL    string
	CoverStoragePath string
	ViewCount        string
	Rating           string
	CreatedAt        string
	UpdatedAt        string
}

// CoreSeries is the schema definition for core.series
var CoreSeries = CoreSeriesTable{
	Table:            "core.series",
	ID:               "id",
	Title:            "title",
	AlternativeTitle: "alternative_title",
	Slug:             "slug",
	Description:      "description",
	FormatID:         "format_id",
	Status:           "status",
	CoverImageURL:    "cover_image_url",
	CoverStoragePath: "cover_storage_path",
	ViewCount:        "view_count",
	Rating:           "rating",
	CreatedAt:        "created_at",
	UpdatedAt:        "updated_at",
}

func (t CoreSeriesTable) Columns() []string {
	return []string{
		t.ID, t.Title, t.AlternativeTitle, t.Slug, t.Description, t.FormatID, t.Status,
		t.CoverImageURL, t.CoverStoragePath, t.ViewCount, t.Rating, t.CreatedAt, t.UpdatedAt,
	}
}
