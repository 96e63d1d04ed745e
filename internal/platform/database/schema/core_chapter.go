// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// CoreChapterTable represents the 'core.chapter' table
type CoreChapterTable struct {
	Table         string
	ID            string
	SeriesID      string
	ChapterNumber string
	Title         string
	Slug          string
	Index         string
	ViewCount     string
	PublishedAt   string
	CreatedAt     string
	UpdatedAt     string
}

// CoreChapter is the schema definition for core.chapter
var CoreChapter = CoreChapterTable{
	Table:         "core.chapter",
	ID:            "id",
	SeriesID:      "series_id",
	ChapterNumber: "chapter_number",
	Title:         "title",
	Slug:          "slug",
	Index:         `"index"`,
	ViewCount:     "view_count",
	PublishedAt:   "published_at",
	CreatedAt:     "created_at",
	UpdatedAt:     "updated_at",
}

func (t CoreChapterTable) Columns() []string {
	return []string{
		t.ID, t.SeriesID, t.ChapterNumber, t.Title, t.Slug, t.Index,
		t.ViewCount, t.PublishedAt, t.CreatedAt, t.UpdatedAt,
	}
}
