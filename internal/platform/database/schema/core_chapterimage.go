// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// CoreChapterImageTable represents the 'core.chapter_image' table
type CoreChapterImageTable struct {
	Table       string
	ID          string
	ChapterID   string
	ImageURL    string
	StoragePath string
	PageNumber  string
	Width       string
	Height      string
	CreatedAt   string
}

// CoreChapterImage is the schema definition for core.chapter_image
var CoreChapterImage = CoreChapterImageTable{
	Table:       "core.chapter_image",
	ID:          "id",
	ChapterID:   "chapter_id",
	ImageURL:    "image_url",
	StoragePath: "storage_path",
	PageNumber:  "page_number",
	Width:       "width",
	Height:      "height",
	CreatedAt:   "created_at",
}

func (t CoreChapterImageTable) Columns() []string {
	return []string{t.ID, t.ChapterID, t.ImageURL, t.StoragePath, t.PageNumber, t.Width, t.Height, t.CreatedAt}
}
