// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package chapter manages chapters of a series and their ordered page images.

# Core Responsibility

  - Numbering: The sort index and slug are derived from the free-text
    chapter number and recomputed whenever it changes.
  - Pages: Image lists are always replaced as a whole, numbered 1..N in the
    order they were sent.
  - Uploads: New page files are stored before the database replace; a failed
    request removes whatever it had already uploaded.
*/
package chapter

import (
	"time"

	"github.com/taibuivan/komik/internal/platform/validate"
)

// # Chapter Aggregate

// Chapter is one release of a series.
type Chapter struct {
	ID            string    `json:"id"`
	SeriesID      string    `json:"series_id"`
	ChapterNumber string    `json:"chapter_number"`
	Title         *string   `json:"title"`
	Slug          string    `json:"slug"`
	Index         float64   `json:"index"`
	ViewCount     int64     `json:"view_count"`
	PublishedAt   time.Time `json:"published_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Series is joined on listings.
	Series *SeriesRef `json:"series,omitempty"`
	// Images is filled by workflows that also wrote pages.
	Images []*Image `json:"images,omitempty"`
}

// SeriesRef is the series header shown next to a chapter in listings.
type SeriesRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// Image is one page of a chapter.
type Image struct {
	ID          string    `json:"id"`
	ChapterID   string    `json:"chapter_id"`
	ImageURL    string    `json:"image_url"`
	StoragePath *string   `json:"-"`
	PageNumber  int       `json:"page_number"`
	Width       *int      `json:"width"`
	Height      *int      `json:"height"`
	CreatedAt   time.Time `json:"created_at"`
}

// # Inputs

// ImageInput is one page of a JSON image replacement.
// Without a page_number the page takes its position in the list.
type ImageInput struct {
	ImageURL   string `json:"image_url"`
	PageNumber *int   `json:"page_number"`
	Width      *int   `json:"width"`
	Height     *int   `json:"height"`
}

// CreateInput is the payload of a chapter creation.
type CreateInput struct {
	SeriesID      string       `json:"series_id"`
	ChapterNumber string       `json:"chapter_number"`
	Title         *string      `json:"title"`
	PublishedAt   *time.Time   `json:"published_at"`
	Images        []ImageInput `json:"images"`
}

// Source is one entry of a multipart page replacement: either the URL of a
// page the chapter already has, or a new file.
type Source struct {
	ExistingURL string
	File        []byte
}

// Changes carries a partial chapter update. Index and Slug are derived.
type Changes struct {
	ChapterNumber validate.Value
	Title         validate.Value
	PublishedAt   *time.Time
	Slug          *string
	Index         *float64
}

// Empty reports whether nothing would be written.
func (changes Changes) Empty() bool {
	return !changes.ChapterNumber.Set && !changes.Title.Set && changes.PublishedAt == nil
}

// # Field Identifiers

const (
	FieldSeriesID      = "series_id"
	FieldChapterNumber = "chapter_number"
	FieldTitle         = "title"
	FieldSlug          = "slug"
	FieldPublishedAt   = "published_at"
	FieldImages        = "images"
	FieldImageURL      = "image_url"
	FieldPages         = "pages"
	FieldLayout        = "layout"
	FieldFile          = "file"
	FieldChapterID     = "chapter_id"
	FieldPageNumber    = "page_number"
)

// # Limits

const (
	MaxChapterNumberLength = 50
	MaxTitleLength         = 255
	MaxSlugLength          = 255
)
