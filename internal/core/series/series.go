// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package series manages the top-level catalog entity and its public reading views.

# Core Responsibility

  - Catalog: Series with their format, genres and credited authors.
  - Workflows: Creation with relations in one transaction, cover replacement,
    and the cascade delete that cleans every stored page image afterwards.
  - Reading: The chapter reader view and the latest updates feed.
*/
package series

import (
	"time"

	"github.com/taibuivan/komik/internal/platform/validate"
)

// # Status

// Publication states of a series.
const (
	StatusOngoing   = "Ongoing"
	StatusCompleted = "Completed"
	StatusHiatus    = "Hiatus"
	StatusCancelled = "Cancelled"
)

// Statuses is the closed set accepted by the status column, in display order.
var Statuses = []string{StatusOngoing, StatusCompleted, StatusHiatus, StatusCancelled}

// # Credit Roles

const (
	RoleStory = "Story"
	RoleArt   = "Art"
)

// # Series Domain

// Series is a comic title.
type Series struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	AlternativeTitle *string   `json:"alternative_title"`
	Slug             string    `json:"slug"`
	Description      *string   `json:"description"`
	FormatID         *string   `json:"format_id"`
	Status           string    `json:"status"`
	CoverImageURL    *string   `json:"cover_image_url"`
	CoverStoragePath *string   `json:"-"`
	ViewCount        int64     `json:"view_count"`
	Rating           float64   `json:"rating"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Relations, hydrated on reads.
	Format  *Ref     `json:"format"`
	Genres  []Ref    `json:"genres"`
	Authors []Credit `json:"authors"`
}

// Ref is a lightweight view of a linked lookup entity.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// Credit links an author to a series under a role.
type Credit struct {
	AuthorID string `json:"author_id"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role"`
}

// Filter holds the public listing filters. Empty fields are ignored.
type Filter struct {
	Query  string   // title or alternative title, case-insensitive
	Status string   // exact status
	Format string   // format slug
	Genres []string // genre slugs; a series must carry all of them
}

// # Inputs

// CreditInput is one entry of an authors replacement.
type CreditInput struct {
	AuthorID string  `json:"author_id"`
	Role     *string `json:"role"`
}

// CreateInput is the payload of a series creation.
type CreateInput struct {
	Title            string        `json:"title"`
	AlternativeTitle *string       `json:"alternative_title"`
	Slug             string        `json:"slug"`
	AutoSlug         bool          `json:"auto_slug"`
	Description      *string       `json:"description"`
	FormatID         *string       `json:"format_id"`
	Status           *string       `json:"status"`
	CoverImageURL    *string       `json:"cover_image_url"`
	GenreIDs         []string      `json:"genre_ids"`
	Authors          []CreditInput `json:"authors"`
}

// Changes carries a partial update. Only fields with Set are written.
type Changes struct {
	Title            validate.Value
	AlternativeTitle validate.Value
	Slug             validate.Value
	Description      validate.Value
	FormatID         validate.Value
	Status           validate.Value
	CoverImageURL    validate.Value
	CoverStoragePath validate.Value
}

// Empty reports whether no field takes part in the update.
func (changes Changes) Empty() bool {
	for _, value := range []validate.Value{
		changes.Title, changes.AlternativeTitle, changes.Slug, changes.Description,
		changes.FormatID, changes.Status, changes.CoverImageURL, changes.CoverStoragePath,
	} {
		if value.Set {
			return false
		}
	}
	return true
}

// StoredImage is a page image as recorded in the database.
type StoredImage struct {
	URL  string
	Path *string
}

// # Reading Views

// ReaderView is everything the reader page needs to show one chapter.
type ReaderView struct {
	Series   ReaderSeries `json:"series"`
	Chapter  ReaderEntry  `json:"chapter"`
	Images   []Page       `json:"images"`
	Previous *ReaderEntry `json:"prev"`
	Next     *ReaderEntry `json:"next"`
}

// ReaderSeries is the series header of the reader page.
type ReaderSeries struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Slug          string  `json:"slug"`
	CoverImageURL *string `json:"cover_image_url"`
}

// ReaderEntry identifies a chapter in the reader and its navigation.
type ReaderEntry struct {
	ID            string    `json:"id"`
	ChapterNumber string    `json:"chapter_number"`
	Title         *string   `json:"title"`
	Slug          string    `json:"slug"`
	Index         float64   `json:"index"`
	PublishedAt   time.Time `json:"published_at"`
}

// Page is one image of a chapter in reading order.
type Page struct {
	PageNumber int    `json:"page_number"`
	ImageURL   string `json:"image_url"`
	Width      *int   `json:"width"`
	Height     *int   `json:"height"`
}

// Update is one entry of the latest updates feed.
type Update struct {
	Series  ReaderSeries `json:"series"`
	Chapter ReaderEntry  `json:"latest_chapter"`
}

// # Field Identifiers

const (
	FieldTitle            = "title"
	FieldAlternativeTitle = "alternative_title"
	FieldSlug             = "slug"
	FieldDescription      = "description"
	FieldFormatID         = "format_id"
	FieldStatus           = "status"
	FieldCoverImageURL    = "cover_image_url"
	FieldGenreIDs         = "genre_ids"
	FieldAuthors          = "authors"
	FieldCover            = "cover"
)

// # Limits

const (
	MaxTitleLength = 255
	MaxSlugLength  = 255
)
