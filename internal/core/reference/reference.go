// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package reference manages the lookup data that series point at.

It handles the lifecycle of the small vocabularies shared across the catalog
and serves them to the admin forms in one round-trip.

# Core Responsibility

  - Taxonomy: [Genre] and [Format] terms, each with a unique slug.
  - Authorship: [Author] records linked to series as Story or Art contributors.
  - Forms: [Lookups] bundles all three lists for the series editor.
*/
package reference

import (
	"time"

	"github.com/taibuivan/komik/internal/platform/database/schema"
)

// # Term Domain

// Term is a named, slugged vocabulary entry. Genres and formats share it.
type Term struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// Kind describes which vocabulary table a [Term] lives in.
type Kind struct {
	// Resource is the human name used in messages and log events ("Genre").
	Resource string
	// Key is the lowercase name used in cache keys and routes ("genre").
	Key string

	table     string
	id        string
	name      string
	slug      string
	createdAt string
}

// The two vocabularies backed by [Term].
var (
	KindGenre = Kind{
		Resource:  "Genre",
		Key:       "genre",
		table:     schema.CoreGenre.Table,
		id:        schema.CoreGenre.ID,
		name:      schema.CoreGenre.Name,
		slug:      schema.CoreGenre.Slug,
		createdAt: schema.CoreGenre.CreatedAt,
	}

	KindFormat = Kind{
		Resource:  "Format",
		Key:       "format",
		table:     schema.CoreFormat.Table,
		id:        schema.CoreFormat.ID,
		name:      schema.CoreFormat.Name,
		slug:      schema.CoreFormat.Slug,
		createdAt: schema.CoreFormat.CreatedAt,
	}
)

// TermChanges carries the fields of a partial term update. Nil means untouched.
type TermChanges struct {
	Name *string
	Slug *string
}

// # Contributor Domain

// Author is a writer or artist credited on series.
type Author struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthorFilter holds the parameters for a paginated author search.
type AuthorFilter struct {
	Query string // case-insensitive substring of the name
}

// # Admin Forms

// Lookups bundles every vocabulary the series editor needs.
type Lookups struct {
	Formats []*Term   `json:"formats"`
	Genres  []*Term   `json:"genres"`
	Authors []*Author `json:"authors"`
}

// # Field Identifiers

const (
	FieldName = "name"
	FieldSlug = "slug"
)

// # Limits

const (
	MaxTermNameLength   = 50
	MaxTermSlugLength   = 50
	MaxAuthorNameLength = 100
)
