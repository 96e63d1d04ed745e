// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series

import (
	"context"

	"github.com/taibuivan/komik/pkg/pagination"
)

// # Series Data Access

// Repository defines the data access contract for series and their relations.
type Repository interface {

	// ## Reads

	/*
		List returns one page of series, newest first, with relations hydrated.

		Parameters:
		  - context: context.Context
		  - filter: Filter
		  - page: pagination.Params

		Returns:
		  - []*Series: the page (never nil)
		  - int: total matches
		  - error: Database retrieval failures
	*/
	List(context context.Context, filter Filter, page pagination.Params) ([]*Series, int, error)

	// FindByID reads from the write tier; workflows use it as their existence check.
	FindByID(context context.Context, id string) (*Series, error)

	// FindBySlug serves the public detail page.
	FindBySlug(context context.Context, slug string) (*Series, error)

	// SlugTaken reports whether another series already uses slug.
	SlugTaken(context context.Context, slug, excludeID string) (bool, error)

	// ## Writes

	/*
		Create inserts the series and its genre and author links atomically.

		Parameters:
		  - context: context.Context
		  - series: *Series (timestamps are filled in)
		  - genreIDs: []string (already de-duplicated)
		  - credits: []Credit (already de-duplicated by author and role)

		Returns:
		  - error: Conflict on a duplicate slug, ValidationError on a dangling
		    reference, storage errors otherwise. Nothing is written on error.
	*/
	Create(context context.Context, series *Series, genreIDs []string, credits []Credit) error

	// Update writes the set fields of changes and bumps updated_at.
	Update(context context.Context, id string, changes Changes) (*Series, error)

	// Delete removes the row; chapters, images and links cascade in the database.
	Delete(context context.Context, id string) error

	// ReplaceGenres swaps the full genre set of a series in one transaction.
	ReplaceGenres(context context.Context, id string, genreIDs []string) ([]Ref, error)

	// ReplaceAuthors swaps the full credit set of a series in one transaction.
	ReplaceAuthors(context context.Context, id string, credits []Credit) ([]Credit, error)

	// IncrementViews adds one to the view counter.
	IncrementViews(context context.Context, id string) (int64, error)

	// ## Workflow Support

	// ChapterImages lists every page image of every chapter of the series.
	ChapterImages(context context.Context, seriesID string) ([]StoredImage, error)

	// ## Reading Views

	// ReaderView resolves chapterRef (slug or id) inside the series named by seriesSlug.
	ReaderView(context context.Context, seriesSlug, chapterRef string) (*ReaderView, error)

	// LatestUpdates returns the series with the most recently published chapters.
	LatestUpdates(context context.Context, limit int) ([]*Update, error)
}
