// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package chapter

import (
	"context"

	"github.com/taibuivan/komik/pkg/pagination"
)

// # Chapter & Image Data Access

// Repository defines the data access contract for chapters and their images.
type Repository interface {

	/*
		List returns chapters ordered by index, highest first, with the series joined.

		Parameters:
		  - context: context.Context
		  - seriesID: string (empty lists every series)
		  - page: pagination.Params

		Returns:
		  - []*Chapter: the page (never nil)
		  - int: total matches
		  - error: Storage failures
	*/
	List(context context.Context, seriesID string, page pagination.Params) ([]*Chapter, int, error)

	// FindByID returns the chapter or apperr.NotFound.
	FindByID(context context.Context, id string) (*Chapter, error)

	// SeriesSlug reads the current slug of a series, used to derive chapter slugs.
	SeriesSlug(context context.Context, seriesID string) (string, error)

	/*
		Create persists a new chapter.

		Returns:
		  - error: [ErrDuplicateNumber] when the series already has this number
	*/
	Create(context context.Context, chapter *Chapter) error

	// Update writes the set fields of changes and bumps updated_at.
	Update(context context.Context, id string, changes Changes) (*Chapter, error)

	// Delete removes the chapter; its images cascade in the database.
	Delete(context context.Context, id string) error

	// Images lists the pages of a chapter in reading order.
	Images(context context.Context, chapterID string) ([]*Image, error)

	/*
		ReplaceImages swaps the full page list of a chapter in one transaction.

		Parameters:
		  - context: context.Context
		  - chapterID: string
		  - images: []*Image (PageNumber already assigned 1..N)

		Returns:
		  - []*Image: the stored pages
		  - error: Storage failures; nothing changes on error
	*/
	ReplaceImages(context context.Context, chapterID string, images []*Image) ([]*Image, error)

	/*
		SharedPaths reports which of paths are still used by a page of another chapter.

		Parameters:
		  - context: context.Context
		  - chapterID: string (the chapter whose pages are excluded)
		  - paths: []string (object paths in the chapters bucket)

		Returns:
		  - []string: the subset still referenced elsewhere
		  - error: Storage failures
	*/
	SharedPaths(context context.Context, chapterID string, paths []string) ([]string, error)

	// IncrementViews adds one to the view counter.
	IncrementViews(context context.Context, id string) (int64, error)
}
