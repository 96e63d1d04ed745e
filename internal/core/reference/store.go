// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reference

import (
	"context"

	"github.com/taibuivan/komik/pkg/pagination"
)

// # Reference Data Access

// Repository defines the data access contract for genres, formats and authors.
type Repository interface {

	// ## Term Data Access

	/*
		ListTerms returns one page of a vocabulary ordered by name.

		Parameters:
		  - context: context.Context
		  - kind: Kind (genre or format)
		  - page: pagination.Params

		Returns:
		  - []*Term: the page (never nil)
		  - int: total number of terms
		  - error: Database retrieval failures
	*/
	ListTerms(context context.Context, kind Kind, page pagination.Params) ([]*Term, int, error)

	// FindTerm returns apperr.NotFound when no term has this id.
	FindTerm(context context.Context, kind Kind, id string) (*Term, error)

	// SlugTaken reports whether another term of the same kind already uses slug.
	SlugTaken(context context.Context, kind Kind, slug, excludeID string) (bool, error)

	// CreateTerm inserts term; a duplicate slug yields apperr.Conflict.
	CreateTerm(context context.Context, kind Kind, term *Term) error

	/*
		UpdateTerm applies the non-nil fields of changes.

		Returns:
		  - *Term: the row after the update
		  - error: NotFound, Conflict on slug collision, or storage errors
	*/
	UpdateTerm(context context.Context, kind Kind, id string, changes TermChanges) (*Term, error)

	// DeleteTerm returns apperr.NotFound when nothing was deleted.
	DeleteTerm(context context.Context, kind Kind, id string) error

	// ## Author Data Access

	ListAuthors(context context.Context, filter AuthorFilter, page pagination.Params) ([]*Author, int, error)
	FindAuthor(context context.Context, id string) (*Author, error)
	CreateAuthor(context context.Context, author *Author) error
	UpdateAuthor(context context.Context, id, name string) (*Author, error)
	DeleteAuthor(context context.Context, id string) error
}
