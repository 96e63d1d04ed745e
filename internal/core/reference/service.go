// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reference

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/komik/internal/platform/apperr"
	"github.com/taibuivan/komik/internal/platform/cache"
	"github.com/taibuivan/komik/internal/platform/constants"
	"github.com/taibuivan/komik/internal/platform/ctxutil"
	"github.com/taibuivan/komik/internal/platform/validate"
	"github.com/taibuivan/komik/pkg/pagination"
	"github.com/taibuivan/komik/pkg/slug"
	"github.com/taibuivan/komik/pkg/uuid"
)

// # Service Layer

// Service orchestrates business rules for lookup data.
type Service struct {
	repo   Repository
	cache  *cache.Cache
	logger *slog.Logger
}

// NewService constructs a new reference [Service]. listings may be nil.
func NewService(repo Repository, listings *cache.Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: listings, logger: logger}
}

// TermInput is the create payload for genres and formats.
type TermInput struct {
	Name string  `json:"name"`
	Slug *string `json:"slug"`
}

// # Term Methods

/*
ListTerms returns one cached page of genres or formats.

Parameters:
  - context: context.Context
  - kind: Kind
  - page: pagination.Params

Returns:
  - pagination.Result[*Term]: rows and total
  - error: Database retrieval failures
*/
func (service *Service) ListTerms(ctx context.Context, kind Kind, page pagination.Params) (pagination.Result[*Term], error) {
	key := []string{kind.Key, "list", strconv.Itoa(page.Page), strconv.Itoa(page.Limit)}

	return cache.Remember(ctx, service.cache, key, func(ctx context.Context) (pagination.Result[*Term], error) {
		terms, total, err := service.repo.ListTerms(ctx, kind, page)
		return pagination.Result[*Term]{Items: terms, Total: total}, err
	})
}

// GetTerm retrieves one term or apperr.NotFound.
func (service *Service) GetTerm(context context.Context, kind Kind, id string) (*Term, error) {
	return service.repo.FindTerm(context, kind, id)
}

/*
CreateTerm validates and persists a new genre or format.

Description: A missing or blank slug is derived from the name.

Parameters:
  - context: context.Context
  - kind: Kind
  - input: TermInput

Returns:
  - *Term: the stored term
  - error: Validation failures, Conflict on a duplicate slug, storage errors
*/
func (service *Service) CreateTerm(context context.Context, kind Kind, input TermInput) (*Term, error) {
	term := &Term{ID: uuid.New(), Name: strings.TrimSpace(input.Name)}

	// 1. Resolve the slug
	if value := validate.NormalizeOptional(input.Slug); value != nil {
		term.Slug = *value
	} else {
		term.Slug = slug.Auto(term.Name)
	}

	// 2. Validate
	validator := &validate.Validator{}
	validator.Required(FieldName, term.Name).MaxLen(FieldName, term.Name, MaxTermNameLength)
	validator.Required(FieldSlug, term.Slug).Slug(FieldSlug, term.Slug, MaxTermSlugLength)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	// 3. Persist
	if err := service.repo.CreateTerm(context, kind, term); err != nil {
		return nil, err
	}

	service.cache.Invalidate(context)
	service.log(context).InfoContext(context, kind.Key+"_created", slog.String("id", term.ID), slog.String("slug", term.Slug))

	return term, nil
}

/*
UpdateTerm applies a partial update to a genre or format.

Description: Only keys present in the body are written. When the slug changes,
a collision against other rows of the same kind is reported as 409 before the
write; the unique index still backs it up.

Parameters:
  - context: context.Context
  - kind: Kind
  - id: string
  - patch: validate.Patch

Returns:
  - *Term: the row after the update
  - error: Validation, NotFound, Conflict or storage errors
*/
func (service *Service) UpdateTerm(context context.Context, kind Kind, id string, patch validate.Patch) (*Term, error) {
	validator := &validate.Validator{}
	changes := TermChanges{}

	// 1. Collect present fields
	if name := patch.String(validator, FieldName); name.Set {
		validator.Required(FieldName, name.Text).MaxLen(FieldName, name.Text, MaxTermNameLength)
		changes.Name = name.Ptr()
	}
	if value := patch.String(validator, FieldSlug); value.Set {
		validator.Required(FieldSlug, value.Text).Slug(FieldSlug, value.Text, MaxTermSlugLength)
		changes.Slug = value.Ptr()
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}
	if changes.Name == nil && changes.Slug == nil {
		return nil, validate.ErrNoFields
	}

	// 2. Existence check
	current, err := service.repo.FindTerm(context, kind, id)
	if err != nil {
		return nil, err
	}

	// 3. Slug collision check
	if changes.Slug != nil && *changes.Slug != current.Slug {
		taken, err := service.repo.SlugTaken(context, kind, *changes.Slug, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperr.Conflict("Slug is already used by another " + kind.Key)
		}
	}

	// 4. Persist
	updated, err := service.repo.UpdateTerm(context, kind, id, changes)
	if err != nil {
		return nil, err
	}

	service.cache.Invalidate(context)
	service.log(context).InfoContext(context, kind.Key+"_updated", slog.String("id", id))

	return updated, nil
}

// DeleteTerm removes a genre or format. Series links to it are dropped by the database.
func (service *Service) DeleteTerm(context context.Context, kind Kind, id string) error {
	if err := service.repo.DeleteTerm(context, kind, id); err != nil {
		return err
	}

	service.cache.Invalidate(context)
	service.log(context).InfoContext(context, kind.Key+"_deleted", slog.String("id", id))
	return nil
}

// # Author Methods

// ListAuthors provides a cached, paginated search over authors.
func (service *Service) ListAuthors(ctx context.Context, filter AuthorFilter, page pagination.Params) (pagination.Result[*Author], error) {
	key := []string{"author", "list", filter.Query, strconv.Itoa(page.Page), strconv.Itoa(page.Limit)}

	return cache.Remember(ctx, service.cache, key, func(ctx context.Context) (pagination.Result[*Author], error) {
		authors, total, err := service.repo.ListAuthors(ctx, filter, page)
		return pagination.Result[*Author]{Items: authors, Total: total}, err
	})
}

// GetAuthor retrieves one author or apperr.NotFound.
func (service *Service) GetAuthor(context context.Context, id string) (*Author, error) {
	return service.repo.FindAuthor(context, id)
}

// CreateAuthor validates and persists a new author.
func (service *Service) CreateAuthor(context context.Context, name string) (*Author, error) {
	author := &Author{ID: uuid.New(), Name: strings.TrimSpace(name)}

	validator := &validate.Validator{}
	validator.Required(FieldName, author.Name).MaxLen(FieldName, author.Name, MaxAuthorNameLength)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if err := service.repo.CreateAuthor(context, author); err != nil {
		return nil, err
	}

	service.cache.Invalidate(context)
	service.log(context).InfoContext(context, "author_created", slog.String("id", author.ID))

	return author, nil
}

/*
UpdateAuthor renames an author.

Parameters:
  - context: context.Context
  - id: string
  - patch: validate.Patch (only "name" is recognised)

Returns:
  - *Author: the row after the update
  - error: Validation, NotFound or storage errors
*/
func (service *Service) UpdateAuthor(context context.Context, id string, patch validate.Patch) (*Author, error) {
	validator := &validate.Validator{}

	name := patch.String(validator, FieldName)
	if name.Set {
		validator.Required(FieldName, name.Text).MaxLen(FieldName, name.Text, MaxAuthorNameLength)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}
	if !name.Set {
		return nil, validate.ErrNoFields
	}

	updated, err := service.repo.UpdateAuthor(context, id, name.Text)
	if err != nil {
		return nil, err
	}

	service.cache.Invalidate(context)
	service.log(context).InfoContext(context, "author_updated", slog.String("id", id))

	return updated, nil
}

// DeleteAuthor removes an author and its series credits.
func (service *Service) DeleteAuthor(context context.Context, id string) error {
	if err := service.repo.DeleteAuthor(context, id); err != nil {
		return err
	}

	service.cache.Invalidate(context)
	service.log(context).InfoContext(context, "author_deleted", slog.String("id", id))
	return nil
}

// # Admin Forms

/*
Lookups loads formats, genres and authors concurrently for the series editor.

Description: The three reads are independent, so they run in parallel; the
first failure cancels the others.

Parameters:
  - context: context.Context

Returns:
  - *Lookups: all three lists, each ordered by name
  - error: the first retrieval failure
*/
func (service *Service) Lookups(context context.Context) (*Lookups, error) {
	return cache.Remember(context, service.cache, []string{"lookups"}, service.loadLookups)
}

func (service *Service) loadLookups(ctx context.Context) (*Lookups, error) {
	everything := pagination.Params{Page: 1, Limit: constants.MaxLookupItems}
	result := &Lookups{}

	group, groupContext := errgroup.WithContext(ctx)

	group.Go(func() error {
		formats, _, err := service.repo.ListTerms(groupContext, KindFormat, everything)
		result.Formats = formats
		return err
	})
	group.Go(func() error {
		genres, _, err := service.repo.ListTerms(groupContext, KindGenre, everything)
		result.Genres = genres
		return err
	})
	group.Go(func() error {
		authors, _, err := service.repo.ListAuthors(groupContext, AuthorFilter{}, everything)
		result.Authors = authors
		return err
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (service *Service) log(ctx context.Context) *slog.Logger {
	return ctxutil.LoggerOr(ctx, service.logger)
}
