// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/taibuivan/komik/internal/platform/apperr"
	"github.com/taibuivan/komik/internal/platform/cache"
	"github.com/taibuivan/komik/internal/platform/constants"
	"github.com/taibuivan/komik/internal/platform/ctxutil"
	"github.com/taibuivan/komik/internal/platform/storage"
	"github.com/taibuivan/komik/internal/platform/validate"
	"github.com/taibuivan/komik/pkg/pagination"
	"github.com/taibuivan/komik/pkg/slice"
	"github.com/taibuivan/komik/pkg/slug"
	"github.com/taibuivan/komik/pkg/uuid"
)

// coverContentType is the format every stored cover is re-encoded to.
const coverContentType = "image/webp"

// # Service Layer

// Service orchestrates series workflows across the database and the object store.
type Service struct {
	repo    Repository
	storage storage.ObjectStorage
	cleaner *storage.Cleaner
	buckets storage.Buckets
	cache   *cache.Cache
	logger  *slog.Logger
	now     func() time.Time
}

/*
NewService constructs a series [Service].

Parameters:
  - repo: Repository
  - objects: storage.ObjectStorage
  - buckets: storage.Buckets
  - listings: *cache.Cache (may be nil)
  - logger: *slog.Logger

Returns:
  - *Service
*/
func NewService(repo Repository, objects storage.ObjectStorage, buckets storage.Buckets, listings *cache.Cache, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		storage: objects,
		cleaner: storage.NewCleaner(objects, logger),
		buckets: buckets,
		cache:   listings,
		logger:  logger,
		now:     time.Now,
	}
}

// # Reads

// List returns one cached page of series matching filter.
func (service *Service) List(ctx context.Context, filter Filter, page pagination.Params) (pagination.Result[*Series], error) {
	filter.Genres = slice.Unique(filter.Genres)

	key := []string{
		"series", "list", filter.Query, filter.Status, filter.Format, strings.Join(filter.Genres, ","),
		strconv.Itoa(page.Page), strconv.Itoa(page.Limit),
	}

	return cache.Remember(ctx, service.cache, key, func(ctx context.Context) (pagination.Result[*Series], error) {
		items, total, err := service.repo.List(ctx, filter, page)
		return pagination.Result[*Series]{Items: items, Total: total}, err
	})
}

// Get retrieves a series by id from the write tier.
func (service *Service) Get(context context.Context, id string) (*Series, error) {
	return service.repo.FindByID(context, id)
}

// GetBySlug serves the public detail page through the cache.
func (service *Service) GetBySlug(ctx context.Context, value string) (*Series, error) {
	return cache.Remember(ctx, service.cache, []string{"series", "slug", value}, func(ctx context.Context) (*Series, error) {
		return service.repo.FindBySlug(ctx, value)
	})
}

// ReaderView returns the cached reader page of one chapter.
func (service *Service) ReaderView(ctx context.Context, seriesSlug, chapterRef string) (*ReaderView, error) {
	key := []string{"reader", seriesSlug, chapterRef}

	return cache.Remember(ctx, service.cache, key, func(ctx context.Context) (*ReaderView, error) {
		return service.repo.ReaderView(ctx, seriesSlug, chapterRef)
	})
}

// LatestUpdates returns the cached feed, with limit clamped to [1, MaxLatestUpdatesLimit].
func (service *Service) LatestUpdates(ctx context.Context, limit int) ([]*Update, error) {
	if limit <= 0 {
		limit = constants.LatestUpdatesLimit
	}
	limit = min(limit, constants.MaxLatestUpdatesLimit)

	return cache.Remember(ctx, service.cache, []string{"updates", strconv.Itoa(limit)}, func(ctx context.Context) ([]*Update, error) {
		return service.repo.LatestUpdates(ctx, limit)
	})
}

// # Creation

/*
CreateSeries validates and persists a series with its relations.

Description: The series, its genres and its credits are written in one
transaction. A cover file, when present, is uploaded only after the commit;
failing to store or attach it is logged and the series is still returned.

Parameters:
  - context: context.Context
  - input: CreateInput
  - cover: []byte (nil when no file was sent)

Returns:
  - *Series: the stored series with relations hydrated
  - error: Validation failures, Conflict on a duplicate slug, storage errors
*/
func (service *Service) CreateSeries(context context.Context, input CreateInput, cover []byte) (*Series, error) {
	validator := &validate.Validator{}

	// 1. Normalise
	series := &Series{
		ID:               uuid.New(),
		Title:            strings.TrimSpace(input.Title),
		AlternativeTitle: validate.NormalizeOptional(input.AlternativeTitle),
		Slug:             strings.TrimSpace(input.Slug),
		Description:      validate.NormalizeOptional(input.Description),
		FormatID:         validate.NormalizeRef(validator, FieldFormatID, input.FormatID),
		Status:           StatusOngoing,
		CoverImageURL:    validate.NormalizeOptional(input.CoverImageURL),
	}
	if series.Slug == "" && input.AutoSlug {
		series.Slug = slug.From(series.Title)
	}
	if status := validate.NormalizeOptional(input.Status); status != nil {
		series.Status = *status
	}

	// 2. Validate
	validator.Required(FieldTitle, series.Title).MaxLen(FieldTitle, series.Title, MaxTitleLength)
	validator.Required(FieldSlug, series.Slug).Slug(FieldSlug, series.Slug, MaxSlugLength)
	validator.OneOf(FieldStatus, series.Status, Statuses...)
	if series.CoverImageURL != nil {
		validator.URL(FieldCoverImageURL, *series.CoverImageURL)
	}
	genreIDs := normalizeGenreIDs(validator, input.GenreIDs)
	credits := normalizeCredits(validator, input.Authors)

	if err := validator.Err(); err != nil {
		return nil, err
	}

	// 3. Prepare the cover before touching the database
	var prepared []byte
	if cover != nil {
		var err error
		if prepared, err = prepareCover(cover); err != nil {
			return nil, err
		}
	} else if series.CoverImageURL != nil {
		if path, ok := storage.ExtractPath(*series.CoverImageURL, service.buckets.Covers); ok {
			series.CoverStoragePath = &path
		}
	}

	// 4. Slug pre-check
	if err := service.ensureSlugFree(context, series.Slug, ""); err != nil {
		return nil, err
	}

	// 5. Transactional write
	if err := service.repo.Create(context, series, genreIDs, credits); err != nil {
		return nil, err
	}

	service.cache.Invalidate(context)
	service.log(context).InfoContext(context, "series_created",
		slog.String("id", series.ID),
		slog.String("slug", series.Slug),
		slog.Int("genres", len(genreIDs)),
		slog.Int("authors", len(credits)),
	)

	// 6. Cover, after commit
	if prepared != nil {
		service.attachCover(context, series.ID, prepared)
	}

	if hydrated, err := service.repo.FindByID(context, series.ID); err == nil {
		return hydrated, nil
	}
	return series, nil
}

// attachCover uploads and links a cover to a freshly created series. Failures are
// logged; the series itself is already committed.
func (service *Service) attachCover(context context.Context, seriesID string, prepared []byte) {
	object, err := service.uploadCover(context, seriesID, prepared)
	if err != nil {
		service.log(context).WarnContext(context, "series_cover_upload_failed",
			slog.String("id", seriesID), slog.Any("error", err))
		return
	}

	_, err = service.repo.Update(context, seriesID, coverChanges(&object))
	if err != nil {
		service.log(context).WarnContext(context, "series_cover_attach_failed",
			slog.String("id", seriesID), slog.String("path", object.Path), slog.Any("error", err))
		service.cleaner.Remove(context, service.buckets.Covers, []string{object.Path}, "create_series")
		return
	}

	service.cache.Invalidate(context)
}

// # Updates

/*
UpdateSeries applies a partial update.

Description: Only keys present in the body are written. A changed
cover_image_url also refreshes the stored object path so later cleanups
target the right object; the previous object is left for the reaper.

Parameters:
  - context: context.Context
  - id: string
  - patch: validate.Patch

Returns:
  - *Series: the row after the update
  - error: Validation, NotFound, Conflict or storage errors
*/
func (service *Service) UpdateSeries(context context.Context, id string, patch validate.Patch) (*Series, error) {
	validator := &validate.Validator{}
	changes := Changes{}

	// 1. Collect present fields
	if changes.Title = patch.String(validator, FieldTitle); changes.Title.Set {
		validator.Required(FieldTitle, changes.Title.Text).MaxLen(FieldTitle, changes.Title.Text, MaxTitleLength)
	}
	if changes.Slug = patch.String(validator, FieldSlug); changes.Slug.Set {
		validator.Required(FieldSlug, changes.Slug.Text).Slug(FieldSlug, changes.Slug.Text, MaxSlugLength)
	}
	if changes.Status = patch.String(validator, FieldStatus); changes.Status.Set {
		validator.OneOf(FieldStatus, changes.Status.Text, Statuses...)
	}
	changes.AlternativeTitle = optional(patch.String(validator, FieldAlternativeTitle))
	changes.Description = optional(patch.String(validator, FieldDescription))
	changes.FormatID = patch.Ref(validator, FieldFormatID)

	if changes.CoverImageURL = optional(patch.String(validator, FieldCoverImageURL)); changes.CoverImageURL.Set {
		changes.CoverStoragePath = validate.Value{Set: true, Null: true}
		if !changes.CoverImageURL.Null {
			validator.URL(FieldCoverImageURL, changes.CoverImageURL.Text)
			if path, ok := storage.ExtractPath(changes.CoverImageURL.Text, service.buckets.Covers); ok {
				changes.CoverStoragePath = validate.Value{Set: true, Text: path}
			}
		}
	}

	if err := validator.Err(); err != nil {
		return nil, err
	}
	if changes.Empty() {
		return nil, validate.ErrNoFields
	}

	// 2. Existence check
	current, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	// 3. Slug collision check
	if changes.Slug.Set && changes.Slug.Text != current.Slug {
		if err := service.ensureSlugFree(context, changes.Slug.Text, id); err != nil {
			return nil, err
		}
	}

	// 4. Persist
	updated, err := service.repo.Update(context, id, changes)
	if err != nil {
		return nil, err
	}

	service.cache.Invalidate(context)
	service.log(context).InfoContext(context, "series_updated", slog.String("id", id))

	return updated, nil
}

// ReplaceGenres swaps the genre set of a series.
func (service *Service) ReplaceGenres(context context.Context, id string, genreIDs []string) ([]Ref, error) {
	validator := &validate.Validator{}
	ids := normalizeGenreIDs(validator, genreIDs)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if _, err := service.repo.FindByID(context, id); err != nil {
		return nil, err
	}

	genres, err := service.repo.ReplaceGenres(context, id, ids)
	if err != nil {
		return nil, err
	}

	service.cache.Invalidate(context)
	service.log(context).InfoContext(context, "series_genres_replaced", slog.String("id", id), slog.Int("count", len(ids)))

	return genres, nil
}

// ReplaceAuthors swaps the credit set of a series, de-duplicating by author and role.
func (service *Service) ReplaceAuthors(context context.Context, id string, inputs []CreditInput) ([]Credit, error) {
	validator := &validate.Validator{}
	credits := normalizeCredits(validator, inputs)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if _, err := service.repo.FindByID(context, id); err != nil {
		return nil, err
	}

	stored, err := service.repo.ReplaceAuthors(context, id, credits)
	if err != nil {
		return nil, err
	}

	service.cache.Invalidate(context)
	service.log(context).InfoContext(context, "series_authors_replaced", slog.String("id", id), slog.Int("count", len(credits)))

	return stored, nil
}

// RecordView increments the view counter of a series.
func (service *Service) RecordView(context context.Context, id string) (int64, error) {
	return service.repo.IncrementViews(context, id)
}

// # Cover Management

/*
UpdateCover replaces the cover image of a series.

Description: The new object is uploaded first and the row patched second.
On success the previous object is removed best-effort; if the patch fails
the new object is removed instead and the error returned.

Parameters:
  - context: context.Context
  - id: string
  - data: []byte (raw upload)

Returns:
  - *Series: the row with the new cover
  - error: Validation, NotFound, upload or storage errors
*/
func (service *Service) UpdateCover(context context.Context, id string, data []byte) (*Series, error) {
	prepared, err := prepareCover(data)
	if err != nil {
		return nil, err
	}

	// 1. Existence check
	current, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	// 2. Upload
	object, err := service.uploadCover(context, id, prepared)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("series: upload cover: %w", err))
	}

	// 3. Patch the row
	updated, err := service.repo.Update(context, id, coverChanges(&object))
	if err != nil {
		service.cleaner.Remove(context, service.buckets.Covers, []string{object.Path}, "update_cover_rollback")
		return nil, err
	}

	// 4. Drop the previous object
	if old, ok := storage.ResolvePath(current.CoverStoragePath, current.CoverImageURL, service.buckets.Covers); ok && old != object.Path {
		service.cleaner.Remove(context, service.buckets.Covers, []string{old}, "update_cover")
	}

	service.cache.Invalidate(context)
	service.log(context).InfoContext(context, "series_cover_updated", slog.String("id", id), slog.String("path", object.Path))

	return updated, nil
}

// RemoveCover clears the cover columns, then removes the old object best-effort.
func (service *Service) RemoveCover(context context.Context, id string) (*Series, error) {
	current, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	updated, err := service.repo.Update(context, id, coverChanges(nil))
	if err != nil {
		return nil, err
	}

	if old, ok := storage.ResolvePath(current.CoverStoragePath, current.CoverImageURL, service.buckets.Covers); ok {
		service.cleaner.Remove(context, service.buckets.Covers, []string{old}, "remove_cover")
	}

	service.cache.Invalidate(context)
	service.log(context).InfoContext(context, "series_cover_removed", slog.String("id", id))

	return updated, nil
}

// # Deletion

/*
DeleteSeries removes a series and everything below it.

Description: Image paths are collected before the row goes away because the
database cascade drops the chapter_image rows with it. Storage cleanup runs
after the commit and never fails the request.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: NotFound or storage errors from the database
*/
func (service *Service) DeleteSeries(context context.Context, id string) error {
	// 1. Existence check
	current, err := service.repo.FindByID(context, id)
	if err != nil {
		return err
	}

	// 2. Collect page objects
	images, err := service.repo.ChapterImages(context, id)
	if err != nil {
		return err
	}
	paths := slice.FilterMap(images, func(image StoredImage) (string, bool) {
		return storage.ResolvePath(image.Path, &image.URL, service.buckets.Chapters)
	})

	// 3. Cascade delete
	if err := service.repo.Delete(context, id); err != nil {
		return err
	}
	service.cache.Invalidate(context)

	// 4. Best-effort storage cleanup
	removed := service.cleaner.Remove(context, service.buckets.Chapters, paths, "delete_series")
	if cover, ok := storage.ResolvePath(current.CoverStoragePath, current.CoverImageURL, service.buckets.Covers); ok {
		service.cleaner.Remove(context, service.buckets.Covers, []string{cover}, "delete_series")
	}

	service.log(context).InfoContext(context, "series_deleted",
		slog.String("id", id),
		slog.Int("images", len(paths)),
		slog.Int("images_removed", removed),
	)
	return nil
}

// # Helpers

func (service *Service) ensureSlugFree(context context.Context, value, excludeID string) error {
	taken, err := service.repo.SlugTaken(context, value, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return ErrSlugInUse
	}
	return nil
}

func (service *Service) uploadCover(context context.Context, seriesID string, prepared []byte) (storage.Object, error) {
	name := storage.CoverObjectName(seriesID, service.now())
	return service.storage.Upload(context, service.buckets.Covers, name, bytes.NewReader(prepared), int64(len(prepared)), coverContentType)
}

func (service *Service) log(ctx context.Context) *slog.Logger {
	return ctxutil.LoggerOr(ctx, service.logger)
}

// prepareCover checks an upload and re-encodes it as a bounded WebP.
func prepareCover(data []byte) ([]byte, error) {
	contentType, err := storage.CheckImage(FieldCover, data)
	if err != nil {
		return nil, err
	}

	prepared, _, err := storage.PrepareCover(data, contentType)
	if err != nil {
		return nil, validate.FieldError(FieldCover, "Image could not be decoded")
	}
	return prepared, nil
}

// coverChanges points the cover columns at object, or clears them for nil.
func coverChanges(object *storage.Object) Changes {
	if object == nil {
		cleared := validate.Value{Set: true, Null: true}
		return Changes{CoverImageURL: cleared, CoverStoragePath: cleared}
	}
	return Changes{
		CoverImageURL:    validate.Value{Set: true, Text: object.URL},
		CoverStoragePath: validate.Value{Set: true, Text: object.Path},
	}
}

// optional turns a set-but-blank text field into an explicit null.
func optional(value validate.Value) validate.Value {
	if value.Set && !value.Null && value.Text == "" {
		return validate.Value{Set: true, Null: true}
	}
	return value
}

// normalizeGenreIDs trims, lowercases and de-duplicates genre ids.
func normalizeGenreIDs(validator *validate.Validator, raw []string) []string {
	ids := slice.FilterMap(raw, func(id string) (string, bool) {
		id = strings.ToLower(strings.TrimSpace(id))
		return id, id != ""
	})
	for _, id := range ids {
		validator.UUID(FieldGenreIDs, id)
	}
	return slice.Unique(ids)
}

// normalizeCredits defaults the role to Story and keeps the first of each (author, role) pair.
func normalizeCredits(validator *validate.Validator, inputs []CreditInput) []Credit {
	credits := make([]Credit, 0, len(inputs))
	seen := make(map[Credit]struct{}, len(inputs))

	for position, input := range inputs {
		field := fmt.Sprintf("%s[%d]", FieldAuthors, position)
		credit := Credit{AuthorID: strings.ToLower(strings.TrimSpace(input.AuthorID)), Role: RoleStory}
		if role := validate.NormalizeOptional(input.Role); role != nil {
			credit.Role = *role
		}

		validator.UUID(field+".author_id", credit.AuthorID)
		validator.OneOf(field+".role", credit.Role, RoleStory, RoleArt)

		if _, duplicate := seen[credit]; duplicate {
			continue
		}
		seen[credit] = struct{}{}
		credits = append(credits, credit)
	}
	return credits
}
