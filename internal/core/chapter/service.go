// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package chapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/taibuivan/komik/internal/platform/apperr"
	"github.com/taibuivan/komik/internal/platform/cache"
	"github.com/taibuivan/komik/internal/platform/constants"
	"github.com/taibuivan/komik/internal/platform/ctxutil"
	"github.com/taibuivan/komik/internal/platform/storage"
	"github.com/taibuivan/komik/internal/platform/validate"
	"github.com/taibuivan/komik/pkg/chapterindex"
	"github.com/taibuivan/komik/pkg/pagination"
	"github.com/taibuivan/komik/pkg/slice"
	"github.com/taibuivan/komik/pkg/slug"
	"github.com/taibuivan/komik/pkg/uuid"
)

// # Service Layer

// Service orchestrates chapter workflows across the database and the object store.
type Service struct {
	repo    Repository
	storage storage.ObjectStorage
	cleaner *storage.Cleaner
	buckets storage.Buckets
	cache   *cache.Cache
	logger  *slog.Logger
	now     func() time.Time
}

// NewService constructs a chapter [Service]. listings may be nil.
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

// List returns one cached page of chapters, optionally restricted to a series.
func (service *Service) List(ctx context.Context, seriesID string, page pagination.Params) (pagination.Result[*Chapter], error) {
	seriesID = strings.ToLower(strings.TrimSpace(seriesID))
	if seriesID != "" && !validate.IsUUID(seriesID) {
		return pagination.Result[*Chapter]{}, validate.FieldError(FieldSeriesID, "Must be a valid UUID")
	}

	key := []string{"chapter", "list", seriesID, strconv.Itoa(page.Page), strconv.Itoa(page.Limit)}

	return cache.Remember(ctx, service.cache, key, func(ctx context.Context) (pagination.Result[*Chapter], error) {
		chapters, total, err := service.repo.List(ctx, seriesID, page)
		return pagination.Result[*Chapter]{Items: chapters, Total: total}, err
	})
}

// Get retrieves one chapter.
func (service *Service) Get(context context.Context, id string) (*Chapter, error) {
	return service.repo.FindByID(context, id)
}

// Images lists the pages of an existing chapter.
func (service *Service) Images(context context.Context, id string) ([]*Image, error) {
	if _, err := service.repo.FindByID(context, id); err != nil {
		return nil, err
	}
	return service.repo.Images(context, id)
}

// # Creation

/*
CreateChapter validates and persists a chapter, then its images if any were sent.

Description: The index is derived from chapter_number and the slug from the
series slug read at this moment. published_at defaults to now.

Parameters:
  - context: context.Context
  - input: CreateInput

Returns:
  - *Chapter: the stored chapter, with Images when pages were sent
  - error: Validation, NotFound (series), Conflict on a duplicate number, storage errors
*/
func (service *Service) CreateChapter(context context.Context, input CreateInput) (*Chapter, error) {
	validator := &validate.Validator{}

	// 1. Normalise and validate
	chapter := &Chapter{
		ID:            uuid.New(),
		SeriesID:      strings.ToLower(strings.TrimSpace(input.SeriesID)),
		ChapterNumber: strings.TrimSpace(input.ChapterNumber),
		Title:         validate.NormalizeOptional(input.Title),
		PublishedAt:   service.now().UTC(),
	}
	if input.PublishedAt != nil {
		chapter.PublishedAt = input.PublishedAt.UTC()
	}

	validator.Required(FieldSeriesID, chapter.SeriesID).UUID(FieldSeriesID, chapter.SeriesID)
	validator.Required(FieldChapterNumber, chapter.ChapterNumber).MaxLen(FieldChapterNumber, chapter.ChapterNumber, MaxChapterNumberLength)
	if chapter.Title != nil {
		validator.MaxLen(FieldTitle, *chapter.Title, MaxTitleLength)
	}
	images := service.resolveImages(validator, input.Images)

	if err := validator.Err(); err != nil {
		return nil, err
	}

	// 2. Derive index and slug
	if err := service.derive(context, chapter.SeriesID, chapter.ChapterNumber, &chapter.Slug, &chapter.Index); err != nil {
		return nil, err
	}

	// 3. Persist
	if err := service.repo.Create(context, chapter); err != nil {
		return nil, err
	}

	service.cache.Invalidate(context)
	service.log(context).InfoContext(context, "chapter_created",
		slog.String("id", chapter.ID),
		slog.String("series_id", chapter.SeriesID),
		slog.String("chapter_number", chapter.ChapterNumber),
		slog.Float64("index", chapter.Index),
	)

	// 4. Pages
	if len(images) > 0 {
		stored, err := service.replace(context, chapter.ID, nil, images, "create_chapter")
		if err != nil {
			return nil, err
		}
		chapter.Images = stored
	}

	return chapter, nil
}

// # Updates

/*
UpdateChapter applies a partial update and optionally replaces the pages.

Description: A changed chapter_number recomputes both the index and the slug,
reading the series slug fresh. An "images" key replaces the page list exactly
like [Service.SaveImages].

Parameters:
  - context: context.Context
  - id: string
  - patch: validate.Patch

Returns:
  - *Chapter: the row after the update
  - error: Validation, NotFound, Conflict or storage errors
*/
func (service *Service) UpdateChapter(context context.Context, id string, patch validate.Patch) (*Chapter, error) {
	validator := &validate.Validator{}
	changes := Changes{}

	// 1. Collect present fields
	if changes.ChapterNumber = patch.String(validator, FieldChapterNumber); changes.ChapterNumber.Set {
		validator.Required(FieldChapterNumber, changes.ChapterNumber.Text).
			MaxLen(FieldChapterNumber, changes.ChapterNumber.Text, MaxChapterNumberLength)
	}
	if changes.Title = patch.String(validator, FieldTitle); changes.Title.Set {
		if changes.Title.Text == "" {
			changes.Title.Null = true
		}
		validator.MaxLen(FieldTitle, changes.Title.Text, MaxTitleLength)
	}
	if published := patch.String(validator, FieldPublishedAt); published.Set {
		parsed, err := time.Parse(time.RFC3339, published.Text)
		validator.Custom(FieldPublishedAt, published.Null || err != nil, "Must be an RFC 3339 timestamp")
		if err == nil {
			parsed = parsed.UTC()
			changes.PublishedAt = &parsed
		}
	}

	var images []*Image
	replaceImages := patch.Has(FieldImages)
	if replaceImages {
		var inputs []ImageInput
		if err := json.Unmarshal(patch[FieldImages], &inputs); err != nil {
			validator.Custom(FieldImages, true, "Must be a list of images")
		}
		images = service.resolveImages(validator, inputs)
	}

	if err := validator.Err(); err != nil {
		return nil, err
	}
	if changes.Empty() && !replaceImages {
		return nil, validate.ErrNoFields
	}

	// 2. Existence check
	current, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	// 3. Recompute derived columns
	if changes.ChapterNumber.Set {
		var derivedSlug string
		var derivedIndex float64
		if err := service.derive(context, current.SeriesID, changes.ChapterNumber.Text, &derivedSlug, &derivedIndex); err != nil {
			return nil, err
		}
		changes.Slug, changes.Index = &derivedSlug, &derivedIndex
	}

	// 4. Persist
	updated, err := service.repo.Update(context, id, changes)
	if err != nil {
		return nil, err
	}
	service.cache.Invalidate(context)
	service.log(context).InfoContext(context, "chapter_updated", slog.String("id", id), slog.Float64("index", updated.Index))

	if replaceImages {
		previous, err := service.repo.Images(context, id)
		if err != nil {
			return nil, err
		}
		if updated.Images, err = service.replace(context, id, previous, images, "update_chapter"); err != nil {
			return nil, err
		}
	}

	return updated, nil
}

// # Deletion

// DeleteChapter removes a chapter and then, best-effort, its stored page objects.
func (service *Service) DeleteChapter(context context.Context, id string) error {
	// 1. Existence check
	if _, err := service.repo.FindByID(context, id); err != nil {
		return err
	}

	// 2. Collect page objects before the cascade drops them
	images, err := service.repo.Images(context, id)
	if err != nil {
		return err
	}
	paths := service.paths(images)

	// 3. Delete
	if err := service.repo.Delete(context, id); err != nil {
		return err
	}
	service.cache.Invalidate(context)

	// 4. Best-effort storage cleanup
	paths = service.unshared(context, id, paths, "delete_chapter")
	removed := service.cleaner.Remove(context, service.buckets.Chapters, paths, "delete_chapter")

	service.log(context).InfoContext(context, "chapter_deleted",
		slog.String("id", id),
		slog.Int("images", len(paths)),
		slog.Int("images_removed", removed),
	)
	return nil
}

// # Page Management

/*
SaveImages replaces the pages of a chapter with a list of already stored URLs.

Description: Pages are ordered by page_number (list position when absent)
and stored densely as 1..N. Sending the same
list twice leaves the chapter unchanged. Objects of pages that are no longer
referenced are removed best-effort.

Parameters:
  - context: context.Context
  - id: string
  - inputs: []ImageInput

Returns:
  - []*Image: the stored pages
  - error: Validation, NotFound or storage errors
*/
func (service *Service) SaveImages(context context.Context, id string, inputs []ImageInput) ([]*Image, error) {
	validator := &validate.Validator{}
	images := service.resolveImages(validator, inputs)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if _, err := service.repo.FindByID(context, id); err != nil {
		return nil, err
	}

	previous, err := service.repo.Images(context, id)
	if err != nil {
		return nil, err
	}

	return service.replace(context, id, previous, images, "save_images")
}

/*
SavePages replaces the pages of a chapter from an ordered mix of kept pages and new files.

Description: Every new file is checked before anything is uploaded. Uploads
then run in order; if one fails, or the database replace fails, the objects
uploaded by this call are removed best-effort and the error is returned.

Parameters:
  - context: context.Context
  - id: string
  - sources: []Source (reading order)

Returns:
  - []*Image: the stored pages
  - error: Validation, NotFound, upload or storage errors
*/
func (service *Service) SavePages(context context.Context, id string, sources []Source) ([]*Image, error) {
	validator := &validate.Validator{}
	validator.Custom(FieldPages, len(sources) > constants.MaxPagesPerChapter,
		fmt.Sprintf("Maximum %d pages", constants.MaxPagesPerChapter))

	// 1. Check every source
	type pending struct {
		contentType string
		dimensions  storage.Dimensions
	}
	files := make(map[int]pending)

	for position, source := range sources {
		field := fmt.Sprintf("%s[%d]", FieldPages, position)

		if source.File == nil {
			validator.URL(field, strings.TrimSpace(source.ExistingURL))
			continue
		}

		contentType, err := storage.CheckImage(field, source.File)
		if err != nil {
			return nil, err
		}
		dimensions, err := storage.Inspect(source.File, contentType)
		if err != nil {
			return nil, validate.FieldError(field, "Image could not be decoded")
		}
		files[position] = pending{contentType: contentType, dimensions: dimensions}
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	// 2. Existence check
	if _, err := service.repo.FindByID(context, id); err != nil {
		return nil, err
	}
	previous, err := service.repo.Images(context, id)
	if err != nil {
		return nil, err
	}
	known := make(map[string]*Image, len(previous))
	for _, image := range previous {
		known[image.ImageURL] = image
	}

	// 3. Upload new files in order
	var uploaded []string
	images := make([]*Image, 0, len(sources))

	for position, source := range sources {
		page := position + 1

		if source.File == nil {
			url := strings.TrimSpace(source.ExistingURL)
			image := &Image{ImageURL: url, PageNumber: page}
			if existing, ok := known[url]; ok {
				image.StoragePath, image.Width, image.Height = existing.StoragePath, existing.Width, existing.Height
			} else if path, ok := storage.ExtractPath(url, service.buckets.Chapters); ok {
				image.StoragePath = &path
			}
			images = append(images, image)
			continue
		}

		file := files[position]
		name := storage.PageObjectName(id, page, storage.Extension(file.contentType), service.now())

		object, err := service.storage.Upload(context, service.buckets.Chapters, name,
			bytes.NewReader(source.File), int64(len(source.File)), file.contentType)
		if err != nil {
			service.cleaner.Remove(context, service.buckets.Chapters, uploaded, "save_pages_rollback")
			service.log(context).WarnContext(context, "chapter_page_upload_failed",
				slog.String("id", id), slog.Int("page", page), slog.Any("error", err))
			return nil, apperr.Internal(fmt.Errorf("chapter: upload page %d: %w", page, err))
		}
		uploaded = append(uploaded, object.Path)

		width, height := file.dimensions.Width, file.dimensions.Height
		images = append(images, &Image{
			ImageURL:    object.URL,
			StoragePath: &object.Path,
			PageNumber:  page,
			Width:       &width,
			Height:      &height,
		})
	}

	// 4. Replace
	stored, err := service.replace(context, id, previous, images, "save_pages")
	if err != nil {
		service.cleaner.Remove(context, service.buckets.Chapters, uploaded, "save_pages_rollback")
		return nil, err
	}
	return stored, nil
}

/*
UploadPage stores one page file without touching the chapter's page list.

Description: Clients upload pages one at a time and then send the resulting
URLs to [Service.SaveImages].

Parameters:
  - context: context.Context
  - chapterID: string
  - pageNumber: int (1-based)
  - data: []byte

Returns:
  - storage.Object: path and public URL of the stored file
  - error: Validation, NotFound or upload errors
*/
func (service *Service) UploadPage(context context.Context, chapterID string, pageNumber int, data []byte) (storage.Object, error) {
	validator := &validate.Validator{}
	validator.UUID(FieldChapterID, chapterID)
	validator.Custom(FieldPageNumber, pageNumber < 1, "Must be a positive integer")
	if err := validator.Err(); err != nil {
		return storage.Object{}, err
	}

	contentType, err := storage.CheckImage(FieldFile, data)
	if err != nil {
		return storage.Object{}, err
	}

	if _, err := service.repo.FindByID(context, chapterID); err != nil {
		return storage.Object{}, err
	}

	name := storage.PageObjectName(chapterID, pageNumber, storage.Extension(contentType), service.now())
	object, err := service.storage.Upload(context, service.buckets.Chapters, name, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		return storage.Object{}, apperr.Internal(fmt.Errorf("chapter: upload page: %w", err))
	}

	service.log(context).InfoContext(context, "chapter_page_uploaded",
		slog.String("chapter_id", chapterID), slog.Int("page", pageNumber), slog.String("path", object.Path))

	return object, nil
}

// RecordView increments the view counter of a chapter.
func (service *Service) RecordView(context context.Context, id string) (int64, error) {
	return service.repo.IncrementViews(context, id)
}

// # Helpers

// derive reads the series slug and computes the slug and index for chapterNumber.
func (service *Service) derive(context context.Context, seriesID, chapterNumber string, slugOut *string, indexOut *float64) error {
	seriesSlug, err := service.repo.SeriesSlug(context, seriesID)
	if err != nil {
		return err
	}

	derived := slug.Chapter(seriesSlug, chapterNumber)
	validator := &validate.Validator{}
	if err := validator.MaxLen(FieldSlug, derived, MaxSlugLength).Err(); err != nil {
		return err
	}

	*slugOut = derived
	*indexOut = chapterindex.Derive(chapterNumber)
	return nil
}

// resolveImages validates JSON image inputs, orders them by page_number and
// renumbers them 1..N.
func (service *Service) resolveImages(validator *validate.Validator, inputs []ImageInput) []*Image {
	validator.Custom(FieldImages, len(inputs) > constants.MaxPagesPerChapter,
		fmt.Sprintf("Maximum %d pages", constants.MaxPagesPerChapter))

	images := make([]*Image, 0, len(inputs))
	seen := make(map[int]struct{}, len(inputs))
	for position, input := range inputs {
		field := fmt.Sprintf("%s[%d]", FieldImages, position)
		url := strings.TrimSpace(input.ImageURL)

		validator.Required(field+"."+FieldImageURL, url)
		if url != "" {
			validator.URL(field+"."+FieldImageURL, url)
		}
		validator.Custom(field+".width", input.Width != nil && *input.Width <= 0, "Must be a positive integer")
		validator.Custom(field+".height", input.Height != nil && *input.Height <= 0, "Must be a positive integer")

		page := position + 1
		if input.PageNumber != nil {
			page = *input.PageNumber
		}
		_, duplicate := seen[page]
		validator.Custom(field+"."+FieldPageNumber, page <= 0, "Must be a positive integer")
		validator.Custom(field+"."+FieldPageNumber, page > 0 && duplicate, "Duplicate page number")
		seen[page] = struct{}{}

		image := &Image{ImageURL: url, PageNumber: page, Width: input.Width, Height: input.Height}
		if path, ok := storage.ExtractPath(url, service.buckets.Chapters); ok {
			image.StoragePath = &path
		}
		images = append(images, image)
	}

	sort.SliceStable(images, func(i, j int) bool { return images[i].PageNumber < images[j].PageNumber })
	for position, image := range images {
		image.PageNumber = position + 1
	}
	return images
}

// replace swaps the page list and removes objects the new list no longer references.
func (service *Service) replace(context context.Context, chapterID string, previous, next []*Image, operation string) ([]*Image, error) {
	stored, err := service.repo.ReplaceImages(context, chapterID, next)
	if err != nil {
		return nil, err
	}
	service.cache.Invalidate(context)

	keep := make(map[string]struct{}, len(next))
	for _, path := range service.paths(next) {
		keep[path] = struct{}{}
	}
	dropped := slice.FilterMap(service.paths(previous), func(path string) (string, bool) {
		_, kept := keep[path]
		return path, !kept
	})
	dropped = service.unshared(context, chapterID, dropped, operation)
	service.cleaner.Remove(context, service.buckets.Chapters, dropped, operation)

	service.log(context).InfoContext(context, "chapter_images_replaced",
		slog.String("id", chapterID),
		slog.Int("pages", len(stored)),
		slog.Int("dropped", len(dropped)),
	)
	return stored, nil
}

// unshared drops the paths another chapter still shows. When that cannot be
// checked nothing is removed; the reaper collects what is left behind.
func (service *Service) unshared(context context.Context, chapterID string, paths []string, operation string) []string {
	if len(paths) == 0 {
		return nil
	}

	shared, err := service.repo.SharedPaths(context, chapterID, paths)
	if err != nil {
		service.log(context).WarnContext(context, "storage_cleanup_skipped",
			slog.String("bucket", service.buckets.Chapters),
			slog.Any("paths", paths),
			slog.String("operation", operation),
			slog.Any("error", err),
		)
		return nil
	}

	inUse := make(map[string]struct{}, len(shared))
	for _, path := range shared {
		inUse[path] = struct{}{}
	}
	return slice.FilterMap(paths, func(path string) (string, bool) {
		_, used := inUse[path]
		return path, !used
	})
}

// paths resolves the stored object path of each image, skipping unknown ones.
func (service *Service) paths(images []*Image) []string {
	return slice.FilterMap(images, func(image *Image) (string, bool) {
		return storage.ResolvePath(image.StoragePath, &image.ImageURL, service.buckets.Chapters)
	})
}

func (service *Service) log(ctx context.Context) *slog.Logger {
	return ctxutil.LoggerOr(ctx, service.logger)
}
