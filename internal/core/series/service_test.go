// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/komik/internal/core/series"
	"github.com/taibuivan/komik/internal/platform/apperr"
	"github.com/taibuivan/komik/internal/platform/cache"
	"github.com/taibuivan/komik/internal/platform/storage"
	"github.com/taibuivan/komik/internal/platform/storage/storagetest"
	"github.com/taibuivan/komik/internal/platform/validate"
	"github.com/taibuivan/komik/pkg/pagination"
	"github.com/taibuivan/komik/pkg/pointer"
)

const (
	genreAction   = "0190b8a0-0000-7000-8000-000000000001"
	genreDrama    = "0190b8a0-0000-7000-8000-000000000002"
	authorChugong = "0190b8a0-0000-7000-8000-0000000000a1"
	authorDubu    = "0190b8a0-0000-7000-8000-0000000000a2"
)

var buckets = storage.Buckets{Covers: "covers", Chapters: "chapters"}

// # In-memory repository

var errInjected = errors.New("injected failure")

type memoryRepository struct {
	mu          sync.Mutex
	rows        map[string]*series.Series
	images      map[string][]series.StoredImage
	failUpdates bool
	lastLimit   int
	lastFilter  series.Filter
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{rows: map[string]*series.Series{}, images: map[string][]series.StoredImage{}}
}

func (repo *memoryRepository) copyOf(row *series.Series) *series.Series {
	copied := *row
	copied.Genres = append([]series.Ref(nil), row.Genres...)
	copied.Authors = append([]series.Credit(nil), row.Authors...)
	return &copied
}

func (repo *memoryRepository) List(_ context.Context, filter series.Filter, page pagination.Params) ([]*series.Series, int, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.lastFilter = filter

	list := make([]*series.Series, 0)
	for _, row := range repo.rows {
		if filter.Status != "" && row.Status != filter.Status {
			continue
		}
		list = append(list, repo.copyOf(row))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })

	total := len(list)
	start := min(page.Offset(), total)
	end := min(start+page.Limit, total)
	return list[start:end], total, nil
}

func (repo *memoryRepository) FindByID(_ context.Context, id string) (*series.Series, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	row, ok := repo.rows[id]
	if !ok {
		return nil, apperr.NotFound("Series")
	}
	return repo.copyOf(row), nil
}

func (repo *memoryRepository) FindBySlug(_ context.Context, slug string) (*series.Series, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, row := range repo.rows {
		if row.Slug == slug {
			return repo.copyOf(row), nil
		}
	}
	return nil, apperr.NotFound("Series")
}

func (repo *memoryRepository) SlugTaken(_ context.Context, slug, excludeID string) (bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for id, row := range repo.rows {
		if row.Slug == slug && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *memoryRepository) Create(_ context.Context, row *series.Series, genreIDs []string, credits []series.Credit) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	row.CreatedAt, row.UpdatedAt = time.Now(), time.Now()
	stored := repo.copyOf(row)
	for _, id := range genreIDs {
		stored.Genres = append(stored.Genres, series.Ref{ID: id})
	}
	stored.Authors = append(stored.Authors, credits...)
	repo.rows[row.ID] = stored
	return nil
}

func (repo *memoryRepository) Update(_ context.Context, id string, changes series.Changes) (*series.Series, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if repo.failUpdates {
		return nil, apperr.Internal(errInjected)
	}
	row, ok := repo.rows[id]
	if !ok {
		return nil, apperr.NotFound("Series")
	}

	text := func(value validate.Value, target *string) {
		if value.Set {
			*target = value.Text
		}
	}
	optional := func(value validate.Value, target **string) {
		if value.Set {
			*target = value.Ptr()
		}
	}

	text(changes.Title, &row.Title)
	text(changes.Slug, &row.Slug)
	text(changes.Status, &row.Status)
	optional(changes.AlternativeTitle, &row.AlternativeTitle)
	optional(changes.Description, &row.Description)
	optional(changes.FormatID, &row.FormatID)
	optional(changes.CoverImageURL, &row.CoverImageURL)
	optional(changes.CoverStoragePath, &row.CoverStoragePath)
	row.UpdatedAt = time.Now()

	return repo.copyOf(row), nil
}

func (repo *memoryRepository) Delete(_ context.Context, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.rows[id]; !ok {
		return apperr.NotFound("Series")
	}
	delete(repo.rows, id)
	delete(repo.images, id)
	return nil
}

func (repo *memoryRepository) ReplaceGenres(_ context.Context, id string, genreIDs []string) ([]series.Ref, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	refs := make([]series.Ref, 0, len(genreIDs))
	for _, genreID := range genreIDs {
		refs = append(refs, series.Ref{ID: genreID})
	}
	repo.rows[id].Genres = refs
	return refs, nil
}

func (repo *memoryRepository) ReplaceAuthors(_ context.Context, id string, credits []series.Credit) ([]series.Credit, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.rows[id].Authors = append([]series.Credit(nil), credits...)
	return credits, nil
}

func (repo *memoryRepository) IncrementViews(_ context.Context, id string) (int64, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	row, ok := repo.rows[id]
	if !ok {
		return 0, apperr.NotFound("Series")
	}
	row.ViewCount++
	return row.ViewCount, nil
}

func (repo *memoryRepository) ChapterImages(_ context.Context, seriesID string) ([]series.StoredImage, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return append([]series.StoredImage(nil), repo.images[seriesID]...), nil
}

func (repo *memoryRepository) ReaderView(_ context.Context, seriesSlug, _ string) (*series.ReaderView, error) {
	return nil, apperr.NotFound("Chapter")
}

func (repo *memoryRepository) LatestUpdates(_ context.Context, limit int) ([]*series.Update, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.lastLimit = limit
	return []*series.Update{}, nil
}

// # Helpers

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newService(repo series.Repository, objects storage.ObjectStorage) *series.Service {
	listings := cache.New(cache.NewMemoryBackend(), time.Minute, quietLogger)
	return series.NewService(repo, objects, buckets, listings, quietLogger)
}

func patchOf(t *testing.T, body string) validate.Patch {
	t.Helper()
	patch, err := validate.DecodePatch(strings.NewReader(body))
	require.NoError(t, err)
	return patch
}

func status(err error) int {
	if appError := apperr.As(err); appError != nil {
		return appError.HTTPStatus
	}
	return 0
}

func summary(err error) string {
	if appError := apperr.As(err); appError != nil {
		return appError.Summary()
	}
	return ""
}

func pngImage(t *testing.T, width, height int) []byte {
	t.Helper()
	var buffer bytes.Buffer
	require.NoError(t, png.Encode(&buffer, image.NewRGBA(image.Rect(0, 0, width, height))))
	return buffer.Bytes()
}

func soloLeveling() series.CreateInput {
	return series.CreateInput{Title: "Solo Leveling", Slug: "solo-leveling"}
}

// # Creation

func TestCreateSeries_DefaultsAndRelations(t *testing.T) {
	service := newService(newMemoryRepository(), storagetest.NewMemory())

	input := soloLeveling()
	input.Description = pointer.To("  ")
	input.FormatID = pointer.To("undefined")
	input.GenreIDs = []string{genreAction, strings.ToUpper(genreAction), genreDrama, " "}
	input.Authors = []series.CreditInput{
		{AuthorID: authorChugong},
		{AuthorID: authorChugong, Role: pointer.To(series.RoleStory)},
		{AuthorID: authorChugong, Role: pointer.To(series.RoleArt)},
		{AuthorID: authorDubu, Role: pointer.To(series.RoleArt)},
	}

	created, err := service.CreateSeries(context.Background(), input, nil)
	require.NoError(t, err)

	assert.Equal(t, series.StatusOngoing, created.Status)
	assert.Nil(t, created.Description)
	assert.Nil(t, created.FormatID)
	assert.Len(t, created.Genres, 2)
	assert.Equal(t, []series.Credit{
		{AuthorID: authorChugong, Role: series.RoleStory},
		{AuthorID: authorChugong, Role: series.RoleArt},
		{AuthorID: authorDubu, Role: series.RoleArt},
	}, created.Authors)
}

func TestCreateSeries_AutoSlug(t *testing.T) {
	service := newService(newMemoryRepository(), storagetest.NewMemory())

	created, err := service.CreateSeries(context.Background(), series.CreateInput{Title: "Tensei Shitara!", AutoSlug: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, "tensei-shitara", created.Slug)
}

func TestCreateSeries_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*series.CreateInput)
		message string
	}{
		{"missing title", func(in *series.CreateInput) { in.Title = " " }, "title: This field is required"},
		{"missing slug", func(in *series.CreateInput) { in.Slug = "" }, "slug: This field is required"},
		{"slug with space", func(in *series.CreateInput) { in.Slug = "solo leveling" }, "slug: Must not contain spaces"},
		{"long title", func(in *series.CreateInput) { in.Title = strings.Repeat("x", 256) }, "title: Maximum 255 characters"},
		{"unknown status", func(in *series.CreateInput) { in.Status = pointer.To("Paused") }, "status: Must be one of: Ongoing, Completed, Hiatus, Cancelled"},
		{"malformed format", func(in *series.CreateInput) { in.FormatID = pointer.To("manga") }, "format_id: Must be a valid UUID"},
		{"malformed genre", func(in *series.CreateInput) { in.GenreIDs = []string{"action"} }, "genre_ids: Must be a valid UUID"},
		{"unknown role", func(in *series.CreateInput) {
			in.Authors = []series.CreditInput{{AuthorID: authorDubu, Role: pointer.To("Letters")}}
		}, "authors[0].role: Must be one of: Story, Art"},
		{"relative cover url", func(in *series.CreateInput) { in.CoverImageURL = pointer.To("/covers/a.webp") }, "cover_image_url: Must be a valid URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemoryRepository()
			service := newService(repo, storagetest.NewMemory())

			input := soloLeveling()
			tt.mutate(&input)

			_, err := service.CreateSeries(context.Background(), input, nil)
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, status(err))
			assert.Equal(t, tt.message, summary(err))
			assert.Empty(t, repo.rows)
		})
	}
}

func TestCreateSeries_DuplicateSlugConflicts(t *testing.T) {
	service := newService(newMemoryRepository(), storagetest.NewMemory())

	_, err := service.CreateSeries(context.Background(), soloLeveling(), nil)
	require.NoError(t, err)

	_, err = service.CreateSeries(context.Background(), soloLeveling(), nil)
	assert.Equal(t, http.StatusConflict, status(err))
	assert.Equal(t, "Slug is already in use", err.Error())
}

func TestCreateSeries_CoverURLKeepsStoragePath(t *testing.T) {
	repo := newMemoryRepository()
	service := newService(repo, storagetest.NewMemory())

	input := soloLeveling()
	input.CoverImageURL = pointer.To("https://cdn.test/covers/legacy/solo.webp?v=2")

	created, err := service.CreateSeries(context.Background(), input, nil)
	require.NoError(t, err)
	assert.Equal(t, "legacy/solo.webp", pointer.Val(repo.rows[created.ID].CoverStoragePath))
}

func TestCreateSeries_UploadsCover(t *testing.T) {
	objects := storagetest.NewMemory()
	service := newService(newMemoryRepository(), objects)

	created, err := service.CreateSeries(context.Background(), soloLeveling(), pngImage(t, 40, 60))
	require.NoError(t, err)

	require.NotNil(t, created.CoverImageURL)
	assert.True(t, strings.HasPrefix(*created.CoverImageURL, "https://cdn.test/covers/"+created.ID+"-"))
	assert.True(t, strings.HasSuffix(*created.CoverImageURL, ".webp"))
	assert.True(t, objects.Has("covers", pointer.Val(created.CoverStoragePath)))
}

func TestCreateSeries_RejectsBadCoverBeforeWriting(t *testing.T) {
	repo := newMemoryRepository()
	service := newService(repo, storagetest.NewMemory())

	_, err := service.CreateSeries(context.Background(), soloLeveling(), []byte("plain text, not an image"))
	assert.Equal(t, http.StatusBadRequest, status(err))
	assert.Equal(t, "cover: File type not allowed (JPEG, PNG, WebP only)", summary(err))
	assert.Empty(t, repo.rows)
}

func TestCreateSeries_CoverAttachFailureKeepsSeries(t *testing.T) {
	repo := newMemoryRepository()
	repo.failUpdates = true
	objects := storagetest.NewMemory()
	service := newService(repo, objects)

	created, err := service.CreateSeries(context.Background(), soloLeveling(), pngImage(t, 10, 10))
	require.NoError(t, err)

	assert.Nil(t, created.CoverImageURL)
	assert.Empty(t, objects.Keys(), "uploaded cover is removed again")
	assert.Len(t, objects.RemovedPaths("covers"), 1)
}

func TestCreateSeries_CoverUploadFailureKeepsSeries(t *testing.T) {
	objects := storagetest.NewMemory()
	objects.FailUploadsAfter = 0
	service := newService(newMemoryRepository(), objects)

	created, err := service.CreateSeries(context.Background(), soloLeveling(), pngImage(t, 10, 10))
	require.NoError(t, err)
	assert.Nil(t, created.CoverImageURL)
}

// # Updates

func TestUpdateSeries(t *testing.T) {
	setup := func(t *testing.T) (*series.Service, *series.Series) {
		service := newService(newMemoryRepository(), storagetest.NewMemory())
		created, err := service.CreateSeries(context.Background(), soloLeveling(), nil)
		require.NoError(t, err)
		return service, created
	}

	t.Run("only present fields change", func(t *testing.T) {
		service, created := setup(t)

		updated, err := service.UpdateSeries(context.Background(), created.ID, patchOf(t, `{"description":"Hunters","title":"undefined"}`))
		require.NoError(t, err)
		assert.Equal(t, "Solo Leveling", updated.Title)
		assert.Equal(t, "Hunters", pointer.Val(updated.Description))
		assert.Equal(t, created.Slug, updated.Slug)
	})

	t.Run("null clears optional fields", func(t *testing.T) {
		service, created := setup(t)

		_, err := service.UpdateSeries(context.Background(), created.ID, patchOf(t, `{"description":"Hunters"}`))
		require.NoError(t, err)

		updated, err := service.UpdateSeries(context.Background(), created.ID, patchOf(t, `{"description":null,"format_id":"null"}`))
		require.NoError(t, err)
		assert.Nil(t, updated.Description)
		assert.Nil(t, updated.FormatID)
	})

	t.Run("invalid status", func(t *testing.T) {
		service, created := setup(t)

		_, err := service.UpdateSeries(context.Background(), created.ID, patchOf(t, `{"status":"Paused"}`))
		assert.Equal(t, http.StatusBadRequest, status(err))
		assert.Equal(t, "status: Must be one of: Ongoing, Completed, Hiatus, Cancelled", summary(err))
	})

	t.Run("slug owned by another series", func(t *testing.T) {
		service, created := setup(t)
		_, err := service.CreateSeries(context.Background(), series.CreateInput{Title: "Omniscient Reader", Slug: "orv"}, nil)
		require.NoError(t, err)

		_, err = service.UpdateSeries(context.Background(), created.ID, patchOf(t, `{"slug":"orv"}`))
		assert.Equal(t, http.StatusConflict, status(err))
	})

	t.Run("empty body", func(t *testing.T) {
		service, created := setup(t)

		_, err := service.UpdateSeries(context.Background(), created.ID, patchOf(t, `{"title":"undefined"}`))
		assert.ErrorIs(t, err, validate.ErrNoFields)
	})

	t.Run("unknown id", func(t *testing.T) {
		service, _ := setup(t)

		_, err := service.UpdateSeries(context.Background(), genreAction, patchOf(t, `{"title":"X"}`))
		assert.Equal(t, http.StatusNotFound, status(err))
	})
}

func TestUpdateSeries_CoverURLRefreshesStoredPath(t *testing.T) {
	repo := newMemoryRepository()
	service := newService(repo, storagetest.NewMemory())
	created, err := service.CreateSeries(context.Background(), soloLeveling(), nil)
	require.NoError(t, err)

	_, err = service.UpdateSeries(context.Background(), created.ID, patchOf(t, `{"cover_image_url":"https://cdn.test/covers/new.webp"}`))
	require.NoError(t, err)
	assert.Equal(t, "new.webp", pointer.Val(repo.rows[created.ID].CoverStoragePath))

	_, err = service.UpdateSeries(context.Background(), created.ID, patchOf(t, `{"cover_image_url":""}`))
	require.NoError(t, err)
	assert.Nil(t, repo.rows[created.ID].CoverImageURL)
	assert.Nil(t, repo.rows[created.ID].CoverStoragePath)
}

func TestReplaceAuthors_DeduplicatesByAuthorAndRole(t *testing.T) {
	service := newService(newMemoryRepository(), storagetest.NewMemory())
	created, err := service.CreateSeries(context.Background(), soloLeveling(), nil)
	require.NoError(t, err)

	credits, err := service.ReplaceAuthors(context.Background(), created.ID, []series.CreditInput{
		{AuthorID: authorDubu, Role: pointer.To(series.RoleArt)},
		{AuthorID: strings.ToUpper(authorDubu), Role: pointer.To(series.RoleArt)},
		{AuthorID: authorDubu},
	})
	require.NoError(t, err)
	assert.Equal(t, []series.Credit{
		{AuthorID: authorDubu, Role: series.RoleArt},
		{AuthorID: authorDubu, Role: series.RoleStory},
	}, credits)

	_, err = service.ReplaceAuthors(context.Background(), genreDrama, nil)
	assert.Equal(t, http.StatusNotFound, status(err))
}

func TestReplaceGenres(t *testing.T) {
	service := newService(newMemoryRepository(), storagetest.NewMemory())
	created, err := service.CreateSeries(context.Background(), soloLeveling(), nil)
	require.NoError(t, err)

	genres, err := service.ReplaceGenres(context.Background(), created.ID, []string{genreDrama, genreDrama})
	require.NoError(t, err)
	assert.Len(t, genres, 1)

	_, err = service.ReplaceGenres(context.Background(), created.ID, []string{"drama"})
	assert.Equal(t, http.StatusBadRequest, status(err))
}

// # Covers

func TestUpdateCover_ReplacesAndRemovesPrevious(t *testing.T) {
	objects := storagetest.NewMemory()
	service := newService(newMemoryRepository(), objects)

	created, err := service.CreateSeries(context.Background(), soloLeveling(), pngImage(t, 10, 10))
	require.NoError(t, err)
	previous := pointer.Val(created.CoverStoragePath)
	require.NotEmpty(t, previous)

	updated, err := service.UpdateCover(context.Background(), created.ID, pngImage(t, 20, 30))
	require.NoError(t, err)

	assert.NotEqual(t, previous, pointer.Val(updated.CoverStoragePath))
	assert.False(t, objects.Has("covers", previous))
	assert.True(t, objects.Has("covers", pointer.Val(updated.CoverStoragePath)))
}

func TestUpdateCover_PatchFailureRemovesNewObject(t *testing.T) {
	repo := newMemoryRepository()
	objects := storagetest.NewMemory()
	service := newService(repo, objects)

	created, err := service.CreateSeries(context.Background(), soloLeveling(), nil)
	require.NoError(t, err)

	repo.failUpdates = true
	_, err = service.UpdateCover(context.Background(), created.ID, pngImage(t, 10, 10))
	require.Error(t, err)

	assert.Empty(t, objects.Keys())
	assert.Len(t, objects.RemovedPaths("covers"), 1)
}

func TestRemoveCover(t *testing.T) {
	objects := storagetest.NewMemory()
	service := newService(newMemoryRepository(), objects)

	created, err := service.CreateSeries(context.Background(), soloLeveling(), pngImage(t, 10, 10))
	require.NoError(t, err)

	updated, err := service.RemoveCover(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Nil(t, updated.CoverImageURL)
	assert.Empty(t, objects.Keys())
}

// # Deletion

func TestDeleteSeries_RemovesStoredObjects(t *testing.T) {
	repo := newMemoryRepository()
	objects := storagetest.NewMemory()
	service := newService(repo, objects)

	created, err := service.CreateSeries(context.Background(), soloLeveling(), pngImage(t, 10, 10))
	require.NoError(t, err)

	objects.Put("chapters", "c1-1.webp")
	objects.Put("chapters", "c1-2.webp")
	repo.images[created.ID] = []series.StoredImage{
		{URL: "https://cdn.test/chapters/c1-1.webp", Path: pointer.To("c1-1.webp")},
		{URL: "https://cdn.test/chapters/c1-2.webp"},
		{URL: "https://elsewhere.test/unknown.webp"},
	}

	require.NoError(t, service.DeleteSeries(context.Background(), created.ID))

	assert.ElementsMatch(t, []string{"c1-1.webp", "c1-2.webp"}, objects.RemovedPaths("chapters"))
	assert.Len(t, objects.RemovedPaths("covers"), 1)
	assert.Empty(t, objects.Keys())

	_, err = service.Get(context.Background(), created.ID)
	assert.Equal(t, http.StatusNotFound, status(err))
}

func TestDeleteSeries_StorageFailureDoesNotFail(t *testing.T) {
	repo := newMemoryRepository()
	objects := storagetest.NewMemory()
	service := newService(repo, objects)

	created, err := service.CreateSeries(context.Background(), soloLeveling(), nil)
	require.NoError(t, err)
	repo.images[created.ID] = []series.StoredImage{{URL: "https://cdn.test/chapters/a.webp", Path: pointer.To("a.webp")}}

	objects.FailRemoves = true
	assert.NoError(t, service.DeleteSeries(context.Background(), created.ID))
	assert.Len(t, objects.Removes(), 1)
}

func TestDeleteSeries_NotFound(t *testing.T) {
	objects := storagetest.NewMemory()
	service := newService(newMemoryRepository(), objects)

	err := service.DeleteSeries(context.Background(), genreAction)
	assert.Equal(t, http.StatusNotFound, status(err))
	assert.Empty(t, objects.Removes())
}

// # Reads

func TestList_CachedUntilMutation(t *testing.T) {
	service := newService(newMemoryRepository(), storagetest.NewMemory())
	page := pagination.New(1, 20)

	first, err := service.List(context.Background(), series.Filter{}, page)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Total)

	_, err = service.CreateSeries(context.Background(), soloLeveling(), nil)
	require.NoError(t, err)

	second, err := service.List(context.Background(), series.Filter{}, page)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Total)
}

func TestList_DeduplicatesGenreFilter(t *testing.T) {
	repo := newMemoryRepository()
	service := newService(repo, storagetest.NewMemory())

	_, err := service.List(context.Background(), series.Filter{Genres: []string{"action", "drama", "action"}}, pagination.New(1, 20))
	require.NoError(t, err)
	assert.Equal(t, []string{"action", "drama"}, repo.lastFilter.Genres)
}

func TestLatestUpdates_ClampsLimit(t *testing.T) {
	tests := []struct {
		requested int
		expected  int
	}{
		{0, 10},
		{-4, 10},
		{25, 25},
		{500, 100},
	}

	for _, tt := range tests {
		repo := newMemoryRepository()
		service := newService(repo, storagetest.NewMemory())

		_, err := service.LatestUpdates(context.Background(), tt.requested)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, repo.lastLimit, "requested %d", tt.requested)
	}
}

func TestRecordView(t *testing.T) {
	service := newService(newMemoryRepository(), storagetest.NewMemory())
	created, err := service.CreateSeries(context.Background(), soloLeveling(), nil)
	require.NoError(t, err)

	views, err := service.RecordView(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), views)
}
