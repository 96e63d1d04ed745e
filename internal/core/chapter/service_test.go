// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package chapter_test

import (
	"bytes"
	"context"
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

	"github.com/taibuivan/komik/internal/core/chapter"
	"github.com/taibuivan/komik/internal/platform/apperr"
	"github.com/taibuivan/komik/internal/platform/cache"
	"github.com/taibuivan/komik/internal/platform/storage"
	"github.com/taibuivan/komik/internal/platform/storage/storagetest"
	"github.com/taibuivan/komik/internal/platform/validate"
	"github.com/taibuivan/komik/pkg/pagination"
	"github.com/taibuivan/komik/pkg/pointer"
)

const seriesID = "0190b8a0-0000-7000-8000-0000000000f1"

var buckets = storage.Buckets{Covers: "covers", Chapters: "chapters"}

// # In-memory repository

type memoryRepository struct {
	mu         sync.Mutex
	seriesSlug map[string]string
	chapters   map[string]*chapter.Chapter
	images     map[string][]*chapter.Image
	replaces   int
	failImages bool
	failShared bool
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		seriesSlug: map[string]string{seriesID: "solo-leveling"},
		chapters:   map[string]*chapter.Chapter{},
		images:     map[string][]*chapter.Image{},
	}
}

func (repo *memoryRepository) List(_ context.Context, filterSeries string, page pagination.Params) ([]*chapter.Chapter, int, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	list := make([]*chapter.Chapter, 0)
	for _, row := range repo.chapters {
		if filterSeries == "" || row.SeriesID == filterSeries {
			copied := *row
			list = append(list, &copied)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Index > list[j].Index })

	total := len(list)
	start := min(page.Offset(), total)
	end := min(start+page.Limit, total)
	return list[start:end], total, nil
}

func (repo *memoryRepository) FindByID(_ context.Context, id string) (*chapter.Chapter, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	row, ok := repo.chapters[id]
	if !ok {
		return nil, apperr.NotFound("Chapter")
	}
	copied := *row
	return &copied, nil
}

func (repo *memoryRepository) SeriesSlug(_ context.Context, id string) (string, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	value, ok := repo.seriesSlug[id]
	if !ok {
		return "", apperr.NotFound("Series")
	}
	return value, nil
}

func (repo *memoryRepository) Create(_ context.Context, row *chapter.Chapter) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, existing := range repo.chapters {
		if existing.SeriesID == row.SeriesID && existing.ChapterNumber == row.ChapterNumber {
			return chapter.ErrDuplicateNumber
		}
	}
	row.CreatedAt, row.UpdatedAt = time.Now(), time.Now()
	copied := *row
	repo.chapters[row.ID] = &copied
	return nil
}

func (repo *memoryRepository) Update(_ context.Context, id string, changes chapter.Changes) (*chapter.Chapter, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	row, ok := repo.chapters[id]
	if !ok {
		return nil, apperr.NotFound("Chapter")
	}
	if changes.ChapterNumber.Set {
		row.ChapterNumber = changes.ChapterNumber.Text
	}
	if changes.Title.Set {
		row.Title = changes.Title.Ptr()
	}
	if changes.PublishedAt != nil {
		row.PublishedAt = *changes.PublishedAt
	}
	if changes.Slug != nil {
		row.Slug = *changes.Slug
	}
	if changes.Index != nil {
		row.Index = *changes.Index
	}
	copied := *row
	return &copied, nil
}

func (repo *memoryRepository) Delete(_ context.Context, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.chapters[id]; !ok {
		return apperr.NotFound("Chapter")
	}
	delete(repo.chapters, id)
	delete(repo.images, id)
	return nil
}

func (repo *memoryRepository) Images(_ context.Context, chapterID string) ([]*chapter.Image, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return append([]*chapter.Image{}, repo.images[chapterID]...), nil
}

func (repo *memoryRepository) ReplaceImages(_ context.Context, chapterID string, images []*chapter.Image) ([]*chapter.Image, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.failImages {
		return nil, apperr.Internal(storagetest.ErrInjected)
	}
	repo.replaces++

	stored := make([]*chapter.Image, 0, len(images))
	for _, image := range images {
		copied := *image
		copied.ChapterID = chapterID
		stored = append(stored, &copied)
	}
	repo.images[chapterID] = stored
	return append([]*chapter.Image{}, stored...), nil
}

func (repo *memoryRepository) SharedPaths(_ context.Context, chapterID string, paths []string) ([]string, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.failShared {
		return nil, apperr.Internal(storagetest.ErrInjected)
	}

	inUse := map[string]bool{}
	for owner, images := range repo.images {
		if owner == chapterID {
			continue
		}
		for _, image := range images {
			if path, ok := storage.ResolvePath(image.StoragePath, &image.ImageURL, buckets.Chapters); ok {
				inUse[path] = true
			}
		}
	}

	shared := make([]string, 0)
	for _, path := range paths {
		if inUse[path] {
			shared = append(shared, path)
		}
	}
	return shared, nil
}

func (repo *memoryRepository) IncrementViews(_ context.Context, id string) (int64, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	row, ok := repo.chapters[id]
	if !ok {
		return 0, apperr.NotFound("Chapter")
	}
	row.ViewCount++
	return row.ViewCount, nil
}

// # Helpers

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newService(repo chapter.Repository, objects storage.ObjectStorage) *chapter.Service {
	listings := cache.New(cache.NewMemoryBackend(), time.Minute, quietLogger)
	return chapter.NewService(repo, objects, buckets, listings, quietLogger)
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

func pngImage(t *testing.T, width, height int) []byte {
	t.Helper()
	var buffer bytes.Buffer
	require.NoError(t, png.Encode(&buffer, image.NewRGBA(image.Rect(0, 0, width, height))))
	return buffer.Bytes()
}

func create(t *testing.T, service *chapter.Service, number string) *chapter.Chapter {
	t.Helper()
	created, err := service.CreateChapter(context.Background(), chapter.CreateInput{SeriesID: seriesID, ChapterNumber: number})
	require.NoError(t, err)
	return created
}

func pageURLs(images []*chapter.Image) []string {
	urls := make([]string, 0, len(images))
	for _, image := range images {
		urls = append(urls, image.ImageURL)
	}
	return urls
}

// # Creation

func TestCreateChapter_DerivesIndexAndSlug(t *testing.T) {
	tests := []struct {
		number string
		index  float64
		slug   string
	}{
		{"12", 12, "solo-leveling-chapter-12"},
		{"12.5", 12.5, "solo-leveling-chapter-12.5"},
		{"Extra  2", 999, "solo-leveling-chapter-extra-2"},
	}

	service := newService(newMemoryRepository(), storagetest.NewMemory())
	for _, tt := range tests {
		created := create(t, service, tt.number)
		assert.Equal(t, tt.index, created.Index, tt.number)
		assert.Equal(t, tt.slug, created.Slug, tt.number)
		assert.False(t, created.PublishedAt.IsZero())
	}
}

func TestCreateChapter_Failures(t *testing.T) {
	service := newService(newMemoryRepository(), storagetest.NewMemory())
	create(t, service, "1")

	_, err := service.CreateChapter(context.Background(), chapter.CreateInput{SeriesID: seriesID, ChapterNumber: "1"})
	assert.Equal(t, http.StatusConflict, status(err))
	assert.Equal(t, "Chapter with this number already exists", err.Error())

	_, err = service.CreateChapter(context.Background(), chapter.CreateInput{SeriesID: "0190b8a0-0000-7000-8000-0000000000f2", ChapterNumber: "1"})
	assert.Equal(t, http.StatusNotFound, status(err))

	_, err = service.CreateChapter(context.Background(), chapter.CreateInput{SeriesID: seriesID, ChapterNumber: "  "})
	assert.Equal(t, http.StatusBadRequest, status(err))
	assert.Equal(t, "chapter_number: This field is required", apperr.As(err).Summary())
}

func TestCreateChapter_WithImages(t *testing.T) {
	service := newService(newMemoryRepository(), storagetest.NewMemory())

	created, err := service.CreateChapter(context.Background(), chapter.CreateInput{
		SeriesID:      seriesID,
		ChapterNumber: "3",
		Title:         pointer.To("The Dungeon"),
		Images: []chapter.ImageInput{
			{ImageURL: "https://cdn.test/chapters/a.jpg"},
			{ImageURL: "https://cdn.test/chapters/b.jpg", Width: pointer.To(800), Height: pointer.To(1200)},
		},
	})
	require.NoError(t, err)

	require.Len(t, created.Images, 2)
	assert.Equal(t, 1, created.Images[0].PageNumber)
	assert.Equal(t, 2, created.Images[1].PageNumber)
	assert.Equal(t, "b.jpg", pointer.Val(created.Images[1].StoragePath))
}

// # Updates

func TestUpdateChapter_RecomputesFromFreshSeriesSlug(t *testing.T) {
	repo := newMemoryRepository()
	service := newService(repo, storagetest.NewMemory())
	created := create(t, service, "1")

	repo.seriesSlug[seriesID] = "only-i-level-up"

	updated, err := service.UpdateChapter(context.Background(), created.ID, patchOf(t, `{"chapter_number":"2.5"}`))
	require.NoError(t, err)
	assert.Equal(t, 2.5, updated.Index)
	assert.Equal(t, "only-i-level-up-chapter-2.5", updated.Slug)

	renamed, err := service.UpdateChapter(context.Background(), created.ID, patchOf(t, `{"title":"Awakening"}`))
	require.NoError(t, err)
	assert.Equal(t, "Awakening", pointer.Val(renamed.Title))
	assert.Equal(t, updated.Slug, renamed.Slug)
}

func TestUpdateChapter_Validation(t *testing.T) {
	service := newService(newMemoryRepository(), storagetest.NewMemory())
	created := create(t, service, "1")

	_, err := service.UpdateChapter(context.Background(), created.ID, patchOf(t, `{"title":"undefined"}`))
	assert.ErrorIs(t, err, validate.ErrNoFields)

	_, err = service.UpdateChapter(context.Background(), created.ID, patchOf(t, `{"published_at":"yesterday"}`))
	assert.Equal(t, http.StatusBadRequest, status(err))

	_, err = service.UpdateChapter(context.Background(), "0190b8a0-0000-7000-8000-0000000000e1", patchOf(t, `{"title":"x"}`))
	assert.Equal(t, http.StatusNotFound, status(err))
}

// # Images

func TestSaveImages_ReplaceIsIdempotent(t *testing.T) {
	repo := newMemoryRepository()
	objects := storagetest.NewMemory()
	service := newService(repo, objects)
	created := create(t, service, "1")

	inputs := []chapter.ImageInput{
		{ImageURL: "https://cdn.test/chapters/p1.webp"},
		{ImageURL: "https://cdn.test/chapters/p2.webp"},
		{ImageURL: "https://cdn.test/chapters/p3.webp"},
	}

	first, err := service.SaveImages(context.Background(), created.ID, inputs)
	require.NoError(t, err)
	second, err := service.SaveImages(context.Background(), created.ID, inputs)
	require.NoError(t, err)

	assert.Equal(t, pageURLs(first), pageURLs(second))
	assert.Empty(t, objects.Removes(), "replaying the same list removes nothing")

	stored, err := service.Images(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	for position, image := range stored {
		assert.Equal(t, position+1, image.PageNumber)
		assert.Equal(t, inputs[position].ImageURL, image.ImageURL)
	}
}

func TestSaveImages_RemovesDroppedObjects(t *testing.T) {
	objects := storagetest.NewMemory()
	service := newService(newMemoryRepository(), objects)
	created := create(t, service, "1")

	_, err := service.SaveImages(context.Background(), created.ID, []chapter.ImageInput{
		{ImageURL: "https://cdn.test/chapters/p1.webp"},
		{ImageURL: "https://cdn.test/chapters/p2.webp"},
	})
	require.NoError(t, err)

	_, err = service.SaveImages(context.Background(), created.ID, []chapter.ImageInput{
		{ImageURL: "https://cdn.test/chapters/p2.webp"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"p1.webp"}, objects.RemovedPaths("chapters"))
}

func TestSaveImages_OrdersByPageNumber(t *testing.T) {
	service := newService(newMemoryRepository(), storagetest.NewMemory())
	created := create(t, service, "1")

	stored, err := service.SaveImages(context.Background(), created.ID, []chapter.ImageInput{
		{ImageURL: "https://cdn.test/chapters/c.png", PageNumber: pointer.To(7)},
		{ImageURL: "https://cdn.test/chapters/b.png", PageNumber: pointer.To(2)},
		{ImageURL: "https://cdn.test/chapters/a.png", PageNumber: pointer.To(1)},
	})
	require.NoError(t, err)

	read, err := service.Images(context.Background(), created.ID)
	require.NoError(t, err)
	for _, images := range [][]*chapter.Image{stored, read} {
		assert.Equal(t, []string{
			"https://cdn.test/chapters/a.png",
			"https://cdn.test/chapters/b.png",
			"https://cdn.test/chapters/c.png",
		}, pageURLs(images))
		assert.Equal(t, 3, images[2].PageNumber)
	}
}

func TestSaveImages_PageNumberValidation(t *testing.T) {
	service := newService(newMemoryRepository(), storagetest.NewMemory())
	created := create(t, service, "1")

	_, err := service.SaveImages(context.Background(), created.ID, []chapter.ImageInput{
		{ImageURL: "https://cdn.test/chapters/a.png", PageNumber: pointer.To(0)},
	})
	assert.Equal(t, http.StatusBadRequest, status(err))
	assert.Equal(t, "images[0].page_number: Must be a positive integer", apperr.As(err).Summary())

	_, err = service.SaveImages(context.Background(), created.ID, []chapter.ImageInput{
		{ImageURL: "https://cdn.test/chapters/a.png", PageNumber: pointer.To(2)},
		{ImageURL: "https://cdn.test/chapters/b.png", PageNumber: pointer.To(2)},
	})
	assert.Equal(t, http.StatusBadRequest, status(err))
	assert.Equal(t, "images[1].page_number: Duplicate page number", apperr.As(err).Summary())
}

func TestSaveImages_KeepsObjectsSharedWithOtherChapters(t *testing.T) {
	repo := newMemoryRepository()
	objects := storagetest.NewMemory()
	service := newService(repo, objects)
	first := create(t, service, "1")
	second := create(t, service, "2")

	shared := []chapter.ImageInput{{ImageURL: "https://cdn.test/chapters/shared.png"}}
	_, err := service.SaveImages(context.Background(), first.ID, shared)
	require.NoError(t, err)
	_, err = service.SaveImages(context.Background(), second.ID, append(shared, chapter.ImageInput{ImageURL: "https://cdn.test/chapters/own.png"}))
	require.NoError(t, err)

	_, err = service.SaveImages(context.Background(), second.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"own.png"}, objects.RemovedPaths("chapters"))

	require.NoError(t, service.DeleteChapter(context.Background(), first.ID))
	assert.Equal(t, []string{"own.png", "shared.png"}, objects.RemovedPaths("chapters"))
}

func TestSaveImages_SharedCheckFailureRemovesNothing(t *testing.T) {
	repo := newMemoryRepository()
	objects := storagetest.NewMemory()
	service := newService(repo, objects)
	created := create(t, service, "1")

	_, err := service.SaveImages(context.Background(), created.ID, []chapter.ImageInput{{ImageURL: "https://cdn.test/chapters/p1.webp"}})
	require.NoError(t, err)

	repo.failShared = true
	_, err = service.SaveImages(context.Background(), created.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, objects.Removes())
}

func TestSaveImages_Validation(t *testing.T) {
	service := newService(newMemoryRepository(), storagetest.NewMemory())
	created := create(t, service, "1")

	_, err := service.SaveImages(context.Background(), created.ID, []chapter.ImageInput{{ImageURL: "not a url"}})
	assert.Equal(t, http.StatusBadRequest, status(err))
	assert.Equal(t, "images[0].image_url: Must be a valid URL", apperr.As(err).Summary())

	_, err = service.SaveImages(context.Background(), "0190b8a0-0000-7000-8000-0000000000e1", nil)
	assert.Equal(t, http.StatusNotFound, status(err))
}

func TestSavePages_MixesKeptAndNewPages(t *testing.T) {
	repo := newMemoryRepository()
	objects := storagetest.NewMemory()
	service := newService(repo, objects)
	created := create(t, service, "1")

	kept := "https://cdn.test/chapters/kept.webp"
	_, err := service.SaveImages(context.Background(), created.ID, []chapter.ImageInput{
		{ImageURL: kept, Width: pointer.To(700), Height: pointer.To(1000)},
		{ImageURL: "https://cdn.test/chapters/old.webp"},
	})
	require.NoError(t, err)

	stored, err := service.SavePages(context.Background(), created.ID, []chapter.Source{
		{File: pngImage(t, 30, 40)},
		{ExistingURL: kept},
		{File: pngImage(t, 50, 60)},
	})
	require.NoError(t, err)
	require.Len(t, stored, 3)

	assert.True(t, strings.HasPrefix(pointer.Val(stored[0].StoragePath), created.ID+"-1-"))
	assert.True(t, strings.HasSuffix(stored[0].ImageURL, ".png"))
	assert.Equal(t, 30, pointer.Val(stored[0].Width))
	assert.Equal(t, kept, stored[1].ImageURL)
	assert.Equal(t, 700, pointer.Val(stored[1].Width))
	assert.Equal(t, 60, pointer.Val(stored[2].Height))

	assert.Len(t, objects.Keys(), 2)
	assert.Equal(t, []string{"old.webp"}, objects.RemovedPaths("chapters"))
}

func TestSavePages_UploadFailureRemovesEarlierUploads(t *testing.T) {
	repo := newMemoryRepository()
	objects := storagetest.NewMemory()
	service := newService(repo, objects)
	created := create(t, service, "1")

	objects.FailUploadsAfter = 1
	_, err := service.SavePages(context.Background(), created.ID, []chapter.Source{
		{File: pngImage(t, 10, 10)},
		{File: pngImage(t, 10, 10)},
	})
	require.Error(t, err)

	assert.Empty(t, objects.Keys())
	assert.Len(t, objects.RemovedPaths("chapters"), 1)
	assert.Zero(t, repo.replaces, "the page list is untouched")
}

func TestSavePages_DatabaseFailureRemovesUploads(t *testing.T) {
	repo := newMemoryRepository()
	objects := storagetest.NewMemory()
	service := newService(repo, objects)
	created := create(t, service, "1")

	repo.failImages = true
	_, err := service.SavePages(context.Background(), created.ID, []chapter.Source{{File: pngImage(t, 10, 10)}})
	require.Error(t, err)
	assert.Empty(t, objects.Keys())
}

func TestSavePages_RejectsBadFileBeforeUploading(t *testing.T) {
	objects := storagetest.NewMemory()
	service := newService(newMemoryRepository(), objects)
	created := create(t, service, "1")

	_, err := service.SavePages(context.Background(), created.ID, []chapter.Source{
		{File: pngImage(t, 10, 10)},
		{File: []byte("GIF89a not allowed")},
	})
	assert.Equal(t, http.StatusBadRequest, status(err))
	assert.Equal(t, "pages[1]: File type not allowed (JPEG, PNG, WebP only)", apperr.As(err).Summary())
	assert.Empty(t, objects.Keys())
}

// # Deletion

func TestDeleteChapter_RemovesStoredImages(t *testing.T) {
	objects := storagetest.NewMemory()
	service := newService(newMemoryRepository(), objects)
	created := create(t, service, "1")

	objects.Put("chapters", "p1.webp")
	_, err := service.SaveImages(context.Background(), created.ID, []chapter.ImageInput{
		{ImageURL: "https://cdn.test/chapters/p1.webp"},
		{ImageURL: "https://elsewhere.test/p2.webp"},
	})
	require.NoError(t, err)

	require.NoError(t, service.DeleteChapter(context.Background(), created.ID))
	assert.Equal(t, []string{"p1.webp"}, objects.RemovedPaths("chapters"))
	assert.Empty(t, objects.Keys())

	err = service.DeleteChapter(context.Background(), created.ID)
	assert.Equal(t, http.StatusNotFound, status(err))
}

func TestDeleteChapter_StorageFailureDoesNotFail(t *testing.T) {
	objects := storagetest.NewMemory()
	service := newService(newMemoryRepository(), objects)
	created := create(t, service, "1")

	_, err := service.SaveImages(context.Background(), created.ID, []chapter.ImageInput{{ImageURL: "https://cdn.test/chapters/p1.webp"}})
	require.NoError(t, err)

	objects.FailRemoves = true
	assert.NoError(t, service.DeleteChapter(context.Background(), created.ID))
}

// # Uploads & Reads

func TestUploadPage(t *testing.T) {
	objects := storagetest.NewMemory()
	service := newService(newMemoryRepository(), objects)
	created := create(t, service, "1")

	object, err := service.UploadPage(context.Background(), created.ID, 3, pngImage(t, 8, 8))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(object.Path, created.ID+"-3-"))
	assert.Equal(t, "https://cdn.test/chapters/"+object.Path, object.URL)
	assert.True(t, objects.Has("chapters", object.Path))

	_, err = service.UploadPage(context.Background(), created.ID, 0, pngImage(t, 8, 8))
	assert.Equal(t, "page_number: Must be a positive integer", apperr.As(err).Summary())

	_, err = service.UploadPage(context.Background(), created.ID, 1, nil)
	assert.Equal(t, "file: File is empty", apperr.As(err).Summary())
}

func TestList_OrdersByIndexAndValidatesSeries(t *testing.T) {
	service := newService(newMemoryRepository(), storagetest.NewMemory())
	create(t, service, "1")
	create(t, service, "Special")
	create(t, service, "10")

	result, err := service.List(context.Background(), seriesID, pagination.New(1, 20))
	require.NoError(t, err)
	require.Equal(t, 3, result.Total)
	assert.Equal(t, "Special", result.Items[0].ChapterNumber)
	assert.Equal(t, "10", result.Items[1].ChapterNumber)

	_, err = service.List(context.Background(), "solo-leveling", pagination.New(1, 20))
	assert.Equal(t, http.StatusBadRequest, status(err))
}
