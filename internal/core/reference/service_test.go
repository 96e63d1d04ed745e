// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reference_test

import (
	"context"
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

	"github.com/taibuivan/komik/internal/core/reference"
	"github.com/taibuivan/komik/internal/platform/apperr"
	"github.com/taibuivan/komik/internal/platform/cache"
	"github.com/taibuivan/komik/internal/platform/validate"
	"github.com/taibuivan/komik/pkg/pagination"
)

// # In-memory repository

type memoryRepository struct {
	mu      sync.Mutex
	terms   map[string]map[string]*reference.Term
	authors map[string]*reference.Author
	listed  int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		terms:   map[string]map[string]*reference.Term{},
		authors: map[string]*reference.Author{},
	}
}

func (repo *memoryRepository) table(kind reference.Kind) map[string]*reference.Term {
	if repo.terms[kind.Key] == nil {
		repo.terms[kind.Key] = map[string]*reference.Term{}
	}
	return repo.terms[kind.Key]
}

func (repo *memoryRepository) ListTerms(_ context.Context, kind reference.Kind, page pagination.Params) ([]*reference.Term, int, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.listed++

	terms := make([]*reference.Term, 0)
	for _, term := range repo.table(kind) {
		copied := *term
		terms = append(terms, &copied)
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i].Name < terms[j].Name })

	total := len(terms)
	start := min(page.Offset(), total)
	end := min(start+page.Limit, total)
	return terms[start:end], total, nil
}

func (repo *memoryRepository) FindTerm(_ context.Context, kind reference.Kind, id string) (*reference.Term, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	term, ok := repo.table(kind)[id]
	if !ok {
		return nil, apperr.NotFound(kind.Resource)
	}
	copied := *term
	return &copied, nil
}

func (repo *memoryRepository) SlugTaken(_ context.Context, kind reference.Kind, slug, excludeID string) (bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for id, term := range repo.table(kind) {
		if term.Slug == slug && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *memoryRepository) CreateTerm(ctx context.Context, kind reference.Kind, term *reference.Term) error {
	if taken, _ := repo.SlugTaken(ctx, kind, term.Slug, term.ID); taken {
		return reference.ErrSlugInUse
	}
	repo.mu.Lock()
	defer repo.mu.Unlock()
	term.CreatedAt = time.Now()
	copied := *term
	repo.table(kind)[term.ID] = &copied
	return nil
}

func (repo *memoryRepository) UpdateTerm(_ context.Context, kind reference.Kind, id string, changes reference.TermChanges) (*reference.Term, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	term, ok := repo.table(kind)[id]
	if !ok {
		return nil, apperr.NotFound(kind.Resource)
	}
	if changes.Name != nil {
		term.Name = *changes.Name
	}
	if changes.Slug != nil {
		term.Slug = *changes.Slug
	}
	copied := *term
	return &copied, nil
}

func (repo *memoryRepository) DeleteTerm(_ context.Context, kind reference.Kind, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.table(kind)[id]; !ok {
		return apperr.NotFound(kind.Resource)
	}
	delete(repo.table(kind), id)
	return nil
}

func (repo *memoryRepository) ListAuthors(_ context.Context, filter reference.AuthorFilter, _ pagination.Params) ([]*reference.Author, int, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	authors := make([]*reference.Author, 0)
	for _, author := range repo.authors {
		if strings.Contains(strings.ToLower(author.Name), strings.ToLower(filter.Query)) {
			authors = append(authors, author)
		}
	}
	sort.Slice(authors, func(i, j int) bool { return authors[i].Name < authors[j].Name })
	return authors, len(authors), nil
}

func (repo *memoryRepository) FindAuthor(_ context.Context, id string) (*reference.Author, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	author, ok := repo.authors[id]
	if !ok {
		return nil, apperr.NotFound("Author")
	}
	return author, nil
}

func (repo *memoryRepository) CreateAuthor(_ context.Context, author *reference.Author) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.authors[author.ID] = author
	return nil
}

func (repo *memoryRepository) UpdateAuthor(_ context.Context, id, name string) (*reference.Author, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	author, ok := repo.authors[id]
	if !ok {
		return nil, apperr.NotFound("Author")
	}
	author.Name = name
	return author, nil
}

func (repo *memoryRepository) DeleteAuthor(_ context.Context, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.authors[id]; !ok {
		return apperr.NotFound("Author")
	}
	delete(repo.authors, id)
	return nil
}

// # Helpers

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newService(repo reference.Repository) *reference.Service {
	return reference.NewService(repo, cache.New(cache.NewMemoryBackend(), time.Minute, quietLogger), quietLogger)
}

func patchOf(t *testing.T, body string) validate.Patch {
	t.Helper()
	patch, err := validate.DecodePatch(strings.NewReader(body))
	require.NoError(t, err)
	return patch
}

func ptr(s string) *string { return &s }

func status(err error) int {
	if appError := apperr.As(err); appError != nil {
		return appError.HTTPStatus
	}
	return 0
}

// # Terms

func TestCreateTerm_DerivesSlugFromName(t *testing.T) {
	service := newService(newMemoryRepository())

	term, err := service.CreateTerm(context.Background(), reference.KindGenre, reference.TermInput{Name: "  Slice of Life! "})
	require.NoError(t, err)

	assert.Equal(t, "Slice of Life!", term.Name)
	assert.Equal(t, "slice-of-life", term.Slug)
	assert.NotEmpty(t, term.ID)
}

func TestCreateTerm_Validation(t *testing.T) {
	tests := []struct {
		name    string
		input   reference.TermInput
		message string
	}{
		{"missing name", reference.TermInput{Name: "  "}, "name: This field is required"},
		{"long name", reference.TermInput{Name: strings.Repeat("a", 51)}, "name: Maximum 50 characters"},
		{"slug with space", reference.TermInput{Name: "Action", Slug: ptr("act ion")}, "slug: Must not contain spaces"},
		{"long slug", reference.TermInput{Name: "Action", Slug: ptr(strings.Repeat("b", 51))}, "slug: Maximum 50 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newService(newMemoryRepository())

			_, err := service.CreateTerm(context.Background(), reference.KindFormat, tt.input)

			appError := apperr.As(err)
			require.NotNil(t, appError)
			assert.Equal(t, http.StatusBadRequest, appError.HTTPStatus)
			assert.Equal(t, tt.message, appError.Summary())
		})
	}
}

func TestCreateTerm_DuplicateSlugConflicts(t *testing.T) {
	service := newService(newMemoryRepository())
	ctx := context.Background()

	_, err := service.CreateTerm(ctx, reference.KindGenre, reference.TermInput{Name: "Action"})
	require.NoError(t, err)

	_, err = service.CreateTerm(ctx, reference.KindGenre, reference.TermInput{Name: "ACTION"})
	assert.Equal(t, http.StatusConflict, status(err))
}

func TestUpdateTerm(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*reference.Service, *reference.Term, *reference.Term) {
		service := newService(newMemoryRepository())
		action, err := service.CreateTerm(ctx, reference.KindGenre, reference.TermInput{Name: "Action"})
		require.NoError(t, err)
		drama, err := service.CreateTerm(ctx, reference.KindGenre, reference.TermInput{Name: "Drama"})
		require.NoError(t, err)
		return service, action, drama
	}

	t.Run("changes only the sent field", func(t *testing.T) {
		service, action, _ := setup(t)

		updated, err := service.UpdateTerm(ctx, reference.KindGenre, action.ID, patchOf(t, `{"name":"Action & Adventure"}`))
		require.NoError(t, err)

		assert.Equal(t, "Action & Adventure", updated.Name)
		assert.Equal(t, "action", updated.Slug)
	})

	t.Run("slug used by another genre", func(t *testing.T) {
		service, action, drama := setup(t)

		_, err := service.UpdateTerm(ctx, reference.KindGenre, action.ID, patchOf(t, `{"slug":"`+drama.Slug+`"}`))
		assert.Equal(t, http.StatusConflict, status(err))
	})

	t.Run("same slug is not a conflict", func(t *testing.T) {
		service, action, _ := setup(t)

		_, err := service.UpdateTerm(ctx, reference.KindGenre, action.ID, patchOf(t, `{"slug":"action"}`))
		assert.NoError(t, err)
	})

	t.Run("undefined values are dropped", func(t *testing.T) {
		service, action, _ := setup(t)

		_, err := service.UpdateTerm(ctx, reference.KindGenre, action.ID, patchOf(t, `{"slug":"undefined"}`))
		assert.Equal(t, "No fields to update", apperr.As(err).Summary())
	})

	t.Run("empty body", func(t *testing.T) {
		service, action, _ := setup(t)

		_, err := service.UpdateTerm(ctx, reference.KindGenre, action.ID, patchOf(t, `{}`))
		assert.Equal(t, http.StatusBadRequest, status(err))
	})

	t.Run("unknown id", func(t *testing.T) {
		service, _, _ := setup(t)

		_, err := service.UpdateTerm(ctx, reference.KindGenre, "0190c7a8-7c1e-7000-8000-000000000000", patchOf(t, `{"name":"X"}`))
		assert.Equal(t, http.StatusNotFound, status(err))
	})
}

func TestListTerms_CachedUntilMutation(t *testing.T) {
	repo := newMemoryRepository()
	service := newService(repo)
	ctx := context.Background()
	page := pagination.New(1, 20)

	_, err := service.CreateTerm(ctx, reference.KindFormat, reference.TermInput{Name: "Manga"})
	require.NoError(t, err)

	first, err := service.ListTerms(ctx, reference.KindFormat, page)
	require.NoError(t, err)
	_, err = service.ListTerms(ctx, reference.KindFormat, page)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listed)
	assert.Equal(t, 1, first.Total)

	_, err = service.CreateTerm(ctx, reference.KindFormat, reference.TermInput{Name: "Manhwa"})
	require.NoError(t, err)

	second, err := service.ListTerms(ctx, reference.KindFormat, page)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Total)
	assert.Equal(t, []string{"Manga", "Manhwa"}, []string{second.Items[0].Name, second.Items[1].Name})
}

func TestDeleteTerm_NotFound(t *testing.T) {
	service := newService(newMemoryRepository())

	err := service.DeleteTerm(context.Background(), reference.KindGenre, "0190c7a8-7c1e-7000-8000-000000000000")
	assert.True(t, apperr.IsNotFound(err))
}

// # Authors

func TestAuthors(t *testing.T) {
	service := newService(newMemoryRepository())
	ctx := context.Background()

	_, err := service.CreateAuthor(ctx, strings.Repeat("x", 101))
	assert.Equal(t, "name: Maximum 100 characters", apperr.As(err).Summary())

	author, err := service.CreateAuthor(ctx, " Chugong ")
	require.NoError(t, err)
	assert.Equal(t, "Chugong", author.Name)

	renamed, err := service.UpdateAuthor(ctx, author.ID, patchOf(t, `{"name":"Chu-Gong"}`))
	require.NoError(t, err)
	assert.Equal(t, "Chu-Gong", renamed.Name)

	_, err = service.UpdateAuthor(ctx, author.ID, patchOf(t, `{"name":null}`))
	assert.Equal(t, "name: This field is required", apperr.As(err).Summary())

	require.NoError(t, service.DeleteAuthor(ctx, author.ID))
	_, err = service.GetAuthor(ctx, author.ID)
	assert.True(t, apperr.IsNotFound(err))
}

// # Admin Forms

func TestLookups_LoadsEveryList(t *testing.T) {
	service := newService(newMemoryRepository())
	ctx := context.Background()

	_, err := service.CreateTerm(ctx, reference.KindFormat, reference.TermInput{Name: "Manhua"})
	require.NoError(t, err)
	_, err = service.CreateTerm(ctx, reference.KindGenre, reference.TermInput{Name: "Romance"})
	require.NoError(t, err)
	_, err = service.CreateTerm(ctx, reference.KindGenre, reference.TermInput{Name: "Isekai"})
	require.NoError(t, err)
	_, err = service.CreateAuthor(ctx, "Gosho Aoyama")
	require.NoError(t, err)

	lookups, err := service.Lookups(ctx)
	require.NoError(t, err)

	assert.Len(t, lookups.Formats, 1)
	require.Len(t, lookups.Genres, 2)
	assert.Equal(t, "Isekai", lookups.Genres[0].Name)
	assert.Len(t, lookups.Authors, 1)
}
