// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package reference provides the HTTP interface for managing lookup data.

# Access Control

  - Public: Listing and reading genres, formats and authors.
  - Admin: Creating, renaming and deleting them.

The handler serves as the bridge between RESTful requests and the [Service] layer.
*/
package reference

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/komik/internal/platform/middleware"
	requestutil "github.com/taibuivan/komik/internal/platform/request"
	"github.com/taibuivan/komik/internal/platform/respond"
	"github.com/taibuivan/komik/internal/platform/sec"
	"github.com/taibuivan/komik/pkg/pagination"
)

// Handler implements the HTTP layer for lookup data.
type Handler struct {
	service *Service
}

// NewHandler constructs a new reference [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Mount registers /genres, /formats, /authors and /lookups on router.
func (handler *Handler) Mount(router chi.Router) {
	router.Mount("/genres", handler.termRoutes(KindGenre))
	router.Mount("/formats", handler.termRoutes(KindFormat))
	router.Mount("/authors", handler.authorRoutes())
	router.Get("/lookups", handler.lookups)
}

// termRoutes returns the CRUD endpoints of one vocabulary.
func (handler *Handler) termRoutes(kind Kind) chi.Router {
	router := chi.NewRouter()

	// Public
	router.Get("/", handler.listTerms(kind))
	router.Get("/{id}", handler.getTerm(kind))

	// Admin Only
	router.Group(func(adminRoute chi.Router) {
		adminRoute.Use(middleware.RequireRole(sec.RoleAdmin))

		adminRoute.Post("/", handler.createTerm(kind))
		adminRoute.Patch("/{id}", handler.updateTerm(kind))
		adminRoute.Delete("/{id}", handler.deleteTerm(kind))
	})

	return router
}

func (handler *Handler) authorRoutes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listAuthors)
	router.Get("/{id}", handler.getAuthor)

	router.Group(func(adminRoute chi.Router) {
		adminRoute.Use(middleware.RequireRole(sec.RoleAdmin))

		adminRoute.Post("/", handler.createAuthor)
		adminRoute.Patch("/{id}", handler.updateAuthor)
		adminRoute.Delete("/{id}", handler.deleteAuthor)
	})

	return router
}

// # Terms

/*
GET /api/v1/genres, GET /api/v1/formats.

Description: Lists a vocabulary ordered by name.

Request:
  - page, limit: int (query)

Response:
  - 200: []Term with pagination meta
*/
func (handler *Handler) listTerms(kind Kind) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		params := pagination.FromRequest(request)

		result, err := handler.service.ListTerms(request.Context(), kind, params)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		respond.Paginated(writer, result.Items, params.Meta(result.Total))
	}
}

/*
GET /api/v1/{genres|formats}/{id}.

Response:
  - 200: Term
  - 400: id is not a UUID
  - 404: Term not found
*/
func (handler *Handler) getTerm(kind Kind) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := requestutil.UUIDParam(request, "id")
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		term, err := handler.service.GetTerm(request.Context(), kind, id)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		respond.OK(writer, term)
	}
}

/*
POST /api/v1/{genres|formats}.

Request:
  - Body: TermInput (slug optional, derived from name)

Response:
  - 201: Term
  - 400: Validation failure
  - 409: Slug already in use
*/
func (handler *Handler) createTerm(kind Kind) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var input TermInput
		if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
			respond.Error(writer, request, err)
			return
		}

		term, err := handler.service.CreateTerm(request.Context(), kind, input)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		respond.Created(writer, term)
	}
}

/*
PATCH /api/v1/{genres|formats}/{id}.

Request:
  - Body: any subset of {name, slug}

Response:
  - 200: Term
  - 400: Validation failure or empty body
  - 404: Term not found
  - 409: Slug used by another term
*/
func (handler *Handler) updateTerm(kind Kind) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := requestutil.UUIDParam(request, "id")
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		patch, err := requestutil.DecodePatch(writer, request)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		term, err := handler.service.UpdateTerm(request.Context(), kind, id, patch)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		respond.OK(writer, term)
	}
}

// DELETE /api/v1/{genres|formats}/{id}.
func (handler *Handler) deleteTerm(kind Kind) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := requestutil.UUIDParam(request, "id")
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		if err := handler.service.DeleteTerm(request.Context(), kind, id); err != nil {
			respond.Error(writer, request, err)
			return
		}
		respond.OK(writer, map[string]string{"id": id})
	}
}

// # Authors

/*
GET /api/v1/authors.

Request:
  - q: string (optional name search)
  - page, limit: int

Response:
  - 200: []Author with pagination meta
*/
func (handler *Handler) listAuthors(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	filter := AuthorFilter{Query: strings.TrimSpace(request.URL.Query().Get("q"))}

	result, err := handler.service.ListAuthors(request.Context(), filter, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, result.Items, params.Meta(result.Total))
}

func (handler *Handler) getAuthor(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.UUIDParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	author, err := handler.service.GetAuthor(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, author)
}

/*
POST /api/v1/authors.

Request:
  - Body: {"name": string}

Response:
  - 201: Author
  - 400: Validation failure
*/
func (handler *Handler) createAuthor(writer http.ResponseWriter, request *http.Request) {
	var input struct {
		Name string `json:"name"`
	}
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	author, err := handler.service.CreateAuthor(request.Context(), input.Name)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, author)
}

func (handler *Handler) updateAuthor(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.UUIDParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	patch, err := requestutil.DecodePatch(writer, request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	author, err := handler.service.UpdateAuthor(request.Context(), id, patch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, author)
}

func (handler *Handler) deleteAuthor(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.UUIDParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteAuthor(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]string{"id": id})
}

// # Admin Forms

/*
GET /api/v1/lookups.

Description: Returns formats, genres and authors in one response for the
series editor.

Response:
  - 200: Lookups
*/
func (handler *Handler) lookups(writer http.ResponseWriter, request *http.Request) {
	result, err := handler.service.Lookups(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, result)
}
