// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/komik/internal/platform/apperr"
	"github.com/taibuivan/komik/internal/platform/constants"
	"github.com/taibuivan/komik/internal/platform/middleware"
	requestutil "github.com/taibuivan/komik/internal/platform/request"
	"github.com/taibuivan/komik/internal/platform/respond"
	"github.com/taibuivan/komik/internal/platform/sec"
	"github.com/taibuivan/komik/internal/platform/validate"
	"github.com/taibuivan/komik/pkg/convert"
	"github.com/taibuivan/komik/pkg/pagination"
	"github.com/taibuivan/komik/pkg/query"
)

// # HTTP Handler

// Handler exposes series endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a series [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router mounted at /series.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public
	router.Get("/", handler.list)
	router.Get("/slug/{slug}", handler.getBySlug)
	router.Get("/slug/{slug}/chapters/{chapter}", handler.reader)
	router.Get("/{id}", handler.get)
	router.Post("/{id}/views", handler.recordView)

	// Admin Only
	router.Group(func(adminRoute chi.Router) {
		adminRoute.Use(middleware.RequireRole(sec.RoleAdmin))

		adminRoute.Post("/", handler.create)
		adminRoute.Patch("/{id}", handler.update)
		adminRoute.Delete("/{id}", handler.delete)
		adminRoute.Put("/{id}/genres", handler.replaceGenres)
		adminRoute.Put("/{id}/authors", handler.replaceAuthors)
		adminRoute.Put("/{id}/cover", handler.updateCover)
		adminRoute.Delete("/{id}/cover", handler.removeCover)
	})

	return router
}

// # Reads

/*
GET /api/v1/series.

Request:
  - q: string (title or alternative title)
  - status: string
  - format: string (format slug)
  - genre: string (comma-separated genre slugs, all required)
  - page, limit: int

Response:
  - 200: []Series with pagination meta
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	values := request.URL.Query()

	filter := Filter{
		Query:  strings.TrimSpace(values.Get("q")),
		Status: strings.TrimSpace(values.Get("status")),
		Format: strings.TrimSpace(values.Get("format")),
		Genres: query.StringSlice(values.Get("genre")),
	}

	result, err := handler.service.List(request.Context(), filter, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, result.Items, params.Meta(result.Total))
}

func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.UUIDParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	series, err := handler.service.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, series)
}

func (handler *Handler) getBySlug(writer http.ResponseWriter, request *http.Request) {
	series, err := handler.service.GetBySlug(request.Context(), requestutil.Param(request, "slug"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, series)
}

/*
GET /api/v1/series/slug/{slug}/chapters/{chapter}.

Description: The reader page. {chapter} is a chapter slug or id.

Response:
  - 200: ReaderView
  - 404: Series or chapter not found
*/
func (handler *Handler) reader(writer http.ResponseWriter, request *http.Request) {
	view, err := handler.service.ReaderView(request.Context(),
		requestutil.Param(request, "slug"), requestutil.Param(request, "chapter"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, view)
}

/*
LatestUpdates handles GET /api/v1/updates.

Request:
  - limit: int (default 10, max 100)

Response:
  - 200: []Update
*/
func (handler *Handler) LatestUpdates(writer http.ResponseWriter, request *http.Request) {
	limit := convert.ToIntD(request.URL.Query().Get("limit"), constants.LatestUpdatesLimit)

	updates, err := handler.service.LatestUpdates(request.Context(), limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, updates)
}

// POST /api/v1/series/{id}/views.
func (handler *Handler) recordView(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.UUIDParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	views, err := handler.service.RecordView(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]any{"id": id, "view_count": views})
}

// # Writes

/*
POST /api/v1/series.

Request:
  - JSON body: CreateInput
  - or multipart: "data" (CreateInput as JSON) and an optional "cover" file
  - auto_slug: bool (query, optional) derives the slug from the title

Response:
  - 201: Series
  - 400: Validation failure
  - 409: Slug already in use
  - 413: Upload too large
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input CreateInput
	var cover []byte

	if requestutil.IsMultipart(request) {
		if err := requestutil.ParseMultipart(writer, request); err != nil {
			respond.Error(writer, request, err)
			return
		}
		defer request.MultipartForm.RemoveAll()

		if err := json.Unmarshal([]byte(request.FormValue("data")), &input); err != nil {
			respond.Error(writer, request, validate.ErrInvalidJSON)
			return
		}

		data, err := optionalFile(request, FieldCover)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		cover = data
	} else if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	input.AutoSlug = input.AutoSlug || convert.ToBool(request.URL.Query().Get("auto_slug"))

	series, err := handler.service.CreateSeries(request.Context(), input, cover)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, series)
}

/*
PATCH /api/v1/series/{id}.

Request:
  - Body: any subset of title, alternative_title, slug, description,
    format_id, status, cover_image_url

Response:
  - 200: Series
  - 400: Validation failure or empty body
  - 404: Series not found
  - 409: Slug used by another series
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
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

	series, err := handler.service.UpdateSeries(request.Context(), id, patch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, series)
}

// DELETE /api/v1/series/{id}. Chapters, pages and stored images go with it.
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.UUIDParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteSeries(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]string{"id": id})
}

// PUT /api/v1/series/{id}/genres with {"genre_ids": [...]}.
func (handler *Handler) replaceGenres(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.UUIDParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body struct {
		GenreIDs []string `json:"genre_ids"`
	}
	if err := requestutil.DecodeJSON(writer, request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	genres, err := handler.service.ReplaceGenres(request.Context(), id, body.GenreIDs)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, genres)
}

// PUT /api/v1/series/{id}/authors with {"authors": [{"author_id", "role"?}]}.
func (handler *Handler) replaceAuthors(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.UUIDParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body struct {
		Authors []CreditInput `json:"authors"`
	}
	if err := requestutil.DecodeJSON(writer, request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	credits, err := handler.service.ReplaceAuthors(request.Context(), id, body.Authors)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, credits)
}

/*
PUT /api/v1/series/{id}/cover.

Request:
  - multipart: "cover" file (JPEG, PNG or WebP)

Response:
  - 200: Series with the new cover
  - 400: Missing or invalid file
  - 404: Series not found
*/
func (handler *Handler) updateCover(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.UUIDParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := requestutil.ParseMultipart(writer, request); err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer request.MultipartForm.RemoveAll()

	data, err := optionalFile(request, FieldCover)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if data == nil {
		respond.Error(writer, request, validate.FieldError(FieldCover, "This field is required"))
		return
	}

	series, err := handler.service.UpdateCover(request.Context(), id, data)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, series)
}

// DELETE /api/v1/series/{id}/cover.
func (handler *Handler) removeCover(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.UUIDParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	series, err := handler.service.RemoveCover(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, series)
}

// optionalFile reads the file sent under key, returning nil when the part is absent.
func optionalFile(request *http.Request, key string) ([]byte, error) {
	file, _, err := request.FormFile(key)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.ValidationError("Invalid multipart form")
	}
	defer file.Close()

	data, err := requestutil.ReadAllLimited(file, constants.MaxImageBytes)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return data, nil
}
