// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package chapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/komik/internal/platform/apperr"
	"github.com/taibuivan/komik/internal/platform/constants"
	"github.com/taibuivan/komik/internal/platform/middleware"
	requestutil "github.com/taibuivan/komik/internal/platform/request"
	"github.com/taibuivan/komik/internal/platform/respond"
	"github.com/taibuivan/komik/internal/platform/sec"
	"github.com/taibuivan/komik/internal/platform/validate"
	"github.com/taibuivan/komik/pkg/pagination"
)

// # HTTP Handler

// Handler exposes chapter endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a chapter [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router mounted at /chapters.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public
	router.Get("/", handler.list)
	router.Get("/{id}", handler.get)
	router.Get("/{id}/images", handler.images)
	router.Post("/{id}/views", handler.recordView)

	// Admin Only
	router.Group(func(adminRoute chi.Router) {
		adminRoute.Use(middleware.RequireRole(sec.RoleAdmin))

		adminRoute.Post("/", handler.create)
		adminRoute.Post("/upload", handler.upload)
		adminRoute.Put("/{id}", handler.update)
		adminRoute.Delete("/{id}", handler.delete)
		adminRoute.Put("/{id}/images", handler.saveImages)
		adminRoute.Put("/{id}/pages", handler.savePages)
	})

	return router
}

// # Reads

/*
GET /api/v1/chapters.

Request:
  - series_id: string (optional UUID)
  - page, limit: int

Response:
  - 200: []Chapter (series joined) with pagination meta, highest index first
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	result, err := handler.service.List(request.Context(), request.URL.Query().Get(FieldSeriesID), params)
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

	chapter, err := handler.service.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, chapter)
}

// GET /api/v1/chapters/{id}/images.
func (handler *Handler) images(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.UUIDParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	images, err := handler.service.Images(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, images)
}

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
POST /api/v1/chapters.

Request:
  - Body: CreateInput (images optional)

Response:
  - 201: Chapter
  - 400: Validation failure
  - 404: Series not found
  - 409: Chapter number already used in the series
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input CreateInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	chapter, err := handler.service.CreateChapter(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, chapter)
}

/*
PUT /api/v1/chapters/{id}.

Request:
  - Body: any subset of chapter_number, title, published_at, images

Response:
  - 200: Chapter
  - 400: Validation failure or empty body
  - 404: Chapter not found
  - 409: Chapter number already used in the series
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

	chapter, err := handler.service.UpdateChapter(request.Context(), id, patch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, chapter)
}

func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.UUIDParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteChapter(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]string{"id": id})
}

/*
PUT /api/v1/chapters/{id}/images.

Request:
  - Body: {"images": [{"image_url", "width"?, "height"?}]} in reading order

Response:
  - 200: []Image numbered 1..N
*/
func (handler *Handler) saveImages(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.UUIDParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body struct {
		Images []ImageInput `json:"images"`
	}
	if err := requestutil.DecodeJSON(writer, request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	images, err := handler.service.SaveImages(request.Context(), id, body.Images)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, images)
}

// layoutEntry is one element of the "layout" form field: exactly one of URL or File is set.
type layoutEntry struct {
	URL  string `json:"url"`
	File string `json:"file"`
}

/*
PUT /api/v1/chapters/{id}/pages.

Request (multipart):
  - layout: JSON array in reading order; each entry is {"url": "..."} to keep
    an existing page or {"file": "<part name>"} to upload a new one
  - one file part per {"file"} entry

Response:
  - 200: []Image numbered 1..N
  - 400: Invalid layout or file
  - 413: Upload too large
*/
func (handler *Handler) savePages(writer http.ResponseWriter, request *http.Request) {
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

	var layout []layoutEntry
	if err := json.Unmarshal([]byte(request.FormValue(FieldLayout)), &layout); err != nil {
		respond.Error(writer, request, validate.FieldError(FieldLayout, "Must be a JSON array of page sources"))
		return
	}
	if len(layout) > constants.MaxPagesPerChapter {
		respond.Error(writer, request, validate.FieldError(FieldPages, fmt.Sprintf("Maximum %d pages", constants.MaxPagesPerChapter)))
		return
	}

	sources := make([]Source, 0, len(layout))
	for position, entry := range layout {
		if entry.File == "" {
			sources = append(sources, Source{ExistingURL: entry.URL})
			continue
		}

		data, err := readFile(request, entry.File)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		if data == nil {
			respond.Error(writer, request, validate.FieldError(fmt.Sprintf("%s[%d]", FieldLayout, position), "Names a missing file part"))
			return
		}
		sources = append(sources, Source{File: data})
	}

	images, err := handler.service.SavePages(request.Context(), id, sources)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, images)
}

/*
POST /api/v1/chapters/upload.

Request (multipart):
  - file: image (JPEG, PNG or WebP)
  - chapter_id: string
  - page_number: int

Response:
  - 201: {"path", "url"}
*/
func (handler *Handler) upload(writer http.ResponseWriter, request *http.Request) {
	if err := requestutil.ParseMultipart(writer, request); err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer request.MultipartForm.RemoveAll()

	file, _, err := requestutil.FormFile(request, FieldFile)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer file.Close()

	data, err := requestutil.ReadAllLimited(file, constants.MaxImageBytes)
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	chapterID := strings.ToLower(strings.TrimSpace(request.FormValue(FieldChapterID)))
	pageNumber, err := strconv.Atoi(strings.TrimSpace(request.FormValue(FieldPageNumber)))
	if err != nil {
		respond.Error(writer, request, validate.FieldError(FieldPageNumber, "Must be a positive integer"))
		return
	}

	object, err := handler.service.UploadPage(request.Context(), chapterID, pageNumber, data)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, object)
}

// readFile reads the file part named key, or returns nil when it is absent.
func readFile(request *http.Request, key string) ([]byte, error) {
	headers := request.MultipartForm.File[key]
	if len(headers) == 0 {
		return nil, nil
	}

	file, err := headers[0].Open()
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
