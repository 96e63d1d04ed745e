// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package chapter_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/komik/internal/core/chapter"
	"github.com/taibuivan/komik/internal/platform/ctxutil"
	"github.com/taibuivan/komik/internal/platform/sec"
	"github.com/taibuivan/komik/internal/platform/storage/storagetest"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Meta    *struct {
		Total int `json:"total"`
	} `json:"meta"`
}

func newRouter() (chi.Router, *storagetest.Memory) {
	objects := storagetest.NewMemory()
	handler := chapter.NewHandler(newService(newMemoryRepository(), objects))

	router := chi.NewRouter()
	router.Mount("/chapters", handler.Routes())
	return router, objects
}

func send(t *testing.T, router http.Handler, request *http.Request, role sec.UserRole) (int, envelope) {
	t.Helper()

	if role != "" {
		claims := &sec.AuthClaims{UserID: "tester", Role: string(role)}
		request = request.WithContext(ctxutil.WithAuthUser(request.Context(), claims))
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	var decoded envelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded))
	return recorder.Code, decoded
}

func jsonRequest(method, target, body string) *http.Request {
	request := httptest.NewRequest(method, target, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	return request
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	for name, value := range fields {
		require.NoError(t, form.WriteField(name, value))
	}
	for name, data := range files {
		part, err := form.CreateFormFile(name, name+".png")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, form.Close())

	request := httptest.NewRequest(method, target, &body)
	request.Header.Set("Content-Type", form.FormDataContentType())
	return request
}

func TestHandler_ChapterLifecycle(t *testing.T) {
	router, _ := newRouter()

	body := `{"series_id":"` + seriesID + `","chapter_number":"7","images":[{"image_url":"https://cdn.test/chapters/a.webp"}]}`

	code, _ := send(t, router, jsonRequest(http.MethodPost, "/chapters", body), "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, created := send(t, router, jsonRequest(http.MethodPost, "/chapters", body), sec.RoleAdmin)
	require.Equal(t, http.StatusCreated, code, created.Message)

	var stored chapter.Chapter
	require.NoError(t, json.Unmarshal(created.Data, &stored))
	assert.Equal(t, "solo-leveling-chapter-7", stored.Slug)
	assert.NotContains(t, string(created.Data), "storage_path")

	code, duplicate := send(t, router, jsonRequest(http.MethodPost, "/chapters", body), sec.RoleAdmin)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Chapter with this number already exists", duplicate.Message)

	code, listed := send(t, router, jsonRequest(http.MethodGet, "/chapters?series_id="+seriesID, ""), "")
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, listed.Meta)
	assert.Equal(t, 1, listed.Meta.Total)

	code, empty := send(t, router, jsonRequest(http.MethodPut, "/chapters/"+stored.ID, `{}`), sec.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "No fields to update", empty.Message)

	code, images := send(t, router, jsonRequest(http.MethodGet, "/chapters/"+stored.ID+"/images", ""), "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(images.Data), `"page_number":1`)

	reordered := `{"images":[{"image_url":"https://cdn.test/chapters/b.webp","page_number":2},{"image_url":"https://cdn.test/chapters/a.webp","page_number":1}]}`
	code, replaced := send(t, router, jsonRequest(http.MethodPut, "/chapters/"+stored.ID+"/images", reordered), sec.RoleAdmin)
	require.Equal(t, http.StatusOK, code, replaced.Message)
	var pages []chapter.Image
	require.NoError(t, json.Unmarshal(replaced.Data, &pages))
	require.Len(t, pages, 2)
	assert.Equal(t, "https://cdn.test/chapters/a.webp", pages[0].ImageURL)
	assert.Equal(t, 2, pages[1].PageNumber)

	code, viewed := send(t, router, jsonRequest(http.MethodPost, "/chapters/"+stored.ID+"/views", ""), "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"id":"`+stored.ID+`","view_count":1}`, string(viewed.Data))

	code, deleted := send(t, router, jsonRequest(http.MethodDelete, "/chapters/"+stored.ID, ""), sec.RoleAdmin)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"id":"`+stored.ID+`"}`, string(deleted.Data))
}

func TestHandler_SavePagesLayout(t *testing.T) {
	router, objects := newRouter()

	body := `{"series_id":"` + seriesID + `","chapter_number":"1"}`
	code, created := send(t, router, jsonRequest(http.MethodPost, "/chapters", body), sec.RoleAdmin)
	require.Equal(t, http.StatusCreated, code)
	var stored chapter.Chapter
	require.NoError(t, json.Unmarshal(created.Data, &stored))

	layout := `[{"url":"https://cdn.test/chapters/kept.webp"},{"file":"page2"}]`
	request := multipartRequest(t, http.MethodPut, "/chapters/"+stored.ID+"/pages",
		map[string]string{"layout": layout},
		map[string][]byte{"page2": pngImage(t, 4, 6)})

	code, saved := send(t, router, request, sec.RoleAdmin)
	require.Equal(t, http.StatusOK, code, saved.Message)

	var pages []chapter.Image
	require.NoError(t, json.Unmarshal(saved.Data, &pages))
	require.Len(t, pages, 2)
	assert.Equal(t, "https://cdn.test/chapters/kept.webp", pages[0].ImageURL)
	assert.Equal(t, 2, pages[1].PageNumber)
	assert.Len(t, objects.Keys(), 1)

	missing := multipartRequest(t, http.MethodPut, "/chapters/"+stored.ID+"/pages",
		map[string]string{"layout": `[{"file":"nowhere"}]`}, nil)
	code, failed := send(t, router, missing, sec.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "layout[0]: Names a missing file part", failed.Message)
}

func TestHandler_UploadPage(t *testing.T) {
	router, objects := newRouter()

	body := `{"series_id":"` + seriesID + `","chapter_number":"1"}`
	_, created := send(t, router, jsonRequest(http.MethodPost, "/chapters", body), sec.RoleAdmin)
	var stored chapter.Chapter
	require.NoError(t, json.Unmarshal(created.Data, &stored))

	request := multipartRequest(t, http.MethodPost, "/chapters/upload",
		map[string]string{"chapter_id": stored.ID, "page_number": "2"},
		map[string][]byte{"file": pngImage(t, 4, 4)})

	code, uploaded := send(t, router, request, sec.RoleAdmin)
	require.Equal(t, http.StatusCreated, code, uploaded.Message)
	assert.Contains(t, string(uploaded.Data), `"url":"https://cdn.test/chapters/`+stored.ID+`-2-`)
	assert.Len(t, objects.Keys(), 1)

	bad := multipartRequest(t, http.MethodPost, "/chapters/upload",
		map[string]string{"chapter_id": stored.ID, "page_number": "two"},
		map[string][]byte{"file": pngImage(t, 4, 4)})
	code, failed := send(t, router, bad, sec.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "page_number: Must be a positive integer", failed.Message)
}

func TestHandler_ListRejectsBadSeriesID(t *testing.T) {
	router, _ := newRouter()

	code, failed := send(t, router, jsonRequest(http.MethodGet, "/chapters?series_id=solo", ""), "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "series_id: Must be a valid UUID", failed.Message)
}
