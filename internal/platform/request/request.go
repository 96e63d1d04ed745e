// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package requestutil provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/komik/internal/platform/apperr"
	"github.com/taibuivan/komik/internal/platform/constants"
	"github.com/taibuivan/komik/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - writer: http.ResponseWriter (needed to cap the body size)
  - request: *http.Request
  - target: any (Pointer to the destination struct)

Returns:
  - error: PayloadTooLarge over the JSON body cap, validate.ErrInvalidJSON if decoding fails
*/
func DecodeJSON(writer http.ResponseWriter, request *http.Request, target any) error {
	request.Body = http.MaxBytesReader(writer, request.Body, constants.MaxJSONBodyBytes)

	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return decodeError(err)
	}
	return nil
}

/*
DecodePatch reads a partial update body, remembering which keys were sent.
*/
func DecodePatch(writer http.ResponseWriter, request *http.Request) (validate.Patch, error) {
	body, err := io.ReadAll(http.MaxBytesReader(writer, request.Body, constants.MaxJSONBodyBytes))
	if err != nil {
		return nil, decodeError(err)
	}
	return validate.DecodePatch(bytes.NewReader(body))
}

func decodeError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.PayloadTooLarge("Request body is too large")
	}
	return validate.ErrInvalidJSON
}

/*
UUIDParam retrieves a named URL parameter and checks that it is UUID-shaped.

Returns:
  - string: the lowercased identifier
  - error: a validation error naming the parameter
*/
func UUIDParam(request *http.Request, name string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(chi.URLParam(request, name)))
	if !validate.IsUUID(value) {
		return "", validate.FieldError(name, "Must be a valid UUID")
	}
	return value, nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

// IsMultipart reports whether the request carries a multipart/form-data body.
func IsMultipart(request *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(request.Header.Get("Content-Type")), "multipart/form-data")
}

/*
ParseMultipart caps and parses a multipart body.

Files beyond the in-memory threshold spill to temporary files; callers must
invoke request.MultipartForm.RemoveAll when done.
*/
func ParseMultipart(writer http.ResponseWriter, request *http.Request) error {
	request.Body = http.MaxBytesReader(writer, request.Body, constants.MaxMultipartBytes)

	if err := request.ParseMultipartForm(constants.MultipartMemoryBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.PayloadTooLarge("Upload is too large")
		}
		return apperr.ValidationError("Invalid multipart form")
	}
	return nil
}

/*
FormFile opens the first file sent under key.

Returns:
  - multipart.File, *multipart.FileHeader when present
  - a validation error naming the field when the part is missing
*/
func FormFile(request *http.Request, key string) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := request.FormFile(key)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, validate.FieldError(key, "This field is required")
		}
		return nil, nil, apperr.ValidationError("Invalid multipart form")
	}
	return file, header, nil
}

// ReadAllLimited reads at most limit+1 bytes so callers can tell an oversized file apart.
func ReadAllLimited(reader io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(reader, limit+1))
}
