// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
)

// # Partial Updates

// Patch is a decoded JSON object that remembers which keys the caller sent.
//
// Typed accessors turn raw values into [Value]s:
//
//   - a missing key, or the string "undefined", means "leave untouched";
//   - JSON null, or the string "null", means "set to NULL";
//   - anything else is trimmed and returned as the new value.
type Patch map[string]json.RawMessage

// Value is one field of a [Patch] after normalisation.
type Value struct {
	// Set reports whether the field takes part in the update.
	Set bool
	// Null reports an explicit null-set. Only meaningful when Set is true.
	Null bool
	// Text is the trimmed string value when Set and not Null.
	Text string
}

// Ptr returns nil for a null-set, otherwise a pointer to the text.
func (value Value) Ptr() *string {
	if value.Null {
		return nil
	}
	text := value.Text
	return &text
}

var jsonNull = []byte("null")

// DecodePatch reads a JSON object from body.
func DecodePatch(body io.Reader) (Patch, error) {
	var patch Patch
	if err := json.NewDecoder(body).Decode(&patch); err != nil {
		return nil, ErrInvalidJSON
	}
	if patch == nil {
		return nil, ErrInvalidJSON
	}
	return patch, nil
}

// Has reports whether the caller sent key at all.
func (patch Patch) Has(key string) bool {
	_, ok := patch[key]
	return ok
}

/*
String normalises a string field.

Description: Values that are neither strings nor null are reported on the
validator as type errors and treated as absent.

Parameters:
  - validator: *Validator (collects type errors)
  - key: string

Returns:
  - Value: the normalised field
*/
func (patch Patch) String(validator *Validator, key string) Value {
	raw, ok := patch[key]
	if !ok {
		return Value{}
	}

	if bytes.Equal(bytes.TrimSpace(raw), jsonNull) {
		return Value{Set: true, Null: true}
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		validator.add(key, "Must be a string")
		return Value{}
	}

	switch text {
	case "undefined":
		return Value{}
	case "null":
		return Value{Set: true, Null: true}
	}

	return Value{Set: true, Text: strings.TrimSpace(text)}
}

/*
Ref normalises a reference (foreign key) field.

Description: null, "", "null" and "undefined" all mean "no reference".
Any other value must be UUID-shaped.

Parameters:
  - validator: *Validator
  - key: string

Returns:
  - Value: Null for "no reference", otherwise the lower-cased UUID
*/
func (patch Patch) Ref(validator *Validator, key string) Value {
	raw, ok := patch[key]
	if !ok {
		return Value{}
	}

	if bytes.Equal(bytes.TrimSpace(raw), jsonNull) {
		return Value{Set: true, Null: true}
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		validator.add(key, "Must be a valid UUID")
		return Value{}
	}

	reference := NormalizeRef(validator, key, &text)
	if reference == nil {
		return Value{Set: true, Null: true}
	}
	return Value{Set: true, Text: *reference}
}

// NormalizeRef applies the reference rules to an optional string taken from a
// typed DTO. It returns nil for "no reference".
func NormalizeRef(validator *Validator, field string, raw *string) *string {
	if raw == nil {
		return nil
	}

	value := strings.TrimSpace(*raw)
	switch value {
	case "", "null", "undefined":
		return nil
	}

	if !IsUUID(value) {
		validator.add(field, "Must be a valid UUID")
		return nil
	}

	value = strings.ToLower(value)
	return &value
}

// NormalizeOptional trims an optional DTO string and drops the "undefined"
// serialisation artifact. The string "null" and empty strings become nil.
func NormalizeOptional(raw *string) *string {
	if raw == nil {
		return nil
	}

	value := strings.TrimSpace(*raw)
	switch value {
	case "", "null", "undefined":
		return nil
	}
	return &value
}
