// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pointer bridges nullable columns (*string, *int) and plain values.
package pointer

// To returns a pointer to a copy of v.
//
//	series.Description = pointer.To("A hunter awakens")
func To[T any](v T) *T {
	return &v
}

// Val dereferences p, or returns the zero value when p is nil.
func Val[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
