// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package slice compliments the standard [slices] package with small generic
helpers used when projecting rows into ids and storage paths.
*/
package slice

// Map maps a slice of type T to a slice of type U using the provided transformation function.
func Map[T any, U any](input []T, transform func(T) U) []U {
	if input == nil {
		return nil
	}

	result := make([]U, len(input))
	for i, v := range input {
		result[i] = transform(v)
	}

	return result
}

// FilterMap keeps the transformed value of every element for which transform reports ok.
func FilterMap[T any, U any](input []T, transform func(T) (U, bool)) []U {
	var result []U
	for _, v := range input {
		if mapped, ok := transform(v); ok {
			result = append(result, mapped)
		}
	}
	return result
}

// Unique returns the elements of input in first-seen order without duplicates.
func Unique[T comparable](input []T) []T {
	seen := make(map[T]struct{}, len(input))
	result := make([]T, 0, len(input))
	for _, v := range input {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
