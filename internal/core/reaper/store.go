// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reaper

import "context"

// Reference is one database row that may point at a stored object.
// Rows written before storage paths were recorded only carry the URL.
type Reference struct {
	StoragePath *string
	URL         *string
}

// Repository reports which stored objects the catalog still points at.
type Repository interface {

	// CoverReferences lists the cover of every series that has one.
	CoverReferences(context context.Context) ([]Reference, error)

	// PageReferences lists every chapter page.
	PageReferences(context context.Context) ([]Reference, error)
}
