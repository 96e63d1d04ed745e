// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the tables and columns of the catalog database.
//
// Repositories build their SQL from these descriptors so a column rename is a
// one-line change instead of a grep across every query.
package schema

// CoreFormatTable represents the 'core.format' table
type CoreFormatTable struct {
	Table     string
	ID        string
	Name      string
	Slug      string
	CreatedAt string
}

// CoreFormat is the schema definition for core.format
var CoreFormat = CoreFormatTable{
	Table:     "core.format",
	ID:        "id",
	Name:      "name",
	Slug:      "slug",
	CreatedAt: "created_at",
}

func (t CoreFormatTable) Columns() []string {
	return []string{t.ID, t.Name, t.Slug, t.CreatedAt}
}
