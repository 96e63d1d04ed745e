// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// CoreAuthorTable represents the 'core.author' table
type CoreAuthorTable struct {
	Table     string
	ID        string
	Name      string
	CreatedAt string
}

// CoreAuthor is the schema definition for core.author
var CoreAuthor = CoreAuthorTable{
	Table:     "core.author",
	ID:        "id",
	Name:      "name",
	CreatedAt: "created_at",
}

func (t CoreAuthorTable) Columns() []string {
	return []string{t.ID, t.Name, t.CreatedAt}
}
