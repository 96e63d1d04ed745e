// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reference

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/komik/internal/platform/apperr"
	"github.com/taibuivan/komik/internal/platform/database/schema"
	"github.com/taibuivan/komik/internal/platform/dberr"
	"github.com/taibuivan/komik/internal/platform/postgres"
	"github.com/taibuivan/komik/pkg/pagination"
	"github.com/taibuivan/komik/pkg/query"
)

// ErrSlugInUse is returned when a term slug collides with another row.
var ErrSlugInUse = apperr.Conflict("Slug is already in use")

// PostgresRepository implements [Repository] on both credential tiers.
//
// Listings read from the read pool; lookups that guard a mutation and the
// mutations themselves go through the write pool.
type PostgresRepository struct {
	write *pgxpool.Pool
	read  *pgxpool.Pool
}

// NewPostgresRepository returns a fully wired postgres implementation.
func NewPostgresRepository(pools *postgres.Pools) *PostgresRepository {
	return &PostgresRepository{write: pools.Write, read: pools.Read}
}

// # Terms

/*
ListTerms retrieves one page of genres or formats.

Description: Uses COUNT(*) OVER() to return the unpaginated total alongside
the rows in a single round-trip.

Parameters:
  - context: context.Context
  - kind: Kind
  - page: pagination.Params

Returns:
  - []*Term: Page of terms ordered by name
  - int: Total count
  - error: Database execution or scanning errors
*/
func (repository *PostgresRepository) ListTerms(context context.Context, kind Kind, page pagination.Params) ([]*Term, int, error) {
	statement := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, COUNT(*) OVER() AS total_count
		FROM %s
		ORDER BY %s ASC, %s ASC
		LIMIT $1 OFFSET $2`,
		kind.id, kind.name, kind.slug, kind.createdAt,
		kind.table,
		kind.name, kind.id,
	)

	rows, err := repository.read.Query(context, statement, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, dberr.Wrap(err, kind.Resource)
	}
	defer rows.Close()

	terms := make([]*Term, 0)
	total := 0
	for rows.Next() {
		term := &Term{}
		if err := rows.Scan(&term.ID, &term.Name, &term.Slug, &term.CreatedAt, &total); err != nil {
			return nil, 0, dberr.Wrap(err, kind.Resource)
		}
		terms = append(terms, term)
	}

	return terms, total, dberr.Wrap(rows.Err(), kind.Resource)
}

// FindTerm fetches a single term by primary key from the write tier.
func (repository *PostgresRepository) FindTerm(context context.Context, kind Kind, id string) (*Term, error) {
	statement := fmt.Sprintf(`SELECT %s, %s, %s, %s FROM %s WHERE %s = $1`,
		kind.id, kind.name, kind.slug, kind.createdAt, kind.table, kind.id)

	term := &Term{}
	err := repository.write.QueryRow(context, statement, id).Scan(&term.ID, &term.Name, &term.Slug, &term.CreatedAt)
	if err != nil {
		return nil, dberr.Wrap(err, kind.Resource)
	}
	return term, nil
}

// SlugTaken checks for another row of the same kind using slug.
func (repository *PostgresRepository) SlugTaken(context context.Context, kind Kind, slug, excludeID string) (bool, error) {
	statement := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND %s <> $2)`,
		kind.table, kind.slug, kind.id)

	var taken bool
	if err := repository.write.QueryRow(context, statement, slug, excludeID).Scan(&taken); err != nil {
		return false, dberr.Wrap(err, kind.Resource)
	}
	return taken, nil
}

// CreateTerm inserts a term and fills its creation timestamp.
func (repository *PostgresRepository) CreateTerm(context context.Context, kind Kind, term *Term) error {
	statement := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s) VALUES ($1, $2, $3) RETURNING %s`,
		kind.table, kind.id, kind.name, kind.slug, kind.createdAt)

	err := repository.write.QueryRow(context, statement, term.ID, term.Name, term.Slug).Scan(&term.CreatedAt)
	if dberr.IsUniqueViolation(err) {
		return ErrSlugInUse
	}
	return dberr.Wrap(err, kind.Resource)
}

/*
UpdateTerm writes only the fields present in changes.

Parameters:
  - context: context.Context
  - kind: Kind
  - id: string
  - changes: TermChanges

Returns:
  - *Term: The updated row
  - error: NotFound, [ErrSlugInUse] or storage errors
*/
func (repository *PostgresRepository) UpdateTerm(context context.Context, kind Kind, id string, changes TermChanges) (*Term, error) {
	set := query.Assignments{}
	if changes.Name != nil {
		set.Add(kind.name, *changes.Name)
	}
	if changes.Slug != nil {
		set.Add(kind.slug, *changes.Slug)
	}
	if set.Len() == 0 {
		return repository.FindTerm(context, kind, id)
	}

	statement := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = %s RETURNING %s, %s, %s, %s`,
		kind.table, set.SQL(), kind.id, set.Next(id),
		kind.id, kind.name, kind.slug, kind.createdAt)

	term := &Term{}
	err := repository.write.QueryRow(context, statement, set.Args()...).Scan(&term.ID, &term.Name, &term.Slug, &term.CreatedAt)
	if dberr.IsUniqueViolation(err) {
		return nil, ErrSlugInUse
	}
	if err != nil {
		return nil, dberr.Wrap(err, kind.Resource)
	}
	return term, nil
}

// DeleteTerm removes the row; series referencing a format keep a NULL format.
func (repository *PostgresRepository) DeleteTerm(context context.Context, kind Kind, id string) error {
	statement := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, kind.table, kind.id)

	tag, err := repository.write.Exec(context, statement, id)
	if err != nil {
		return dberr.Wrap(err, kind.Resource)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(kind.Resource)
	}
	return nil
}

// # Authors

/*
ListAuthors returns one page of authors ordered by name.

Parameters:
  - context: context.Context
  - filter: AuthorFilter (optional name search)
  - page: pagination.Params

Returns:
  - []*Author: Page of authors
  - int: Total matches
  - error: Retrieval errors
*/
func (repository *PostgresRepository) ListAuthors(context context.Context, filter AuthorFilter, page pagination.Params) ([]*Author, int, error) {
	table := schema.CoreAuthor

	statement := fmt.Sprintf(`
		SELECT %s, %s, %s, COUNT(*) OVER() AS total_count
		FROM %s
		WHERE ($1 = '' OR %s ILIKE '%%' || $1 || '%%')
		ORDER BY %s ASC, %s ASC
		LIMIT $2 OFFSET $3`,
		table.ID, table.Name, table.CreatedAt,
		table.Table,
		table.Name,
		table.Name, table.ID,
	)

	rows, err := repository.read.Query(context, statement, filter.Query, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, dberr.Wrap(err, "Author")
	}
	defer rows.Close()

	authors := make([]*Author, 0)
	total := 0
	for rows.Next() {
		author := &Author{}
		if err := rows.Scan(&author.ID, &author.Name, &author.CreatedAt, &total); err != nil {
			return nil, 0, dberr.Wrap(err, "Author")
		}
		authors = append(authors, author)
	}

	return authors, total, dberr.Wrap(rows.Err(), "Author")
}

// FindAuthor fetches a single author by primary key.
func (repository *PostgresRepository) FindAuthor(context context.Context, id string) (*Author, error) {
	table := schema.CoreAuthor
	statement := fmt.Sprintf(`SELECT %s, %s, %s FROM %s WHERE %s = $1`,
		table.ID, table.Name, table.CreatedAt, table.Table, table.ID)

	author := &Author{}
	err := repository.write.QueryRow(context, statement, id).Scan(&author.ID, &author.Name, &author.CreatedAt)
	if err != nil {
		return nil, dberr.Wrap(err, "Author")
	}
	return author, nil
}

// CreateAuthor inserts an author and fills its creation timestamp.
func (repository *PostgresRepository) CreateAuthor(context context.Context, author *Author) error {
	table := schema.CoreAuthor
	statement := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2) RETURNING %s`,
		table.Table, table.ID, table.Name, table.CreatedAt)

	return dberr.Wrap(repository.write.QueryRow(context, statement, author.ID, author.Name).Scan(&author.CreatedAt), "Author")
}

// UpdateAuthor renames an author.
func (repository *PostgresRepository) UpdateAuthor(context context.Context, id, name string) (*Author, error) {
	table := schema.CoreAuthor
	statement := fmt.Sprintf(`UPDATE %s SET %s = $1 WHERE %s = $2 RETURNING %s, %s, %s`,
		table.Table, table.Name, table.ID, table.ID, table.Name, table.CreatedAt)

	author := &Author{}
	err := repository.write.QueryRow(context, statement, name, id).Scan(&author.ID, &author.Name, &author.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Author")
	}
	if err != nil {
		return nil, dberr.Wrap(err, "Author")
	}
	return author, nil
}

// DeleteAuthor removes the author and, through the cascade, its series credits.
func (repository *PostgresRepository) DeleteAuthor(context context.Context, id string) error {
	table := schema.CoreAuthor
	statement := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table.Table, table.ID)

	tag, err := repository.write.Exec(context, statement, id)
	if err != nil {
		return dberr.Wrap(err, "Author")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Author")
	}
	return nil
}
