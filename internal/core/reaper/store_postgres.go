// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reaper

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/komik/internal/platform/database/schema"
	"github.com/taibuivan/komik/internal/platform/dberr"
	"github.com/taibuivan/komik/internal/platform/postgres"
)

// PostgresRepository implements [Repository] on the write tier, so a sweep
// never misses a reference the read replica has not seen yet.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a fully wired postgres implementation.
func NewPostgresRepository(pools *postgres.Pools) *PostgresRepository {
	return &PostgresRepository{pool: pools.Write}
}

// CoverReferences implements [Repository].
func (repository *PostgresRepository) CoverReferences(context context.Context) ([]Reference, error) {
	series := schema.CoreSeries
	statement := fmt.Sprintf(`SELECT %s, %s FROM %s WHERE %s IS NOT NULL OR %s IS NOT NULL`,
		series.CoverStoragePath, series.CoverImageURL, series.Table,
		series.CoverStoragePath, series.CoverImageURL,
	)
	return repository.collect(context, statement, "Series")
}

// PageReferences implements [Repository].
func (repository *PostgresRepository) PageReferences(context context.Context) ([]Reference, error) {
	image := schema.CoreChapterImage
	statement := fmt.Sprintf(`SELECT %s, %s FROM %s`, image.StoragePath, image.ImageURL, image.Table)
	return repository.collect(context, statement, "Chapter image")
}

func (repository *PostgresRepository) collect(context context.Context, statement, resource string) ([]Reference, error) {
	rows, err := repository.pool.Query(context, statement)
	if err != nil {
		return nil, dberr.Wrap(err, resource)
	}
	defer rows.Close()

	references := make([]Reference, 0)
	for rows.Next() {
		var reference Reference
		if err := rows.Scan(&reference.StoragePath, &reference.URL); err != nil {
			return nil, dberr.Wrap(err, resource)
		}
		references = append(references, reference)
	}
	return references, dberr.Wrap(rows.Err(), resource)
}
