// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package chapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/komik/internal/platform/apperr"
	"github.com/taibuivan/komik/internal/platform/database/schema"
	"github.com/taibuivan/komik/internal/platform/dberr"
	"github.com/taibuivan/komik/internal/platform/postgres"
	"github.com/taibuivan/komik/pkg/pagination"
	"github.com/taibuivan/komik/pkg/query"
	"github.com/taibuivan/komik/pkg/uuid"
)

// ErrDuplicateNumber is returned when a series already has a chapter with the same number.
var ErrDuplicateNumber = apperr.Conflict("Chapter with this number already exists")

// PostgresRepository implements [Repository].
type PostgresRepository struct {
	write *pgxpool.Pool
	read  *pgxpool.Pool
}

// NewPostgresRepository returns a fully wired postgres implementation.
func NewPostgresRepository(pools *postgres.Pools) *PostgresRepository {
	return &PostgresRepository{write: pools.Write, read: pools.Read}
}

// chapterColumns lists every chapter column prefixed with alias.
func chapterColumns(alias string) string {
	columns := schema.CoreChapter.Columns()
	for index, column := range columns {
		columns[index] = alias + "." + column
	}
	return strings.Join(columns, ", ")
}

func scanChapter(row pgx.Row, extra ...any) (*Chapter, error) {
	chapter := &Chapter{}
	targets := []any{
		&chapter.ID,
		&chapter.SeriesID,
		&chapter.ChapterNumber,
		&chapter.Title,
		&chapter.Slug,
		&chapter.Index,
		&chapter.ViewCount,
		&chapter.PublishedAt,
		&chapter.CreatedAt,
		&chapter.UpdatedAt,
	}
	if err := row.Scan(append(targets, extra...)...); err != nil {
		return nil, err
	}
	return chapter, nil
}

/*
List returns chapters with their series joined, highest index first.

Parameters:
  - context: context.Context
  - seriesID: string (optional)
  - page: pagination.Params

Returns:
  - []*Chapter: matching rows
  - int: total count
  - error: Database execution errors
*/
func (repository *PostgresRepository) List(context context.Context, seriesID string, page pagination.Params) ([]*Chapter, int, error) {
	chapter, series := schema.CoreChapter, schema.CoreSeries

	statement := fmt.Sprintf(`
		SELECT %s, s.%s, s.%s, s.%s, COUNT(*) OVER() AS total_count
		FROM %s c
		JOIN %s s ON s.%s = c.%s
		WHERE ($1 = '' OR c.%s::text = $1)
		ORDER BY c.%s DESC, c.%s DESC
		LIMIT $2 OFFSET $3`,
		chapterColumns("c"), series.ID, series.Title, series.Slug,
		chapter.Table,
		series.Table, series.ID, chapter.SeriesID,
		chapter.SeriesID,
		chapter.Index, chapter.ID,
	)

	rows, err := repository.read.Query(context, statement, seriesID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, dberr.Wrap(err, "Chapter")
	}
	defer rows.Close()

	chapters := make([]*Chapter, 0)
	total := 0
	for rows.Next() {
		ref := &SeriesRef{}
		item, err := scanChapter(rows, &ref.ID, &ref.Title, &ref.Slug, &total)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "Chapter")
		}
		item.Series = ref
		chapters = append(chapters, item)
	}

	return chapters, total, dberr.Wrap(rows.Err(), "Chapter")
}

// FindByID fetches a chapter from the write tier.
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Chapter, error) {
	statement := fmt.Sprintf(`SELECT %s FROM %s c WHERE c.%s = $1`,
		chapterColumns("c"), schema.CoreChapter.Table, schema.CoreChapter.ID)

	chapter, err := scanChapter(repository.write.QueryRow(context, statement, id))
	if err != nil {
		return nil, dberr.Wrap(err, "Chapter")
	}
	return chapter, nil
}

// SeriesSlug reads the slug of the owning series.
func (repository *PostgresRepository) SeriesSlug(context context.Context, seriesID string) (string, error) {
	series := schema.CoreSeries
	statement := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, series.Slug, series.Table, series.ID)

	var slug string
	if err := repository.write.QueryRow(context, statement, seriesID).Scan(&slug); err != nil {
		return "", dberr.Wrap(err, "Series")
	}
	return slug, nil
}

/*
Create inserts a chapter with its derived index and slug.

Description: Both the (series_id, chapter_number) and slug unique indexes
report as [ErrDuplicateNumber], since the slug is a function of the number.
*/
func (repository *PostgresRepository) Create(context context.Context, chapter *Chapter) error {
	table := schema.CoreChapter

	statement := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s, %s, %s`,
		table.Table,
		table.ID, table.SeriesID, table.ChapterNumber, table.Title, table.Slug, table.Index, table.PublishedAt,
		table.ViewCount, table.CreatedAt, table.UpdatedAt,
	)

	err := repository.write.QueryRow(context, statement,
		chapter.ID, chapter.SeriesID, chapter.ChapterNumber, chapter.Title, chapter.Slug, chapter.Index, chapter.PublishedAt,
	).Scan(&chapter.ViewCount, &chapter.CreatedAt, &chapter.UpdatedAt)

	if dberr.IsUniqueViolation(err) {
		return ErrDuplicateNumber
	}
	return dberr.Wrap(err, "Chapter")
}

// Update writes the fields present in changes.
func (repository *PostgresRepository) Update(context context.Context, id string, changes Changes) (*Chapter, error) {
	table := schema.CoreChapter

	set := query.Assignments{}
	if changes.ChapterNumber.Set {
		set.Add(table.ChapterNumber, changes.ChapterNumber.Text)
	}
	if changes.Title.Set {
		set.Add(table.Title, changes.Title.Ptr())
	}
	if changes.PublishedAt != nil {
		set.Add(table.PublishedAt, *changes.PublishedAt)
	}
	if changes.Slug != nil {
		set.Add(table.Slug, *changes.Slug)
	}
	if changes.Index != nil {
		set.Add(table.Index, *changes.Index)
	}

	if set.Len() > 0 {
		set.Raw(fmt.Sprintf("%s = NOW()", table.UpdatedAt))

		statement := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = %s`, table.Table, set.SQL(), table.ID, set.Next(id))
		tag, err := repository.write.Exec(context, statement, set.Args()...)
		if dberr.IsUniqueViolation(err) {
			return nil, ErrDuplicateNumber
		}
		if err != nil {
			return nil, dberr.Wrap(err, "Chapter")
		}
		if tag.RowsAffected() == 0 {
			return nil, apperr.NotFound("Chapter")
		}
	}

	return repository.FindByID(context, id)
}

// Delete removes a chapter row.
func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	table := schema.CoreChapter
	statement := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table.Table, table.ID)

	tag, err := repository.write.Exec(context, statement, id)
	if err != nil {
		return dberr.Wrap(err, "Chapter")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Chapter")
	}
	return nil
}

// # Images

func imageColumns() string {
	return strings.Join(schema.CoreChapterImage.Columns(), ", ")
}

func scanImage(row pgx.Row) (*Image, error) {
	image := &Image{}
	err := row.Scan(
		&image.ID,
		&image.ChapterID,
		&image.ImageURL,
		&image.StoragePath,
		&image.PageNumber,
		&image.Width,
		&image.Height,
		&image.CreatedAt,
	)
	return image, err
}

// Images lists the pages of a chapter ordered by page number.
func (repository *PostgresRepository) Images(context context.Context, chapterID string) ([]*Image, error) {
	return listImages(context, repository.write, chapterID)
}

type imageQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listImages(context context.Context, db imageQuerier, chapterID string) ([]*Image, error) {
	table := schema.CoreChapterImage
	statement := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s ASC`,
		imageColumns(), table.Table, table.ChapterID, table.PageNumber)

	rows, err := db.Query(context, statement, chapterID)
	if err != nil {
		return nil, dberr.Wrap(err, "Chapter image")
	}
	defer rows.Close()

	images := make([]*Image, 0)
	for rows.Next() {
		image, err := scanImage(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "Chapter image")
		}
		images = append(images, image)
	}
	return images, dberr.Wrap(rows.Err(), "Chapter image")
}

/*
ReplaceImages deletes every page of the chapter and inserts the new list.

Description: Runs in one transaction; the inserts share a single pgx.Batch
round-trip. Replaying the same list yields the same stored pages.

Parameters:
  - context: context.Context
  - chapterID: string
  - images: []*Image

Returns:
  - []*Image: the stored pages in reading order
  - error: Storage failures
*/
func (repository *PostgresRepository) ReplaceImages(context context.Context, chapterID string, images []*Image) ([]*Image, error) {
	table := schema.CoreChapterImage

	transaction, err := repository.write.Begin(context)
	if err != nil {
		return nil, dberr.Wrap(err, "Chapter image")
	}
	defer transaction.Rollback(context)

	// 1. Clear
	clear := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table.Table, table.ChapterID)
	if _, err := transaction.Exec(context, clear, chapterID); err != nil {
		return nil, dberr.Wrap(err, "Chapter image")
	}

	// 2. Batch insert
	if len(images) > 0 {
		insert := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			table.Table, table.ID, table.ChapterID, table.ImageURL, table.StoragePath, table.PageNumber, table.Width, table.Height)

		batch := &pgx.Batch{}
		for _, image := range images {
			batch.Queue(insert, uuid.New(), chapterID, image.ImageURL, image.StoragePath, image.PageNumber, image.Width, image.Height)
		}
		if err := transaction.SendBatch(context, batch).Close(); err != nil {
			return nil, dberr.Wrap(err, "Chapter image")
		}
	}

	// 3. Read back inside the transaction
	stored, err := listImages(context, transaction, chapterID)
	if err != nil {
		return nil, err
	}

	if err := transaction.Commit(context); err != nil {
		return nil, dberr.Wrap(err, "Chapter image")
	}
	return stored, nil
}

// SharedPaths matches stored paths, and for rows without one, URLs ending in the path.
func (repository *PostgresRepository) SharedPaths(context context.Context, chapterID string, paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	table := schema.CoreChapterImage
	statement := fmt.Sprintf(`
		SELECT candidate.path
		FROM unnest($2::text[]) AS candidate(path)
		WHERE EXISTS (
			SELECT 1 FROM %s image
			WHERE image.%s <> $1
			  AND (image.%s = candidate.path
			       OR (image.%s IS NULL AND image.%s LIKE '%%/' || candidate.path))
		)`,
		table.Table, table.ChapterID, table.StoragePath, table.StoragePath, table.ImageURL)

	rows, err := repository.write.Query(context, statement, chapterID, paths)
	if err != nil {
		return nil, dberr.Wrap(err, "Chapter image")
	}
	shared, err := pgx.CollectRows(rows, pgx.RowTo[string])
	return shared, dberr.Wrap(err, "Chapter image")
}

// IncrementViews bumps the chapter view counter.
func (repository *PostgresRepository) IncrementViews(context context.Context, id string) (int64, error) {
	table := schema.CoreChapter
	statement := fmt.Sprintf(`UPDATE %s SET %s = %s + 1 WHERE %s = $1 RETURNING %s`,
		table.Table, table.ViewCount, table.ViewCount, table.ID, table.ViewCount)

	var views int64
	err := repository.write.QueryRow(context, statement, id).Scan(&views)
	return views, dberr.Wrap(err, "Chapter")
}
