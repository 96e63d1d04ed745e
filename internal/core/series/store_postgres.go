// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package series provides the PostgreSQL implementation for series data access.

It relies on a few PostgreSQL features to keep every read a single round-trip:
  - JSON Aggregation: Format, genres and credits come back as JSON columns.
  - Window Functions: COUNT(*) OVER() returns the listing total with the page.
  - DISTINCT ON: The latest updates feed picks the newest chapter per series.
  - Transactions: A series and its links are written atomically.
*/
package series

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/komik/internal/platform/apperr"
	"github.com/taibuivan/komik/internal/platform/database/schema"
	"github.com/taibuivan/komik/internal/platform/dberr"
	"github.com/taibuivan/komik/internal/platform/postgres"
	"github.com/taibuivan/komik/internal/platform/validate"
	"github.com/taibuivan/komik/pkg/pagination"
	"github.com/taibuivan/komik/pkg/query"
)

// ErrSlugInUse is returned when a series slug collides with another row.
var ErrSlugInUse = apperr.Conflict("Slug is already in use")

// PostgresRepository implements [Repository] on both credential tiers.
type PostgresRepository struct {
	write *pgxpool.Pool
	read  *pgxpool.Pool
}

// NewPostgresRepository returns a fully wired postgres implementation.
func NewPostgresRepository(pools *postgres.Pools) *PostgresRepository {
	return &PostgresRepository{write: pools.Write, read: pools.Read}
}

// # Projection

// seriesSelect is the column list shared by every hydrated series read.
// The series table is aliased "s" and the format table "f".
var seriesSelect = func() string {
	series, format := schema.CoreSeries, schema.CoreFormat
	genre, seriesGenre := schema.CoreGenre, schema.CoreSeriesGenre
	author, seriesAuthor := schema.CoreAuthor, schema.CoreSeriesAuthor

	columns := make([]string, 0, len(series.Columns()))
	for _, column := range series.Columns() {
		columns = append(columns, "s."+column)
	}

	return fmt.Sprintf(`
		SELECT %s,
			CASE WHEN f.%s IS NULL THEN NULL
				ELSE json_build_object('id', f.%s, 'name', f.%s, 'slug', f.%s) END AS format,
			COALESCE((
				SELECT json_agg(json_build_object('id', g.%s, 'name', g.%s, 'slug', g.%s) ORDER BY g.%s)
				FROM %s g
				JOIN %s sg ON sg.%s = g.%s
				WHERE sg.%s = s.%s
			), '[]') AS genres,
			COALESCE((
				SELECT json_agg(json_build_object('author_id', a.%s, 'name', a.%s, 'role', sa.%s) ORDER BY sa.%s DESC, a.%s)
				FROM %s a
				JOIN %s sa ON sa.%s = a.%s
				WHERE sa.%s = s.%s
			), '[]') AS authors`,
		strings.Join(columns, ", "),
		format.ID,
		format.ID, format.Name, format.Slug,
		genre.ID, genre.Name, genre.Slug, genre.Name,
		genre.Table,
		seriesGenre.Table, seriesGenre.GenreID, genre.ID,
		seriesGenre.SeriesID, series.ID,
		author.ID, author.Name, seriesAuthor.Role, seriesAuthor.Role, author.Name,
		author.Table,
		seriesAuthor.Table, seriesAuthor.AuthorID, author.ID,
		seriesAuthor.SeriesID, series.ID,
	)
}()

// seriesFrom joins the format table under the aliases used by [seriesSelect].
var seriesFrom = fmt.Sprintf(` FROM %s s LEFT JOIN %s f ON f.%s = s.%s`,
	schema.CoreSeries.Table, schema.CoreFormat.Table, schema.CoreFormat.ID, schema.CoreSeries.FormatID)

// scanSeries hydrates one row produced by [seriesSelect]; extra receives trailing columns.
func scanSeries(row pgx.Row, extra ...any) (*Series, error) {
	series := &Series{}
	var formatJSON, genresJSON, authorsJSON []byte

	targets := []any{
		&series.ID,
		&series.Title,
		&series.AlternativeTitle,
		&series.Slug,
		&series.Description,
		&series.FormatID,
		&series.Status,
		&series.CoverImageURL,
		&series.CoverStoragePath,
		&series.ViewCount,
		&series.Rating,
		&series.CreatedAt,
		&series.UpdatedAt,
		&formatJSON,
		&genresJSON,
		&authorsJSON,
	}

	if err := row.Scan(append(targets, extra...)...); err != nil {
		return nil, err
	}

	// JSON Aggregation Deserialization
	if len(formatJSON) > 0 {
		if err := json.Unmarshal(formatJSON, &series.Format); err != nil {
			return nil, fmt.Errorf("postgres: failed to decode series format: %w", err)
		}
	}
	if err := json.Unmarshal(genresJSON, &series.Genres); err != nil {
		return nil, fmt.Errorf("postgres: failed to decode series genres: %w", err)
	}
	if err := json.Unmarshal(authorsJSON, &series.Authors); err != nil {
		return nil, fmt.Errorf("postgres: failed to decode series authors: %w", err)
	}

	return series, nil
}

// # Reads

/*
List returns a filtered, paginated slice of series and the total count.

Description: Filters are appended to the WHERE clause as positional
arguments. The genre filter requires every requested slug to be present.

Parameters:
  - context: context.Context
  - filter: Filter
  - page: pagination.Params

Returns:
  - []*Series: Slice of hydrated series, newest first
  - int: Total count matching filters
  - error: Database execution errors
*/
func (repository *PostgresRepository) List(context context.Context, filter Filter, page pagination.Params) ([]*Series, int, error) {
	series, format := schema.CoreSeries, schema.CoreFormat

	var builder strings.Builder
	var args []any
	next := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	builder.WriteString(seriesSelect)
	builder.WriteString(", COUNT(*) OVER() AS total_count")
	builder.WriteString(seriesFrom)
	builder.WriteString(" WHERE TRUE")

	// Free-text search
	if filter.Query != "" {
		placeholder := next(filter.Query)
		builder.WriteString(fmt.Sprintf(" AND (s.%s ILIKE '%%' || %s || '%%' OR s.%s ILIKE '%%' || %s || '%%')",
			series.Title, placeholder, series.AlternativeTitle, placeholder))
	}

	// Status Filtering
	if filter.Status != "" {
		builder.WriteString(fmt.Sprintf(" AND s.%s = %s", series.Status, next(filter.Status)))
	}

	// Format Filtering
	if filter.Format != "" {
		builder.WriteString(fmt.Sprintf(" AND f.%s = %s", format.Slug, next(filter.Format)))
	}

	// Genre Filtering (all of)
	if len(filter.Genres) > 0 {
		genre, seriesGenre := schema.CoreGenre, schema.CoreSeriesGenre
		builder.WriteString(fmt.Sprintf(`
			AND s.%s IN (
				SELECT sg.%s FROM %s sg JOIN %s g ON g.%s = sg.%s
				WHERE g.%s = ANY(%s)
				GROUP BY sg.%s
				HAVING COUNT(DISTINCT g.%s) = %s
			)`,
			series.ID,
			seriesGenre.SeriesID, seriesGenre.Table, genre.Table, genre.ID, seriesGenre.GenreID,
			genre.Slug, next(filter.Genres),
			seriesGenre.SeriesID,
			genre.Slug, next(len(filter.Genres)),
		))
	}

	builder.WriteString(fmt.Sprintf(" ORDER BY s.%s DESC, s.%s DESC LIMIT %s OFFSET %s",
		series.CreatedAt, series.ID, next(page.Limit), next(page.Offset())))

	rows, err := repository.read.Query(context, builder.String(), args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "Series")
	}
	defer rows.Close()

	list := make([]*Series, 0)
	total := 0
	for rows.Next() {
		item, err := scanSeries(rows, &total)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "Series")
		}
		list = append(list, item)
	}

	return list, total, dberr.Wrap(rows.Err(), "Series")
}

// FindByID fetches a hydrated series from the write tier.
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Series, error) {
	return repository.findOne(context, repository.write, schema.CoreSeries.ID, id)
}

// FindBySlug fetches a hydrated series from the read tier.
func (repository *PostgresRepository) FindBySlug(context context.Context, slug string) (*Series, error) {
	return repository.findOne(context, repository.read, schema.CoreSeries.Slug, slug)
}

func (repository *PostgresRepository) findOne(context context.Context, db *pgxpool.Pool, column, value string) (*Series, error) {
	statement := seriesSelect + seriesFrom + fmt.Sprintf(" WHERE s.%s = $1", column)

	series, err := scanSeries(db.QueryRow(context, statement, value))
	if err != nil {
		return nil, dberr.Wrap(err, "Series")
	}
	return series, nil
}

// SlugTaken checks for another series using slug.
func (repository *PostgresRepository) SlugTaken(context context.Context, slug, excludeID string) (bool, error) {
	table := schema.CoreSeries
	statement := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND %s::text <> $2)`,
		table.Table, table.Slug, table.ID)

	var taken bool
	if err := repository.write.QueryRow(context, statement, slug, excludeID).Scan(&taken); err != nil {
		return false, dberr.Wrap(err, "Series")
	}
	return taken, nil
}

// # Writes

/*
Create inserts a series with its genre and author links in one transaction.

Description: Any failure rolls the whole unit back, so a series never exists
without the relations the caller asked for.

Parameters:
  - context: context.Context
  - series: *Series
  - genreIDs: []string
  - credits: []Credit

Returns:
  - error: [ErrSlugInUse], dangling reference validation, or storage errors
*/
func (repository *PostgresRepository) Create(context context.Context, series *Series, genreIDs []string, credits []Credit) error {
	table := schema.CoreSeries

	transaction, err := repository.write.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "Series")
	}
	defer transaction.Rollback(context)

	// 1. Insert the series row
	statement := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING %s, %s, %s, %s`,
		table.Table,
		table.ID, table.Title, table.AlternativeTitle, table.Slug, table.Description,
		table.FormatID, table.Status, table.CoverImageURL, table.CoverStoragePath,
		table.ViewCount, table.Rating, table.CreatedAt, table.UpdatedAt,
	)

	err = transaction.QueryRow(context, statement,
		series.ID, series.Title, series.AlternativeTitle, series.Slug, series.Description,
		series.FormatID, series.Status, series.CoverImageURL, series.CoverStoragePath,
	).Scan(&series.ViewCount, &series.Rating, &series.CreatedAt, &series.UpdatedAt)
	if dberr.IsUniqueViolation(err) {
		return ErrSlugInUse
	}
	if err != nil {
		return dberr.Wrap(err, "Series")
	}

	// 2. Links
	if err := replaceGenres(context, transaction, series.ID, genreIDs); err != nil {
		return err
	}
	if err := replaceAuthors(context, transaction, series.ID, credits); err != nil {
		return err
	}

	// 3. Commit
	if err := transaction.Commit(context); err != nil {
		return dberr.Wrap(err, "Series")
	}
	return nil
}

/*
Update writes only the fields present in changes.

Parameters:
  - context: context.Context
  - id: string
  - changes: Changes

Returns:
  - *Series: The hydrated row after the update
  - error: NotFound, [ErrSlugInUse] or storage errors
*/
func (repository *PostgresRepository) Update(context context.Context, id string, changes Changes) (*Series, error) {
	table := schema.CoreSeries

	set := query.Assignments{}
	for _, field := range []struct {
		column string
		value  validate.Value
	}{
		{table.Title, changes.Title},
		{table.AlternativeTitle, changes.AlternativeTitle},
		{table.Slug, changes.Slug},
		{table.Description, changes.Description},
		{table.FormatID, changes.FormatID},
		{table.Status, changes.Status},
		{table.CoverImageURL, changes.CoverImageURL},
		{table.CoverStoragePath, changes.CoverStoragePath},
	} {
		if field.value.Set {
			set.Add(field.column, field.value.Ptr())
		}
	}

	if set.Len() > 0 {
		set.Raw(fmt.Sprintf("%s = NOW()", table.UpdatedAt))

		statement := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = %s`,
			table.Table, set.SQL(), table.ID, set.Next(id))

		tag, err := repository.write.Exec(context, statement, set.Args()...)
		if dberr.IsUniqueViolation(err) {
			return nil, ErrSlugInUse
		}
		if err != nil {
			return nil, dberr.Wrap(err, "Series")
		}
		if tag.RowsAffected() == 0 {
			return nil, apperr.NotFound("Series")
		}
	}

	return repository.FindByID(context, id)
}

// Delete removes the series row and, through the cascade, its chapters and links.
func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	table := schema.CoreSeries
	statement := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table.Table, table.ID)

	tag, err := repository.write.Exec(context, statement, id)
	if err != nil {
		return dberr.Wrap(err, "Series")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Series")
	}
	return nil
}

// ReplaceGenres swaps the genre set and returns the new links.
func (repository *PostgresRepository) ReplaceGenres(context context.Context, id string, genreIDs []string) ([]Ref, error) {
	transaction, err := repository.write.Begin(context)
	if err != nil {
		return nil, dberr.Wrap(err, "Series")
	}
	defer transaction.Rollback(context)

	if err := replaceGenres(context, transaction, id, genreIDs); err != nil {
		return nil, err
	}
	if err := transaction.Commit(context); err != nil {
		return nil, dberr.Wrap(err, "Series")
	}

	series, err := repository.FindByID(context, id)
	if err != nil {
		return nil, err
	}
	return series.Genres, nil
}

// ReplaceAuthors swaps the credit set and returns the new links.
func (repository *PostgresRepository) ReplaceAuthors(context context.Context, id string, credits []Credit) ([]Credit, error) {
	transaction, err := repository.write.Begin(context)
	if err != nil {
		return nil, dberr.Wrap(err, "Series")
	}
	defer transaction.Rollback(context)

	if err := replaceAuthors(context, transaction, id, credits); err != nil {
		return nil, err
	}
	if err := transaction.Commit(context); err != nil {
		return nil, dberr.Wrap(err, "Series")
	}

	series, err := repository.FindByID(context, id)
	if err != nil {
		return nil, err
	}
	return series.Authors, nil
}

// IncrementViews bumps the counter and returns its new value.
func (repository *PostgresRepository) IncrementViews(context context.Context, id string) (int64, error) {
	table := schema.CoreSeries
	statement := fmt.Sprintf(`UPDATE %s SET %s = %s + 1 WHERE %s = $1 RETURNING %s`,
		table.Table, table.ViewCount, table.ViewCount, table.ID, table.ViewCount)

	var views int64
	err := repository.write.QueryRow(context, statement, id).Scan(&views)
	return views, dberr.Wrap(err, "Series")
}

// # Junctions

/*
replaceGenres clears and re-inserts the genre links of a series.

Description: The inserts are queued on a pgx.Batch so the whole set costs a
single network round-trip inside the caller's transaction.
*/
func replaceGenres(context context.Context, transaction pgx.Tx, id string, genreIDs []string) error {
	table := schema.CoreSeriesGenre

	// Record Deletion Phase
	clear := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", table.Table, table.SeriesID)
	if _, err := transaction.Exec(context, clear, id); err != nil {
		return dberr.Wrap(err, "Genre")
	}

	if len(genreIDs) == 0 {
		return nil
	}

	// Batch Execution
	insert := fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES ($1, $2)", table.Table, table.SeriesID, table.GenreID)
	batch := &pgx.Batch{}
	for _, genreID := range genreIDs {
		batch.Queue(insert, id, genreID)
	}

	if err := transaction.SendBatch(context, batch).Close(); err != nil {
		return dberr.Wrap(err, "Genre")
	}
	return nil
}

// replaceAuthors clears and re-inserts the credits of a series.
func replaceAuthors(context context.Context, transaction pgx.Tx, id string, credits []Credit) error {
	table := schema.CoreSeriesAuthor

	clear := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", table.Table, table.SeriesID)
	if _, err := transaction.Exec(context, clear, id); err != nil {
		return dberr.Wrap(err, "Author")
	}

	if len(credits) == 0 {
		return nil
	}

	insert := fmt.Sprintf("INSERT INTO %s (%s, %s, %s) VALUES ($1, $2, $3)",
		table.Table, table.SeriesID, table.AuthorID, table.Role)
	batch := &pgx.Batch{}
	for _, credit := range credits {
		batch.Queue(insert, id, credit.AuthorID, credit.Role)
	}

	if err := transaction.SendBatch(context, batch).Close(); err != nil {
		return dberr.Wrap(err, "Author")
	}
	return nil
}

// # Workflow Support

// ChapterImages lists the URL and stored path of every page of the series.
func (repository *PostgresRepository) ChapterImages(context context.Context, seriesID string) ([]StoredImage, error) {
	image, chapter := schema.CoreChapterImage, schema.CoreChapter

	statement := fmt.Sprintf(`
		SELECT ci.%s, ci.%s
		FROM %s ci
		JOIN %s c ON c.%s = ci.%s
		WHERE c.%s = $1`,
		image.ImageURL, image.StoragePath,
		image.Table,
		chapter.Table, chapter.ID, image.ChapterID,
		chapter.SeriesID,
	)

	rows, err := repository.write.Query(context, statement, seriesID)
	if err != nil {
		return nil, dberr.Wrap(err, "Chapter image")
	}
	defer rows.Close()

	var images []StoredImage
	for rows.Next() {
		var stored StoredImage
		if err := rows.Scan(&stored.URL, &stored.Path); err != nil {
			return nil, dberr.Wrap(err, "Chapter image")
		}
		images = append(images, stored)
	}
	return images, dberr.Wrap(rows.Err(), "Chapter image")
}

// # Reading Views

/*
ReaderView loads one chapter of a series with its pages and neighbours.

Description: Neighbours are ordered by (index, id) so chapters sharing the
sentinel index still have a stable previous and next.

Parameters:
  - context: context.Context
  - seriesSlug: string
  - chapterRef: string (chapter slug or id)

Returns:
  - *ReaderView: the view
  - error: NotFound for an unknown series or chapter
*/
func (repository *PostgresRepository) ReaderView(context context.Context, seriesSlug, chapterRef string) (*ReaderView, error) {
	series, chapter, image := schema.CoreSeries, schema.CoreChapter, schema.CoreChapterImage
	view := &ReaderView{Images: make([]Page, 0)}

	// 1. Series header
	seriesQuery := fmt.Sprintf(`SELECT %s, %s, %s, %s FROM %s WHERE %s = $1`,
		series.ID, series.Title, series.Slug, series.CoverImageURL, series.Table, series.Slug)
	err := repository.read.QueryRow(context, seriesQuery, seriesSlug).Scan(
		&view.Series.ID, &view.Series.Title, &view.Series.Slug, &view.Series.CoverImageURL)
	if err != nil {
		return nil, dberr.Wrap(err, "Series")
	}

	// 2. The chapter itself
	entryColumns := fmt.Sprintf("%s, %s, %s, %s, %s, %s",
		chapter.ID, chapter.ChapterNumber, chapter.Title, chapter.Slug, chapter.Index, chapter.PublishedAt)

	chapterQuery := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND (%s = $2 OR %s::text = $2) LIMIT 1`,
		entryColumns, chapter.Table, chapter.SeriesID, chapter.Slug, chapter.ID)
	if err := scanEntry(repository.read.QueryRow(context, chapterQuery, view.Series.ID, chapterRef), &view.Chapter); err != nil {
		return nil, dberr.Wrap(err, "Chapter")
	}

	// 3. Pages in reading order
	pagesQuery := fmt.Sprintf(`SELECT %s, %s, %s, %s FROM %s WHERE %s = $1 ORDER BY %s ASC`,
		image.PageNumber, image.ImageURL, image.Width, image.Height, image.Table, image.ChapterID, image.PageNumber)
	rows, err := repository.read.Query(context, pagesQuery, view.Chapter.ID)
	if err != nil {
		return nil, dberr.Wrap(err, "Chapter image")
	}
	for rows.Next() {
		var page Page
		if err := rows.Scan(&page.PageNumber, &page.ImageURL, &page.Width, &page.Height); err != nil {
			rows.Close()
			return nil, dberr.Wrap(err, "Chapter image")
		}
		view.Images = append(view.Images, page)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "Chapter image")
	}

	// 4. Neighbours
	neighbour := func(comparison, direction string) (*ReaderEntry, error) {
		statement := fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE %s = $1 AND (%s, %s) %s ($2, $3)
			ORDER BY %s %s, %s %s
			LIMIT 1`,
			entryColumns, chapter.Table,
			chapter.SeriesID, chapter.Index, chapter.ID, comparison,
			chapter.Index, direction, chapter.ID, direction,
		)

		entry := &ReaderEntry{}
		err := scanEntry(repository.read.QueryRow(context, statement, view.Series.ID, view.Chapter.Index, view.Chapter.ID), entry)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, dberr.Wrap(err, "Chapter")
		}
		return entry, nil
	}

	if view.Previous, err = neighbour("<", "DESC"); err != nil {
		return nil, err
	}
	if view.Next, err = neighbour(">", "ASC"); err != nil {
		return nil, err
	}

	return view, nil
}

func scanEntry(row pgx.Row, entry *ReaderEntry) error {
	return row.Scan(&entry.ID, &entry.ChapterNumber, &entry.Title, &entry.Slug, &entry.Index, &entry.PublishedAt)
}

/*
LatestUpdates returns the newest chapter of each series, most recent first.

Parameters:
  - context: context.Context
  - limit: int (already clamped by the caller)

Returns:
  - []*Update: the feed (never nil)
  - error: Retrieval errors
*/
func (repository *PostgresRepository) LatestUpdates(context context.Context, limit int) ([]*Update, error) {
	series, chapter := schema.CoreSeries, schema.CoreChapter

	statement := fmt.Sprintf(`
		SELECT s.%s, s.%s, s.%s, s.%s,
			c.%s, c.%s, c.%s, c.%s, c.%s, c.%s
		FROM (
			SELECT DISTINCT ON (%s) %s, %s, %s, %s, %s, %s, %s
			FROM %s
			ORDER BY %s, %s DESC, %s DESC
		) c
		JOIN %s s ON s.%s = c.%s
		ORDER BY c.%s DESC
		LIMIT $1`,
		series.ID, series.Title, series.Slug, series.CoverImageURL,
		chapter.ID, chapter.ChapterNumber, chapter.Title, chapter.Slug, chapter.Index, chapter.PublishedAt,
		chapter.SeriesID, chapter.ID, chapter.SeriesID, chapter.ChapterNumber, chapter.Title, chapter.Slug, chapter.Index, chapter.PublishedAt,
		chapter.Table,
		chapter.SeriesID, chapter.PublishedAt, chapter.Index,
		series.Table, series.ID, chapter.SeriesID,
		chapter.PublishedAt,
	)

	rows, err := repository.read.Query(context, statement, limit)
	if err != nil {
		return nil, dberr.Wrap(err, "Chapter")
	}
	defer rows.Close()

	updates := make([]*Update, 0)
	for rows.Next() {
		update := &Update{}
		err := rows.Scan(
			&update.Series.ID, &update.Series.Title, &update.Series.Slug, &update.Series.CoverImageURL,
			&update.Chapter.ID, &update.Chapter.ChapterNumber, &update.Chapter.Title,
			&update.Chapter.Slug, &update.Chapter.Index, &update.Chapter.PublishedAt,
		)
		if err != nil {
			return nil, dberr.Wrap(err, "Chapter")
		}
		updates = append(updates, update)
	}

	return updates, dberr.Wrap(rows.Err(), "Chapter")
}
