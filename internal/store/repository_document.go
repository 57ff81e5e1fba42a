// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"

	"github.com/MKhiriev/go-farm-sync/internal/logger"
	"github.com/MKhiriev/go-farm-sync/models"
)

const documentsTable = "documents"

var documentColumns = []string{
	"collection",
	"id",
	"version",
	"deleted",
	"data",
	"created_at",
	"updated_at",
}

var (
	psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

	sqlOperators = map[models.FilterOp]string{
		models.OpEqual:          "=",
		models.OpNotEqual:       "<>",
		models.OpLess:           "<",
		models.OpLessOrEqual:    "<=",
		models.OpGreater:        ">",
		models.OpGreaterOrEqual: ">=",
	}
)

// documentRepository is the PostgreSQL-backed implementation of
// [DocumentRepository]. Documents live in a single table keyed by
// (collection, id) with their body stored as jsonb.
//
// The server owns the version counter: every successful write bumps it and
// the new value is returned to the caller. Writes are last-write-wins.
type documentRepository struct {
	*DB
	logger *logger.Logger
}

// NewDocumentRepository constructs a [DocumentRepository].
func NewDocumentRepository(db *DB, logger *logger.Logger) DocumentRepository {
	return &documentRepository{
		DB:     db,
		logger: logger,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (models.Document, error) {
	var (
		doc  models.Document
		data []byte
	)
	err := row.Scan(&doc.Collection, &doc.ID, &doc.Version, &doc.Deleted, &data, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return models.Document{}, err
	}
	doc.Data = json.RawMessage(data)
	return doc, nil
}

// Get returns the live document with the given id.
func (d *documentRepository) Get(ctx context.Context, collection, id string) (models.Document, error) {
	log := logger.FromContext(ctx)

	query, args, err := psql.Select(documentColumns...).
		From(documentsTable).
		Where(sq.Eq{"collection": collection, "id": id, "deleted": false}).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "documentRepository.Get").Msg("failed to build query")
		return models.Document{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	doc, err := scanDocument(d.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Document{}, ErrDocumentNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "documentRepository.Get").
			Str("collection", collection).
			Str("id", id).
			Msg("failed to scan document row")
		return models.Document{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return doc, nil
}

// List returns a page of live documents in creation order.
func (d *documentRepository) List(ctx context.Context, collection string, page models.Page) (models.DocumentList, error) {
	page = page.Normalize()

	builder := psql.Select(documentColumns...).
		From(documentsTable).
		Where(sq.Eq{"collection": collection, "deleted": false}).
		OrderBy("created_at ASC", "id ASC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset))

	return d.list(ctx, "List", builder)
}

// Query evaluates q against the jsonb bodies of live documents. Filter
// values are compared as jsonb so numbers compare numerically and strings
// lexically.
func (d *documentRepository) Query(ctx context.Context, q models.Query) (models.DocumentList, error) {
	builder, err := buildDocumentQuery(q)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "documentRepository.Query").Msg("invalid query")
		return models.DocumentList{}, err
	}

	return d.list(ctx, "Query", builder)
}

func buildDocumentQuery(q models.Query) (sq.SelectBuilder, error) {
	page := models.Page{Limit: q.Limit, Offset: q.Offset}.Normalize()

	builder := psql.Select(documentColumns...).
		From(documentsTable).
		Where(sq.Eq{"collection": q.Collection, "deleted": false})

	for _, f := range q.Filters {
		op, ok := sqlOperators[f.Op]
		if !ok || !fieldNamePattern.MatchString(f.Field) {
			return builder, fmt.Errorf("%w: %s %s", ErrInvalidFilter, f.Field, f.Op)
		}

		value, err := json.Marshal(f.Value)
		if err != nil {
			return builder, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
		}

		builder = builder.Where(sq.Expr("data -> ?::text "+op+" ?::jsonb", f.Field, string(value)))
	}

	if q.OrderBy != "" {
		if !fieldNamePattern.MatchString(q.OrderBy) {
			return builder, fmt.Errorf("%w: order by %s", ErrInvalidFilter, q.OrderBy)
		}
		direction := "ASC"
		if q.Descending {
			direction = "DESC"
		}
		builder = builder.OrderByClause("data -> ?::text "+direction, q.OrderBy)
	}

	return builder.
		OrderBy("created_at ASC", "id ASC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset)), nil
}

func (d *documentRepository) list(ctx context.Context, method string, builder sq.SelectBuilder) (models.DocumentList, error) {
	log := logger.FromContext(ctx)

	query, args, err := builder.ToSql()
	if err != nil {
		log.Err(err).Str("func", "documentRepository."+method).Msg("failed to build query")
		return models.DocumentList{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := d.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "documentRepository."+method).
			Str("pg_code", postgresError(err)).
			Msg("failed to execute query")
		return models.DocumentList{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	docs := make([]models.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			log.Err(err).Str("func", "documentRepository."+method).Msg("failed to scan document row")
			return models.DocumentList{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		log.Err(err).Str("func", "documentRepository."+method).Msg("error occurred during rows iteration")
		return models.DocumentList{}, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return models.DocumentList{Documents: docs, Length: len(docs)}, nil
}

// Create stores a new document at version 1. A soft-deleted document with
// the same id is resurrected at its next version; a live one yields
// [ErrDocumentExists].
func (d *documentRepository) Create(ctx context.Context, collection string, write models.DocumentWrite) (models.Document, error) {
	builder := psql.Insert(documentsTable).
		Columns(documentColumns...).
		Values(collection, write.ID, 1, false, string(write.Data), sq.Expr("now()"), sq.Expr("now()")).
		Suffix(`ON CONFLICT (collection, id) DO UPDATE SET
			version = documents.version + 1,
			deleted = false,
			data = EXCLUDED.data,
			updated_at = now()
		WHERE documents.deleted`).
		Suffix("RETURNING collection, id, version, deleted, data, created_at, updated_at")

	return d.write(ctx, "Create", collection, write.ID, builder, ErrDocumentExists)
}

// Update replaces the body of a live document and bumps its version.
func (d *documentRepository) Update(ctx context.Context, collection string, write models.DocumentWrite) (models.Document, error) {
	builder := psql.Update(documentsTable).
		Set("data", sq.Expr("?::jsonb", string(write.Data))).
		Set("version", sq.Expr("version + 1")).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"collection": collection, "id": write.ID, "deleted": false}).
		Suffix("RETURNING collection, id, version, deleted, data, created_at, updated_at")

	return d.write(ctx, "Update", collection, write.ID, builder, ErrDocumentNotFound)
}

// Delete soft-deletes a live document and bumps its version.
func (d *documentRepository) Delete(ctx context.Context, collection, id string) (models.Document, error) {
	builder := psql.Update(documentsTable).
		Set("deleted", true).
		Set("version", sq.Expr("version + 1")).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"collection": collection, "id": id, "deleted": false}).
		Suffix("RETURNING collection, id, version, deleted, data, created_at, updated_at")

	return d.write(ctx, "Delete", collection, id, builder, ErrDocumentNotFound)
}

func (d *documentRepository) write(ctx context.Context, method, collection, id string, builder sq.Sqlizer, noRowsErr error) (models.Document, error) {
	log := logger.FromContext(ctx)

	query, args, err := builder.ToSql()
	if err != nil {
		log.Err(err).Str("func", "documentRepository."+method).Msg("failed to build query")
		return models.Document{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	doc, err := scanDocument(d.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Document{}, noRowsErr
	}
	if err != nil {
		code := postgresError(err)
		log.Err(err).
			Str("func", "documentRepository."+method).
			Str("collection", collection).
			Str("id", id).
			Str("pg_code", code).
			Bool("retryable", d.Classify(err) == Retryable).
			Msg("failed to write document")
		if code == pgerrcode.UniqueViolation {
			return models.Document{}, ErrDocumentExists
		}
		return models.Document{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	log.Debug().
		Str("func", "documentRepository."+method).
		Str("collection", collection).
		Str("id", id).
		Int64("version", doc.Version).
		Msg("document written")

	return doc, nil
}
