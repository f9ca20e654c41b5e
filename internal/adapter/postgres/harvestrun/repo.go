// Package harvestrun stores completed harvest runs and their infoboxes.
package harvestrun

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/wikibox/internal/adapter/postgres"
	"github.com/heartmarshall/wikibox/internal/domain"
)

// recordChunk bounds how many inserts go into one pgx.Batch.
const recordChunk = 500

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// TxRunner runs fn inside a transaction carried by the context.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repo persists harvest runs and their infobox records.
type Repo struct {
	pool *pgxpool.Pool
	tx   TxRunner
}

// New creates a Repo.
func New(pool *pgxpool.Pool, tx TxRunner) *Repo {
	return &Repo{pool: pool, tx: tx}
}

// SaveRun writes the run row and all its infobox records in one
// transaction. Either everything is stored or nothing is.
func (r *Repo) SaveRun(ctx context.Context, run domain.HarvestRun, boxes []domain.Infobox) error {
	if run.ID == uuid.Nil {
		return fmt.Errorf("harvest run: %w: id is required", domain.ErrValidation)
	}

	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)

		categories := run.Categories
		if categories == nil {
			categories = []string{}
		}

		_, err := q.Exec(ctx,
			`INSERT INTO harvest_runs (id, site, categories, recursive, pages, infoboxes, missing, started_at, completed_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			run.ID, run.Site, categories, run.Recursive,
			run.Pages, run.Infoboxes, run.Missing,
			run.StartedAt, run.CompletedAt,
		)
		if err != nil {
			return postgres.MapError(err, "harvest run", run.ID)
		}

		for start := 0; start < len(boxes); start += recordChunk {
			end := min(start+recordChunk, len(boxes))
			if _, err := r.insertRecords(ctx, run.ID, boxes[start:end]); err != nil {
				return postgres.MapError(err, "harvest run", run.ID)
			}
		}
		return nil
	})
}

func (r *Repo) insertRecords(ctx context.Context, runID uuid.UUID, boxes []domain.Infobox) (int, error) {
	batch := &pgx.Batch{}
	for _, b := range boxes {
		fields, err := json.Marshal(b.Fields)
		if err != nil {
			return 0, fmt.Errorf("encode fields of %q: %w", b.Page.Title, err)
		}
		if b.Fields == nil {
			fields = []byte("{}")
		}
		batch.Queue(
			`INSERT INTO infobox_records (run_id, template, page_id, page_title, fields)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (run_id, template, page_id) DO UPDATE
			 SET page_title = EXCLUDED.page_title, fields = EXCLUDED.fields`,
			runID, b.Template, b.Page.ID, b.Page.Title, json.RawMessage(fields),
		)
	}
	return r.sendBatchExec(ctx, batch)
}

func (r *Repo) sendBatchExec(ctx context.Context, batch *pgx.Batch) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	results := q.SendBatch(ctx, batch)
	defer results.Close()

	var affected int
	for range batch.Len() {
		tag, err := results.Exec()
		if err != nil {
			return affected, fmt.Errorf("batch exec: %w", err)
		}
		affected += int(tag.RowsAffected())
	}
	return affected, nil
}

// GetRun returns the stored run with the given id.
func (r *Repo) GetRun(ctx context.Context, id uuid.UUID) (domain.HarvestRun, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var run domain.HarvestRun
	err := q.QueryRow(ctx,
		`SELECT id, site, categories, recursive, pages, infoboxes, missing, started_at, completed_at
		 FROM harvest_runs WHERE id = $1`, id,
	).Scan(
		&run.ID, &run.Site, &run.Categories, &run.Recursive,
		&run.Pages, &run.Infoboxes, &run.Missing,
		&run.StartedAt, &run.CompletedAt,
	)
	if err != nil {
		return domain.HarvestRun{}, postgres.MapError(err, "harvest run", id)
	}
	return run, nil
}

// LatestRunID returns the most recently completed run of site.
func (r *Repo) LatestRunID(ctx context.Context, site string) (uuid.UUID, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var id uuid.UUID
	err := q.QueryRow(ctx,
		`SELECT id FROM harvest_runs WHERE site = $1
		 ORDER BY completed_at DESC, started_at DESC LIMIT 1`, site,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, postgres.MapError(err, "latest run of site", site)
	}
	return id, nil
}

// DeleteRun removes a stored run together with its records.
func (r *Repo) DeleteRun(ctx context.Context, id uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, `DELETE FROM harvest_runs WHERE id = $1`, id)
	if err != nil {
		return postgres.MapError(err, "harvest run", id)
	}
	if tag.RowsAffected() == 0 {
		return postgres.MapError(pgx.ErrNoRows, "harvest run", id)
	}
	return nil
}

// ListRecords returns the infoboxes of one run, ordered by template and
// page title.
func (r *Repo) ListRecords(ctx context.Context, f Filter) ([]domain.Infobox, error) {
	if f.RunID == uuid.Nil {
		return nil, fmt.Errorf("list records: %w: run id is required", domain.ErrValidation)
	}

	qb := psql.Select("template", "page_id", "page_title", "fields").
		From("infobox_records").
		Where(squirrel.Eq{"run_id": f.RunID}).
		OrderBy("template", "page_title", "page_id")
	if f.Template != "" {
		qb = qb.Where(squirrel.Eq{"template": f.Template})
	}
	if f.Title != "" {
		qb = qb.Where(squirrel.ILike{"page_title": "%" + f.Title + "%"})
	}
	if f.Limit > 0 {
		qb = qb.Limit(f.Limit)
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("list records: build query: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, "records of run", f.RunID)
	}
	defer rows.Close()

	var boxes []domain.Infobox
	for rows.Next() {
		var (
			b   domain.Infobox
			raw []byte
		)
		if err := rows.Scan(&b.Template, &b.Page.ID, &b.Page.Title, &raw); err != nil {
			return nil, postgres.MapError(err, "records of run", f.RunID)
		}
		if err := json.Unmarshal(raw, &b.Fields); err != nil {
			return nil, fmt.Errorf("decode fields of %q: %w", b.Page.Title, err)
		}
		boxes = append(boxes, b)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "records of run", f.RunID)
	}
	return boxes, nil
}
