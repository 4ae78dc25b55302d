package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// sessionRepo implements SessionRepo.
type sessionRepo struct {
	drv *entsql.Driver
}

func (r *sessionRepo) Create(ctx context.Context, config string) (*Session, error) {
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Config:    config,
	}

	query, args := builder().
		Insert(tableSessions).
		Columns("id", "created_at", "config").
		Values(s.ID, s.CreatedAt, s.Config).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return s, nil
}

func (r *sessionRepo) Get(ctx context.Context, id string) (*Session, error) {
	query, args := builder().
		Select("id", "created_at", "config").
		From(entsql.Table(tableSessions)).
		Where(entsql.EQ("id", id)).
		Query()

	out, err := r.query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return &out[0], nil
}

func (r *sessionRepo) List(ctx context.Context, opts QueryOpts) ([]Session, error) {
	sel := builder().
		Select("id", "created_at", "config").
		From(entsql.Table(tableSessions))

	var preds []*entsql.Predicate
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("created_at", opts.From))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("created_at", opts.To))
	}
	if len(preds) > 0 {
		sel = sel.Where(entsql.And(preds...))
	}
	sel = sel.OrderBy(entsql.Desc("created_at"))
	if opts.Limit > 0 {
		sel = sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	return r.query(ctx, query, args)
}

func (r *sessionRepo) query(ctx context.Context, query string, args []any) ([]Session, error) {
	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.CreatedAt, &s.Config); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	query, args := builder().
		Delete(tableSessions).
		Where(entsql.EQ("id", id)).
		Query()

	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}
