package store

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// questionRepo implements QuestionRepo.
type questionRepo struct {
	drv *entsql.Driver
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

func (r *questionRepo) Insert(ctx context.Context, q Question) (bool, error) {
	query, args := builder().
		Insert(tableQuestions).
		Columns("digest", "text", "category").
		Values(q.Digest, q.Text, q.Category).
		OnConflict(entsql.ConflictColumns("digest"), entsql.DoNothing()).
		Query()

	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		return false, fmt.Errorf("insert question: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert question: %w", err)
	}
	return n > 0, nil
}

func (r *questionRepo) Get(ctx context.Context, id int) (*Question, error) {
	query, args := builder().
		Select("id", "digest", "text", "category").
		From(entsql.Table(tableQuestions)).
		Where(entsql.EQ("id", id)).
		Query()

	qs, err := r.query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return nil, fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	return &qs[0], nil
}

func (r *questionRepo) ListByIDs(ctx context.Context, ids []int) ([]Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query, qargs := builder().
		Select("id", "digest", "text", "category").
		From(entsql.Table(tableQuestions)).
		Where(entsql.In("id", args...)).
		OrderBy("id").
		Query()
	return r.query(ctx, query, qargs)
}

func (r *questionRepo) query(ctx context.Context, query string, args []any) ([]Question, error) {
	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.Digest, &q.Text, &q.Category); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *questionRepo) Categories(ctx context.Context) ([]string, error) {
	query, args := builder().
		Select("category").
		Distinct().
		From(entsql.Table(tableQuestions)).
		OrderBy("category").
		Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *questionRepo) Stats(ctx context.Context, categories []string) ([]QuestionStatsRow, error) {
	if len(categories) == 0 {
		return nil, nil
	}
	cats := make([]any, len(categories))
	for i, c := range categories {
		cats[i] = c
	}

	// Both tables carry explicit aliases; a join without one is renamed
	// by the builder and the column references no longer resolve.
	q := entsql.Table(tableQuestions).As("q")
	a := entsql.Table(tableAnswers).As("a")
	query, args := builder().
		Select(
			q.C("id"), q.C("text"), q.C("category"),
			entsql.Count(a.C("id")), entsql.Avg(a.C("score")),
		).
		From(q).
		LeftJoin(a).On(q.C("id"), a.C("question_id")).
		Where(entsql.In(q.C("category"), cats...)).
		GroupBy(q.C("id"), q.C("text"), q.C("category")).
		OrderBy(q.C("id")).
		Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query question stats: %w", err)
	}
	defer rows.Close()

	var out []QuestionStatsRow
	for rows.Next() {
		var (
			row  QuestionStatsRow
			mean sql.NullFloat64
		)
		if err := rows.Scan(&row.QuestionID, &row.Text, &row.Category, &row.Attempts, &mean); err != nil {
			return nil, fmt.Errorf("scan question stats: %w", err)
		}
		if mean.Valid {
			v := mean.Float64
			row.MeanScore = &v
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *questionRepo) DeleteAll(ctx context.Context) error {
	tx, err := r.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	for _, table := range []string{tableAnswers, tableSessions, tableQuestions} {
		query, args := builder().Delete(table).Query()
		if err := tx.Exec(ctx, query, args, nil); err != nil {
			tx.Rollback()
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return tx.Commit()
}
