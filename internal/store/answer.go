package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// answerRepo implements AnswerRepo.
type answerRepo struct {
	drv *entsql.Driver
}

func (r *answerRepo) Create(ctx context.Context, sessionID string, questionID int, audioPath string) (*Answer, error) {
	a := &Answer{
		SessionID:  sessionID,
		QuestionID: questionID,
		AudioPath:  audioPath,
		CreatedAt:  time.Now().UTC(),
	}

	query, args := builder().
		Insert(tableAnswers).
		Columns("session_id", "question_id", "audio_path", "created_at").
		Values(a.SessionID, a.QuestionID, a.AudioPath, a.CreatedAt).
		Query()

	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		return nil, fmt.Errorf("insert answer: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert answer: %w", err)
	}
	a.ID = int(id)
	return a, nil
}

func (r *answerRepo) ListBySession(ctx context.Context, sessionID string) ([]Answer, error) {
	return r.list(ctx, sessionID, false)
}

func (r *answerRepo) Pending(ctx context.Context, sessionID string) ([]Answer, error) {
	return r.list(ctx, sessionID, true)
}

func (r *answerRepo) list(ctx context.Context, sessionID string, pendingOnly bool) ([]Answer, error) {
	a := entsql.Table(tableAnswers).As("a")
	q := entsql.Table(tableQuestions).As("q")

	pred := entsql.EQ(a.C("session_id"), sessionID)
	if pendingOnly {
		pred = entsql.And(pred, entsql.IsNull(a.C("answer_text")))
	}

	query, args := builder().
		Select(
			a.C("id"), a.C("session_id"), a.C("question_id"),
			a.C("answer_text"), a.C("audio_path"), a.C("duration"),
			a.C("score"), a.C("justification"), a.C("created_at"),
			q.C("text"), q.C("category"),
		).
		From(a).
		Join(q).On(a.C("question_id"), q.C("id")).
		Where(pred).
		OrderBy(a.C("id")).
		Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	var out []Answer
	for rows.Next() {
		var (
			ans      Answer
			text     sql.NullString
			justif   sql.NullString
			duration sql.NullFloat64
			score    sql.NullInt64
		)
		if err := rows.Scan(
			&ans.ID, &ans.SessionID, &ans.QuestionID,
			&text, &ans.AudioPath, &duration,
			&score, &justif, &ans.CreatedAt,
			&ans.QuestionText, &ans.Category,
		); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		if text.Valid {
			ans.AnswerText = &text.String
		}
		if duration.Valid {
			ans.Duration = &duration.Float64
		}
		if score.Valid {
			s := int(score.Int64)
			ans.Score = &s
		}
		if justif.Valid {
			ans.Justification = &justif.String
		}
		out = append(out, ans)
	}
	return out, rows.Err()
}

func (r *answerRepo) Apply(ctx context.Context, res AnswerResult) (bool, error) {
	upd := builder().Update(tableAnswers)
	upd = setOrNull(upd, "answer_text", res.AnswerText)
	upd = setOrNull(upd, "duration", res.Duration)
	upd = setOrNull(upd, "score", res.Score)
	upd = setOrNull(upd, "justification", res.Justification)
	query, args := upd.
		Where(entsql.And(
			entsql.EQ("id", res.AnswerID),
			entsql.IsNull("answer_text"),
		)).
		Query()

	var result sql.Result
	if err := r.drv.Exec(ctx, query, args, &result); err != nil {
		return false, fmt.Errorf("update answer %d: %w", res.AnswerID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update answer %d: %w", res.AnswerID, err)
	}
	return n > 0, nil
}

func (r *answerRepo) Reset(ctx context.Context, sessionID string) (int, error) {
	query, args := builder().
		Update(tableAnswers).
		SetNull("answer_text").
		SetNull("duration").
		SetNull("score").
		SetNull("justification").
		Where(entsql.EQ("session_id", sessionID)).
		Query()

	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		return 0, fmt.Errorf("reset answers: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset answers: %w", err)
	}
	return int(n), nil
}

func setOrNull[T any](u *entsql.UpdateBuilder, column string, v *T) *entsql.UpdateBuilder {
	if v == nil {
		return u.SetNull(column)
	}
	return u.Set(column, *v)
}
