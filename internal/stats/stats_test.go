package stats

import (
	"context"
	"errors"
	"testing"

	"github.com/abhisek/quizzer/internal/store"
)

type fakeSource struct {
	rows []store.QuestionStatsRow
	err  error
	got  []string
}

func (f *fakeSource) Stats(_ context.Context, categories []string) ([]store.QuestionStatsRow, error) {
	f.got = categories
	return f.rows, f.err
}

func mean(v float64) *float64 { return &v }

func TestCollect(t *testing.T) {
	src := &fakeSource{rows: []store.QuestionStatsRow{
		{QuestionID: 1, Text: "q1", Category: "History", Attempts: 2, MeanScore: mean(4)},
		{QuestionID: 2, Text: "q2", Category: "History"},
	}}
	qs, err := NewAggregator(src).Collect(context.Background(), []string{"History"})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(qs) != 2 || qs[0].Attempts != 2 || *qs[0].MeanScore != 4 || qs[1].MeanScore != nil {
		t.Fatalf("stats = %+v", qs)
	}
	if len(src.got) != 1 || src.got[0] != "History" {
		t.Errorf("categories passed = %v", src.got)
	}
}

func TestCollect_NoCategories(t *testing.T) {
	src := &fakeSource{err: errors.New("must not be called")}
	qs, err := NewAggregator(src).Collect(context.Background(), nil)
	if err != nil || qs != nil {
		t.Fatalf("Collect(nil) = %v, %v", qs, err)
	}
}

func TestCollect_SourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("db locked")}
	if _, err := NewAggregator(src).Collect(context.Background(), []string{"x"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name         string
		qs           []QuestionStats
		wantAttempts float64
		wantScore    float64
		wantScored   int
	}{
		{"empty", nil, 0, DefaultMeanScore, 0},
		{
			"no scored questions default to midpoint",
			[]QuestionStats{{Attempts: 2}, {Attempts: 0}},
			1, DefaultMeanScore, 0,
		},
		{
			"mean of per-question means",
			[]QuestionStats{
				{Attempts: 4, MeanScore: mean(2)},
				{Attempts: 1, MeanScore: mean(5)},
				{Attempts: 0},
			},
			5.0 / 3.0, 3.5, 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Summarize(tt.qs)
			if s.MeanAttempts != tt.wantAttempts || s.MeanScore != tt.wantScore || s.Scored != tt.wantScored {
				t.Fatalf("Summarize = %+v", s)
			}
		})
	}
}

func TestByCategory(t *testing.T) {
	got := ByCategory([]QuestionStats{
		{Category: "Science", Attempts: 2, MeanScore: mean(4)},
		{Category: "History", Attempts: 1, MeanScore: mean(2)},
		{Category: "History", Attempts: 3, MeanScore: mean(4)},
	})
	if len(got) != 2 || got[0].Category != "History" || got[1].Category != "Science" {
		t.Fatalf("categories = %+v", got)
	}
	if got[0].Questions != 2 || got[0].MeanAttempts != 2 || got[0].MeanScore != 3 {
		t.Errorf("history summary = %+v", got[0].Summary)
	}
}
