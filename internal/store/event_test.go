package store

import (
	"context"
	"testing"
	"time"

	"github.com/ahabook/linguaflow/ent/llmrequestevent"
	"github.com/ahabook/linguaflow/ent/practiceevent"
	"github.com/ahabook/linguaflow/ent/turnevent"
)

func TestLLMEventsAppendAndQuery(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for i, purpose := range []string{"scene-gen", "turn-score", "turn-score"} {
		err := repo.AppendLLMRequest(ctx, LLMRequestEventData{
			Provider:     "anthropic",
			Model:        "claude-sonnet-4-5",
			Purpose:      purpose,
			InputTokens:  100 * (i + 1),
			OutputTokens: 10 * (i + 1),
			LatencyMs:    int64(200 * (i + 1)),
			Success:      i != 2,
			ErrorMessage: map[bool]string{true: "", false: "rate limited"}[i != 2],
			RequestBody:  `{"system":"x"}`,
			ResponseBody: `{"reply":"hi"}`,
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	if events[0].Sequence <= events[1].Sequence {
		t.Errorf("events not newest first: %d then %d", events[0].Sequence, events[1].Sequence)
	}
	if events[0].Success || events[0].ErrorMessage != "rate limited" {
		t.Errorf("newest event = %+v, want failed with message", events[0].LLMRequestEventData)
	}

	limited, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 1, Purpose: "scene-gen"})
	if err != nil {
		t.Fatalf("query purpose: %v", err)
	}
	if len(limited) != 1 || limited[0].Purpose != "scene-gen" {
		t.Fatalf("purpose filter = %+v", limited)
	}

	got, err := repo.GetLLMEvent(ctx, limited[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.RequestBody != `{"system":"x"}` || got.ResponseBody != `{"reply":"hi"}` {
		t.Errorf("get = %+v, want bodies captured", got)
	}

	missing, err := repo.GetLLMEvent(ctx, 9999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("get missing = %+v, want nil", missing)
	}
}

func TestLLMUsageAggregates(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	add := func(model, purpose string, in, out int, ms int64, ok bool) {
		t.Helper()
		if err := repo.AppendLLMRequest(ctx, LLMRequestEventData{
			Provider: "p", Model: model, Purpose: purpose,
			InputTokens: in, OutputTokens: out, LatencyMs: ms, Success: ok,
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	add("m1", "turn-score", 100, 20, 100, true)
	add("m1", "turn-score", 300, 40, 300, false)
	add("m2", "scene-gen", 50, 60, 500, true)

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("by purpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("purposes = %d, want 2", len(byPurpose))
	}
	ts := byPurpose[0]
	if ts.Purpose != "turn-score" || ts.Calls != 2 || ts.Failures != 1 ||
		ts.InputTokens != 400 || ts.OutputTokens != 60 || ts.AvgLatencyMs != 200 {
		t.Errorf("turn-score usage = %+v", ts)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("by model: %v", err)
	}
	if len(byModel) != 2 || byModel[0].Model != "m1" || byModel[1].InputTokens != 50 {
		t.Errorf("model usage = %+v", byModel)
	}
}

func TestPracticeSummaries(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()
	fixedClock(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	events := []PracticeEventData{
		{SessionID: "a", Action: PracticeStart, SceneTitle: "Cafe", Difficulty: "beginner"},
		{SessionID: "a", Action: PracticeEnd, SceneTitle: "Cafe", Difficulty: "beginner",
			Turns: 5, FinalScore: 84, Passed: true, DurationSecs: 300},
		{SessionID: "b", Action: PracticeStart, SceneTitle: "Airport", Difficulty: "advanced"},
		{SessionID: "b", Action: PracticeAbandon, SceneTitle: "Airport", Difficulty: "advanced",
			Turns: 2, FinalScore: 61, DurationSecs: 90},
		{SessionID: "c", Action: PracticeStart, SceneTitle: "Hotel", Difficulty: "beginner"},
	}
	for _, e := range events {
		if err := repo.AppendPracticeEvent(ctx, e); err != nil {
			t.Fatalf("append %+v: %v", e, err)
		}
	}

	sums, err := repo.QueryPracticeSummaries(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(sums) != 3 {
		t.Fatalf("summaries = %d, want 3", len(sums))
	}

	want := []struct {
		id     string
		status SessionStatus
		score  int
		passed bool
	}{
		{"c", StatusInProgress, 0, false},
		{"b", StatusAbandoned, 61, false},
		{"a", StatusCompleted, 84, true},
	}
	for i, w := range want {
		got := sums[i]
		if got.SessionID != w.id || got.Status != w.status || got.FinalScore != w.score || got.Passed != w.passed {
			t.Errorf("summary[%d] = %+v, want %+v", i, got, w)
		}
	}
	if !sums[2].StartedAt.Equal(time.Date(2026, 3, 1, 9, 0, 1, 0, time.UTC)) {
		t.Errorf("started at = %v", sums[2].StartedAt)
	}

	limited, err := repo.QueryPracticeSummaries(ctx, QueryOpts{Limit: 1})
	if err != nil {
		t.Fatalf("query limited: %v", err)
	}
	if len(limited) != 1 || limited[0].SessionID != "c" {
		t.Errorf("limited = %+v", limited)
	}
}

func TestPracticeEventValidation(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	if err := repo.AppendPracticeEvent(ctx, PracticeEventData{SessionID: "x", Action: "pause"}); err == nil {
		t.Error("expected error for unknown action")
	}
	if err := repo.AppendPracticeEvent(ctx, PracticeEventData{Action: PracticeStart}); err == nil {
		t.Error("expected error for empty session id")
	}
}

func TestBestScore(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	if _, ok, err := repo.BestScore(ctx, "beginner"); err != nil || ok {
		t.Fatalf("best on empty = ok %v err %v, want none", ok, err)
	}

	for i, score := range []int{72, 91, 65} {
		id := string(rune('a' + i))
		if err := repo.AppendPracticeEvent(ctx, PracticeEventData{
			SessionID: id, Action: PracticeEnd, Difficulty: "beginner", Turns: 5, FinalScore: score,
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	// Abandoned sessions never count.
	if err := repo.AppendPracticeEvent(ctx, PracticeEventData{
		SessionID: "z", Action: PracticeAbandon, Difficulty: "beginner", FinalScore: 99,
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	best, ok, err := repo.BestScore(ctx, "beginner")
	if err != nil || !ok || best != 91 {
		t.Errorf("best = %d ok %v err %v, want 91", best, ok, err)
	}
	if _, ok, _ := repo.BestScore(ctx, "advanced"); ok {
		t.Error("advanced should have no best score")
	}
}

func TestTurnsInOrder(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for _, turn := range []int{2, 1} {
		if err := repo.AppendTurnEvent(ctx, TurnEventData{
			SessionID: "s", Turn: turn, Utterance: "hello", Reply: "hi there",
			Communication: 80, Accuracy: 70, Scenario: 60, Fluency: 50,
			NonTargetLanguage: turn == 2, TurnScore: 67, RunningMean: 67,
		}); err != nil {
			t.Fatalf("append turn %d: %v", turn, err)
		}
	}
	if err := repo.AppendTurnEvent(ctx, TurnEventData{SessionID: "other", Turn: 1}); err != nil {
		t.Fatalf("append other: %v", err)
	}

	turns, err := repo.QueryTurns(ctx, "s")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("turns = %d, want 2", len(turns))
	}
	if turns[0].Turn != 1 || turns[1].Turn != 2 {
		t.Errorf("order = %d,%d want 1,2", turns[0].Turn, turns[1].Turn)
	}
	if !turns[1].NonTargetLanguage || turns[0].NonTargetLanguage {
		t.Error("non-target flag not round-tripped")
	}

	if err := repo.AppendTurnEvent(ctx, TurnEventData{SessionID: "s", Turn: 1}); err == nil {
		t.Error("expected duplicate turn to be rejected")
	}
}

func TestEventsShareSequence(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	if err := repo.AppendPracticeEvent(ctx, PracticeEventData{SessionID: "s", Action: PracticeStart}); err != nil {
		t.Fatalf("append practice: %v", err)
	}
	if err := repo.AppendLLMRequest(ctx, LLMRequestEventData{Provider: "mock", Model: "m", Purpose: "turn-score", Success: true}); err != nil {
		t.Fatalf("append llm: %v", err)
	}
	if err := repo.AppendTurnEvent(ctx, TurnEventData{SessionID: "s", Turn: 1, Utterance: "hi", Reply: "hello"}); err != nil {
		t.Fatalf("append turn: %v", err)
	}

	client := s.Client()
	pe := client.PracticeEvent.Query().Where(practiceevent.SessionIDEQ("s")).OnlyX(ctx)
	le := client.LLMRequestEvent.Query().Where(llmrequestevent.PurposeEQ("turn-score")).OnlyX(ctx)
	te := client.TurnEvent.Query().Where(turnevent.SessionIDEQ("s")).OnlyX(ctx)

	if pe.Sequence != 1 || le.Sequence != 2 || te.Sequence != 3 {
		t.Errorf("sequences = %d,%d,%d want 1,2,3", pe.Sequence, le.Sequence, te.Sequence)
	}
}

func TestTurnEventRejectsOutOfRangeScore(t *testing.T) {
	s := openTestStore(t)
	err := s.EventRepo().AppendTurnEvent(context.Background(), TurnEventData{
		SessionID: "s", Turn: 1, Communication: 140,
	})
	if err == nil {
		t.Error("expected error for score above 100")
	}
}
