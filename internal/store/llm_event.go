package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/ahabook/linguaflow/ent"
	"github.com/ahabook/linguaflow/ent/llmrequestevent"
)

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.client.LLMRequestEvent.Create().
		SetSequence(seqNum).
		SetTimestamp(now()).
		SetProvider(data.Provider).
		SetModel(data.Model).
		SetPurpose(data.Purpose).
		SetInputTokens(data.InputTokens).
		SetOutputTokens(data.OutputTokens).
		SetLatencyMs(data.LatencyMs).
		SetSuccess(data.Success).
		SetErrorMessage(data.ErrorMessage).
		SetRequestBody(data.RequestBody).
		SetResponseBody(data.ResponseBody).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error) {
	q := r.client.LLMRequestEvent.Query().
		Order(ent.Desc(llmrequestevent.FieldSequence))
	for _, p := range eventFilters(opts) {
		q = q.Where(p)
	}
	if opts.Purpose != "" {
		q = q.Where(llmrequestevent.PurposeEQ(opts.Purpose))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	rows, err := q.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	events := make([]LLMRequestEvent, 0, len(rows))
	for _, e := range rows {
		events = append(events, toLLMEvent(e))
	}
	return events, nil
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error) {
	e, err := r.client.LLMRequestEvent.Get(ctx, id)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get LLM event: %w", err)
	}
	ev := toLLMEvent(e)
	return &ev, nil
}

// usageRows loads the columns the usage reports need. Bodies are skipped.
func (r *eventRepo) usageRows(ctx context.Context) ([]*ent.LLMRequestEvent, error) {
	rows, err := r.client.LLMRequestEvent.Query().
		Select(
			llmrequestevent.FieldPurpose,
			llmrequestevent.FieldModel,
			llmrequestevent.FieldInputTokens,
			llmrequestevent.FieldOutputTokens,
			llmrequestevent.FieldLatencyMs,
			llmrequestevent.FieldSuccess,
		).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("query LLM usage: %w", err)
	}
	return rows, nil
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error) {
	rows, err := r.usageRows(ctx)
	if err != nil {
		return nil, err
	}

	var (
		out     []PurposeUsage
		index   = map[string]int{}
		latency = map[string]int64{}
	)
	for _, e := range rows {
		i, ok := index[e.Purpose]
		if !ok {
			i = len(out)
			index[e.Purpose] = i
			out = append(out, PurposeUsage{Purpose: e.Purpose})
		}
		u := &out[i]
		u.Calls++
		if !e.Success {
			u.Failures++
		}
		u.InputTokens += e.InputTokens
		u.OutputTokens += e.OutputTokens
		latency[e.Purpose] += e.LatencyMs
	}
	for i := range out {
		out[i].AvgLatencyMs = latency[out[i].Purpose] / int64(out[i].Calls)
	}

	slices.SortFunc(out, func(a, b PurposeUsage) int {
		if c := cmp.Compare(b.Calls, a.Calls); c != 0 {
			return c
		}
		return cmp.Compare(a.Purpose, b.Purpose)
	})
	return out, nil
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]ModelUsage, error) {
	rows, err := r.usageRows(ctx)
	if err != nil {
		return nil, err
	}

	var (
		out   []ModelUsage
		index = map[string]int{}
	)
	for _, e := range rows {
		i, ok := index[e.Model]
		if !ok {
			i = len(out)
			index[e.Model] = i
			out = append(out, ModelUsage{Model: e.Model})
		}
		out[i].Calls++
		out[i].InputTokens += e.InputTokens
		out[i].OutputTokens += e.OutputTokens
	}

	slices.SortFunc(out, func(a, b ModelUsage) int {
		return cmp.Compare(a.Model, b.Model)
	})
	return out, nil
}

func toLLMEvent(e *ent.LLMRequestEvent) LLMRequestEvent {
	return LLMRequestEvent{
		ID:        e.ID,
		Sequence:  e.Sequence,
		Timestamp: e.Timestamp,
		LLMRequestEventData: LLMRequestEventData{
			Provider:     e.Provider,
			Model:        e.Model,
			Purpose:      e.Purpose,
			InputTokens:  e.InputTokens,
			OutputTokens: e.OutputTokens,
			LatencyMs:    e.LatencyMs,
			Success:      e.Success,
			ErrorMessage: e.ErrorMessage,
			RequestBody:  e.RequestBody,
			ResponseBody: e.ResponseBody,
		},
	}
}
