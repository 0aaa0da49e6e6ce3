package embedding

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/agridex/internal/domain"
)

type mockEmbedder struct {
	res       domain.EmbeddingResult
	err       error
	healthErr error
	calls     int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.res, m.err
}

func (m *mockEmbedder) HealthCheck(_ context.Context) error { return m.healthErr }

func TestEmbed_PassesThrough(t *testing.T) {
	inner := &mockEmbedder{res: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2},
		PromptTokens: 3,
		TotalTokens:  3,
	}}
	emb := NewInstrumentedEmbedder(inner, "openai", "test-model", zap.NewNop())

	res, err := emb.Embed(context.Background(), "neem oil")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(res.Embedding) != 2 || res.PromptTokens != 3 {
		t.Errorf("result: %+v", res)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls: %d", inner.calls)
	}
}

func TestEmbed_WrapsError(t *testing.T) {
	inner := &mockEmbedder{err: domain.ErrUpstreamUnavailable}
	emb := NewInstrumentedEmbedder(inner, "openai", "test-model", zap.NewNop())

	_, err := emb.Embed(context.Background(), "neem oil")
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Errorf("error: %v", err)
	}
}

func TestHealthCheck_Delegates(t *testing.T) {
	wantErr := errors.New("provider down")
	inner := &mockEmbedder{healthErr: wantErr}
	emb := NewInstrumentedEmbedder(inner, "gemini", "test-model", zap.NewNop())

	if err := emb.HealthCheck(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("health: %v", err)
	}

	inner.healthErr = nil
	if err := emb.HealthCheck(context.Background()); err != nil {
		t.Errorf("healthy provider: %v", err)
	}
}

func TestErrorType(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"timeout", context.DeadlineExceeded, "timeout"},
		{"canceled", context.Canceled, "canceled"},
		{"upstream", domain.ErrUpstreamUnavailable, "upstream"},
		{"other", errors.New("boom"), "other"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := errorType(tc.err); got != tc.want {
				t.Errorf("errorType(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}
