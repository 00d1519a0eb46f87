package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/toolroute/internal/catalog"
	"github.com/ShayCichocki/toolroute/internal/classify"
	"github.com/ShayCichocki/toolroute/internal/resolve"
	"github.com/ShayCichocki/toolroute/internal/tools"
	"github.com/ShayCichocki/toolroute/pkg/models"
)

// fakeClassifier returns a fixed analysis and counts calls.
type fakeClassifier struct {
	analysis *models.TaskAnalysis
	err      error
	calls    int
}

func (f *fakeClassifier) Classify(ctx context.Context, task string, providers []models.ProviderSummary) (*models.TaskAnalysis, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	a := *f.analysis
	return &a, nil
}

// countingLoader wraps a loader and records the ids it was asked to load.
type countingLoader struct {
	inner *tools.Loader
	calls [][]string
}

func (c *countingLoader) LoadAll(ctx context.Context, ids []string, reg *tools.Registry) ([]string, []*tools.ProviderLoadError) {
	c.calls = append(c.calls, ids)
	return c.inner.LoadAll(ctx, ids, reg)
}

type creds map[string]catalog.Credentials

func (c creds) Lookup(ctx context.Context, id string) (catalog.Credentials, error) {
	return c[id], nil
}

// entry builds a catalog entry whose client needs a token and exposes ops.
func entry(id string, available bool, ops ...string) catalog.Entry {
	return catalog.Entry{
		Descriptor: models.ProviderDescriptor{ID: id, Name: id, Description: id + " app", Available: available},
		Factory: func(ctx context.Context, c catalog.Credentials) (catalog.Client, error) {
			if c.Token == "" {
				return nil, catalog.ErrMissingCredentials
			}
			var client catalog.StaticClient
			for _, op := range ops {
				client = append(client, catalog.Operation{
					Name:   op,
					Invoke: func(ctx context.Context, in json.RawMessage) (string, error) { return "ok", nil },
				})
			}
			return client, nil
		},
		Operations: len(ops),
	}
}

type harness struct {
	orch       *Orchestrator
	classifier *fakeClassifier
	model      *fakeResponder
	loader     *countingLoader
	metrics    *Metrics
	events     []Event
}

func newHarness(t *testing.T, analysis *models.TaskAnalysis, stored creds, opts ...Option) *harness {
	t.Helper()
	cat, err := catalog.New(
		entry("a", true, "read"),
		entry("b", true, "write"),
		entry("p", true, "one", "two"),
		entry("q", true, "three"),
		entry("x", true, "only"),
		entry("z", false, "never"),
	)
	require.NoError(t, err)

	h := &harness{
		classifier: &fakeClassifier{analysis: analysis},
		model:      &fakeResponder{output: "final answer"},
		loader:     &countingLoader{inner: tools.NewLoader(cat, stored, nil)},
		metrics:    NewMetrics(prometheus.NewRegistry()),
	}
	opts = append([]Option{
		WithMetrics(h.metrics),
		WithEventHandler(func(e Event) { h.events = append(h.events, e) }),
	}, opts...)

	h.orch, err = New(RequiredConfig{
		Catalog:    cat,
		Classifier: h.classifier,
		Resolver:   resolve.New(cat, resolve.Config{}),
		Loader:     h.loader,
		Engine:     NewEngine(h.model, EngineConfig{}, nil),
	}, opts...)
	require.NoError(t, err)
	return h
}

func (h *harness) states() []State {
	var out []State
	for _, e := range h.events {
		out = append(out, e.State)
	}
	return out
}

func allTokens(ids ...string) creds {
	c := creds{}
	for _, id := range ids {
		c[id] = catalog.Credentials{Token: "t-" + id}
	}
	return c
}

func TestRun_BothAutoSelectedAndLoaded(t *testing.T) {
	h := newHarness(t, &models.TaskAnalysis{RequiresApp: true, AppSets: [][]string{{"a", "b"}}, Choice: []bool{false}}, allTokens("a", "b"))

	msg, err := h.orch.Run(context.Background(), "sync a to b", nil)
	require.NoError(t, err)
	assert.Equal(t, "final answer", msg.Content)
	assert.NotEmpty(t, msg.ID)

	assert.Equal(t, [][]string{{"a", "b"}}, h.loader.calls)
	assert.Equal(t, []string{"a__read", "b__write"}, toolNames(h.model.last()))
	assert.Equal(t, []State{StateClassify, StateResolve, StateLoadTools, StateExecuteWithTools}, h.states())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.RunsTotal.WithLabelValues(OutcomeWithTools)))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.ProviderLoadsTotal.WithLabelValues("ok")))
}

func TestRun_SingleCandidateSkipsChannel(t *testing.T) {
	h := newHarness(t, &models.TaskAnalysis{RequiresApp: true, AppSets: [][]string{{"x"}}, Choice: []bool{true}}, allTokens("x"),
		WithChannel(resolve.NewLineChannel(strings.NewReader(""), io.Discard)))

	_, err := h.orch.Run(context.Background(), "use x", nil)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"x"}}, h.loader.calls)
}

func TestRun_InteractiveChoice(t *testing.T) {
	h := newHarness(t, &models.TaskAnalysis{RequiresApp: true, AppSets: [][]string{{"p", "q"}}, Choice: []bool{true}}, allTokens("p", "q"),
		WithChannel(resolve.NewLineChannel(strings.NewReader("1\n"), io.Discard)))

	_, err := h.orch.Run(context.Background(), "do it", nil)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"p"}}, h.loader.calls)
	assert.Equal(t, []string{"p__one", "p__two"}, toolNames(h.model.last()))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ResolutionSetsTotal.WithLabelValues("choice")))
}

func TestRun_NoAppNeededSkipsResolveAndLoad(t *testing.T) {
	h := newHarness(t, &models.TaskAnalysis{RequiresApp: false, AppSets: [][]string{}, Choice: []bool{}}, allTokens())

	msg, err := h.orch.Run(context.Background(), "what is 2+2", nil)
	require.NoError(t, err)
	assert.Equal(t, "final answer", msg.Content)
	assert.Empty(t, h.loader.calls)
	assert.Nil(t, h.model.last().Tools)
	assert.Equal(t, []State{StateClassify, StateReasonOnly}, h.states())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.RunsTotal.WithLabelValues(OutcomeReasonNoApp)))
}

func TestRun_UnavailableProviderFallsBack(t *testing.T) {
	h := newHarness(t, &models.TaskAnalysis{RequiresApp: true, AppSets: [][]string{{"z"}}, Choice: []bool{false}}, allTokens("z"))

	_, err := h.orch.Run(context.Background(), "use z", nil)
	require.NoError(t, err)
	assert.Empty(t, h.loader.calls)
	assert.Nil(t, h.model.last().Tools)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.RunsTotal.WithLabelValues(OutcomeReasonUnresolved)))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ResolutionSetsTotal.WithLabelValues("dropped")))
}

func TestRun_PartialLoadUsesRemainingTools(t *testing.T) {
	h := newHarness(t, &models.TaskAnalysis{RequiresApp: true, AppSets: [][]string{{"p", "q"}}, Choice: []bool{false}}, allTokens("q"))

	msg, err := h.orch.Run(context.Background(), "do it", nil)
	require.NoError(t, err)
	assert.Equal(t, "final answer", msg.Content)
	assert.Equal(t, []string{"q__three"}, toolNames(h.model.last()))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ProviderLoadsTotal.WithLabelValues("error")))
}

func TestRun_AllLoadsFailFallsBack(t *testing.T) {
	h := newHarness(t, &models.TaskAnalysis{RequiresApp: true, AppSets: [][]string{{"p", "q"}}, Choice: []bool{false}}, allTokens())

	msg, err := h.orch.Run(context.Background(), "do it", nil)
	require.NoError(t, err)
	assert.Nil(t, h.model.last().Tools)
	assert.NotContains(t, msg.Content, "missing credentials")
	assert.Equal(t, []State{StateClassify, StateResolve, StateLoadTools, StateReasonOnly}, h.states())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.RunsTotal.WithLabelValues(OutcomeReasonLoadFailed)))
}

func TestRun_ClassificationErrorPropagates(t *testing.T) {
	h := newHarness(t, nil, allTokens())
	h.classifier.err = &classify.ClassificationError{Err: errors.New("overloaded")}

	_, err := h.orch.Run(context.Background(), "anything", nil)
	var cerr *classify.ClassificationError
	require.ErrorAs(t, err, &cerr)
	assert.Empty(t, h.model.requests)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.RunsTotal.WithLabelValues(OutcomeClassifyError)))
}

func TestRun_ExecutionErrorPropagates(t *testing.T) {
	h := newHarness(t, &models.TaskAnalysis{RequiresApp: true, AppSets: [][]string{{"a"}}, Choice: []bool{false}}, allTokens("a"))
	h.model.err = errors.New("timeout")

	_, err := h.orch.Run(context.Background(), "do it", nil)
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, ModeWithTools, execErr.Mode)
}

func TestRun_FreshRegistryPerRun(t *testing.T) {
	h := newHarness(t, &models.TaskAnalysis{RequiresApp: true, AppSets: [][]string{{"a"}}, Choice: []bool{false}}, allTokens("a", "b"))

	_, err := h.orch.Run(context.Background(), "first", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a__read"}, toolNames(h.model.last()))

	h.classifier.analysis = &models.TaskAnalysis{RequiresApp: true, AppSets: [][]string{{"b"}}, Choice: []bool{false}}
	_, err = h.orch.Run(context.Background(), "second", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"b__write"}, toolNames(h.model.last()))
}

func TestRun_MessageIDMatchesTaskID(t *testing.T) {
	tests := []struct {
		name     string
		analysis *models.TaskAnalysis
	}{
		{"with tools", &models.TaskAnalysis{RequiresApp: true, AppSets: [][]string{{"a"}}, Choice: []bool{false}}},
		{"reason only", &models.TaskAnalysis{RequiresApp: false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.analysis, allTokens("a"))

			msg, err := h.orch.Run(context.Background(), "task", nil)
			require.NoError(t, err)
			require.NotEmpty(t, h.events)
			for _, e := range h.events {
				assert.Equal(t, msg.ID, e.TaskID)
			}

			next, err := h.orch.Run(context.Background(), "task", nil)
			require.NoError(t, err)
			assert.NotEqual(t, msg.ID, next.ID)
		})
	}
}

func TestRun_DuplicateIDsLoadedOnce(t *testing.T) {
	h := newHarness(t, &models.TaskAnalysis{RequiresApp: true, AppSets: [][]string{{"a"}, {"a", "b"}}, Choice: []bool{false, false}}, allTokens("a", "b"))

	_, err := h.orch.Run(context.Background(), "do it", nil)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}}, h.loader.calls)
	assert.Equal(t, 0.0, testutil.ToFloat64(h.metrics.ProviderLoadsTotal.WithLabelValues("error")))
}

func TestRun_PayloadChoices(t *testing.T) {
	h := newHarness(t, &models.TaskAnalysis{RequiresApp: true, AppSets: [][]string{{"a"}, {"p", "q"}}, Choice: []bool{false, true}}, allTokens("a", "p", "q"))

	payload := &models.ResolutionPayload{UserChoices: map[string][]string{"1": {"q"}}}
	_, err := h.orch.Run(context.Background(), "do it", payload)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "q"}}, h.loader.calls)
}

func TestRun_InvalidPayloadIsRejected(t *testing.T) {
	h := newHarness(t, &models.TaskAnalysis{RequiresApp: true, AppSets: [][]string{{"p", "q"}}, Choice: []bool{true}}, allTokens("p", "q"))

	payload := &models.ResolutionPayload{UserChoices: map[string][]string{"0": {"a"}}}
	_, err := h.orch.Run(context.Background(), "do it", payload)
	var inputErr *resolve.ResolutionInputError
	require.ErrorAs(t, err, &inputErr)
	assert.Empty(t, h.loader.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.RunsTotal.WithLabelValues(OutcomeResolveError)))
}

func TestRun_CancelledChoiceFallsBack(t *testing.T) {
	h := newHarness(t, &models.TaskAnalysis{RequiresApp: true, AppSets: [][]string{{"a"}, {"p", "q"}}, Choice: []bool{false, true}}, allTokens("a", "p", "q"),
		WithChannel(resolve.NewLineChannel(strings.NewReader("q\n"), io.Discard)))

	_, err := h.orch.Run(context.Background(), "do it", nil)
	require.NoError(t, err)
	assert.Empty(t, h.loader.calls)
	assert.Nil(t, h.model.last().Tools)
}

func TestRun_DefaultChannelSelectsNothing(t *testing.T) {
	h := newHarness(t, &models.TaskAnalysis{RequiresApp: true, AppSets: [][]string{{"p", "q"}}, Choice: []bool{true}}, allTokens("p", "q"))

	_, err := h.orch.Run(context.Background(), "do it", nil)
	require.NoError(t, err)
	assert.Empty(t, h.loader.calls)
}

func TestGetChoiceData(t *testing.T) {
	h := newHarness(t, &models.TaskAnalysis{
		RequiresApp: true,
		AppSets:     [][]string{{"a"}, {"p", "q"}, {"z"}},
		Choice:      []bool{true, true, false},
	}, allTokens())

	data, err := h.orch.GetChoiceData(context.Background(), "do it")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, data.AutoSelected)
	require.Len(t, data.Pending, 1)
	assert.Equal(t, 1, data.Pending[0].Index)
	assert.Len(t, data.Pending[0].Providers, 2)
	assert.True(t, data.NeedsChoice())
	assert.Empty(t, h.loader.calls)
	assert.Empty(t, h.model.requests)
}

func TestGetChoiceData_NoApp(t *testing.T) {
	h := newHarness(t, &models.TaskAnalysis{RequiresApp: false}, allTokens())

	data, err := h.orch.GetChoiceData(context.Background(), "hi")
	require.NoError(t, err)
	assert.False(t, data.NeedsChoice())
	assert.Empty(t, data.AutoSelected)
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(RequiredConfig{})
	assert.Error(t, err)
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, dedupe([]string{"a", "b", "a", "c", "b"}))
	assert.Empty(t, dedupe(nil))
}
