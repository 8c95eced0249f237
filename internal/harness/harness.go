package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/fakedb/internal/docstore"
	"github.com/roach88/fakedb/internal/fakedb"
	"github.com/roach88/fakedb/internal/problem"
	"github.com/roach88/fakedb/internal/value"
)

// Options configures a run.
type Options struct {
	// Backends to run against. Defaults to memory only.
	Backends []string

	// SQLiteDir holds per-scenario database files for the sqlite backend.
	// Empty or ":memory:" uses in-memory databases.
	SQLiteDir string

	// Logger receives step progress at Debug and store rejections.
	// Defaults to a discarding logger.
	Logger *slog.Logger
}

// Run executes scenario against every configured backend.
//
// Each backend starts empty, is seeded, runs every step and is checked by
// every assertion; expectation failures are recorded in that backend's
// Result. When more than one backend runs, traces must agree, and final
// states must agree when the identifier is deterministic.
//
// The returned error is reserved for infrastructure failures: an unknown
// backend, a database that fails to open or a seed that fails to insert.
func Run(ctx context.Context, scenario *Scenario, opts Options) (*Report, error) {
	if len(opts.Backends) == 0 {
		opts.Backends = []string{BackendMemory}
	}
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}

	report := &Report{
		Scenario:   scenario.Name,
		Identifier: scenario.Identifier,
		Pass:       true,
	}
	for _, name := range opts.Backends {
		result, err := runBackend(ctx, name, scenario, opts)
		if err != nil {
			return nil, fmt.Errorf("scenario %s on %s: %w", scenario.Name, name, err)
		}
		report.Results = append(report.Results, result)
		report.Pass = report.Pass && result.Pass
	}

	compareBackends(report, scenario)
	return report, nil
}

func runBackend(ctx context.Context, name string, scenario *Scenario, opts Options) (*Result, error) {
	backend, err := openBackend(name, scenario, opts)
	if err != nil {
		return nil, err
	}
	defer backend.Close()

	seed, err := toDocs(scenario.Seed)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	if len(seed) > 0 {
		if err := backend.InsertMany(ctx, seed); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	result := NewResult(name)
	h := &runner{backend: backend, logger: opts.Logger.With("scenario", scenario.Name, "backend", name)}
	for i, step := range scenario.Steps {
		event, err := h.executeStep(ctx, i, step, result)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		result.Trace = append(result.Trace, event)
	}

	state, err := backend.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	result.State = state

	for _, msg := range EvaluateAssertions(state, scenario.Assertions) {
		result.AddError("%s", msg)
	}
	return result, nil
}

type runner struct {
	backend Backend
	logger  *slog.Logger
}

// outcome is what a step returned, before comparison with Expect.
type outcome struct {
	err   error
	found *bool
	doc   value.Object   // single-document reads and deletes
	docs  []value.Object // find_many and delete_many
}

// executeStep runs one step, records expectation failures in result and
// returns its trace event. Errors are only returned for steps that cannot
// be built, which Validate normally catches.
func (h *runner) executeStep(ctx context.Context, i int, step Step, result *Result) (TraceEvent, error) {
	out, err := h.perform(ctx, step)
	if err != nil {
		return TraceEvent{}, err
	}

	event := TraceEvent{Step: i, Op: step.Op, Outcome: outcomeOf(out.err), Found: out.found}
	if step.Op == OpFindMany || step.Op == OpDeleteMany {
		n := len(out.docs)
		event.Count = &n
	}

	h.logger.Debug("step executed", "step", i, "op", step.Op, "outcome", event.Outcome)

	failures := checkExpect(step, out)
	for _, msg := range failures {
		result.AddError("step %d (%s): %s", i, step.Op, msg)
	}
	if len(failures) > 0 && out.err != nil {
		result.Problems = append(result.Problems, StepProblem{Step: i, Op: step.Op, Problem: problem.From(out.err)})
	}
	return event, nil
}

func (h *runner) perform(ctx context.Context, step Step) (outcome, error) {
	matcher, err := docstore.CompileMatcher(step.Match)
	if err != nil {
		return outcome{}, err
	}
	order, err := docstore.ParseOrder(step.OrderBy)
	if err != nil {
		return outcome{}, err
	}
	findArgs := fakedb.FindArgs[value.Object]{Matcher: matcher, Order: order}

	var out outcome
	switch step.Op {
	case OpInsert, OpUpdate:
		doc, err := toDoc(step.Doc)
		if err != nil {
			return outcome{}, err
		}
		if step.Op == OpInsert {
			out.err = h.backend.Insert(ctx, doc)
		} else {
			out.err = h.backend.Update(ctx, doc)
		}

	case OpInsertMany:
		docs, err := toDocs(step.Docs)
		if err != nil {
			return outcome{}, err
		}
		out.err = h.backend.InsertMany(ctx, docs)

	case OpUpdateMany:
		patch, err := docstore.ParsePatch(step.Set, step.Unset)
		if err != nil {
			return outcome{}, err
		}
		out.err = h.backend.UpdateMany(ctx, fakedb.UpdateArgs[value.Object]{Matcher: matcher, Updater: patch.Updater()})

	case OpFindByID, OpDeleteByID:
		key, err := resolveKey(step.ID, step.Key)
		if err != nil {
			return outcome{}, err
		}
		var found bool
		if step.Op == OpFindByID {
			out.doc, found, out.err = h.backend.FindByID(ctx, key)
		} else {
			out.doc, found, out.err = h.backend.DeleteByID(ctx, key)
		}
		out.found = &found

	case OpFindOne:
		var found bool
		out.doc, found, out.err = h.backend.FindOne(ctx, findArgs)
		out.found = &found

	case OpFindMany:
		out.docs, out.err = h.backend.FindMany(ctx, findArgs)

	case OpDeleteMany:
		out.docs, out.err = h.backend.DeleteMany(ctx, matcher)

	default:
		return outcome{}, fmt.Errorf("unknown op %q", step.Op)
	}

	if out.err != nil {
		if _, ok := fakedb.CodeOf(out.err); !ok {
			return outcome{}, out.err
		}
		out.found = nil
	}
	return out, nil
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	code, _ := fakedb.CodeOf(err)
	return string(code)
}

// checkExpect compares a step outcome with its expectation.
func checkExpect(step Step, out outcome) []string {
	expect := step.Expect
	if expect == nil {
		expect = &Expect{}
	}

	got := outcomeOf(out.err)
	if expect.Error != "" {
		if got != expect.Error {
			return []string{fmt.Sprintf("expected error %s, got %s", expect.Error, got)}
		}
		return nil
	}
	if out.err != nil {
		return []string{fmt.Sprintf("unexpected error: %v", out.err)}
	}

	var errs []string
	if expect.Found != nil {
		if out.found == nil || *out.found != *expect.Found {
			errs = append(errs, fmt.Sprintf("expected found=%t, got %s", *expect.Found, describeFound(out.found)))
		}
	}
	if expect.Result != nil {
		want, _ := toDoc(expect.Result)
		if out.doc == nil {
			errs = append(errs, fmt.Sprintf("expected document matching %s, got none", value.MustCanonical(want)))
		} else if path, ok := matchSubset(want, out.doc); !ok {
			errs = append(errs, fmt.Sprintf("result mismatch at %q: want %s, got %s", path, value.MustCanonical(want), value.MustCanonical(out.doc)))
		}
	}
	if expect.Count != nil && len(out.docs) != *expect.Count {
		errs = append(errs, fmt.Sprintf("expected %d documents, got %d", *expect.Count, len(out.docs)))
	}
	if expect.Results != nil {
		want, _ := toDocs(expect.Results)
		ordered := step.Op == OpFindMany && len(step.OrderBy) > 0
		if !sameDocuments(want, out.docs, ordered) {
			errs = append(errs, fmt.Sprintf("results mismatch: want %s, got %s", renderDocs(want), renderDocs(out.docs)))
		}
	}
	return errs
}

func describeFound(found *bool) string {
	if found == nil {
		return "nothing"
	}
	return fmt.Sprintf("found=%t", *found)
}

// compareBackends records disagreements between backend results.
func compareBackends(report *Report, scenario *Scenario) {
	if len(report.Results) < 2 {
		return
	}
	identifier, err := docstore.ParseIdentifier(scenario.Identifier)
	if err != nil {
		return
	}

	base := report.Results[0]
	for _, other := range report.Results[1:] {
		if !slices.EqualFunc(base.Trace, other.Trace, sameEvent) {
			report.Errors = append(report.Errors, fmt.Sprintf("traces differ between %s and %s", base.Backend, other.Backend))
		}
		if docstore.Deterministic(identifier) && !sameState(base.State, other.State) {
			report.Errors = append(report.Errors, fmt.Sprintf("final states differ between %s and %s", base.Backend, other.Backend))
		}
	}
	if len(report.Errors) > 0 {
		report.Pass = false
	}
}

func sameEvent(a, b TraceEvent) bool {
	return a.Step == b.Step && a.Op == b.Op && a.Outcome == b.Outcome &&
		equalPtr(a.Found, b.Found) && equalPtr(a.Count, b.Count)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameState(a, b map[string]value.Object) bool {
	if len(a) != len(b) {
		return false
	}
	for k, doc := range a {
		other, ok := b[k]
		if !ok || !value.Equal(doc, other) {
			return false
		}
	}
	return true
}

// resolveKey turns a step or assertion address into a storage key.
func resolveKey(id any, key string) (string, error) {
	if key != "" {
		return key, nil
	}
	if id == nil {
		return "", errors.New("id or key is required")
	}
	v, err := value.FromNative(id)
	if err != nil {
		return "", fmt.Errorf("id: %w", err)
	}
	encoded, err := value.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("id: %w", err)
	}
	return string(encoded), nil
}
