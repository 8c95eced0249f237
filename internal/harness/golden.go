package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/fakedb/internal/docstore"
	"github.com/roach88/fakedb/internal/value"
)

// Snapshot renders the first backend's trace and final state as canonical
// JSON. Deterministic identifiers render the state keyed by storage key;
// others render a list of documents sorted by their canonical form.
//
// Shape:
//
//	{"identifier":..., "scenario":..., "state":..., "trace":[{"op":..., "outcome":..., "step":...}]}
func Snapshot(report *Report) ([]byte, error) {
	if len(report.Results) == 0 {
		return nil, fmt.Errorf("snapshot %s: no backend results", report.Scenario)
	}
	result := report.Results[0]

	trace := make(value.Array, len(result.Trace))
	for i, e := range result.Trace {
		event := value.Object{
			"step":    value.Int(e.Step),
			"op":      value.String(e.Op),
			"outcome": value.String(e.Outcome),
		}
		if e.Found != nil {
			event["found"] = value.Bool(*e.Found)
		}
		if e.Count != nil {
			event["count"] = value.Int(*e.Count)
		}
		trace[i] = event
	}

	snapshot := value.Object{
		"scenario":   value.String(report.Scenario),
		"identifier": value.String(report.Identifier),
		"trace":      trace,
		"state":      renderState(report.Identifier, result.State),
	}
	return value.MarshalCanonical(snapshot)
}

func renderState(identifierName string, state map[string]value.Object) value.Value {
	identifier, err := docstore.ParseIdentifier(identifierName)
	if err == nil && docstore.Deterministic(identifier) {
		keyed := make(value.Object, len(state))
		for k, doc := range state {
			keyed[k] = doc
		}
		return keyed
	}

	docs := make([]value.Object, 0, len(state))
	for _, doc := range state {
		docs = append(docs, doc)
	}
	slices.SortFunc(docs, func(a, b value.Object) int {
		return strings.Compare(value.MustCanonical(a), value.MustCanonical(b))
	})
	out := make(value.Array, len(docs))
	for i, doc := range docs {
		out[i] = doc
	}
	return out
}

// RunWithGolden runs scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts Options) *Report {
	t.Helper()

	report, err := Run(context.Background(), scenario, opts)
	if err != nil {
		t.Fatalf("run %s: %v", scenario.Name, err)
	}
	AssertGolden(t, "testdata/golden", report)
	return report
}

// AssertGolden compares report's snapshot against {dir}/{scenario}.golden.
func AssertGolden(t *testing.T, dir string, report *Report) {
	t.Helper()

	data, err := Snapshot(report)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(dir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, report.Scenario, data)
}
