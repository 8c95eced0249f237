package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/fakedb/internal/docstore"
	"github.com/roach88/fakedb/internal/fakedb"
)

// Scenario defines a conformance scenario: a store keyed by Identifier,
// seeded with documents, driven through Steps and checked by Assertions.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Identifier selects the key strategy: field:<path>, content_hash,
	// sequence or uuid_v7.
	Identifier string `yaml:"identifier"`

	// Seed documents are inserted in one InsertMany before the first step.
	// A seed that fails to insert is a scenario error.
	Seed []map[string]any `yaml:"seed,omitempty"`

	// Steps run in order against every backend.
	Steps []Step `yaml:"steps"`

	// Assertions check the final state after the last step.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one store operation.
type Step struct {
	// Op is the operation name, e.g. "insert_many".
	Op string `yaml:"op"`

	// Doc is the document for insert and update.
	Doc map[string]any `yaml:"doc,omitempty"`

	// Docs is the batch for insert_many.
	Docs []map[string]any `yaml:"docs,omitempty"`

	// ID addresses find_by_id and delete_by_id by value; the storage key is
	// its canonical JSON. Key gives the storage key verbatim instead.
	ID  any    `yaml:"id,omitempty"`
	Key string `yaml:"key,omitempty"`

	// Match is a CUE constraint; empty matches every document.
	Match string `yaml:"match,omitempty"`

	// OrderBy lists fields for find_one/find_many; "-field" sorts descending.
	OrderBy []string `yaml:"order_by,omitempty"`

	// Set and Unset form the update_many patch.
	Set   map[string]any `yaml:"set,omitempty"`
	Unset []string       `yaml:"unset,omitempty"`

	// Expect describes the outcome. Without it the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// Error is the expected store error code, e.g. "CONFLICT".
	Error string `yaml:"error,omitempty"`

	// Found is checked for find_by_id, find_one and delete_by_id.
	Found *bool `yaml:"found,omitempty"`

	// Result is a subset match against the single returned document.
	Result map[string]any `yaml:"result,omitempty"`

	// Results is an exact match against returned documents: ordered when
	// the step has order_by, as a multiset otherwise.
	Results []map[string]any `yaml:"results,omitempty"`

	// Count is the number of documents returned by find_many or delete_many.
	Count *int `yaml:"count,omitempty"`
}

// Assertion validates the final state.
type Assertion struct {
	// Type is one of final_state, record, count, absent.
	Type string `yaml:"type"`

	// ID or Key address the document for record and absent.
	ID  any    `yaml:"id,omitempty"`
	Key string `yaml:"key,omitempty"`

	// Expect is a subset match for record.
	Expect map[string]any `yaml:"expect,omitempty"`

	// State lists every document expected in the store, in any order
	// (final_state).
	State []map[string]any `yaml:"state,omitempty"`

	// Count is the expected number of stored documents (count).
	Count *int `yaml:"count,omitempty"`
}

// Operation names.
const (
	OpInsert     = "insert"
	OpInsertMany = "insert_many"
	OpUpdate     = "update"
	OpUpdateMany = "update_many"
	OpFindByID   = "find_by_id"
	OpFindOne    = "find_one"
	OpFindMany   = "find_many"
	OpDeleteByID = "delete_by_id"
	OpDeleteMany = "delete_many"
)

// Assertion type constants.
const (
	AssertFinalState = "final_state"
	AssertRecord     = "record"
	AssertCount      = "count"
	AssertAbsent     = "absent"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Reject unknown fields so "assertion:" vs "assertions:" typos surface.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := Validate(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// Validate checks that required fields are present and that identifiers,
// matchers, patches and documents compile.
func Validate(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if _, err := docstore.ParseIdentifier(s.Identifier); err != nil {
		return fmt.Errorf("identifier: %w", err)
	}
	if _, err := toDocs(s.Seed); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d] (%s): %w", i, step.Op, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step) error {
	switch step.Op {
	case OpInsert, OpUpdate:
		if step.Doc == nil {
			return fmt.Errorf("doc is required")
		}
		if _, err := toDoc(step.Doc); err != nil {
			return err
		}
	case OpInsertMany:
		if step.Docs == nil {
			return fmt.Errorf("docs is required (use [] for an empty batch)")
		}
		if _, err := toDocs(step.Docs); err != nil {
			return err
		}
	case OpFindByID, OpDeleteByID:
		if _, err := resolveKey(step.ID, step.Key); err != nil {
			return err
		}
	case OpUpdateMany:
		if len(step.Set) == 0 && len(step.Unset) == 0 {
			return fmt.Errorf("set or unset is required")
		}
		if _, err := docstore.ParsePatch(step.Set, step.Unset); err != nil {
			return err
		}
	case OpFindOne, OpFindMany, OpDeleteMany:
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}

	if _, err := docstore.CompileMatcher(step.Match); err != nil {
		return err
	}
	if _, err := docstore.ParseOrder(step.OrderBy); err != nil {
		return err
	}
	if step.Expect != nil {
		return validateExpect(step.Expect)
	}
	return nil
}

func validateExpect(e *Expect) error {
	if e.Error != "" && !knownCode(e.Error) {
		return fmt.Errorf("expect.error: unknown error code %q", e.Error)
	}
	if e.Result != nil {
		if _, err := toDoc(e.Result); err != nil {
			return fmt.Errorf("expect.result: %w", err)
		}
	}
	if _, err := toDocs(e.Results); err != nil {
		return fmt.Errorf("expect.results: %w", err)
	}
	if e.Count != nil && *e.Count < 0 {
		return fmt.Errorf("expect.count must be non-negative")
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertFinalState:
		if a.State == nil {
			return fmt.Errorf("state is required for final_state (use [] for an empty store)")
		}
		if _, err := toDocs(a.State); err != nil {
			return err
		}
	case AssertRecord:
		if _, err := resolveKey(a.ID, a.Key); err != nil {
			return err
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("expect is required for record")
		}
		if _, err := toDoc(a.Expect); err != nil {
			return err
		}
	case AssertAbsent:
		if _, err := resolveKey(a.ID, a.Key); err != nil {
			return err
		}
	case AssertCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("non-negative count is required for count")
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func knownCode(code string) bool {
	switch fakedb.ErrorCode(code) {
	case fakedb.ErrCodeConflict, fakedb.ErrCodeKeyNotFound, fakedb.ErrCodeCardinality, fakedb.ErrCodeLocking:
		return true
	}
	return false
}
