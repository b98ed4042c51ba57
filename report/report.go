// Package report renders one exploration run's outcome: for every
// eligible root operation tried under one behaviour, either no
// counterexample was found, or the minimized failing sequence for
// whichever behaviour-specific property it violated (spec §3, §6).
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/apiweaver/weaver/amos"
	"github.com/apiweaver/weaver/explore"
	"github.com/apiweaver/weaver/httpx"
	"github.com/apiweaver/weaver/invoke"
	"github.com/apiweaver/weaver/jsonenc"
	"github.com/apiweaver/weaver/synth"
)

// Outcome is the closed set of result variants a run can produce.
type Outcome int

const (
	NoExampleFound Outcome = iota
	ResponseCheck
	ResponseEquality
	ResponseInequality
	StateMutation
	StateIdentity
)

func outcomeFor(b synth.Behaviour) Outcome {
	switch b {
	case synth.ResponseCheck:
		return ResponseCheck
	case synth.ResponseEquality:
		return ResponseEquality
	case synth.ResponseInequality:
		return ResponseInequality
	case synth.StateMutation:
		return StateMutation
	case synth.StateIdentity:
		return StateIdentity
	default:
		return NoExampleFound
	}
}

// CallRecord is one invoked step of a reported sequence (spec §6
// "operations: seq<{name,url,method,parameters}>").
type CallRecord struct {
	Operation  string            `json:"name" yaml:"name"`
	Method     string            `json:"method,omitempty" yaml:"method,omitempty"`
	URL        string            `json:"url,omitempty" yaml:"url,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	StatusCode int               `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	Payload    string            `json:"payload,omitempty" yaml:"payload,omitempty"`
	Skipped    bool              `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// OperationOutcome pairs one eligible root operation with the
// exploration run over it: cex is nil when the property held for
// every draw pinned to (or drawn as) that operation.
type OperationOutcome struct {
	RootOperation  string
	Counterexample *explore.Counterexample
}

// SequenceReport is one root operation's exploration result within a
// behaviour's report (spec §6 "sequences: seq<{root_operation,
// operations}>").
type SequenceReport struct {
	RootOperation string       `json:"root_operation" yaml:"root_operation"`
	Outcome       Outcome      `json:"-" yaml:"-"`
	OutcomeName   string       `json:"outcome" yaml:"outcome"`
	ShrinkSteps   int          `json:"shrink_steps,omitempty" yaml:"shrink_steps,omitempty"`
	Violation     string       `json:"violation,omitempty" yaml:"violation,omitempty"`
	Operations    []CallRecord `json:"operations,omitempty" yaml:"operations,omitempty"`
}

// Report is the complete record of one behaviour's exploration run,
// one entry in Sequences per eligible root operation tried (spec §6
// "Report{behaviour, amos, sequences}").
type Report struct {
	RunID     string           `json:"run_id" yaml:"run_id"`
	Behaviour string           `json:"behaviour" yaml:"behaviour"`
	AMOS      *amos.AMOS       `json:"amos" yaml:"amos"`
	Timestamp time.Time        `json:"timestamp" yaml:"timestamp"`
	TestsRun  int              `json:"tests_run" yaml:"tests_run"`
	Sequences []SequenceReport `json:"sequences,omitempty" yaml:"sequences,omitempty"`
}

// Build assembles a Report from one Explorer run per eligible root
// operation (spec §4 "one Explorer per requested behaviour per
// eligible operation").
func Build(a *amos.AMOS, behaviour synth.Behaviour, testsRun int, outcomes []OperationOutcome) *Report {
	r := &Report{
		RunID:     uuid.NewString(),
		Behaviour: behaviour.Kebab(),
		AMOS:      a,
		Timestamp: time.Now(),
		TestsRun:  testsRun,
	}
	for _, o := range outcomes {
		r.Sequences = append(r.Sequences, buildSequence(behaviour, o))
	}
	return r
}

// Witnessed reports whether any root operation in the report produced
// a counterexample.
func (r *Report) Witnessed() bool {
	for _, sr := range r.Sequences {
		if sr.Outcome != NoExampleFound {
			return true
		}
	}
	return false
}

func buildSequence(behaviour synth.Behaviour, o OperationOutcome) SequenceReport {
	sr := SequenceReport{RootOperation: o.RootOperation}
	if o.Counterexample == nil {
		sr.Outcome = NoExampleFound
		sr.OutcomeName = "no_example_found"
		return sr
	}
	sr.Outcome = outcomeFor(behaviour)
	sr.OutcomeName = outcomeName(sr.Outcome)
	sr.ShrinkSteps = o.Counterexample.ShrinkSteps
	sr.Violation = o.Counterexample.Violation.Error()
	sr.Operations = recordSequence(o.Counterexample.Results)
	return sr
}

func outcomeName(o Outcome) string {
	switch o {
	case ResponseCheck:
		return "response_check"
	case ResponseEquality:
		return "response_equality"
	case ResponseInequality:
		return "response_inequality"
	case StateMutation:
		return "state_mutation"
	case StateIdentity:
		return "state_identity"
	default:
		return "no_example_found"
	}
}

func recordSequence(results []invoke.StepResult) []CallRecord {
	out := make([]CallRecord, 0, len(results))
	for _, r := range results {
		if r.Call == nil {
			out = append(out, CallRecord{Operation: r.Generated.Name, Skipped: true})
			continue
		}
		out = append(out, CallRecord{
			Operation:  r.Generated.Name,
			Method:     r.Call.Method.String(),
			URL:        r.Call.URL,
			Parameters: callParameters(r.Call),
			StatusCode: r.Result.StatusCode,
			Payload:    r.Result.Payload,
		})
	}
	return out
}

// callParameters flattens a rendered HTTPCall's query, form, and body
// values into one name->value map for the report record. File values
// are recorded by name only; the bytes themselves aren't reproducible
// from a report.
func callParameters(call *httpx.HTTPCall) map[string]string {
	if call == nil {
		return nil
	}
	out := make(map[string]string, len(call.Query)+len(call.FormData)+len(call.Body)+len(call.FileData))
	for k, v := range call.Query {
		out[k] = v
	}
	for k, v := range call.FormData {
		out[k] = v
	}
	for k, v := range call.Body {
		out[k] = fmt.Sprintf("%v", v)
	}
	for k := range call.FileData {
		out[k] = "<file>"
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ToJSON renders the report as JSON via jsonenc (sonic by default).
func (r *Report) ToJSON(pretty bool) ([]byte, error) {
	if pretty {
		return jsonenc.MarshalIndent(r, "", "  ")
	}
	return jsonenc.Marshal(r)
}

// ToYAML renders the report as YAML.
func (r *Report) ToYAML() ([]byte, error) {
	return yaml.Marshal(r)
}

// FileName is the report's canonical file name, "<behaviour>.json"
// (spec §6), under dir.
func (r *Report) FileName(dir string) string {
	return filepath.Join(dir, r.Behaviour+".json")
}

// Save writes the report to dir using FileName, in the given format
// ("json" or "yaml").
func (r *Report) Save(dir, format string) error {
	var data []byte
	var err error
	switch format {
	case "yaml", "yml":
		data, err = r.ToYAML()
	default:
		data, err = r.ToJSON(true)
	}
	if err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return os.WriteFile(r.FileName(dir), data, 0o644)
}

// PrintTo writes a short human-readable summary, the engine's
// equivalent of a property-test library's failure banner, one section
// per eligible root operation explored under this behaviour.
func (r *Report) PrintTo(w io.Writer) {
	fmt.Fprintf(w, "%s: %d operation(s) explored over %d tests\n", r.Behaviour, len(r.Sequences), r.TestsRun)
	for _, sr := range r.Sequences {
		if sr.Outcome == NoExampleFound {
			fmt.Fprintf(w, "  %s: no counterexample found\n", sr.RootOperation)
			continue
		}
		fmt.Fprintf(w, "  %s: violation after %d shrink steps\n", sr.RootOperation, sr.ShrinkSteps)
		fmt.Fprintf(w, "    %s\n", sr.Violation)
		for i, c := range sr.Operations {
			if c.Skipped {
				fmt.Fprintf(w, "    %d. %s (skipped: unresolvable call)\n", i+1, c.Operation)
				continue
			}
			fmt.Fprintf(w, "    %d. %s -> %d %s\n", i+1, c.Operation, c.StatusCode, c.URL)
		}
	}
}
