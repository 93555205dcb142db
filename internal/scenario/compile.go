package scenario

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/qsis-io/qsis/internal/spacetime"
)

//go:embed schema.cue
var schemaCUE string

// CompileError reports a scenario that fails schema or semantic checks.
type CompileError struct {
	Field   string    // dotted path of the offending field
	Message string    // human-readable description
	Pos     token.Pos // CUE source position if available
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Compile validates a CUE value against the embedded schema and builds
// the Scenario. The value must be the scenario struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(src)
//	s, err := Compile(v.LookupPath(cue.ParsePath("scenario")))
//
// Schema violations surface as *CompileError with CUE positions; the
// remaining semantic checks (start <= stop, physical worldline bounds)
// are enforced here because CUE cannot relate two fields ergonomically.
func Compile(v cue.Value) (*Scenario, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if !v.Exists() {
		return nil, &CompileError{Field: "scenario", Message: "scenario struct is required"}
	}

	// Unify with the schema so constraint violations carry positions.
	schema := v.Context().CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("internal schema error: %w", err)
	}
	unified := v.Unify(schema.LookupPath(cue.ParsePath("#Scenario")))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	s := &Scenario{}
	var err error

	if s.Name, err = stringField(unified, "name", true); err != nil {
		return nil, err
	}
	if s.Description, err = stringField(unified, "description", false); err != nil {
		return nil, err
	}
	if s.ProperTime, err = floatField(unified, "proper_time", true); err != nil {
		return nil, err
	}
	if s.ProperLength, err = floatField(unified, "proper_length", true); err != nil {
		return nil, err
	}
	if s.RestMass, err = floatField(unified, "rest_mass", false); err != nil {
		return nil, err
	}

	if err := parseSweep(unified, s); err != nil {
		return nil, err
	}
	if err := parseObservers(unified, s); err != nil {
		return nil, err
	}
	if err := parseWorldline(unified, s); err != nil {
		return nil, err
	}

	return s, nil
}

// CompileString compiles scenario source text. The source must define a
// top-level "scenario" struct.
func CompileString(src string) (*Scenario, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return Compile(v.LookupPath(cue.ParsePath("scenario")))
}

func parseSweep(v cue.Value, s *Scenario) error {
	sweepVal := v.LookupPath(cue.ParsePath("sweep"))

	start, err := floatField(sweepVal, "start", true)
	if err != nil {
		return fieldError(err, "sweep.start")
	}
	stop, err := floatField(sweepVal, "stop", true)
	if err != nil {
		return fieldError(err, "sweep.stop")
	}
	stepsVal := sweepVal.LookupPath(cue.ParsePath("steps"))
	steps, err := stepsVal.Int64()
	if err != nil {
		return &CompileError{Field: "sweep.steps", Message: "steps must be an integer", Pos: stepsVal.Pos()}
	}

	// Cross-field check CUE does not express: the sweep must not run
	// backward.
	if start > stop {
		return &CompileError{
			Field:   "sweep",
			Message: fmt.Sprintf("start (%g) must not exceed stop (%g)", start, stop),
			Pos:     sweepVal.Pos(),
		}
	}

	s.Sweep = Sweep{Start: start, Stop: stop, Steps: int(steps)}
	return nil
}

func parseObservers(v cue.Value, s *Scenario) error {
	obsVal := v.LookupPath(cue.ParsePath("observers"))
	if !obsVal.Exists() {
		return nil
	}

	iter, err := obsVal.List()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		elem := iter.Value()
		name, err := stringField(elem, "name", true)
		if err != nil {
			return fieldError(err, "observers.name")
		}
		beta, err := floatField(elem, "beta", true)
		if err != nil {
			return fieldError(err, "observers.beta")
		}
		s.Observers = append(s.Observers, Observer{Name: name, Beta: beta})
	}
	return nil
}

func parseWorldline(v cue.Value, s *Scenario) error {
	wlVal := v.LookupPath(cue.ParsePath("worldline"))
	if !wlVal.Exists() {
		return nil
	}

	iter, err := wlVal.List()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		elem := iter.Value()
		e := spacetime.Event{}
		for _, f := range []struct {
			name string
			dst  *float64
		}{
			{"t", &e.T}, {"x", &e.X}, {"y", &e.Y}, {"z", &e.Z},
		} {
			fieldVal := elem.LookupPath(cue.ParsePath(f.name))
			// y and z carry a *0 default; resolve it before decoding.
			fieldVal, _ = fieldVal.Default()
			val, err := fieldVal.Float64()
			if err != nil {
				return &CompileError{
					Field:   "worldline." + f.name,
					Message: "must be a number",
					Pos:     elem.Pos(),
				}
			}
			*f.dst = val
		}
		s.Worldline = append(s.Worldline, e)
	}
	return nil
}

// stringField reads a string field, returning "" for an absent optional.
func stringField(v cue.Value, name string, required bool) (string, error) {
	fieldVal := v.LookupPath(cue.ParsePath(name))
	if !fieldVal.Exists() {
		if required {
			return "", &CompileError{Field: name, Message: name + " is required", Pos: v.Pos()}
		}
		return "", nil
	}
	out, err := fieldVal.String()
	if err != nil {
		return "", &CompileError{Field: name, Message: "must be a string", Pos: fieldVal.Pos()}
	}
	return out, nil
}

// floatField reads a numeric field, returning 0 for an absent optional.
func floatField(v cue.Value, name string, required bool) (float64, error) {
	fieldVal := v.LookupPath(cue.ParsePath(name))
	if !fieldVal.Exists() {
		if required {
			return 0, &CompileError{Field: name, Message: name + " is required", Pos: v.Pos()}
		}
		return 0, nil
	}
	out, err := fieldVal.Float64()
	if err != nil {
		return 0, &CompileError{Field: name, Message: "must be a number", Pos: fieldVal.Pos()}
	}
	return out, nil
}

// fieldError re-roots a CompileError under a parent path.
func fieldError(err error, field string) error {
	if cErr, ok := err.(*CompileError); ok {
		return &CompileError{Field: field, Message: cErr.Message, Pos: cErr.Pos}
	}
	return err
}

// formatCUEError converts a CUE error into a CompileError, keeping the
// first position CUE reports.
func formatCUEError(err error) error {
	var pos token.Pos
	if positions := cueerrors.Positions(err); len(positions) > 0 {
		pos = positions[0]
	}
	return &CompileError{
		Field:   "cue",
		Message: cueerrors.Details(err, nil),
		Pos:     pos,
	}
}
