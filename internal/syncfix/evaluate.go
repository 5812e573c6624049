package syncfix

import (
	"fmt"
	"math"
	"path/filepath"
)

// DefaultThreshold is the offset, in seconds, below which a pair is treated
// as in sync.
const DefaultThreshold = 0.1

// offsetTolerance bounds the binary rounding error of |a-b| for durations of
// this magnitude, so 10.1 - 10.0 compares equal to a 0.1 threshold while an
// offset genuinely below it (0.0999999995) stays below.
func offsetTolerance(a, b float64) float64 {
	return 4 * math.Max(math.Abs(a), math.Abs(b)) * 0x1p-52
}

// Status is the outcome of a sync evaluation.
type Status string

const (
	StatusNoFixNeeded Status = "no-fix-needed"
	StatusFixNeeded   Status = "fix-needed"
)

// Role names the logical stream a recording is bound to.
type Role string

const (
	RoleNone         Role = "none"
	RolePresenter    Role = "presenter"
	RolePresentation Role = "presentation"
	RoleUnknown      Role = "unknown"
)

// Decision is computed once per run from the two audio durations.
type Decision struct {
	Status    Status
	Defective Role
	// Offset is |presenter - presentation| at full precision.
	Offset float64
}

// FixNeeded reports whether the decision calls for a leader pad.
func (d Decision) FixNeeded() bool {
	return d.Status == StatusFixNeeded
}

// FormatOffset renders the offset with two fractional digits.
func (d Decision) FormatOffset() string {
	return fmt.Sprintf("%.2f", d.Offset)
}

// Evaluator applies the offset threshold. The zero value uses DefaultThreshold.
type Evaluator struct {
	Threshold float64
}

func (e Evaluator) threshold() float64 {
	if e.Threshold <= 0 || math.IsNaN(e.Threshold) {
		return DefaultThreshold
	}
	return e.Threshold
}

// Evaluate compares the two durations and attributes a defect to the role
// with the smaller duration.
func (e Evaluator) Evaluate(presenter, presentation float64) Decision {
	offset := math.Abs(presenter - presentation)
	if offset < e.threshold()-offsetTolerance(presenter, presentation) {
		return Decision{Status: StatusNoFixNeeded, Defective: RoleNone, Offset: offset}
	}
	role := RolePresentation
	if presenter < presentation {
		role = RolePresenter
	}
	return Decision{Status: StatusFixNeeded, Defective: role, Offset: offset}
}

// Input binds a media path to its probed audio duration.
type Input struct {
	Path     string
	Duration float64
}

// PathDecision is a Decision together with the files a correction operates
// on. Both paths are empty when no fix is needed.
type PathDecision struct {
	Decision
	ReferencePath string
	DefectivePath string
}

// EvaluatePaths evaluates like Evaluate, but attributes the defect by
// matching the shorter file's absolute path against the two role paths.
// A shorter file bound to neither role is reported as RoleUnknown; the
// correction still targets it.
func (e Evaluator) EvaluatePaths(presenter, presentation Input) PathDecision {
	decision := e.Evaluate(presenter.Duration, presentation.Duration)
	if !decision.FixNeeded() {
		return PathDecision{Decision: decision}
	}
	reference, defective := presenter.Path, presentation.Path
	if presenter.Duration < presentation.Duration {
		reference, defective = presentation.Path, presenter.Path
	}
	decision.Defective = attributeRole(defective, presenter.Path, presentation.Path)
	return PathDecision{Decision: decision, ReferencePath: reference, DefectivePath: defective}
}

// Evaluate uses DefaultThreshold.
func Evaluate(presenter, presentation float64) Decision {
	return Evaluator{}.Evaluate(presenter, presentation)
}

// EvaluatePaths uses DefaultThreshold.
func EvaluatePaths(presenter, presentation Input) PathDecision {
	return Evaluator{}.EvaluatePaths(presenter, presentation)
}

func attributeRole(defective, presenterPath, presentationPath string) Role {
	target := absPath(defective)
	switch target {
	case absPath(presenterPath):
		return RolePresenter
	case absPath(presentationPath):
		return RolePresentation
	default:
		return RoleUnknown
	}
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
