package fastc

// SafetyLevel selects how aggressively the checker enforces §4.4's
// Power-of-10-derived rules (powerof10.go): relaxed and standard skip
// the pass entirely; critical runs all of it (function length, pointer
// depth, recursion and bounded-loop analysis).
type SafetyLevel int

const (
	SafetyRelaxed SafetyLevel = iota
	SafetyStandard
	SafetyCritical
)

func (s SafetyLevel) String() string {
	switch s {
	case SafetyRelaxed:
		return "relaxed"
	case SafetyStandard:
		return "standard"
	case SafetyCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Options configures the pipeline-facing operations that take it (Check
// and Compile; Format takes none). Like the teacher's NewConfig, DefaultOptions always returns
// a fully populated value — nothing in the pipeline ever has to guard
// against an unset field the way the teacher's map-backed Config had
// to guard against an unset key.
type Options struct {
	// EmitHeader controls whether Compile produces a companion .h file
	// alongside the .c translation unit.
	EmitHeader bool

	// SafetyLevel gates the Power-of-10 auxiliary pass.
	SafetyLevel SafetyLevel

	// Strict escalates every warning-severity diagnostic (e.g.
	// typecheck-unchecked-result) to an error.
	Strict bool

	// RuntimeInclude, if non-empty, is added as a second #include to
	// every generated .c file, right after the generated header — for
	// projects that ship a small hand-written runtime (allocators,
	// panic handlers) alongside the generated code.
	RuntimeInclude string

	// HeaderName is the filename Compile uses in the generated .c
	// file's #include directive. Defaults to "out.h" when empty.
	HeaderName string
}

func DefaultOptions() Options {
	return Options{
		EmitHeader:  true,
		SafetyLevel: SafetyStandard,
		Strict:      false,
		HeaderName:  "out.h",
	}
}
