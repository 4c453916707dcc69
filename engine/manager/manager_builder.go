package manager

import "log"

// Config is the set of hard capacity caps applied at NewManager time
// (spec.md §6). All counts are fixed for the manager's lifetime — there is
// no dynamic growth of any pool. Every field is required; zero is a
// contract violation.
type Config struct {
	MaxNumLibs      int
	MaxNumSkeletons int
	MaxNumInstances int

	ClipPoolCapacity   int
	CurvePoolCapacity  int
	MatrixPoolCapacity int

	KeyPoolCapacity    int
	SamplePoolCapacity int

	MaxNumActiveInstances int

	ResourceLabelStackCapacity int
	ResourceRegistryCapacity   int
}

func (c Config) validate() {
	fields := map[string]int{
		"MaxNumLibs":                 c.MaxNumLibs,
		"MaxNumSkeletons":            c.MaxNumSkeletons,
		"MaxNumInstances":            c.MaxNumInstances,
		"ClipPoolCapacity":           c.ClipPoolCapacity,
		"CurvePoolCapacity":          c.CurvePoolCapacity,
		"MatrixPoolCapacity":         c.MatrixPoolCapacity,
		"KeyPoolCapacity":            c.KeyPoolCapacity,
		"SamplePoolCapacity":         c.SamplePoolCapacity,
		"MaxNumActiveInstances":      c.MaxNumActiveInstances,
		"ResourceLabelStackCapacity": c.ResourceLabelStackCapacity,
		"ResourceRegistryCapacity":   c.ResourceRegistryCapacity,
	}
	for name, v := range fields {
		if v <= 0 {
			panic("manager: Config." + name + " must be > 0")
		}
	}
}

// ManagerBuilderOption is a functional option for configuring a Manager at
// construction, mirroring the rest of this module's builder-option
// packages (library.Setup, skeleton.Setup consumers aside, this follows
// the engine/model EngineBuilderOption/ModelBuilderOption shape).
type ManagerBuilderOption func(*manager)

// WithLogger sets the logger used for non-fatal diagnostics (e.g. a
// pool-exhaustion warning before returning an error). Diagnostics are only
// emitted once EnableLogging is called.
func WithLogger(l *log.Logger) ManagerBuilderOption {
	return func(m *manager) {
		m.logger = l
	}
}
