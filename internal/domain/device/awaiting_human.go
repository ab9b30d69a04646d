package device

// HumanGateState is the minimal state AwaitingHuman needs to decide the
// human-intervention gate, decoupled from the concrete FilamentChange /
// PrintJob types that live in the printer and job packages.
type HumanGateState struct {
	Kind              Kind
	FilamentConfirmed bool // only meaningful for KindFilamentChange
	ProgramEnded      bool // only meaningful for program-like kinds
	JobOutcomeUnknown bool // PrintJob.Success == null
}

// AwaitingHuman reports whether a task is blocking dispatch pending a
// human decision (spec.md §4.2 "Human-intervention gate"):
//   - filament-change: true until confirmed.
//   - program/slice-then-program: true once the program ends with the
//     linked PrintJob's outcome still unknown (bed-removal pending).
//   - command: never.
func AwaitingHuman(s HumanGateState) bool {
	switch s.Kind {
	case KindFilamentChange:
		return !s.FilamentConfirmed
	case KindProgram, KindSliceThenProgram:
		return s.ProgramEnded && s.JobOutcomeUnknown
	default:
		return false
	}
}
