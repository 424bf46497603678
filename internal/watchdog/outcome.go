package watchdog

// Outcome is the classified result of one backup attempt.
type Outcome int

const (
	// OutcomeUnknown covers every phase string the watchdog does not
	// recognize. Unknown records are never remediated, so a vocabulary
	// change in the backing system fails closed.
	OutcomeUnknown Outcome = iota
	OutcomeCompleted
	OutcomeFailed
	OutcomePartiallyFailed
	OutcomeInProgress
	OutcomeDeleting
)

// phaseOutcomes is the single place the backing system's status vocabulary
// is known.
var phaseOutcomes = map[string]Outcome{
	"Completed":       OutcomeCompleted,
	"Failed":          OutcomeFailed,
	"PartiallyFailed": OutcomePartiallyFailed,
	"InProgress":      OutcomeInProgress,
	"Deleting":        OutcomeDeleting,
}

var outcomeNames = map[Outcome]string{
	OutcomeUnknown:         "Unknown",
	OutcomeCompleted:       "Completed",
	OutcomeFailed:          "Failed",
	OutcomePartiallyFailed: "PartiallyFailed",
	OutcomeInProgress:      "InProgress",
	OutcomeDeleting:        "Deleting",
}

// Classify maps a raw phase string to an Outcome. Total: every input maps
// to exactly one Outcome.
func Classify(phase string) Outcome {
	if outcome, ok := phaseOutcomes[phase]; ok {
		return outcome
	}
	return OutcomeUnknown
}

// Remediable reports whether records with this outcome are candidates for
// remediation.
func (o Outcome) Remediable() bool {
	return o == OutcomeFailed || o == OutcomePartiallyFailed
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "Unknown"
}
