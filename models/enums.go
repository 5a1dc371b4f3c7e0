package models

// Die Registry liefert Status, Phase und Studientyp als Freitext. Gespeichert wird
// unverändert; die Konstanten hier definieren das bekannte Vokabular, gegen das der
// Quality Checker prüft. Unbekannte Werte werden nie abgewiesen, nur gemeldet.

const (
	StatusRecruiting          = "RECRUITING"
	StatusNotYetRecruiting    = "NOT_YET_RECRUITING"
	StatusActiveNotRecruiting = "ACTIVE_NOT_RECRUITING"
	StatusEnrollingByInvite   = "ENROLLING_BY_INVITATION"
	StatusCompleted           = "COMPLETED"
	StatusSuspended           = "SUSPENDED"
	StatusTerminated          = "TERMINATED"
	StatusWithdrawn           = "WITHDRAWN"
	StatusUnknown             = "UNKNOWN"
)

const (
	PhaseEarly1 = "EARLY_PHASE1"
	Phase1      = "PHASE_1"
	Phase2      = "PHASE_2"
	Phase3      = "PHASE_3"
	Phase4      = "PHASE_4"
	PhaseNA     = "NA"
)

const (
	StudyTypeInterventional = "INTERVENTIONAL"
	StudyTypeObservational  = "OBSERVATIONAL"
	StudyTypeExpandedAccess = "EXPANDED_ACCESS"
)

var knownStatuses = map[string]bool{
	StatusRecruiting:          true,
	StatusNotYetRecruiting:    true,
	StatusActiveNotRecruiting: true,
	StatusEnrollingByInvite:   true,
	StatusCompleted:           true,
	StatusSuspended:           true,
	StatusTerminated:          true,
	StatusWithdrawn:           true,
	StatusUnknown:             true,
}

var knownPhases = map[string]bool{
	PhaseEarly1: true,
	Phase1:      true,
	Phase2:      true,
	Phase3:      true,
	Phase4:      true,
	PhaseNA:     true,
	// Kombinationsphasen der Registry
	"PHASE_1/PHASE_2": true,
	"PHASE_2/PHASE_3": true,
}

var knownStudyTypes = map[string]bool{
	StudyTypeInterventional: true,
	StudyTypeObservational:  true,
	StudyTypeExpandedAccess: true,
}

// KnownStatus meldet, ob der Wert zum bekannten Status-Vokabular gehört.
// Leere Werte gelten als bekannt; fehlende Pflichtfelder sind Sache der
// Completeness-Prüfung, nicht der Format-Prüfung.
func KnownStatus(s string) bool {
	return s == "" || knownStatuses[s]
}

// KnownPhase meldet, ob der Wert zum bekannten Phasen-Vokabular gehört.
func KnownPhase(s string) bool {
	return s == "" || knownPhases[s]
}

// KnownStudyType meldet, ob der Wert zum bekannten Studientyp-Vokabular gehört.
func KnownStudyType(s string) bool {
	return s == "" || knownStudyTypes[s]
}
