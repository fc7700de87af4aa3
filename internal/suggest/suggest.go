package suggest

import "strings"

// Service returns advisory suggestions for free-text symptom notes.
// Best effort: suggestions never block or alter the clinical record.
type Service interface {
	Suggest(symptoms string) []string
}

// Static is the built-in advisory service. It returns a fixed checklist
// once the symptom text is long enough to be meaningful; the strings
// are opaque to the core.
type Static struct {
	MinLength int
}

// NewStatic creates the default static suggester.
func NewStatic() *Static {
	return &Static{MinLength: 10}
}

// Suggest returns the checklist for non-trivial symptom text.
func (s *Static) Suggest(symptoms string) []string {
	if len(strings.TrimSpace(symptoms)) <= s.MinLength {
		return nil
	}
	return []string{
		"Vérifier la tension artérielle",
		"Examiner les réflexes",
		"Contrôler le poids",
		"Évaluer l'observance médicamenteuse",
	}
}
