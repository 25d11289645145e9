// Package persona defines the persona data model produced by generation and
// its fixed-column CSV export.
package persona

import (
	"encoding/json"
	"strings"
)

// Type classifies a persona by importance.
type Type string

const (
	TypePrimary   Type = "Primary"
	TypeSecondary Type = "Secondary"
	TypeTertiary  Type = "Tertiary"
)

// UnmarshalJSON normalizes whatever the model returned to the enumerated
// set. Unrecognized values fall back to Primary rather than failing the
// batch.
func (t *Type) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*t = TypePrimary
		return nil
	}
	*t = normalizeType(s)
	return nil
}

func normalizeType(s string) Type {
	switch {
	case strings.Contains(strings.ToLower(s), "secondary"):
		return TypeSecondary
	case strings.Contains(strings.ToLower(s), "tertiary"):
		return TypeTertiary
	default:
		return TypePrimary
	}
}

// StringList accepts either a JSON array of strings or a single string.
// Model output is untrusted and flips between the two shapes.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*l = arr
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			*l = nil
			return nil
		}
		*l = []string{s}
		return nil
	}
	// Unusable shape for this field; leave it empty instead of failing.
	*l = nil
	return nil
}

// Join renders the list as a single CSV cell value.
func (l StringList) Join() string {
	return strings.Join(l, "; ")
}

// Demographics are the who-they-are fields of a persona.
type Demographics struct {
	AgeRange     string `json:"age_range"`
	Gender       string `json:"gender"`
	Location     string `json:"location"`
	IncomeLevel  string `json:"income_level"`
	NetWorth     string `json:"net_worth"`
	Education    string `json:"education"`
	Occupation   string `json:"occupation"`
	FamilyStatus string `json:"family_status"`
}

// Psychographics are the what-drives-them fields of a persona.
type Psychographics struct {
	Values      StringList `json:"values"`
	Motivations StringList `json:"motivations"`
	Lifestyle   string     `json:"lifestyle"`
	Interests   StringList `json:"interests"`
}

// Behavior describes how a persona researches, decides, and communicates.
type Behavior struct {
	ResearchStyle            string `json:"research_style"`
	DecisionMaking           string `json:"decision_making"`
	CommunicationPreferences string `json:"communication_preferences"`
	OnlineBehavior           string `json:"online_behavior"`
}

// Persona is one synthetic user profile. JSON field names match the reply
// schema requested from the model; every field except Type is free text.
type Persona struct {
	Name               string         `json:"persona_name"`
	Type               Type           `json:"persona_type"`
	Demographics       Demographics   `json:"demographics"`
	Psychographics     Psychographics `json:"psychographics"`
	Goals              StringList     `json:"goals"`
	Challenges         StringList     `json:"challenges"`
	Needs              StringList     `json:"needs"`
	PainPoints         StringList     `json:"pain_points"`
	Behavior           Behavior       `json:"behavior"`
	Quote              string         `json:"quote"`
	KeyCharacteristics StringList     `json:"key_characteristics"`
}
