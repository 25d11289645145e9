package persona

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ExportMeta carries the questionnaire metadata repeated on every CSV row.
type ExportMeta struct {
	ClientName  string
	ProductName string
}

// Columns is the fixed export header, in order. Readers of the exported file
// depend on this exact layout.
var Columns = []string{
	"Client Name",
	"Product Name",
	"Persona Name",
	"Persona Type",
	"Age Range",
	"Gender",
	"Location",
	"Income Level",
	"Net Worth",
	"Education",
	"Occupation",
	"Family Status",
	"Values",
	"Motivations",
	"Lifestyle",
	"Interests",
	"Goals",
	"Challenges",
	"Needs",
	"Pain Points",
	"Research Style",
	"Decision Making",
	"Communication Preferences",
	"Online Behavior",
	"Quote",
	"Key Characteristics",
}

// WriteCSV writes one row per persona under the fixed header.
func WriteCSV(w io.Writer, personas []Persona, meta ExportMeta) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, p := range personas {
		row := []string{
			meta.ClientName,
			meta.ProductName,
			p.Name,
			string(p.Type),
			p.Demographics.AgeRange,
			p.Demographics.Gender,
			p.Demographics.Location,
			p.Demographics.IncomeLevel,
			p.Demographics.NetWorth,
			p.Demographics.Education,
			p.Demographics.Occupation,
			p.Demographics.FamilyStatus,
			p.Psychographics.Values.Join(),
			p.Psychographics.Motivations.Join(),
			p.Psychographics.Lifestyle,
			p.Psychographics.Interests.Join(),
			p.Goals.Join(),
			p.Challenges.Join(),
			p.Needs.Join(),
			p.PainPoints.Join(),
			p.Behavior.ResearchStyle,
			p.Behavior.DecisionMaking,
			p.Behavior.CommunicationPreferences,
			p.Behavior.OnlineBehavior,
			p.Quote,
			p.KeyCharacteristics.Join(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing persona %q: %w", p.Name, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
