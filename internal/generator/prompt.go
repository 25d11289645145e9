package generator

import (
	"fmt"
	"strings"

	"github.com/kalambet/personaforge/internal/questionnaire"
)

// replySchema is the exact JSON structure the model is asked to return.
// The response parser recognizes this shape, so prompt and parser must
// stay in sync.
const replySchema = `{
  "personas": [
    {
      "persona_name": "Name",
      "persona_type": "Primary",
      "demographics": {
        "age_range": "35-55",
        "gender": "Mixed (60% M, 40% F)",
        "location": "Primary markets",
        "income_level": "$200,000+ annual",
        "net_worth": "$1M+",
        "education": "University degree or higher",
        "occupation": "Business owners, C-level executives",
        "family_status": "Married/partnered, often with children"
      },
      "psychographics": {
        "values": ["value1", "value2"],
        "motivations": ["motivation1", "motivation2"],
        "lifestyle": "Description",
        "interests": ["interest1", "interest2"]
      },
      "goals": ["Goal 1", "Goal 2"],
      "challenges": ["Challenge 1", "Challenge 2"],
      "needs": ["Need 1", "Need 2"],
      "pain_points": ["Pain point 1", "Pain point 2"],
      "behavior": {
        "research_style": "Description",
        "decision_making": "Description",
        "communication_preferences": "Description",
        "online_behavior": "Description"
      },
      "quote": "A representative quote in their voice",
      "key_characteristics": ["Characteristic 1", "Characteristic 2", "Characteristic 3"]
    }
  ]
}`

// BuildPrompt assembles the generation prompt: task statement, the client
// and product identity, every Q&A pair grouped by section in first-appearance
// order, the required reply schema, and the requested persona count range.
func BuildPrompt(doc *questionnaire.Document, minPersonas, maxPersonas int) string {
	var sb strings.Builder

	sb.WriteString("You are an expert user researcher and UX strategist. ")
	sb.WriteString("Analyze the following questionnaire data and create comprehensive user personas ")
	sb.WriteString("representing the ideal clients/users for this product or service.\n\n")

	client := doc.ClientName()
	if client == "" {
		client = "Unknown"
	}
	product := doc.ProductName()
	if product == "" {
		product = "Unknown"
	}
	fmt.Fprintf(&sb, "CLIENT: %s\nPRODUCT: %s\n\n", client, product)

	sb.WriteString("QUESTIONNAIRE DATA:\n")
	for _, section := range sectionOrder(doc.Records) {
		fmt.Fprintf(&sb, "\n[%s]\n", section)
		for _, qa := range doc.Records {
			if qa.Section != section {
				continue
			}
			fmt.Fprintf(&sb, "Q: %s\nA: %s\n", qa.Question, qa.Answer)
		}
	}

	sb.WriteString("\nFor each persona provide: a memorable name; a type (Primary, Secondary, or Tertiary); ")
	sb.WriteString("demographics (age range, gender, location, income level, net worth, education, occupation, family status); ")
	sb.WriteString("psychographics (values, motivations, lifestyle, interests); goals; challenges; needs; ")
	sb.WriteString("pain points; behavior (research style, decision making, communication preferences, online behavior); ")
	sb.WriteString("a representative quote in their voice; and 5-7 key characteristics.\n\n")

	sb.WriteString("Return ONLY a JSON object with exactly this structure, no markdown and no extra text:\n")
	sb.WriteString(replySchema)
	fmt.Fprintf(&sb, "\n\nIdentify at least %d and at most %d distinct personas based on the questionnaire data. ", minPersonas, maxPersonas)
	sb.WriteString("Be thorough and specific.")

	return sb.String()
}

// sectionOrder returns each distinct section in order of first appearance.
func sectionOrder(records []questionnaire.QA) []string {
	seen := make(map[string]bool)
	var order []string
	for _, qa := range records {
		if !seen[qa.Section] {
			seen[qa.Section] = true
			order = append(order, qa.Section)
		}
	}
	return order
}
