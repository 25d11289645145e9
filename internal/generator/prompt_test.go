package generator

import (
	"strings"
	"testing"

	"github.com/kalambet/personaforge/internal/questionnaire"
)

func testDoc() *questionnaire.Document {
	return &questionnaire.Document{
		Metadata: map[string]string{
			questionnaire.ClientNameKey:  "Acme",
			questionnaire.ProductNameKey: "Widget",
		},
		Records: []questionnaire.QA{
			{Section: "Pricing", Question: "What is your budget?", Answer: "$50-100"},
			{Section: "Target Audience", Question: "Who buys this?", Answer: "Founders"},
			{Section: "Pricing", Question: "Annual or monthly?", Answer: "Annual"},
		},
		Headers: []string{"Section", "Question", "Answer"},
	}
}

func TestBuildPromptContents(t *testing.T) {
	prompt := BuildPrompt(testDoc(), 2, 4)

	for _, want := range []string{
		"CLIENT: Acme",
		"PRODUCT: Widget",
		"What is your budget?",
		"$50-100",
		"Who buys this?",
		"at least 2 and at most 4 distinct personas",
		`"persona_name"`,
		`"persona_type"`,
		`"demographics"`,
		`"psychographics"`,
		`"pain_points"`,
		`"key_characteristics"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPromptGroupsBySection(t *testing.T) {
	prompt := BuildPrompt(testDoc(), 2, 3)

	pricing := strings.Index(prompt, "[Pricing]")
	audience := strings.Index(prompt, "[Target Audience]")
	if pricing == -1 || audience == -1 {
		t.Fatalf("section headings missing:\n%s", prompt)
	}
	if pricing > audience {
		t.Error("sections not in first-appearance order")
	}

	// Both Pricing questions must appear under the single Pricing heading.
	if strings.Count(prompt, "[Pricing]") != 1 {
		t.Error("section heading repeated")
	}
	annual := strings.Index(prompt, "Annual or monthly?")
	if annual == -1 || annual > audience {
		t.Error("second Pricing question not grouped under its section")
	}
}

func TestBuildPromptUnknownClient(t *testing.T) {
	doc := testDoc()
	doc.Metadata = map[string]string{}
	prompt := BuildPrompt(doc, 2, 3)
	if !strings.Contains(prompt, "CLIENT: Unknown") {
		t.Error("missing metadata should fall back to Unknown")
	}
}
