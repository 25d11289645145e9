// Package generator turns parsed questionnaire documents into personas by
// prompting an external text-generation model and parsing its reply.
package generator

import (
	"context"
	"fmt"

	"github.com/kalambet/personaforge/internal/persona"
	"github.com/kalambet/personaforge/internal/questionnaire"
)

// TextGenerator abstracts the external model call: one prompt in, one reply
// text out. The narrow surface keeps generation logic testable without the
// network.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Generator builds prompts, submits them, and parses replies.
type Generator struct {
	llm         TextGenerator
	minPersonas int
	maxPersonas int
}

// New creates a Generator. minPersonas/maxPersonas bound the persona count
// requested from the model; values below 1 fall back to the 2-4 range.
func New(llm TextGenerator, minPersonas, maxPersonas int) *Generator {
	if minPersonas < 1 {
		minPersonas = 2
	}
	if maxPersonas < minPersonas {
		maxPersonas = minPersonas + 2
	}
	return &Generator{
		llm:         llm,
		minPersonas: minPersonas,
		maxPersonas: maxPersonas,
	}
}

// Generate runs the full pipeline for one document. Upstream errors pass
// through unchanged so callers can classify them; an unusable reply surfaces
// as ErrUnparsableResponse.
func (g *Generator) Generate(ctx context.Context, doc *questionnaire.Document) ([]persona.Persona, error) {
	if doc == nil || len(doc.Records) == 0 {
		return nil, fmt.Errorf("document has no question/answer records")
	}

	prompt := BuildPrompt(doc, g.minPersonas, g.maxPersonas)

	reply, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return ParseResponse(reply)
}
