package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kalambet/personaforge/internal/persona"
)

// ErrUnparsableResponse means the model replied but the text could not be
// turned into even one persona. It is deliberately distinct from upstream
// failures so callers can tell "replied unusably" apart from "did not reply".
var ErrUnparsableResponse = errors.New("model response does not match the persona schema")

// replyEnvelope is the requested reply shape.
type replyEnvelope struct {
	Personas []persona.Persona `json:"personas"`
}

// ParseResponse extracts personas from raw model output. The model is asked
// for a bare JSON object but in practice wraps it in markdown fences, prose,
// or truncates it, so the text is cleaned up before decoding: fences are
// stripped, the JSON payload is located inside surrounding text, and
// unclosed braces/brackets are balanced.
func ParseResponse(text string) ([]persona.Persona, error) {
	cleaned := extractJSON(text)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: no JSON payload found", ErrUnparsableResponse)
	}

	personas, err := decodePersonas(cleaned)
	if err != nil {
		// Truncated output is common at token limits; close open
		// braces/brackets and retry once.
		repaired := balanceBrackets(cleaned)
		if repaired != cleaned {
			if personas, repairErr := decodePersonas(repaired); repairErr == nil {
				return validatePersonas(personas)
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrUnparsableResponse, err)
	}

	return validatePersonas(personas)
}

func validatePersonas(personas []persona.Persona) ([]persona.Persona, error) {
	// A decoded-but-empty result is as unusable as garbage.
	var kept []persona.Persona
	for _, p := range personas {
		if strings.TrimSpace(p.Name) != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: zero personas in reply", ErrUnparsableResponse)
	}
	return kept, nil
}

// decodePersonas accepts both the requested {"personas": [...]} envelope and
// a bare array.
func decodePersonas(text string) ([]persona.Persona, error) {
	if strings.HasPrefix(strings.TrimSpace(text), "[") {
		var personas []persona.Persona
		if err := json.Unmarshal([]byte(text), &personas); err != nil {
			return nil, err
		}
		return personas, nil
	}

	var envelope replyEnvelope
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		return nil, err
	}
	return envelope.Personas, nil
}

// extractJSON strips markdown code fences and leading/trailing prose,
// returning the text from the first { or [ to the last } or ].
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	if idx := strings.Index(text, "```json"); idx != -1 {
		text = text[idx+len("```json"):]
		if end := strings.Index(text, "```"); end != -1 {
			text = text[:end]
		}
	} else if idx := strings.Index(text, "```"); idx != -1 {
		text = text[idx+len("```"):]
		if end := strings.Index(text, "```"); end != -1 {
			text = text[:end]
		}
	}
	text = strings.TrimSpace(text)

	start := len(text)
	if i := strings.IndexAny(text, "{["); i != -1 {
		start = i
	}
	if start >= len(text) {
		return ""
	}
	text = text[start:]

	if end := strings.LastIndexAny(text, "}]"); end != -1 {
		text = text[:end+1]
	}
	return strings.TrimSpace(text)
}

// balanceBrackets appends closers for any braces/brackets left open,
// ignoring bracket characters inside string literals.
func balanceBrackets(text string) string {
	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				stack = append(stack, c)
			}
		case '}', ']':
			if !inString && len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if len(stack) == 0 && !inString {
		return text
	}

	var sb strings.Builder
	sb.WriteString(text)
	if inString {
		sb.WriteByte('"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			sb.WriteByte('}')
		} else {
			sb.WriteByte(']')
		}
	}
	return sb.String()
}
