package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/personaforge/internal/persona"
	"github.com/kalambet/personaforge/internal/questionnaire"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Generator PersonaGenerator
}

// NewMCPServer creates an MCP server exposing the three core operations:
// parse a questionnaire, generate personas, and serialize personas to CSV.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"personaforge",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("personaforge generates synthetic user personas from questionnaire CSV data."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("parse_questionnaire",
			mcp.WithDescription("Parse questionnaire CSV text into metadata and question/answer records."),
			mcp.WithString("content", mcp.Description("Raw questionnaire CSV text"), mcp.Required()),
			mcp.WithString("section_col", mcp.Description("Section column label (default: Section)")),
			mcp.WithString("question_col", mcp.Description("Question column label (default: Question)")),
			mcp.WithString("answer_col", mcp.Description("Answer column label (default: Answer)")),
		),
		mcpParseQuestionnaire(),
	)

	s.AddTool(
		mcp.NewTool("generate_personas",
			mcp.WithDescription("Parse questionnaire CSV text and generate user personas from it."),
			mcp.WithString("content", mcp.Description("Raw questionnaire CSV text"), mcp.Required()),
			mcp.WithString("section_col", mcp.Description("Section column label (default: Section)")),
			mcp.WithString("question_col", mcp.Description("Question column label (default: Question)")),
			mcp.WithString("answer_col", mcp.Description("Answer column label (default: Answer)")),
		),
		mcpGeneratePersonas(deps),
	)

	s.AddTool(
		mcp.NewTool("export_personas_csv",
			mcp.WithDescription("Serialize a JSON array of personas into the fixed-column CSV export."),
			mcp.WithString("personas", mcp.Description("JSON array of persona objects"), mcp.Required()),
			mcp.WithString("client_name", mcp.Description("Client name repeated on every row")),
			mcp.WithString("product_name", mcp.Description("Product name repeated on every row")),
		),
		mcpExportPersonasCSV(),
	)

	return s
}

func toolColumns(req mcp.CallToolRequest) questionnaire.Columns {
	return questionnaire.Columns{
		Section:  req.GetString("section_col", ""),
		Question: req.GetString("question_col", ""),
		Answer:   req.GetString("answer_col", ""),
	}
}

func mcpParseQuestionnaire() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content, err := req.RequireString("content")
		if err != nil {
			return mcpError("content is required"), nil
		}

		doc, err := questionnaire.Parse(content, toolColumns(req))
		if err != nil {
			return mcpError(fmt.Sprintf("parse failed: %v", err)), nil
		}

		b, err := json.Marshal(doc)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal document: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpGeneratePersonas(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content, err := req.RequireString("content")
		if err != nil {
			return mcpError("content is required"), nil
		}

		doc, err := questionnaire.Parse(content, toolColumns(req))
		if err != nil {
			return mcpError(fmt.Sprintf("parse failed: %v", err)), nil
		}

		personas, err := deps.Generator.Generate(ctx, doc)
		if err != nil {
			return mcpError(fmt.Sprintf("generation failed: %v", err)), nil
		}

		b, err := json.Marshal(personas)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal personas: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpExportPersonasCSV() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("personas")
		if err != nil {
			return mcpError("personas is required"), nil
		}

		var personas []persona.Persona
		if err := json.Unmarshal([]byte(raw), &personas); err != nil {
			return mcpError(fmt.Sprintf("invalid personas JSON: %v", err)), nil
		}

		meta := persona.ExportMeta{
			ClientName:  req.GetString("client_name", ""),
			ProductName: req.GetString("product_name", ""),
		}

		var sb strings.Builder
		if err := persona.WriteCSV(&sb, personas, meta); err != nil {
			return mcpError(fmt.Sprintf("failed to write CSV: %v", err)), nil
		}
		return mcpText(sb.String()), nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
