package mcpadapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/entity-tree-rag/internal/core/domain"
	"github.com/kirillkom/entity-tree-rag/internal/core/ports"
)

const AskToolName = "ask_entity_tree"

type Tools struct {
	answerer ports.QuestionAnswerer
	timeout  time.Duration
}

func NewTools(answerer ports.QuestionAnswerer, timeout time.Duration) *Tools {
	return &Tools{answerer: answerer, timeout: timeout}
}

func NewServer(tools *Tools, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"entity-tree-rag",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.AddTool(askTool(), tools.Ask)
	return s
}

func askTool() mcp.Tool {
	return mcp.NewTool(AskToolName,
		mcp.WithDescription("Answer a question about an entity and its ownership tree, or a general question, from the indexed records."),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Free-text question, e.g. \"Who are the shareholders of Acme Holdings?\""),
		),
	)
}

func (t *Tools) Ask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil || strings.TrimSpace(question) == "" {
		return mcp.NewToolResultError("question is required"), nil
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	state, err := t.answerer.Invoke(ctx, question)
	if err != nil {
		slog.Warn("mcp_ask_failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", domain.KindOf(err), err)), nil
	}
	return mcp.NewToolResultText(renderAnswer(domain.NewAnswer(state))), nil
}

func renderAnswer(answer domain.Answer) string {
	if answer.PDFPages == nil || len(*answer.PDFPages) == 0 {
		return answer.Output
	}
	var b strings.Builder
	b.WriteString(answer.Output)
	b.WriteString("\n\nSources:\n")
	for _, page := range *answer.PDFPages {
		fmt.Fprintf(&b, "- %s, page %d", page.EntityName, page.PageNumber)
		if page.PDFURL != "" {
			fmt.Fprintf(&b, " (%s)", page.PDFURL)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
