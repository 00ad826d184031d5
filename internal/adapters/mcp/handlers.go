package mcpadapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bubble-support/faq-bot/internal/core/domain"
)

func (s *Server) handleAskFAQ(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	answer, err := s.chat.Answer(ctx, domain.ChatRequest{
		Message: question,
		K:       request.GetInt("k", 0),
		Product: request.GetString("product", ""),
		Caller:  "mcp",
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("answer failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatAnswer(answer)), nil
}

func (s *Server) handleSearchFAQ(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	candidates, err := s.chat.Search(ctx, query, request.GetInt("limit", 0))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(candidates) == 0 {
		return mcp.NewToolResultText("No matching FAQ entries found."), nil
	}

	return mcp.NewToolResultText(formatCandidates(candidates)), nil
}

func (s *Server) handleListTopics(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.admin.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("The knowledge base is empty."), nil
	}

	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "- %s\n", e.Title)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func formatAnswer(answer domain.Answer) string {
	var sb strings.Builder
	sb.WriteString(answer.Text)
	if len(answer.Sources) > 0 {
		sb.WriteString("\n\nSources:\n")
		for _, src := range answer.Sources {
			fmt.Fprintf(&sb, "- %s (score %.3f)\n", src.Title, src.Score)
		}
	}
	if len(answer.Suggestions) > 0 {
		sb.WriteString("\nRelated topics:\n")
		for _, s := range answer.Suggestions {
			fmt.Fprintf(&sb, "- %s\n", s)
		}
	}
	return sb.String()
}

func formatCandidates(candidates []domain.Candidate) string {
	var sb strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&sb, "%d. %s (score %.3f, %s)\nQ: %s\nA: %s\n\n",
			i+1, c.Entry.Title, c.Score, c.Mode, c.Entry.Question, c.Entry.Answer)
	}
	return strings.TrimSpace(sb.String())
}
