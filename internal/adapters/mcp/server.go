// Package mcpadapter exposes the FAQ service over the Model Context
// Protocol so agent runtimes can query the knowledge base as tools.
package mcpadapter

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/bubble-support/faq-bot/internal/core/ports"
)

// Version is set via ldflags at build time.
var Version = "dev"

type Server struct {
	chat  ports.ChatService
	admin ports.KnowledgeAdmin
	mcp   *server.MCPServer
}

func NewServer(chat ports.ChatService, admin ports.KnowledgeAdmin) *Server {
	s := &Server{
		chat:  chat,
		admin: admin,
	}

	s.mcp = server.NewMCPServer(
		"faq-bot",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	s.mcp.AddTool(askFAQTool, s.handleAskFAQ)
	s.mcp.AddTool(searchFAQTool, s.handleSearchFAQ)
	s.mcp.AddTool(listTopicsTool, s.handleListTopics)
}

// Serve starts the MCP server on stdio. Stdout carries protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
