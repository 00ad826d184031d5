package mcpadapter

import "github.com/mark3labs/mcp-go/mcp"

// askFAQTool defines the ask_faq MCP tool.
var askFAQTool = mcp.NewTool("ask_faq",
	mcp.WithDescription("Ask the FAQ knowledge base a question and get a grounded answer with sources."),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("Natural language question"),
	),
	mcp.WithNumber("k",
		mcp.Description("Number of knowledge base entries to retrieve (default 8)"),
	),
	mcp.WithString("product",
		mcp.Description("Product namespace for intent rules"),
	),
)

// searchFAQTool defines the search_faq MCP tool.
var searchFAQTool = mcp.NewTool("search_faq",
	mcp.WithDescription("Search the FAQ knowledge base and return ranked entries without generating an answer."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 8)"),
	),
)

// listTopicsTool defines the list_faq_topics MCP tool.
var listTopicsTool = mcp.NewTool("list_faq_topics",
	mcp.WithDescription("List the titles of all FAQ entries currently in the knowledge base."),
)
