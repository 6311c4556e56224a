package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/acolita/term-relay-mcp/internal/knowledge"
)

// Sentinels keep empty results distinguishable from transport failures for
// the model driving the tools.
const (
	noOutputSentinel = "(no output yet)"
	emptySentinel    = "(empty)"
)

// registerTools registers all MCP tools with the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTool(terminalConnectTool(), s.handleTerminalConnect)
	s.mcpServer.AddTool(terminalSendTool(), s.handleTerminalSend)
	s.mcpServer.AddTool(terminalOutputTool(), s.handleTerminalOutput)
	s.mcpServer.AddTool(terminalStatusTool(), s.handleTerminalStatus)
	s.mcpServer.AddTool(knowledgeSaveTool(), s.handleKnowledgeSave)
	s.mcpServer.AddTool(knowledgeSearchTool(), s.handleKnowledgeSearch)
	s.mcpServer.AddTool(todoAddTool(), s.handleTodoAdd)
	s.mcpServer.AddTool(todoListTool(), s.handleTodoList)
	s.mcpServer.AddTool(sessionLogTool(), s.handleSessionLog)
}

// Tool definitions

func terminalConnectTool() mcp.Tool {
	return mcp.NewTool("terminal_connect",
		mcp.WithDescription("Connect to the remote terminal session"),
		mcp.WithString("project",
			mcp.Description("Target project path on the terminal host (defaults to the configured project)"),
		),
	)
}

func terminalSendTool() mcp.Tool {
	return mcp.NewTool("terminal_send",
		mcp.WithDescription("Send a command to the remote terminal and return the output produced within the wait window"),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("The command to type into the terminal"),
		),
		mcp.WithNumber("wait_ms",
			mcp.Description(fmt.Sprintf("How long to collect output, in milliseconds (default: %d)", defaultWaitMS)),
		),
	)
}

func terminalOutputTool() mcp.Tool {
	return mcp.NewTool("terminal_output",
		mcp.WithDescription("Read the output accumulated since the last command without sending anything"),
		mcp.WithNumber("lines",
			mcp.Description("Return only the trailing N lines (default: everything)"),
		),
	)
}

func terminalStatusTool() mcp.Tool {
	return mcp.NewTool("terminal_status",
		mcp.WithDescription("Report terminal connection state and buffer size"),
	)
}

func knowledgeSaveTool() mcp.Tool {
	return mcp.NewTool("knowledge_save",
		mcp.WithDescription("Save a note to the knowledge store"),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short title for the note"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The note body"),
		),
		mcp.WithString("project",
			mcp.Description("Project to scope the note to"),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated tags"),
		),
	)
}

func knowledgeSearchTool() mcp.Tool {
	return mcp.NewTool("knowledge_search",
		mcp.WithDescription("Search saved knowledge"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search terms"),
		),
		mcp.WithString("project",
			mcp.Description("Restrict results to one project"),
		),
	)
}

func todoAddTool() mcp.Tool {
	return mcp.NewTool("todo_add",
		mcp.WithDescription("Add a todo item"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("What needs doing"),
		),
		mcp.WithString("project",
			mcp.Description("Project to file the todo under"),
		),
	)
}

func todoListTool() mcp.Tool {
	return mcp.NewTool("todo_list",
		mcp.WithDescription("List todo items"),
		mcp.WithString("project",
			mcp.Description("Restrict the list to one project"),
		),
	)
}

func sessionLogTool() mcp.Tool {
	return mcp.NewTool("session_log",
		mcp.WithDescription("Forward a log line to the session logging relay"),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The line to forward"),
		),
		mcp.WithString("level",
			mcp.Description("Log level (default: info)"),
			mcp.DefaultString("info"),
		),
	)
}

// Tool handlers

func (s *Server) handleTerminalConnect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := mcp.ParseString(req, "project", "")

	if err := s.bridge.EnsureConnected(ctx, project); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	slog.Info("terminal connected",
		slog.String("endpoint", s.bridge.Endpoint()),
		slog.String("target", s.bridge.Target()),
	)
	return mcp.NewToolResultText(fmt.Sprintf("connected to %s (target %q)",
		s.bridge.Endpoint(), s.bridge.Target())), nil
}

func (s *Server) handleTerminalSend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	command := mcp.ParseString(req, "command", "")
	if command == "" {
		return mcp.NewToolResultError("command is required"), nil
	}

	waitMS := mcp.ParseInt(req, "wait_ms", 0)
	var wait time.Duration
	if waitMS > 0 {
		wait = time.Duration(waitMS) * time.Millisecond
	}

	output, err := s.bridge.Send(ctx, command, wait)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if output == "" {
		return mcp.NewToolResultText(noOutputSentinel), nil
	}
	return mcp.NewToolResultText(output), nil
}

func (s *Server) handleTerminalOutput(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lines := mcp.ParseInt(req, "lines", 0)

	output := s.bridge.Output(lines)
	if output == "" {
		return mcp.NewToolResultText(emptySentinel), nil
	}
	return mcp.NewToolResultText(output), nil
}

func (s *Server) handleTerminalStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.bridge.Status())
}

func (s *Server) handleKnowledgeSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := mcp.ParseString(req, "title", "")
	if title == "" {
		return mcp.NewToolResultError("title is required"), nil
	}
	content := mcp.ParseString(req, "content", "")
	if content == "" {
		return mcp.NewToolResultError("content is required"), nil
	}

	note := knowledge.Knowledge{
		Title:   title,
		Content: content,
		Project: mcp.ParseString(req, "project", s.config.Terminal.DefaultProject),
		Tags:    splitTags(mcp.ParseString(req, "tags", "")),
	}

	saved, err := s.store.SaveKnowledge(ctx, note)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved as %s", saved.ID)), nil
}

func (s *Server) handleKnowledgeSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := mcp.ParseString(req, "query", "")
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	project := mcp.ParseString(req, "project", "")

	results, err := s.store.SearchKnowledge(ctx, query, project)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText(emptySentinel), nil
	}
	return jsonResult(results)
}

func (s *Server) handleTodoAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := mcp.ParseString(req, "text", "")
	if text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}

	todo := knowledge.Todo{
		Text:    text,
		Project: mcp.ParseString(req, "project", s.config.Terminal.DefaultProject),
	}

	created, err := s.store.AddTodo(ctx, todo)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("added as %s", created.ID)), nil
}

func (s *Server) handleTodoList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := mcp.ParseString(req, "project", "")

	todos, err := s.store.ListTodos(ctx, project)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(todos) == 0 {
		return mcp.NewToolResultText(emptySentinel), nil
	}
	return jsonResult(todos)
}

func (s *Server) handleSessionLog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message := mcp.ParseString(req, "message", "")
	if message == "" {
		return mcp.NewToolResultError("message is required"), nil
	}
	level := mcp.ParseString(req, "level", "info")

	if !s.relay.Enabled() {
		return mcp.NewToolResultError("no logging relay configured"), nil
	}
	if err := s.relay.Log(level, message); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("relay: %v", err)), nil
	}
	return mcp.NewToolResultText("forwarded"), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
