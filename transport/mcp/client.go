package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/mazesolver/maze/engine"
	"github.com/wricardo/mcp-training/mazesolver/maze/render"
	"github.com/wricardo/mcp-training/mazesolver/maze/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Maze Solver",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Maze Solver - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Mazes are grids of open cells (.) and walls (#). A walker stands on a cell
facing north, east, south or west. Each move steps one cell: straight ahead,
or after turning right or left. Every move costs 1 and the walker can never
reverse. The solver finds the cheapest move sequence from a start cell and
heading to a goal cell.

AVAILABLE TOOLS:
- create_session: Load a maze into a new session
- list_sessions / get_session: Inspect sessions
- solve: Find the cheapest path on a session's maze
- solve_history: Past solves of a session
- render_maze: Draw the maze with the last path
- describe_cell: Inspect one cell
- list_mazes: Stored mazes
- generate_maze: Carve a random maze
- solver_instructions: Full rules and output legend`),
	)

	c.registerTools()
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

func intProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": description}
}

func boolProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "boolean", "description": description}
}

var headingProp = map[string]interface{}{
	"type":        "string",
	"enum":        []string{"north", "east", "south", "west"},
	"description": "Initial heading (defaults to the maze heading)",
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new solver session on a stored maze, or on an inline layout",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"maze_id": stringProp("Id of the stored maze to load (optional, see list_mazes)"),
				"layout": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Inline maze rows using '0'/'.' for open and '1'/'#' for wall (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active solver sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": stringProp("Session ID to retrieve"),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Solving
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "solve",
		Description: "Find the cheapest path between two cells using forward, right and left moves. Omitted fields use the maze defaults.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": stringProp("Session ID"),
				"start_row":  intProp("Start row"),
				"start_col":  intProp("Start column"),
				"heading":    headingProp,
				"goal_row":   intProp("Goal row"),
				"goal_col":   intProp("Goal column"),
				"heuristic": map[string]interface{}{
					"type":        "string",
					"enum":        engine.HeuristicNames(),
					"description": "Heuristic to guide the search",
				},
				"trace":      boolProp("Include the expansion trace"),
				"timeout_ms": intProp("Abort the search after this many milliseconds"),
			},
			Required: []string{"session_id"},
		},
	}, c.handleSolve)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "solve_history",
		Description: "Get the solve history of a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": stringProp("Session ID"),
				"page":       intProp("Page number (default 1)"),
				"limit":      intProp("Entries per page (default 20, max 100)"),
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Sort order (default desc)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleSolveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "render_maze",
		Description: "Draw the session maze with its most recent path",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": stringProp("Session ID"),
			},
			Required: []string{"session_id"},
		},
	}, c.handleRenderMaze)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe one cell: walkable, open neighbours and the size of its open region",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": stringProp("Session ID"),
				"row":        intProp("Row (0-based, from the top)"),
				"col":        intProp("Column (0-based, from the left)"),
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleDescribeCell)

	// Mazes
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_mazes",
		Description: "List stored mazes",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListMazes)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "generate_maze",
		Description: "Carve a random maze, optionally storing it and opening a session on it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name":           stringProp("Maze name (optional)"),
				"rows":           intProp("Rows (default 11)"),
				"cols":           intProp("Columns (default 11)"),
				"seed":           intProp("Random seed for reproducible mazes"),
				"loops":          intProp("Extra walls to knock out, adding alternative routes"),
				"save":           boolProp("Store the maze"),
				"create_session": boolProp("Open a session on the new maze"),
			},
		},
	}, c.handleGenerateMaze)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "solver_instructions",
		Description: "Get the movement rules and output legend",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleSolverInstructions)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// optionalCell reads a row/col argument pair; both must be present.
func optionalCell(args map[string]interface{}, rowKey, colKey string) (*engine.Cell, error) {
	row, hasRow := args[rowKey].(float64)
	col, hasCol := args[colKey].(float64)
	switch {
	case !hasRow && !hasCol:
		return nil, nil
	case hasRow != hasCol:
		return nil, fmt.Errorf("%s and %s must be given together", rowKey, colKey)
	}
	return &engine.Cell{Row: int(row), Col: int(col)}, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	body := map[string]interface{}{}
	if mazeID := request.GetString("maze_id", ""); mazeID != "" {
		body["maze_id"] = mazeID
	}
	if rows, ok := args["layout"].([]interface{}); ok && len(rows) > 0 {
		layout := make([]string, 0, len(rows))
		for _, r := range rows {
			s, _ := r.(string)
			layout = append(layout, s)
		}
		body["maze"] = engine.MazeConfig{Name: "inline", Layout: layout}
	}

	var info service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Created " + formatSessionInfo(&info)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var resp struct {
		Sessions []*service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(resp.Sessions) == 0 {
		return mcp.NewToolResultText("No active sessions"), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active sessions (%d):\n", len(resp.Sessions))
	for _, s := range resp.Sessions {
		fmt.Fprintf(&b, "- %s: %s (%dx%d), %d solves\n", s.ID, s.MazeName, s.Rows, s.Cols, s.Solves)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var info service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSessionInfo(&info)), nil
}

func (c *Client) handleSolve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	req := service.SolveRequest{
		Heuristic: request.GetString("heuristic", ""),
		Trace:     request.GetBool("trace", false),
		TimeoutMS: request.GetInt("timeout_ms", 0),
		Render:    true,
	}
	if req.Start, err = optionalCell(args, "start_row", "start_col"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if req.Goal, err = optionalCell(args, "goal_row", "goal_col"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if name := request.GetString("heading", ""); name != "" {
		h, err := engine.ParseHeading(name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		req.Heading = &h
	}

	var result service.SolveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/solve"), req, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSolveResult(&result)), nil
}

func (c *Client) handleSolveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query := url.Values{}
	if page := request.GetInt("page", 0); page > 0 {
		query.Set("page", fmt.Sprint(page))
	}
	if limit := request.GetInt("limit", 0); limit > 0 {
		query.Set("limit", fmt.Sprint(limit))
	}
	if order := request.GetString("order", ""); order != "" {
		query.Set("order", order)
	}
	path := sessionPath(sessionID, "/history")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleRenderMaze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var resp struct {
		Render string `json:"render"`
	}
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/render"), nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(resp.Render + "\n\n" + render.Legend()), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	row, err := request.RequireInt("row")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	col, err := request.RequireInt("col")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var info service.CellInfo
	path := sessionPath(sessionID, fmt.Sprintf("/cells/%d/%d", row, col))
	if err := c.apiCall(ctx, "GET", path, nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatCellInfo(&info)), nil
}

func (c *Client) handleListMazes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var mazes []*service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/mazes", nil, &mazes); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(mazes) == 0 {
		return mcp.NewToolResultText("No stored mazes; the built-in classic maze is used by default"), nil
	}

	var b strings.Builder
	b.WriteString("Available mazes:\n")
	for _, m := range mazes {
		fmt.Fprintf(&b, "- %s: %s (%dx%d, %d open cells)", m.ConfigID, m.Name, m.Rows, m.Cols, m.OpenCells)
		if m.Description != "" {
			fmt.Fprintf(&b, " - %s", m.Description)
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGenerateMaze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := service.GenerateRequest{
		Name:          request.GetString("name", ""),
		Rows:          request.GetInt("rows", 0),
		Cols:          request.GetInt("cols", 0),
		Seed:          int64(request.GetInt("seed", 0)),
		Loops:         request.GetInt("loops", 0),
		Save:          request.GetBool("save", false),
		CreateSession: request.GetBool("create_session", false),
	}

	var result service.GenerateResult
	if err := c.apiCall(ctx, "POST", "/api/mazes/generate", req, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	name := "maze"
	if result.Config != nil {
		name = result.Config.Name
	}
	fmt.Fprintf(&b, "Generated %s (seed %d)\n", name, result.Seed)
	if result.ConfigID != "" {
		fmt.Fprintf(&b, "Stored as: %s\n", result.ConfigID)
	}
	if result.Session != nil {
		fmt.Fprintf(&b, "Session: %s\n", result.Session.ID)
	}
	b.WriteString("\n" + result.Render + "\n")
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleSolverInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Maze Solver - Instructions

GRID:
- Rows count down from 0 at the top, columns right from 0 at the left.
- North is row-1, east col+1, south row+1, west col-1.

MOVES (each costs 1 and enters one open cell):
- forward: step ahead, keeping the heading
- right: turn 90 degrees clockwise, then step
- left: turn 90 degrees counter-clockwise, then step
- There is no reverse. A dead end cannot be backed out of.

SOLVING:
- A solve returns the cheapest sequence of moves from (start, heading) to the goal cell.
  Any final heading is accepted.
- found=false comes with a reason:
  - disconnected: start and goal lie in different open regions
  - no_path: the regions connect but no sequence of moves reaches the goal
  - timeout: the search ran past timeout_ms

WORKFLOW:
1. list_mazes, then create_session with a maze_id (or generate_maze with create_session=true)
2. solve with the session_id; omit fields to use the maze defaults
3. render_maze to see the path, describe_cell to inspect a cell

` + render.Legend()

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(info *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nMaze: %s (%s), %dx%d\nStart: %s facing %s\nGoal: %s\nHeuristic: %s\nSolves: %d\n",
		info.ID, info.MazeName, info.ConfigID, info.Rows, info.Cols,
		info.Start, info.Heading, info.Goal, info.Heuristic, info.Solves)
}

func formatSolveResult(result *service.SolveResult) string {
	var b strings.Builder
	if result.Found {
		fmt.Fprintf(&b, "✓ Path found: cost %d over %d cells\n", result.Cost, len(result.Path))
	} else {
		fmt.Fprintf(&b, "✗ No path (%s)\n", result.Reason)
	}
	if result.Message != "" {
		fmt.Fprintf(&b, "%s\n", result.Message)
	}
	fmt.Fprintf(&b, "From %s facing %s to %s using %s\n", result.Start, result.Heading, result.Goal, result.Heuristic)
	fmt.Fprintf(&b, "Expanded: %d, stale: %d, %.2fms\n", result.Stats.Expanded, result.Stats.Stale, result.ElapsedMS)

	if len(result.Moves) > 0 {
		moves := make([]string, len(result.Moves))
		for i, m := range result.Moves {
			moves[i] = m.String()
		}
		fmt.Fprintf(&b, "Moves: %s\n", strings.Join(moves, ", "))
	}
	if len(result.Path) > 0 {
		cells := make([]string, len(result.Path))
		for i, p := range result.Path {
			cells[i] = p.String()
		}
		fmt.Fprintf(&b, "Path: %s\n", strings.Join(cells, " -> "))
	}
	if len(result.Trace) > 0 {
		fmt.Fprintf(&b, "Trace: %d events\n", len(result.Trace))
	}
	if result.Render != "" {
		b.WriteString("\n" + result.Render + "\n")
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Solve history (page %d/%d, %d total):\n", history.Page, history.TotalPages, history.TotalSolves)
	for _, rec := range history.Solves {
		status := "found"
		if !rec.Found {
			status = rec.Reason
		}
		fmt.Fprintf(&b, "#%d %s facing %s -> %s: %s, cost %d, expanded %d\n",
			rec.Seq, rec.Start, rec.Heading, rec.Goal, status, rec.Cost, rec.Expanded)
	}
	return b.String()
}

func formatCellInfo(info *service.CellInfo) string {
	if !info.InBounds {
		return fmt.Sprintf("Cell %s is outside the maze", info.Cell)
	}

	var b strings.Builder
	kind := "wall"
	if info.Walkable {
		kind = "open"
	}
	fmt.Fprintf(&b, "Cell %s: %s\n", info.Cell, kind)
	if info.IsStart {
		b.WriteString("This is the start cell\n")
	}
	if info.IsGoal {
		b.WriteString("This is the goal cell\n")
	}
	if info.OnLastPath {
		b.WriteString("On the most recent path\n")
	}
	if info.Walkable {
		open := make([]string, 0, engine.NumHeadings)
		for _, h := range engine.Headings {
			if info.Open[h.String()] {
				open = append(open, h.String())
			}
		}
		if len(open) == 0 {
			b.WriteString("Open neighbours: none\n")
		} else {
			fmt.Fprintf(&b, "Open neighbours: %s\n", strings.Join(open, ", "))
		}
		fmt.Fprintf(&b, "Region size: %d cells\n", info.Region)
	}
	return b.String()
}
