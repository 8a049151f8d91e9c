package mcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/merge2048/game/engine"
	"github.com/wricardo/mcp-training/merge2048/game/service"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ServerName and ServerVersion identify the MCP server to clients
const (
	ServerName    = "Merge 2048"
	ServerVersion = "1.0.0"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
	logger     *zap.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets the client logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Merge 2048 - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Slide the numbered tiles on a square board. Two equal tiles that collide merge
into their sum. Build the winning tile (2048 on the classic board) to win.

AVAILABLE TOOLS:
- create_session: Create new game session
- list_sessions: List all active sessions
- get_session: Get session details
- game_state: Get current game state
- move: Single move (up/down/left/right) - requires intent explanation
- bulk_move: Up to 50 moves at once - requires intent explanation
- reset_game: Start a new game in the session
- move_history: View past moves
- list_configs: List available rule presets
- share_score: Score card for a finished game
- game_instructions: Rules and strategy hints

NOTE: The 'intent' parameter on move/bulk_move tools serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional rule preset selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Preset to use, see list_configs (optional, defaults to classic)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
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
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, score and status",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Slide every tile in a direction",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"up", "down", "left", "right"},
					"description": "Direction to slide",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this move (serves as a rubber duck to help explain your reasoning)",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Start a new game before moving",
				},
			},
			Required: []string{"session_id", "direction"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_move",
		Description: fmt.Sprintf("Execute up to %d moves in sequence; stops early when the game ends", engine.MaxBulkMoves),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"moves": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
						"enum": []string{"up", "down", "left", "right"},
					},
					"description": "Array of moves",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this sequence of moves (serves as a rubber duck to help explain your reasoning)",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Start a new game before moving",
				},
			},
			Required: []string{"session_id", "moves"},
		},
	}, c.handleBulkMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Start a new game in the session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get move history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest first (asc) or newest first (desc, default)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available rule presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "share_score",
		Description: "Get a shareable score card once the game is won or lost",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleShare)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the game rules and strategy hints",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// HTTPHandler serves single JSON-RPC messages posted to it
func (c *Client) HTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := c.mcpServer.HandleMessage(r.Context(), body)
		if response == nil {
			// Notifications have no reply
			w.WriteHeader(http.StatusAccepted)
			return
		}

		responseData, err := json.Marshal(response)
		if err != nil {
			c.logger.Error("failed to marshal mcp response", zap.Error(err))
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	}
}

// apiCall performs one REST request and decodes the JSON reply into result
func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to encode request")
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return errors.New(msg)
		}
		return errors.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return errors.Wrap(json.NewDecoder(resp.Body).Decode(result), "failed to decode response")
	}
	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

func (c *Client) toolError(tool string, err error) *mcp.CallToolResult {
	c.logger.Debug("tool failed", zap.String("tool", tool), zap.Error(err))
	return mcp.NewToolResultError(err.Error())
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return c.toolError("create_session", err), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return c.toolError("list_sessions", err), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		score, status := 0, engine.InProgress
		if s.GameState != nil {
			score, status = s.GameState.Score, s.GameState.Status
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Score: %d, Status: %s, Created: %s)\n",
			s.ID, s.ConfigName, score, status, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return c.toolError("get_session", err), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return c.toolError("game_state", err), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	direction, _ := args["direction"].(string)
	intent, _ := args["intent"].(string)
	reset, _ := args["reset"].(bool)

	c.logger.Debug("move", zap.String("session_id", sessionID), zap.String("direction", direction), zap.String("intent", intent))

	body := map[string]interface{}{
		"direction": direction,
		"reset":     reset,
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/move"), body, &result); err != nil {
		return c.toolError("move", err), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	movesRaw, _ := args["moves"].([]interface{})
	intent, _ := args["intent"].(string)
	reset, _ := args["reset"].(bool)

	moves := make([]string, 0, len(movesRaw))
	for _, m := range movesRaw {
		move, ok := m.(string)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("moves must be strings, got %v", m)), nil
		}
		moves = append(moves, move)
	}

	c.logger.Debug("bulk move", zap.String("session_id", sessionID), zap.Strings("moves", moves), zap.String("intent", intent))

	body := map[string]interface{}{
		"moves": moves,
		"reset": reset,
	}

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/bulk-move"), body, &result); err != nil {
		return c.toolError("bulk_move", err), nil
	}

	return mcp.NewToolResultText(formatBulkMoveResult(sessionID, &result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return c.toolError("reset_game", err), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := args["page"].(float64); ok {
		params.Set("page", strconv.Itoa(int(page)))
	}
	if limit, ok := args["limit"].(float64); ok {
		params.Set("limit", strconv.Itoa(int(limit)))
	}
	if order, ok := args["order"].(string); ok && order != "" {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return c.toolError("move_history", err), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return c.toolError("list_configs", err), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Board: %dx%d, Winning tile: %d\n\n",
			cfg.Name, cfg.ConfigID, cfg.Description, cfg.Dimension, cfg.Dimension, cfg.WinningValue)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleShare(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var share service.ShareInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/share"), nil, &share); err != nil {
		return c.toolError("share_score", err), nil
	}

	result := fmt.Sprintf("%s\n\nScore: %d\nBest tile: %d\nResult: %s\nLink: %s\n",
		share.Text, share.Score, share.MaxTile, share.Status, share.URL)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameInstructions), nil
}

const gameInstructions = `Merge 2048 - Instructions

GAME OBJECTIVE:
Combine equal tiles until the winning tile appears on the board. The classic
preset uses a 4x4 board and the 2048 tile; other presets change both.

GAME MECHANICS:
• Every move slides all tiles as far as possible toward one wall
• Two equal tiles that meet merge into one tile holding their sum
• A tile produced by a merge cannot merge again in the same move
• When three equal tiles line up, the pair nearest the wall merges first
• Each merge adds the new tile's value to your score
• After every move that changed the board, a new tile appears on a random
  empty cell: a 2 nine times out of ten, otherwise a 4
• A move that changes nothing does not spawn a tile and does not count

WINNING AND LOSING:
• Won: a tile equal to the winning value is on the board
• Lost: the board is full and no two neighbouring tiles are equal
• A finished game ignores further moves; use reset_game or reset=true

BOARD LEGEND:
• Numbers are tiles, "." is an empty cell
• Row 0 is the top row, column 0 is the left column

STRATEGY HINTS:
• Keep your largest tile in a corner and build toward it
• Prefer two directions (for example down and left) and avoid the opposite
  of your corner unless nothing else moves
• Keep the row along your corner full so it cannot shift unexpectedly
• Watch the possible moves list; when it shrinks to one, plan ahead

API USAGE:
• bulk_move runs up to 50 moves and stops as soon as the game ends
• An invalid direction anywhere in bulk_move rejects the whole batch
• move_history pages through every move of the current game
• share_score works once the game is won or lost`

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\n", session.ID)
	fmt.Fprintf(&b, "Config: %s\n", session.ConfigName)
	fmt.Fprintf(&b, "Created: %s\n", session.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Last accessed: %s\n", session.LastAccessedAt.Format(time.RFC3339))
	if session.GameState != nil {
		b.WriteString("\n")
		b.WriteString(formatGameState(session.GameState))
	}
	return b.String()
}

// formatBoard renders the grid with right-aligned columns
func formatBoard(grid engine.Grid) string {
	width := 1
	for _, row := range grid {
		for _, v := range row {
			if w := len(strconv.Itoa(v)); w > width {
				width = w
			}
		}
	}

	var b strings.Builder
	for _, row := range grid {
		cells := make([]string, len(row))
		for i, v := range row {
			cell := "."
			if v != engine.Empty {
				cell = strconv.Itoa(v)
			}
			cells[i] = fmt.Sprintf("%*s", width, cell)
		}
		b.WriteString(strings.Join(cells, " "))
		b.WriteString("\n")
	}
	return b.String()
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Score: %d | Best tile: %d | Goal: %d | Moves: %d\n",
		state.Score, state.MaxTile, state.WinningValue, state.TotalMoves)
	fmt.Fprintf(&b, "Status: %s\n", state.Status)
	if state.Message != "" {
		fmt.Fprintf(&b, "Message: %s\n", state.Message)
	}
	b.WriteString("\n")
	b.WriteString(formatBoard(state.Grid))

	switch state.Status {
	case engine.Won:
		b.WriteString("\n🎉 VICTORY!\n")
	case engine.Lost:
		b.WriteString("\n💀 GAME OVER\n")
	}
	return b.String()
}

func formatEvents(b *strings.Builder, events []service.GameEvent) {
	if len(events) == 0 {
		return
	}
	b.WriteString("Events:\n")
	for _, event := range events {
		fmt.Fprintf(b, "- %s: %s\n", event.Type, event.Message)
	}
}

func formatPossibleMoves(b *strings.Builder, moves []string) {
	if len(moves) == 0 {
		b.WriteString("Possible moves: none\n")
		return
	}
	fmt.Fprintf(b, "Possible moves: %s\n", strings.Join(moves, ","))
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder

	if result.Changed {
		b.WriteString("Board changed")
		if result.Move != nil {
			fmt.Fprintf(&b, ": +%d points from %d merge(s)", result.Move.ScoreGained, result.Move.Merges)
			if s := result.Move.Spawned; s != nil {
				fmt.Fprintf(&b, ", new %d at (%d,%d)", s.Value, s.Row, s.Col)
			}
		}
		b.WriteString("\n")
	} else {
		b.WriteString("Board unchanged\n")
	}
	if result.Message != "" {
		fmt.Fprintf(&b, "%s\n", result.Message)
	}

	formatEvents(&b, result.Events)
	formatPossibleMoves(&b, result.PossibleMoves)

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder

	size, configName := 0, ""
	if result.GameState != nil {
		size = len(result.GameState.Grid)
		configName = result.GameState.ConfigName
	}
	fmt.Fprintf(&b, "Session: %s • Config: %s • Board: %dx%d\n", sessionID, configName, size, size)

	fmt.Fprintf(&b, "Executed %d/%d moves (%d changed the board)\n",
		result.MovesExecuted, result.RequestedMoves, result.ChangedMoves)
	if result.Truncated {
		fmt.Fprintf(&b, "Truncated to the first %d moves\n", result.Limit)
	}
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped on move %d: %s\n", result.StoppedOnMove, result.StoppedReason)
	}
	fmt.Fprintf(&b, "Score: %d → %d (%+d)\n", result.StartScore, result.EndScore, result.ScoreDelta)

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps (this call):\n")
		for _, s := range result.Steps {
			b.WriteString(formatStepLine(s))
		}
	}

	b.WriteString("\n")
	formatPossibleMoves(&b, result.PossibleMoves)

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

// formatStepLine renders a single compact step line
func formatStepLine(step service.StepInfo) string {
	mark := "·"
	if step.Changed {
		mark = "✓"
	}
	line := fmt.Sprintf("%d. %s %s score=%d", step.Idx, step.Dir, mark, step.ScoreAfter)
	if step.ScoreGained > 0 {
		line += fmt.Sprintf(" (+%d, %d merge(s))", step.ScoreGained, step.Merges)
	}
	if s := step.Spawned; s != nil {
		line += fmt.Sprintf(" new %d at (%d,%d)", s.Value, s.Row, s.Col)
	}
	if step.Status != string(engine.InProgress) {
		line += " " + step.Status
	}
	return line + "\n"
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d, Total: %d moves)\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for _, move := range history.Moves {
		mark := "·"
		if move.Changed {
			mark = "✓"
		}
		fmt.Fprintf(&b, "#%d %s %s score=%d", move.MoveNumber, move.Action, mark, move.Score)
		if move.ScoreGained > 0 {
			fmt.Fprintf(&b, " (+%d)", move.ScoreGained)
		}
		if s := move.Spawned; s != nil {
			fmt.Fprintf(&b, " new %d at (%d,%d)", s.Value, s.Row, s.Col)
		}
		if move.Status != engine.InProgress && move.Status != "" {
			fmt.Fprintf(&b, " %s", move.Status)
		}
		b.WriteString("\n")
	}

	if history.HasPrevious {
		b.WriteString("\n← Previous page available")
	}
	if history.HasNext {
		b.WriteString("\nNext page available →")
	}
	return b.String()
}
