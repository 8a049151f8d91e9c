// Package api provides HTTP REST API handlers for the merge puzzle server.
//
// The api package implements:
//   - Session management endpoints
//   - Move, bulk move and reset endpoints
//   - Paginated move history
//   - Rule preset listing and saving
//   - Score cards for finished games
//   - WebSocket upgrade handling
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session ({"config_id": "classic"})
//   - GET /api/sessions - List sessions (?sort=created|accessed|score&order=asc|desc&limit=N)
//   - GET /api/sessions/unified - Several sessions side by side (?sessionIds=a,b or ?configName=classic)
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current game state
//   - POST /api/sessions/{id}/move - {"direction": "left", "reset": false}
//   - POST /api/sessions/{id}/bulk-move - {"moves": ["left", "up"], "reset": false}
//   - POST /api/sessions/{id}/reset - Start a new game in the session
//   - GET /api/sessions/{id}/history - Move history (?page=1&limit=20&order=desc)
//   - GET /api/sessions/{id}/share - Score card, only once the game is won or lost
//
// Configuration:
//   - GET /api/configs - List available presets
//   - GET /api/configs/{name} - Get one preset
//   - POST /api/configs - Save a preset; its id is the lower-cased name
//
// Operations:
//   - GET /api/health - Liveness
//   - GET /api/stats - Sessions, moves served, games won and lost
//   - GET /ws?session={id} - WebSocket state updates and commands
//
// Error Handling:
//
// Errors are returned as JSON: {"error": "message"}. Invalid arguments and
// invalid presets map to 400, unknown sessions and presets to 404, a share
// request for an unfinished game or a duplicate session to 409, and anything
// else to 500.
//
// Usage:
//
//	hub := websocket.NewHub(websocket.WithLogger(logger))
//	go hub.Run(ctx)
//
//	server := api.NewServer(gameService, hub, api.WithLogger(logger))
//	http.ListenAndServe(":8080", server)
package api
