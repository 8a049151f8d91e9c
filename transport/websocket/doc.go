// Package websocket provides WebSocket transport for the merge puzzle server.
//
// The websocket package implements:
//   - Session-aware WebSocket connections
//   - State broadcasting after every change
//   - Inbound move and reset commands
//   - Connection lifecycle management
//
// Architecture:
//
// A central Hub owns every connection. All bookkeeping (registration,
// broadcasts, per-client replies) happens inside Hub.Run, so the client map
// is only ever touched by one goroutine. Each client has a read pump and a
// write pump.
//
// Message Protocol:
//
// Messages are JSON-encoded:
//   - Incoming: {"action": "move", "direction": "left"} or {"action": "reset"}
//   - Outgoing: {"session_id": "...", "event": "state_update", "game_state": {...}}
//   - The move that ends a game is followed by
//     {"event": "game_over", "data": {"status": "won", "score": ..., "max_tile": ...}}
//   - Errors go only to the sender: {"event": "error", "data": {"error": "..."}}
//
// Commands are applied by the CommandHandler installed with SetCommandHandler;
// on success the returned state is broadcast to every client of the session.
//
// Usage:
//
//	hub := websocket.NewHub(websocket.WithLogger(logger))
//	go hub.Run(ctx)
//
//	hub.SetCommandHandler(applyCommand)
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
// Slow clients whose send buffer fills up are disconnected rather than
// allowed to stall the hub.
package websocket
