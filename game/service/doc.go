// Package service provides the business logic layer for the merge puzzle server.
//
// The service package implements:
//   - Multi-session game management
//   - Rule preset lookup and saving
//   - Move processing and validation
//   - Move history paging
//   - Score cards for finished games
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages rule preset loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Each session owns its own engine instance; the service
// serializes moves so a board never sees two moves at once.
//
// Usage:
//
//	sessionMgr := session.NewManager(session.WithLogger(logger))
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr,
//		service.WithLogger(logger),
//		service.WithPublicURL("https://example.ngrok.app"))
//
//	sessionInfo, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Move(ctx, sessionInfo.ID, "left", false)
//
// Events:
//
// Move results carry events describing what happened: reset, move, merge,
// spawn, no_change, won and lost. A move on a finished game reports a single
// no_change event and leaves the board alone.
//
// Sharing:
//
// Share only works once a game is won or lost and returns ErrGameNotFinished
// before that. The text reads "I scored <score> in <game name>! <url>".
package service
