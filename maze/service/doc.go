// Package service provides the business logic layer for the maze solver.
//
// The service package implements:
//   - Multi-session maze management
//   - Solving with maze defaults, heuristic selection and deadlines
//   - Solve history tracking with pagination
//   - Maze configuration loading, saving and generation
//
// Core Interfaces:
//
// SolverService is the main service interface used by every transport.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages maze configuration loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the search engine. Each session owns an immutable grid and an engine built
// for it; solves on the same session may run concurrently.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	solver := service.NewSolverService(sessionMgr, configMgr)
//
//	info, err := solver.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := solver.Solve(ctx, info.ID, service.SolveRequest{Render: true})
//
// Deadlines:
//
// The engine itself cannot be interrupted. When the request carries
// timeout_ms or the context has a deadline, the search runs in its own
// goroutine and Solve returns Reason "timeout" as soon as the context
// expires.
package service
