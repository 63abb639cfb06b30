// Package websocket pushes solve events to browsers and other watchers.
//
// Clients connect with a session ID (/ws?session=ab12) and receive every
// solve result produced for that session, plus a session_deleted event when
// the session goes away. The connection is push-only; incoming frames are
// read and discarded so that ping/pong keepalive keeps working.
//
// Messages are JSON:
//
//	{"session_id": "ab12", "event": "solve_result", "result": {...}}
//	{"session_id": "ab12", "event": "session_deleted", "data": {"session_id": "ab12"}}
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Stop()
//
//	hub.ServeWS(w, r, sessionID)          // from an HTTP handler
//	hub.BroadcastSolve(sessionID, result) // after a solve
//
// All client bookkeeping is owned by the Run goroutine. Broadcasts never
// block the caller: when the queue is full the message is dropped and a
// warning is logged.
package websocket
