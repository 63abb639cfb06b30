// Package api provides the HTTP REST API for the maze solver.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a session ({"maze_id": "..."} or {"maze": {...}})
//   - GET /api/sessions - List sessions (sort=created|accessed, order, limit)
//   - GET /api/sessions/{id} - Get one session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Solving:
//   - POST /api/sessions/{id}/solve - Solve on the session maze
//   - GET /api/sessions/{id}/history - Paginated solve history (page, limit, order)
//   - GET /api/sessions/{id}/render - Maze drawing with the last path (format=text for plain text)
//   - GET /api/sessions/{id}/cells/{row}/{col} - Describe one cell
//   - POST /api/solve - Solve an inline grid without a session
//
// Mazes:
//   - GET /api/mazes - List stored mazes
//   - POST /api/mazes - Store a maze
//   - GET /api/mazes/{name} - Get a stored maze
//   - POST /api/mazes/generate - Generate a random maze
//
// A solve request looks like:
//
//	{
//	  "start": {"row": 4, "col": 4},
//	  "heading": "north",
//	  "goal": {"row": 0, "col": 0},
//	  "heuristic": "manhattan",
//	  "trace": false,
//	  "timeout_ms": 500
//	}
//
// Omitted fields fall back to the maze defaults. A solve that finds no path
// still answers 200 with "found": false and a reason.
//
// Errors are returned as {"error": "message"} with 404 for unknown sessions
// or mazes, 400 for invalid input and 500 otherwise.
package api
