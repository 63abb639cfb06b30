// Package session provides session management for the maze solver.
//
// A session pins one maze: its grid, an engine built for it and the history
// of every solve run against it. The Manager keeps sessions in memory and,
// with a SessionPersistence attached, mirrors them to disk so they survive a
// restart.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs generated from crypto/rand. Lookups are
// case-insensitive.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence("sessions", configMgr)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(persistence)
//	_ = manager.LoadPersistedSessions()
//
//	sess, err := manager.Create("", "classic", config)
//
// Cleanup:
//
// CleanupExpiredSessions drops idle sessions from memory only; their files
// stay on disk and are loaded again on the next Get.
package session
