// Package session provides session management for the crisis scenarios game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session lifecycle management, including tearing down a session's
//     scenes when it is deleted or expires
//
// Core Types:
//
// Manager is the session store used by the service layer. Each stored
// service.Session owns a service.World built from the suite it was created
// with, so sessions never share puzzle state, visuals or clocks.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs for easy reference. IDs are matched
// case-insensitively.
//
// Persistence:
//
// Sessions live in memory only. A restarted server starts empty.
//
// Usage:
//
//	manager := session.NewManager()
//	sess, err := manager.Create("", "default", config.DefaultSuite())
//	removed := manager.CleanupExpiredSessions(time.Hour)
package session
