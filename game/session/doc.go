// Package session provides the in-memory game store for the Balance Tower game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique 8-character game ID generation
//   - Per-session locking through service.Session
//
// Session Identifiers:
//
// Games use the first 8 characters of a random UUID. The manager
// regenerates the ID on collision.
//
// Lifecycle:
//
// Sessions are created by the new-game request and are never deleted or
// expired; they live until the process exits. Nothing is persisted.
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Create(2, "classic", engine.DefaultRules())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
package session
