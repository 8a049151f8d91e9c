// Package session keeps the in-memory table of running puzzle games.
//
// Each Session owns one engine.GameEngine plus the preset it was started
// with and two timestamps: when it was created and when a request last
// touched it. Manager guards the table with a RWMutex, so handlers for
// different sessions never block each other for long.
//
// Identifiers
//
// Callers may pick their own ID; an empty ID gets a random UUID. IDs are
// matched case-insensitively, so "Abc" and "abc" name the same session, and
// may not contain whitespace or URL delimiters.
//
//	manager := session.NewManager(session.WithLogger(logger))
//	sess, err := manager.Create("", preset)
//	if err != nil {
//		return err
//	}
//	sess, err = manager.Get(sess.ID)
//
// Expiry
//
// RunCleanup prunes idle sessions on a ticker until its context ends; the
// server runs it with a 24 hour idle limit. Sessions are never written to
// disk, so a restart starts from an empty manager.
package session
