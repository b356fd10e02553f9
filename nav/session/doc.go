// Package session manages planning session lifecycle and persistence.
//
// A session pairs a map document with a live grid and coordinator. The
// Manager keeps sessions in memory under case-insensitive IDs and, when
// configured with a SessionPersistence, snapshots each session to a JSON
// file so runs survive restarts.
//
// Example usage:
//
//	persistence, err := session.NewFilePersistence("sessions", mapManager, voc)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(persistence, voc)
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Fatal(err)
//	}
//	sess, err := manager.Create("", "classic", doc)
package session
