package store

import "github.com/ayoisaiah/solvelog/internal/session"

// DB is the session storage interface. Every record returned has been
// normalized; every record written is normalized before it is stored.
type DB interface {
	// GetSessionByID returns the session with the given id, or nil if there
	// is none.
	GetSessionByID(id string) (*session.Record, error)
	// GetAllSessions returns every stored session ordered by id.
	GetAllSessions() ([]session.Record, error)
	// GetSessionsByProblem returns the sessions of a single problem, oldest
	// first.
	GetSessionsByProblem(platform, problemID string) ([]session.Record, error)
	// SaveSession normalizes and upserts a session, returning the stored form.
	SaveSession(rec session.Record) (session.Record, error)
	// SaveSessions upserts a batch of sessions in one transaction.
	SaveSessions(recs []session.Record) ([]session.Record, error)
	// ReplaceAllSessions removes every stored session and inserts recs.
	ReplaceAllSessions(recs []session.Record) ([]session.Record, error)
	// ClearAllSessions removes every stored session.
	ClearAllSessions() error
	// Close ends the database connection
	Close() error
}
