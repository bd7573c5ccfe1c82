// Package store persists session records in a BoltDB file and keeps old data
// compatible with the current record schema
package store

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ayoisaiah/solvelog/internal/session"
)

// ErrUnavailable is returned by every operation when the database could not
// be opened or has been closed.
var ErrUnavailable = errors.New("session store unavailable")

var errLocked = errors.New(
	"is solvelog already running? Only one process can open the database at a time",
)

var errProblemKeyChanged = errors.New("the problem of a stored session cannot change")

var (
	sessionBucket = []byte("sessions")
	problemBucket = []byte("problems")
	metaBucket    = []byte("meta")

	keyLegacyMigrated = []byte("legacy_migrated")
	keySchemaVersion  = []byte("schema_version")
)

const indexSeparator = "\x00"

// Options configures a Client.
type Options struct {
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
	// LegacyPath is a JSON file holding the flat session list written by
	// earlier versions. It is imported once.
	LegacyPath string
	// Timeout bounds how long Open waits for the file lock.
	Timeout time.Duration
}

// Client is a BoltDB database client.
type Client struct {
	db  *bolt.DB
	log *slog.Logger
	now func() time.Time
	mu  sync.RWMutex
}

// Open opens or creates the database at path, imports the legacy session
// list on first use and re-normalizes stored records.
func Open(path string, opts Options) (*Client, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	if opts.Timeout == 0 {
		opts.Timeout = 1 * time.Second
	}

	db, err := openDB(path, opts.Timeout)
	if err != nil {
		return nil, err
	}

	c := &Client{
		db:  db,
		log: opts.Logger,
		now: opts.Now,
	}

	err = db.Update(func(tx *bolt.Tx) error {
		return c.init(tx, opts.LegacyPath)
	})
	if err != nil {
		_ = db.Close()

		return nil, err
	}

	return c, nil
}

// openDB creates or opens a database and locks it.
func openDB(pathToDB string, timeout time.Duration) (*bolt.DB, error) {
	var fileMode fs.FileMode = 0o600

	db, err := bolt.Open(
		pathToDB,
		fileMode,
		&bolt.Options{Timeout: timeout},
	)
	if err != nil {
		if errors.Is(err, bolt.ErrDatabaseOpen) ||
			errors.Is(err, bolt.ErrTimeout) {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, errLocked)
		}

		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return db, nil
}

// init creates the buckets, runs the one-shot legacy migration and the
// schema upgrade sweep.
func (c *Client) init(tx *bolt.Tx, legacyPath string) error {
	for _, name := range [][]byte{sessionBucket, problemBucket, metaBucket} {
		if _, err := tx.CreateBucketIfNotExists(name); err != nil {
			return err
		}
	}

	meta := tx.Bucket(metaBucket)

	if v := meta.Get(keySchemaVersion); v != nil {
		stored, err := strconv.Atoi(string(v))
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}

		if stored > session.SchemaVersion {
			return fmt.Errorf(
				"%w: database schema version %d is newer than the supported version %d",
				ErrUnavailable,
				stored,
				session.SchemaVersion,
			)
		}
	}

	if meta.Get(keyLegacyMigrated) == nil {
		if err := c.migrateLegacy(tx, legacyPath); err != nil {
			return err
		}
	}

	if err := c.upgrade(tx); err != nil {
		return err
	}

	return meta.Put(keySchemaVersion, []byte(strconv.Itoa(session.SchemaVersion)))
}

func (c *Client) nowUnix() int64 {
	return c.now().Unix()
}

func (c *Client) view(fn func(tx *bolt.Tx) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.db == nil {
		return ErrUnavailable
	}

	return wrapClosed(c.db.View(fn))
}

func (c *Client) update(fn func(tx *bolt.Tx) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.db == nil {
		return ErrUnavailable
	}

	return wrapClosed(c.db.Update(fn))
}

func wrapClosed(err error) error {
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return err
}

// Close ends the database connection. Operations after Close return
// ErrUnavailable.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}

	err := c.db.Close()
	c.db = nil

	return err
}

func (c *Client) GetSessionByID(id string) (*session.Record, error) {
	var rec *session.Record

	err := c.view(func(tx *bolt.Tx) error {
		v := tx.Bucket(sessionBucket).Get([]byte(id))
		if v == nil {
			return nil
		}

		r, err := decode(v)
		if err != nil {
			return err
		}

		rec = &r

		return nil
	})

	return rec, err
}

func (c *Client) GetAllSessions() ([]session.Record, error) {
	var recs []session.Record

	err := c.view(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).ForEach(func(_, v []byte) error {
			r, err := decode(v)
			if err != nil {
				return err
			}

			recs = append(recs, r)

			return nil
		})
	})

	return recs, err
}

func (c *Client) GetSessionsByProblem(
	platform, problemID string,
) ([]session.Record, error) {
	var recs []session.Record

	prefix := []byte(session.BuildProblemKey(platform, problemID) + indexSeparator)

	err := c.view(func(tx *bolt.Tx) error {
		sessions := tx.Bucket(sessionBucket)
		cur := tx.Bucket(problemBucket).Cursor()

		for k, _ := cur.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = cur.Next() {
			v := sessions.Get(k[len(prefix):])
			if v == nil {
				continue
			}

			r, err := decode(v)
			if err != nil {
				return err
			}

			recs = append(recs, r)
		}

		return nil
	})

	slices.SortStableFunc(recs, func(a, b session.Record) int {
		return cmp.Or(
			cmp.Compare(a.FirstSeen, b.FirstSeen),
			cmp.Compare(a.ID, b.ID),
		)
	})

	return recs, err
}

func (c *Client) SaveSession(rec session.Record) (session.Record, error) {
	var saved session.Record

	err := c.update(func(tx *bolt.Tx) error {
		var err error

		saved, err = c.put(tx, rec)

		return err
	})

	return saved, err
}

func (c *Client) SaveSessions(recs []session.Record) ([]session.Record, error) {
	saved := make([]session.Record, 0, len(recs))

	err := c.update(func(tx *bolt.Tx) error {
		for i := range recs {
			r, err := c.put(tx, recs[i])
			if err != nil {
				return err
			}

			saved = append(saved, r)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

func (c *Client) ReplaceAllSessions(recs []session.Record) ([]session.Record, error) {
	saved := make([]session.Record, 0, len(recs))

	err := c.update(func(tx *bolt.Tx) error {
		if err := clearBuckets(tx); err != nil {
			return err
		}

		for i := range recs {
			r, err := c.put(tx, recs[i])
			if err != nil {
				return err
			}

			saved = append(saved, r)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

func (c *Client) ClearAllSessions() error {
	return c.update(clearBuckets)
}

func clearBuckets(tx *bolt.Tx) error {
	for _, name := range [][]byte{sessionBucket, problemBucket} {
		if err := tx.DeleteBucket(name); err != nil {
			return err
		}

		if _, err := tx.CreateBucket(name); err != nil {
			return err
		}
	}

	return nil
}

// put normalizes and writes a single record and its index entry. An
// existing record keeps its first seen timestamp.
func (c *Client) put(tx *bolt.Tx, rec session.Record) (session.Record, error) {
	if rec.ID == "" {
		return session.Record{}, errors.New("cannot save a session without an id")
	}

	norm, err := session.Normalize(rec, c.nowUnix())
	if err != nil {
		return session.Record{}, err
	}

	sessions := tx.Bucket(sessionBucket)

	if v := sessions.Get([]byte(norm.ID)); v != nil {
		existing, err := decode(v)
		if err != nil {
			return session.Record{}, err
		}

		if existing.ProblemKey != norm.ProblemKey {
			return session.Record{}, fmt.Errorf(
				"%w: session %s belongs to %s",
				errProblemKeyChanged,
				norm.ID,
				existing.ProblemKey,
			)
		}

		norm.FirstSeen = existing.FirstSeen
	}

	b, err := json.Marshal(norm)
	if err != nil {
		return session.Record{}, err
	}

	if err := sessions.Put([]byte(norm.ID), b); err != nil {
		return session.Record{}, err
	}

	return norm, tx.Bucket(problemBucket).Put(indexKey(norm), []byte{})
}

func indexKey(rec session.Record) []byte {
	return []byte(rec.ProblemKey + indexSeparator + rec.ID)
}

func decode(v []byte) (session.Record, error) {
	var rec session.Record

	err := json.Unmarshal(v, &rec)
	if err != nil {
		return session.Record{}, fmt.Errorf("decoding session: %w", err)
	}

	return rec, nil
}
