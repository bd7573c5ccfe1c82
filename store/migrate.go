package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	bolt "go.etcd.io/bbolt"

	"github.com/ayoisaiah/solvelog/internal/session"
)

var errLegacyFormat = errors.New("session file is neither a list nor an object of sessions")

// readLegacy reads the flat session list written by earlier versions. A
// missing file yields no sessions.
func readLegacy(path string) ([]session.Raw, error) {
	if path == "" {
		return nil, nil
	}

	list, err := ReadSessionsFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	return list, err
}

// ReadSessionsFile reads a JSON session file: the legacy flat list, an
// export, or an object keyed by problem. Entries that are not objects are
// skipped.
func ReadSessionsFile(path string) ([]session.Raw, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sessions file: %w", err)
	}

	return DecodeSessions(b)
}

// DecodeSessions parses the contents of a session file.
func DecodeSessions(b []byte) ([]session.Raw, error) {
	var items []json.RawMessage

	if err := json.Unmarshal(b, &items); err != nil {
		var keyed map[string]json.RawMessage
		if err = json.Unmarshal(b, &keyed); err != nil {
			return nil, fmt.Errorf("%w: %w", errLegacyFormat, err)
		}

		for _, v := range keyed {
			items = append(items, v)
		}
	}

	list := make([]session.Raw, 0, len(items))

	for _, item := range items {
		var raw session.Raw
		if err := json.Unmarshal(item, &raw); err != nil {
			continue
		}

		list = append(list, raw)
	}

	return list, nil
}

// migrateLegacy imports the legacy flat list and marks the migration as done
// in the same transaction, so it never runs twice. Entries that cannot be
// normalized are dropped.
func (c *Client) migrateLegacy(tx *bolt.Tx, path string) error {
	raws, err := readLegacy(path)
	if err != nil {
		if !errors.Is(err, errLegacyFormat) {
			return err
		}

		c.log.Warn("skipping unreadable legacy session file", "path", path, "error", err)
	}

	now := c.nowUnix()

	var migrated, dropped int

	for _, raw := range raws {
		rec, err := session.FromRaw(raw, now)
		if err != nil {
			dropped++

			continue
		}

		if rec.ID == "" {
			rec.ID = session.LegacyID(rec.Platform, rec.ProblemID, rec.FirstSeen)
		}

		if _, err := c.put(tx, rec); err != nil {
			c.log.Warn("dropping legacy session", "session_id", rec.ID, "error", err)
			dropped++

			continue
		}

		migrated++
	}

	if len(raws) > 0 {
		c.log.Info(
			"migrated legacy sessions",
			"path", path,
			"migrated", migrated,
			"dropped", dropped,
		)
	}

	return tx.Bucket(metaBucket).Put(keyLegacyMigrated, []byte("1"))
}

// upgrade re-normalizes every stored record. Records whose schema version,
// status or stop reason changed are rewritten; records that no longer decode
// or normalize are removed. The problem index is rebuilt from the records
// that survive.
func (c *Client) upgrade(tx *bolt.Tx) error {
	sessions := tx.Bucket(sessionBucket)

	type change struct {
		key []byte
		rec *session.Record
	}

	var (
		changes []change
		keep    []session.Record
	)

	now := c.nowUnix()

	err := sessions.ForEach(func(k, v []byte) error {
		key := append([]byte(nil), k...)

		var stored session.Record
		if err := json.Unmarshal(v, &stored); err != nil {
			c.log.Warn("removing undecodable session", "key", string(k), "error", err)
			changes = append(changes, change{key: key})

			return nil
		}

		if stored.ID == "" {
			stored.ID = string(k)
		}

		norm, err := session.Normalize(stored, now)
		if err != nil {
			c.log.Warn("removing invalid session", "key", string(k), "error", err)
			changes = append(changes, change{key: key})

			return nil
		}

		keep = append(keep, norm)

		if norm.ID != string(k) ||
			norm.SchemaVersion != stored.SchemaVersion ||
			norm.Status != stored.Status ||
			norm.StopReason != stored.StopReason {
			changes = append(changes, change{key: key, rec: &norm})
		}

		return nil
	})
	if err != nil {
		return err
	}

	for _, ch := range changes {
		if err := sessions.Delete(ch.key); err != nil {
			return err
		}

		if ch.rec == nil {
			continue
		}

		b, err := json.Marshal(ch.rec)
		if err != nil {
			return err
		}

		if err := sessions.Put([]byte(ch.rec.ID), b); err != nil {
			return err
		}
	}

	if len(changes) > 0 {
		c.log.Info("upgraded stored sessions", "changed", len(changes))
	}

	if err := tx.DeleteBucket(problemBucket); err != nil {
		return err
	}

	index, err := tx.CreateBucket(problemBucket)
	if err != nil {
		return err
	}

	for i := range keep {
		if err := index.Put(indexKey(keep[i]), []byte{}); err != nil {
			return err
		}
	}

	return nil
}
