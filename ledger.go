package ghosttag

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/segmentio/ksuid"
)

// Entry describes an image written by EmbedFile. The seed is never recorded.
type Entry struct {
	ID          string
	Fingerprint string // SHA-1 of the written file
	Path        string
	Width       int
	Height      int
	Channels    int
	Redundancy  int
	Length      int // Embedded payload length in bytes
	Created     time.Time
}

// Ledger is a history of embedded images kept in an SQLite database
type Ledger struct {
	db *sql.DB
}

// NewLedger opens or creates the ledger database in file
func NewLedger(file string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS image (id TEXT PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL, path TEXT NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, channels INTEGER NOT NULL, created INTEGER NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS payload (image_id TEXT NOT NULL UNIQUE, redundancy INTEGER NOT NULL, length INTEGER NOT NULL, FOREIGN KEY(image_id) REFERENCES image(id))"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE INDEX IF NOT EXISTS image_sha1 ON image (sha1)"); err != nil {
		db.Close()
		return nil, err
	}

	return &Ledger{
		db: db,
	}, nil
}

// Close closes the underlying database
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record adds e to the ledger, assigning its ID and creation time
func (l *Ledger) Record(e *Entry) error {
	id := ksuid.New()
	e.ID = id.String()
	e.Created = id.Time()

	tx, err := l.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("INSERT INTO image (id, sha1, path, width, height, channels, created) VALUES (?, ?, ?, ?, ?, ?, ?)", e.ID, e.Fingerprint, e.Path, e.Width, e.Height, e.Channels, e.Created.Unix()); err != nil {
		return err
	}

	if _, err := tx.Exec("INSERT INTO payload (image_id, redundancy, length) VALUES (?, ?, ?)", e.ID, e.Redundancy, e.Length); err != nil {
		return err
	}

	return tx.Commit()
}

const selectEntry = "SELECT i.id, i.sha1, i.path, i.width, i.height, i.channels, i.created, p.redundancy, p.length FROM image AS i JOIN payload AS p ON p.image_id = i.id"

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(s scanner) (*Entry, error) {
	var e Entry
	var created int64
	if err := s.Scan(&e.ID, &e.Fingerprint, &e.Path, &e.Width, &e.Height, &e.Channels, &created, &e.Redundancy, &e.Length); err != nil {
		return nil, err
	}
	e.Created = time.Unix(created, 0)
	return &e, nil
}

// FindByFingerprint returns the most recent entry for the file with the
// given SHA-1, or nil if there is none
func (l *Ledger) FindByFingerprint(sha string) (*Entry, error) {
	e, err := scanEntry(l.db.QueryRow(selectEntry+" WHERE i.sha1 = ? ORDER BY i.id DESC LIMIT 1", sha))
	switch err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return e, nil
	default:
		return nil, err
	}
}

// List returns every entry, oldest first
func (l *Ledger) List() ([]Entry, error) {
	rows, err := l.db.Query(selectEntry + " ORDER BY i.id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}

	return entries, rows.Err()
}
