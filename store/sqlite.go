// Package store persists snapshots of a tsdemux.Model to a pure-Go SQLite
// database, so a probe process can expose its last-known SI state to other
// tools without keeping the demuxer itself in process.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mpegdemux/tsdemux"
)

const schema = `
CREATE TABLE IF NOT EXISTS pat_programs (
	pat_pid INTEGER NOT NULL,
	program_number INTEGER NOT NULL,
	pmt_pid INTEGER NOT NULL,
	observed_at INTEGER NOT NULL,
	PRIMARY KEY (pat_pid, program_number)
);

CREATE TABLE IF NOT EXISTS pmt_streams (
	pmt_pid INTEGER NOT NULL,
	program_number INTEGER NOT NULL,
	stream_pid INTEGER NOT NULL,
	stream_type INTEGER NOT NULL,
	observed_at INTEGER NOT NULL,
	PRIMARY KEY (pmt_pid, stream_pid)
);

CREATE TABLE IF NOT EXISTS sdt_services (
	carrying_pid INTEGER NOT NULL,
	service_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	provider TEXT NOT NULL,
	observed_at INTEGER NOT NULL,
	PRIMARY KEY (carrying_pid, service_id)
);
`

// SQLite persists periodic Model snapshots. It is safe for concurrent use.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if necessary) a SQLite database at path and
// ensures its schema exists.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("tsdemux/store: opening %q: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("tsdemux/store: creating schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// SnapshotModel writes m's current PAT, PMT, and SDT state as of now.
func (s *SQLite) SnapshotModel(ctx context.Context, m *tsdemux.Model, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ts := now.Unix()

	for patPID, pat := range m.PAT {
		for _, prog := range pat.Programs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO pat_programs (pat_pid, program_number, pmt_pid, observed_at)
				 VALUES (?, ?, ?, ?)
				 ON CONFLICT(pat_pid, program_number) DO UPDATE SET pmt_pid=excluded.pmt_pid, observed_at=excluded.observed_at`,
				patPID, prog.ProgramNumber, prog.PID, ts); err != nil {
				return err
			}
		}
	}

	for pmtPID, pmt := range m.PMT {
		for _, es := range pmt.ElementaryStreams {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO pmt_streams (pmt_pid, program_number, stream_pid, stream_type, observed_at)
				 VALUES (?, ?, ?, ?, ?)
				 ON CONFLICT(pmt_pid, stream_pid) DO UPDATE SET stream_type=excluded.stream_type, observed_at=excluded.observed_at`,
				pmtPID, pmt.ProgramNumber, es.PID, es.StreamType, ts); err != nil {
				return err
			}
		}
	}

	for carryingPID, sdt := range m.SDT {
		for _, svc := range sdt.Services {
			name, provider := serviceNames(svc.Descriptors)
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO sdt_services (carrying_pid, service_id, name, provider, observed_at)
				 VALUES (?, ?, ?, ?, ?)
				 ON CONFLICT(carrying_pid, service_id) DO UPDATE SET name=excluded.name, provider=excluded.provider, observed_at=excluded.observed_at`,
				carryingPID, svc.ServiceID, name, provider, ts); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func serviceNames(descs []tsdemux.Descriptor) (name, provider string) {
	for _, d := range descs {
		if d.Service != nil {
			return d.Service.Name, d.Service.ProviderName
		}
	}
	return "", ""
}

// Close closes the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
