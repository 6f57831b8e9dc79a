package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/icontent-lms/go-icontent/eventlog"
)

var _ eventlog.LegacyWriter = LegacyLog{}

// LegacyLog writes legacy log rows in the "log" table.
type LegacyLog struct {
	Conn DB
}

// WriteLegacy implements the eventlog.LegacyWriter interface.
func (l LegacyLog) WriteLegacy(ctx context.Context, entry eventlog.LegacyEntry) error {
	if _, err := l.Conn.Exec(
		ctx,
		`INSERT INTO log ("time", userid, course, module, cmid, action, url, info)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.Time.Unix(),
		entry.UserID,
		entry.CourseID,
		entry.Module,
		entry.ContextInstanceID,
		entry.Action,
		entry.URL,
		strconv.FormatInt(entry.ObjectID, 10),
	); err != nil {
		return fmt.Errorf("postgres.LegacyLog: failed to insert row, %w", err)
	}

	return nil
}

// ByModule returns the legacy rows of the course module cmid, oldest first.
func (l LegacyLog) ByModule(ctx context.Context, cmid int64) ([]eventlog.LegacyEntry, error) {
	rows, err := l.Conn.Query(
		ctx,
		`SELECT "time", userid, course, module, cmid, action, url, info
		FROM log WHERE cmid = $1 ORDER BY id`,
		cmid,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres.LegacyLog: failed to query log table, %w", err)
	}

	entries, err := pgx.CollectRows(rows, scanLegacyEntry)
	if err != nil {
		return nil, fmt.Errorf("postgres.LegacyLog: failed to scan rows, %w", err)
	}

	return entries, nil
}

func scanLegacyEntry(row pgx.CollectableRow) (eventlog.LegacyEntry, error) {
	var (
		entry eventlog.LegacyEntry
		unix  int64
		info  string
	)

	if err := row.Scan(
		&unix,
		&entry.UserID,
		&entry.CourseID,
		&entry.Module,
		&entry.ContextInstanceID,
		&entry.Action,
		&entry.URL,
		&info,
	); err != nil {
		return eventlog.LegacyEntry{}, err
	}

	objectID, err := strconv.ParseInt(info, 10, 64)
	if err != nil {
		return eventlog.LegacyEntry{}, fmt.Errorf("unexpected info value %q, %w", info, err)
	}

	entry.Time = time.Unix(unix, 0).UTC()
	entry.ObjectID = objectID

	return entry, nil
}
