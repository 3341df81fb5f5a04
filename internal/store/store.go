package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"dedupe/internal/config"
)

// Store manages scan persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the scan database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath opens a database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// NewSession describes a scan to record.
type NewSession struct {
	Name      string
	FileTypes string
	Threshold float64
	Roots     []ScannedPath
}

// CreateSession records a new pending scan over the given roots.
func (s *Store) CreateSession(ctx context.Context, spec NewSession) (*Session, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	token := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin session tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO scan_sessions (token, name, status, file_types, similarity_threshold, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		token,
		spec.Name,
		StatusPending,
		spec.FileTypes,
		spec.Threshold,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	for _, root := range spec.Roots {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO scanned_paths (session_id, path, include_subdirs) VALUES (?, ?, ?)`,
			id,
			root.Path,
			boolToInt(root.IncludeSubdirs),
		); err != nil {
			return nil, fmt.Errorf("insert scanned path: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit session: %w", err)
	}
	return s.SessionByID(ctx, id)
}

// AddScannedPath attaches another root to an existing session.
func (s *Store) AddScannedPath(ctx context.Context, sessionID int64, path string, includeSubdirs bool) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO scanned_paths (session_id, path, include_subdirs) VALUES (?, ?, ?)`,
		sessionID,
		path,
		boolToInt(includeSubdirs),
	)
	if err != nil {
		return fmt.Errorf("insert scanned path: %w", err)
	}
	return nil
}

// UpdateSessionStatus moves a session to a new status, stamping
// completed_at when the status is terminal.
func (s *Store) UpdateSessionStatus(ctx context.Context, id int64, status Status, errorMessage string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	var completedAt any
	if status.Terminal() {
		completedAt = now
	}
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE scan_sessions
         SET status = ?, error_message = ?, updated_at = ?,
             completed_at = COALESCE(?, completed_at)
         WHERE id = ?`,
		status,
		nullableString(errorMessage),
		now,
		completedAt,
		id,
	)
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	return nil
}

// UpdateSessionCounts records discovery and grouping totals.
func (s *Store) UpdateSessionCounts(ctx context.Context, id int64, fileCount, groupCount int) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE scan_sessions SET file_count = ?, group_count = ?, updated_at = ? WHERE id = ?`,
		fileCount,
		groupCount,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("update session counts: %w", err)
	}
	return nil
}

// SaveGroup persists a group and all of its members in one transaction.
func (s *Store) SaveGroup(ctx context.Context, group *Group) (int64, error) {
	if group == nil {
		return 0, errors.New("group is nil")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin group tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO duplicate_groups (session_id, category, similarity, hash_value)
         VALUES (?, ?, ?, ?)`,
		group.SessionID,
		group.Category,
		group.Similarity,
		nullableString(group.HashValue),
	)
	if err != nil {
		return 0, fmt.Errorf("insert group: %w", err)
	}
	groupID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	for _, file := range group.Files {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO file_entries (group_id, path, size_bytes, modified_at)
             VALUES (?, ?, ?, ?)`,
			groupID,
			file.Path,
			file.SizeBytes,
			nullableTime(file.ModifiedAt),
		); err != nil {
			return 0, fmt.Errorf("insert file entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit group: %w", err)
	}
	return groupID, nil
}

// SessionByID fetches one session, or nil when it does not exist.
func (s *Store) SessionByID(ctx context.Context, id int64) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM scan_sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// SessionByToken fetches one session by its public token.
func (s *Store) SessionByToken(ctx context.Context, token string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM scan_sessions WHERE token = ?`, token)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session by token: %w", err)
	}
	return session, nil
}

// Sessions returns all sessions, newest first.
func (s *Store) Sessions(ctx context.Context) ([]*Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM scan_sessions ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// ScannedPaths returns the roots covered by a session.
func (s *Store) ScannedPaths(ctx context.Context, sessionID int64) ([]ScannedPath, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, session_id, path, include_subdirs FROM scanned_paths WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list scanned paths: %w", err)
	}
	defer rows.Close()

	var paths []ScannedPath
	for rows.Next() {
		var (
			path    ScannedPath
			subdirs int
		)
		if err := rows.Scan(&path.ID, &path.SessionID, &path.Path, &subdirs); err != nil {
			return nil, fmt.Errorf("scan path row: %w", err)
		}
		path.IncludeSubdirs = subdirs != 0
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

// GroupsBySession returns a session's groups with their members, the
// largest groups first.
func (s *Store) GroupsBySession(ctx context.Context, sessionID int64) ([]*Group, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, session_id, category, similarity, hash_value
         FROM duplicate_groups WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		group := &Group{}
		var hashValue sql.NullString
		if err := rows.Scan(&group.ID, &group.SessionID, &group.Category, &group.Similarity, &hashValue); err != nil {
			return nil, fmt.Errorf("scan group row: %w", err)
		}
		group.HashValue = hashValue.String
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, group := range groups {
		files, err := s.filesByGroup(ctx, group.ID)
		if err != nil {
			return nil, err
		}
		group.Files = files
	}
	return groups, nil
}

func (s *Store) filesByGroup(ctx context.Context, groupID int64) ([]File, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, group_id, path, size_bytes, modified_at
         FROM file_entries WHERE group_id = ? ORDER BY path`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("list file entries: %w", err)
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		var (
			file        File
			modifiedRaw sql.NullString
		)
		if err := rows.Scan(&file.ID, &file.GroupID, &file.Path, &file.SizeBytes, &modifiedRaw); err != nil {
			return nil, fmt.Errorf("scan file row: %w", err)
		}
		if modifiedRaw.Valid {
			if modified, err := parseTimeString(modifiedRaw.String); err == nil {
				file.ModifiedAt = modified
			}
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// DeleteSession removes a session and, through cascades, its groups
// and file entries.
func (s *Store) DeleteSession(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scan_sessions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

const sessionColumns = "id, token, name, status, file_types, similarity_threshold, file_count, group_count, error_message, created_at, updated_at, completed_at"

func scanSession(scanner interface{ Scan(dest ...any) error }) (*Session, error) {
	var (
		session      Session
		statusStr    string
		errorMessage sql.NullString
		createdRaw   string
		updatedRaw   string
		completedRaw sql.NullString
	)
	if err := scanner.Scan(
		&session.ID,
		&session.Token,
		&session.Name,
		&statusStr,
		&session.FileTypes,
		&session.Threshold,
		&session.FileCount,
		&session.GroupCount,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&completedRaw,
	); err != nil {
		return nil, err
	}

	session.Status = Status(statusStr)
	session.ErrorMessage = errorMessage.String
	if created, err := parseTimeString(createdRaw); err == nil {
		session.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		session.UpdatedAt = updated
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			session.CompletedAt = &completed
		}
	}
	return &session, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
