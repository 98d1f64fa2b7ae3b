// Package session records test sessions in a database so past runs can be
// inspected and compared. Each session stores where and what was executed
// together with its final status.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/user"
	"runtime"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	started_at TIMESTAMP NOT NULL,
	duration   INTEGER,
	project    TEXT,
	branch     TEXT,
	config     TEXT,
	os         TEXT NOT NULL,
	arch       TEXT NOT NULL,
	hostname   TEXT,
	username   TEXT,
	build_url  TEXT,
	node_name  TEXT,
	exit_code  INTEGER,
	status_id  INTEGER
);`

// Session is one recorded run of the driver.
type Session struct {
	ID      string
	Started time.Time

	Project string
	Branch  string
	Config  string

	OS       string
	Arch     string
	Hostname string
	Username string

	// CI coordinates, taken from the environment when present.
	BuildURL string
	NodeName string

	Duration time.Duration
	ExitCode int
	StatusID int
}

// New builds an unsaved session stamped with the current environment.
func New(project, branch, config string) *Session {
	s := &Session{
		ID:      uuid.New().String(),
		Started: time.Now(),
		Project: project,
		Branch:  branch,
		Config:  config,
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,

		BuildURL: os.Getenv("BUILD_URL"),
		NodeName: os.Getenv("NODE_NAME"),
	}
	if hostname, err := os.Hostname(); err == nil {
		s.Hostname = hostname
	}
	if u, err := user.Current(); err == nil {
		s.Username = u.Username
	}
	return s
}

// Store persists sessions into a SQLite database.
type Store struct {
	db  *sql.DB
	log log.Logger
}

// Open opens (creating if needed) the session database at url. url is a
// SQLite data source name, typically a file path.
func Open(url string, logger log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Root()
	}
	db, err := sql.Open("sqlite3", url)
	if err != nil {
		return nil, fmt.Errorf("opening session database %s: %w", url, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing session database %s: %w", url, err)
	}
	return &Store{db: db, log: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Create records the start of a session.
func (s *Store) Create(ctx context.Context, sess *Session) error {
	s.log.Debug("Recording session start", "session", sess.ID)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, started_at, project, branch, config, os, arch, hostname, username, build_url, node_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Started, sess.Project, sess.Branch, sess.Config,
		sess.OS, sess.Arch, sess.Hostname, sess.Username, sess.BuildURL, sess.NodeName,
	)
	if err != nil {
		return fmt.Errorf("recording session %s: %w", sess.ID, err)
	}
	return nil
}

// Finish records the outcome of a session previously created with Create.
// statusID identifies the overall status the exit code maps to.
func (s *Store) Finish(ctx context.Context, sess *Session, exitCode, statusID int) error {
	sess.Duration = time.Since(sess.Started)
	sess.ExitCode = exitCode
	sess.StatusID = statusID

	s.log.Debug("Recording session result", "session", sess.ID, "exitCode", exitCode)
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET duration = ?, exit_code = ?, status_id = ? WHERE id = ?`,
		sess.Duration.Milliseconds(), exitCode, statusID, sess.ID,
	)
	if err != nil {
		return fmt.Errorf("finishing session %s: %w", sess.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finishing session %s: unknown session", sess.ID)
	}
	return nil
}

// Get loads one session by ID.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, COALESCE(duration, 0), project, branch, config,
		       os, arch, hostname, username, build_url, node_name,
		       COALESCE(exit_code, 0), COALESCE(status_id, 0)
		FROM sessions WHERE id = ?`, id)

	var sess Session
	var durationMs int64
	err := row.Scan(&sess.ID, &sess.Started, &durationMs, &sess.Project, &sess.Branch, &sess.Config,
		&sess.OS, &sess.Arch, &sess.Hostname, &sess.Username, &sess.BuildURL, &sess.NodeName,
		&sess.ExitCode, &sess.StatusID)
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}
	sess.Duration = time.Duration(durationMs) * time.Millisecond
	return &sess, nil
}
