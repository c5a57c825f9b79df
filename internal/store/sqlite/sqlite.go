package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/sessionchat/internal/store"
)

//go:embed schema.sql
var schema string

const dsnParams = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=1"

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, Migrate)
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with single connection; also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Migrate applies the embedded schema. It is safe to run repeatedly.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// UpsertUser creates the user or refreshes its username.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *store.User) error {
	query := `
		INSERT INTO users (id, username)
		VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET username = excluded.username
	`
	if _, err := s.db.ExecContext(ctx, query, user.ID, user.Username); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*store.User, error) {
	query := `SELECT id, username FROM users WHERE id = ?`

	var user store.User
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// ==== SessionStore implementation ====

const sessionColumns = `s.id, s.owner_user_id, u.id, COALESCE(u.username, ''), s.name, s.created_at`

// CreateSession creates an empty session owned by ownerID.
func (s *SQLiteStore) CreateSession(ctx context.Context, ownerID, name string) (*store.Session, error) {
	query := `
		INSERT INTO sessions (owner_user_id, name, created_at)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, ownerID, name, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetSession(ctx, id, true)
}

// GetSession retrieves a session by ID.
func (s *SQLiteStore) GetSession(ctx context.Context, id int64, withMessages bool) (*store.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions s
		LEFT JOIN users u ON u.id = s.owner_user_id
		WHERE s.id = ?
	`
	session, err := scanSession(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query session: %w", err)
	}

	if withMessages {
		if session.Messages, err = s.listSessionMessages(ctx, session.ID); err != nil {
			return nil, err
		}
	}

	return session, nil
}

// ListSessionsByOwner returns every session owned by ownerID with messages populated.
func (s *SQLiteStore) ListSessionsByOwner(ctx context.Context, ownerID string) ([]*store.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions s
		LEFT JOIN users u ON u.id = s.owner_user_id
		WHERE s.owner_user_id = ?
		ORDER BY s.id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}

	sessions := make([]*store.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	rows.Close()

	// The single connection must be free before populating messages.
	for _, session := range sessions {
		if session.Messages, err = s.listSessionMessages(ctx, session.ID); err != nil {
			return nil, err
		}
	}

	return sessions, nil
}

// ConnectMessages links messages to the session's message relation.
func (s *SQLiteStore) ConnectMessages(ctx context.Context, sessionID int64, messageIDs ...int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, sessionID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("session %d: %w", sessionID, store.ErrNotFound)
		}
		return fmt.Errorf("query session: %w", err)
	}

	query := `
		INSERT OR IGNORE INTO session_messages (session_id, message_id)
		SELECT session_id, id FROM messages WHERE id = ? AND session_id = ?
	`
	for _, messageID := range messageIDs {
		result, err := tx.ExecContext(ctx, query, messageID, sessionID)
		if err != nil {
			return fmt.Errorf("connect message %d: %w", messageID, err)
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			if err := s.checkConnected(ctx, tx, sessionID, messageID); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// checkConnected tells an already linked message apart from one that does not belong to the session.
func (s *SQLiteStore) checkConnected(ctx context.Context, tx *sql.Tx, sessionID, messageID int64) error {
	var exists int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM session_messages WHERE session_id = ? AND message_id = ?`,
		sessionID, messageID,
	).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("message %d in session %d: %w", messageID, sessionID, store.ErrNotFound)
		}
		return fmt.Errorf("query session message: %w", err)
	}
	return nil
}

// ==== MessageStore implementation ====

const messageColumns = `m.id, m.session_id, m.sender_user_id, COALESCE(u.username, ''), m.content, m.is_server_message, m.created_at`

// CreateMessage persists msg and returns the stored copy with its sender populated.
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *store.Message) (*store.Message, error) {
	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO messages (session_id, sender_user_id, content, is_server_message, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, msg.SessionID, msg.SenderUserID, msg.Content, msg.IsServerMessage, createdAt)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetMessage(ctx, id)
}

// GetMessage retrieves a message by ID.
func (s *SQLiteStore) GetMessage(ctx context.Context, id int64) (*store.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages m
		LEFT JOIN users u ON u.id = m.sender_user_id
		WHERE m.id = ?
	`
	msg, err := scanMessage(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("message %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query message: %w", err)
	}
	return msg, nil
}

func (s *SQLiteStore) listSessionMessages(ctx context.Context, sessionID int64) ([]*store.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM session_messages sm
		JOIN messages m ON m.id = sm.message_id
		LEFT JOIN users u ON u.id = m.sender_user_id
		WHERE sm.session_id = ?
		ORDER BY sm.id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*store.Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*store.Session, error) {
	var session store.Session
	var ownerID sql.NullString
	var ownerName string
	if err := row.Scan(&session.ID, &session.OwnerUserID, &ownerID, &ownerName, &session.Name, &session.CreatedAt); err != nil {
		return nil, err
	}
	if ownerID.Valid {
		session.Owner = &store.User{ID: ownerID.String, Username: ownerName}
	}
	return &session, nil
}

func scanMessage(row scanner) (*store.Message, error) {
	var msg store.Message
	var senderID sql.NullString
	var senderName string
	if err := row.Scan(&msg.ID, &msg.SessionID, &senderID, &senderName, &msg.Content, &msg.IsServerMessage, &msg.CreatedAt); err != nil {
		return nil, err
	}
	if senderID.Valid {
		msg.SenderUserID = &senderID.String
		msg.Sender = &store.User{ID: senderID.String, Username: senderName}
	}
	return &msg, nil
}

var _ store.Store = (*SQLiteStore)(nil)
