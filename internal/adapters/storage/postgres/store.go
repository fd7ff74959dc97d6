// Package postgres stores account reflections in a PostgreSQL table with
// one row per reflection.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/lib/pq"

	"github.com/limen-app/limen/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS reflections (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	mood             TEXT NOT NULL,
	guiding_question TEXT NOT NULL,
	text             TEXT NOT NULL,
	ai_response      TEXT,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	is_saved         BOOLEAN NOT NULL DEFAULT true
);
CREATE INDEX IF NOT EXISTS reflections_user_created_idx
	ON reflections (user_id, created_at DESC);
`

// ErrForeignReflection is returned when a save targets an id owned by
// another account.
var ErrForeignReflection = errors.New("reflection id belongs to another account")

type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL and checks the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, classify("ping", err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing connection pool.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the reflections table when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return classify("migrate", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ForUser scopes the store to one account.
func (s *Store) ForUser(account domain.AccountID) *UserStore {
	return &UserStore{db: s.db, user: string(account)}
}

// UserStore is the reflections of one account. Saving an existing id
// updates that row; ids owned by another account are rejected.
type UserStore struct {
	db   *sql.DB
	user string
}

func (u *UserStore) List(ctx context.Context) ([]domain.Reflection, error) {
	rows, err := u.db.QueryContext(ctx, `
		SELECT id, mood, guiding_question, text, ai_response, created_at
		FROM reflections
		WHERE user_id = $1 AND is_saved = true
		ORDER BY created_at DESC, id DESC`, u.user)
	if err != nil {
		return nil, classify("list", err)
	}
	defer rows.Close()

	out := []domain.Reflection{}
	for rows.Next() {
		var (
			r        domain.Reflection
			mood     string
			response sql.NullString
		)
		if err := rows.Scan(&r.ID, &mood, &r.GuidingQuestion, &r.WrittenText, &response, &r.CreatedAt); err != nil {
			return nil, classify("list scan", err)
		}
		r.Mood = domain.Mood(mood)
		r.CreatedAt = r.CreatedAt.UTC()
		if response.Valid {
			v := response.String
			r.GeneratedResponse = &v
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list", err)
	}
	return out, nil
}

func (u *UserStore) Save(ctx context.Context, r domain.Reflection) error {
	var response sql.NullString
	if r.GeneratedResponse != nil {
		response = sql.NullString{String: *r.GeneratedResponse, Valid: true}
	}

	res, err := u.db.ExecContext(ctx, `
		INSERT INTO reflections (id, user_id, mood, guiding_question, text, ai_response, created_at, is_saved)
		VALUES ($1, $2, $3, $4, $5, $6, $7, true)
		ON CONFLICT (id) DO UPDATE SET
			mood = EXCLUDED.mood,
			guiding_question = EXCLUDED.guiding_question,
			text = EXCLUDED.text,
			ai_response = EXCLUDED.ai_response,
			is_saved = true
		WHERE reflections.user_id = EXCLUDED.user_id`,
		string(r.ID), u.user, string(r.Mood), r.GuidingQuestion, r.WrittenText, response, r.CreatedAt)
	if err != nil {
		return classify("save", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return classify("save", err)
	}
	if n == 0 {
		return &domain.StorageError{Kind: domain.KindAuth, Op: "postgres save", Err: ErrForeignReflection}
	}
	return nil
}

func (u *UserStore) Delete(ctx context.Context, id domain.ReflectionID) error {
	_, err := u.db.ExecContext(ctx,
		`DELETE FROM reflections WHERE id = $1 AND user_id = $2`, string(id), u.user)
	return classify("delete", err)
}

func (u *UserStore) DeleteAll(ctx context.Context) error {
	_, err := u.db.ExecContext(ctx, `DELETE FROM reflections WHERE user_id = $1`, u.user)
	return classify("delete all", err)
}

// classify wraps err in a domain.StorageError so callers can tell network,
// auth and server failures apart.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	kind := domain.KindServer

	var (
		pqErr  *pq.Error
		netErr net.Error
	)
	switch {
	case errors.As(err, &pqErr):
		switch {
		case pqErr.Code.Class() == "28", pqErr.Code == "42501":
			// invalid_authorization_specification, insufficient_privilege
			kind = domain.KindAuth
		case pqErr.Code.Class() == "08", pqErr.Code.Class() == "57":
			// connection_exception, operator_intervention
			kind = domain.KindNetwork
		}
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr):
		kind = domain.KindNetwork
	}

	return &domain.StorageError{Kind: kind, Op: "postgres " + op, Err: err}
}
