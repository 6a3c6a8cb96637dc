package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/achufistov/shortypanel/internal/app/models"
)

// Postgres error codes mapped to domain errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	login TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	role_id SMALLINT NOT NULL
);
CREATE TABLE IF NOT EXISTS url (
	url_id BIGSERIAL PRIMARY KEY,
	url TEXT NOT NULL,
	user_id BIGINT NOT NULL REFERENCES users (id),
	short_url VARCHAR(8) NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS popularity (
	id BIGSERIAL PRIMARY KEY,
	visitor_ip VARCHAR(45) NOT NULL,
	url_id BIGINT NOT NULL REFERENCES url (url_id),
	visit_date TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS popularity_url_id_idx ON popularity (url_id);
CREATE INDEX IF NOT EXISTS url_user_id_idx ON url (user_id);
`

// DBStorage stores users, URLs and visits in PostgreSQL.
type DBStorage struct {
	db *sql.DB
}

// NewDBStorage connects to dsn and creates the schema if needed.
func NewDBStorage(ctx context.Context, dsn string) (*DBStorage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to establish connection for the database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := NewDBStorageWithDB(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewDBStorageWithDB wraps an open connection pool without touching the schema.
func NewDBStorageWithDB(db *sql.DB) *DBStorage {
	return &DBStorage{db: db}
}

// Migrate creates tables and indexes that do not exist yet.
func (s *DBStorage) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("unable to create schema: %w", err)
	}
	return nil
}

// dbError maps driver errors to domain errors
func dbError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgUniqueViolation:
			return models.ErrConflict
		case pgForeignKeyViolation:
			return models.ErrNotFound
		}
	}
	return fmt.Errorf("failed to %s: %w: %w", op, models.ErrStoreUnavailable, err)
}

// EnsureUser inserts user with its explicit id unless the id is taken, then moves the id
// sequence past it.
func (s *DBStorage) EnsureUser(ctx context.Context, user models.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, login, password, role_id) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING`,
		user.ID, user.Login, user.Password, int(user.Role))
	if err != nil {
		return dbError("ensure user", err)
	}

	_, err = s.db.ExecContext(ctx,
		`SELECT setval(pg_get_serial_sequence('users', 'id'), GREATEST((SELECT MAX(id) FROM users), 1))`)
	if err != nil {
		return dbError("advance user sequence", err)
	}
	return nil
}

func (s *DBStorage) CreateUser(ctx context.Context, login, passwordHash string, role models.Role) (models.User, error) {
	user := models.User{Login: login, Password: passwordHash, Role: role}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (login, password, role_id) VALUES ($1, $2, $3) RETURNING id`,
		login, passwordHash, int(role)).Scan(&user.ID)
	if err != nil {
		return models.User{}, dbError("create user", err)
	}
	return user, nil
}

func (s *DBStorage) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, login, password, role_id FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Login, &u.Password, &u.Role)
	if err != nil {
		return models.User{}, dbError("get user", err)
	}
	return u, nil
}

func (s *DBStorage) GetUserByLogin(ctx context.Context, login string) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, login, password, role_id FROM users WHERE login = $1`, login).
		Scan(&u.ID, &u.Login, &u.Password, &u.Role)
	if err != nil {
		return models.User{}, dbError("get user by login", err)
	}
	return u, nil
}

func (s *DBStorage) CountUsers(ctx context.Context, role models.Role) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role_id = $1`, int(role)).Scan(&n)
	if err != nil {
		return 0, dbError("count users", err)
	}
	return n, nil
}

func (s *DBStorage) ListUsers(ctx context.Context, role models.Role, offset, limit int) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, login, password, role_id FROM users WHERE role_id = $1 ORDER BY id LIMIT $2 OFFSET $3`,
		int(role), limit, offset)
	if err != nil {
		return nil, dbError("list users", err)
	}
	defer rows.Close()

	users := make([]models.User, 0, limit)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Login, &u.Password, &u.Role); err != nil {
			return nil, dbError("scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("iterate users", err)
	}
	return users, nil
}

func (s *DBStorage) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return dbError("update password", err)
	}
	return expectAffected(res, "update password")
}

func (s *DBStorage) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		// the user still owns urls
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgForeignKeyViolation {
			return models.ErrConflict
		}
		return dbError("delete user", err)
	}
	return expectAffected(res, "delete user")
}

func (s *DBStorage) CreateURL(ctx context.Context, url models.URL) (models.URL, error) {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO url (url, user_id, short_url) VALUES ($1, $2, $3) RETURNING url_id`,
		url.OriginalURL, url.UserID, url.ShortURL).Scan(&url.ID)
	if err != nil {
		return models.URL{}, dbError("create url", err)
	}
	return url, nil
}

func (s *DBStorage) GetURLByShort(ctx context.Context, shortURL string) (models.URL, error) {
	var u models.URL
	err := s.db.QueryRowContext(ctx,
		`SELECT url_id, url, user_id, short_url FROM url WHERE short_url = $1`, shortURL).
		Scan(&u.ID, &u.OriginalURL, &u.UserID, &u.ShortURL)
	if err != nil {
		return models.URL{}, dbError("get url", err)
	}
	return u, nil
}

func (s *DBStorage) GetURLByID(ctx context.Context, id int64) (models.URL, error) {
	var u models.URL
	err := s.db.QueryRowContext(ctx,
		`SELECT url_id, url, user_id, short_url FROM url WHERE url_id = $1`, id).
		Scan(&u.ID, &u.OriginalURL, &u.UserID, &u.ShortURL)
	if err != nil {
		return models.URL{}, dbError("get url by id", err)
	}
	return u, nil
}

func (s *DBStorage) CountURLs(ctx context.Context, ownerID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM url WHERE ($1 = 0 OR user_id = $1)`, ownerID).Scan(&n)
	if err != nil {
		return 0, dbError("count urls", err)
	}
	return n, nil
}

func (s *DBStorage) ListURLs(ctx context.Context, ownerID int64, offset, limit int) ([]models.URLStats, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT u.url_id, u.url, u.user_id, u.short_url,
		(SELECT COUNT(*) FROM popularity p WHERE p.url_id = u.url_id) AS visits
	FROM url u
	WHERE ($1 = 0 OR u.user_id = $1)
	ORDER BY u.url_id
	LIMIT $2 OFFSET $3`, ownerID, limit, offset)
	if err != nil {
		return nil, dbError("list urls", err)
	}
	defer rows.Close()

	out := make([]models.URLStats, 0, limit)
	for rows.Next() {
		var r models.URLStats
		if err := rows.Scan(&r.ID, &r.OriginalURL, &r.UserID, &r.ShortURL, &r.Visits); err != nil {
			return nil, dbError("scan url", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("iterate urls", err)
	}
	return out, nil
}

func (s *DBStorage) ListURLIDsByUser(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url_id FROM url WHERE user_id = $1 ORDER BY url_id`, userID)
	if err != nil {
		return nil, dbError("list url ids", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, dbError("scan url id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("iterate url ids", err)
	}
	return ids, nil
}

// DeleteURL removes the visits of a URL and then the URL in one transaction.
func (s *DBStorage) DeleteURL(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dbError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM popularity WHERE url_id = $1`, id); err != nil {
		return dbError("delete visits", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM url WHERE url_id = $1`, id)
	if err != nil {
		return dbError("delete url", err)
	}
	if err := expectAffected(res, "delete url"); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return dbError("commit transaction", err)
	}
	return nil
}

func (s *DBStorage) AddVisit(ctx context.Context, visit models.Visit) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO popularity (visitor_ip, url_id, visit_date) VALUES ($1, $2, $3)`,
		visit.VisitorIP, visit.URLID, visit.VisitDate)
	if err != nil {
		return dbError("add visit", err)
	}
	return nil
}

func (s *DBStorage) CountVisits(ctx context.Context, urlID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM popularity WHERE url_id = $1`, urlID).Scan(&n)
	if err != nil {
		return 0, dbError("count visits", err)
	}
	return n, nil
}

func (s *DBStorage) ListVisits(ctx context.Context, urlID int64, offset, limit int) ([]models.Visit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, visitor_ip, url_id, visit_date FROM popularity WHERE url_id = $1 ORDER BY id LIMIT $2 OFFSET $3`,
		urlID, limit, offset)
	if err != nil {
		return nil, dbError("list visits", err)
	}
	defer rows.Close()

	visits := make([]models.Visit, 0, limit)
	for rows.Next() {
		var v models.Visit
		if err := rows.Scan(&v.ID, &v.VisitorIP, &v.URLID, &v.VisitDate); err != nil {
			return nil, dbError("scan visit", err)
		}
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("iterate visits", err)
	}
	return visits, nil
}

func (s *DBStorage) Stats(ctx context.Context) (models.Stats, error) {
	var st models.Stats
	err := s.db.QueryRowContext(ctx, `
	SELECT
		(SELECT COUNT(*) FROM url),
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM popularity)`).Scan(&st.URLs, &st.Users, &st.Visits)
	if err != nil {
		return models.Stats{}, dbError("get stats", err)
	}
	return st, nil
}

func (s *DBStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *DBStorage) Close() error {
	return s.db.Close()
}

func expectAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return dbError(op, err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}
