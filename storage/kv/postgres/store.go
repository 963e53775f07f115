package postgreskv

import (
	"database/sql"
	"embed"
	"net/url"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/luminastudy/lumina/core"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store keeps each record as a row in a two-column table. The single-row
// upsert gives the same atomic-flush guarantee as the other engines.
type Store struct {
	db *sqlx.DB
}

var _ core.KVStore = (*Store)(nil)

func Open(conf *core.Config) (*Store, error) {
	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   conf.Database.Engine,
		User:     url.UserPassword(conf.Database.User, conf.Database.Password),
		Host:     conf.DatabaseAddress(),
		Path:     conf.Database.Name,
		RawQuery: q.Encode(),
	}

	db, err := sqlx.Connect(conf.Database.Engine, u.String())
	if err != nil {
		return nil, errors.Wrap(err, "connecting to database")
	}
	if err := migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	return RunMigration("up", db)
}

// RunMigration executes a goose command against the embedded migrations.
func RunMigration(command string, db *sql.DB, args ...string) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "setting goose dialect")
	}
	return errors.Wrapf(goose.Run(command, db, "migrations", args...), "migrate %s", command)
}

// DB exposes the underlying handle for migration tooling.
func (s *Store) DB() *sql.DB { return s.db.DB }

func (s *Store) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.Get(&value, `SELECT value FROM record WHERE key = $1`, key)
	if err == sql.ErrNoRows {
		return nil, core.ErrKeyNotFound
	}
	return value, errors.Wrapf(err, "getting %s", key)
}

func (s *Store) Set(key string, value []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO record (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value,
	)
	return errors.Wrapf(err, "setting %s", key)
}

func (s *Store) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM record WHERE key = $1`, key)
	return errors.Wrapf(err, "deleting %s", key)
}

func (s *Store) Close() error { return s.db.Close() }
