package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/xor-shift/streamrng/bench"
	"github.com/xor-shift/streamrng/common"
	"github.com/xor-shift/streamrng/util"
)

const Schema = "CREATE TABLE IF NOT EXISTS bench_runs (" +
	"run_id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY" +
	", insert_time TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP" +
	", started_at DATETIME(6) NOT NULL" +
	", engine VARCHAR(32) NOT NULL" +
	", mode VARCHAR(16) NOT NULL" +
	", words BIGINT UNSIGNED NOT NULL" +
	", threads INT NOT NULL" +
	", trials INT NOT NULL" +
	", seed BIGINT UNSIGNED NOT NULL" +
	", best_ns BIGINT NOT NULL" +
	", checksums TEXT NOT NULL" +
	", INDEX (engine)" +
	")"

const (
	insertQuery = "INSERT INTO bench_runs (started_at, engine, mode, words, threads, trials, seed, best_ns, checksums)" +
		" VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"

	selectQuery = "SELECT started_at, engine, mode, words, threads, trials, seed, best_ns, checksums" +
		" FROM bench_runs WHERE engine=? ORDER BY run_id"
)

type Store struct {
	db *sql.DB
}

// DSN builds the MySQL data source name from the DB_* settings.
func DSN(cfg common.Config) string {
	dbConfig := mysql.Config{
		User:                 cfg.DBUser,
		Passwd:               cfg.DBPassword,
		Addr:                 cfg.DBAddress,
		DBName:               cfg.DBName,
		Collation:            "utf8mb4_general_ci",
		Net:                  "tcp",
		AllowNativePasswords: true,
		ParseTime:            true,
	}

	return dbConfig.FormatDSN()
}

// Connect opens MySQL with the DB_* settings and prepares the schema.
func Connect(ctx context.Context, cfg common.Config) (*Store, error) {
	db, err := sql.Open("mysql", DSN(cfg))
	if err != nil {
		return nil, errors.Wrap(err, "opening mysql")
	}

	s, err := Prepare(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Prepare wraps db and creates the tables if they do not exist yet.
func Prepare(ctx context.Context, db *sql.DB) (*Store, error) {
	s := New(db)
	if err := s.Migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, Schema)
	return errors.Wrap(err, "creating bench_runs")
}

// SaveRuns inserts all results in one transaction.
func (s *Store) SaveRuns(ctx context.Context, results []bench.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		return errors.Wrap(err, "preparing insert")
	}
	defer stmt.Close()

	for _, r := range results {
		if _, err = stmt.ExecContext(ctx,
			r.StartedAt, r.Engine, string(r.Mode), r.Words, r.Threads, r.Trials, r.Seed,
			r.Best.Nanoseconds(), util.ArrayToString(r.Checksums),
		); err != nil {
			return errors.Wrapf(err, "inserting %s run", r.Engine)
		}
	}

	return errors.Wrap(tx.Commit(), "committing runs")
}

func (s *Store) Runs(ctx context.Context, engine string) ([]bench.Result, error) {
	rows, err := s.db.QueryContext(ctx, selectQuery, engine)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching runs of %s", engine)
	}
	defer rows.Close()

	var results []bench.Result
	for i := 0; rows.Next(); i++ {
		var r bench.Result
		var mode, checksums string
		var bestNS int64

		if err = rows.Scan(&r.StartedAt, &r.Engine, &mode, &r.Words, &r.Threads, &r.Trials, &r.Seed, &bestNS, &checksums); err != nil {
			return nil, errors.Wrapf(err, "reading row %d of %s", i, engine)
		}

		r.Mode = bench.Mode(mode)
		r.Best = time.Duration(bestNS)
		if r.Checksums, err = ParseChecksums(checksums); err != nil {
			return nil, errors.Wrapf(err, "row %d of %s", i, engine)
		}

		results = append(results, r)
	}

	return results, errors.Wrap(rows.Err(), "iterating runs")
}

// ParseChecksums reverses util.ArrayToString for 32-bit words.
func ParseChecksums(s string) ([]uint32, error) {
	if len(s)%8 != 0 {
		return nil, errors.Errorf("checksum string of length %d is not a multiple of 8", len(s))
	}

	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "decoding checksums")
	}

	out := make([]uint32, len(raw)/4)
	for i := range out {
		b := raw[i*4:]
		out[i] = uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	}

	return out, nil
}
