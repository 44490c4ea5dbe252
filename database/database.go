package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	mysqldriver "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

const (
	EngineMySQL  = "mysql"
	EngineSQLite = "sqlite"
)

type Options struct {
	Engine       string
	URI          string
	MaxOpenConns int
	MaxIdleConns int
	// ConnTimeout bounds how long Open keeps retrying the initial ping.
	ConnTimeout time.Duration
}

// Open connects to the configured engine and waits until the database answers.
func Open(ctx context.Context, opts Options) (*sql.DB, error) {
	driver, dsn, err := driverDSN(opts.Engine, opts.URI)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", opts.Engine, err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = opts.ConnTimeout
	if policy.MaxElapsedTime == 0 {
		policy.MaxElapsedTime = time.Minute
	}
	err = backoff.Retry(func() error {
		return db.PingContext(ctx)
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize %s connection: %w", opts.Engine, err)
	}

	if opts.Engine == EngineSQLite {
		// one writer; queries inside a transaction must go through the tx
		db.SetMaxOpenConns(1)
	} else {
		if opts.MaxOpenConns > 0 {
			db.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			db.SetMaxIdleConns(opts.MaxIdleConns)
		}
	}

	slog.Info("database connected", "engine", opts.Engine)
	return db, nil
}

func driverDSN(engine, uri string) (string, string, error) {
	switch engine {
	case EngineMySQL:
		cfg, err := mysqldriver.ParseDSN(uri)
		if err != nil {
			return "", "", fmt.Errorf("invalid database uri: %w", err)
		}
		cfg.ParseTime = true
		cfg.Loc = time.UTC
		return "mysql", cfg.FormatDSN(), nil
	case EngineSQLite:
		dsn, err := PrepareSQLiteDSN(uri)
		if err != nil {
			return "", "", err
		}
		return "sqlite", dsn, nil
	case "":
		return "", "", fmt.Errorf("missing datastore engine type")
	default:
		return "", "", fmt.Errorf("unknown datastore engine type: %s", engine)
	}
}

// PrepareSQLiteDSN adds WAL journaling, a busy timeout, immediate transactions
// and a sortable time format unless the uri already sets them.
func PrepareSQLiteDSN(uri string) (string, error) {
	query := url.Values{}
	var err error

	if i := strings.Index(uri, "?"); i != -1 {
		query, err = url.ParseQuery(uri[i+1:])
		if err != nil {
			return uri, fmt.Errorf("error parsing dsn: %w", err)
		}
		uri = uri[:i]
	}

	foundJournalMode := false
	foundBusyTimeout := false
	for _, val := range query["_pragma"] {
		if strings.HasPrefix(val, "journal_mode") {
			foundJournalMode = true
		} else if strings.HasPrefix(val, "busy_timeout") {
			foundBusyTimeout = true
		}
	}
	if !foundJournalMode {
		query.Add("_pragma", "journal_mode(WAL)")
	}
	if !foundBusyTimeout {
		query.Add("_pragma", "busy_timeout(5000)")
	}
	if !query.Has("_txlock") {
		query.Set("_txlock", "immediate")
	}
	if !query.Has("_time_format") {
		query.Set("_time_format", "sqlite")
	}

	return uri + "?" + query.Encode(), nil
}
