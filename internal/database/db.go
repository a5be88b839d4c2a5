package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

// Open connects to the audit database and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = pass
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%s", host, port)
	cfg.DBName = name
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.Params = map[string]string{"charset": "utf8mb4"}

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, errors.Wrap(err, "open mysql")
	}

	// The gateway only appends audit rows; a small pool is enough.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping mysql")
	}
	return db, nil
}

const schema = `CREATE TABLE IF NOT EXISTS approval_decisions (
	id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	task_id     BIGINT       NOT NULL,
	subject     VARCHAR(255) NOT NULL,
	option_id   BIGINT       NOT NULL,
	option_code VARCHAR(32)  NOT NULL,
	note        TEXT         NOT NULL,
	username    VARCHAR(128) NOT NULL,
	head_office VARCHAR(64)  NOT NULL DEFAULT '',
	answered_at DATETIME     NOT NULL,
	UNIQUE KEY uq_approval_decisions_task (task_id),
	KEY idx_approval_decisions_user (username, answered_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// Migrate creates the tables the gateway writes to.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return errors.Wrap(err, "migrate approval_decisions")
}
