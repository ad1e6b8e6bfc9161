package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/ticket-marketplace/internal/config"
)

// Open connects to MySQL and verifies the connection.
func Open(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	dsn := mysql.NewConfig()
	dsn.User = cfg.DBUser
	dsn.Passwd = cfg.DBPass
	dsn.Net = "tcp"
	dsn.Addr = cfg.DBHost + ":" + cfg.DBPort
	dsn.DBName = cfg.DBName
	// parseTime -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn.ParseTime = true
	dsn.Loc = time.UTC
	// RowsAffected reports matched rows, so conditional UPDATEs can tell
	// "no such row" from "nothing changed".
	dsn.ClientFoundRows = true
	dsn.Params = map[string]string{"charset": "utf8mb4"}

	db, err := sql.Open("mysql", dsn.FormatDSN())
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}
