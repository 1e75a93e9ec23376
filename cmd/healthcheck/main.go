package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite"
)

// Container healthcheck: the vault is healthy when its database opens and
// answers a ping within the timeout.
func main() {
	os.Exit(check())
}

func check() int {
	dbPath := os.Getenv("CREDVAULT_DB_PATH")
	if dbPath == "" {
		dbPath = "credvault.db"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(1000)", dbPath))
	if err != nil {
		return 1
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return 1
	}

	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM credentials").Scan(&n); err != nil {
		return 1
	}

	return 0
}
