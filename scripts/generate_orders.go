package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

type order struct {
	ID        string    `db:"id"`
	Status    string    `db:"status"`
	Total     float64   `db:"total"`
	CreatedAt time.Time `db:"created_at"`
}

const createOrders = `CREATE TABLE IF NOT EXISTS orders (
	id         VARCHAR(64) PRIMARY KEY,
	status     VARCHAR(16) NOT NULL,
	total      NUMERIC(10, 2) NOT NULL,
	created_at TIMESTAMP NOT NULL
)`

// Seeds an orders table so example tasks (purges, rollups) have rows to work on.
func main() {
	var (
		driver string
		dsn    string
		count  int
	)
	flag.StringVar(&driver, "driver", "sqlite3", "database/sql driver (sqlite3 or postgres)")
	flag.StringVar(&dsn, "dsn", "file:sqltask-demo.db", "Data source name")
	flag.IntVar(&count, "count", 25, "Number of orders to generate")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		panic(fmt.Errorf("connect failed: %w", err))
	}
	defer func() {
		_ = db.Close()
	}()

	if _, err := db.ExecContext(ctx, createOrders); err != nil {
		panic(fmt.Errorf("create table failed: %w", err))
	}

	statuses := []string{"pending", "paid", "shipped", "cancelled"}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	orders := make([]order, 0, count)
	for i := 0; i < count; i++ {
		orders = append(orders, order{
			ID:        fmt.Sprintf("order_%d_%06d", time.Now().Unix(), rng.Intn(1_000_000)),
			Status:    statuses[rng.Intn(len(statuses))],
			Total:     float64(10+rng.Intn(4900)) / 100.0,
			CreatedAt: time.Now().Add(-time.Duration(rng.Intn(720)) * time.Hour).UTC(),
		})
	}

	res, err := db.NamedExecContext(ctx,
		`INSERT INTO orders (id, status, total, created_at) VALUES (:id, :status, :total, :created_at)`, orders)
	if err != nil {
		panic(fmt.Errorf("insert failed: %w", err))
	}
	inserted, _ := res.RowsAffected()

	fmt.Printf("inserted %d orders via %s\n", inserted, driver)
	fmt.Printf("example task: DELETE FROM orders WHERE status = :status (--param status=%s)\n", orders[0].Status)
}
