package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/astro-otter/otter"
	"github.com/astro-otter/otter/internal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

func runInitDB(args []string) error {
	flags := flag.NewFlagSet("init-db", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: otter-tools init-db [options]")
		fmt.Println("")
		fmt.Println("Options:")
		flags.PrintDefaults()
	}

	opts := dbFlags{}
	opts.register(flags)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := opts.load()
	if err != nil {
		return err
	}
	return initDatabase(context.Background(), cfg.Database)
}

func initDatabase(ctx context.Context, db otter.DatabaseConfig) error {
	stmts, err := internal.TransientTableDDL(db.TableName)
	if err != nil {
		return err
	}

	connString := buildConnString(ctx, db)
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return fmt.Errorf("create connection pool: %w", err)
	}
	defer pool.Close()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if err := withTx(ctx, conn, func(tx pgx.Tx) error {
		return ensureTables(ctx, tx, stmts)
	}); err != nil {
		return err
	}

	fmt.Printf("Created transient table: %s\n", db.TableName)
	fmt.Println("Database initialized successfully.")
	return nil
}

func buildConnString(ctx context.Context, db otter.DatabaseConfig) string {
	return db.DSNWithPassword(internal.ResolveDatabasePassword(ctx, db))
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func ensureTables(ctx context.Context, tx execer, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure transient table: %w", err)
		}
	}
	return nil
}

func withTx(ctx context.Context, conn *pgxpool.Conn, fn func(pgx.Tx) error) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w; rollback failed: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}
