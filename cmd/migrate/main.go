package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"procura.io/internal/migrate"
	"procura.io/internal/obs"
	"procura.io/internal/store/pg"
)

func main() {
	_ = godotenv.Load()
	obs.Init(os.Getenv("APP_ENV"))
	defer obs.Sync()
	log := obs.Logger()

	dsn := flag.String("dsn", os.Getenv("PROCURA_PG_DSN"), "PostgreSQL DSN")
	flag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or PROCURA_PG_DSN")
	}
	if len(flag.Args()) == 0 {
		log.Fatal("usage: migrate [up|down|seed|status|pending]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatal("open db", zap.Error(err))
	}
	defer db.Close()

	mgr := migrate.NewManager(db, pg.Migrations(), pg.Seeds())

	cmd := flag.Arg(0)
	switch cmd {
	case "up":
		err = mgr.Up(ctx)
	case "down":
		err = mgr.Down(ctx)
	case "seed":
		err = mgr.Seed(ctx)
	case "status", "pending":
		var names []string
		if cmd == "status" {
			names, err = mgr.Status(ctx)
		} else {
			names, err = mgr.Pending(ctx)
		}
		for _, name := range names {
			fmt.Println(name)
		}
	default:
		log.Fatal("unknown command", zap.String("command", cmd))
	}
	if err != nil {
		log.Fatal("migrate failed", zap.String("command", cmd), zap.Error(err))
	}
	log.Info("migrate done", zap.String("command", cmd))
}
