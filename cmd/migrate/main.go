package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/lib/pq"

	"newsletter-go/internal/config"
	"newsletter-go/internal/repository"
	"newsletter-go/migrations"
)

func main() {
	dir := flag.String("dir", "", "read *.sql from this directory instead of the embedded migrations")
	createDB := flag.Bool("create-db", false, "create the configured database before migrating")
	flag.Parse()

	settings, err := config.Load()
	if err != nil {
		log.Fatalf("read configuration: %v", err)
	}
	dbSettings := settings.Database

	ctx := context.Background()

	if *createDB {
		server, err := repository.ConnectDSN(ctx, dbSettings.ConnectionStringWithoutDB(), dbSettings)
		if err != nil {
			log.Fatalf("connect: %v", err)
		}
		if _, err := server.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(dbSettings.DatabaseName)); err != nil {
			log.Printf("create database %s: %v", dbSettings.DatabaseName, err)
		}
		_ = server.Close()
	}

	db, err := repository.Connect(ctx, dbSettings)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer db.Close()
	log.Printf("Connected to %s", dbSettings.DatabaseName)

	var fsys fs.FS = migrations.FS
	source := "embedded"
	if *dir != "" {
		fsys = os.DirFS(*dir)
		source = *dir
	}

	ran, err := repository.Migrate(ctx, db, fsys)
	if err != nil {
		log.Fatalf("migrate (%s): %v", source, err)
	}

	for _, v := range ran {
		fmt.Println("  applied", v)
	}
	fmt.Printf("Done: %d migration(s) applied\n", len(ran))
}
