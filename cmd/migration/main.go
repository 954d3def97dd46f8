// Package main applies the golang-migrate SQL migrations under db/migrations.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
)

type Globals struct {
	DBURL string `name:"db-url" help:"Postgres URL." env:"DB_URL,CST_DB__URI" required:""`
	Dir   string `help:"Migrations directory." env:"MIGRATIONS_DIR,MIGRATIONS_PATH"`
}

type cli struct {
	Globals

	Up      upCmd      `cmd:"" help:"Apply all pending migrations."`
	Down    downCmd    `cmd:"" help:"Roll back migrations."`
	Version versionCmd `cmd:"" help:"Print the current schema version."`
	Force   forceCmd   `cmd:"" help:"Set the schema version without running migrations."`
	Goto    gotoCmd    `cmd:"" aliases:"migrate" help:"Migrate up or down to a version."`
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("load .env: %v", err)
	}

	c := &cli{}
	kctx := kong.Parse(c,
		kong.Name(filepath.Base(os.Args[0])),
		kong.Description("Schema migrations for the match store."),
		kong.UsageOnError(),
	)
	kctx.FatalIfErrorf(kctx.Run(&c.Globals))
}

func (g *Globals) open() (*migrate.Migrate, func(), error) {
	dir, err := resolveMigrationsDir(g.Dir)
	if err != nil {
		return nil, nil, err
	}

	sourceURL := "file://" + filepath.ToSlash(dir)
	m, err := migrate.New(sourceURL, strings.TrimSpace(g.DBURL))
	if err != nil {
		return nil, nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, func() { closeMigrator(m) }, nil
}

type upCmd struct{}

func (upCmd) Run(g *Globals) error {
	m, closeFn, err := g.open()
	if err != nil {
		return err
	}
	defer closeFn()

	if err := ignoreNoChange(m.Up()); err != nil {
		return err
	}
	log.Printf("migrations applied")
	return nil
}

type downCmd struct {
	Steps int `arg:"" optional:"" default:"1" help:"Number of migrations to roll back."`
}

func (c downCmd) Run(g *Globals) error {
	if c.Steps <= 0 {
		return fmt.Errorf("down steps must be > 0")
	}
	m, closeFn, err := g.open()
	if err != nil {
		return err
	}
	defer closeFn()

	if err := ignoreNoChange(m.Steps(-c.Steps)); err != nil {
		return err
	}
	log.Printf("rolled back %d migration(s)", c.Steps)
	return nil
}

type versionCmd struct{}

func (versionCmd) Run(g *Globals) error {
	m, closeFn, err := g.open()
	if err != nil {
		return err
	}
	defer closeFn()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Println("version: none")
		fmt.Println("dirty: false")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	fmt.Printf("version: %d\n", version)
	fmt.Printf("dirty: %t\n", dirty)
	return nil
}

type forceCmd struct {
	Version int `arg:"" help:"Version to record."`
}

func (c forceCmd) Run(g *Globals) error {
	if c.Version < 0 {
		return fmt.Errorf("version must be >= 0")
	}
	m, closeFn, err := g.open()
	if err != nil {
		return err
	}
	defer closeFn()

	if err := m.Force(c.Version); err != nil {
		return fmt.Errorf("force version %d: %w", c.Version, err)
	}
	log.Printf("forced version to %d", c.Version)
	return nil
}

type gotoCmd struct {
	Version uint `arg:"" help:"Target version."`
}

func (c gotoCmd) Run(g *Globals) error {
	m, closeFn, err := g.open()
	if err != nil {
		return err
	}
	defer closeFn()

	if err := ignoreNoChange(m.Migrate(c.Version)); err != nil {
		return err
	}
	log.Printf("migrated to version %d", c.Version)
	return nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		log.Printf("no migration changes")
		return nil
	}
	return err
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		log.Printf("close migration source: %v", srcErr)
	}
	if dbErr != nil {
		log.Printf("close migration db: %v", dbErr)
	}
}

func resolveMigrationsDir(explicit string) (string, error) {
	candidates := []string{
		strings.TrimSpace(explicit),
		"./db/migrations",
		"/app/db/migrations",
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			continue
		}
		return abs, nil
	}

	return "", fmt.Errorf("migration directory not found (checked --dir, ./db/migrations, /app/db/migrations)")
}
