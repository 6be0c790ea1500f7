package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/cartelabolao/cartela-admin/pkg/config"
	"github.com/cartelabolao/cartela-admin/pkg/db"
	"github.com/cartelabolao/cartela-admin/pkg/logger"
	"github.com/cartelabolao/cartela-admin/pkg/migrate"
)

func main() {
	cmd := flag.String("cmd", "up", "up|down|status|version|create|validate")
	dir := flag.String("dir", "", "migrations directory (empty uses the files built into the binary)")
	name := flag.String("name", "", "migration name for -cmd=create")
	version := flag.String("version", "", "target YYYYMMDDHHMMSS for -cmd=version")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	switch *cmd {
	case "create":
		target := *dir
		if target == "" {
			target = migrate.DefaultDir
		}
		if *name == "" {
			fail("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(target, *name)
		if err != nil {
			fail("create migration: %v", err)
		}
		fmt.Println("created", path)
		return

	case "validate":
		source, err := migrate.Source(*dir)
		if err != nil {
			fail("%v", err)
		}
		if err := migrate.Validate(source); err != nil {
			fail("validation failed: %v", err)
		}
		fmt.Println("migrations valid")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "cmd": *cmd})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	if dbClient.IsSQLite() {
		fail("goose migrations target postgres; sqlite schemas are built from models at boot")
	}

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		logg.Error(ctx, "failed to extract sql.DB", err)
		os.Exit(1)
	}
	source, err := migrate.Source(*dir)
	if err != nil {
		fail("%v", err)
	}
	runner, err := migrate.NewRunner(sqlDB, source, logg)
	if err != nil {
		logg.Error(ctx, "failed to create migration runner", err)
		os.Exit(1)
	}

	switch *cmd {
	case "up":
		err = runner.Up(ctx)
	case "down":
		err = runner.Down(ctx)
	case "version":
		if *version == "" {
			fail("missing -version for version command")
		}
		err = runner.To(ctx, *version)
	case "status":
		err = printStatus(ctx, runner)
	default:
		fail("unknown -cmd value: %s", *cmd)
	}
	if err != nil {
		logg.Error(ctx, "migration command failed", err)
		os.Exit(1)
	}
}

func printStatus(ctx context.Context, runner *migrate.Runner) error {
	lines, err := runner.Status(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tAPPLIED AT\tFILE")
	for _, line := range lines {
		applied := "pending"
		if line.Applied {
			applied = line.AppliedAt
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", line.Version, applied, line.File)
	}
	return w.Flush()
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
