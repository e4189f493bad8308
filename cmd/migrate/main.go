package main

import (
	"context"
	"crypto/sha256"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/efinance/internal/config"
	"github.com/dvloznov/efinance/internal/logger"
)

// Migration represents a single migration file
type Migration struct {
	Version  int
	Name     string
	Filename string
	SQL      string
	Checksum string
}

// AppliedMigration represents a migration that has already been applied
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
	Checksum  string
	AppliedBy string
}

// migrationPattern matches migration files: 0001_name.sql
var migrationPattern = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

func main() {
	cfg, err := config.Load(config.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	var (
		projectID     = flag.String("project", cfg.GCPProject, "GCP project ID (or EFINANCE_GCP_PROJECT)")
		datasetID     = flag.String("dataset", cfg.BQDataset, "BigQuery dataset ID")
		appliedBy     = flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
		migrationsDir = flag.String("migrations", "migrations/bigquery", "Path to migrations directory")
		dryRun        = flag.Bool("dry-run", false, "List pending migrations without applying them")
	)
	flag.Parse()

	log, err := logger.NewFromConfig(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	if *projectID == "" {
		log.Fatal().Msg("Error: -project flag is required. Please specify your GCP project ID.")
	}

	ctx := context.Background()

	dir, err := resolveDir(*migrationsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to locate migrations")
	}
	migrations, err := readMigrations(dir, *projectID, *datasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read migrations")
	}
	log.Info().Int("count", len(migrations)).Str("dir", dir).Msg("Found migration files")

	client, err := bigquery.NewClient(ctx, *projectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer client.Close()

	log.Info().Str("project", *projectID).Str("dataset", *datasetID).Msg("Connected to BigQuery")

	m := &migrator{client: client, projectID: *projectID, datasetID: *datasetID, appliedBy: *appliedBy}

	if err := m.ensureSchemaMigrationsTable(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure schema_migrations table")
	}

	applied, err := m.getAppliedMigrations(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get applied migrations")
	}
	log.Info().Int("count", len(applied)).Msg("Found already applied migrations")

	todo, mismatched := pendingMigrations(migrations, applied)
	for _, mm := range mismatched {
		log.Warn().
			Int("version", mm.Version).
			Str("name", mm.Name).
			Msg("Applied migration file has changed since it was applied")
	}

	for _, migration := range todo {
		mlog := log.With().Str("migration", fmt.Sprintf("%04d_%s", migration.Version, migration.Name)).Logger()
		if *dryRun {
			mlog.Info().Msg("[DRY RUN] Would apply migration")
			continue
		}

		mlog.Info().Msg("Applying migration")
		if err := m.run(ctx, migration.SQL, nil); err != nil {
			mlog.Fatal().Err(err).Msg("Failed to execute migration")
		}
		if err := m.recordMigration(ctx, migration); err != nil {
			mlog.Fatal().Err(err).Msg("Failed to record migration")
		}
		mlog.Info().Msg("Migration applied")
	}

	if len(todo) == 0 {
		log.Info().Msg("No new migrations to apply. Database is up to date.")
	} else if !*dryRun {
		log.Info().Int("applied", len(todo)).Msg("Successfully applied migrations")
	}
}

// resolveDir finds dir relative to the working directory, or two levels up
// when run from cmd/migrate.
func resolveDir(dir string) (string, error) {
	if _, err := os.Stat(dir); err == nil {
		return dir, nil
	}
	alt := filepath.Join("..", "..", dir)
	if _, err := os.Stat(alt); err == nil {
		return alt, nil
	}
	return "", fmt.Errorf("migrations directory not found: %s", dir)
}

// parseMigrationFilename returns the version and name encoded in a file name.
func parseMigrationFilename(filename string) (int, string, bool) {
	matches := migrationPattern.FindStringSubmatch(filename)
	if matches == nil {
		return 0, "", false
	}
	version, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, "", false
	}
	return version, matches[2], true
}

// readMigrations reads every migration in dir, sorted by version, with the
// project and dataset placeholders filled in. The checksum covers the file as
// written, before substitution.
func readMigrations(dir, projectID, datasetID string) ([]Migration, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	var migrations []Migration
	seen := make(map[int]string)
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		version, name, ok := parseMigrationFilename(file.Name())
		if !ok {
			continue
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("duplicate migration version %04d: %s and %s", version, prev, file.Name())
		}
		seen[version] = file.Name()

		content, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", file.Name(), err)
		}

		sql := string(content)
		sql = strings.ReplaceAll(sql, "{{PROJECT_ID}}", projectID)
		sql = strings.ReplaceAll(sql, "{{DATASET_ID}}", datasetID)

		migrations = append(migrations, Migration{
			Version:  version,
			Name:     name,
			Filename: file.Name(),
			SQL:      sql,
			Checksum: fmt.Sprintf("%x", sha256.Sum256(content)),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// pendingMigrations returns the migrations not yet applied, and the applied
// ones whose file checksum no longer matches.
func pendingMigrations(all []Migration, applied []AppliedMigration) (todo, mismatched []Migration) {
	byVersion := make(map[int]AppliedMigration, len(applied))
	for _, am := range applied {
		byVersion[am.Version] = am
	}
	for _, m := range all {
		am, ok := byVersion[m.Version]
		if !ok {
			todo = append(todo, m)
			continue
		}
		if am.Checksum != "" && am.Checksum != m.Checksum {
			mismatched = append(mismatched, m)
		}
	}
	return todo, mismatched
}

type migrator struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	appliedBy string
}

func (m *migrator) table() string {
	return fmt.Sprintf("`%s.%s.schema_migrations`", m.projectID, m.datasetID)
}

// run executes one statement or script and waits for it.
func (m *migrator) run(ctx context.Context, sql string, params []bigquery.QueryParameter) error {
	query := m.client.Query(sql)
	query.Parameters = params

	job, err := query.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}

// ensureSchemaMigrationsTable creates the schema_migrations table if it doesn't exist
func (m *migrator) ensureSchemaMigrationsTable(ctx context.Context) error {
	return m.run(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version       INT64 NOT NULL,
			name          STRING NOT NULL,
			applied_at    TIMESTAMP NOT NULL,
			checksum      STRING,
			applied_by    STRING
		)
	`, m.table()), nil)
}

// getAppliedMigrations retrieves the list of already applied migrations
func (m *migrator) getAppliedMigrations(ctx context.Context) ([]AppliedMigration, error) {
	query := m.client.Query(fmt.Sprintf(`
		SELECT version, name, applied_at, checksum, applied_by
		FROM %s
		ORDER BY version ASC
	`, m.table()))

	it, err := query.Read(ctx)
	if err != nil {
		// If table doesn't exist yet, return empty list
		if strings.Contains(err.Error(), "Not found") {
			return []AppliedMigration{}, nil
		}
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}

	var applied []AppliedMigration
	for {
		var row struct {
			Version   int64               `bigquery:"version"`
			Name      string              `bigquery:"name"`
			AppliedAt time.Time           `bigquery:"applied_at"`
			Checksum  bigquery.NullString `bigquery:"checksum"`
			AppliedBy bigquery.NullString `bigquery:"applied_by"`
		}

		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating results: %w", err)
		}

		applied = append(applied, AppliedMigration{
			Version:   int(row.Version),
			Name:      row.Name,
			AppliedAt: row.AppliedAt,
			Checksum:  row.Checksum.StringVal,
			AppliedBy: row.AppliedBy.StringVal,
		})
	}
	return applied, nil
}

// recordMigration records a successfully applied migration in schema_migrations
func (m *migrator) recordMigration(ctx context.Context, migration Migration) error {
	return m.run(ctx, fmt.Sprintf(`
		INSERT INTO %s
		(version, name, applied_at, checksum, applied_by)
		VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)
	`, m.table()), []bigquery.QueryParameter{
		{Name: "version", Value: migration.Version},
		{Name: "name", Value: migration.Name},
		{Name: "checksum", Value: migration.Checksum},
		{Name: "applied_by", Value: m.appliedBy},
	})
}
