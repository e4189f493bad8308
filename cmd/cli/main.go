package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/efinance/internal/config"
	"github.com/dvloznov/efinance/internal/csvimport"
	"github.com/dvloznov/efinance/internal/domain"
	"github.com/dvloznov/efinance/internal/gcsuploader"
	"github.com/dvloznov/efinance/internal/importer"
	"github.com/dvloznov/efinance/internal/infra"
	"github.com/dvloznov/efinance/internal/logger"
	"github.com/dvloznov/efinance/internal/notionsync"
	"github.com/dvloznov/efinance/internal/sip"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	cfg, err := config.Load(config.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.NewFromConfig(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "import":
		runImport(cfg, log, os.Args[2:])
	case "sip":
		if err := runSIP(os.Stdout, os.Args[2:]); err != nil {
			log.Fatal().Err(err).Msg("SIP calculation failed")
		}
	case "upload":
		runUpload(cfg, log, os.Args[2:])
	case "export-notion":
		runExportNotion(cfg, log, os.Args[2:])
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage(os.Stderr)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "efinance CLI")
	fmt.Fprintln(w, "\nUsage:")
	fmt.Fprintln(w, "  cli <command> [options]")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  import         Import a bank statement CSV (local path or gs:// URI)")
	fmt.Fprintln(w, "  sip            Project a monthly SIP")
	fmt.Fprintln(w, "  upload         Upload a statement file to GCS")
	fmt.Fprintln(w, "  export-notion  Export a month of records to a Notion database")
	fmt.Fprintln(w, "  help           Show this help message")
	fmt.Fprintln(w, "\nRun 'cli <command> -h' for more information on a command.")
}

func runImport(cfg *config.Config, log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	userID := fs.String("user", "", "User ID owning the imported transactions (required)")
	file := fs.String("file", "", "Local CSV path or gs:// URI (required)")
	store := fs.String("store", cfg.Store, "Storage backend: bigquery or memory")
	monthFirst := fs.Bool("month-first", !cfg.DateDayFirst, "Read ambiguous dates as MM/DD/YYYY")
	strict := fs.Bool("strict-dates", false, "Skip rows with unparseable dates instead of using today")
	fs.Parse(args)

	if *userID == "" || *file == "" {
		log.Fatal().Msg("Usage: cli import -user ID -file PATH|gs://bucket/object")
	}
	cfg.Store = *store
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	up, err := openUpload(ctx, *file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Failed to open statement")
	}

	repo, err := infra.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer repo.Close()

	normalizer := csvimport.NewNormalizer(csvimport.Options{MonthFirst: *monthFirst, StrictDates: *strict})
	svc := importer.NewService(repo, repo, nil, normalizer, log)

	summary, err := svc.Import(ctx, *userID, up)
	if summary != nil {
		printSummary(os.Stdout, summary)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}
}

// openUpload reads a local file or a gs:// object into an Upload.
func openUpload(ctx context.Context, file string) (importer.Upload, error) {
	var data []byte
	name := filepath.Base(file)

	if strings.HasPrefix(file, "gs://") {
		bucket, _, err := gcsuploader.ParseGCSURI(file)
		if err != nil {
			return importer.Upload{}, err
		}
		svc, err := gcsuploader.NewStorageService(ctx, bucket)
		if err != nil {
			return importer.Upload{}, err
		}
		defer svc.Close()
		if data, err = svc.Fetch(ctx, file); err != nil {
			return importer.Upload{}, err
		}
		name = gcsuploader.ExtractFilenameFromGCSURI(file)
	} else {
		var err error
		if data, err = os.ReadFile(file); err != nil {
			return importer.Upload{}, fmt.Errorf("read %s: %w", file, err)
		}
	}

	return importer.Upload{
		Name: name,
		Size: int64(len(data)),
		Body: bytes.NewReader(data),
	}, nil
}

func printSummary(w io.Writer, s *importer.Summary) {
	fmt.Fprintf(w, "Import run:  %s\n", s.RunID)
	fmt.Fprintf(w, "Format:      %s\n", s.Format)
	fmt.Fprintf(w, "Result:      %s\n", s.Message)
	fmt.Fprintf(w, "Skipped:     %d\n", s.Skipped)
	fmt.Fprintf(w, "Failed:      %d\n", s.Failed)
	for _, sk := range s.Skips {
		fmt.Fprintf(w, "  row %d skipped: %s\n", sk.Row, sk.Reason)
	}
	for _, f := range s.Failures {
		fmt.Fprintf(w, "  row %d not saved: %s\n", f.Row, f.Reason)
	}
}

func runSIP(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("sip", flag.ContinueOnError)
	contribution := fs.Float64("contribution", 5000, "Monthly contribution")
	rate := fs.Float64("rate", 12, "Expected annual return in percent")
	years := fs.Int("years", 10, "Duration in years")
	if err := fs.Parse(args); err != nil {
		return err
	}

	proj, err := sip.Calculate(sip.Params{
		MonthlyContribution: *contribution,
		AnnualRatePercent:   *rate,
		DurationYears:       *years,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Total invested:  %.2f\n", proj.TotalInvestment)
	fmt.Fprintf(w, "Interest earned: %.2f\n", proj.InterestEarned)
	fmt.Fprintf(w, "Maturity value:  %.2f\n\n", proj.MaturityValue)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Year\tInvested\tValue\tInterest\t")
	for _, y := range proj.YearlyBreakdown {
		fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%.2f\t\n", y.Year, y.Investment, y.Value, y.Interest)
	}
	return tw.Flush()
}

func runUpload(cfg *config.Config, log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	bucketName := fs.String("bucket", cfg.GCSBucket, "GCS bucket name")
	objectName := fs.String("object", "", "GCS object name (defaults to filename)")
	filePath := fs.String("file", "", "Path to local statement file")
	fs.Parse(args)

	if *bucketName == "" || *filePath == "" {
		log.Fatal().Msg("Usage: cli upload -bucket NAME -file PATH")
	}
	if *objectName == "" {
		*objectName = filepath.Base(*filePath)
	}

	ctx := logger.WithContext(context.Background(), log)

	svc, err := gcsuploader.NewStorageService(ctx, *bucketName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	defer svc.Close()

	log.Info().
		Str("bucket", *bucketName).
		Str("object", *objectName).
		Str("file", *filePath).
		Msg("Uploading file to GCS")

	uri, err := svc.Upload(ctx, *objectName, *filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to %s\n", *filePath, uri)
}

func runExportNotion(cfg *config.Config, log zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("export-notion", flag.ExitOnError)
	userID := fs.String("user", "", "User ID whose records to export (required)")
	kindName := fs.String("kind", "transactions", "Record kind: transactions, expenses or investments")
	month := fs.String("month", "", "Month 1-12 (required)")
	year := fs.String("year", "", "Year, e.g. 2025 (required)")
	notionToken := fs.String("notion-token", cfg.NotionToken, "Notion API token (or EFINANCE_NOTION_TOKEN)")
	notionDBID := fs.String("notion-db-id", "", "Notion database ID (required)")
	store := fs.String("store", cfg.Store, "Storage backend: bigquery or memory")
	dryRun := fs.Bool("dry-run", false, "Dry run mode - preview changes without writing to Notion")
	update := fs.Bool("update", false, "Rewrite pages that already exist")
	prune := fs.Bool("prune", false, "Archive pages whose record was deleted")
	fs.Parse(args)

	opts, err := exportArgs(*userID, *kindName, *month, *year, *notionToken, *notionDBID)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid arguments")
	}
	cfg.Store = *store
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	repo, err := infra.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer repo.Close()

	res, err := notionsync.ExportRecords(ctx, repo, notionsync.NewNotionClient(*notionToken, 0), *notionDBID,
		opts.kind, *userID, opts.period, notionsync.ExportOptions{DryRun: *dryRun, Update: *update, Prune: *prune})
	if err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}

	fmt.Printf("Export completed: %d created, %d updated, %d skipped, %d archived, %d failed (of %d)\n",
		res.Created, res.Updated, res.Skipped, res.Archived, res.Failed, res.Total)
}

type exportTarget struct {
	kind   domain.Kind
	period domain.Period
}

// exportArgs validates the export-notion flags.
func exportArgs(userID, kindName, month, year, token, databaseID string) (exportTarget, error) {
	switch {
	case userID == "":
		return exportTarget{}, errors.New("--user is required")
	case token == "":
		return exportTarget{}, errors.New("--notion-token is required")
	case databaseID == "":
		return exportTarget{}, errors.New("--notion-db-id is required")
	}
	kind, err := domain.ParseKind(kindName)
	if err != nil {
		return exportTarget{}, err
	}
	period, err := domain.ParsePeriod(month, year)
	if err != nil {
		return exportTarget{}, err
	}
	return exportTarget{kind: kind, period: period}, nil
}
