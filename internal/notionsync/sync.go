// Package notionsync exports stored records to a Notion database, one page
// per record.
package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	bq "github.com/dvloznov/efinance/internal/bigquery"
	"github.com/dvloznov/efinance/internal/domain"
	"github.com/dvloznov/efinance/internal/logger"
)

// PageSize is the Notion query page size.
const PageSize = 100

// ExportOptions tune an export run.
type ExportOptions struct {
	// DryRun logs what would change without calling the write endpoints.
	DryRun bool
	// Update rewrites pages that already exist for a record.
	Update bool
	// Prune archives the user's pages of this kind and month whose record no
	// longer exists.
	Prune bool
}

// ExportResult counts what an export did, or would do on a dry run.
type ExportResult struct {
	Total    int `json:"total"`
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
	Archived int `json:"archived"`
	Failed   int `json:"failed"`
}

// ExportRecords writes the user's records of kind for period into databaseID.
// Pages are matched on the Record ID property, so repeated runs only create
// pages for new records. A failed page write is logged and counted; the run
// carries on.
func ExportRecords(ctx context.Context, repo bq.RecordRepository, notion NotionService, databaseID string, kind domain.Kind, userID string, period domain.Period, opts ExportOptions) (*ExportResult, error) {
	log := logger.FromContext(ctx).With().
		Str("kind", string(kind)).
		Str("user_id", userID).
		Str("period", period.String()).
		Bool("dry_run", opts.DryRun).
		Logger()

	records, err := repo.ListByUserAndPeriod(ctx, kind, userID, period)
	if err != nil {
		return nil, fmt.Errorf("ExportRecords: list records: %w", err)
	}
	log.Info().Int("record_count", len(records)).Msg("Starting Notion export")

	pages, err := queryUserPages(ctx, notion, databaseID, userID)
	if err != nil {
		return nil, fmt.Errorf("ExportRecords: %w", err)
	}

	existing := make(map[string]string, len(pages))
	for _, page := range pages {
		if id := plainText(page, PropRecordID); id != "" {
			existing[id] = string(page.ID)
		}
	}

	res := &ExportResult{Total: len(records)}
	current := make(map[string]bool, len(records))
	for _, rec := range records {
		current[rec.ID] = true
		pageID, found := existing[rec.ID]

		switch {
		case found && !opts.Update:
			res.Skipped++

		case opts.DryRun && found:
			log.Info().Str("record_id", rec.ID).Str("page_id", pageID).Msg("[DRY RUN] Would update Notion page")
			res.Updated++

		case opts.DryRun:
			log.Info().Str("record_id", rec.ID).Msg("[DRY RUN] Would create Notion page")
			res.Created++

		case found:
			if _, err := notion.UpdatePage(ctx, pageID, RecordToNotionProperties(rec)); err != nil {
				log.Warn().Err(err).Str("record_id", rec.ID).Str("page_id", pageID).Msg("Failed to update Notion page")
				res.Failed++
				continue
			}
			res.Updated++

		default:
			page, err := notion.CreatePage(ctx, databaseID, RecordToNotionProperties(rec))
			if err != nil {
				log.Warn().Err(err).Str("record_id", rec.ID).Msg("Failed to create Notion page")
				res.Failed++
				continue
			}
			log.Debug().Str("record_id", rec.ID).Str("page_id", string(page.ID)).Msg("Created Notion page")
			res.Created++
		}
	}

	if opts.Prune {
		for _, page := range pages {
			id := plainText(page, PropRecordID)
			if current[id] || !belongsTo(page, kind, period) {
				continue
			}
			if opts.DryRun {
				log.Info().Str("record_id", id).Str("page_id", string(page.ID)).Msg("[DRY RUN] Would archive stale Notion page")
				res.Archived++
				continue
			}
			if err := notion.ArchivePage(ctx, string(page.ID)); err != nil {
				log.Warn().Err(err).Str("page_id", string(page.ID)).Msg("Failed to archive stale Notion page")
				res.Failed++
				continue
			}
			res.Archived++
		}
	}

	log.Info().
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("skipped", res.Skipped).
		Int("archived", res.Archived).
		Int("failed", res.Failed).
		Msg("Notion export completed")
	return res, nil
}

// belongsTo reports whether a page was exported for kind within period.
func belongsTo(page notionapi.Page, kind domain.Kind, period domain.Period) bool {
	prop, ok := page.Properties[PropKind]
	if !ok {
		return false
	}
	sel, ok := prop.(*notionapi.SelectProperty)
	if !ok || sel.Select.Name != string(kind) {
		return false
	}
	t := pageDate(page, PropDate)
	return !t.IsZero() && t.Year() == period.Year && t.Month() == period.Month
}

// queryUserPages pages through every database entry whose User ID matches.
func queryUserPages(ctx context.Context, notion NotionService, databaseID, userID string) ([]notionapi.Page, error) {
	var all []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			Filter: &notionapi.PropertyFilter{
				Property: PropUserID,
				RichText: &notionapi.TextFilterCondition{Equals: userID},
			},
			PageSize: PageSize,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notion.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryUserPages: %w", err)
		}
		all = append(all, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}
	return all, nil
}
