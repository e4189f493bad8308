package notionsync

import (
	"context"

	"github.com/jomei/notionapi"
)

// NotionService is the subset of the Notion API the export uses.
type NotionService interface {
	// CreatePage creates a new page in a Notion database with the given properties.
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)

	// UpdatePage updates an existing Notion page with the given properties.
	UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error)

	// ArchivePage moves a page to the trash.
	ArchivePage(ctx context.Context, pageID string) error

	// QueryDatabase queries a Notion database with the given filter.
	QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}
