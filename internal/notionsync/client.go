package notionsync

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jomei/notionapi"
)

// DefaultTimeout bounds each call to the Notion API.
const DefaultTimeout = 30 * time.Second

// NotionClient implements NotionService over the jomei/notionapi SDK.
type NotionClient struct {
	client *notionapi.Client
}

var _ NotionService = (*NotionClient)(nil)

// NewNotionClient creates a client for the integration token. A zero timeout
// means DefaultTimeout.
func NewNotionClient(token string, timeout time.Duration) *NotionClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &NotionClient{
		client: notionapi.NewClient(
			notionapi.Token(token),
			notionapi.WithHTTPClient(&http.Client{Timeout: timeout}),
		),
	}
}

// CreatePage creates a page in databaseID.
func (n *NotionClient) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	page, err := n.client.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
	})
	if err != nil {
		return nil, fmt.Errorf("CreatePage: %w", err)
	}
	return page, nil
}

// UpdatePage overwrites the given properties of pageID.
func (n *NotionClient) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	page, err := n.client.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Properties: properties,
	})
	if err != nil {
		return nil, fmt.Errorf("UpdatePage: %w", err)
	}
	return page, nil
}

// ArchivePage archives pageID.
func (n *NotionClient) ArchivePage(ctx context.Context, pageID string) error {
	_, err := n.client.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Archived: true,
	})
	if err != nil {
		return fmt.Errorf("ArchivePage: %w", err)
	}
	return nil
}

// QueryDatabase runs one page of a database query.
func (n *NotionClient) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	resp, err := n.client.Database.Query(ctx, notionapi.DatabaseID(databaseID), req)
	if err != nil {
		return nil, fmt.Errorf("QueryDatabase: %w", err)
	}
	return resp, nil
}
