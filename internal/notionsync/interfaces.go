package notionsync

import (
	"context"

	"github.com/jomei/notionapi"
)

// NotionService is the slice of the Notion API the ledger mirror needs.
type NotionService interface {
	// DatabaseProperties lists the column names of a database.
	DatabaseProperties(ctx context.Context, databaseID string) ([]string, error)
	QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
	UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error)
	// DeletePage archives a page. Notion has no hard delete.
	DeletePage(ctx context.Context, pageID string) error
}
