package notionsync

import (
	"context"
	"fmt"
	"sort"

	"github.com/jomei/notionapi"
)

// NotionClient talks to the Notion API with an integration token. The
// integration must be shared with the ledger database.
type NotionClient struct {
	api *notionapi.Client
}

func NewNotionClient(token string) *NotionClient {
	return &NotionClient{api: notionapi.NewClient(notionapi.Token(token))}
}

func (n *NotionClient) DatabaseProperties(ctx context.Context, databaseID string) ([]string, error) {
	db, err := n.api.Database.Get(ctx, notionapi.DatabaseID(databaseID))
	if err != nil {
		return nil, fmt.Errorf("NotionClient.DatabaseProperties: database %s: %w", databaseID, err)
	}
	names := make([]string, 0, len(db.Properties))
	for name := range db.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (n *NotionClient) QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	resp, err := n.api.Database.Query(ctx, notionapi.DatabaseID(databaseID), filter)
	if err != nil {
		return nil, fmt.Errorf("NotionClient.QueryDatabase: database %s: %w", databaseID, err)
	}
	return resp, nil
}

func (n *NotionClient) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	parent := notionapi.Parent{Type: notionapi.ParentTypeDatabaseID, DatabaseID: notionapi.DatabaseID(databaseID)}
	page, err := n.api.Page.Create(ctx, &notionapi.PageCreateRequest{Parent: parent, Properties: properties})
	if err != nil {
		return nil, fmt.Errorf("NotionClient.CreatePage: database %s: %w", databaseID, err)
	}
	return page, nil
}

func (n *NotionClient) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	return n.updatePage(ctx, pageID, &notionapi.PageUpdateRequest{Properties: properties})
}

func (n *NotionClient) DeletePage(ctx context.Context, pageID string) error {
	_, err := n.updatePage(ctx, pageID, &notionapi.PageUpdateRequest{Archived: true})
	return err
}

func (n *NotionClient) updatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	page, err := n.api.Page.Update(ctx, notionapi.PageID(pageID), req)
	if err != nil {
		return nil, fmt.Errorf("NotionClient: update page %s: %w", pageID, err)
	}
	return page, nil
}

var _ NotionService = (*NotionClient)(nil)
