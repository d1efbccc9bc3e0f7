package warehouse

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

const (
	DefaultDataset    = "upi_tracker"
	transactionsTable = "transactions"
)

// Repository is the warehouse surface the exporter depends on.
type Repository interface {
	ExistingTransactionIDs(ctx context.Context) (map[string]bool, error)
	InsertTransactions(ctx context.Context, rows []*TransactionRow) error
}

// BigQueryRepository implements Repository against a BigQuery dataset.
type BigQueryRepository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewBigQueryRepository creates a client for projectID. An empty datasetID
// selects DefaultDataset.
func NewBigQueryRepository(ctx context.Context, projectID, datasetID string) (*BigQueryRepository, error) {
	if projectID == "" {
		return nil, fmt.Errorf("NewBigQueryRepository: BQ_PROJECT is required")
	}
	if datasetID == "" {
		datasetID = DefaultDataset
	}
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryRepository: creating client: %w", err)
	}
	return &BigQueryRepository{client: client, projectID: projectID, datasetID: datasetID}, nil
}

// Close closes the BigQuery client connection.
func (r *BigQueryRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *BigQueryRepository) table() *bigquery.Table {
	return r.client.DatasetInProject(r.projectID, r.datasetID).Table(transactionsTable)
}

// EnsureDataset creates the dataset in location. An existing dataset is left
// alone.
func (r *BigQueryRepository) EnsureDataset(ctx context.Context, location string) error {
	err := r.client.DatasetInProject(r.projectID, r.datasetID).Create(ctx, &bigquery.DatasetMetadata{
		Location: location,
	})
	if isConflict(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("EnsureDataset: create %s: %w", r.datasetID, err)
	}
	return nil
}

// EnsureTable creates the transactions table from TransactionRow's schema.
// An existing table is left alone.
func (r *BigQueryRepository) EnsureTable(ctx context.Context) error {
	schema, err := bigquery.InferSchema(TransactionRow{})
	if err != nil {
		return fmt.Errorf("EnsureTable: infer schema: %w", err)
	}
	err = r.table().Create(ctx, &bigquery.TableMetadata{
		Schema: schema,
		TimePartitioning: &bigquery.TimePartitioning{
			Type:  bigquery.MonthPartitioningType,
			Field: "transaction_date",
		},
	})
	if isConflict(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("EnsureTable: create %s.%s: %w", r.datasetID, transactionsTable, err)
	}
	return nil
}

// ExistingTransactionIDs returns every transaction_id already exported.
func (r *BigQueryRepository) ExistingTransactionIDs(ctx context.Context) (map[string]bool, error) {
	q := r.client.Query(fmt.Sprintf(
		"SELECT DISTINCT transaction_id FROM `%s.%s.%s`",
		r.projectID, r.datasetID, transactionsTable,
	))
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ExistingTransactionIDs: query read: %w", err)
	}

	ids := make(map[string]bool)
	for {
		var row struct {
			TransactionID string `bigquery:"transaction_id"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ExistingTransactionIDs: iter next: %w", err)
		}
		ids[row.TransactionID] = true
	}
	return ids, nil
}

// InsertTransactions streams rows into the transactions table.
func (r *BigQueryRepository) InsertTransactions(ctx context.Context, rows []*TransactionRow) error {
	if len(rows) == 0 {
		return nil
	}
	if err := r.table().Inserter().Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertTransactions: inserting rows: %w", err)
	}
	return nil
}

var _ Repository = (*BigQueryRepository)(nil)

func isConflict(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict
}
