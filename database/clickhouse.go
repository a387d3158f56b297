package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/uptrace/go-clickhouse/ch"

	"github.com/finsight/analytics-engine/config"
	"github.com/finsight/analytics-engine/domain"
)

var clickHouseDB *ch.DB

// InitClickHouse initializes the ClickHouse database connection and
// bootstraps the analytics records table.
func InitClickHouse(cfg *config.ClickHouseConfig) error {
	dsn := cfg.GetClickHouseDSN()

	// ClickHouse native protocol does not use TLS by default.
	db := ch.Connect(
		ch.WithDSN(dsn),
		ch.WithInsecure(true),
	)

	ctx := context.Background()
	if err := InitRecordsTable(ctx, db); err != nil {
		return fmt.Errorf("failed to initialize analytics records table: %w", err)
	}

	clickHouseDB = db
	log.Println("ClickHouse connection established successfully")

	return nil
}

// CloseClickHouse closes the ClickHouse database connection.
func CloseClickHouse() error {
	if clickHouseDB != nil {
		if err := clickHouseDB.Close(); err != nil {
			return fmt.Errorf("failed to close ClickHouse connection: %w", err)
		}
		log.Println("ClickHouse connection closed")
	}
	return nil
}

// InitRecordsTable creates the analytics records table if it doesn't exist.
func InitRecordsTable(ctx context.Context, db *ch.DB) error {
	_, err := db.NewCreateTable().
		Model((*recordRow)(nil)).
		Engine("ReplacingMergeTree(ingested_at)").
		Order("measurement, timestamp").
		IfNotExists().
		Exec(ctx)

	return err
}

// ClickHouseHealthCheck verifies that the ClickHouse connection is alive.
func ClickHouseHealthCheck(ctx context.Context) error {
	if clickHouseDB == nil {
		return fmt.Errorf("ClickHouse connection is not initialized")
	}
	return clickHouseDB.Ping(ctx)
}

// GetTimeSeriesStore returns the store adapter over the shared connection.
func GetTimeSeriesStore() *TimeSeriesStore {
	return &TimeSeriesStore{db: clickHouseDB}
}

// TimeSeriesStore is the engine's durable time-series storage adapter.
type TimeSeriesStore struct {
	db *ch.DB
}

var _ domain.TimeSeriesStore = (*TimeSeriesStore)(nil)

// NewTimeSeriesStore wraps an existing connection, for tests and tooling.
func NewTimeSeriesStore(db *ch.DB) *TimeSeriesStore {
	return &TimeSeriesStore{db: db}
}

// recordRow is the analytics_records table model. Tags and fields are kept as
// JSON string columns; dimensional filtering happens in the engine.
type recordRow struct {
	ch.CHModel  `ch:"table:analytics_records,partition:toYYYYMMDD(timestamp)"`
	Measurement string    `ch:"measurement,lc"`
	Timestamp   time.Time `ch:"timestamp"`
	Tags        string    `ch:"tags,type:String"`
	Fields      string    `ch:"fields,type:String"`

	IngestedAt time.Time `ch:"ingested_at,default:now()"`
}

// recordRowColumnar carries records in columnar format for batch inserts.
type recordRowColumnar struct {
	ch.CHModel  `ch:"table:analytics_records,partition:toYYYYMMDD(timestamp),columnar"`
	Measurement []string    `ch:"measurement,lc"`
	Timestamp   []time.Time `ch:"timestamp"`
	Tags        []string    `ch:"tags,type:String"`
	Fields      []string    `ch:"fields,type:String"`

	IngestedAt []time.Time `ch:"ingested_at,default:now()"`
}

// WriteRecord durably appends one measurement record.
func (s *TimeSeriesStore) WriteRecord(ctx context.Context, record domain.MeasurementRecord) error {
	if s.db == nil {
		return domain.NewStoreError("write record", fmt.Errorf("database connection is nil"))
	}

	row, err := mapRecordToRow(record)
	if err != nil {
		return domain.NewStoreError("write record", err)
	}

	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return domain.NewStoreError("write record", err)
	}

	return nil
}

// WriteRecords appends a batch of records using the native columnar insert
// format, which is significantly faster than row-based inserts.
func (s *TimeSeriesStore) WriteRecords(ctx context.Context, records []domain.MeasurementRecord) error {
	if s.db == nil {
		return domain.NewStoreError("write records", fmt.Errorf("database connection is nil"))
	}
	if len(records) == 0 {
		return nil
	}

	batchSize := len(records)
	now := time.Now()

	measurements := make([]string, 0, batchSize)
	timestamps := make([]time.Time, 0, batchSize)
	tags := make([]string, 0, batchSize)
	fields := make([]string, 0, batchSize)
	ingestedAt := make([]time.Time, 0, batchSize)

	for _, record := range records {
		tagsJSON, fieldsJSON, err := encodeRecordMaps(record)
		if err != nil {
			return domain.NewStoreError("write records", err)
		}

		measurements = append(measurements, record.Measurement)
		timestamps = append(timestamps, record.Timestamp)
		tags = append(tags, tagsJSON)
		fields = append(fields, fieldsJSON)
		ingestedAt = append(ingestedAt, now)
	}

	columnarModel := &recordRowColumnar{
		Measurement: measurements,
		Timestamp:   timestamps,
		Tags:        tags,
		Fields:      fields,
		IngestedAt:  ingestedAt,
	}

	if _, err := s.db.NewInsert().Model(columnarModel).Exec(ctx); err != nil {
		return domain.NewStoreError("write records", err)
	}

	return nil
}

// ReadRange returns records in the half-open window [from, to), ordered by
// timestamp ascending for deterministic aggregation. An empty measurement
// reads across all series.
func (s *TimeSeriesStore) ReadRange(ctx context.Context, measurement string, from, to time.Time) ([]domain.MeasurementRecord, error) {
	if s.db == nil {
		return nil, domain.NewStoreError("read range", fmt.Errorf("database connection is nil"))
	}

	var rows []recordRow

	// FINAL forces ClickHouse to deduplicate replaced rows before reading.
	query := s.db.NewSelect().
		TableExpr("analytics_records FINAL").
		ColumnExpr("measurement").
		ColumnExpr("timestamp").
		ColumnExpr("tags").
		ColumnExpr("fields").
		Where("timestamp >= ?", from.UTC()).
		Where("timestamp < ?", to.UTC()).
		OrderExpr("timestamp ASC")

	if measurement != "" {
		query = query.Where("measurement = ?", measurement)
	}

	if err := query.Scan(ctx, &rows); err != nil {
		return nil, domain.NewStoreError("read range", err)
	}

	records := make([]domain.MeasurementRecord, 0, len(rows))
	for _, row := range rows {
		record, err := mapRowToRecord(row)
		if err != nil {
			return nil, domain.NewStoreError("read range", err)
		}
		records = append(records, record)
	}

	return records, nil
}

func mapRecordToRow(record domain.MeasurementRecord) (*recordRow, error) {
	tagsJSON, fieldsJSON, err := encodeRecordMaps(record)
	if err != nil {
		return nil, err
	}

	return &recordRow{
		Measurement: record.Measurement,
		Timestamp:   record.Timestamp,
		Tags:        tagsJSON,
		Fields:      fieldsJSON,
	}, nil
}

func encodeRecordMaps(record domain.MeasurementRecord) (string, string, error) {
	tagsJSON := ""
	if len(record.Tags) > 0 {
		b, err := json.Marshal(record.Tags)
		if err != nil {
			return "", "", fmt.Errorf("failed to serialize tags: %w", err)
		}
		tagsJSON = string(b)
	}

	fieldsJSON := ""
	if len(record.Fields) > 0 {
		b, err := json.Marshal(record.Fields)
		if err != nil {
			return "", "", fmt.Errorf("failed to serialize fields: %w", err)
		}
		fieldsJSON = string(b)
	}

	return tagsJSON, fieldsJSON, nil
}

func mapRowToRecord(row recordRow) (domain.MeasurementRecord, error) {
	tags := map[string]string{}
	if row.Tags != "" {
		if err := json.Unmarshal([]byte(row.Tags), &tags); err != nil {
			return domain.MeasurementRecord{}, fmt.Errorf("failed to decode tags: %w", err)
		}
	}

	fields := map[string]any{}
	if row.Fields != "" {
		if err := json.Unmarshal([]byte(row.Fields), &fields); err != nil {
			return domain.MeasurementRecord{}, fmt.Errorf("failed to decode fields: %w", err)
		}
	}

	return domain.NewMeasurementRecord(row.Measurement, row.Timestamp, tags, fields), nil
}
