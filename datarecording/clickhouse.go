package datarecording

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/tebeka/atexit"
)

// ClickHouseRecorder is a DataRecorder that batches entries into a
// ClickHouse database. It serves long-running simulations whose committed
// series outgrow a local SQLite file.
type ClickHouseRecorder struct {
	conn      clickhouse.Conn
	batchSize int
	tables    map[string]*table

	entryCount int
}

// NewClickHouseRecorder connects to a ClickHouse server and returns a
// recorder writing into the given database.
func NewClickHouseRecorder(addr, database string) *ClickHouseRecorder {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
		},
	})
	if err != nil {
		panic(err)
	}

	r := &ClickHouseRecorder{
		conn:      conn,
		batchSize: 100000,
		tables:    make(map[string]*table),
	}

	atexit.Register(func() { r.Flush() })

	return r
}

// CreateTable creates a MergeTree table whose columns are the fields of
// sampleEntry.
func (r *ClickHouseRecorder) CreateTable(tableName string, sampleEntry any) {
	entryType := reflect.TypeOf(sampleEntry)

	columns := make([]string, 0, entryType.NumField())
	for i := 0; i < entryType.NumField(); i++ {
		field := entryType.Field(i)
		columns = append(columns,
			field.Name+" "+clickHouseType(field.Type.Kind()))
	}

	ddl := "CREATE TABLE IF NOT EXISTS " + tableName +
		" (" + strings.Join(columns, ", ") + ")" +
		" ENGINE = MergeTree() ORDER BY tuple()"

	err := r.conn.Exec(context.Background(), ddl)
	if err != nil {
		panic(err)
	}

	r.tables[tableName] = &table{}
}

// InsertData buffers one entry for the given table, flushing when the batch
// is full.
func (r *ClickHouseRecorder) InsertData(tableName string, entry any) {
	table, exists := r.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	table.entries = append(table.entries, entry)

	r.entryCount++
	if r.entryCount >= r.batchSize {
		r.Flush()
	}
}

// ListTables returns the names of all the tables created so far.
func (r *ClickHouseRecorder) ListTables() []string {
	tables := make([]string, 0, len(r.tables))
	for table := range r.tables {
		tables = append(tables, table)
	}

	return tables
}

// Flush sends all the buffered entries to the server, one batch per table.
func (r *ClickHouseRecorder) Flush() {
	if r.entryCount == 0 {
		return
	}

	ctx := context.Background()

	for tableName, table := range r.tables {
		if len(table.entries) == 0 {
			continue
		}

		batch, err := r.conn.PrepareBatch(ctx, "INSERT INTO "+tableName)
		if err != nil {
			panic(err)
		}

		for _, entry := range table.entries {
			values := reflect.ValueOf(entry)

			row := make([]any, 0, values.NumField())
			for i := 0; i < values.NumField(); i++ {
				row = append(row, values.Field(i).Interface())
			}

			err = batch.Append(row...)
			if err != nil {
				panic(err)
			}
		}

		err = batch.Send()
		if err != nil {
			panic(err)
		}

		table.entries = nil
	}

	r.entryCount = 0
}

// Close flushes the remaining entries and closes the connection.
func (r *ClickHouseRecorder) Close() {
	r.Flush()

	err := r.conn.Close()
	if err != nil {
		panic(err)
	}
}

func clickHouseType(kind reflect.Kind) string {
	switch kind {
	case reflect.Bool:
		return "Bool"
	case reflect.Int, reflect.Int8, reflect.Int16,
		reflect.Int32, reflect.Int64:
		return "Int64"
	case reflect.Uint, reflect.Uint8, reflect.Uint16,
		reflect.Uint32, reflect.Uint64:
		return "UInt64"
	case reflect.Float32, reflect.Float64:
		return "Float64"
	case reflect.String:
		return "String"
	default:
		panic(fmt.Sprintf("field kind %s not supported", kind))
	}
}
