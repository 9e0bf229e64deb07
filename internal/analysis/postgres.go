package analysis

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lib/pq"

	"survey-stats/internal/config"
	"survey-stats/internal/state"
)

// ErrUnknownTable is returned when a table is not in the public schema.
var ErrUnknownTable = errors.New("unknown table")

// ErrNotConnected is returned when the source is used before Connect.
var ErrNotConnected = errors.New("postgres source not connected")

// DataSource loads survey responses from a database.
type DataSource interface {
	Connect(ctx context.Context, cfg config.PostgresConfig) error
	Close() error
	ListTables(ctx context.Context) ([]string, error)
	LoadTable(ctx context.Context, table string, limit int) (*state.DataFrame, error)
}

// PostgresSource reads a survey table where each column is one question.
type PostgresSource struct {
	db *sql.DB
}

// NewPostgresSource wraps an existing handle; pass nil and call Connect
// otherwise.
func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

// ConnString renders cfg as a lib/pq connection string.
func ConnString(cfg config.PostgresConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, port, cfg.User, cfg.Password, cfg.DBName, sslmode)
}

func (p *PostgresSource) Connect(ctx context.Context, cfg config.PostgresConfig) error {
	db, err := sql.Open("postgres", ConnString(cfg))
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}

	if p.db != nil {
		p.db.Close()
	}
	p.db = db
	return nil
}

func (p *PostgresSource) Close() error {
	if p.db != nil {
		err := p.db.Close()
		p.db = nil
		return err
	}
	return nil
}

func (p *PostgresSource) ListTables(ctx context.Context) ([]string, error) {
	if p.db == nil {
		return nil, ErrNotConnected
	}
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		ORDER BY table_name;
	`
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}
	return tables, rows.Err()
}

// LoadTable reads up to limit rows of table as text cells. The table must
// appear in ListTables.
func (p *PostgresSource) LoadTable(ctx context.Context, table string, limit int) (*state.DataFrame, error) {
	if p.db == nil {
		return nil, ErrNotConnected
	}
	tables, err := p.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	if !containsString(tables, table) {
		return nil, fmt.Errorf("%q: %w", table, ErrUnknownTable)
	}

	query := "SELECT * FROM " + pq.QuoteIdentifier(table)
	if limit > 0 {
		query += " LIMIT " + strconv.Itoa(limit)
	}
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var records [][]string
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		record := make([]string, len(columns))
		for i, val := range values {
			record[i] = cellText(val)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	df := state.NewDataFrame(columns, records)
	df.FileName = table
	return df, nil
}

// cellText renders a scanned driver value the way a spreadsheet cell
// would read.
func cellText(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case []byte:
		return string(v)
	case string:
		return v
	case time.Time:
		return v.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		if v {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprint(v)
	}
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
