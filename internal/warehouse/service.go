// Package warehouse stores and reads the sales table in a SQL database.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"grocerybi/internal/observability"
	"grocerybi/internal/sales"
	"grocerybi/pkg/errors"
	"grocerybi/pkg/models"

	"github.com/shopspring/decimal"
)

// Config holds warehouse connection configuration
type Config struct {
	Driver    string
	Host      string
	Port      int
	Account   string
	Username  string
	Password  string
	Database  string
	Schema    string
	Warehouse string
	Role      string
	Table     string
	Timeout   time.Duration
	BatchSize int
}

// ConfigFromModel converts the YAML warehouse section
func ConfigFromModel(w models.Warehouse, timeout time.Duration) Config {
	return Config{
		Driver:    w.Driver,
		Host:      w.Host,
		Port:      w.Port,
		Account:   w.Account,
		Username:  w.Username,
		Password:  w.Password,
		Database:  w.Database,
		Schema:    w.Schema,
		Warehouse: w.Warehouse,
		Role:      w.Role,
		Table:     w.Table,
		Timeout:   timeout,
		BatchSize: w.BatchSize,
	}
}

// Service provides sales table operations
type Service struct {
	db        *sql.DB
	config    Config
	dialect   Dialect
	connected bool
	logger    *observability.Logger
	retry     *errors.RetryConfig
	open      func(driverName, dsn string) (*sql.DB, error)
	progress  func(loaded, total int)
}

// NewService validates the configuration and resolves the SQL dialect
func NewService(config Config) (*Service, error) {
	dialect, err := LookupDialect(config.Driver)
	if err != nil {
		return nil, err
	}
	if config.Table == "" {
		config.Table = "grocery_sales"
	}
	if err := ValidateIdentifier(config.Table); err != nil {
		return nil, err
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 500
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	logger := observability.GetDefaultLogger().WithFields(map[string]interface{}{
		"component": "warehouse",
		"driver":    dialect.Name,
	})

	retry := errors.DefaultRetryConfig()
	retry.OnRetry = func(attempt int, delay time.Duration, err error) {
		logger.WithError(err).WarnWithFields("Retrying warehouse connection", map[string]interface{}{
			"attempt":  attempt,
			"delay_ms": delay.Milliseconds(),
		})
	}

	return &Service{
		config:  config,
		dialect: dialect,
		logger:  logger,
		retry:   retry,
		open:    sql.Open,
	}, nil
}

// SetProgress registers a callback invoked after every inserted batch
func (s *Service) SetProgress(fn func(loaded, total int)) {
	s.progress = fn
}

// Connect opens the pool and pings the database, retrying transient failures
func (s *Service) Connect(ctx context.Context) error {
	if s.connected {
		return nil
	}

	dsn, err := s.dialect.DSN(s.config)
	if err != nil {
		return err
	}

	return errors.Retry(ctx, s.retry, func(ctx context.Context) error {
		db, err := s.open(s.dialect.DriverName, dsn)
		if err != nil {
			return errors.ConnectionError("Failed to open warehouse connection", err).
				WithContext("driver", s.dialect.Name)
		}

		db.SetMaxOpenConns(s.dialect.MaxOpenConns)
		db.SetMaxIdleConns(s.dialect.MaxOpenConns)
		db.SetConnMaxLifetime(10 * time.Minute)

		pingCtx, cancel := s.getContext(ctx)
		defer cancel()

		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()

			lower := strings.ToLower(err.Error())
			if strings.Contains(lower, "authentication") || strings.Contains(lower, "access denied") || strings.Contains(lower, "password") {
				return errors.New(errors.ErrCodeAuthenticationFailed, "Warehouse authentication failed").
					WithContext("user", s.config.Username).
					WithSuggestions(
						"Verify warehouse.username and the stored password",
						"Run 'grocerybi config set-password' to update the keyring entry",
					)
			}

			return errors.ConnectionError("Failed to connect to warehouse", err).
				WithContext("driver", s.dialect.Name).
				AsRecoverable()
		}

		s.db = db
		s.connected = true
		s.logger.Debug("Connected to warehouse")
		return nil
	})
}

// Close closes the database connection
func (s *Service) Close() error {
	if !s.connected {
		return nil
	}
	s.connected = false
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

// Ping checks the open connection
func (s *Service) Ping(ctx context.Context) error {
	if err := s.ensureConnected(); err != nil {
		return err
	}
	ctx, cancel := s.getContext(ctx)
	defer cancel()
	return s.db.PingContext(ctx)
}

// EnsureTable creates the sales table if it does not exist
func (s *Service) EnsureTable(ctx context.Context) error {
	if err := s.ensureConnected(); err != nil {
		return err
	}

	ctx, cancel := s.getContext(ctx)
	defer cancel()

	query := s.createTableQuery()
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return errors.SQLError("Failed to create sales table", query, err).
			WithContext("table", s.config.Table)
	}
	return nil
}

// LoadRecords inserts records in one transaction using multi-row INSERT
// batches. Any failure rolls the whole load back. With replace set, the
// table is emptied first inside the same transaction.
func (s *Service) LoadRecords(ctx context.Context, records []sales.Record, replace bool) (int64, error) {
	if err := s.ensureConnected(); err != nil {
		return 0, err
	}

	ctx, cancel := s.getContext(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeSQLTransaction, "Failed to begin transaction")
	}

	rollback := func(cause error) (int64, error) {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.WithError(rbErr).Error("Rollback failed")
		}
		return 0, cause
	}

	if replace {
		query := fmt.Sprintf(deleteRecordsSQL, s.config.Table)
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return rollback(errors.SQLError("Failed to clear sales table", query, err))
		}
	}

	var inserted int64
	for start := 0; start < len(records); start += s.config.BatchSize {
		end := start + s.config.BatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		query := s.insertQuery(len(batch))
		args := make([]interface{}, 0, len(batch)*len(columns))
		for _, r := range batch {
			args = append(args, recordArgs(r)...)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return rollback(errors.SQLError(fmt.Sprintf("Failed to insert batch starting at record %d", start+1), query, err).
				WithContext("batch_start", start).
				WithContext("batch_size", len(batch)))
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += n
		} else {
			inserted += int64(len(batch))
		}
		if s.progress != nil {
			s.progress(end, len(records))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeSQLTransaction, "Failed to commit transaction")
	}

	s.logger.InfoWithFields("Loaded records into warehouse", map[string]interface{}{
		"table":   s.config.Table,
		"records": inserted,
	})
	return inserted, nil
}

// Records reads every row of the sales table
func (s *Service) Records(ctx context.Context) ([]sales.Record, error) {
	if err := s.ensureConnected(); err != nil {
		return nil, err
	}

	ctx, cancel := s.getContext(ctx)
	defer cancel()

	query := s.selectQuery()
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.SQLError("Failed to read sales table", query, err)
	}
	defer rows.Close()

	records := make([]sales.Record, 0)
	for rows.Next() {
		var (
			r    sales.Record
			size sql.NullString
		)
		if err := rows.Scan(
			&r.ItemFatContent,
			&r.ItemIdentifier,
			&r.ItemType,
			&r.OutletEstablishmentYear,
			&r.OutletIdentifier,
			&r.OutletLocationType,
			&size,
			&r.OutletType,
			&r.ItemVisibility,
			&r.ItemWeight,
			&r.TotalSales,
			&r.Rating,
		); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSQLScan, "Failed to scan sales row").
				WithContext("row", len(records)+1)
		}
		r.OutletSize = size.String
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.SQLError("Failed to read sales table", query, err)
	}

	observability.RecordsLoaded.Add(float64(len(records)))
	return records, nil
}

// Count returns the number of rows in the sales table
func (s *Service) Count(ctx context.Context) (int64, error) {
	if err := s.ensureConnected(); err != nil {
		return 0, err
	}

	ctx, cancel := s.getContext(ctx)
	defer cancel()

	query := fmt.Sprintf(countRecordsSQL, s.config.Table)
	var n int64
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, errors.SQLError("Failed to count sales rows", query, err)
	}
	return n, nil
}

func recordArgs(r sales.Record) []interface{} {
	var size interface{}
	if r.OutletSize != "" {
		size = r.OutletSize
	}
	return []interface{}{
		r.ItemFatContent,
		r.ItemIdentifier,
		r.ItemType,
		r.OutletEstablishmentYear,
		r.OutletIdentifier,
		r.OutletLocationType,
		size,
		r.OutletType,
		r.ItemVisibility.String(),
		nullDecimalArg(r.ItemWeight),
		r.TotalSales.String(),
		r.Rating.String(),
	}
}

func nullDecimalArg(d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

func (s *Service) ensureConnected() error {
	if !s.connected {
		return errors.New(errors.ErrCodeConnectionFailed, "Not connected to warehouse").
			WithSuggestions("Call Connect() before using the warehouse")
	}
	return nil
}

func (s *Service) getContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.config.Timeout)
}
