package warehouse

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"sort"
	"strconv"

	apperrors "grocerybi/pkg/errors"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	sf "github.com/snowflakedb/gosnowflake"
	_ "modernc.org/sqlite"
)

// Dialect captures what differs between the supported SQL engines
type Dialect struct {
	Name       string
	DriverName string

	// MaxOpenConns caps the pool; sqlite allows a single writer
	MaxOpenConns int
	// NumericType is the column type for decimal measures
	NumericType func(precision, scale int) string
	// Placeholder returns the bind parameter for the n-th (1-based) argument
	Placeholder func(n int) string
	DSN         func(c Config) (string, error)
}

func questionMark(int) string { return "?" }

func dollar(n int) string { return "$" + strconv.Itoa(n) }

func decimalType(precision, scale int) string {
	return fmt.Sprintf("DECIMAL(%d,%d)", precision, scale)
}

var dialects = map[string]Dialect{
	"snowflake": {
		Name:         "snowflake",
		DriverName:   "snowflake",
		MaxOpenConns: 10,
		NumericType:  func(p, s int) string { return fmt.Sprintf("NUMBER(%d,%d)", p, s) },
		Placeholder:  questionMark,
		DSN: func(c Config) (string, error) {
			return sf.DSN(&sf.Config{
				Account:   c.Account,
				User:      c.Username,
				Password:  c.Password,
				Database:  c.Database,
				Schema:    c.Schema,
				Warehouse: c.Warehouse,
				Role:      c.Role,
			})
		},
	},
	"mysql": {
		Name:         "mysql",
		DriverName:   "mysql",
		MaxOpenConns: 10,
		NumericType:  decimalType,
		Placeholder:  questionMark,
		DSN: func(c Config) (string, error) {
			cfg := mysql.NewConfig()
			cfg.User = c.Username
			cfg.Passwd = c.Password
			cfg.Net = "tcp"
			cfg.Addr = c.address(3306)
			cfg.DBName = c.Database
			cfg.ParseTime = true
			return cfg.FormatDSN(), nil
		},
	},
	"postgres": {
		Name:         "postgres",
		DriverName:   "pgx",
		MaxOpenConns: 10,
		NumericType:  decimalType,
		Placeholder:  dollar,
		DSN: func(c Config) (string, error) {
			u := url.URL{
				Scheme: "postgres",
				Host:   c.address(5432),
				Path:   "/" + c.Database,
			}
			if c.Username != "" {
				u.User = url.UserPassword(c.Username, c.Password)
			}
			if c.Schema != "" {
				u.RawQuery = url.Values{"search_path": {c.Schema}}.Encode()
			}
			return u.String(), nil
		},
	},
	"sqlite": {
		Name:         "sqlite",
		DriverName:   "sqlite",
		MaxOpenConns: 1,
		// TEXT keeps decimal measures exact; sqlite NUMERIC affinity would store floats
		NumericType: func(int, int) string { return "TEXT" },
		Placeholder: questionMark,
		DSN: func(c Config) (string, error) {
			if c.Database == "" {
				return "", apperrors.ConfigError("sqlite requires warehouse.database to name the database file", "warehouse.database")
			}
			return c.Database, nil
		},
	},
}

// Dialects lists the supported driver names
func Dialects() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupDialect resolves a configured driver name
func LookupDialect(name string) (Dialect, error) {
	d, ok := dialects[name]
	if !ok {
		return Dialect{}, apperrors.New(apperrors.ErrCodeUnsupportedDriver,
			fmt.Sprintf("Unsupported warehouse driver %q", name)).
			WithContext("driver", name).
			WithSuggestions(fmt.Sprintf("Set warehouse.driver to one of: %v", Dialects()))
	}
	return d, nil
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidateIdentifier accepts a plain or schema-qualified SQL name
func ValidateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return apperrors.ValidationError("warehouse.table", name, "must be a plain or schema-qualified SQL identifier")
	}
	return nil
}

func (c Config) address(defaultPort int) string {
	host := c.Host
	if host == "" {
		host = "localhost"
	}
	port := c.Port
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
