package configuration

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/orgchart/pkg/logging"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var DefaultEnvFiles = []string{".env", ".env.local"}

// LoadEnv loads the env files that exist in the working directory. When none
// do, it retries relative to the enclosing go.mod directory so commands run
// from a package directory still pick up the repository's files.
func LoadEnv(envFiles []string) (int, error) {
	existing := existingFiles("", envFiles)
	if len(existing) == 0 {
		if root, ok := moduleRoot(); ok {
			existing = existingFiles(root, envFiles)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

func existingFiles(dir string, envFiles []string) []string {
	out := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		path := file
		if dir != "" && !filepath.IsAbs(file) {
			path = filepath.Join(dir, file)
		}
		if fs.FileExists(path) {
			out = append(out, path)
		}
	}
	return out
}

func moduleRoot() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		if fs.FileExists(filepath.Join(dir, "go.mod")) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

type DatabaseOptions struct {
	Driver      string `env:"DB_DRIVER" envDefault:"sqlite" validate:"oneof=sqlite postgres"`
	Name        string `env:"DB_NAME" envDefault:"orgchart"`
	Host        string `env:"DB_HOST" envDefault:"localhost"`
	Port        string `env:"DB_PORT" envDefault:"5432"`
	User        string `env:"DB_USER" envDefault:"postgres"`
	Password    string `env:"DB_PASSWORD" envDefault:"postgres"`
	SSLMode     string `env:"DB_SSLMODE" envDefault:"disable"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"person.db"`
	AutoMigrate bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`
}

func (d *DatabaseOptions) ConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

// SQLiteDSN returns the sqlite URI for SQLitePath with foreign keys enforced.
func (d *DatabaseOptions) SQLiteDSN() string {
	return "file:" + d.SQLitePath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

type ImportOptions struct {
	Source                string `env:"ORGCHART_SOURCE" envDefault:"relacao.xlsx"`
	Sheet                 string `env:"ORGCHART_SHEET"`
	SupervisorSeparator   string `env:"ORGCHART_SUPERVISOR_SEPARATOR" envDefault:";" validate:"required"`
	DuplicateNames        string `env:"ORGCHART_DUPLICATE_NAMES" envDefault:"warn" validate:"oneof=warn reject"`
	UnresolvedSupervisors string `env:"ORGCHART_UNRESOLVED_SUPERVISORS" envDefault:"warn" validate:"oneof=ignore warn reject"`
}

type ExportOptions struct {
	Root             string `env:"ORGCHART_ROOT"`
	Output           string `env:"ORGCHART_OUTPUT" envDefault:"hierarquia.json"`
	Format           string `env:"ORGCHART_FORMAT" envDefault:"flat" validate:"oneof=flat treant"`
	OrgName          string `env:"ORGCHART_ORG_NAME" envDefault:"Prefeitura"`
	OrgTitle         string `env:"ORGCHART_ORG_TITLE" envDefault:"Organização"`
	ImagePlaceholder string `env:"ORGCHART_IMAGE_PLACEHOLDER" envDefault:"nan"`
	Collation        string `env:"ORGCHART_COLLATION"`
	Indent           int    `env:"ORGCHART_INDENT" envDefault:"4" validate:"gte=0,lte=16"`
}

type Configuration struct {
	Database DatabaseOptions
	Import   ImportOptions
	Export   ExportOptions

	LogLevel    string `env:"LOG_LEVEL" envDefault:"warn"`
	LogPath     string `env:"LOG_PATH"`
	MetricsFile string `env:"METRICS_FILE"`

	logFile *os.File
	logger  *logrus.Logger
}

// Load reads env files, parses the environment into a Configuration and
// builds its logger. Callers must Unload the result.
func Load(envFiles ...string) (*Configuration, error) {
	if len(envFiles) == 0 {
		envFiles = DefaultEnvFiles
	}
	c := &Configuration{}
	if err := c.load(envFiles); err != nil {
		c.Unload()
		return nil, err
	}
	return c, nil
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	c.logFile = f
	c.logger = logger
	if n == 0 {
		logger.WithField("tried", envFiles).Debug("no .env files found")
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate normalizes enum-like values and checks them.
func (c *Configuration) Validate() error {
	c.Database.Driver = normalize(c.Database.Driver)
	c.Import.DuplicateNames = normalize(c.Import.DuplicateNames)
	c.Import.UnresolvedSupervisors = normalize(c.Import.UnresolvedSupervisors)
	c.Export.Format = normalize(c.Export.Format)
	c.Export.Root = strings.TrimSpace(c.Export.Root)

	if c.Database.Driver == "postgresql" {
		c.Database.Driver = DriverPostgres
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Database.Driver == DriverSQLite && strings.TrimSpace(c.Database.SQLitePath) == "" {
		return fmt.Errorf("invalid configuration: SQLITE_PATH is required when DB_DRIVER=%s", DriverSQLite)
	}
	return nil
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	return logging.ParseLevel(c.LogLevel)
}

// Unload closes the log file, if any.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
		c.logFile = nil
	}
}
