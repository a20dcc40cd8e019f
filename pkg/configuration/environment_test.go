package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_FallsBackToGoModRoot(t *testing.T) {
	tmp := t.TempDir()

	requireWriteFile(t, filepath.Join(tmp, "go.mod"), "module example.com/test\n\ngo 1.22\n")
	requireWriteFile(t, filepath.Join(tmp, ".env.local"), "ORGCHART_TEST_ENV_LOAD=ok\n")

	sub := filepath.Join(tmp, "modules", "orgchart")
	requireMkdirAll(t, sub)
	chdir(t, sub)

	t.Setenv("ORGCHART_TEST_ENV_LOAD", "")
	_ = os.Unsetenv("ORGCHART_TEST_ENV_LOAD")

	n, err := LoadEnv([]string{".env", ".env.local"})
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 env file loaded, got %d", n)
	}
	if got := os.Getenv("ORGCHART_TEST_ENV_LOAD"); got != "ok" {
		t.Fatalf("expected env var loaded from repo root, got %q", got)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	c, err := Load()
	require.NoError(t, err)
	t.Cleanup(c.Unload)

	require.Equal(t, DriverSQLite, c.Database.Driver)
	require.Equal(t, "person.db", c.Database.SQLitePath)
	require.True(t, c.Database.AutoMigrate)
	require.Equal(t, ";", c.Import.SupervisorSeparator)
	require.Equal(t, "warn", c.Import.DuplicateNames)
	require.Equal(t, "warn", c.Import.UnresolvedSupervisors)
	require.Equal(t, "flat", c.Export.Format)
	require.Equal(t, "nan", c.Export.ImagePlaceholder)
	require.Equal(t, 4, c.Export.Indent)
	require.Equal(t, logrus.WarnLevel, c.LogrusLogLevel())
	require.NotNil(t, c.Logger())
}

func TestLoad_NormalizesAndOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("DB_DRIVER", " PostgreSQL ")
	t.Setenv("ORGCHART_FORMAT", "Treant")
	t.Setenv("ORGCHART_UNRESOLVED_SUPERVISORS", "REJECT")
	t.Setenv("ORGCHART_ROOT", "  Murilo ")
	t.Setenv("LOG_LEVEL", "debug")

	c, err := Load()
	require.NoError(t, err)
	t.Cleanup(c.Unload)

	require.Equal(t, DriverPostgres, c.Database.Driver)
	require.Equal(t, "treant", c.Export.Format)
	require.Equal(t, "reject", c.Import.UnresolvedSupervisors)
	require.Equal(t, "Murilo", c.Export.Root)
	require.Equal(t, logrus.DebugLevel, c.LogrusLogLevel())
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"DB_DRIVER":                       "mysql",
		"ORGCHART_FORMAT":                 "xml",
		"ORGCHART_DUPLICATE_NAMES":        "ignore",
		"ORGCHART_UNRESOLVED_SUPERVISORS": "maybe",
		"ORGCHART_INDENT":                 "99",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			isolate(t)
			t.Setenv(key, value)

			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestDatabaseOptions_ConnectionStrings(t *testing.T) {
	d := DatabaseOptions{
		Name:       "orgchart",
		Host:       "db",
		Port:       "5433",
		User:       "app",
		Password:   "p@ss:word",
		SSLMode:    "disable",
		SQLitePath: "data/person.db",
	}
	require.Equal(t, "postgres://app:p%40ss%3Aword@db:5433/orgchart?sslmode=disable", d.ConnectionString())
	require.Equal(t, "file:data/person.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", d.SQLiteDSN())
}

// isolate runs the test from an empty module directory so no developer .env
// files leak into it.
func isolate(t *testing.T) {
	t.Helper()
	tmp := t.TempDir()
	requireWriteFile(t, filepath.Join(tmp, "go.mod"), "module example.com/test\n\ngo 1.22\n")
	chdir(t, tmp)
	for _, key := range []string{
		"DB_DRIVER", "SQLITE_PATH", "ORGCHART_FORMAT", "ORGCHART_DUPLICATE_NAMES",
		"ORGCHART_UNRESOLVED_SUPERVISORS", "ORGCHART_INDENT", "ORGCHART_ROOT",
		"ORGCHART_SUPERVISOR_SEPARATOR", "ORGCHART_IMAGE_PLACEHOLDER", "LOG_LEVEL", "LOG_PATH",
		"DB_AUTO_MIGRATE",
	} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
}

func requireWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func requireMkdirAll(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}
