package main

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMigrationPart(t *testing.T) {
	content := `
-- +migrate Up
CREATE TABLE payment_callbacks (transaction_id text);
CREATE INDEX idx ON payment_callbacks (transaction_id);

-- +migrate Down
DROP TABLE payment_callbacks;
`
	t.Run("Extract Up", func(t *testing.T) {
		up := extractMigrationPart(content, "Up")
		assert.Contains(t, up, "CREATE TABLE payment_callbacks")
		assert.Contains(t, up, "CREATE INDEX")
		assert.NotContains(t, up, "DROP TABLE")
		assert.NotContains(t, up, "-- +migrate Up")
	})

	t.Run("Extract Down", func(t *testing.T) {
		down := extractMigrationPart(content, "Down")
		assert.Contains(t, down, "DROP TABLE payment_callbacks")
		assert.NotContains(t, down, "CREATE TABLE")
	})
}

func TestRepositoryMigrationsHaveBothParts(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "..", "migrations", "*.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		content, err := os.ReadFile(f)
		require.NoError(t, err)
		assert.NotEmpty(t, strings.TrimSpace(extractMigrationPart(string(content), "Up")), f)
		assert.NotEmpty(t, strings.TrimSpace(extractMigrationPart(string(content), "Down")), f)
	}
}

func TestRunMigrationsUp(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tmpDir := t.TempDir()
	applied := filepath.Join(tmpDir, "20250101000001_gateway_settings.sql")
	fresh := filepath.Join(tmpDir, "20250101000003_payment_callbacks.sql")
	require.NoError(t, os.WriteFile(applied, []byte("-- +migrate Up\nCREATE TABLE gateway_settings (id int);"), 0644))
	require.NoError(t, os.WriteFile(fresh, []byte("-- +migrate Up\nCREATE TABLE payment_callbacks (id int);"), 0644))

	mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
		WithArgs(filepath.Base(applied)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
		WithArgs(filepath.Base(fresh)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("CREATE TABLE payment_callbacks").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO schema_migrations").
		WithArgs(filepath.Base(fresh)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, runMigrationsUp(db, []string{applied, fresh}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsDown(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "20250101000002_orders.sql")
	require.NoError(t, os.WriteFile(file, []byte("-- +migrate Up\nCREATE TABLE orders (id int);\n-- +migrate Down\nDROP TABLE orders;"), 0644))

	t.Run("Rollback latest", func(t *testing.T) {
		mock.ExpectQuery("SELECT version FROM schema_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(filepath.Base(file)))
		mock.ExpectExec("DROP TABLE orders").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DELETE FROM schema_migrations").
			WithArgs(filepath.Base(file)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, runMigrationsDown(db, []string{file}))
	})

	t.Run("Nothing applied", func(t *testing.T) {
		mock.ExpectQuery("SELECT version FROM schema_migrations").
			WillReturnError(sql.ErrNoRows)

		require.NoError(t, runMigrationsDown(db, []string{file}))
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_UnknownMode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = run(db, "sideways", t.TempDir())
	assert.ErrorContains(t, err, "unknown mode")
}
