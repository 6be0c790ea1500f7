package migrate_test

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/cartelabolao/cartela-admin/pkg/config"
	"github.com/cartelabolao/cartela-admin/pkg/db"
	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/migrate"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

var createTablePattern = regexp.MustCompile(`(?i)CREATE TABLE IF NOT EXISTS (\w+)`)

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestEmbeddedSourceMatchesDisk(t *testing.T) {
	source, err := migrate.Source("")
	require.NoError(t, err)
	require.NoError(t, migrate.Validate(source))

	embedded, err := fs.Glob(source, "*.sql")
	require.NoError(t, err)
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	require.NoError(t, err)
	require.Len(t, embedded, len(onDisk))
}

func TestSourceRejectsMissingDir(t *testing.T) {
	_, err := migrate.Source(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestValidateRejectsMissingDownMarker(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_only_up.sql"), []byte("-- +goose Up\nSELECT 1;\n"), 0o644))
	require.ErrorContains(t, migrate.ValidateDir(dir), "+goose Down")
}

func TestSalesMigrationEnforcesSellerExclusivity(t *testing.T) {
	content := readMigration(t, "*_create_sales.sql")
	require.Contains(t, content, "CONSTRAINT sales_seller_matches_origin CHECK")
	require.Contains(t, content, "sale_origin = 'direct' AND seller_id IS NULL")
}

func TestBolaoMigrationConstraints(t *testing.T) {
	content := readMigration(t, "*_create_cards_and_bolao.sql")
	for _, check := range []string{
		"sale_id uuid NOT NULL UNIQUE REFERENCES sales(id),",
		"CONSTRAINT idx_bolao_groups_edition_number UNIQUE (edition_id, group_number)",
		"quota_numbers jsonb NOT NULL",
		"upload_type text NOT NULL CHECK (upload_type IN ('group_cards', 'individual_card', 'other'))",
	} {
		require.Contains(t, content, check)
	}
}

func TestEditionsMigrationAllowsOneActiveEdition(t *testing.T) {
	content := readMigration(t, "*_create_editions.sql")
	require.Contains(t, content, "CREATE UNIQUE INDEX IF NOT EXISTS editions_single_active_idx")
	require.Contains(t, content, "WHERE status = 'active'")
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Seller Pix Key")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_seller_pix_key.sql"))
	require.NoError(t, migrate.ValidateDir(dir))

	_, err = migrate.CreateSQLMigration(dir, "!!!")
	require.Error(t, err)
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "init.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.Error(t, migrate.ValidateDir(dir))
}

func TestPrepareBuildsSQLiteSchema(t *testing.T) {
	ctx := context.Background()
	client, err := db.New(ctx, config.DBConfig{
		Driver: config.DBDriverSQLite,
		DSN:    "file:migrate_" + uuid.NewString() + "?mode=memory&cache=shared",
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, migrate.Prepare(ctx, &config.Config{}, nil, client))
	for _, table := range []string{"editions", "sales", "bolao_groups", "bolao_quotas", "card_uploads", "system_settings"} {
		require.True(t, client.DB().Migrator().HasTable(table), table)
	}
}

func TestModelTablesMatchMigrations(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	require.NoError(t, err)

	var created []string
	for _, path := range paths {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		for _, match := range createTablePattern.FindAllStringSubmatch(string(data), -1) {
			created = append(created, match[1])
		}
	}

	cache := &sync.Map{}
	var mapped []string
	for _, model := range models.All() {
		parsed, err := schema.Parse(model, cache, schema.NamingStrategy{})
		require.NoError(t, err)
		mapped = append(mapped, parsed.Table)
	}

	require.Contains(t, mapped, "bolao_quotas")
	require.ElementsMatch(t, created, mapped)
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}
