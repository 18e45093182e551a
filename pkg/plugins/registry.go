package plugins

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/hanjia/skilldex/pkg/db"
)

const pluginDescriptorName = "plugin.json"

// pluginDescriptor is the parsed shape of an optional plugin.json. Only the
// description is consumed.
type pluginDescriptor struct {
	Description string `json:"description"`
}

var registryMigrations = []db.Migration{
	{
		Version:     20260815120000,
		Description: "create plugin_state table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS plugin_state (
					id TEXT PRIMARY KEY,
					enabled INTEGER NOT NULL,
					updated_at DATETIME NOT NULL
				)
			`)
			return err
		},
	},
}

// SQLiteRegistry is the default Registry. Installed plugins are discovered by
// scanning the marketplaces root; the enabled flag is persisted in SQLite.
// Plugins without a persisted row are enabled.
type SQLiteRegistry struct {
	conn         *sqlx.DB
	marketplaces string
}

// NewSQLiteRegistry opens (and migrates) the state database at dbPath and
// serves installed plugins from the given marketplaces root.
func NewSQLiteRegistry(ctx context.Context, dbPath, marketplaces string) (*SQLiteRegistry, error) {
	conn, err := db.Open(ctx, dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx, conn, registryMigrations); err != nil {
		conn.Close()
		return nil, err
	}

	return &SQLiteRegistry{conn: conn, marketplaces: marketplaces}, nil
}

// Close releases the underlying database connection.
func (r *SQLiteRegistry) Close() error {
	return r.conn.Close()
}

// ListInstalled scans every marketplace directory for plugin directories and
// joins each against its persisted enabled flag. An absent marketplaces root
// yields no plugins.
func (r *SQLiteRegistry) ListInstalled(ctx context.Context) ([]Plugin, error) {
	marketplaces, err := os.ReadDir(r.marketplaces)
	if err != nil {
		return nil, nil
	}

	disabled, err := r.disabledIDs(ctx)
	if err != nil {
		return nil, err
	}

	var plugins []Plugin
	for _, marketplace := range marketplaces {
		if !marketplace.IsDir() {
			continue
		}

		pluginsDir := filepath.Join(r.marketplaces, marketplace.Name(), "plugins")
		entries, err := os.ReadDir(pluginsDir)
		if err != nil {
			continue
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}

			path := filepath.Join(pluginsDir, entry.Name())
			id := marketplace.Name() + "/" + entry.Name()

			plugins = append(plugins, Plugin{
				ID:          id,
				Name:        entry.Name(),
				Marketplace: marketplace.Name(),
				Path:        path,
				Description: readPluginDescription(path),
				Enabled:     !disabled[id],
			})
		}
	}

	return plugins, nil
}

// Enable persists the enabled flag for id.
func (r *SQLiteRegistry) Enable(ctx context.Context, id string) error {
	return r.setEnabled(ctx, id, true)
}

// Disable persists the disabled flag for id.
func (r *SQLiteRegistry) Disable(ctx context.Context, id string) error {
	return r.setEnabled(ctx, id, false)
}

// IsEnabled reports the persisted flag for id; ids without a row are enabled.
func (r *SQLiteRegistry) IsEnabled(ctx context.Context, id string) (bool, error) {
	var enabled bool
	err := r.conn.GetContext(ctx, &enabled, "SELECT enabled FROM plugin_state WHERE id = ?", id)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "failed to query state for plugin %q", id)
	}
	return enabled, nil
}

func (r *SQLiteRegistry) setEnabled(ctx context.Context, id string, enabled bool) error {
	_, err := r.conn.ExecContext(ctx, `
		INSERT INTO plugin_state (id, enabled, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET enabled = excluded.enabled, updated_at = excluded.updated_at
	`, id, enabled)
	return errors.Wrapf(err, "failed to persist state for plugin %q", id)
}

func (r *SQLiteRegistry) disabledIDs(ctx context.Context) (map[string]bool, error) {
	var ids []string
	if err := r.conn.SelectContext(ctx, &ids, "SELECT id FROM plugin_state WHERE enabled = 0"); err != nil {
		return nil, errors.Wrap(err, "failed to query disabled plugins")
	}

	disabled := make(map[string]bool, len(ids))
	for _, id := range ids {
		disabled[id] = true
	}
	return disabled, nil
}

func readPluginDescription(pluginDir string) string {
	raw, err := os.ReadFile(filepath.Join(pluginDir, pluginDescriptorName))
	if err != nil {
		return ""
	}

	var desc pluginDescriptor
	if err := json.Unmarshal(raw, &desc); err != nil {
		return ""
	}
	return desc.Description
}
