package assets

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"montage/internal/audio"
	"montage/pkg/models"

	"github.com/dhowden/tag"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// Catalog is the registry behind the timeline's weak asset references. It
// wraps a SQLite database; clips only ever hold asset IDs, so removing a
// catalog entry never cascades into the timeline — affected clips simply go
// offline. Safe for concurrent use because *sql.DB is concurrency-safe.
type Catalog struct {
	conn   *sql.DB
	logger *logrus.Logger

	insertStmt    *sql.Stmt
	getByIDStmt   *sql.Stmt
	getByPathStmt *sql.Stmt
	setOnlineStmt *sql.Stmt
	removeStmt    *sql.Stmt
}

// video formats are registered by extension only; their streams are probed
// by the out-of-scope frame provider, not here.
var videoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".mkv": true, ".webm": true, ".avi": true,
}

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
}

// NewCatalog opens (or creates) the asset catalog at the given path and
// ensures the schema exists. Caller should Close() it when finished.
func NewCatalog(dbPath string, logger *logrus.Logger) (*Catalog, error) {
	if logger == nil {
		logger = logrus.New()
	}

	conn, err := sql.Open("sqlite3", dbPath+"?cache=shared&mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open asset catalog: %w", err)
	}

	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(15 * time.Minute)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA temp_store=memory;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			logger.WithError(err).WithField("pragma", pragma).Warn("Failed to set pragma")
		}
	}

	c := &Catalog{conn: conn, logger: logger}
	if err := c.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	if err := c.prepareStatements(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}
	return c, nil
}

func (c *Catalog) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		path TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		title TEXT NOT NULL,
		duration REAL NOT NULL DEFAULT 0,
		sample_rate INTEGER NOT NULL DEFAULT 0,
		channels INTEGER NOT NULL DEFAULT 0,
		file_size INTEGER NOT NULL DEFAULT 0,
		online INTEGER NOT NULL DEFAULT 1,
		imported_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_assets_path ON assets(path);
	CREATE INDEX IF NOT EXISTS idx_assets_kind ON assets(kind);
	`
	_, err := c.conn.Exec(schema)
	return err
}

func (c *Catalog) prepareStatements() error {
	var err error
	if c.insertStmt, err = c.conn.Prepare(
		`INSERT INTO assets (id, path, kind, title, duration, sample_rate, channels, file_size, online, imported_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`); err != nil {
		return err
	}
	if c.getByIDStmt, err = c.conn.Prepare(
		`SELECT id, path, kind, title, duration, sample_rate, channels, file_size, online, imported_at
		 FROM assets WHERE id = ?`); err != nil {
		return err
	}
	if c.getByPathStmt, err = c.conn.Prepare(
		`SELECT id, path, kind, title, duration, sample_rate, channels, file_size, online, imported_at
		 FROM assets WHERE path = ?`); err != nil {
		return err
	}
	if c.setOnlineStmt, err = c.conn.Prepare(
		`UPDATE assets SET online = ? WHERE path = ?`); err != nil {
		return err
	}
	if c.removeStmt, err = c.conn.Prepare(
		`DELETE FROM assets WHERE id = ?`); err != nil {
		return err
	}
	return nil
}

// Import registers a media file and returns the stored asset. Audio files
// are probed for duration/stream parameters and tagged titles; other kinds
// fall back to the file name.
func (c *Catalog) Import(path string) (models.Asset, error) {
	st, err := os.Stat(path)
	if err != nil {
		return models.Asset{}, fmt.Errorf("asset not readable: %w", err)
	}

	if existing, err := c.GetByPath(path); err == nil {
		return existing, nil
	}

	asset := models.Asset{
		ID:         uuid.New().String(),
		Path:       path,
		Kind:       classify(path),
		Title:      strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		FileSize:   st.Size(),
		Online:     true,
		ImportedAt: time.Now(),
	}

	if asset.Kind == "audio" {
		if info, err := audio.Probe(path); err == nil {
			asset.Duration = info.Duration
			asset.SampleRate = info.SampleRate
			asset.Channels = info.Channels
		} else {
			c.logger.WithError(err).WithField("path", path).Warn("Failed to probe audio, duration unknown")
		}
		if title := readTagTitle(path); title != "" {
			asset.Title = title
		}
	}

	_, err = c.insertStmt.Exec(
		asset.ID, asset.Path, asset.Kind, asset.Title, asset.Duration,
		asset.SampleRate, asset.Channels, asset.FileSize, asset.Online, asset.ImportedAt,
	)
	if err != nil {
		return models.Asset{}, fmt.Errorf("failed to store asset: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"assetId": asset.ID,
		"kind":    asset.Kind,
		"title":   asset.Title,
	}).Info("Asset imported")

	return asset, nil
}

// Get returns an asset by ID
func (c *Catalog) Get(id string) (models.Asset, error) {
	return c.scanOne(c.getByIDStmt.QueryRow(id))
}

// GetByPath returns an asset by file path
func (c *Catalog) GetByPath(path string) (models.Asset, error) {
	return c.scanOne(c.getByPathStmt.QueryRow(path))
}

// All returns every registered asset ordered by import time
func (c *Catalog) All() ([]models.Asset, error) {
	rows, err := c.conn.Query(
		`SELECT id, path, kind, title, duration, sample_rate, channels, file_size, online, imported_at
		 FROM assets ORDER BY imported_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []models.Asset
	for rows.Next() {
		var a models.Asset
		if err := rows.Scan(&a.ID, &a.Path, &a.Kind, &a.Title, &a.Duration,
			&a.SampleRate, &a.Channels, &a.FileSize, &a.Online, &a.ImportedAt); err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// SetOnline flips the online flag for the asset backing the given path
func (c *Catalog) SetOnline(path string, online bool) error {
	_, err := c.setOnlineStmt.Exec(online, path)
	return err
}

// Remove deletes an asset from the catalog. Timeline clips referencing it
// keep their (now dangling) assetId; that is the weak-reference contract.
func (c *Catalog) Remove(id string) error {
	_, err := c.removeStmt.Exec(id)
	return err
}

// Close releases prepared statements and the connection
func (c *Catalog) Close() error {
	for _, stmt := range []*sql.Stmt{c.insertStmt, c.getByIDStmt, c.getByPathStmt, c.setOnlineStmt, c.removeStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return c.conn.Close()
}

func (c *Catalog) scanOne(row *sql.Row) (models.Asset, error) {
	var a models.Asset
	err := row.Scan(&a.ID, &a.Path, &a.Kind, &a.Title, &a.Duration,
		&a.SampleRate, &a.Channels, &a.FileSize, &a.Online, &a.ImportedAt)
	if err != nil {
		return models.Asset{}, err
	}
	return a, nil
}

// classify maps a file extension to an asset kind
func classify(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case audio.IsSupportedFormat(path):
		return "audio"
	case videoExtensions[ext]:
		return "video"
	case imageExtensions[ext]:
		return "image"
	default:
		return "unknown"
	}
}

// readTagTitle reads an embedded title tag, returning "" when absent
func readTagTitle(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	metadata, err := tag.ReadFrom(f)
	if err != nil {
		return ""
	}
	return metadata.Title()
}
