package main

import (
	"os"
	"os/signal"
	"syscall"

	"montage/internal/assets"
	"montage/internal/audio"
	"montage/internal/config"
	"montage/internal/history"
	"montage/internal/playback"
	"montage/internal/project"
	"montage/internal/timeline"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// The montage binary is a thin host shell around the embedded timeline core:
// it wires the composition root (store, undo stack, audio engine, playback
// sync) together, optionally loads a project given as the first argument and
// plays it. The real UI lives in a separate application consuming the same
// packages.
func main() {
	// .env is optional; environment wins over file values.
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	configPath := os.Getenv("MONTAGE_CONFIG")
	if configPath == "" {
		configPath = "./config.toml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.WithError(err).Fatal("Error loading configuration")
	}
	applyLogging(logger, cfg.Logging)

	catalog, err := assets.NewCatalog(cfg.Assets.CatalogPath, logger)
	if err != nil {
		logger.WithError(err).Fatal("Error opening asset catalog")
	}
	defer catalog.Close()

	if cfg.Assets.WatchForChanges {
		if _, err := os.Stat(cfg.Assets.MediaDir); err == nil {
			watcher, err := assets.NewWatcher(catalog, cfg.Assets.MediaDir, logger)
			if err != nil {
				logger.WithError(err).Warn("Asset watcher unavailable")
			} else {
				defer watcher.Close()
			}
		}
	}

	// Composition root: one store, one stack, one playback engine per session.
	store := timeline.NewStore(logger)
	stack := history.NewStack(cfg.History.MaxDepth, logger)

	player := audio.NewPlayer(logger)
	player.SetVolume(cfg.Playback.Volume)
	defer player.Close()

	engine := playback.NewEngine(store, player, func(frame int) {
		// Frame rendering belongs to the external video provider; the shell
		// only logs the request it would forward.
		logger.WithField("frame", frame).Trace("Frame requested")
	}, cfg.Project.FrameRate, logger)

	if len(os.Args) > 1 {
		projectPath := os.Args[1]
		proj, err := project.LoadFile(projectPath, store)
		if err != nil {
			logger.WithError(err).Fatal("Error loading project")
		}
		logger.WithFields(logrus.Fields{
			"project":  proj.ID,
			"duration": store.Duration(),
			"tracks":   len(store.Tracks()),
		}).Info("Project loaded")

		engine.SetFPS(proj.Settings.FrameRate)
		if path := firstAudioAsset(proj); path != "" {
			if _, err := player.Load(path); err != nil {
				logger.WithError(err).Warn("Audio unavailable, using video clock")
			}
		}
		engine.Play()
	}

	logger.Info("Montage engine ready")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	engine.Stop()
	if stack.IsDirty() {
		logger.Warn("Discarding unsaved changes")
	}
	logger.Info("Shutting down")
}

// applyLogging configures the logger from config
func applyLogging(logger *logrus.Logger, cfg config.LoggingConfig) {
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	}
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
}

// firstAudioAsset returns the path of the first online audio asset, or ""
func firstAudioAsset(proj *project.Project) string {
	for _, asset := range proj.Assets {
		if asset.Kind == "audio" && asset.Online && asset.Path != "" {
			return asset.Path
		}
	}
	return ""
}
