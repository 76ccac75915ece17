// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"go.uber.org/zap"

	"github.com/jeranaias/salescoach-tui/internal/audio"
	"github.com/jeranaias/salescoach-tui/internal/backend"
	"github.com/jeranaias/salescoach-tui/internal/config"
	"github.com/jeranaias/salescoach-tui/internal/conversation"
	"github.com/jeranaias/salescoach-tui/internal/logging"
)

// App holds the collaborators shared by the TUI and the line chat.
type App struct {
	Config   *config.Config
	Client   *backend.Client
	Pipeline *audio.Pipeline
	Speaker  *audio.Speaker
	Coach    *conversation.Coach
	Logger   *zap.Logger

	// ConfigFile is the file to watch for changes.
	ConfigFile string

	// LoadWarning is set when the config file could not be read and
	// defaults are in use.
	LoadWarning error
}

// Bootstrap loads configuration, starts logging and wires the backend
// client, audio devices and coach.
func Bootstrap(args Args) (*App, error) {
	cfg, loadErr := LoadConfig(args)
	if cfg == nil {
		return nil, loadErr
	}
	config.SetGlobal(cfg)

	if err := logging.Init(logging.Options{Level: cfg.Log.Level, File: cfg.Log.LogPath()}); err != nil {
		return nil, NewCommandError("salescoach", "start", "could not open log file", err)
	}
	logger := logging.Named(logging.CategoryApp)
	if loadErr != nil {
		logger.Warn("config file ignored, using defaults", zap.Error(loadErr))
	}

	client := backend.NewClient(cfg.Backend.URL).
		WithTimeout(cfg.Backend.Timeout()).
		WithLogger(logging.Named(logging.CategoryBackend))

	audioLog := logging.Named(logging.CategoryAudio)
	pipeline := audio.NewPipeline(
		&audio.CommandMicrophone{Command: audio.SplitCommand(cfg.Audio.CaptureCommand), Logger: audioLog},
		client,
		audio.WithFormat(cfg.Audio.Format()),
		audio.WithMaxDuration(cfg.Audio.MaxDuration()),
		audio.WithLogger(audioLog),
	)
	speaker := audio.NewSpeaker(
		client,
		&audio.CommandPlayer{Command: audio.SplitCommand(cfg.Audio.PlaybackCommand), Logger: audioLog},
		cfg.Audio.Voice,
		audioLog,
	)

	coach := conversation.NewCoach(client,
		conversation.WithSpeaker(speaker),
		conversation.WithTTS(cfg.Conversation.TTSEnabled),
		conversation.WithLogger(logging.Named(logging.CategoryConversation)),
	)

	configFile := args.ConfigPath
	if configFile == "" {
		configFile, _ = config.ConfigPathTOML()
	}

	logger.Info("salescoach starting",
		zap.String("version", Version),
		zap.String("backend", client.BaseURL()),
		zap.String("role", cfg.Conversation.DefaultRole),
		zap.String("scenario", cfg.Conversation.DefaultScenario))

	return &App{
		Config:      cfg,
		Client:      client,
		Pipeline:    pipeline,
		Speaker:     speaker,
		Coach:       coach,
		Logger:      logger,
		ConfigFile:  configFile,
		LoadWarning: loadErr,
	}, nil
}

// Close stops audio and flushes the log.
func (a *App) Close() {
	if s := a.Pipeline.Active(); s != nil {
		s.Stop()
	}
	a.Speaker.Stop()
	a.Logger.Info("salescoach exiting")
	logging.Shutdown()
}
