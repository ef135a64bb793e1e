package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/basaltengine/basalt/internal/behavior"
	"github.com/basaltengine/basalt/internal/config"
	"github.com/basaltengine/basalt/internal/core/frame"
	"github.com/basaltengine/basalt/internal/core/pool"
	"github.com/basaltengine/basalt/internal/prefab"
	"github.com/basaltengine/basalt/internal/scene"
	"github.com/basaltengine/basalt/internal/scripting"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "config/basalt.toml", "path to the runtime config")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	catalog, err := prefab.ReadFile(cfg.Assets.Catalog)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	log.Info("catalog loaded",
		zap.String("file", cfg.Assets.Catalog),
		zap.Int("graphs", len(catalog.Graphs)),
		zap.Int("graphics", len(catalog.Graphics)))

	reg := scene.NewRegistry()
	behavior.RegisterAll(reg, behavior.Options{Log: log})

	eng := scripting.NewEngine(log)
	defer eng.Close()
	if err := eng.LoadDir(cfg.Assets.ScriptsDir); err != nil {
		return fmt.Errorf("load scripts: %w", err)
	}
	eng.Bind(reg)
	if n := eng.BehaviorCount(); n > 0 {
		log.Info("lua behaviors loaded", zap.Int("count", n))
	}

	pad := newScriptedPad(cfg.Input.Presses, log)
	h := scene.New(catalog, reg, pad, log)
	h.SpawnPrefabByName(cfg.Scene.Initial, h.Root())

	runner := frame.NewRunner()
	runner.Add(frame.PhaseStart, "script-starts", func(uint64) {
		h.RunPendingScriptStarts()
	})
	runner.Add(frame.PhaseUpdate, "script-update", func(uint64) {
		h.RunScriptUpdate()
	})
	runner.Add(frame.PhaseCommit, "scene-commit", func(uint64) {
		if name, ok := h.TakeSceneRequest(); ok {
			h.SwitchScene(name)
		}
	})
	runner.Add(frame.PhaseCommit, "input-advance", func(n uint64) {
		pad.Advance(n + 1)
	})
	runner.Add(frame.PhaseRender, "render-walk", func(uint64) {
		// renderer stand-in: nothing draws, but the walk is the same one a
		// real backend would make
		if !log.Core().Enabled(zap.DebugLevel) {
			return
		}
		h.VisibleNodes(func(hd pool.Handle, n *scene.Node) bool {
			if n.Enabled && n.Sprite.Present() {
				log.Debug("draw",
					zap.Stringer("handle", hd),
					zap.String("sprite", n.Sprite.Asset),
					zap.Uint32("x", n.Transform.X),
					zap.Uint32("y", n.Transform.Y))
			}
			return true
		})
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pad.Advance(1)
	ticker := time.NewTicker(cfg.Run.TickPeriod())
	defer ticker.Stop()

	log.Info("frame loop running",
		zap.Int("tick_hz", cfg.Run.TickHz),
		zap.Int("frames", cfg.Run.Frames),
		zap.String("scene", cfg.Scene.Initial))

	for {
		select {
		case <-ctx.Done():
			log.Info("interrupted",
				zap.Uint64("frames", runner.Frames()),
				zap.Int("nodes", h.NodeCount()))
			return nil
		case <-ticker.C:
			n := runner.RunFrame()
			if cfg.Run.Frames > 0 && n >= uint64(cfg.Run.Frames) {
				log.Info("frame limit reached",
					zap.Uint64("frames", n),
					zap.Int("nodes", h.NodeCount()))
				return nil
			}
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	if cfg.File.Path != "" {
		var enc zapcore.Encoder
		if cfg.Format == "json" {
			enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		} else {
			c := zap.NewDevelopmentEncoderConfig()
			c.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
			enc = zapcore.NewConsoleEncoder(c)
		}
		sink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
		})
		return zap.New(zapcore.NewCore(enc, sink, level)), nil
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
