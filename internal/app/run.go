package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"yashubustudio/ailian/detector"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

const (
	fyneAppID    = "yashubustudio.ailian"
	logLineLimit = 300
)

// Run loads the configuration, opens the detector and starts the desktop UI.
func Run() error {
	a := fyneapp.NewWithID(fyneAppID)

	cfg, err := detector.LoadConfig("")
	if err != nil {
		showFatalError(a, fmt.Errorf("설정을 불러오지 못했습니다: %w", err))
		return err
	}

	logBind := binding.NewString()
	capture := newLogCapture(logBind, logLineLimit)
	logger := newLogger(io.MultiWriter(os.Stdout, capture), cfg.LogLevel)

	if written, err := detector.EnsureConfigFile("", cfg); err != nil {
		logger.Warn("Could not write default config", "error", err)
	} else if written {
		logger.Info("Wrote default config", "path", "config.json")
	}

	svc, err := detector.OpenService(cfg, logger)
	if err != nil {
		showFatalError(a, fmt.Errorf("검출기를 초기화하지 못했습니다: %w", err))
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Calibrator.Watch {
		go func() {
			if err := svc.Store().Watch(ctx); err != nil {
				logger.Warn("Calibrator watch stopped", "error", err)
			}
		}()
	}

	u := buildUI(a, svc, logBind, logger)
	u.w.ShowAndRun()
	return nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func showFatalError(a fyne.App, err error) {
	w := a.NewWindow("AILian")
	w.SetContent(widget.NewLabel(err.Error()))
	w.Resize(fyne.NewSize(480, 160))
	d := dialog.NewError(err, w)
	d.SetOnClosed(func() { a.Quit() })
	d.Show()
	w.ShowAndRun()
}
