package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/soocke/clerk-capture-go/app"
	"github.com/soocke/clerk-capture-go/assets"
	"github.com/soocke/clerk-capture-go/config"
	"github.com/soocke/clerk-capture-go/domain/records"
)

func main() {
	cfgPath := flag.String("config", filepath.Join("config", "config.json"), "settings file (.json or .ini)")
	stepsPath := flag.String("steps", "", "step file, overrides steps_path")
	once := flag.Bool("once", false, "run a single capture and exit")
	initSteps := flag.Bool("init", false, "write a sample step file and exit")
	debugFlag := flag.Bool("debug", false, "verbose logging and runtime stats")
	setHotkey := flag.String("set-hotkey", "", "validate and save a new hotkey, then exit")
	resume := flag.Bool("resume", false, "load records from export_path before starting")
	list := flag.Bool("list", false, "print saved records from export_path and exit")
	search := flag.String("search", "", "with -list, keep rows containing this text")
	sortBy := flag.String("sort", "", "with -list, sort by nickname, order_number, merchant or created_at")
	desc := flag.Bool("desc", false, "with -sort, sort descending")
	page := flag.Int("page", 1, "with -list, page to print")
	flag.Parse()

	// Base config from file, defaults when absent.
	cfg, cfgErr := config.Load(*cfgPath)
	if *stepsPath != "" {
		cfg.StepsPath = *stepsPath
	}
	if *debugFlag {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}

	logger, closeLog, err := NewLogger(parseLevel(cfg.LogLevel), cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	if cfgErr != nil {
		logger.Warn("config.load_failed", "path", *cfgPath, "error", cfgErr)
	}

	switch {
	case *initSteps:
		wrote, err := assets.WriteSampleSteps(cfg.StepsPath)
		if err != nil {
			logger.Error("init.failed", "path", cfg.StepsPath, "error", err)
			os.Exit(1)
		}
		logger.Info("init.done", "path", cfg.StepsPath, "written", wrote)
		return
	case *setHotkey != "":
		if _, err := app.ParseHotkey(*setHotkey); err != nil {
			logger.Error("hotkey.invalid", "hotkey", *setHotkey, "error", err)
			os.Exit(2)
		}
		if cfgErr != nil {
			logger.Error("hotkey.save_refused", "path", *cfgPath, "reason", "config file could not be read", "error", cfgErr)
			os.Exit(1)
		}
		cfg.Hotkey = *setHotkey
		if err := cfg.Validate(); err == nil {
			err = cfg.Save(*cfgPath)
		}
		if err != nil {
			logger.Error("hotkey.save_failed", "path", *cfgPath, "error", err)
			os.Exit(1)
		}
		logger.Info("hotkey.changed", "hotkey", cfg.Hotkey, "path", *cfgPath)
		return
	}

	c := app.BuildContainer(cfg, logger, os.Stdout)
	browsing := *list || *search != "" || *sortBy != ""
	if *resume || browsing {
		loadExisting(c.Records, cfg.ExportPath, logger)
	}
	application := app.NewApp(c)

	if browsing {
		opts := app.BrowseOptions{Search: *search, SortBy: *sortBy, Desc: *desc, Page: *page}
		if err := application.Browse(opts); err != nil {
			logger.Error("records.browse_failed", "error", err)
			os.Exit(2)
		}
		return
	}

	if *once {
		if err := application.RunOnce(); err != nil {
			logger.Error("capture.once_failed", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := application.Start(ctx); err != nil {
		logger.Error("app.failed", "error", err)
		os.Exit(1)
	}
}

func loadExisting(store *records.Store, path string, logger *slog.Logger) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		logger.Warn("records.resume_failed", "path", path, "error", err)
		return
	}
	defer f.Close()
	entries, err := records.ReadCSV(f)
	if err != nil {
		logger.Warn("records.resume_failed", "path", path, "error", err)
		return
	}
	store.Load(entries)
	logger.Info("records.resumed", "path", path, "count", len(entries))
}
