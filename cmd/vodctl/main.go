package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	goflags "github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"ranked-vods/app"
	"ranked-vods/apperr"
	"ranked-vods/config"
	"ranked-vods/models"
	"ranked-vods/service"
)

// Options флаги командной строки
type Options struct {
	User   string `long:"user" short:"u" description:"Only matches of this player (default: all players)"`
	Before string `long:"before" description:"Pagination cursor: only matches with a smaller id"`
	Season string `long:"season" description:"Season filter (8 or later)"`
	Pages  int    `long:"pages" description:"Number of pages to follow" default:"1"`
	JSON   bool   `long:"json" description:"Output in JSON format"`
}

// vodSource источник страниц со ссылками
type vodSource interface {
	GetVods(ctx context.Context, req service.VodRequest) (*service.VodPage, error)
}

func main() {
	_ = godotenv.Load()

	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, nil))
}

// run разбирает флаги и печатает ссылки. vods == nil: сервис собирается из окружения.
func run(args []string, stdout, stderr io.Writer, vods vodSource) int {
	var opts Options
	parser := goflags.NewParser(&opts, goflags.HelpFlag|goflags.PassDoubleDash)
	parser.Name = "vodctl"
	parser.LongDescription = "Print timestamped VOD links for deaths in MCSR Ranked matches."

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok && flagsErr.Type == goflags.ErrHelp {
			fmt.Fprintln(stdout, err)
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}
	if opts.Pages < 1 {
		fmt.Fprintln(stderr, "--pages must be at least 1")
		return 2
	}

	if vods == nil {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		logger, err := app.NewLogger(cfg.LogLevel)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		defer logger.Sync()

		application, err := app.New(cfg, logger)
		if err != nil {
			logger.Error("Failed to initialize service", zap.Error(err))
			return 1
		}
		defer application.Close()
		vods = application.Vods
	}

	before, err := service.ParseCursor(opts.Before)
	if err != nil {
		fmt.Fprintln(stderr, apperr.PublicMessage(err))
		return 2
	}

	events, err := collectPages(context.Background(), vods, opts, before)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitCode(err)
	}

	if opts.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(events); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}

	for _, e := range events {
		fmt.Fprintf(stdout, "%s\t%s\t%s\n", e.WallClock, e.Nickname, e.Link)
	}
	return 0
}

// collectPages проходит по страницам, пока есть курсор
func collectPages(ctx context.Context, vods vodSource, opts Options, before *int64) ([]models.DeathEvent, error) {
	events := make([]models.DeathEvent, 0)
	for i := 0; i < opts.Pages; i++ {
		page, err := vods.GetVods(ctx, service.VodRequest{
			User:   opts.User,
			Before: before,
			Season: opts.Season,
		})
		if err != nil {
			return nil, err
		}
		events = append(events, page.Events...)

		if page.NextCursor == nil {
			break
		}
		before = page.NextCursor
	}
	return events, nil
}

// exitCode 2 для ошибок ввода, 1 для остальных
func exitCode(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindInvalidArgument, apperr.KindNotFound:
		return 2
	default:
		return 1
	}
}
