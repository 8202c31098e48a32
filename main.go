package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"github.com/leafo/fslist/internal/listing"
	"github.com/leafo/fslist/internal/sqlitefs"
)

type cliArgs struct {
	Dir          string `arg:"positional" help:"directory to list"`
	DBPath       string `arg:"--db,env:FSLIST_DB" default:":memory:" help:"SQLite database hosting the fs_list relation"`
	Glob         string `arg:"--glob,env:FSLIST_GLOB" help:"only list file names matching this doublestar pattern"`
	OrderBy      string `arg:"--order,env:FSLIST_ORDER" help:"order rows by name, size or modified"`
	Format       string `arg:"--format,env:FSLIST_FORMAT" default:"text" help:"output format: text or json"`
	Human        bool   `arg:"--human,env:FSLIST_HUMAN" help:"print sizes in human readable units"`
	TimeLayout   string `arg:"--time-layout,env:FSLIST_TIME_LAYOUT" default:"legacy" help:"timestamp layout: legacy, iso or a Go time layout"`
	Query        string `arg:"--query,env:FSLIST_QUERY" help:"run this SQL statement instead of the default listing; DIR is bound to ?"`
	Watch        bool   `arg:"--watch,env:FSLIST_WATCH" help:"keep running and dispatch changes to the configured targets"`
	ShellCommand string `arg:"--shell-command,env:FSLIST_SHELL_COMMAND" help:"command receiving change sets as JSON on stdin"`
	MeiliHost    string `arg:"--meili-host,env:FSLIST_MEILI_HOST" help:"Meilisearch host"`
	MeiliKey     string `arg:"--meili-key,env:FSLIST_MEILI_KEY" help:"Meilisearch API key"`
	MeiliIndex   string `arg:"--meili-index,env:FSLIST_MEILI_INDEX" help:"Meilisearch index receiving listed rows"`
	Verbose      bool   `arg:"-v,--verbose,env:FSLIST_VERBOSE" help:"enable debug logging"`
}

func (cliArgs) Description() string {
	return "List a directory through the fs_list SQLite virtual table"
}

func (a cliArgs) config() listing.Config {
	return listing.Config{
		Pattern:    a.Glob,
		OrderBy:    a.OrderBy,
		TimeLayout: a.TimeLayout,
		Shell:      listing.ShellTargetConfig{Command: a.ShellCommand},
		Meilisearch: listing.MeilisearchConfig{
			Host:   a.MeiliHost,
			APIKey: a.MeiliKey,
			Index:  a.MeiliIndex,
		},
	}
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	var args cliArgs
	p := arg.MustParse(&args)
	if args.Dir == "" {
		args.Dir = "."
	}
	if args.Format != "text" && args.Format != "json" {
		p.Fail("--format must be text or json")
	}

	level := slog.LevelInfo
	if args.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, args, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("fslist failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args cliArgs, logger *slog.Logger) error {
	cfg := args.config()

	db, err := sqlitefs.OpenDatabaseWithConfig(ctx, args.DBPath, sqlitefs.Config{
		Options: cfg.RelationOptions(),
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	logger.Debug("Opened database", "path", args.DBPath)

	lister := listing.NewLister(db, cfg.Options(), logger)

	if args.Query != "" {
		cols, rows, err := lister.Query(ctx, args.Query, args.Dir)
		if err != nil {
			return err
		}
		return writeQueryResult(os.Stdout, args.Format, cols, rows)
	}

	if args.Watch {
		targets, err := cfg.Targets(ctx, logger)
		if err != nil {
			return err
		}
		for _, target := range targets {
			lister.RegisterSyncTarget(target)
		}
		if len(targets) == 0 {
			logger.Warn("Watch mode has no targets; changes are only logged")
		}
		return lister.Watch(ctx, args.Dir)
	}

	rows, err := lister.List(ctx, args.Dir)
	if err != nil {
		return err
	}
	return writeRows(os.Stdout, args.Format, args.Human, rows)
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func renderTable(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func writeRows(w io.Writer, format string, human bool, rows []listing.Row) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if rows == nil {
			rows = []listing.Row{}
		}
		return enc.Encode(rows)
	}

	headers := []string{"file_name", "extension", "type", "readonly", "bytes", "modified"}
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		size := strconv.FormatInt(r.Bytes, 10)
		if human {
			size = humanize.Bytes(uint64(max(r.Bytes, 0)))
		}
		cells = append(cells, []string{
			r.FileName,
			r.Extension,
			entryType(r),
			strconv.FormatBool(r.Readonly),
			size,
			nullText(r.Modified.String, r.Modified.Valid),
		})
	}
	return renderTable(w, headers, cells)
}

func writeQueryResult(w io.Writer, format string, cols []string, rows [][]any) error {
	if format == "json" {
		docs := make([]map[string]any, 0, len(rows))
		for _, row := range rows {
			doc := make(map[string]any, len(cols))
			for i, col := range cols {
				doc[col] = row[i]
			}
			docs = append(docs, doc)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	}

	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		line := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				line[i] = "NULL"
				continue
			}
			line[i] = fmt.Sprint(v)
		}
		cells = append(cells, line)
	}
	return renderTable(w, cols, cells)
}

func entryType(r listing.Row) string {
	switch {
	case r.IsSymLink:
		return "symlink"
	case r.IsDir:
		return "dir"
	case r.IsFile:
		return "file"
	default:
		return "other"
	}
}

func nullText(s string, valid bool) string {
	if !valid {
		return "NULL"
	}
	return s
}
