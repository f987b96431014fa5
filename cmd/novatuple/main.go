package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/tuannm99/novatuple/internal"
	"github.com/tuannm99/novatuple/internal/catalog"
	"github.com/tuannm99/novatuple/internal/gologger"
	"github.com/tuannm99/novatuple/internal/sql/executor"
	"github.com/tuannm99/novatuple/internal/storage"
)

var logger = gologger.NewLogger()

const prompt = "novatuple> "

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".novatuple_history"
	}
	return filepath.Join(home, ".novatuple_history")
}

func openCatalog(cfg *internal.NovaTupleConfig) (*catalog.Catalog, error) {
	sm, err := storage.NewStorageManager(cfg.Storage.PageSize)
	if err != nil {
		return nil, err
	}
	layouts := storage.NewLayoutCache(cfg.LayoutCache.Capacity)
	cat := catalog.New(cfg.Storage.Workdir, sm, layouts, cfg.Storage.PoolCapacity)
	if err := cat.Open(); err != nil {
		return nil, err
	}
	if cfg.Catalog.SchemaFile != "" {
		if err := cat.LoadSchema(cfg.Catalog.SchemaFile); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

func importTables(cat *catalog.Catalog, dialect, dsn, tables string) error {
	d, err := catalog.ParseDialect(dialect)
	if err != nil {
		return err
	}
	db, err := catalog.OpenExternal(d, dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	for _, name := range strings.Split(tables, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		t, err := cat.ImportTable(context.Background(), db, d, name)
		if err != nil {
			return err
		}
		fmt.Printf("imported %s %s\n", t.Name, t.Desc)
	}
	return nil
}

func main() {
	var (
		cfgPath    = flag.String("config", "", "path to a YAML config file")
		histPath   = flag.String("history", defaultHistoryPath(), "history file path")
		histMax    = flag.Int("history-max", 2000, "max history lines loaded into memory")
		oneShotSQL = flag.String("c", "", "execute one SQL and exit (must end with ';')")
		impDialect = flag.String("import-dialect", "", "external database to import schemas from: sqlite, postgres or mysql")
		impDSN     = flag.String("import-dsn", "", "data source name of the external database")
		impTables  = flag.String("import-tables", "", "comma-separated tables to import")
	)
	flag.Parse()

	cfg, err := internal.LoadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := gologger.SetLevel(cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "log level: %v\n", err)
		os.Exit(1)
	}

	cat, err := openCatalog(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open catalog: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := cat.Flush(); err != nil {
			logger.Error().Err(err).Msg("flush on exit")
		}
	}()
	logger.Debug().Str("workdir", cfg.Storage.Workdir).Int("tables", len(cat.TableNames())).Msg("catalog opened")

	if *impDialect != "" {
		if err := importTables(cat, *impDialect, *impDSN, *impTables); err != nil {
			fmt.Fprintf(os.Stderr, "import: %v\n", err)
			os.Exit(1)
		}
	}

	ex := executor.NewExecutor(cat)

	// one-shot mode
	if strings.TrimSpace(*oneShotSQL) != "" {
		res, err := ex.ExecSQL(*oneShotSQL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		printResult(res)
		return
	}

	if err := repl(ex, *histPath, *histMax); err != nil {
		fmt.Fprintf(os.Stderr, "readline: %v\n", err)
		os.Exit(1)
	}
}

func repl(ex *executor.Executor, histPath string, histMax int) error {
	h := NewHistory(histPath, histMax)
	if err := h.Load(); err != nil {
		logger.Warn().Err(err).Str("path", histPath).Msg("history not loaded")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer func() { _ = rl.Close() }()

	for _, line := range h.Last(0) {
		_ = rl.SaveHistory(line)
	}

	var buf strings.Builder
	fmt.Println("type \\help for help")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			// Ctrl+C clears current buffer
			if buf.Len() > 0 {
				buf.Reset()
				rl.SetPrompt(prompt)
				continue
			}
			fmt.Println("^C")
			continue
		}
		if err != nil {
			// EOF
			fmt.Println()
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if buf.Len() == 0 && isMetaCommand(line) {
			if quit := runMeta(ex, h, line); quit {
				return nil
			}
			continue
		}

		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(line)

		if !statementComplete(buf.String()) {
			rl.SetPrompt("...> ")
			continue
		}

		stmt := strings.TrimSpace(buf.String())
		buf.Reset()
		rl.SetPrompt(prompt)

		if added, err := h.Append(stmt); err != nil {
			logger.Warn().Err(err).Msg("history not saved")
		} else if added {
			_ = rl.SaveHistory(compactOneLine(stmt))
		}

		res, err := ex.ExecSQL(stmt)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		printResult(res)
	}
}

func runMeta(ex *executor.Executor, h *History, line string) (quit bool) {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "\\q", "quit", "exit":
		return true
	case "\\help":
		fmt.Println(`meta commands:
  \q | quit | exit       quit
  \d                     list tables
  \d <table>             show a table's tuple descriptor
  \history               print history
  \help                  show help

sql:
  CREATE TABLE t (col TYPE [PRIMARY KEY], ...);   types: INT BIGINT BOOL FLOAT TEXT
  DROP TABLE t;  DESCRIBE t;
  INSERT INTO t VALUES (...);
  SELECT <*|cols> FROM t [JOIN u ON t.a = u.b] [WHERE col = literal];
  DELETE FROM t [WHERE col = literal];
  end statement with ';' (multiline waits until ';')`)
	case "\\d":
		if arg == "" {
			for _, name := range ex.Cat.TableNames() {
				fmt.Println(name)
			}
			return false
		}
		t, err := ex.Cat.Table(arg)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return false
		}
		fmt.Printf("%s %s (%d bytes per tuple, id %s)\n", t.Name, t.Desc, t.Desc.Size(), t.ID)
	case "\\history":
		last := h.Last(50)
		first := len(h.lines) - len(last)
		for i, line := range last {
			fmt.Printf("%5d  %s\n", first+i+1, line)
		}
	default:
		fmt.Printf("unknown command: %s\n", line)
	}
	return false
}
