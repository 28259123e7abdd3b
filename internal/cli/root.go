package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/VitaminP8/forum/internal/config"
	"github.com/VitaminP8/forum/internal/storage/relational"
	"github.com/spf13/cobra"
)

// RootOptions - глобальные флаги всех команд
type RootOptions struct {
	ConfigPath string
	Driver     string
	DB         string

	now func() time.Time
}

// NewRootCommand создает корневую команду CLI форума
func NewRootCommand() *cobra.Command {
	return newRootCommand(time.Now)
}

func newRootCommand(now func() time.Time) *cobra.Command {
	opts := &RootOptions{now: now}

	cmd := &cobra.Command{
		Use:           "forum",
		Short:         "Threaded forum",
		Long:          "Create, reply to, delete and browse forum threads stored in SQLite or PostgreSQL.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "database driver (sqlite3|postgres), overrides config")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "SQLite file or PostgreSQL DSN, overrides config")

	cmd.AddCommand(NewPostCommand(opts))
	cmd.AddCommand(NewReplyCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))

	return cmd
}

// openStorage собирает конфиг с учетом флагов и открывает хранилище.
// Вызывающий обязан закрыть соединение.
func openStorage(opts *RootOptions) (*relational.PostRelationalStorage, *relational.Conn, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, err
	}

	if opts.Driver != "" {
		cfg.DBDriver = opts.Driver
	}
	if opts.DB != "" {
		if cfg.DBDriver == relational.DriverPostgres {
			cfg.DBDSN = opts.DB
		} else {
			cfg.DBPath = opts.DB
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	conn, err := relational.Open(cfg.DBDriver, cfg.DataSource())
	if err != nil {
		return nil, nil, err
	}

	storage := relational.NewPostRelationalStorage(conn)
	if opts.now != nil {
		storage = storage.WithClock(opts.now)
	}
	return storage, conn, nil
}

// withStorage открывает хранилище на время fn
func withStorage(opts *RootOptions, fn func(s *relational.PostRelationalStorage) error) error {
	storage, conn, err := openStorage(opts)
	if err != nil {
		return err
	}
	defer conn.Close()

	return fn(storage)
}

func parseID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid post id %q", arg)
	}
	return uint(id), nil
}
