package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/markusbuck/spreadsheet/packages/persist"
	"github.com/markusbuck/spreadsheet/packages/spreadsheet"
)

// app is the state shared by every subcommand once flags are parsed
type app struct {
	cfg    Config
	logger *slog.Logger
	closer io.Closer
	styles Styles
}

func newRootCmd() *cobra.Command {
	var (
		a          = &app{styles: newStyles()}
		configPath string
		sheetPath  string
		storeKind  string
		logLevel   string
	)

	root := &cobra.Command{
		Use:          "sheet",
		Short:        "Edit a saved spreadsheet",
		Long:         "sheet sets and reads cells of a spreadsheet saved as JSON, YAML, SQLite or Badger.\nEvery change recalculates the cells that depend on it before the sheet is saved again.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			if sheetPath != "" {
				cfg.Store.Path = sheetPath
			}
			if storeKind != "" {
				cfg.Store.Kind = storeKind
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, closer, err := newLogger(cfg.Log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a.cfg, a.logger, a.closer = cfg, logger, closer
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.closer != nil {
				return a.closer.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().StringVarP(&sheetPath, "sheet", "f", "", "saved sheet location (overrides store.path)")
	root.PersistentFlags().StringVar(&storeKind, "store", "", "store kind: json, yaml, sqlite or badger (default: from extension)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		a.setCmd(),
		a.getCmd(),
		a.showCmd(),
		a.namesCmd(),
		a.watchCmd(),
		a.convertCmd(),
	)
	return root
}

func (a *app) options() []spreadsheet.Option {
	return []spreadsheet.Option{
		spreadsheet.WithVersion(a.cfg.Version),
		spreadsheet.WithNormalizer(a.cfg.Names.Normalizer()),
		spreadsheet.WithValidator(a.cfg.Names.Validator()),
		spreadsheet.WithLogger(a.logger),
	}
}

// loadSheet reads the configured sheet without writing to its location. a
// sheet that was never saved starts empty when allowMissing is set.
func (a *app) loadSheet(ctx context.Context, allowMissing bool) (*spreadsheet.Spreadsheet, error) {
	s, err := a.readSheet(ctx)
	if allowMissing && errors.Is(err, persist.ErrNotFound) {
		a.logger.Info("starting a new sheet", "path", a.cfg.Store.Path)
		return spreadsheet.New(a.options()...), nil
	}
	return s, err
}

func (a *app) readSheet(ctx context.Context) (*spreadsheet.Spreadsheet, error) {
	store, err := persist.OpenReadOnly(persist.Kind(a.cfg.Store.Kind), a.cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return spreadsheet.Load(ctx, store, a.options()...)
}

// saveSheet writes s to the configured location, creating it if needed
func (a *app) saveSheet(ctx context.Context, s *spreadsheet.Spreadsheet) error {
	store, err := persist.Open(persist.Kind(a.cfg.Store.Kind), a.cfg.Store.Path)
	if err != nil {
		return err
	}
	if err := s.Save(ctx, store); err != nil {
		store.Close()
		return err
	}
	return store.Close()
}

// parseAssignment splits "NAME=CONTENTS". the contents may themselves
// start with '=', so "C1==A1+B1" sets a formula.
func parseAssignment(arg string) (persist.Record, error) {
	name, contents, ok := strings.Cut(arg, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return persist.Record{}, fmt.Errorf("expected NAME=CONTENTS, got %q", arg)
	}
	return persist.Record{Name: strings.TrimSpace(name), Contents: contents}, nil
}

func (a *app) setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set NAME=CONTENTS...",
		Short: "Set cells and save the sheet",
		Long:  "Set one or more cells in order, print every recalculated cell and save the sheet.\nAn empty CONTENTS removes the cell. A rejected change leaves the saved sheet untouched.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records := make([]persist.Record, 0, len(args))
			for _, arg := range args {
				rec, err := parseAssignment(arg)
				if err != nil {
					return err
				}
				records = append(records, rec)
			}

			s, err := a.loadSheet(cmd.Context(), true)
			if err != nil {
				return err
			}

			r := spreadsheet.NewRunnableSpreadsheet(s, a.printer(cmd)).
				SetBatch(records...).
				OnError(func(err error) error {
					return fmt.Errorf("nothing saved to %s: %w", a.cfg.Store.Path, err)
				}).
				Then((*spreadsheet.RunnableSpreadsheet).LogAffected)
			if err := r.Error(); err != nil {
				return err
			}
			if !s.Changed() {
				return nil
			}
			return a.saveSheet(cmd.Context(), s)
		},
	}
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get NAME...",
		Short: "Print cell values",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadSheet(cmd.Context(), false)
			if err != nil {
				return err
			}

			r := spreadsheet.NewRunnableSpreadsheet(s, a.printer(cmd))
			for _, name := range args {
				r.Log(name)
			}
			return r.Error()
		},
	}
}

// printer writes chain output to the command's stdout
func (a *app) printer(cmd *cobra.Command) func(string) {
	return func(line string) {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print every non-empty cell as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadSheet(cmd.Context(), true)
			if err != nil {
				return err
			}
			return renderSheet(cmd.OutOrStdout(), s, a.styles)
		},
	}
}

func (a *app) namesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "names",
		Short: "List non-empty cells in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadSheet(cmd.Context(), true)
			if err != nil {
				return err
			}
			for _, name := range s.NonEmptyNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func (a *app) convertCmd() *cobra.Command {
	var destKind string

	cmd := &cobra.Command{
		Use:   "convert DEST",
		Short: "Copy the sheet into another store",
		Long:  "Load the configured sheet and save it to DEST. The store kind of DEST comes from --to or its extension.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadSheet(cmd.Context(), false)
			if err != nil {
				return err
			}

			dest, err := persist.Open(persist.Kind(destKind), args[0])
			if err != nil {
				return err
			}
			defer dest.Close()

			if err := s.Save(cmd.Context(), dest); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "copied %d cells to %s\n", s.Len(), args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&destKind, "to", "", "store kind of DEST")
	return cmd
}
