package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"todaybox/internal/calendar"
	"todaybox/internal/client"
	"todaybox/internal/config"
	"todaybox/internal/recurrence"
	"todaybox/internal/scheduler"
	"todaybox/internal/server"
	"todaybox/internal/storage"
	"todaybox/internal/tray"
	"todaybox/internal/ui"
	"todaybox/internal/view"
)

var rootCmd = &cobra.Command{
	Use:   "todaybox",
	Short: "TodayBox keeps a short list of what matters today",
	Long: `TodayBox is a small task list with recurring tasks and a "today" pin.
Completing a recurring task schedules its next occurrence. Tasks pinned for
today show up in the tray menu, which reads them from a running "todaybox serve"
or "todaybox tui --serve" over HTTP.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(false)
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("TODAYBOX")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: user config dir)")
	rootCmd.PersistentFlags().String("server", "", "API base URL (default: http://<listen>)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
}

func registerCommands() {
	rootCmd.AddCommand(tuiCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(todayCmd())
	rootCmd.AddCommand(trayCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(toggleCmd())
	rootCmd.AddCommand(pinCmd())
}

func loadConfig() (config.Config, error) {
	path := viper.GetString("config")
	if path == "" {
		path = config.ResolveConfigPath()
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func apiClient(cfg config.Config) *client.Client {
	base := viper.GetString("server")
	if base == "" {
		base = "http://" + cfg.Listen
	}
	return client.New(base)
}

func tuiCmd() *cobra.Command {
	var serve bool
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal UI (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(serve)
		},
	}
	cmd.Flags().BoolVar(&serve, "serve", false, "also serve the HTTP API for the tray")
	return cmd
}

func runTUI(serve bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// the terminal is owned by the UI, so logs go to a file or nowhere
	if cfg.LogFile != "" {
		f, err := tea.LogToFile(cfg.LogFile, "todaybox")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	store := storage.NewMemoryStore()
	store.Logger = log.Default()

	if serve {
		srv, err := newHTTPServer(cfg, store, log.Default())
		if err != nil {
			return err
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("http server: %v", err)
			}
		}()
		defer shutdown(srv)
	}

	return ui.Run(store, cfg)
}

func newHTTPServer(cfg config.Config, store storage.Store, logger *log.Logger) (*http.Server, error) {
	handler, err := server.New(server.Config{
		Store:        store,
		TrayMaxItems: cfg.TrayMaxItems,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	return &http.Server{Addr: cfg.Listen, Handler: handler, ReadHeaderTimeout: 5 * time.Second}, nil
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Listen = addr
			}
			logger := log.New(os.Stderr, "todaybox: ", log.LstdFlags)

			store := storage.NewMemoryStore()
			store.Logger = logger
			unsubscribe := store.Subscribe(func(c storage.Change) {
				if c.GeneratedID != "" {
					logger.Printf("task %s %s, next occurrence %s", c.TaskID, c.Op, c.GeneratedID)
					return
				}
				logger.Printf("task %s %s", c.TaskID, c.Op)
			})
			defer unsubscribe()

			sched := scheduler.New(time.Local)
			first, err := sched.NextRollover(cfg.DayRollover, time.Now())
			if err != nil {
				return fmt.Errorf("schedule rollover: %w", err)
			}
			if _, err := sched.OnRollover(cfg.DayRollover, func(next time.Time) {
				logRollover(logger, store, next)
			}); err != nil {
				return fmt.Errorf("schedule rollover: %w", err)
			}
			sched.Start()
			defer sched.Stop()
			logger.Printf("next rollover at %s", first.Format(time.RFC1123))

			srv, err := newHTTPServer(cfg, store, logger)
			if err != nil {
				return err
			}
			go func() {
				<-cmd.Context().Done()
				shutdown(srv)
			}()
			logger.Printf("serving TodayBox API on http://%s/api (OpenAPI at /api/openapi.json)", cfg.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "listen", "", "listen address (overrides config)")
	return cmd
}

func todayCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Print the tasks pinned for today",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			payload, err := apiClient(cfg).Today(cmd.Context())
			if err != nil {
				return err
			}
			return printToday(os.Stdout, payload, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format (table, json, yaml)")
	return cmd
}

func trayCmd() *cobra.Command {
	var watch, remote bool
	cmd := &cobra.Command{
		Use:   "tray",
		Short: "Print the tray menu built from today's tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			c := apiClient(cfg)
			render := func() {
				printTray(os.Stdout, fetchTray(cmd.Context(), c, cfg.TrayMaxItems, remote))
			}
			render()
			if !watch {
				return nil
			}

			every, err := cfg.Refresh()
			if err != nil {
				return err
			}
			sched := scheduler.New(time.Local)
			if every > 0 {
				if _, err := sched.Every(every, render); err != nil {
					return err
				}
			}
			if _, err := sched.Daily(cfg.DayRollover, render); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()
			<-cmd.Context().Done()
			return nil
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "re-render on the refresh interval and at day rollover")
	cmd.Flags().BoolVar(&remote, "remote", false, "use the menu built by the server (/api/tray) instead of building it locally")
	return cmd
}

// logRollover reports the today count when a day starts.
func logRollover(logger *log.Logger, store storage.Store, next time.Time) {
	payload := view.BuildTodayPayload(store.Tasks(), time.Now())
	logger.Printf("day rolled over, %d tasks pinned for today, next rollover at %s",
		payload.Count, next.Format(time.RFC1123))
}

// fetchTray loads the menu, either built here from /api/today or taken from
// /api/tray. Any failure yields the error menu.
func fetchTray(ctx context.Context, c *client.Client, maxItems int, remote bool) []server.TrayEntryResponse {
	if remote {
		entries, err := c.Tray(ctx, maxItems)
		if err == nil {
			return entries
		}
		log.Printf("tray: %v", err)
		return server.TrayResponses(tray.Build(nil, tray.Options{Error: true}))
	}
	payload, err := c.Today(ctx)
	if err != nil {
		log.Printf("tray: %v", err)
		return server.TrayResponses(tray.Build(nil, tray.Options{Error: true}))
	}
	today := calendar.Today(time.Now())
	return server.TrayResponses(tray.Build(&payload, tray.Options{TodayDate: &today, MaxItems: maxItems}))
}

func addCmd() *cobra.Command {
	var (
		due, recur, memo string
		today             bool
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task through the API",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			req := client.CreateTaskRequest{Title: strings.Join(args, " "), IsToday: today}
			if due != "" {
				d, err := calendar.Parse(due)
				if err != nil {
					return err
				}
				s := d.String()
				req.DueDate = &s
			}
			if req.Recurrence, err = recurrence.Parse(recur); err != nil {
				return err
			}
			if cmd.Flags().Changed("memo") {
				req.Memo = &memo
			}
			t, err := apiClient(cfg).CreateTask(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Println(t.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&recur, "recur", "", "recurrence (weekly:1,3,5 or weekly:mon,fri or monthly:15)")
	cmd.Flags().StringVar(&memo, "memo", "", "memo")
	cmd.Flags().BoolVar(&today, "today", false, "pin for today")
	return cmd
}

func toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Toggle completion of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return apiClient(cfg).ToggleCompletion(cmd.Context(), args[0])
		},
	}
}

func pinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pin <id>",
		Short: "Toggle the today pin of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return apiClient(cfg).ToggleToday(cmd.Context(), args[0])
		},
	}
}
