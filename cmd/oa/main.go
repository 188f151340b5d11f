package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/oa-client/api"
	"github.com/jrsteele09/oa-client/credential"
	"github.com/jrsteele09/oa-client/internal/config"
	"github.com/jrsteele09/oa-client/metrics"
	"github.com/jrsteele09/oa-client/notice"
	"github.com/jrsteele09/oa-client/request"
	"github.com/jrsteele09/oa-client/router"
	"github.com/jrsteele09/oa-client/session"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version is the CLI version.
const Version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()
	return rootCmd().Execute()
}

type globalFlags struct {
	configPath string
	logLevel   string
	metricsOut string
	banner     bool
}

// app holds the wired client stack shared by every subcommand.
type app struct {
	cfg    config.Config
	logger zerolog.Logger
	center *notice.Center
	sess   *session.AuthSession
	router *router.Router
	client *request.Client
	api    *api.API
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}
	a := &app{}

	cmd := &cobra.Command{
		Use:           "oa",
		Short:         "Command line client for the OA backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.init(cmd.Context(), flags)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.center != nil {
				a.center.Close()
			}
			if flags.metricsOut == "" {
				return nil
			}
			return metrics.WriteTextfile(flags.metricsOut)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (overrides config)")
	cmd.PersistentFlags().StringVar(&flags.metricsOut, "metrics-out", "", "write Prometheus metrics to this file on exit")
	cmd.PersistentFlags().BoolVar(&flags.banner, "banner", false, "print the application banner")

	cmd.AddCommand(
		versionCmd(),
		loginCmd(a),
		logoutCmd(a),
		whoamiCmd(a),
		refreshCmd(a),
		navigateCmd(a),
		rawCmd(a, "GET"),
		rawCmd(a, "POST"),
		rawCmd(a, "PUT"),
		rawCmd(a, "DELETE"),
		machinesCmd(a),
		ordersCmd(a),
		punchCmd(a),
		uploadCmd(a),
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "oa version %s\n", Version)
		},
	}
}

func (a *app) init(ctx context.Context, flags *globalFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var err error
	if flags.configPath != "" {
		a.cfg, err = config.Load(flags.configPath)
		if err != nil {
			return err
		}
	} else {
		a.cfg = config.New()
	}

	a.logger = newLogger(orDefault(flags.logLevel, a.cfg.GetLogLevel()))
	if flags.banner {
		displayAppname(a.cfg.GetAppName())
	}

	store, err := credential.FromConfig(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("credential store: %w", err)
	}

	a.center = notice.NewCenter(
		notice.WithDuration(a.cfg.GetNoticeDuration()),
		notice.WithLogger(a.logger),
		notice.WithSink(func(n notice.Notice) {
			fmt.Fprintf(os.Stderr, "[%s] %s\n", n.Level, n.Message)
		}),
	)

	a.sess = session.New(store,
		session.WithNotifier(a.center),
		session.WithLogger(a.logger),
		session.WithRefreshThreshold(a.cfg.GetRefreshThreshold()),
		session.WithRefreshTimeout(a.cfg.GetRequestTimeout()),
	)

	guard := router.NewGuard(a.sess, a.center)
	a.router = router.New(router.DefaultRoutes(), guard,
		router.WithAppName(a.cfg.GetAppName()),
		router.WithLogger(a.logger),
	)
	a.sess.SetNavigator(a.router)

	a.client, err = request.New(a.cfg.GetBaseURL(), a.sess,
		request.WithTimeout(a.cfg.GetRequestTimeout()),
		request.WithRefreshPath(a.cfg.GetRefreshPath()),
		request.WithEnv(a.cfg.GetEnv()),
		request.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}

	a.api = api.New(a.client)
	a.api.Auth.Path = a.cfg.GetLoginPath()
	a.api.Uploads.ChunkSize = a.cfg.GetUploadChunkSize()
	return nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
