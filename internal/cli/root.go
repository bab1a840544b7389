package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"nova-client/internal/common/config"

	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	profile    string
	json       bool
	logLevel   string
}

// NewRootCommand assembles the nova command tree. The App is built lazily
// before each command runs so that --help and completion never touch the
// config or the network.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}

	var (
		flags rootFlags
		app   *App
	)

	root := &cobra.Command{
		Use:           "nova",
		Short:         "Client for the Nova Digital Finance platform",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.Config
			if cfg == nil {
				var err error
				if cfg, err = loadConfig(flags.configPath); err != nil {
					return err
				}
			}
			if flags.logLevel != "" {
				cfg.Logging.Level = flags.logLevel
			}
			a, err := newApp(cmd.Context(), cfg, opts, flags.profile, flags.json)
			if err != nil {
				return err
			}
			app = a
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if app != nil {
				app.Close()
			}
		},
	}
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "path to a config file (default: ./configs/config.yaml)")
	pf.StringVar(&flags.profile, "profile", "default", "session profile name for the redis token store")
	pf.BoolVar(&flags.json, "json", false, "print machine-readable JSON")
	pf.StringVar(&flags.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	get := func() *App { return app }
	root.AddCommand(
		newLoginCommand(get),
		newRegisterCommand(get),
		newLogoutCommand(get),
		newWhoamiCommand(get),
		newPasswordCommand(get),
		newKYCCommand(get),
		newMFACommand(get),
		newFinancingCommand(get),
		newSignaturesCommand(get),
		newPaymentsCommand(get),
		newDocumentsCommand(get),
		newRequestsCommand(get),
		newNotificationsCommand(get),
	)
	return root
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, args []string, opts Options) int {
	root := NewRootCommand(opts)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		if !IsReported(err) {
			errOut := opts.Err
			if errOut == nil {
				errOut = os.Stderr
			}
			printError(errOut, err)
		}
		return 1
	}
	return 0
}

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, "error: "+err.Error())
}
