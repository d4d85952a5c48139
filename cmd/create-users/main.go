// Command create-users provisions accounts on an Emby server from a CSV
// of exported users.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/plex2emby/plex2emby/internal/avatar"
	"github.com/plex2emby/plex2emby/internal/emby"
	"github.com/plex2emby/plex2emby/internal/provision"
	"github.com/plex2emby/plex2emby/pkg/utilities"
)

var defaultRoles = []string{
	"EnablePlayback",
	"EnableMediaPlayback",
	"EnableSharedDeviceControl",
	"EnableVideoPlayback",
	"EnableAudioPlayback",
}

type options struct {
	server         string
	apiKey         string
	libraries      string
	roles          string
	dryRun         bool
	delay          int
	listLibraries  bool
	skipLibraries  bool
	skipImages     bool
	testConnection bool
	avatarFallback string
}

func main() {
	// load .env file if present so os.Getenv picks values from it
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv("emby_user_creation.log"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(lg.Sugar()).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(logger *zap.SugaredLogger) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "create-users CSV_FILE",
		Short:         "Create Emby users from a CSV file",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := run(cmd.Context(), logger, opts, args)
			if err != nil {
				logger.Errorw("run failed", "err", err)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&opts.server, "server", os.Getenv("EMBY_SERVER"), "Emby server URL (e.g. http://localhost:8096)")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", os.Getenv("EMBY_API_KEY"), "Emby admin API key")
	cmd.Flags().StringVar(&opts.libraries, "libraries", "", "Library IDs to grant access to (comma-separated, or 'all')")
	cmd.Flags().StringVar(&opts.roles, "roles", "", "Default roles to assign (comma-separated)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Simulate without creating users")
	cmd.Flags().IntVar(&opts.delay, "delay", 1, "Delay in seconds between API calls")
	cmd.Flags().BoolVar(&opts.listLibraries, "list-libraries", false, "List available libraries and exit")
	cmd.Flags().BoolVar(&opts.skipLibraries, "skip-libraries", false, "Skip setting library access")
	cmd.Flags().BoolVar(&opts.skipImages, "skip-images", false, "Skip profile image uploads")
	cmd.Flags().BoolVar(&opts.testConnection, "test-connection", false, "Test connection to the Emby server and exit")
	cmd.Flags().StringVar(&opts.avatarFallback, "avatar-fallback", string(avatar.FallbackIdenticon), "Fallback when an avatar download fails: identicon, random, or none")

	return cmd
}

func run(ctx context.Context, logger *zap.SugaredLogger, opts options, args []string) error {
	if opts.server == "" {
		return fmt.Errorf("server URL is required (--server or EMBY_SERVER)")
	}
	if opts.apiKey == "" {
		return fmt.Errorf("API key is required (--api-key or EMBY_API_KEY)")
	}

	logger = logger.With("run_id", utilities.NewRunID())
	client := emby.New(opts.server, opts.apiKey, logger)

	if opts.testConnection {
		info, err := client.SystemInfo(ctx)
		if err != nil {
			logger.Errorw("connection test failed", "err", err)
			return nil
		}
		logger.Infow("successfully connected to Emby server",
			"version", info.Version, "server_name", info.ServerName, "os", info.OperatingSystem)
		return nil
	}

	if opts.listLibraries {
		libs, err := client.Libraries(ctx)
		if err != nil {
			return err
		}
		logger.Info("available libraries:")
		for i, lib := range libs {
			logger.Infof("%d. %s (ID: %s)", i+1, lib.Name, lib.ID)
		}
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("CSV file argument is required")
	}
	csvPath := args[0]
	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("CSV file not found: %s", csvPath)
	}
	defer f.Close()

	strategy, err := avatar.ParseFallback(opts.avatarFallback)
	if err != nil {
		return err
	}

	roles := defaultRoles
	if opts.roles != "" {
		roles = strings.Split(opts.roles, ",")
	}

	var libraries []string
	if !opts.skipLibraries {
		libraries, err = resolveLibraries(ctx, client, logger, opts, os.Stdin)
		if err != nil {
			return err
		}
	}

	prov := provision.NewProvisioner(client, avatar.NewFetcher(strategy, logger), logger)
	prov.StepDelay = time.Duration(opts.delay) * time.Second
	prov.SkipLibraries = opts.skipLibraries
	prov.SkipImages = opts.skipImages

	runner := provision.NewRunner(prov, logger)
	runner.DryRun = opts.dryRun
	runner.Delay = time.Duration(opts.delay) * time.Second
	runner.Libraries = libraries
	runner.Roles = roles

	logger.Infow("starting Emby user creation from CSV",
		"csv", csvPath, "server", opts.server, "dry_run", opts.dryRun,
		"libraries", libraries, "roles", roles,
		"skip_libraries", opts.skipLibraries, "skip_images", opts.skipImages)

	_, err = runner.Run(ctx, f)
	return err
}

// resolveLibraries turns the --libraries flag into a concrete ID list,
// falling back to an interactive prompt when no flag was given and the run
// is not a dry run.
func resolveLibraries(ctx context.Context, client *emby.Client, logger *zap.SugaredLogger, opts options, in io.Reader) ([]string, error) {
	if strings.EqualFold(opts.libraries, emby.LibraryAll) {
		return []string{provision.LibrariesAll}, nil
	}
	if opts.libraries != "" {
		return strings.Split(opts.libraries, ","), nil
	}
	if opts.dryRun {
		return nil, nil
	}

	libs, err := client.Libraries(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("available libraries:")
	for i, lib := range libs {
		logger.Infof("%d. %s (ID: %s)", i+1, lib.Name, lib.ID)
	}

	fmt.Print("Enter library numbers to grant access to (comma-separated, 'all' for all): ")
	sc := bufio.NewScanner(in)
	if !sc.Scan() {
		return nil, sc.Err()
	}
	selection := strings.TrimSpace(sc.Text())
	if strings.EqualFold(selection, "all") {
		ids := make([]string, 0, len(libs))
		for _, lib := range libs {
			ids = append(ids, lib.ID)
		}
		return ids, nil
	}

	var ids []string
	for _, tok := range strings.Split(selection, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil || n < 1 || n > len(libs) {
			logger.Warnw("ignoring invalid library selection", "input", tok)
			continue
		}
		ids = append(ids, libs[n-1].ID)
	}
	return ids, nil
}
