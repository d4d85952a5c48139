// Command welcome-emails renders a welcome email per user row into a CSV
// suitable for a mail merge.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/plex2emby/plex2emby/internal/welcome"
	"github.com/plex2emby/plex2emby/pkg/utilities"
)

type options struct {
	input          string
	output         string
	serverURL      string
	serverName     string
	adminName      string
	adminEmail     string
	template       string
	createTemplate string
	preview        bool
}

func main() {
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv("welcome_emails.log"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	if err := newRootCmd(lg.Sugar()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(logger *zap.SugaredLogger) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "welcome-emails",
		Short:         "Generate welcome emails for migrated users",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := run(logger, opts)
			if err != nil {
				logger.Errorw("generating welcome emails failed", "err", err)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&opts.input, "input", "", "Path to input CSV file with user data")
	cmd.Flags().StringVar(&opts.output, "output", "welcome_emails.csv", "Path to output CSV file")
	cmd.Flags().StringVar(&opts.serverURL, "server-url", os.Getenv("EMBY_SERVER"), "URL of your media server")
	cmd.Flags().StringVar(&opts.serverName, "server-name", "Media Server", "Name of your media server")
	cmd.Flags().StringVar(&opts.adminName, "admin-name", "Server Admin", "Your name as the administrator")
	cmd.Flags().StringVar(&opts.adminEmail, "admin-email", "admin@example.com", "Your contact email")
	cmd.Flags().StringVar(&opts.template, "template", "", "Path to a custom email template file")
	cmd.Flags().StringVar(&opts.createTemplate, "create-template", "", "Create a template file at the given path and exit")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "Preview the first welcome email without writing the CSV")

	return cmd
}

func run(logger *zap.SugaredLogger, opts options) error {
	if opts.createTemplate != "" {
		if err := welcome.WriteTemplate(opts.createTemplate); err != nil {
			return err
		}
		logger.Infow("custom template created; edit this file to customize your welcome emails", "path", opts.createTemplate)
		return nil
	}

	if opts.input == "" {
		return fmt.Errorf("--input is required")
	}
	if opts.serverURL == "" {
		return fmt.Errorf("server URL is required (--server-url or EMBY_SERVER)")
	}

	wopts := welcome.Options{
		ServerURL:  opts.serverURL,
		ServerName: opts.serverName,
		AdminName:  opts.adminName,
		AdminEmail: opts.adminEmail,
	}
	if opts.template != "" {
		tmpl, err := welcome.LoadTemplate(opts.template)
		if err != nil {
			logger.Warnw("falling back to default template", "err", err)
		} else {
			logger.Infow("using custom email template", "path", opts.template)
			wopts.Template = tmpl
		}
	}

	in, err := os.Open(opts.input)
	if err != nil {
		return fmt.Errorf("input CSV file not found: %s", opts.input)
	}
	defer in.Close()

	if opts.preview {
		return welcome.Preview(in, os.Stdout, wopts)
	}

	out, err := os.Create(opts.output)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()

	count, err := welcome.Generate(in, out, wopts, logger)
	if err != nil {
		return err
	}
	logger.Infow("generated welcome emails", "count", count, "path", opts.output)
	return nil
}
