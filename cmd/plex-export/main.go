// Command plex-export converts a Plex account export document into the
// CSV consumed by create-users, generating a passphrase per user.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/plex2emby/plex2emby/internal/passphrase"
	"github.com/plex2emby/plex2emby/internal/plexport"
	"github.com/plex2emby/plex2emby/pkg/utilities"
)

type options struct {
	output     string
	words      int
	separators string
	noNumber   bool
	wordlist   string
}

func main() {
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv("plex_export.log"))
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
		Use:           "plex-export XML_FILE",
		Short:         "Convert a Plex user export to a create-users CSV",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := run(logger, opts, args[0])
			if err != nil {
				logger.Errorw("export failed", "err", err)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&opts.output, "output", "users.csv", "Path to the output CSV file")
	cmd.Flags().IntVar(&opts.words, "words", passphrase.DefaultWords, "Number of words per generated passphrase")
	cmd.Flags().StringVar(&opts.separators, "separators", passphrase.DefaultSeparators, "Candidate separator characters")
	cmd.Flags().BoolVar(&opts.noNumber, "no-number", false, "Omit the numeric token from passphrases")
	cmd.Flags().StringVar(&opts.wordlist, "wordlist", "", "Path to a word list file (one word per line)")

	return cmd
}

func run(logger *zap.SugaredLogger, opts options, xmlPath string) error {
	rows, err := plexport.Import(xmlPath)
	if err != nil {
		return err
	}
	logger.Infow("parsed export document", "path", xmlPath, "users", len(rows))

	genOpts := passphrase.Options{
		Words:      opts.words,
		Separators: opts.separators,
		NoNumber:   opts.noNumber,
	}
	if opts.wordlist != "" {
		words, err := passphrase.LoadWordList(opts.wordlist)
		if err != nil {
			return err
		}
		genOpts.WordList = words
	}

	out, err := os.Create(opts.output)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()

	if err := plexport.WriteCSV(out, rows, func() (string, error) {
		return passphrase.Generate(genOpts)
	}); err != nil {
		return err
	}

	logger.Infow("wrote user CSV", "path", opts.output, "users", len(rows))
	return nil
}
