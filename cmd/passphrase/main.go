// Command passphrase prints word-based passphrases, one per line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/plex2emby/plex2emby/internal/passphrase"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		count    int
		words    int
		seps     string
		noNumber bool
		wordlist string
	)

	cmd := &cobra.Command{
		Use:           "passphrase",
		Short:         "Generate word-based passphrases",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := passphrase.Options{
				Words:      words,
				Separators: seps,
				NoNumber:   noNumber,
			}
			if wordlist != "" {
				wl, err := passphrase.LoadWordList(wordlist)
				if err != nil {
					return err
				}
				opts.WordList = wl
			}
			for i := 0; i < count; i++ {
				p, err := passphrase.Generate(opts)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 1, "Number of passphrases to generate")
	cmd.Flags().IntVar(&words, "words", passphrase.DefaultWords, "Number of words per passphrase")
	cmd.Flags().StringVar(&seps, "separators", passphrase.DefaultSeparators, "Candidate separator characters")
	cmd.Flags().BoolVar(&noNumber, "no-number", false, "Omit the numeric token")
	cmd.Flags().StringVar(&wordlist, "wordlist", "", "Path to a word list file (one word per line)")

	return cmd
}
