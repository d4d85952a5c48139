// Package passphrase generates word-based passphrases for imported
// accounts.
package passphrase

import (
	"bufio"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	mrand "math/rand"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// ErrInsufficientWords is returned when the word list cannot supply the
// requested number of distinct words.
var ErrInsufficientWords = errors.New("word list shorter than requested word count")

const (
	DefaultWords      = 3
	DefaultSeparators = "-_.!@"
)

// Options controls passphrase shape. Zero values fall back to defaults.
type Options struct {
	// Words is the number of distinct words to pick.
	Words int
	// Separators is the set of candidate separator characters; one is
	// chosen per passphrase.
	Separators string
	// NoNumber omits the random integer in [0,100) normally inserted
	// among the words.
	NoNumber bool
	// WordList is the candidate word pool.
	WordList []string
}

func (o Options) withDefaults() Options {
	if o.Words == 0 {
		o.Words = DefaultWords
	}
	if o.Separators == "" {
		o.Separators = DefaultSeparators
	}
	if o.WordList == nil {
		o.WordList = DefaultWordList
	}
	return o
}

func (o Options) validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Words, validation.Required, validation.Min(1)),
		validation.Field(&o.Separators, validation.Required),
	)
}

// Generate builds a passphrase of distinct random words joined by one
// randomly chosen separator, optionally with a numeric token inserted at a
// random position (either end included). The numeric token uses a
// cryptographic random source; word and separator selection does not need
// to be unpredictable to the same degree.
func Generate(o Options) (string, error) {
	o = o.withDefaults()
	if err := o.validate(); err != nil {
		return "", err
	}
	if len(o.WordList) < o.Words {
		return "", ErrInsufficientWords
	}

	perm := mrand.Perm(len(o.WordList))
	tokens := make([]string, 0, o.Words+1)
	for _, i := range perm[:o.Words] {
		tokens = append(tokens, o.WordList[i])
	}

	if !o.NoNumber {
		n, err := rand.Int(rand.Reader, big.NewInt(100))
		if err != nil {
			return "", fmt.Errorf("draw random number: %w", err)
		}
		pos := mrand.Intn(len(tokens) + 1)
		tokens = append(tokens[:pos], append([]string{n.String()}, tokens[pos:]...)...)
	}

	seps := []rune(o.Separators)
	sep := string(seps[mrand.Intn(len(seps))])
	return strings.Join(tokens, sep), nil
}

// LoadWordList reads one word per line, skipping blank lines and lines
// starting with '#'.
func LoadWordList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer f.Close()

	var words []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		w := strings.TrimSpace(sc.Text())
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		words = append(words, w)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}
	return words, nil
}
