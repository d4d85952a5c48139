package provision

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RequiredColumns must all be present in the input header.
var RequiredColumns = []string{"Username", "Email", "Passphrase"}

// SchemaError reports required input columns missing from the header. It
// aborts the whole run before any row is processed.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "CSV is missing required columns: " + strings.Join(e.Missing, ", ")
}

// Runner processes input rows sequentially through a Provisioner.
type Runner struct {
	prov   *Provisioner
	logger *zap.SugaredLogger

	// DryRun logs what would happen and records synthetic successes
	// without issuing any network call.
	DryRun bool
	// Delay is slept between rows. Fixed pacing, not a rate-limit
	// feedback mechanism.
	Delay time.Duration

	// Libraries and Roles are applied to every row, mirroring the
	// per-invocation flags of the original tooling.
	Libraries []string
	Roles     []string
}

func NewRunner(prov *Provisioner, logger *zap.SugaredLogger) *Runner {
	return &Runner{prov: prov, logger: logger, Delay: time.Second}
}

// Run provisions one account per input row, in file order. Row-level
// failures increment the failed tally and the run continues; only a header
// schema violation or an unreadable input aborts the run.
func (r *Runner) Run(ctx context.Context, src io.Reader) (Tally, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return Tally{}, fmt.Errorf("read CSV header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.TrimSpace(col)] = i
	}
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return Tally{}, &SchemaError{Missing: missing}
	}
	thumbIdx, hasThumb := idx["Thumb"]

	var tally Tally
	first := true
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return tally, fmt.Errorf("read CSV row: %w", err)
		}

		// Pacing between rows only; the last row is not followed by a
		// pause and dry runs are never slowed down.
		if !first && !r.DryRun && r.Delay > 0 {
			t := time.NewTimer(r.Delay)
			select {
			case <-ctx.Done():
				t.Stop()
				r.logger.Warnw("run interrupted", "err", ctx.Err())
				r.summarize(tally)
				return tally, ctx.Err()
			case <-t.C:
			}
		}
		first = false

		acct := Account{
			Username:  field(rec, idx["Username"]),
			Email:     field(rec, idx["Email"]),
			Password:  field(rec, idx["Passphrase"]),
			Libraries: r.Libraries,
			Roles:     r.Roles,
		}
		if hasThumb {
			acct.AvatarURL = field(rec, thumbIdx)
		}

		if r.DryRun {
			r.logger.Infow("[dry run] would create user",
				"username", acct.Username, "email", acct.Email, "libraries", r.Libraries)
			tally.Succeeded++
			continue
		}

		if _, err := r.prov.Provision(ctx, acct); err != nil {
			r.logger.Errorw("failed to create user", "username", acct.Username, "err", err)
			tally.Failed++
		} else {
			tally.Succeeded++
		}
	}

	r.summarize(tally)
	return tally, nil
}

func (r *Runner) summarize(t Tally) {
	r.logger.Infow("user creation complete", "successful", t.Succeeded, "failed", t.Failed)
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
