// Package welcome renders per-user welcome emails from a template and
// writes them as an Email,Subject,Message CSV ready for a mail merge.
package welcome

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"go.uber.org/zap"
)

// DefaultTemplate is the built-in email body. Placeholders in braces are
// replaced by Render; anything unrecognized passes through literally.
const DefaultTemplate = `Hello {username},

Welcome to {server_name}!

Your account has been created and is ready to use. Here are your login details:

Server URL: {server_url}
Username: {username}
Password: {password}

For security reasons, we recommend changing your password after your first login.

If you have any questions or need assistance, please contact {admin_name} at {admin_email}.

Enjoy your media experience!

Best regards,
The {server_name} Team
`

// templateFooter documents the available placeholders in generated
// template files.
const templateFooter = `
---
Available variables:
{username} - The user's username
{password} - The user's password
{server_url} - The URL of your media server
{server_name} - The name of your media server
{admin_name} - Your name as the administrator
{admin_email} - Your contact email
`

// Variables is the full set of recognized template placeholders.
type Variables struct {
	Username   string
	Password   string
	ServerURL  string
	ServerName string
	AdminName  string
	AdminEmail string
}

// Render substitutes the recognized placeholders in a single pass. Unknown
// placeholders are left literal rather than failing.
func Render(template string, v Variables) string {
	return strings.NewReplacer(
		"{username}", v.Username,
		"{password}", v.Password,
		"{server_url}", v.ServerURL,
		"{server_name}", v.ServerName,
		"{admin_name}", v.AdminName,
		"{admin_email}", v.AdminEmail,
	).Replace(template)
}

// Options configures email generation. Empty fields take the same defaults
// the original tooling used.
type Options struct {
	ServerURL  string
	ServerName string
	AdminName  string
	AdminEmail string
	Template   string
}

func (o Options) withDefaults() Options {
	if o.ServerName == "" {
		o.ServerName = "Media Server"
	}
	if o.AdminName == "" {
		o.AdminName = "Server Admin"
	}
	if o.AdminEmail == "" {
		o.AdminEmail = "admin@example.com"
	}
	if o.Template == "" {
		o.Template = DefaultTemplate
	}
	return o
}

func (o Options) validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.ServerURL, validation.Required, is.URL),
		validation.Field(&o.AdminEmail, is.Email),
	)
}

func (o Options) subject() string {
	return fmt.Sprintf("Welcome to %s - Your Account is Ready", o.ServerName)
}

var requiredColumns = []string{"Username", "Email", "Passphrase"}

// SchemaError reports missing required input columns.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "input CSV is missing required columns: " + strings.Join(e.Missing, ", ")
}

func headerIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.TrimSpace(col)] = i
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}
	return idx, nil
}

// Generate reads user rows and writes one rendered email per complete row.
// Rows missing a username, email, or passphrase are skipped with a warning.
// Returns the number of emails written.
func Generate(in io.Reader, out io.Writer, opts Options, logger *zap.SugaredLogger) (int, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return 0, err
	}

	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read input header: %w", err)
	}
	idx, err := headerIndex(header)
	if err != nil {
		return 0, err
	}

	writer := csv.NewWriter(out)
	if err := writer.Write([]string{"Email", "Subject", "Message"}); err != nil {
		return 0, err
	}

	count := 0
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return count, fmt.Errorf("read input row: %w", err)
		}
		username := field(rec, idx["Username"])
		email := field(rec, idx["Email"])
		password := field(rec, idx["Passphrase"])
		if username == "" || email == "" || password == "" {
			logger.Warnw("skipping row with missing data", "username", username, "email", email)
			continue
		}
		message := Render(opts.Template, Variables{
			Username:   username,
			Password:   password,
			ServerURL:  opts.ServerURL,
			ServerName: opts.ServerName,
			AdminName:  opts.AdminName,
			AdminEmail: opts.AdminEmail,
		})
		if err := writer.Write([]string{email, opts.subject(), message}); err != nil {
			return count, err
		}
		count++
	}
	writer.Flush()
	return count, writer.Error()
}

// Preview renders the first complete row to w without writing any CSV.
func Preview(in io.Reader, w io.Writer, opts Options) error {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return err
	}

	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read input header: %w", err)
	}
	idx, err := headerIndex(header)
	if err != nil {
		return err
	}

	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return errors.New("no data found in CSV for preview")
		}
		if err != nil {
			return fmt.Errorf("read input row: %w", err)
		}
		username := field(rec, idx["Username"])
		email := field(rec, idx["Email"])
		password := field(rec, idx["Passphrase"])
		if username == "" || email == "" || password == "" {
			continue
		}
		message := Render(opts.Template, Variables{
			Username:   username,
			Password:   password,
			ServerURL:  opts.ServerURL,
			ServerName: opts.ServerName,
			AdminName:  opts.AdminName,
			AdminEmail: opts.AdminEmail,
		})
		divider := strings.Repeat("=", 50)
		fmt.Fprintf(w, "\n%s\nPREVIEW: Email to %s\nSubject: %s\n%s\n%s%s\n", divider, email, opts.subject(), divider, message, divider)
		return nil
	}
}

// WriteTemplate writes an editable template file, with the placeholder
// reference appended, for the --create-template flow.
func WriteTemplate(path string) error {
	return os.WriteFile(path, []byte(DefaultTemplate+templateFooter), 0o644)
}

// LoadTemplate reads a custom template file.
func LoadTemplate(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read template file: %w", err)
	}
	return string(b), nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
