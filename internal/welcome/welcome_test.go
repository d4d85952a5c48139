package welcome

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger() *zap.SugaredLogger { return zap.NewNop().Sugar() }

func testOptions() Options {
	return Options{
		ServerURL:  "http://emby.example.com",
		ServerName: "Home Theater",
		AdminName:  "Pat",
		AdminEmail: "pat@example.com",
	}
}

func TestRenderReplacesAllVariables(t *testing.T) {
	out := Render("{username}/{password}/{server_url}/{server_name}/{admin_name}/{admin_email}", Variables{
		Username:   "alice",
		Password:   "p1",
		ServerURL:  "http://s",
		ServerName: "S",
		AdminName:  "A",
		AdminEmail: "a@x.com",
	})
	assert.Equal(t, "alice/p1/http://s/S/A/a@x.com", out)
}

func TestRenderLeavesUnknownPlaceholdersLiteral(t *testing.T) {
	out := Render("Hi {username}, see {unknown_var}", Variables{Username: "bob"})
	assert.Equal(t, "Hi bob, see {unknown_var}", out)
}

func TestGenerate(t *testing.T) {
	in := strings.NewReader("Username,Email,Passphrase\nalice,a@x.com,p1\nbob,b@x.com,p2\n")
	var out bytes.Buffer

	count, err := Generate(in, &out, testOptions(), testLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	records, err := csv.NewReader(&out).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Email", "Subject", "Message"}, records[0])
	assert.Equal(t, "a@x.com", records[1][0])
	assert.Equal(t, "Welcome to Home Theater - Your Account is Ready", records[1][1])
	assert.Contains(t, records[1][2], "Hello alice")
	assert.Contains(t, records[1][2], "Password: p1")
	assert.Contains(t, records[1][2], "contact Pat at pat@example.com")
	assert.Equal(t, "b@x.com", records[2][0])
}

func TestGenerateSkipsIncompleteRows(t *testing.T) {
	in := strings.NewReader("Username,Email,Passphrase\nalice,a@x.com,p1\n,missing@x.com,p2\ncarol,,p3\n")
	var out bytes.Buffer

	count, err := Generate(in, &out, testOptions(), testLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGenerateMissingColumns(t *testing.T) {
	in := strings.NewReader("Username,Passphrase\nalice,p1\n")
	var out bytes.Buffer

	_, err := Generate(in, &out, testOptions(), testLogger())
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{"Email"}, schemaErr.Missing)
	assert.Zero(t, out.Len(), "no output should be written on schema violation")
}

func TestGenerateCustomTemplate(t *testing.T) {
	opts := testOptions()
	opts.Template = "Login: {username} / {password}"
	in := strings.NewReader("Username,Email,Passphrase\nalice,a@x.com,p1\n")
	var out bytes.Buffer

	_, err := Generate(in, &out, opts, testLogger())
	require.NoError(t, err)

	records, err := csv.NewReader(&out).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "Login: alice / p1", records[1][2])
}

func TestGenerateRejectsBadServerURL(t *testing.T) {
	opts := testOptions()
	opts.ServerURL = "not a url"
	in := strings.NewReader("Username,Email,Passphrase\nalice,a@x.com,p1\n")
	var out bytes.Buffer

	_, err := Generate(in, &out, opts, testLogger())
	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	in := strings.NewReader("Username,Email,Passphrase\nalice,a@x.com,p1\n")
	var out bytes.Buffer

	err := Preview(in, &out, testOptions())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "PREVIEW: Email to a@x.com")
	assert.Contains(t, out.String(), "Hello alice")
}

func TestPreviewEmptyInput(t *testing.T) {
	in := strings.NewReader("Username,Email,Passphrase\n")
	var out bytes.Buffer

	err := Preview(in, &out, testOptions())
	assert.Error(t, err)
}
