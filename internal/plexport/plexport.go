// Package plexport reads user records out of a Plex account export
// document and writes them as the CSV the provisioner consumes. Export
// schemas differ between Plex versions, so both the element paths and the
// attribute names are tried in fallback order.
package plexport

import (
	"encoding/csv"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// ErrNoUsers means the document parsed but no user records matched any
// known structural path.
var ErrNoUsers = errors.New("no user records found in export document")

// Row is one exported user, ready to be written to CSV.
type Row struct {
	ID         string
	Username   string
	Email      string
	Thumb      string
	Passphrase string
}

// userPaths are the element paths, relative to the document root, at which
// user records have been observed across export variants. The first path
// yielding at least one record wins.
var userPaths = [][]string{
	{"User"},
	{"Account"},
	{"SharedServer", "User"},
}

// attribute fallbacks per field; first present attribute wins
var (
	idAttrs       = []string{"id", "userID", "ratingKey"}
	usernameAttrs = []string{"username", "title", "name"}
	thumbAttrs    = []string{"thumb", "thumbUrl"}
)

type node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Nodes   []node     `xml:",any"`
}

func (n *node) attr(names ...string) string {
	for _, name := range names {
		for _, a := range n.Attrs {
			if a.Name.Local == name {
				return a.Value
			}
		}
	}
	return ""
}

func (n *node) childrenAt(path []string) []*node {
	matches := []*node{n}
	for _, elem := range path {
		var next []*node
		for _, m := range matches {
			for i := range m.Nodes {
				if m.Nodes[i].XMLName.Local == elem {
					next = append(next, &m.Nodes[i])
				}
			}
		}
		matches = next
	}
	return matches
}

// Parse extracts user rows from an export document. Rows come back sorted
// by case-insensitive username and without passphrases.
func Parse(r io.Reader) ([]Row, error) {
	var root node
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("parse export document: %w", err)
	}

	var records []*node
	for _, path := range userPaths {
		if records = root.childrenAt(path); len(records) > 0 {
			break
		}
	}
	if len(records) == 0 {
		return nil, ErrNoUsers
	}

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, Row{
			ID:       rec.attr(idAttrs...),
			Username: rec.attr(usernameAttrs...),
			Email:    rec.attr("email"),
			Thumb:    rec.attr(thumbAttrs...),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return strings.ToLower(rows[i].Username) < strings.ToLower(rows[j].Username)
	})
	return rows, nil
}

// Import reads and parses an export file.
func Import(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// WriteCSV writes rows in the provisioner's input format, assigning each a
// freshly generated passphrase.
func WriteCSV(w io.Writer, rows []Row, generate func() (string, error)) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ID", "Username", "Email", "Passphrase", "Thumb"}); err != nil {
		return err
	}
	for i := range rows {
		pass, err := generate()
		if err != nil {
			return fmt.Errorf("generate passphrase for %s: %w", rows[i].Username, err)
		}
		rows[i].Passphrase = pass
		if err := cw.Write([]string{rows[i].ID, rows[i].Username, rows[i].Email, rows[i].Passphrase, rows[i].Thumb}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
