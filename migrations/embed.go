// Package migrations embeds the SQL schema files.
package migrations

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed *.sql
var FS embed.FS

// Files lists the up or down scripts in the order they must run: ascending
// for up, descending for down.
func Files(down bool) ([]string, error) {
	entries, err := fs.Glob(FS, "*.sql")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, name := range entries {
		if strings.HasSuffix(name, ".down.sql") == down {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	if down {
		sort.Sort(sort.Reverse(sort.StringSlice(out)))
	}
	return out, nil
}
