package filter_test

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/tokenseal/internal/filter"
)

// Case is a single test case from the YAML golden file.
type Case struct {
	Pattern string `yaml:"pattern"`
	Path    string `yaml:"path"`
	Match   bool   `yaml:"match"`
}

// Group is a named collection of test cases.
type Group struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Cases       []Case `yaml:"cases"`
}

func loadGroups(t *testing.T) []Group {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", "patterns.yml"))
	require.NoError(t, err)

	var groups []Group
	require.NoError(t, yaml.Unmarshal(data, &groups))
	require.NotEmpty(t, groups)

	return groups
}

func TestMatchGolden(t *testing.T) {
	t.Parallel()

	for _, g := range loadGroups(t) {
		t.Run(g.Name, func(t *testing.T) {
			t.Parallel()

			for _, tc := range g.Cases {
				flt, err := filter.NewFilter([]string{tc.Pattern}, nil)
				require.NoError(t, err)
				require.Equal(t, tc.Match, flt.Match(tc.Path), "pattern %q path %q", tc.Pattern, tc.Path)
			}
		})
	}
}

func TestExcludesWin(t *testing.T) {
	t.Parallel()

	flt, err := filter.NewFilter([]string{"*.txt"}, []string{"./secret/*"})
	require.NoError(t, err)

	require.True(t, flt.Match("docs/a.txt"))
	require.False(t, flt.Match("secret/a.txt"))
	require.False(t, flt.Match("docs/a.md"))

	all, err := filter.NewFilter(nil, nil)
	require.NoError(t, err)
	require.True(t, all.Match("anything/at/all"))

	_, err = filter.NewFilter([]string{"[unclosed"}, nil)
	require.Error(t, err)
}

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()

	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(f), 0o600))
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, "a.txt.tks", "b.txt", "sub/c.bin.tks", "sub/deep/d.tks", "skip/e.tks")

	flt, err := filter.NewFilter([]string{"*.tks"}, []string{"*/skip/*"})
	require.NoError(t, err)

	explicit := filepath.Join(root, "b.txt")

	files, scanned, err := flt.Resolve([]string{root, explicit, root})
	require.NoError(t, err)

	rel := make([]string, 0, len(files))
	for _, f := range files {
		r, err := filepath.Rel(root, f)
		require.NoError(t, err)

		rel = append(rel, filepath.ToSlash(r))
	}

	sort.Strings(rel)

	require.Equal(t, []string{"a.txt.tks", "b.txt", "sub/c.bin.tks", "sub/deep/d.tks"}, rel)
	require.Equal(t, 5+1+5, scanned)
}

func TestResolveErrors(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, "only.md")

	flt, err := filter.NewFilter([]string{"*.tks"}, nil)
	require.NoError(t, err)

	_, _, err = flt.Resolve([]string{root})
	require.ErrorContains(t, err, "no files matched")

	_, _, err = flt.Resolve([]string{filepath.Join(root, "missing")})
	require.Error(t, err)
}

func TestLoadPatternsAndManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	patterns := filepath.Join(dir, "include.jsonc")
	require.NoError(t, os.WriteFile(patterns, []byte(`[
		// encrypted outputs
		"*.tks",
		"*.enc", // trailing comma allowed
	]`), 0o600))

	got, err := filter.LoadPatterns(patterns)
	require.NoError(t, err)
	require.Equal(t, []string{"*.tks", "*.enc"}, got)

	manifest := filepath.Join(dir, "jobs.jsonc")
	require.NoError(t, os.WriteFile(manifest, []byte(`[
		{"input": "a.txt", "output": "out/a.tks"},
		/* output derived from suffixes */
		{"input": "b.txt"},
	]`), 0o600))

	jobs, err := filter.LoadManifest(manifest)
	require.NoError(t, err)
	require.Equal(t, []filter.Job{{Input: "a.txt", Output: "out/a.tks"}, {Input: "b.txt"}}, jobs)

	require.NoError(t, os.WriteFile(manifest, []byte(`[{"output": "x"}]`), 0o600))

	_, err = filter.LoadManifest(manifest)
	require.ErrorContains(t, err, "has no input")

	_, err = filter.LoadPatterns(filepath.Join(dir, "missing.jsonc"))
	require.Error(t, err)
}
