package safepath

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRejectsTraversal(t *testing.T) {
	root := t.TempDir()
	inputs := []string{
		"../../etc",
		"..",
		"notes/../../etc/passwd",
		"notes/../other",
		`..\..\windows`,
		"%2e%2e/etc",
		"%2E%2E%2Fetc",
		"%252e%252e%252fetc",
		"notes%2f..%2f..%2fetc",
		"/etc/passwd",
		"%2fetc",
		`\server\share`,
		"C:/Windows",
		"a\x00b",
		"%zz",
		"%2e%2e/%zz",
		"100% done.txt",
		"100%25%20done.txt",
		"%2525252525252e%2e",
	}
	for _, in := range inputs {
		_, err := Resolve(root, in)
		assert.ErrorIs(t, err, ErrTraversal, "input %q", in)
	}
}

func TestResolveAcceptsDescendants(t *testing.T) {
	root := t.TempDir()
	rootAbs, err := filepath.Abs(root)
	require.NoError(t, err)

	got, err := Resolve(root, "")
	require.NoError(t, err)
	assert.Equal(t, rootAbs, got)

	got, err = Resolve(root, "notes/a.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(rootAbs, "notes", "a.txt"), got)

	got, err = Resolve(root, "notes/./deep//file..txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(rootAbs, "notes", "deep", "file..txt"), got)

	got, err = Resolve(root, "%E3%83%A1%E3%83%A2")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(rootAbs, "メモ"), got)

	got, err = Resolve(root, "my%20notes.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(rootAbs, "my notes.txt"), got)
}

func TestResolveRejectsSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink behavior varies on windows")
	}
	root := t.TempDir()
	outside := t.TempDir()

	if err := os.Symlink(outside, filepath.Join(root, "link")); err != nil {
		t.Skipf("symlink not supported: %v", err)
	}

	_, err := Resolve(root, "link/escape.txt")
	assert.ErrorIs(t, err, ErrTraversal)
}

func TestResolveAllowsSymlinkInside(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink behavior varies on windows")
	}
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "real"), 0o755))
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "alias")); err != nil {
		t.Skipf("symlink not supported: %v", err)
	}

	_, err := Resolve(root, "alias/file.txt")
	assert.NoError(t, err)
}

func TestResolveFailsClosedOnStatErrors(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("ENOTDIR is reported differently on windows")
	}
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), nil, 0o644))

	_, err := Resolve(root, "a.txt/below")
	assert.ErrorIs(t, err, ErrTraversal)
}

func TestRel(t *testing.T) {
	root := t.TempDir()
	abs, err := Resolve(root, "notes/a.txt")
	require.NoError(t, err)

	rel, err := Rel(root, abs)
	require.NoError(t, err)
	assert.Equal(t, "notes/a.txt", rel)

	rootAbs, _ := filepath.Abs(root)
	rel, err = Rel(root, rootAbs)
	require.NoError(t, err)
	assert.Equal(t, "", rel)
}
