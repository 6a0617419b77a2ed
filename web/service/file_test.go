package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/filedock/filedock/web/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hasEntry(entries []entity.Entry, name, path string) bool {
	for _, e := range entries {
		if e.Name == name && e.Path == path {
			return true
		}
	}
	return false
}

func TestUploadThenList(t *testing.T) {
	s := newTestFileService(t)

	rel, err := s.Save("notes", "a.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "notes/a.txt", rel)

	data, err := os.ReadFile(filepath.Join(s.Root(), "notes", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	listing, err := s.List("notes")
	require.NoError(t, err)
	assert.True(t, hasEntry(listing.Files, "a.txt", "notes/a.txt"))
	assert.Equal(t, "text/plain; charset=utf-8", listing.Files[0].Mime)
	assert.EqualValues(t, 5, listing.Files[0].Size)

	// overwrite keeps a single file and leaves no temp files behind
	_, err = s.Save("notes", "a.txt", strings.NewReader("bye"))
	require.NoError(t, err)
	entries, err := os.ReadDir(filepath.Join(s.Root(), "notes"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	data, _ = os.ReadFile(filepath.Join(s.Root(), "notes", "a.txt"))
	assert.Equal(t, "bye", string(data))
}

func TestSaveValidation(t *testing.T) {
	s := newTestFileService(t)

	_, err := s.Save("bad<folder", "a.txt", strings.NewReader(""))
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = s.Save("notes", "", strings.NewReader(""))
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = s.Save("notes", "what?.txt", strings.NewReader(""))
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = s.Save("/abs", "a.txt", strings.NewReader(""))
	assert.Equal(t, KindTraversal, KindOf(err))

	_, err = s.Save("notes", TempPrefix+"x.txt", strings.NewReader(""))
	assert.Equal(t, KindValidation, KindOf(err))

	rel, err := s.Save("", `C:/fakepath/b.txt`, strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "b.txt", rel)
}

func TestListRecursive(t *testing.T) {
	s := newTestFileService(t)
	_, err := s.CreateFolder("docs/sub", "")
	require.NoError(t, err)
	_, err = s.Save("docs/sub", "deep.md", strings.NewReader("# x"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "docs", TempPrefix+"stale"), nil, 0o644))

	listing, err := s.List("")
	require.NoError(t, err)
	assert.True(t, hasEntry(listing.Folders, "docs", "docs"))
	assert.True(t, hasEntry(listing.Folders, "sub", "docs/sub"))
	assert.True(t, hasEntry(listing.Files, "deep.md", "docs/sub/deep.md"))
	assert.Len(t, listing.Files, 1)
}

func TestListErrors(t *testing.T) {
	s := newTestFileService(t)

	_, err := s.List("missing")
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = s.List("../../etc")
	assert.Equal(t, KindTraversal, KindOf(err))

	_, err = s.Save("", "f.txt", strings.NewReader("x"))
	require.NoError(t, err)
	_, err = s.List("f.txt")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestCreateListDeleteRoundTrip(t *testing.T) {
	s := newTestFileService(t)

	rel, err := s.CreateFolder("  projects ", "")
	require.NoError(t, err)
	assert.Equal(t, "projects", rel)

	listing, err := s.List("")
	require.NoError(t, err)
	assert.True(t, hasEntry(listing.Folders, "projects", "projects"))

	_, err = s.CreateFolder("projects", "")
	assert.Equal(t, KindConflict, KindOf(err))

	require.NoError(t, s.Delete("projects"))
	listing, err = s.List("")
	require.NoError(t, err)
	assert.False(t, hasEntry(listing.Folders, "projects", "projects"))

	err = s.Delete("projects")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestCreateFolderValidation(t *testing.T) {
	s := newTestFileService(t)

	_, err := s.CreateFolder("my/folder<name", "")
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = s.CreateFolder("!!!", "")
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = s.CreateFolder("x", "../outside")
	assert.Equal(t, KindTraversal, KindOf(err))

	rel, err := s.CreateFolder("child", "parent")
	require.NoError(t, err)
	assert.Equal(t, "parent/child", rel)
}

func TestDeleteDirectoryRecursively(t *testing.T) {
	s := newTestFileService(t)
	_, err := s.Save("a/b", "c.txt", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, s.Delete("a/b/c.txt"))
	_, err = os.Stat(filepath.Join(s.Root(), "a", "b", "c.txt"))
	assert.True(t, os.IsNotExist(err))

	_, err = s.Save("a/b", "c.txt", strings.NewReader("x"))
	require.NoError(t, err)
	require.NoError(t, s.Delete("a"))
	_, err = os.Stat(filepath.Join(s.Root(), "a"))
	assert.True(t, os.IsNotExist(err))

	assert.Equal(t, KindValidation, KindOf(s.Delete("")))
	assert.Equal(t, KindTraversal, KindOf(s.Delete("../x")))
}

func TestOpen(t *testing.T) {
	s := newTestFileService(t)
	_, err := s.Save("notes", "a.txt", strings.NewReader("x"))
	require.NoError(t, err)

	abs, err := s.Open("notes", "/a.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Root(), "notes", "a.txt"), abs)

	_, err = s.Open("notes", "missing.txt")
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = s.Open("", "notes")
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = s.Open("notes", "../../etc/passwd")
	assert.Equal(t, KindTraversal, KindOf(err))
}

func TestRenderMarkdownFile(t *testing.T) {
	s := newTestFileService(t)
	_, err := s.Save("docs", "readme.md", strings.NewReader("# Hello\n\n[TOC]\n\n## Usage\n"))
	require.NoError(t, err)

	out, err := s.RenderMarkdown("docs", "readme.md")
	require.NoError(t, err)
	assert.Contains(t, out, `<h1 id="hello">Hello</h1>`)
	assert.Contains(t, out, `href="#usage"`)
	assert.NotContains(t, out, "[TOC]")

	_, err = s.RenderMarkdown("docs", "missing.md")
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = s.RenderMarkdown("..", "secret.md")
	assert.Equal(t, KindTraversal, KindOf(err))

	_, err = s.Save("docs", "bin.md", strings.NewReader("\xff\xfe"))
	require.NoError(t, err)
	_, err = s.RenderMarkdown("docs", "bin.md")
	assert.Equal(t, KindInternal, KindOf(err))
}

func TestRename(t *testing.T) {
	s := newTestFileService(t)
	_, err := s.Save("notes", "a.txt", strings.NewReader("x"))
	require.NoError(t, err)
	_, err = s.Save("notes", "b.txt", strings.NewReader("y"))
	require.NoError(t, err)

	rel, err := s.Rename("notes/a.txt", "c.v2.txt", "file")
	require.NoError(t, err)
	assert.Equal(t, "notes/c.v2.txt", rel)

	_, err = s.Rename("notes/c.v2.txt", "b.txt", "file")
	assert.Equal(t, KindConflict, KindOf(err))

	_, err = s.Rename("notes/missing.txt", "z.txt", "")
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = s.Rename("notes/b.txt", "../z.txt", "")
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = s.Rename("notes/b.txt", TempPrefix+"b.txt", "file")
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = s.Rename("notes", "x", "file")
	assert.Equal(t, KindValidation, KindOf(err))

	rel, err = s.Rename("notes", "メモ", "folder")
	require.NoError(t, err)
	assert.Equal(t, "メモ", rel)
	_, err = os.Stat(filepath.Join(s.Root(), "メモ", "b.txt"))
	assert.NoError(t, err)
}

func TestMove(t *testing.T) {
	s := newTestFileService(t)
	_, err := s.Save("src", "a.txt", strings.NewReader("x"))
	require.NoError(t, err)
	_, err = s.CreateFolder("dest", "")
	require.NoError(t, err)

	rel, err := s.Move("src/a.txt", "dest")
	require.NoError(t, err)
	assert.Equal(t, "dest/a.txt", rel)

	_, err = s.Save("src", "a.txt", strings.NewReader("again"))
	require.NoError(t, err)
	_, err = s.Move("src/a.txt", "dest")
	assert.Equal(t, KindConflict, KindOf(err))

	_, err = s.Move("src/a.txt", "nowhere")
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = s.Move("src", "src")
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = s.CreateFolder("inner", "src")
	require.NoError(t, err)
	_, err = s.Move("src", "src/inner")
	assert.Equal(t, KindValidation, KindOf(err))

	rel, err = s.Move("src", "dest")
	require.NoError(t, err)
	assert.Equal(t, "dest/src", rel)
}

func TestRenderMarkdownCache(t *testing.T) {
	s := newTestFileService(t)
	_, err := s.Save("", "a.md", strings.NewReader("# One\n"))
	require.NoError(t, err)

	out, err := s.RenderMarkdown("", "a.md")
	require.NoError(t, err)
	assert.Contains(t, out, "One")
	assert.Equal(t, 1, s.renders.Len())

	_, err = s.Save("", "a.md", strings.NewReader("# Second\n"))
	require.NoError(t, err)
	out, err = s.RenderMarkdown("", "a.md")
	require.NoError(t, err)
	assert.Contains(t, out, "Second")
}
