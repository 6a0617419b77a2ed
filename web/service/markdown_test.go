package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownRender(t *testing.T) {
	src := "# Title\n\n[TOC]\n\n## Install\n\n```go\nfunc main() {}\n```\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n~~old~~\n"

	out, err := NewMarkdownRenderer().Render([]byte(src))
	require.NoError(t, err)

	assert.Contains(t, out, `<h2 id="install">Install</h2>`)
	assert.Contains(t, out, `<a href="#install">Install</a>`)
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<del>old</del>")
	assert.Contains(t, out, "<pre")
	assert.Contains(t, out, "func")
	assert.NotContains(t, out, "[TOC]")
}

func TestMarkdownWithoutMarkerHasNoTOC(t *testing.T) {
	out, err := NewMarkdownRenderer().Render([]byte("# One\n\ntext\n"))
	require.NoError(t, err)
	assert.NotContains(t, out, `href="#one"`)
}

func TestMarkdownDropsRawHTML(t *testing.T) {
	out, err := NewMarkdownRenderer().Render([]byte("<script>alert(1)</script>\n"))
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
}
