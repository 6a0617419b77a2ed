// Package safepath keeps user supplied paths inside the upload root and
// restricts folder and file names to a safe character set.
package safepath

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var ErrTraversal = errors.New("path escapes upload root")

// maxDecodeRounds bounds repeated percent-decoding of nested encodings such as %252e.
const maxDecodeRounds = 4

var windowsVolume = regexp.MustCompile(`^[A-Za-z]:`)

// Resolve maps userPath, relative to root, to an absolute filesystem path.
// It fails with ErrTraversal for ".." segments, absolute overrides and any result
// that is not root itself or a descendant of it, including via existing symlinks.
// An empty userPath resolves to root.
func Resolve(root, userPath string) (string, error) {
	if root == "" {
		return "", errors.New("root is required")
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	rootAbs = filepath.Clean(rootAbs)

	p, ok := decode(userPath)
	if !ok || strings.ContainsRune(p, 0) || isAbsolute(p) || hasDotDot(p) {
		return "", ErrTraversal
	}

	joined := filepath.Join(rootAbs, filepath.FromSlash(p))
	if !isWithin(rootAbs, joined) {
		return "", ErrTraversal
	}
	if escapesViaSymlink(rootAbs, joined) {
		return "", ErrTraversal
	}
	return joined, nil
}

// Rel returns abs relative to root using forward slashes; root itself is "".
func Rel(root, abs string) (string, error) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(rootAbs, abs)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}

// decode percent-decodes until the value is stable. It fails on malformed
// escapes and on encodings nested deeper than maxDecodeRounds.
func decode(s string) (string, bool) {
	for i := 0; i < maxDecodeRounds; i++ {
		d, err := url.PathUnescape(s)
		if err != nil {
			return "", false
		}
		if d == s {
			return s, true
		}
		s = d
	}
	d, err := url.PathUnescape(s)
	return s, err == nil && d == s
}

func isAbsolute(p string) bool {
	if strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\`) {
		return true
	}
	return filepath.IsAbs(p) || windowsVolume.MatchString(p)
}

func hasDotDot(p string) bool {
	for _, seg := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return true
		}
	}
	return false
}

func isWithin(root, candidate string) bool {
	root = filepath.Clean(root)
	candidate = filepath.Clean(candidate)
	if root == candidate {
		return true
	}
	sep := string(filepath.Separator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(candidate, root)
}

// escapesViaSymlink resolves the deepest existing ancestor of p and checks it
// still lies under the resolved root. Unexpected filesystem errors count as
// an escape.
func escapesViaSymlink(rootAbs, p string) bool {
	realRoot, err := filepath.EvalSymlinks(rootAbs)
	if errors.Is(err, fs.ErrNotExist) {
		// Root does not exist yet, so nothing below it can be a link.
		return false
	} else if err != nil {
		return true
	}
	existing, err := nearestExisting(p)
	if err != nil {
		return true
	}
	real, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return true
	}
	return !isWithin(realRoot, real)
}

func nearestExisting(p string) (string, error) {
	cur := p
	for {
		_, err := os.Lstat(cur)
		if err == nil {
			return cur, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", err
		}
		cur = parent
	}
}
