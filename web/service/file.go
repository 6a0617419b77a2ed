package service

import (
	"errors"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/filedock/filedock/caching"
	"github.com/filedock/filedock/logger"
	"github.com/filedock/filedock/util/safepath"
	"github.com/filedock/filedock/web/entity"

	"github.com/google/uuid"
)

// TempPrefix names in-progress uploads. They are hidden from listings and
// removed by the cleanup job when left behind.
const TempPrefix = ".filedock-upload-"

// renderTTL bounds how long a rendered markdown preview is reused.
const renderTTL = 10 * time.Minute

// FileService performs every filesystem operation below the upload root.
// All user supplied paths go through safepath before touching the disk.
// There is no locking: concurrent writers to one path race, last writer wins.
type FileService struct {
	root     string
	markdown *MarkdownRenderer
	renders  *caching.Cache
}

// NewFileService returns a service rooted at root, which must be resolvable to
// an absolute path.
func NewFileService(root string) (*FileService, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &FileService{
		root:     filepath.Clean(abs),
		markdown: NewMarkdownRenderer(),
		renders:  caching.NewCache(renderTTL),
	}, nil
}

// Root returns the absolute upload root.
func (s *FileService) Root() string {
	return s.root
}

func (s *FileService) resolve(p string) (string, error) {
	abs, err := safepath.Resolve(s.root, p)
	if err != nil {
		return "", pathError(err, p)
	}
	return abs, nil
}

func (s *FileService) rel(abs string) string {
	rel, err := safepath.Rel(s.root, abs)
	if err != nil {
		return filepath.Base(abs)
	}
	return rel
}

// joinRel joins two root-relative paths without cleaning, so ".." segments
// still reach the resolver.
// validateFileName also refuses the upload temp prefix, which listings hide
// and the cleanup job removes.
func validateFileName(name string) error {
	if err := safepath.ValidateFileName(name); err != nil {
		return pathError(err, name)
	}
	if strings.HasPrefix(name, TempPrefix) {
		return newError(KindValidation, nil, "files.invalidName", "Name=="+name)
	}
	return nil
}

func joinRel(dir, name string) string {
	dir = strings.TrimSuffix(dir, "/")
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

// List walks folder recursively and returns every folder and regular file
// below it with root-relative paths.
func (s *FileService) List(folder string) (*entity.Listing, error) {
	dir, err := s.resolve(folder)
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, newError(KindNotFound, err, "files.folderNotFound", "Folder=="+folder)
	} else if err != nil {
		return nil, newError(KindInternal, err, "files.operationFailed")
	}
	if !st.IsDir() {
		return nil, newError(KindValidation, nil, "files.notAFolder", "Folder=="+folder)
	}

	listing := &entity.Listing{Folders: []entity.Entry{}, Files: []entity.Entry{}}
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p != dir && errors.Is(err, fs.ErrNotExist) {
				// removed while walking
				return nil
			}
			return err
		}
		if p == dir {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			listing.Folders = append(listing.Folders, entity.Entry{Name: name, Path: s.rel(p)})
			return nil
		}
		if !d.Type().IsRegular() || strings.HasPrefix(name, TempPrefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		listing.Files = append(listing.Files, entity.Entry{
			Name:     name,
			Path:     s.rel(p),
			Size:     info.Size(),
			Modified: info.ModTime().Unix(),
			Mime:     MimeType(name),
		})
		return nil
	})
	if err != nil {
		return nil, newError(KindInternal, err, "files.operationFailed")
	}
	return listing, nil
}

// CreateFolder creates base/name, with parents. name is sanitized first.
func (s *FileService) CreateFolder(name, base string) (string, error) {
	clean, err := safepath.SanitizeName(name)
	if err != nil {
		return "", pathError(err, name)
	}
	if clean == "" {
		return "", newError(KindValidation, nil, "files.emptyFolderName")
	}
	if _, err := s.resolve(base); err != nil {
		return "", err
	}
	target, err := s.resolve(joinRel(base, clean))
	if err != nil {
		return "", err
	}
	if _, err := os.Lstat(target); err == nil {
		return "", newError(KindConflict, nil, "files.alreadyExists", "Name=="+s.rel(target))
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", newError(KindInternal, err, "files.operationFailed")
	}
	return s.rel(target), nil
}

// Delete removes a file, or a folder with everything in it. The root itself
// cannot be deleted.
func (s *FileService) Delete(p string) error {
	target, err := s.resolve(p)
	if err != nil {
		return err
	}
	if target == s.root {
		return newError(KindValidation, nil, "files.cannotModifyRoot")
	}
	st, err := os.Lstat(target)
	if errors.Is(err, fs.ErrNotExist) {
		return newError(KindNotFound, err, "files.notFound", "Path=="+p)
	} else if err != nil {
		return newError(KindInternal, err, "files.operationFailed")
	}

	switch {
	case st.Mode().IsRegular():
		err = os.Remove(target)
	case st.IsDir():
		err = os.RemoveAll(target)
	default:
		return newError(KindValidation, nil, "files.notFileOrFolder", "Path=="+p)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return newError(KindNotFound, err, "files.notFound", "Path=="+p)
	} else if err != nil {
		return newError(KindInternal, err, "files.operationFailed")
	}
	logger.Infof("deleted %s", s.rel(target))
	return nil
}

// Save writes src to folder/filename, creating folder and replacing any file
// of the same name. Data goes to a temporary file first so readers never see
// a partial upload under the final name.
func (s *FileService) Save(folder, filename string, src io.Reader) (string, error) {
	cleanFolder, err := safepath.SanitizeName(folder)
	if err != nil {
		return "", newError(KindValidation, err, "files.invalidFolder", "Folder=="+folder)
	}
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if filename == "" || name == "/" {
		return "", newError(KindValidation, nil, "files.noSelectedFile")
	}
	if err := validateFileName(name); err != nil {
		return "", err
	}

	dir, err := s.resolve(cleanFolder)
	if err != nil {
		return "", err
	}
	target, err := s.resolve(joinRel(cleanFolder, name))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", newError(KindInternal, err, "files.operationFailed")
	}
	if st, err := os.Stat(target); err == nil && st.IsDir() {
		return "", newError(KindConflict, nil, "files.alreadyExists", "Name=="+s.rel(target))
	}

	tmp := filepath.Join(dir, TempPrefix+uuid.NewString())
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", newError(KindInternal, err, "files.operationFailed")
	}
	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", newError(KindInternal, err, "files.operationFailed")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", newError(KindInternal, err, "files.operationFailed")
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return "", newError(KindInternal, err, "files.operationFailed")
	}
	return s.rel(target), nil
}

// Open locates folder/filename for streaming and returns its absolute path.
func (s *FileService) Open(folder, filename string) (string, error) {
	p := joinRel(folder, strings.TrimPrefix(filename, "/"))
	target, err := s.resolve(p)
	if err != nil {
		return "", err
	}
	st, err := os.Stat(target)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !st.Mode().IsRegular()) {
		return "", newError(KindNotFound, err, "files.fileNotFound", "Name=="+p)
	} else if err != nil {
		return "", newError(KindInternal, err, "files.operationFailed")
	}
	return target, nil
}

// RenderMarkdown reads folder/filename as UTF-8 markdown and renders it to HTML.
// Output is cached per file version, keyed on path, size and modification time.
func (s *FileService) RenderMarkdown(folder, filename string) (string, error) {
	target, err := s.Open(folder, filename)
	if err != nil {
		return "", err
	}
	var key string
	if st, err := os.Stat(target); err == nil {
		key = target + "|" + strconv.FormatInt(st.Size(), 10) + "|" + strconv.FormatInt(st.ModTime().UnixNano(), 10)
		if html, ok := s.renders.Get(key); ok {
			return html, nil
		}
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return "", newError(KindInternal, err, "files.markdownFailed")
	}
	if !utf8.Valid(data) {
		return "", newError(KindInternal, errors.New("file is not valid UTF-8"), "files.markdownFailed")
	}
	out, err := s.markdown.Render(data)
	if err != nil {
		return "", newError(KindInternal, err, "files.markdownFailed")
	}
	if key != "" {
		s.renders.Set(key, out)
	}
	return out, nil
}

// Rename gives the entry at p a new name in the same folder. kind, when set,
// must be "file" or "folder" and match the entry.
func (s *FileService) Rename(p, newName, kind string) (string, error) {
	src, err := s.resolve(p)
	if err != nil {
		return "", err
	}
	if src == s.root {
		return "", newError(KindValidation, nil, "files.cannotModifyRoot")
	}
	st, err := os.Lstat(src)
	if errors.Is(err, fs.ErrNotExist) {
		return "", newError(KindNotFound, err, "files.notFound", "Path=="+p)
	} else if err != nil {
		return "", newError(KindInternal, err, "files.operationFailed")
	}
	switch kind {
	case "":
	case "folder", "file":
		if (kind == "folder") != st.IsDir() {
			return "", newError(KindValidation, nil, "files.typeMismatch", "Path=="+p)
		}
	default:
		return "", newError(KindValidation, nil, "files.typeMismatch", "Path=="+p)
	}

	name := newName
	if st.IsDir() {
		name, err = safepath.SanitizeName(newName)
		if err != nil {
			return "", pathError(err, newName)
		}
		if name == "" || strings.Contains(name, "/") {
			return "", newError(KindValidation, nil, "files.invalidName", "Name=="+newName)
		}
	} else if err := validateFileName(newName); err != nil {
		return "", err
	}

	dst, err := s.resolve(joinRel(s.rel(filepath.Dir(src)), name))
	if err != nil {
		return "", err
	}
	if dst == src {
		return s.rel(dst), nil
	}
	if _, err := os.Lstat(dst); err == nil {
		return "", newError(KindConflict, nil, "files.alreadyExists", "Name=="+s.rel(dst))
	}
	if err := os.Rename(src, dst); err != nil {
		return "", newError(KindInternal, err, "files.operationFailed")
	}
	return s.rel(dst), nil
}

// Move places the entry at srcPath inside destFolder, keeping its name.
func (s *FileService) Move(srcPath, destFolder string) (string, error) {
	src, err := s.resolve(srcPath)
	if err != nil {
		return "", err
	}
	if src == s.root {
		return "", newError(KindValidation, nil, "files.cannotModifyRoot")
	}
	st, err := os.Lstat(src)
	if errors.Is(err, fs.ErrNotExist) {
		return "", newError(KindNotFound, err, "files.notFound", "Path=="+srcPath)
	} else if err != nil {
		return "", newError(KindInternal, err, "files.operationFailed")
	}

	destDir, err := s.resolve(destFolder)
	if err != nil {
		return "", err
	}
	dst, err := os.Stat(destDir)
	if errors.Is(err, fs.ErrNotExist) {
		return "", newError(KindNotFound, err, "files.folderNotFound", "Folder=="+destFolder)
	} else if err != nil {
		return "", newError(KindInternal, err, "files.operationFailed")
	}
	if !dst.IsDir() {
		return "", newError(KindValidation, nil, "files.notAFolder", "Folder=="+destFolder)
	}
	if st.IsDir() && (destDir == src || strings.HasPrefix(destDir, src+string(filepath.Separator))) {
		return "", newError(KindValidation, nil, "files.moveIntoSelf")
	}

	target := filepath.Join(destDir, filepath.Base(src))
	if target == src {
		return s.rel(target), nil
	}
	if _, err := os.Lstat(target); err == nil {
		return "", newError(KindConflict, nil, "files.alreadyExists", "Name=="+s.rel(target))
	}
	if err := os.Rename(src, target); err != nil {
		return "", newError(KindInternal, err, "files.operationFailed")
	}
	return s.rel(target), nil
}

// MimeType infers a content type from the file extension.
func MimeType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
