package attachments

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrPathTraversal       = errors.New("file path escapes the task directory")
	ErrExtensionNotAllowed = errors.New("file extension not allowed")
	ErrEmptyFile           = errors.New("file is missing or empty")
	ErrNotFound            = errors.New("file not found")
)

var allowedExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"pdf":  {},
	"docx": {},
	"txt":  {},
}

// Store keeps task attachments on disk under Root/<projectID>/<taskID>/.
type Store struct {
	Root string
}

func New(root string) *Store {
	return &Store{Root: root}
}

func (s *Store) projectDir(projectID uint) string {
	return filepath.Join(s.Root, strconv.FormatUint(uint64(projectID), 10))
}

func (s *Store) Dir(projectID, taskID uint) string {
	return filepath.Join(s.projectDir(projectID), strconv.FormatUint(uint64(taskID), 10))
}

// Resolve returns the absolute on-disk path for filename. The result is
// always a strict descendant of the task directory.
func (s *Store) Resolve(projectID, taskID uint, filename string) (string, error) {
	base, err := filepath.Abs(s.Dir(projectID, taskID))
	if err != nil {
		return "", fmt.Errorf("resolve task directory: %w", err)
	}
	base = filepath.Clean(base)

	target := filepath.Clean(filepath.Join(base, filename))
	rel, err := filepath.Rel(base, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", ErrPathTraversal
	}
	return target, nil
}

func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

func Allowed(filename string) bool {
	_, ok := allowedExtensions[Extension(filename)]
	return ok
}

// Save writes content as filename, replacing any file of the same name.
// Only the base name of filename is kept.
func (s *Store) Save(projectID, taskID uint, filename string, content io.Reader) (string, int64, error) {
	name := filepath.Base(filepath.Clean("/" + filepath.ToSlash(filename)))
	if name == "/" || name == "." {
		return "", 0, ErrEmptyFile
	}
	if !Allowed(name) {
		return "", 0, fmt.Errorf("%w: %q", ErrExtensionNotAllowed, Extension(name))
	}

	target, err := s.Resolve(projectID, taskID, name)
	if err != nil {
		return "", 0, err
	}

	br := bufio.NewReader(content)
	if _, err := br.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return "", 0, ErrEmptyFile
		}
		return "", 0, fmt.Errorf("read upload: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", 0, fmt.Errorf("create task directory: %w", err)
	}

	dst, err := os.Create(target)
	if err != nil {
		return "", 0, fmt.Errorf("create file: %w", err)
	}
	size, err := io.Copy(dst, br)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(target)
		return "", 0, fmt.Errorf("write file: %w", err)
	}
	return name, size, nil
}

// List returns the names of regular files attached to a task, sorted.
func (s *Store) List(projectID, taskID uint) ([]string, error) {
	entries, err := os.ReadDir(s.Dir(projectID, taskID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list attachments: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Open returns the file for reading. The caller closes it.
func (s *Store) Open(projectID, taskID uint, filename string) (*os.File, fs.FileInfo, error) {
	target, err := s.Resolve(projectID, taskID, filename)
	if err != nil {
		return nil, nil, err
	}

	info, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("stat attachment: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, nil, ErrNotFound
	}

	f, err := os.Open(target)
	if err != nil {
		return nil, nil, fmt.Errorf("open attachment: %w", err)
	}
	return f, info, nil
}

// Delete removes the file, then prunes the task and project directories if
// they became empty. Pruning errors are ignored.
func (s *Store) Delete(projectID, taskID uint, filename string) error {
	target, err := s.Resolve(projectID, taskID, filename)
	if err != nil {
		return err
	}

	info, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("stat attachment: %w", err)
	}
	if !info.Mode().IsRegular() {
		return ErrNotFound
	}

	if err := os.Remove(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete attachment: %w", err)
	}

	parent := filepath.Dir(target)
	if removeIfEmpty(parent) {
		removeIfEmpty(filepath.Dir(parent))
	}
	return nil
}

func (s *Store) RemoveTask(projectID, taskID uint) error {
	if err := os.RemoveAll(s.Dir(projectID, taskID)); err != nil {
		return fmt.Errorf("remove task attachments: %w", err)
	}
	removeIfEmpty(s.projectDir(projectID))
	return nil
}

func (s *Store) RemoveProject(projectID uint) error {
	if err := os.RemoveAll(s.projectDir(projectID)); err != nil {
		return fmt.Errorf("remove project attachments: %w", err)
	}
	return nil
}

// removeIfEmpty relies on os.Remove refusing non-empty directories.
func removeIfEmpty(dir string) bool {
	return os.Remove(dir) == nil
}
