// Package store keeps simulation artifacts in a content-addressed object
// directory with named refs, under .pathsim/ in a project root.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	RepoDir    = ".pathsim"
	ObjectsDir = "objects"
	RefsDir    = "refs"

	// MinPrefix is the shortest hash prefix Resolve accepts.
	MinPrefix = 4
)

var (
	ErrNotInitialized = errors.New("store not initialized (run 'pathsim init')")
	ErrNotFound       = errors.New("object not found")
	ErrAmbiguous      = errors.New("ambiguous hash prefix")
)

type Store struct {
	Root string
}

func New(projectRoot string) *Store {
	return &Store{
		Root: filepath.Join(projectRoot, RepoDir),
	}
}

func (s *Store) Init() error {
	paths := []string{
		filepath.Join(s.Root, ObjectsDir),
		filepath.Join(s.Root, RefsDir),
	}

	for _, p := range paths {
		if err := os.MkdirAll(p, 0o0755); err != nil {
			return fmt.Errorf("failed to init store at %s: %w", p, err)
		}
	}
	return nil
}

func (s *Store) Exists() bool {
	info, err := os.Stat(s.Root)
	return err == nil && info.IsDir()
}

// Put writes data under its SHA-256 and returns the hex hash. Writing the
// same bytes twice is a no-op.
func (s *Store) Put(data []byte) (string, error) {
	if !s.Exists() {
		return "", ErrNotInitialized
	}

	hash := s.hash(data)
	shardDir := filepath.Join(s.Root, ObjectsDir, hash[:2])
	if err := os.MkdirAll(shardDir, 0o0755); err != nil {
		return "", fmt.Errorf("shard creation failed: %w", err)
	}

	path := filepath.Join(shardDir, hash[2:])
	if _, err := os.Stat(path); err == nil {
		return hash, nil
	}

	if err := writeSynced(path, data); err != nil {
		return "", fmt.Errorf("write object %s: %w", hash, err)
	}
	return hash, nil
}

func (s *Store) Get(hash string) ([]byte, error) {
	path, err := s.objectPath(hash)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read object %s: %w", hash, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", hash, err)
	}
	return data, nil
}

func (s *Store) Delete(hash string) error {
	path, err := s.objectPath(hash)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// List returns every stored hash in sorted order.
func (s *Store) List() ([]string, error) {
	var hashes []string
	objRoot := filepath.Join(s.Root, ObjectsDir)

	err := filepath.Walk(objRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && !strings.HasPrefix(info.Name(), ".") {
			shard := filepath.Base(filepath.Dir(path))
			hashes = append(hashes, shard+info.Name())
		}
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotInitialized
	}

	sort.Strings(hashes)
	return hashes, err
}

// Resolve expands a unique hash prefix to the full hash.
func (s *Store) Resolve(prefix string) (string, error) {
	if len(prefix) < MinPrefix {
		return "", fmt.Errorf("hash prefix %q too short (min %d)", prefix, MinPrefix)
	}
	prefix = strings.ToLower(prefix)

	dir := filepath.Join(s.Root, ObjectsDir, prefix[:2])
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", prefix, ErrNotFound)
	}

	var match string
	for _, f := range files {
		if strings.HasPrefix(f.Name(), prefix[2:]) {
			if match != "" {
				return "", fmt.Errorf("%w: %s", ErrAmbiguous, prefix)
			}
			match = prefix[:2] + f.Name()
		}
	}
	if match == "" {
		return "", fmt.Errorf("no object matching prefix %s: %w", prefix, ErrNotFound)
	}
	return match, nil
}

// SetRef points name at hash.
func (s *Store) SetRef(name, hash string) error {
	if err := validRefName(name); err != nil {
		return err
	}
	if !s.Exists() {
		return ErrNotInitialized
	}
	path := filepath.Join(s.Root, RefsDir, name)
	if err := writeSynced(path, []byte(hash+"\n")); err != nil {
		return fmt.Errorf("write ref %s: %w", name, err)
	}
	return nil
}

// Ref returns the hash name points at.
func (s *Store) Ref(name string) (string, error) {
	if err := validRefName(name); err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(s.Root, RefsDir, name))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("ref %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read ref %s: %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *Store) hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (s *Store) objectPath(hash string) (string, error) {
	if len(hash) != sha256.Size*2 {
		return "", fmt.Errorf("invalid object hash %q", hash)
	}
	return filepath.Join(s.Root, ObjectsDir, hash[:2], hash[2:]), nil
}

func validRefName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid ref name %q", name)
	}
	return nil
}

// writeSynced writes through a temp file and renames it into place so a
// crash never leaves a truncated object behind.
func writeSynced(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("fsync failed: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
