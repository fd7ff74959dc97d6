// Package localfile keeps the reflections of an anonymous device in a
// single JSON record on disk. Absence of the record means no reflections.
package localfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/limen-app/limen/internal/domain"
	"github.com/limen-app/limen/internal/observability"
)

// Store is the device-local reflection store. List degrades to an empty
// list on read failures; mutations report them wrapped in
// domain.ErrLocalStorage and leave the record untouched.
type Store struct {
	mu   *sync.Mutex
	path string
}

// NewStore returns a store backed by the record at path.
func NewStore(path string) *Store {
	return &Store{mu: new(sync.Mutex), path: path}
}

// List never fails: unreadable or corrupt records read as empty.
func (s *Store) List(ctx context.Context) ([]domain.Reflection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.read()
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("local reflections unreadable",
			"path", s.path, "error", err)
		return []domain.Reflection{}, nil
	}
	return list, nil
}

func (s *Store) Save(ctx context.Context, r domain.Reflection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.readForWrite(ctx)
	if err != nil {
		return err
	}

	replaced := false
	for i := range list {
		if list[i].ID == r.ID {
			list[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		list = append([]domain.Reflection{r}, list...)
	}

	return s.write(list)
}

func (s *Store) Delete(ctx context.Context, id domain.ReflectionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.readForWrite(ctx)
	if err != nil {
		return err
	}

	kept := make([]domain.Reflection, 0, len(list))
	for _, r := range list {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(list) {
		return nil
	}
	return s.write(kept)
}

func (s *Store) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: removing %s: %v", domain.ErrLocalStorage, s.path, err)
	}
	return nil
}

func (s *Store) read() ([]domain.Reflection, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.Reflection{}, nil
		}
		return nil, fmt.Errorf("failed to read reflections: %w", err)
	}

	var list []domain.Reflection
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, errCorrupt{err}
	}
	if list == nil {
		list = []domain.Reflection{}
	}
	return list, nil
}

// readForWrite loads the record before a mutation. A corrupt record is
// moved aside to <path>.corrupt so the next write starts clean; any other
// read failure aborts the mutation.
func (s *Store) readForWrite(ctx context.Context) ([]domain.Reflection, error) {
	list, err := s.read()
	if err == nil {
		return list, nil
	}

	var corrupt errCorrupt
	if !errors.As(err, &corrupt) {
		return nil, fmt.Errorf("%w: %v", domain.ErrLocalStorage, err)
	}

	if rerr := os.Rename(s.path, s.path+".corrupt"); rerr != nil {
		return nil, fmt.Errorf("%w: moving corrupt record aside: %v", domain.ErrLocalStorage, rerr)
	}
	observability.LoggerFromContext(ctx).Warn("corrupt reflections moved aside", "path", s.path, "error", err)
	return []domain.Reflection{}, nil
}

func (s *Store) write(list []domain.Reflection) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("%w: creating directory: %v", domain.ErrLocalStorage, err)
	}

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: serializing reflections: %v", domain.ErrLocalStorage, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrLocalStorage, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: writing reflections: %v", domain.ErrLocalStorage, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", domain.ErrLocalStorage, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replacing reflections: %v", domain.ErrLocalStorage, err)
	}
	return nil
}

type errCorrupt struct{ err error }

func (e errCorrupt) Error() string { return "corrupt reflections record: " + e.err.Error() }
func (e errCorrupt) Unwrap() error { return e.err }

var deviceIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ErrInvalidDevice rejects device ids that cannot name a record file.
var ErrInvalidDevice = errors.New("invalid device id")

// lockStripes bounds the locks a Resolver holds, however many devices
// show up. Devices sharing a stripe only serialize each other.
const lockStripes = 64

// Resolver maps device ids to one record file each under a directory.
type Resolver struct {
	dir   string
	locks [lockStripes]sync.Mutex
}

func NewResolver(dir string) *Resolver {
	return &Resolver{dir: dir}
}

// ForDevice returns the store of one device. Stores of the same device
// share a lock so writes to one record are serialized.
func (r *Resolver) ForDevice(id domain.DeviceID) (*Store, error) {
	if !deviceIDPattern.MatchString(string(id)) {
		return nil, fmt.Errorf("%w %q", ErrInvalidDevice, id)
	}

	h := fnv.New32a()
	h.Write([]byte(id))

	return &Store{
		mu:   &r.locks[h.Sum32()%lockStripes],
		path: filepath.Join(r.dir, string(id)+".json"),
	}, nil
}
