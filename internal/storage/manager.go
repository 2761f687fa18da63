package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/csv-backend/backend/internal/models"
)

var (
	// ErrInvalidName is returned for names that are not a single path element.
	ErrInvalidName = errors.New("invalid file name")
	// ErrNotFound is returned when a named file does not exist in the volume.
	ErrNotFound = errors.New("file not found")
)

// Volume defines the interface for persisting encoded frames.
type Volume interface {
	// Save writes r under name, replacing any existing file of that name.
	Save(ctx context.Context, name string, r io.Reader) (*models.StoredFile, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// List returns the most recently modified files first.
	List(ctx context.Context, limit int) ([]*models.StoredFile, error)
	Location() string
}

// LocalVolume implements Volume using a directory on the local filesystem.
// Writes are not serialized; two saves of the same name race and the
// last one to finish wins.
type LocalVolume struct {
	dir string
}

// NewLocalVolume creates a new LocalVolume, creating dir if needed.
func NewLocalVolume(dir string) (*LocalVolume, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating volume directory: %w", err)
	}

	return &LocalVolume{
		dir: dir,
	}, nil
}

// Save saves a file to the volume directory.
func (v *LocalVolume) Save(ctx context.Context, name string, r io.Reader) (*models.StoredFile, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(v.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}

	size, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("writing file: %w", err)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("closing file: %w", err)
	}

	return &models.StoredFile{
		Name:       name,
		Size:       size,
		ModifiedAt: st.ModTime(),
	}, nil
}

// Open returns a reader for a stored file.
func (v *LocalVolume) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(v.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("opening file: %w", err)
	}
	return f, nil
}

// List returns the most recent CSV files in the volume.
func (v *LocalVolume) List(ctx context.Context, limit int) ([]*models.StoredFile, error) {
	entries, err := os.ReadDir(v.dir)
	if err != nil {
		return nil, fmt.Errorf("reading volume directory: %w", err)
	}

	var list []*models.StoredFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed between ReadDir and Info
		}
		list = append(list, &models.StoredFile{
			Name:       e.Name(),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}

	sortNewestFirst(list)

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	return list, nil
}

// Location returns the volume directory.
func (v *LocalVolume) Location() string {
	return v.dir
}

// sortNewestFirst orders by modification time desc, then name desc so that
// files written within the same clock tick still list deterministically.
func sortNewestFirst(list []*models.StoredFile) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].ModifiedAt.Equal(list[j].ModifiedAt) {
			return list[i].ModifiedAt.After(list[j].ModifiedAt)
		}
		return list[i].Name > list[j].Name
	})
}

// ValidateName rejects names that are not a single path element.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// NewVolume opens the volume named by location: an s3:// URL selects an
// ObjectVolume configured from obj, anything else is a local directory.
func NewVolume(ctx context.Context, location string, obj ObjectConfig) (Volume, error) {
	if IsObjectURL(location) {
		bucket, prefix, err := ParseObjectURL(location)
		if err != nil {
			return nil, err
		}
		obj.Bucket, obj.Prefix = bucket, prefix
		ov, err := NewObjectVolume(ctx, obj)
		if err != nil {
			return nil, err
		}
		return ov, nil
	}

	lv, err := NewLocalVolume(location)
	if err != nil {
		return nil, err
	}
	return lv, nil
}
