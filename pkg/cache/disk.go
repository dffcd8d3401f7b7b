package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const diskEntryExt = ".entry"

// DiskTier is the local persistent tier. Every entry is one JSON file named
// by the SHA-256 of its key, all confined to a single directory. Writes go
// through a temp file and a rename, so readers never see partial entries.
type DiskTier struct {
	dir string // Absolute path
}

// NewDiskTier creates the tier, creating dir if needed.
func NewDiskTier(dir string) (*DiskTier, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: empty cache directory", ErrTierUnavailable)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Join(ErrTierUnavailable, err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, errors.Join(ErrTierUnavailable, err)
	}
	return &DiskTier{dir: abs}, nil
}

func (d *DiskTier) Name() string { return "disk" }

// Dir returns the absolute cache directory.
func (d *DiskTier) Dir() string { return d.dir }

func (d *DiskTier) Get(ctx context.Context, key string) (Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, false, err
	}

	data, err := os.ReadFile(d.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}

	e, err := decodeEntry(data)
	if err != nil {
		// A corrupt file would fail every read; drop it.
		_ = os.Remove(d.path(key))
		return Entry{}, false, err
	}
	return e, true, nil
}

func (d *DiskTier) Set(ctx context.Context, key string, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeEntry(e)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	// Create with restrictive permissions (644 = rw-r--r--)
	if err := os.Chmod(tmpName, 0644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, d.path(key)); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func (d *DiskTier) Delete(_ context.Context, key string) error {
	if err := os.Remove(d.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Clear removes every entry file and leftover temp file.
func (d *DiskTier) Clear(ctx context.Context) error {
	var errs []error
	err := d.walk(ctx, func(path string, tmp bool) {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	})
	return errors.Join(append(errs, err)...)
}

func (d *DiskTier) Len(ctx context.Context) (int, error) {
	n := 0
	err := d.walk(ctx, func(_ string, tmp bool) {
		if !tmp {
			n++
		}
	})
	return n, err
}

// RemoveExpired deletes entry files expired at now, and corrupt ones.
func (d *DiskTier) RemoveExpired(ctx context.Context, now time.Time) (int, error) {
	removed := 0
	err := d.walk(ctx, func(path string, tmp bool) {
		if tmp {
			return
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return
		}
		if e, err := decodeEntry(data); err == nil && !e.Expired(now) {
			return
		}
		if os.Remove(path) == nil {
			removed++
		}
	})
	return removed, err
}

// walk calls fn for every entry and temp file in the directory.
func (d *DiskTier) walk(ctx context.Context, fn func(path string, tmp bool)) error {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return err
	}
	for _, de := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if de.IsDir() {
			continue
		}
		name := de.Name()
		switch {
		case strings.HasSuffix(name, diskEntryExt):
			fn(filepath.Join(d.dir, name), false)
		case strings.HasPrefix(name, ".tmp-"):
			fn(filepath.Join(d.dir, name), true)
		}
	}
	return nil
}

// path maps a key to its file. Hashing keeps arbitrary keys inside dir.
func (d *DiskTier) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(d.dir, hex.EncodeToString(sum[:])+diskEntryExt)
}
