// manager_test.go - Tests for the volume layer
package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
	"time"
)

func createTestVolume(t *testing.T) *LocalVolume {
	vol, err := NewLocalVolume(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create volume: %v", err)
	}
	return vol
}

func TestNewLocalVolume(t *testing.T) {
	t.Run("creates volume directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "volume")

		vol, err := NewLocalVolume(dir)
		if err != nil {
			t.Fatalf("Failed to create volume: %v", err)
		}

		if _, err := os.Stat(dir); os.IsNotExist(err) {
			t.Error("Expected volume directory to be created")
		}
		if vol.Location() != dir {
			t.Errorf("Expected location %s, got %s", dir, vol.Location())
		}
	})

	t.Run("fails when path is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := NewLocalVolume(file); err == nil {
			t.Error("Expected error for non-directory volume")
		}
	})
}

func TestLocalVolume_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("writes file under its name", func(t *testing.T) {
		vol := createTestVolume(t)

		info, err := vol.Save(ctx, "1700000000.csv", strings.NewReader(",a\n0,1\n"))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}
		if info.Name != "1700000000.csv" {
			t.Errorf("Expected name '1700000000.csv', got %v", info.Name)
		}
		if info.Size != 7 {
			t.Errorf("Expected size 7, got %d", info.Size)
		}

		data, err := os.ReadFile(filepath.Join(vol.Location(), "1700000000.csv"))
		if err != nil {
			t.Fatalf("Failed to read saved file: %v", err)
		}
		if string(data) != ",a\n0,1\n" {
			t.Errorf("Unexpected content %q", data)
		}
	})

	t.Run("same name overwrites", func(t *testing.T) {
		vol := createTestVolume(t)

		if _, err := vol.Save(ctx, "x.csv", strings.NewReader("first,longer\n")); err != nil {
			t.Fatal(err)
		}
		if _, err := vol.Save(ctx, "x.csv", strings.NewReader("second\n")); err != nil {
			t.Fatal(err)
		}

		data, _ := os.ReadFile(filepath.Join(vol.Location(), "x.csv"))
		if string(data) != "second\n" {
			t.Errorf("Expected last write to win, got %q", data)
		}
	})

	t.Run("rejects path-like names", func(t *testing.T) {
		vol := createTestVolume(t)

		for _, name := range []string{"", ".", "..", "../escape.csv", "sub/dir.csv", `win\dir.csv`} {
			if _, err := vol.Save(ctx, name, strings.NewReader("a\n")); err == nil {
				t.Errorf("Expected error for name %q", name)
			}
		}
	})

	t.Run("failed write leaves no partial file", func(t *testing.T) {
		vol := createTestVolume(t)
		src := io.MultiReader(strings.NewReader("a\n1\n"), iotest.ErrReader(errors.New("connection reset")))

		if _, err := vol.Save(ctx, "partial.csv", src); err == nil {
			t.Fatal("Expected error for failing reader")
		}
		if _, err := os.Stat(filepath.Join(vol.Location(), "partial.csv")); !os.IsNotExist(err) {
			t.Errorf("Expected partial file to be removed, stat err = %v", err)
		}
	})

	t.Run("honours cancelled context", func(t *testing.T) {
		vol := createTestVolume(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		if _, err := vol.Save(cctx, "c.csv", strings.NewReader("a\n")); err == nil {
			t.Error("Expected error for cancelled context")
		}
	})
}

func TestLocalVolume_Open(t *testing.T) {
	ctx := context.Background()
	vol := createTestVolume(t)

	if _, err := vol.Save(ctx, "f.csv", strings.NewReader("hello")); err != nil {
		t.Fatal(err)
	}

	t.Run("reads stored content", func(t *testing.T) {
		rc, err := vol.Open(ctx, "f.csv")
		if err != nil {
			t.Fatalf("Failed to open: %v", err)
		}
		defer rc.Close()

		data, _ := io.ReadAll(rc)
		if string(data) != "hello" {
			t.Errorf("Expected 'hello', got %q", data)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := vol.Open(ctx, "missing.csv")
		if err == nil || !strings.Contains(err.Error(), ErrNotFound.Error()) {
			t.Errorf("Expected not found error, got %v", err)
		}
	})
}

func TestLocalVolume_List(t *testing.T) {
	ctx := context.Background()

	t.Run("empty volume", func(t *testing.T) {
		vol := createTestVolume(t)
		list, err := vol.List(ctx, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 0 {
			t.Errorf("Expected empty list, got %d", len(list))
		}
	})

	t.Run("newest first, csv only, limited", func(t *testing.T) {
		vol := createTestVolume(t)
		base := time.Now().Add(-time.Hour)

		for i, name := range []string{"1.csv", "2.csv", "3.csv"} {
			if _, err := vol.Save(ctx, name, strings.NewReader("a\n")); err != nil {
				t.Fatal(err)
			}
			mt := base.Add(time.Duration(i) * time.Minute)
			if err := os.Chtimes(filepath.Join(vol.Location(), name), mt, mt); err != nil {
				t.Fatal(err)
			}
		}
		os.WriteFile(filepath.Join(vol.Location(), "notes.txt"), []byte("x"), 0644)
		os.Mkdir(filepath.Join(vol.Location(), "dir.csv"), 0755)

		list, err := vol.List(ctx, 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 2 {
			t.Fatalf("Expected 2 files, got %d", len(list))
		}
		if list[0].Name != "3.csv" || list[1].Name != "2.csv" {
			t.Errorf("Unexpected order: %s, %s", list[0].Name, list[1].Name)
		}
	})
}

func TestNamers(t *testing.T) {
	ts := time.Unix(1700000000, 500)

	if got := TimestampName(ts); got != "1700000000.csv" {
		t.Errorf("TimestampName = %s", got)
	}

	a, b := UniqueName(ts), UniqueName(ts)
	if a == b {
		t.Error("Expected unique names to differ within the same second")
	}
	if !strings.HasPrefix(a, "1700000000-") || !strings.HasSuffix(a, ".csv") || len(a) != len("1700000000-12345678.csv") {
		t.Errorf("Unexpected unique name %s", a)
	}

	if _, err := NamerFor("timestamp"); err != nil {
		t.Error(err)
	}
	if _, err := NamerFor(""); err != nil {
		t.Error(err)
	}
	if _, err := NamerFor("random"); err == nil {
		t.Error("Expected error for unknown strategy")
	}
}

func TestNewVolume(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vol")
	v, err := NewVolume(context.Background(), dir, ObjectConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := v.(*LocalVolume); !ok {
		t.Errorf("Expected *LocalVolume, got %T", v)
	}

	if _, err := NewVolume(context.Background(), "s3://bucket/prefix", ObjectConfig{}); err == nil {
		t.Error("Expected error for incomplete object volume config")
	}
}
