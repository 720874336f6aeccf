// Package extract unpacks an exported archive into a working tree. Large
// exports arrive as a wrapper zip holding part archives, so after the outer
// archive is unpacked any zips sitting in the destination root are unpacked
// in place and removed.
package extract

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Archive extracts the zip at src into dest and flattens nested part
// archives. It returns the number of files written. Entries that would
// escape dest fail the whole extraction; symlink entries and macOS junk
// are skipped.
func Archive(ctx context.Context, src, dest string) (int, error) {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return 0, fmt.Errorf("extract: create destination: %w", err)
	}
	n, err := unzip(ctx, src, dest)
	if err != nil {
		return n, err
	}

	inner, err := os.ReadDir(dest)
	if err != nil {
		return n, fmt.Errorf("extract: read destination: %w", err)
	}
	for _, d := range inner {
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".zip") {
			continue
		}
		part := filepath.Join(dest, d.Name())
		m, err := unzip(ctx, part, dest)
		n += m
		if err != nil {
			return n, err
		}
		if err := os.Remove(part); err != nil {
			return n, fmt.Errorf("extract: remove part archive: %w", err)
		}
	}
	return n, nil
}

func unzip(ctx context.Context, src, dest string) (int, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return 0, fmt.Errorf("extract: open %s: %w", filepath.Base(src), err)
	}
	defer r.Close()

	root := filepath.Clean(dest)
	written := 0
	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return written, fmt.Errorf("extract: %w", err)
		}
		if skipEntry(f.Name) {
			continue
		}
		target := filepath.Join(root, filepath.FromSlash(f.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return written, fmt.Errorf("extract: entry %q escapes destination", f.Name)
		}

		info := f.FileInfo()
		switch {
		case info.IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return written, fmt.Errorf("extract: create %s: %w", f.Name, err)
			}
		case info.Mode()&os.ModeSymlink != 0:
			continue
		default:
			if err := writeEntry(f, target); err != nil {
				return written, err
			}
			written++
		}
	}
	return written, nil
}

func writeEntry(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("extract: create %s: %w", filepath.Dir(target), err)
	}
	in, err := f.Open()
	if err != nil {
		return fmt.Errorf("extract: open entry %s: %w", f.Name, err)
	}
	defer in.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("extract: create %s: %w", f.Name, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("extract: write %s: %w", f.Name, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("extract: close %s: %w", f.Name, err)
	}
	return nil
}

func skipEntry(name string) bool {
	if strings.HasPrefix(name, "__MACOSX/") {
		return true
	}
	return filepath.Base(filepath.FromSlash(name)) == ".DS_Store"
}
