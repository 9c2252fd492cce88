package fsys

import (
	"crypto/md5" // #nosec G501 -- used for change detection only
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Enumerate lists a directory's immediate files and subdirectories. Entries
// come back in lexicographic name order; the calculation engine depends on
// this order being deterministic because it feeds the hash input directly.
func Enumerate(dir string) (files, subdirs []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			subdirs = append(subdirs, entry.Name())
		} else {
			files = append(files, entry.Name())
		}
	}
	return files, subdirs, nil
}

// HashFile returns the lowercase hex MD5 digest of one file's content.
func HashFile(dir, name string) (string, error) {
	f, err := os.Open(filepath.Join(dir, name)) // #nosec G304
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New() // #nosec G401 -- change detection, not tamper-proofing
	buf := make([]byte, 1<<20)
	for {
		n, rerr := f.Read(buf)
		if n > 0 {
			if _, werr := h.Write(buf[:n]); werr != nil {
				return "", werr
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return "", rerr
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Stat returns the size and last-modified time of one file.
func Stat(dir, name string) (int64, time.Time, error) {
	info, err := os.Stat(filepath.Join(dir, name))
	if err != nil {
		return 0, time.Time{}, err
	}
	return info.Size(), info.ModTime(), nil
}
