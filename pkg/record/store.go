package record

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"treesum/pkg/errors"
)

// Load reads a record tree from the given file.
func Load(path string) (*Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeRecordStore, path, err)
	}
	defer file.Close()

	var root Record
	if err := json.NewDecoder(file).Decode(&root); err != nil {
		return nil, errors.New(errors.ErrorTypeRecordStore, path, err)
	}
	return &root, nil
}

// Save writes a record tree to the given file atomically: the tree is
// serialized to a temporary file which is then renamed over the target, so a
// crash mid-write never corrupts an existing record.
func Save(path string, root *Record) error {
	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return errors.New(errors.ErrorTypeRecordStore, path, err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(root); err != nil {
		file.Close()
		os.Remove(tempPath)
		return errors.New(errors.ErrorTypeRecordStore, path, err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return errors.New(errors.ErrorTypeRecordStore, path, err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return errors.New(errors.ErrorTypeRecordStore, path, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errors.New(errors.ErrorTypeRecordStore, path, err)
	}

	return nil
}

// Find walks upward from target looking for a record file. When several
// ancestors carry one, the outermost wins: operations always utilize the
// highest-level record found.
func Find(target string) (string, bool) {
	dir, err := filepath.Abs(target)
	if err != nil {
		return "", false
	}

	var found string
	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			found = candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return found, found != ""
}

// Locate navigates from the root of a loaded record tree down to the node for
// target, where recordFile is the file root was loaded from. It returns the
// target node and the chain of its ancestors ordered root first. Path
// components missing from the tree are created empty, so a resumed run can
// descend into a subtree that was never scanned.
func Locate(root *Record, recordFile, target string) (*Record, []*Record, error) {
	base := filepath.Dir(recordFile)
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return nil, nil, errors.New(errors.ErrorTypeRecordStore, target, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, nil, errors.Newf(errors.ErrorTypeRecordStore, target,
			"target is not under the record file directory %q", base)
	}

	if rel == "." {
		return root, nil, nil
	}

	node := root
	var ancestors []*Record
	for _, name := range strings.Split(rel, string(filepath.Separator)) {
		if node.Subdirectories == nil {
			node.Subdirectories = make(map[string]*Record)
		}
		sub, ok := node.Subdirectories[name]
		if !ok {
			sub = &Record{}
			node.Subdirectories[name] = sub
		}
		ancestors = append(ancestors, node)
		node = sub
	}

	return node, ancestors, nil
}
