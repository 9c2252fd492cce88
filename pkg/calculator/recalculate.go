package calculator

import (
	"crypto/md5" // #nosec G501
	"encoding/hex"
	"io"
	"sort"

	treeerrors "treesum/pkg/errors"
	"treesum/pkg/record"
)

// Recalculate recombines an already-scanned directory's aggregate checksum
// from its children without touching the filesystem. It is used to restore
// invalidated ancestors after a subtree has been recomputed.
//
// Children are combined in sorted name order, which is the enumeration order
// they were originally hashed in. An incomplete child is a hard error: it
// means the subtree below was never finished, so nothing higher in the tree
// can be made consistent either. A record that was itself never scanned is
// left untouched; the user can finish it with --continue later.
func (c *Calculator) Recalculate(rec *record.Record) error {
	checksum := md5.New() // #nosec G401

	names := make([]string, 0, len(rec.Subdirectories))
	for name := range rec.Subdirectories {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		sub := rec.Subdirectories[name]
		if !sub.Complete() {
			return treeerrors.Newf(treeerrors.ErrorTypeIncompleteChild, "",
				"cannot recalculate this record because sub-record %q does not have a completed checksum", name)
		}
		io.WriteString(checksum, name)
		io.WriteString(checksum, sub.MD5)
	}

	if rec.FilesOnlyMD5 == "" && rec.MD5 == "" {
		// The record itself was never fully scanned even though a
		// subdirectory below it was. Leave it incomplete.
		return nil
	}

	io.WriteString(checksum, rec.FilesOnlyMD5)
	rec.MD5 = hex.EncodeToString(checksum.Sum(nil))
	return nil
}
