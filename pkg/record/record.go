package record

import "time"

// FileName is the conventional name of the persisted record file at the top
// of a checksummed tree.
const FileName = "tree_checksum.json"

// Record holds the checksums and metadata of one directory. Records form a
// tree mirroring the filesystem: each entry in Subdirectories is the record
// of an immediate child directory.
//
// A record is complete when MD5 is set. An ancestor of a subtree being
// recomputed has its MD5 stripped until every child is complete again.
type Record struct {
	// CalculatedAt is set on the record a calculation was started at.
	CalculatedAt string `json:"calculated_at,omitempty"`

	// MD5 is the aggregate checksum of the whole subtree. Empty means the
	// record is incomplete or has been invalidated.
	MD5 string `json:"MD5,omitempty"`

	// FilesOnlyMD5 covers only this directory's immediate files
	// (names and content digests), independent of subdirectories.
	FilesOnlyMD5 string `json:"MD5-files_only,omitempty"`

	// Size is the total recursive byte size of this directory.
	Size int64 `json:"size,omitempty"`

	// NFiles and FilesSize cover the immediate files only.
	NFiles    int   `json:"n_files,omitempty"`
	FilesSize int64 `json:"files-size,omitempty"`

	Subdirectories map[string]*Record `json:"subdirectories,omitempty"`

	// FileListing is only populated in detail mode.
	FileListing map[string]FileDetail `json:"file-listing,omitempty"`
}

// FileDetail holds per-file metadata captured in detail mode.
type FileDetail struct {
	MD5            string    `json:"MD5"`
	Size           int64     `json:"size"`
	LastModifiedAt time.Time `json:"last-modified-at"`
}

// Complete reports whether this record carries a finished aggregate checksum.
func (r *Record) Complete() bool {
	return r.MD5 != ""
}

// Invalidate strips the aggregate checksum, marking the record stale until it
// is recomputed from completed children.
func (r *Record) Invalidate() {
	r.MD5 = ""
}

// Clear wipes the record in place. The pointer identity is preserved so a
// parent's Subdirectories entry keeps referencing this node.
func (r *Record) Clear() {
	*r = Record{}
}

// Copy returns a deep copy of the tree rooted at r.
func (r *Record) Copy() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	if r.Subdirectories != nil {
		cp.Subdirectories = make(map[string]*Record, len(r.Subdirectories))
		for name, sub := range r.Subdirectories {
			cp.Subdirectories[name] = sub.Copy()
		}
	}
	if r.FileListing != nil {
		cp.FileListing = make(map[string]FileDetail, len(r.FileListing))
		for name, detail := range r.FileListing {
			cp.FileListing[name] = detail
		}
	}
	return &cp
}
