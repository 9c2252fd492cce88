package calculator

import (
	"crypto/md5" // #nosec G501 -- change detection, not tamper-proofing
	"encoding/hex"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"

	treeerrors "treesum/pkg/errors"
	"treesum/pkg/fsys"
	"treesum/pkg/logger"
	"treesum/pkg/record"

	"treesum/internal/pool"
)

// ProgressFunc receives the shared progress counters on each occasion.
type ProgressFunc func(totalFiles, filesDone int64)

// Options configures a tree calculation.
type Options struct {
	// ContinuePrevious reuses completed sub-records from a prior
	// interrupted run instead of recomputing them.
	ContinuePrevious bool

	// StartNew discards any existing record at the target path.
	// Mutually exclusive with ContinuePrevious.
	StartNew bool

	// DetailFiles records per-file digest, size and mtime in the record.
	DetailFiles bool

	// Parallel is the number of branch computations allowed in flight at
	// once. 1 degenerates to fully synchronous recursion.
	Parallel int

	// Progress, when set, is invoked on each occasion.
	Progress ProgressFunc

	Logger logger.Logger
}

// Calculator computes aggregate directory checksums recursively, fanning
// subdirectory branches out across a bounded worker pool.
type Calculator struct {
	continuePrevious bool
	detailFiles      bool
	nParallel        int
	pool             *pool.Pool

	totalFiles atomic.Int64
	filesDone  atomic.Int64

	// treeMu guards mutations of the shared record tree so the occasion
	// checkpointer can snapshot it while branch workers are still
	// publishing results. It is never held across hashing I/O.
	treeMu sync.Mutex

	occasion *occasion
	log      logger.Logger
}

// New creates a Calculator. Close must be called when done with it.
func New(opts Options) *Calculator {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	nParallel := opts.Parallel
	if nParallel < 1 {
		nParallel = 1
	}

	c := &Calculator{
		continuePrevious: opts.ContinuePrevious,
		detailFiles:      opts.DetailFiles,
		nParallel:        nParallel,
		occasion:         newOccasion(),
		log:              log,
	}
	if nParallel > 1 {
		c.pool = pool.New(nParallel, log)
		c.pool.Start()
		log.WithField("n_parallel", nParallel).Debug("Using parallel branch workers")
	}
	return c
}

// Close shuts down the worker pool.
func (c *Calculator) Close() {
	if c.pool != nil {
		c.pool.Stop()
		c.pool = nil
	}
}

// SetOnOccasion installs the callback fired by the adaptive occasion timer.
// It must be set before CalculateBranch is called.
func (c *Calculator) SetOnOccasion(fn func()) {
	c.occasion.fire = fn
}

// Progress returns the shared discovery and completion counters.
func (c *Calculator) Progress() (totalFiles, filesDone int64) {
	return c.totalFiles.Load(), c.filesDone.Load()
}

// Snapshot returns a deep copy of the record tree rooted at root, taken under
// the tree lock. Checkpoint saves marshal the snapshot, not the live tree,
// which branch workers may still be mutating; the lock is held for the copy
// only, never for serialization or the write.
func (c *Calculator) Snapshot(root *record.Record) *record.Record {
	c.treeMu.Lock()
	defer c.treeMu.Unlock()
	return root.Copy()
}

// CalculateBranch populates rec for the directory at dir, recursing into
// subdirectories. On success rec is complete; on failure rec is left without
// an aggregate checksum and the error carries every failed subtree.
//
// depth is the distance from the directory holding the record file: the
// record file itself is skipped from hashing only at depth 0, so a record
// never covers its own serialized bytes.
func (c *Calculator) CalculateBranch(rec *record.Record, dir string, depth int) error {
	c.occasion.maybe()

	files, subdirs, err := fsys.Enumerate(dir)
	if err != nil {
		return treeerrors.New(treeerrors.ErrorTypeEnumerate, dir, err)
	}
	c.totalFiles.Add(int64(len(files) + len(subdirs)))

	checksum := md5.New() // #nosec G401
	var totalSize int64

	if len(subdirs) > 0 {
		childErrs := c.computeSubdirectories(rec, dir, depth, subdirs)

		for _, name := range subdirs {
			sub := rec.Subdirectories[name]
			if !sub.Complete() {
				// This child's branch failed; its error is already
				// collected, and without its checksum this record
				// cannot complete either.
				continue
			}
			io.WriteString(checksum, name)
			io.WriteString(checksum, sub.MD5)
			totalSize += sub.Size
			c.filesDone.Add(1)
			c.occasion.maybe()
		}

		if len(childErrs) > 0 {
			return errors.Join(childErrs...)
		}

		c.log.WithFields(map[string]interface{}{
			"dir": dir,
			"md5": hex.EncodeToString(checksum.Sum(nil)),
		}).Debug("Digest after subdirectories")
	}

	fileMD5 := md5.New() // #nosec G401
	var nFiles int
	var filesSize int64
	var listing map[string]record.FileDetail
	if c.detailFiles {
		listing = make(map[string]record.FileDetail, len(files))
	}

	for _, name := range files {
		if depth == 0 && name == record.FileName {
			// Skip the record file we create ourselves, but only at
			// the top level.
			c.filesDone.Add(1)
			continue
		}

		size, mtime, err := fsys.Stat(dir, name)
		if err != nil {
			return treeerrors.New(treeerrors.ErrorTypeHash, filepath.Join(dir, name), err)
		}
		digest, err := fsys.HashFile(dir, name)
		if err != nil {
			return treeerrors.New(treeerrors.ErrorTypeHash, filepath.Join(dir, name), err)
		}

		nFiles++
		io.WriteString(fileMD5, name)
		io.WriteString(fileMD5, digest)
		filesSize += size
		if c.detailFiles {
			listing[name] = record.FileDetail{
				MD5:            digest,
				Size:           size,
				LastModifiedAt: mtime,
			}
		}

		c.filesDone.Add(1)
		c.occasion.maybe()
	}

	filesOnly := hex.EncodeToString(fileMD5.Sum(nil))
	io.WriteString(checksum, filesOnly)

	totalSize += filesSize

	c.treeMu.Lock()
	rec.Size = totalSize
	rec.NFiles = nFiles
	rec.FilesSize = filesSize
	if c.detailFiles {
		rec.FileListing = listing
	}
	rec.FilesOnlyMD5 = filesOnly
	rec.MD5 = hex.EncodeToString(checksum.Sum(nil))
	c.treeMu.Unlock()
	return nil
}

// computeSubdirectories schedules the branch computation of every incomplete
// subdirectory and waits for all of them at a join barrier. Work is offered
// to the pool while a worker is free and recursed into synchronously
// otherwise, so the number of in-flight branches never exceeds the pool size
// and a saturated pool can never deadlock on its own children.
func (c *Calculator) computeSubdirectories(rec *record.Record, dir string, depth int, subdirs []string) []error {
	c.treeMu.Lock()
	if !c.continuePrevious || rec.Subdirectories == nil {
		rec.Subdirectories = make(map[string]*record.Record, len(subdirs))
	} else {
		// Drop sub-records of directories that no longer exist so a
		// later recalculation sees exactly the enumerated children.
		present := make(map[string]bool, len(subdirs))
		for _, name := range subdirs {
			present[name] = true
		}
		for name := range rec.Subdirectories {
			if !present[name] {
				delete(rec.Subdirectories, name)
			}
		}
	}
	for _, name := range subdirs {
		if _, ok := rec.Subdirectories[name]; !ok {
			rec.Subdirectories[name] = &record.Record{}
		}
	}
	c.treeMu.Unlock()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var childErrs []error
	wereParallel := 0

	for _, name := range subdirs {
		sub := rec.Subdirectories[name]
		if sub.Complete() {
			// Finished in a previous run; reuse it unmodified.
			continue
		}

		subPath := filepath.Join(dir, name)
		childDepth := depth + 1
		job := func() {
			defer wg.Done()
			if err := c.CalculateBranch(sub, subPath, childDepth); err != nil {
				mu.Lock()
				childErrs = append(childErrs, err)
				mu.Unlock()
			}
		}

		wg.Add(1)
		if c.pool != nil && c.pool.TrySubmit(job) {
			wereParallel++
		} else {
			job()
		}
	}

	// Join barrier: no aggregation happens until every scheduled child is
	// done.
	wg.Wait()

	if wereParallel > 0 {
		c.log.WithFields(map[string]interface{}{
			"dir":      dir,
			"parallel": wereParallel,
		}).Debug("Subdirectories analyzed in parallel")
	}

	return childErrs
}
