package calculator

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	treeerrors "treesum/pkg/errors"
	"treesum/pkg/logger"
	"treesum/pkg/record"
)

// newRecordWarningPause gives the user a chance to notice that --new is
// shadowing a higher-level record before work starts.
const newRecordWarningPause = 5 * time.Second

// CalculateTree computes the aggregate checksum of the tree rooted at target
// and persists the result. It selects new-vs-resume mode, invalidates the
// ancestor chain before computing, and restores it bottom-up afterwards.
func CalculateTree(target string, opts Options) error {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	if opts.StartNew && opts.ContinuePrevious {
		return treeerrors.Newf(treeerrors.ErrorTypeConfig, "",
			"cannot specify both --new and --continue at the same time")
	}

	target, err := filepath.Abs(target)
	if err != nil {
		return treeerrors.New(treeerrors.ErrorTypeConfig, target, err)
	}
	info, err := os.Stat(target)
	if err != nil {
		return treeerrors.New(treeerrors.ErrorTypeEnumerate, target, err)
	}
	if !info.IsDir() {
		return treeerrors.Newf(treeerrors.ErrorTypeEnumerate, target, "target is not a directory")
	}

	log.WithField("target", target).Info("Calculating checksum")

	var rootRecord, targetRecord *record.Record
	var ancestors []*record.Record
	var recordFile string

	if opts.StartNew {
		recordFile = filepath.Join(target, record.FileName)

		if higher, ok := record.Find(target); ok && !samePath(higher, recordFile) {
			log.WithField("path", recordFile).Warn("Starting a new record file")
			log.WithField("path", higher).Warn("However a higher-level record file was found")
			log.Warn("Note that further operations will utilize the highest-level record found automatically")
			log.Warn("Consider removing --new from your command or deleting the higher-level record if not intentional")
			time.Sleep(newRecordWarningPause)
			log.Warn("Proceeding as requested")
		}

		if err := os.Remove(recordFile); err != nil && !os.IsNotExist(err) {
			return treeerrors.New(treeerrors.ErrorTypeRecordStore, recordFile, err)
		}
		rootRecord = &record.Record{}
		targetRecord = rootRecord
		targetRecord.CalculatedAt = time.Now().Format(time.RFC3339)
	} else {
		found, ok := record.Find(target)
		if !ok {
			recordFile = filepath.Join(target, record.FileName)
			rootRecord = &record.Record{}
			targetRecord = rootRecord
			targetRecord.CalculatedAt = time.Now().Format(time.RFC3339)
		} else {
			recordFile = found
			log.WithField("path", recordFile).Info("Updating existing checksum file")

			rootRecord, err = record.Load(recordFile)
			if err != nil {
				return err
			}
			targetRecord, ancestors, err = record.Locate(rootRecord, recordFile, target)
			if err != nil {
				return err
			}
			if !opts.ContinuePrevious {
				// The parent still references this node, so wipe
				// its contents in place instead of replacing it.
				targetRecord.Clear()
				targetRecord.CalculatedAt = time.Now().Format(time.RFC3339)
			}
		}
	}

	// Mark all ancestors invalidated until we complete. The caller may be
	// redoing a subdirectory even though the full tree was never analyzed,
	// so ancestors without an MD5 are accepted here as well.
	for _, parent := range ancestors {
		parent.Invalidate()
	}
	log.WithField("depth", len(ancestors)).Debug("Invalidated ancestor chain")

	calc := New(opts)
	defer calc.Close()

	saveRecord := func(final bool) error {
		if final {
			for i := len(ancestors) - 1; i >= 0; i-- {
				if err := calc.Recalculate(ancestors[i]); err != nil {
					return fmt.Errorf("restoring ancestor checksums: %w", err)
				}
			}
		}
		log.WithField("path", recordFile).Debug("Saving checksum record")
		// Marshal a snapshot: the live tree is still being mutated by
		// branch workers when a checkpoint fires.
		return record.Save(recordFile, calc.Snapshot(rootRecord))
	}

	calc.SetOnOccasion(func() {
		if opts.Progress != nil {
			opts.Progress(calc.Progress())
		}
		if err := saveRecord(false); err != nil {
			log.WithError(err).Warn("Checkpoint save failed")
		}
	})

	branchErr := calc.CalculateBranch(targetRecord, target, len(ancestors))
	if branchErr != nil {
		// Persist whatever completed so a later --continue can pick the
		// missing subtrees up. Ancestors stay invalidated because the
		// target never completed.
		if err := saveRecord(false); err != nil {
			log.WithError(err).Warn("Failed to save partial record")
		}
		return branchErr
	}

	if opts.Progress != nil {
		opts.Progress(calc.Progress())
	}
	if err := saveRecord(true); err != nil {
		return err
	}

	totalFiles, filesDone := calc.Progress()
	log.InfoWithFields("Done", map[string]interface{}{
		"total_files": totalFiles,
		"files_done":  filesDone,
	})
	return nil
}

// samePath reports whether two paths name the same file, falling back to
// string comparison when neither exists yet.
func samePath(a, b string) bool {
	ai, aerr := os.Stat(a)
	bi, berr := os.Stat(b)
	if aerr == nil && berr == nil {
		return os.SameFile(ai, bi)
	}
	return filepath.Clean(a) == filepath.Clean(b)
}
