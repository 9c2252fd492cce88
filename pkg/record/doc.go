// Package record defines the persisted checksum record tree and its store.
//
// One Record describes one directory: its aggregate checksum, a files-only
// checksum, size and file-count metadata, and the records of its immediate
// subdirectories. The whole tree is serialized as a single JSON document
// named tree_checksum.json at the top of the checksummed tree.
//
// Saves are atomic (write to a temporary file, then rename) so interrupted
// runs always leave a loadable record behind for resumption.
package record
