// Package archive unpacks downloaded asset archives (zip, 7z, rar) into a
// working directory.
//
// Member names are sanitised before anything is written: absolute paths and
// names escaping the destination are rejected, and symbolic links are
// skipped. Extract reports the distinct top-level names it produced so the
// installer can decide whether the archive holds a character folder or stage
// definitions.
package archive
