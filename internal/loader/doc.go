// Package loader reads source fragments for hpp.
//
// References resolve against the run's base directory (the directory that
// contains the start file) unless they are absolute. Text files are decoded
// BOM-aware (a UTF-8 BOM is stripped, UTF-16 with a BOM is transcoded) and
// line endings are normalized to "\n". Text that is not valid UTF-8 is an
// error; it is never silently repaired. Binary files are returned base64
// encoded; raw bytes never leave the package.
//
// Each Loader owns a Registry. A path that was already loaded in this run
// yields empty content unless the caller allows duplicates.
package loader
