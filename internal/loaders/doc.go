// Package loaders provides implementations of the Loader interface for
// the supported document formats. Each loader knows how to extract
// normalized text from one format.
//
// Loaders are registered with the Registry at startup; dispatch is by
// the format detected from the file extension.
package loaders
