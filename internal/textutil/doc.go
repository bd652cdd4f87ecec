// Package textutil provides text processing utilities for filename and
// directory naming.
//
// The primary use cases are:
//   - Deriving clean, title-cased folder names from download identity keys
//   - Sanitizing arbitrary identifiers into filesystem-safe tokens
package textutil
