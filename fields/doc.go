// Package fields is a small binary record codec for payload types.
//
// Records start with a version byte and continue with big-endian integers
// and u32 length-prefixed strings, byte slices and string lists. Both
// [Writer] and [Reader] keep the first error so call sites can encode or
// decode a whole record and check once.
package fields
