// Package compression provides the compressors used by the token pipeline.
//
// Decompression always runs with an output bound so a small authenticated
// token cannot expand without limit.
package compression
