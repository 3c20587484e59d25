// Package goToken turns typed payloads (OAuth authorization codes, refresh
// tokens and similar short-lived credentials) into opaque, self-contained
// strings and back.
//
// A [Codec] runs one fixed pipeline. Serialize encodes the payload fields,
// compresses, encrypts, signs, frames and base64-encodes. Deserialize undoes
// that and rejects the token at the first failed check, in this order:
// signature, decryption, decoding, expiry, replay, payload validation.
//
// # Architecture boundaries
//
// goToken orchestrates; it does not implement primitives. Signing lives in
// signer, encryption in encrypt, compression in compression and nonce storage
// behind [NonceStore] (Redis, PostgreSQL and in-memory stores live in
// noncestore). Payload types own their field layout; the fields package is a
// helper for writing one.
//
// # Configuration
//
// Build a codec with [NewCodec] or through [Builder] and [Build]. Combinations
// that are only sound together are checked at construction: a replay guard
// needs both signing and a MaxAge, and every key variant must carry usable
// key material. Such errors wrap [ErrConfiguration]. [Config.Lint] reports
// settings that are valid but weak.
//
// # Concurrency
//
// A Codec is immutable after construction and safe for concurrent use. The
// only shared mutable state is the nonce store, whose StoreIfAbsent must be
// atomic.
package goToken
