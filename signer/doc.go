// Package signer provides the signing half of the token crypto backend.
//
// [HMAC] signs with a shared secret and verifies by recomputing the MAC and
// comparing in constant time. [Asymmetric] signs with an RSA, ECDSA or
// Ed25519 private key through golang-jwt signing methods and verifies with
// the public key; a signer built from a public key alone can only verify.
//
// # What this package must NOT do
//
//   - Frame, encode or otherwise interpret the bytes it signs.
//   - Compare MACs with a variable-time equality.
package signer
