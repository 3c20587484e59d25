// Package encrypt provides the encryption half of the token crypto backend.
//
// [AEAD] encrypts with a shared secret (AES-GCM or XChaCha20-Poly1305) and
// emits nonce || ciphertext. [Hybrid] generates a fresh content key for every
// call, seals the body with AES-256-GCM and wraps the content key for the
// recipient with RSA-OAEP or an ephemeral X25519 exchange.
//
// Decrypt never distinguishes failure causes beyond [ErrDecrypt] (and
// [ErrNoPrivateKey] for encrypt-only instances).
package encrypt
