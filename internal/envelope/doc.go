// Package envelope owns the binary framing of serialized tokens and their
// base64 transport form.
//
// # Wire format
//
//	signed:   [u32 len][signature][u32 len][body]
//	unsigned: [u32 len][body]
//
// Lengths are big-endian. The body is the output of the compress/encrypt
// stages. Inside the body (after decryption and decompression) the codec
// places a metadata header, [u8 version][i64 createdAt ms][u32 len][nonce],
// followed by the payload's own field bytes.
//
// # What this package must NOT do
//
//   - Verify signatures or decrypt; it only splits bytes.
//   - Import goToken or any primitive package.
package envelope
