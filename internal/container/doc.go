// Package container reads and writes single-file encrypted containers.
//
// A container starts with a header carrying the authorization token and the
// key material, followed by AES-128 CBC ciphertext. Two header layouts exist:
//
//   - legacy: token | "MIT" | iv | separator | key, no length prefixes
//   - framed: magic, version, flags and length-prefixed token and key sections
//
// Decryption is gated: the token is extracted and authorized by an Authority
// before any byte after the token field is read.
package container
