// Package encryption provides the AES-128 CBC streaming engine, the padding scheme
// applied to the final block and the random source used for key material.
// The engine keeps no state between calls: every Encrypt or Decrypt derives its own
// key schedule and chain value.
package encryption
