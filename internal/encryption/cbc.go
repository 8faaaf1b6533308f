package encryption

import (
	"bufio"
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
	"io"
)

const (
	// BlockSize is the AES block size; IVs and padding are one block long.
	BlockSize = aes.BlockSize
	// KeySize is the AES-128 key size.
	KeySize = 16
)

// Engine streams data through AES-128 in CBC mode.
type Engine struct {
	// Padding controls how malformed padding on the final block is handled.
	Padding PaddingMode
}

// Report describes a finished Encrypt or Decrypt call.
type Report struct {
	// Blocks processed by the cipher.
	Blocks int64

	// Written is the number of bytes written to the output.
	Written int64

	// PaddingAbsent is set when lenient decryption kept the final block unpadded.
	PaddingAbsent bool
}

func newBlock(key, iv []byte) (cipher.Block, error) {
	if len(key) != KeySize || len(iv) != BlockSize {
		return nil, ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	return block, nil
}

// jscpd:ignore-start

// Encrypt reads plaintext from r and writes CBC ciphertext to w.
// Complete blocks are encrypted as they arrive; whatever remains at EOF, including an
// empty or block-aligned remainder, is padded and encrypted last.
func (e Engine) Encrypt(r io.Reader, w io.Writer, key, iv []byte) (Report, error) {
	var report Report

	block, err := newBlock(key, iv)
	if err != nil {
		return report, err
	}

	cbcMode := cipher.NewCBCEncrypter(block, iv)
	bufReader := bufio.NewReaderSize(r, defaultBufferSize)

	buf := getBuffer()
	defer putBuffer(buf)

	blockBuf := make([]byte, 0, defaultBufferSize+BlockSize)
	ciphertext := make([]byte, defaultBufferSize+2*BlockSize)
	isEOF := false

	for !isEOF {
		n, err := bufReader.Read(buf)
		if n > 0 {
			blockBuf = append(blockBuf, buf[:n]...)
		}

		if errors.Is(err, io.EOF) {
			isEOF = true
		} else if err != nil {
			return report, fmt.Errorf("reading input: %w", err)
		}

		ready := len(blockBuf) - len(blockBuf)%BlockSize

		if isEOF {
			// Final chunk: always padded, even when empty or exactly one block.
			blockBuf = Pad(blockBuf)
			ready = len(blockBuf)
		}

		if ready == 0 {
			continue
		}

		if len(ciphertext) < ready {
			ciphertext = make([]byte, ready)
		}

		cbcMode.CryptBlocks(ciphertext[:ready], blockBuf[:ready])

		written, err := w.Write(ciphertext[:ready])
		report.Written += int64(written)

		if err != nil {
			return report, fmt.Errorf("writing encrypted block: %w", err)
		}

		report.Blocks += int64(ready / BlockSize)
		blockBuf = append(blockBuf[:0], blockBuf[ready:]...)
	}

	return report, nil
}

// Decrypt reads CBC ciphertext from r and writes plaintext to w.
// The last complete block is always held back until EOF so that only the final
// block of the stream is unpadded.
//
//nolint:cyclop,funlen
func (e Engine) Decrypt(r io.Reader, w io.Writer, key, iv []byte) (Report, error) {
	var report Report

	block, err := newBlock(key, iv)
	if err != nil {
		return report, err
	}

	cbcMode := cipher.NewCBCDecrypter(block, iv)
	bufReader := bufio.NewReaderSize(r, defaultBufferSize)

	buf := getBuffer()
	defer putBuffer(buf)

	blockBuf := make([]byte, 0, defaultBufferSize+2*BlockSize)
	plaintext := make([]byte, defaultBufferSize+2*BlockSize)
	isEOF := false

	for !isEOF {
		n, err := bufReader.Read(buf)
		if n > 0 {
			blockBuf = append(blockBuf, buf[:n]...)
		}

		if errors.Is(err, io.EOF) {
			isEOF = true
		} else if err != nil {
			return report, fmt.Errorf("reading input: %w", err)
		}

		// Ensure we have complete blocks
		if isEOF && len(blockBuf)%BlockSize != 0 {
			return report, ErrInvalidBlockSize
		}

		// Process complete blocks except the last one
		ready := len(blockBuf) - len(blockBuf)%BlockSize - BlockSize
		if ready > 0 {
			if len(plaintext) < ready {
				plaintext = make([]byte, ready)
			}

			cbcMode.CryptBlocks(plaintext[:ready], blockBuf[:ready])

			written, err := w.Write(plaintext[:ready])
			report.Written += int64(written)

			if err != nil {
				return report, fmt.Errorf("writing decrypted block: %w", err)
			}

			report.Blocks += int64(ready / BlockSize)
			blockBuf = append(blockBuf[:0], blockBuf[ready:]...)
		}
	}

	// Encrypt always emits a padded block, so an empty ciphertext is a truncated one.
	if len(blockBuf) == 0 {
		if e.Padding == PaddingStrict {
			return report, fmt.Errorf("%w: no ciphertext blocks", ErrInvalidBlockSize)
		}

		report.PaddingAbsent = true

		return report, nil
	}

	lastBlock := make([]byte, BlockSize)
	cbcMode.CryptBlocks(lastBlock, blockBuf)
	report.Blocks++

	unpadded, stripped, err := Unpad(lastBlock, e.Padding)
	if err != nil {
		return report, fmt.Errorf("removing padding: %w", err)
	}

	report.PaddingAbsent = !stripped

	written, err := w.Write(unpadded)
	report.Written += int64(written)

	if err != nil {
		return report, fmt.Errorf("writing final decrypted block: %w", err)
	}

	return report, nil
}

// jscpd:ignore-end
