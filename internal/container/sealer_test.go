package container_test

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"

	"github.com/idelchi/tokenseal/internal/container"
	"github.com/idelchi/tokenseal/internal/encryption"
)

func TestHelloScenario(t *testing.T) {
	t.Parallel()

	authority := newStubAuthority("tok1", "alice")
	sealer := container.New(authority, nil, container.Options{})

	var sealed bytes.Buffer

	_, err := sealer.Encrypt(strings.NewReader("hello"), &sealed, []byte("tok1"))
	require.NoError(t, err)

	data := sealed.Bytes()

	// tok1 | MIT | iv(16) | separator(16) | key(16) | one ciphertext block
	require.Len(t, data, 4+3+16+16+16+16)
	require.Equal(t, "tok1MIT", string(data[:7]))

	separator := data[7+16 : 7+32]
	for _, c := range string(separator) {
		require.Contains(t, encryption.PatternAlphabet, string(c))
	}

	var plain bytes.Buffer

	_, err = sealer.Decrypt(bytes.NewReader(data), &plain, "alice")
	require.NoError(t, err)
	require.Equal(t, "hello", plain.String())
	require.Equal(t, []string{"tok1"}, authority.tokensSeen())
}

func TestHelloCiphertextUsesStoredKey(t *testing.T) {
	t.Parallel()

	sealer := container.New(newStubAuthority(), nil, container.Options{})

	var sealed bytes.Buffer

	_, err := sealer.Encrypt(strings.NewReader("hello"), &sealed, []byte("tok1"))
	require.NoError(t, err)

	data := sealed.Bytes()
	iv, key, ciphertext := data[7:23], data[39:55], data[55:]

	block, err := aes.NewCipher(key)
	require.NoError(t, err)

	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ciphertext)

	require.Equal(t, append([]byte("hello"), bytes.Repeat([]byte{11}, 11)...), plain)
}

func TestRoundTripLayouts(t *testing.T) {
	t.Parallel()

	layouts := map[string]container.Options{
		"legacy":         {Layout: container.Legacy},
		"framed":         {Layout: container.Framed},
		"framed-wrapped": {Layout: container.Framed, Wrapper: xorWrapper{}},
	}

	for name, opts := range layouts {
		for _, size := range []int{0, 1, 15, 16, 17, 32, 1000, 70_000} {
			t.Run(fmt.Sprintf("%s/%d", name, size), func(t *testing.T) {
				t.Parallel()

				sealer := container.New(newStubAuthority("tok1", "alice"), nil, opts)

				plaintext := make([]byte, size)
				_, err := rand.Read(plaintext)
				require.NoError(t, err)

				var sealed bytes.Buffer

				_, err = sealer.Encrypt(bytes.NewReader(plaintext), &sealed, []byte("tok1"))
				require.NoError(t, err)

				var plain bytes.Buffer

				report, err := sealer.Decrypt(&sealed, &plain, "alice")
				require.NoError(t, err)
				require.Equal(t, int64(size), report.Written)
				require.True(t, bytes.Equal(plaintext, plain.Bytes()))
			})
		}
	}
}

func TestFreshKeyMaterialPerCall(t *testing.T) {
	t.Parallel()

	sealer := container.New(newStubAuthority(), nil, container.Options{})

	var a, b bytes.Buffer

	_, err := sealer.Encrypt(strings.NewReader("same"), &a, []byte("t"))
	require.NoError(t, err)

	_, err = sealer.Encrypt(strings.NewReader("same"), &b, []byte("t"))
	require.NoError(t, err)

	require.NotEqual(t, a.Bytes()[4:20], b.Bytes()[4:20], "iv reused")
	require.NotEqual(t, a.Bytes()[36:52], b.Bytes()[36:52], "key reused")
}

func TestGateRunsBeforeKeyMaterial(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		authority *stubAuthority
		want      error
	}{
		{name: "undecryptable token", authority: newStubAuthority(), want: container.ErrTokenInvalid},
		{name: "wrong sender", authority: newStubAuthority("tok1", "bob"), want: container.ErrSenderMismatch},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			sealer := container.New(tc.authority, nil, container.Options{})
			input := io.MultiReader(strings.NewReader("tok1MIT"), untouchable{t: t})

			var plain bytes.Buffer

			_, err := sealer.Decrypt(input, &plain, "alice")
			require.ErrorIs(t, err, tc.want)
			require.Zero(t, plain.Len())
		})
	}
}

func TestDecryptTruncatedAfterAuthorization(t *testing.T) {
	t.Parallel()

	sealer := container.New(newStubAuthority("tok1", "alice"), nil, container.Options{})

	_, err := sealer.Decrypt(strings.NewReader("tok1MIT"+strings.Repeat("x", 20)), io.Discard, "alice")
	require.ErrorIs(t, err, container.ErrTruncatedHeader)

	_, err = sealer.Decrypt(strings.NewReader("no marker here"), io.Discard, "alice")
	require.ErrorIs(t, err, container.ErrMarkerNotFound)
}

func TestDecryptMissingCiphertext(t *testing.T) {
	t.Parallel()

	var sealed bytes.Buffer

	writer := container.New(nil, nil, container.Options{})

	_, err := writer.Encrypt(strings.NewReader("hello world"), &sealed, []byte("tok1"))
	require.NoError(t, err)

	// Token, delimiter, iv, separator and key, without any ciphertext block.
	headerOnly := sealed.Bytes()[:4+3+16+16+16]

	strict := container.New(newStubAuthority("tok1", "alice"), nil, container.Options{})

	var plain bytes.Buffer

	_, err = strict.Decrypt(bytes.NewReader(headerOnly), &plain, "alice")
	require.ErrorIs(t, err, encryption.ErrInvalidBlockSize)
	require.Zero(t, plain.Len())

	logger := &recordingLogger{}
	lenient := container.New(newStubAuthority("tok1", "alice"), logger, container.Options{
		Padding: encryption.PaddingLenient,
	})

	report, err := lenient.Decrypt(bytes.NewReader(headerOnly), &plain, "alice")
	require.NoError(t, err)
	require.True(t, report.PaddingAbsent)
	require.Zero(t, plain.Len())
	require.Equal(t, 1, logger.count("warn"))
}

func TestTokenContainingDelimiter(t *testing.T) {
	t.Parallel()

	authority := newStubAuthority()
	sealer := container.New(authority, nil, container.Options{})

	// Encryption refuses tokens the legacy layout cannot represent.
	_, err := sealer.Encrypt(strings.NewReader("data"), io.Discard, []byte("abMITcd"))
	require.ErrorIs(t, err, container.ErrTokenContainsDelimiter)

	// A container written anyway hands the authority the truncated token.
	var sealed bytes.Buffer

	h := testHeader("abMITcd")
	require.NoError(t, container.Legacy.WriteHeader(&sealed, h))

	_, err = sealer.Decrypt(&sealed, io.Discard, "alice")
	require.ErrorIs(t, err, container.ErrTokenInvalid)
	require.Equal(t, []string{"ab"}, authority.tokensSeen())
}

func TestTokenSizeLimit(t *testing.T) {
	t.Parallel()

	largest := strings.Repeat("a", container.MaxTokenSize)
	oversized := largest + "a"

	for _, layout := range []container.Layout{container.Legacy, container.Framed} {
		sealer := container.New(newStubAuthority(largest, "alice"), nil, container.Options{Layout: layout})

		var sealed bytes.Buffer

		_, err := sealer.Encrypt(strings.NewReader("data"), &sealed, []byte(largest))
		require.NoError(t, err, layout.Name())

		var plain bytes.Buffer

		_, err = sealer.Decrypt(&sealed, &plain, "alice")
		require.NoError(t, err, layout.Name())
		require.Equal(t, "data", plain.String())

		sealed.Reset()

		_, err = sealer.Encrypt(strings.NewReader("data"), &sealed, []byte(oversized))
		require.ErrorIs(t, err, container.ErrTokenTooLarge, layout.Name())
		require.Zero(t, sealed.Len())
	}
}

func TestEntropyFailure(t *testing.T) {
	t.Parallel()

	sealer := container.New(nil, nil, container.Options{Random: iotest.ErrReader(errors.New("no entropy"))})

	var sealed bytes.Buffer

	_, err := sealer.Encrypt(strings.NewReader("data"), &sealed, []byte("tok1"))
	require.ErrorIs(t, err, encryption.ErrEntropyUnavailable)
	require.Zero(t, sealed.Len())
}

func TestWrappedKeyWithoutWrapper(t *testing.T) {
	t.Parallel()

	writer := container.New(nil, nil, container.Options{Layout: container.Framed, Wrapper: xorWrapper{}})
	reader := container.New(newStubAuthority("tok1", "alice"), nil, container.Options{Layout: container.Framed})

	var sealed bytes.Buffer

	_, err := writer.Encrypt(strings.NewReader("data"), &sealed, []byte("tok1"))
	require.NoError(t, err)

	_, err = reader.Decrypt(&sealed, io.Discard, "alice")
	require.ErrorIs(t, err, container.ErrKeyUnwrap)
}

// unpaddedContainer builds a legacy container whose single block carries no valid padding.
func unpaddedContainer(t *testing.T, block []byte) []byte {
	t.Helper()

	h := testHeader("tok1")

	var sealed bytes.Buffer
	require.NoError(t, container.Legacy.WriteHeader(&sealed, h))

	aesBlock, err := aes.NewCipher(h.Key)
	require.NoError(t, err)

	ciphertext := make([]byte, len(block))
	cipher.NewCBCEncrypter(aesBlock, h.IV).CryptBlocks(ciphertext, block)
	sealed.Write(ciphertext)

	return sealed.Bytes()
}

func TestPaddingModes(t *testing.T) {
	t.Parallel()

	block := []byte("sixteen bytes!!\x00")
	data := unpaddedContainer(t, block)

	strict := container.New(newStubAuthority("tok1", "alice"), nil, container.Options{})

	_, err := strict.Decrypt(bytes.NewReader(data), io.Discard, "alice")
	require.ErrorIs(t, err, encryption.ErrCorruptPadding)

	logger := &recordingLogger{}
	lenient := container.New(newStubAuthority("tok1", "alice"), logger, container.Options{
		Padding: encryption.PaddingLenient,
	})

	var plain bytes.Buffer

	report, err := lenient.Decrypt(bytes.NewReader(data), &plain, "alice")
	require.NoError(t, err)
	require.True(t, report.PaddingAbsent)
	require.Equal(t, block, plain.Bytes())
	require.Equal(t, 1, logger.count("warn"))
}

func TestFileOperations(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "plain.txt")
	sealed := filepath.Join(dir, "plain.txt.enc")
	output := filepath.Join(dir, "plain.txt.out")

	require.NoError(t, os.WriteFile(input, []byte("file contents\n"), 0o600))

	logger := &recordingLogger{}
	sealer := container.New(newStubAuthority("tok1", "alice"), logger, container.Options{PreserveTimestamps: true})

	require.NoError(t, sealer.EncryptFile(input, sealed, []byte("tok1")))
	require.NoError(t, sealer.DecryptFile(sealed, output, "alice"))

	got, err := os.ReadFile(output)
	require.NoError(t, err)
	require.Equal(t, "file contents\n", string(got))

	inInfo, err := os.Stat(input)
	require.NoError(t, err)

	outInfo, err := os.Stat(output)
	require.NoError(t, err)
	require.True(t, inInfo.ModTime().Equal(outInfo.ModTime()))
	require.Zero(t, logger.count("error"))

	// A rejected sender leaves no output and logs the reason.
	rejected := filepath.Join(dir, "rejected.out")

	err = sealer.DecryptFile(sealed, rejected, "mallory")
	require.ErrorIs(t, err, container.ErrSenderMismatch)
	require.NoFileExists(t, rejected)
	require.Equal(t, 1, logger.count("error"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	for _, e := range entries {
		require.False(t, strings.HasPrefix(e.Name(), ".tmp-"), "temp file %s left behind", e.Name())
	}

	err = sealer.EncryptFile(filepath.Join(dir, "missing"), filepath.Join(dir, "x"), []byte("tok1"))
	require.ErrorIs(t, err, container.ErrIO)
}

func TestFileOperationsFailedCommit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "plain.txt")
	occupied := filepath.Join(dir, "occupied")

	require.NoError(t, os.WriteFile(input, []byte("file contents\n"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(occupied, "child"), 0o700))

	sealer := container.New(nil, nil, container.Options{PreserveTimestamps: true})

	err := sealer.EncryptFile(input, occupied, []byte("tok1"))
	require.ErrorIs(t, err, container.ErrIO)
	require.DirExists(t, filepath.Join(occupied, "child"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2, "only the input and the pre-existing directory remain")
}
