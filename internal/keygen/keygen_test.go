package keygen

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validPubKey is a syntactically valid authorized_keys line the fake tool
// writes, so the post-generation parse check passes.
const validPubKey = "ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAB"

// fakeKeygen handles both tool modes: fingerprint (-l) and generation.
const fakeKeygen = `#!/bin/sh
if [ "$1" = "-l" ]; then
	echo "256 SHA256:fak3f1ngerpr1nt  (ED25519)"
	exit 0
fi
keyfile=""
prev=""
for a in "$@"; do
	if [ "$prev" = "-f" ]; then keyfile="$a"; fi
	prev="$a"
done
printf '%s' "FAKE PRIVATE KEY MATERIAL" > "$keyfile"
printf '%s' "` + validPubKey + `" > "$keyfile.pub"
`

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	return path
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestGenerate_HappyPath(t *testing.T) {
	binDir := t.TempDir()
	workDir := t.TempDir()
	bin := writeScript(t, binDir, "ssh-keygen", fakeKeygen)

	g := NewGenerator(zerolog.Nop(), bin, "", workDir)

	pair, err := g.Generate(context.Background(), "ed25519")
	require.NoError(t, err)

	assert.Equal(t, "ed25519", pair.KeyType)
	assert.Equal(t, 0, pair.Bits)
	assert.Equal(t, "SHA256:fak3f1ngerpr1nt", pair.Fingerprint)
	assert.Equal(t, validPubKey, pair.PublicKey)
	assert.Equal(t, "FAKE PRIVATE KEY MATERIAL", pair.PrivateKey)

	// Both transient key files are destroyed before Generate returns.
	assert.Empty(t, dirEntries(t, workDir))
}

func TestGenerate_PassesFixedBitSizes(t *testing.T) {
	binDir := t.TempDir()
	workDir := t.TempDir()
	argsFile := filepath.Join(binDir, "args.log")

	// Records generation args, then behaves like the happy-path tool.
	script := `#!/bin/sh
if [ "$1" = "-l" ]; then
	echo "256 SHA256:fak3f1ngerpr1nt  (ED25519)"
	exit 0
fi
echo "$@" >> ` + argsFile + `
keyfile=""
prev=""
for a in "$@"; do
	if [ "$prev" = "-f" ]; then keyfile="$a"; fi
	prev="$a"
done
printf '%s' "FAKE PRIVATE KEY MATERIAL" > "$keyfile"
printf '%s' "` + validPubKey + `" > "$keyfile.pub"
`
	bin := writeScript(t, binDir, "ssh-keygen", script)
	g := NewGenerator(zerolog.Nop(), bin, "", workDir)

	tests := []struct {
		keyType      string
		wantBitsFlag string
	}{
		{"rsa", "-b 4096"},
		{"dsa", "-b 1024"},
		{"ecdsa", "-b 521"},
		{"ed25519", ""},
		{"ed25519-sk", ""},
	}
	for _, tt := range tests {
		require.NoError(t, os.WriteFile(argsFile, nil, 0o644))

		_, err := g.Generate(context.Background(), tt.keyType)
		require.NoError(t, err, "keyType=%s", tt.keyType)

		logged, err := os.ReadFile(argsFile)
		require.NoError(t, err)
		args := string(logged)
		assert.Contains(t, args, "-t "+tt.keyType)
		assert.Contains(t, args, `-N`)
		if tt.wantBitsFlag != "" {
			assert.Contains(t, args, tt.wantBitsFlag, "keyType=%s", tt.keyType)
		} else {
			assert.NotContains(t, args, "-b", "keyType=%s", tt.keyType)
		}
	}
}

func TestGenerate_ToolFailure(t *testing.T) {
	binDir := t.TempDir()
	workDir := t.TempDir()
	bin := writeScript(t, binDir, "ssh-keygen", `#!/bin/sh
echo "unknown key type" >&2
exit 1
`)

	g := NewGenerator(zerolog.Nop(), bin, "", workDir)

	pair, err := g.Generate(context.Background(), "rsa")
	assert.Nil(t, pair)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate rsa key")
	assert.Contains(t, err.Error(), "unknown key type")
	assert.Empty(t, dirEntries(t, workDir))
}

func TestGenerate_FingerprintFailureDestroysFiles(t *testing.T) {
	binDir := t.TempDir()
	workDir := t.TempDir()

	// Generation succeeds, fingerprint mode fails. The already-written key
	// files must still be destroyed.
	bin := writeScript(t, binDir, "ssh-keygen", `#!/bin/sh
if [ "$1" = "-l" ]; then
	echo "not a key" >&2
	exit 255
fi
keyfile=""
prev=""
for a in "$@"; do
	if [ "$prev" = "-f" ]; then keyfile="$a"; fi
	prev="$a"
done
printf '%s' "FAKE PRIVATE KEY MATERIAL" > "$keyfile"
printf '%s' "`+validPubKey+`" > "$keyfile.pub"
`)

	g := NewGenerator(zerolog.Nop(), bin, "", workDir)

	pair, err := g.Generate(context.Background(), "ed25519")
	assert.Nil(t, pair)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fingerprint key")
	assert.Empty(t, dirEntries(t, workDir))
}

func TestGenerate_RejectsMalformedPublicKey(t *testing.T) {
	binDir := t.TempDir()
	workDir := t.TempDir()
	bin := writeScript(t, binDir, "ssh-keygen", `#!/bin/sh
if [ "$1" = "-l" ]; then
	echo "256 SHA256:fak3f1ngerpr1nt  (ED25519)"
	exit 0
fi
keyfile=""
prev=""
for a in "$@"; do
	if [ "$prev" = "-f" ]; then keyfile="$a"; fi
	prev="$a"
done
printf '%s' "FAKE PRIVATE KEY MATERIAL" > "$keyfile"
printf '%s' "this is not an authorized_keys line" > "$keyfile.pub"
`)

	g := NewGenerator(zerolog.Nop(), bin, "", workDir)

	pair, err := g.Generate(context.Background(), "ed25519")
	assert.Nil(t, pair)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse generated public key")
	assert.Empty(t, dirEntries(t, workDir))
}

func TestGenerate_UsesShredTool(t *testing.T) {
	binDir := t.TempDir()
	workDir := t.TempDir()
	shredLog := filepath.Join(binDir, "shred.log")

	keygenBin := writeScript(t, binDir, "ssh-keygen", fakeKeygen)
	shredBin := writeScript(t, binDir, "shred", `#!/bin/sh
echo "$@" >> `+shredLog+`
rm -f "$2"
`)

	g := NewGenerator(zerolog.Nop(), keygenBin, shredBin, workDir)

	_, err := g.Generate(context.Background(), "ed25519")
	require.NoError(t, err)

	logged, err := os.ReadFile(shredLog)
	require.NoError(t, err)
	calls := strings.Count(string(logged), "-u ")
	assert.Equal(t, 2, calls, "both key files go through the shred tool")
	assert.Empty(t, dirEntries(t, workDir))
}
