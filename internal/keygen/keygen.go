package keygen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"

	"github.com/edvin/keybroker/internal/metrics"
	"github.com/edvin/keybroker/internal/platform"
)

// keyBits fixes the size passed to the keygen tool per key type. Types
// mapping to 0 use the tool's own default size.
var keyBits = map[string]int{
	"dsa":        1024,
	"ecdsa":      521,
	"ecdsa-sk":   0,
	"ed25519":    0,
	"ed25519-sk": 0,
	"rsa":        4096,
}

// SupportedTypes lists the key types accepted at the API boundary.
var SupportedTypes = []string{"dsa", "ecdsa", "ecdsa-sk", "ed25519", "ed25519-sk", "rsa"}

// KeyPair holds generated key material in memory only. The private key is
// handed to the caller exactly once and must never be logged or persisted.
type KeyPair struct {
	KeyType     string
	Bits        int
	Fingerprint string
	PublicKey   string
	PrivateKey  string
}

// Generator mints keypairs by driving an external keygen tool. Transient key
// files are destroyed on every exit path, success or failure.
type Generator struct {
	logger    zerolog.Logger
	keygenBin string
	shredBin  string
	workDir   string
}

// NewGenerator creates a Generator. An empty workDir means the OS temp dir;
// an empty shredBin skips the external tool and uses the in-process
// overwrite fallback directly.
func NewGenerator(logger zerolog.Logger, keygenBin, shredBin, workDir string) *Generator {
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &Generator{
		logger:    logger.With().Str("component", "keygen").Logger(),
		keygenBin: keygenBin,
		shredBin:  shredBin,
		workDir:   workDir,
	}
}

// Generate creates a new keypair of the given type. The private key exists on
// disk only between the two tool invocations and is securely destroyed before
// Generate returns, on every path.
func (g *Generator) Generate(ctx context.Context, keyType string) (*KeyPair, error) {
	bits := keyBits[keyType]

	privPath := filepath.Join(g.workDir, platform.NewName("key"))
	pubPath := privPath + ".pub"
	defer g.destroyAll(privPath, pubPath)

	args := []string{"-q", "-t", keyType}
	if bits > 0 {
		args = append(args, "-b", strconv.Itoa(bits))
	}
	args = append(args, "-f", privPath, "-N", "", "-C", "")

	start := time.Now()
	cmd := exec.CommandContext(ctx, g.keygenBin, args...)
	output, err := cmd.CombinedOutput()
	metrics.KeygenDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.KeygenFailures.Inc()
		return nil, fmt.Errorf("generate %s key: %s: %w", keyType, strings.TrimSpace(string(output)), err)
	}

	fingerprint, err := g.fingerprint(ctx, pubPath)
	if err != nil {
		return nil, err
	}

	pubBytes, err := os.ReadFile(pubPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	if _, _, _, _, err := ssh.ParseAuthorizedKey(pubBytes); err != nil {
		return nil, fmt.Errorf("parse generated public key: %w", err)
	}

	privBytes, err := os.ReadFile(privPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	return &KeyPair{
		KeyType:     keyType,
		Bits:        bits,
		Fingerprint: fingerprint,
		PublicKey:   strings.TrimSpace(string(pubBytes)),
		PrivateKey:  string(privBytes),
	}, nil
}

// fingerprint runs the tool in fingerprint mode and extracts the second
// whitespace-separated token ("<bits> <fingerprint> <comment> (<type>)").
func (g *Generator) fingerprint(ctx context.Context, pubPath string) (string, error) {
	cmd := exec.CommandContext(ctx, g.keygenBin, "-l", "-f", pubPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("fingerprint key: %s: %w", strings.TrimSpace(string(output)), err)
	}

	fields := strings.Fields(string(output))
	if len(fields) < 2 {
		return "", errors.New("fingerprint key: unexpected tool output")
	}
	return fields[1], nil
}
