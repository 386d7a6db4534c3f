package keygen

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"os/exec"
	"time"
)

const destroyTimeout = 10 * time.Second

// destroyAll securely removes every listed key file. Runs detached from the
// request context: cleanup must happen even after a cancelled request.
func (g *Generator) destroyAll(paths ...string) {
	for _, path := range paths {
		g.destroy(path)
	}
}

func (g *Generator) destroy(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return
	}

	if g.shredBin != "" {
		ctx, cancel := context.WithTimeout(context.Background(), destroyTimeout)
		defer cancel()
		cmd := exec.CommandContext(ctx, g.shredBin, "-u", path)
		if err := cmd.Run(); err == nil {
			return
		}
		g.logger.Warn().Str("path", path).Msg("shred tool failed, using overwrite fallback")
	}

	if err := overwrite(path); err != nil {
		g.logger.Warn().Err(err).Str("path", path).Msg("overwrite key file failed")
	}
	if err := os.Remove(path); err != nil {
		g.logger.Warn().Err(err).Str("path", path).Msg("remove key file failed")
	}
}

// overwrite replaces the file's contents in place with a random pass followed
// by a zero pass, syncing after each, so the key bytes never survive unlink.
func overwrite(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("open for overwrite: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat for overwrite: %w", err)
	}
	size := info.Size()
	if size == 0 {
		return nil
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("random pass: %w", err)
	}
	if _, err := f.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("write random pass: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync random pass: %w", err)
	}

	for i := range buf {
		buf[i] = 0
	}
	if _, err := f.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("write zero pass: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync zero pass: %w", err)
	}

	return nil
}
