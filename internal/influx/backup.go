package influx

import (
	"compress/gzip"
	"fmt"
	"os"
	"sync"
)

// backup appends gzipped line protocol to a file while the server is
// unreachable. The file can be replayed with the influx CLI.
type backup struct {
	mu   sync.Mutex
	file *os.File
	gz   *gzip.Writer
}

func openBackup(path string) (*backup, error) {
	if path == "" {
		return nil, ErrNoBackupPath
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open backup file: %w", err)
	}
	return &backup{file: f, gz: gzip.NewWriter(f)}, nil
}

func (b *backup) writeLine(line string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.gz.Write([]byte(line)); err != nil {
		return fmt.Errorf("failed to write backup line: %w", err)
	}
	return nil
}

func (b *backup) close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.gz.Close(); err != nil {
		b.file.Close()
		return fmt.Errorf("failed to close backup writer: %w", err)
	}
	return b.file.Close()
}
