package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/valyala/bytebufferpool"

	"github.com/tcastillov/futbol-data/internal/platform/logging"
)

// diskEntry is the on-disk envelope. Payload stays raw so reads do not
// re-encode what the caller already serialized.
type diskEntry struct {
	Key       string          `json:"key"`
	Category  string          `json:"category"`
	WrittenAt time.Time       `json:"written_at"`
	ExpiresAt time.Time       `json:"expires_at"`
	Payload   json.RawMessage `json:"payload"`
}

// DiskTier persists cache entries as one file per key under
// {dir}/{category}/{sha1(key)}.json. Corrupted or expired files are treated
// as misses and deleted lazily.
type DiskTier struct {
	dir    string
	logger *logging.Logger
	now    func() time.Time
}

func NewDiskTier(dir string, logger *logging.Logger) (*DiskTier, error) {
	if dir == "" {
		return nil, fmt.Errorf("disk cache dir is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create disk cache dir: %w", err)
	}
	return &DiskTier{dir: dir, logger: logger, now: time.Now}, nil
}

func (d *DiskTier) Get(ctx context.Context, category Category, key string) ([]byte, time.Time, bool) {
	path := d.entryPath(category, key)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, time.Time{}, false
	}

	var entry diskEntry
	if err := sonic.Unmarshal(raw, &entry); err != nil {
		// Corruption is self-healing: drop the file and report a miss so the
		// orchestrator re-fetches.
		d.logger.WarnContext(ctx, "corrupted disk cache entry dropped",
			"category", string(category), "path", path, "error", err)
		_ = os.Remove(path)
		return nil, time.Time{}, false
	}

	if entry.Key != key || !entry.ExpiresAt.After(d.now()) {
		_ = os.Remove(path)
		return nil, time.Time{}, false
	}

	return entry.Payload, entry.ExpiresAt, true
}

func (d *DiskTier) Set(ctx context.Context, category Category, key string, payload []byte, expiresAt time.Time) error {
	entry := diskEntry{
		Key:       key,
		Category:  string(category),
		WrittenAt: d.now(),
		ExpiresAt: expiresAt,
		Payload:   json.RawMessage(payload),
	}

	// Encode straight into a pooled buffer; entry payloads are large and
	// refresh rewrites them often.
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(entry); err != nil {
		return fmt.Errorf("encode disk cache entry: %w", err)
	}

	catDir := filepath.Join(d.dir, string(category))
	if err := os.MkdirAll(catDir, 0o755); err != nil {
		return fmt.Errorf("create category dir: %w", err)
	}

	// Write to a temp file and rename so a cancelled request can never leave
	// a partially written entry visible.
	path := d.entryPath(category, key)
	tmp, err := os.CreateTemp(catDir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp entry: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp entry: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("publish entry: %w", err)
	}

	return nil
}

func (d *DiskTier) Delete(_ context.Context, category Category, key string) {
	_ = os.Remove(d.entryPath(category, key))
}

func (d *DiskTier) DeleteCategory(_ context.Context, category Category) {
	_ = os.RemoveAll(filepath.Join(d.dir, string(category)))
}

func (d *DiskTier) entryPath(category Category, key string) string {
	sum := sha1.Sum([]byte(EntryKey(category, key)))
	return filepath.Join(d.dir, string(category), hex.EncodeToString(sum[:])+".json")
}
