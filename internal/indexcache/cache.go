// Package indexcache persists a built BM25 index together with its corpus
// identity map, keyed by the corpus fingerprint. Index and map are written
// as one versioned artifact so a reader can never observe a torn pair: the
// file carries a magic header, format version, payload checksum, and the
// fingerprint of the corpus it was built from, and is committed with a
// temp-file rename.
package indexcache

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash/crc32"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/studentbridge/jobmatch/internal/bm25"
	"github.com/studentbridge/jobmatch/pkg/errors"
)

// Artifact format constants. Changing FormatVersion invalidates every
// existing artifact, which is the intended upgrade path.
const (
	MagicBytes    uint32 = 0x4A4D4358 // "JMCX"
	FormatVersion uint32 = 1
	headerSize           = 52
	fileExt              = ".jmx"
)

// payload is the CBOR-encoded body of an artifact.
type payload struct {
	Index    bm25.Snapshot `cbor:"index"`
	IndexMap []int         `cbor:"index_map"`
}

var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

// Store reads and writes index artifacts under a directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{
		dir:    dir,
		logger: slog.Default().With("component", "index-cache"),
	}
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+fileExt)
}

// Save atomically persists the index and its identity map under key,
// stamped with the corpus fingerprint. It writes to a .tmp file and renames
// on success.
func (s *Store) Save(key, fingerprint string, idx *bm25.Index, indexMap []int) error {
	fpBytes, err := decodeFingerprint(fingerprint)
	if err != nil {
		return err
	}
	body, err := cbor.Marshal(payload{
		Index:    idx.Snapshot(),
		IndexMap: indexMap,
	})
	if err != nil {
		return fmt.Errorf("encoding index artifact: %w", err)
	}
	compressed := zstdEncoder.EncodeAll(body, nil)

	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(header[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(header[8:12], crc32.ChecksumIEEE(compressed))
	binary.LittleEndian.PutUint64(header[12:20], uint64(len(compressed)))
	copy(header[20:52], fpBytes)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	finalPath := s.path(key)
	tmpPath := finalPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp artifact file: %w", err)
	}
	if _, err := f.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("writing artifact header: %w", err)
	}
	if _, err := f.Write(compressed); err != nil {
		f.Close()
		return fmt.Errorf("writing artifact payload: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing artifact file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing artifact file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("committing artifact file: %w", err)
	}
	s.logger.Info("index artifact saved",
		"key", key,
		"documents", idx.DocCount(),
		"payload_bytes", len(compressed),
	)
	return nil
}

// Load returns the cached index and identity map for key, but only when the
// artifact exists, validates, and was built from a corpus with the given
// fingerprint. ok is false on a clean miss (absent file or stale
// fingerprint). A present-but-invalid artifact is reported via an
// ErrCacheCorrupt-wrapped error; callers treat it as a miss and rebuild,
// never as data.
func (s *Store) Load(key, fingerprint string) (idx *bm25.Index, indexMap []int, ok bool, err error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, false, nil
		}
		return nil, nil, false, fmt.Errorf("reading index artifact: %w", err)
	}
	if len(data) < headerSize {
		return nil, nil, false, fmt.Errorf("%w: truncated header (%d bytes)", errors.ErrCacheCorrupt, len(data))
	}
	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != MagicBytes {
		return nil, nil, false, fmt.Errorf("%w: bad magic bytes %x", errors.ErrCacheCorrupt, magic)
	}
	if version := binary.LittleEndian.Uint32(data[4:8]); version != FormatVersion {
		return nil, nil, false, fmt.Errorf("%w: unsupported format version %d", errors.ErrCacheCorrupt, version)
	}
	checksum := binary.LittleEndian.Uint32(data[8:12])
	size := binary.LittleEndian.Uint64(data[12:20])
	compressed := data[headerSize:]
	if uint64(len(compressed)) != size {
		return nil, nil, false, fmt.Errorf("%w: payload size mismatch (header %d, actual %d)",
			errors.ErrCacheCorrupt, size, len(compressed))
	}
	if crc32.ChecksumIEEE(compressed) != checksum {
		return nil, nil, false, fmt.Errorf("%w: payload checksum mismatch", errors.ErrCacheCorrupt)
	}

	fpBytes, err := decodeFingerprint(fingerprint)
	if err != nil {
		return nil, nil, false, err
	}
	if !bytes.Equal(data[20:52], fpBytes) {
		// Stale artifact from a previous corpus; a plain miss, not corruption.
		s.logger.Info("index artifact stale, rebuilding", "key", key)
		return nil, nil, false, nil
	}

	body, err := zstdDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, nil, false, fmt.Errorf("%w: decompressing payload: %v", errors.ErrCacheCorrupt, err)
	}
	var p payload
	if err := cbor.Unmarshal(body, &p); err != nil {
		return nil, nil, false, fmt.Errorf("%w: decoding payload: %v", errors.ErrCacheCorrupt, err)
	}
	if p.Index.DocCount != len(p.IndexMap) {
		return nil, nil, false, fmt.Errorf("%w: index/map length mismatch (%d vs %d)",
			errors.ErrCacheCorrupt, p.Index.DocCount, len(p.IndexMap))
	}

	s.logger.Info("index artifact loaded", "key", key, "documents", p.Index.DocCount)
	return bm25.FromSnapshot(p.Index), p.IndexMap, true, nil
}

func decodeFingerprint(fingerprint string) ([]byte, error) {
	fp, err := hex.DecodeString(fingerprint)
	if err != nil || len(fp) != 32 {
		return nil, fmt.Errorf("invalid corpus fingerprint %q", fingerprint)
	}
	return fp, nil
}
