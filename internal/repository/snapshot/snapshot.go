// Package snapshot persists the vector store contents to a single durable
// file, so a restart does not re-embed unchanged catalog data. The format is
// a private cache, not a wire format: a JSON envelope with little-endian
// float32 vector payloads.
package snapshot

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/lawnald/counselrank/internal/domain"
	"github.com/lawnald/counselrank/internal/vectorstore"
)

const formatVersion = 1

// Store reads and writes index snapshots at a fixed path.
type Store struct {
	path string
}

// New creates a snapshot store for the given file path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the snapshot file location.
func (s *Store) Path() string { return s.path }

type envelope struct {
	Version    int                `json:"version"`
	Dimensions int                `json:"dimensions"`
	Vectors    [][]byte           `json:"vectors"`
	Items      []vectorstore.Item `json:"items"`
}

// Save serializes the entries. The write is atomic: a temp file in the same
// directory is renamed over the target, so readers never observe a torn file.
func (s *Store) Save(entries []vectorstore.Entry) error {
	env := envelope{
		Version: formatVersion,
		Vectors: make([][]byte, len(entries)),
		Items:   make([]vectorstore.Item, len(entries)),
	}
	if len(entries) > 0 {
		env.Dimensions = len(entries[0].Vector)
	}
	for i, e := range entries {
		env.Vectors[i] = vectorToBytes(e.Vector)
		env.Items[i] = e.Item
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// Load deserializes the snapshot and verifies its structure. Structural
// inconsistencies (length disparity, dimension drift, unknown item types)
// return domain.ErrCorruptSnapshot so the caller can force a full rebuild.
// A missing file returns os.ErrNotExist.
func (s *Store) Load() ([]vectorstore.Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptSnapshot, err)
	}
	if env.Version != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", domain.ErrCorruptSnapshot, env.Version)
	}
	if len(env.Vectors) != len(env.Items) {
		return nil, fmt.Errorf("%w: %d vectors vs %d items",
			domain.ErrCorruptSnapshot, len(env.Vectors), len(env.Items))
	}

	entries := make([]vectorstore.Entry, len(env.Vectors))
	for i, raw := range env.Vectors {
		vec, err := bytesToVector(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: vector %d: %v", domain.ErrCorruptSnapshot, i, err)
		}
		if len(vec) != env.Dimensions {
			return nil, fmt.Errorf("%w: vector %d has %d dims, expected %d",
				domain.ErrCorruptSnapshot, i, len(vec), env.Dimensions)
		}
		entries[i] = vectorstore.Entry{Vector: vec, Item: env.Items[i]}
	}

	if err := vectorstore.Validate(entries); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptSnapshot, err)
	}
	return entries, nil
}

func vectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid vector payload: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
