// Package blobstore persists a whole repository to a single file and loads
// it back. The container is a one-line header carrying a format tag and a
// blake3 checksum of the payload, followed by the gzip-compressed YAML
// encoding of the store state.
//
// Writes are atomic: the container is written to a temporary file in the
// same directory and renamed into place, so readers never observe a
// partially-written store.
package blobstore

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"

	"revstore/internal/store"
)

const formatTag = "revstore1"

// ErrNotExist reports that no store file exists at the given path.
var ErrNotExist = errors.New("store file does not exist")

// Save writes the store state to path atomically.
func Save(path string, st store.State) error {
	payload, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("blobstore: encode: %w", err)
	}
	sum := blake3.Sum256(payload)

	var body bytes.Buffer
	fmt.Fprintf(&body, "%s %s\n", formatTag, hex.EncodeToString(sum[:]))
	zw := gzip.NewWriter(&body)
	if _, err := zw.Write(payload); err != nil {
		zw.Close()
		return fmt.Errorf("blobstore: compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("blobstore: compress: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, f, err := createTempFile(dir, filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := f.Write(body.Bytes()); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// Load reads a store state previously written by Save, verifying the
// checksum before decoding.
func Load(path string) (store.State, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return store.State{}, fmt.Errorf("%w: %s", ErrNotExist, path)
		}
		return store.State{}, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	header, err := br.ReadString('\n')
	if err != nil {
		return store.State{}, fmt.Errorf("blobstore: short header: %w", err)
	}
	fields := strings.Fields(header)
	if len(fields) != 2 || fields[0] != formatTag {
		return store.State{}, fmt.Errorf("blobstore: unrecognized container header %q", strings.TrimSpace(header))
	}
	wantSum := fields[1]

	zr, err := gzip.NewReader(br)
	if err != nil {
		return store.State{}, fmt.Errorf("blobstore: decompress: %w", err)
	}
	payload, err := io.ReadAll(zr)
	if err != nil {
		return store.State{}, fmt.Errorf("blobstore: decompress: %w", err)
	}
	if err := zr.Close(); err != nil {
		return store.State{}, fmt.Errorf("blobstore: decompress: %w", err)
	}

	sum := blake3.Sum256(payload)
	if hex.EncodeToString(sum[:]) != wantSum {
		return store.State{}, fmt.Errorf("blobstore: checksum mismatch, store file is corrupt")
	}

	var st store.State
	if err := yaml.Unmarshal(payload, &st); err != nil {
		return store.State{}, fmt.Errorf("blobstore: decode: %w", err)
	}
	return st, nil
}

// createTempFile creates a temporary file in the target directory with a
// name derived from base (".tmp-<base>-<rand>"), returning its path and an
// *os.File ready for writing. Caller is responsible for closing it.
func createTempFile(dir, base string) (string, *os.File, error) {
	prefix := ".tmp-" + base + "-"
	f, err := os.CreateTemp(dir, prefix)
	if err != nil {
		return "", nil, err
	}
	return f.Name(), f, nil
}
