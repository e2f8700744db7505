// Package cas provides content-addressed storage for extracted payloads.
// Blobs are stored by their BLAKE3 hash, so hiding the same payload in many
// carriers yields one blob on disk.
package cas

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/zeebo/blake3"

	"github.com/mitsimi/veil/core/errors"
	"github.com/mitsimi/veil/internal/fileutil"
)

// ErrInvalidHash is returned when a hash string is not a valid BLAKE3 hex string.
var ErrInvalidHash = errors.Wrap(errors.ErrInvalidInput, "invalid hash format")

// hashPattern matches a lowercase 256-bit hex digest (64 characters).
var hashPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Ref describes where a stored blob was found.
type Ref struct {
	Hash   string `json:"blake3"`
	Size   int    `json:"size"`
	Kind   string `json:"kind"`
	Source string `json:"source"`
	Tag    string `json:"tag"`
}

// Store is a directory of BLAKE3-addressed blobs.
type Store struct {
	root string
}

// NewStore creates a store at root, creating the directory layout if needed.
func NewStore(root string) (*Store, error) {
	for _, dir := range []string{
		filepath.Join(root, "blobs", "blake3"),
		filepath.Join(root, "refs"),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.NewIO("mkdir", dir, err)
		}
	}
	return &Store{root: root}, nil
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

// Put stores data and returns its hash. Storing existing content is a no-op.
func (s *Store) Put(data []byte) (string, error) {
	hash := Hash(data)
	blobPath := s.pathForHash(hash)
	if _, err := os.Stat(blobPath); err == nil {
		return hash, nil
	}
	if err := fileutil.WriteFileAtomic(blobPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	return hash, nil
}

// PutRef stores data along with a ref record. Hash and Size in ref are
// filled in from data. The most recent ref for a hash wins.
func (s *Store) PutRef(data []byte, ref Ref) (string, error) {
	hash, err := s.Put(data)
	if err != nil {
		return "", err
	}
	ref.Hash = hash
	ref.Size = len(data)

	encoded, err := json.MarshalIndent(ref, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal ref: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.pathForRef(hash), encoded, 0644); err != nil {
		return "", fmt.Errorf("failed to write ref: %w", err)
	}
	return hash, nil
}

// Get returns the blob with the given hash.
func (s *Store) Get(hash string) ([]byte, error) {
	if !isValidHash(hash) {
		return nil, ErrInvalidHash
	}
	data, err := os.ReadFile(s.pathForHash(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("blob", hash)
		}
		return nil, errors.NewIO("read", s.pathForHash(hash), err)
	}
	return data, nil
}

// Ref returns the ref record for hash.
func (s *Store) Ref(hash string) (Ref, error) {
	if !isValidHash(hash) {
		return Ref{}, ErrInvalidHash
	}
	data, err := os.ReadFile(s.pathForRef(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return Ref{}, errors.NewNotFound("ref", hash)
		}
		return Ref{}, errors.NewIO("read", s.pathForRef(hash), err)
	}
	var ref Ref
	if err := json.Unmarshal(data, &ref); err != nil {
		return Ref{}, fmt.Errorf("failed to parse ref %s: %w", hash, err)
	}
	return ref, nil
}

// Exists checks if a blob with the given hash exists in the store.
func (s *Store) Exists(hash string) bool {
	if !isValidHash(hash) {
		return false
	}
	_, err := os.Stat(s.pathForHash(hash))
	return err == nil
}

// Export copies a stored blob to dst.
func (s *Store) Export(hash, dst string) error {
	if !s.Exists(hash) {
		if !isValidHash(hash) {
			return ErrInvalidHash
		}
		return errors.NewNotFound("blob", hash)
	}
	return fileutil.CopyFile(s.pathForHash(hash), dst)
}

// pathForHash returns <root>/blobs/blake3/<first2>/<hash>.
func (s *Store) pathForHash(hash string) string {
	return filepath.Join(s.root, "blobs", "blake3", hash[:2], hash)
}

func (s *Store) pathForRef(hash string) string {
	return filepath.Join(s.root, "refs", hash+".json")
}

func isValidHash(hash string) bool {
	return hashPattern.MatchString(hash)
}

// Hash computes the BLAKE3 hash of data without storing it.
func Hash(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}
