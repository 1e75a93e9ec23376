// Package keyring implements the KeyProvider port as a static, versioned
// keyring loaded at startup. Keys are held in memory only; rotation adds a
// new version and moves "current" forward, leaving historical versions in
// place so old ciphertexts stay decryptable.
package keyring

import (
	"encoding/base64"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
)

const keySize = 32

// Compile-time interface satisfaction check.
var _ driven.KeyProvider = (*Keyring)(nil)

// Keyring maps key versions to 256-bit key material. Immutable after
// construction, so concurrent lookups need no locking.
type Keyring struct {
	keys    map[int][]byte
	current int
}

// keyringFile is the on-disk YAML shape:
//
//	current: 2
//	keys:
//	  1: "<base64 32-byte key>"
//	  2: "<base64 32-byte key>"
type keyringFile struct {
	Current int            `yaml:"current"`
	Keys    map[int]string `yaml:"keys"`
}

// New builds a keyring from decoded key material. Every key must be 32
// bytes and current must name one of the versions.
func New(keys map[int][]byte, current int) (*Keyring, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("keyring has no keys")
	}
	for version, key := range keys {
		if version <= 0 {
			return nil, fmt.Errorf("key version %d: versions must be positive", version)
		}
		if len(key) != keySize {
			return nil, fmt.Errorf("key version %d: must be %d bytes, got %d", version, keySize, len(key))
		}
	}
	if _, ok := keys[current]; !ok {
		return nil, fmt.Errorf("current key version %d is not in the keyring", current)
	}
	return &Keyring{keys: keys, current: current}, nil
}

// LoadFile reads a YAML keyring file. Key values are standard base64.
func LoadFile(path string) (*Keyring, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keyring file: %w", err)
	}

	var file keyringFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse keyring file %s: %w", path, err)
	}

	keys := make(map[int][]byte, len(file.Keys))
	for version, encoded := range file.Keys {
		key, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("keyring file %s: key version %d: %w", path, version, err)
		}
		keys[version] = key
	}

	kr, err := New(keys, file.Current)
	if err != nil {
		return nil, fmt.Errorf("keyring file %s: %w", path, err)
	}
	return kr, nil
}

// ParseEnv builds a keyring from the compact env form
// "1:<base64>,2:<base64>" plus the current version.
func ParseEnv(spec string, current int) (*Keyring, error) {
	keys := make(map[int][]byte)
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		version, encoded, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("keyring entry %q: want <version>:<base64 key>", entry)
		}
		v, err := strconv.Atoi(strings.TrimSpace(version))
		if err != nil {
			return nil, fmt.Errorf("keyring entry %q: bad version: %w", entry, err)
		}
		key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
		if err != nil {
			return nil, fmt.Errorf("keyring entry version %d: %w", v, err)
		}
		keys[v] = key
	}
	return New(keys, current)
}

// Current returns the newest key version and its key. New encryptions
// always use this pair.
func (k *Keyring) Current() (int, []byte, error) {
	return k.current, k.keys[k.current], nil
}

// Key returns the key for a historical version.
func (k *Keyring) Key(version int) ([]byte, error) {
	key, ok := k.keys[version]
	if !ok {
		return nil, fmt.Errorf("%w: version %d", driven.ErrKeyVersionUnknown, version)
	}
	return key, nil
}

// Versions lists the held key versions in ascending order, for diagnostics.
func (k *Keyring) Versions() []int {
	versions := make([]int, 0, len(k.keys))
	for v := range k.keys {
		versions = append(versions, v)
	}
	sort.Ints(versions)
	return versions
}
