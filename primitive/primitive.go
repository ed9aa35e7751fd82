package primitive

import (
	"fmt"
	"sort"
	"sync"
)

// RoundKeys is key material derived by a Primitive. Only the Primitive that
// produced it may interpret it.
type RoundKeys interface{}

// Primitive is an opaque block cipher. Implementations must not allocate on
// the encryption path; round keys are derived once by Schedule and reused.
type Primitive interface {
	// Schedule derives round keys from the key words for the given mode.
	Schedule(mode Mode, hi, lo uint64, rounds int) RoundKeys

	// Encrypt64 encrypts a single 64-bit block.
	Encrypt64(block uint64, rk RoundKeys, rounds int) uint64

	// Encrypt128 encrypts a 128-bit block given as two words, high word first.
	Encrypt128(block [2]uint64, rk RoundKeys, rounds int) [2]uint64
}

// Inverse is implemented by primitives that can also decrypt. Host tooling
// uses it to check captured results.
type Inverse interface {
	Decrypt64(block uint64, rk RoundKeys, rounds int) uint64
	Decrypt128(block [2]uint64, rk RoundKeys, rounds int) [2]uint64
}

// DefaultName is the name of the primitive used when none is configured.
const DefaultName = "xcrypto"

var (
	registryMu sync.RWMutex
	registry   = map[string]Primitive{
		DefaultName: Library{},
	}
)

// Register makes a primitive available by name. Registering a name twice
// replaces the earlier primitive.
func Register(name string, p Primitive) {
	if p == nil {
		panic("primitive: Register with nil primitive")
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = p
}

// Lookup returns the primitive registered under name.
func Lookup(name string) (Primitive, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	p, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown primitive %q (registered: %v)", name, namesLocked())
	}
	return p, nil
}

// Names returns the registered primitive names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
