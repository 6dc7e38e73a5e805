package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// entitySeq is shared by every world; ids stay unique across the process.
var entitySeq atomic.Uint64

// NextEntityID returns a process-unique id with the given kind prefix
func NextEntityID(prefix string) string {
	return prefix + strconv.FormatUint(entitySeq.Add(1), 36)
}

// GenerateID returns a random hex string of the given byte length
func GenerateID(byteLen int) string {
	b := make([]byte, byteLen)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// GenerateUUID returns a random v4 UUID string
func GenerateUUID() string {
	return uuid.NewString()
}

var botNames = []string{
	"Anvil", "Badger", "Cobalt", "Dozer", "Ember", "Flint", "Gravel", "Hammer",
	"Ironside", "Jackal", "Kestrel", "Lancer", "Mauler", "Nomad", "Onyx", "Piston",
	"Quarry", "Rampart", "Sabre", "Tusk", "Vandal", "Warden", "Yeoman", "Zealot",
}

// NamePool hands out unique bot call signs. Safe for concurrent use.
type NamePool struct {
	mu    sync.Mutex
	names []string
	used  map[string]bool
}

// NewNamePool creates a pool over the given names
func NewNamePool(names []string) *NamePool {
	return &NamePool{names: names, used: make(map[string]bool, len(names))}
}

// botNamePool is shared by all worlds
var botNamePool = NewNamePool(botNames)

// Acquire reserves a free name. When every name is taken it returns a
// numbered fallback and ErrResourceExhausted.
func (p *NamePool) Acquire() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range p.names {
		if !p.used[n] {
			p.used[n] = true
			return n, nil
		}
	}
	return NextEntityID("Bot-"), fmt.Errorf("bot name: %w", ErrResourceExhausted)
}

// Release returns a name to the pool
func (p *NamePool) Release(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.used, name)
}

// InUse returns the number of reserved names
func (p *NamePool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.used)
}

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ"

// CodeAllocator assigns short target codes ("AB", "AC", ...) that players
// type to lock onto a tank. Safe for concurrent use.
type CodeAllocator struct {
	mu       sync.Mutex
	capacity int
	used     map[string]bool
	next     int
}

// NewCodeAllocator creates an allocator with at most capacity live codes
func NewCodeAllocator(capacity int) *CodeAllocator {
	max := len(codeAlphabet) * len(codeAlphabet)
	if capacity <= 0 || capacity > max {
		capacity = max
	}
	return &CodeAllocator{capacity: capacity, used: make(map[string]bool)}
}

func codeAt(i int) string {
	n := len(codeAlphabet)
	return string([]byte{codeAlphabet[(i/n)%n], codeAlphabet[i%n]})
}

// Acquire returns a free code, or "" and ErrResourceExhausted
func (a *CodeAllocator) Acquire() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := 0; i < a.capacity; i++ {
		c := codeAt((a.next + i) % a.capacity)
		if !a.used[c] {
			a.used[c] = true
			a.next = (a.next + i + 1) % a.capacity
			return c, nil
		}
	}
	return "", fmt.Errorf("target code: %w", ErrResourceExhausted)
}

// Release frees a code
func (a *CodeAllocator) Release(code string) {
	if code == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.used, code)
}

// Hold marks a code as in use, used when a rollback revives a tank
func (a *CodeAllocator) Hold(code string) {
	if code == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.used[code] = true
}
