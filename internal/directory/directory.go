// Package directory is the player registry: it resolves names to known
// players and enforces name uniqueness. Games only ever reference players
// by name; the directory is the single place a name becomes an identity.
package directory

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrExists means a player with that name is already registered.
	ErrExists = errors.New("a player with that name already exists")
	// ErrNotFound means no player is registered under that name.
	ErrNotFound = errors.New("player does not exist")
	// ErrInvalidName rejects empty or blank names.
	ErrInvalidName = errors.New("player name must not be empty")
)

// Player is a registered player. Email is optional and only consumed by the
// reminder scheduler.
type Player struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Directory resolves player names to identities.
type Directory interface {
	Register(name, email string) (Player, error)
	Resolve(name string) (Player, error)
	List() []Player
}

// MemoryDirectory is the in-process Directory. Name matching is
// case-insensitive; the casing given at registration is preserved.
type MemoryDirectory struct {
	mu      sync.RWMutex
	players map[string]Player // lower-cased name -> player
}

// NewMemoryDirectory creates an empty directory
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{players: make(map[string]Player)}
}

// Register adds a player with a unique name
func (d *MemoryDirectory) Register(name, email string) (Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Player{}, ErrInvalidName
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	key := strings.ToLower(name)
	if _, ok := d.players[key]; ok {
		return Player{}, ErrExists
	}

	p := Player{Name: name, Email: email}
	d.players[key] = p
	return p, nil
}

// Resolve looks up a player by name, ignoring case
func (d *MemoryDirectory) Resolve(name string) (Player, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.players[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Player{}, ErrNotFound
	}
	return p, nil
}

// List returns all registered players sorted by name
func (d *MemoryDirectory) List() []Player {
	d.mu.RLock()
	defer d.mu.RUnlock()

	players := make([]Player, 0, len(d.players))
	for _, p := range d.players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].Name < players[j].Name
	})
	return players
}
