// Package users implements account/token management (spec.md, grounded on
// _examples/original_source/src/game/user.c): a server-wide token, and per
// user a numeric id, a public token others can grant access through, and a
// private token the user authenticates with.
package users

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/binary"
	"errors"
)

// MaxUsers caps how many accounts one world can hold (user.c's id fits a
// 64-entry bitset: id < 64).
const MaxUsers = 64

// Token is a random 64-bit credential.
type Token uint64

// newToken draws a cryptographically random token (user.c's token(),
// sourced from getrandom; crypto/rand is the direct Go equivalent with no
// ecosystem library in the pack offering anything more suited to a single
// random uint64).
func newToken() Token {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("users: unable to generate token: " + err.Error())
	}
	return Token(binary.LittleEndian.Uint64(buf[:]))
}

// ID identifies a user, 0..MaxUsers-1.
type ID uint8

// AccessSet is a bitset of user IDs a user has been granted visibility
// into (uset_t in the original).
type AccessSet uint64

// Contains reports whether id is a member of set.
func (set AccessSet) Contains(id ID) bool {
	return set&(1<<uint(id)) != 0
}

func idBit(id ID) AccessSet {
	return 1 << uint(id)
}

// User is one account.
type User struct {
	ID      ID
	Atom    uint64 // interned name atom
	Access  AccessSet
	Public  Token
	Private Token
}

var (
	// ErrAtomTaken is returned by Create when the name atom already has an
	// account.
	ErrAtomTaken = errors.New("users: atom already registered")
	// ErrFull is returned by Create once MaxUsers accounts exist.
	ErrFull = errors.New("users: no free user id")
)

// Registry is the set of all accounts on one world (struct users).
type Registry struct {
	server Token

	byID   map[ID]*User
	byAtom map[uint64]*User
	grant  map[Token]ID // public token -> the user who owns it

	avail AccessSet // bitset of ids currently assigned
}

// NewRegistry constructs a registry with a fresh server token and a
// preconfigured admin account holding unrestricted access (users_init:
// "admin" gets access = -1ULL, i.e. every bit set).
func NewRegistry() *Registry {
	r := &Registry{
		server: newToken(),
		byID:   make(map[ID]*User),
		byAtom: make(map[uint64]*User),
		grant:  make(map[Token]ID),
	}

	admin, err := r.Create(atomAdmin)
	if err != nil {
		panic("users: failed to create admin account: " + err.Error())
	}
	admin.Access = AccessSet(^uint64(0))
	return r
}

// atomAdmin is a reserved, never-interned-by-users sentinel atom value
// standing in for make_symbol("admin"); real atoms for user-chosen names
// come from the atoms package and are guaranteed distinct from it because
// atom word 0 is reserved there too.
const atomAdmin = 0

// ServerToken returns the registry's server-wide token (used by
// AuthServer).
func (r *Registry) ServerToken() Token {
	return r.server
}

// Create allocates a new account for atom, minting fresh public/private
// tokens (users_create).
func (r *Registry) Create(atom uint64) (*User, error) {
	if _, ok := r.byAtom[atom]; ok {
		return nil, ErrAtomTaken
	}

	var id ID
	for id = 0; id < MaxUsers; id++ {
		if !r.avail.Contains(id) {
			break
		}
	}
	if id == MaxUsers {
		return nil, ErrFull
	}

	user := &User{
		ID:      id,
		Atom:    atom,
		Access:  idBit(id),
		Public:  newToken(),
		Private: newToken(),
	}

	r.avail |= idBit(id)
	r.byID[id] = user
	r.byAtom[atom] = user
	r.grant[user.Public] = id
	return user, nil
}

// ByAtom looks up an account by its interned name atom (users_atom).
func (r *Registry) ByAtom(atom uint64) (*User, bool) {
	u, ok := r.byAtom[atom]
	return u, ok
}

// ByID looks up an account by id (users_id).
func (r *Registry) ByID(id ID) (*User, bool) {
	u, ok := r.byID[id]
	return u, ok
}

// AuthServer checks a server-wide admin token in constant time
// (users_auth_server).
func (r *Registry) AuthServer(token Token) bool {
	return constantTimeEqual(token, r.server)
}

// AuthUser checks a user's private token in constant time
// (users_auth_user).
func (r *Registry) AuthUser(id ID, token Token) bool {
	user, ok := r.byID[id]
	if !ok {
		return false
	}
	return constantTimeEqual(token, user.Private)
}

// Grant lets id gain access to whatever user owns the public token
// (users_grant): presenting a stranger's public token adds that
// stranger's id-bit to your own access set.
func (r *Registry) Grant(id ID, token Token) bool {
	user, ok := r.byID[id]
	if !ok {
		return false
	}
	grantedID, ok := r.grant[token]
	if !ok {
		return false
	}
	user.Access |= idBit(grantedID)
	return true
}

func constantTimeEqual(a, b Token) bool {
	var ab, bb [8]byte
	binary.LittleEndian.PutUint64(ab[:], uint64(a))
	binary.LittleEndian.PutUint64(bb[:], uint64(b))
	return subtle.ConstantTimeCompare(ab[:], bb[:]) == 1
}
