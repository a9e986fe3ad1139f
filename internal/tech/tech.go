// Package tech implements the per-user research/knowledge tracking that
// gates which active item types a user may build (spec.md §4.4's
// lab_bits). Supplemented from original_source: tech.c/tech.h are not
// present in the retrieved pack, but every call site (e.g.
// src/ux/ui_star.c's tech_known(tech, item_fusion) checks, game/world.h's
// world_tech(world, user) accessor, and game/state.c's tech_init/tech_save
// lifecycle) agrees on the shape: one knowledge set per user, queried by
// item/type bit and built up by learning events.
package tech

// Bits is a set of known technologies, one bit per item/type id, wide
// enough to cover every active.Type spec.md's active subsystem declares.
type Bits uint64

// Known is the per-user knowledge state.
type Known struct {
	bits Bits
}

// New constructs an empty (nothing known) state.
func New() *Known {
	return &Known{}
}

// Has reports whether every bit in required is set (tech_known).
func (k *Known) Has(required Bits) bool {
	return k.bits&required == required
}

// Learn sets the given bits, returning the bits that were newly learned
// (zero if everything was already known — learning is idempotent).
func (k *Known) Learn(bits Bits) Bits {
	newly := bits &^ k.bits
	k.bits |= bits
	return newly
}

// Bits returns the raw known-bits value, e.g. for persistence.
func (k *Known) Bits() Bits {
	return k.bits
}

// Load restores a previously saved knowledge set (tech_load).
func (k *Known) Load(bits Bits) {
	k.bits = bits
}
