// Package commitment implements the verified price-map capability: a
// marginal price map is either recomputed directly from posted scalars
// or admitted as a committed off-chain approximation carrying a merkle
// inclusion proof against a previously committed root.
package commitment

import (
	"errors"

	"github.com/zeebo/blake3"
)

// Hash is a blake3 digest.
type Hash [32]byte

// Leaf and node hashes are domain-separated so an inner node can never
// be replayed as a leaf.
var (
	leafPrefix = []byte{0x00}
	nodePrefix = []byte{0x01}
)

func hashLeaf(data []byte) Hash {
	h := blake3.New()
	h.Write(leafPrefix)
	h.Write(data)
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

func hashNode(left, right Hash) Hash {
	h := blake3.New()
	h.Write(nodePrefix)
	h.Write(left[:])
	h.Write(right[:])
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// Proof is a merkle inclusion proof for one leaf.
type Proof struct {
	Index    uint64
	Siblings []Hash
}

// Tree is the append-only commitment accumulator. The oracle posts the
// root on-chain; provers keep the tree to mint proofs.
type Tree struct {
	leaves []Hash
}

func NewTree() *Tree {
	return &Tree{}
}

// Append adds a leaf and returns its index.
func (t *Tree) Append(data []byte) uint64 {
	t.leaves = append(t.leaves, hashLeaf(data))
	return uint64(len(t.leaves) - 1)
}

// Root folds the current leaves. An odd node at any level is paired
// with itself.
func (t *Tree) Root() Hash {
	if len(t.leaves) == 0 {
		return Hash{}
	}
	level := make([]Hash, len(t.leaves))
	copy(level, t.leaves)
	for len(level) > 1 {
		next := make([]Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			right := level[i]
			if i+1 < len(level) {
				right = level[i+1]
			}
			next = append(next, hashNode(level[i], right))
		}
		level = next
	}
	return level[0]
}

// Prove builds the inclusion proof for leaf i.
func (t *Tree) Prove(i uint64) (Proof, error) {
	if i >= uint64(len(t.leaves)) {
		return Proof{}, errors.New("leaf index out of range")
	}
	proof := Proof{Index: i}
	level := make([]Hash, len(t.leaves))
	copy(level, t.leaves)
	pos := i
	for len(level) > 1 {
		sib := pos ^ 1
		if sib >= uint64(len(level)) {
			sib = pos // odd node pairs with itself
		}
		proof.Siblings = append(proof.Siblings, level[sib])

		next := make([]Hash, 0, (len(level)+1)/2)
		for j := 0; j < len(level); j += 2 {
			right := level[j]
			if j+1 < len(level) {
				right = level[j+1]
			}
			next = append(next, hashNode(level[j], right))
		}
		level = next
		pos >>= 1
	}
	return proof, nil
}

// Verify checks an inclusion proof for the given leaf bytes against a
// committed root. This is the single verification entry point the
// oracle interface exposes.
func Verify(root Hash, leaf []byte, proof Proof) bool {
	acc := hashLeaf(leaf)
	pos := proof.Index
	for _, sib := range proof.Siblings {
		if pos&1 == 1 {
			acc = hashNode(sib, acc)
		} else {
			acc = hashNode(acc, sib)
		}
		pos >>= 1
	}
	return acc == root
}
