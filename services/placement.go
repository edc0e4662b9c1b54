package services

import (
	"crypto/sha256"
	"math/big"
)

// Placement maps partition keys onto a fixed, ordered shard list. Both
// functions are pure: for a given key and shard count they always return the
// same indices, so every process resolves placement identically with no
// directory service. Changing the shard list or the hash relocates all
// future writes, which is why both are fixed per deployment.

// PrimaryShard returns the index of the shard that owns customID.
func PrimaryShard(customID string, shardCount int) int {
	h := hashValue(customID)
	return int(h.Mod(h, big.NewInt(int64(shardCount))).Int64())
}

// ReplicaShard returns the index of the replica shard for customID, always
// distinct from primary. The hash is reduced modulo shardCount-1 to pick a
// position in the list with the primary removed, then shifted past the
// primary. One hash, two distinct shards.
func ReplicaShard(customID string, shardCount, primary int) int {
	h := hashValue(customID)
	candidate := int(h.Mod(h, big.NewInt(int64(shardCount-1))).Int64())
	if candidate >= primary {
		candidate++
	}
	return candidate
}

// hashValue interprets the full sha256 digest of the key as an unsigned
// integer, so the reduction modulo N uses all 256 bits.
func hashValue(customID string) *big.Int {
	digest := sha256.Sum256([]byte(customID))
	return new(big.Int).SetBytes(digest[:])
}
