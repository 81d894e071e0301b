// Package hashing derives the short numeric ids used as service aliases.
package hashing

import "github.com/cespare/xxhash/v2"

// Sum32 returns the 32-bit id for name. The 64-bit xxhash digest is folded
// so both halves contribute to the result.
func Sum32(name string) uint32 {
	h := xxhash.Sum64String(name)
	return uint32(h) ^ uint32(h>>32)
}
