/*
idgen.go - Per-collection identifier generation

PURPOSE:
  Produces unique positive integer identifiers not currently in use by a
  given collection. The generator is a pure function of the existing id
  set: callers pass the ids they already hold, and collision-freedom is
  guaranteed against exactly that set.

WHY NOT A GLOBAL COUNTER?
  Each collection (products, sales, returns, orders, ledger entries)
  numbers independently, and state can be restored from a store with
  arbitrary gaps. Deriving the next id from the live set keeps the
  generator stateless and restart-safe.
*/
package shop

import "math/rand"

// randomProbes bounds the number of random draws before falling back to a
// strictly monotonic scan from the current maximum.
const randomProbes = 16

// NextID returns a positive integer absent from existing.
func NextID(existing map[int]struct{}) int {
	// Random probe keeps ids short-lived collections unpredictable without
	// scanning; dense sets fall through to max+1.
	upper := 2*len(existing) + 100
	for i := 0; i < randomProbes; i++ {
		candidate := rand.Intn(upper) + 1
		if _, used := existing[candidate]; !used {
			return candidate
		}
	}

	max := 0
	for id := range existing {
		if id > max {
			max = id
		}
	}
	return max + 1
}

// idSet collects the key set of a map keyed by int, for use with NextID.
func idSet[V any](m map[int]V) map[int]struct{} {
	set := make(map[int]struct{}, len(m))
	for id := range m {
		set[id] = struct{}{}
	}
	return set
}
