// Package chain manages version chains: the ordered sequence of versions
// sharing one root artifact identity. It enforces the single-open-version
// invariant, copies inheritable metadata and contributor ordering onto new
// versions, and resolves the chain-level state a root GUID presents once
// later versions are withdrawn.
package chain
