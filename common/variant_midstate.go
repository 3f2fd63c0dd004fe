//go:build !header

package common

// BuildVariant is the protocol variant compiled into this binary. Build with
// `-tags header` to select the full header protocol.
const BuildVariant = VariantMidstate
