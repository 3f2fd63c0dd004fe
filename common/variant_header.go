//go:build header

package common

// BuildVariant is the protocol variant compiled into this binary.
const BuildVariant = VariantHeader
