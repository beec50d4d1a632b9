package codec

import "github.com/klauspost/cpuid/v2"

// SelectVariant picks the widest batch-compare variant the running
// CPU supports. All variants are required to (and do) produce
// identical output (spec.md §8 "vectorization parity"); this only
// affects scan throughput over long unchanged runs.
func SelectVariant() Variant {
	switch {
	case cpuid.CPU.Supports(cpuid.AVX2):
		return VariantChunk32
	case cpuid.CPU.Supports(cpuid.SSE2):
		return VariantChunk8
	default:
		return VariantScalar
	}
}
