//go:build !(amd64 || arm64 || 386 || arm || riscv64 || loong64 || mipsle || mips64le || ppc64le || wasm)

package main

// OtoBeeper hands its float32 sample buffer to oto as FormatFloat32LE
// bytes without conversion, which assumes little-endian byte order.
var _ = "Intuition Chip8 requires a little-endian architecture" + 1
