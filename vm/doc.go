// Package vm implements the SOM object model and bytecode interpreter.
//
// This package contains:
//   - Runtime values (objects, arrays, symbols, strings, the numeric tower, blocks)
//   - Classes, metaclasses and memoized method lookup
//   - The 16-opcode bytecode format and its disassembler
//   - The frame stack and interpreter loop with two-slot inline caching
//   - The universe: bootstrap, globals, class path and primitive providers
//
// Source compilation lives in package compiler; a Universe is wired to it
// with UseCompiler before Initialize is called.
package vm
