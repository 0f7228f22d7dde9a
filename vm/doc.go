// Package vm implements the PM/0 virtual machine.
//
// This package contains:
//   - The instruction set: nine opcodes, OPR sub-operations and SYS selectors
//   - Program construction with forward-jump backpatching (Builder)
//   - The text wire format ("op l m" per line) and a CBOR program image
//   - The Machine: one fixed-size word array holding code at the top and the
//     stack below it, with static/dynamic link activation records
//   - An execution tracer and console I/O for the two I/O syscalls
//
// Jump and call operands are code addresses, the target instruction index
// times InstructionWidth. The machine maps them onto its reversed code layout
// with PhysicalAddress; the compiler and the machine must agree on both.
package vm
