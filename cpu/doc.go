// Package cpu implements the instruction processor of a 2200 series system.
//
// A Processor executes 36-bit instructions in extended and basic mode. It
// holds a 128 word general register set, 32 base registers describing the
// banks it may address, and the designator register that selects its modes
// and records arithmetic conditions. Storage references are checked against
// the limits and access permissions of the selected bank; faults become
// machine interrupts, which are vectored through level 0 of the bank
// descriptor tables with the interrupted state saved on the return control
// stack.
//
// An initial state built by the loader starts the processor with IPL; Run
// and Tick then execute it until it stops, and StopReason reports why.
package cpu
