// Package compliance derives the compliance-officer dashboard from an
// in-memory snapshot of an institution's roster, deals and scores.
//
// Everything here is a pure function of its arguments. Callers fetch the
// snapshot, pick the clock and handle I/O failures before calling in.
package compliance
