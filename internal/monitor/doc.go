// Package monitor runs an interactive serial monitor session.
//
// A session has two concurrent activities sharing one device:
//
//   - the read loop, which turns serial chunks into lines with an Assembler,
//     annotates code addresses and prints the result
//   - the key listener, which resets the chip on CTRL+R and ends the session
//     on CTRL+C
//
// Every device access happens under the session lock. The read loop holds it
// for one read at a time, so a reset never observes a half-finished read and
// waits at most one read timeout.
//
// A partial line is held until its newline arrives. If the device goes quiet
// for UnfinishedLineTimeout after the fragment was last extended, the
// fragment is printed on its own.
package monitor
