// Package symbolize annotates program-counter addresses in device output
// with the function, file and line they belong to.
//
// ESP32 and ESP8266 panic handlers print backtraces as raw addresses:
//
//	Backtrace:0x400d2a1c:0x3ffb5f80 0x40089f4e:0x3ffb5fa0
//
// Every token matching 0x4XXXXXXX (lowercase hex, code address space) is
// passed to the chip's cross addr2line:
//
//	xtensa-esp32-elf-addr2line -pfiaCe <binary> 0x400d2a1c
//
// and, when the output has the form "0x400d2a1c: app_main at main.c:42",
// the token is rewritten to
//
//	0x400d2a1c [app_main:main.c:42]
//
// # Failure Handling
//
// Resolution is best effort. A missing tool, a crash, or output that doesn't
// match the expected grammar leaves that single token untouched; other tokens
// on the same line are still resolved. Failures are only visible in debug
// logs.
//
// # Caching
//
// Successful lookups are cached per address. The cache is dropped whenever
// the flash image's modification time changes, so rebuilding the firmware
// during a session doesn't produce stale symbols.
package symbolize
