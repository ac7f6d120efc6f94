//go:build windows

package logger

import (
	"strconv"
	"syscall"

	"golang.org/x/sys/windows"
)

func isTerminal(fd uintptr) bool {
	var mode uint32
	return windows.GetConsoleMode(windows.Handle(fd), &mode) == nil
}

func errnoName(e syscall.Errno) string {
	return strconv.Itoa(int(e))
}
