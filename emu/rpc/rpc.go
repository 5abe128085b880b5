// Package rpc exposes the emulator controls over net/rpc, for scripts and
// the ctl command.
package rpc

import (
	"net"

	"corehost/emu/log"
)

var modRPC = log.NewModule("rpc")

func UnusedPort() int {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		panic("pickUnusedPort failed: " + err.Error())
	}
	port := l.Addr().(*net.TCPAddr).Port
	if err := l.Close(); err != nil {
		panic("pickUnusedPort failed: " + err.Error())
	}
	return port
}
