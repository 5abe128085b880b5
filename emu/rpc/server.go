package rpc

import (
	"errors"
	"io"
	"net"
	"net/http"
	"net/rpc"
	"strconv"

	"corehost/emu"
)

// Emu is the set of emulator controls served.
type Emu interface {
	SetPause(pause bool)
	SetFastForward(ff bool)
	Reset() error
	Stop()

	SaveSlot(slot int) error
	LoadSlot(slot int) error
	Status() (emu.Status, error)
}

type emuProxy struct {
	emu Emu
}

func (ep *emuProxy) SetPause(pause bool, _ *struct{}) error    { ep.emu.SetPause(pause); return nil }
func (ep *emuProxy) SetFastForward(ff bool, _ *struct{}) error { ep.emu.SetFastForward(ff); return nil }
func (ep *emuProxy) Reset(_, _ *struct{}) error                { return ep.emu.Reset() }
func (ep *emuProxy) Stop(_ *struct{}, _ *struct{}) error       { ep.emu.Stop(); return nil }
func (ep *emuProxy) SaveSlot(slot int, _ *struct{}) error      { return ep.emu.SaveSlot(slot) }
func (ep *emuProxy) LoadSlot(slot int, _ *struct{}) error      { return ep.emu.LoadSlot(slot) }
func (ep *emuProxy) Status(_ *struct{}, reply *emu.Status) error {
	st, err := ep.emu.Status()
	*reply = st
	return err
}

func (ep *emuProxy) IsReady(_ *struct{}, reply *bool) error {
	*reply = true
	return nil
}

type Server struct {
	io.Closer
}

// NewServer serves the controls of emu over HTTP on the given port.
func NewServer(port int, emu Emu) (*Server, error) {
	srv := rpc.NewServer()
	if err := srv.RegisterName("emu", &emuProxy{emu: emu}); err != nil {
		panic("failed to register RPC server: " + err.Error())
	}
	l, err := net.Listen("tcp", ":"+strconv.Itoa(port))
	if err != nil {
		return nil, err
	}

	modRPC.InfoZ("rpc server listening").Int("port", port).End()
	go func() {
		err := http.Serve(l, srv)
		if err != nil && !errors.Is(err, net.ErrClosed) {
			modRPC.WarnZ("rpc server stopped").Error("err", err).End()
		}
	}()
	return &Server{Closer: l}, nil
}
