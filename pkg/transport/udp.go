package transport

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/marmos91/linkfs/internal/logger"
)

// errNoPeer is returned by a UDP link written to before any datagram arrived.
var errNoPeer = errors.New("transport: no udp peer yet")

// UDPConn adapts a listening UDP socket to a byte stream. Datagrams are
// concatenated on read; writes go to the last peer heard from.
type UDPConn struct {
	conn *net.UDPConn
	name string

	mu   sync.Mutex
	peer *net.UDPAddr
}

// ListenUDP opens a UDP link listening on address:port.
func ListenUDP(address string, port int, name string) (*UDPConn, error) {
	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(address, fmt.Sprint(port)))
	if err != nil {
		return nil, fmt.Errorf("resolve UDP %s:%d: %w", address, port, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen UDP %s: %w", addr, err)
	}
	logger.Info("UDP link listening", logger.KeyLink, name, logger.KeyAddress, conn.LocalAddr().String())
	return &UDPConn{conn: conn, name: name}, nil
}

func (u *UDPConn) Read(b []byte) (int, error) {
	n, from, err := u.conn.ReadFromUDP(b)
	if err != nil {
		return n, err
	}

	u.mu.Lock()
	if u.peer == nil || !u.peer.IP.Equal(from.IP) || u.peer.Port != from.Port {
		logger.Info("UDP peer changed", logger.KeyLink, u.name, logger.KeyPeer, from.String())
		u.peer = from
	}
	u.mu.Unlock()
	return n, nil
}

func (u *UDPConn) Write(b []byte) (int, error) {
	u.mu.Lock()
	peer := u.peer
	u.mu.Unlock()
	if peer == nil {
		return 0, errNoPeer
	}
	return u.conn.WriteToUDP(b, peer)
}

func (u *UDPConn) Close() error {
	return u.conn.Close()
}

// LocalAddr returns the bound address.
func (u *UDPConn) LocalAddr() net.Addr {
	return u.conn.LocalAddr()
}
