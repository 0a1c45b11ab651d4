package main

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/horgh/irc"
)

// Conn wraps a socket with the daemon's read/write discipline: every read
// and write carries a fresh deadline of deadTime, so a peer that goes
// silent (rather than closing cleanly) is eventually reaped by readLoop's
// next Read() returning a timeout error, instead of a separate liveness
// ticker mutating the registries off the dispatcher goroutine.
type Conn struct {
	conn net.Conn
	rw   *bufio.ReadWriter

	// deadTime is reapplied before every Read and Write. It is the same
	// Config.DeadTime the daemon uses to bound an outbound CONNECT dial, so
	// one setting governs both "how long we wait for a peer to speak" and
	// "how long we wait for a peer to answer".
	deadTime time.Duration

	// IP is the peer's address, resolved once at connection time. ACL
	// matching (ValidUserPassword, ValidAcceptPassword) keys off this rather
	// than re-parsing RemoteAddr().String() on every registration attempt.
	IP net.IP
}

// NewConn wraps an already-accepted or already-dialed net.Conn.
func NewConn(conn net.Conn, deadTime time.Duration) Conn {
	tcpAddr, err := net.ResolveTCPAddr("tcp", conn.RemoteAddr().String())
	if err != nil {
		// A connection net.Conn just handed us always has a resolvable
		// TCPAddr-shaped RemoteAddr; a failure here means the standard
		// library's own invariant broke.
		log.Fatalf("unable to resolve remote address: %s", err)
	}

	return Conn{
		conn:     conn,
		rw:       bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn)),
		deadTime: deadTime,
		IP:       tcpAddr.IP,
	}
}

// Close closes the underlying connection.
func (c Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the peer's network address.
func (c Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Read reads one line, resetting the idle deadline first so a steady
// stream of short lines never trips it, only genuine silence does.
func (c Conn) Read() (string, error) {
	if err := c.conn.SetDeadline(time.Now().Add(c.deadTime)); err != nil {
		return "", fmt.Errorf("setting read deadline: %s", err)
	}

	line, err := c.rw.ReadString('\n')
	if err != nil {
		return "", err
	}

	return line, nil
}

// write sends s, flushing immediately: the daemon never batches lines, so
// every write either lands on the wire now or reports an error now.
func (c Conn) write(s string) error {
	if err := c.conn.SetDeadline(time.Now().Add(c.deadTime)); err != nil {
		return fmt.Errorf("setting write deadline: %s", err)
	}

	n, err := c.rw.WriteString(s)
	if err != nil {
		return err
	}
	if n != len(s) {
		return fmt.Errorf("short write: wrote %d of %d bytes", n, len(s))
	}

	return c.rw.Flush()
}

// WriteMessage encodes m and writes it to the connection.
func (c Conn) WriteMessage(m irc.Message) error {
	buf, err := m.Encode()
	if err != nil {
		return fmt.Errorf("encoding message %s: %s", m.Command, err)
	}

	return c.write(buf)
}
