package main

import (
	"log"
	"net"
	"strings"

	"github.com/horgh/irc"
)

// LocalClient is the connection-layer wrapper shared by every directly
// attached socket, before and after it registers as a user or a peer
// server. Exactly one reader goroutine and one writer goroutine exist per
// LocalClient; both only ever talk to the dispatcher through Daemon.events
// or WriteChan, never touching a registry directly.
type LocalClient struct {
	ID     uint64
	Conn   Conn
	Daemon *Daemon

	WriteChan chan irc.Message

	// User and Server are set once this connection is promoted past
	// registration. At most one of them is non-nil at any time.
	User   *LocalUser
	Server *LocalServer

	sendQueueExceeded bool
}

func newLocalClient(id uint64, conn net.Conn, d *Daemon) *LocalClient {
	return &LocalClient{
		ID:        id,
		Conn:      NewConn(conn, d.Config.DeadTime),
		Daemon:    d,
		WriteChan: make(chan irc.Message, 1024),
	}
}

// readLoop parses lines off the wire and hands each one to the dispatcher.
// It exits (and reports the connection as gone) on the first read error,
// including an idle timeout.
func (c *LocalClient) readLoop() {
	for {
		line, err := c.Conn.Read()
		if err != nil {
			c.Daemon.events <- event{kind: eventClientGone, client: c, err: err}
			return
		}

		if strings.TrimRight(line, "\r\n") == "" {
			continue
		}

		m, err := irc.ParseMessage(line)
		if err != nil {
			log.Printf("client %d: unparseable line: %s", c.ID, err)
			continue
		}

		c.Daemon.events <- event{kind: eventClientMessage, client: c, msg: m}
	}
}

// writeLoop drains WriteChan to the socket until the dispatcher closes it
// (which it does once it has processed this client's eventClientGone).
func (c *LocalClient) writeLoop() {
	for m := range c.WriteChan {
		if err := c.Conn.WriteMessage(m); err != nil {
			_ = c.Conn.Close()
			return
		}
	}
	_ = c.Conn.Close()
}

// maybeQueueMessage is the non-blocking send every routing path uses: if
// the client's writer can't keep up and its buffer is full, we judge it a
// dead/slow peer and tear the connection down rather than let one slow
// reader stall the single dispatcher goroutine.
func (c *LocalClient) maybeQueueMessage(m irc.Message) {
	if c.sendQueueExceeded {
		return
	}
	select {
	case c.WriteChan <- m:
	default:
		c.sendQueueExceeded = true
		log.Printf("client %d: write queue full, dropping connection", c.ID)
		_ = c.Conn.Close()
	}
}

// handleMessage is the dispatcher-goroutine entry point for every line this
// client sends, at every registration stage. msg is always an irc.Message;
// it arrives as interface{} because that's the shape of the generic event
// envelope.
func (c *LocalClient) handleMessage(msg interface{}) {
	m, ok := msg.(irc.Message)
	if !ok {
		return
	}

	if c.User != nil {
		c.User.handle(m)
		return
	}
	if c.Server != nil {
		c.Server.handle(m)
		return
	}

	c.handlePreRegistration(m)
}

// handlePreRegistration dispatches commands available before registration
// completes: PASS, NICK, USER, SERVER, PING, CAP, QUIT. Anything else is
// rejected with ERR_NOTREGISTERED, matching the session state machine's
// requirement that only these verbs are meaningful pre-registration.
func (c *LocalClient) handlePreRegistration(m irc.Message) {
	sess := c.Daemon.Sessions.GetOrCreate(c.ID)

	handler, ok := preRegCommands[strings.ToUpper(m.Command)]
	if !ok {
		c.sendNumeric(ErrNotRegisteredNum, "*", "You have not registered")
		return
	}
	handler(c.Daemon, c, sess, m)
}

// sendNumeric writes a numeric reply framed the way every handler in this
// file needs it: ":server CODE target text".
func (c *LocalClient) sendNumeric(code, target, text string) {
	c.maybeQueueMessage(irc.Message{
		Prefix:  c.Daemon.Config.ServerName,
		Command: code,
		Params:  []string{target, text},
	})
}

// quit tears down a still-registering (or already registered, via the
// caller's own cleanup) connection with an ERROR line, then lets readLoop's
// next read failure report it gone; called directly only from
// pre-registration handlers that reject a connection outright.
func (c *LocalClient) quit(reason string) {
	c.maybeQueueMessage(irc.Message{Command: "ERROR", Params: []string{reason}})
	_ = c.Conn.Close()
}
