package main

import (
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// eventKind tags the variant carried by an event value read off the
// dispatcher's single input channel. Mutations of SessionTable,
// ClientRegistry, and ChannelRegistry happen inside the goroutine that
// drains this channel, with one exception: connectToPeer's dial goroutine
// creates the SessionInfo of an outbound peer connection and sets its type
// and password before that connection's reader starts. Each registry guards
// its own maps with its own mutex; there is no bigger lock around them.
type eventKind int

const (
	eventNewClient eventKind = iota
	eventClientMessage
	eventClientGone
)

type event struct {
	kind   eventKind
	client *LocalClient
	msg    interface{} // irc.Message when kind == eventClientMessage
	err    error        // set when kind == eventClientGone
}

// Daemon is the single node: the registries, the listener, and the one
// dispatcher goroutine that owns them. Everything else (reader/writer
// goroutines per connection) only ever talks to the dispatcher by sending
// on its event channel or by receiving on a LocalClient's write channel.
type Daemon struct {
	Config *Config
	ACL    *ACLAuthority

	Sessions *SessionTable
	Clients  *ClientRegistry
	Channels *ChannelRegistry

	listener net.Listener

	events   chan event
	shutdown chan struct{}
	wg       sync.WaitGroup

	nextClientID uint64

	startTime time.Time
}

// NewDaemon builds a Daemon ready to Run. serverName becomes the reserved
// nickname in the client registry (no user or peer may claim it).
func NewDaemon(cfg *Config, acl *ACLAuthority, serverName string) *Daemon {
	return &Daemon{
		Config:   cfg,
		ACL:      acl,
		Sessions: NewSessionTable(),
		Clients:  NewClientRegistry(serverName),
		Channels: NewChannelRegistry(),
		events:    make(chan event, 64),
		shutdown:  make(chan struct{}),
		startTime: time.Now(),
	}
}

// newClientID returns a small unique integer for a fresh connection. It is
// called from the accept loop goroutine and from connectToPeer's dial
// goroutines; the atomic add keeps the IDs unique across them.
func (d *Daemon) newClientID() uint64 {
	return atomic.AddUint64(&d.nextClientID, 1)
}

// Listen opens the listening socket. Separated from Run so main can report a
// bind failure before forking off any goroutines.
func (d *Daemon) Listen(address, port string) error {
	ln, err := net.Listen("tcp", net.JoinHostPort(address, port))
	if err != nil {
		return fmt.Errorf("unable to listen: %s", err)
	}
	d.listener = ln
	return nil
}

// Run starts the accept loop and the dispatcher loop, blocking until
// Shutdown is called.
func (d *Daemon) Run() {
	d.wg.Add(1)
	go d.acceptLoop()

	d.dispatchLoop()
}

// Shutdown closes the listener and asks the dispatcher to stop once its
// queue drains.
func (d *Daemon) Shutdown() {
	close(d.shutdown)
	if d.listener != nil {
		_ = d.listener.Close()
	}
	d.wg.Wait()
}

func (d *Daemon) acceptLoop() {
	defer d.wg.Done()
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			select {
			case <-d.shutdown:
				return
			default:
				log.Printf("accept: %s", err)
				continue
			}
		}

		id := d.newClientID()
		c := newLocalClient(id, conn, d)
		d.events <- event{kind: eventNewClient, client: c}

		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			c.readLoop()
		}()
		go c.writeLoop()
	}
}

// dispatchLoop is the goroutine that mutates SessionTable, ClientRegistry,
// and ChannelRegistry (the one other writer is connectToPeer, which creates
// an outbound peer's session; see eventKind). It runs until the event
// channel is drained after Shutdown is called.
func (d *Daemon) dispatchLoop() {
	for {
		select {
		case ev := <-d.events:
			d.handleEvent(ev)
		case <-d.shutdown:
			d.drainAndExit()
			return
		}
	}
}

// drainAndExit processes whatever is already queued, then returns. New
// sends on d.events after shutdown starts would block forever; readLoop
// goroutines exit on their own once the listener (and their connections)
// close, so this is safe.
func (d *Daemon) drainAndExit() {
	for {
		select {
		case ev := <-d.events:
			d.handleEvent(ev)
		default:
			return
		}
	}
}

// handleEvent processes one event. It recovers from any panic a handler
// raises: a single malformed connection must never take the whole daemon
// down with it, so we log and move on to the next event instead.
func (d *Daemon) handleEvent(ev event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("recovered from panic handling event (kind=%d, client=%v): %v", ev.kind, clientID(ev.client), r)
		}
	}()

	switch ev.kind {
	case eventNewClient:
		d.Sessions.GetOrCreate(ev.client.ID)
		log.Printf("new connection %d from %s", ev.client.ID, ev.client.Conn.RemoteAddr())
	case eventClientMessage:
		ev.client.handleMessage(ev.msg)
	case eventClientGone:
		d.clientGone(ev.client, ev.err)
	}
}

// clientID safely reports a client's ID for logging even if ev.client is
// nil, which should never happen but isn't worth a second panic to find out.
func clientID(c *LocalClient) interface{} {
	if c == nil {
		return nil
	}
	return c.ID
}

// clientGone runs the full disconnect path for a connection, regardless of
// which registration state it reached: session cleanup, then (if it had
// registered) principal removal, channel parts, and peer notification.
func (d *Daemon) clientGone(c *LocalClient, err error) {
	defer close(c.WriteChan)

	_, ok := d.Sessions.Get(c.ID)
	d.Sessions.Remove(c.ID)
	if !ok {
		return
	}

	reason := "Connection reset"
	if err != nil {
		reason = err.Error()
	}

	// Dispatch on the principal that actually exists rather than on
	// sess.Type: a connection that sent USER but never completed
	// registration (missing NICK, failed ACL check, nick race) has
	// sess.Type == SessionUser with c.User still nil, and dispatching on
	// sess.Type there would panic inside quitLocalUser/squitLocalServer.
	switch {
	case c.User != nil:
		d.quitLocalUser(c.User, reason)
	case c.Server != nil:
		d.squitLocalServer(c.Server, reason)
	}
}
