package main

import (
	"testing"

	"github.com/horgh/irc"
)

// newTestClient builds a LocalClient with just enough state for the routing
// plane to queue messages to it; it never touches the underlying Conn
// because these tests never fill WriteChan.
func newTestClient(id uint64) *LocalClient {
	return &LocalClient{ID: id, WriteChan: make(chan irc.Message, 16)}
}

func drain(t *testing.T, c *LocalClient) []irc.Message {
	t.Helper()
	var out []irc.Message
	for {
		select {
		case m := <-c.WriteChan:
			out = append(out, m)
		default:
			return out
		}
	}
}

func newTestDaemon() (*Daemon, *Config) {
	cfg := defaultConfig()
	cfg.ServerName = "irc.example.org"
	d := &Daemon{
		Config:   cfg,
		Sessions: NewSessionTable(),
		Clients:  NewClientRegistry(cfg.ServerName),
		Channels: NewChannelRegistry(),
	}
	return d, cfg
}

func TestForwardToUserLocal(t *testing.T) {
	d, _ := newTestDaemon()
	aliceClient := newTestClient(1)
	alice := &LocalUser{client: aliceClient, nick: "alice"}
	d.Clients.AddLocal(alice)

	msg := irc.Message{Prefix: "bob", Command: "PRIVMSG", Params: []string{"alice", "hi"}}
	if err := d.forwardToUser("alice", msg); err != nil {
		t.Fatalf("forwardToUser: %v", err)
	}

	got := drain(t, aliceClient)
	if len(got) != 1 || got[0].Params[1] != "hi" {
		t.Fatalf("expected alice to receive the message, got %v", got)
	}
}

func TestForwardToUserExternalGoesToNextHopSocket(t *testing.T) {
	d, _ := newTestDaemon()
	peerClient := newTestClient(2)
	d.Clients.AddServer("peer1", 1, &LocalServer{client: peerClient, name: "peer1"})
	d.Clients.AddExternal("bob", 1, "peer1")

	msg := irc.Message{Prefix: "alice", Command: "PRIVMSG", Params: []string{"bob", "hi"}}
	if err := d.forwardToUser("bob", msg); err != nil {
		t.Fatalf("forwardToUser: %v", err)
	}

	got := drain(t, peerClient)
	if len(got) != 1 {
		t.Fatalf("expected peer1's socket to carry exactly one message, got %v", got)
	}
}

func TestForwardToUserNoSuchNick(t *testing.T) {
	d, _ := newTestDaemon()
	err := d.forwardToUser("nobody", irc.Message{Command: "PRIVMSG"})
	if kindOf(err) != ErrNoSuchNick {
		t.Fatalf("expected ErrNoSuchNick, got %v", err)
	}
}

func TestSendToChannelExcludesSenderAndDedupsByPeer(t *testing.T) {
	d, _ := newTestDaemon()

	aliceClient := newTestClient(1)
	d.Clients.AddLocal(&LocalUser{client: aliceClient, nick: "alice"})

	peerClient := newTestClient(2)
	d.Clients.AddServer("peer1", 1, &LocalServer{client: peerClient, name: "peer1"})
	// bob and carol are both reached through peer1: a broadcast must write to
	// peerClient's socket exactly once, not twice.
	d.Clients.AddExternal("bob", 1, "peer1")
	d.Clients.AddExternal("carol", 1, "peer1")

	channel, err := d.Channels.Join("#hack", "alice", "")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	d.Channels.Join("#hack", "bob", "")
	d.Channels.Join("#hack", "carol", "")

	msg := irc.Message{Prefix: "alice!alice@host", Command: "PRIVMSG", Params: []string{"#hack", "hi"}}
	if err := d.sendToChannel(channel, "alice", msg); err != nil {
		t.Fatalf("sendToChannel: %v", err)
	}

	if got := drain(t, aliceClient); len(got) != 0 {
		t.Fatalf("sender alice should not receive her own broadcast, got %v", got)
	}
	if got := drain(t, peerClient); len(got) != 1 {
		t.Fatalf("expected exactly one write to peer1's socket despite two members there, got %v", got)
	}
}

func TestBroadcastServerEventExcludesOrigin(t *testing.T) {
	d, _ := newTestDaemon()

	originClient := newTestClient(1)
	otherClient := newTestClient(2)
	d.Clients.AddServer("origin", 1, &LocalServer{client: originClient, name: "origin"})
	d.Clients.AddServer("other", 1, &LocalServer{client: otherClient, name: "other"})

	msg := irc.Message{Command: "NICK", Params: []string{"dave", "2"}}
	d.broadcastServerEvent(msg, originClient)

	if got := drain(t, originClient); len(got) != 0 {
		t.Fatalf("origin peer should not receive its own event back, got %v", got)
	}
	if got := drain(t, otherClient); len(got) != 1 {
		t.Fatalf("expected the other peer to receive exactly one event, got %v", got)
	}
}
