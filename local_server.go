package main

import (
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/horgh/irc"
)

// LocalServer is a LocalClient that has completed the SERVER handshake with
// a directly linked peer. There is no TS6-style SID/UID burst here: a peer
// announces each of its users with a plain NICK, carrying a hop count, the
// way the simplified federation model requires.
type LocalServer struct {
	client *LocalClient

	name string
	hops int

	lastActivity time.Time
}

func (s *LocalServer) handle(m irc.Message) {
	s.lastActivity = time.Now()

	handler, ok := serverCommands[strings.ToUpper(m.Command)]
	if !ok {
		log.Printf("peer %s: unknown command %s", s.name, m.Command)
		return
	}
	handler(s.client.Daemon, s, m)
}

// squitLocalServer runs the full disconnect path for a directly linked
// peer: every external user reached through it is QUIT to local users that
// shared a channel with it, the peer itself is forgotten, and the link
// loss is announced to every other directly connected peer.
func (d *Daemon) squitLocalServer(s *LocalServer, reason string) {
	lostNicks := d.Clients.RemoveFromServer(s.name)
	quitParams := []string{fmt.Sprintf("%s %s", d.Config.ServerName, s.name)}

	for _, nick := range lostNicks {
		told := map[*LocalClient]struct{}{}
		for _, chName := range channelsContaining(d, nick) {
			for _, member := range d.Channels.MembersOf(chName) {
				p, ok := d.Clients.GetUser(member)
				if !ok {
					continue
				}
				c, ok := d.clientOf(p)
				if !ok {
					continue
				}
				if _, dup := told[c]; dup {
					continue
				}
				told[c] = struct{}{}
				c.maybeQueueMessage(irc.Message{Prefix: nick, Command: "QUIT", Params: quitParams})
			}
			d.Channels.QuitNick(nick)
		}
	}

	d.Clients.RemoveServer(s.name)
	d.broadcastServerEvent(irc.Message{
		Prefix:  d.Config.ServerName,
		Command: "SQUIT",
		Params:  []string{s.name, reason},
	}, s.client)

	log.Printf("link to %s lost: %s", s.name, reason)
}

// connectToPeer dials a configured peer and begins the outbound side of the
// handshake: PASS, then SERVER. It runs in its own goroutine so the
// dispatcher loop is never blocked on a slow or hung dial, matching the
// pattern the teacher lineage uses for CONNECT.
func (d *Daemon) connectToPeer(name string, requester *LocalUser) {
	password, ok := d.ACL.ConnectPassword(name)
	if !ok {
		requester.numeric(ErrNoSuchServerNum, name, "No such server")
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		conn, err := net.DialTimeout("tcp", name, d.Config.DeadTime)
		if err != nil {
			log.Printf("connect to %s: %s", name, err)
			return
		}

		id := d.newClientID()
		c := newLocalClient(id, conn, d)

		c.maybeQueueMessage(irc.Message{Command: "PASS", Params: []string{password}})
		c.maybeQueueMessage(irc.Message{
			Command: "SERVER",
			Params:  []string{d.Config.ServerName, "1", d.Config.ServerInfo},
		})

		d.events <- event{kind: eventNewClient, client: c}
		sess := d.Sessions.GetOrCreate(c.ID)
		sess.Type = SessionServer
		sess.Password = password

		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			c.readLoop()
		}()
		go c.writeLoop()
	}()
}

func serverNickCommand(d *Daemon, s *LocalServer, m irc.Message) {
	// NICK <nick> <hopcount>
	if len(m.Params) < 2 {
		return
	}
	nick := m.Params[0]
	hops, err := strconv.Atoi(m.Params[1])
	if err != nil || hops < 1 {
		return
	}
	if !isValidNick(nick) {
		return
	}
	if !d.Clients.Available(nick) {
		// Nick collision across a link: drop silently rather than kill, since
		// this daemon has no TS6-style collision resolution.
		return
	}
	if err := d.Clients.AddExternal(nick, hops, s.name); err != nil {
		return
	}
	d.broadcastServerEvent(irc.Message{Command: "NICK", Params: []string{nick, strconv.Itoa(hops + 1)}}, s.client)
}

func serverCommandFromPeer(d *Daemon, s *LocalServer, m irc.Message) {
	// A second SERVER line from an already-linked peer announces a server
	// further out in the network, reachable through this peer.
	if len(m.Params) < 2 {
		return
	}
	name := m.Params[0]
	hops, err := strconv.Atoi(m.Params[1])
	if err != nil {
		return
	}
	if !d.Clients.Available(name) {
		return
	}
	_ = d.Clients.AddServer(name, hops, nil)
	params := append([]string{}, m.Params...)
	params[1] = strconv.Itoa(hops + 1)
	d.broadcastServerEvent(irc.Message{Prefix: m.Prefix, Command: m.Command, Params: params}, s.client)
}

func serverPrivmsgCommand(d *Daemon, s *LocalServer, m irc.Message) {
	if len(m.Params) < 2 {
		return
	}
	target := m.Params[0]
	out := irc.Message{Prefix: m.Prefix, Command: m.Command, Params: m.Params}

	if target[0] == '#' || target[0] == '&' {
		channel, ok := d.Channels.Get(canonicalizeChannel(target))
		if !ok {
			return
		}
		sender := m.Prefix
		if idx := strings.IndexByte(sender, '!'); idx != -1 {
			sender = sender[:idx]
		}
		_ = d.sendToChannel(channel, sender, out)
		return
	}

	_ = d.forwardToUser(target, out)
}

func serverQuitCommand(d *Daemon, s *LocalServer, m irc.Message) {
	// QUIT <nick> <message>, source nick leaving the network via this peer.
	if len(m.Params) < 1 {
		return
	}
	nick := m.Params[0]
	reason := ""
	if len(m.Params) > 1 {
		reason = m.Params[1]
	}

	told := map[*LocalClient]struct{}{}
	for _, chName := range channelsContaining(d, nick) {
		for _, member := range d.Channels.MembersOf(chName) {
			p, ok := d.Clients.GetUser(member)
			if !ok {
				continue
			}
			c, ok := d.clientOf(p)
			if !ok || c == s.client {
				continue
			}
			if _, dup := told[c]; dup {
				continue
			}
			told[c] = struct{}{}
			c.maybeQueueMessage(irc.Message{Prefix: nick, Command: "QUIT", Params: []string{reason}})
		}
	}
	d.Channels.QuitNick(nick)
	d.Clients.Remove(nick)
	d.broadcastServerEvent(m, s.client)
}

func serverSquitCommand(d *Daemon, s *LocalServer, m irc.Message) {
	if len(m.Params) < 1 {
		return
	}
	name := m.Params[0]
	reason := ""
	if len(m.Params) > 1 {
		reason = m.Params[1]
	}

	lostNicks := d.Clients.RemoveFromServer(name)
	told := map[*LocalClient]struct{}{}
	for _, nick := range lostNicks {
		for _, chName := range channelsContaining(d, nick) {
			for _, member := range d.Channels.MembersOf(chName) {
				p, ok := d.Clients.GetUser(member)
				if !ok {
					continue
				}
				c, ok := d.clientOf(p)
				if !ok {
					continue
				}
				if _, dup := told[c]; dup {
					continue
				}
				told[c] = struct{}{}
				c.maybeQueueMessage(irc.Message{Prefix: nick, Command: "QUIT", Params: []string{reason}})
			}
			d.Channels.QuitNick(nick)
		}
	}
	d.Clients.RemoveServer(name)
	d.broadcastServerEvent(m, s.client)
}

func serverPingCommand(d *Daemon, s *LocalServer, m irc.Message) {
	origin := s.name
	if len(m.Params) > 0 {
		origin = m.Params[0]
	}
	s.client.maybeQueueMessage(irc.Message{
		Prefix:  d.Config.ServerName,
		Command: "PONG",
		Params:  []string{d.Config.ServerName, origin},
	})
}

func serverPongCommand(d *Daemon, s *LocalServer, m irc.Message) {}
