package main

import (
	"log"

	"github.com/horgh/irc"
)

// Routing resolves a destination (user nickname or channel) to a set of
// outgoing sockets and writes the framed line to each exactly once. The
// dedup key is *LocalClient identity (pointer equality), which is the one
// thing every kind of outbound peer link (a directly attached user or a
// directly attached server) shares, matching the "at most one write per
// distinct peer socket per broadcast" invariant.
//
// All three operations here assume they run on the single dispatcher
// goroutine that owns the registries; they read Channel membership directly
// rather than going back through ChannelRegistry's lock.

// forwardToUser delivers m to receiverNick, whether that's a user registered
// on this node or one reached through a peer.
func (d *Daemon) forwardToUser(receiverNick string, m irc.Message) error {
	p, ok := d.Clients.GetUser(receiverNick)
	if !ok {
		return newRegistryError(ErrNoSuchNick, receiverNick)
	}

	switch p.Kind {
	case PrincipalLocalUser:
		p.LocalUser.client.maybeQueueMessage(m)
		return nil
	case PrincipalExternalUser:
		peer, ok := d.Clients.GetServer(p.Location)
		if !ok || peer.LocalServer == nil {
			log.Printf("routing: external user %s claims location %s with no live peer socket", receiverNick, p.Location)
			return newRegistryError(ErrInternal, receiverNick)
		}
		peer.LocalServer.client.maybeQueueMessage(m)
		return nil
	default:
		return newRegistryError(ErrInternal, receiverNick)
	}
}

// clientOf resolves the *LocalClient socket that carries traffic to or from
// a given principal: its own socket for a local user, or the next-hop
// peer's socket for an external user.
func (d *Daemon) clientOf(p *Principal) (*LocalClient, bool) {
	switch p.Kind {
	case PrincipalLocalUser:
		return p.LocalUser.client, true
	case PrincipalExternalUser:
		peer, ok := d.Clients.GetServer(p.Location)
		if !ok || peer.LocalServer == nil {
			return nil, false
		}
		return peer.LocalServer.client, true
	default:
		return nil, false
	}
}

// sendToChannel delivers m, whose prefix identifies senderNick as its
// source, to every member of channel except whichever socket senderNick's
// own message arrived on (or would arrive on, for a local sender). Each
// distinct outbound socket is written to at most once.
func (d *Daemon) sendToChannel(channel *Channel, senderNick string, m irc.Message) error {
	sender, ok := d.Clients.GetUser(senderNick)
	if !ok {
		return newRegistryError(ErrInternal, senderNick)
	}
	senderClient, ok := d.clientOf(sender)
	if !ok {
		return newRegistryError(ErrInternal, senderNick)
	}

	seen := map[*LocalClient]struct{}{}
	for nick := range channel.Users {
		recv, ok := d.Clients.GetUser(nick)
		if !ok {
			log.Printf("routing: channel %s lists unknown member %s", channel.Name, nick)
			continue
		}
		c, ok := d.clientOf(recv)
		if !ok {
			log.Printf("routing: channel member %s has no resolvable socket", nick)
			continue
		}
		if c == senderClient {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		c.maybeQueueMessage(m)
	}
	return nil
}

// broadcastServerEvent sends m to every directly connected peer except
// originPeer (nil if this node itself originated the event). Callers that
// carry a hop count in m must increment it before calling this, since every
// direct peer is one hop further from the event's subject than this node
// is.
func (d *Daemon) broadcastServerEvent(m irc.Message, originPeer *LocalClient) {
	for _, peer := range d.Clients.ListDirectServers() {
		if peer.LocalServer.client == originPeer {
			continue
		}
		peer.LocalServer.client.maybeQueueMessage(m)
	}
}
