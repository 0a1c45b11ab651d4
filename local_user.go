package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/horgh/irc"
)

// LocalUser is a LocalClient that has completed registration as a regular
// user. Routing.go reaches the underlying socket through the client field;
// everything else here is command handling.
type LocalUser struct {
	client *LocalClient

	nick     string
	username string
	realname string
	hostname string

	isOper bool

	lastActivity time.Time
	lastMessage  time.Time
}

// Nick returns the user's current nickname.
func (u *LocalUser) Nick() string { return u.nick }

// Client returns the underlying connection.
func (u *LocalUser) Client() *LocalClient { return u.client }

func (u *LocalUser) handle(m irc.Message) {
	u.lastActivity = time.Now()

	handler, ok := userCommands[strings.ToUpper(m.Command)]
	if !ok {
		u.numeric(ErrUnknownCommandNum, m.Command, "Unknown command")
		return
	}
	handler(u.client.Daemon, u, m)
}

// numeric sends a numeric reply, prefixing the user's own nick as the
// target the way every server reply does.
func (u *LocalUser) numeric(code, param, text string) {
	u.client.maybeQueueMessage(irc.Message{
		Prefix:  u.client.Daemon.Config.ServerName,
		Command: code,
		Params:  []string{u.nick, param, text},
	})
}

func (u *LocalUser) numericNoParam(code, text string) {
	u.client.maybeQueueMessage(irc.Message{
		Prefix:  u.client.Daemon.Config.ServerName,
		Command: code,
		Params:  []string{u.nick, text},
	})
}

// sourceString is this user's nick!user@host prefix, used as the Prefix on
// messages routed on this user's behalf.
func (u *LocalUser) sourceString() string {
	return fmt.Sprintf("%s!%s@%s", u.nick, u.username, u.hostname)
}

// quitLocalUser runs the full disconnect path for a registered local user:
// tell every channel it shares with someone (each such peer told exactly
// once), drop it from the channel registry and client registry, and announce
// the QUIT to every directly linked peer. Its write channel is closed by the
// caller, clientGone.
func (d *Daemon) quitLocalUser(u *LocalUser, reason string) {
	quitMsg := irc.Message{Prefix: u.sourceString(), Command: "QUIT", Params: []string{reason}}

	channels := d.Channels.QuitNick(u.nick)
	told := map[*LocalClient]struct{}{}
	for _, chName := range channels {
		for _, nick := range d.Channels.MembersOf(chName) {
			p, ok := d.Clients.GetUser(nick)
			if !ok {
				continue
			}
			c, ok := d.clientOf(p)
			if !ok {
				continue
			}
			if c == u.client {
				continue
			}
			if _, dup := told[c]; dup {
				continue
			}
			told[c] = struct{}{}
			c.maybeQueueMessage(quitMsg)
		}
	}

	d.Clients.Remove(u.nick)
	d.broadcastServerEvent(irc.Message{
		Prefix:  d.Config.ServerName,
		Command: "QUIT",
		Params:  []string{u.nick, reason},
	}, nil)
}

// userNickCommand handles NICK once registered: RFC 2812's rename path,
// distinct from the pre-registration NICK handler in dispatch.go.
func userNickCommand(d *Daemon, u *LocalUser, m irc.Message) {
	if len(m.Params) == 0 {
		u.numericNoParam(ErrNoNicknameGivenNum, "No nickname given")
		return
	}
	newNick := m.Params[0]
	if !isValidNick(newNick) {
		u.numeric(ErrNicknameInUseNum, newNick, "Erroneous nickname")
		return
	}
	if !d.Clients.Available(newNick) {
		u.numeric(ErrNicknameInUseNum, newNick, "Nickname is already in use")
		return
	}

	old := u.sourceString()
	renameMsg := irc.Message{Prefix: old, Command: "NICK", Params: []string{newNick}}

	told := map[*LocalClient]struct{}{u.client: {}}
	for _, nick := range allPeerNicksSharingChannelWith(d, u.nick) {
		p, ok := d.Clients.GetUser(nick)
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
		c.maybeQueueMessage(renameMsg)
	}
	u.client.maybeQueueMessage(renameMsg)

	d.Clients.Remove(u.nick)
	u.nick = newNick
	_ = d.Clients.AddLocal(u)

	d.broadcastServerEvent(irc.Message{Prefix: old, Command: "NICK", Params: []string{newNick}}, nil)
}

// allPeerNicksSharingChannelWith collects, de-duplicated, every nick that
// shares at least one channel with nick.
func allPeerNicksSharingChannelWith(d *Daemon, nick string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, chName := range channelsContaining(d, nick) {
		for _, member := range d.Channels.MembersOf(chName) {
			if member == nick {
				continue
			}
			if _, dup := seen[member]; dup {
				continue
			}
			seen[member] = struct{}{}
			out = append(out, member)
		}
	}
	return out
}

// channelsContaining is a small helper over ChannelRegistry for the case
// where we only have a nick, not a *Channel, in hand.
func channelsContaining(d *Daemon, nick string) []string {
	var out []string
	for _, name := range d.Channels.AllNames() {
		if ch, ok := d.Channels.Get(name); ok && ch.IsMember(nick) {
			out = append(out, ch.Name)
		}
	}
	return out
}

func userJoinCommand(d *Daemon, u *LocalUser, m irc.Message) {
	if len(m.Params) == 0 {
		u.numericNoParam(ErrNeedMoreParamsNum, "Not enough parameters")
		return
	}
	name := canonicalizeChannel(m.Params[0])
	if !isValidChannel(name) {
		u.numeric(ErrNoSuchChannelNum, name, "Invalid channel name")
		return
	}
	key := ""
	if len(m.Params) > 1 {
		key = m.Params[1]
	}

	channel, err := d.Channels.Join(name, u.nick, key)
	if err != nil {
		code, text := errKindToNumeric(kindOf(err))
		u.numeric(code, name, text)
		return
	}

	joinMsg := irc.Message{Prefix: u.sourceString(), Command: "JOIN", Params: []string{channel.Name}}
	_ = d.sendToChannel(channel, u.nick, joinMsg)
	u.client.maybeQueueMessage(joinMsg)

	topic := channel.Topic
	if topic == "" {
		topic = "No topic yet"
	}
	u.numeric(ReplyTopic, channel.Name, topic)

	names := channel.Names()
	u.client.maybeQueueMessage(irc.Message{
		Prefix:  d.Config.ServerName,
		Command: ReplyNamReply,
		Params:  []string{u.nick, replyNamesSymbol, channel.Name, strings.Join(names, " ")},
	})
	u.numeric(ReplyEndOfNames, channel.Name, "End of NAMES list")
}

func userPartCommand(d *Daemon, u *LocalUser, m irc.Message) {
	if len(m.Params) == 0 {
		u.numericNoParam(ErrNeedMoreParamsNum, "Not enough parameters")
		return
	}
	name := canonicalizeChannel(m.Params[0])
	reason := ""
	if len(m.Params) > 1 {
		reason = m.Params[1]
	}

	channel, ok := d.Channels.Get(name)
	if !ok {
		u.numeric(ErrNoSuchChannelNum, name, "No such channel")
		return
	}

	params := []string{channel.Name}
	if reason != "" {
		params = append(params, reason)
	}
	partMsg := irc.Message{Prefix: u.sourceString(), Command: "PART", Params: params}
	_ = d.sendToChannel(channel, u.nick, partMsg)
	u.client.maybeQueueMessage(partMsg)

	if _, err := d.Channels.Part(name, u.nick); err != nil {
		code, text := errKindToNumeric(kindOf(err))
		u.numeric(code, name, text)
	}
}

func userKickCommand(d *Daemon, u *LocalUser, m irc.Message) {
	if len(m.Params) < 2 {
		u.numericNoParam(ErrNeedMoreParamsNum, "Not enough parameters")
		return
	}
	name := canonicalizeChannel(m.Params[0])
	target := m.Params[1]
	reason := u.nick
	if len(m.Params) > 2 {
		reason = m.Params[2]
	}

	channel, ok := d.Channels.Get(name)
	if !ok {
		u.numeric(ErrNoSuchChannelNum, name, "No such channel")
		return
	}

	kickMsg := irc.Message{Prefix: u.sourceString(), Command: "KICK", Params: []string{channel.Name, target, reason}}
	if _, err := d.Channels.Kick(name, u.nick, target); err != nil {
		code, text := errKindToNumeric(kindOf(err))
		u.numeric(code, name, text)
		return
	}

	_ = d.sendToChannel(channel, u.nick, kickMsg)
	u.client.maybeQueueMessage(kickMsg)
	if tp, ok := d.Clients.GetUser(target); ok {
		if tc, ok := d.clientOf(tp); ok {
			tc.maybeQueueMessage(kickMsg)
		}
	}
}

func userTopicCommand(d *Daemon, u *LocalUser, m irc.Message) {
	if len(m.Params) == 0 {
		u.numericNoParam(ErrNeedMoreParamsNum, "Not enough parameters")
		return
	}
	name := canonicalizeChannel(m.Params[0])
	channel, ok := d.Channels.Get(name)
	if !ok {
		u.numeric(ErrNoSuchChannelNum, name, "No such channel")
		return
	}
	if !channel.IsMember(u.nick) {
		u.numeric(ErrNotOnChannelNum, name, "You're not on that channel")
		return
	}

	if len(m.Params) < 2 {
		if channel.Topic == "" {
			u.numeric(ReplyNoTopic, channel.Name, "No topic is set")
			return
		}
		u.numeric(ReplyTopic, channel.Name, channel.Topic)
		return
	}

	channel.Topic = m.Params[1]
	topicMsg := irc.Message{Prefix: u.sourceString(), Command: "TOPIC", Params: []string{channel.Name, channel.Topic}}
	_ = d.sendToChannel(channel, u.nick, topicMsg)
	u.client.maybeQueueMessage(topicMsg)
}

func userNamesCommand(d *Daemon, u *LocalUser, m irc.Message) {
	if len(m.Params) == 0 {
		u.numericNoParam(ErrNeedMoreParamsNum, "Not enough parameters")
		return
	}
	name := canonicalizeChannel(m.Params[0])
	channel, ok := d.Channels.Get(name)
	if !ok {
		u.numeric(ReplyEndOfNames, name, "End of NAMES list")
		return
	}
	u.client.maybeQueueMessage(irc.Message{
		Prefix:  d.Config.ServerName,
		Command: ReplyNamReply,
		Params:  []string{u.nick, replyNamesSymbol, channel.Name, strings.Join(channel.Names(), " ")},
	})
	u.numeric(ReplyEndOfNames, channel.Name, "End of NAMES list")
}

// userPrivmsgCommand handles PRIVMSG and NOTICE identically, per RFC 2812:
// the only difference is that NOTICE must never generate an error reply.
func userPrivmsgCommand(d *Daemon, u *LocalUser, m irc.Message) {
	isNotice := strings.EqualFold(m.Command, "NOTICE")

	if len(m.Params) == 0 {
		if !isNotice {
			u.numericNoParam(ErrNoRecipientNum, "No recipient given")
		}
		return
	}
	if len(m.Params) == 1 {
		if !isNotice {
			u.numericNoParam(ErrNoTextToSendNum, "No text to send")
		}
		return
	}

	target := m.Params[0]
	text := m.Params[1]
	u.lastMessage = time.Now()
	out := irc.Message{Prefix: u.sourceString(), Command: m.Command, Params: []string{target, text}}

	if target[0] == '#' || target[0] == '&' {
		channel, ok := d.Channels.Get(canonicalizeChannel(target))
		if !ok {
			if !isNotice {
				u.numeric(ErrNoSuchChannelNum, target, "No such channel")
			}
			return
		}
		if !channel.IsMember(u.nick) {
			if !isNotice {
				u.numeric(ErrNoSuchChannelNum, target, "Cannot send to channel")
			}
			return
		}
		_ = d.sendToChannel(channel, u.nick, out)
		return
	}

	if err := d.forwardToUser(target, out); err != nil && !isNotice {
		code, text := errKindToNumeric(kindOf(err))
		u.numeric(code, target, text)
	}
}

func userPingCommand(d *Daemon, u *LocalUser, m irc.Message) {
	origin := d.Config.ServerName
	if len(m.Params) > 0 {
		origin = m.Params[0]
	}
	u.client.maybeQueueMessage(irc.Message{Prefix: d.Config.ServerName, Command: "PONG", Params: []string{d.Config.ServerName, origin}})
}

func userPongCommand(d *Daemon, u *LocalUser, m irc.Message) {}

func userOperCommand(d *Daemon, u *LocalUser, m irc.Message) {
	if len(m.Params) < 2 {
		u.numericNoParam(ErrNeedMoreParamsNum, "Not enough parameters")
		return
	}
	if !d.ACL.ValidOperator(m.Params[0], m.Params[1]) {
		u.numericNoParam(ErrPasswdMismatchNum, "Password incorrect")
		return
	}
	u.isOper = true
	d.Clients.AddOperPrivileges(u.nick)
	u.numericNoParam(ReplyYoureOper, "You are now an IRC operator")
}

func userQuitCommand(d *Daemon, u *LocalUser, m irc.Message) {
	reason := "Quit"
	if len(m.Params) > 0 {
		reason = m.Params[0]
	}
	u.client.quit(reason)
}

func userConnectCommand(d *Daemon, u *LocalUser, m irc.Message) {
	if !u.isOper {
		u.numericNoParam(ErrNoPrivilegesNum, "Permission Denied- You're not an IRC operator")
		return
	}
	if len(m.Params) < 1 {
		u.numericNoParam(ErrNeedMoreParamsNum, "Not enough parameters")
		return
	}
	d.connectToPeer(m.Params[0], u)
}
