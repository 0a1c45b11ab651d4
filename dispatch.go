package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/horgh/irc"
)

// Command dispatch is table-driven rather than a type hierarchy: each
// registration stage (pre-registration, registered user, linked peer) gets
// its own map from command name to handler. This mirrors the design the
// daemon was modeled on, which picks a handler by command name rather than
// by `isinstance` checks on the connection's class.

type preRegHandler func(d *Daemon, c *LocalClient, sess *SessionInfo, m irc.Message)

var preRegCommands = map[string]preRegHandler{
	"PASS":   preRegPassCommand,
	"NICK":   preRegNickCommand,
	"USER":   preRegUserCommand,
	"SERVER": preRegServerCommand,
	"PING":   preRegPingCommand,
	"CAP":    preRegCapCommand,
	"QUIT":   preRegQuitCommand,
}

type userHandler func(d *Daemon, u *LocalUser, m irc.Message)

var userCommands = map[string]userHandler{
	"PASS":    userAlreadyRegisteredCommand,
	"USER":    userAlreadyRegisteredCommand,
	"SERVER":  userAlreadyRegisteredCommand,
	"NICK":    userNickCommand,
	"JOIN":    userJoinCommand,
	"PART":    userPartCommand,
	"KICK":    userKickCommand,
	"TOPIC":   userTopicCommand,
	"NAMES":   userNamesCommand,
	"PRIVMSG": userPrivmsgCommand,
	"NOTICE":  userPrivmsgCommand,
	"PING":    userPingCommand,
	"PONG":    userPongCommand,
	"OPER":    userOperCommand,
	"QUIT":    userQuitCommand,
	"CONNECT": userConnectCommand,
}

// userAlreadyRegisteredCommand answers a registration-stage verb (PASS,
// USER, SERVER) sent again after this connection already completed
// registration, per the session state machine's ERR_ALREADYREGISTRED rule.
func userAlreadyRegisteredCommand(d *Daemon, u *LocalUser, m irc.Message) {
	u.numericNoParam(ErrAlreadyRegistredNum, "You may not reregister")
}

type serverHandler func(d *Daemon, s *LocalServer, m irc.Message)

var serverCommands = map[string]serverHandler{
	"PASS":    serverAlreadyRegisteredCommand,
	"USER":    serverAlreadyRegisteredCommand,
	"NICK":    serverNickCommand,
	"SERVER":  serverCommandFromPeer,
	"PRIVMSG": serverPrivmsgCommand,
	"NOTICE":  serverPrivmsgCommand,
	"QUIT":    serverQuitCommand,
	"SQUIT":   serverSquitCommand,
	"PING":    serverPingCommand,
	"PONG":    serverPongCommand,
}

// serverAlreadyRegisteredCommand is the peer-link equivalent of
// userAlreadyRegisteredCommand: a second PASS/USER line from an already
// linked peer is rejected the same way.
func serverAlreadyRegisteredCommand(d *Daemon, s *LocalServer, m irc.Message) {
	s.client.sendNumeric(ErrAlreadyRegistredNum, "*", "You may not reregister")
}

func preRegPassCommand(d *Daemon, c *LocalClient, sess *SessionInfo, m irc.Message) {
	if len(m.Params) == 0 {
		c.sendNumeric(ErrNeedMoreParamsNum, "*", "Not enough parameters")
		return
	}
	sess.Password = m.Params[0]
}

func preRegNickCommand(d *Daemon, c *LocalClient, sess *SessionInfo, m irc.Message) {
	if len(m.Params) == 0 {
		c.sendNumeric(ErrNoNicknameGivenNum, "*", "No nickname given")
		return
	}
	nick := m.Params[0]
	if len(nick) > d.Config.MaxNickLength {
		nick = nick[:d.Config.MaxNickLength]
	}
	if !isValidNick(nick) {
		c.sendNumeric(ErrNicknameInUseNum, nick, "Erroneous nickname")
		return
	}
	if !d.Clients.Available(nick) {
		c.sendNumeric(ErrNickCollisionNum, "*", "Nickname collision")
		return
	}
	sess.Nickname = nick

	if sess.Username != "" && sess.Type != SessionServer {
		d.completeUserRegistration(c, sess)
	}
}

func preRegUserCommand(d *Daemon, c *LocalClient, sess *SessionInfo, m irc.Message) {
	if len(m.Params) != 4 {
		c.sendNumeric(ErrNeedMoreParamsNum, "USER", "Not enough parameters")
		return
	}
	if !isValidUser(m.Params[0]) {
		c.quit("Invalid username")
		return
	}
	sess.Username = m.Params[0]
	sess.Realname = m.Params[3]
	sess.Type = SessionUser

	if sess.Nickname != "" {
		d.completeUserRegistration(c, sess)
	}
}

// completeUserRegistration promotes a LocalClient to a LocalUser once both
// NICK and USER have been seen, sending the RFC 1459 welcome burst.
func (d *Daemon) completeUserRegistration(c *LocalClient, sess *SessionInfo) {
	if !d.Clients.Available(sess.Nickname) {
		c.sendNumeric(ErrNicknameInUseNum, sess.Nickname, "Nickname is already in use")
		sess.Nickname = ""
		return
	}

	host := c.Conn.IP.String()

	u := &LocalUser{
		client:       c,
		nick:         sess.Nickname,
		username:     sess.Username,
		realname:     sess.Realname,
		hostname:     host,
		lastActivity: time.Now(),
		lastMessage:  time.Now(),
	}

	if !d.ACL.ValidUserPassword(fmt.Sprintf("%s@%s", u.username, u.hostname), sess.Password) {
		c.quit("Access denied")
		return
	}

	if err := d.Clients.AddLocal(u); err != nil {
		c.sendNumeric(ErrNicknameInUseNum, u.nick, "Nickname is already in use")
		return
	}
	c.User = u

	u.numericNoParam(ReplyWelcome, fmt.Sprintf("Welcome to the Internet Relay Network %s", u.sourceString()))
	u.numericNoParam("002", fmt.Sprintf("Your host is %s, running version %s", d.Config.ServerName, d.Config.Version))
	u.numericNoParam("003", fmt.Sprintf("This server was created %s", d.startTime.Format(time.RFC1123)))
	u.numericNoParam("375", fmt.Sprintf("- %s Message of the day -", d.Config.ServerName))
	u.numericNoParam("372", d.Config.MOTD)
	u.numericNoParam("376", "End of MOTD command")

	d.broadcastServerEvent(irc.Message{
		Command: "NICK",
		Params:  []string{u.nick, "1"},
	}, nil)
}

func preRegServerCommand(d *Daemon, c *LocalClient, sess *SessionInfo, m irc.Message) {
	// SERVER <name> <hopcount> <info>
	if len(m.Params) < 2 {
		c.sendNumeric(ErrNeedMoreParamsNum, "SERVER", "Not enough parameters")
		return
	}
	name := m.Params[0]
	if !isValidHost(name) {
		c.quit("Invalid server name")
		return
	}
	if m.Params[1] != "1" {
		c.quit("Bad hopcount")
		return
	}

	host := c.Conn.IP.String()
	if !d.ACL.ValidAcceptPassword(host, sess.Password) {
		c.quit("Access denied")
		return
	}
	if !d.Clients.Available(name) {
		c.quit("Already linked")
		return
	}

	sess.Type = SessionServer
	sess.Nickname = name

	s := &LocalServer{client: c, name: name, hops: 1, lastActivity: time.Now()}
	if err := d.Clients.AddServer(name, 1, s); err != nil {
		c.quit("Already linked")
		return
	}
	c.Server = s

	c.maybeQueueMessage(irc.Message{
		Command: "SERVER",
		Params:  []string{d.Config.ServerName, "1", d.Config.ServerInfo},
	})

	for _, nick := range d.Clients.ListUsers() {
		c.maybeQueueMessage(irc.Message{Command: "NICK", Params: []string{nick, "1"}})
	}

	d.broadcastServerEvent(irc.Message{Command: "SERVER", Params: []string{name, "2", ""}}, c)
}

func preRegPingCommand(d *Daemon, c *LocalClient, sess *SessionInfo, m irc.Message) {
	origin := d.Config.ServerName
	if len(m.Params) > 0 {
		origin = m.Params[0]
	}
	c.maybeQueueMessage(irc.Message{Prefix: d.Config.ServerName, Command: "PONG", Params: []string{d.Config.ServerName, origin}})
}

func preRegQuitCommand(d *Daemon, c *LocalClient, sess *SessionInfo, m irc.Message) {
	c.quit("Quit")
}

// preRegCapCommand accepts IRCv3 capability negotiation as a no-op: clients
// that send "CAP LS" get an empty list, "CAP END" is acknowledged silently,
// and registration proceeds exactly as if CAP had never been sent.
func preRegCapCommand(d *Daemon, c *LocalClient, sess *SessionInfo, m irc.Message) {
	if len(m.Params) == 0 {
		return
	}
	switch strings.ToUpper(m.Params[0]) {
	case "LS", "LIST":
		c.maybeQueueMessage(irc.Message{
			Prefix:  d.Config.ServerName,
			Command: "CAP",
			Params:  []string{"*", strings.ToUpper(m.Params[0]), ""},
		})
	}
}
