package main

import "sync"

// PrincipalKind tags the variant held by a Principal value.
type PrincipalKind int

// The three kinds of principal known to a node: a user registered on this
// node, a user registered on some other node and reached via a peer, and a
// peer server itself (directly linked or merely known via relay).
const (
	PrincipalLocalUser PrincipalKind = iota
	PrincipalExternalUser
	PrincipalServer
)

// Principal is the tagged variant described by the data model: LocalUser,
// ExternalUser, or Server. Routing dispatches on Kind rather than on a type
// switch, since all three share the same nickname-keyed lifecycle.
type Principal struct {
	Kind PrincipalKind
	Nick string

	// Set when Kind == PrincipalLocalUser.
	LocalUser *LocalUser

	// Hops is set for external users and servers. Location is set only when
	// Kind == PrincipalExternalUser: the nickname of the directly connected
	// peer that is the next hop toward this user.
	Hops     int
	Location string

	// Set when Kind == PrincipalServer. LocalServer is nil for a peer known
	// only by relay (not directly connected to this node).
	LocalServer *LocalServer
}

// IsLocal reports whether this principal is a user registered on this node.
func (p *Principal) IsLocal() bool { return p.Kind == PrincipalLocalUser }

// IsExternal reports whether this principal is a user registered elsewhere.
func (p *Principal) IsExternal() bool { return p.Kind == PrincipalExternalUser }

// ClientRegistry is the authoritative directory of every principal known to
// this node: local users, external users, and peer servers. Nicknames form
// one flat namespace; a single mutex covers every compound check-then-insert
// so uniqueness holds across all three maps at once.
type ClientRegistry struct {
	mu sync.Mutex

	localUsers    map[string]*LocalUser
	externalUsers map[string]*externalUser
	servers       map[string]*serverEntry

	opers map[string]struct{}

	// localServerNick is the reserved nickname of this node itself; no
	// principal may claim it.
	localServerNick string
}

type externalUser struct {
	nick     string
	hops     int
	location string
}

type serverEntry struct {
	nick  string
	hops  int
	local *LocalServer
}

// NewClientRegistry creates an empty registry. localServerNick is reserved
// and can never be claimed by a principal.
func NewClientRegistry(localServerNick string) *ClientRegistry {
	return &ClientRegistry{
		localUsers:      map[string]*LocalUser{},
		externalUsers:   map[string]*externalUser{},
		servers:         map[string]*serverEntry{},
		opers:           map[string]struct{}{},
		localServerNick: canonicalizeNick(localServerNick),
	}
}

// taken reports whether nick is already claimed by any principal or is the
// local server's own reserved name. Caller must hold mu.
func (r *ClientRegistry) taken(nick string) bool {
	nick = canonicalizeNick(nick)
	if nick == r.localServerNick {
		return true
	}
	if _, ok := r.localUsers[nick]; ok {
		return true
	}
	if _, ok := r.externalUsers[nick]; ok {
		return true
	}
	if _, ok := r.servers[nick]; ok {
		return true
	}
	return false
}

// Available reports whether nick is free for a new registration.
func (r *ClientRegistry) Available(nick string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.taken(nick)
}

// AddLocal registers a local user under u.Nick(). Fails with
// ErrNickAlreadyInUse if the nickname is taken.
func (r *ClientRegistry) AddLocal(u *LocalUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	nick := canonicalizeNick(u.Nick())
	if r.taken(nick) {
		return newRegistryError(ErrNickAlreadyInUse, u.Nick())
	}
	r.localUsers[nick] = u
	return nil
}

// AddExternal registers a remote user reached via the peer named location,
// hops away. hops < 1 is rejected as an invariant violation: an external
// user is by definition at least one hop away.
func (r *ClientRegistry) AddExternal(nick string, hops int, location string) error {
	if hops < 1 {
		return newRegistryError(ErrInternal, "external user added with hops < 1")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	canon := canonicalizeNick(nick)
	if r.taken(canon) {
		return newRegistryError(ErrNickAlreadyInUse, nick)
	}
	r.externalUsers[canon] = &externalUser{nick: nick, hops: hops, location: canonicalizeNick(location)}
	return nil
}

// AddServer registers a peer server, local or learned via relay. local is
// nil when the peer is not directly connected to this node.
func (r *ClientRegistry) AddServer(nick string, hops int, local *LocalServer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	canon := canonicalizeNick(nick)
	if r.taken(canon) {
		return newRegistryError(ErrNickAlreadyInUse, nick)
	}
	r.servers[canon] = &serverEntry{nick: nick, hops: hops, local: local}
	return nil
}

// GetUser looks up a local or external user by nickname. It never returns a
// Server principal.
func (r *ClientRegistry) GetUser(nick string) (*Principal, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	canon := canonicalizeNick(nick)
	if lu, ok := r.localUsers[canon]; ok {
		return &Principal{Kind: PrincipalLocalUser, Nick: lu.Nick(), LocalUser: lu}, true
	}
	if eu, ok := r.externalUsers[canon]; ok {
		return &Principal{Kind: PrincipalExternalUser, Nick: eu.nick, Hops: eu.hops, Location: eu.location}, true
	}
	return nil, false
}

// GetServer looks up a peer server by nickname.
func (r *ClientRegistry) GetServer(nick string) (*Principal, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	canon := canonicalizeNick(nick)
	se, ok := r.servers[canon]
	if !ok {
		return nil, false
	}
	return &Principal{Kind: PrincipalServer, Nick: se.nick, Hops: se.hops, LocalServer: se.local}, true
}

// Remove deletes whatever principal (local user or external user) is
// registered under nick. It is a no-op if nothing is registered there.
func (r *ClientRegistry) Remove(nick string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	canon := canonicalizeNick(nick)
	delete(r.localUsers, canon)
	delete(r.externalUsers, canon)
	delete(r.opers, canon)
}

// RemoveServer deletes the server entry for nick.
func (r *ClientRegistry) RemoveServer(nick string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.servers, canonicalizeNick(nick))
}

// RemoveFromServer atomically removes every external user whose location is
// peer, returning their nicknames. Used when a peer link drops: the caller
// uses the returned set to drive per-user QUIT notification and channel
// cleanup.
func (r *ClientRegistry) RemoveFromServer(peer string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	canonPeer := canonicalizeNick(peer)
	var removed []string
	for canon, eu := range r.externalUsers {
		if eu.location == canonPeer {
			removed = append(removed, eu.nick)
			delete(r.externalUsers, canon)
			delete(r.opers, canon)
		}
	}
	return removed
}

// ListUsers returns every local and external user nickname currently known.
func (r *ClientRegistry) ListUsers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.localUsers)+len(r.externalUsers))
	for _, u := range r.localUsers {
		out = append(out, u.Nick())
	}
	for _, u := range r.externalUsers {
		out = append(out, u.nick)
	}
	return out
}

// ListServers returns every known peer server's nickname.
func (r *ClientRegistry) ListServers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.servers))
	for _, s := range r.servers {
		out = append(out, s.nick)
	}
	return out
}

// ListDirectServers returns the Principal for every directly connected peer
// (LocalServer != nil). Used for broadcast_server_event.
func (r *ClientRegistry) ListDirectServers() []*Principal {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Principal
	for _, s := range r.servers {
		if s.local == nil {
			continue
		}
		out = append(out, &Principal{Kind: PrincipalServer, Nick: s.nick, Hops: s.hops, LocalServer: s.local})
	}
	return out
}

// AddOperPrivileges marks nick as holding operator privileges.
func (r *ClientRegistry) AddOperPrivileges(nick string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opers[canonicalizeNick(nick)] = struct{}{}
}

// RemoveOperPrivileges revokes operator privileges from nick.
func (r *ClientRegistry) RemoveOperPrivileges(nick string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.opers, canonicalizeNick(nick))
}

// HasOperPrivileges reports whether nick currently holds operator
// privileges.
func (r *ClientRegistry) HasOperPrivileges(nick string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.opers[canonicalizeNick(nick)]
	return ok
}
