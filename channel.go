package main

import "sync"

// Channel holds membership, privilege, and topic state for one channel. It
// is created implicitly by the first JOIN and removed once its last member
// departs; there is no persistence across that lifecycle.
type Channel struct {
	Name    string
	Users   map[string]struct{}
	Chanops map[string]struct{}
	Banned  map[string]struct{}
	Key     string
	Topic   string
}

func newChannel(name, creatorNick string) *Channel {
	return &Channel{
		Name:    name,
		Users:   map[string]struct{}{creatorNick: {}},
		Chanops: map[string]struct{}{creatorNick: {}},
		Banned:  map[string]struct{}{},
	}
}

// IsMember reports whether nick is currently on the channel.
func (c *Channel) IsMember(nick string) bool {
	_, ok := c.Users[nick]
	return ok
}

// IsChanop reports whether nick holds operator privileges on the channel.
func (c *Channel) IsChanop(nick string) bool {
	_, ok := c.Chanops[nick]
	return ok
}

// IsBanned reports whether nick is on the channel's ban list.
func (c *Channel) IsBanned(nick string) bool {
	_, ok := c.Banned[nick]
	return ok
}

// Empty reports whether the channel has no members left.
func (c *Channel) Empty() bool {
	return len(c.Users) == 0
}

// Names renders the member list the way RPL_NAMREPLY wants it: one
// "[@]nick" token per member, chanops marked with "@". The spec's
// RPL_NAMREPLY symbol slot (channel visibility, "=" / "*" / "@") is a
// property of the reply, not of this list; see replyNamesSymbol.
func (c *Channel) Names() []string {
	names := make([]string, 0, len(c.Users))
	for nick := range c.Users {
		if c.IsChanop(nick) {
			names = append(names, "@"+nick)
			continue
		}
		names = append(names, nick)
	}
	return names
}

// ChannelRegistry is the authoritative directory of channels. A single mutex
// covers every compound operation (lookup-then-mutate), matching the
// concurrency model's requirement for the registries.
type ChannelRegistry struct {
	mu       sync.Mutex
	channels map[string]*Channel
}

// NewChannelRegistry creates an empty channel registry.
func NewChannelRegistry() *ChannelRegistry {
	return &ChannelRegistry{channels: map[string]*Channel{}}
}

// Get retrieves a channel by its canonical name.
func (r *ChannelRegistry) Get(name string) (*Channel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.channels[canonicalizeChannel(name)]
	return c, ok
}

// Join adds nick to the channel named name, creating it (with nick as its
// first chanop) if it doesn't exist. An existing channel enforces its ban
// list and key: an empty key on the channel is a no-op check, so a keyless
// channel admits any key (including none) from the joiner.
func (r *ChannelRegistry) Join(name, nick, key string) (*Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	canon := canonicalizeChannel(name)
	c, ok := r.channels[canon]
	if !ok {
		c = newChannel(name, nick)
		r.channels[canon] = c
		return c, nil
	}

	if c.IsBanned(nick) {
		return nil, newRegistryError(ErrBannedFromChannel, name)
	}
	if c.Key != "" && key != c.Key {
		return nil, newRegistryError(ErrBadChannelKey, name)
	}
	if c.IsMember(nick) {
		return nil, newRegistryError(ErrUserOnChannel, name)
	}

	c.Users[nick] = struct{}{}
	return c, nil
}

// Part removes nick from the channel named name. The channel is deleted if
// this empties it. Returns ErrNotOnChannel if nick wasn't a member, or
// ErrNoSuchChannel if the channel doesn't exist.
func (r *ChannelRegistry) Part(name, nick string) (*Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.part(name, nick)
}

// part is the unlocked implementation shared by Part and Kick.
func (r *ChannelRegistry) part(name, nick string) (*Channel, error) {
	canon := canonicalizeChannel(name)
	c, ok := r.channels[canon]
	if !ok {
		return nil, newRegistryError(ErrNoSuchChannel, name)
	}
	if !c.IsMember(nick) {
		return nil, newRegistryError(ErrNotOnChannel, name)
	}
	delete(c.Users, nick)
	delete(c.Chanops, nick)
	if c.Empty() {
		delete(r.channels, canon)
	}
	return c, nil
}

// Kick removes targetNick from the channel on behalf of opNick, requiring
// opNick to hold chanop privileges there.
func (r *ChannelRegistry) Kick(name, opNick, targetNick string) (*Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	canon := canonicalizeChannel(name)
	c, ok := r.channels[canon]
	if !ok {
		return nil, newRegistryError(ErrNoSuchChannel, name)
	}
	if !c.IsChanop(opNick) {
		return nil, newRegistryError(ErrChanopPrivIsNeeded, name)
	}
	return r.part(name, targetNick)
}

// QuitNick removes nick from every channel it is a member of, deleting any
// channel this empties. Returns the names of channels nick was on.
func (r *ChannelRegistry) QuitNick(nick string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var were []string
	for canon, c := range r.channels {
		if !c.IsMember(nick) {
			continue
		}
		were = append(were, c.Name)
		delete(c.Users, nick)
		delete(c.Chanops, nick)
		if c.Empty() {
			delete(r.channels, canon)
		}
	}
	return were
}

// AllNames returns the display name of every channel currently tracked.
func (r *ChannelRegistry) AllNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.channels))
	for _, c := range r.channels {
		out = append(out, c.Name)
	}
	return out
}

// MembersOf returns the member nicknames of the channel named name.
func (r *ChannelRegistry) MembersOf(name string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.channels[canonicalizeChannel(name)]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(c.Users))
	for nick := range c.Users {
		out = append(out, nick)
	}
	return out
}
