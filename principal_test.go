package main

import "testing"

func TestClientRegistryAddLocalRejectsDuplicateAndReservedNick(t *testing.T) {
	r := NewClientRegistry("irc.example.org")

	alice := &LocalUser{nick: "alice"}
	if err := r.AddLocal(alice); err != nil {
		t.Fatalf("AddLocal: %v", err)
	}

	dup := &LocalUser{nick: "Alice"} // nicknames are case-insensitive
	if err := r.AddLocal(dup); kindOf(err) != ErrNickAlreadyInUse {
		t.Fatalf("expected ErrNickAlreadyInUse for case-insensitive dup, got %v", err)
	}

	reserved := &LocalUser{nick: "irc.example.org"}
	if err := r.AddLocal(reserved); kindOf(err) != ErrNickAlreadyInUse {
		t.Fatalf("expected the local server's own nick to be reserved, got %v", err)
	}
}

func TestClientRegistryAddExternalRejectsHopsBelowOne(t *testing.T) {
	r := NewClientRegistry("irc.example.org")
	if err := r.AddExternal("bob", 0, "peer1"); kindOf(err) != ErrInternal {
		t.Fatalf("expected hops < 1 to be rejected, got %v", err)
	}
	if err := r.AddExternal("bob", 1, "peer1"); err != nil {
		t.Fatalf("AddExternal: %v", err)
	}
}

func TestClientRegistryGetUserDistinguishesLocalAndExternal(t *testing.T) {
	r := NewClientRegistry("irc.example.org")
	r.AddLocal(&LocalUser{nick: "alice"})
	r.AddExternal("bob", 2, "peer1")

	p, ok := r.GetUser("alice")
	if !ok || p.Kind != PrincipalLocalUser {
		t.Fatalf("expected alice to be a local user, got %+v", p)
	}

	p, ok = r.GetUser("bob")
	if !ok || p.Kind != PrincipalExternalUser || p.Location != "peer1" || p.Hops != 2 {
		t.Fatalf("expected bob to be external at peer1 hops=2, got %+v", p)
	}
}

func TestClientRegistryRemoveFromServerPurgesOnlyThatPeer(t *testing.T) {
	r := NewClientRegistry("irc.example.org")
	r.AddExternal("bob", 1, "peer1")
	r.AddExternal("carol", 1, "peer2")

	removed := r.RemoveFromServer("peer1")
	if len(removed) != 1 || removed[0] != "bob" {
		t.Fatalf("expected only bob removed, got %v", removed)
	}
	if _, ok := r.GetUser("bob"); ok {
		t.Fatalf("bob should no longer be registered")
	}
	if _, ok := r.GetUser("carol"); !ok {
		t.Fatalf("carol should still be registered: different peer")
	}
}

func TestClientRegistryOperPrivileges(t *testing.T) {
	r := NewClientRegistry("irc.example.org")
	r.AddLocal(&LocalUser{nick: "alice"})

	if r.HasOperPrivileges("alice") {
		t.Fatalf("alice should not start with oper privileges")
	}
	r.AddOperPrivileges("alice")
	if !r.HasOperPrivileges("alice") {
		t.Fatalf("alice should hold oper privileges after AddOperPrivileges")
	}
	r.RemoveOperPrivileges("alice")
	if r.HasOperPrivileges("alice") {
		t.Fatalf("alice should have lost oper privileges after RemoveOperPrivileges")
	}
}

func TestClientRegistryListDirectServersExcludesRelayOnly(t *testing.T) {
	r := NewClientRegistry("irc.example.org")
	r.AddServer("direct", 1, &LocalServer{name: "direct"})
	r.AddServer("relayed", 2, nil)

	direct := r.ListDirectServers()
	if len(direct) != 1 || direct[0].Nick != "direct" {
		t.Fatalf("expected only the directly connected peer, got %v", direct)
	}
}
