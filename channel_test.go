package main

import "testing"

func TestChannelRegistryJoinCreatesChanopOnFirstJoin(t *testing.T) {
	r := NewChannelRegistry()

	c, err := r.Join("#hack", "alice", "")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if !c.IsMember("alice") || !c.IsChanop("alice") {
		t.Fatalf("creator alice should be a member and chanop")
	}
}

func TestChannelRegistryJoinEmptyKeyIsNoOp(t *testing.T) {
	r := NewChannelRegistry()
	if _, err := r.Join("#hack", "alice", ""); err != nil {
		t.Fatalf("Join: %v", err)
	}

	// channel has no key set; joining with any key (including none) succeeds.
	if _, err := r.Join("#hack", "bob", "whatever"); err != nil {
		t.Fatalf("Join with key against keyless channel should succeed, got %v", err)
	}
}

func TestChannelRegistryJoinBadKeyRejected(t *testing.T) {
	r := NewChannelRegistry()
	c, _ := r.Join("#hack", "alice", "")
	c.Key = "secret"

	if _, err := r.Join("#hack", "bob", "wrong"); kindOf(err) != ErrBadChannelKey {
		t.Fatalf("expected ErrBadChannelKey, got %v", err)
	}
	if _, err := r.Join("#hack", "bob", "secret"); err != nil {
		t.Fatalf("Join with correct key: %v", err)
	}
}

func TestChannelRegistryJoinBannedRejected(t *testing.T) {
	r := NewChannelRegistry()
	c, _ := r.Join("#hack", "alice", "")
	c.Banned["bob"] = struct{}{}

	if _, err := r.Join("#hack", "bob", ""); kindOf(err) != ErrBannedFromChannel {
		t.Fatalf("expected ErrBannedFromChannel, got %v", err)
	}
}

func TestChannelRegistryPartDeletesEmptyChannel(t *testing.T) {
	r := NewChannelRegistry()
	r.Join("#hack", "alice", "")

	if _, err := r.Part("#hack", "alice"); err != nil {
		t.Fatalf("Part: %v", err)
	}
	if _, ok := r.Get("#hack"); ok {
		t.Fatalf("channel should be deleted once its last member parts")
	}
}

func TestChannelRegistryPartNotMemberRejected(t *testing.T) {
	r := NewChannelRegistry()
	r.Join("#hack", "alice", "")

	if _, err := r.Part("#hack", "bob"); kindOf(err) != ErrNotOnChannel {
		t.Fatalf("expected ErrNotOnChannel, got %v", err)
	}
}

func TestChannelRegistryKickRequiresChanop(t *testing.T) {
	r := NewChannelRegistry()
	r.Join("#hack", "alice", "")
	r.Join("#hack", "bob", "")

	if _, err := r.Kick("#hack", "bob", "alice"); kindOf(err) != ErrChanopPrivIsNeeded {
		t.Fatalf("expected ErrChanopPrivIsNeeded, got %v", err)
	}

	if _, err := r.Kick("#hack", "alice", "bob"); err != nil {
		t.Fatalf("Kick by chanop: %v", err)
	}
	if c, _ := r.Get("#hack"); c.IsMember("bob") {
		t.Fatalf("bob should have been kicked")
	}
}

func TestChannelRegistryQuitNickRemovesFromAllChannels(t *testing.T) {
	r := NewChannelRegistry()
	r.Join("#a", "alice", "")
	r.Join("#b", "alice", "")
	r.Join("#b", "bob", "")

	were := r.QuitNick("alice")
	if len(were) != 2 {
		t.Fatalf("expected alice to have been on 2 channels, got %d", len(were))
	}
	if _, ok := r.Get("#a"); ok {
		t.Fatalf("#a should be deleted: alice was its only member")
	}
	if c, ok := r.Get("#b"); !ok || c.IsMember("alice") {
		t.Fatalf("#b should survive with alice removed")
	}
}

func TestChannelNamesMarksChanops(t *testing.T) {
	r := NewChannelRegistry()
	c, _ := r.Join("#hack", "alice", "")
	r.Join("#hack", "bob", "")

	names := c.Names()
	seenOp, seenPlain := false, false
	for _, n := range names {
		if n == "@alice" {
			seenOp = true
		}
		if n == "bob" {
			seenPlain = true
		}
	}
	if !seenOp || !seenPlain {
		t.Fatalf("Names() = %v, want @alice and bob", names)
	}
}
