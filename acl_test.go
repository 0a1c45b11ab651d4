package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeACLFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "psircd.conf")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestACLAuthorityParsesAllLineKinds(t *testing.T) {
	path := writeACLFile(t, `
# a comment
I:alice@irc.example.com:secret
C:peer.example.com:outbound-pw
N:peer.example.com:inbound-pw
O:root:root-pw
`)

	a, err := NewACLAuthority(path)
	require.NoError(t, err, "parse ACL file")

	if !a.ValidUserPassword("alice@irc.example.com", "secret") {
		t.Fatalf("expected alice@irc.example.com:secret to be admitted")
	}
	if pw, ok := a.ConnectPassword("peer.example.com"); !ok || pw != "outbound-pw" {
		t.Fatalf("ConnectPassword = %q, %v", pw, ok)
	}
	if !a.ValidAcceptPassword("peer.example.com", "inbound-pw") {
		t.Fatalf("expected inbound-pw to be accepted from peer.example.com")
	}
	if !a.ValidOperator("root", "root-pw") {
		t.Fatalf("expected root/root-pw to be a valid operator credential")
	}
}

func TestACLAuthorityEmptyPasswordAcceptsAny(t *testing.T) {
	path := writeACLFile(t, "I:bob@irc.example.com:\n")

	a, err := NewACLAuthority(path)
	require.NoError(t, err, "parse ACL file")

	if !a.ValidUserPassword("bob@irc.example.com", "anything-at-all") {
		t.Fatalf("an empty configured password should accept any presented password")
	}
	if !a.ValidUserPassword("bob@irc.example.com", "") {
		t.Fatalf("an empty configured password should accept an empty presented password too")
	}
}

func TestACLAuthorityPositionalWildcard(t *testing.T) {
	path := writeACLFile(t, "I:*@192.168.*:\n")

	a, err := NewACLAuthority(path)
	require.NoError(t, err, "parse ACL file")

	if !a.ValidUserPassword("anyone@192.168.1.5", "") {
		t.Fatalf("trailing * should match any suffix of dotted components")
	}
	if a.ValidUserPassword("anyone@10.0.0.1", "") {
		t.Fatalf("10.0.0.1 should not match a 192.168.* pattern")
	}
}

func TestACLAuthorityRejectsUnknownUser(t *testing.T) {
	path := writeACLFile(t, "I:alice@irc.example.com:secret\n")

	a, err := NewACLAuthority(path)
	require.NoError(t, err, "parse ACL file")

	if a.ValidUserPassword("mallory@irc.example.com", "secret") {
		t.Fatalf("a hostname with no matching I: rule should be rejected")
	}
}

func TestACLAuthorityMissingFile(t *testing.T) {
	_, err := NewACLAuthority(filepath.Join(t.TempDir(), "does-not-exist.conf"))
	require.Error(t, err, "expected an error opening a nonexistent ACL file")
}
