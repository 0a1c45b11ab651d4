package main

import "testing"

func TestIsValidNick(t *testing.T) {
	tests := []struct {
		nick string
		want bool
	}{
		{"a", true},
		{"alice", true},
		{"Alice-[9]", true},
		{"a23456789", true},  // 9 chars, max length
		{"a234567890", false}, // 10 chars, too long
		{"9alice", false},     // can't start with a digit
		{"-alice", false},     // can't start with a dash
		{"", false},
	}
	for _, tt := range tests {
		if got := isValidNick(tt.nick); got != tt.want {
			t.Errorf("isValidNick(%q) = %v, want %v", tt.nick, got, tt.want)
		}
	}
}

func TestIsValidHost(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"localhost", true},
		{"irc.example.com", true},
		{"a", false}, // a label needs at least two characters
		{"9irc.example.com", false},
		{"irc..example.com", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isValidHost(tt.host); got != tt.want {
			t.Errorf("isValidHost(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}

func TestIsValidChannel(t *testing.T) {
	tests := []struct {
		channel string
		want    bool
	}{
		{"#hack", true},
		{"&local", true},
		{"hack", false},
		{"#", false},
		{"# hack", false},
		{"#ha:ck", false},
	}
	for _, tt := range tests {
		if got := isValidChannel(tt.channel); got != tt.want {
			t.Errorf("isValidChannel(%q) = %v, want %v", tt.channel, got, tt.want)
		}
	}
}

func TestCanonicalize(t *testing.T) {
	if got := canonicalizeNick("Alice"); got != "alice" {
		t.Errorf("canonicalizeNick(\"Alice\") = %q, want %q", got, "alice")
	}
	if got := canonicalizeChannel("#Hack"); got != "#hack" {
		t.Errorf("canonicalizeChannel(\"#Hack\") = %q, want %q", got, "#hack")
	}
	if got := canonicalizeHost("IRC.Example.COM"); got != "irc.example.com" {
		t.Errorf("canonicalizeHost(...) = %q, want %q", got, "irc.example.com")
	}
}
