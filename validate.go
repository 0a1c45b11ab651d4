package main

import (
	"regexp"
	"strings"
)

// Syntactic validity checks for the wire-level tokens we accept. These mirror
// the grammar in RFC 1459/2812 as narrowed by what this daemon actually
// admits: a fixed nickname charset, RFC 952 style hostnames, and # or &
// channels.
var (
	nickRE    = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9\-\[\]\\` + "`" + `^{}]{0,8}$`)
	hostRE    = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]{0,22}[A-Za-z0-9](?:\.[A-Za-z][A-Za-z0-9-]{0,21}[A-Za-z0-9])*$`)
	channelRE = regexp.MustCompile(`^[#&][^\x00\x07\n\r ,:]{1,49}$`)
	userRE    = regexp.MustCompile(`^\S+$`)
)

// isValidNick reports whether n is a syntactically valid nickname.
func isValidNick(n string) bool {
	return nickRE.MatchString(n)
}

// isValidHost reports whether h is a syntactically valid, RFC 952 style
// hostname.
func isValidHost(h string) bool {
	return hostRE.MatchString(h)
}

// isValidChannel reports whether c is a syntactically valid channel name.
// Callers should canonicalize before calling this.
func isValidChannel(c string) bool {
	return channelRE.MatchString(c)
}

// isValidUser reports whether u is a syntactically valid USER token (any
// non-empty run of non-whitespace characters).
func isValidUser(u string) bool {
	return userRE.MatchString(u)
}

// canonicalizeNick converts a nickname to its canonical representation,
// which is the form used as a map key. Nicknames are case-insensitive.
func canonicalizeNick(n string) string {
	return strings.ToLower(n)
}

// canonicalizeChannel converts a channel name to its canonical
// representation.
func canonicalizeChannel(c string) string {
	return strings.ToLower(c)
}

// canonicalizeHost lowercases a hostname for comparison purposes. Hosts are
// compared case-insensitively per the data model.
func canonicalizeHost(h string) string {
	return strings.ToLower(h)
}
