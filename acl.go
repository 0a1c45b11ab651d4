package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ACLAuthority answers admission questions from a line-oriented credentials
// file: which user@host patterns may register, what password a peer must
// present (or send) to link, and which user/password pairs grant OPER.
//
// The file format is distinct from (and not parsed by) the vendored
// horgh/config key=value reader: each line begins with a type character and
// a colon, as described in the external interfaces section of the design.
type ACLAuthority struct {
	clientPasswords   map[string]string // "user@host-pattern" -> password (possibly empty)
	connectPasswords  map[string]string // peer host -> password we send when we originate a link
	acceptPasswords   map[string]string // peer host -> password we require from an incoming link
	operPasswords     map[string]string // oper user -> password
}

// NewACLAuthority parses the credentials file at path.
func NewACLAuthority(path string) (*ACLAuthority, error) {
	a := &ACLAuthority{
		clientPasswords:  map[string]string{},
		connectPasswords: map[string]string{},
		acceptPasswords:  map[string]string{},
		operPasswords:    map[string]string{},
	}
	if err := a.parse(path); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *ACLAuthority) parse(path string) error {
	fh, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "unable to open ACL file")
	}
	defer func() { _ = fh.Close() }()

	scanner := bufio.NewScanner(fh)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		if idx := strings.Index(line, "#"); idx != -1 {
			line = line[:idx]
		}
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			continue
		}

		if len(line) < 2 || line[1] != ':' {
			continue
		}

		kind := line[0]
		rest := line[2:]

		switch kind {
		case 'I':
			hostPattern, password, err := splitTwo(rest)
			if err != nil {
				return fmt.Errorf("line %d: malformed I: line: %s", lineNum, err)
			}
			if !strings.Contains(hostPattern, "@") {
				continue
			}
			a.clientPasswords[hostPattern] = password
		case 'C':
			host, password, err := splitTwo(rest)
			if err != nil {
				return fmt.Errorf("line %d: malformed C: line: %s", lineNum, err)
			}
			a.connectPasswords[host] = password
		case 'N':
			host, password, err := splitTwo(rest)
			if err != nil {
				return fmt.Errorf("line %d: malformed N: line: %s", lineNum, err)
			}
			a.acceptPasswords[host] = password
		case 'O':
			user, password, err := splitTwo(rest)
			if err != nil {
				return fmt.Errorf("line %d: malformed O: line: %s", lineNum, err)
			}
			a.operPasswords[user] = password
		default:
			continue
		}
	}

	return scanner.Err()
}

// splitTwo splits "a:b" into "a", "b". Either half may be empty.
func splitTwo(s string) (string, string, error) {
	idx := strings.Index(s, ":")
	if idx == -1 {
		return "", "", fmt.Errorf("expected two colon-separated fields, got %q", s)
	}
	return s[:idx], s[idx+1:], nil
}

// ValidUserPassword decides whether a client connecting from userHost
// (formatted "user@host") may register with the given password. It scans
// every I: rule; a rule matches when its hostname is "*" or equals the
// client's hostname, and its dotted host-pattern components match the
// client's address element-wise with "*" acting as a free wildcard on that
// component (and on every component after it). This is positional matching
// of dotted components, not true DNS wildcarding: a pattern component only
// ever stands for the corresponding single label, except that a "*"
// component short-circuits and accepts every remaining label.
//
// A matching rule with an empty configured password accepts any password
// presented (including none).
func (a *ACLAuthority) ValidUserPassword(userHost, password string) bool {
	parts := strings.SplitN(userHost, "@", 2)
	if len(parts) != 2 {
		return false
	}
	hostname := parts[0]
	addr := parts[1]
	addrParts := strings.Split(addr, ".")

	for pattern, rulePassword := range a.clientPasswords {
		patternParts := strings.SplitN(pattern, "@", 2)
		if len(patternParts) != 2 {
			continue
		}
		patternHostname := patternParts[0]
		patternAddr := patternParts[1]
		patternAddrParts := strings.Split(patternAddr, ".")

		if !addrMatches(addrParts, patternAddrParts) {
			continue
		}
		if patternHostname != "*" && patternHostname != hostname {
			continue
		}

		if rulePassword == "" || rulePassword == password {
			return true
		}
	}

	return false
}

// addrMatches reports whether addr matches pattern component by component.
// A "*" pattern component matches the rest of addr unconditionally (the
// remaining components need not even be present).
func addrMatches(addr, pattern []string) bool {
	validParts := 0
	for i, p := range pattern {
		if i > len(addr)-1 {
			break
		}
		if p == "*" {
			validParts = len(pattern)
			break
		}
		if addr[i] != p {
			break
		}
		validParts++
	}
	return validParts == len(pattern)
}

// ValidConnectPassword reports whether password is what we should send when
// originating a connection to the peer named by host.
func (a *ACLAuthority) ValidConnectPassword(host, password string) bool {
	p, ok := a.connectPasswords[host]
	return ok && p == password
}

// ConnectPassword returns the password we should send when originating a
// connection to host.
func (a *ACLAuthority) ConnectPassword(host string) (string, bool) {
	p, ok := a.connectPasswords[host]
	return p, ok
}

// ValidAcceptPassword reports whether password is acceptable from an
// incoming peer connection claiming to be host.
func (a *ACLAuthority) ValidAcceptPassword(host, password string) bool {
	p, ok := a.acceptPasswords[host]
	return ok && p == password
}

// ValidOperator reports whether user/password is a valid OPER credential
// pair.
func (a *ACLAuthority) ValidOperator(user, password string) bool {
	p, ok := a.operPasswords[user]
	return ok && p == password
}
