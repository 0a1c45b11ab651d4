package main

import (
	"fmt"
	"time"

	"github.com/horgh/config"
)

// Config holds a node's runtime configuration: what CLI flags set directly
// (listen address/port, server name), plus the ambient tunables read from an
// optional settings file in the same key=value format the vendored
// horgh/config reader expects. The credentials file (I:/C:/N:/O: lines) is
// parsed separately by ACLAuthority, since its grammar isn't the flat map
// ReadStringMap understands.
type Config struct {
	ListenAddress string
	ListenPort    string
	ServerName    string
	ServerInfo    string
	Version       string
	MOTD          string

	MaxNickLength int

	// PingTime is read from the settings file, but no code path uses it: the
	// daemon sends no PINGs, and idle connections are reaped by the Conn
	// deadline, which uses DeadTime.
	PingTime time.Duration

	// DeadTime is how long a connection may go without a response before we
	// consider it dead, and the timeout CONNECT uses when dialing a peer.
	DeadTime time.Duration
}

// rawSettings mirrors the on-disk settings file shape for
// config.PopulateStruct: every field must be present if the file is given
// at all, matching how the library is used elsewhere in this lineage.
type rawSettings struct {
	ServerInfo    string
	MOTD          string
	MaxNickLength int64
	PingTime      string
	DeadTime      string
}

func defaultConfig() *Config {
	return &Config{
		Version:       "psircd-0",
		ServerInfo:    "psircd",
		MOTD:          "Welcome.",
		MaxNickLength: 9,
		PingTime:      2 * time.Minute,
		DeadTime:      4 * time.Minute,
	}
}

// loadSettings overlays a key=value settings file onto the defaults. A
// blank path is not an error: every value it could provide already has a
// sane default and the flags (-a/-p/-n) are enough to run.
func (c *Config) loadSettings(path string) error {
	if path == "" {
		return nil
	}

	var raw rawSettings
	if err := config.GetConfig(path, &raw); err != nil {
		return fmt.Errorf("unable to read settings file: %s", err)
	}

	pingTime, err := time.ParseDuration(raw.PingTime)
	if err != nil {
		return fmt.Errorf("invalid pingtime: %s", err)
	}
	deadTime, err := time.ParseDuration(raw.DeadTime)
	if err != nil {
		return fmt.Errorf("invalid deadtime: %s", err)
	}

	c.ServerInfo = raw.ServerInfo
	c.MOTD = raw.MOTD
	c.MaxNickLength = int(raw.MaxNickLength)
	c.PingTime = pingTime
	c.DeadTime = deadTime

	return nil
}
