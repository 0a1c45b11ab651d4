package main

import (
	"log"
	"os"
)

func main() {
	log.SetOutput(os.Stdout)

	args := getArgs()
	if args == nil {
		os.Exit(1)
	}

	cfg := defaultConfig()
	cfg.ServerName = args.Name
	cfg.ListenAddress = args.Address
	cfg.ListenPort = args.Port
	if err := cfg.loadSettings(args.SettingsFile); err != nil {
		log.Fatalf("settings: %s", err)
	}

	acl, err := NewACLAuthority(args.ACLFile)
	if err != nil {
		log.Fatalf("credentials: %s", err)
	}

	d := NewDaemon(cfg, acl, cfg.ServerName)
	if err := d.Listen(cfg.ListenAddress, cfg.ListenPort); err != nil {
		log.Fatalf("listen: %s", err)
	}

	log.Printf("%s listening on %s:%s", cfg.ServerName, cfg.ListenAddress, cfg.ListenPort)
	d.Run()
}
