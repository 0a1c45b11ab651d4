package main

import (
	"flag"
	"fmt"
	"os"
)

// Args are the command line arguments.
type Args struct {
	Address string
	Port    string
	Name    string

	ACLFile      string
	SettingsFile string
}

func getArgs() *Args {
	address := flag.String("a", "127.0.0.1", "Bind address.")
	port := flag.String("p", "6667", "Listen port.")
	name := flag.String("n", "", "Local server name.")
	aclFile := flag.String("conf", "", "Credentials file (I:/C:/N:/O: lines).")
	settingsFile := flag.String("settings", "", "Optional settings file.")

	flag.Usage = func() {
		printUsage(nil)
	}

	flag.Parse()

	if *name == "" {
		printUsage(fmt.Errorf("you must provide a server name (-n)"))
		return nil
	}

	if *aclFile == "" {
		printUsage(fmt.Errorf("you must provide a credentials file (-conf)"))
		return nil
	}

	return &Args{
		Address:      *address,
		Port:         *port,
		Name:         *name,
		ACLFile:      *aclFile,
		SettingsFile: *settingsFile,
	}
}

func printUsage(err error) {
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%s\n", err)
	}
	_, _ = fmt.Fprintf(os.Stderr, "Usage: %s <arguments>\n", os.Args[0])
	flag.PrintDefaults()
}
