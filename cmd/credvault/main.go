package main

import (
	"os"
	"syscall"

	"github.com/awnumar/memguard"
	"github.com/fahmaliyi/credvault/cli"
)

func main() {
	app := cli.NewApp()
	// memguard purges and exits after the handler returns.
	memguard.CatchSignal(func(os.Signal) {
		_ = app.ClearClipboard()
	}, os.Interrupt, syscall.SIGTERM)

	code := cli.Execute(app, os.Args[1:])
	memguard.Purge()
	os.Exit(code)
}
