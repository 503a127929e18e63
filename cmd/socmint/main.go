package main

import (
	"socmint/cmd/socmint/commands"
	"socmint/lib/serviceutil"
)

func main() {
	ctx := serviceutil.SignalContext()
	err := commands.ExecuteContext(ctx)
	if err != nil {
		serviceutil.Fatal("socmint", err)
	}
}
