package main

import (
	"os"

	"github.com/pterm/pterm"

	"github.com/nodetool-ai/nodetool-sdk/cmd/typegen/cmd"
	"github.com/nodetool-ai/nodetool-sdk/errors"
)

func main() {
	err := cmd.TypegenCmd.Execute()
	if err == nil {
		return
	}

	if errors.Is(err, cmd.ErrStale) {
		pterm.Warning.Println(err.Error())
	} else {
		pterm.Error.Println(err.Error())
	}
	for _, hint := range errors.GetAllHints(err) {
		pterm.Info.Println(hint)
	}

	os.Exit(cmd.ExitCode(err))
}
