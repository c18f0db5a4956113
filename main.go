package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/siteslot/siteslot/cmd"
)

var version = "dev"

func main() {
	if err := cmd.Execute(version); err != nil {
		log.Error().Err(err).Msg("ERROR")
		os.Exit(1)
	}
}
