package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/localnerve/pagesdb/internal/logging"
	"github.com/localnerve/pagesdb/internal/testutil"
	"github.com/rs/zerolog/log"
)

func main() {
	var showHelp bool
	flag.BoolVar(&showHelp, "h", false, "show help")
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	var noRedis bool
	flag.BoolVar(&noRedis, "no-redis", false, "do not start redis")
	flag.Parse()

	usage := `
Run the pagesdb postgres and redis testcontainers with the environment variables from the .env file.

Usage:

testcontainers [-h] [-no-redis] [-f ENV_FILE_PATH]

ENV_FILE_PATH: path to the .env file

example
  testcontainers -f /path/to/something/.env
`
	// if -h flag print usage and return
	if showHelp {
		fmt.Println(usage)
		return
	}

	logging.Setup("info", "console")

	if envFilename != "" {
		log.Info().Str("file", envFilename).Msg("Loading environment variables")
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatal().Err(err).Msg("Failed to load environment variables")
		}
	} else {
		log.Info().Msg("No environment file specified, using current environment variables")
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	testContainers, err := testutil.StartContainers(context.Background(), nil, !noRedis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create test containers")
	}
	log.Info().Str("session", testContainers.SessionID).Msg("Test containers running, interrupt to stop")

	sig := <-sigs
	log.Info().Str("signal", sig.String()).Msg("Terminating test containers")
	testContainers.Terminate(nil)
}
