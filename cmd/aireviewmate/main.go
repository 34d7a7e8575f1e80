package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/aireviewmate/aireviewmate/internal/app"
)

// Version information - populated at build time
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var globalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "env-file",
		Aliases: []string{"e"},
		Usage:   "Path to a .env file to load before reading the environment",
	},
	&cli.IntFlag{
		Name:    "port",
		Aliases: []string{"p"},
		Usage:   "Port to listen on (overrides the PORT environment variable)",
	},
}

func main() {
	cliApp := &cli.App{
		Name:  "aireviewmate",
		Usage: "AI-powered code review and fix API",
		Description: "AIReviewMate serves a JSON API that reviews and fixes source code\n" +
			"using the Gemini API, and turns accepted suggestions into GitHub pull requests.",
		Version: Version,
		Compiled: func() time.Time {
			t, err := time.Parse(time.RFC3339, BuildTime)
			if err != nil {
				return time.Now()
			}
			return t
		}(),
		Flags: globalFlags,
		Before: func(c *cli.Context) error {
			application, err := app.New(c.String("env-file"), c.Int("port"))
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			// Store the app instance in the context for later use
			c.App.Metadata = map[string]interface{}{
				"app": application,
			}

			return nil
		},
		Action: func(c *cli.Context) error {
			application, err := app.FromContext(c)
			if err != nil {
				return err
			}
			return application.Run(c.Context)
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
