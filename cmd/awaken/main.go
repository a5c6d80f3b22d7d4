// Command awaken plays the scripted terminal onboarding.
package main

import (
	"os"

	"github.com/opencode-ai/awaken/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
