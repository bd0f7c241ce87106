/*
main.go - Application entry point

PURPOSE:
  Command-line front end of the overtime violation engine.

COMMANDS:
  serve       HTTP API with optional periodic re-evaluation
  evaluate    One evaluation run over --from/--to, printed to stdout
  calendar    Validate an exclusion calendar document

CONFIGURATION:
  --config points at a YAML or JSON file. OT_ environment variables
  override it, e.g. OT_SERVER__PORT=9090 or OT_STORE__DRIVER=memory.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler (waits for an in-flight run)
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close the store

SEE ALSO:
  - factory/config.go: Configuration sections
  - api/server.go: Router configuration
*/
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
