// Command directoryd runs the mesh routing directory's control plane:
// the HTTP API of spec.md §6 plus its cron-triggered cleanup pass.
package main

import (
	log "github.com/sirupsen/logrus"
)

func main() {
	if err := Execute(); err != nil {
		log.Fatal(err)
	}
}
