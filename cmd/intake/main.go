// Command intake serves the recruitment-campaign form and relays completed
// forms to the automation webhook.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
