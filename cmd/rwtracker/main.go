// Command rwtracker tracks ransomware victim disclosures and notifies
// watched parties of matches.
package main

import (
	"os"

	"github.com/roach88/rwtracker/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
