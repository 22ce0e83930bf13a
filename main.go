package main

import (
	"github.com/pantheon-systems/repo-guardian/cmd"
)

func main() {
	cmd.Execute()
}
