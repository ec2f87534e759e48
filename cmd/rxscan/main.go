package main

import "github.com/healthmate-tech/rxscan/cmd/rxscan/cmd"

func main() {
	cmd.Execute()
}
