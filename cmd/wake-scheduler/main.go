package main

import "github.com/oshokin/wake-scheduler/cmd/wake-scheduler/cmd"

func main() {
	cmd.Execute()
}
