package main

import "github.com/kebairia/velero-watchdog/cmd"

func main() {
	cmd.Execute()
}
