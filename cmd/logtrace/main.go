package main

import "github.com/stleox/logtrace/pkg/cmd"

func main() {
	cmd.Execute()
}
