package main

import "github.com/dishcraft/menusync/cmd/client/cmd"

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	cmd.Execute(buildVersion, buildDate, buildCommit)
}
