package main

import "github.com/dbsmedya/assetprof/cmd/assetprof/cmd"

func main() {
	cmd.Execute()
}
