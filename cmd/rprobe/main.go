package main

import (
	"github.com/brudnak/rancher-test-scripts/internal/cmd/rprobe/common/utils"
	"github.com/brudnak/rancher-test-scripts/internal/cmd/rprobe/root"
)

func main() {

	rootCmd := root.NewRootCommand()

	err := rootCmd.Execute()
	utils.HandleError(err)
}
