package common

import (
	"github.com/spf13/cobra"

	"github.com/brudnak/rancher-test-scripts/internal/cmd/rprobe/common/utils"
)

// Command is the shape every rprobe command implements: client setup,
// input validation, translation of flags into options, and the run
// itself.
type Command interface {
	NewClient(cobraCommand *cobra.Command, args []string)
	ValidateInput(args []string) error
	InputToOptions()
	Run() error
}

type CmdDescription struct {
	Use     string
	Short   string
	Long    string
	Example string
}

// ConfigureCobraCommand wires a Command implementation into a cobra
// command following the shared lifecycle. Validation failures and run
// failures both print the error and exit 1.
func ConfigureCobraCommand(description CmdDescription, impl Command) *cobra.Command {
	cmd := cobra.Command{
		Use:     description.Use,
		Short:   description.Short,
		Long:    description.Long,
		Example: description.Example,
		PreRun: func(cobraCommand *cobra.Command, args []string) {
			impl.NewClient(cobraCommand, args)
		},
		Run: func(cobraCommand *cobra.Command, args []string) {
			utils.HandleError(impl.ValidateInput(args))
			impl.InputToOptions()
			utils.HandleError(impl.Run())
		},
	}
	return &cmd
}
