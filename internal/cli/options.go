package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

const (
	deployFlag  = "deploy"
	configFlag  = "config"
	verboseFlag = "verbose"
	reportFlag  = "report"
)

// changedBool returns the value of a bool flag and whether it was set on
// the command line.
func changedBool(cmd *cobra.Command, name string) (value bool, changed bool) {
	if cmd == nil {
		return false, false
	}

	flag := cmd.Flag(name)
	if flag == nil || !flag.Changed {
		return false, false
	}

	enabled, err := strconv.ParseBool(flag.Value.String())
	if err != nil {
		return false, false
	}

	return enabled, true
}
