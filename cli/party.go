package cli

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/absmach/fedprox/pkg/fl"
	"github.com/absmach/fedprox/pkg/sdk"
	"github.com/spf13/cobra"
)

var (
	DefTLSVerification        = false
	DefPartyURL               = "http://localhost:7071"
	defOffset          uint64 = 0
	defLimit           uint64 = 10
)

var psdk sdk.SDK

func SetSDK(s sdk.SDK) {
	psdk = s
}

var partyCmd = []cobra.Command{
	{
		Use:   "train <task.json>",
		Short: "Train one round",
		Long:  `Send a round task read from a JSON file to the party and print the update.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			var task fl.Task
			if err := json.Unmarshal(data, &task); err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			u, err := psdk.Train(task)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, u)
		},
	},
	{
		Use:   "logs",
		Short: "View training logs",
		Long:  `View the party's current and previous training metrics.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			l, err := psdk.Logs()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, l)
		},
	},
	{
		Use:   "checkpoints [offset] [limit]",
		Short: "List checkpoints",
		Long:  `List the party's local training checkpoints.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) > 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			offset, limit := defOffset, defLimit
			var err error
			if len(args) > 0 {
				if offset, err = strconv.ParseUint(args[0], 10, 64); err != nil {
					logErrorCmd(*cmd, err)

					return
				}
			}
			if len(args) > 1 {
				if limit, err = strconv.ParseUint(args[1], 10, 64); err != nil {
					logErrorCmd(*cmd, err)

					return
				}
			}

			p, err := psdk.Checkpoints(offset, limit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, p)
		},
	},
}

func NewPartyCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "party [train|logs|checkpoints]",
		Short: "Party management",
		Long:  `Drive a running party through its HTTP API.`,
	}

	for i := range partyCmd {
		cmd.AddCommand(&partyCmd[i])
	}

	return &cmd
}
