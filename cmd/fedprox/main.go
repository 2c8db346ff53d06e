package main

import (
	"log"

	"github.com/absmach/fedprox/cli"
	"github.com/absmach/fedprox/pkg/sdk"
	"github.com/spf13/cobra"
)

func main() {
	var partyURL string

	rootCmd := &cobra.Command{
		Use:   "fedprox",
		Short: "FedProx CLI",
		Long:  `FedProx CLI simulates federations and drives running parties.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			sdkConf := sdk.Config{
				PartyURL:        partyURL,
				TLSVerification: cli.DefTLSVerification,
			}
			cli.SetSDK(sdk.NewSDK(sdkConf))
		},
	}
	rootCmd.PersistentFlags().StringVarP(&partyURL, "party-url", "u", cli.DefPartyURL, "party HTTP API URL")

	rootCmd.AddCommand(cli.NewSimulateCmd())
	rootCmd.AddCommand(cli.NewStrategiesCmd())
	rootCmd.AddCommand(cli.NewPartyCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
