package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trustgate/trustgate/internal/storage"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "trustgate",
	Short:   "Promotion gating for generated work-units",
	Version: version,
	Long: `trustgate gates promotion of generated work-units (code modules,
sub-workflows, agents, orchestrators) behind a minimum bar of independently
verified, functionally distinct test executions.

Entities become healthy after accumulating enough novel-input passing runs
(default 3). Health propagates weakest-link style through the parent/child
hierarchy: one unhealthy leaf anywhere below a root blocks the root.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("registry", "",
		fmt.Sprintf("registry document path (default: %s)", storage.DefaultRegistryPath))
	_ = viper.BindPFlag("registry", rootCmd.PersistentFlags().Lookup("registry"))
}

func initConfig() {
	viper.SetDefault("registry", storage.DefaultRegistryPath)
	viper.SetEnvPrefix("trustgate")
	viper.AutomaticEnv()
}

// openGateway creates the persistence gateway for the configured registry
// document path.
func openGateway() (*storage.FileGateway, error) {
	return storage.NewFileGateway(viper.GetString("registry"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
