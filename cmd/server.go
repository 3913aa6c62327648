package cmd

import (
	"github.com/aleph-zero/lifo/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run a lifo server",
	Long:  "Run a lifo server exposing text reversal and the scenario harness over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		config := server.NewConfig(
			server.WithAddress(viper.GetString("server.addr")),
			server.WithPort(viper.GetUint16("server.port")),
			server.WithMemoryLimit(viper.GetInt("server.memory-limit")),
			server.WithReverseConfig(reverseConfig()))
		server.Bootstrap(config)
	},
}

const (
	apiListenAddr = "0.0.0.0"
	apiListenPort = 1234
)

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.PersistentFlags().String("server.addr", apiListenAddr, "Address to bind to")
	serverCmd.PersistentFlags().Uint16("server.port", apiListenPort, "Port to listen on")
	serverCmd.PersistentFlags().Int("server.memory-limit", 64<<20, "Bytes all request stacks may hold at once (0 for no limit)")

	viper.BindPFlag("server.addr", serverCmd.PersistentFlags().Lookup("server.addr"))
	viper.BindPFlag("server.port", serverCmd.PersistentFlags().Lookup("server.port"))
	viper.BindPFlag("server.memory-limit", serverCmd.PersistentFlags().Lookup("server.memory-limit"))
}
