package cmd

import (
	"github.com/aleph-zero/lifo/client"
	"github.com/aleph-zero/lifo/service/reverse"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
)

var reverseCmd = &cobra.Command{
	Use:   "reverse",
	Short: "Reverse lines of text",
	Long:  "Reverse lines of text read from an interactive prompt, or a single line from stdin with --once",
	Run: func(cmd *cobra.Command, args []string) {
		config := client.NewConfig(
			client.WithRemoteAddr(viper.GetString("client.remote-addr")),
			client.WithRemotePort(viper.GetUint16("client.remote-port")),
			client.WithReverseConfig(reverseConfig()))
		if viper.GetBool("reverse.once") {
			os.Exit(client.BootstrapOnce(config))
		}
		client.Bootstrap(config)
	},
}

const remotePort = 1234

func reverseConfig() *reverse.Config {
	return reverse.NewConfig(
		reverse.WithInitialCapacity(viper.GetInt("reverse.initial-capacity")),
		reverse.WithNormalize(viper.GetBool("reverse.normalize")))
}

func init() {
	rootCmd.AddCommand(reverseCmd)
	reverseCmd.Flags().Bool("reverse.once", false, "Read one line from stdin, print its reversal and exit")
	reverseCmd.Flags().String("client.remote-addr", "", "Reverse on a lifo server at this address instead of in-process")
	reverseCmd.Flags().Uint16("client.remote-port", remotePort, "Port of the lifo server")

	viper.BindPFlag("reverse.once", reverseCmd.Flags().Lookup("reverse.once"))
	viper.BindPFlag("client.remote-addr", reverseCmd.Flags().Lookup("client.remote-addr"))
	viper.BindPFlag("client.remote-port", reverseCmd.Flags().Lookup("client.remote-port"))
}
