package cmd

import (
	"fmt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"path/filepath"
	"strings"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "lifo",
	Short: "A dynamically resizing stack and its tools",
	Long:  `lifo: a generic LIFO stack with string reversal, a scripted harness and an HTTP server`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default is $HOME/.config/lifo/lifo.yaml)")
	rootCmd.PersistentFlags().Int("reverse.initial-capacity", 30, "Initial stack capacity used when reversing text")
	rootCmd.PersistentFlags().Bool("reverse.normalize", false, "NFC-normalize input before reversing")

	viper.BindPFlag("reverse.initial-capacity", rootCmd.PersistentFlags().Lookup("reverse.initial-capacity"))
	viper.BindPFlag("reverse.normalize", rootCmd.PersistentFlags().Lookup("reverse.normalize"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile) // use config file from the flag.
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(filepath.Join(home, ".config/lifo"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("lifo")
	}

	viper.SetEnvPrefix("lifo")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	if err := viper.ReadInConfig(); err != nil {
		// it's ok if we don't have a config file, we can fall back to defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
