package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/plazareviews/revscope/internal/config"
	"github.com/plazareviews/revscope/internal/utils"
)

var cfgFile string

const (
	LOGO = `
	 _ __ _____   _____  ___ ___  _ __   ___
	| '__/ _ \ \ / / __|/ __/ _ \| '_ \ / _ \
	| | |  __/\ V /\__ \ (_| (_) | |_) |  __/
	|_|  \___| \_/ |___/\___\___/| .__/ \___|
	                             |_|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "revscope",
	Short: "Compare public reviews of a place before, during and after construction.",
	Long: LOGO + `revscope loads TripAdvisor, Google and Yelp review dumps, assigns every review
to a construction period and reports rating statistics, rolling averages and
dashboard exports for each period.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.revscope.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().String("start", "", "Construction start date (overrides construction.start)")
	rootCmd.PersistentFlags().String("end", "", "Construction end date (overrides construction.end)")
	rootCmd.PersistentFlags().Int("window", 0, "Rolling window size in buckets (overrides rolling.window)")
	rootCmd.PersistentFlags().String("align", "", "Rolling window alignment: trailing or centered (overrides rolling.align)")
	rootCmd.PersistentFlags().String("dbpath", "", "Path to SQLite DB file (overrides db.path)")

	viper.BindPFlag("construction.start", rootCmd.PersistentFlags().Lookup("start"))
	viper.BindPFlag("construction.end", rootCmd.PersistentFlags().Lookup("end"))
	viper.BindPFlag("rolling.window", rootCmd.PersistentFlags().Lookup("window"))
	viper.BindPFlag("rolling.align", rootCmd.PersistentFlags().Lookup("align"))
	viper.BindPFlag("db.path", rootCmd.PersistentFlags().Lookup("dbpath"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".revscope")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.revscope.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				utils.Log.Debugf("Error creating config file: %s", err)
			}
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

// settings returns the validated configuration with flag overrides applied.
func settings() (config.Settings, error) {
	return config.Load(viper.GetViper())
}
