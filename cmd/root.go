package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/complypoint/complyctl/internal/utils"
	"github.com/complypoint/complyctl/pkg/whttp"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `                           _            _   _
  ___ ___  _ __ ___  _ __ | |_   _  ___| |_| |
 / __/ _ \| '_ ' _ \| '_ \| | | | |/ __| __| |
| (_| (_) | | | | | | |_) | | |_| | (__| |_| |
 \___\___/|_| |_| |_| .__/|_|\__, |\___|\__|_|
                    |_|      |___/
`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "complyctl",
	Short: "The ComplyPoint compliance platform, from your terminal.",
	Long: LOGO + `complyctl talks to your ComplyPoint account: check plan entitlements,
download and schedule compliance reports, manage the site builder, and place
service orders through the interactive intake wizard.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
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
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.complyctl.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".complyctl")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.complyctl.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default empty values for all keys
	viper.SetDefault("api.url", "https://app.complypoint.io/api")
	viper.SetDefault("api.token", "")
	viper.SetDefault("account.email", "")
	viper.SetDefault("snapshot.dbpath", "")

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

// newAPIClient builds the shared HTTP client from config and global flags.
func newAPIClient() (*whttp.Client, error) {
	proxy, _ := rootCmd.PersistentFlags().GetString("proxy")
	baseURL := viper.GetString("api.url")
	token := viper.GetString("api.token")
	if token == "" {
		return nil, fmt.Errorf("no API token configured; set api.token in your config file")
	}
	return whttp.NewClient(baseURL, token, proxy)
}

// confirm asks for an explicit yes before a destructive action goes out.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
