package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/wolfitem/ai-podcast/internal/infrastructure/logger"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ai-podcast",
	Short: "Automated tech-news podcast generator",
	Long: `ai-podcast collects recent technology news articles, turns them into
a two-host dialogue script with a language model, synthesizes the
episode audio, and publishes the updated show feed.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	os.Exit(run())
}

// run executes the root command and returns the process exit status.
// Log buffers are flushed before the status is returned to Execute,
// which exits without running deferred functions.
func run() int {
	setupSignalHandler()
	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		return 1
	}
	return 0
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default ./config.yaml)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("using config file:", viper.ConfigFileUsed())

		initLogger()
	} else {
		fmt.Printf("no config file loaded: %v\n", err)
	}

	viper.AutomaticEnv()
}

// initLogger initializes the logging subsystem from the loaded config.
func initLogger() {
	logConfig := logger.Config{
		Level:      viper.GetString("logger.level"),
		Console:    viper.GetBool("logger.console"),
		FilePath:   viper.GetString("logger.file_path"),
		MaxSize:    viper.GetInt("logger.max_size"),
		MaxBackups: viper.GetInt("logger.max_backups"),
		MaxAge:     viper.GetInt("logger.max_age"),
		Compress:   viper.GetBool("logger.compress"),
	}

	if err := logger.Init(logConfig); err != nil {
		fmt.Printf("failed to initialize logging: %v\n", err)
	}
}

// setupSignalHandler exits with the conventional interrupt status when
// the process is signalled.
func setupSignalHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Println("\ninterrupt received, shutting down...")
		logger.Info("interrupt received, cleaning up")
		logger.Sync()
		os.Exit(130)
	}()
}
