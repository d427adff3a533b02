package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"spexport/clients"
	"spexport/exporter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "spexport",
		Short: "Export tool for SharePoint document libraries",
		Long: `spexport is a CLI tool for exporting SharePoint document libraries
onto local disk.

It mirrors each library's folder tree under an existing output directory
and writes one manifest per library recording where every file ended up.`,
		Run: export,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.spexport.yaml)")

	// SharePoint flags
	rootCmd.Flags().StringP("site-url", "u", "", "SharePoint site URL")
	rootCmd.Flags().StringP("token", "t", "", "SharePoint bearer token")
	rootCmd.Flags().StringP("username", "n", "", "SharePoint username")
	rootCmd.Flags().StringP("password", "p", "", "SharePoint password")

	// Export flags
	rootCmd.Flags().StringP("output", "o", "", "Existing directory the libraries are exported into")
	rootCmd.Flags().StringSliceP("libraries", "l", nil, "List of document libraries to export (comma-separated)")
	rootCmd.Flags().BoolP("recurse", "r", false, "Export subfolders recursively")
	rootCmd.Flags().BoolP("confirm", "c", false, "Ask before exporting each library")

	// Logging flags
	rootCmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.Flags().String("log-format", "console", "Log format (console or json)")

	// Bind flags to viper
	viper.BindPFlag("sharepoint.site_url", rootCmd.Flags().Lookup("site-url"))
	viper.BindPFlag("sharepoint.token", rootCmd.Flags().Lookup("token"))
	viper.BindPFlag("sharepoint.username", rootCmd.Flags().Lookup("username"))
	viper.BindPFlag("sharepoint.password", rootCmd.Flags().Lookup("password"))
	viper.BindPFlag("export.output_dir", rootCmd.Flags().Lookup("output"))
	viper.BindPFlag("export.libraries", rootCmd.Flags().Lookup("libraries"))
	viper.BindPFlag("export.recurse", rootCmd.Flags().Lookup("recurse"))
	viper.BindPFlag("export.confirm", rootCmd.Flags().Lookup("confirm"))
	viper.BindPFlag("log.level", rootCmd.Flags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.Flags().Lookup("log-format"))

	// Bind environment variables
	viper.BindEnv("sharepoint.site_url", "SHAREPOINT_SITE_URL")
	viper.BindEnv("sharepoint.token", "SHAREPOINT_TOKEN")
	viper.BindEnv("sharepoint.username", "SHAREPOINT_USERNAME")
	viper.BindEnv("sharepoint.password", "SHAREPOINT_PASSWORD")
	viper.BindEnv("export.output_dir", "EXPORT_OUTPUT_DIR")
	viper.BindEnv("export.libraries", "EXPORT_LIBRARIES")
	viper.BindEnv("export.recurse", "EXPORT_RECURSE")
	viper.BindEnv("export.confirm", "EXPORT_CONFIRM")
	viper.BindEnv("log.level", "LOG_LEVEL")
	viper.BindEnv("log.format", "LOG_FORMAT")
}

func initConfig() {
	// Load .env file if present
	godotenv.Load()

	if cfgFile != "" {
		// Use specified config file
		viper.SetConfigFile(cfgFile)
	} else {
		// Look for config file in home directory
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Look for config in home directory with name ".spexport" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".spexport")
	}

	viper.AutomaticEnv() // read environment variables

	// If config file is found, read it
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func buildLogger() *zap.Logger {
	level := zapcore.InfoLevel
	if raw := viper.GetString("log.level"); raw != "" {
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			fmt.Fprintf(os.Stderr, "Unknown log level %q, using info\n", raw)
			level = zapcore.InfoLevel
		}
	}

	var cfg zap.Config
	if viper.GetString("log.format") == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

func validation(log *zap.Logger) {
	// Validate required flags
	if viper.GetString("sharepoint.site_url") == "" {
		log.Fatal("SharePoint site URL is required")
	}
	if viper.GetString("sharepoint.token") == "" && viper.GetString("sharepoint.username") == "" {
		log.Fatal("SharePoint credentials are required: set a token or a username and password")
	}
	if viper.GetString("export.output_dir") == "" {
		log.Fatal("Output directory is required")
	}
	if len(libraryList()) == 0 {
		log.Fatal("At least one library is required")
	}
}

// libraryList returns the configured libraries. Values from flags arrive
// already split; an EXPORT_LIBRARIES env value arrives as one string and
// is split on commas here.
func libraryList() []string {
	libs := viper.GetStringSlice("export.libraries")
	if len(libs) == 1 && strings.Contains(libs[0], ",") {
		split := strings.Split(libs[0], ",")
		libs = libs[:0:0]
		for _, lib := range split {
			if lib = strings.TrimSpace(lib); lib != "" {
				libs = append(libs, lib)
			}
		}
	}
	return libs
}

// stdinConfirm prompts on stderr and reads the answer from stdin. Only an
// explicit yes exports the library.
func stdinConfirm() func(string) bool {
	reader := bufio.NewReader(os.Stdin)
	return func(library string) bool {
		fmt.Fprintf(os.Stderr, "Export library %q? [y/N]: ", library)
		answer, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes"
	}
}

func export(cmd *cobra.Command, args []string) {
	log := buildLogger()
	defer log.Sync()

	validation(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := clients.NewSharePointClient(
		viper.GetString("sharepoint.site_url"),
		viper.GetString("sharepoint.token"),
		viper.GetString("sharepoint.username"),
		viper.GetString("sharepoint.password"),
	)

	var confirm func(string) bool
	if viper.GetBool("export.confirm") {
		confirm = stdinConfirm()
	}

	exp := exporter.NewExporter(&exporter.Dependencies{
		Remote:  client,
		Confirm: confirm,
		Log:     log,
	})

	if err := exp.Run(ctx, exporter.Config{
		OutputRoot: viper.GetString("export.output_dir"),
		Libraries:  libraryList(),
		Recurse:    viper.GetBool("export.recurse"),
	}); err != nil {
		log.Fatal("Export failed", zap.Error(err))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
