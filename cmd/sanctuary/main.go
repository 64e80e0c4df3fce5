package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	configPath string
	envFile    string
	workspace  string
	timeout    time.Duration

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sanctuary",
	Short: "Sanctuary - content strategy dashboard backend",
	Long: `Sanctuary serves the dashboard API: SEO analysis over a local document
store, LLM mind maps scored by influence weights, simulated video analysis,
the control zone simulator and the market sphere.

Run "sanctuary serve" to start the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the demonstration documents into an empty store",
	RunE:  runSeed,
}

var sphereCmd = &cobra.Command{
	Use:   "sphere",
	Short: "Print the market sphere layout, or pick at a screen position",
	Long: `Prints the sector layout as JSON. With --sector the niche layout of that
sector is printed instead. With --pick the object under the given normalized
device coordinates is reported.

Example:
  sanctuary sphere --sector setor1 --pick 0.1,-0.2`,
	RunE: runSphere,
}

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Inspect or change the influence weights",
}

var weightsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored weights (defaults when none are stored)",
	RunE:  runWeightsShow,
}

var weightsSaveCmd = &cobra.Command{
	Use:   "save [json]",
	Short: "Merge a weights document into the stored weights",
	Long: `Merges a JSON weights document into the stored one.

Example:
  sanctuary weights save '{"mapa_mental_niveis": {"nivel_1_filhos": 0.6}}'`,
	Args: cobra.ExactArgs(1),
	RunE: runWeightsSave,
}

var simulateCmd = &cobra.Command{
	Use:   "simulate [file]",
	Short: "Run the control zone simulation on a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSimulate,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Count words or list JSON keys of a file, or \"-\" for stdin",
	Long: `Runs the data assistant offline. With --type json the top-level kind
and keys of a JSON document are reported; otherwise word counts.

Example:
  sanctuary analyze --type json market.json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: <workspace>/.sanctuary/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Dotenv file with API keys (default: <workspace>/secrets.env)")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Timeout for one-shot commands")

	sphereCmd.Flags().String("sector", "", "Show the niches of this sector")
	sphereCmd.Flags().String("pick", "", "Pick at x,y in normalized device coordinates")
	sphereCmd.Flags().String("data", "", "Market data JSON file (default: built-in data)")

	analyzeCmd.Flags().String("type", "text", "Data type: text or json")
	analyzeCmd.Flags().Bool("prepare", false, "Print the input prepared for a model prompt instead")

	weightsCmd.AddCommand(weightsShowCmd)
	weightsCmd.AddCommand(weightsSaveCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(sphereCmd)
	rootCmd.AddCommand(weightsCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(analyzeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
