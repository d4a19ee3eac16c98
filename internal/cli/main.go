package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "youtube-highlighter <url-or-vtt>",
		Short:        "Extract highlight clips from a video's subtitle transcript",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	// Visible flags
	root.Flags().String("out", "out", "Output directory")
	root.Flags().Int("clips", 5, "Number of highlights to extract")
	root.Flags().Bool("no-video", false, "Analyze only, skip video download and cutting")
	root.Flags().BoolP("verbose", "v", false, "Debug logging")

	// Hidden tuning flags (internal)
	root.Flags().Int("min", 45, "Minimum highlight duration seconds")
	root.Flags().Int("margin", 2, "Clip margin seconds")
	root.Flags().Int("token-budget", 3000, "Token budget per model call")
	root.Flags().String("cache", ".cache", "Cache directory")
	for _, f := range []string{"min", "margin", "token-budget", "cache"} {
		_ = root.Flags().MarkHidden(f)
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
