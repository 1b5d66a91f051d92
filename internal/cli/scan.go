package cli

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/triage-ai/sentinel/internal/scan"
)

var redactFlag bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan stdin for prompt-injection patterns",
	Long: `Runs the stateless injection scanner over text read from stdin and
prints the result as JSON. With --redact, every matched occurrence is
replaced by its canonical placeholder and the redacted text is included.`,
	RunE: scanCommand,
}

func init() {
	scanCmd.Flags().BoolVar(&redactFlag, "redact", false, "redact matches instead of only reporting them")
	rootCmd.AddCommand(scanCmd)
}

type scanOutput struct {
	Detected bool          `json:"detected"`
	Matches  []matchOutput `json:"matches,omitempty"`
	Redacted string        `json:"redacted,omitempty"`
}

type matchOutput struct {
	Label      string `json:"label"`
	Category   string `json:"category"`
	Confidence string `json:"confidence"`
}

func scanCommand(cmd *cobra.Command, _ []string) error {
	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}
	text := string(raw)

	result := scan.Scan(text)
	out := scanOutput{Detected: result.Detected}
	for _, m := range result.Matches {
		out.Matches = append(out.Matches, matchOutput{
			Label:      m.Label,
			Category:   m.Category.String(),
			Confidence: m.Confidence.String(),
		})
	}
	if redactFlag {
		out.Redacted = scan.Redact(text).Text
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
