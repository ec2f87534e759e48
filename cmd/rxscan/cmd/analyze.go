package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/healthmate-tech/rxscan/internal/batch"
	"github.com/healthmate-tech/rxscan/internal/config"
	"github.com/healthmate-tech/rxscan/internal/pipeline"
)

const (
	outputFormatText = "text"
	outputFormatJSON = "json"
)

// analyzeCmd represents the analyze command.
var analyzeCmd = &cobra.Command{
	Use:   "analyze [files...]",
	Short: "Analyze prescription images or scanned PDFs",
	Long: `Analyze one or more prescription photos or scanned PDFs. Each input is
enhanced, OCR'd, matched against the medication vocabulary, and checked for
known drug-drug interactions.

Supported image formats: JPEG, PNG, BMP. PDF pages are analyzed one by one.

Examples:
  rxscan analyze prescription.jpg
  rxscan analyze scan1.png scan2.png --format json
  rxscan analyze referral.pdf --pages 1-2 --output results.json`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("no input files provided")
		}

		cfg := GetConfig()
		if err := cfg.Validate(); err != nil {
			return err
		}

		pages, _ := cmd.Flags().GetString("pages")

		b := pipeline.NewBuilder().
			WithLexiconPath(cfg.LexiconPath).
			WithRulesPath(cfg.RulesPath).
			WithOCRBackend(cfg.OCR.Backend).
			WithLanguage(cfg.OCR.Language).
			WithModelPaths(cfg.OCR.ModelPath, cfg.OCR.DictPath).
			WithThreads(cfg.OCR.NumThreads).
			WithPreprocessConfig(cfg.ToPipelineConfig().Preprocess)
		if cfg.GPU.Enabled {
			memLimit, err := config.ParseMemorySize(cfg.GPU.MemoryLimit)
			if err != nil {
				return fmt.Errorf("invalid GPU memory limit: %w", err)
			}
			b = b.WithGPU(true).WithGPUDevice(cfg.GPU.Device).WithGPUMemoryLimit(memLimit)
		}
		analyzer, err := b.Build()
		if err != nil {
			return fmt.Errorf("failed to build analysis pipeline: %w", err)
		}
		defer func() {
			if err := analyzer.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Error closing pipeline: %v\n", err)
			}
		}()

		batchCfg := batch.DefaultConfig()
		batchCfg.PDFPages = pages
		if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
			batchCfg.Workers = workers
		}
		batchCfg.Recursive, _ = cmd.Flags().GetBool("recursive")

		items, err := batch.Process(cmd.Context(), analyzer, args, batchCfg)
		if err != nil {
			return err
		}

		var out string
		switch cfg.Output.Format {
		case outputFormatJSON:
			obj := struct {
				Results []batch.Item  `json:"results"`
				Summary batch.Summary `json:"summary"`
			}{Results: items, Summary: batch.Summarize(items)}
			bts, err := json.MarshalIndent(obj, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal JSON: %w", err)
			}
			out = string(bts) + "\n"
		default:
			var sb strings.Builder
			for _, it := range items {
				writeTextResult(&sb, it.File, it.Page, &it.Result)
			}
			out = sb.String()
		}

		if cfg.Output.File != "" {
			if err := os.WriteFile(cfg.Output.File, []byte(out), 0o600); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s\n", cfg.Output.File)
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}

// writeTextResult renders one analysis in the human-readable format.
func writeTextResult(sb *strings.Builder, file string, page int, res *pipeline.Result) {
	if page > 0 {
		fmt.Fprintf(sb, "%s (page %d):\n", file, page)
	} else {
		fmt.Fprintf(sb, "%s:\n", file)
	}
	fmt.Fprintf(sb, "  Accuracy: %.1f\n", res.AccuracyScore)
	fmt.Fprintf(sb, "  Medications:\n")
	for _, m := range res.DisplayMedications() {
		fmt.Fprintf(sb, "    - %s\n", m)
	}
	if len(res.Interactions) > 0 {
		fmt.Fprintf(sb, "  Interaction warnings:\n")
		for _, w := range res.Interactions {
			fmt.Fprintf(sb, "    - %s\n", w)
		}
	}
}

func addAnalyzeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "text", "output format (text, json)")
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	cmd.Flags().String("pages", "", "PDF page selection, e.g. '1-3' or '1,4' (default: all)")
	cmd.Flags().IntP("workers", "w", 0, "concurrent analyses (default: number of CPUs)")
	cmd.Flags().BoolP("recursive", "r", false, "descend into directories given as inputs")
	cmd.Flags().String("backend", "", "OCR backend (tesseract, onnx)")
	cmd.Flags().StringP("language", "l", "", "tesseract recognition language")
	cmd.Flags().String("model", "", "onnx recognition model path")
	cmd.Flags().String("charset", "", "onnx recognition charset path")
	cmd.Flags().Bool("gpu", false, "enable CUDA acceleration for the onnx backend")
	cmd.Flags().Int("gpu-device", 0, "CUDA device ID")
	cmd.Flags().String("gpu-mem-limit", "", "GPU memory limit (e.g. '2GB', '512MB')")
	cmd.Flags().String("temp-dir", "", "directory for ephemeral enhanced images")
}

func bindAnalyzeFlags(cmd *cobra.Command) {
	flagBindings := []struct {
		key  string
		flag string
	}{
		{"output.format", "format"},
		{"output.file", "output"},
		{"ocr.backend", "backend"},
		{"ocr.language", "language"},
		{"ocr.model_path", "model"},
		{"ocr.dict_path", "charset"},
		{"gpu.enabled", "gpu"},
		{"gpu.device", "gpu-device"},
		{"gpu.memory_limit", "gpu-mem-limit"},
		{"preprocess.temp_dir", "temp-dir"},
	}
	for _, binding := range flagBindings {
		if err := viper.BindPFlag(binding.key, cmd.Flags().Lookup(binding.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", binding.flag, err))
		}
	}
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	addAnalyzeFlags(analyzeCmd)
	bindAnalyzeFlags(analyzeCmd)
}

// GetAnalyzeCommand returns the analyze command for testing purposes.
func GetAnalyzeCommand() *cobra.Command {
	return analyzeCmd
}
