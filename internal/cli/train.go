package cli

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ppiankov/claimrisk/internal/cache"
	"github.com/ppiankov/claimrisk/internal/extract"
	"github.com/ppiankov/claimrisk/internal/model"
	"github.com/ppiankov/claimrisk/internal/ocr"
	"github.com/ppiankov/claimrisk/internal/pipeline"
	"github.com/ppiankov/claimrisk/internal/score"
)

var (
	modelOut     string
	epochs       int
	learningRate float64
	l2           float64
	trainTimeout time.Duration
)

// trainCmd represents the train command
var trainCmd = &cobra.Command{
	Use:   "train <dir>",
	Short: "Fit the local legitimacy classifier from a folder of documents",
	Long: `Train extracts features from every document under <dir>, labels each one with
a heuristic (authenticity markers, medical vocabulary, dates, length) and fits a
logistic-regression model. Point scoring.model_path at the output to use it.

The first directory level below <dir> names the declared document type:
  <dir>/invoice/*.pdf  <dir>/medical_report/*.png  <dir>/prescription/*.txt
Anything else is treated as "other".

Example:
  claimrisk train ./samples --out ~/.claimrisk/model.json`,
	Args: cobra.ExactArgs(1),
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)

	defaults := score.DefaultTrainOptions()
	trainCmd.Flags().StringVar(&modelOut, "out", "model.json", "output model file")
	trainCmd.Flags().IntVar(&epochs, "epochs", defaults.Epochs, "gradient descent epochs")
	trainCmd.Flags().Float64Var(&learningRate, "learning-rate", defaults.LearningRate, "gradient descent step size")
	trainCmd.Flags().Float64Var(&l2, "l2", defaults.L2, "L2 regularisation strength")
	trainCmd.Flags().DurationVar(&trainTimeout, "timeout", time.Hour, "overall timeout")
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), trainTimeout)
	defer cancel()

	refs, err := collectTrainingDocuments(args[0])
	if err != nil {
		return err
	}
	stderrf("⚙️  Extracting %d documents...\n", len(refs))

	engine, err := ocr.NewEngine(cfg.Extract.OCR)
	if err != nil {
		return fmt.Errorf("ocr engine: %w", err)
	}
	store := cache.NewFeatureStore(cache.New(cfg.Cache), cfg.Cache.DiskTTL)
	extractor := extract.New(cfg.Extract, engine, extract.WithFeatureStore(store))

	samples, skipped, err := trainingSamples(ctx, extractor, pipeline.NewLoader(cfg.Extract.OCR.Timeout, cfg.Extract.MaxDocumentBytes), refs)
	if err != nil {
		return err
	}
	if skipped > 0 {
		stderrf("⚠ Skipped %d unreadable documents\n", skipped)
	}

	m, err := score.Train(samples, score.TrainOptions{Epochs: epochs, LearningRate: learningRate, L2: l2})
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}
	if err := m.Save(modelOut); err != nil {
		return err
	}

	stderrf("✓ Trained on %d documents, training accuracy %.1f%%\n", m.Samples, m.Accuracy*100)
	stderrf("✓ Model written to %s\n", modelOut)
	return nil
}

// collectTrainingDocuments walks dir and derives each file's declared type from its first directory level
func collectTrainingDocuments(dir string) ([]model.DocumentRef, error) {
	var refs []model.DocumentRef
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		declared := model.DeclaredOther
		if first, _, ok := strings.Cut(filepath.ToSlash(rel), "/"); ok {
			declared = model.ParseDeclaredType(strings.ToLower(first))
		}
		refs = append(refs, model.DocumentRef{Path: path, DeclaredType: declared})
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "walk %s", dir)
	}
	if len(refs) == 0 {
		return nil, eris.Errorf("no documents found under %s", dir)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Path < refs[j].Path })
	return refs, nil
}

// trainingSamples extracts features and labels them; unreadable documents are skipped
func trainingSamples(ctx context.Context, extractor *extract.Extractor, loader *pipeline.Loader, refs []model.DocumentRef) ([]score.Sample, int, error) {
	docs, err := loader.LoadAll(ctx, refs)
	if err != nil {
		return nil, 0, fmt.Errorf("load documents: %w", err)
	}

	features, _ := extractor.ExtractAll(ctx, docs)

	samples := make([]score.Sample, 0, len(features))
	skipped := 0
	for _, f := range features {
		if f.ExtractionFailed() {
			skipped++
			continue
		}
		samples = append(samples, score.SampleFromDocument(f))
	}
	return samples, skipped, nil
}
