package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"dropweight/adapters/rng"
	"dropweight/adapters/stats/bayes"
	"dropweight/adapters/stats/mle"
	"dropweight/app"
	"dropweight/domain/core"
	"dropweight/domain/dataset"
	"dropweight/ports"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dropweight",
		Short: "Infer item drop weights from observed transformation datasets",
	}

	rootCmd.AddCommand(
		newMLECmd(),
		newBayesCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newMLECmd() *cobra.Command {
	var out, category string
	var perInput bool
	var learningRate, threshold float64
	var iterations int

	cmd := &cobra.Command{
		Use:   "mle [dataset-files...]",
		Short: "Maximum-likelihood point estimate of drop weights",
		Long: `Run the gradient-ascent point estimator over dataset JSON files.

Example: dropweight mle contracts/*.json --out mle.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			datasets, err := loadDatasets(args)
			if err != nil {
				return err
			}

			opts := ports.DefaultMLEOptions()
			if cmd.Flags().Changed("learning-rate") {
				opts.LearningRate = learningRate
			}
			if cmd.Flags().Changed("iterations") {
				opts.Iterations = iterations
			}
			if cmd.Flags().Changed("convergence-threshold") {
				opts.ConvergenceThreshold = threshold
			}

			service := newService()
			req := app.InferenceRequest{
				RunID:    core.NewRunID(),
				Category: category,
				Datasets: datasets,
				MLE:      opts,
			}

			var result interface{}
			if perInput {
				result, err = service.EstimateMLEPerInput(cmd.Context(), req)
			} else {
				result, err = service.EstimateMLE(cmd.Context(), req)
			}
			if err != nil {
				return err
			}
			return writeResult(result, out)
		},
	}

	cmd.Flags().StringVar(&out, "out", "mle.json", "output file (- for stdout)")
	cmd.Flags().StringVar(&category, "category", "", "dataset category label")
	cmd.Flags().BoolVar(&perInput, "per-input", false, "estimate each input item independently")
	cmd.Flags().Float64Var(&learningRate, "learning-rate", 0.001, "gradient ascent learning rate")
	cmd.Flags().IntVar(&iterations, "iterations", 6000, "gradient ascent iterations")
	cmd.Flags().Float64Var(&threshold, "convergence-threshold", 0, "stop early when gradient norm falls below this")
	return cmd
}

func newBayesCmd() *cobra.Command {
	var out, category string
	var perInput bool
	var chainLength, burnIn, thinning int
	var stepSize, prior, credibleMass float64
	var seed int64

	cmd := &cobra.Command{
		Use:   "bayes [dataset-files...]",
		Short: "Bayesian posterior over drop weights via MCMC",
		Long: `Sample the posterior weight distribution over dataset JSON files.

Example: dropweight bayes contracts/*.json --seed 42 --out bayesian.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			datasets, err := loadDatasets(args)
			if err != nil {
				return err
			}

			opts := ports.DefaultBayesOptions()
			opts.ChainLength = chainLength
			opts.BurnIn = burnIn
			opts.Thinning = thinning
			opts.StepSize = stepSize
			opts.PriorConcentration = prior
			opts.CredibleMass = credibleMass
			opts.Seed = seed

			service := newService()
			req := app.InferenceRequest{
				RunID:    core.NewRunID(),
				Category: category,
				Datasets: datasets,
				Bayes:    opts,
			}

			var result interface{}
			if perInput {
				result, err = service.InferBayesianPerInput(cmd.Context(), req)
			} else {
				result, err = service.InferBayesian(cmd.Context(), req)
			}
			if err != nil {
				return err
			}
			return writeResult(result, out)
		},
	}

	cmd.Flags().StringVar(&out, "out", "bayesian.json", "output file (- for stdout)")
	cmd.Flags().StringVar(&category, "category", "", "dataset category label")
	cmd.Flags().BoolVar(&perInput, "per-input", false, "infer each input item independently")
	cmd.Flags().IntVar(&chainLength, "chain-length", 10000, "total MCMC steps")
	cmd.Flags().IntVar(&burnIn, "burn-in", 2000, "steps discarded before recording")
	cmd.Flags().IntVar(&thinning, "thinning", 5, "record every n-th step")
	cmd.Flags().Float64Var(&stepSize, "step-size", 0.05, "random-walk proposal scale")
	cmd.Flags().Float64Var(&prior, "prior", 1.0, "symmetric Dirichlet concentration")
	cmd.Flags().Float64Var(&credibleMass, "credible-mass", 0.95, "credible interval mass")
	cmd.Flags().Int64Var(&seed, "seed", 0, "RNG seed for reproducible chains")
	return cmd
}

func newService() *app.InferenceService {
	return app.NewInferenceService(
		mle.NewEstimator(),
		bayes.NewEstimator(rng.NewDeterministic()),
		nil, // one-shot CLI runs do not cache
	)
}

// loadDatasets reads dataset JSON files. A file may hold a single dataset
// object, an array of datasets, or an envelope with a "datasets" array.
func loadDatasets(paths []string) ([]dataset.Dataset, error) {
	var datasets []dataset.Dataset
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if !gjson.ValidBytes(raw) {
			return nil, fmt.Errorf("%s is not valid JSON", path)
		}

		doc := gjson.ParseBytes(raw)
		switch {
		case doc.IsArray():
			var batch []dataset.Dataset
			if err := json.Unmarshal(raw, &batch); err != nil {
				return nil, fmt.Errorf("failed to decode %s: %w", path, err)
			}
			datasets = append(datasets, batch...)
		case doc.Get("datasets").IsArray():
			var batch []dataset.Dataset
			if err := json.Unmarshal([]byte(doc.Get("datasets").Raw), &batch); err != nil {
				return nil, fmt.Errorf("failed to decode %s: %w", path, err)
			}
			datasets = append(datasets, batch...)
		default:
			var single dataset.Dataset
			if err := json.Unmarshal(raw, &single); err != nil {
				return nil, fmt.Errorf("failed to decode %s: %w", path, err)
			}
			datasets = append(datasets, single)
		}
	}
	return datasets, nil
}

func writeResult(result interface{}, out string) error {
	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}
	if out == "-" {
		fmt.Println(string(payload))
		return nil
	}
	if err := os.WriteFile(out, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	return nil
}
