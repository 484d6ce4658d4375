package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/panelml/internal/config"
	"github.com/san-kum/panelml/internal/estimate"
	"github.com/san-kum/panelml/internal/likelihood"
	"github.com/san-kum/panelml/internal/panel"
	"github.com/san-kum/panelml/internal/simulate"
	"github.com/san-kum/panelml/internal/storage"
)

var (
	dataDir    string
	configFile string
	preset     string

	nInd     int
	nPer     int
	beta     []float64
	sigmaU   float64
	sigmaC   float64
	dataSeed uint64

	method   string
	sampling string
	draws    int
	drawSeed uint64
	workers  int
	maxIter  int
	maxFeval int

	outFile    string
	paramIndex int
	sweepWidth float64
	sweepSteps int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "panelml",
		Short: "random-effects panel likelihood estimation",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".panelml", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")

	estimateCmd := &cobra.Command{
		Use:   "estimate",
		Short: "simulate a panel and estimate the model parameters",
		RunE:  runEstimate,
	}
	addDataFlags(estimateCmd)
	addEstimationFlags(estimateCmd)

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "simulate a panel and write it as CSV",
		RunE:  runSimulate,
	}
	addDataFlags(simulateCmd)
	simulateCmd.Flags().StringVar(&outFile, "out", "", "output file (default stdout)")

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "compare simulated and quadrature log likelihoods across draw counts",
		RunE:  runCompare,
	}
	addDataFlags(compareCmd)
	compareCmd.Flags().Uint64Var(&drawSeed, "draw-seed", 1, "seed for monte carlo draws")

	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "plot the criterion profile around the quadrature estimate",
		RunE:  runProfile,
	}
	addDataFlags(profileCmd)
	addEstimationFlags(profileCmd)
	profileCmd.Flags().IntVar(&paramIndex, "param", 0, "theta index to sweep")
	profileCmd.Flags().Float64Var(&sweepWidth, "width", 0.5, "half-width of the sweep")
	profileCmd.Flags().IntVar(&sweepSteps, "steps", 41, "number of sweep points")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored estimation runs",
		RunE:  runList,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range config.ListPresets() {
				fmt.Println(p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(estimateCmd, simulateCmd, compareCmd, profileCmd, listCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addDataFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&nInd, "n", config.DefaultN, "number of individuals")
	cmd.Flags().IntVar(&nPer, "t", config.DefaultT, "periods per individual")
	cmd.Flags().Float64SliceVar(&beta, "beta", []float64{1, 1}, "true coefficients")
	cmd.Flags().Float64Var(&sigmaU, "sigma-u", config.DefaultSigmaU, "observation noise scale")
	cmd.Flags().Float64Var(&sigmaC, "sigma-c", config.DefaultSigmaC, "random effect scale")
	cmd.Flags().Uint64Var(&dataSeed, "seed", config.DefaultSeed, "data generation seed")
}

func addEstimationFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&method, "method", "quad", "evaluator: quad or sim")
	cmd.Flags().StringVar(&sampling, "sampling", "grid", "sim sampling: grid or mc")
	cmd.Flags().IntVar(&draws, "draws", config.DefaultDraws, "draw or node count (R or Q)")
	cmd.Flags().Uint64Var(&drawSeed, "draw-seed", 1, "seed for monte carlo draws")
	cmd.Flags().IntVar(&workers, "workers", 1, "parallel workers for the individual loop")
	cmd.Flags().IntVar(&maxIter, "max-iter", 1000, "optimizer iteration budget")
	cmd.Flags().IntVar(&maxFeval, "max-feval", 5000, "optimizer function evaluation budget")
}

// resolveConfig merges preset, config file, and flags, with flags winning.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("n") {
		cfg.Data.N = nInd
	}
	if flags.Changed("t") {
		cfg.Data.T = nPer
	}
	if flags.Changed("beta") {
		cfg.Data.Beta = beta
	}
	if flags.Changed("sigma-u") {
		cfg.Data.SigmaU = sigmaU
	}
	if flags.Changed("sigma-c") {
		cfg.Data.SigmaC = sigmaC
	}
	if flags.Changed("seed") {
		cfg.Data.Seed = dataSeed
	}
	if flags.Changed("method") {
		cfg.Estimation.Method = method
	}
	if flags.Changed("sampling") {
		cfg.Estimation.Sampling = sampling
	}
	if flags.Changed("draws") {
		cfg.Estimation.Draws = draws
	}
	if flags.Changed("draw-seed") {
		cfg.Estimation.DrawSeed = drawSeed
	}
	if flags.Changed("workers") {
		cfg.Estimation.Workers = workers
	}
	if flags.Changed("max-iter") {
		cfg.Estimation.MaxIterations = maxIter
	}
	if flags.Changed("max-feval") {
		cfg.Estimation.MaxFuncEvals = maxFeval
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildEvaluator(ec *config.EstimationConfig) (likelihood.Evaluator, error) {
	switch ec.Method {
	case "quad":
		ev, err := likelihood.NewQuadrature(ec.Draws)
		if err != nil {
			return nil, err
		}
		return ev.Parallel(ec.Workers), nil
	case "sim":
		var strategy likelihood.Strategy
		if ec.Sampling == "mc" {
			strategy = likelihood.NewMonteCarlo(ec.Draws, ec.DrawSeed)
		} else {
			strategy = likelihood.FixedGrid{R: ec.Draws}
		}
		return likelihood.NewSimulated(strategy).Parallel(ec.Workers), nil
	}
	return nil, fmt.Errorf("unknown method %q", ec.Method)
}

func runEstimate(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	p, _, err := simulate.Generate(cfg.TrueTheta(), cfg.Data.N, cfg.Data.T, cfg.Data.Seed)
	if err != nil {
		return err
	}
	ev, err := buildEvaluator(&cfg.Estimation)
	if err != nil {
		return err
	}
	theta0, err := estimate.StartingPoint(p)
	if err != nil {
		return err
	}

	res, err := estimate.Fit(ev, p, theta0, estimate.Options{
		MaxIterations: cfg.Estimation.MaxIterations,
		MaxFuncEvals:  cfg.Estimation.MaxFuncEvals,
	})
	if err != nil {
		return err
	}

	printResult(res, p.K())
	if !res.Converged {
		fmt.Printf("\noptimizer did not converge (%d iterations, %d evaluations)\n",
			res.Iterations, res.FuncEvals)
	}
	if res.InferenceErr != nil {
		fmt.Printf("\nno standard errors: %v\n", res.InferenceErr)
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.RunMetadata{
		Method:     cfg.Estimation.Method,
		Sampling:   cfg.Estimation.Sampling,
		Draws:      cfg.Estimation.Draws,
		N:          cfg.Data.N,
		T:          cfg.Data.T,
		Seed:       cfg.Data.Seed,
		Converged:  res.Converged,
		Iterations: res.Iterations,
		FuncEvals:  res.FuncEvals,
		Criterion:  res.Criterion,
		Theta:      res.Theta,
		SE:         res.SE,
		TStat:      res.TStat,
	})
	if err != nil {
		return err
	}
	fmt.Printf("\nsaved run %s\n", runID)
	return nil
}

func printResult(res *estimate.Result, k int) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "param\testimate\tse\tt")
	for i, v := range res.Theta {
		name := fmt.Sprintf("beta_%d", i+1)
		switch i {
		case k:
			name = "sigma_u"
		case k + 1:
			name = "sigma_c"
		}
		se, tstat := "-", "-"
		if res.SE != nil {
			se = fmt.Sprintf("%.4f", res.SE[i])
			tstat = fmt.Sprintf("%.2f", res.TStat[i])
		}
		fmt.Fprintf(w, "%s\t%.4f\t%s\t%s\n", name, v, se, tstat)
	}
	w.Flush()
	fmt.Printf("\ncriterion %.6f, %d iterations, %d evaluations\n",
		res.Criterion, res.Iterations, res.FuncEvals)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	p, effects, err := simulate.Generate(cfg.TrueTheta(), cfg.Data.N, cfg.Data.T, cfg.Data.Seed)
	if err != nil {
		return err
	}

	out := os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	defer w.Flush()

	header := []string{"individual", "period", "y"}
	for d := 0; d < p.K(); d++ {
		header = append(header, fmt.Sprintf("x_%d", d+1))
	}
	header = append(header, "effect")
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < p.N(); i++ {
		for t := 0; t < p.T(); t++ {
			row := []string{
				strconv.Itoa(i),
				strconv.Itoa(t),
				strconv.FormatFloat(p.Y[i][t], 'g', -1, 64),
			}
			for _, v := range p.X[i][t] {
				row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
			}
			row = append(row, strconv.FormatFloat(effects[i], 'g', -1, 64))
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	p, _, err := simulate.Generate(cfg.TrueTheta(), cfg.Data.N, cfg.Data.T, cfg.Data.Seed)
	if err != nil {
		return err
	}
	th := panel.Theta(cfg.TrueTheta())

	ref, err := likelihood.NewQuadrature(256)
	if err != nil {
		return err
	}
	refLL, err := ref.LogLikelihood(p, th)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "R\tgrid\tmonte carlo\tquadrature\tgrid gap\tquad gap")
	for _, r := range []int{5, 10, 20, 50, 100, 200} {
		grid, err := likelihood.NewSimulated(likelihood.FixedGrid{R: r}).LogLikelihood(p, th)
		if err != nil {
			return err
		}
		mc, err := likelihood.NewSimulated(likelihood.NewMonteCarlo(r, drawSeed)).LogLikelihood(p, th)
		if err != nil {
			return err
		}
		quad, err := likelihood.NewQuadrature(r)
		if err != nil {
			return err
		}
		qll, err := quad.LogLikelihood(p, th)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%.6f\t%.6f\t%.6f\t%.2e\t%.2e\n",
			r, grid, mc, qll, math.Abs(grid-refLL), math.Abs(qll-refLL))
	}
	w.Flush()
	fmt.Printf("\nreference (quadrature, 256 nodes): %.6f\n", refLL)
	return nil
}

func runProfile(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	p, _, err := simulate.Generate(cfg.TrueTheta(), cfg.Data.N, cfg.Data.T, cfg.Data.Seed)
	if err != nil {
		return err
	}
	ev, err := buildEvaluator(&cfg.Estimation)
	if err != nil {
		return err
	}
	theta0, err := estimate.StartingPoint(p)
	if err != nil {
		return err
	}
	res, err := estimate.Fit(ev, p, theta0, estimate.Options{
		MaxIterations: cfg.Estimation.MaxIterations,
		MaxFuncEvals:  cfg.Estimation.MaxFuncEvals,
	})
	if err != nil {
		return err
	}
	if paramIndex < 0 || paramIndex >= len(res.Theta) {
		return fmt.Errorf("param index %d out of range [0,%d)", paramIndex, len(res.Theta))
	}
	if sweepSteps < 3 {
		return fmt.Errorf("need at least 3 sweep points, got %d", sweepSteps)
	}

	obj := estimate.Criterion(ev, p)
	values, err := sweepCriterion(obj, res.Theta, paramIndex, sweepWidth, sweepSteps)
	if err != nil {
		return err
	}

	fmt.Println(asciigraph.Plot(values,
		asciigraph.Height(15),
		asciigraph.Caption(fmt.Sprintf("criterion around theta[%d]=%.4f (half-width %.2f)",
			paramIndex, res.Theta[paramIndex], sweepWidth))))
	return nil
}

// sweepCriterion evaluates obj along an equally spaced sweep of theta[idx],
// producing one value per step so the plot x-axis stays aligned with the
// sweep range. Points outside the valid parameter region evaluate to +Inf
// and are clamped to the largest finite value seen.
func sweepCriterion(obj func([]float64) float64, theta panel.Theta, idx int, width float64, steps int) ([]float64, error) {
	values := make([]float64, steps)
	maxFinite := math.Inf(-1)
	for s := 0; s < steps; s++ {
		th := theta.Clone()
		th[idx] += -width + 2*width*float64(s)/float64(steps-1)
		values[s] = obj(th)
		if !math.IsInf(values[s], 1) && values[s] > maxFinite {
			maxFinite = values[s]
		}
	}
	if math.IsInf(maxFinite, -1) {
		return nil, fmt.Errorf("criterion is infinite over the whole sweep")
	}
	for s := range values {
		if math.IsInf(values[s], 1) {
			values[s] = maxFinite
		}
	}
	return values, nil
}

func runList(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no stored runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "id\tmethod\tdraws\tn\tt\tconverged\tcriterion")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%v\t%.6f\n",
			r.ID, r.Method, r.Draws, r.N, r.T, r.Converged, r.Criterion)
	}
	return w.Flush()
}
