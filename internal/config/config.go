package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultN      = 100
	DefaultT      = 10
	DefaultSigmaU = 1.0
	DefaultSigmaC = 1.0
	DefaultSeed   = 1
	DefaultDraws  = 20
)

type Config struct {
	Data       DataConfig       `yaml:"data"`
	Estimation EstimationConfig `yaml:"estimation"`
}

// DataConfig describes the synthetic panel to generate.
type DataConfig struct {
	N      int       `yaml:"n"`
	T      int       `yaml:"t"`
	Beta   []float64 `yaml:"beta"`
	SigmaU float64   `yaml:"sigma_u"`
	SigmaC float64   `yaml:"sigma_c"`
	Seed   uint64    `yaml:"seed"`
}

// EstimationConfig selects the evaluator and bounds the optimizer.
type EstimationConfig struct {
	Method        string `yaml:"method"`   // quad, sim
	Sampling      string `yaml:"sampling"` // grid, mc (sim only)
	Draws         int    `yaml:"draws"`    // R or Q
	DrawSeed      uint64 `yaml:"draw_seed"`
	Workers       int    `yaml:"workers"`
	MaxIterations int    `yaml:"max_iterations"`
	MaxFuncEvals  int    `yaml:"max_func_evals"`
}

func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			N:      DefaultN,
			T:      DefaultT,
			Beta:   []float64{1, 1},
			SigmaU: DefaultSigmaU,
			SigmaC: DefaultSigmaC,
			Seed:   DefaultSeed,
		},
		Estimation: EstimationConfig{
			Method:        "quad",
			Sampling:      "grid",
			Draws:         DefaultDraws,
			DrawSeed:      DefaultSeed,
			Workers:       1,
			MaxIterations: 1000,
			MaxFuncEvals:  5000,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Data.N < 1 || c.Data.T < 1 {
		return fmt.Errorf("config: panel dimensions must be positive, got n=%d t=%d", c.Data.N, c.Data.T)
	}
	if len(c.Data.Beta) == 0 {
		return fmt.Errorf("config: beta must have at least one coefficient")
	}
	if c.Data.SigmaU <= 0 {
		return fmt.Errorf("config: sigma_u must be positive, got %f", c.Data.SigmaU)
	}
	if c.Data.SigmaC < 0 {
		return fmt.Errorf("config: sigma_c must be non-negative, got %f", c.Data.SigmaC)
	}
	if c.Estimation.Draws < 1 {
		return fmt.Errorf("config: draws must be positive, got %d", c.Estimation.Draws)
	}
	switch c.Estimation.Method {
	case "quad", "sim":
	default:
		return fmt.Errorf("config: unknown method %q", c.Estimation.Method)
	}
	switch c.Estimation.Sampling {
	case "grid", "mc":
	default:
		return fmt.Errorf("config: unknown sampling %q", c.Estimation.Sampling)
	}
	return nil
}

// TrueTheta assembles the generating parameter vector (beta, sigma_u,
// sigma_c) from the data block.
func (c *Config) TrueTheta() []float64 {
	th := make([]float64, 0, len(c.Data.Beta)+2)
	th = append(th, c.Data.Beta...)
	th = append(th, c.Data.SigmaU, c.Data.SigmaC)
	return th
}
