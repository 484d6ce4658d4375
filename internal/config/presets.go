package config

// Presets are named, ready-to-run estimation scenarios.
var presets = map[string]*Config{
	"smoke": {
		Data: DataConfig{N: 50, T: 5, Beta: []float64{1, 1}, SigmaU: 1, SigmaC: 1, Seed: 1},
		Estimation: EstimationConfig{
			Method: "quad", Sampling: "grid", Draws: 10, DrawSeed: 1,
			Workers: 1, MaxIterations: 500, MaxFuncEvals: 2000,
		},
	},
	"benchmark": {
		Data: DataConfig{N: 100, T: 10, Beta: []float64{1, 1}, SigmaU: 1, SigmaC: 1, Seed: 1},
		Estimation: EstimationConfig{
			Method: "quad", Sampling: "grid", Draws: 20, DrawSeed: 1,
			Workers: 1, MaxIterations: 1000, MaxFuncEvals: 5000,
		},
	},
	"lowdraws": {
		Data: DataConfig{N: 100, T: 10, Beta: []float64{1, 1}, SigmaU: 1, SigmaC: 1, Seed: 1},
		Estimation: EstimationConfig{
			Method: "sim", Sampling: "mc", Draws: 5, DrawSeed: 1,
			Workers: 1, MaxIterations: 1000, MaxFuncEvals: 5000,
		},
	},
}

// GetPreset returns a copy of the named preset, or nil if it is unknown.
func GetPreset(name string) *Config {
	p, ok := presets[name]
	if !ok {
		return nil
	}
	cp := *p
	cp.Data.Beta = append([]float64(nil), p.Data.Beta...)
	return &cp
}

func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	return names
}
