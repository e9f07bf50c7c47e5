package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

// RankingConfig holds the tunable constants of the selection engine. The
// defaults reproduce the daemon ecosystem's observed behavior; a TOML file
// can override individual values.
type RankingConfig struct {
	// Amplitude of the uniform random jitter added to every similarity
	// score to break exact ties
	JitterAmplitude float64 `toml:"jitter_amplitude"`

	// Recency penalty scale: a track d positions back in history is
	// penalized by -1/(d*recency_falloff)
	RecencyFalloff float64 `toml:"recency_falloff"`

	// Dominant penalty applied to the most recent play so auto-advance
	// never immediately repeats the active track
	HeadMalus float64 `toml:"head_malus"`

	// Score assumed for candidates missing from the score map when
	// ordering by similarity
	MissingScore float64 `toml:"missing_score"`

	// Minimum weighted text-match score for a fuzzy search hit
	SearchThreshold float64 `toml:"search_threshold"`

	// Per-field weights for fuzzy search
	TitleWeight   float64 `toml:"title_weight"`
	ArtistWeight  float64 `toml:"artist_weight"`
	UserTagWeight float64 `toml:"user_tag_weight"`
}

// DefaultRankingConfig returns hard-coded safe defaults.
func DefaultRankingConfig() *RankingConfig {
	return &RankingConfig{
		JitterAmplitude: 1e-4,
		RecencyFalloff:  0.3,
		HeadMalus:       200,
		MissingScore:    -100,
		SearchThreshold: 35,
		TitleWeight:     1.0,
		ArtistWeight:    0.8,
		UserTagWeight:   0.6,
	}
}

var (
	rankingCfg     *RankingConfig
	rankingCfgOnce sync.Once
	rankingCfgMu   sync.RWMutex
)

// GetRankingConfig loads the ranking config from TOML if MUSIDEX_RANKING_CONFIG
// is set, falling back to well-known locations and then to defaults.
func GetRankingConfig() *RankingConfig {
	rankingCfgOnce.Do(func() {
		cfg := DefaultRankingConfig()
		paths := candidateRankingConfigPaths()
		if explicit := os.Getenv("MUSIDEX_RANKING_CONFIG"); explicit != "" {
			paths = []string{explicit}
		}
		for _, p := range paths {
			if fileCfg, err := loadRankingConfigFromPath(p); err == nil && fileCfg != nil {
				mergeRankingConfig(cfg, fileCfg)
				break
			}
		}
		rankingCfgMu.Lock()
		rankingCfg = cfg
		rankingCfgMu.Unlock()
	})
	rankingCfgMu.RLock()
	defer rankingCfgMu.RUnlock()
	return rankingCfg
}

func loadRankingConfigFromPath(path string) (*RankingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var cfg RankingConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeRankingConfig overlays non-zero override values on base. Zero is not a
// meaningful value for any of these knobs, so it doubles as "unset".
func mergeRankingConfig(base, override *RankingConfig) {
	if base == nil || override == nil {
		return
	}
	if override.JitterAmplitude > 0 {
		base.JitterAmplitude = override.JitterAmplitude
	}
	if override.RecencyFalloff > 0 {
		base.RecencyFalloff = override.RecencyFalloff
	}
	if override.HeadMalus > 0 {
		base.HeadMalus = override.HeadMalus
	}
	if override.MissingScore != 0 {
		base.MissingScore = override.MissingScore
	}
	if override.SearchThreshold > 0 {
		base.SearchThreshold = override.SearchThreshold
	}
	if override.TitleWeight > 0 {
		base.TitleWeight = override.TitleWeight
	}
	if override.ArtistWeight > 0 {
		base.ArtistWeight = override.ArtistWeight
	}
	if override.UserTagWeight > 0 {
		base.UserTagWeight = override.UserTagWeight
	}
}

// candidateRankingConfigPaths returns common locations to auto-discover the
// ranking config.
func candidateRankingConfigPaths() []string {
	paths := []string{
		"ranking.toml",
		filepath.Join("config", "ranking.toml"),
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "musidex", "ranking.toml"))
	}
	if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", "musidex", "ranking.toml"))
	}
	paths = append(paths, filepath.Join(string(os.PathSeparator), "etc", "musidex", "ranking.toml"))
	return paths
}
