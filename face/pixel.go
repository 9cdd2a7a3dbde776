package face

import "context"

// Config tunes the PixelComparer heuristic.
type Config struct {
	// MinImageBytes rejects decoded images smaller than this.
	MinImageBytes int
	// MaxSizeDelta rejects pairs whose decoded sizes differ by more bytes.
	MaxSizeDelta int
	// MaxSizeRatio rejects pairs whose larger/smaller size ratio exceeds this.
	MaxSizeRatio float64
	// SampleSize caps how many leading bytes are compared.
	SampleSize int
	// ByteTolerance is the per-byte absolute difference still counted as a match.
	ByteTolerance int
	// MatchThreshold is the fraction of sampled bytes that must match.
	MatchThreshold float64
}

// DefaultConfig returns the standard heuristic parameters.
func DefaultConfig() Config {
	return Config{
		MinImageBytes:  1000,
		MaxSizeDelta:   10000,
		MaxSizeRatio:   1.5,
		SampleSize:     1000,
		ByteTolerance:  30,
		MatchThreshold: 0.83,
	}
}

// PixelComparer is a dependency-free similarity heuristic over the raw
// encoded bytes of the two images. It compares a leading sample byte by
// byte after cheap size sanity checks.
//
// It is a placeholder for a real recognizer: good enough to reject
// obviously different uploads, not a biometric match. Deployments that
// need real recognition should wire an ExternalComparer instead.
type PixelComparer struct {
	cfg Config
}

// NewPixelComparer returns a comparer with the given parameters. Zero
// fields fall back to DefaultConfig values.
func NewPixelComparer(cfg Config) *PixelComparer {
	def := DefaultConfig()
	if cfg.MinImageBytes <= 0 {
		cfg.MinImageBytes = def.MinImageBytes
	}
	if cfg.MaxSizeDelta <= 0 {
		cfg.MaxSizeDelta = def.MaxSizeDelta
	}
	if cfg.MaxSizeRatio <= 0 {
		cfg.MaxSizeRatio = def.MaxSizeRatio
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = def.SampleSize
	}
	if cfg.ByteTolerance <= 0 {
		cfg.ByteTolerance = def.ByteTolerance
	}
	if cfg.MatchThreshold <= 0 {
		cfg.MatchThreshold = def.MatchThreshold
	}
	return &PixelComparer{cfg: cfg}
}

// Compare implements Comparer. Undecodable payloads return
// ErrMalformedImage; images failing the size sanity checks are a
// no-match, not an error.
func (p *PixelComparer) Compare(ctx context.Context, reference, candidate string) (bool, error) {
	ref, err := decodePayload(reference)
	if err != nil {
		return false, err
	}
	cand, err := decodePayload(candidate)
	if err != nil {
		return false, err
	}

	if len(ref) < p.cfg.MinImageBytes || len(cand) < p.cfg.MinImageBytes {
		return false, nil
	}

	small, large := len(ref), len(cand)
	if small > large {
		small, large = large, small
	}
	if large-small > p.cfg.MaxSizeDelta {
		return false, nil
	}
	if float64(large)/float64(small) > p.cfg.MaxSizeRatio {
		return false, nil
	}

	sample := p.cfg.SampleSize
	if small < sample {
		sample = small
	}

	matched := 0
	for i := 0; i < sample; i++ {
		d := int(ref[i]) - int(cand[i])
		if d < 0 {
			d = -d
		}
		if d < p.cfg.ByteTolerance {
			matched++
		}
	}

	return float64(matched)/float64(sample) >= p.cfg.MatchThreshold, nil
}
