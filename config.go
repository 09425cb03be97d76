package rangefilter

import (
	"fmt"

	"github.com/datatrails/go-datatrails-common/logger"
)

// Config holds every construction-time knob recognized in spec.md section 6.
// It is populated by applying a chain of Option values, the same shape as
// massifs.DirCacheOption in the teacher repo this package descends from.
type Config struct {
	includeDense     bool
	sparseDenseRatio float64
	suffixType       SuffixType
	hashSuffixLen    uint8
	realSuffixLen    uint8
	selectSampleRate uint32
	log              logger.Logger
}

// Option mutates a Config during construction.
type Option func(*Config)

// WithIncludeDense controls whether a dense tier is emitted at all. When
// false the entire trie is encoded as the sparse tier.
func WithIncludeDense(include bool) Option {
	return func(c *Config) { c.includeDense = include }
}

// WithSparseDenseRatio sets the size-multiple threshold Finalize uses to
// decide the dense/sparse boundary level: a level stays dense as long as
// its dense encoding costs no more than ratio times its sparse encoding.
func WithSparseDenseRatio(ratio float64) Option {
	return func(c *Config) { c.sparseDenseRatio = ratio }
}

// WithSuffixType selects the suffix encoding used to disambiguate keys
// that share a trie path.
func WithSuffixType(t SuffixType) Option {
	return func(c *Config) { c.suffixType = t }
}

// WithHashSuffixLen sets the bit width of the hash suffix part. Only
// meaningful when the suffix type is SuffixHash or SuffixMixed.
func WithHashSuffixLen(bits uint8) Option {
	return func(c *Config) { c.hashSuffixLen = bits }
}

// WithRealSuffixLen sets the bit width of the real suffix part. Only
// meaningful when the suffix type is SuffixReal or SuffixMixed.
func WithRealSuffixLen(bits uint8) Option {
	return func(c *Config) { c.realSuffixLen = bits }
}

// WithSelectSampleRate overrides the default select-sample density (S in
// spec.md 4.2). Smaller values speed up Select1 at the cost of memory.
func WithSelectSampleRate(rate uint32) Option {
	return func(c *Config) { c.selectSampleRate = rate }
}

// WithLogger attaches a structured logger used for construction
// diagnostics (level-cut decisions, dense/sparse handoff). Nil is treated
// as a no-op logger; this mirrors NewMassifCommitter and NewLogDirCache in
// the teacher repo, which also accept a logger.Logger constructor argument.
func WithLogger(log logger.Logger) Option {
	return func(c *Config) { c.log = log }
}

func defaultConfig() Config {
	return Config{
		includeDense:     true,
		sparseDenseRatio: defaultSparseDenseRatio,
		suffixType:       SuffixNone,
		hashSuffixLen:    0,
		realSuffixLen:    0,
		selectSampleRate: defaultSelectSampleRate,
		log:              nil,
	}
}

func newConfig(opts ...Option) (Config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.sparseDenseRatio <= 0 {
		return fmt.Errorf("%w: sparseDenseRatio must be positive, got %v", ErrInvalidConfig, c.sparseDenseRatio)
	}
	if c.selectSampleRate == 0 {
		return fmt.Errorf("%w: selectSampleRate must be positive", ErrInvalidConfig)
	}
	switch c.suffixType {
	case SuffixNone:
	case SuffixHash:
		if c.hashSuffixLen == 0 {
			return fmt.Errorf("%w: SuffixHash requires hashSuffixLen > 0", ErrInvalidConfig)
		}
	case SuffixReal:
		if c.realSuffixLen == 0 {
			return fmt.Errorf("%w: SuffixReal requires realSuffixLen > 0", ErrInvalidConfig)
		}
	case SuffixMixed:
		if c.hashSuffixLen == 0 && c.realSuffixLen == 0 {
			return fmt.Errorf("%w: SuffixMixed requires hashSuffixLen or realSuffixLen > 0", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown suffix type %d", ErrInvalidConfig, c.suffixType)
	}
	return nil
}

func (c Config) debugf(format string, args ...interface{}) {
	if c.log == nil {
		return
	}
	c.log.Debugf(format, args...)
}
