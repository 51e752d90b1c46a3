package chunker

import "fmt"

// Config controls chunking behavior. Sizes are counted in runes.
type Config struct {
	MaxChunkSize int `mapstructure:"max_chunk_size" json:"max_chunk_size" yaml:"max_chunk_size"` // Nominal ceiling per chunk.
	MinChunkSize int `mapstructure:"min_chunk_size" json:"min_chunk_size" yaml:"min_chunk_size"` // Earliest offset in a window a cut may move back to.
	OverlapSize  int `mapstructure:"overlap_size" json:"overlap_size" yaml:"overlap_size"`       // Context shared between neighbors.
}

// DefaultFlatConfig returns the defaults of the flat composition.
func DefaultFlatConfig() Config {
	return Config{
		MaxChunkSize: 400,
		MinChunkSize: 100,
		OverlapSize:  50,
	}
}

// DefaultTreeConfig returns the defaults of the section-tree composition.
func DefaultTreeConfig() Config {
	return Config{
		MaxChunkSize: 500,
		MinChunkSize: 100,
		OverlapSize:  50,
	}
}

// WithDefaults fills unset fields from def. A zero Config takes def as a
// whole; otherwise a zero MinChunkSize lets the search window reach back
// to the chunk start, and a zero OverlapSize means no overlap.
func (c Config) WithDefaults(def Config) Config {
	if c == (Config{}) {
		return def
	}
	if c.MaxChunkSize <= 0 {
		c.MaxChunkSize = def.MaxChunkSize
	}
	if c.MinChunkSize < 0 {
		c.MinChunkSize = def.MinChunkSize
	}
	if c.OverlapSize < 0 {
		c.OverlapSize = def.OverlapSize
	}
	return c
}

// Validate checks that the sizes are consistent with each other.
func (c Config) Validate() error {
	if c.MaxChunkSize <= 0 {
		return fmt.Errorf("max_chunk_size must be positive, got %d", c.MaxChunkSize)
	}
	if c.MinChunkSize < 0 || c.MinChunkSize >= c.MaxChunkSize {
		return fmt.Errorf("min_chunk_size must be in [0, %d), got %d", c.MaxChunkSize, c.MinChunkSize)
	}
	if c.OverlapSize < 0 || c.OverlapSize >= c.MaxChunkSize {
		return fmt.Errorf("overlap_size must be in [0, %d), got %d", c.MaxChunkSize, c.OverlapSize)
	}
	// The section cursor advances by at least MinChunkSize-OverlapSize runes.
	if c.OverlapSize > 0 && c.OverlapSize >= c.MinChunkSize {
		return fmt.Errorf("overlap_size %d must be below min_chunk_size %d", c.OverlapSize, c.MinChunkSize)
	}
	return nil
}
