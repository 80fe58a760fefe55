// Functional-options configuration.
//
// Grounded on the options.go pattern used throughout the pack's
// MongoDB-wrapper repo (WithX constructors closing over a *Config); the
// same shape shows up in nodestorage's options layer. Config carries
// every ambient knob a Collection needs at Open time.
package holodoc

// Config holds a Collection's tunables, built by applying Options to
// defaultConfig().
type Config struct {
	Timestamps               bool
	AutoCompactionIntervalMs int
	CorruptAlertThreshold    float64
	Hooks                    Hooks
	InMemoryOnly             bool
	Compressed               bool
	DontExpireStaleDocs      bool
	Metrics                  *Metrics

	storage Storage // test-only injection point, see WithStorage
}

func defaultConfig() Config {
	return Config{
		CorruptAlertThreshold: defaultCorruptAlertThreshold,
	}
}

// Option mutates a Config during Open.
type Option func(*Config)

// WithTimestamps stamps createdAt on insert and updatedAt on every
// insert and update.
func WithTimestamps() Option {
	return func(c *Config) { c.Timestamps = true }
}

// WithAutoCompaction runs CompactDatafile on a timer. Intervals below
// 5000ms are clamped up to 5000ms (§4.6).
func WithAutoCompaction(intervalMs int) Option {
	return func(c *Config) { c.AutoCompactionIntervalMs = intervalMs }
}

// WithCorruptAlertThreshold overrides the fraction of unparseable
// replay lines tolerated before Open fails (default 0.1).
func WithCorruptAlertThreshold(ratio float64) Option {
	return func(c *Config) { c.CorruptAlertThreshold = ratio }
}

// WithHooks installs a serialize/deserialize transform pair, validated
// by a round-trip self-check at Open.
func WithHooks(h Hooks) Option {
	return func(c *Config) { c.Hooks = h }
}

// WithInMemoryOnly disables all disk I/O: no replay on Open, no append
// on write, no file created by compaction.
func WithInMemoryOnly() Option {
	return func(c *Config) { c.InMemoryOnly = true }
}

// WithCompression keeps the datafile as one zstd-compressed snapshot.
// There is no uncompressed append log alongside it: every write
// rewrites the whole compressed file, as a compaction does.
func WithCompression() Option {
	return func(c *Config) { c.Compressed = true }
}

// WithoutTTLExpiry disables the piggybacked TTL reap normally performed
// on every read.
func WithoutTTLExpiry() Option {
	return func(c *Config) { c.DontExpireStaleDocs = true }
}

// WithMetrics reports document and index counts, operation counts and
// compactions into m. Registering m with a prometheus registry is left
// to the caller.
func WithMetrics(m *Metrics) Option {
	return func(c *Config) { c.Metrics = m }
}

// WithStorage overrides the Storage implementation, used by tests that
// want an in-memory backing store without real files.
func WithStorage(s Storage) Option {
	return func(c *Config) { c.storage = s }
}
