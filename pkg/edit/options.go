package edit

import (
	"github.com/sirupsen/logrus"

	"github.com/nwtools/wadtools/pkg/wad"
)

// config holds the settings shared by every operation.
type config struct {
	log       logrus.FieldLogger
	chunkSize int
	inPlace   bool
	output    string
}

// Option configures an operation.
type Option func(*config)

func newConfig(opts []Option) *config {
	c := &config{
		log:       logrus.StandardLogger(),
		chunkSize: wad.DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithLogger sets the logger operations report progress to.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *config) {
		if log != nil {
			c.log = log
		}
	}
}

// WithChunkSize sets the buffer size used to relocate payloads.
func WithChunkSize(size int) Option {
	return func(c *config) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithInPlace makes append-only operations write directly into the target
// file instead of building a copy and renaming it over the original.
// A failure midway leaves the file in an undefined state.
func WithInPlace(inPlace bool) Option {
	return func(c *config) {
		c.inPlace = inPlace
	}
}

// WithOutput sets the path a splice writes its result to.
func WithOutput(path string) Option {
	return func(c *config) {
		c.output = path
	}
}
