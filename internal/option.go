package internal

// Option is a functional option for configuring a command run.
type Option func(*application)

type application struct {
	config *Config
	source string
	enrich bool
}

func newApplication(opts []Option) *application {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithSource sets an export archive to extract into the vault before
// migrating.
func WithSource(path string) Option {
	return func(a *application) {
		a.source = path
	}
}

// WithEnrich toggles remote metadata enrichment after the renames.
func WithEnrich(enabled bool) Option {
	return func(a *application) {
		a.enrich = enabled
	}
}
