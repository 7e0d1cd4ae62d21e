// Package config loads the kcbootstrap run configuration.
//
// Configuration comes from the environment, optionally seeded from a .env file,
// and is read once into an immutable Config value:
//
//	cfg, err := config.Load("")
//	if err != nil {
//		return err
//	}
//	for _, w := range cfg.ProductionWarnings() {
//		slog.Warn(w)
//	}
//
// Comma-separated settings (redirect URIs, web origins) are exposed as slices
// through RedirectURIList and WebOriginList.
package config
