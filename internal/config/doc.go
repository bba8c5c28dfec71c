// Package config loads the oxygentd daemon configuration from YAML or JSON
// files and fills in defaults for the HTTP server, registry storage, event
// bus, executor limits and logging.
package config
