// Package config holds the crawl configuration: documented defaults, the
// flat Config struct populated from CLI flags, validation, and the optional
// YAML site-configuration file for per-site cookies, headers, and filters.
//
// Design decision: Configuration is passed through the application via
// dependency injection rather than global state. The CLI builds one Config,
// validates it, and hands it to the pipeline; nothing reads flags or files
// after that point.
package config
