// Package config provides centralized configuration and path management.
//
// Configuration is loaded from environment variables (prefix LCP) with an
// optional YAML file overlay; environment variables win. The Paths type is
// the single source of truth for every file path the application touches:
// all paths are resolved relative to the executable directory, never the
// current working directory.
package config
