// Package config handles application configuration loading and validation.
//
// Configuration is loaded from config.yml and validated using struct tags.
// Components apply their own defaults for absent values, so a minimal file
// only needs the trip API base URL.
package config
