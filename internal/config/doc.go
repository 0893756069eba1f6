// Package config handles configuration loading for the vitrine gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	database:
//	  path: "${VITRINE_DB_PATH}"
//
// Syntax: ${VAR_NAME}
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//
// Database:
//
//	database:
//	  path: "/var/lib/vitrine/vitrine.db"
//
// Content origin (exactly one of the two):
//
//	origin:
//	  static_dir: "/srv/vitrine/public"
//	  upstream_url: "http://127.0.0.1:9000"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// The admin credentials and the token signing secret are not part of the
// YAML file; they live in the database's config table and are provisioned
// with the bootstrap command.
package config
