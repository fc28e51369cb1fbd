// Package config loads courier's configuration.
//
// # Overview
//
// Settings come from three layers, later layers winning:
//
//  1. config.toml (explicit path, or ~/.config/courier/config.toml)
//  2. .env files, read from the working directory and then the data
//     directory; variables already present in the environment are kept
//  3. COURIER_* environment variables (COURIER_DATABASE_URL, ...)
//
// A missing config file is not an error; every field has a default or is
// optional. Blank values fall back to defaults.
//
// # Default Values
//
//   - Config file: ~/.config/courier/config.toml
//   - Data directory: ~/.local/share/courier (log file, history mirror)
//   - Export directory: the data directory
//   - Poll interval: 2s (DynamoDB watch cadence)
//   - Log level: info
//
// # Backend Selection
//
// backend names the remote store: memory, rtdb, postgres, or dynamodb.
// When it is unset the first backend with connection details wins
// (database_url, then postgres_dsn, then dynamodb_table), and memory is
// used when nothing is configured. A named backend without its connection
// setting is rejected at load time.
//
// # TOML Format
//
//	backend = "rtdb"
//	database_url = "https://example-default-rtdb.firebaseio.com"
//	auth_token = ""             # prefer COURIER_AUTH_TOKEN or .env
//	postgres_dsn = ""
//	dynamodb_table = ""
//	aws_region = ""
//	poll_interval = "2s"
//	data_dir = "~/.local/share/courier"
//	history_file = ""           # optional external history JSON
//	export_dir = "~/Downloads"
//	http_bind = "127.0.0.1:8089" # empty disables the HTTP surface
//	log_level = "info"
//
// Tilde expansion is applied to data_dir, history_file, export_dir, and the
// config path itself. Relative paths become absolute against the working
// directory.
package config
