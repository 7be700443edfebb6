// Package cmd implements the command-line interface of medrec. It provides
// a hierarchical command structure with operations for running the server
// and for managing patient records as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Starts and configures the medrec server
//   - record: Client commands (add, get, update, delete, list) and a perf tool
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Flags can also be set as MEDREC_<FLAG> environment variables or in a
// .env / .env.local file. See medrec --help for a list of all commands.
package cmd
