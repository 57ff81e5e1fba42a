// Package config provides configuration loading, merging, and validation
// facilities for the sync node and the document server.
//
// Configuration is assembled from multiple sources. When a field is set by
// more than one source, the first source in this list wins:
//  1. Environment variables (a .env file in the working directory is loaded
//     first and never overrides variables already set)
//  2. Command-line flags
//  3. JSON config file
//
// The main entry points are [GetNodeConfig] for the offline-first node and
// [GetServerConfig] for the document server. Both fill defaults and validate
// the result before returning it.
package config
