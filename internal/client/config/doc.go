// Package config loads runtime configuration for the ridekeeper client.
//
// Sources, in increasing precedence:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags.
//
// Flags
//
//	-a string   address:port of the document server
//	-d string   local SQLite database path
//	-t int      request timeout (seconds)
//	-i int      online check interval (seconds)
//	-u string   API client id
//	-l string   log level
//	-b string   S3 bucket for profile photos
//	-e string   S3 endpoint
//	-g string   S3 region
//
// Durations in the JSON file accept "3s" style strings or integer
// nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "client_secret": "..."
//	}
package config
