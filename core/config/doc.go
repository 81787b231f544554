// Package config provides configuration management for the reconciler.
//
// It utilizes Viper for loading configuration from environment variables
// and an optional .env file.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application
// settings, divided into subsections:
//   - Source / Target: connection details for the two MySQL stores
//   - Storage: S3/MinIO credentials and report bucket
//   - Log: logging level and format
//   - Server: observability server port
//   - Reconcile: run defaults (batch size, mode, checkpoint directory)
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Source.Host)
package config
