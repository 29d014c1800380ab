// Package config provides configuration loading and validation for the spectrolingua service.
// Settings come from a YAML file layered over Default(); secrets may be supplied through
// the environment or a .env file.
package config
