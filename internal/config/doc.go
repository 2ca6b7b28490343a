// Package config loads authcore-server settings from AUTHCORE_* environment
// variables through viper. A .env file is honoured via godotenv.
package config
