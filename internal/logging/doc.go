// Package logging constructs the zap logger used by authcore binaries.
package logging
