// Package model defines the domain entities governed by the lifecycle
// engine: artifacts, their version-chain links, contributors and the
// review states a version moves through.
package model
