// Package config loads duplicator settings from YAML.
//
// Files are decoded strictly (unknown keys are errors) on top of Default(),
// so a file only needs the keys it changes. The merged result is checked
// against an embedded CUE schema before use.
package config
