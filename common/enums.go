// Package common keeps enums shared by configuration and command line
// handling.
package common

//go:generate go run github.com/abice/go-enum@v0.9.2 --marshal --names --nocase --mustparse

// Requested output document type.
// ENUM(yaml, json)
type OutputFmt int

func (o OutputFmt) Ext() string {
	switch o {
	case OutputFmtYaml:
		return ".yaml"
	case OutputFmtJson:
		return ".json"
	default:
		// this should never happen
		panic("unsupported format requested")
	}
}
