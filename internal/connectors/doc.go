// Package connectors builds the document source selected in settings.
//
// Each source lives in its own subpackage (filesystem, google/drive, s3) and
// implements driven.DocumentSource. NewSource is the single place the CLI
// turns domain.SourceSettings into a connected source.
package connectors
