// Package html provides an Extractor for HTML documents.
// Scripts, styles and markup are dropped, block elements become line breaks
// and entities are decoded.
package html
