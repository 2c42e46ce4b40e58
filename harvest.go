// Package harvest provides an incremental documentation harvester.
// It renders documentation pages listed in a manifest, turns each page into
// a markdown artifact through a text generation service, and stores the
// artifacts in a directory tree that mirrors the manifest, skipping pages
// whose artifacts already exist.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., rod/, gemini/, sqlite/, fs/).
package harvest
