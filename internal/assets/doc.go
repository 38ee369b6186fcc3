// Package assets provides the stylesheets used when a workbook is rendered
// to HTML before printing.
//
// # Loader Architecture
//
//	StyleLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - built-in styles compiled into the binary
//	    ├── FilesystemLoader  - {basePath}/{name}.css on disk
//	    └── AssetResolver     - custom directory first, embedded fallback
//
// Only a "not found" from the custom directory falls back to the embedded
// styles. Validation and read errors are returned as-is.
//
// # Security
//
// Style names are validated to prevent path traversal. FilesystemLoader
// resolves symlinks and verifies the resolved path stays within basePath.
package assets
