// Package assets provides the CSS styles and HTML templates of previews.
//
//	AssetLoader (interface)
//	    ├── EmbeddedLoader    - built-in assets (go:embed)
//	    ├── FilesystemLoader  - a custom directory on disk
//	    └── AssetResolver     - custom first, built-in fallback
//
// A custom directory mirrors the built-in layout:
//
//	{basePath}/
//	├── styles/{name}.css
//	└── templates/{name}.html
//
// Only "not found" errors fall back, so a broken custom asset is reported
// rather than silently replaced. Names are validated and FilesystemLoader
// resolves symlinks before checking that paths stay inside basePath.
package assets
