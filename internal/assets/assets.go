package assets

// DefaultStyleName is the built-in stylesheet used when none is configured.
const DefaultStyleName = "sheet"

var defaultLoader = NewEmbeddedLoader()

// LoadStyle loads a built-in stylesheet by name (without .css).
func LoadStyle(name string) (string, error) {
	return defaultLoader.LoadStyle(name)
}
