package assets

import "errors"

// AssetResolver tries a custom directory first and falls back to the
// embedded styles when the custom one does not have the requested style.
type AssetResolver struct {
	custom   StyleLoader // nil without a custom path
	embedded StyleLoader
}

// NewAssetResolver creates an AssetResolver. An empty customBasePath uses
// embedded styles only. Returns an error if customBasePath is set but invalid.
func NewAssetResolver(customBasePath string) (*AssetResolver, error) {
	resolver := &AssetResolver{embedded: NewEmbeddedLoader()}

	if customBasePath != "" {
		fsLoader, err := NewFilesystemLoader(customBasePath)
		if err != nil {
			return nil, err
		}
		resolver.custom = fsLoader
	}
	return resolver, nil
}

// LoadStyle implements StyleLoader.
func (r *AssetResolver) LoadStyle(name string) (string, error) {
	if r.custom == nil {
		return r.embedded.LoadStyle(name)
	}

	content, err := r.custom.LoadStyle(name)
	if err == nil {
		return content, nil
	}
	if !errors.Is(err, ErrStyleNotFound) {
		return "", err
	}
	return r.embedded.LoadStyle(name)
}

// HasCustomLoader returns true if a custom directory is configured.
func (r *AssetResolver) HasCustomLoader() bool {
	return r.custom != nil
}

var _ StyleLoader = (*AssetResolver)(nil)
