package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Asset types notes are allowed to reference. The exporter ships images
// and documents next to their notes; anything else is not served.
var assetExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".svg":  true,
	".pdf":  true,
}

// AssetHandler serves files referenced by notes. Migrated assets sit next
// to their notes anywhere in the tree, so the handler accepts any
// vault-relative path.
type AssetHandler struct {
	vaultRoot string
}

// NewAssetHandler creates a handler rooted at the vault directory.
func NewAssetHandler(vaultRoot string) *AssetHandler {
	return &AssetHandler{vaultRoot: vaultRoot}
}

// safePath validates a vault-relative asset path and returns its absolute
// location under the vault root.
func (h *AssetHandler) safePath(rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("asset path is required")
	}
	if !assetExts[strings.ToLower(filepath.Ext(rel))] {
		return "", fmt.Errorf("unsupported asset type: %q", filepath.Ext(rel))
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid asset path: %s", rel)
	}
	abs := filepath.Join(h.vaultRoot, cleaned)
	if !strings.HasPrefix(abs, h.vaultRoot+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes vault root")
	}
	return abs, nil
}

// ServeFile handles GET /assets/*.
//
//	@Summary		Serve an asset referenced by a note
//	@Tags			assets
//	@Param			path	path	string	true	"Vault-relative asset path"
//	@Success		200		"Asset content"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/assets/{path} [get]
func (h *AssetHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	rel := notePath(r)
	abs, err := h.safePath(rel)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	http.ServeFile(w, r, abs)
}
