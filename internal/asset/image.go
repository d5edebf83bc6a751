// Package asset exposes generic upload, update and delete endpoints over the
// storage gateway and shapes stored URLs for API responses.
package asset

import "strings"

// ImageData is the presentation shape of a stored object: its display name
// and retrieval URL.
type ImageData struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ImageDataFromURL derives ImageData from a stored URL. The name is the final
// path segment, or "unknown" when the URL has none. Never fails.
func ImageDataFromURL(url string) ImageData {
	parts := strings.Split(url, "/")
	name := parts[len(parts)-1]
	if name == "" {
		name = "unknown"
	}
	return ImageData{Name: name, URL: url}
}
