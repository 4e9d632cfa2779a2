// Command favicons renders the landing page icon set from one source image.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// Icon rendition constants.
const (
	minSourceSize = 512
	dirPermission = 0750
)

type rendition struct {
	name string
	size int
}

// renditions covers classic favicons, iOS home screen and Android chrome.
var renditions = []rendition{
	{"favicon-16x16.png", 16},
	{"favicon-32x32.png", 32},
	{"favicon-48x48.png", 48},
	{"apple-touch-icon.png", 180},
	{"android-chrome-192x192.png", 192},
	{"android-chrome-512x512.png", 512},
}

func main() {
	var (
		source = flag.String("source", "assets/logo.png", "Source image, square and at least 512x512")
		outDir = flag.String("out", "internal/adapters/http/site/static", "Output directory for the icon set")
	)
	flag.Parse()

	if err := render(*source, *outDir); err != nil {
		os.Stderr.WriteString("favicon generation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func render(source, outDir string) error {
	src, err := imaging.Open(source, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to open source image: %w", err)
	}

	bounds := src.Bounds()
	if bounds.Dx() < minSourceSize || bounds.Dy() < minSourceSize {
		return fmt.Errorf("source is %dx%d, need at least %dx%d",
			bounds.Dx(), bounds.Dy(), minSourceSize, minSourceSize)
	}

	if err := os.MkdirAll(outDir, dirPermission); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, r := range renditions {
		// Fill crops to square around the center before scaling, so
		// non-square sources keep the mark centered.
		icon := imaging.Fill(src, r.size, r.size, imaging.Center, imaging.Lanczos)

		path := filepath.Join(outDir, r.name)
		if err := imaging.Save(icon, path); err != nil {
			return fmt.Errorf("failed to save %s: %w", r.name, err)
		}
		fmt.Printf("wrote %s (%dx%d)\n", path, r.size, r.size)
	}

	return nil
}
