package display

import (
	_ "embed"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

//go:embed style.css
var styleCSS string

// applyStyle installs the overlay stylesheet on the default display.
func applyStyle() error {
	display := gdk.DisplayGetDefault()
	if display == nil {
		return &DisplayError{Message: "no display available, cannot apply style"}
	}

	provider := gtk.NewCSSProvider()
	provider.LoadFromString(styleCSS)
	gtk.StyleContextAddProviderForDisplay(
		display,
		provider,
		gtk.STYLE_PROVIDER_PRIORITY_APPLICATION,
	)
	return nil
}
