package display

import (
	"fmt"
	"image"
	"log/slog"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"golang.org/x/image/draw"

	"github.com/jmylchreest/npc/internal/config"
)

// messageLead separates the message from the avatar.
const messageLead = "   "

// Window is the GTK overlay surface.
type Window struct {
	window *gtk.Window
	avatar *gtk.Image
	label  *gtk.Label
	cfg    config.WindowConfig
	logger *slog.Logger
}

// NewWindow creates the overlay window, anchored to the top-right corner of
// the primary monitor. It starts hidden.
func NewWindow(app *gtk.Application, cfg config.WindowConfig, logger *slog.Logger) (*Window, error) {
	if logger == nil {
		logger = slog.Default()
	}

	screenWidth, err := ScreenWidth()
	if err != nil {
		return nil, err
	}
	if err := applyStyle(); err != nil {
		return nil, err
	}

	w := &Window{cfg: cfg, logger: logger}

	w.window = gtk.NewWindow()
	w.window.SetApplication(app)
	w.window.SetDecorated(false)
	w.window.SetResizable(false)
	w.window.SetDefaultSize(cfg.Width, cfg.Height)
	w.window.SetSizeRequest(cfg.Width, cfg.Height)
	w.window.AddCSSClass("npc-overlay")

	rect := cfg.Resolve(screenWidth)

	layershell.InitForWindow(w.window)
	layershell.SetLayer(w.window, layershell.LayerShellLayerOverlay)
	layershell.SetExclusiveZone(w.window, 0)
	layershell.SetKeyboardMode(w.window, layershell.LayerShellKeyboardModeNone)
	layershell.SetNamespace(w.window, "npc-overlay")
	layershell.SetAnchor(w.window, layershell.LayerShellEdgeTop, true)
	layershell.SetAnchor(w.window, layershell.LayerShellEdgeRight, true)
	layershell.SetMargin(w.window, layershell.LayerShellEdgeTop, rect.Y)
	layershell.SetMargin(w.window, layershell.LayerShellEdgeRight, rect.RightMargin(screenWidth))

	w.buildUI()

	logger.Debug("overlay window created",
		"x", rect.X, "y", rect.Y,
		"width", rect.Width, "height", rect.Height,
		"screen_width", screenWidth,
	)
	return w, nil
}

// buildUI lays out the avatar followed by the message.
func (w *Window) buildUI() {
	box := gtk.NewBox(gtk.OrientationHorizontal, 0)
	box.AddCSSClass("npc-content")
	box.SetVAlign(gtk.AlignCenter)

	w.avatar = gtk.NewImage()
	w.avatar.AddCSSClass("npc-avatar")
	w.avatar.SetPixelSize(w.cfg.AvatarSize)
	box.Append(w.avatar)

	w.label = gtk.NewLabel("")
	w.label.AddCSSClass("npc-message")
	w.label.SetXAlign(0)
	w.label.SetSingleLineMode(true)
	box.Append(w.label)

	w.window.SetChild(box)
}

// Render replaces the avatar and message and makes the window visible.
func (w *Window) Render(avatar image.Image, message string) {
	if avatar != nil {
		w.avatar.SetFromPaintable(textureFromImage(avatar))
	} else {
		w.avatar.Clear()
	}
	w.label.SetMarkup(fmt.Sprintf(`<span font_desc="%s" foreground="%s">%s</span>`,
		glib.MarkupEscapeText(w.cfg.Font, -1),
		glib.MarkupEscapeText(w.cfg.TextColor, -1),
		glib.MarkupEscapeText(messageLead+message, -1),
	))
	w.window.SetVisible(true)
}

// SetOpacity sets the window opacity. A fully transparent window is hidden
// so it stops taking pointer input.
func (w *Window) SetOpacity(alpha float64) {
	w.window.SetOpacity(alpha)
	w.window.SetVisible(alpha > 0)
}

// Destroy closes the window.
func (w *Window) Destroy() {
	w.window.Destroy()
}

// textureFromImage uploads img as a GDK texture.
func textureFromImage(img image.Image) *gdk.MemoryTexture {
	rgba := toNRGBA(img)
	b := rgba.Bounds()
	return gdk.NewMemoryTexture(
		b.Dx(), b.Dy(),
		gdk.MemoryR8G8B8A8,
		glib.NewBytes(rgba.Pix),
		uint(rgba.Stride),
	)
}

// toNRGBA returns img as a zero-origin, tightly packed NRGBA image.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) && n.Stride == 4*n.Rect.Dx() {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
