package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/npc/internal/dbus"
)

var statusOpts struct {
	output string
}

// Output formats for npc status.
const (
	formatText   = "text"
	formatTable  = "table"
	formatJSON   = "json"
	formatYAML   = "yaml"
	formatWaybar = "waybar"
)

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text    string `json:"text"`
	Alt     string `json:"alt,omitempty"`
	Tooltip string `json:"tooltip,omitempty"`
	Class   string `json:"class,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the overlay is displaying",
	Long: `Show the overlay state (idle, displaying or fading), its opacity, the
message on screen and how many notifications are waiting.

Output formats:
  text    one line per field (default when stdout is not a terminal)
  table   a table (default on a terminal)
  json    machine readable
  yaml    machine readable
  waybar  Waybar custom module JSON:

  "custom/npc": {
    "exec": "npc status -o waybar",
    "interval": 1,
    "return-type": "json"
  }`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusOpts.output, "output", "o", "",
		"Output format: text, table, json, yaml, waybar")
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	format := statusOpts.output
	if format == "" {
		format = defaultFormat(out)
	}

	client, err := newClient()
	if err != nil {
		if format == formatWaybar {
			return writeJSON(out, WaybarStatus{Alt: "error", Class: "error", Tooltip: err.Error()})
		}
		return err
	}

	ctx, cancel := callContext(cmd.Context())
	defer cancel()

	st, err := client.Status(ctx)
	if err != nil {
		if format == formatWaybar {
			return writeJSON(out, WaybarStatus{Alt: "error", Class: "error", Tooltip: "npcd is not running"})
		}
		return fmt.Errorf("is npcd running? %w", err)
	}

	return renderStatus(out, format, st, time.Now())
}

// renderStatus writes st in the requested format.
func renderStatus(w io.Writer, format string, st dbus.Status, now time.Time) error {
	switch format {
	case formatText:
		for _, row := range statusRows(st, now) {
			if _, err := fmt.Fprintf(w, "%-8s %s\n", row[0]+":", row[1]); err != nil {
				return err
			}
		}
		return nil
	case formatTable:
		_, err := fmt.Fprintln(w, renderTable([]string{"Field", "Value"}, statusRows(st, now)))
		return err
	case formatJSON:
		return writeJSON(w, st)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(st); err != nil {
			return err
		}
		return enc.Close()
	case formatWaybar:
		return writeJSON(w, waybarStatus(st))
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// statusRows lists the human readable status fields.
func statusRows(st dbus.Status, now time.Time) [][]string {
	message := st.Message
	if message == "" {
		message = "-"
	}
	return [][]string{
		{"State", st.State},
		{"Opacity", fmt.Sprintf("%d%%", int(st.Alpha*100+0.5))},
		{"Message", message},
		{"Shown", shownAgo(st.ShownAt, now)},
		{"Queued", strconv.FormatUint(uint64(st.Queued), 10)},
	}
}

// shownAgo formats when the last event was shown, e.g. "3 seconds ago".
func shownAgo(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// waybarStatus maps the overlay status onto a Waybar module.
func waybarStatus(st dbus.Status) WaybarStatus {
	ws := WaybarStatus{Alt: st.State, Class: st.State}
	if st.State != "idle" && st.Message != "" {
		ws.Text = st.Message
	}

	var tooltip strings.Builder
	fmt.Fprintf(&tooltip, "npc: %s", st.State)
	if st.Queued > 0 {
		fmt.Fprintf(&tooltip, "\n%d queued", st.Queued)
	}
	ws.Tooltip = tooltip.String()
	return ws
}

func defaultFormat(w io.Writer) string {
	if f, ok := w.(*os.File); ok {
		fd := f.Fd()
		if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
			return formatTable
		}
	}
	return formatText
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
