package info

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// FormatOutput writes the device description in the requested format
func FormatOutput(w io.Writer, response *Response, format string) error {
	switch format {
	case "json":
		return formatJSON(w, response)
	case "yaml":
		return formatYAML(w, response)
	case "table", "":
		return formatTable(w, response)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// formatTable formats the description as a two-column table
func formatTable(w io.Writer, response *Response) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	g := response.Geometry
	rows := [][2]string{
		{"ID", response.ID},
		{"Capacity", fmt.Sprintf("%s (%s bytes)", humanize.IBytes(response.Capacity), humanize.Comma(int64(response.Capacity)))},
		{"Sectors", fmt.Sprintf("%s x %d bytes", humanize.Comma(int64(response.SectorCount)), response.SectorSize)},
		{"Geometry", fmt.Sprintf("C/H/S %d/%d/%d, start %d", g.Cylinders, g.Heads, g.SectorsPerTrack, g.Start)},
		{"Cipher", fmt.Sprintf("%s (%d-byte blocks)", response.Cipher, response.BlockSize)},
		{"Key derivation", response.KeyDerivation},
		{"Scheduler", fmt.Sprintf("%s (queue depth %d)", response.Scheduler, response.QueueDepth)},
	}
	if bps := response.BlocksPerSector(); bps > 0 {
		rows = append(rows, [2]string{"Blocks/sector", fmt.Sprintf("%d", bps)})
	} else {
		rows = append(rows, [2]string{"Blocks/sector", "unaligned: single-sector transfers will fail"})
	}

	fmt.Fprintf(tw, "FIELD\tVALUE\n")
	fmt.Fprintf(tw, "-----\t-----\n")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1])
	}

	return tw.Flush()
}

// formatJSON formats the description as JSON
func formatJSON(w io.Writer, response *Response) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// formatYAML formats the description as YAML
func formatYAML(w io.Writer, response *Response) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(response)
}
