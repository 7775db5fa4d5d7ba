package exercise

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

var (
	passColor = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
)

// FormatOutput formats exercise results according to output format
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

// formatTable formats results as phase, probe and stats tables
func formatTable(w io.Writer, response *Response) error {
	fmt.Fprintf(w, "Device %s (%s, %s scheduler)\n", response.DeviceID, response.Cipher, response.Scheduler)
	fmt.Fprintf(w, "%s, pattern %s, %d workers\n\n", response.Range, response.Pattern, response.Workers)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "PHASE\tREQUESTS\tBYTES\tFAILED\tMISMATCHED\tTHROUGHPUT\tRESULT\n")
	fmt.Fprintf(tw, "-----\t--------\t-----\t------\t----------\t----------\t------\n")
	for i := range response.Phases {
		p := &response.Phases[i]
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%d\t%s/s\t%s\n",
			p.Name, p.Requests, humanize.IBytes(p.Bytes), p.Failed, p.Mismatched,
			humanize.IBytes(uint64(p.Throughput())), verdict(p.Passed()))
	}

	if len(response.Probes) > 0 {
		fmt.Fprintf(tw, "\nPROBE\tEXPECTED\tGOT\tRESULT\n")
		fmt.Fprintf(tw, "-----\t--------\t---\t------\n")
		for _, p := range response.Probes {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, p.Expected, p.Got, verdict(p.Passed))
		}
	}

	fmt.Fprintf(tw, "\nSTATUS\tCOUNT\n")
	fmt.Fprintf(tw, "------\t-----\n")
	statuses := make([]string, 0, len(response.Stats.ByStatus))
	for status := range response.Stats.ByStatus {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		fmt.Fprintf(tw, "%s\t%s\n", status, humanize.Comma(int64(response.Stats.ByStatus[status])))
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nRead %s, wrote %s, queue high-water %d, in %v: %s\n",
		humanize.IBytes(response.Stats.BytesRead),
		humanize.IBytes(response.Stats.BytesWritten),
		response.Stats.QueueHighWater,
		response.Elapsed.Round(time.Millisecond),
		verdict(response.Passed))

	return nil
}

func verdict(ok bool) string {
	if ok {
		return passColor.Sprint("PASS")
	}
	return failColor.Sprint("FAIL")
}

// formatJSON formats results as JSON
func formatJSON(w io.Writer, response *Response) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// formatYAML formats results as YAML
func formatYAML(w io.Writer, response *Response) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(response)
}

// FormatSummary provides a brief summary for verbose output
func FormatSummary(response *Response) string {
	var requests, failed, mismatched int
	var moved uint64
	for _, p := range response.Phases {
		requests += p.Requests
		failed += p.Failed
		mismatched += p.Mismatched
		moved += p.Bytes
	}

	summary := fmt.Sprintf("%d request", requests)
	if requests != 1 {
		summary += "s"
	}
	summary += fmt.Sprintf(" moved %s", humanize.IBytes(moved))

	if failed > 0 {
		summary += fmt.Sprintf(", %d failed", failed)
	}
	if mismatched > 0 {
		summary += fmt.Sprintf(", %d mismatched", mismatched)
	}

	probesPassed := 0
	for _, p := range response.Probes {
		if p.Passed {
			probesPassed++
		}
	}
	if len(response.Probes) > 0 {
		summary += fmt.Sprintf(", %d/%d probes passed", probesPassed, len(response.Probes))
	}

	return summary
}
