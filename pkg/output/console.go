/*
 * Copyright 2025 Calverix Labs.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package output

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/calverix/portscan/pkg/models"
	"github.com/calverix/portscan/pkg/sweeper"
)

// ConsoleSink streams a line per open port as probes complete. Closed and
// filtered ports stay quiet; the closing summary accounts for them.
type ConsoleSink struct {
	w io.Writer
}

var _ sweeper.Sink = (*ConsoleSink)(nil)

func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

func (c *ConsoleSink) Write(result *models.ProbeResult) error {
	if result.State != models.StateOpen {
		return nil
	}

	line := fmt.Sprintf("%s  %-21s  %-12s", openStyle.Render("open"), result.Target.Addr(), result.Service)
	if result.Banner != "" {
		line += "  " + metaStyle.Render(result.Banner)
	}

	_, err := fmt.Fprintln(c.w, line)

	return err
}

func (c *ConsoleSink) Close() error {
	return nil
}

// PrintSummary renders the closing report: one table of open ports per host,
// then the probe totals.
func PrintSummary(w io.Writer, summary *models.ScanSummary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Scan report for %s", summary.Target)))

	if len(summary.Hosts) == 0 {
		fmt.Fprintln(w, "No open ports found.")
		printTotals(w, summary)

		return
	}

	for _, host := range summary.Hosts {
		fmt.Fprintf(w, "\n%s\n", host.Host)

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, headerStyle.Render("PORT\tSERVICE\tRTT\tBANNER"))

		for _, port := range host.OpenPorts {
			fmt.Fprintf(tw, "%d/tcp\t%s\t%s\t%s\n",
				port.Port,
				port.Service,
				formatRTT(port.RespTime),
				port.Banner,
			)
		}

		_ = tw.Flush()
	}

	printTotals(w, summary)
}

func printTotals(w io.Writer, summary *models.ScanSummary) {
	totals := fmt.Sprintf("%d probes in %s: %d open, %d closed, %d filtered",
		summary.TotalProbes,
		summary.Duration.Round(time.Millisecond),
		summary.OpenPorts,
		summary.ClosedPorts,
		summary.FilteredPorts,
	)

	if summary.ErrorPorts > 0 {
		totals += ", " + troubleStyle.Render(fmt.Sprintf("%d errors", summary.ErrorPorts))
	}

	fmt.Fprintf(w, "\n%s\n", metaStyle.Render(totals))
}

func formatRTT(d time.Duration) string {
	if d < time.Millisecond {
		return "<1ms"
	}

	return d.Round(time.Millisecond).String()
}
