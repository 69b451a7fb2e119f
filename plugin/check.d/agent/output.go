// SPDX-License-Identifier: GPL-3.0-or-later

package agent

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/checkmk/checkengine/plugin/check.d/agent/checker"
)

func writeCheck(w io.Writer, format string, res []*checker.HostResult) error {
	if format == FormatJSON {
		return writeJSON(w, res)
	}

	var b strings.Builder
	for _, r := range res {
		if r.Error != "" {
			fmt.Fprintf(&b, "%s: ERROR - %s\n", r.Host, r.Error)
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", r.Host, r.Worst())
		for _, s := range r.Services {
			fmt.Fprintf(&b, "  %s\n", s)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeDiscovery(w io.Writer, format string, res []*checker.DiscoveryResult) error {
	if format == FormatJSON {
		return writeJSON(w, res)
	}

	var b strings.Builder
	for _, r := range res {
		if r.Error != "" {
			fmt.Fprintf(&b, "%s: ERROR - %s\n", r.Host, r.Error)
			continue
		}
		fmt.Fprintf(&b, "%s: %d services\n", r.Host, len(r.Services))
		for _, e := range r.Services {
			fmt.Fprintf(&b, "  %s\n", strings.TrimSpace(e.CheckPluginName+" "+e.Item))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
