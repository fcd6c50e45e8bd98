package alerts

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/vendfleet/vendfleet-backend/pkg/db/models"
)

func machineOfflineBody(machine models.Machine, dashboardURL string) string {
	lastBeat := "never"
	if machine.LastHeartbeat != nil {
		lastBeat = machine.LastHeartbeat.UTC().Format(time.RFC1123)
	}

	var b strings.Builder
	b.WriteString("<h2>Machine offline</h2>")
	b.WriteString("<p>A vending machine stopped reporting heartbeats and was marked offline.</p>")
	b.WriteString("<table border=\"1\" cellpadding=\"6\" cellspacing=\"0\">")
	fmt.Fprintf(&b, "<tr><td><strong>Machine</strong></td><td>%s</td></tr>", html.EscapeString(machine.MachineID))
	fmt.Fprintf(&b, "<tr><td><strong>Location</strong></td><td>%.6f, %.6f</td></tr>", machine.Latitude, machine.Longitude)
	fmt.Fprintf(&b, "<tr><td><strong>Last heartbeat</strong></td><td>%s</td></tr>", html.EscapeString(lastBeat))
	b.WriteString("</table>")
	if dashboardURL != "" {
		fmt.Fprintf(&b, "<p><a href=\"%s\">Open the fleet dashboard</a></p>", html.EscapeString(dashboardURL))
	}
	return b.String()
}
