package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/tradebot/internal/domain"
)

// Console implementa ports.Notifier y ports.Reporter sobre stdout.
type Console struct {
	out io.Writer
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// Notify imprime la alerta con timestamp.
func (c *Console) Notify(_ context.Context, text string) error {
	fmt.Fprintf(c.out, "[%s] ALERT: %s\n", time.Now().Format("15:04:05"), text)
	return nil
}

// Report imprime la tabla de oportunidades del ciclo.
func (c *Console) Report(_ context.Context, opps []domain.Opportunity) error {
	now := time.Now().Format("15:04:05")
	if len(opps) == 0 {
		fmt.Fprintf(c.out, "[%s] no opportunities found\n", now)
		return nil
	}

	fmt.Fprintf(c.out, "\n[%s] %d opportunities\n", now, len(opps))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Kind", "Conf", "Edge", "Description", "Exec")
	for i, opp := range opps {
		exec := ""
		if opp.Executed {
			exec = "✓"
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			string(opp.Kind),
			opp.Confidence.String(),
			fmt.Sprintf("%.1f", opp.ExpectedEdge),
			truncate(opp.Description, 45),
			exec,
		)
	}
	table.Render()
	return nil
}

// truncate corta un string a maxLen con elipsis.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
