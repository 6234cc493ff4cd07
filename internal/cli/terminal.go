package cli

import (
	"context"
	"fmt"
	"io"

	"ptoinfo/internal/domain/pto"
)

// terminalNavigator prints the page a controller asks for instead of
// opening it.
type terminalNavigator struct {
	out    io.Writer
	styles styles
}

func (n terminalNavigator) Navigate(ctx context.Context, ref pto.PageReference) {
	fmt.Fprintf(n.out, "%s %s\n", n.styles.label.Render("open"), n.styles.accent.Render(ref.Path()))
}

type terminalNotifier struct {
	out    io.Writer
	styles styles
}

func (n terminalNotifier) Notify(ctx context.Context, toast pto.Toast) error {
	style := n.styles.ok
	if toast.Variant != "success" {
		style = n.styles.warn
	}
	_, err := fmt.Fprintf(n.out, "%s %s\n", style.Render(toast.Title+":"), toast.Message)
	return err
}
