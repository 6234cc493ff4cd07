package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"ptoinfo/internal/domain/leave"
	"ptoinfo/internal/domain/pto"
)

const dateLayout = "2006-01-02"

// target selects the employee view a command works on.
type target struct {
	EmployeeID string
	TenantID   string
	Timeout    time.Duration
}

func (t *target) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "employee",
			Usage:       "Employee id",
			Required:    true,
			Destination: &t.EmployeeID,
		},
		&cli.StringFlag{
			Name:        "tenant",
			Usage:       "Tenant id",
			Required:    true,
			Sources:     cli.EnvVars("PTO_TENANT_ID"),
			Destination: &t.TenantID,
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Usage:       "Per load timeout",
			Value:       pto.DefaultLoadTimeout,
			Sources:     cli.EnvVars("PTO_LOAD_TIMEOUT"),
			Destination: &t.Timeout,
		},
	}
}

// view is a loaded controller bound to the terminal.
type view struct {
	controller *pto.Controller
	backend    Backend
	release    func()
}

func (a *app) open(ctx context.Context, t target) (*view, error) {
	backend, release, err := a.backend(ctx, t.TenantID)
	if err != nil {
		return nil, err
	}
	st := newStyles(a.noColor)
	ctrl := pto.NewController(backend, backend,
		pto.WithLoadTimeout(t.Timeout),
		pto.WithNavigator(terminalNavigator{out: a.out, styles: st}),
		pto.WithNotifier(terminalNotifier{out: a.out, styles: st}),
	)
	ctrl.Initialize(ctx, t.EmployeeID)
	if err := ctrl.Wait(ctx); err != nil {
		release()
		return nil, goerr.Wrap(err, "waiting for leave data", goerr.V("employee", t.EmployeeID))
	}
	return &view{controller: ctrl, backend: backend, release: release}, nil
}

func (a *app) render(v pto.View) {
	fmt.Fprint(a.out, renderView(v, newStyles(a.noColor)))
}

func (a *app) cmdShow() *cli.Command {
	var t target
	return &cli.Command{
		Name:  "show",
		Usage: "Show leave balances and history of an employee",
		Flags: t.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			v, err := a.open(ctx, t)
			if err != nil {
				return err
			}
			defer v.release()
			a.render(v.controller.View())
			return nil
		},
	}
}

func (a *app) cmdStatement() *cli.Command {
	var (
		t      target
		output string
	)
	flags := append(t.Flags(), &cli.StringFlag{
		Name:        "output",
		Aliases:     []string{"o"},
		Usage:       "PDF file to write, - for stdout",
		Value:       "pto-statement.pdf",
		Destination: &output,
	})
	return &cli.Command{
		Name:  "statement",
		Usage: "Write a PDF leave statement of an employee",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			v, err := a.open(ctx, t)
			if err != nil {
				return err
			}
			defer v.release()

			if output == "-" {
				return pto.WriteStatement(a.out, v.controller.View(), a.now())
			}
			f, err := os.Create(output)
			if err != nil {
				return goerr.Wrap(err, "failed to create statement file", goerr.V("path", output))
			}
			if err := pto.WriteStatement(f, v.controller.View(), a.now()); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return goerr.Wrap(err, "failed to close statement file", goerr.V("path", output))
			}
			fmt.Fprintf(a.out, "statement written to %s\n", output)
			return nil
		},
	}
}

type requestFlags struct {
	LeaveTypeID string
	Start       string
	End         string
	StartHalf   bool
	EndHalf     bool
	Reason      string
}

func (r *requestFlags) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "leave-type", Usage: "Leave type id", Required: true, Destination: &r.LeaveTypeID},
		&cli.StringFlag{Name: "start", Usage: "First day (YYYY-MM-DD)", Required: true, Destination: &r.Start},
		&cli.StringFlag{Name: "end", Usage: "Last day (YYYY-MM-DD), defaults to start", Destination: &r.End},
		&cli.BoolFlag{Name: "start-half", Usage: "First day is a half day", Destination: &r.StartHalf},
		&cli.BoolFlag{Name: "end-half", Usage: "Last day is a half day", Destination: &r.EndHalf},
		&cli.StringFlag{Name: "reason", Usage: "Reason shown to approvers", Destination: &r.Reason},
	}
}

func (r requestFlags) input(employeeID string) (leave.RequestInput, error) {
	start, err := time.Parse(dateLayout, strings.TrimSpace(r.Start))
	if err != nil {
		return leave.RequestInput{}, goerr.Wrap(err, "invalid --start date", goerr.V("value", r.Start))
	}
	end := start
	if strings.TrimSpace(r.End) != "" {
		end, err = time.Parse(dateLayout, strings.TrimSpace(r.End))
		if err != nil {
			return leave.RequestInput{}, goerr.Wrap(err, "invalid --end date", goerr.V("value", r.End))
		}
	}
	return leave.RequestInput{
		EmployeeID:  employeeID,
		LeaveTypeID: r.LeaveTypeID,
		StartDate:   start,
		EndDate:     end,
		StartHalf:   r.StartHalf,
		EndHalf:     r.EndHalf,
		Reason:      r.Reason,
	}, nil
}

func (a *app) cmdRequest() *cli.Command {
	var (
		t   target
		req requestFlags
	)
	return &cli.Command{
		Name:  "request",
		Usage: "Submit a leave request and show the refreshed balances",
		Flags: append(t.Flags(), req.Flags()...),
		Action: func(ctx context.Context, c *cli.Command) error {
			input, err := req.input(t.EmployeeID)
			if err != nil {
				return err
			}
			v, err := a.open(ctx, t)
			if err != nil {
				return err
			}
			defer v.release()

			v.controller.SubmitNewLeaveRequest(ctx)
			id, err := v.backend.SubmitRequest(ctx, input)
			if err != nil {
				return goerr.Wrap(err, "leave request rejected", goerr.V("employee", t.EmployeeID))
			}
			fmt.Fprintf(a.out, "leave request %s created\n", id)

			v.controller.OnLeaveRequestSubmitted(ctx)
			if err := v.controller.Wait(ctx); err != nil {
				return goerr.Wrap(err, "waiting for refreshed leave data")
			}
			a.render(v.controller.View())
			return nil
		},
	}
}
