package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	authmodels "kycdesk/internal/auth/models"
	"kycdesk/internal/desk/api"
	"kycdesk/internal/desk/screen"
	"kycdesk/internal/kyc/models"
	"kycdesk/internal/kyc/review"
	dErrors "kycdesk/pkg/domain-errors"
	kstrings "kycdesk/pkg/platform/strings"
)

type command struct {
	usage string
	run   func(a *app, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"login":        {"login <username> [--password]", (*app).login},
	"register":     {"register <username> [--password]", (*app).register},
	"logout":       {"logout", (*app).logout},
	"whoami":       {"whoami", (*app).whoami},
	"customers":    {"customers", (*app).customers},
	"customer":     {"customer <id> | create <file.json> | update <id> <file.json> | delete <id>", (*app).customer},
	"apps":         {"apps [--status STATUS]", (*app).apps},
	"app":          {"app <id>", (*app).application},
	"queue":        {"queue", (*app).queue},
	"initiate":     {"initiate <customerId>", (*app).initiate},
	"upload":       {"upload <appId> <documentType> <path>", (*app).upload},
	"submit":       {"submit <appId>", (*app).submit},
	"resubmit":     {"resubmit <appId>", (*app).resubmit},
	"approve":      {"approve <appId> [--comment]", decide(review.ActionApprove)},
	"reject":       {"reject <appId> --reason", decide(review.ActionReject)},
	"request-info": {"request-info <appId> --comment", decide(review.ActionRequestInfo)},
	"history":      {"history <appId>", (*app).history},
	"summary":      {"summary", (*app).summary},
	"agent":        {"agent [--quick CUSTOMER_ID]", (*app).agent},
}

func printUsage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "usage: kycdesk [flags] <command> [args]")
	for _, name := range names {
		fmt.Fprintln(w, "  "+commands[name].usage)
	}
}

func (a *app) dispatch(ctx context.Context, name string, args []string) error {
	cmd, ok := commands[name]
	if !ok {
		printUsage(a.out)
		return dErrors.New(dErrors.CodeBadRequest, "unknown command: "+name)
	}
	return cmd.run(a, ctx, args)
}

func argID(args []string, i int, what string) (int64, error) {
	if len(args) <= i {
		return 0, dErrors.New(dErrors.CodeValidation, what+" is required")
	}
	return api.ParseID(args[i])
}

func (a *app) credentials(args []string) (authmodels.Credentials, error) {
	if len(args) == 0 {
		return authmodels.Credentials{}, dErrors.New(dErrors.CodeValidation, "username is required")
	}
	password := a.flags.password
	if password == "" {
		fmt.Fprint(a.out, "Password: ")
		line, err := bufio.NewReader(a.in).ReadString('\n')
		if err != nil && line == "" {
			return authmodels.Credentials{}, dErrors.New(dErrors.CodeValidation, "password is required")
		}
		password = strings.TrimRight(line, "\r\n")
	}
	return authmodels.Credentials{Username: args[0], Password: password}, nil
}

func (a *app) login(ctx context.Context, args []string) error {
	creds, err := a.credentials(args)
	if err != nil {
		return err
	}
	resp, err := a.client.Login(ctx, creds)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", resp.Username, resp.Role)
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	creds, err := a.credentials(args)
	if err != nil {
		return err
	}
	resp, err := a.client.Register(ctx, creds)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered and signed in as %s (%s)\n", resp.Username, resp.Role)
	return nil
}

func (a *app) logout(ctx context.Context, _ []string) error {
	if err := a.sess.Logout(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear session")
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func (a *app) whoami(ctx context.Context, _ []string) error {
	if err := a.desk.Guard(screen.RouteDashboard); err != nil {
		return err
	}
	me, err := a.client.Me(ctx)
	if err != nil {
		return settleAuth(err)
	}
	fmt.Fprintf(a.out, "%s (id %d, %s)\n", me.Username, me.UserID, me.Role)
	return nil
}

func (a *app) customers(ctx context.Context, _ []string) error {
	list, err := a.desk.Customers(ctx)
	if err != nil {
		return err
	}
	printCustomers(a.out, list)
	return nil
}

func (a *app) customer(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return dErrors.New(dErrors.CodeValidation, "customer id or subcommand is required")
	}
	switch args[0] {
	case "create":
		c, err := readCustomer(args, 1)
		if err != nil {
			return err
		}
		view, err := a.desk.CreateCustomer(ctx, c)
		if err != nil {
			return err
		}
		printCustomer(a.out, view)
		return nil
	case "update":
		id, err := argID(args, 1, "customer id")
		if err != nil {
			return err
		}
		c, err := readCustomer(args, 2)
		if err != nil {
			return err
		}
		view, err := a.desk.UpdateCustomer(ctx, id, c)
		if err != nil {
			return err
		}
		printCustomer(a.out, view)
		return nil
	case "delete":
		id, err := argID(args, 1, "customer id")
		if err != nil {
			return err
		}
		list, err := a.desk.DeleteCustomer(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Deleted customer %d\n", id)
		printCustomers(a.out, list)
		return nil
	}
	id, err := argID(args, 0, "customer id")
	if err != nil {
		return err
	}
	view, err := a.desk.OpenCustomer(ctx, id)
	if err != nil {
		return err
	}
	printCustomer(a.out, view)
	return nil
}

func readCustomer(args []string, i int) (*models.Customer, error) {
	if len(args) <= i {
		return nil, dErrors.New(dErrors.CodeValidation, "customer JSON file is required")
	}
	data, err := os.ReadFile(args[i])
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "cannot read "+args[i])
	}
	var c models.Customer
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid customer JSON: "+err.Error())
	}
	return &c, nil
}

func (a *app) apps(ctx context.Context, _ []string) error {
	rows, err := a.desk.Applications(ctx, a.flags.status)
	if err != nil {
		return err
	}
	printApplications(a.out, rows)
	return nil
}

func (a *app) queue(ctx context.Context, _ []string) error {
	rows, err := a.desk.ReviewQueue(ctx)
	if err != nil {
		return err
	}
	printApplications(a.out, rows)
	return nil
}

func (a *app) application(ctx context.Context, args []string) error {
	id, err := argID(args, 0, "application id")
	if err != nil {
		return err
	}
	view, err := a.desk.OpenApplication(ctx, id)
	if err != nil {
		return err
	}
	printApplication(a.out, view)
	return nil
}

func (a *app) initiate(ctx context.Context, args []string) error {
	id, err := argID(args, 0, "customer id")
	if err != nil {
		return err
	}
	view, err := a.desk.Initiate(ctx, id)
	if err != nil {
		return err
	}
	printApplication(a.out, view)
	return nil
}

func (a *app) upload(ctx context.Context, args []string) error {
	id, err := argID(args, 0, "application id")
	if err != nil {
		return err
	}
	if len(args) < 3 {
		return dErrors.New(dErrors.CodeValidation, "document type and file path are required")
	}
	view, err := a.desk.OpenApplication(ctx, id)
	if err != nil {
		return err
	}
	f, err := os.Open(args[2])
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "cannot open "+args[2])
	}
	defer f.Close()
	view, err = a.desk.Upload(ctx, view.Application, args[1], filepath.Base(args[2]), f)
	if err != nil {
		return err
	}
	printApplication(a.out, view)
	return nil
}

func (a *app) submit(ctx context.Context, args []string) error {
	return a.transition(ctx, args, a.desk.Submit)
}

func (a *app) resubmit(ctx context.Context, args []string) error {
	return a.transition(ctx, args, a.desk.Resubmit)
}

func (a *app) transition(ctx context.Context, args []string, fn func(context.Context, *models.Application) (*screen.ApplicationView, error)) error {
	id, err := argID(args, 0, "application id")
	if err != nil {
		return err
	}
	view, err := a.desk.OpenApplication(ctx, id)
	if err != nil {
		return err
	}
	view, err = fn(ctx, view.Application)
	if err != nil {
		return err
	}
	printApplication(a.out, view)
	return nil
}

// reviewer prefers --reviewer or config, then the signed-in username.
func (a *app) reviewer() string {
	var username string
	if user, ok := a.sess.User(); ok {
		username = user.Username
	}
	return kstrings.FirstNonBlank(a.cfg.Reviewer, username)
}

func decide(action review.Action) func(a *app, ctx context.Context, args []string) error {
	return func(a *app, ctx context.Context, args []string) error {
		id, err := argID(args, 0, "application id")
		if err != nil {
			return err
		}
		view, err := a.desk.OpenApplication(ctx, id)
		if err != nil {
			return err
		}
		view, err = a.desk.Review(ctx, view.Application, review.Decision{
			Action:   action,
			Reviewer: a.reviewer(),
			Comment:  a.flags.comment,
			Reason:   a.flags.reason,
		})
		if err != nil {
			return err
		}
		printApplication(a.out, view)
		return nil
	}
}

func (a *app) history(ctx context.Context, args []string) error {
	id, err := argID(args, 0, "application id")
	if err != nil {
		return err
	}
	events, err := a.desk.History(ctx, id)
	if err != nil {
		return err
	}
	printHistory(a.out, events)
	return nil
}

func (a *app) summary(ctx context.Context, _ []string) error {
	dash, err := a.desk.LoadDashboard(ctx)
	if err != nil {
		return err
	}
	printDashboard(a.out, dash, a.lang())
	return nil
}

func (a *app) agent(ctx context.Context, _ []string) error {
	if err := a.desk.Guard(screen.RouteDashboard); err != nil {
		return err
	}
	if a.flags.quick != 0 {
		qa, err := a.client.QuickAssess(ctx, a.flags.quick)
		if err != nil {
			return settleAuth(err)
		}
		printQuickAssessment(a.out, a.flags.quick, qa)
		return nil
	}
	health, err := a.client.AgentHealth(ctx)
	if err != nil {
		return settleAuth(err)
	}
	info, err := a.client.AgentInfo(ctx)
	if err != nil {
		return settleAuth(err)
	}
	printAgent(a.out, health, info)
	return nil
}

// settleAuth turns a rejected token into the login redirect.
func settleAuth(err error) error {
	if api.IsAuth(err) {
		return &screen.Redirect{To: screen.RouteLogin}
	}
	return err
}

func (a *app) lang() screen.Lang {
	return screen.ParseLang(a.cfg.Lang)
}
