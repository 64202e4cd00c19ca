package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/sugicreations/sugi-backend/internal/members"
	"github.com/sugicreations/sugi-backend/pkg/enums"
)

const passwordEnv = "SUGI_ADMIN_PASSWORD"

const usage = `usage: members <command> [flags]

commands:
  create-admin -email E -name N [-password P]   create an ADMIN member (password falls back to $SUGI_ADMIN_PASSWORD)
  list [-role USER|ADMIN]                       list members
  promote -email E [-role ADMIN|USER]           change a member's role
  delete -email E                               remove a member
  check -email E [-password P]                  verify a member's password
`

var errUsage = errors.New("invalid usage")

type getenvFunc func(string) string

func run(ctx context.Context, svc members.Service, args []string, out io.Writer, getenv getenvFunc) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "create-admin":
		return createAdmin(ctx, svc, rest, out, getenv)
	case "list":
		return listMembers(ctx, svc, rest, out)
	case "promote":
		return promote(ctx, svc, rest, out)
	case "delete":
		return deleteMember(ctx, svc, rest, out)
	case "check":
		return checkPassword(ctx, svc, rest, out, getenv)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func createAdmin(ctx context.Context, svc members.Service, args []string, out io.Writer, getenv getenvFunc) error {
	fs := newFlagSet("create-admin", out)
	email := fs.String("email", "", "member email")
	name := fs.String("name", "", "display name")
	password := fs.String("password", "", "plaintext password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *name == "" {
		return fmt.Errorf("create-admin requires -email and -name: %w", errUsage)
	}
	pw := *password
	if pw == "" {
		pw = getenv(passwordEnv)
	}
	if pw == "" {
		return fmt.Errorf("create-admin requires -password or $%s: %w", passwordEnv, errUsage)
	}

	member, err := svc.Create(ctx, members.CreateInput{
		Name:     *name,
		Email:    *email,
		Password: pw,
		Role:     enums.MemberRoleAdmin,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "created admin %s (%s)\n", member.Email, member.ID)
	return nil
}

func listMembers(ctx context.Context, svc members.Service, args []string, out io.Writer) error {
	fs := newFlagSet("list", out)
	roleFlag := fs.String("role", "", "filter by role")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var role *enums.MemberRole
	if *roleFlag != "" {
		parsed, err := enums.ParseMemberRole(*roleFlag)
		if err != nil {
			return err
		}
		role = &parsed
	}

	list, err := svc.List(ctx, role)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EMAIL\tNAME\tROLE\tLAST LOGIN")
	for _, m := range list {
		lastLogin := "never"
		if m.LastLoginAt != nil {
			lastLogin = m.LastLoginAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Email, m.Name, m.Role, lastLogin)
	}
	return tw.Flush()
}

func promote(ctx context.Context, svc members.Service, args []string, out io.Writer) error {
	fs := newFlagSet("promote", out)
	email := fs.String("email", "", "member email")
	roleFlag := fs.String("role", string(enums.MemberRoleAdmin), "target role")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("promote requires -email: %w", errUsage)
	}
	role, err := enums.ParseMemberRole(*roleFlag)
	if err != nil {
		return err
	}
	member, err := svc.SetRole(ctx, *email, role)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s is now %s\n", member.Email, member.Role)
	return nil
}

func deleteMember(ctx context.Context, svc members.Service, args []string, out io.Writer) error {
	fs := newFlagSet("delete", out)
	email := fs.String("email", "", "member email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("delete requires -email: %w", errUsage)
	}
	if err := svc.Delete(ctx, *email); err != nil {
		return err
	}
	fmt.Fprintf(out, "deleted %s\n", *email)
	return nil
}

func checkPassword(ctx context.Context, svc members.Service, args []string, out io.Writer, getenv getenvFunc) error {
	fs := newFlagSet("check", out)
	email := fs.String("email", "", "member email")
	password := fs.String("password", "", "plaintext password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pw := *password
	if pw == "" {
		pw = getenv(passwordEnv)
	}
	if *email == "" || pw == "" {
		return fmt.Errorf("check requires -email and a password: %w", errUsage)
	}
	ok, err := svc.CheckPassword(ctx, *email, pw)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("password does not match")
	}
	fmt.Fprintln(out, "password ok")
	return nil
}
