package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	redisadapter "github.com/target/foodorder-ui/internal/adapters/redis"
	"github.com/target/foodorder-ui/internal/bootstrap"
	domainauth "github.com/target/foodorder-ui/internal/domain/auth"
)

// sessionAdmin is the operator view of the session store.
type sessionAdmin interface {
	List(ctx context.Context) ([]redisadapter.SessionSummary, error)
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

//nolint:ireturn // commands only need the admin surface.
func openSessionStore(ctx *commandContext) (sessionAdmin, func() error, error) {
	client, err := bootstrap.ConnectRedis(ctx.Ctx, bootstrap.RedisConnectConfig{
		Redis:  ctx.Config.Redis,
		Logger: ctx.Logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	return redisadapter.NewSessionStoreWithPrefix(client, ctx.Config.Session.KeyPrefix), client.Close, nil
}

func withSessions(ctx *commandContext, fn func(store sessionAdmin) error) error {
	store, closeFn, err := ctx.Sessions(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); cerr != nil {
			ctx.Logger.Warn("close session store", "error", cerr)
		}
	}()
	return fn(store)
}

type listOptions struct {
	Email string
	Limit int
	JSON  bool
}

func parseListFlags(ctx *commandContext, args []string) (listOptions, error) {
	fs := flag.NewFlagSet("sessions-list", flag.ContinueOnError)
	fs.SetOutput(ctx.Err)

	var opts listOptions
	fs.StringVar(&opts.Email, "email", "", "Filter by email substring (case-insensitive)")
	fs.IntVar(&opts.Limit, "limit", 20, "Maximum sessions to display (0 for unlimited)")
	fs.BoolVar(&opts.JSON, "json", false, "Print JSON instead of a table")

	if err := fs.Parse(args); err != nil {
		return listOptions{}, err
	}
	if opts.Limit < 0 {
		return listOptions{}, errors.New("--limit must be >= 0")
	}
	opts.Email = strings.ToLower(strings.TrimSpace(opts.Email))
	return opts, nil
}

func runSessionsList(ctx *commandContext, args []string) error {
	opts, err := parseListFlags(ctx, args)
	if err != nil {
		return err
	}
	return withSessions(ctx, func(store sessionAdmin) error {
		all, err := store.List(ctx.Ctx)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		return printSessions(ctx, filterSessions(all, opts), len(all), opts)
	})
}

func filterSessions(all []redisadapter.SessionSummary, opts listOptions) []redisadapter.SessionSummary {
	out := make([]redisadapter.SessionSummary, 0, len(all))
	for _, s := range all {
		if opts.Email != "" && !strings.Contains(strings.ToLower(s.Email), opts.Email) {
			continue
		}
		out = append(out, s)
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out
}

type sessionJSON struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Email          string    `json:"email"`
	ExpiresAt      time.Time `json:"expires_at"`
	ProfileCreated bool      `json:"profile_created"`
}

func printSessions(ctx *commandContext, rows []redisadapter.SessionSummary, total int, opts listOptions) error {
	if opts.JSON {
		out := make([]sessionJSON, len(rows))
		for i, s := range rows {
			out[i] = sessionJSON(s)
		}
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(rows) == 0 {
		return writeln(ctx.Out, "No sessions found.")
	}
	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	if err := writeln(tw, "ID\tUSER\tEMAIL\tEXPIRES\tPROFILE"); err != nil {
		return fmt.Errorf("write sessions header: %w", err)
	}
	for _, s := range rows {
		profile := "pending"
		if s.ProfileCreated {
			profile = "created"
		}
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.UserID, s.Email, s.ExpiresAt.UTC().Format(time.RFC3339), profile); err != nil {
			return fmt.Errorf("write session row %q: %w", s.ID, err)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writef(ctx.Out, "\nShowing %d of %d sessions.\n", len(rows), total)
}

type revokeOptions struct {
	ID     string
	DryRun bool
	Yes    bool
}

func parseRevokeFlags(ctx *commandContext, args []string) (revokeOptions, error) {
	fs := flag.NewFlagSet("session-revoke", flag.ContinueOnError)
	fs.SetOutput(ctx.Err)

	var opts revokeOptions
	fs.StringVar(&opts.ID, "id", "", "Session ID to revoke (required)")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Print actions without executing")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return revokeOptions{}, err
	}
	opts.ID = strings.TrimSpace(opts.ID)
	if opts.ID == "" {
		return revokeOptions{}, errors.New("--id is required")
	}
	return opts, nil
}

func runSessionRevoke(ctx *commandContext, args []string) error {
	opts, err := parseRevokeFlags(ctx, args)
	if err != nil {
		return err
	}
	return withSessions(ctx, func(store sessionAdmin) error {
		sess, err := store.Get(ctx.Ctx, opts.ID)
		if errors.Is(err, domainauth.ErrSessionNotFound) {
			return fmt.Errorf("session %q not found", opts.ID)
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}

		if opts.DryRun {
			return writef(ctx.Out, "[dry-run] would revoke session %s for %s\n", sess.ID, sess.Email)
		}
		if !opts.Yes {
			if err := confirm(ctx, sess); err != nil {
				return err
			}
		}
		if err := store.Delete(ctx.Ctx, sess.ID); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		ctx.Logger.InfoContext(ctx.Ctx, "session revoked", "session_id", sess.ID, "user_id", sess.UserID)
		return writef(ctx.Out, "Revoked session %s for %s\n", sess.ID, sess.Email)
	})
}

func confirm(ctx *commandContext, sess domainauth.Session) error {
	if err := writef(ctx.Err, "Revoke session %s for %s? [y/N]: ", sess.ID, sess.Email); err != nil {
		return fmt.Errorf("print confirmation prompt: %w", err)
	}
	resp, err := bufio.NewReader(ctx.In).ReadString('\n')
	if err != nil && resp == "" {
		return errors.New("aborted by user")
	}
	switch strings.ToLower(strings.TrimSpace(resp)) {
	case "y", "yes":
		return nil
	default:
		return errors.New("aborted by user")
	}
}
