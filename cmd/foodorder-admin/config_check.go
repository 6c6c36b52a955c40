package main

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/target/foodorder-ui/config"
)

var errCheckFailed = errors.New("check failed")

type configCheckOptions struct {
	Ping bool
}

func parseConfigCheckFlags(ctx *commandContext, args []string) (configCheckOptions, error) {
	fs := flag.NewFlagSet("config-check", flag.ContinueOnError)
	fs.SetOutput(ctx.Err)

	var opts configCheckOptions
	fs.BoolVar(&opts.Ping, "ping", false, "Also connect to the session store")

	if err := fs.Parse(args); err != nil {
		return configCheckOptions{}, err
	}
	return opts, nil
}

func runConfigCheck(ctx *commandContext, args []string) error {
	opts, err := parseConfigCheckFlags(ctx, args)
	if err != nil {
		return err
	}

	if err := printConfigSummary(ctx, &ctx.Config); err != nil {
		return err
	}

	if ctx.ConfigErr != nil {
		if err := writef(ctx.Err, "\nconfiguration invalid: %v\n", ctx.ConfigErr); err != nil {
			return err
		}
		var missing *config.MissingError
		if errors.As(ctx.ConfigErr, &missing) {
			for _, v := range missing.Vars {
				if err := writef(ctx.Err, "  missing %s\n", v); err != nil {
					return err
				}
			}
		}
		return errCheckFailed
	}

	if opts.Ping {
		_, closeFn, err := ctx.Sessions(ctx)
		if err != nil {
			if werr := writef(ctx.Err, "\nsession store unreachable: %v\n", err); werr != nil {
				return werr
			}
			return errCheckFailed
		}
		if err := closeFn(); err != nil {
			ctx.Logger.Warn("close session store", "error", err)
		}
		if err := writeln(ctx.Out, "\nsession store reachable"); err != nil {
			return err
		}
	}

	return writeln(ctx.Out, "\nconfiguration OK")
}

func printConfigSummary(ctx *commandContext, cfg *config.AppConfig) error {
	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	rows := [][2]string{
		{"dev mode", fmt.Sprint(cfg.IsDev)},
		{"auth mode", string(cfg.Auth.Mode)},
		{"auth0 domain", orUnset(cfg.Auth.Auth0.Domain)},
		{"auth0 client id", orUnset(cfg.Auth.Auth0.ClientID)},
		{"auth0 client secret", secret(cfg.Auth.Auth0.ClientSecret)},
		{"auth0 callback url", orUnset(cfg.Auth.Auth0.CallbackURL)},
		{"auth0 audience", orUnset(cfg.Auth.Auth0.Audience)},
		{"api base url", orUnset(cfg.API.BaseURL)},
		{"api timeout", cfg.API.Timeout.String()},
		{"redis", redisSummary(cfg.Redis)},
		{"redis password", secret(cfg.Redis.Password)},
		{"session ttl", cfg.Session.TTL.String()},
		{"http addr", cfg.HTTP.Addr},
		{"app base url", orUnset(cfg.HTTP.BaseURL)},
		{"cookie domain", orUnset(cfg.HTTP.CookieDomain)},
		{"login rate per minute", fmt.Sprint(cfg.HTTP.LoginRatePerMinute)},
		{"metrics", metricsSummary(cfg.Observability.Metrics)},
	}
	if err := writeln(tw, "SETTING\tVALUE"); err != nil {
		return fmt.Errorf("write config header: %w", err)
	}
	for _, row := range rows {
		if err := writef(tw, "%s\t%s\n", row[0], row[1]); err != nil {
			return fmt.Errorf("write config row %q: %w", row[0], err)
		}
	}
	return tw.Flush()
}

func orUnset(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(unset)"
	}
	return v
}

func secret(v string) string {
	if v == "" {
		return "(unset)"
	}
	return "(set)"
}

func redisSummary(r config.RedisConfig) string {
	switch {
	case r.UseCluster:
		return "cluster " + strings.Join(r.ClusterNodes, ",")
	case r.UseSentinel:
		return "sentinel " + r.SentinelMasterName + " via " + strings.Join(r.SentinelNodes, ",")
	default:
		return "direct " + redactURI(r.URI)
	}
}

// redactURI hides the userinfo part of a connection URI.
func redactURI(uri string) string {
	at := strings.LastIndex(uri, "@")
	if at < 0 {
		return uri
	}
	scheme := ""
	if i := strings.Index(uri, "://"); i > -1 && i < at {
		scheme = uri[:i+3]
	}
	return scheme + "***@" + uri[at+1:]
}

func metricsSummary(m config.ObservabilityMetricsConfig) string {
	if !m.IsEnabled() {
		return "disabled"
	}
	return m.StatsdAddress + " prefix=" + m.Prefix
}
