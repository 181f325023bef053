package config

import (
	"fmt"
	"net/url"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy of cfg and what is wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	out.App.Addr = strings.TrimSpace(out.App.Addr)
	out.Webhook.URL = strings.TrimSpace(out.Webhook.URL)
	out.Webhook.KeyringAccount = strings.TrimSpace(out.Webhook.KeyringAccount)

	origins := make([]string, 0, len(cfg.App.AllowedOrigins))
	for _, o := range cfg.App.AllowedOrigins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins = append(origins, strings.ToLower(o))
		}
	}
	out.App.AllowedOrigins = origins

	// Fields get their own slice so trimming never aliases the caller's config.
	fields := make([]Field, len(cfg.Form.Fields))
	for i, f := range cfg.Form.Fields {
		f.Name = strings.TrimSpace(f.Name)
		f.Label = strings.TrimSpace(f.Label)
		f.Kind = strings.ToLower(strings.TrimSpace(f.Kind))
		if f.Kind == "" {
			f.Kind = KindText
		}
		if f.Label == "" {
			f.Label = f.Name
		}
		fields[i] = f
	}
	out.Form.Fields = fields

	// ---- Validation rules ----

	if out.App.Addr == "" {
		res.addErr("app.addr is required")
	}

	for i, o := range out.App.AllowedOrigins {
		u, err := url.Parse(o)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") || u.Path != "" || u.RawQuery != "" {
			res.addErr("app.allowed_origins[%d] must be a scheme://host[:port] origin, got %q", i, o)
		}
		if o == "*" {
			res.addErr("app.allowed_origins must list origins explicitly; \"*\" is not accepted")
		}
	}

	if out.Webhook.URL == "" {
		res.addWarn("webhook.url is empty; every submission will fail until it is set (or INTAKE_WEBHOOK_URL is exported).")
	} else if u, err := url.Parse(out.Webhook.URL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		res.addErr("webhook.url must be an absolute http(s) URL, got %q", out.Webhook.URL)
	} else if u.Scheme == "http" && !isLoopback(u.Hostname()) {
		res.addWarn("webhook.url uses plain http for a non-local host (%s).", u.Host)
	}
	if out.Webhook.TimeoutSeconds < 0 {
		res.addErr("webhook.timeout_seconds must be >= 0")
	}
	if out.Webhook.RatePerSecond <= 0 {
		res.addErr("webhook.rate_per_second must be > 0")
	}
	if out.Webhook.Burst < 1 {
		res.addErr("webhook.burst must be >= 1")
	}

	if out.Sessions.TTLMinutes <= 0 {
		res.addErr("sessions.ttl_minutes must be > 0")
	}
	if out.Sessions.MaxForms <= 0 {
		res.addErr("sessions.max_forms must be > 0")
	}

	if out.Ledger.RetentionDays < 0 {
		res.addErr("ledger.retention_days must be >= 0")
	}
	if out.Ledger.RetentionDays > 0 && out.Ledger.PruneMinutes <= 0 {
		res.addErr("ledger.prune_minutes must be > 0 when retention_days is set")
	}

	if len(out.Form.Fields) == 0 {
		res.addErr("form.fields must have at least 1 field")
	}
	seen := map[string]bool{}
	tags := 0
	for i, f := range out.Form.Fields {
		if f.Name == "" {
			res.addErr("form.fields[%d].name is required", i)
			continue
		}
		if seen[f.Name] {
			res.addErr("form.fields[%d].name %q is duplicated", i, f.Name)
		}
		seen[f.Name] = true
		switch f.Kind {
		case KindText, KindEmail, KindTextarea:
		case KindTags:
			tags++
		default:
			res.addErr("form.fields[%d].kind %q must be one of text, email, textarea, tags", i, f.Kind)
		}
	}
	if len(out.Form.Fields) > 0 && tags == 0 {
		res.addWarn("form has no tags fields; skills will not be collected.")
	}

	return out, res
}

func isLoopback(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
