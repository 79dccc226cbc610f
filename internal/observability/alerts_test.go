package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type alertRule struct {
	Alert       string            `yaml:"alert"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for"`
	Labels      map[string]string `yaml:"labels"`
	Annotations map[string]string `yaml:"annotations"`
}

type alertGroup struct {
	Name  string      `yaml:"name"`
	Rules []alertRule `yaml:"rules"`
}

type alertSpec struct {
	Groups []alertGroup `yaml:"groups"`
}

func loadAlertGroup(t *testing.T, file, name string) alertGroup {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "deploy", "prometheus", "alerts", file))
	if err != nil {
		t.Fatalf("failed to read alert file: %v", err)
	}
	var spec alertSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		t.Fatalf("failed to unmarshal alert file: %v", err)
	}
	for _, g := range spec.Groups {
		if g.Name == name {
			return g
		}
	}
	t.Fatalf("alert group %q missing", name)
	return alertGroup{}
}

func TestClipboardAlertRules(t *testing.T) {
	group := loadAlertGroup(t, "clipboard.yml", "clipboard")

	expected := map[string]struct {
		severity string
		metric   string
	}{
		"ClipboardHighErrorRate":      {severity: "critical", metric: "odyssey_clipboard_actions_total"},
		"ClipboardUnsupportedActions": {severity: "warning", metric: "odyssey_clipboard_actions_total"},
		"ConversationBulkJobFailures": {severity: "warning", metric: "odyssey_jobs_failures_total"},
	}
	if len(group.Rules) != len(expected) {
		t.Fatalf("expected %d rules, got %d", len(expected), len(group.Rules))
	}

	for _, rule := range group.Rules {
		want, ok := expected[rule.Alert]
		if !ok {
			t.Fatalf("unexpected rule %q", rule.Alert)
		}
		if rule.Labels["severity"] != want.severity {
			t.Fatalf("rule %s severity mismatch: %s", rule.Alert, rule.Labels["severity"])
		}
		if !strings.Contains(rule.Expr, want.metric) {
			t.Fatalf("rule %s must reference %s, got %q", rule.Alert, want.metric, rule.Expr)
		}
		if rule.Annotations["summary"] == "" || rule.Annotations["runbook"] == "" {
			t.Fatalf("rule %s must include summary and runbook annotations", rule.Alert)
		}
		if rule.For == "" {
			t.Fatalf("rule %s must define a hold duration", rule.Alert)
		}
	}
}

func TestClipboardRunbookLinksResolve(t *testing.T) {
	group := loadAlertGroup(t, "clipboard.yml", "clipboard")

	for _, rule := range group.Rules {
		path, anchor, _ := strings.Cut(rule.Annotations["runbook"], "#")
		data, err := os.ReadFile(filepath.Join("..", "..", filepath.FromSlash(path)))
		if err != nil {
			t.Fatalf("rule %s runbook %s unreadable: %v", rule.Alert, path, err)
		}
		if anchor == "" {
			continue
		}
		found := false
		for _, line := range strings.Split(string(data), "\n") {
			heading, ok := strings.CutPrefix(line, "## ")
			if ok && strings.ReplaceAll(strings.ToLower(strings.TrimSpace(heading)), " ", "-") == anchor {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("rule %s runbook anchor #%s missing in %s", rule.Alert, anchor, path)
		}
	}
}
