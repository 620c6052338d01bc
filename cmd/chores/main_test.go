package main

import (
	"bytes"
	"context"
	"errors"
	"familychores/internal/config"
	"familychores/internal/infra/persistence/memory"
	"familychores/pkg/domain"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := rootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func useLocalMode(t *testing.T) {
	t.Helper()
	t.Setenv("CHORES_MODE", "local")
	t.Setenv("CHORES_BLOB_DRIVER", "fs")
	t.Setenv("CHORES_BLOB_FS_ROOT", t.TempDir())
	t.Setenv("CHORES_LOG_LEVEL", "error")
}

var idPattern = regexp.MustCompile(`\(([^)]+)\)`)

func TestLocalModeWorkflow(t *testing.T) {
	useLocalMode(t)

	out, err := run(t, "members", "list")
	if err != nil || !strings.Contains(out, "[E] Emma") || !strings.Contains(out, "Make bed") {
		t.Fatalf("expected seed members, got %q (%v)", out, err)
	}

	out, err = run(t, "templates", "add", "Mow lawn", "--recurrence", "weekly", "--days", "Sat,Sun")
	if err != nil {
		t.Fatalf("add template: %v", err)
	}
	m := idPattern.FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("no template id in %q", out)
	}
	templateID := m[1]

	out, err = run(t, "templates", "list")
	if err != nil || !strings.Contains(out, "Mow lawn") || !strings.Contains(out, "Sat,Sun") {
		t.Fatalf("unexpected templates %q (%v)", out, err)
	}

	if out, err = run(t, "chores", "assign", templateID, "2"); err != nil || !strings.Contains(out, "assigned Mow lawn") {
		t.Fatalf("assign: %q (%v)", out, err)
	}
	if out, err = run(t, "chores", "toggle", "1", "c1"); err != nil || !strings.Contains(out, "Make bed is now done") {
		t.Fatalf("toggle: %q (%v)", out, err)
	}
	if _, err = run(t, "chores", "edit", "1", "c1", "--name", "Make the bed", "--completed=false"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if _, err = run(t, "chores", "reassign", "1", "3", "c1"); err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if _, err = run(t, "chores", "add", "3", "Feed cat", "--due", "2024-06-01"); err != nil {
		t.Fatalf("add chore: %v", err)
	}
	if _, err = run(t, "chores", "unassign", "3", "c3"); err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if _, err = run(t, "members", "delete", "2"); err != nil {
		t.Fatalf("delete member: %v", err)
	}

	out, err = run(t, "members", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"Make the bed", "Feed cat", "due 2024-06-01"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
	for _, gone := range []string{"Alex", "Do homework", "Mow lawn"} {
		if strings.Contains(out, gone) {
			t.Fatalf("did not expect %q in %q", gone, out)
		}
	}

	out, err = run(t, "today")
	if err != nil || !strings.HasPrefix(out, "Due ") {
		t.Fatalf("today: %q (%v)", out, err)
	}

	if _, err = run(t, "templates", "delete", templateID); err != nil {
		t.Fatalf("delete template: %v", err)
	}
	if out, _ = run(t, "templates", "list"); !strings.Contains(out, "no chore templates") {
		t.Fatalf("expected empty template list, got %q", out)
	}
}

func TestCallerGuardsAndNotFound(t *testing.T) {
	useLocalMode(t)
	if _, err := run(t, "members", "add", "   "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := run(t, "templates", "add", "Dust", "--recurrence", "weekly", "--days", "Funday"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected weekday validation error, got %v", err)
	}
	_, err := run(t, "chores", "assign", "missing-template-id", "1")
	if !errors.Is(err, domain.ErrNotFound) || !strings.Contains(err.Error(), "Failed to assign chore") {
		t.Fatalf("expected not found with message, got %v", err)
	}
	if _, err := run(t, "--mode", "cloud", "members", "list"); err == nil {
		t.Fatalf("expected invalid mode error")
	}
}

func TestRestModeAgainstServedAPI(t *testing.T) {
	backend := memory.NewStore(nil)
	backend.ImportState(memory.Snapshot{Members: domain.SeedMembers(domain.Today())})
	reg := prometheus.NewRegistry()
	mux, err := newServerMux(backend, slog.New(slog.NewTextHandler(io.Discard, nil)), reg)
	if err != nil {
		t.Fatalf("mux: %v", err)
	}
	srv := httptest.NewServer(mux)
	defer srv.Close()

	t.Setenv("CHORES_MODE", "rest")
	t.Setenv("CHORES_API_URL", srv.URL+"/api")
	t.Setenv("CHORES_LOG_LEVEL", "error")

	metricsFile := filepath.Join(t.TempDir(), "chores.prom")
	if _, err := run(t, "--metrics-out", metricsFile, "members", "add", "Jordan"); err != nil {
		t.Fatalf("add member: %v", err)
	}
	members, _ := backend.ListMembers(context.Background())
	if len(members) != 4 || members[3].Name != "Jordan" || members[3].Color != domain.PaletteColor(3) {
		t.Fatalf("backend did not receive member: %+v", members)
	}
	data, err := os.ReadFile(metricsFile)
	if err != nil || !strings.Contains(string(data), `chores_operations_total{operation="addMember",outcome="success"} 1`) {
		t.Fatalf("unexpected metrics file %q (%v)", data, err)
	}

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "chores_http_requests_total") {
		t.Fatalf("expected http metrics, got %s", body)
	}
}

func TestRestModeFailureRollsBack(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	t.Setenv("CHORES_MODE", "rest")
	t.Setenv("CHORES_API_URL", url+"/api")
	t.Setenv("CHORES_LOG_LEVEL", "error")
	_, err := run(t, "members", "add", "Jordan")
	if !errors.Is(err, domain.ErrRemote) || !strings.Contains(err.Error(), "Failed to add family member") {
		t.Fatalf("expected remote failure, got %v", err)
	}
}

func TestBuildTemplate(t *testing.T) {
	tpl, err := buildTemplate("Mow", "front and back", "weekly", []string{"Sat", " Sun"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if tpl.Recurrence != domain.RecurrenceWeekly || len(tpl.Days) != 2 || tpl.Days[1] != domain.Sunday {
		t.Fatalf("unexpected template %+v", tpl)
	}
	if _, err := buildTemplate(" ", "", "daily", nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected blank name rejection")
	}
}

func TestFlagsOverrideInvalidConfigFile(t *testing.T) {
	t.Setenv("CHORES_LOG_LEVEL", "error")
	path := filepath.Join(t.TempDir(), "chores.yaml")
	if err := os.WriteFile(path, []byte("mode: postgres\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := run(t, "--config", path, "members", "list"); err == nil || !strings.Contains(err.Error(), "dsn") {
		t.Fatalf("expected missing dsn error, got %v", err)
	}
	out, err := run(t, "--config", path, "--mode", "memory", "members", "list")
	if err != nil || !strings.Contains(out, "Emma") {
		t.Fatalf("--mode should override the file: %q (%v)", out, err)
	}
}

func TestConfigInitWritesLoadableFile(t *testing.T) {
	t.Setenv("CHORES_LOG_LEVEL", "error")
	path := filepath.Join(t.TempDir(), "conf", "chores.yaml")
	out, err := run(t, "--mode", "memory", "config", "init", path)
	if err != nil || !strings.Contains(out, "wrote "+path) {
		t.Fatalf("config init: %q (%v)", out, err)
	}
	data, err := os.ReadFile(path)
	if err != nil || !strings.Contains(string(data), "mode: memory") {
		t.Fatalf("unexpected config file %q (%v)", data, err)
	}
	if _, err := run(t, "config", "init", path); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected refusal to overwrite, got %v", err)
	}
	if _, err := run(t, "--mode", "local", "config", "init", "--force", path); err != nil {
		t.Fatalf("forced init: %v", err)
	}
	if out, err := run(t, "--config", path, "--mode", "memory", "members", "list"); err != nil || !strings.Contains(out, "Emma") {
		t.Fatalf("written config not usable: %q (%v)", out, err)
	}
	if _, err := run(t, "--mode", "cloud", "config", "init", "--force", path); err == nil {
		t.Fatalf("expected invalid mode to be rejected")
	}
}

func TestResetRestoresSeedHousehold(t *testing.T) {
	useLocalMode(t)
	if _, err := run(t, "members", "add", "Jordan"); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if _, err := run(t, "templates", "add", "Dust"); err != nil {
		t.Fatalf("add template: %v", err)
	}
	out, err := run(t, "reset")
	if err != nil || !strings.Contains(out, "removed 2 stored collections") {
		t.Fatalf("reset: %q (%v)", out, err)
	}
	out, _ = run(t, "members", "list")
	if strings.Contains(out, "Jordan") || !strings.Contains(out, "Emma") {
		t.Fatalf("expected seed household after reset, got %q", out)
	}
	if _, err := run(t, "--mode", "memory", "reset"); err == nil || !strings.Contains(err.Error(), "local mode") {
		t.Fatalf("expected reset to require local mode, got %v", err)
	}
}

func TestCloseIntoJoinsErrors(t *testing.T) {
	closeErr := errors.New("close failed")
	runErr := errors.New("run failed")

	err := runErr
	closeInto(&err, "sqlite backend", func() error { return closeErr })
	if !errors.Is(err, runErr) || !errors.Is(err, closeErr) || !strings.Contains(err.Error(), "close sqlite backend") {
		t.Fatalf("expected joined error, got %v", err)
	}

	var ok error
	closeInto(&ok, "memory backend", func() error { return nil })
	if ok != nil {
		t.Fatalf("expected nil, got %v", ok)
	}
}

func TestShutdownReportsCloseError(t *testing.T) {
	a := &app{
		cfg:   &config.Config{Mode: "sqlite"},
		flags: &globalFlags{},
		close: func() error { return errors.New("database is locked") },
	}
	if err := a.shutdown(); err == nil || !strings.Contains(err.Error(), "close sqlite adapter: database is locked") {
		t.Fatalf("expected close error, got %v", err)
	}
}
