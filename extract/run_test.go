package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	yaml "gopkg.in/yaml.v3"

	"fmfc/common"
	"fmfc/config"
	"fmfc/fmf"
	"fmfc/state"
)

func writeArchive(t *testing.T, dir, name string, entries map[string]string, order ...string) string {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, n := range order {
		fw, err := w.Create(n)
		if err != nil {
			t.Fatalf("Failed to create %s in zip: %v", n, err)
		}
		if _, err := fw.Write([]byte(entries[n])); err != nil {
			t.Fatalf("Failed to write %s: %v", n, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to finalize zip: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("Failed to write archive: %v", err)
	}
	return path
}

func testEnv(t *testing.T) *state.LocalEnv {
	t.Helper()

	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	return &state.LocalEnv{
		Cfg: cfg,
		Log: zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))),
	}
}

var sampleEntries = map[string]string{
	"players.xml": `<players><player id="7" first_name="Jane" last_name="Doe" current_ability="120"/></players>`,
	"clubs.xml":   `<clubs><club id="1" name="Celtic"/><club name="Rangers"/></clubs>`,
	"broken.xml":  `<comps><competition>`,
}

func TestProcess_YAMLToDirectory(t *testing.T) {
	dir := t.TempDir()
	src := writeArchive(t, dir, "save.fmf", sampleEntries, "players.xml", "clubs.xml", "broken.xml")
	outDir := filepath.Join(dir, "out")
	if err := os.Mkdir(outDir, 0755); err != nil {
		t.Fatal(err)
	}

	env := testEnv(t)
	req := request{src: src, dst: outDir, format: common.OutputFmtYaml}
	if err := process(context.Background(), env, req, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "save.yaml"))
	if err != nil {
		t.Fatalf("output was not written: %v", err)
	}

	var got struct {
		Summary fmf.Summary  `yaml:"summary"`
		Players []fmf.Player `yaml:"players"`
		Clubs   []fmf.Club   `yaml:"clubs"`
		Skipped []skipped    `yaml:"skipped"`
	}
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("output is not valid yaml: %v\n%s", err, data)
	}
	if got.Summary != (fmf.Summary{Documents: 2, Skipped: 1, Players: 1, Clubs: 2}) {
		t.Errorf("summary = %+v", got.Summary)
	}
	if len(got.Players) != 1 || got.Players[0].FirstName != "Jane" || got.Players[0].Potential != 50 {
		t.Errorf("players = %+v", got.Players)
	}
	if len(got.Clubs) != 2 || got.Clubs[1].ID != "club_1" {
		t.Errorf("clubs = %+v", got.Clubs)
	}
	if len(got.Skipped) != 1 || got.Skipped[0].Entry != "broken.xml" || len(got.Skipped[0].Error) == 0 {
		t.Errorf("skipped = %+v", got.Skipped)
	}
	if strings.Contains(string(data), "documents:\n") {
		t.Error("documents written without request")
	}
}

func TestProcess_JSONFileWithDocuments(t *testing.T) {
	dir := t.TempDir()
	src := writeArchive(t, dir, "save.zip", sampleEntries, "players.xml", "clubs.xml")
	dst := filepath.Join(dir, "result.json")

	env := testEnv(t)
	req := request{src: src, dst: dst, format: common.OutputFmtJson, documents: true}
	if err := process(context.Background(), env, req, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("output was not written: %v", err)
	}
	var got struct {
		Players   []fmf.Player   `json:"players"`
		Documents map[string]any `json:"documents"`
		Skipped   []skipped      `json:"skipped"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("output is not valid json: %v\n%s", err, data)
	}
	if len(got.Players) != 1 || got.Players[0].ID != "7" {
		t.Errorf("players = %+v", got.Players)
	}
	if len(got.Documents) != 2 {
		t.Errorf("documents = %v", got.Documents)
	}
	if got.Skipped != nil {
		t.Errorf("skipped = %v, want none", got.Skipped)
	}
}

func TestProcess_Errors(t *testing.T) {
	dir := t.TempDir()
	env := testEnv(t)

	t.Run("missing source", func(t *testing.T) {
		req := request{src: filepath.Join(dir, "absent.fmf"), dst: filepath.Join(dir, "x.yaml")}
		if err := process(context.Background(), env, req, env.Log); err == nil {
			t.Error("Expected error for absent source")
		}
	})

	t.Run("corrupt archive", func(t *testing.T) {
		src := filepath.Join(dir, "bad.fmf")
		if err := os.WriteFile(src, []byte("not a zip at all"), 0644); err != nil {
			t.Fatal(err)
		}
		dst := filepath.Join(dir, "bad.yaml")
		err := process(context.Background(), env, request{src: src, dst: dst}, env.Log)
		var ce *fmf.CorruptArchiveError
		if !errors.As(err, &ce) {
			t.Fatalf("process() error = %v, want CorruptArchiveError", err)
		}
		if _, err := os.Stat(dst); !os.IsNotExist(err) {
			t.Error("no output expected for corrupt archive")
		}
	})
}

func TestProcess_DebugReport(t *testing.T) {
	dir := t.TempDir()
	src := writeArchive(t, dir, "save.fmf", sampleEntries, "players.xml", "clubs.xml")

	env := testEnv(t)
	env.RunID = state.EnvFromContext(state.ContextWithEnv(context.Background())).RunID
	rc := config.ReporterConfig{Destination: filepath.Join(dir, "report.zip")}
	rpt, err := rc.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	env.Rpt = rpt

	req := request{src: src, dst: filepath.Join(dir, "save.yaml"), format: common.OutputFmtYaml}
	if err := process(context.Background(), env, req, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if err := rpt.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	zr, err := zip.OpenReader(rc.Destination)
	if err != nil {
		t.Fatalf("report is not readable: %v", err)
	}
	defer zr.Close()

	prefix := "extract/" + env.RunID.String() + "/"
	want := map[string]bool{
		prefix + "summary.txt":                    false,
		prefix + "documents/0000-clubs-xml.txt":   false,
		prefix + "documents/0001-players-xml.txt": false,
	}
	for _, f := range zr.File {
		if _, ok := want[f.Name]; ok {
			want[f.Name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("report does not contain %s", name)
		}
	}
}

func TestDestination(t *testing.T) {
	dir := t.TempDir()

	got, err := destination("/data/My Save.fmf", dir, common.OutputFmtJson)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "My Save.json"); got != want {
		t.Errorf("destination() = %s, want %s", got, want)
	}

	file := filepath.Join(dir, "explicit.out")
	if got, _ := destination("/data/save.fmf", file, common.OutputFmtYaml); got != file {
		t.Errorf("destination() = %s, want %s", got, file)
	}
	if got, _ := destination("/data/save.fmf", "", common.OutputFmtYaml); got != "" {
		t.Errorf("destination() = %s, want STDOUT", got)
	}
}

func TestReportName(t *testing.T) {
	tests := []struct {
		i     int
		entry string
		want  string
	}{
		{0, "players.xml", "0000-players-xml.txt"},
		{12, "db/Club Data.xml", "0012-db-club-data-xml.txt"},
		{3, "///", "0003-entry.txt"},
	}
	for _, tt := range tests {
		if got := reportName(tt.i, tt.entry); got != tt.want {
			t.Errorf("reportName(%d, %q) = %q, want %q", tt.i, tt.entry, got, tt.want)
		}
	}
}
