package fmf

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type entry struct {
	name    string
	content string
}

func buildArchive(t *testing.T, entries ...entry) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		fw, err := w.Create(e.name)
		if err != nil {
			t.Fatalf("Failed to create %s in zip: %v", e.name, err)
		}
		if _, err := fw.Write([]byte(e.content)); err != nil {
			t.Fatalf("Failed to write %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to finalize zip: %v", err)
	}
	return buf.Bytes()
}

func testLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
}

func mustParse(t *testing.T, data []byte, opts Options) *Data {
	t.Helper()

	out, err := Parse(context.Background(), data, opts, testLogger(t))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return out
}

func TestParse_EndToEnd(t *testing.T) {
	data := buildArchive(t, entry{"players.xml",
		`<players><player id="7" first_name="Jane" last_name="Doe" current_ability="120"/></players>`})

	out := mustParse(t, data, DefaultOptions())
	if len(out.Players) != 1 {
		t.Fatalf("got %d players, want 1", len(out.Players))
	}
	p := out.Players[0]
	if p.ID != "7" || p.FirstName != "Jane" || p.LastName != "Doe" || p.Ability != 120 || p.Potential != 50 || p.Nationality != "Unknown" {
		t.Errorf("player = %+v", p)
	}
	if len(out.Clubs) != 0 || len(out.Competitions) != 0 {
		t.Errorf("unexpected clubs %d / competitions %d", len(out.Clubs), len(out.Competitions))
	}
	if _, ok := out.Documents["players.xml"]; !ok {
		t.Error("decoded document not retained")
	}
	if out.Err() != nil {
		t.Errorf("Err() = %v, want nil", out.Err())
	}
}

func TestParse_EmptyCategories(t *testing.T) {
	data := buildArchive(t,
		entry{"nations.xml", `<nations><nation id="1"/></nations>`},
		entry{"readme.txt", `players clubs competitions`},
	)

	out := mustParse(t, data, DefaultOptions())
	if out.Players == nil || out.Clubs == nil || out.Competitions == nil {
		t.Fatal("collections must be empty, not nil")
	}
	if s := out.Summary(); s != (Summary{Documents: 1}) {
		t.Errorf("Summary() = %+v, want only one document", s)
	}
	if _, ok := out.Documents["readme.txt"]; ok {
		t.Error("non xml entry must not be decoded")
	}
}

func TestParse_EveryRecordOnce(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<db><meta><version>24</version></meta><list>")
	for i := range 25 {
		fmt.Fprintf(&sb, `<record id="r%d"/>`, i)
	}
	sb.WriteString("</list></db>")

	out := mustParse(t, buildArchive(t, entry{"data/Player_Records.xml", sb.String()}), DefaultOptions())
	if len(out.Players) != 25 {
		t.Fatalf("got %d players, want 25", len(out.Players))
	}
	seen := make(map[string]bool)
	for i, p := range out.Players {
		if want := fmt.Sprintf("r%d", i); p.ID != want {
			t.Errorf("player[%d].ID = %s, want %s", i, p.ID, want)
		}
		if seen[p.ID] {
			t.Errorf("duplicate player %s", p.ID)
		}
		seen[p.ID] = true
	}
}

func TestParse_SyntheticIDsDeterministic(t *testing.T) {
	data := buildArchive(t,
		entry{"players_a.xml", `<players><player first_name="A"/><player first_name="B"/></players>`},
		entry{"players_b.xml", `<players><player first_name="C"/><player id="x"/><player first_name="E"/></players>`},
	)

	first := mustParse(t, data, DefaultOptions())
	want := []string{"player_0", "player_1", "player_0", "x", "player_2"}
	for run := range 3 {
		out := mustParse(t, data, DefaultOptions())
		if len(out.Players) != len(want) {
			t.Fatalf("run %d: got %d players, want %d", run, len(out.Players), len(want))
		}
		for i, p := range out.Players {
			if p.ID != want[i] {
				t.Errorf("run %d: player[%d].ID = %s, want %s", run, i, p.ID, want[i])
			}
		}
		if !reflect.DeepEqual(out.Players, first.Players) {
			t.Errorf("run %d: result differs from first run", run)
		}
	}
}

func TestParse_MultipleCategories(t *testing.T) {
	data := buildArchive(t, entry{"club_and_competition.xml",
		`<data><clubs><club id="c1" name="Ajax"/><club id="c2" name="PSV"/></clubs>` +
			`<competitions><competition id="k1" name="Eredivisie"/></competitions></data>`})

	out := mustParse(t, data, DefaultOptions())
	if len(out.Clubs) != 2 || out.Clubs[0].Name != "Ajax" || out.Clubs[1].Name != "PSV" {
		t.Errorf("clubs = %+v", out.Clubs)
	}
	if len(out.Competitions) != 1 || out.Competitions[0].Name != "Eredivisie" {
		t.Errorf("competitions = %+v", out.Competitions)
	}
	if len(out.Players) != 0 {
		t.Errorf("players = %+v, want none", out.Players)
	}
}

func TestParse_MalformedEntry(t *testing.T) {
	data := buildArchive(t,
		entry{"clubs.xml", `<clubs><club id="1" name="Celtic"/></clubs>`},
		entry{"players.xml", "\x89\x00garbage<<>>&&"},
	)

	out := mustParse(t, data, DefaultOptions())
	if len(out.Clubs) != 1 {
		t.Errorf("got %d clubs, want 1", len(out.Clubs))
	}
	if len(out.Players) != 0 {
		t.Errorf("got %d players, want 0", len(out.Players))
	}
	if len(out.Skipped) != 1 || out.Skipped[0].Entry != "players.xml" {
		t.Fatalf("skipped = %v, want players.xml", out.Skipped)
	}
	if _, ok := out.Documents["players.xml"]; ok {
		t.Error("malformed document must not be retained")
	}

	var me *MalformedDocumentError
	if err := out.Err(); !errors.As(err, &me) {
		t.Errorf("Err() = %v, want MalformedDocumentError", err)
	}
}

func TestParse_SecondRootSkipped(t *testing.T) {
	data := buildArchive(t,
		entry{"players.xml", `<players><player id="1"/></players><players><player id="2"/></players>`},
		entry{"more_players.xml", `<players><player id="3"/></players> trailing`},
		entry{"clubs.xml", `<clubs><club id="1"/></clubs>`},
	)

	out := mustParse(t, data, DefaultOptions())
	if len(out.Players) != 0 {
		t.Errorf("players = %+v, want none", out.Players)
	}
	var names []string
	for _, e := range out.Skipped {
		names = append(names, e.Entry)
	}
	if !reflect.DeepEqual(names, []string{"players.xml", "more_players.xml"}) {
		t.Errorf("skipped = %v, want [players.xml more_players.xml]", names)
	}
	if s := out.Summary(); s.Documents != 1 || s.Clubs != 1 {
		t.Errorf("summary = %+v", s)
	}
}

func TestParse_DuplicateEntryNames(t *testing.T) {
	data := buildArchive(t,
		entry{"players.xml", `<players><player id="1"/></players>`},
		entry{"players.xml", `<players><player id="2"/></players>`},
		entry{"players.xml", `<players><player id="3"/></players>`},
	)

	out := mustParse(t, data, DefaultOptions())
	if len(out.Players) != 3 {
		t.Fatalf("got %d players, want 3", len(out.Players))
	}
	if got := out.DocumentNames(); !reflect.DeepEqual(got, []string{"players.xml", "players.xml#2", "players.xml#3"}) {
		t.Fatalf("documents = %v", got)
	}
	for i, name := range []string{"players.xml", "players.xml#2", "players.xml#3"} {
		records := FindRecords(out.Documents[name], []string{"player"})
		if len(records) != 1 {
			t.Fatalf("%s: got %d records", name, len(records))
		}
		if id, _ := records[0].Attr("id"); id.Text() != out.Players[i].ID {
			t.Errorf("%s holds player %s, want %s", name, id.Text(), out.Players[i].ID)
		}
	}
}

func TestParse_CorruptArchive(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

	tests := []struct {
		name     string
		data     []byte
		detected string
	}{
		{"empty", nil, ""},
		{"text", []byte("definitely not an archive"), ""},
		{"image", png, "png"},
		{"truncated zip", buildArchive(t, entry{"players.xml", "<players/>"})[:30], "zip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Parse(context.Background(), tt.data, DefaultOptions(), testLogger(t))
			if err == nil {
				t.Fatal("Expected error for corrupt archive")
			}
			if out != nil {
				t.Error("corrupt archive must not produce partial result")
			}
			var ce *CorruptArchiveError
			if !errors.As(err, &ce) {
				t.Fatalf("error type = %T, want *CorruptArchiveError", err)
			}
			if ce.Detected != tt.detected {
				t.Errorf("detected = %q, want %q", ce.Detected, tt.detected)
			}
		})
	}
}

func TestParse_WorkersDoNotChangeResult(t *testing.T) {
	var entries []entry
	for i := range 20 {
		entries = append(entries,
			entry{fmt.Sprintf("players_%02d.xml", i), fmt.Sprintf(`<p><player first_name="P%d"/><player/></p>`, i)},
			entry{fmt.Sprintf("team_%02d.xml", i), fmt.Sprintf(`<t><team name="T%d"/></t>`, i)},
		)
	}
	entries = append(entries, entry{"players_bad.xml", "<broken>"})
	data := buildArchive(t, entries...)

	sequential := mustParse(t, data, Options{Workers: 1})
	for _, workers := range []int{0, 2, 8, 64} {
		parallel := mustParse(t, data, Options{Workers: workers})
		if !reflect.DeepEqual(parallel.Players, sequential.Players) ||
			!reflect.DeepEqual(parallel.Clubs, sequential.Clubs) ||
			!reflect.DeepEqual(parallel.Competitions, sequential.Competitions) {
			t.Errorf("workers=%d: result differs from sequential parse", workers)
		}
		if len(parallel.Skipped) != 1 || len(parallel.Documents) != len(sequential.Documents) {
			t.Errorf("workers=%d: summary %+v, want %+v", workers, parallel.Summary(), sequential.Summary())
		}
	}
	if sequential.Players[2].FirstName != "P1" || sequential.Clubs[19].Name != "T19" {
		t.Errorf("records out of archive order: %+v / %+v", sequential.Players[2], sequential.Clubs[19])
	}
}

func TestParse_DuplicatesAcrossEntriesRetained(t *testing.T) {
	data := buildArchive(t,
		entry{"clubs.xml", `<clubs><club id="1" name="Hearts"/></clubs>`},
		entry{"teams.xml", `<teams><team id="1" name="Hearts"/></teams>`},
	)
	out := mustParse(t, data, DefaultOptions())
	if len(out.Clubs) != 2 || out.Clubs[0].ID != out.Clubs[1].ID {
		t.Errorf("clubs = %+v, want two copies of id 1", out.Clubs)
	}
}

func TestParse_CustomRules(t *testing.T) {
	data := buildArchive(t, entry{"db/spieler.XML", `<liste><spieler id="1" first_name="Uwe"/></liste>`})

	opts := DefaultOptions()
	opts.Rules = map[Category]CategoryRule{
		CategoryPlayers: {Keywords: []string{"spieler"}, Containers: []string{"spieler"}},
	}
	out := mustParse(t, data, opts)
	if len(out.Players) != 1 || out.Players[0].FirstName != "Uwe" {
		t.Errorf("players = %+v", out.Players)
	}
}

func TestParse_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Parse(ctx, buildArchive(t, entry{"players.xml", "<p/>"}), DefaultOptions(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Parse() error = %v, want context.Canceled", err)
	}
}

func TestData_String(t *testing.T) {
	out := mustParse(t, buildArchive(t,
		entry{"players10.xml", `<p><player id="1" first_name="A" last_name="B"/></p>`},
		entry{"players9.xml", `<p/>`},
		entry{"players.xml", `<oops>`},
	), DefaultOptions())

	if names := out.DocumentNames(); !reflect.DeepEqual(names, []string{"players9.xml", "players10.xml"}) {
		t.Errorf("DocumentNames() = %v", names)
	}
	s := out.String()
	for _, want := range []string{"Players: 1", `Player["1"] A B`, "Documents: 2", "Skipped: 1", "players.xml"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() does not contain %q:\n%s", want, s)
		}
	}

	dump := out.Documents["players10.xml"].String()
	for _, want := range []string{"document: {1}", "p: {1}", "player: {3}", "@_id: 1", `@_first_name: "A"`} {
		if !strings.Contains(dump, want) {
			t.Errorf("document dump does not contain %q:\n%s", want, dump)
		}
	}
}
