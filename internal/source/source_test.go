package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/discochess/moveloss/internal/codec"
)

func writeFile(t *testing.T, path string, data string) {
	t.Helper()
	w, err := Create(path, nil)
	if err != nil {
		t.Fatalf("Create(%s) error = %v", path, err)
	}
	if _, err := io.WriteString(w, data); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		path    string
		want    Location
		wantErr bool
	}{
		{"games.pgn", Location{Key: "games.pgn"}, false},
		{"/data/a.epd.zst", Location{Key: "/data/a.epd.zst"}, false},
		{"s3://bucket/dir/a.epd", Location{Scheme: "s3", Bucket: "bucket", Key: "dir/a.epd"}, false},
		{"gs://b/o#1", Location{Scheme: "gs", Bucket: "b", Key: "o#1"}, false},
		{"s3://bucket", Location{}, true},
		{"://x/y", Location{}, true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.path, got, tt.want)
		}
	}

	loc, _ := Parse("s3://bucket/dir/a.epd")
	if loc.String() != "s3://bucket/dir/a.epd" {
		t.Errorf("String() = %q", loc.String())
	}
}

func TestOpener_ConcatenatesInOrder(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "a.epd")
	gz := filepath.Join(dir, "b.epd.gz")
	zst := filepath.Join(dir, "c.epd.zst")
	writeFile(t, plain, "a1\na2\n")
	writeFile(t, gz, "b1\n")
	writeFile(t, zst, "c1\n")

	o := NewOpener(strings.NewReader("in\n"))
	defer o.Close()

	rc, err := o.Open(context.Background(), zst, plain, "-", gz)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if err := rc.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	if want := "c1\na1\na2\nin\nb1\n"; string(got) != want {
		t.Errorf("content = %q, want %q", got, want)
	}
}

func TestOpener_KeepsLinesOfEachInput(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.epd")
	b := filepath.Join(dir, "b.epd.zst")
	empty := filepath.Join(dir, "empty.epd")
	writeFile(t, a, "8/8/8/8/8/8/8/K6k w - - 0 1;id a#1;sm a1a2")
	writeFile(t, empty, "")
	writeFile(t, b, "8/8/8/8/8/8/8/K6k b - - 0 1;id b#1;sm h1h2\n")

	o := NewOpener(nil)
	defer o.Close()

	rc, err := o.Open(context.Background(), a, empty, b)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	want := "8/8/8/8/8/8/8/K6k w - - 0 1;id a#1;sm a1a2\n" +
		"8/8/8/8/8/8/8/K6k b - - 0 1;id b#1;sm h1h2\n"
	if string(got) != want {
		t.Errorf("content = %q, want %q", got, want)
	}
}

func TestTerminatedReader(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"a", "a\n"},
		{"a\n", "a\n"},
		{"a\nb", "a\nb\n"},
	}
	for _, tt := range tests {
		// One-byte reads force the newline into its own Read call.
		r := &terminatedReader{r: iotest.OneByteReader(strings.NewReader(tt.in))}
		var buf bytes.Buffer
		p := make([]byte, 1)
		for {
			n, err := r.Read(p)
			buf.Write(p[:n])
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("Read(%q) error = %v", tt.in, err)
			}
		}
		if buf.String() != tt.want {
			t.Errorf("terminatedReader(%q) = %q, want %q", tt.in, buf.String(), tt.want)
		}
	}
}

func TestOpener_DefaultsToStdin(t *testing.T) {
	o := NewOpener(strings.NewReader("only stdin\n"))
	rc, err := o.Open(context.Background())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	got, _ := io.ReadAll(rc)
	if string(got) != "only stdin\n" {
		t.Errorf("content = %q", got)
	}
}

func TestOpener_Errors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	o := NewOpener(nil)

	if _, err := o.Open(ctx, filepath.Join(dir, "missing.epd")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := o.Open(ctx, "ftp://host/file"); !errors.Is(err, ErrUnsupportedScheme) {
		t.Errorf("Open(ftp) error = %v, want ErrUnsupportedScheme", err)
	}

	bad := filepath.Join(dir, "bad.epd.gz")
	if err := os.WriteFile(bad, []byte("not gzip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := o.Open(ctx, bad); err == nil {
		t.Error("Open(corrupt gzip) expected error")
	}

	if err := o.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := o.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close() error = %v, want ErrClosed", err)
	}
	if _, err := o.Open(ctx, filepath.Join(dir, "x.epd")); !errors.Is(err, ErrClosed) {
		t.Errorf("Open after Close error = %v, want ErrClosed", err)
	}
}

func TestOpener_BackendCreatedOnce(t *testing.T) {
	created := 0
	o := NewOpener(nil, WithBackend("mem", func(context.Context) (Backend, error) {
		created++
		return memBackend{"k1": "one\n", "k2": "two\n"}, nil
	}))

	rc, err := o.Open(context.Background(), "mem://b/k1", "mem://b/k2")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	got, _ := io.ReadAll(rc)
	if string(got) != "one\ntwo\n" || created != 1 {
		t.Errorf("content = %q, created = %d", got, created)
	}
}

func TestCreate(t *testing.T) {
	var stdout bytes.Buffer
	w, err := Create("-", &stdout)
	if err != nil {
		t.Fatalf("Create(-) error = %v", err)
	}
	io.WriteString(w, "out\n")
	w.Close()
	if stdout.String() != "out\n" {
		t.Errorf("stdout = %q", stdout.String())
	}

	if _, err := Create("s3://bucket/out.epd", nil); !errors.Is(err, ErrUnsupportedScheme) {
		t.Errorf("Create(s3) error = %v, want ErrUnsupportedScheme", err)
	}

	path := filepath.Join(t.TempDir(), "out.epd.zst")
	writeFile(t, path, "compressed\n")
	raw, _ := os.ReadFile(path)
	r, err := codec.Zstd{}.NewReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	got, _ := io.ReadAll(r)
	if string(got) != "compressed\n" {
		t.Errorf("decoded = %q", got)
	}
}

type memBackend map[string]string

func (m memBackend) Open(_ context.Context, loc Location) (io.ReadCloser, error) {
	data, ok := m[loc.Key]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func (memBackend) Close() error { return nil }
