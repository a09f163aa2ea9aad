package catalog

import (
	"errors"
	"testing"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/storage"
)

func newStore(t *testing.T) (*Store, *storage.FS) {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return New(fs), fs
}

func domain(id, version string) *models.Resource {
	return &models.Resource{
		ID:       id,
		Name:     id + " Domain",
		Version:  version,
		Summary:  "The " + id + " domain.",
		Type:     models.TypeDomain,
		Markdown: "# " + id + "\n\nVersion " + version + ".\n",
	}
}

func TestWriteThenGetRoundTrip(t *testing.T) {
	s, _ := newStore(t)
	in := domain("Orders", "1.0.0")
	in.Services = []models.Reference{{ID: "OrderService", Version: "1.0.0"}}

	if err := s.Write(in, WriteOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out, err := s.Get("Orders", Latest)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out.ID != in.ID || out.Version != in.Version || out.Name != in.Name || out.Summary != in.Summary {
		t.Errorf("fields differ: %+v", out)
	}
	if out.Markdown != in.Markdown {
		t.Errorf("markdown = %q, want %q", out.Markdown, in.Markdown)
	}
	if len(out.Services) != 1 || out.Services[0] != in.Services[0] {
		t.Errorf("services = %v", out.Services)
	}
}

func TestWriteAlreadyExists(t *testing.T) {
	s, _ := newStore(t)
	if err := s.Write(domain("Orders", "1.0.0"), WriteOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	err := s.Write(domain("Orders", "1.1.0"), WriteOptions{})
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestWriteOverrideReplacesContent(t *testing.T) {
	s, _ := newStore(t)
	if err := s.Write(domain("Orders", "1.0.0"), WriteOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	file := models.AttachedFile{FileName: "schema.json", Content: []byte("{}")}
	if err := s.AttachFile("Orders", file, ""); err != nil {
		t.Fatalf("AttachFile: %v", err)
	}

	if err := s.Write(domain("Orders", "1.1.0"), WriteOptions{Override: true}); err != nil {
		t.Fatalf("Write override: %v", err)
	}

	out, err := s.Get("Orders", Latest)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out.Version != "1.1.0" {
		t.Errorf("version = %q, want 1.1.0", out.Version)
	}
	ok, _ := s.fs.Exists("domains/Orders/schema.json")
	if ok {
		t.Error("override should replace attached files")
	}
}

func TestWriteOverridePreservesVersionHistory(t *testing.T) {
	s, _ := newStore(t)
	if err := s.Write(domain("Orders", "1.0.0"), WriteOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Version("Orders"); err != nil {
		t.Fatalf("Version: %v", err)
	}
	if err := s.Write(domain("Orders", "2.0.0"), WriteOptions{}); err != nil {
		t.Fatalf("Write v2: %v", err)
	}
	if err := s.Write(domain("Orders", "2.0.1"), WriteOptions{Override: true}); err != nil {
		t.Fatalf("Write override: %v", err)
	}

	out, err := s.Get("Orders", "1.0.0")
	if err != nil {
		t.Fatalf("archived version lost after override: %v", err)
	}
	if out.Version != "1.0.0" {
		t.Errorf("version = %q, want 1.0.0", out.Version)
	}
}

func TestWriteDedupesReferences(t *testing.T) {
	s, _ := newStore(t)
	in := domain("Orders", "1.0.0")
	in.Services = []models.Reference{
		{ID: "A", Version: "1.0.0"},
		{ID: "B", Version: "1.0.0"},
		{ID: "A", Version: "1.0.0"},
		{ID: "A", Version: "2.0.0"},
	}
	if err := s.Write(in, WriteOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out, err := s.Get("Orders", Latest)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := []models.Reference{
		{ID: "A", Version: "1.0.0"},
		{ID: "B", Version: "1.0.0"},
		{ID: "A", Version: "2.0.0"},
	}
	if len(out.Services) != len(want) {
		t.Fatalf("services = %v, want %v", out.Services, want)
	}
	for i := range want {
		if out.Services[i] != want[i] {
			t.Errorf("services[%d] = %v, want %v", i, out.Services[i], want[i])
		}
	}
}

func TestWriteMissingFields(t *testing.T) {
	s, _ := newStore(t)
	err := s.Write(&models.Resource{ID: "NoVersion", Type: models.TypeDomain}, WriteOptions{})
	if !errors.Is(err, apperr.ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestWriteUnknownType(t *testing.T) {
	s, _ := newStore(t)
	err := s.Write(&models.Resource{ID: "X", Version: "1.0.0", Type: "widget"}, WriteOptions{})
	if err == nil {
		t.Error("unknown type without explicit path should fail")
	}
}

func TestWriteCustomPath(t *testing.T) {
	s, _ := newStore(t)
	in := domain("Orders", "1.0.0")
	if err := s.Write(in, WriteOptions{Path: "teams/checkout/Orders"}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Resolution matches the declared id, not the directory name.
	dir, err := s.Resolve("Orders", Latest)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if dir != "teams/checkout/Orders" {
		t.Errorf("dir = %q", dir)
	}
}

func TestResolveNotFound(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.Resolve("Ghost", Latest)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestResolveSameIDTieBreak(t *testing.T) {
	s, _ := newStore(t)
	if err := s.Write(domain("Dup", "1.0.0"), WriteOptions{Path: "b/Dup"}); err != nil {
		t.Fatalf("Write b: %v", err)
	}
	if err := s.Write(domain("Dup", "1.0.0"), WriteOptions{Path: "a/Dup"}); err != nil {
		t.Fatalf("Write a: %v", err)
	}
	// First in lexicographic walk order wins, deterministically.
	dir, err := s.Resolve("Dup", "1.0.0")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if dir != "a/Dup" {
		t.Errorf("dir = %q, want a/Dup", dir)
	}
}

func TestVersionArchiveFlow(t *testing.T) {
	s, _ := newStore(t)
	if err := s.Write(domain("Orders", "1.0.0"), WriteOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	file := models.AttachedFile{FileName: "schema.json", Content: []byte(`{"v":1}`)}
	if err := s.AttachFile("Orders", file, ""); err != nil {
		t.Fatalf("AttachFile: %v", err)
	}

	if err := s.Version("Orders"); err != nil {
		t.Fatalf("Version: %v", err)
	}

	// No primary until the next write.
	if _, err := s.Resolve("Orders", Latest); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("latest after archive: err = %v, want ErrNotFound", err)
	}

	// The archived snapshot is intact, attachments included.
	out, err := s.Get("Orders", "1.0.0")
	if err != nil {
		t.Fatalf("Get archived: %v", err)
	}
	if out.Version != "1.0.0" || out.Markdown == "" {
		t.Errorf("archived content changed: %+v", out)
	}
	data, err := s.fs.Read("domains/Orders/versioned/1.0.0/schema.json")
	if err != nil {
		t.Fatalf("archived attachment missing: %v", err)
	}
	if string(data) != `{"v":1}` {
		t.Errorf("attachment content = %q", data)
	}

	// Fresh primary for the new version.
	if err := s.Write(domain("Orders", "2.0.0"), WriteOptions{}); err != nil {
		t.Fatalf("Write v2: %v", err)
	}
	latest, err := s.Get("Orders", Latest)
	if err != nil {
		t.Fatalf("Get latest: %v", err)
	}
	if latest.Version != "2.0.0" {
		t.Errorf("latest = %q, want 2.0.0", latest.Version)
	}
	archived, err := s.Get("Orders", "1.0.0")
	if err != nil {
		t.Fatalf("Get archived after v2: %v", err)
	}
	if archived.Version != "1.0.0" {
		t.Errorf("archived = %q, want 1.0.0", archived.Version)
	}
}

func TestVersionNoPrimary(t *testing.T) {
	s, _ := newStore(t)
	if err := s.Version("Ghost"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestVersionArchiveConflict(t *testing.T) {
	s, _ := newStore(t)
	if err := s.Write(domain("Orders", "1.0.0"), WriteOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Version("Orders"); err != nil {
		t.Fatalf("Version: %v", err)
	}
	// Same version written again; archiving it would clobber history.
	if err := s.Write(domain("Orders", "1.0.0"), WriteOptions{}); err != nil {
		t.Fatalf("Write again: %v", err)
	}
	err := s.Version("Orders")
	if !errors.Is(err, apperr.ErrArchiveConflict) {
		t.Errorf("err = %v, want ErrArchiveConflict", err)
	}
}

func TestResolveRange(t *testing.T) {
	s, _ := newStore(t)
	for _, v := range []string{"0.0.1", "0.0.5", "1.2.0"} {
		if err := s.Write(domain("Orders", v), WriteOptions{}); err != nil {
			t.Fatalf("Write %s: %v", v, err)
		}
		if v != "1.2.0" {
			if err := s.Version("Orders"); err != nil {
				t.Fatalf("Version after %s: %v", v, err)
			}
		}
	}

	cases := map[string]string{
		"0.0.x":  "0.0.5",
		"^1.0.0": "1.2.0",
		"~0.0.1": "0.0.5",
	}
	for token, want := range cases {
		out, err := s.Get("Orders", token)
		if err != nil {
			t.Fatalf("Get %q: %v", token, err)
		}
		if out.Version != want {
			t.Errorf("Get(%q) = %q, want %q", token, out.Version, want)
		}
	}

	if _, err := s.Get("Orders", "^5.0.0"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unsatisfiable range: err = %v, want ErrNotFound", err)
	}
}

func TestHasVersion(t *testing.T) {
	s, _ := newStore(t)
	if err := s.Write(domain("Orders", "0.0.1"), WriteOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	ok, err := s.HasVersion("Orders", Latest)
	if err != nil || !ok {
		t.Errorf("HasVersion latest = %v, %v, want true", ok, err)
	}
	ok, err = s.HasVersion("Orders", "0.0.x")
	if err != nil || !ok {
		t.Errorf("HasVersion 0.0.x = %v, %v, want true", ok, err)
	}
	ok, err = s.HasVersion("Orders", "1.0.0")
	if err != nil || ok {
		t.Errorf("HasVersion 1.0.0 = %v, %v, want false", ok, err)
	}

	if err := s.Version("Orders"); err != nil {
		t.Fatalf("Version: %v", err)
	}
	ok, err = s.HasVersion("Orders", Latest)
	if err != nil || ok {
		t.Errorf("HasVersion latest after archive = %v, %v, want false", ok, err)
	}
	ok, err = s.HasVersion("Orders", "0.0.x")
	if err != nil || !ok {
		t.Errorf("HasVersion 0.0.x after archive = %v, %v, want true", ok, err)
	}
}

func TestAttachFile(t *testing.T) {
	s, _ := newStore(t)
	if err := s.Write(domain("Orders", "1.0.0"), WriteOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	file := models.AttachedFile{FileName: "openapi.yaml", Content: []byte("openapi: 3.0.0")}
	if err := s.AttachFile("Orders", file, ""); err != nil {
		t.Fatalf("AttachFile: %v", err)
	}
	data, err := s.fs.Read("domains/Orders/openapi.yaml")
	if err != nil {
		t.Fatalf("Read attachment: %v", err)
	}
	if string(data) != "openapi: 3.0.0" {
		t.Errorf("content = %q", data)
	}

	// The resource document is untouched.
	out, err := s.Get("Orders", Latest)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out.Version != "1.0.0" {
		t.Errorf("version = %q", out.Version)
	}
}

func TestAttachFileToArchivedVersion(t *testing.T) {
	s, _ := newStore(t)
	if err := s.Write(domain("Orders", "1.0.0"), WriteOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Version("Orders"); err != nil {
		t.Fatalf("Version: %v", err)
	}
	if err := s.Write(domain("Orders", "2.0.0"), WriteOptions{}); err != nil {
		t.Fatalf("Write v2: %v", err)
	}

	file := models.AttachedFile{FileName: "changelog.md", Content: []byte("v1 notes")}
	if err := s.AttachFile("Orders", file, "1.0.0"); err != nil {
		t.Fatalf("AttachFile: %v", err)
	}
	if _, err := s.fs.Read("domains/Orders/versioned/1.0.0/changelog.md"); err != nil {
		t.Errorf("attachment should land in the archived directory: %v", err)
	}
	if ok, _ := s.fs.Exists("domains/Orders/changelog.md"); ok {
		t.Error("primary directory should be untouched")
	}
}

func TestAttachFileInvalidNames(t *testing.T) {
	s, _ := newStore(t)
	if err := s.Write(domain("Orders", "1.0.0"), WriteOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	cases := []string{"", "../escape.txt", "sub/dir.txt", "index.md"}
	for _, name := range cases {
		err := s.AttachFile("Orders", models.AttachedFile{FileName: name, Content: []byte("x")}, "")
		if err == nil {
			t.Errorf("expected error for file name %q", name)
		}
	}
}

func TestAttachFileNotFound(t *testing.T) {
	s, _ := newStore(t)
	err := s.AttachFile("Ghost", models.AttachedFile{FileName: "a.txt", Content: []byte("x")}, "")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRemoveByPath(t *testing.T) {
	s, _ := newStore(t)
	if err := s.Write(domain("Orders", "1.0.0"), WriteOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Remove("domains/Orders"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	// Removal is not idempotent.
	if err := s.Remove("domains/Orders"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second remove: err = %v, want ErrNotFound", err)
	}
}

func TestRemoveByIDWholeTree(t *testing.T) {
	s, _ := newStore(t)
	if err := s.Write(domain("Orders", "1.0.0"), WriteOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Version("Orders"); err != nil {
		t.Fatalf("Version: %v", err)
	}
	if err := s.Write(domain("Orders", "2.0.0"), WriteOptions{}); err != nil {
		t.Fatalf("Write v2: %v", err)
	}

	// Removing the latest takes the archived history with it.
	if err := s.RemoveByID("Orders", ""); err != nil {
		t.Fatalf("RemoveByID: %v", err)
	}
	if ok, _ := s.HasVersion("Orders", "1.0.0"); ok {
		t.Error("archived version should be gone with the id")
	}
	if ok, _ := s.HasVersion("Orders", Latest); ok {
		t.Error("primary should be gone")
	}
}

func TestRemoveByIDSingleArchivedVersion(t *testing.T) {
	s, _ := newStore(t)
	if err := s.Write(domain("Orders", "1.0.0"), WriteOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Version("Orders"); err != nil {
		t.Fatalf("Version: %v", err)
	}
	if err := s.Write(domain("Orders", "2.0.0"), WriteOptions{}); err != nil {
		t.Fatalf("Write v2: %v", err)
	}

	if err := s.RemoveByID("Orders", "1.0.0"); err != nil {
		t.Fatalf("RemoveByID: %v", err)
	}
	if ok, _ := s.HasVersion("Orders", "1.0.0"); ok {
		t.Error("archived version should be removed")
	}
	latest, err := s.Get("Orders", Latest)
	if err != nil || latest.Version != "2.0.0" {
		t.Errorf("primary should survive: %v, %v", latest, err)
	}
}

func TestAddReference(t *testing.T) {
	s, _ := newStore(t)
	if err := s.Write(domain("Orders", "1.0.0"), WriteOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	file := models.AttachedFile{FileName: "notes.txt", Content: []byte("keep me")}
	if err := s.AttachFile("Orders", file, ""); err != nil {
		t.Fatalf("AttachFile: %v", err)
	}

	ref := models.Reference{ID: "OrderService", Version: "2.0.0"}
	if err := s.AddReference("Orders", RefServices, ref); err != nil {
		t.Fatalf("AddReference: %v", err)
	}
	// Second identical call converges on a single entry.
	if err := s.AddReference("Orders", RefServices, ref); err != nil {
		t.Fatalf("AddReference again: %v", err)
	}

	out, err := s.Get("Orders", Latest)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	count := 0
	for _, got := range out.Services {
		if got == ref {
			count++
		}
	}
	if count != 1 {
		t.Errorf("reference appears %d times, want 1", count)
	}

	// A different version of the same id may coexist.
	if err := s.AddReference("Orders", RefServices, models.Reference{ID: "OrderService", Version: "3.0.0"}); err != nil {
		t.Fatalf("AddReference v3: %v", err)
	}
	out, _ = s.Get("Orders", Latest)
	if len(out.Services) != 2 {
		t.Errorf("services = %v, want 2 entries", out.Services)
	}

	// Rewriting the document must not disturb attached files.
	if ok, _ := s.fs.Exists("domains/Orders/notes.txt"); !ok {
		t.Error("attached file lost while adding a reference")
	}
}

func TestAddReferenceNotFound(t *testing.T) {
	s, _ := newStore(t)
	err := s.AddReference("Ghost", RefServices, models.Reference{ID: "X", Version: "1.0.0"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
