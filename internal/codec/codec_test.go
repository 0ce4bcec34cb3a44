package codec

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"testing"
	"testing/fstest"
	"time"

	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/project"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/repository"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/resolver"
	"github.com/stretchr/testify/require"
)

var (
	testPNG  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 'I', 'H', 'D', 'R'}
	testJPEG = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	testWEBP = []byte("RIFF\x24\x00\x00\x00WEBPVP8 ")

	testNow = time.Date(2025, 4, 5, 6, 7, 8, 0, time.UTC)
)

type stubImages func(ids []string) ([]repository.ImageEntry, error)

func (s stubImages) GetMany(_ context.Context, ids []string) ([]repository.ImageEntry, error) {
	return s(ids)
}

type testCodecOptions struct {
	images stubImages
	tx     repository.Transactor
	assets fstest.MapFS
	limits Limits
}

func newTestCodec(t *testing.T, o testCodecOptions) *Codec {
	t.Helper()
	catalog, err := resolver.DefaultCatalog()
	require.NoError(t, err)

	if o.assets == nil {
		o.assets = fstest.MapFS{}
	}
	var images ImageReader
	if o.images != nil {
		images = o.images
	}

	c := New(images, o.tx, catalog, resolver.NewDirFetcher(o.assets), Options{Limits: o.limits})
	n := 0
	c.newID = func() string {
		n++
		return fmt.Sprintf("new-%d", n)
	}
	c.now = func() time.Time { return testNow }
	return c
}

// sampleDocument returns an already sanitized document.
func sampleDocument() *project.Document {
	doc := project.NewAt("腰痛予防", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	doc.Settings.LayoutType = project.LayoutGrid3
	doc.Items = []project.Item{
		{
			ID: "a", Order: 0, Title: "ブリッジ", ImageSource: "img-1",
			Description: "お尻を持ち上げます",
			Dosages:     &project.Dosages{Reps: "10回", Sets: "2セット", Frequency: "毎日"},
			Precautions: []project.Precaution{{ID: "p1", Value: "腰を反らさない"}},
		},
		{ID: "b", Order: 1, Title: "足上げ", ImageSource: "sample_lying_02"},
	}
	return doc
}

// stripIDs blanks item and precaution IDs so documents can be compared
// across an import, which always assigns new ones.
func stripIDs(items []project.Item) []project.Item {
	out := project.CloneItems(items)
	for i := range out {
		out[i].ID = ""
		for j := range out[i].Precautions {
			out[i].Precautions[j].ID = ""
		}
	}
	return out
}

type zipEntry struct {
	name string
	data []byte
}

func buildZIP(t *testing.T, entries ...zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = w.Write(e.data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func readZIP(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	out := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		require.NoError(t, err)
		rc.Close()
		out[f.Name] = buf.Bytes()
	}
	return out
}
