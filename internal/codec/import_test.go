package codec

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/Sierra117-KF/rehab-grid-sub000/internal/domain/project"
	"github.com/Sierra117-KF/rehab-grid-sub000/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestDetectFileType(t *testing.T) {
	require.Equal(t, FileTypeJSON, DetectFileType("project.JSON", nil))
	require.Equal(t, FileTypeZIP, DetectFileType("backup.Zip", nil))
	require.Equal(t, FileTypeZIP, DetectFileType("download", []byte("PK\x03\x04")))
	require.Equal(t, FileTypeUnknown, DetectFileType("notes.txt", []byte("{}")))
	require.Equal(t, FileTypeUnknown, DetectFileType("", nil))
}

func TestImport_UnsupportedFormat(t *testing.T) {
	c := newTestCodec(t, testCodecOptions{})

	_, err := c.Import(context.Background(), "photo.png", testPNG)
	require.ErrorIs(t, err, ErrFormat)
	require.Equal(t, MsgInvalidFormat, UserMessage(err))
}

func TestImport_FileTooLarge(t *testing.T) {
	c := newTestCodec(t, testCodecOptions{limits: Limits{MaxJSONBytes: 16, MaxZIPBytes: 16}})

	_, err := c.Import(context.Background(), "a.json", []byte(strings.Repeat(" ", 17)))
	require.ErrorIs(t, err, ErrSizeLimit)
	require.Equal(t, MsgFileTooLarge, UserMessage(err))

	_, err = c.Import(context.Background(), "a.zip", make([]byte, 17))
	require.ErrorIs(t, err, ErrSizeLimit)
}

func TestImportJSON_RoundTrip(t *testing.T) {
	c := newTestCodec(t, testCodecOptions{})
	doc := sampleDocument()

	data, err := c.ExportJSON(doc)
	require.NoError(t, err)

	result, err := c.Import(context.Background(), "rehab-grid-2025-04-05.json", data)
	require.NoError(t, err)
	require.Empty(t, result.Images)

	want := stripIDs(doc.Items)
	for i := range want {
		want[i].ImageSource = ""
	}
	require.Equal(t, want, stripIDs(result.Project.Items))
	require.Equal(t, doc.Settings, result.Project.Settings)
	require.Equal(t, doc.Meta.Title, result.Project.Meta.Title)
}

func TestImportJSON_RegeneratesIDs(t *testing.T) {
	c := newTestCodec(t, testCodecOptions{})
	data, err := c.ExportJSON(sampleDocument())
	require.NoError(t, err)

	result, err := c.Import(context.Background(), "a.json", data)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, item := range result.Project.Items {
		require.True(t, strings.HasPrefix(item.ID, "new-"))
		require.False(t, seen[item.ID])
		seen[item.ID] = true
		for _, p := range item.Precautions {
			require.True(t, strings.HasPrefix(p.ID, "new-"))
			require.False(t, seen[p.ID])
			seen[p.ID] = true
		}
	}
}

func TestImportJSON_ClampsLongTitle(t *testing.T) {
	c := newTestCodec(t, testCodecOptions{})
	doc := sampleDocument()
	doc.Items[0].Title = strings.Repeat("あ", 30)

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	result, err := c.Import(context.Background(), "a.json", data)
	require.NoError(t, err)
	require.Equal(t, 20, len([]rune(result.Project.Items[0].Title)))
}

func TestImportJSON_Invalid(t *testing.T) {
	c := newTestCodec(t, testCodecOptions{})

	for name, payload := range map[string]string{
		"syntax":          `{"meta":`,
		"missing meta":    `{"settings":{"layoutType":"grid2","themeColor":"#000"},"items":[]}`,
		"bad layout":      `{"meta":{"version":"0.1.0","createdAt":"x","updatedAt":"x","title":"t","projectType":"training"},"settings":{"layoutType":"grid7","themeColor":"#000"},"items":[]}`,
		"bad type":        `{"meta":{"version":"0.1.0","createdAt":"x","updatedAt":"x","title":"t","projectType":"other"},"settings":{"layoutType":"grid2","themeColor":"#000"},"items":[]}`,
		"item without id": `{"meta":{"version":"0.1.0","createdAt":"x","updatedAt":"x","title":"t","projectType":"training"},"settings":{"layoutType":"grid2","themeColor":"#000"},"items":[{"order":0,"title":"a","imageSource":"","description":""}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := c.Import(context.Background(), "a.json", []byte(payload))
			require.ErrorIs(t, err, ErrValidation)
			require.Equal(t, MsgValidation, UserMessage(err))
		})
	}
}

func TestImportZIP_RoundTrip(t *testing.T) {
	c := newTestCodec(t, testCodecOptions{
		images: stubImages(func(ids []string) ([]repository.ImageEntry, error) {
			return []repository.ImageEntry{{ID: "img-1", Image: &project.ImageRecord{Blob: project.Blob{Data: testJPEG, Type: "image/jpeg"}}}}, nil
		}),
	})
	doc := sampleDocument()
	doc.Items[1].ImageSource = ""

	data, err := c.ExportZIP(context.Background(), doc)
	require.NoError(t, err)

	result, err := c.Import(context.Background(), "backup.zip", data)
	require.NoError(t, err)
	require.Len(t, result.Images, 1)

	img := result.Images[0]
	require.Equal(t, testJPEG, img.Blob.Data)
	require.Equal(t, "image/jpeg", img.Blob.Type)
	require.Equal(t, img.ID, result.Project.Items[0].ImageSource)
	require.Empty(t, result.Project.Items[1].ImageSource)
	require.Equal(t, stripIDs(doc.Items)[0].Precautions, stripIDs(result.Project.Items)[0].Precautions)
}

func TestImportZIP_EmptyArchive(t *testing.T) {
	c := newTestCodec(t, testCodecOptions{})
	doc := project.New("空")

	manifest, err := json.Marshal(doc)
	require.NoError(t, err)

	result, err := c.Import(context.Background(), "empty.zip", buildZIP(t, zipEntry{ManifestName, manifest}))
	require.NoError(t, err)
	require.Empty(t, result.Images)
	require.NotNil(t, result.Project.Items)
	require.Empty(t, result.Project.Items)
}

func TestImportZIP_Corrupted(t *testing.T) {
	c := newTestCodec(t, testCodecOptions{})

	_, err := c.Import(context.Background(), "broken.zip", []byte("PK\x03\x04 not really a zip"))
	require.ErrorIs(t, err, ErrFormat)
	require.Equal(t, MsgCorruptedZIP, UserMessage(err))
}

func TestImportZIP_NoManifest(t *testing.T) {
	c := newTestCodec(t, testCodecOptions{})

	_, err := c.Import(context.Background(), "a.zip", buildZIP(t, zipEntry{"images/img_001.png", testPNG}))
	require.ErrorIs(t, err, ErrFormat)
	require.Equal(t, MsgNoProject, UserMessage(err))
}

func TestImportZIP_InvalidManifest(t *testing.T) {
	c := newTestCodec(t, testCodecOptions{})

	_, err := c.Import(context.Background(), "a.zip", buildZIP(t, zipEntry{ManifestName, []byte(`{"meta":{}}`)}))
	require.ErrorIs(t, err, ErrValidation)
}

func TestImportZIP_TooManyImages(t *testing.T) {
	c := newTestCodec(t, testCodecOptions{limits: Limits{MaxArchiveImages: 2}})
	manifest, err := json.Marshal(project.New(""))
	require.NoError(t, err)

	data := buildZIP(t,
		zipEntry{ManifestName, manifest},
		zipEntry{"images/img_001.png", testPNG},
		zipEntry{"images/img_002.png", testPNG},
		zipEntry{"images/img_003.png", testPNG},
	)

	_, err = c.Import(context.Background(), "a.zip", data)
	require.ErrorIs(t, err, ErrSizeLimit)
	require.Equal(t, MsgTooManyImages, UserMessage(err))
}

func TestImportZIP_ExtractedTooLarge(t *testing.T) {
	c := newTestCodec(t, testCodecOptions{limits: Limits{MaxExtractedBytes: 20}})
	manifest, err := json.Marshal(project.New(""))
	require.NoError(t, err)

	data := buildZIP(t,
		zipEntry{ManifestName, manifest},
		zipEntry{"images/img_001.png", testPNG},
		zipEntry{"images/img_002.png", testPNG},
	)

	_, err = c.Import(context.Background(), "a.zip", data)
	require.ErrorIs(t, err, ErrSizeLimit)
	require.Equal(t, MsgExtractedTooLarge, UserMessage(err))
}

func TestImportZIP_SkipsInvalidImages(t *testing.T) {
	c := newTestCodec(t, testCodecOptions{})
	doc := project.New("")
	doc.Items = []project.Item{
		{ID: "a", Order: 0, ImageSource: "images/img_001.png"},
		{ID: "b", Order: 1, ImageSource: "images/img_002.png"},
		{ID: "c", Order: 2, ImageSource: "images/img_404.png"},
	}
	manifest, err := json.Marshal(doc)
	require.NoError(t, err)

	data := buildZIP(t,
		zipEntry{ManifestName, manifest},
		zipEntry{"images/img_001.png", testPNG},
		zipEntry{"images/img_002.png", []byte("<svg onload=alert(1)>")},
	)

	result, err := c.Import(context.Background(), "a.zip", data)
	require.NoError(t, err)
	require.Len(t, result.Images, 1)
	require.Equal(t, result.Images[0].ID, result.Project.Items[0].ImageSource)
	require.Empty(t, result.Project.Items[1].ImageSource)
	require.Empty(t, result.Project.Items[2].ImageSource)
}
