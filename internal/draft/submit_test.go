package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"traincape_lms_backend/internal/curriculum"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestValidateRequiredAllPresent(t *testing.T) {
	touched, err := ValidateRequired(Metadata{
		Title:           "t",
		Subtitle:        "s",
		Description:     "d",
		Price:           "10",
		WelcomeMessage:  "w",
		CongratsMessage: "c",
	})
	assert.NoError(t, err)
	assert.Nil(t, touched)
}

func TestValidateRequiredMarksEveryFieldTouched(t *testing.T) {
	touched, err := ValidateRequired(Metadata{Title: "only title"})
	require.Error(t, err)
	for _, f := range RequiredFields {
		assert.True(t, touched[f], "field %s should be touched", f)
	}
	assert.Contains(t, err.Error(), "price")
	assert.Contains(t, err.Error(), "congratsMessage")
}

func TestValidateRequiredWhitespaceCountsAsEmpty(t *testing.T) {
	_, err := ValidateRequired(Metadata{
		Title: "  ", Subtitle: "s", Description: "d", Price: "1",
		WelcomeMessage: "w", CongratsMessage: "c",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title")
}

func TestParsePrice(t *testing.T) {
	price, err := ParsePrice(" 49.99 ")
	require.NoError(t, err)
	assert.Equal(t, 49.99, price)

	_, err = ParsePrice("free")
	assert.Error(t, err)
	_, err = ParsePrice("-1")
	assert.Error(t, err)
}

func TestParseFileKey(t *testing.T) {
	fk, ok := ParseFileKey("curriculum[0][items][2][video]")
	require.True(t, ok)
	assert.Equal(t, FileKey{SectionIndex: 0, ItemIndex: 2, Field: "video"}, fk)

	fk, ok = ParseFileKey("curriculum[3][items][0][documents][1]")
	require.True(t, ok)
	assert.Equal(t, FileKey{SectionIndex: 3, ItemIndex: 0, Field: "documents", DocIndex: 1}, fk)
}

func TestParseFileKeyRejectsMalformedKeys(t *testing.T) {
	for _, key := range []string{
		"curriculum[0][items][2]",
		"curriculum[0][items][2][thumbnail]",
		"curriculum[0][items][2][documents]",     // documents 必须带下标
		"curriculum[0][items][2][video][1]",      // video 不带下标
		"curriculum[a][items][2][video]",
		"metadata",
	} {
		_, ok := ParseFileKey(key)
		assert.False(t, ok, "key %q should be rejected", key)
	}
}

func submittableSession(t *testing.T, remote *fakeRemote) (*Session, string, string) {
	t.Helper()
	sess := NewSession("course-1", 7, newMemSnapshots(), remote, &fakeMedia{}, testOptions(), zap.NewNop())
	sess.Open(context.Background())

	sess.UpdateMetadata(Metadata{
		Title: "t", Subtitle: "s", Description: "d", Price: "10",
		WelcomeMessage: "w", CongratsMessage: "c",
	})
	sess.AddSection()
	secID := sess.View().Curriculum[0].ID
	sess.AddItem(secID, curriculum.KindLecture)
	itemID := sess.View().Curriculum[0].Items[0].ID
	t.Cleanup(sess.Close)
	return sess, secID, itemID
}

func TestSubmitAppliesDocumentsInKeyOrder(t *testing.T) {
	remote := &fakeRemote{}
	sess, _, _ := submittableSession(t, remote)

	// 刻意乱序，还原 multipart 遍历顺序不定的场景
	var files []SubmitFile
	for _, idx := range []int{3, 0, 2, 1} {
		files = append(files, SubmitFile{
			Key:      fmt.Sprintf("curriculum[0][items][0][documents][%d]", idx),
			FileName: fmt.Sprintf("doc-%d.pdf", idx),
			Reader:   strings.NewReader("pdf"),
		})
	}

	_, err := sess.Submit(context.Background(), nil, files)
	require.NoError(t, err)

	sections := remote.replacedSections()
	require.Len(t, sections, 1)
	docs := sections[0].Items[0].Documents
	require.Len(t, docs, 4)
	for i, doc := range docs {
		assert.Equal(t, fmt.Sprintf("doc-%d.pdf", i), doc.FileName)
	}
}

func TestSubmitCarriesProbedVideoDuration(t *testing.T) {
	remote := &fakeRemote{}
	sess, secID, itemID := submittableSession(t, remote)
	sess.SetItemPendingVideo(secID, itemID, "/tmp/raw.mp4", 93.5)

	_, err := sess.Submit(context.Background(), nil, nil)
	require.NoError(t, err)

	item := remote.replacedSections()[0].Items[0]
	require.NotNil(t, item.Video)
	assert.Equal(t, 93.5, item.Video.Duration)
	assert.Empty(t, item.PendingVideoPath)
}

func TestSnapshotNeverSerializesPendingFileReferences(t *testing.T) {
	sections := curriculum.AddSection(nil)
	sections = curriculum.AddItem(sections, sections[0].ID, curriculum.KindLecture)
	sections = curriculum.SetItemPendingVideo(sections, sections[0].ID, sections[0].Items[0].ID, "/tmp/raw.mp4", 120)

	snap := snapshotAgedDays("course-1", 0)
	snap.Curriculum = sections

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "/tmp/raw.mp4")

	var back Snapshot
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Empty(t, back.Curriculum[0].Items[0].PendingVideoPath)
}
