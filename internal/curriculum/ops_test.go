package curriculum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTree(t *testing.T) []Section {
	t.Helper()
	tree := AddSection(nil)
	tree = AddSection(tree)
	tree = AddItem(tree, tree[0].ID, KindLecture)
	tree = AddItem(tree, tree[0].ID, KindQuiz)
	tree = AddItem(tree, tree[1].ID, KindLecture)
	return tree
}

func TestIDsAreUniqueAcrossTree(t *testing.T) {
	tree := buildTree(t)
	tree = AddQuestion(tree, tree[0].ID, tree[0].Items[1].ID)
	tree = AddQuestion(tree, tree[0].ID, tree[0].Items[1].ID)

	seen := map[string]bool{}
	record := func(id string) {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	for _, s := range tree {
		record(s.ID)
		for _, it := range s.Items {
			record(it.ID)
			for _, q := range it.Questions {
				record(q.ID)
				for _, a := range q.Answers {
					record(a.ID)
				}
			}
		}
	}
	assert.GreaterOrEqual(t, len(seen), 11)
}

func TestAddSectionDefaults(t *testing.T) {
	tree := AddSection(nil)
	require.Len(t, tree, 1)
	assert.Equal(t, DefaultSectionTitle, tree[0].Title)
	assert.False(t, tree[0].Published)
	assert.Empty(t, tree[0].Items)
	assert.NotEmpty(t, tree[0].ID)
}

func TestEditSectionLeavesUnrelatedSectionsShared(t *testing.T) {
	tree := buildTree(t)
	edited := EditSection(tree, tree[0].ID, "Basics")

	assert.Equal(t, "Basics", edited[0].Title)
	assert.Equal(t, tree[0].Items, edited[0].Items)
	// 未命中的 section 直接复用原 Items 底层数组
	require.NotEmpty(t, edited[1].Items)
	assert.Same(t, &tree[1].Items[0], &edited[1].Items[0])
	// 原树不受影响
	assert.Equal(t, DefaultSectionTitle, tree[0].Title)
}

func TestEditSectionUnknownIDIsNoop(t *testing.T) {
	tree := buildTree(t)
	out := EditSection(tree, "missing", "x")
	assert.Equal(t, tree, out)
}

func TestDeleteItemUnknownIDReturnsEqualTree(t *testing.T) {
	tree := buildTree(t)
	out := DeleteItem(tree, tree[0].ID, "missing")
	assert.Equal(t, tree, out)

	out = DeleteItem(tree, "missing-section", tree[0].Items[0].ID)
	assert.Equal(t, tree, out)
}

func TestDeleteSectionRemovesOnlyTarget(t *testing.T) {
	tree := buildTree(t)
	out := DeleteSection(tree, tree[0].ID)
	require.Len(t, out, 1)
	assert.Equal(t, tree[1].ID, out[0].ID)
}

func TestAddItemDefaults(t *testing.T) {
	tree := AddSection(nil)
	tree = AddItem(tree, tree[0].ID, KindLecture)
	tree = AddItem(tree, tree[0].ID, KindQuiz)

	lecture := tree[0].Items[0]
	assert.Equal(t, DefaultLectureTitle, lecture.Title)
	assert.True(t, lecture.Expanded)
	assert.Empty(t, lecture.QuizID)
	assert.NotNil(t, lecture.Documents)

	quiz := tree[0].Items[1]
	assert.Equal(t, DefaultQuizTitle, quiz.Title)
	assert.True(t, quiz.Expanded)
	assert.NotEmpty(t, quiz.QuizID)
	assert.Empty(t, quiz.Questions)
}

func TestToggleExpandTwiceRoundTrips(t *testing.T) {
	tree := buildTree(t)
	secID, itemID := tree[0].ID, tree[0].Items[0].ID
	original := tree[0].Items[0].Expanded

	once := ToggleExpand(tree, secID, itemID)
	assert.Equal(t, !original, once[0].Items[0].Expanded)

	twice := ToggleExpand(once, secID, itemID)
	assert.Equal(t, original, twice[0].Items[0].Expanded)
	assert.Equal(t, tree, twice)
}

func TestAddQuestionSeedsTwoBlankAnswersAndExpands(t *testing.T) {
	tree := buildTree(t)
	secID, quizID := tree[0].ID, tree[0].Items[1].ID

	collapsed := ToggleExpand(tree, secID, quizID)
	require.False(t, collapsed[0].Items[1].Expanded)

	out := AddQuestion(collapsed, secID, quizID)
	quiz := out[0].Items[1]
	assert.True(t, quiz.Expanded)
	require.Len(t, quiz.Questions, 1)
	require.Len(t, quiz.Questions[0].Answers, 2)
	assert.Empty(t, quiz.Questions[0].Answers[0].Text)
}

func TestUpdateQuestionKeepsID(t *testing.T) {
	tree := buildTree(t)
	secID, quizID := tree[0].ID, tree[0].Items[1].ID
	tree = AddQuestion(tree, secID, quizID)
	q := tree[0].Items[1].Questions[0]

	replacement := q
	replacement.ID = "attacker-chosen"
	replacement.Text = "What is Go?"
	out := UpdateQuestion(tree, secID, quizID, q.ID, replacement)

	got := out[0].Items[1].Questions[0]
	assert.Equal(t, q.ID, got.ID)
	assert.Equal(t, "What is Go?", got.Text)
}

func TestSetAnswerCorrectSingleChoice(t *testing.T) {
	for _, typ := range []QuestionType{QuestionMCQ, QuestionTF} {
		q := Question{
			ID:   NewID(),
			Type: typ,
			Answers: []Answer{
				{ID: "a"},
				{ID: "b"},
			},
		}
		q = SetAnswerCorrect(q, "a", true)
		q = SetAnswerCorrect(q, "b", true)

		assert.False(t, q.Answers[0].Correct, "type %s", typ)
		assert.True(t, q.Answers[1].Correct, "type %s", typ)
	}
}

func TestSetAnswerCorrectMultiChoice(t *testing.T) {
	q := Question{
		ID:   NewID(),
		Type: QuestionMulti,
		Answers: []Answer{
			{ID: "a"},
			{ID: "b"},
		},
	}
	q = SetAnswerCorrect(q, "a", true)
	q = SetAnswerCorrect(q, "b", true)
	assert.True(t, q.Answers[0].Correct)
	assert.True(t, q.Answers[1].Correct)

	q = SetAnswerCorrect(q, "a", false)
	assert.False(t, q.Answers[0].Correct)
	assert.True(t, q.Answers[1].Correct)
}

func TestMutationsNeverTouchInputTree(t *testing.T) {
	tree := buildTree(t)
	secID, quizID := tree[0].ID, tree[0].Items[1].ID
	tree = AddQuestion(tree, secID, quizID)

	snapshot := make([]Section, len(tree))
	copy(snapshot, tree)
	before := tree[0].Items[1].Questions[0]

	_ = EditSection(tree, secID, "changed")
	_ = DeleteSection(tree, secID)
	_ = EditItem(tree, secID, quizID, "changed")
	_ = ToggleExpand(tree, secID, quizID)
	_ = DeleteQuestion(tree, secID, quizID, before.ID)
	_ = UpdateQuestion(tree, secID, quizID, before.ID, Question{Text: "x"})

	assert.Equal(t, snapshot, tree)
	assert.Equal(t, before, tree[0].Items[1].Questions[0])
}

func TestSetItemVideoClearsPending(t *testing.T) {
	tree := buildTree(t)
	secID, itemID := tree[0].ID, tree[0].Items[0].ID

	tree = SetItemPendingVideo(tree, secID, itemID, "/tmp/lecture.mp4", 93.5)
	require.Equal(t, "/tmp/lecture.mp4", tree[0].Items[0].PendingVideoPath)
	require.Equal(t, 93.5, tree[0].Items[0].PendingVideoDuration)

	tree = SetItemVideo(tree, secID, itemID, VideoRef{ID: "vid-1", URL: "https://cdn/vid-1", Duration: 93.5})
	it := tree[0].Items[0]
	require.NotNil(t, it.Video)
	assert.Equal(t, "vid-1", it.Video.ID)
	assert.Equal(t, 93.5, it.Video.Duration)
	assert.Empty(t, it.PendingVideoPath)
	assert.Zero(t, it.PendingVideoDuration)
}
