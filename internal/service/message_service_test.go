package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"traincape_lms_backend/internal/config"
	"traincape_lms_backend/internal/model"
	"traincape_lms_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeMessageStore 内存版私信存储
type fakeMessageStore struct {
	mu       sync.Mutex
	conv     model.Conversation
	messages []model.Message
}

func newFakeMessageStore(studentID, instructorID uint) *fakeMessageStore {
	conv := model.Conversation{StudentID: studentID, InstructorID: instructorID}
	conv.ID = "conv-1"
	return &fakeMessageStore{conv: conv}
}

func (f *fakeMessageStore) FindOrCreateConversation(courseID string, studentID, instructorID uint) (*model.Conversation, error) {
	c := f.conv
	return &c, nil
}

func (f *fakeMessageStore) FindConversation(id string) (*model.Conversation, error) {
	if id != f.conv.ID {
		return nil, util.ErrConversationNotFound
	}
	c := f.conv
	return &c, nil
}

func (f *fakeMessageStore) ListConversations(userID uint) ([]model.Conversation, error) {
	return []model.Conversation{f.conv}, nil
}

func (f *fakeMessageStore) CreateMessage(conversationID string, senderID uint, body string) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := model.Message{
		ConversationID: conversationID,
		SeqID:          uint64(len(f.messages) + 1),
		SenderID:       senderID,
		Body:           body,
	}
	f.messages = append(f.messages, msg)
	return &msg, nil
}

func (f *fakeMessageStore) ListMessagesAfter(conversationID string, afterSeq uint64, limit int) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Message
	for _, m := range f.messages {
		if m.SeqID > afterSeq {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageStore) MarkRead(conversationID string, readerID uint) error { return nil }

func (f *fakeMessageStore) CountUnread(conversationID string, readerID uint) (int64, error) {
	return 0, nil
}

func newTestMessageService(store MessageStore) *MessageService {
	return NewMessageService(config.MessagingConfig{
		PollInterval: 10 * time.Millisecond,
		PollTimeout:  200 * time.Millisecond,
	}, store, nil, zap.NewNop())
}

func TestPollReturnsWhenMessageArrives(t *testing.T) {
	store := newFakeMessageStore(1, 2)
	svc := newTestMessageService(store)

	go func() {
		time.Sleep(30 * time.Millisecond)
		store.CreateMessage("conv-1", 2, "hello")
	}()

	msgs, err := svc.Poll(context.Background(), 1, "conv-1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Body)
	assert.Equal(t, uint64(1), msgs[0].SeqID)
}

func TestPollTimesOutEmpty(t *testing.T) {
	store := newFakeMessageStore(1, 2)
	svc := newTestMessageService(store)

	start := time.Now()
	msgs, err := svc.Poll(context.Background(), 1, "conv-1", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
}

func TestNewPollCancelsOldOne(t *testing.T) {
	store := newFakeMessageStore(1, 2)
	svc := newTestMessageService(store)

	done := make(chan []model.Message, 1)
	go func() {
		msgs, _ := svc.Poll(context.Background(), 1, "conv-1", 0)
		done <- msgs
	}()

	// 等第一个轮询进入等待后再发起第二个
	time.Sleep(30 * time.Millisecond)
	go svc.Poll(context.Background(), 1, "conv-1", 0)

	select {
	case msgs := <-done:
		// 旧轮询必须空手返回，而不是等到超时才结束
		assert.Empty(t, msgs)
	case <-time.After(150 * time.Millisecond):
		t.Fatal("superseded poll did not return promptly")
	}
}

func TestPollRejectsNonMember(t *testing.T) {
	store := newFakeMessageStore(1, 2)
	svc := newTestMessageService(store)

	_, err := svc.Poll(context.Background(), 99, "conv-1", 0)
	assert.ErrorIs(t, err, util.ErrNotConversationPeer)
}

func TestPollAfterSeqSkipsDelivered(t *testing.T) {
	store := newFakeMessageStore(1, 2)
	svc := newTestMessageService(store)
	store.CreateMessage("conv-1", 2, "first")
	store.CreateMessage("conv-1", 2, "second")

	msgs, err := svc.Poll(context.Background(), 1, "conv-1", 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "second", msgs[0].Body)
}
