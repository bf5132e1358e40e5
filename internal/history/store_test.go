package history

import (
	"strconv"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"copilot-codegen/internal/llm"
)

func user(content string) llm.ChatMessage {
	return llm.ChatMessage{Role: llm.RoleUser, Content: content}
}

func TestNewSessionIsUUID(t *testing.T) {
	s := NewStore()
	id := s.NewSession()

	_, err := uuid.Parse(id)
	require.NoError(t, err)

	msgs, err := s.Messages(id)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestEnsure(t *testing.T) {
	s := NewStore()
	id := s.NewSession()

	assert.Equal(t, id, s.Ensure(id))
	assert.NotEqual(t, id, s.Ensure(""))
	assert.NotEqual(t, "stale", s.Ensure("stale"))
}

func TestAppendAndLast(t *testing.T) {
	s := NewStore()
	id := s.NewSession()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(id, user(strconv.Itoa(i))))
	}

	last, err := s.Last(id, 2)
	require.NoError(t, err)
	assert.Equal(t, []llm.ChatMessage{user("3"), user("4")}, last)

	all, err := s.Last(id, 10)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	none, err := s.Last(id, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMessagesReturnsCopy(t *testing.T) {
	s := NewStore()
	id := s.NewSession()
	require.NoError(t, s.Append(id, user("a")))

	msgs, err := s.Messages(id)
	require.NoError(t, err)
	msgs[0].Content = "changed"

	again, err := s.Messages(id)
	require.NoError(t, err)
	assert.Equal(t, "a", again[0].Content)
}

func TestDelete(t *testing.T) {
	s := NewStore()
	id := s.NewSession()
	for _, c := range []string{"a", "b", "c"} {
		require.NoError(t, s.Append(id, user(c)))
	}

	require.NoError(t, s.Delete(id, 1))
	msgs, _ := s.Messages(id)
	assert.Equal(t, []llm.ChatMessage{user("a"), user("c")}, msgs)

	assert.ErrorIs(t, s.Delete(id, 2), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.Delete(id, -1), ErrIndexOutOfRange)
}

func TestClear(t *testing.T) {
	s := NewStore()
	id := s.NewSession()
	require.NoError(t, s.Append(id, user("a")))

	require.NoError(t, s.Clear(id))
	msgs, err := s.Messages(id)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	require.NoError(t, s.Append(id, user("b")))
}

func TestAppendValidatesRole(t *testing.T) {
	s := NewStore()
	id := s.NewSession()

	assert.ErrorIs(t, s.Append(id, llm.ChatMessage{Role: "robot", Content: "beep"}), llm.ErrInvalidRole)
	require.NoError(t, s.Append(id, llm.ChatMessage{Role: " Assistant ", Content: "print(1)"}))

	msgs, err := s.Messages(id)
	require.NoError(t, err)
	assert.Equal(t, []llm.ChatMessage{{Role: llm.RoleAssistant, Content: "print(1)"}}, msgs)
}

func TestUnknownSession(t *testing.T) {
	s := NewStore()

	assert.ErrorIs(t, s.Append("nope", user("a")), ErrUnknownSession)
	assert.ErrorIs(t, s.Delete("nope", 0), ErrUnknownSession)
	assert.ErrorIs(t, s.Clear("nope"), ErrUnknownSession)
	_, err := s.Messages("nope")
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestConcurrentAppend(t *testing.T) {
	s := NewStore()
	id := s.NewSession()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Append(id, user(strconv.Itoa(i)))
		}(i)
	}
	wg.Wait()

	msgs, err := s.Messages(id)
	require.NoError(t, err)
	assert.Len(t, msgs, 50)
}
