package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/loomkit/loom"
)

// messagesKey is the adapter key under which the history is persisted.
const messagesKey = "messages"

// MessageStore manages conversation history with persistence support.
type MessageStore struct {
	mu       sync.RWMutex
	messages []loom.Message
	adapter  Adapter
}

// NewMessageStore creates a new MessageStore with the given adapter.
// If adapter is nil, a default in-memory adapter is used.
func NewMessageStore(adapter Adapter) *MessageStore {
	if adapter == nil {
		adapter = NewMemoryAdapter()
	}
	return &MessageStore{
		messages: make([]loom.Message, 0),
		adapter:  adapter,
	}
}

// NewMessageStoreFrom creates a MessageStore initialized with existing
// messages.
func NewMessageStoreFrom(messages []loom.Message, adapter Adapter) *MessageStore {
	ms := NewMessageStore(adapter)
	if len(messages) > 0 {
		ms.messages = make([]loom.Message, len(messages))
		copy(ms.messages, messages)
	}
	return ms
}

// Append adds messages to the history.
func (ms *MessageStore) Append(messages ...loom.Message) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.messages = append(ms.messages, messages...)
}

// Messages returns a copy of the full history.
func (ms *MessageStore) Messages() []loom.Message {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	out := make([]loom.Message, len(ms.messages))
	copy(out, ms.messages)
	return out
}

// Len returns the number of stored messages.
func (ms *MessageStore) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.messages)
}

// Replace overwrites the history with the given messages.
func (ms *MessageStore) Replace(messages []loom.Message) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.messages = make([]loom.Message, len(messages))
	copy(ms.messages, messages)
}

// Clear removes all messages.
func (ms *MessageStore) Clear() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.messages = ms.messages[:0]
}

// Last returns the most recent message, or false if the history is empty.
func (ms *MessageStore) Last() (loom.Message, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	if len(ms.messages) == 0 {
		return loom.Message{}, false
	}
	return ms.messages[len(ms.messages)-1], true
}

// Sync persists the history to the adapter.
func (ms *MessageStore) Sync(ctx context.Context) error {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	raw, err := json.Marshal(ms.messages)
	if err != nil {
		return &SerializationError{Key: messagesKey, Err: err}
	}
	return ms.adapter.Set(ctx, messagesKey, raw)
}

// Reload loads the history from the adapter, replacing current messages.
func (ms *MessageStore) Reload(ctx context.Context) error {
	raw, ok, err := ms.adapter.Get(ctx, messagesKey)
	if err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if !ok {
		ms.messages = ms.messages[:0]
		return nil
	}

	var messages []loom.Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return &SerializationError{Key: messagesKey, Err: err}
	}
	ms.messages = messages
	return nil
}
