package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"sudooom.im.campus/internal/model"
	"sudooom.im.campus/internal/repository"
)

// memStore 内存版存储，用互斥锁模拟 (user_low, user_high) 唯一约束
type memStore struct {
	mu           sync.Mutex
	users        map[int64]*model.User
	pairs        map[[2]int64]int64
	participants map[int64][2]int64
	messages     []*model.Message
	nextConvID   int64
	nextMsgID    int64
	clock        time.Time
	created      int
	touches      map[int64]time.Time
	err          error
}

func newMemStore(users ...*model.User) *memStore {
	s := &memStore{
		users:        make(map[int64]*model.User),
		pairs:        make(map[[2]int64]int64),
		participants: make(map[int64][2]int64),
		touches:      make(map[int64]time.Time),
		clock:        time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func newUser(id int64, name string) *model.User {
	return &model.User{ID: id, Username: name, Role: model.RoleStudent}
}

func (s *memStore) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// UserStore

func (s *memStore) GetByID(_ context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) GetByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *memStore) ListOthers(_ context.Context, excludeID int64) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	result := make([]*model.User, 0)
	for id, u := range s.users {
		if id != excludeID {
			cp := *u
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return result, nil
}

func (s *memStore) TouchLastActivity(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.touches[id] = at
	if u, ok := s.users[id]; ok {
		t := at
		u.LastActivity = &t
	}
	return nil
}

// memAccounts 在 memStore 上补充用户创建，用户名唯一
type memAccounts struct {
	*memStore
}

func (s memAccounts) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	var maxID int64
	for id, u := range s.users {
		if u.Username == user.Username {
			return repository.ErrUsernameExists
		}
		if id > maxID {
			maxID = id
		}
	}
	user.ID = maxID + 1
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

// ConversationStore

func (s *memStore) GetOrCreate(_ context.Context, low, high int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	if low >= high {
		return 0, repository.ErrInvalidParticipant
	}
	if _, ok := s.users[low]; !ok {
		return 0, repository.ErrInvalidParticipant
	}
	if _, ok := s.users[high]; !ok {
		return 0, repository.ErrInvalidParticipant
	}

	key := [2]int64{low, high}
	if id, ok := s.pairs[key]; ok {
		return id, nil
	}
	s.nextConvID++
	s.pairs[key] = s.nextConvID
	s.participants[s.nextConvID] = key
	s.created++
	return s.nextConvID, nil
}

func (s *memStore) IsParticipant(_ context.Context, conversationID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	pair, ok := s.participants[conversationID]
	return ok && (pair[0] == userID || pair[1] == userID), nil
}

// ListSummaries 故意按会话 ID 升序返回，由调用方负责排序
func (s *memStore) ListSummaries(_ context.Context, userID int64) ([]model.ConversationRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}

	ids := make([]int64, 0)
	for id, pair := range s.participants {
		if pair[0] == userID || pair[1] == userID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rows := make([]model.ConversationRow, 0, len(ids))
	for _, id := range ids {
		pair := s.participants[id]
		otherID := pair[0]
		if otherID == userID {
			otherID = pair[1]
		}
		other := s.users[otherID]
		row := model.ConversationRow{
			ConversationID:    id,
			OtherUserID:       other.ID,
			OtherUsername:     other.Username,
			OtherRole:         other.Role,
			OtherLastActivity: other.LastActivity,
		}
		var last *model.Message
		for _, m := range s.messages {
			if m.ConversationID != id {
				continue
			}
			if last == nil || m.CreatedAt.After(last.CreatedAt) || (m.CreatedAt.Equal(last.CreatedAt) && m.ID > last.ID) {
				last = m
			}
			if m.ReceiverID == userID && !m.Read {
				row.UnreadCount++
			}
		}
		if last != nil {
			content, at := last.Content, last.CreatedAt
			row.LastMessage, row.LastMessageTime = &content, &at
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// MessageStore

func (s *memStore) Create(_ context.Context, msg *model.NewMessage) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if _, ok := s.participants[msg.ConversationID]; !ok {
		return nil, repository.ErrConversationNotFound
	}
	s.nextMsgID++
	s.clock = s.clock.Add(time.Second)
	m := &model.Message{
		ID:             s.nextMsgID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		ReceiverID:     msg.ReceiverID,
		Content:        msg.Content,
		CreatedAt:      s.clock,
	}
	s.messages = append(s.messages, m)
	cp := *m
	return &cp, nil
}

func (s *memStore) ListByConversation(_ context.Context, conversationID int64) ([]*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	result := make([]*model.Message, 0)
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			cp := *m
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (s *memStore) MarkRead(_ context.Context, conversationID, receiverID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	var n int64
	for _, m := range s.messages {
		if m.ConversationID == conversationID && m.ReceiverID == receiverID && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

func (s *memStore) CountUnread(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	var n int64
	for _, m := range s.messages {
		if m.ReceiverID == userID && !m.Read {
			n++
		}
	}
	return n, nil
}

// unreadIn 某个会话中发给 userID 的未读数
func (s *memStore) unreadIn(conversationID, userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.messages {
		if m.ConversationID == conversationID && m.ReceiverID == userID && !m.Read {
			n++
		}
	}
	return n
}
