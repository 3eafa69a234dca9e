package storage

import (
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a conversation id is not in the store.
	ErrNotFound = errors.New("conversation not found")
	// ErrTimeout is returned when the worker does not answer within the
	// request timeout.
	ErrTimeout = errors.New("store worker timeout")
	// ErrClosed is returned for requests issued after Close.
	ErrClosed = errors.New("store closed")
)

// requestTimeout bounds every worker round trip; a misbehaving worker fails
// the operation instead of hanging the caller forever.
const requestTimeout = 10 * time.Second

type storeAction int

const (
	actionSave storeAction = iota
	actionGet
	actionAll
	actionDelete
	actionSearch
)

type storeRequest struct {
	id     uint64
	action storeAction
	conv   *Conversation
	key    string // conversation id or search query
}

type storeResponse struct {
	id   uint64
	conv *Conversation
	list []*Conversation
	err  error
}

// Store is the conversation store. A single worker goroutine owns the sqlite
// handle; callers communicate with it purely by message passing, with each
// request/response pair correlated by a monotonically increasing id through
// the pending table.
type Store struct {
	db       *conversationDB
	requests chan storeRequest

	mu      sync.Mutex
	pending map[uint64]chan storeResponse

	nextID  atomic.Uint64
	timeout time.Duration
	done    chan struct{}
	closed  sync.Once
}

// Open opens (creating if necessary) the conversation database under dataDir
// and starts the worker.
func Open(dataDir string) (*Store, error) {
	db, err := openDB(filepath.Join(dataDir, "conversations.db"))
	if err != nil {
		return nil, err
	}

	s := newStore(db, requestTimeout)
	go s.run()
	return s, nil
}

// newStore wires a store without starting the worker; Open starts it.
func newStore(db *conversationDB, timeout time.Duration) *Store {
	return &Store{
		db:       db,
		requests: make(chan storeRequest),
		pending:  make(map[uint64]chan storeResponse),
		timeout:  timeout,
		done:     make(chan struct{}),
	}
}

// Close stops the worker and closes the database. In-flight callers receive
// ErrClosed or time out.
func (s *Store) Close() error {
	var err error
	s.closed.Do(func() {
		close(s.done)
		err = s.db.close()
	})
	return err
}

func (s *Store) run() {
	for {
		select {
		case req := <-s.requests:
			s.deliver(s.execute(req))
		case <-s.done:
			return
		}
	}
}

func (s *Store) execute(req storeRequest) storeResponse {
	resp := storeResponse{id: req.id}
	switch req.action {
	case actionSave:
		resp.err = s.db.put(req.conv)
	case actionGet:
		resp.conv, resp.err = s.db.get(req.key)
	case actionAll:
		resp.list, resp.err = s.db.all()
	case actionDelete:
		resp.err = s.db.delete(req.key)
	case actionSearch:
		resp.list, resp.err = s.db.search(req.key)
	}
	return resp
}

func (s *Store) deliver(resp storeResponse) {
	s.mu.Lock()
	ch, ok := s.pending[resp.id]
	delete(s.pending, resp.id)
	s.mu.Unlock()

	if ok {
		ch <- resp
	}
}

// call sends one request to the worker and waits for its correlated response
// or the timeout.
func (s *Store) call(req storeRequest) (storeResponse, error) {
	req.id = s.nextID.Add(1)

	ch := make(chan storeResponse, 1)
	s.mu.Lock()
	s.pending[req.id] = ch
	s.mu.Unlock()

	drop := func() {
		s.mu.Lock()
		delete(s.pending, req.id)
		s.mu.Unlock()
	}

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case s.requests <- req:
	case <-s.done:
		drop()
		return storeResponse{}, ErrClosed
	case <-timer.C:
		drop()
		return storeResponse{}, ErrTimeout
	}

	select {
	case resp := <-ch:
		return resp, resp.err
	case <-s.done:
		drop()
		return storeResponse{}, ErrClosed
	case <-timer.C:
		drop()
		return storeResponse{}, ErrTimeout
	}
}

// Save writes the full conversation record (last writer wins).
func (s *Store) Save(conv *Conversation) error {
	_, err := s.call(storeRequest{action: actionSave, conv: conv})
	return err
}

// Get loads one conversation by id.
func (s *Store) Get(id string) (*Conversation, error) {
	resp, err := s.call(storeRequest{action: actionGet, key: id})
	if err != nil {
		return nil, err
	}
	return resp.conv, nil
}

// All returns every conversation sorted by timestamp descending.
func (s *Store) All() ([]*Conversation, error) {
	resp, err := s.call(storeRequest{action: actionAll})
	if err != nil {
		return nil, err
	}
	return resp.list, nil
}

// Delete removes a conversation.
func (s *Store) Delete(id string) error {
	_, err := s.call(storeRequest{action: actionDelete, key: id})
	return err
}

// Search returns conversations matching a case-insensitive substring query
// across title, preview and message contents, newest first.
func (s *Store) Search(query string) ([]*Conversation, error) {
	resp, err := s.call(storeRequest{action: actionSearch, key: query})
	if err != nil {
		return nil, err
	}
	return resp.list, nil
}

// GenerateID returns a fresh conversation id.
func GenerateID() string {
	return uuid.New().String()
}

// AppendMessage is the read-modify-write convenience used by the chat flow:
// load or create the conversation, append the message, bump the timestamp,
// and set title/preview from the first user message if still unset. The id
// may be empty for a brand-new conversation.
func (s *Store) AppendMessage(id, role, content string) (*Conversation, error) {
	if id == "" {
		id = GenerateID()
	}

	conv, err := s.Get(id)
	if errors.Is(err, ErrNotFound) {
		conv = &Conversation{ID: id}
	} else if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	conv.Messages = append(conv.Messages, Message{Role: role, Content: content, Timestamp: now})
	conv.Timestamp = now

	if role == "user" {
		if conv.Preview == "" {
			conv.Preview = snippet(content, 60)
		}
		if conv.Title == "" {
			conv.Title = snippet(content, 60)
		}
	}

	if err := s.Save(conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// Rename sets a new title (and matching preview) on a stored conversation.
func (s *Store) Rename(id, title string) error {
	conv, err := s.Get(id)
	if err != nil {
		return err
	}
	conv.Title = title
	conv.Preview = title
	return s.Save(conv)
}
