package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"whatsreply/internal/suggest"
	"whatsreply/internal/types"
)

type State int

const (
	Idle State = iota
	Submitting
	ShowingResults
	ShowingError
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case ShowingResults:
		return "showing_results"
	case ShowingError:
		return "showing_error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

const (
	MessengerURI = "whatsapp://"
	// CopiedFor is how long a copied suggestion stays marked as copied.
	CopiedFor = 2 * time.Second

	messengerMissing = "Please make sure WhatsApp is installed on your device"
)

var (
	ErrBusy           = errors.New("a request is already in progress")
	ErrNoSuggestion   = errors.New("no suggestion at that position")
	ErrAppUnavailable = errors.New("messaging app is not available")
)

// Session is the state of the single suggestion screen. It is safe for
// concurrent use; only one request can be outstanding at a time.
type Session struct {
	suggester Suggester
	clipboard Clipboard
	launcher  URLLauncher
	now       func() time.Time

	mu           sync.Mutex
	state        State
	message      string
	relationship string
	outcome      string
	suggestions  []types.Suggestion
	errMsg       string
	notice       string
	copiedIndex  int
	copiedAt     time.Time
}

func NewSession(s Suggester, cb Clipboard, l URLLauncher) *Session {
	return &Session{
		suggester:   s,
		clipboard:   cb,
		launcher:    l,
		now:         time.Now,
		copiedIndex: -1,
	}
}

// Snapshot is a read-only copy of the session used for rendering.
type Snapshot struct {
	State            State
	ReceivedMessage  string
	RelationshipType string
	DesiredOutcome   string
	Suggestions      []types.Suggestion
	Error            string
	Notice           string
	// CopiedIndex is -1 when nothing is marked as copied.
	CopiedIndex int
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:            s.state,
		ReceivedMessage:  s.message,
		RelationshipType: s.relationship,
		DesiredOutcome:   s.outcome,
		Suggestions:      append([]types.Suggestion(nil), s.suggestions...),
		Error:            s.errMsg,
		Notice:           s.notice,
		CopiedIndex:      s.copiedIndexLocked(),
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) SetMessage(v string) error {
	return s.edit(func() { s.message = v })
}

func (s *Session) SetRelationship(v string) error {
	return s.edit(func() { s.relationship = v })
}

func (s *Session) SetOutcome(v string) error {
	return s.edit(func() { s.outcome = v })
}

// PasteMessage replaces the received message with the clipboard contents.
func (s *Session) PasteMessage(ctx context.Context) error {
	if s.State() == Submitting {
		return ErrBusy
	}
	text, err := s.clipboard.ReadText(ctx)
	if err != nil {
		return fmt.Errorf("read clipboard: %w", err)
	}
	return s.SetMessage(text)
}

// edit applies fn unless a request is outstanding. Any shown result or error
// is discarded and the session returns to Idle.
func (s *Session) edit(fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Submitting {
		return ErrBusy
	}
	fn()
	s.clearOutputLocked()
	s.state = Idle
	return nil
}

// Submit sends the current inputs and waits for the outcome. A second Submit
// while one is outstanding returns ErrBusy. Validation and request failures
// leave the session in ShowingError with the inputs untouched; the returned
// error is the same one that is displayed.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.state == Submitting {
		s.mu.Unlock()
		return ErrBusy
	}
	req := types.SuggestionRequest{
		ReceivedMessage:  s.message,
		RelationshipType: s.relationship,
		DesiredOutcome:   s.outcome,
	}
	s.clearOutputLocked()
	if err := suggest.Validate(req); err != nil {
		s.errMsg = err.Error()
		s.state = ShowingError
		s.mu.Unlock()
		return err
	}
	s.state = Submitting
	s.mu.Unlock()

	list, err := s.suggester.RequestSuggestions(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		log.Printf("[ui] suggestion request failed: %v", err)
		s.errMsg = displayMessage(err)
		s.state = ShowingError
		return err
	}
	s.suggestions = list
	s.state = ShowingResults
	return nil
}

// Copy puts the text of suggestion i on the clipboard and marks it copied.
func (s *Session) Copy(ctx context.Context, i int) error {
	s.mu.Lock()
	if i < 0 || i >= len(s.suggestions) {
		s.mu.Unlock()
		return ErrNoSuggestion
	}
	text := s.suggestions[i].Text
	s.mu.Unlock()

	if err := s.clipboard.WriteText(ctx, text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < len(s.suggestions) && s.suggestions[i].Text == text {
		s.copiedIndex = i
		s.copiedAt = s.now()
	}
	return nil
}

// OpenMessenger launches the messaging app, or sets a notice if it is not
// installed.
func (s *Session) OpenMessenger(ctx context.Context) error {
	if !s.launcher.CanOpen(ctx, MessengerURI) {
		s.mu.Lock()
		s.notice = messengerMissing
		s.mu.Unlock()
		return ErrAppUnavailable
	}
	if err := s.launcher.Open(ctx, MessengerURI); err != nil {
		log.Printf("[ui] opening %s failed: %v", MessengerURI, err)
		return fmt.Errorf("open %s: %w", MessengerURI, err)
	}
	return nil
}

// Reset clears every input and output.
func (s *Session) Reset() error {
	return s.edit(func() {
		s.message = ""
		s.relationship = ""
		s.outcome = ""
	})
}

func (s *Session) clearOutputLocked() {
	s.suggestions = nil
	s.errMsg = ""
	s.notice = ""
	s.copiedIndex = -1
	s.copiedAt = time.Time{}
}

func (s *Session) copiedIndexLocked() int {
	if s.copiedIndex < 0 || s.now().Sub(s.copiedAt) >= CopiedFor {
		return -1
	}
	return s.copiedIndex
}

func displayMessage(err error) string {
	var re *suggest.RequestError
	if errors.As(err, &re) {
		return re.Message
	}
	var ve *suggest.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return suggest.GenericFailure
}
