package collab

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cpayne/go-codecollab/internal/types"
)

const (
	// defaultDebounceInterval coalesces rapid local edits so only the
	// last value of a burst is transmitted.
	defaultDebounceInterval = 50 * time.Millisecond
	// defaultTypingIdle is how long after the last keystroke the
	// typing indicator is withdrawn.
	defaultTypingIdle = time.Second
	// defaultGuardWindow is how long after applying a remote update
	// the session treats editor change notifications as echoes of the
	// programmatic replace rather than new local edits.
	defaultGuardWindow = 100 * time.Millisecond
)

// Emitter sends outbound realtime events. A *Conn satisfies it; tests
// substitute a recorder.
type Emitter interface {
	SendCodeChange(projectId, content string, cursor *types.Position)
	SendCursorUpdate(projectId string, pos types.Position)
	SendTypingIndicator(projectId string, isTyping bool)
}

// Editor is the local editing surface the session reconciles. SetContent
// replaces the whole document; implementations may synchronously fire
// their change notification back into LocalChange, which the session
// recognizes and swallows.
type Editor interface {
	SetContent(content string)
	Selection() int
	SetSelection(offset int)
}

// ProjectStore is the save-path collaborator: a simple update-by-id
// contract against whatever persists projects, outside the realtime
// path.
type ProjectStore interface {
	UpdateContent(projectId, content string) error
}

type SessionConfig struct {
	DebounceInterval time.Duration
	TypingIdle       time.Duration
	GuardWindow      time.Duration
	// OnActivity, when set, receives transient collaborator activity
	// notices ("bob is editing").
	OnActivity func(notice string)
}

func (c *SessionConfig) applyDefaults() {
	if c.DebounceInterval <= 0 {
		c.DebounceInterval = defaultDebounceInterval
	}
	if c.TypingIdle <= 0 {
		c.TypingIdle = defaultTypingIdle
	}
	if c.GuardWindow <= 0 {
		c.GuardWindow = defaultGuardWindow
	}
}

// Session keeps one shared text buffer consistent across the local
// editing surface and remote event streams without feedback loops.
// Local edits are debounced outbound; remote updates are applied as
// full-document replacements behind a receive guard so the replace's
// own change notification is not re-broadcast.
type Session struct {
	projectId string
	user      types.User
	editor    Editor
	emitter   Emitter
	log       *log.Logger
	cfg       SessionConfig

	mu sync.Mutex
	// lastSent is the last content this client transmitted; a debounce
	// flush that matches it is suppressed.
	lastSent string
	// current is the latest known buffer, the authoritative save
	// source even mid-debounce.
	current string
	// receiving guards against treating the programmatic replace as a
	// new local edit, and drops concurrent inbound updates.
	receiving bool
	// lastApplied and echoPending tag the exact content of the most
	// recent remote application, so its editor echo is recognized even
	// if the guard window has already elapsed.
	lastApplied string
	echoPending bool
	typing      bool
	closed      bool

	debounceTimer *time.Timer
	typingTimer   *time.Timer
	guardTimer    *time.Timer
}

func NewSession(projectId string, user types.User, editor Editor, emitter Emitter, logger *log.Logger, cfg SessionConfig) *Session {
	cfg.applyDefaults()
	return &Session{
		projectId: projectId,
		user:      user,
		editor:    editor,
		emitter:   emitter,
		log:       logger,
		cfg:       cfg,
	}
}

// LocalChange records a local edit and schedules its transmission.
// The buffer snapshot is always taken, even while the receive guard is
// up, so a save always sees the freshest content.
func (s *Session) LocalChange(content string) {
	s.mu.Lock()
	s.current = content

	if s.closed {
		s.mu.Unlock()
		return
	}

	if s.receiving {
		// Change notification fired by the remote replace; not a
		// local edit.
		s.mu.Unlock()
		return
	}

	if s.echoPending && content == s.lastApplied {
		s.echoPending = false
		s.mu.Unlock()
		return
	}

	startTyping := !s.typing
	s.typing = true

	if s.typingTimer != nil {
		s.typingTimer.Stop()
	}
	s.typingTimer = time.AfterFunc(s.cfg.TypingIdle, s.typingIdle)

	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.debounceTimer = time.AfterFunc(s.cfg.DebounceInterval, s.flush)
	s.mu.Unlock()

	if startTyping {
		s.emitter.SendTypingIndicator(s.projectId, true)
	}
}

// flush transmits the latest buffer once the debounce window closes,
// unless it matches what was already sent.
func (s *Session) flush() {
	s.mu.Lock()
	if s.closed || s.current == s.lastSent {
		s.mu.Unlock()
		return
	}
	content := s.current
	s.lastSent = content
	s.mu.Unlock()

	s.emitter.SendCodeChange(s.projectId, content, nil)
}

func (s *Session) typingIdle() {
	s.mu.Lock()
	if s.closed || !s.typing {
		s.mu.Unlock()
		return
	}
	s.typing = false
	s.mu.Unlock()

	s.emitter.SendTypingIndicator(s.projectId, false)
}

// LocalCursor transmits a selection change immediately. Cursor moves
// caused by a remote-triggered render are suppressed while the guard
// is up.
func (s *Session) LocalCursor(pos types.Position) {
	s.mu.Lock()
	suppressed := s.receiving || s.closed
	s.mu.Unlock()

	if suppressed {
		return
	}

	s.emitter.SendCursorUpdate(s.projectId, pos)
}

// ApplyRemote applies an inbound code update as a full-document
// replacement. It reports whether the update was applied: updates from
// the session's own user are ignored, and updates arriving while the
// guard is up are dropped, last-applied-wins.
func (s *Session) ApplyRemote(update *types.CodeUpdate) bool {
	s.mu.Lock()
	if s.closed || update.UserId == s.user.Id {
		s.mu.Unlock()
		return false
	}

	if s.receiving {
		s.mu.Unlock()
		return false
	}

	s.receiving = true
	s.current = update.Content
	s.lastApplied = update.Content
	s.echoPending = true

	if s.guardTimer != nil {
		s.guardTimer.Stop()
	}
	s.guardTimer = time.AfterFunc(s.cfg.GuardWindow, s.clearGuard)
	s.mu.Unlock()

	// Replace the document wholesale, preserving the selection as an
	// offset anchor clamped to the new length. Exact preservation is
	// best-effort; the whole document just changed underneath it.
	sel := s.editor.Selection()
	s.editor.SetContent(update.Content)
	if sel > len(update.Content) {
		sel = len(update.Content)
	}
	s.editor.SetSelection(sel)

	if s.cfg.OnActivity != nil {
		username := update.Username
		if username == "" {
			username = "Someone"
		}
		s.cfg.OnActivity(fmt.Sprintf("%s is editing", username))
	}

	return true
}

func (s *Session) clearGuard() {
	s.mu.Lock()
	s.receiving = false
	s.mu.Unlock()
}

// Content returns the authoritative buffer, including edits still
// inside the debounce window.
func (s *Session) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Save pushes the freshest buffer to the project store. It does not
// wait out a pending debounce; the buffer is already up to date.
func (s *Session) Save(store ProjectStore) error {
	content := s.Content()
	if err := store.UpdateContent(s.projectId, content); err != nil {
		return fmt.Errorf("update content: %w", err)
	}
	return nil
}

// Close cancels all pending timers. A closed session ignores further
// input.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for _, t := range []*time.Timer{s.debounceTimer, s.typingTimer, s.guardTimer} {
		if t != nil {
			t.Stop()
		}
	}
}
