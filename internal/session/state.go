// Package session tracks risk-relevant state across a session's tool chain:
// the ordered record of completed calls, the stated user intent, and the
// monotonically accumulated sets and flags the signal computer reads. All
// state is in-memory and bounded; nothing survives a process restart.
package session

import (
	"sync"
	"time"

	"github.com/triage-ai/sentinel/internal/classify"
)

const (
	// DefaultChainCap bounds the completed tool-chain record per session.
	DefaultChainCap = 50

	maxIntentLen    = 500
	maxMessageLen   = 500
	maxRecentMsgs   = 5
	largeResultSize = 100_000
)

// Outcome is the terminal status of a finished tool call.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
	OutcomeTimeout Outcome = "timeout"
)

// ResultCategory is a coarse classification of a tool call's result payload.
type ResultCategory string

const (
	ResultTextSmall ResultCategory = "text_small"
	ResultTextLarge ResultCategory = "text_large"
	ResultBinary    ResultCategory = "binary"
	ResultEmpty     ResultCategory = "empty"
	ResultError     ResultCategory = "error"
)

// ClassifyResult buckets a finished call's result. Precedence: error, then
// large text (>100k bytes), then small text, then empty. Content that is not
// valid UTF-8 is binary.
func ClassifyResult(outcome Outcome, content string, sizeBytes int) ResultCategory {
	switch {
	case outcome == OutcomeError || outcome == OutcomeTimeout:
		return ResultError
	case sizeBytes == 0 && content == "":
		return ResultEmpty
	case looksBinary(content):
		return ResultBinary
	case sizeBytes > largeResultSize:
		return ResultTextLarge
	default:
		return ResultTextSmall
	}
}

func looksBinary(content string) bool {
	for i := 0; i < len(content) && i < 1024; i++ {
		if content[i] == 0 {
			return true
		}
	}
	return false
}

// ChainEntry is one finalized tool call in a session's record. Immutable once
// appended. An in-flight call is represented to the assessment service by a
// separate pending projection (see PendingEntry) that never shares a sequence
// number with the finalized entry.
type ChainEntry struct {
	Seq             uint64            `json:"seq"`
	ToolName        string            `json:"tool_name"`
	SanitizedParams map[string]string `json:"sanitized_params,omitempty"`
	Outcome         Outcome           `json:"outcome"`
	DurationMs      int64             `json:"duration_ms"`
	ResultCategory  ResultCategory    `json:"result_category"`
	ResultSizeBytes int               `json:"result_size_bytes"`
}

// PendingEntry builds the optimistic projection of an in-flight call: outcome
// assumed success, zero duration and size.
func PendingEntry(seq uint64, toolName string, sanitized map[string]string) ChainEntry {
	return ChainEntry{
		Seq:             seq,
		ToolName:        toolName,
		SanitizedParams: sanitized,
		Outcome:         OutcomeSuccess,
		ResultCategory:  ResultEmpty,
	}
}

// Session is the per-session-key accumulated state. All mutation goes through
// methods holding the session's own lock; accumulated sets and flags only
// grow for the life of the session.
type Session struct {
	Key       string
	RunID     string
	StartedAt time.Time

	mu             sync.Mutex
	userIntent     string
	recentMessages []string
	chain          []ChainEntry
	chainCap       int
	nextSeq        uint64

	sensitivePaths  map[classify.PathCategory]bool
	externalDomains map[string]bool
	credentialCats  map[classify.PathCategory]bool

	hasSensitiveRead   bool
	webFetchOccurred   bool
	shellAfterWebFetch bool
}

func newSession(key, runID string, chainCap int) *Session {
	if chainCap <= 0 {
		chainCap = DefaultChainCap
	}
	return &Session{
		Key:             key,
		RunID:           runID,
		StartedAt:       time.Now(),
		chainCap:        chainCap,
		nextSeq:         1,
		sensitivePaths:  make(map[classify.PathCategory]bool),
		externalDomains: make(map[string]bool),
		credentialCats:  make(map[classify.PathCategory]bool),
	}
}

// RegisterIntent sets the canonical user intent (first write wins, truncated)
// and always appends the text to the recent-message ring.
func (s *Session) RegisterIntent(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userIntent == "" {
		s.userIntent = truncate(text, maxIntentLen)
	}
	s.appendMessageLocked(text)
}

// AppendMessage records a user message in the recent-message ring.
func (s *Session) AppendMessage(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendMessageLocked(text)
}

func (s *Session) appendMessageLocked(text string) {
	s.recentMessages = append(s.recentMessages, truncate(text, maxMessageLen))
	if len(s.recentMessages) > maxRecentMsgs {
		s.recentMessages = s.recentMessages[len(s.recentMessages)-maxRecentMsgs:]
	}
}

// Absorb OR-merges one call's classification into the accumulated sets and
// flags, then returns a consistent snapshot taken after the merge. The merge
// is monotonic and is never rolled back, even if a later escalation fails.
func (s *Session) Absorb(cls *classify.Classification) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cls.IsShell && s.webFetchOccurred {
		s.shellAfterWebFetch = true
	}
	if cls.IsWebFetch {
		s.webFetchOccurred = true
	}
	for _, cat := range cls.SensitivePathCategories {
		s.sensitivePaths[cat] = true
		if classify.IsCredentialGrade(cat) {
			s.credentialCats[cat] = true
		}
	}
	if len(cls.SensitivePathCategories) > 0 && (cls.IsFileRead || cls.IsShell) {
		s.hasSensitiveRead = true
	}
	if cls.ExternalDomain != "" {
		s.externalDomains[cls.ExternalDomain] = true
	}

	return s.viewLocked()
}

// ReserveSeq consumes and returns the next sequence number. Sequence numbers
// are strictly increasing across pending projections and finalized entries
// and are never reused.
func (s *Session) ReserveSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := s.nextSeq
	s.nextSeq++
	return seq
}

// AppendEntry finalizes a tool call into the chain, evicting the oldest entry
// when over the cap. The entry's sequence number must come from ReserveSeq.
func (s *Session) AppendEntry(e ChainEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chain = append(s.chain, e)
	if len(s.chain) > s.chainCap {
		s.chain = s.chain[len(s.chain)-s.chainCap:]
	}
}

// View is an immutable snapshot of a session's accumulated state.
type View struct {
	Key                string
	RunID              string
	UserIntent         string
	RecentMessages     []string
	Chain              []ChainEntry
	NextSeq            uint64
	SensitivePaths     []classify.PathCategory
	ExternalDomains    []string
	CredentialCats     []classify.PathCategory
	HasSensitiveRead   bool
	WebFetchOccurred   bool
	ShellAfterWebFetch bool
}

// Snapshot returns a copy of the session's current state.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	v := View{
		Key:                s.Key,
		RunID:              s.RunID,
		UserIntent:         s.userIntent,
		RecentMessages:     append([]string(nil), s.recentMessages...),
		Chain:              append([]ChainEntry(nil), s.chain...),
		NextSeq:            s.nextSeq,
		HasSensitiveRead:   s.hasSensitiveRead,
		WebFetchOccurred:   s.webFetchOccurred,
		ShellAfterWebFetch: s.shellAfterWebFetch,
	}
	for cat := range s.sensitivePaths {
		v.SensitivePaths = append(v.SensitivePaths, cat)
	}
	for d := range s.externalDomains {
		v.ExternalDomains = append(v.ExternalDomains, d)
	}
	for cat := range s.credentialCats {
		v.CredentialCats = append(v.CredentialCats, cat)
	}
	return v
}

// LastMessages returns up to n of the most recent user messages.
func (v View) LastMessages(n int) []string {
	if len(v.RecentMessages) <= n {
		return v.RecentMessages
	}
	return v.RecentMessages[len(v.RecentMessages)-n:]
}

// truncate limits a string to max runes without splitting a multi-byte
// character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
