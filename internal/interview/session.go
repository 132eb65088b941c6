package interview

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/anindya-dev/interview-assistant-backend/internal/llm"
	"github.com/anindya-dev/interview-assistant-backend/internal/scorecard"
	"github.com/anindya-dev/interview-assistant-backend/internal/storage"
)

// DifficultyLevels is the fixed escalation ladder. Two questions are asked
// per level (one main, one follow-up); the labels guide prompt construction
// and are never shown to the candidate.
var DifficultyLevels = []string{"introductory", "medium hard", "hard", "hard", "very hard"}

const (
	PhaseMain     = "main"
	PhaseFollowup = "followup"

	// Extra generation attempts when a new main question duplicates an
	// earlier one. Duplicates surviving the retries are tolerated.
	maxDuplicateRetries = 2

	// How many recent questions the "avoid these" clause lists
	avoidListSize = 5
)

// TotalQuestions is the terminal threshold: one main and one follow-up
// question per difficulty level.
func TotalQuestions() int {
	return len(DifficultyLevels) * 2
}

// Exchange is one question/answer pair. Answer, score, and the reference
// answer are filled in only after the answer is submitted.
type Exchange struct {
	Question  string  `json:"question"`
	Answer    string  `json:"answer"`
	Score     float64 `json:"score"`
	LLMAnswer string  `json:"llm_answer"`
}

// Session holds the state of one interview between requests
type Session struct {
	SessionID        string
	Topic            string
	Name             string
	Email            string
	LevelIndex       int
	Phase            string
	QuestionCount    int
	CurrentQuestion  string
	Exchanges        []Exchange
	InitialQuestions []string

	generator llm.Generator
	scorer    scorecard.Scorer
}

// AdvanceResult is what one transition hands back to the route layer
type AdvanceResult struct {
	Question     string
	Finished     bool
	AverageScore float64
}

// NewSession creates a fresh interview session
func NewSession(topic, name, email string, generator llm.Generator, scorer scorecard.Scorer) *Session {
	return &Session{
		SessionID: uuid.NewString(),
		Topic:     topic,
		Name:      name,
		Email:     email,
		Phase:     PhaseMain,
		generator: generator,
		scorer:    scorer,
	}
}

// Start generates the first question at level 0
func (s *Session) Start() (string, error) {
	question, err := s.generator.Generate(s.mainQuestionPrompt(0, nil))
	if err != nil {
		return "", err
	}

	s.QuestionCount = 1
	s.LevelIndex = 0
	s.Phase = PhaseMain
	s.CurrentQuestion = question
	s.InitialQuestions = append(s.InitialQuestions, question)
	s.Exchanges = append(s.Exchanges, Exchange{Question: question})

	return question, nil
}

// Advance scores the submitted answer and produces the next question, or
// finalizes the interview once the question budget is spent. A generation
// failure leaves level, phase, and the exchange list untouched.
func (s *Session) Advance(lastAnswer string) (*AdvanceResult, error) {
	// Terminal: the answer just submitted was for the final question
	if s.QuestionCount >= TotalQuestions() {
		s.scoreLastExchange(lastAnswer)
		return &AdvanceResult{Finished: true, AverageScore: s.AverageScore()}, nil
	}

	s.scoreLastExchange(lastAnswer)

	var (
		question  string
		err       error
		nextLevel = s.LevelIndex
		nextPhase string
	)

	if s.Phase == PhaseMain {
		// Dig deeper at the same level
		question, err = s.generator.Generate(s.followupPrompt(lastAnswer))
		nextPhase = PhaseFollowup
	} else {
		// Level exhausted: escalate and open a new line of questioning
		nextLevel = s.LevelIndex + 1
		if nextLevel > len(DifficultyLevels)-1 {
			nextLevel = len(DifficultyLevels) - 1
		}
		question, err = s.generateDistinctMainQuestion(nextLevel)
		nextPhase = PhaseMain
	}
	if err != nil {
		return nil, err
	}

	s.LevelIndex = nextLevel
	s.Phase = nextPhase
	if nextPhase == PhaseMain {
		s.InitialQuestions = append(s.InitialQuestions, question)
	}
	s.CurrentQuestion = question
	s.Exchanges = append(s.Exchanges, Exchange{Question: question})
	s.QuestionCount++

	return &AdvanceResult{Question: question}, nil
}

// AverageScore returns the arithmetic mean over all exchanges
func (s *Session) AverageScore() float64 {
	if len(s.Exchanges) == 0 {
		return 0.0
	}
	total := 0.0
	for _, qa := range s.Exchanges {
		total += qa.Score
	}
	return total / float64(len(s.Exchanges))
}

// scoreLastExchange attaches the answer to the pending exchange and grades
// it. Scoring is best-effort: a failed reference-answer call degrades to
// an empty reference and a 0 score rather than blocking the interview.
func (s *Session) scoreLastExchange(lastAnswer string) {
	if len(s.Exchanges) == 0 {
		return
	}

	last := &s.Exchanges[len(s.Exchanges)-1]
	last.Answer = lastAnswer

	reference, err := s.scorer.ReferenceAnswer(last.Question, s.Topic)
	if err != nil {
		reference = ""
	}
	last.LLMAnswer = reference
	last.Score = s.scorer.Similarity(lastAnswer, reference)

	log.Printf("[SCORE] For Q: '%s', Score: %.2f", truncate(last.Question, 50), last.Score)
}

// generateDistinctMainQuestion generates a main question at the given
// level, retrying with an explicit avoid-list when the model repeats a
// previous opener exactly
func (s *Session) generateDistinctMainQuestion(level int) (string, error) {
	question, err := s.generator.Generate(s.mainQuestionPrompt(level, nil))
	if err != nil {
		return "", err
	}

	for retry := 0; retry < maxDuplicateRetries && s.isDuplicate(question); retry++ {
		avoid := s.InitialQuestions
		if len(avoid) > avoidListSize {
			avoid = avoid[len(avoid)-avoidListSize:]
		}
		question, err = s.generator.Generate(s.mainQuestionPrompt(level, avoid))
		if err != nil {
			return "", err
		}
	}

	return question, nil
}

func (s *Session) isDuplicate(question string) bool {
	for _, asked := range s.InitialQuestions {
		if asked == question {
			return true
		}
	}
	return false
}

func (s *Session) mainQuestionPrompt(level int, avoid []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your task is to generate a single, open-ended interview question about the topic: %s. ", s.Topic)
	fmt.Fprintf(&b, "The question should suit a %s stage of the interview. ", DifficultyLevels[level])
	b.WriteString("Ask technical question if the topic is technical otherwise just focus on the topic. ")
	b.WriteString("Return only the question itself, with no extra text or explanation.")

	if len(avoid) > 0 {
		b.WriteString("\n\nAvoid asking any of these questions again:\n")
		for _, q := range avoid {
			fmt.Fprintf(&b, "- %s\n", q)
		}
	}

	return b.String()
}

func (s *Session) followupPrompt(lastAnswer string) string {
	return fmt.Sprintf(`You are an interviewer. Based on the following conversation history, ask a relevant follow-up question that digs deeper into the candidate's last answer.

Conversation History:
%s
Candidate's Last Answer (for emphasis): "%s"

Your task: Generate a single follow-up question. Return only the question itself.`, s.transcript(), lastAnswer)
}

func (s *Session) transcript() string {
	var b strings.Builder
	for _, qa := range s.Exchanges {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n\n", qa.Question, qa.Answer)
	}
	return b.String()
}

func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}

// Key returns the store key for an interview session id
func Key(sessionID string) string {
	return "session:" + sessionID
}

// ToFields serializes the session to a flat string hash for the store
func (s *Session) ToFields() map[string]string {
	exchanges, _ := json.Marshal(s.Exchanges)
	initial, _ := json.Marshal(s.InitialQuestions)

	return map[string]string{
		"session_id":            s.SessionID,
		"topic":                 s.Topic,
		"name":                  s.Name,
		"email":                 s.Email,
		"level_index":           strconv.Itoa(s.LevelIndex),
		"phase":                 s.Phase,
		"question_count":        strconv.Itoa(s.QuestionCount),
		"current_question":      s.CurrentQuestion,
		"questions_and_answers": string(exchanges),
		"initial_questions":     string(initial),
	}
}

// Save persists the session to the store
func (s *Session) Save(store storage.SessionStore) error {
	return store.Put(Key(s.SessionID), s.ToFields())
}

// Load reconstructs a session from the store. A nil session with a nil
// error means the session was not found (expired or never existed).
func Load(store storage.SessionStore, sessionID string, generator llm.Generator, scorer scorecard.Scorer) (*Session, error) {
	fields, err := store.Get(Key(sessionID))
	if err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, nil
	}

	s := &Session{
		SessionID:       fields["session_id"],
		Topic:           fields["topic"],
		Name:            fields["name"],
		Email:           fields["email"],
		Phase:           PhaseMain,
		CurrentQuestion: fields["current_question"],
		generator:       generator,
		scorer:          scorer,
	}
	if s.SessionID == "" {
		s.SessionID = sessionID
	}
	if phase, ok := fields["phase"]; ok && phase != "" {
		s.Phase = phase
	}
	if levelIndex, err := strconv.Atoi(fields["level_index"]); err == nil {
		s.LevelIndex = levelIndex
	}
	if questionCount, err := strconv.Atoi(fields["question_count"]); err == nil {
		s.QuestionCount = questionCount
	}
	if raw := fields["questions_and_answers"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &s.Exchanges); err != nil {
			return nil, fmt.Errorf("corrupt session %s: %w", sessionID, err)
		}
	}
	if raw := fields["initial_questions"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &s.InitialQuestions); err != nil {
			return nil, fmt.Errorf("corrupt session %s: %w", sessionID, err)
		}
	}

	return s, nil
}
