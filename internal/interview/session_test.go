package interview

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anindya-dev/interview-assistant-backend/internal/storage"
)

// seqGenerator returns "Q0", "Q1", ... and records every prompt
type seqGenerator struct {
	calls   int
	prompts []string
	err     error
	fixed   string // when set, always return this text
}

func (g *seqGenerator) Generate(prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	g.calls++
	if g.fixed != "" {
		return g.fixed, nil
	}
	return fmt.Sprintf("Q%d", g.calls-1), nil
}

// stubScorer returns a fixed similarity and a derived reference answer
type stubScorer struct {
	refErr     error
	similarity float64
}

func (s *stubScorer) ReferenceAnswer(question, topic string) (string, error) {
	if s.refErr != nil {
		return "", s.refErr
	}
	return "ref: " + question, nil
}

func (s *stubScorer) Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}
	return s.similarity
}

func newTestSession(gen *seqGenerator, scorer *stubScorer) *Session {
	return NewSession("SQL", "C", "c@x.com", gen, scorer)
}

func TestStartInitializesSession(t *testing.T) {
	gen := &seqGenerator{}
	s := newTestSession(gen, &stubScorer{similarity: 0.5})

	question, err := s.Start()
	require.NoError(t, err)

	assert.Equal(t, "Q0", question)
	assert.Equal(t, 1, s.QuestionCount)
	assert.Equal(t, 0, s.LevelIndex)
	assert.Equal(t, PhaseMain, s.Phase)
	assert.Equal(t, []string{"Q0"}, s.InitialQuestions)
	require.Len(t, s.Exchanges, 1)
	assert.Equal(t, "Q0", s.Exchanges[0].Question)
	assert.Empty(t, s.Exchanges[0].Answer)

	// The opening prompt names the topic and the level-0 difficulty
	assert.Contains(t, gen.prompts[0], "SQL")
	assert.Contains(t, gen.prompts[0], DifficultyLevels[0])
}

func TestFullTenQuestionRun(t *testing.T) {
	gen := &seqGenerator{}
	s := newTestSession(gen, &stubScorer{similarity: 0.5})

	_, err := s.Start()
	require.NoError(t, err)

	// 9 advances produce the remaining 9 questions, never finishing
	for k := 1; k <= 9; k++ {
		result, err := s.Advance(fmt.Sprintf("ans%d", k-1))
		require.NoError(t, err)
		assert.False(t, result.Finished, "advance %d must not finish", k)
		assert.NotEmpty(t, result.Question)

		assert.Equal(t, k+1, s.QuestionCount)
		assert.Equal(t, k/2, s.LevelIndex, "advance %d", k)
		if k%2 == 0 {
			assert.Equal(t, PhaseMain, s.Phase, "advance %d", k)
		} else {
			assert.Equal(t, PhaseFollowup, s.Phase, "advance %d", k)
		}
	}

	assert.Equal(t, TotalQuestions(), s.QuestionCount)
	assert.Equal(t, len(DifficultyLevels)-1, s.LevelIndex)
	assert.Len(t, s.InitialQuestions, 5, "one main question per level")

	// The 10th advance finalizes without generating a new question
	result, err := s.Advance("final answer")
	require.NoError(t, err)
	assert.True(t, result.Finished)
	assert.Empty(t, result.Question)
	assert.InDelta(t, 0.5, result.AverageScore, 1e-9)
	assert.Len(t, s.Exchanges, 10, "no exchange appended on completion")
	assert.Equal(t, "final answer", s.Exchanges[9].Answer)
}

func TestAdvanceScoresPriorExchange(t *testing.T) {
	s := newTestSession(&seqGenerator{}, &stubScorer{similarity: 0.7})

	_, err := s.Start()
	require.NoError(t, err)

	_, err = s.Advance("ans0")
	require.NoError(t, err)

	first := s.Exchanges[0]
	assert.Equal(t, "ans0", first.Answer)
	assert.Equal(t, "ref: Q0", first.LLMAnswer)
	assert.InDelta(t, 0.7, first.Score, 1e-9)

	// The pending exchange stays blank until its answer arrives
	assert.Empty(t, s.Exchanges[1].Answer)
	assert.Zero(t, s.Exchanges[1].Score)
}

func TestScoringFailureIsSwallowed(t *testing.T) {
	s := newTestSession(&seqGenerator{}, &stubScorer{refErr: fmt.Errorf("rate limited")})

	_, err := s.Start()
	require.NoError(t, err)

	result, err := s.Advance("ans0")
	require.NoError(t, err, "a scoring failure must not block the interview")
	assert.False(t, result.Finished)

	assert.Equal(t, "ans0", s.Exchanges[0].Answer)
	assert.Empty(t, s.Exchanges[0].LLMAnswer)
	assert.Zero(t, s.Exchanges[0].Score)
}

func TestFollowupPromptCarriesTranscript(t *testing.T) {
	gen := &seqGenerator{}
	s := newTestSession(gen, &stubScorer{similarity: 0.5})

	_, err := s.Start()
	require.NoError(t, err)
	_, err = s.Advance("my answer about indexes")
	require.NoError(t, err)

	followupPrompt := gen.prompts[1]
	assert.Contains(t, followupPrompt, "follow-up question")
	assert.Contains(t, followupPrompt, "Q: Q0")
	assert.Contains(t, followupPrompt, "my answer about indexes")

	// The difficulty label is never revealed in follow-up prompts
	for _, label := range DifficultyLevels {
		if label == "hard" {
			continue // "hard" is a substring of other labels; covered by them
		}
		assert.NotContains(t, followupPrompt, label)
	}
}

func TestDuplicateMainQuestionRetried(t *testing.T) {
	gen := &seqGenerator{fixed: "Same question every time"}
	s := newTestSession(gen, &stubScorer{similarity: 0.5})

	_, err := s.Start()
	require.NoError(t, err)
	_, err = s.Advance("ans0") // main -> followup, no dedup involved
	require.NoError(t, err)

	callsBefore := len(gen.prompts)
	result, err := s.Advance("ans1") // followup -> next level main, duplicate every time
	require.NoError(t, err)

	// 1 initial attempt + 2 dedup retries, then the duplicate is tolerated
	assert.Equal(t, callsBefore+3, len(gen.prompts))
	assert.Equal(t, "Same question every time", result.Question)
	assert.Equal(t, []string{"Same question every time", "Same question every time"}, s.InitialQuestions)

	// Retry prompts carry the avoid-list
	assert.NotContains(t, gen.prompts[callsBefore], "Avoid asking")
	assert.Contains(t, gen.prompts[callsBefore+1], "Avoid asking")
	assert.Contains(t, gen.prompts[callsBefore+2], "Avoid asking")
}

func TestGenerationFailureLeavesStateUntouched(t *testing.T) {
	gen := &seqGenerator{}
	s := newTestSession(gen, &stubScorer{similarity: 0.5})

	_, err := s.Start()
	require.NoError(t, err)

	gen.err = fmt.Errorf("API request failed with status 500")
	_, err = s.Advance("ans0")
	require.Error(t, err)

	// Scoring committed, but no phase/level/exchange mutation
	assert.Equal(t, "ans0", s.Exchanges[0].Answer)
	assert.Equal(t, 1, s.QuestionCount)
	assert.Equal(t, 0, s.LevelIndex)
	assert.Equal(t, PhaseMain, s.Phase)
	assert.Len(t, s.Exchanges, 1)
}

func TestLevelIndexClampedAtMaximum(t *testing.T) {
	s := newTestSession(&seqGenerator{}, &stubScorer{similarity: 0.5})
	s.SessionID = "clamped"
	s.Topic = "SQL"
	s.LevelIndex = len(DifficultyLevels) - 1
	s.Phase = PhaseFollowup
	s.QuestionCount = 9
	s.Exchanges = make([]Exchange, 9)
	for i := range s.Exchanges {
		s.Exchanges[i].Question = fmt.Sprintf("Q%d", i)
	}

	_, err := s.Advance("answer")
	require.NoError(t, err)
	assert.Equal(t, len(DifficultyLevels)-1, s.LevelIndex)
}

func TestPersistenceRoundTrip(t *testing.T) {
	gen := &seqGenerator{}
	scorer := &stubScorer{similarity: 0.5}
	s := newTestSession(gen, scorer)

	_, err := s.Start()
	require.NoError(t, err)
	_, err = s.Advance("ans0")
	require.NoError(t, err)
	_, err = s.Advance("ans1")
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	require.NoError(t, s.Save(store))

	loaded, err := Load(store, s.SessionID, gen, scorer)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, s.ToFields(), loaded.ToFields(), "every field survives a store/reload cycle")
	assert.Equal(t, s.LevelIndex, loaded.LevelIndex)
	assert.Equal(t, s.Phase, loaded.Phase)
	assert.Equal(t, s.Exchanges, loaded.Exchanges)
	assert.Equal(t, s.InitialQuestions, loaded.InitialQuestions)
}

func TestLoadMissingSession(t *testing.T) {
	store := storage.NewMemoryStore()

	loaded, err := Load(store, "nope", &seqGenerator{}, &stubScorer{})
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestLoadDefaultsForAbsentFields(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Put(Key("sparse"), map[string]string{
		"topic": "ml",
	}))

	loaded, err := Load(store, "sparse", &seqGenerator{}, &stubScorer{})
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, "sparse", loaded.SessionID)
	assert.Equal(t, 0, loaded.LevelIndex)
	assert.Equal(t, PhaseMain, loaded.Phase)
	assert.Equal(t, 0, loaded.QuestionCount)
	assert.Empty(t, loaded.Exchanges)
}

func TestMainPromptsEscalateDifficulty(t *testing.T) {
	gen := &seqGenerator{}
	s := newTestSession(gen, &stubScorer{similarity: 0.5})

	_, err := s.Start()
	require.NoError(t, err)
	for k := 1; k <= 9; k++ {
		_, err = s.Advance("answer")
		require.NoError(t, err)
	}

	// Prompts for main questions (every even question index) name the label
	mainPrompts := 0
	for _, prompt := range gen.prompts {
		if strings.Contains(prompt, "open-ended interview question") {
			mainPrompts++
		}
	}
	assert.Equal(t, 5, mainPrompts)
	// Question index 8 is the level-4 main question
	assert.Contains(t, gen.prompts[8], DifficultyLevels[4])
}
