package analyzer_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"decklens/internal/analyzer"
	"decklens/internal/port"
	"decklens/mocks"
)

func fallbackOutput(model string) *port.AnalyzeOutput {
	return &port.AnalyzeOutput{
		Analysis:   "```json\n{\"startup_name\": \"Acme\"}\n```",
		ModelUsed:  model,
		PromptUsed: "test prompt",
	}
}

func TestFallbackAnalyzer_FirstSucceeds(t *testing.T) {
	a1 := new(mocks.MockAnalyzer)
	a2 := new(mocks.MockAnalyzer)
	a3 := new(mocks.MockAnalyzer)

	input := port.AnalyzeInput{DocumentText: "Page 1:\nAcme deck"}
	a1.On("Analyze", mock.Anything, input).Return(fallbackOutput("gpt-5-mini"), nil)

	fa := analyzer.NewFallbackAnalyzer(
		[]port.Analyzer{a1, a2, a3},
		[]string{"openai", "claude", "gemini"},
	)

	result, err := fa.Analyze(context.Background(), input)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, "gpt-5-mini", result.ModelUsed)
	a2.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
	a3.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestFallbackAnalyzer_FirstFails_SecondSucceeds(t *testing.T) {
	a1 := new(mocks.MockAnalyzer)
	a2 := new(mocks.MockAnalyzer)

	input := port.AnalyzeInput{DocumentText: "deck text"}
	a1.On("Analyze", mock.Anything, input).Return(nil, errors.New("generic error"))
	a2.On("Analyze", mock.Anything, input).Return(fallbackOutput("claude-sonnet"), nil)

	fa := analyzer.NewFallbackAnalyzer(
		[]port.Analyzer{a1, a2},
		[]string{"openai", "claude"},
	)

	result, err := fa.Analyze(context.Background(), input)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, "claude-sonnet", result.ModelUsed)
}

func TestFallbackAnalyzer_FirstRateLimited_SecondSucceeds(t *testing.T) {
	a1 := new(mocks.MockAnalyzer)
	a2 := new(mocks.MockAnalyzer)

	input := port.AnalyzeInput{DocumentText: "deck text"}
	rlErr := analyzer.NewRateLimitError("openai", errors.New("429"), 60)
	a1.On("Analyze", mock.Anything, input).Return(nil, rlErr)
	a2.On("Analyze", mock.Anything, input).Return(fallbackOutput("claude-sonnet"), nil)

	fa := analyzer.NewFallbackAnalyzer(
		[]port.Analyzer{a1, a2},
		[]string{"openai", "claude"},
	)

	result, err := fa.Analyze(context.Background(), input)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, "claude-sonnet", result.ModelUsed)
}

func TestFallbackAnalyzer_AllRateLimited(t *testing.T) {
	a1 := new(mocks.MockAnalyzer)
	a2 := new(mocks.MockAnalyzer)

	input := port.AnalyzeInput{DocumentText: "deck text"}
	a1.On("Analyze", mock.Anything, input).Return(nil, analyzer.NewRateLimitError("openai", errors.New("429"), 60))
	a2.On("Analyze", mock.Anything, input).Return(nil, analyzer.NewRateLimitError("claude", errors.New("429"), 30))

	fa := analyzer.NewFallbackAnalyzer(
		[]port.Analyzer{a1, a2},
		[]string{"openai", "claude"},
	)

	result, err := fa.Analyze(context.Background(), input)

	assert.Nil(t, result)
	assert.Error(t, err)

	var rlErr *analyzer.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, "all", rlErr.Provider)
}

func TestFallbackAnalyzer_AllFail_NonRateLimit(t *testing.T) {
	a1 := new(mocks.MockAnalyzer)
	a2 := new(mocks.MockAnalyzer)

	input := port.AnalyzeInput{DocumentText: "deck text"}
	a1.On("Analyze", mock.Anything, input).Return(nil, errors.New("error 1"))
	a2.On("Analyze", mock.Anything, input).Return(nil, errors.New("error 2"))

	fa := analyzer.NewFallbackAnalyzer(
		[]port.Analyzer{a1, a2},
		[]string{"openai", "claude"},
	)

	result, err := fa.Analyze(context.Background(), input)

	assert.Nil(t, result)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "all analyzers failed")

	var rlErr *analyzer.RateLimitError
	assert.False(t, errors.As(err, &rlErr))
}

func TestFallbackAnalyzer_CircuitAutoCloses(t *testing.T) {
	a1 := new(mocks.MockAnalyzer)
	a2 := new(mocks.MockAnalyzer)

	input := port.AnalyzeInput{DocumentText: "deck text"}

	// First call: a1 rate limited with 1s retry, a2 succeeds
	a1.On("Analyze", mock.Anything, input).Return(nil, analyzer.NewRateLimitError("openai", errors.New("429"), 1)).Once()
	a2.On("Analyze", mock.Anything, input).Return(fallbackOutput("claude-sonnet"), nil).Once()

	fa := analyzer.NewFallbackAnalyzer(
		[]port.Analyzer{a1, a2},
		[]string{"openai", "claude"},
	)

	result, err := fa.Analyze(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, "claude-sonnet", result.ModelUsed)

	// Wait for circuit to auto-close
	time.Sleep(1100 * time.Millisecond)

	// Second call: a1 should be retried and succeed
	a1.On("Analyze", mock.Anything, input).Return(fallbackOutput("gpt-5-mini"), nil).Once()

	result, err = fa.Analyze(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, "gpt-5-mini", result.ModelUsed)
}

func TestFallbackAnalyzer_SkipsOpenCircuit(t *testing.T) {
	a1 := new(mocks.MockAnalyzer)
	a2 := new(mocks.MockAnalyzer)

	input := port.AnalyzeInput{DocumentText: "deck text"}

	// First call: a1 rate limited with 60s, a2 succeeds
	a1.On("Analyze", mock.Anything, input).Return(nil, analyzer.NewRateLimitError("openai", errors.New("429"), 60)).Once()
	a2.On("Analyze", mock.Anything, input).Return(fallbackOutput("claude-sonnet"), nil)

	fa := analyzer.NewFallbackAnalyzer(
		[]port.Analyzer{a1, a2},
		[]string{"openai", "claude"},
	)

	result, err := fa.Analyze(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, "claude-sonnet", result.ModelUsed)

	// Second call immediately: a1 should be skipped (circuit still open)
	result, err = fa.Analyze(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, "claude-sonnet", result.ModelUsed)

	// a1 should have been called only once total
	a1.AssertNumberOfCalls(t, "Analyze", 1)
}

func TestFallbackAnalyzer_SingleAnalyzer(t *testing.T) {
	a1 := new(mocks.MockAnalyzer)

	input := port.AnalyzeInput{DocumentText: "deck text"}
	a1.On("Analyze", mock.Anything, input).Return(fallbackOutput("gpt-5-mini"), nil)

	fa := analyzer.NewFallbackAnalyzer([]port.Analyzer{a1}, []string{"openai"})

	result, err := fa.Analyze(context.Background(), input)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, "gpt-5-mini", result.ModelUsed)
}

func TestFallbackAnalyzer_ConcurrentSafety(t *testing.T) {
	a1 := new(mocks.MockAnalyzer)
	a2 := new(mocks.MockAnalyzer)

	input := port.AnalyzeInput{DocumentText: "deck text"}
	a1.On("Analyze", mock.Anything, input).Return(nil, analyzer.NewRateLimitError("openai", errors.New("429"), 5)).Maybe()
	a2.On("Analyze", mock.Anything, input).Return(fallbackOutput("claude-sonnet"), nil).Maybe()

	fa := analyzer.NewFallbackAnalyzer(
		[]port.Analyzer{a1, a2},
		[]string{"openai", "claude"},
	)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := fa.Analyze(context.Background(), input)
			assert.NoError(t, err)
			assert.NotNil(t, result)
		}()
	}
	wg.Wait()
}
