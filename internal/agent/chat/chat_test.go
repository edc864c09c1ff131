package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaldesk/vitaldesk/internal/log"
	"github.com/vitaldesk/vitaldesk/internal/rag"
	"github.com/vitaldesk/vitaldesk/internal/store"
	"github.com/vitaldesk/vitaldesk/internal/testutil"
	"github.com/vitaldesk/vitaldesk/internal/tools"
)

// memStore collects appended records in memory. Set err to make every
// append fail.
type memStore struct {
	appends []string
	err     error
}

func (m *memStore) Append(collection string, record store.Record) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.appends = append(m.appends, collection)
	return int64(len(m.appends)), nil
}

// fakeRetriever returns a canned augmentation and counts calls.
type fakeRetriever struct {
	enabled bool
	aug     rag.Augmentation
	calls   int
}

func (f *fakeRetriever) Enabled() bool { return f.enabled }

func (f *fakeRetriever) RetrieveAndAugment(_ context.Context, _ string, _ int) rag.Augmentation {
	f.calls++
	return f.aug
}

type fixture struct {
	assistant *Assistant
	mock      *testutil.MockLLM
	store     *memStore
	retriever *fakeRetriever
}

func newFixture(t *testing.T, retriever *fakeRetriever) *fixture {
	t.Helper()

	g := genkit.Init(context.Background())
	mock := testutil.NewMockLLM("fallback answer")
	mock.Register(g)

	st := &memStore{}
	registry := tools.NewRegistry(g, st, log.NewNop())

	a, err := New(Config{
		Genkit:    g,
		Registry:  registry,
		Retriever: retriever,
		Logger:    log.NewNop(),
		ModelName: testutil.MockModelName,
	})
	require.NoError(t, err)

	return &fixture{assistant: a, mock: mock, store: st, retriever: retriever}
}

func TestRespond_EmptyMessage(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &fakeRetriever{})
	_, err := f.assistant.Respond(context.Background(), "", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestRespond_PlainAnswer(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &fakeRetriever{})
	f.mock.AddResponse("capital of france", "Paris.")

	res, err := f.assistant.Respond(context.Background(), "", "What is the capital of France?")
	require.NoError(t, err)

	assert.Equal(t, "Paris.", res.Response)
	assert.Empty(t, res.ToolsExecuted)
	assert.False(t, res.RAGUsed)
	assert.NotEmpty(t, res.SessionID, "server generates a session id when absent")

	// Single round: no tool requests means no second model call.
	assert.Len(t, f.mock.Calls(), 1)
}

func TestRespond_ToolFlow(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &fakeRetriever{})
	f.mock.AddToolResponse("book an appointment",
		[]*ai.ToolRequest{{
			Name: tools.NameCreateAppointment,
			Ref:  "call-1",
			Input: map[string]any{
				"patientName": "John",
				"doctorName":  "Dr. Smith",
				"date":        "2026-09-15",
				"time":        "10:00",
			},
		}},
		"Your appointment is booked.")

	res, err := f.assistant.Respond(context.Background(), "s1", "Please book an appointment with Dr. Smith")
	require.NoError(t, err)

	assert.Equal(t, "Your appointment is booked.", res.Response)
	require.Len(t, res.ToolsExecuted, 1)
	assert.Equal(t, tools.NameCreateAppointment, res.ToolsExecuted[0].Tool)
	assert.True(t, res.ToolsExecuted[0].Result.Success)
	assert.Equal(t, []string{store.CollectionAppointments}, f.store.appends)

	calls := f.mock.Calls()
	require.Len(t, calls, 2)
	assert.True(t, calls[0].HadTools, "round 1 advertises tools")
	assert.False(t, calls[1].HadTools, "round 2 carries no tools")
	assert.True(t, calls[1].SawToolMsgs, "round 2 sees the tool results")
}

func TestRespond_MultipleToolsInOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &fakeRetriever{})
	f.mock.AddToolResponse("full program",
		[]*ai.ToolRequest{
			{
				Name:  tools.NameCreateFitnessPlan,
				Ref:   "call-1",
				Input: map[string]any{"patientName": "Ada", "goal": "5k", "workouts": "run"},
			},
			{
				Name:  tools.NameCreateMealPlan,
				Ref:   "call-2",
				Input: map[string]any{"patientName": "Ada", "goal": "5k", "meals": "balanced"},
			},
		},
		"Both plans created.")

	res, err := f.assistant.Respond(context.Background(), "s1", "Set up my full program")
	require.NoError(t, err)

	require.Len(t, res.ToolsExecuted, 2)
	assert.Equal(t, tools.NameCreateFitnessPlan, res.ToolsExecuted[0].Tool)
	assert.Equal(t, tools.NameCreateMealPlan, res.ToolsExecuted[1].Tool)
	assert.Equal(t, []string{
		store.CollectionFitnessPlans,
		store.CollectionMealPlans,
	}, f.store.appends)
}

func TestRespond_UnknownToolSkipped(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &fakeRetriever{})
	f.mock.AddToolResponse("do something odd",
		[]*ai.ToolRequest{{
			Name:  "launchRocket",
			Ref:   "call-1",
			Input: map[string]any{},
		}},
		"Done what I could.")

	res, err := f.assistant.Respond(context.Background(), "s1", "Please do something odd")
	require.NoError(t, err)

	assert.Empty(t, res.ToolsExecuted, "unknown tools never reach the audit trail")
	assert.Empty(t, f.store.appends)
	assert.Equal(t, "Done what I could.", res.Response)
}

func TestRespond_FailedToolDoesNotAbortTurn(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &fakeRetriever{})
	f.store.err = errors.New("disk full")
	f.mock.AddToolResponse("book an appointment",
		[]*ai.ToolRequest{{
			Name: tools.NameCreateAppointment,
			Ref:  "call-1",
			Input: map[string]any{
				"patientName": "John",
				"doctorName":  "Dr. Smith",
				"date":        "2026-09-15",
				"time":        "10:00",
			},
		}},
		"I could not save that appointment.")

	res, err := f.assistant.Respond(context.Background(), "s1", "Please book an appointment with Dr. Smith")
	require.NoError(t, err, "a failing tool handler must not fail the exchange")

	require.Len(t, res.ToolsExecuted, 1)
	assert.False(t, res.ToolsExecuted[0].Result.Success)
	assert.Contains(t, res.ToolsExecuted[0].Result.Error, "disk full")
	assert.Equal(t, "I could not save that appointment.", res.Response)

	// The failed outcome still feeds round 2 so the model can explain.
	calls := f.mock.Calls()
	require.Len(t, calls, 2)
	assert.True(t, calls[1].SawToolMsgs)
}

func TestRespond_ModelNotConfigured(t *testing.T) {
	t.Parallel()

	g := genkit.Init(context.Background())
	testutil.NewMockLLM("unused").Register(g)
	registry := tools.NewRegistry(g, &memStore{}, log.NewNop())

	a, err := New(Config{
		Genkit:     g,
		Registry:   registry,
		Retriever:  &fakeRetriever{},
		Logger:     log.NewNop(),
		ModelName:  testutil.MockModelName,
		ModelReady: func() bool { return false },
	})
	require.NoError(t, err)

	_, err = a.Respond(context.Background(), "s1", "hello")
	assert.ErrorIs(t, err, ErrModelNotConfigured)
}

func TestRespond_RAGUsedOnDomainQuestion(t *testing.T) {
	t.Parallel()

	retriever := &fakeRetriever{
		enabled: true,
		aug: rag.Augmentation{
			Context:   "From guide.md:\n1. protein helps recovery\n",
			Citations: []rag.Citation{{Filename: "guide.md", Chunks: 1}},
		},
	}
	f := newFixture(t, retriever)
	f.mock.AddResponse("protein", "Protein supports muscle repair.")

	res, err := f.assistant.Respond(context.Background(), "s1", "How much protein do I need?")
	require.NoError(t, err)

	assert.True(t, res.RAGUsed)
	require.Len(t, res.Citations, 1)
	assert.Equal(t, "guide.md", res.Citations[0].Filename)
	assert.Equal(t, 1, retriever.calls)
}

func TestRespond_NoRetrievalForOffTopicQuestion(t *testing.T) {
	t.Parallel()

	retriever := &fakeRetriever{enabled: true}
	f := newFixture(t, retriever)

	res, err := f.assistant.Respond(context.Background(), "s1", "Tell me about the weather in Tokyo")
	require.NoError(t, err)

	assert.False(t, res.RAGUsed)
	assert.Zero(t, retriever.calls, "classifier gates retrieval")
}

func TestRespond_EmptyAugmentationMeansNoRAG(t *testing.T) {
	t.Parallel()

	retriever := &fakeRetriever{enabled: true} // returns zero Augmentation
	f := newFixture(t, retriever)

	res, err := f.assistant.Respond(context.Background(), "s1", "best workout split?")
	require.NoError(t, err)

	assert.False(t, res.RAGUsed)
	assert.Equal(t, 1, retriever.calls)
	assert.Empty(t, res.Citations)
}

func TestRespond_HistoryAccumulates(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &fakeRetriever{})
	f.mock.AddResponse("my name is ada", "Nice to meet you, Ada.")

	res1, err := f.assistant.Respond(context.Background(), "", "My name is Ada")
	require.NoError(t, err)

	_, err = f.assistant.Respond(context.Background(), res1.SessionID, "What did I just tell you?")
	require.NoError(t, err)

	msgs := f.assistant.sessions.Messages(res1.SessionID)
	require.Len(t, msgs, 4)
	assert.Equal(t, "My name is Ada", msgs[0].Text())
	assert.Equal(t, "Nice to meet you, Ada.", msgs[1].Text())
}

func TestRespond_SessionIDEchoed(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &fakeRetriever{})
	res, err := f.assistant.Respond(context.Background(), "my-session", "hello there")
	require.NoError(t, err)
	assert.Equal(t, "my-session", res.SessionID)
}

func TestRespond_EmptyModelResponseGetsFallback(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &fakeRetriever{})
	f.mock.AddResponse("silence", "")

	res, err := f.assistant.Respond(context.Background(), "s1", "give me silence")
	require.NoError(t, err)
	assert.Equal(t, FallbackResponse, res.Response)
}
