package chat

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sante-qc/chatsante/pkg/adapter"
	"github.com/sante-qc/chatsante/pkg/model"
	"github.com/sante-qc/chatsante/pkg/repository"
	"github.com/sante-qc/chatsante/pkg/service/rag"
	"github.com/sante-qc/chatsante/pkg/utils/logging"
)

//go:embed prompt/answer.md
var answerPromptRaw string

//go:embed prompt/general.md
var generalPromptRaw string

//go:embed prompt/graphdesc.md
var graphDescPromptRaw string

var (
	answerPromptTmpl    = template.Must(template.New("answer").Parse(answerPromptRaw))
	generalPromptTmpl   = template.Must(template.New("general").Parse(generalPromptRaw))
	graphDescPromptTmpl = template.Must(template.New("graphdesc").Parse(graphDescPromptRaw))
)

const (
	// historyWindow limits the prompt to the last 10 textual messages.
	historyWindow = 10

	busyMessage = "Désolé, le service est temporairement surchargé. Veuillez réessayer dans quelques instants."

	noDataWarning = "⚠️ Je n'ai pas trouvé de données santé pour cette question, je passe en mode conversation générale…"

	plotErrorMessage = "Le graphique n'a pas pu être généré. Veuillez reformuler votre question."

	turnErrorMessage = "Une erreur est survenue lors du traitement de votre question. Veuillez réessayer."
)

// graphFollowupPattern detects questions about the previously rendered chart.
var graphFollowupPattern = regexp.MustCompile(`(?i)\b(ce graphique|cette courbe|ce trac[eé])`)

var codeFencePattern = regexp.MustCompile("(?s)```.*?```")

// Session manages the turns of one conversation for one user. It owns the
// conversation log; the document store and adapters may be shared.
type Session struct {
	repo     repository.Repository
	llm      adapter.LLM
	embedder rag.Embedder
	store    *rag.DocumentStore
	plotter  adapter.Plotter

	userID        string
	conversations []*model.Conversation
	conv          *model.Conversation

	threshold float64
	topK      int

	// Cached series and retrieval context of the last rendered chart, so a
	// follow-up about "this chart" is answered without re-retrieving or
	// re-plotting.
	lastGraph        *model.GraphData
	lastGraphContext string
}

// NewInput contains parameters for creating a chat session
type NewInput struct {
	Repo     repository.Repository
	LLM      adapter.LLM
	Embedder rag.Embedder
	Store    *rag.DocumentStore
	Plotter  adapter.Plotter

	UserID         string
	ConversationID model.ConversationID // Optional: continue an existing conversation

	Threshold float64 // similarity cutoff for the continuity merge, default rag.DefaultThreshold
	TopK      int     // documents retrieved per turn, default rag.DefaultTopK
}

func New(ctx context.Context, input NewInput) (*Session, error) {
	if input.UserID == "" {
		return nil, goerr.New("user id is required")
	}

	conversations, err := input.Repo.Load(ctx, input.UserID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load conversations")
	}

	s := &Session{
		repo:          input.Repo,
		llm:           input.LLM,
		embedder:      input.Embedder,
		store:         input.Store,
		plotter:       input.Plotter,
		userID:        input.UserID,
		conversations: conversations,
		threshold:     input.Threshold,
		topK:          input.TopK,
	}
	if s.plotter == nil {
		s.plotter = adapter.NewNoPlotter()
	}
	if s.threshold == 0 {
		s.threshold = rag.DefaultThreshold
	}
	if s.topK == 0 {
		s.topK = rag.DefaultTopK
	}

	if input.ConversationID != "" {
		for _, conv := range conversations {
			if conv.ID == input.ConversationID {
				s.conv = conv
				break
			}
		}
		if s.conv == nil {
			return nil, goerr.Wrap(model.ErrNotFound, "conversation not found",
				goerr.V("conversation_id", input.ConversationID))
		}
	} else {
		s.conv = model.NewConversation()
		s.conversations = append(s.conversations, s.conv)
	}

	return s, nil
}

// Conversation returns the conversation this session appends to.
func (s *Session) Conversation() *model.Conversation {
	return s.conv
}

// Ask processes one user turn to completion: classify, retrieve, answer,
// maybe plot, persist. Whatever happens, exactly one bot turn is appended so
// the history never silently drops a question.
func (s *Session) Ask(ctx context.Context, question string) (*model.Message, error) {
	logger := logging.From(ctx)

	// Follow-up about the last chart: answer from the cached series, no new
	// retrieval pass.
	if graphFollowupPattern.MatchString(question) && s.lastGraph != nil {
		s.conv.AppendUser(question)
		return s.describeLastGraph(ctx, question)
	}

	s.conv.AppendUser(question)
	if err := s.save(ctx); err != nil {
		return s.failTurn(ctx, err)
	}

	ragContext, err := rag.BuildContext(ctx, s.conv.Messages, s.embedder, s.store, s.threshold, s.topK)
	if err != nil {
		return s.failTurn(ctx, goerr.Wrap(err, "failed to build retrieval context"))
	}

	analysis := Classify(ctx, s.llm, question, ragContext)
	logger.Debug("question classified",
		"data_available", analysis.DataAvailable,
		"needs_visualization", analysis.NeedsVisualization,
		"kind", analysis.ResponseKind,
		"source", analysis.Source)

	cleanQuestion := codeFencePattern.ReplaceAllString(question, "")

	if !analysis.DataAvailable {
		return s.answerGeneral(ctx, cleanQuestion)
	}

	var buf bytes.Buffer
	if err := answerPromptTmpl.Execute(&buf, map[string]any{
		"Context":      ragContext,
		"History":      strings.Join(s.conv.PromptWindow(historyWindow), "\n"),
		"Question":     cleanQuestion,
		"ResponseKind": analysis.ResponseKind,
	}); err != nil {
		return s.failTurn(ctx, goerr.Wrap(err, "failed to render answer prompt"))
	}

	reply, err := s.complete(ctx, buf.String())
	if err != nil {
		return s.failTurn(ctx, err)
	}

	if analysis.NeedsVisualization {
		return s.answerGraph(ctx, question, ragContext, reply)
	}

	msg := s.conv.AppendBot(reply, model.KindText)
	if err := s.save(ctx); err != nil {
		return msg, err
	}
	return msg, nil
}

// answerGeneral handles questions outside the health corpus: no retrieval
// context, a visible warning prefixed to the reply.
func (s *Session) answerGeneral(ctx context.Context, question string) (*model.Message, error) {
	var buf bytes.Buffer
	if err := generalPromptTmpl.Execute(&buf, map[string]any{"Question": question}); err != nil {
		return s.failTurn(ctx, goerr.Wrap(err, "failed to render general prompt"))
	}

	reply, err := s.complete(ctx, buf.String())
	if err != nil {
		return s.failTurn(ctx, err)
	}

	msg := s.conv.AppendBot(noDataWarning+"\n\n"+reply, model.KindText)
	if err := s.save(ctx); err != nil {
		return msg, err
	}
	return msg, nil
}

// answerGraph extracts the plotting code from the reply and hands it to the
// plot renderer. Rendering failures record a text error turn; the turn
// itself still succeeds.
func (s *Session) answerGraph(ctx context.Context, question, ragContext, reply string) (*model.Message, error) {
	code, ok := extractPlotCode(reply)
	if !ok {
		// The model answered with text despite the classification.
		msg := s.conv.AppendBot(reply, model.KindText)
		if err := s.save(ctx); err != nil {
			return msg, err
		}
		return msg, nil
	}

	graph, png, err := s.plotter.Render(ctx, code)
	if err != nil {
		logging.From(ctx).Warn("plot rendering failed", "error", err)
		msg := s.conv.AppendBot(plotErrorMessage, model.KindText)
		if saveErr := s.save(ctx); saveErr != nil {
			return msg, saveErr
		}
		return msg, nil
	}

	msg := s.conv.AppendBot(graphCaption(graph), model.KindGraph)
	msg.ImageBase64 = base64.StdEncoding.EncodeToString(png)
	msg.OriginalQuery = question

	s.lastGraph = graph
	s.lastGraphContext = ragContext

	if err := s.save(ctx); err != nil {
		return msg, err
	}
	return msg, nil
}

func (s *Session) describeLastGraph(ctx context.Context, question string) (*model.Message, error) {
	var buf bytes.Buffer
	if err := graphDescPromptTmpl.Execute(&buf, map[string]any{
		"Context":  s.lastGraphContext,
		"Graph":    s.lastGraph,
		"Question": question,
	}); err != nil {
		return s.failTurn(ctx, goerr.Wrap(err, "failed to render graph description prompt"))
	}

	desc, err := s.complete(ctx, buf.String())
	if err != nil {
		return s.failTurn(ctx, err)
	}

	msg := s.conv.AppendBot(desc, model.KindText)
	if err := s.save(ctx); err != nil {
		return msg, err
	}
	return msg, nil
}

// complete wraps the LLM call, substituting the fixed busy message when the
// service is rate limited. All other failures propagate.
func (s *Session) complete(ctx context.Context, prompt string) (string, error) {
	reply, err := s.llm.Complete(ctx, prompt)
	if errors.Is(err, model.ErrRateLimited) {
		return busyMessage, nil
	}
	if err != nil {
		return "", err
	}
	return reply, nil
}

// failTurn records an error bot turn so the conversation stays consistent,
// then propagates the failure.
func (s *Session) failTurn(ctx context.Context, cause error) (*model.Message, error) {
	msg := s.conv.AppendBot(turnErrorMessage, model.KindText)
	if err := s.save(ctx); err != nil {
		logging.From(ctx).Warn("failed to save error turn", "error", err)
	}
	return msg, cause
}

func (s *Session) save(ctx context.Context) error {
	if err := s.repo.Save(ctx, s.userID, s.conversations); err != nil {
		return goerr.Wrap(err, "failed to save conversations", goerr.V("user_id", s.userID))
	}
	return nil
}

func graphCaption(graph *model.GraphData) string {
	if graph != nil && graph.Title != "" {
		return graph.Title
	}
	return "Graphique généré"
}
