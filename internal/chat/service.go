package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cidadao-inteligente/api/internal/auth"
	"github.com/cidadao-inteligente/api/internal/usage"
)

// Request is one incoming chat message.
type Request struct {
	Message   string
	Context   string
	FileURL   string
	FileName  string
	SessionID string
}

// Reply is the assistant's answer plus the caller's resolved tier, echoed
// so the client can refresh its plan badge without a second request.
type Reply struct {
	Answer    string
	SessionID string
	Plan      string
	Status    string
}

// Service runs the chat pipeline: gate, extract, answer, record.
type Service struct {
	gate      *usage.Gate
	assistant Assistant
	parser    DocumentParser
	history   HistoryStore
	log       *slog.Logger
	now       func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithDocumentParser enables PDF text extraction.
func WithDocumentParser(p DocumentParser) ServiceOption {
	return func(s *Service) { s.parser = p }
}

// WithHistory enables chat history persistence.
func WithHistory(h HistoryStore) ServiceOption {
	return func(s *Service) { s.history = h }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates the chat service. The gate and assistant are
// required; parser and history are optional and the pipeline degrades
// gracefully without them.
func NewService(gate *usage.Gate, assistant Assistant, log *slog.Logger, opts ...ServiceOption) *Service {
	if gate == nil {
		panic("chat: usage gate is required")
	}
	if assistant == nil {
		panic("chat: assistant is required")
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		gate:      gate,
		assistant: assistant,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleMessage runs one exchange for the authenticated identity.
//
// Quota errors from the gate pass through typed so the handler can map
// them; everything after the model reply is best-effort.
func (s *Service) HandleMessage(ctx context.Context, id auth.Identity, req Request) (*Reply, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	wantsUpload := req.FileURL != "" && req.FileName != ""

	decision, err := s.gate.Allow(ctx, id.UserID, wantsUpload)
	if err != nil {
		return nil, err
	}

	topic := InferTopic(req.Context)
	prompt := Prompt{
		Message:  message,
		Context:  strings.TrimSpace(req.Context),
		Topic:    topic,
		FileURL:  req.FileURL,
		FileName: req.FileName,
	}

	if wantsUpload && isPDF(req.FileName) {
		prompt.FileText, prompt.FileNote = s.extractPDF(ctx, req.FileURL, req.FileName)
	}

	answer, err := s.assistant.Answer(ctx, prompt)
	if err != nil {
		return nil, err
	}

	s.recordHistory(ctx, id, topic, req.SessionID, message, answer)
	s.gate.Commit(ctx, id.UserID, wantsUpload)

	return &Reply{
		Answer:    answer,
		SessionID: req.SessionID,
		Plan:      string(decision.Plan),
		Status:    string(decision.Status),
	}, nil
}

// extractPDF returns the extracted text, or a note for the prompt when
// extraction is unavailable, failed or found nothing. The note keeps the
// model honest about the document instead of silently ignoring it.
func (s *Service) extractPDF(ctx context.Context, fileURL, fileName string) (text, note string) {
	if s.parser == nil {
		return "", "Recebi um PDF, mas a leitura de PDFs não está disponível no momento."
	}
	extracted, err := s.parser.ExtractText(ctx, fileURL, fileName)
	if err != nil {
		s.log.WarnContext(ctx, "pdf extraction failed",
			slog.String("file_name", fileName),
			slog.Any("error", err))
		return "", "Recebi um PDF, mas ocorreu um erro ao ler o conteúdo."
	}
	if strings.TrimSpace(extracted) == "" {
		return "", "Recebi um PDF, mas não consegui extrair texto. Pode ser um PDF escaneado (imagem)."
	}
	return extracted, ""
}

func (s *Service) recordHistory(ctx context.Context, id auth.Identity, topic Topic, sessionID, message, answer string) {
	if s.history == nil {
		return
	}
	err := s.history.Insert(ctx, Entry{
		UserID:           id.UserID,
		Topic:            topic,
		SessionID:        sessionID,
		UserMessage:      message,
		AssistantMessage: answer,
		CreatedAt:        s.now(),
	})
	if err != nil {
		s.log.WarnContext(ctx, "failed to save chat history",
			slog.String("user_id", id.UserID.String()),
			slog.Any("error", err))
	}
}
