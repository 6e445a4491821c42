package chat

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiConfig holds the model client settings loaded from the
// environment.
type GeminiConfig struct {
	APIKey string        `env:"GEMINI_API_KEY,required"`
	Model  string        `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`
	// FileTimeout bounds attachment downloads for vision prompts.
	FileTimeout time.Duration `env:"GEMINI_FILE_TIMEOUT" envDefault:"20s"`
}

// maxFileTextChars caps how much extracted document text goes into the
// prompt; beyond that the model gets diminishing returns for real cost.
const maxFileTextChars = 12000

// maxAttachmentBytes caps attachment downloads for vision prompts.
const maxAttachmentBytes = 8 << 20

const systemPromptBase = `Você é o Cidadão Inteligente 🇧🇷.
Seja claro, humano, organizado e útil.
Sempre entregue próximos passos práticos.
Use emojis com moderação (✅📌🧾⚠️📍).`

// fallbackAnswer is returned when the model produces no text at all.
const fallbackAnswer = "Não consegui responder agora."

// GeminiAssistant answers prompts with a Gemini model, attaching images
// inline for vision prompts.
type GeminiAssistant struct {
	client     *genai.Client
	model      string
	httpClient *http.Client
}

// NewGeminiAssistant creates the Gemini-backed assistant.
func NewGeminiAssistant(ctx context.Context, cfg GeminiConfig) (*GeminiAssistant, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("chat: failed to create gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}
	timeout := cfg.FileTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &GeminiAssistant{
		client:     client,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Close releases the underlying client.
func (a *GeminiAssistant) Close() error {
	return a.client.Close()
}

// Answer implements Assistant.
func (a *GeminiAssistant) Answer(ctx context.Context, p Prompt) (string, error) {
	model := a.client.GenerativeModel(a.model)
	model.SetTemperature(0.4)
	model.SetMaxOutputTokens(1100)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPromptBase + "\n" + p.Topic.StyleHint())},
	}

	parts := []genai.Part{genai.Text(userPrompt(p))}
	if isImage(p.FileName) && p.FileURL != "" {
		data, err := a.fetchAttachment(ctx, p.FileURL)
		if err != nil {
			// The image is an aid, not the question. Tell the model it is
			// missing instead of failing the whole exchange.
			parts = []genai.Part{genai.Text(userPrompt(p) + "\n\nA imagem anexada não pôde ser carregada.")}
		} else {
			parts = append(parts,
				genai.Text("Analise também a imagem anexada. Se algo estiver ilegível, diga."),
				genai.ImageData(imageFormat(p.FileName), data))
		}
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAssistantFailed, err)
	}

	answer := responseText(resp)
	if answer == "" {
		return fallbackAnswer, nil
	}
	return answer, nil
}

func (a *GeminiAssistant) fetchAttachment(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("chat: attachment download returned status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxAttachmentBytes))
}

func userPrompt(p Prompt) string {
	context := p.Context
	if context == "" {
		context = "não informado"
	}
	fileName := p.FileName
	if fileName == "" {
		fileName = "nenhum"
	}
	fileNote := p.FileNote
	if fileNote == "" {
		fileNote = "nenhuma"
	}
	fileText := p.FileText
	if len(fileText) > maxFileTextChars {
		fileText = fileText[:maxFileTextChars]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Contexto: %s\n\n", context)
	fmt.Fprintf(&b, "Arquivo: %s\n", fileName)
	fmt.Fprintf(&b, "Observação do arquivo: %s\n\n", fileNote)
	fmt.Fprintf(&b, "Conteúdo do arquivo:\n%s\n\n", fileText)
	fmt.Fprintf(&b, "Pergunta:\n%s", p.Message)
	return b.String()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return strings.TrimSpace(b.String())
}

func isPDF(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}

func isImage(name string) bool {
	n := strings.ToLower(name)
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".webp", ".heic"} {
		if strings.HasSuffix(n, ext) {
			return true
		}
	}
	return false
}

// imageFormat returns the format label the model expects for inline image
// data.
func imageFormat(name string) string {
	n := strings.ToLower(name)
	switch {
	case strings.HasSuffix(n, ".png"):
		return "png"
	case strings.HasSuffix(n, ".webp"):
		return "webp"
	case strings.HasSuffix(n, ".heic"):
		return "heic"
	default:
		return "jpeg"
	}
}
