package services

import (
	"bytes"
	stdContext "context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"github.com/plano-vida/plano_api/dto"
	"github.com/plano-vida/plano_api/shared"
)

// GoalExtractor pulls structured life goals out of free-form document text.
type GoalExtractor interface {
	ExtractGoals(ctx stdContext.Context, text string) ([]dto.ImportedGoal, error)
}

// AIService talks to an OpenAI-compatible chat completions endpoint. It is
// optional: when no API key is configured, callers fall back to the local
// parser.
type AIService struct {
	context.DefaultService

	apiURL string
	apiKey string
	model  string

	httpClient *http.Client
}

const AI_SVC = "ai_svc"

func (svc AIService) Id() string {
	return AI_SVC
}

func (svc *AIService) Configure(ctx *context.Context) error {
	svc.apiURL = os.Getenv("AI_API_URL")
	if svc.apiURL == "" {
		svc.apiURL = "https://api.openai.com/v1"
	}
	svc.apiKey = os.Getenv("AI_API_KEY")
	svc.model = os.Getenv("AI_MODEL")
	if svc.model == "" {
		svc.model = "gpt-4o-mini"
	}

	svc.httpClient = &http.Client{Timeout: 60 * time.Second}

	return svc.DefaultService.Configure(ctx)
}

func (svc *AIService) Start() error {
	if svc.apiKey == "" {
		log.Warn("AI_API_KEY not configured, goal extraction will use the local parser only")
	}
	return nil
}

// Enabled reports whether the remote extractor can be used at all.
func (svc *AIService) Enabled() bool {
	return svc.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// extractPrompt builds the extraction system prompt. The current year is
// baked in so undated documents still come back with usable years.
func extractPrompt(now time.Time) string {
	return fmt.Sprintf(`Você extrai metas de vida de documentos de planejamento pessoal.
O texto pode estar em português ou inglês e vir de planilhas achatadas (colunas separadas por "|").
Responda APENAS com um array JSON, sem texto adicional, no formato:
[{"year": 2025, "age": 30, "area": "financial", "goalText": "..."}]
Regras:
- "area" deve ser uma das sete: spiritual, intellectual, family, social, financial, professional, health.
- "year" é o ano-alvo da meta; "age" é a idade da pessoa nesse ano (pode ser null se ausente).
- Se o documento não indicar anos, atribua os anos começando no ano atual (%d) e somando um ano a cada período distinto do documento.
- Ignore cabeçalhos, linhas vazias e qualquer linha que não seja uma meta.
- Não invente metas que não estejam no texto.`, now.Year())
}

// ExtractGoals sends the document text to the model and parses the strict
// JSON reply. The model sometimes wraps JSON in a markdown fence; that is
// tolerated. Rate-limit and quota failures surface as typed sentinels so the
// caller can pick the right fallback message.
func (svc *AIService) ExtractGoals(ctx stdContext.Context, text string) ([]dto.ImportedGoal, error) {
	if !svc.Enabled() {
		return nil, shared.NewExternalServiceError(nil, "AI extraction is not configured")
	}

	content, err := svc.chatCompletion(ctx, []chatMessage{
		{Role: "system", Content: extractPrompt(time.Now())},
		{Role: "user", Content: text},
	})
	if err != nil {
		return nil, err
	}

	content = unwrapMarkdownFence(content)

	var goals []dto.ImportedGoal
	if err := sonic.UnmarshalString(content, &goals); err != nil {
		return nil, shared.NewExternalServiceError(err, "AI returned malformed goal data")
	}

	return goals, nil
}

const summarizeSystemPrompt = `Você é um coach de planejamento de vida. Receberá a lista de metas de um plano
de vida e deve produzir um resumo curto e encorajador em português (máximo 4 frases), destacando as áreas
mais fortes e as que merecem mais atenção. Responda apenas com o texto do resumo.`

func (svc *AIService) SummarizePlan(ctx stdContext.Context, goals []string) (string, error) {
	if !svc.Enabled() {
		return "", shared.NewExternalServiceError(nil, "AI summary is not configured")
	}
	if len(goals) == 0 {
		return "", shared.NewEmptyContentError("No goals to summarize")
	}

	content, err := svc.chatCompletion(ctx, []chatMessage{
		{Role: "system", Content: summarizeSystemPrompt},
		{Role: "user", Content: strings.Join(goals, "\n")},
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(content), nil
}

func (svc *AIService) chatCompletion(ctx stdContext.Context, messages []chatMessage) (string, error) {
	payload, err := sonic.Marshal(chatRequest{
		Model:       svc.model,
		Messages:    messages,
		Temperature: 0.1,
	})
	if err != nil {
		return "", shared.NewInternalError(err, "Failed to encode AI request")
	}

	url := strings.TrimRight(svc.apiURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", shared.NewInternalError(err, "Failed to build AI request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+svc.apiKey)

	resp, err := svc.httpClient.Do(req)
	if err != nil {
		return "", shared.NewExternalServiceError(err, "AI request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", shared.NewExternalServiceError(err, "Failed to read AI response")
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return "", shared.ErrAIRateLimited
	case http.StatusPaymentRequired:
		return "", shared.ErrAIInsufficientCredits
	default:
		log.WithFields(log.Fields{
			"status": resp.StatusCode,
			"body":   truncateForLog(string(body), 500),
		}).Error("AI request rejected")
		return "", shared.NewExternalServiceError(nil, fmt.Sprintf("AI service returned status %d", resp.StatusCode))
	}

	var parsed chatResponse
	if err := sonic.Unmarshal(body, &parsed); err != nil {
		return "", shared.NewExternalServiceError(err, "Failed to decode AI response")
	}
	if parsed.Error != nil {
		return "", shared.NewExternalServiceError(nil, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", shared.NewExternalServiceError(nil, "AI response contained no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

// unwrapMarkdownFence strips a surrounding ```json ... ``` block if present.
func unwrapMarkdownFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func truncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
