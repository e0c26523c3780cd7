package services

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"

	"gamechat-rag/errors"
	"gamechat-rag/models"
)

const (
	answerTemperature = 0.3
	answerMaxTokens   = 400
	historyTurnLimit  = 5

	systemPrompt = "あなたはカードゲームの攻略アシスタントです。" +
		"与えられた参考情報の範囲で、簡潔に（200文字以内を目安）で回答してください。" +
		"参考情報にない内容は無理に断定せず、わからないと伝えてください。"

	candidateTitlesLabel = "候補カードタイトル: "
	contextLabel         = "参考情報:\n"
	noContextMarker      = "参考情報は見つかりませんでした。"
	questionLabel        = "質問: "
	answerTitlesLabel    = "候補タイトル: "
)

// answerGenerator implements AnswerGenerator on the OpenAI chat completions API
type answerGenerator struct {
	client *openai.Client
	model  string
	logger Logger
}

// NewAnswerGenerator creates an answer generator. A nil client means no
// credential is configured.
func NewAnswerGenerator(client *openai.Client, model string, logger Logger) AnswerGenerator {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &answerGenerator{
		client: client,
		model:  model,
		logger: logger,
	}
}

// Generate asks the chat model for an answer grounded in contextText
func (g *answerGenerator) Generate(ctx context.Context, query, contextText string, history []models.ChatMessage, titles []string) (string, error) {
	if g.client == nil {
		err := errors.NewConfigurationError(errors.StageChatConfig, "OpenAI API key is not configured")
		g.logger.Error("RAG stage failed", err, String("stage", err.Stage))
		return "", err
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    buildAnswerMessages(query, contextText, history, titles),
		Temperature: answerTemperature,
		MaxTokens:   answerMaxTokens,
	})
	if err != nil {
		appErr := errors.NewUpstreamError(errors.StageChat, "Answer generation failed", err).
			WithUpstreamStatus(openAIStatus(err))
		g.logger.Error("RAG stage failed", err,
			String("stage", appErr.Stage),
			Int("upstream_status", appErr.UpstreamStatus))
		return "", appErr
	}

	answer := ""
	if len(resp.Choices) > 0 {
		answer = resp.Choices[0].Message.Content
	}

	if len(titles) > 0 {
		return strings.TrimSpace(answerTitlesLabel + strings.Join(titles, ", ") + "\n\n" + answer), nil
	}
	return answer, nil
}

// buildAnswerMessages orders the prompt: system instruction, the last few
// history turns, then one user turn with titles, context and the question
func buildAnswerMessages(query, contextText string, history []models.ChatMessage, titles []string) []openai.ChatCompletionMessage {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
	}

	if len(history) > historyTurnLimit {
		history = history[len(history)-historyTurnLimit:]
	}
	for _, turn := range history {
		messages = append(messages, openai.ChatCompletionMessage{Role: turn.Role, Content: turn.Content})
	}

	var parts []string
	if len(titles) > 0 {
		parts = append(parts, candidateTitlesLabel+strings.Join(titles, ", "))
	}
	if contextText != "" {
		parts = append(parts, contextLabel+contextText)
	} else {
		parts = append(parts, noContextMarker)
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: strings.Join(parts, "\n\n") + "\n\n" + questionLabel + query,
	})
	return messages
}
