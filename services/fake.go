package services

import (
	"context"
	"hash/fnv"
	"strings"

	"gamechat-rag/models"
)

// FakeModeLabel marks responses produced without external services
const FakeModeLabel = "fake_mode"

const fakeHistoryTurns = 3

var fakeTips = []string{
	"序盤はエナジーを安定供給できるカードを優先すると立ち上がりが安定します。",
	"サーチ手段を1～2枚追加しておくと必要なコンボパーツを素早く集められます。",
	"弱点を突かれないようサブプランのタイプも用意しておくと安心です。",
	"終盤は手札管理が勝負。無駄なカードは早めに消費して選択肢を広げましょう。",
}

// FakePipeline answers deterministically without calling any external service
type FakePipeline struct {
	logger Logger
}

// NewFakePipeline creates the offline pipeline
func NewFakePipeline(logger Logger) *FakePipeline {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &FakePipeline{logger: logger}
}

// Chat echoes the question and recent history followed by a canned tip
func (p *FakePipeline) Chat(ctx context.Context, message string, history []models.ChatMessage) (*models.ChatResponse, error) {
	var b strings.Builder
	b.WriteString("(開発用ダミー回答)\n質問内容: ")
	b.WriteString(message)
	b.WriteString("\n")

	if len(history) > fakeHistoryTurns {
		history = history[len(history)-fakeHistoryTurns:]
	}
	if len(history) > 0 {
		lines := make([]string, 0, len(history))
		for _, turn := range history {
			lines = append(lines, turn.Role+": "+turn.Content)
		}
		b.WriteString("直近の履歴:\n")
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n")
	}
	b.WriteString(fakeTip(message))

	p.logger.Debug("Fake pipeline answered", Int("history_turns", len(history)))

	return &models.ChatResponse{
		Answer: b.String(),
		Meta: models.ChatResponseMeta{
			UsedContextCount: 0,
			MatchedTitles:    []string{},
			UsedNamespace:    models.StringPtr(FakeModeLabel),
			RawMatchCount:    models.IntPtr(0),
			UpstreamWarning:  models.StringPtr(FakeModeLabel),
			Cards:            []models.CardSummary{},
		},
	}, nil
}

// fakeTip picks a tip by the FNV-1a hash of the query
func fakeTip(query string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(query))
	return fakeTips[h.Sum32()%uint32(len(fakeTips))]
}
