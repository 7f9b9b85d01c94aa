package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/pdf2sheet/internal/common"
	"github.com/joseph-ayodele/pdf2sheet/internal/llm"
)

// ExtractRecords implements llm.RecordExtractor via chat/completions. The
// reply content is returned verbatim; the caller parses it so a malformed
// reply can still be preserved. Network errors, non-2xx statuses, and empty
// replies are provider errors and go through the retry policy.
func (c *Client) ExtractRecords(ctx context.Context, req llm.ExtractRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"chunk_index", req.ChunkIndex,
		"pages", fmt.Sprintf("%d-%d", req.StartPage, req.EndPage),
		"text_len", len(req.Text),
	)

	schema := llm.BuildRecordArraySchema()
	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt()},
			{"role": "user", "content": llm.BuildUserPrompt(req)},
			{"role": "system", "content": "JSON Schema for the reply:\n" + mustJSON(schema)},
		},
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	var content string
	err := c.cfg.Retry.Do(ctx, c.logger, func() error {
		raw, status, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
		if err != nil {
			return fmt.Errorf("openai status %d: %v: %w", status, err, common.ErrProvider)
		}

		var cc struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		}
		if err := json.Unmarshal(raw, &cc); err != nil {
			return fmt.Errorf("decode openai response: %v: %w", err, common.ErrProvider)
		}
		if len(cc.Choices) == 0 {
			return fmt.Errorf("no choices in openai response: %w", common.ErrProvider)
		}
		content = strings.TrimSpace(cc.Choices[0].Message.Content)
		return nil
	})
	if err != nil {
		c.logger.Error("llm.extract.failed",
			"req_id", rid,
			"chunk_index", req.ChunkIndex,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"chunk_index", req.ChunkIndex,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
