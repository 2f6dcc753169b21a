package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractSpans runs few-shot labeled-span extraction over a batch of
// documents in a single completion call. The returned map is keyed by
// document ID; a document the model produced nothing for is absent from
// the map. Label names are taken verbatim from the examples.
func ExtractSpans(ctx context.Context, c Completer, docs []Document, examples []Example, instruction string) (map[string][]Span, error) {
	if len(docs) == 0 {
		return map[string][]Span{}, nil
	}

	prompt := buildExtractionPrompt(docs, examples, instruction)

	reply, _, err := c.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("extraction completion: %w", err)
	}

	return parseExtractionReply(reply)
}

func buildExtractionPrompt(docs []Document, examples []Example, instruction string) string {
	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n\n")
	b.WriteString("对下面每个文档，输出一个JSON对象：键为文档ID，值为 [{\"label\": ..., \"text\": ...}] 形式的抽取结果数组。没有可抽取内容的文档省略其键。只输出JSON，不要其他文字。\n")

	if len(examples) > 0 {
		b.WriteString("\n示例：\n")
		for i, ex := range examples {
			spans, _ := json.Marshal(ex.Spans)
			fmt.Fprintf(&b, "文档：\n%s\n抽取结果：%s\n", strings.TrimSpace(ex.Text), spans)
			if i < len(examples)-1 {
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\n待抽取文档：\n")
	for _, doc := range docs {
		fmt.Fprintf(&b, "[文档ID: %s]\n%s\n\n", doc.ID, strings.TrimSpace(doc.Text))
	}
	b.WriteString("JSON输出：")
	return b.String()
}

// parseExtractionReply tolerates prose around the JSON object by
// trimming to the outermost braces.
func parseExtractionReply(reply string) (map[string][]Span, error) {
	text := strings.TrimSpace(reply)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("extraction reply contains no JSON object")
	}
	text = text[start : end+1]

	result := map[string][]Span{}
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("parsing extraction JSON: %w", err)
	}
	return result, nil
}
