// Package jsonl validates JSONL training data before it is sent to the
// fine-tuning API. Two layouts are accepted, detected from the first
// non-empty line:
//
//	chat:   {"messages": [{"role": "...", "content": "..."}, ...]}
//	legacy: {"prompt": "...", "completion": "..."}
package jsonl

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

type Format string

const (
	FormatChat   Format = "chat"
	FormatLegacy Format = "legacy"
)

// Result describes a successfully validated training file.
type Result struct {
	Format  Format
	Samples int
}

// Label returns the human readable format name.
func (r *Result) Label() string {
	if r.Format == FormatChat {
		return "チャット形式"
	}
	return "レガシー形式"
}

// Message returns the summary line shown to the uploader.
func (r *Result) Message() string {
	return fmt.Sprintf("%s: %dサンプル", r.Label(), r.Samples)
}

// Validate checks every line of the given JSONL content. The returned error
// carries a line-numbered, user-facing reason.
func Validate(content string) (*Result, error) {
	var (
		format  Format
		samples int
	)

	for i, line := range strings.Split(content, "\n") {
		lineNum := i + 1
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		samples++

		if !gjson.Valid(line) {
			return nil, fmt.Errorf("行%d: JSON形式エラー", lineNum)
		}
		row := gjson.Parse(line)

		if format == "" {
			switch {
			case row.Get("messages").Exists():
				format = FormatChat
			case row.Get("prompt").Exists() && row.Get("completion").Exists():
				format = FormatLegacy
			default:
				return nil, fmt.Errorf("行%d: 'messages'または'prompt'/'completion'がありません", lineNum)
			}
		}

		switch format {
		case FormatChat:
			msgs := row.Get("messages")
			if !msgs.Exists() {
				return nil, fmt.Errorf("行%d: 'messages'キーがありません", lineNum)
			}
			if !msgs.IsArray() || len(msgs.Array()) == 0 {
				return nil, fmt.Errorf("行%d: 'messages'が無効です", lineNum)
			}
			for _, msg := range msgs.Array() {
				if !msg.Get("role").Exists() || !msg.Get("content").Exists() {
					return nil, fmt.Errorf("行%d: メッセージ形式が不正です", lineNum)
				}
			}
		case FormatLegacy:
			if !row.Get("prompt").Exists() || !row.Get("completion").Exists() {
				return nil, fmt.Errorf("行%d: 'prompt'または'completion'がありません", lineNum)
			}
		}
	}

	if samples == 0 {
		return nil, fmt.Errorf("学習データが空です")
	}
	return &Result{Format: format, Samples: samples}, nil
}
